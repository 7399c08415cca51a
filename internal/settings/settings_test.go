package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/detailing-platform/internal/reminders"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client)
}

func TestGetReturnsDefaultsWhenUnset(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Get(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, "org-1", st.OrgID)
	assert.True(t, st.Reminders.EmailEnabled)
	assert.True(t, st.Reminders.SMSEnabled)
	assert.Equal(t, 24*60, st.Reminders.EmailLeadMinutes)
	assert.Equal(t, 60, st.Reminders.SMSLeadMinutes)
	assert.NotNil(t, st.BusinessHours.Monday)
	assert.Nil(t, st.BusinessHours.Saturday)
}

func TestSetRoundTrips(t *testing.T) {
	store := newTestStore(t)
	st := Default("org-1")
	st.ShopName = "Gloss Works Detailing"
	st.Reminders.SMSLeadMinutes = 120
	st.BusinessHours.Saturday = &DayHours{Open: "10:00", Close: "14:00"}

	require.NoError(t, store.Set(context.Background(), st))

	got, err := store.Get(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, "Gloss Works Detailing", got.ShopName)
	assert.Equal(t, 120, got.Reminders.SMSLeadMinutes)
	require.NotNil(t, got.BusinessHours.Saturday)
	assert.Equal(t, "10:00", got.BusinessHours.Saturday.Open)
}

func TestSettingsAreTenantScoped(t *testing.T) {
	store := newTestStore(t)
	st := Default("org-1")
	st.ShopName = "Org One Detailing"
	require.NoError(t, store.Set(context.Background(), st))

	other, err := store.Get(context.Background(), "org-2")
	require.NoError(t, err)
	assert.Empty(t, other.ShopName, "org-2 must not see org-1 settings")
}

func TestReminderLeadTimes(t *testing.T) {
	store := newTestStore(t)
	st := Default("org-1")
	st.Reminders.EmailLeadMinutes = 48 * 60
	st.Reminders.SMSEnabled = false
	st.Reminders.SMSLeadMinutes = 0
	require.NoError(t, store.Set(context.Background(), st))

	leads, err := store.ReminderLeadTimes(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, leads.EmailLead)
	assert.False(t, leads.SMSEnabled)
	assert.Equal(t, reminders.DefaultSMSLead, leads.SMSLead, "zero lead falls back to default")
}

func TestIsOpenAt(t *testing.T) {
	st := Default("org-1")
	st.Timezone = "UTC"

	monday10 := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	assert.True(t, st.IsOpenAt(monday10))

	monday18 := time.Date(2026, 9, 7, 18, 0, 0, 0, time.UTC)
	assert.False(t, st.IsOpenAt(monday18))

	sunday10 := time.Date(2026, 9, 6, 10, 0, 0, 0, time.UTC)
	assert.False(t, st.IsOpenAt(sunday10))
}
