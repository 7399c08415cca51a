// Package settings stores per-tenant shop configuration: business hours,
// notification preferences and reminder lead times. Settings are read on hot
// paths (booking, reminders), so they live in Redis rather than Postgres.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/glossworks/detailing-platform/internal/reminders"
)

// DayHours represents the opening hours for a single day.
// Nil means the shop is closed that day.
type DayHours struct {
	Open  string `json:"open"`  // "09:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// BusinessHours maps day names to their hours.
type BusinessHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// GetHoursForDay returns the hours for a weekday, nil when closed.
func (b *BusinessHours) GetHoursForDay(weekday time.Weekday) *DayHours {
	switch weekday {
	case time.Monday:
		return b.Monday
	case time.Tuesday:
		return b.Tuesday
	case time.Wednesday:
		return b.Wednesday
	case time.Thursday:
		return b.Thursday
	case time.Friday:
		return b.Friday
	case time.Saturday:
		return b.Saturday
	default:
		return b.Sunday
	}
}

// ReminderPrefs configures when and how a tenant's clients are reminded.
type ReminderPrefs struct {
	EmailEnabled     bool `json:"email_enabled"`
	SMSEnabled       bool `json:"sms_enabled"`
	EmailLeadMinutes int  `json:"email_lead_minutes"`
	SMSLeadMinutes   int  `json:"sms_lead_minutes"`
}

// Settings holds one tenant's shop configuration.
type Settings struct {
	OrgID         string        `json:"org_id"`
	ShopName      string        `json:"shop_name,omitempty"`
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Timezone      string        `json:"timezone"` // e.g., "America/New_York"
	BusinessHours BusinessHours `json:"business_hours"`
	Reminders     ReminderPrefs `json:"reminders"`
}

// Default returns the settings a tenant starts with before configuring
// anything: weekday hours, both reminder channels on at platform defaults.
func Default(orgID string) *Settings {
	weekday := &DayHours{Open: "09:00", Close: "17:00"}
	return &Settings{
		OrgID:    orgID,
		Timezone: "America/New_York",
		BusinessHours: BusinessHours{
			Monday:    weekday,
			Tuesday:   weekday,
			Wednesday: weekday,
			Thursday:  weekday,
			Friday:    weekday,
		},
		Reminders: ReminderPrefs{
			EmailEnabled:     true,
			SMSEnabled:       true,
			EmailLeadMinutes: int(reminders.DefaultEmailLead / time.Minute),
			SMSLeadMinutes:   int(reminders.DefaultSMSLead / time.Minute),
		},
	}
}

// IsOpenAt reports whether the shop is open at t in its own timezone.
func (s *Settings) IsOpenAt(t time.Time) bool {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	hours := s.BusinessHours.GetHoursForDay(local.Weekday())
	if hours == nil {
		return false
	}
	start, err1 := time.Parse("15:04", hours.Open)
	end, err2 := time.Parse("15:04", hours.Close)
	if err1 != nil || err2 != nil {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= start.Hour()*60+start.Minute() && minutes < end.Hour()*60+end.Minute()
}

// Store provides persistence for tenant settings.
type Store struct {
	redis *redis.Client
}

// NewStore creates a settings store.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(orgID string) string {
	return fmt.Sprintf("shop:settings:%s", orgID)
}

// Get retrieves tenant settings, returning defaults if none were saved.
func (s *Store) Get(ctx context.Context, orgID string) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(orgID)).Bytes()
	if err == redis.Nil {
		return Default(orgID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: get: %w", err)
	}

	var st Settings
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("settings: unmarshal: %w", err)
	}
	return &st, nil
}

// Set saves tenant settings.
func (s *Store) Set(ctx context.Context, st *Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(st.OrgID), data, 0).Err(); err != nil {
		return fmt.Errorf("settings: set: %w", err)
	}
	return nil
}

// ReminderLeadTimes adapts stored preferences to the reminder scheduler.
func (s *Store) ReminderLeadTimes(ctx context.Context, orgID string) (reminders.LeadTimes, error) {
	st, err := s.Get(ctx, orgID)
	if err != nil {
		return reminders.LeadTimes{}, err
	}
	leads := reminders.LeadTimes{
		EmailLead:    time.Duration(st.Reminders.EmailLeadMinutes) * time.Minute,
		SMSLead:      time.Duration(st.Reminders.SMSLeadMinutes) * time.Minute,
		EmailEnabled: st.Reminders.EmailEnabled,
		SMSEnabled:   st.Reminders.SMSEnabled,
	}
	if leads.EmailLead <= 0 {
		leads.EmailLead = reminders.DefaultEmailLead
	}
	if leads.SMSLead <= 0 {
		leads.SMSLead = reminders.DefaultSMSLead
	}
	return leads, nil
}
