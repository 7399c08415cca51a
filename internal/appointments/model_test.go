package appointments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusRescheduled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusRescheduled, StatusCompleted, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to))
		})
	}
}

func TestSameStateTransitionIsAllowed(t *testing.T) {
	for _, st := range []Status{StatusScheduled, StatusCompleted, StatusNoShow, StatusCancelled, StatusRescheduled} {
		assert.True(t, st.CanTransition(st), "same-state transition should be a no-op, not an error: %s", st)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StatusScheduled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusNoShow.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRescheduled.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusScheduled.Valid())
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}
