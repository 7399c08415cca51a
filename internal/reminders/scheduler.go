package reminders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Defaults used when a tenant has not configured reminder lead times.
const (
	DefaultEmailLead = 24 * time.Hour
	DefaultSMSLead   = time.Hour
)

// LeadTimes is a tenant's reminder configuration.
type LeadTimes struct {
	EmailLead    time.Duration
	SMSLead      time.Duration
	EmailEnabled bool
	SMSEnabled   bool
}

// DefaultLeadTimes returns the platform defaults: an email the day before and
// a text an hour out.
func DefaultLeadTimes() LeadTimes {
	return LeadTimes{
		EmailLead:    DefaultEmailLead,
		SMSLead:      DefaultSMSLead,
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}

type leadProvider interface {
	ReminderLeadTimes(ctx context.Context, orgID string) (LeadTimes, error)
}

type reminderWriter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, r *Reminder) error
	CancelForAppointmentTx(ctx context.Context, tx pgx.Tx, orgID string, appointmentID uuid.UUID) error
}

// Scheduler writes reminder rows for new bookings. It runs inside the booking
// transaction, so reminders commit with the appointment or not at all.
type Scheduler struct {
	store    reminderWriter
	leads    leadProvider
	defaults LeadTimes
	clock    func() time.Time
	logger   *logging.Logger
}

func NewScheduler(store reminderWriter, leads leadProvider, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{store: store, leads: leads, defaults: DefaultLeadTimes(), clock: time.Now, logger: logger}
}

// WithDefaultLeads overrides the platform-default lead times used when a
// tenant has no settings of its own.
func (s *Scheduler) WithDefaultLeads(email, sms time.Duration) *Scheduler {
	if email > 0 {
		s.defaults.EmailLead = email
	}
	if sms > 0 {
		s.defaults.SMSLead = sms
	}
	return s
}

// ScheduleForAppointment inserts one reminder per enabled channel. A channel
// whose send time has already passed is skipped rather than fired late.
func (s *Scheduler) ScheduleForAppointment(ctx context.Context, tx pgx.Tx, orgID string, appointmentID, clientID uuid.UUID, startsAt time.Time) error {
	leads := s.defaults
	if s.leads != nil {
		got, err := s.leads.ReminderLeadTimes(ctx, orgID)
		if err != nil {
			// Tenant settings being unreachable must not block a booking.
			s.logger.Warn("falling back to default reminder leads", "error", err, "org_id", orgID)
		} else {
			leads = got
		}
	}

	now := s.clock()
	plan := []struct {
		channel Channel
		enabled bool
		lead    time.Duration
	}{
		{ChannelEmail, leads.EmailEnabled, leads.EmailLead},
		{ChannelSMS, leads.SMSEnabled, leads.SMSLead},
	}

	for _, p := range plan {
		if !p.enabled {
			continue
		}
		sendAt := startsAt.Add(-p.lead)
		if !sendAt.After(now) {
			s.logger.Debug("skipping past-due reminder",
				"org_id", orgID, "appointment_id", appointmentID, "channel", p.channel, "send_at", sendAt)
			continue
		}
		r := &Reminder{
			OrgID:         orgID,
			AppointmentID: appointmentID,
			ClientID:      clientID,
			Channel:       p.channel,
			SendAt:        sendAt,
		}
		if err := s.store.InsertTx(ctx, tx, r); err != nil {
			return err
		}
	}
	return nil
}

// CancelForAppointment voids the undelivered reminders of an appointment.
func (s *Scheduler) CancelForAppointment(ctx context.Context, tx pgx.Tx, orgID string, appointmentID uuid.UUID) error {
	return s.store.CancelForAppointmentTx(ctx, tx, orgID, appointmentID)
}
