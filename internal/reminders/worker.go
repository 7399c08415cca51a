package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/notify"
	"github.com/glossworks/detailing-platform/internal/observability/metrics"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

type dueSource interface {
	FetchDue(ctx context.Context, limit int32) ([]DueReminder, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, sendErr string, retryAt time.Time, dead bool) error
}

// WorkerConfig tunes the dispatch loop.
type WorkerConfig struct {
	Interval    time.Duration
	BatchSize   int32
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	// SMSFrom is the sending number shown to clients.
	SMSFrom string
}

func (c *WorkerConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = time.Minute
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = time.Hour
	}
}

// Worker drains due reminders and dispatches them over email and SMS.
type Worker struct {
	store   dueSource
	email   notify.EmailSender
	sms     notify.SMSSender
	metrics *metrics.ReminderMetrics
	logger  *logging.Logger
	cfg     WorkerConfig
	clock   func() time.Time
}

func NewWorker(store dueSource, email notify.EmailSender, sms notify.SMSSender,
	m *metrics.ReminderMetrics, logger *logging.Logger, cfg WorkerConfig) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	cfg.applyDefaults()
	return &Worker{
		store:   store,
		email:   email,
		sms:     sms,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		clock:   time.Now,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started",
		"interval", w.cfg.Interval, "batch_size", w.cfg.BatchSize, "max_attempts", w.cfg.MaxAttempts)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	due, err := w.store.FetchDue(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.Error("failed to fetch due reminders", "error", err)
		return
	}
	for _, d := range due {
		w.dispatch(ctx, d)
	}
}

func (w *Worker) dispatch(ctx context.Context, d DueReminder) {
	var err error
	switch d.Channel {
	case ChannelEmail:
		err = w.sendEmail(ctx, d)
	case ChannelSMS:
		err = w.sendSMS(ctx, d)
	default:
		err = fmt.Errorf("unknown reminder channel %q", d.Channel)
	}

	if err == nil {
		if markErr := w.store.MarkSent(ctx, d.ID); markErr != nil {
			w.logger.Error("failed to mark reminder sent", "error", markErr, "reminder_id", d.ID)
			return
		}
		w.metrics.ObserveSent(string(d.Channel))
		w.logger.Info("reminder sent",
			"org_id", d.OrgID, "reminder_id", d.ID, "channel", d.Channel, "appointment_id", d.AppointmentID)
		return
	}

	w.metrics.ObserveFailed(string(d.Channel))
	attempts := d.Attempts + 1
	dead := attempts >= w.cfg.MaxAttempts
	retryAt := w.clock().Add(w.backoff(d.Attempts))
	if dead {
		w.metrics.ObserveDead()
		w.logger.Error("reminder moved to dead letter",
			"org_id", d.OrgID, "reminder_id", d.ID, "channel", d.Channel, "attempts", attempts, "error", err)
	} else {
		w.logger.Warn("reminder send failed, will retry",
			"org_id", d.OrgID, "reminder_id", d.ID, "channel", d.Channel, "attempts", attempts,
			"retry_at", retryAt, "error", err)
	}
	if markErr := w.store.MarkFailed(ctx, d.ID, err.Error(), retryAt, dead); markErr != nil {
		w.logger.Error("failed to mark reminder failed", "error", markErr, "reminder_id", d.ID)
	}
}

// backoff doubles per attempt from the base, capped at the configured max.
func (w *Worker) backoff(attempts int) time.Duration {
	d := w.cfg.BackoffBase << uint(attempts)
	if d <= 0 || d > w.cfg.BackoffMax {
		return w.cfg.BackoffMax
	}
	return d
}

func (w *Worker) sendEmail(ctx context.Context, d DueReminder) error {
	if w.email == nil {
		return fmt.Errorf("email sender not configured")
	}
	if d.ClientEmail == "" {
		return fmt.Errorf("client has no email address")
	}
	when := d.StartsAt.Format("Monday, January 2 at 3:04 PM")
	return w.email.Send(ctx, notify.EmailMessage{
		To:      d.ClientEmail,
		ToName:  d.ClientName,
		Subject: "Upcoming detailing appointment",
		Body: fmt.Sprintf("Hi %s,\n\nThis is a reminder that your detailing appointment is on %s.\n\nSee you then!",
			d.ClientName, when),
	})
}

func (w *Worker) sendSMS(ctx context.Context, d DueReminder) error {
	if w.sms == nil {
		return fmt.Errorf("sms sender not configured")
	}
	if d.ClientPhone == "" {
		return fmt.Errorf("client has no phone number")
	}
	when := d.StartsAt.Format("Jan 2 at 3:04 PM")
	return w.sms.Send(ctx, notify.SMSMessage{
		OrgID: d.OrgID,
		To:    d.ClientPhone,
		From:  w.cfg.SMSFrom,
		Body:  fmt.Sprintf("Reminder: your detailing appointment is %s. Reply STOP to opt out.", when),
	})
}
