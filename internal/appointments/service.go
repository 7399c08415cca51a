package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/glossworks/detailing-platform/internal/observability/metrics"
	"github.com/glossworks/detailing-platform/internal/slots"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Event types emitted by the booking flow.
const (
	EventBooked      = "appointment.booked.v1"
	EventCancelled   = "appointment.cancelled.v1"
	EventRescheduled = "appointment.rescheduled.v1"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type store interface {
	Insert(ctx context.Context, q Querier, a *Appointment) error
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, q Querier, orgID string, id uuid.UUID, from, to Status) (*Appointment, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]Appointment, error)
}

type slotBook interface {
	Claim(ctx context.Context, q slots.Querier, orgID string, startsAt time.Time) (uuid.UUID, error)
	Release(ctx context.Context, q slots.Querier, orgID string, id uuid.UUID) error
}

type clientDirectory interface {
	Exists(ctx context.Context, orgID string, id uuid.UUID) (bool, error)
}

type serviceCatalog interface {
	ActiveExists(ctx context.Context, orgID string, id uuid.UUID) (bool, error)
}

type reminderScheduler interface {
	ScheduleForAppointment(ctx context.Context, tx pgx.Tx, orgID string, appointmentID, clientID uuid.UUID, startsAt time.Time) error
	CancelForAppointment(ctx context.Context, tx pgx.Tx, orgID string, appointmentID uuid.UUID) error
}

type outboxWriter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, orgID, eventType string, payload any) error
}

// Service orchestrates the booking transaction and guarded lifecycle ops.
type Service struct {
	db        txBeginner
	appts     store
	slots     slotBook
	clients   clientDirectory
	catalog   serviceCatalog
	reminders reminderScheduler
	outbox    outboxWriter
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
}

func NewService(db txBeginner, appts store, slotRepo slotBook, clients clientDirectory,
	catalog serviceCatalog, reminders reminderScheduler, outbox outboxWriter,
	m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	return &Service{
		db:        db,
		appts:     appts,
		slots:     slotRepo,
		clients:   clients,
		catalog:   catalog,
		reminders: reminders,
		outbox:    outbox,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("appointments"),
	}
}

type bookedPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	OrgID         string    `json:"org_id"`
	ClientID      uuid.UUID `json:"client_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	SlotID        uuid.UUID `json:"slot_id"`
	StartsAt      time.Time `json:"starts_at"`
}

// Book claims the slot, inserts the appointment, schedules reminders and
// records the outbox event inside one transaction. At most one caller wins a
// given slot; losers get slots.ErrSlotNotAvailable.
func (s *Service) Book(ctx context.Context, orgID string, req BookRequest) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.Book",
		trace.WithAttributes(attribute.String("org_id", orgID)))
	defer span.End()
	start := time.Now()

	ok, err := s.clients.Exists(ctx, orgID, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}
	if !ok {
		return nil, ErrClientNotFound
	}
	ok, err = s.catalog.ActiveExists(ctx, orgID, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("verify service: %w", err)
	}
	if !ok {
		return nil, ErrServiceNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback(ctx)

	slotID, err := s.slots.Claim(ctx, tx, orgID, req.StartsAt)
	if err != nil {
		if errors.Is(err, slots.ErrSlotNotAvailable) {
			s.metrics.ObserveConflict()
			s.metrics.ObserveBooking("conflict", time.Since(start).Seconds())
		}
		return nil, err
	}

	appt := &Appointment{
		ID:        uuid.New(),
		OrgID:     orgID,
		ClientID:  req.ClientID,
		ServiceID: req.ServiceID,
		SlotID:    slotID,
		StartsAt:  req.StartsAt,
		Status:    StatusScheduled,
		Notes:     req.Notes,
	}
	if err := s.appts.Insert(ctx, tx, appt); err != nil {
		return nil, err
	}

	if err := s.reminders.ScheduleForAppointment(ctx, tx, orgID, appt.ID, appt.ClientID, appt.StartsAt); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}

	if err := s.outbox.InsertTx(ctx, tx, orgID, EventBooked, bookedPayload{
		AppointmentID: appt.ID,
		OrgID:         orgID,
		ClientID:      appt.ClientID,
		ServiceID:     appt.ServiceID,
		SlotID:        slotID,
		StartsAt:      appt.StartsAt,
	}); err != nil {
		return nil, fmt.Errorf("record booked event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}

	s.metrics.ObserveBooking("booked", time.Since(start).Seconds())
	s.logger.Info("appointment booked",
		"org_id", orgID, "appointment_id", appt.ID, "slot_id", slotID, "starts_at", appt.StartsAt)
	return appt, nil
}

// Cancel moves the appointment to cancelled, frees its slot and cancels any
// pending reminders. Cancelling an already-cancelled appointment is a no-op.
func (s *Service) Cancel(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == StatusCancelled {
		return appt, nil
	}
	if !appt.Status.CanTransition(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.appts.UpdateStatus(ctx, tx, orgID, id, appt.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.slots.Release(ctx, tx, orgID, appt.SlotID); err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	if err := s.reminders.CancelForAppointment(ctx, tx, orgID, id); err != nil {
		return nil, fmt.Errorf("cancel reminders: %w", err)
	}
	if err := s.outbox.InsertTx(ctx, tx, orgID, EventCancelled, map[string]any{
		"appointment_id": id,
		"org_id":         orgID,
		"slot_id":        appt.SlotID,
	}); err != nil {
		return nil, fmt.Errorf("record cancelled event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}

	s.logger.Info("appointment cancelled", "org_id", orgID, "appointment_id", id)
	return updated, nil
}

// Transition applies a simple guarded status change (completed or no_show).
// Same-state transitions are idempotent no-ops.
func (s *Service) Transition(ctx context.Context, orgID string, id uuid.UUID, to Status) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidTransition
	}
	appt, err := s.appts.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if appt.Status == to {
		return appt, nil
	}
	if !appt.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	updated, err := s.appts.UpdateStatus(ctx, tx, orgID, id, appt.Status, to)
	if err != nil {
		return nil, err
	}
	// A completed or missed visit no longer needs its reminders.
	if to == StatusCompleted || to == StatusNoShow {
		if err := s.reminders.CancelForAppointment(ctx, tx, orgID, id); err != nil {
			return nil, fmt.Errorf("cancel reminders: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition tx: %w", err)
	}
	return updated, nil
}

// Reschedule books the appointment's client and service into a new slot. The
// old row is marked rescheduled, its slot freed, and a fresh scheduled row is
// created pointing back at the original via rescheduled_from.
func (s *Service) Reschedule(ctx context.Context, orgID string, id uuid.UUID, newStartsAt time.Time) (*Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "appointments.Reschedule",
		trace.WithAttributes(attribute.String("org_id", orgID)))
	defer span.End()

	appt, err := s.appts.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransition(StatusRescheduled) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reschedule tx: %w", err)
	}
	defer tx.Rollback(ctx)

	newSlotID, err := s.slots.Claim(ctx, tx, orgID, newStartsAt)
	if err != nil {
		return nil, err
	}
	if _, err := s.appts.UpdateStatus(ctx, tx, orgID, id, appt.Status, StatusRescheduled); err != nil {
		return nil, err
	}
	if err := s.slots.Release(ctx, tx, orgID, appt.SlotID); err != nil {
		return nil, fmt.Errorf("release old slot: %w", err)
	}
	if err := s.reminders.CancelForAppointment(ctx, tx, orgID, id); err != nil {
		return nil, fmt.Errorf("cancel old reminders: %w", err)
	}

	next := &Appointment{
		ID:              uuid.New(),
		OrgID:           orgID,
		ClientID:        appt.ClientID,
		ServiceID:       appt.ServiceID,
		SlotID:          newSlotID,
		StartsAt:        newStartsAt,
		Status:          StatusScheduled,
		Notes:           appt.Notes,
		RescheduledFrom: &appt.ID,
	}
	if err := s.appts.Insert(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := s.reminders.ScheduleForAppointment(ctx, tx, orgID, next.ID, next.ClientID, next.StartsAt); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	if err := s.outbox.InsertTx(ctx, tx, orgID, EventRescheduled, map[string]any{
		"appointment_id":     next.ID,
		"rescheduled_from":   appt.ID,
		"org_id":             orgID,
		"starts_at":          newStartsAt,
		"previous_starts_at": appt.StartsAt,
	}); err != nil {
		return nil, fmt.Errorf("record rescheduled event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reschedule tx: %w", err)
	}

	s.logger.Info("appointment rescheduled",
		"org_id", orgID, "appointment_id", id, "new_appointment_id", next.ID)
	return next, nil
}

// Get returns one appointment in the tenant.
func (s *Service) Get(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, orgID, id)
}

// List returns tenant appointments matching the filter.
func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]Appointment, error) {
	return s.appts.List(ctx, orgID, filter)
}
