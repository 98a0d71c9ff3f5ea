package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/carservice-desk/internal/observability/metrics"
	"github.com/wolfman30/carservice-desk/internal/slots"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

var appointmentsTracer = otel.Tracer("carservice.internal.appointments")

// BookingRequest is what the dialog has confirmed with the caller.
type BookingRequest struct {
	CustomerName string
	VehicleID    string
	Date         time.Time
	Preferred    slots.Slot
}

// Booking is a committed appointment together with what the caller asked for.
type Booking struct {
	Appointment   Appointment
	RequestedDate time.Time
	Preferred     slots.Slot
}

// Moved reports whether the committed date or slot differs from the request.
func (b *Booking) Moved() bool {
	if b == nil {
		return false
	}
	if !b.Appointment.Date.Equal(slots.DateOf(b.RequestedDate)) {
		return true
	}
	return b.Preferred.Valid() && b.Appointment.Slot != b.Preferred
}

// Service books appointments through the slot ledger.
type Service struct {
	store   Store
	logger  *logging.Logger
	metrics *metrics.DialogMetrics
}

// NewService constructs a booking service. metrics may be nil.
func NewService(store Store, logger *logging.Logger, m *metrics.DialogMetrics) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, logger: logger, metrics: m}
}

// Book allocates a slot starting at the requested date and inserts the appointment.
// ErrDuplicateVehicle is returned when the store rejects the vehicle; any other error
// means nothing was committed.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Booking, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("carservice.vehicle_id", req.VehicleID),
		attribute.String("carservice.requested_date", req.Date.Format(slots.DateLayout)),
		attribute.String("carservice.preferred_slot", string(req.Preferred)),
	)

	if strings.TrimSpace(req.VehicleID) == "" || strings.TrimSpace(req.CustomerName) == "" {
		err := fmt.Errorf("appointments: vehicle and customer name required")
		span.RecordError(err)
		return nil, err
	}

	date, slot, err := slots.FindSlot(req.Date, req.Preferred, BookedLookup(ctx, s.store))
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("appointments: find slot: %w", err)
	}

	appt := Appointment{
		CustomerName: strings.TrimSpace(req.CustomerName),
		VehicleID:    req.VehicleID,
		Date:         date,
		Slot:         slot,
	}
	inserted, err := s.store.Insert(ctx, appt)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("error")
		return nil, err
	}
	if !inserted {
		s.metrics.ObserveBooking("duplicate")
		s.logger.Info("booking rejected, vehicle already booked", "vehicle_id", req.VehicleID)
		return nil, ErrDuplicateVehicle
	}

	booking := &Booking{Appointment: appt, RequestedDate: req.Date, Preferred: req.Preferred}
	outcome := "booked"
	if booking.Moved() {
		outcome = "moved"
	}
	s.metrics.ObserveBooking(outcome)
	span.SetAttributes(
		attribute.String("carservice.date", appt.DateString()),
		attribute.String("carservice.slot", string(slot)),
	)
	s.logger.Info("appointment booked",
		"vehicle_id", appt.VehicleID,
		"date", appt.DateString(),
		"slot", string(slot),
		"moved", booking.Moved(),
	)
	return booking, nil
}

// Lookup returns the appointment for a normalized vehicle id, or nil when none exists.
func (s *Service) Lookup(ctx context.Context, vehicleID string) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.lookup",
		trace.WithAttributes(attribute.String("carservice.vehicle_id", vehicleID)))
	defer span.End()

	appt, err := s.store.FindByVehicle(ctx, vehicleID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return appt, nil
}

// List returns every appointment ordered by date and slot.
func (s *Service) List(ctx context.Context) ([]Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.list")
	defer span.End()

	appts, err := s.store.ListAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return appts, nil
}

// IsDuplicate reports whether err is a uniqueness rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateVehicle)
}
