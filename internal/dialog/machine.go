package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wolfman30/carservice-desk/internal/appointments"
	"github.com/wolfman30/carservice-desk/internal/phrase"
	"github.com/wolfman30/carservice-desk/internal/slots"
	"github.com/wolfman30/carservice-desk/internal/temporal"
	"github.com/wolfman30/carservice-desk/internal/vehicle"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// DefaultBusinessName is used in the greeting when none is configured.
const DefaultBusinessName = "Deewanshi Car Center"

// Outcomes reported on a Turn.
const (
	OutcomeBooked         = "booked"
	OutcomeMoved          = "moved"
	OutcomeDuplicate      = "duplicate"
	OutcomeBookingFailed  = "booking_failed"
	OutcomeStatusFound    = "status_found"
	OutcomeStatusNotFound = "status_not_found"
	OutcomeClosed         = "closed"
)

const (
	menuPrompt      = "Say 'book appointment' or 'check car status'."
	anythingElse    = "Anything else I can help with?"
	movedNotice     = "Your preferred time was taken, so I have booked the next available slot."
	duplicateNotice = "Sorry, this vehicle already has an appointment."
)

// Bookings is the part of the appointment service the conversation needs.
type Bookings interface {
	Book(ctx context.Context, req appointments.BookingRequest) (*appointments.Booking, error)
	Lookup(ctx context.Context, vehicleID string) (*appointments.Appointment, error)
}

// Turn is the result of one utterance.
type Turn struct {
	Messages []string
	Done     bool
	// Outcome is set on turns that booked, looked up or closed the conversation.
	Outcome string
}

func (t *Turn) say(format string, args ...any) {
	if len(args) == 0 {
		t.Messages = append(t.Messages, format)
		return
	}
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
}

// Machine holds the stage handlers. It keeps no per-caller state; everything lives in
// the Session passed to each call.
type Machine struct {
	resolver *temporal.Resolver
	bookings Bookings
	business string
	logger   *logging.Logger
}

// NewMachine wires the stage handlers to a date resolver and the booking service.
func NewMachine(resolver *temporal.Resolver, bookings Bookings, logger *logging.Logger) *Machine {
	if resolver == nil {
		panic("dialog: resolver required")
	}
	if bookings == nil {
		panic("dialog: bookings required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{resolver: resolver, bookings: bookings, business: DefaultBusinessName, logger: logger}
}

// WithBusinessName overrides the name used in the greeting.
func (m *Machine) WithBusinessName(name string) *Machine {
	if name = strings.TrimSpace(name); name != "" {
		m.business = name
	}
	return m
}

// Greet resets s and opens the conversation.
func (m *Machine) Greet(s *Session) Turn {
	s.Reset()
	var t Turn
	t.say("%s! Welcome to %s. May I know your name please?", m.salutation(), m.business)
	s.Stage = StageAskName
	return t
}

func (m *Machine) salutation() string {
	switch h := m.resolver.Now().Hour(); {
	case h < 12:
		return "Good morning"
	case h < 17:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}

// Step handles one caller utterance at the session's current stage.
func (m *Machine) Step(ctx context.Context, s *Session, utterance string) Turn {
	raw := strings.TrimSpace(utterance)
	text := phrase.Normalize(raw)

	var t Turn
	switch s.Stage {
	case StageAskName:
		m.askName(s, raw, &t)
	case StageConfirmName:
		m.confirmName(s, text, &t)
	case StageMainMenu:
		m.mainMenu(s, text, &t)
	case StageGetVehicle:
		m.getVehicle(s, raw, &t)
	case StageConfirmVehicle:
		m.confirmVehicle(s, text, &t)
	case StageGetDate:
		m.getDate(s, raw, &t)
	case StageConfirmDate:
		m.confirmDate(s, text, &t)
	case StageGetTime:
		m.getTime(s, raw, &t)
	case StageConfirmTime:
		m.confirmTime(ctx, s, text, &t)
	case StageCheckStatus:
		m.checkStatus(ctx, s, raw, &t)
	case StageFinalAsk:
		m.finalAsk(s, text, &t)
	default:
		t = m.Greet(s)
	}
	return t
}

func (m *Machine) askName(s *Session, raw string, t *Turn) {
	name := titleCase(raw)
	if name == "" {
		t.say("Sorry, I didn't catch your name. May I know your name please?")
		return
	}
	s.CustomerName = name
	t.say("You said your name is %s. Is that correct? Say yes or no.", name)
	s.Stage = StageConfirmName
}

func (m *Machine) confirmName(s *Session, text string, t *Turn) {
	if !affirmed(text) {
		t.say("Sorry, please say your name again.")
		s.Stage = StageAskName
		return
	}
	t.say("Great! Thank you %s.", s.FirstName())
	t.say("How can I help you today? " + menuPrompt)
	s.Stage = StageMainMenu
}

func (m *Machine) mainMenu(s *Session, text string, t *Turn) {
	switch classifyIntent(text) {
	case IntentBook:
		t.say("Please tell me your vehicle number.")
		s.Stage = StageGetVehicle
	case IntentStatus:
		t.say("Please say your vehicle number to check status.")
		s.Stage = StageCheckStatus
	default:
		t.say("%s", "Please "+lowerFirst(menuPrompt))
	}
}

func (m *Machine) getVehicle(s *Session, raw string, t *Turn) {
	id := vehicle.Normalize(raw)
	if !vehicle.Usable(id) {
		t.say("I didn't catch that properly. Please say your vehicle number again.")
		return
	}
	s.VehicleID = id
	t.say("You said: %s. Is this correct?", id)
	s.Stage = StageConfirmVehicle
}

func (m *Machine) confirmVehicle(s *Session, text string, t *Turn) {
	if !affirmed(text) {
		t.say("Please say your vehicle number again.")
		s.Stage = StageGetVehicle
		return
	}
	t.say("Vehicle confirmed!")
	t.say("What date would you like? For example: tomorrow, 25th November, or next Monday.")
	s.Stage = StageGetDate
}

func (m *Machine) getDate(s *Session, raw string, t *Turn) {
	date, ok := m.resolver.ResolveDate(raw)
	if !ok {
		t.say("Sorry, I couldn't understand that date. Please say it again, for example: tomorrow or 5 December.")
		return
	}
	s.PreferredDateText = raw
	s.ResolvedDate = date
	t.say("You want: %s. Is this correct?", temporal.FormatSpoken(date))
	s.Stage = StageConfirmDate
}

func (m *Machine) confirmDate(s *Session, text string, t *Turn) {
	if !affirmed(text) {
		t.say("Please say the date again.")
		s.Stage = StageGetDate
		return
	}
	t.say("Date confirmed!")
	t.say("What time do you prefer? We have %s.", slots.Menu())
	s.Stage = StageGetTime
}

func (m *Machine) getTime(s *Session, raw string, t *Turn) {
	slot, ok := m.resolver.ResolveTimeSlot(raw)
	if !ok {
		t.say("Sorry, we only have %s. Please say the time again.", slots.Menu())
		return
	}
	s.PreferredSlot = slot
	t.say("You said: %s. Confirm?", slot.Label())
	s.Stage = StageConfirmTime
}

func (m *Machine) confirmTime(ctx context.Context, s *Session, text string, t *Turn) {
	if !affirmed(text) {
		t.say("Please say the time again.")
		s.Stage = StageGetTime
		return
	}

	booking, err := m.bookings.Book(ctx, appointments.BookingRequest{
		CustomerName: s.CustomerName,
		VehicleID:    s.VehicleID,
		Date:         s.ResolvedDate,
		Preferred:    s.PreferredSlot,
	})
	switch {
	case errors.Is(err, appointments.ErrDuplicateVehicle):
		t.say(duplicateNotice)
		t.Outcome = OutcomeDuplicate
	case err != nil:
		m.logger.Error("booking failed", "session_id", s.ID, "vehicle_id", s.VehicleID, "error", err)
		t.say("Sorry, I couldn't complete the booking right now. Please say yes to try again.")
		t.Outcome = OutcomeBookingFailed
		return
	default:
		appt := booking.Appointment
		t.Outcome = OutcomeBooked
		if booking.Moved() {
			t.say(movedNotice)
			t.Outcome = OutcomeMoved
		}
		t.say("Excellent! Your appointment is booked for %s at %s.", temporal.FormatLong(appt.Date), appt.Slot.Label())
		t.say("We'll take good care of your %s. Thank you!", appt.VehicleID)
	}
	t.say(anythingElse)
	s.Stage = StageFinalAsk
}

func (m *Machine) checkStatus(ctx context.Context, s *Session, raw string, t *Turn) {
	id := vehicle.Normalize(raw)
	appt, err := m.bookings.Lookup(ctx, id)
	switch {
	case err != nil:
		m.logger.Error("status lookup failed", "session_id", s.ID, "vehicle_id", id, "error", err)
		t.say("Sorry, I couldn't check that right now.")
	case appt == nil:
		t.say("No appointment found for this vehicle number.")
		t.Outcome = OutcomeStatusNotFound
	default:
		t.say("Hello %s! Your car %s will be ready on %s at %s.",
			firstName(appt.CustomerName), appt.VehicleID, temporal.FormatLong(appt.Date), appt.Slot.Label())
		t.Outcome = OutcomeStatusFound
	}
	t.say(anythingElse)
	s.Stage = StageFinalAsk
}

func (m *Machine) finalAsk(s *Session, text string, t *Turn) {
	if closing(text) {
		if name := s.FirstName(); name != "" {
			t.say("Thank you %s! Have a wonderful day!", name)
		} else {
			t.say("Thank you! Have a wonderful day!")
		}
		s.Reset()
		t.Done = true
		t.Outcome = OutcomeClosed
		return
	}
	s.Stage = StageMainMenu
	if classifyIntent(text) != IntentNone {
		m.mainMenu(s, text, t)
		return
	}
	t.say("How else may I assist you? " + menuPrompt)
}

// titleCase collapses whitespace and capitalises each word. Casers hold state, so
// one is built per call.
func titleCase(raw string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(raw), " "))
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
