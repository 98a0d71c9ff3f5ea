// Package dialog runs the staged booking conversation: it collects and confirms a
// caller's name, vehicle, date and time, books through the appointment service and
// answers status questions.
package dialog

import (
	"time"

	"github.com/wolfman30/carservice-desk/internal/slots"
)

// Stage is the position of a session in the conversation.
type Stage string

const (
	StageWelcome        Stage = "welcome"
	StageAskName        Stage = "ask_name"
	StageConfirmName    Stage = "confirm_name"
	StageMainMenu       Stage = "main_menu"
	StageGetVehicle     Stage = "get_vehicle"
	StageConfirmVehicle Stage = "confirm_vehicle"
	StageGetDate        Stage = "get_date"
	StageConfirmDate    Stage = "confirm_date"
	StageGetTime        Stage = "get_time"
	StageConfirmTime    Stage = "confirm_time"
	StageFinalAsk       Stage = "final_ask"
	StageCheckStatus    Stage = "check_status"
)

// Session is the per-caller conversation state. It is plain data so any
// SessionStore can serialise it.
type Session struct {
	ID                string     `json:"id"`
	Stage             Stage      `json:"stage"`
	CustomerName      string     `json:"customer_name,omitempty"`
	VehicleID         string     `json:"vehicle_id,omitempty"`
	PreferredDateText string     `json:"preferred_date_text,omitempty"`
	ResolvedDate      time.Time  `json:"resolved_date"`
	PreferredSlot     slots.Slot `json:"preferred_slot,omitempty"`
	Outcome           string     `json:"outcome,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewSession returns a fresh session at the welcome stage.
func NewSession(id string) *Session {
	return &Session{ID: id, Stage: StageWelcome}
}

// Reset clears everything collected so far. The id is kept.
func (s *Session) Reset() {
	*s = Session{ID: s.ID, Stage: StageWelcome, UpdatedAt: s.UpdatedAt}
}

// FirstName is the first word of the customer name, used when addressing the caller.
func (s *Session) FirstName() string {
	return firstName(s.CustomerName)
}
