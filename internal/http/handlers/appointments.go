package handlers

import (
	"context"
	"net/http"

	"github.com/wolfman30/carservice-desk/internal/appointments"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// AppointmentLister lists every booking. *appointments.Service satisfies it.
type AppointmentLister interface {
	List(ctx context.Context) ([]appointments.Appointment, error)
}

// AppointmentsHandler serves the admin listing used for display and download.
type AppointmentsHandler struct {
	lister AppointmentLister
	logger *logging.Logger
}

func NewAppointmentsHandler(lister AppointmentLister, logger *logging.Logger) *AppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppointmentsHandler{lister: lister, logger: logger}
}

// AppointmentView is the listing row shape.
type AppointmentView struct {
	Name      string `json:"name"`
	Vehicle   string `json:"vehicle"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	TimeLabel string `json:"time_label"`
}

// ToViews converts stored appointments into listing rows, keeping their order.
func ToViews(appts []appointments.Appointment) []AppointmentView {
	views := make([]AppointmentView, 0, len(appts))
	for _, a := range appts {
		views = append(views, AppointmentView{
			Name:      a.CustomerName,
			Vehicle:   a.VehicleID,
			Date:      a.DateString(),
			Time:      string(a.Slot),
			TimeLabel: a.Slot.Label(),
		})
	}
	return views
}

// List handles GET /appointments. A store failure is logged and answered with an
// empty list.
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.lister.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		appts = nil
	}
	writeJSON(w, http.StatusOK, ToViews(appts))
}
