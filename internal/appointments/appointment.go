// Package appointments stores bookings and commits new ones through the slot ledger.
package appointments

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/carservice-desk/internal/slots"
)

// ErrDuplicateVehicle is returned when the vehicle already holds an appointment.
var ErrDuplicateVehicle = errors.New("appointments: vehicle already has an appointment")

// Appointment is a committed booking. VehicleID is unique across the store.
type Appointment struct {
	ID           string     `json:"id"`
	CustomerName string     `json:"customer_name"`
	VehicleID    string     `json:"vehicle_id"`
	Date         time.Time  `json:"date"`
	Slot         slots.Slot `json:"time_slot"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DateString returns the ISO calendar date.
func (a Appointment) DateString() string {
	return a.Date.Format(slots.DateLayout)
}

// Store persists appointments. Insert is the only place uniqueness by vehicle is
// enforced; it reports false (and no error) when the vehicle is already booked.
type Store interface {
	Insert(ctx context.Context, appt Appointment) (bool, error)
	// FindByVehicle returns nil, nil when the vehicle has no appointment.
	FindByVehicle(ctx context.Context, vehicleID string) (*Appointment, error)
	// ListAll returns every appointment ordered by date, then slot.
	ListAll(ctx context.Context) ([]Appointment, error)
	BookedSlots(ctx context.Context, date time.Time) ([]slots.Slot, error)
}

// BookedLookup adapts a store to the ledger's predicate, loading each date once.
func BookedLookup(ctx context.Context, store Store) slots.BookedFunc {
	cache := map[string]map[slots.Slot]bool{}
	return func(date time.Time, s slots.Slot) (bool, error) {
		key := date.Format(slots.DateLayout)
		taken, ok := cache[key]
		if !ok {
			booked, err := store.BookedSlots(ctx, date)
			if err != nil {
				return false, err
			}
			taken = make(map[slots.Slot]bool, len(booked))
			for _, b := range booked {
				taken[b] = true
			}
			cache[key] = taken
		}
		return taken[s], nil
	}
}
