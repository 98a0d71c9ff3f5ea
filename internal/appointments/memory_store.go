package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/carservice-desk/internal/slots"
)

// MemoryStore keeps appointments in process memory. Used when no database is
// configured and in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	byVehicle map[string]Appointment
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byVehicle: make(map[string]Appointment),
		now:       time.Now,
	}
}

func (s *MemoryStore) Insert(_ context.Context, appt Appointment) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byVehicle[appt.VehicleID]; exists {
		return false, nil
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = s.now().UTC()
	}
	appt.Date = slots.DateOf(appt.Date)
	s.byVehicle[appt.VehicleID] = appt
	return true, nil
}

func (s *MemoryStore) FindByVehicle(_ context.Context, vehicleID string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	appt, ok := s.byVehicle[vehicleID]
	if !ok {
		return nil, nil
	}
	return &appt, nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Appointment, error) {
	s.mu.RLock()
	out := make([]Appointment, 0, len(s.byVehicle))
	for _, appt := range s.byVehicle {
		out = append(out, appt)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Slot != out[j].Slot {
			return out[i].Slot < out[j].Slot
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out, nil
}

func (s *MemoryStore) BookedSlots(_ context.Context, date time.Time) ([]slots.Slot, error) {
	day := slots.DateOf(date)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var booked []slots.Slot
	for _, appt := range s.byVehicle {
		if appt.Date.Equal(day) {
			booked = append(booked, appt.Slot)
		}
	}
	return booked, nil
}
