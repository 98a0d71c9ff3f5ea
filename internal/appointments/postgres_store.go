package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/carservice-desk/internal/slots"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps appointments in the appointments table. The UNIQUE constraint
// on vehicle_id is what rejects a second booking for the same vehicle.
type PostgresStore struct {
	pool pgQuerier
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func newPostgresStoreWithQuerier(q pgQuerier) *PostgresStore {
	if q == nil {
		panic("appointments: querier required")
	}
	return &PostgresStore{pool: q}
}

// Insert adds appt, returning false when the vehicle already has a row.
func (s *PostgresStore) Insert(ctx context.Context, appt Appointment) (bool, error) {
	id := appt.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `
		INSERT INTO appointments (id, customer_name, vehicle_id, appointment_date, time_slot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vehicle_id) DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, id, appt.CustomerName, appt.VehicleID, slots.DateOf(appt.Date), string(appt.Slot))
	if err != nil {
		return false, fmt.Errorf("appointments: insert: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

func (s *PostgresStore) FindByVehicle(ctx context.Context, vehicleID string) (*Appointment, error) {
	query := `
		SELECT id, customer_name, vehicle_id, appointment_date, time_slot, created_at
		FROM appointments
		WHERE vehicle_id = $1
	`
	appt, err := scanAppointment(s.pool.QueryRow(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: find by vehicle: %w", err)
	}
	return appt, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Appointment, error) {
	query := `
		SELECT id, customer_name, vehicle_id, appointment_date, time_slot, created_at
		FROM appointments
		ORDER BY appointment_date, time_slot, vehicle_id
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) BookedSlots(ctx context.Context, date time.Time) ([]slots.Slot, error) {
	rows, err := s.pool.Query(ctx, `SELECT time_slot FROM appointments WHERE appointment_date = $1`, slots.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("appointments: booked slots: %w", err)
	}
	defer rows.Close()

	var booked []slots.Slot
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		booked = append(booked, slots.Slot(slot))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked slot rows: %w", err)
	}
	return booked, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*Appointment, error) {
	var (
		appt Appointment
		slot string
	)
	if err := row.Scan(&appt.ID, &appt.CustomerName, &appt.VehicleID, &appt.Date, &slot, &appt.CreatedAt); err != nil {
		return nil, err
	}
	appt.Date = slots.DateOf(appt.Date)
	appt.Slot = slots.Slot(slot)
	return &appt, nil
}
