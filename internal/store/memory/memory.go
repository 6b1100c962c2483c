// Package memory is the default backend: the generator's synthetic dataset
// held in process, recreated fresh on every start and lost on shutdown.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fleetlease/internal/core"
)

type Store struct {
	mu   sync.Mutex
	data core.Dataset
	now  func() time.Time
}

// New wraps an initial dataset, usually fleet.NewSeeded output.
func New(data core.Dataset) *Store {
	return &Store{data: data, now: time.Now}
}

// NewAt is the test constructor with an injected clock.
func NewAt(data core.Dataset, now func() time.Time) *Store {
	return &Store{data: data, now: now}
}

// RegisterLessee implements store.Registrar.
func (s *Store) RegisterLessee(ctx context.Context, form core.RegistrationForm) (core.Lessee, error) {
	if err := form.Validate(); err != nil {
		return core.Lessee{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, v := range s.data.Vehicles {
		if v.ID == form.VehicleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Lessee{}, core.ErrUnknownVehicle
	}
	if s.data.Vehicles[idx].Leased {
		return core.Lessee{}, core.ErrVehicleAlreadyLeased
	}

	today := s.now().UTC()
	lessee := core.Lessee{
		ID:        core.LesseeID(len(s.data.Lessees) + 1),
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		VehicleID: form.VehicleID,
		StartDate: core.NewDate(today.Year(), int(today.Month()), today.Day()),
	}
	s.data.Lessees = append(s.data.Lessees, lessee)
	s.data.Vehicles[idx].Leased = true
	s.data.Vehicles[idx].LesseeID = lessee.ID

	slog.InfoContext(ctx, "Lessee registered",
		"lessee_id", lessee.ID,
		"vehicle_id", lessee.VehicleID,
		"start_date", lessee.StartDate.Format("2006-01-02"))
	return lessee, nil
}

// RecordPayment implements store.PaymentRecorder.
func (s *Store) RecordPayment(ctx context.Context, form core.PaymentForm) (core.Payment, error) {
	if err := form.Validate(); err != nil {
		return core.Payment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for _, l := range s.data.Lessees {
		if l.ID == form.LesseeID {
			known = true
			break
		}
	}
	if !known {
		return core.Payment{}, core.ErrUnknownLessee
	}

	payment := core.Payment{
		ID:       core.PaymentID(len(s.data.Payments) + 1),
		LesseeID: form.LesseeID,
		Amount:   form.Amount,
		Date:     form.Date,
		Status:   core.StatusCompleted,
	}
	s.data.Payments = append(s.data.Payments, payment)

	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", payment.ID,
		"lessee_id", payment.LesseeID,
		"amount_cents", payment.Amount.Cents)
	return payment, nil
}

// Snapshot implements store.SnapshotReader. The copy keeps callers from
// mutating shared state.
func (s *Store) Snapshot(_ context.Context) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := core.Dataset{
		Vehicles: make([]core.Vehicle, len(s.data.Vehicles)),
		Lessees:  make([]core.Lessee, len(s.data.Lessees)),
		Payments: make([]core.Payment, len(s.data.Payments)),
	}
	copy(out.Vehicles, s.data.Vehicles)
	copy(out.Lessees, s.data.Lessees)
	copy(out.Payments, s.data.Payments)
	return out, nil
}
