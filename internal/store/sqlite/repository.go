// Package sqlite is the persistent backend. Unlike memory, state survives
// restarts; the repository seeds itself from the generator only when the
// vehicles table is empty.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fleetlease/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SeedIfEmpty loads the synthetic dataset on first run. A populated
// database is left untouched, so state persists between sessions.
func (r *Repository) SeedIfEmpty(ctx context.Context, d core.Dataset) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&count); err != nil {
		return fmt.Errorf("count vehicles: %w", err)
	}
	if count > 0 {
		slog.InfoContext(ctx, "Database already seeded", "vehicles", count)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, v := range d.Vehicles {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO vehicles (id, make, model, year, color, lease_amount_cents, leased, lessee_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			v.ID, v.Make, v.Model, v.Year, v.Color, v.LeaseAmount.Cents, boolToInt(v.Leased), v.LesseeID)
		if err != nil {
			return fmt.Errorf("seed vehicle %s: %w", v.ID, err)
		}
	}
	for _, l := range d.Lessees {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO lessees (id, name, email, phone, vehicle_id, start_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Email, l.Phone, l.VehicleID, l.StartDate.Format(dateLayout))
		if err != nil {
			return fmt.Errorf("seed lessee %s: %w", l.ID, err)
		}
	}
	for _, p := range d.Payments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payments (id, lessee_id, amount_cents, date, status)
			 VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.LesseeID, p.Amount.Cents, p.Date.Format(dateLayout), p.Status)
		if err != nil {
			return fmt.Errorf("seed payment %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	slog.InfoContext(ctx, "Database seeded",
		"vehicles", len(d.Vehicles),
		"lessees", len(d.Lessees),
		"payments", len(d.Payments))
	return nil
}

// RegisterLessee implements store.Registrar inside a single transaction:
// either the lessee row and the vehicle flip both land, or neither does.
func (r *Repository) RegisterLessee(ctx context.Context, form core.RegistrationForm) (core.Lessee, error) {
	if err := form.Validate(); err != nil {
		return core.Lessee{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Lessee{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var leased int
	err = tx.QueryRowContext(ctx, `SELECT leased FROM vehicles WHERE id = ?`, form.VehicleID).Scan(&leased)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Lessee{}, core.ErrUnknownVehicle
	}
	if err != nil {
		return core.Lessee{}, fmt.Errorf("load vehicle %s: %w", form.VehicleID, err)
	}
	if leased != 0 {
		return core.Lessee{}, core.ErrVehicleAlreadyLeased
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessees`).Scan(&count); err != nil {
		return core.Lessee{}, fmt.Errorf("count lessees: %w", err)
	}

	today := time.Now().UTC()
	lessee := core.Lessee{
		ID:        core.LesseeID(count + 1),
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		VehicleID: form.VehicleID,
		StartDate: core.NewDate(today.Year(), int(today.Month()), today.Day()),
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO lessees (id, name, email, phone, vehicle_id, start_date) VALUES (?, ?, ?, ?, ?, ?)`,
		lessee.ID, lessee.Name, lessee.Email, lessee.Phone, lessee.VehicleID, lessee.StartDate.Format(dateLayout))
	if err != nil {
		return core.Lessee{}, fmt.Errorf("insert lessee: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE vehicles SET leased = 1, lessee_id = ? WHERE id = ?`, lessee.ID, form.VehicleID)
	if err != nil {
		return core.Lessee{}, fmt.Errorf("flip vehicle %s: %w", form.VehicleID, err)
	}

	if err := tx.Commit(); err != nil {
		return core.Lessee{}, fmt.Errorf("commit registration: %w", err)
	}
	slog.InfoContext(ctx, "Lessee registered", "lessee_id", lessee.ID, "vehicle_id", lessee.VehicleID)
	return lessee, nil
}

// RecordPayment implements store.PaymentRecorder.
func (r *Repository) RecordPayment(ctx context.Context, form core.PaymentForm) (core.Payment, error) {
	if err := form.Validate(); err != nil {
		return core.Payment{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Payment{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM lessees WHERE id = ?`, form.LesseeID).Scan(&exists); err != nil {
		return core.Payment{}, fmt.Errorf("check lessee %s: %w", form.LesseeID, err)
	}
	if exists == 0 {
		return core.Payment{}, core.ErrUnknownLessee
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`).Scan(&count); err != nil {
		return core.Payment{}, fmt.Errorf("count payments: %w", err)
	}

	payment := core.Payment{
		ID:       core.PaymentID(count + 1),
		LesseeID: form.LesseeID,
		Amount:   form.Amount,
		Date:     form.Date,
		Status:   core.StatusCompleted,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO payments (id, lessee_id, amount_cents, date, status) VALUES (?, ?, ?, ?, ?)`,
		payment.ID, payment.LesseeID, payment.Amount.Cents, payment.Date.Format(dateLayout), payment.Status)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Payment{}, fmt.Errorf("commit payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment recorded",
		"payment_id", payment.ID, "lessee_id", payment.LesseeID, "amount_cents", payment.Amount.Cents)
	return payment, nil
}

// Snapshot implements store.SnapshotReader by loading all three tables.
func (r *Repository) Snapshot(ctx context.Context) (core.Dataset, error) {
	var d core.Dataset

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, make, model, year, color, lease_amount_cents, leased, lessee_id FROM vehicles ORDER BY id`)
	if err != nil {
		return d, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v core.Vehicle
		var leased int
		if err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Color, &v.LeaseAmount.Cents, &leased, &v.LesseeID); err != nil {
			return d, fmt.Errorf("scan vehicle: %w", err)
		}
		v.Leased = leased != 0
		d.Vehicles = append(d.Vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return d, fmt.Errorf("iterate vehicles: %w", err)
	}

	lrows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, phone, vehicle_id, start_date FROM lessees ORDER BY id`)
	if err != nil {
		return d, fmt.Errorf("query lessees: %w", err)
	}
	defer lrows.Close()
	for lrows.Next() {
		var l core.Lessee
		var start string
		if err := lrows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.VehicleID, &start); err != nil {
			return d, fmt.Errorf("scan lessee: %w", err)
		}
		l.StartDate, err = parseDate(start)
		if err != nil {
			return d, fmt.Errorf("lessee %s start date: %w", l.ID, err)
		}
		d.Lessees = append(d.Lessees, l)
	}
	if err := lrows.Err(); err != nil {
		return d, fmt.Errorf("iterate lessees: %w", err)
	}

	prows, err := r.db.QueryContext(ctx,
		`SELECT id, lessee_id, amount_cents, date, status FROM payments ORDER BY id`)
	if err != nil {
		return d, fmt.Errorf("query payments: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var p core.Payment
		var date string
		if err := prows.Scan(&p.ID, &p.LesseeID, &p.Amount.Cents, &date, &p.Status); err != nil {
			return d, fmt.Errorf("scan payment: %w", err)
		}
		p.Date, err = parseDate(date)
		if err != nil {
			return d, fmt.Errorf("payment %s date: %w", p.ID, err)
		}
		d.Payments = append(d.Payments, p)
	}
	if err := prows.Err(); err != nil {
		return d, fmt.Errorf("iterate payments: %w", err)
	}

	return d, nil
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
