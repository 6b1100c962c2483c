package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fleetlease/internal/amqp"
	"fleetlease/internal/core"
	"fleetlease/internal/observability/metrics"
	"fleetlease/internal/report"
	"fleetlease/internal/store"
)

// ReminderWorker watches the portfolio for overdue lessees. It keeps a small
// event log fed by AMQP and periodically rescans the store, publishing the
// overdue gauge and, when a report writer is configured, exporting the
// collections snapshot.
type ReminderWorker struct {
	snapshots store.SnapshotReader
	reports   report.Writer // optional
	now       func() time.Time

	mu        sync.Mutex
	lastEvent map[string]time.Time // lessee id -> last event seen
}

func NewReminderWorker(snapshots store.SnapshotReader, reports report.Writer) *ReminderWorker {
	return &ReminderWorker{
		snapshots: snapshots,
		reports:   reports,
		now:       time.Now,
		lastEvent: make(map[string]time.Time),
	}
}

// HandleLesseeRegistered processes a registration event from AMQP.
func (w *ReminderWorker) HandleLesseeRegistered(ctx context.Context, msg *amqp.LesseeRegisteredMessage) error {
	w.noteEvent(msg.LesseeID, msg.Timestamp)

	slog.InfoContext(ctx, "Lessee registered",
		"lessee_id", msg.LesseeID,
		"vehicle_id", msg.VehicleID)

	return nil
}

// HandlePaymentRecorded processes a payment event from AMQP. A fresh payment
// clears any reminder pressure for that lessee until the next scan.
func (w *ReminderWorker) HandlePaymentRecorded(ctx context.Context, msg *amqp.PaymentRecordedMessage) error {
	w.noteEvent(msg.LesseeID, msg.Timestamp)

	slog.InfoContext(ctx, "Payment recorded",
		"lessee_id", msg.LesseeID,
		"payment_id", msg.PaymentID,
		"amount_cents", msg.AmountCents)

	return nil
}

func (w *ReminderWorker) noteEvent(lesseeID string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if at.After(w.lastEvent[lesseeID]) {
		w.lastEvent[lesseeID] = at
	}
}

// LastEvent reports when the worker last saw activity for a lessee.
func (w *ReminderWorker) LastEvent(lesseeID string) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	at, ok := w.lastEvent[lesseeID]
	return at, ok
}

// ScanOverdue reloads the dataset, logs a reminder per overdue lessee and
// updates the overdue gauge. Returns the overdue lessees found.
func (w *ReminderWorker) ScanOverdue(ctx context.Context) ([]core.OverdueLessee, error) {
	data, err := w.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	overdue := core.OverdueLessees(data, w.now())
	metrics.SetOverdue(len(overdue))

	for _, o := range overdue {
		slog.InfoContext(ctx, "Payment reminder due",
			"lessee_id", o.Lessee.ID,
			"lessee_name", o.Lessee.Name,
			"vehicle_id", o.Vehicle.ID,
			"days_since_payment", o.DaysSince)
	}

	slog.InfoContext(ctx, "Overdue scan finished", "overdue", len(overdue))
	return overdue, nil
}

// ExportReport computes the dashboard snapshot and appends it to the
// configured report destination. No-op without a writer.
func (w *ReminderWorker) ExportReport(ctx context.Context) error {
	if w.reports == nil {
		return nil
	}

	data, err := w.snapshots.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	now := w.now()
	m := core.ComputeDashboard(data, now)
	if err := w.reports.AppendSnapshot(ctx, m, now.Format("2006-01-02 15:04")); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

// Run performs overdue scans on the given interval until ctx is cancelled.
// An initial scan runs immediately.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) error {
	if _, err := w.ScanOverdue(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial overdue scan failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ScanOverdue(ctx); err != nil {
				slog.ErrorContext(ctx, "Overdue scan failed", "error", err)
			}
			if err := w.ExportReport(ctx); err != nil {
				slog.ErrorContext(ctx, "Report export failed", "error", err)
			}
		}
	}
}
