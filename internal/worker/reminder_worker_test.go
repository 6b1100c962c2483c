package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetlease/internal/amqp"
	"fleetlease/internal/core"
)

type fakeSnapshotReader struct {
	data core.Dataset
	err  error
}

func (f *fakeSnapshotReader) Snapshot(ctx context.Context) (core.Dataset, error) {
	return f.data, f.err
}

type fakeReportWriter struct {
	calls       int
	lastMetrics core.DashboardMetrics
	err         error
}

func (f *fakeReportWriter) AppendSnapshot(ctx context.Context, m core.DashboardMetrics, generatedAt string) error {
	f.calls++
	f.lastMetrics = m
	return f.err
}

func testDataset(now time.Time) core.Dataset {
	old := now.AddDate(0, 0, -45)
	recent := now.AddDate(0, 0, -5)
	return core.Dataset{
		Vehicles: []core.Vehicle{
			{ID: "V1", Make: "Toyota", Model: "Camry", Year: 2022, LeaseAmount: core.Money{Cents: 55000}, Leased: true, LesseeID: "L1"},
			{ID: "V2", Make: "BMW", Model: "X5", Year: 2023, LeaseAmount: core.Money{Cents: 95000}, Leased: true, LesseeID: "L2"},
		},
		Lessees: []core.Lessee{
			{ID: "L1", Name: "Alice Johnson", VehicleID: "V1", StartDate: core.Date{Time: now.AddDate(0, -6, 0)}},
			{ID: "L2", Name: "Bob Smith", VehicleID: "V2", StartDate: core.Date{Time: now.AddDate(0, -6, 0)}},
		},
		Payments: []core.Payment{
			{ID: "P1", LesseeID: "L1", Amount: core.Money{Cents: 55000}, Date: core.Date{Time: old}, Status: core.StatusCompleted},
			{ID: "P2", LesseeID: "L2", Amount: core.Money{Cents: 95000}, Date: core.Date{Time: recent}, Status: core.StatusCompleted},
		},
	}
}

func TestReminderWorker_ScanOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reader := &fakeSnapshotReader{data: testDataset(now)}

	w := NewReminderWorker(reader, nil)
	w.now = func() time.Time { return now }

	overdue, err := w.ScanOverdue(context.Background())
	if err != nil {
		t.Fatalf("ScanOverdue() error = %v", err)
	}

	if len(overdue) != 1 {
		t.Fatalf("ScanOverdue() returned %d lessees, want 1", len(overdue))
	}
	if overdue[0].Lessee.ID != "L1" {
		t.Errorf("overdue lessee = %s, want L1", overdue[0].Lessee.ID)
	}
	if overdue[0].DaysSince != 45 {
		t.Errorf("DaysSince = %d, want 45", overdue[0].DaysSince)
	}
}

func TestReminderWorker_ScanOverdue_SnapshotError(t *testing.T) {
	reader := &fakeSnapshotReader{err: errors.New("db gone")}
	w := NewReminderWorker(reader, nil)

	if _, err := w.ScanOverdue(context.Background()); err == nil {
		t.Error("ScanOverdue() should propagate snapshot errors")
	}
}

func TestReminderWorker_ExportReport(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reader := &fakeSnapshotReader{data: testDataset(now)}
	writer := &fakeReportWriter{}

	w := NewReminderWorker(reader, writer)
	w.now = func() time.Time { return now }

	if err := w.ExportReport(context.Background()); err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}

	if writer.calls != 1 {
		t.Fatalf("report writer called %d times, want 1", writer.calls)
	}
	if writer.lastMetrics.VehicleCount != 2 {
		t.Errorf("exported VehicleCount = %d, want 2", writer.lastMetrics.VehicleCount)
	}
	if len(writer.lastMetrics.Trend) != 6 {
		t.Errorf("exported trend has %d points, want 6", len(writer.lastMetrics.Trend))
	}
}

func TestReminderWorker_ExportReport_NoWriter(t *testing.T) {
	w := NewReminderWorker(&fakeSnapshotReader{}, nil)

	if err := w.ExportReport(context.Background()); err != nil {
		t.Errorf("ExportReport() without writer should be a no-op, got %v", err)
	}
}

func TestReminderWorker_EventBookkeeping(t *testing.T) {
	w := NewReminderWorker(&fakeSnapshotReader{}, nil)
	ctx := context.Background()

	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	msg := amqp.NewPaymentRecordedMessage("P9", "L4", 60000)
	msg.Timestamp = second
	if err := w.HandlePaymentRecorded(ctx, msg); err != nil {
		t.Fatalf("HandlePaymentRecorded() error = %v", err)
	}

	// An older event must not move the clock backwards.
	older := amqp.NewLesseeRegisteredMessage("L4", "V8")
	older.Timestamp = first
	if err := w.HandleLesseeRegistered(ctx, older); err != nil {
		t.Fatalf("HandleLesseeRegistered() error = %v", err)
	}

	at, ok := w.LastEvent("L4")
	if !ok {
		t.Fatal("LastEvent(L4) should be recorded")
	}
	if !at.Equal(second) {
		t.Errorf("LastEvent(L4) = %v, want %v", at, second)
	}
}
