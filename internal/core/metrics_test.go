package core

import (
	"testing"
	"time"
)

func leasedPair(vehicleID, lesseeID string, amountCents int64, start Date) (Vehicle, Lessee) {
	v := Vehicle{ID: vehicleID, Make: "Toyota", Model: "Camry", Year: 2021, Color: "Silver",
		LeaseAmount: Money{Cents: amountCents}, Leased: true, LesseeID: lesseeID}
	l := Lessee{ID: lesseeID, Name: "Test Lessee", Email: "t@example.com", Phone: "555-0100",
		VehicleID: vehicleID, StartDate: start}
	return v, l
}

func TestExpectedByMonth(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	v, l := leasedPair("V1", "L1", 50000, NewDate(2024, 1, 20))
	d := Dataset{Vehicles: []Vehicle{v}, Lessees: []Lessee{l}}

	exp := ExpectedByMonth(d, now)
	if len(exp) != 3 {
		t.Fatalf("expected 3 month buckets (Jan..Mar), got %d: %v", len(exp), exp)
	}
	for _, k := range []MonthKey{{2024, time.January}, {2024, time.February}, {2024, time.March}} {
		if exp[k].Cents != 50000 {
			t.Fatalf("bucket %s = %d, want 50000", k, exp[k].Cents)
		}
	}
}

func TestExpectedByMonthSkipsUnlinkedLessees(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	d := Dataset{Lessees: []Lessee{{ID: "L1", StartDate: NewDate(2024, 1, 1)}}}
	if got := ExpectedByMonth(d, now); len(got) != 0 {
		t.Fatalf("unlinked lessee must not produce buckets, got %v", got)
	}
}

func TestCollectedByMonthAndTotals(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	v, l := leasedPair("V1", "L1", 50000, NewDate(2024, 2, 1))
	d := Dataset{
		Vehicles: []Vehicle{v},
		Lessees:  []Lessee{l},
		Payments: []Payment{
			{ID: "P1", LesseeID: "L1", Amount: Money{Cents: 50000}, Date: NewDate(2024, 2, 3), Status: StatusCompleted},
			{ID: "P2", LesseeID: "L1", Amount: Money{Cents: 40000}, Date: NewDate(2024, 3, 5), Status: StatusCompleted},
		},
	}

	col := CollectedByMonth(d)
	if col[MonthKey{2024, time.February}].Cents != 50000 || col[MonthKey{2024, time.March}].Cents != 40000 {
		t.Fatalf("unexpected collected buckets: %v", col)
	}

	m := ComputeDashboard(d, now)
	if m.TotalExpected.Cents != 100000 { // Feb + Mar
		t.Fatalf("TotalExpected = %d, want 100000", m.TotalExpected.Cents)
	}
	if m.TotalCollected.Cents != 90000 {
		t.Fatalf("TotalCollected = %d, want 90000", m.TotalCollected.Cents)
	}
}

func TestOverdueBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	v, l := leasedPair("V1", "L1", 50000, NewDate(2024, 1, 1))

	pay := func(daysAgo int) Dataset {
		return Dataset{
			Vehicles: []Vehicle{v},
			Lessees:  []Lessee{l},
			Payments: []Payment{{
				ID: "P1", LesseeID: "L1", Amount: Money{Cents: 50000},
				Date:   Date{Time: now.AddDate(0, 0, -daysAgo)},
				Status: StatusCompleted,
			}},
		}
	}

	// Exactly 30 days ago: still current.
	if got := OverdueLessees(pay(30), now); len(got) != 0 {
		t.Fatalf("30 days must not be overdue, got %v", got)
	}
	// 31 days ago: overdue.
	got := OverdueLessees(pay(31), now)
	if len(got) != 1 {
		t.Fatalf("31 days must be overdue, got %v", got)
	}
	if got[0].DaysSince != 31 {
		t.Fatalf("DaysSince = %d, want 31", got[0].DaysSince)
	}
}

func TestOverdueNoPaymentsCountsFromStart(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := Date{Time: now.AddDate(0, 0, -45)}
	v, l := leasedPair("V1", "L1", 50000, start)
	d := Dataset{Vehicles: []Vehicle{v}, Lessees: []Lessee{l}}

	got := OverdueLessees(d, now)
	if len(got) != 1 {
		t.Fatalf("lessee with no payments must be overdue, got %v", got)
	}
	if got[0].DaysSince != 45 {
		t.Fatalf("DaysSince = %d, want 45 (since start date)", got[0].DaysSince)
	}
	if !got[0].LastPayment.IsEmpty() {
		t.Fatalf("LastPayment must be zero when no payment exists")
	}
}

func TestCategorySplitPartitions(t *testing.T) {
	vehicles := []Vehicle{
		{ID: "V1", LeaseAmount: Money{Cents: 59999}},  // economy
		{ID: "V2", LeaseAmount: Money{Cents: 60000}},  // mid-range lower bound
		{ID: "V3", LeaseAmount: Money{Cents: 89999}},  // mid-range
		{ID: "V4", LeaseAmount: Money{Cents: 90000}},  // premium lower bound
		{ID: "V5", LeaseAmount: Money{Cents: 150000}}, // premium
	}
	dist := CategorySplit(vehicles)
	if dist.Economy != 1 || dist.MidRange != 2 || dist.Premium != 2 {
		t.Fatalf("unexpected split: %+v", dist)
	}
	if dist.Economy+dist.MidRange+dist.Premium != len(vehicles) {
		t.Fatalf("buckets must partition all vehicles exactly once")
	}
}

func TestPaymentStatusSplit(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	v, l := leasedPair("V1", "L1", 50000, NewDate(2024, 1, 1))
	d := Dataset{
		Vehicles: []Vehicle{v},
		Lessees:  []Lessee{l},
		Payments: []Payment{
			{ID: "P1", LesseeID: "L1", Amount: Money{Cents: 50000}, Date: NewDate(2024, 1, 3), Status: StatusCompleted},  // on time
			{ID: "P2", LesseeID: "L1", Amount: Money{Cents: 50000}, Date: NewDate(2024, 2, 12), Status: StatusCompleted}, // late
		},
	}
	dist := PaymentStatusSplit(d, now)
	if dist.OnTime != 1 || dist.Late != 1 {
		t.Fatalf("unexpected on-time/late: %+v", dist)
	}
	// March has no payment: one missed slot.
	if dist.Missed != 1 {
		t.Fatalf("Missed = %d, want 1", dist.Missed)
	}
}

func TestTrendWindow(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	v, l := leasedPair("V1", "L1", 50000, NewDate(2023, 9, 1))
	d := Dataset{Vehicles: []Vehicle{v}, Lessees: []Lessee{l}}

	m := ComputeDashboard(d, now)
	if len(m.Trend) != 6 {
		t.Fatalf("trend must span 6 months, got %d", len(m.Trend))
	}
	if m.Trend[0].Label != "Oct 23" {
		t.Fatalf("first label = %q, want %q", m.Trend[0].Label, "Oct 23")
	}
	if m.Trend[5].Label != "Mar 24" {
		t.Fatalf("last label = %q, want %q", m.Trend[5].Label, "Mar 24")
	}
	for _, p := range m.Trend {
		if p.Expected.Cents != 50000 {
			t.Fatalf("month %s expected = %d, want 50000", p.Key, p.Expected.Cents)
		}
	}
}

func TestMonthKeyHelpers(t *testing.T) {
	k := MonthKey{2023, time.December}
	if next := k.Next(); next != (MonthKey{2024, time.January}) {
		t.Fatalf("Next across year boundary = %v", next)
	}
	if k.String() != "2023-12" {
		t.Fatalf("String = %q", k.String())
	}
	if !k.Before(MonthKey{2024, time.January}) {
		t.Fatalf("Before across year boundary failed")
	}
}
