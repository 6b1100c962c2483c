package core

import (
	"fmt"
	"sort"
	"time"
)

// Category thresholds on the monthly lease amount, in cents.
const (
	economyCeiling = 600_00
	premiumFloor   = 900_00
)

// A lessee is overdue once the latest payment is strictly more than 30 days
// old at evaluation time. Exactly 30 days is still current.
const overdueAfter = 30 * 24 * time.Hour

// trendMonths is the window of the monthly trend, current month included.
const trendMonths = 6

// MonthKey buckets amounts by calendar year and month.
type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// String renders a sortable bucket key like "2024-01".
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Label renders the chart label: abbreviated month plus 2-digit year.
func (k MonthKey) Label() string {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 06")
}

type (
	TrendPoint struct {
		Key       MonthKey
		Label     string
		Expected  Money
		Collected Money
	}

	OverdueLessee struct {
		Lessee      Lessee
		Vehicle     Vehicle
		LastPayment Date // zero when no payment was ever recorded
		DaysSince   int
	}

	CategoryDistribution struct {
		Economy  int
		MidRange int
		Premium  int
	}

	StatusDistribution struct {
		OnTime int
		Late   int
		Missed int
	}

	// DashboardMetrics is everything the overview page needs, computed in
	// one pass over the dataset. There is no incremental bookkeeping: the
	// collections stay small enough to recompute on every read.
	DashboardMetrics struct {
		ExpectedByMonth  map[MonthKey]Money
		CollectedByMonth map[MonthKey]Money
		TotalExpected    Money
		TotalCollected   Money
		Overdue          []OverdueLessee
		Trend            []TrendPoint
		Categories       CategoryDistribution
		PaymentStatus    StatusDistribution
		VehicleCount     int
		LeasedCount      int
		AvailableCount   int
		LesseeCount      int
	}
)

// ComputeDashboard derives all dashboard metrics from the dataset at the
// given evaluation instant.
func ComputeDashboard(d Dataset, now time.Time) DashboardMetrics {
	m := DashboardMetrics{
		ExpectedByMonth:  ExpectedByMonth(d, now),
		CollectedByMonth: CollectedByMonth(d),
		Overdue:          OverdueLessees(d, now),
		Categories:       CategorySplit(d.Vehicles),
		PaymentStatus:    PaymentStatusSplit(d, now),
		VehicleCount:     len(d.Vehicles),
		LesseeCount:      len(d.Lessees),
	}
	for _, amount := range m.ExpectedByMonth {
		m.TotalExpected.Cents += amount.Cents
	}
	for _, amount := range m.CollectedByMonth {
		m.TotalCollected.Cents += amount.Cents
	}
	for _, v := range d.Vehicles {
		if v.Leased {
			m.LeasedCount++
		} else {
			m.AvailableCount++
		}
	}
	m.Trend = trend(m.ExpectedByMonth, m.CollectedByMonth, now)
	return m
}

// ExpectedByMonth accumulates each linked lessee's vehicle lease amount into
// every month bucket from the lessee's start date through the current month.
func ExpectedByMonth(d Dataset, now time.Time) map[MonthKey]Money {
	vehicleByID := make(map[string]Vehicle, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicleByID[v.ID] = v
	}

	out := make(map[MonthKey]Money)
	current := MonthOf(now)
	for _, l := range d.Lessees {
		v, ok := vehicleByID[l.VehicleID]
		if !ok {
			continue
		}
		for k := MonthOf(l.StartDate.Time); !current.Before(k); k = k.Next() {
			bucket := out[k]
			bucket.Cents += v.LeaseAmount.Cents
			out[k] = bucket
		}
	}
	return out
}

// CollectedByMonth accumulates every payment into the bucket of its date.
func CollectedByMonth(d Dataset) map[MonthKey]Money {
	out := make(map[MonthKey]Money)
	for _, p := range d.Payments {
		k := MonthOf(p.Date.Time)
		bucket := out[k]
		bucket.Cents += p.Amount.Cents
		out[k] = bucket
	}
	return out
}

// OverdueLessees returns every linked lessee whose latest payment is more
// than 30 days old, or who never paid at all. DaysSince counts from the last
// payment when one exists, otherwise from the lessee's start date.
func OverdueLessees(d Dataset, now time.Time) []OverdueLessee {
	vehicleByID := make(map[string]Vehicle, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicleByID[v.ID] = v
	}
	lastByLessee := make(map[string]Date, len(d.Lessees))
	for _, p := range d.Payments {
		if last, ok := lastByLessee[p.LesseeID]; !ok || last.Time.Before(p.Date.Time) {
			lastByLessee[p.LesseeID] = p.Date
		}
	}

	var out []OverdueLessee
	for _, l := range d.Lessees {
		v, ok := vehicleByID[l.VehicleID]
		if !ok {
			continue
		}
		last, paid := lastByLessee[l.ID]
		ref := l.StartDate
		if paid {
			if now.Sub(last.Time) <= overdueAfter {
				continue
			}
			ref = last
		}
		out = append(out, OverdueLessee{
			Lessee:      l,
			Vehicle:     v,
			LastPayment: last,
			DaysSince:   int(now.Sub(ref.Time).Hours() / 24),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysSince > out[j].DaysSince })
	return out
}

// CategorySplit partitions vehicles by lease amount: Economy below $600,
// Mid-range up to $900 exclusive, Premium from $900.
func CategorySplit(vehicles []Vehicle) CategoryDistribution {
	var dist CategoryDistribution
	for _, v := range vehicles {
		switch {
		case v.LeaseAmount.Cents < economyCeiling:
			dist.Economy++
		case v.LeaseAmount.Cents < premiumFloor:
			dist.MidRange++
		default:
			dist.Premium++
		}
	}
	return dist
}

// PaymentStatusSplit classifies every payment by how far into its month it
// landed: within the first week counts as on time, later as late. Missed is
// the number of expected lessee-month slots with no payment at all, so the
// three buckets are all derived from the actual records.
func PaymentStatusSplit(d Dataset, now time.Time) StatusDistribution {
	const onTimeThroughDay = 7

	var dist StatusDistribution
	paidMonths := make(map[string]map[MonthKey]bool)
	for _, p := range d.Payments {
		if p.Date.Day() <= onTimeThroughDay {
			dist.OnTime++
		} else {
			dist.Late++
		}
		k := MonthOf(p.Date.Time)
		if paidMonths[p.LesseeID] == nil {
			paidMonths[p.LesseeID] = make(map[MonthKey]bool)
		}
		paidMonths[p.LesseeID][k] = true
	}

	current := MonthOf(now)
	for _, l := range d.Lessees {
		if l.VehicleID == "" {
			continue
		}
		for k := MonthOf(l.StartDate.Time); !current.Before(k); k = k.Next() {
			if !paidMonths[l.ID][k] {
				dist.Missed++
			}
		}
	}
	return dist
}

// trend lines up expected and collected totals for the trailing window,
// oldest month first, current month last.
func trend(expected, collected map[MonthKey]Money, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, trendMonths)
	// Normalize to the first of the month before stepping: AddDate from a
	// day-31 anchor would skip short months.
	t := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	t = t.AddDate(0, -(trendMonths - 1), 0)
	for i := 0; i < trendMonths; i++ {
		k := MonthOf(t)
		points = append(points, TrendPoint{
			Key:       k,
			Label:     k.Label(),
			Expected:  expected[k],
			Collected: collected[k],
		})
		t = t.AddDate(0, 1, 0)
	}
	return points
}
