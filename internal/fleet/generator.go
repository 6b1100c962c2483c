// Package fleet generates the synthetic dataset that seeds a session:
// vehicles, lessees, and a backdated payment history. The generator is pure
// apart from the injected random source, so a fixed seed reproduces the
// exact same dataset.
package fleet

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"fleetlease/internal/core"
)

const (
	vehicleCount = 20
	leasedCount  = 12
	lesseeCount  = 8
)

// Tuning knobs for the payment history walk.
const (
	perturbProbability = 0.20 // amount moved by up to ±20%
	skipProbability    = 0.15 // month skipped entirely (missed payment)
	delayProbability   = 0.30 // payment date pushed up to 14 days
	maxDelayDays       = 14
)

// Lessees whose recent payments are stripped after generation, so the
// overdue list is never empty in a fresh demo session.
var overdueDemoLessees = []string{core.LesseeID(3), core.LesseeID(5)}

// Generate produces a self-consistent dataset at the given instant using the
// supplied random source.
func Generate(rng *rand.Rand, now time.Time) core.Dataset {
	d := core.Dataset{}
	d.Vehicles = generateVehicles(rng)
	d.Lessees = generateLessees(rng, d.Vehicles, now)
	d.Payments = generatePayments(rng, d, now)
	stripRecentPayments(&d, now)
	return d
}

// NewSeeded is the convenience entry point used by the stores: a dataset
// from a plain int64 seed.
func NewSeeded(seed int64, now time.Time) core.Dataset {
	return Generate(rand.New(rand.NewSource(seed)), now)
}

func generateVehicles(rng *rand.Rand) []core.Vehicle {
	vehicles := make([]core.Vehicle, 0, vehicleCount)
	for i := 0; i < vehicleCount; i++ {
		entry := catalog[rng.Intn(len(catalog))]
		amount := entry.MinLease + rng.Intn(entry.MaxLease-entry.MinLease+1)
		v := core.Vehicle{
			ID:          core.VehicleID(i + 1),
			Make:        entry.Name,
			Model:       entry.Models[rng.Intn(len(entry.Models))],
			Year:        2019 + rng.Intn(5),
			Color:       colors[rng.Intn(len(colors))],
			LeaseAmount: core.Money{Cents: int64(amount) * 100},
		}
		// The first 12 vehicles are leased in pairs: vehicles 2i and 2i+1
		// share lessee i+1. The registration flow never produces this
		// shape; it is a seed-only shortcut.
		if i < leasedCount {
			v.Leased = true
			v.LesseeID = core.LesseeID(i/2 + 1)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles
}

func generateLessees(rng *rand.Rand, vehicles []core.Vehicle, now time.Time) []core.Lessee {
	lessees := make([]core.Lessee, 0, lesseeCount)
	for i := 0; i < lesseeCount; i++ {
		id := core.LesseeID(i + 1)
		name := lesseeNames[i]
		monthsBack := rng.Intn(12)
		start := now.AddDate(0, -monthsBack, 0)
		start = time.Date(start.Year(), start.Month(), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		if start.After(now) {
			start = now
		}
		l := core.Lessee{
			ID:        id,
			Name:      name,
			Email:     emailFor(name),
			Phone:     phone(rng),
			StartDate: core.Date{Time: start},
		}
		for _, v := range vehicles {
			if v.LesseeID == id {
				l.VehicleID = v.ID
				break
			}
		}
		lessees = append(lessees, l)
	}
	return lessees
}

// generatePayments walks calendar months from each linked lessee's start
// date to now. Every month owes the vehicle's lease amount; some months are
// perturbed, skipped, or paid late.
func generatePayments(rng *rand.Rand, d core.Dataset, now time.Time) []core.Payment {
	vehicleByID := make(map[string]core.Vehicle, len(d.Vehicles))
	for _, v := range d.Vehicles {
		vehicleByID[v.ID] = v
	}

	var payments []core.Payment
	current := core.MonthOf(now)
	for _, l := range d.Lessees {
		v, ok := vehicleByID[l.VehicleID]
		if !ok {
			continue
		}
		for k := core.MonthOf(l.StartDate.Time); !current.Before(k); k = k.Next() {
			if rng.Float64() < skipProbability {
				continue
			}
			base := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
			if k == core.MonthOf(l.StartDate.Time) {
				base = l.StartDate.Time
			}
			if rng.Float64() < delayProbability {
				base = base.AddDate(0, 0, 1+rng.Intn(maxDelayDays))
			}
			if base.After(now) {
				continue
			}
			cents := v.LeaseAmount.Cents
			if rng.Float64() < perturbProbability {
				factor := 0.8 + rng.Float64()*0.4
				cents = int64(float64(cents)*factor + 0.5)
			}
			payments = append(payments, core.Payment{
				ID:       core.PaymentID(len(payments) + 1),
				LesseeID: l.ID,
				Amount:   core.Money{Cents: cents},
				Date:     core.Date{Time: base},
				Status:   core.StatusCompleted,
			})
		}
	}
	return payments
}

// stripRecentPayments removes the trailing 2 months of payments for the
// fixed demo lessees, manufacturing deterministic overdue cases. Survivors
// are renumbered so IDs stay contiguous; the stores assign the next ID from
// the collection length, which a gapped seed would collide with.
func stripRecentPayments(d *core.Dataset, now time.Time) {
	cutoff := now.AddDate(0, -2, 0)
	demo := make(map[string]bool, len(overdueDemoLessees))
	for _, id := range overdueDemoLessees {
		demo[id] = true
	}
	kept := d.Payments[:0]
	for _, p := range d.Payments {
		if demo[p.LesseeID] && p.Date.Time.After(cutoff) {
			continue
		}
		p.ID = core.PaymentID(len(kept) + 1)
		kept = append(kept, p)
	}
	d.Payments = kept
}

func emailFor(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", ".") + "@example.com"
}

func phone(rng *rand.Rand) string {
	return fmt.Sprintf("(%d) 555-%04d", 200+rng.Intn(800), rng.Intn(10000))
}
