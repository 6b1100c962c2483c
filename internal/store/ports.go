// Package store declares the ports the HTTP layer and workers depend on.
// The memory and sqlite subpackages provide the implementations.
package store

import (
	"context"

	"fleetlease/internal/core"
)

type (
	// Registrar performs the lessee registration flow: validate the form,
	// create the lessee, and flip the target vehicle to leased. State is
	// untouched when an error is returned.
	Registrar interface {
		RegisterLessee(ctx context.Context, form core.RegistrationForm) (core.Lessee, error)
	}

	// PaymentRecorder appends a completed payment for an existing lessee.
	PaymentRecorder interface {
		RecordPayment(ctx context.Context, form core.PaymentForm) (core.Payment, error)
	}

	// SnapshotReader returns a copy of the full dataset. Every derived
	// metric is recomputed from a snapshot; there is no incremental path.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.Dataset, error)
	}
)
