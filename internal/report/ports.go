package report

import (
	"context"

	"fleetlease/internal/core"
)

// Writer exports a computed dashboard snapshot to an external destination.
type Writer interface {
	AppendSnapshot(ctx context.Context, m core.DashboardMetrics, generatedAt string) error
}
