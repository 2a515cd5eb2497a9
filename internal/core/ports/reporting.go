package ports

import (
	"context"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// Reporter renders a drift report. Implementations must treat the report as
// read-only and must not re-derive risk.
type Reporter interface {
	Type() string
	Report(ctx context.Context, rep domain.DriftReport) error
}
