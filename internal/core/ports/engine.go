package ports

import (
	"context"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

type DriftAnalysisEngine interface {
	Run(ctx context.Context) (domain.DriftReport, error)
}
