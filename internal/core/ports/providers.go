package ports

import (
	"context"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// SourceProvider supplies the declared side of a comparison: raw entities
// parsed from an infrastructure-as-code source. Diagnostics carry recoverable
// ingestion problems (skipped files, unsupported resource types).
type SourceProvider interface {
	Type() string
	ListEntities(ctx context.Context) ([]domain.RawEntity, []domain.Diagnostic, error)
}

// PlatformScanner supplies the live side: raw entities read from the cloud
// environment, scoped to one resource group.
type PlatformScanner interface {
	Type() string
	ScanResourceGroup(ctx context.Context, resourceGroup string) ([]domain.RawEntity, []domain.Diagnostic, error)
}
