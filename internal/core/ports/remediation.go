package ports

import (
	"context"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// CommandPlanner derives corrective az CLI commands from a finished report.
// Declared entities are passed alongside so create commands can draw on the
// full declared configuration, which the report itself does not carry.
type CommandPlanner interface {
	Plan(report domain.DriftReport, declared map[domain.EntityID]domain.CanonicalEntity) []domain.Command
}

// CommandExecutor runs planned commands under an approval policy.
type CommandExecutor interface {
	Execute(ctx context.Context, commands []domain.Command) error
}
