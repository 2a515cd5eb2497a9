package risk

import (
	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
)

// Classifier assigns severity to property diffs and to missing or unmanaged
// entities, driven entirely by the policy's risk table. Consumers of the
// drift report must not re-derive risk on their own.
type Classifier struct {
	policy *policy.Policy
}

func New(p *policy.Policy) *Classifier {
	return &Classifier{policy: p}
}

// ClassifyDiffs stamps each diff with its risk level and returns the entity
// aggregate (the maximum over all contributing diffs).
func (c *Classifier) ClassifyDiffs(kind domain.EntityKind, diffs []domain.PropertyDiff) ([]domain.PropertyDiff, domain.RiskLevel) {
	aggregate := domain.RiskLow
	out := make([]domain.PropertyDiff, len(diffs))
	for i, diff := range diffs {
		diff.Risk = c.policy.RiskFor(kind, diff.Path, diff.Kind)
		out[i] = diff
		aggregate = aggregate.Max(diff.Risk)
	}
	return out, aggregate
}

// ClassifyMissing rates a declared entity with no live counterpart.
func (c *Classifier) ClassifyMissing(kind domain.EntityKind) domain.RiskLevel {
	return c.policy.RiskForMissingEntity(kind)
}

// ClassifyUnmanaged rates a live entity with no declared counterpart.
func (c *Classifier) ClassifyUnmanaged(kind domain.EntityKind) domain.RiskLevel {
	return c.policy.RiskForUnmanagedEntity(kind)
}
