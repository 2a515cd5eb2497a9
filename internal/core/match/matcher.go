package match

import (
	"fmt"
	"sort"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

// Match pairs declared entities with live entities by (kind, lowercase name).
// No fuzzy matching: silently pairing differently-named resources would mask a
// missing-resource drift as configuration drift.
//
// The resulting partitions are exhaustive and disjoint over every admitted
// identity. Two entities sharing an identity on the same side is a
// DuplicateEntityError: that identity is withdrawn from the comparison on both
// sides and reported in diagnostics; all other identities proceed. Entities of
// an unsupported kind are likewise excluded with an UnknownEntityTypeError
// diagnostic.
func Match(declared, live []domain.CanonicalEntity) (domain.MatchResult, []domain.Diagnostic) {
	var diags []domain.Diagnostic

	declaredIndex, declaredDiags := index(declared)
	liveIndex, liveDiags := index(live)
	diags = append(diags, declaredDiags...)
	diags = append(diags, liveDiags...)

	// An identity that is duplicated on either side is withdrawn from both,
	// so a duplicate never masquerades as missing or unmanaged.
	poisoned := make(map[domain.EntityID]struct{})
	for _, d := range declaredDiags {
		markPoisoned(poisoned, d)
	}
	for _, d := range liveDiags {
		markPoisoned(poisoned, d)
	}

	var result domain.MatchResult
	for id, declaredEntity := range declaredIndex {
		if _, bad := poisoned[id]; bad {
			continue
		}
		if liveEntity, ok := liveIndex[id]; ok {
			result.Matched = append(result.Matched, domain.MatchedPair{Declared: declaredEntity, Live: liveEntity})
		} else {
			result.DeclaredOnly = append(result.DeclaredOnly, declaredEntity)
		}
	}
	for id, liveEntity := range liveIndex {
		if _, bad := poisoned[id]; bad {
			continue
		}
		if _, ok := declaredIndex[id]; !ok {
			result.LiveOnly = append(result.LiveOnly, liveEntity)
		}
	}

	sortResult(&result)
	return result, diags
}

func index(entities []domain.CanonicalEntity) (map[domain.EntityID]domain.CanonicalEntity, []domain.Diagnostic) {
	byID := make(map[domain.EntityID]domain.CanonicalEntity, len(entities))
	var diags []domain.Diagnostic

	for _, e := range entities {
		if !domain.IsSupportedKind(e.Kind()) {
			diags = append(diags, domain.Diagnostic{
				Code:    errors.CodeUnknownEntityType.String(),
				Message: fmt.Sprintf("entity kind %q is outside the supported set", e.Kind()),
				Subject: e.ID().String(),
			})
			continue
		}
		id := e.ID()
		if existing, dup := byID[id]; dup {
			diags = append(diags, domain.Diagnostic{
				Code: errors.CodeDuplicateEntity.String(),
				Message: fmt.Sprintf("duplicate %s entity %q: defined at %s and %s",
					e.Source(), id, existing.Location(), e.Location()),
				Subject: id.String(),
			})
			continue
		}
		byID[id] = e
	}
	return byID, diags
}

func markPoisoned(poisoned map[domain.EntityID]struct{}, d domain.Diagnostic) {
	if d.Code != errors.CodeDuplicateEntity.String() {
		return
	}
	// Subject carries the identity string kind/name.
	for _, kind := range domain.AllKinds() {
		prefix := kind.String() + "/"
		if len(d.Subject) > len(prefix) && d.Subject[:len(prefix)] == prefix {
			poisoned[domain.EntityID{Kind: kind, Name: d.Subject[len(prefix):]}] = struct{}{}
			return
		}
	}
}

func sortResult(r *domain.MatchResult) {
	sort.Slice(r.Matched, func(i, j int) bool {
		return r.Matched[i].Declared.ID().String() < r.Matched[j].Declared.ID().String()
	})
	sort.Slice(r.DeclaredOnly, func(i, j int) bool {
		return r.DeclaredOnly[i].ID().String() < r.DeclaredOnly[j].ID().String()
	})
	sort.Slice(r.LiveOnly, func(i, j int) bool {
		return r.LiveOnly[i].ID().String() < r.LiveOnly[j].ID().String()
	})
}
