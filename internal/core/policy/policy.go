package policy

import (
	"strings"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
)

// Policy bundles the static per-kind tables that drive normalization, diffing
// and risk classification: declared-to-canonical property name translation,
// list/set classification, set element identity keys, provider default values
// and the risk rules. It is built once at bootstrap and passed into each
// component; nothing mutates it afterwards.
type Policy struct {
	nameTranslations map[domain.EntityKind]map[string]string
	setPaths         map[domain.EntityKind]map[string]struct{}
	setIdentityKeys  map[domain.EntityKind]map[string]string
	defaults         map[domain.EntityKind]map[string]domain.Value
	riskRules        []RiskRule
	diffKindDefaults map[domain.DiffKind]domain.RiskLevel
	missingRisk      domain.RiskLevel
	unmanagedRisk    domain.RiskLevel
	maxDepth         int
}

// RiskRule escalates diffs whose canonical path starts with PathPrefix. An
// empty Kind applies to every entity kind. More specific rules (longer prefix,
// kind-scoped) win over less specific ones.
type RiskRule struct {
	Kind       domain.EntityKind
	PathPrefix string
	Level      domain.RiskLevel
}

// MaxDepth bounds recursion while flattening raw property trees. Real Azure
// resource schemas stay well below this; a breach is reported as a
// normalization diagnostic, never a crash.
func (p *Policy) MaxDepth() int { return p.maxDepth }

// CanonicalPath translates a declared-source top-level property name into the
// canonical (live vocabulary) path for the kind. Untranslated names pass
// through unchanged.
func (p *Policy) CanonicalPath(kind domain.EntityKind, declaredName string) string {
	if m, ok := p.nameTranslations[kind]; ok {
		if canonical, ok := m[declaredName]; ok {
			return canonical
		}
	}
	return declaredName
}

// IsSetPath reports whether the collection at path carries no provider-side
// ordering and must be compared with set semantics.
func (p *Policy) IsSetPath(kind domain.EntityKind, path string) bool {
	if m, ok := p.setPaths[kind]; ok {
		if _, ok := m[path]; ok {
			return true
		}
	}
	return false
}

// SetIdentityKey returns the object field used to pair set elements across
// sides before recursing into them (e.g. security rules pair by name).
func (p *Policy) SetIdentityKey(kind domain.EntityKind, path string) (string, bool) {
	if m, ok := p.setIdentityKeys[kind]; ok {
		if key, ok := m[path]; ok {
			return key, true
		}
	}
	return "", false
}

// DefaultValue returns the provider default for (kind, path) when one is
// known. The differ uses it to elide default-valued one-sided properties and
// to substitute the effective value of an absent side.
func (p *Policy) DefaultValue(kind domain.EntityKind, path string) (domain.Value, bool) {
	if m, ok := p.defaults[kind]; ok {
		if v, ok := m[path]; ok {
			return v, true
		}
	}
	return domain.Value{}, false
}

// RiskFor resolves the risk level for a property diff: the most specific
// matching rule wins, otherwise the per-diff-kind default applies.
func (p *Policy) RiskFor(kind domain.EntityKind, path string, diffKind domain.DiffKind) domain.RiskLevel {
	best := -1
	level := p.diffKindDefaults[diffKind]
	for _, rule := range p.riskRules {
		if rule.Kind != "" && rule.Kind != kind {
			continue
		}
		if !strings.HasPrefix(path, rule.PathPrefix) {
			continue
		}
		specificity := len(rule.PathPrefix)
		if rule.Kind != "" {
			specificity += 1000
		}
		if specificity > best {
			best = specificity
			level = rule.Level
		}
	}
	return level
}

func (p *Policy) RiskForMissingEntity(kind domain.EntityKind) domain.RiskLevel {
	return p.missingRisk
}

func (p *Policy) RiskForUnmanagedEntity(kind domain.EntityKind) domain.RiskLevel {
	return p.unmanagedRisk
}
