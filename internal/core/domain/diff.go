package domain

type DiffKind string

const (
	DiffAdded      DiffKind = "ADDED"      // present only on the live side
	DiffRemoved    DiffKind = "REMOVED"    // declared but missing from live
	DiffChanged    DiffKind = "CHANGED"    // present on both sides, values differ
	DiffUnresolved DiffKind = "UNRESOLVED" // one side could not be reduced to a literal
)

type RiskLevel uint8

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	}
	return "unknown"
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Max returns the higher of two levels; used for entity aggregation.
func (r RiskLevel) Max(o RiskLevel) RiskLevel {
	if o > r {
		return o
	}
	return r
}

// PropertyDiff records one leaf-path disagreement between a declared and a
// live entity. Declared/Live are nil when the path is absent on that side.
type PropertyDiff struct {
	Path     string
	Kind     DiffKind
	Declared *Value
	Live     *Value
	Risk     RiskLevel
	Detail   string
}

type MatchedPair struct {
	Declared CanonicalEntity
	Live     CanonicalEntity
}

// MatchResult partitions the input identities into three disjoint sets. Every
// entity from either input appears in exactly one partition.
type MatchResult struct {
	Matched      []MatchedPair
	DeclaredOnly []CanonicalEntity
	LiveOnly     []CanonicalEntity
}

func (m MatchResult) TotalDeclared() int {
	return len(m.Matched) + len(m.DeclaredOnly)
}

func (m MatchResult) TotalLive() int {
	return len(m.Matched) + len(m.LiveOnly)
}
