package domain

import (
	"sort"
	"strings"
)

type SourceKind string

const (
	SourceDeclared SourceKind = "declared"
	SourceLive     SourceKind = "live"
)

// EntityID is the matching identity: (kind, lowercased name).
type EntityID struct {
	Kind EntityKind
	Name string
}

func NewEntityID(kind EntityKind, name string) EntityID {
	return EntityID{Kind: kind, Name: strings.ToLower(name)}
}

func (id EntityID) String() string {
	return string(id.Kind) + "/" + id.Name
}

// RawEntity is the shape both external collaborators hand to the core: a kind
// from the fixed enumerated set, a name, and a nested property tree that has
// not been normalized yet. Location is the source address for declared
// entities and the resource ID for live ones.
type RawEntity struct {
	Kind       EntityKind
	Name       string
	Source     SourceKind
	Location   string
	Region     string
	Properties map[string]any
}

// CanonicalEntity is the normalizer's output: an immutable entity whose
// properties are keyed by dotted canonical paths in the live-system
// vocabulary. Paths are kept sorted so iteration is deterministic.
type CanonicalEntity struct {
	kind     EntityKind
	name     string
	source   SourceKind
	location string
	region   string
	paths    []string
	props    map[string]Value
}

func NewCanonicalEntity(kind EntityKind, name string, source SourceKind, location, region string, props map[string]Value) CanonicalEntity {
	paths := make([]string, 0, len(props))
	copied := make(map[string]Value, len(props))
	for p, v := range props {
		paths = append(paths, p)
		copied[p] = v
	}
	sort.Strings(paths)
	return CanonicalEntity{
		kind:     kind,
		name:     name,
		source:   source,
		location: location,
		region:   region,
		paths:    paths,
		props:    copied,
	}
}

func (e CanonicalEntity) ID() EntityID {
	return NewEntityID(e.kind, e.name)
}

func (e CanonicalEntity) Kind() EntityKind   { return e.kind }
func (e CanonicalEntity) Name() string       { return e.name }
func (e CanonicalEntity) Source() SourceKind { return e.source }
func (e CanonicalEntity) Location() string   { return e.location }
func (e CanonicalEntity) Region() string     { return e.region }

// Paths returns the sorted canonical property paths.
func (e CanonicalEntity) Paths() []string {
	out := make([]string, len(e.paths))
	copy(out, e.paths)
	return out
}

func (e CanonicalEntity) Property(path string) (Value, bool) {
	v, ok := e.props[path]
	return v, ok
}

func (e CanonicalEntity) PropertyCount() int { return len(e.props) }
