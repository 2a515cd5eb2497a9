package diffing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
)

// Differ walks two canonical entities in lock-step and emits property-level
// differences. It applies the domain equivalence rules: default-value elision,
// semantic scalar equality, ordered list versus unordered set comparison, and
// unresolved-value propagation. It never fails: structural inconsistencies
// are reported as Changed diffs with both raw values attached.
type Differ struct {
	policy *policy.Policy
}

func New(p *policy.Policy) *Differ {
	return &Differ{policy: p}
}

// Diff compares a matched pair. Both entities must share a kind; the walk
// covers the union of canonical paths present on either side and the output
// order is deterministic (lexicographic by path) for identical inputs.
func (d *Differ) Diff(declared, live domain.CanonicalEntity) []domain.PropertyDiff {
	kind := declared.Kind()
	paths := unionPaths(declared, live)

	var diffs []domain.PropertyDiff
	for _, path := range paths {
		declaredVal, declaredOK := declared.Property(path)
		liveVal, liveOK := live.Property(path)

		switch {
		case declaredOK && liveOK:
			diffs = append(diffs, d.diffBoth(kind, path, declaredVal, liveVal)...)
		case declaredOK:
			diffs = append(diffs, d.diffOneSided(kind, path, declaredVal, domain.SourceDeclared)...)
		case liveOK:
			diffs = append(diffs, d.diffOneSided(kind, path, liveVal, domain.SourceLive)...)
		}
	}

	sort.SliceStable(diffs, func(i, j int) bool {
		if diffs[i].Path != diffs[j].Path {
			return diffs[i].Path < diffs[j].Path
		}
		return diffs[i].Kind < diffs[j].Kind
	})
	return diffs
}

func (d *Differ) diffBoth(kind domain.EntityKind, path string, declared, live domain.Value) []domain.PropertyDiff {
	if declared.ContainsUnresolved() || live.ContainsUnresolved() {
		return []domain.PropertyDiff{unresolvedDiff(path, declared, live)}
	}

	if declared.Kind() != live.Kind() {
		// Type clash (e.g. list vs scalar at the same path): report, never
		// abort. Both raw renderings travel with the diff.
		return []domain.PropertyDiff{{
			Path:     path,
			Kind:     domain.DiffChanged,
			Declared: ref(declared),
			Live:     ref(live),
			Detail:   fmt.Sprintf("type mismatch: declared %s, live %s", declared.Kind(), live.Kind()),
		}}
	}

	switch declared.Kind() {
	case domain.ValueScalar, domain.ValueList, domain.ValueObject:
		if declared.Equal(live) {
			return nil
		}
		detail := ""
		if declared.Kind() == domain.ValueList {
			// A positional mismatch yields one diff for the whole path, not
			// one per element, to keep reordering noise out of the report.
			detail = "list elements differ"
		}
		return []domain.PropertyDiff{{
			Path:     path,
			Kind:     domain.DiffChanged,
			Declared: ref(declared),
			Live:     ref(live),
			Detail:   detail,
		}}
	case domain.ValueSet:
		return d.diffSets(kind, path, declared, live)
	}
	return nil
}

// diffSets compares unordered collections. Object elements pair up by the
// kind's identity key and the pair recurses; elements without a counterpart
// are reported individually. Scalar sets report only one-sided elements.
func (d *Differ) diffSets(kind domain.EntityKind, path string, declared, live domain.Value) []domain.PropertyDiff {
	idKey, hasIDKey := d.policy.SetIdentityKey(kind, path)
	if hasIDKey {
		return d.diffKeyedSets(kind, path, idKey, declared, live)
	}

	var diffs []domain.PropertyDiff
	liveElems := live.Elems()
	usedLive := make([]bool, len(liveElems))

	for _, elem := range declared.Elems() {
		found := false
		for i, liveElem := range liveElems {
			if !usedLive[i] && elem.Equal(liveElem) {
				usedLive[i] = true
				found = true
				break
			}
		}
		if !found {
			diffs = append(diffs, domain.PropertyDiff{
				Path:     elementPath(path, elem.String()),
				Kind:     domain.DiffRemoved,
				Declared: ref(elem),
				Detail:   "set element missing from live side",
			})
		}
	}
	for i, liveElem := range liveElems {
		if !usedLive[i] {
			diffs = append(diffs, domain.PropertyDiff{
				Path:   elementPath(path, liveElem.String()),
				Kind:   domain.DiffAdded,
				Live:   ref(liveElem),
				Detail: "set element present only on live side",
			})
		}
	}
	return diffs
}

func (d *Differ) diffKeyedSets(kind domain.EntityKind, path, idKey string, declared, live domain.Value) []domain.PropertyDiff {
	declaredByKey, declaredLoose := indexByKey(declared.Elems(), idKey)
	liveByKey, liveLoose := indexByKey(live.Elems(), idKey)

	var diffs []domain.PropertyDiff

	// Elements that carry no identity key fall back to whole-set membership.
	diffs = append(diffs, d.diffSets(kind, path, domain.Set(declaredLoose...), domain.Set(liveLoose...))...)

	keys := make([]string, 0, len(declaredByKey)+len(liveByKey))
	seen := make(map[string]struct{})
	for k := range declaredByKey {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range liveByKey {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		declaredElem, declaredOK := declaredByKey[key]
		liveElem, liveOK := liveByKey[key]
		elemPath := elementPath(path, key)

		switch {
		case declaredOK && liveOK:
			diffs = append(diffs, d.diffElements(kind, elemPath, declaredElem, liveElem)...)
		case declaredOK:
			diffs = append(diffs, domain.PropertyDiff{
				Path:     elemPath,
				Kind:     domain.DiffRemoved,
				Declared: ref(declaredElem),
				Detail:   "set element missing from live side",
			})
		case liveOK:
			diffs = append(diffs, domain.PropertyDiff{
				Path:   elemPath,
				Kind:   domain.DiffAdded,
				Live:   ref(liveElem),
				Detail: "set element present only on live side",
			})
		}
	}
	return diffs
}

// diffElements recurses into a matched pair of set elements, field by field
// for objects and by the standard rules otherwise.
func (d *Differ) diffElements(kind domain.EntityKind, path string, declared, live domain.Value) []domain.PropertyDiff {
	if declared.ContainsUnresolved() || live.ContainsUnresolved() {
		return []domain.PropertyDiff{unresolvedDiff(path, declared, live)}
	}
	if declared.Kind() != live.Kind() || declared.Kind() != domain.ValueObject {
		return d.diffBoth(kind, path, declared, live)
	}

	names := unionFieldNames(declared, live)
	var diffs []domain.PropertyDiff
	for _, name := range names {
		fieldPath := path + "." + name
		declaredField, declaredOK := declared.Field(name)
		liveField, liveOK := live.Field(name)

		switch {
		case declaredOK && liveOK:
			diffs = append(diffs, d.diffBoth(kind, fieldPath, declaredField, liveField)...)
		case declaredOK:
			diffs = append(diffs, d.diffOneSided(kind, fieldPath, declaredField, domain.SourceDeclared)...)
		case liveOK:
			diffs = append(diffs, d.diffOneSided(kind, fieldPath, liveField, domain.SourceLive)...)
		}
	}
	return diffs
}

// diffOneSided handles a path present on only one side. If the present value
// equals the known provider default the difference is elided; if a default is
// known but differs, the absent side is substituted with the default and the
// path reported as Changed; otherwise the path is Removed (declared-only) or
// Added (live-only).
func (d *Differ) diffOneSided(kind domain.EntityKind, path string, present domain.Value, side domain.SourceKind) []domain.PropertyDiff {
	if present.ContainsUnresolved() {
		diff := domain.PropertyDiff{Path: path, Kind: domain.DiffUnresolved}
		if side == domain.SourceDeclared {
			diff.Declared = ref(present)
			diff.Detail = unresolvedDetail(present)
		} else {
			diff.Live = ref(present)
			diff.Detail = unresolvedDetail(present)
		}
		return []domain.PropertyDiff{diff}
	}

	if def, ok := d.policy.DefaultValue(kind, path); ok {
		if present.Equal(def) {
			return nil
		}
		diff := domain.PropertyDiff{
			Path:   path,
			Kind:   domain.DiffChanged,
			Detail: "absent side substituted with the provider default",
		}
		if side == domain.SourceDeclared {
			diff.Declared = ref(present)
			diff.Live = ref(def)
		} else {
			diff.Declared = ref(def)
			diff.Live = ref(present)
		}
		return []domain.PropertyDiff{diff}
	}

	if side == domain.SourceDeclared {
		return []domain.PropertyDiff{{
			Path:     path,
			Kind:     domain.DiffRemoved,
			Declared: ref(present),
		}}
	}
	return []domain.PropertyDiff{{
		Path: path,
		Kind: domain.DiffAdded,
		Live: ref(present),
	}}
}

func unresolvedDiff(path string, declared, live domain.Value) domain.PropertyDiff {
	diff := domain.PropertyDiff{
		Path:     path,
		Kind:     domain.DiffUnresolved,
		Declared: ref(declared),
		Live:     ref(live),
	}
	if declared.ContainsUnresolved() {
		diff.Detail = unresolvedDetail(declared)
	} else {
		diff.Detail = unresolvedDetail(live)
	}
	return diff
}

func unresolvedDetail(v domain.Value) string {
	if v.Kind() == domain.ValueUnresolved {
		return fmt.Sprintf("value could not be resolved to a literal: %s", v.Expr())
	}
	return "value contains an unresolved reference"
}

func elementPath(path, key string) string {
	return path + "[" + strings.Trim(key, `"`) + "]"
}

func indexByKey(elems []domain.Value, idKey string) (map[string]domain.Value, []domain.Value) {
	byKey := make(map[string]domain.Value, len(elems))
	var loose []domain.Value
	for _, e := range elems {
		keyField, ok := e.Field(idKey)
		if !ok || keyField.Kind() != domain.ValueScalar {
			loose = append(loose, e)
			continue
		}
		key := strings.Trim(keyField.String(), `"`)
		if _, dup := byKey[key]; dup {
			loose = append(loose, e)
			continue
		}
		byKey[key] = e
	}
	return byKey, loose
}

func unionPaths(a, b domain.CanonicalEntity) []string {
	paths := a.Paths()
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		seen[p] = struct{}{}
	}
	for _, p := range b.Paths() {
		if _, ok := seen[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

func unionFieldNames(a, b domain.Value) []string {
	names := a.FieldNames()
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	for _, n := range b.FieldNames() {
		if _, ok := seen[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func ref(v domain.Value) *domain.Value {
	return &v
}
