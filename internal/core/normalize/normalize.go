package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudkinetics/azdrift/internal/core/domain"
	"github.com/cloudkinetics/azdrift/internal/core/policy"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

// Normalizer converts raw property trees from either origin into canonical
// entities: flattened dotted paths in the live-system vocabulary, coerced
// scalars, collections tagged List or Set per the policy tables. It is a pure
// function of its input; recoverable shape problems become diagnostics, never
// failures.
type Normalizer struct {
	policy *policy.Policy
}

func New(p *policy.Policy) *Normalizer {
	return &Normalizer{policy: p}
}

// Normalize produces the canonical form of one raw entity.
func (n *Normalizer) Normalize(raw domain.RawEntity) (domain.CanonicalEntity, []domain.Diagnostic) {
	props := make(map[string]domain.Value)
	var diags []domain.Diagnostic

	keys := make([]string, 0, len(raw.Properties))
	for k := range raw.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := raw.Properties[key]
		path := key
		if raw.Source == domain.SourceDeclared {
			path = n.policy.CanonicalPath(raw.Kind, key)
		}
		n.flatten(raw, path, value, 0, props, &diags)
	}

	return domain.NewCanonicalEntity(raw.Kind, raw.Name, raw.Source, raw.Location, raw.Region, props), diags
}

// NormalizeAll normalizes a batch, accumulating diagnostics across entities.
func (n *Normalizer) NormalizeAll(raws []domain.RawEntity) ([]domain.CanonicalEntity, []domain.Diagnostic) {
	entities := make([]domain.CanonicalEntity, 0, len(raws))
	var diags []domain.Diagnostic
	for _, raw := range raws {
		entity, entityDiags := n.Normalize(raw)
		entities = append(entities, entity)
		diags = append(diags, entityDiags...)
	}
	return entities, diags
}

func (n *Normalizer) flatten(raw domain.RawEntity, path string, value any, depth int, props map[string]domain.Value, diags *[]domain.Diagnostic) {
	if depth > n.policy.MaxDepth() {
		*diags = append(*diags, depthDiagnostic(raw, path))
		props[path] = domain.Unresolved(fmt.Sprintf("%v", value))
		return
	}

	switch v := value.(type) {
	case nil:
		// Absence is represented by omission.
		return
	case domain.UnresolvedExpr:
		props[path] = domain.Unresolved(string(v))
	case string:
		if isUnresolvedString(v) {
			props[path] = domain.Unresolved(v)
			return
		}
		props[path] = domain.Scalar(v)
	case map[string]any:
		if len(v) == 0 {
			return
		}
		fields := make([]string, 0, len(v))
		for k := range v {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, field := range fields {
			segment := field
			if path == "tags" {
				segment = strings.ToLower(field)
			}
			n.flatten(raw, path+"."+segment, v[field], depth+1, props, diags)
		}
	case map[string]string:
		converted := make(map[string]any, len(v))
		for k, s := range v {
			converted[k] = s
		}
		n.flatten(raw, path, converted, depth, props, diags)
	case []any:
		// HCL represents nested blocks as single-element slices of objects;
		// unwrap those unless the path is a genuine collection.
		if len(v) == 1 && !n.isCollectionPath(raw.Kind, path) {
			if inner, ok := v[0].(map[string]any); ok {
				n.flatten(raw, path, inner, depth, props, diags)
				return
			}
		}
		props[path] = n.collectionValue(raw, path, v, depth, diags)
	case []string:
		anySlice := make([]any, len(v))
		for i, s := range v {
			anySlice[i] = s
		}
		props[path] = n.collectionValue(raw, path, anySlice, depth, diags)
	default:
		props[path] = domain.Scalar(v)
	}
}

func (n *Normalizer) collectionValue(raw domain.RawEntity, path string, items []any, depth int, diags *[]domain.Diagnostic) domain.Value {
	elems := make([]domain.Value, 0, len(items))
	for _, item := range items {
		elems = append(elems, n.toValue(raw, path, item, depth+1, diags))
	}
	if n.policy.IsSetPath(raw.Kind, path) {
		return domain.Set(elems...)
	}
	return domain.List(elems...)
}

// toValue converts a value nested inside a collection. Objects stay objects
// (they are matched and recursed into by the differ), they are not flattened
// into the entity's top-level path map.
func (n *Normalizer) toValue(raw domain.RawEntity, path string, value any, depth int, diags *[]domain.Diagnostic) domain.Value {
	if depth > n.policy.MaxDepth() {
		*diags = append(*diags, depthDiagnostic(raw, path))
		return domain.Unresolved(fmt.Sprintf("%v", value))
	}

	switch v := value.(type) {
	case domain.UnresolvedExpr:
		return domain.Unresolved(string(v))
	case string:
		if isUnresolvedString(v) {
			return domain.Unresolved(v)
		}
		return domain.Scalar(v)
	case map[string]any:
		fields := make(map[string]domain.Value, len(v))
		for name, fv := range v {
			if fv == nil {
				continue
			}
			fields[name] = n.toValue(raw, path+"."+name, fv, depth+1, diags)
		}
		return domain.Object(fields)
	case []any:
		return n.collectionValue(raw, path, v, depth, diags)
	case []string:
		anySlice := make([]any, len(v))
		for i, s := range v {
			anySlice[i] = s
		}
		return n.collectionValue(raw, path, anySlice, depth, diags)
	default:
		return domain.Scalar(v)
	}
}

func (n *Normalizer) isCollectionPath(kind domain.EntityKind, path string) bool {
	if n.policy.IsSetPath(kind, path) {
		return true
	}
	// Order-significant collections keep List semantics; the ones we know
	// about are address prefix lists.
	switch lastSegment(path) {
	case "address_space", "address_prefixes", "dns_servers":
		return true
	}
	return false
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// isUnresolvedString detects interpolation leftovers that best-effort variable
// substitution could not reduce.
func isUnresolvedString(s string) bool {
	return strings.Contains(s, "${")
}

func depthDiagnostic(raw domain.RawEntity, path string) domain.Diagnostic {
	return domain.Diagnostic{
		Code:    errors.CodeNormalization.String(),
		Message: fmt.Sprintf("property tree exceeds maximum depth at %q; value kept unnormalized", path),
		Subject: domain.NewEntityID(raw.Kind, raw.Name).String(),
	}
}
