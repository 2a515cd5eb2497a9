package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// UnresolvedExpr marks a raw property value that a source adapter could not
// reduce to a literal (an unresolved variable or interpolation reference).
// The normalizer wraps it as an Unresolved canonical value.
type UnresolvedExpr string

type ValueKind uint8

const (
	ValueScalar ValueKind = iota
	ValueList
	ValueSet
	ValueObject
	ValueUnresolved
)

func (vk ValueKind) String() string {
	switch vk {
	case ValueScalar:
		return "scalar"
	case ValueList:
		return "list"
	case ValueSet:
		return "set"
	case ValueObject:
		return "object"
	case ValueUnresolved:
		return "unresolved"
	}
	return "invalid"
}

// Value is the canonical tagged union produced by the normalizer. Scalars are
// held post-coercion (string, float64, bool or nil); List keeps element order,
// Set does not; Object carries named fields for elements nested inside
// collections; Unresolved preserves the original expression text of a value
// that could not be reduced to a literal.
//
// Values are immutable once constructed.
type Value struct {
	kind   ValueKind
	scalar any
	elems  []Value
	fields map[string]Value
	expr   string
}

func Scalar(v any) Value {
	return Value{kind: ValueScalar, scalar: CoerceScalar(v)}
}

func List(elems ...Value) Value {
	return Value{kind: ValueList, elems: elems}
}

func Set(elems ...Value) Value {
	return Value{kind: ValueSet, elems: elems}
}

func Object(fields map[string]Value) Value {
	return Value{kind: ValueObject, fields: fields}
}

func Unresolved(expr string) Value {
	return Value{kind: ValueUnresolved, expr: expr}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) ScalarValue() any { return v.scalar }

func (v Value) Elems() []Value {
	out := make([]Value, len(v.elems))
	copy(out, v.elems)
	return out
}

func (v Value) Len() int { return len(v.elems) }

func (v Value) Fields() map[string]Value {
	out := make(map[string]Value, len(v.fields))
	for k, f := range v.fields {
		out[k] = f
	}
	return out
}

func (v Value) Field(name string) (Value, bool) {
	f, ok := v.fields[name]
	return f, ok
}

func (v Value) FieldNames() []string {
	names := make([]string, 0, len(v.fields))
	for k := range v.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (v Value) Expr() string { return v.expr }

func (v Value) IsUnresolved() bool { return v.kind == ValueUnresolved }

// ContainsUnresolved reports whether the value or any nested element is
// unresolved. Such values propagate through comparison as unknown.
func (v Value) ContainsUnresolved() bool {
	switch v.kind {
	case ValueUnresolved:
		return true
	case ValueList, ValueSet:
		for _, e := range v.elems {
			if e.ContainsUnresolved() {
				return true
			}
		}
	case ValueObject:
		for _, f := range v.fields {
			if f.ContainsUnresolved() {
				return true
			}
		}
	}
	return false
}

// CoerceScalar applies the canonical scalar coercions: integers and floats
// collapse to float64, numeric strings become numbers, boolean-like strings
// become booleans. Everything else passes through untouched.
func CoerceScalar(v any) any {
	switch s := v.(type) {
	case nil:
		return nil
	case bool:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint64:
		return float64(s)
	case float32:
		return float64(s)
	case float64:
		return s
	case string:
		trimmed := strings.TrimSpace(s)
		switch strings.ToLower(trimmed) {
		case "true":
			return true
		case "false":
			return false
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
			return f
		}
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

const floatTolerance = 1e-9

func scalarEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		return math.Abs(af-bf) < floatTolerance
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.EqualFold(strings.TrimSpace(as), strings.TrimSpace(bs))
	}
	return a == b
}

// Equal reports semantic equality. Lists compare element-wise in order, sets
// compare regardless of order, objects compare by field. Unresolved values are
// never equal to anything, including other unresolved values; callers must
// check ContainsUnresolved before relying on Equal.
func (v Value) Equal(o Value) bool {
	if v.kind == ValueUnresolved || o.kind == ValueUnresolved {
		return false
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueScalar:
		return scalarEqual(v.scalar, o.scalar)
	case ValueList:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case ValueSet:
		return setEqual(v.elems, o.elems)
	case ValueObject:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for name, f := range v.fields {
			of, ok := o.fields[name]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

func setEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, ea := range a {
		for i, eb := range b {
			if !used[i] && ea.Equal(eb) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// String renders a stable, human-oriented form used in reports and diff
// details. Set elements are sorted by their rendering so output is
// deterministic.
func (v Value) String() string {
	switch v.kind {
	case ValueScalar:
		if v.scalar == nil {
			return "null"
		}
		if s, ok := v.scalar.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		if f, ok := v.scalar.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatInt(int64(f), 10)
		}
		return fmt.Sprintf("%v", v.scalar)
	case ValueList, ValueSet:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		if v.kind == ValueSet {
			sort.Strings(parts)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ValueObject:
		names := v.FieldNames()
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s: %s", n, v.fields[n].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ValueUnresolved:
		return fmt.Sprintf("<unresolved: %s>", v.expr)
	}
	return "<invalid>"
}
