// Package filter defines typed metadata predicates used across the sparse
// index, the query router, and the retrieval strategies. A Value is a tagged
// union validated at construction time; malformed filters are rejected when
// built, never at match time.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the Value union.
type Kind string

const (
	// KindExact matches when the field equals the given value.
	KindExact Kind = "exact"

	// KindRange matches when the field's numeric value falls within [Lo, Hi].
	// Either bound may be open.
	KindRange Kind = "range"

	// KindMembership matches when the field equals any of the given values.
	KindMembership Kind = "membership"
)

// Value is a validated metadata predicate.
// Construct via Exact, Range, or Membership; the zero Value matches nothing.
type Value struct {
	kind    Kind
	exact   string
	lo, hi  float64
	hasLo   bool
	hasHi   bool
	members map[string]struct{}
	// order preserves insertion order of members for String().
	order []string
}

// Exact builds a predicate matching fields equal to v (case-insensitive).
func Exact(v string) Value {
	return Value{kind: KindExact, exact: strings.ToLower(v)}
}

// Range builds a numeric range predicate. Nil bounds are open.
// Returns an error if both bounds are nil or lo > hi.
func Range(lo, hi *float64) (Value, error) {
	if lo == nil && hi == nil {
		return Value{}, fmt.Errorf("range filter requires at least one bound")
	}
	if lo != nil && hi != nil && *lo > *hi {
		return Value{}, fmt.Errorf("range filter lo %v exceeds hi %v", *lo, *hi)
	}
	v := Value{kind: KindRange}
	if lo != nil {
		v.lo, v.hasLo = *lo, true
	}
	if hi != nil {
		v.hi, v.hasHi = *hi, true
	}
	return v, nil
}

// Membership builds a set predicate matching any of the given values
// (case-insensitive). Returns an error for an empty set.
func Membership(values ...string) (Value, error) {
	if len(values) == 0 {
		return Value{}, fmt.Errorf("membership filter requires at least one value")
	}
	v := Value{kind: KindMembership, members: make(map[string]struct{}, len(values))}
	for _, m := range values {
		lower := strings.ToLower(m)
		if _, ok := v.members[lower]; ok {
			continue
		}
		v.members[lower] = struct{}{}
		v.order = append(v.order, lower)
	}
	return v, nil
}

// Kind returns the predicate kind. The zero Value reports an empty kind.
func (v Value) Kind() Kind { return v.kind }

// Matches reports whether the stored field value satisfies the predicate.
// Field values are compared as lowercase strings; range predicates parse the
// field as a float and fail the match when it does not parse.
func (v Value) Matches(field string) bool {
	switch v.kind {
	case KindExact:
		return strings.ToLower(field) == v.exact
	case KindRange:
		n, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return false
		}
		if v.hasLo && n < v.lo {
			return false
		}
		if v.hasHi && n > v.hi {
			return false
		}
		return true
	case KindMembership:
		_, ok := v.members[strings.ToLower(field)]
		return ok
	default:
		return false
	}
}

// String renders the predicate for logs and cache keys.
func (v Value) String() string {
	switch v.kind {
	case KindExact:
		return "=" + v.exact
	case KindRange:
		lo, hi := "-inf", "+inf"
		if v.hasLo {
			lo = strconv.FormatFloat(v.lo, 'g', -1, 64)
		}
		if v.hasHi {
			hi = strconv.FormatFloat(v.hi, 'g', -1, 64)
		}
		return "[" + lo + ".." + hi + "]"
	case KindMembership:
		return "in(" + strings.Join(v.order, ",") + ")"
	default:
		return "<invalid>"
	}
}

// MarshalJSON renders the predicate in its String form. Predicates are
// constructed in code, never parsed back, so there is no UnmarshalJSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Set is a named collection of predicates, all of which must hold.
type Set map[string]Value

// MatchesAll reports whether the metadata satisfies every predicate in the
// set. Missing metadata fields fail their predicate.
func (s Set) MatchesAll(metadata map[string]string) bool {
	for field, pred := range s {
		if !pred.Matches(metadata[field]) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy; predicates are immutable so sharing is safe.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
