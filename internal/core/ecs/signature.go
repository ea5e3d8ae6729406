package ecs

import "math/bits"

// Signature is a 64-bit bitset naming a set of component types, bit k set iff
// ComponentType(k) is present (spec.md §3/§4.2). Signatures compare by raw
// bit pattern and are small enough to pass and key maps by value.
type Signature uint64

// NewSignature builds a Signature from a list of component types.
func NewSignature(types ...ComponentType) Signature {
	var s Signature
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// With returns a copy of s with t's bit set.
func (s Signature) With(t ComponentType) Signature {
	return s | (1 << uint(t))
}

// Without returns a copy of s with t's bit cleared.
func (s Signature) Without(t ComponentType) Signature {
	return s &^ (1 << uint(t))
}

// Has reports whether t's bit is set in s.
func (s Signature) Has(t ComponentType) bool {
	return s&(1<<uint(t)) != 0
}

// Union returns s | other.
func (s Signature) Union(other Signature) Signature { return s | other }

// Intersect returns s & other.
func (s Signature) Intersect(other Signature) Signature { return s & other }

// Difference returns the types in s that are not in other.
func (s Signature) Difference(other Signature) Signature { return s &^ other }

// IsSubsetOf reports whether every bit of s is also set in other.
func (s Signature) IsSubsetOf(other Signature) bool { return s&other == s }

// Intersects reports whether s and other share any set bit.
func (s Signature) Intersects(other Signature) bool { return s&other != 0 }

// Len returns the population count (number of component types named).
func (s Signature) Len() int { return bits.OnesCount64(uint64(s)) }

// Matches implements the Query engine's include/exclude/optional test
// (spec.md §4.6 step 1): include ⊆ s ∧ exclude ∩ s = ∅.
func (s Signature) Matches(include, exclude Signature) bool {
	return include.IsSubsetOf(s) && !exclude.Intersects(s)
}

// ForEach calls fn once for each ComponentType set in s, in ascending bit
// order, stopping early if fn returns false.
func (s Signature) ForEach(fn func(ComponentType) bool) {
	for s != 0 {
		idx := bits.TrailingZeros64(uint64(s))
		if !fn(ComponentType(idx)) {
			return
		}
		s &= s - 1 // clear lowest set bit
	}
}

// Types returns the set component types in ascending order. Prefer ForEach
// in hot paths to avoid the allocation.
func (s Signature) Types() []ComponentType {
	out := make([]ComponentType, 0, s.Len())
	s.ForEach(func(t ComponentType) bool {
		out = append(out, t)
		return true
	})
	return out
}

// DebugNames renders the set bits using the registry's stored component
// names, e.g. "[Transform,Physics]". Pure debug aid; no invariant depends on
// it (SPEC_FULL.md §3 supplement).
func (s Signature) DebugNames(r *ComponentTypeRegistry) string {
	out := "["
	first := true
	s.ForEach(func(t ComponentType) bool {
		if !first {
			out += ","
		}
		first = false
		name := r.Name(t)
		if name == "" {
			name = "?"
		}
		out += name
		return true
	})
	return out + "]"
}
