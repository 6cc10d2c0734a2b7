// Package slicer implements the boolean Slicer of spec.md §4.1: a set
// encoded as a map-plus-default, with DeMorgan-correct logical algebra.
package slicer

import "fmt"

// SlicerError is raised when Union or Intersection are given Slicers
// whose defaults disagree (spec.md §4.1).
type SlicerError struct {
	Op string
}

func (e *SlicerError) Error() string {
	return fmt.Sprintf("slicer: %s requires matching defaults", e.Op)
}

// Slicer is a map from key to boolean plus a default value. Lookup
// returns the stored value if present, else Default. A positive Slicer
// (Default=false) encodes a finite set; a negative Slicer (Default=true)
// encodes the complement of a finite set.
type Slicer struct {
	Default bool
	stored  map[string]bool
}

// New creates an empty Slicer with the given default.
func New(def bool) *Slicer {
	return &Slicer{Default: def, stored: make(map[string]bool)}
}

// Get returns the slicer's value for key.
func (s *Slicer) Get(key string) bool {
	if v, ok := s.stored[key]; ok {
		return v
	}
	return s.Default
}

// Keys returns the stored (non-default) keys, in no particular order.
func (s *Slicer) Keys() []string {
	out := make([]string, 0, len(s.stored))
	for k := range s.stored {
		out = append(out, k)
	}
	return out
}

// Update sets values for the given keys. A key whose value equals the
// slicer's default is removed from storage (since Get would already
// return it); a key whose value differs from default is stored, per
// spec.md §4.1.
func (s *Slicer) Update(values map[string]bool) {
	for k, v := range values {
		if v == s.Default {
			delete(s.stored, k)
		} else {
			s.stored[k] = v
		}
	}
}

// clone returns a shallow copy of s.
func (s *Slicer) clone() *Slicer {
	out := New(s.Default)
	for k, v := range s.stored {
		out.stored[k] = v
	}
	return out
}

// allKeys returns the union of two slicers' stored keys.
func allKeys(a, b *Slicer) map[string]struct{} {
	keys := make(map[string]struct{}, len(a.stored)+len(b.stored))
	for k := range a.stored {
		keys[k] = struct{}{}
	}
	for k := range b.stored {
		keys[k] = struct{}{}
	}
	return keys
}

// And returns the logical AND of two slicers (DeMorgan-correct for any
// combination of defaults).
func And(a, b *Slicer) *Slicer {
	def := a.Default && b.Default
	out := New(def)
	for k := range allKeys(a, b) {
		v := a.Get(k) && b.Get(k)
		if v != def {
			out.stored[k] = v
		}
	}
	return out
}

// Or returns the logical OR of two slicers.
func Or(a, b *Slicer) *Slicer {
	def := a.Default || b.Default
	out := New(def)
	for k := range allKeys(a, b) {
		v := a.Get(k) || b.Get(k)
		if v != def {
			out.stored[k] = v
		}
	}
	return out
}

// Not returns the logical negation of a slicer: same stored keys,
// flipped values, flipped default. This is the cheapest representation
// since it never grows the stored set.
func Not(a *Slicer) *Slicer {
	out := New(!a.Default)
	for k, v := range a.stored {
		out.stored[k] = !v
	}
	return out
}

// Union merges two slicers of matching default, returning a Slicer whose
// stored set is the union of the operands' stored sets (their "true"
// entries relative to the shared default's positive interpretation).
// Fails with SlicerError if defaults disagree.
func Union(a, b *Slicer) (*Slicer, error) {
	if a.Default != b.Default {
		return nil, &SlicerError{Op: "union"}
	}
	out := a.clone()
	for k, v := range b.stored {
		out.stored[k] = v
	}
	return out, nil
}

// Intersection returns the intersection of two slicers of matching
// default: each key's value is the AND of both operands' lookups, stored
// only where it differs from the shared default. Fails with SlicerError
// if defaults disagree.
func Intersection(a, b *Slicer) (*Slicer, error) {
	if a.Default != b.Default {
		return nil, &SlicerError{Op: "intersection"}
	}
	out := New(a.Default)
	for k := range allKeys(a, b) {
		v := a.Get(k) && b.Get(k)
		if v != out.Default {
			out.stored[k] = v
		}
	}
	return out, nil
}
