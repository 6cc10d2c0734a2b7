// Package indexer implements the value-indexed Indexer of spec.md §4.2:
// a map from key to value with a maintained reverse value cache and a
// change log of keys touched since the last flush.
package indexer

import (
	"fmt"

	"github.com/wbrown/janus-rete/slicer"
)

// IndexerError is raised by a type-guarded Indexer (e.g. BooleanIndexer)
// when Update is given a value of the wrong primitive type.
type IndexerError struct {
	Key   string
	Value interface{}
}

func (e *IndexerError) Error() string {
	return fmt.Sprintf("indexer: value %v for key %q has the wrong type", e.Value, e.Key)
}

// Indexer maps keys to arbitrary values, maintaining a reverse value
// cache (value -> positive Slicer of keys holding it) and a set of keys
// changed since the last Flush, per spec.md §4.2's contract.
type Indexer struct {
	forward     map[string]interface{}
	valueCache  map[interface{}]*slicer.Slicer
	lastUpdated map[string]bool

	// guard, if non-nil, validates a value before it is stored; used by
	// BooleanIndexer and similar type-guarded variants.
	guard func(interface{}) error
}

// New creates an empty, unguarded Indexer.
func New() *Indexer {
	return &Indexer{
		forward:     make(map[string]interface{}),
		valueCache:  make(map[interface{}]*slicer.Slicer),
		lastUpdated: make(map[string]bool),
	}
}

// NewGuarded creates an Indexer that rejects values failing guard.
func NewGuarded(guard func(interface{}) error) *Indexer {
	ix := New()
	ix.guard = guard
	return ix
}

// NewBooleanIndexer creates an Indexer that only accepts bool values,
// raising IndexerError otherwise, per spec.md §4.2's BooleanIndexer.
func NewBooleanIndexer() *Indexer {
	return NewGuarded(func(v interface{}) error {
		if _, ok := v.(bool); !ok {
			return &IndexerError{Value: v}
		}
		return nil
	})
}

func (ix *Indexer) cacheSlicerFor(value interface{}) *slicer.Slicer {
	s, ok := ix.valueCache[value]
	if !ok {
		s = slicer.New(false)
		ix.valueCache[value] = s
	}
	return s
}

// removeFromCache removes key from the cache slicer of its current
// value, discarding the empty slicer entry if it becomes unused.
func (ix *Indexer) removeFromCache(key string, value interface{}) {
	s, ok := ix.valueCache[value]
	if !ok {
		return
	}
	s.Update(map[string]bool{key: false})
	if len(s.Keys()) == 0 {
		delete(ix.valueCache, value)
	}
}

// Update sets key's value, maintaining the reverse cache and recording
// key in lastUpdated. Fails with IndexerError if the Indexer is guarded
// and value fails the guard.
func (ix *Indexer) Update(key string, value interface{}) error {
	if ix.guard != nil {
		if err := ix.guard(value); err != nil {
			if ie, ok := err.(*IndexerError); ok {
				ie.Key = key
			}
			return err
		}
	}
	if old, existed := ix.forward[key]; existed {
		if old == value {
			return nil
		}
		ix.removeFromCache(key, old)
	}
	ix.forward[key] = value
	ix.cacheSlicerFor(value).Update(map[string]bool{key: true})
	ix.lastUpdated[key] = true
	return nil
}

// Remove deletes key from the index entirely.
func (ix *Indexer) Remove(key string) {
	old, existed := ix.forward[key]
	if !existed {
		return
	}
	ix.removeFromCache(key, old)
	delete(ix.forward, key)
	ix.lastUpdated[key] = true
}

// Get returns key's value and whether it is present.
func (ix *Indexer) Get(key string) (interface{}, bool) {
	v, ok := ix.forward[key]
	return v, ok
}

// KeysWithValue returns the Slicer of keys currently mapped to value.
func (ix *Indexer) KeysWithValue(value interface{}) *slicer.Slicer {
	if s, ok := ix.valueCache[value]; ok {
		return s
	}
	return slicer.New(false)
}

// LastUpdated returns the set of keys changed since the last Flush.
func (ix *Indexer) LastUpdated() map[string]bool {
	out := make(map[string]bool, len(ix.lastUpdated))
	for k := range ix.lastUpdated {
		out[k] = true
	}
	return out
}

// Flush clears LastUpdated only, per spec.md §4.2.
func (ix *Indexer) Flush() {
	ix.lastUpdated = make(map[string]bool)
}
