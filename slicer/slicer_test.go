package slicer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicGetDefault(t *testing.T) {
	s := New(false)
	s.Update(map[string]bool{"a": true, "b": false})
	assert.True(t, s.Get("a"))
	assert.False(t, s.Get("b"), "equal to default, should not be stored")
	assert.False(t, s.Get("c"), "missing key should return default false")
	assert.Len(t, s.Keys(), 1)
}

func TestUnionIntersectionDefaultMismatch(t *testing.T) {
	pos := New(false)
	neg := New(true)
	_, err := Union(pos, neg)
	assert.Error(t, err, "expected SlicerError for mismatched defaults in Union")
	_, err = Intersection(pos, neg)
	assert.Error(t, err, "expected SlicerError for mismatched defaults in Intersection")
}

func randomSlicer(r *rand.Rand, def bool, keys []string) *Slicer {
	s := New(def)
	upd := make(map[string]bool, len(keys))
	for _, k := range keys {
		upd[k] = r.Intn(2) == 0
	}
	s.Update(upd)
	return s
}

func TestDeMorgan(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	keys := []string{"k0", "k1", "k2", "k3", "k4", "k5"}

	for trial := 0; trial < 50; trial++ {
		def := r.Intn(2) == 0
		a := randomSlicer(r, def, keys)
		b := randomSlicer(r, def, keys)

		notAandB := Not(And(a, b))
		notAorNotB := Or(Not(a), Not(b))
		for _, k := range keys {
			require.Equal(t, notAorNotB.Get(k), notAandB.Get(k), "De Morgan (AND) failed at key %s", k)
		}

		notAorB := Not(Or(a, b))
		notAandNotB := And(Not(a), Not(b))
		for _, k := range keys {
			require.Equal(t, notAandNotB.Get(k), notAorB.Get(k), "De Morgan (OR) failed at key %s", k)
		}
	}
}
