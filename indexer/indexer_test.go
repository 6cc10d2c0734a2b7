package indexer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushClearsOnlyLastUpdated(t *testing.T) {
	ix := New()
	_ = ix.Update("a", 1)
	_ = ix.Update("b", 2)
	assert.Len(t, ix.LastUpdated(), 2)
	ix.Flush()
	assert.Empty(t, ix.LastUpdated(), "expected LastUpdated cleared after Flush")

	v, ok := ix.Get("a")
	require.True(t, ok, "expected forward map to survive Flush")
	assert.Equal(t, 1, v)
}

func TestBooleanIndexerRejectsNonBool(t *testing.T) {
	ix := NewBooleanIndexer()
	assert.NoError(t, ix.Update("x", true))

	err := ix.Update("y", 5)
	assert.Error(t, err, "expected IndexerError for non-bool value")

	_, ok := ix.Get("y")
	assert.False(t, ok, "rejected update should not have been stored")
}

func TestCoherenceUnderRandomUpdates(t *testing.T) {
	ix := New()
	r := rand.New(rand.NewSource(7))
	values := []interface{}{"red", "green", "blue"}
	keys := []string{"k0", "k1", "k2", "k3", "k4"}

	changedSinceFlush := map[string]bool{}
	for step := 0; step < 200; step++ {
		k := keys[r.Intn(len(keys))]
		if r.Intn(5) == 0 {
			ix.Remove(k)
		} else {
			v := values[r.Intn(len(values))]
			_ = ix.Update(k, v)
		}
		changedSinceFlush[k] = true

		if step%37 == 0 {
			assertCoherent(t, ix, keys, values)
			ix.Flush()
			changedSinceFlush = map[string]bool{}
		}
	}
	assertCoherent(t, ix, keys, values)

	lu := ix.LastUpdated()
	assert.Len(t, lu, len(changedSinceFlush))
	for k := range changedSinceFlush {
		assert.True(t, lu[k], "expected %s present in LastUpdated", k)
	}
}

func assertCoherent(t *testing.T, ix *Indexer, keys []string, values []interface{}) {
	t.Helper()
	for _, v := range values {
		expected := map[string]bool{}
		for _, k := range keys {
			if stored, ok := ix.Get(k); ok && stored == v {
				expected[k] = true
			}
		}
		s := ix.KeysWithValue(v)
		for _, k := range keys {
			require.Equal(t, expected[k], s.Get(k), "value cache incoherent for value=%v key=%s", v, k)
		}
	}
}
