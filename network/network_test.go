package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-rete/graph"
	"github.com/wbrown/janus-rete/idgen"
	"github.com/wbrown/janus-rete/pattern"
)

// singleX builds a one-entity graph of class "X", optionally carrying a
// literal "i" attribute, for patterns that don't need a relation.
func singleX(t *testing.T, id string, i interface{}) *graph.GraphContainer {
	t.Helper()
	x := graph.NewEntity("X", id, idgen.NewGenerator(1))
	if i != nil {
		x.SetAttr("i", i)
	}
	gc, err := graph.NewGraphContainer(x)
	require.NoError(t, err)
	return gc
}

func buildPattern(t *testing.T, gc *graph.GraphContainer, constraintText string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Build(pattern.FromGraph(gc), nil, constraintText)
	require.NoError(t, err, "pattern.Build")
	return p
}

func TestPrefixSharingAcrossIdenticalAttributeConstraints(t *testing.T) {
	p1 := buildPattern(t, singleX(t, "x", int64(10)), "")
	p2 := buildPattern(t, singleX(t, "x", int64(10)), "")
	p3 := buildPattern(t, singleX(t, "x", int64(20)), "")

	b := NewBuilder()
	require.NoError(t, b.AddPattern("p1", p1))
	beforeP2 := len(b.Nodes())
	require.NoError(t, b.AddPattern("p2", p2))
	afterP2 := len(b.Nodes())

	// p2 has the exact same checkTYPE->checkATTR->store chain as p1, so it
	// should add only its own alias + terminal store, not new type/attr/
	// store nodes.
	assert.Equal(t, 2, afterP2-beforeP2, "expected p2 to add exactly 2 nodes (alias, terminal) by sharing p1's chain")

	beforeP3 := len(b.Nodes())
	require.NoError(t, b.AddPattern("p3", p3))
	afterP3 := len(b.Nodes())

	// p3 shares checkTYPE(X) but needs its own checkATTR (different literal),
	// its own store, alias and terminal: 4 new nodes.
	assert.Equal(t, 4, afterP3-beforeP3, "expected p3 to add exactly 4 new nodes while sharing checkTYPE")

	var typeCount int
	for _, n := range b.Nodes() {
		if n.Description == "checkTYPE(X)" {
			typeCount++
		}
	}
	assert.Equal(t, 1, typeCount, "expected exactly one checkTYPE(X) node shared across all three patterns")
}

func TestAddPatternRejectsDuplicateID(t *testing.T) {
	p := buildPattern(t, singleX(t, "x", nil), "")
	b := NewBuilder()
	require.NoError(t, b.AddPattern("p", p))
	err := b.AddPattern("p", p)
	assert.Error(t, err, "expected an error when adding a duplicate pattern id")
}

func TestAddPatternRejectsReferenceToUnaddedHelper(t *testing.T) {
	helperGC := singleX(t, "x", nil)
	helper, err := pattern.Build(pattern.FromGraph(helperGC), nil, "")
	require.NoError(t, err, "pattern.Build helper")

	gc := singleX(t, "x", nil)
	p, err := pattern.Build(pattern.FromGraph(gc), map[string]*pattern.Pattern{"helper": helper}, "helper.contains(x=x)")
	require.NoError(t, err, "pattern.Build main")

	b := NewBuilder()
	err = b.AddPattern("main", p)
	assert.Error(t, err, "expected an error when the referenced helper has not been added to the network yet")

	require.NoError(t, b.AddPattern("helper", helper))
	assert.NoError(t, b.AddPattern("main", p), "expected AddPattern to succeed once helper is registered")
}

func TestTokenPropagationFiltersByTypeAndAttr(t *testing.T) {
	p := buildPattern(t, singleX(t, "x", int64(10)), "")
	b := NewBuilder()
	require.NoError(t, b.AddPattern("p", p))
	terminal, ok := b.Terminal("p")
	require.True(t, ok, "expected a terminal store for pattern p")

	matching := graph.NewEntity("X", "x", idgen.NewGenerator(2))
	matching.SetAttr("i", int64(10))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: matching})
	assert.Len(t, terminal.Tokens(), 1, "expected 1 token in the terminal store after a matching entity")

	wrongAttr := graph.NewEntity("X", "x2", idgen.NewGenerator(3))
	wrongAttr.SetAttr("i", int64(99))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: wrongAttr})
	assert.Len(t, terminal.Tokens(), 1, "expected the non-matching entity to be filtered out")

	wrongClass := graph.NewEntity("Y", "y", idgen.NewGenerator(4))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: wrongClass})
	assert.Len(t, terminal.Tokens(), 1, "expected the wrong-class entity to be filtered out")
}

func TestNegatedHelperReferenceExcludesMatchesAPositiveReferenceWouldAccept(t *testing.T) {
	helper := buildPattern(t, singleX(t, "x", int64(10)), "")

	gc := singleX(t, "x", nil)
	p, err := pattern.Build(pattern.FromGraph(gc), map[string]*pattern.Pattern{"helper": helper}, "!helper.contains(x=x)")
	require.NoError(t, err, "pattern.Build main")

	b := NewBuilder()
	require.NoError(t, b.AddPattern("helper", helper))
	require.NoError(t, b.AddPattern("main", p))
	terminal, ok := b.Terminal("main")
	require.True(t, ok, "expected a terminal store for pattern main")

	inHelper := graph.NewEntity("X", "x1", idgen.NewGenerator(6))
	inHelper.SetAttr("i", int64(10))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: inHelper})
	assert.Empty(t, terminal.Tokens(), "expected an entity the helper also matches to be excluded by negation")

	notInHelper := graph.NewEntity("X", "x2", idgen.NewGenerator(7))
	notInHelper.SetAttr("i", int64(20))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: notInHelper})
	assert.Len(t, terminal.Tokens(), 1, "expected an entity the helper does not match to pass the negation")
}

func TestTokenRemovalRetractsFromStore(t *testing.T) {
	p := buildPattern(t, singleX(t, "x", nil), "")
	b := NewBuilder()
	require.NoError(t, b.AddPattern("p", p))
	terminal, _ := b.Terminal("p")

	e := graph.NewEntity("X", "x", idgen.NewGenerator(5))
	b.Propagate(Token{Tag: TokenAdd, Species: NodeToken, Var: "x", Entity: e})
	assert.Len(t, terminal.Tokens(), 1, "expected 1 token after add")

	b.Propagate(Token{Tag: TokenRemove, Species: NodeToken, Var: "x", Entity: e})
	assert.Empty(t, terminal.Tokens(), "expected 0 tokens after matching remove")
}
