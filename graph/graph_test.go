package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-rete/idgen"
)

func declareXY(x, y *Entity) {
	x.DeclareRelation(RelationDescriptor{Name: "y", RelatedName: "x", Multiplicity: OneToMany})
	y.DeclareRelation(RelationDescriptor{Name: "x", RelatedName: "y", Multiplicity: ManyToOne})
}

func TestConnectedBuildsSingleComponent(t *testing.T) {
	gen := idgen.NewGenerator(1)
	x := NewEntity("X", "x", gen)
	y1 := NewEntity("Y", "y1", gen)
	y2 := NewEntity("Y", "y2", gen)
	declareXY(x, y1)
	declareXY(x, y2)
	require.NoError(t, x.Link("y", y1))
	require.NoError(t, x.Link("y", y2))

	gc, err := NewGraphContainer(x)
	require.NoError(t, err)
	assert.Equal(t, 3, gc.Len())

	// inverse side populated automatically
	require.Len(t, y1.Related("x"), 1)
	assert.Equal(t, "x", y1.Related("x")[0].ID)
}

func TestDuplicateIDsFail(t *testing.T) {
	gen := idgen.NewGenerator(1)
	x := NewEntity("X", "dup", gen)
	y := NewEntity("Y", "dup", gen) // deliberately colliding id
	declareXY(x, y)
	require.NoError(t, x.Link("y", y))

	_, err := NewGraphContainer(x)
	assert.Error(t, err, "expected an error for colliding entity ids")
}

func TestOneToOneReplacesPriorLink(t *testing.T) {
	gen := idgen.NewGenerator(1)
	a := NewEntity("A", "a", gen)
	b1 := NewEntity("B", "b1", gen)
	b2 := NewEntity("B", "b2", gen)
	a.DeclareRelation(RelationDescriptor{Name: "b", RelatedName: "a", Multiplicity: OneToOne})
	b1.DeclareRelation(RelationDescriptor{Name: "a", RelatedName: "b", Multiplicity: OneToOne})
	b2.DeclareRelation(RelationDescriptor{Name: "a", RelatedName: "b", Multiplicity: OneToOne})

	require.NoError(t, a.Link("b", b1))
	require.NoError(t, a.Link("b", b2))

	require.Len(t, a.Related("b"), 1, "expected a.b to be replaced by b2")
	assert.Equal(t, "b2", a.Related("b")[0].ID)
	assert.Empty(t, b1.Related("a"), "expected b1's inverse link cleared")
}

func TestStripAttrsReturnsSideTable(t *testing.T) {
	gen := idgen.NewGenerator(1)
	x := NewEntity("X", "x", gen)
	x.SetAttr("i", 10)

	gc, err := NewGraphContainer(x)
	require.NoError(t, err)
	side := gc.StripAttrs()
	assert.Equal(t, 10, side["x"]["i"])

	_, ok := x.Attr("i")
	assert.False(t, ok, "expected attribute to be removed from entity after strip")
}

func TestDuplicateRemapsIDs(t *testing.T) {
	gen := idgen.NewGenerator(1)
	x := NewEntity("X", "x", gen)
	y := NewEntity("Y", "y", gen)
	declareXY(x, y)
	require.NoError(t, x.Link("y", y))
	gc, err := NewGraphContainer(x)
	require.NoError(t, err)

	dup, err := gc.Duplicate(map[string]string{"x": "x2"}, gen)
	require.NoError(t, err)
	_, ok := dup.Get("x2")
	assert.True(t, ok, "expected remapped id x2 in duplicate")
	assert.Equal(t, 2, dup.Len())
}
