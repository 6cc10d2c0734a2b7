package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-rete/graph"
	"github.com/wbrown/janus-rete/idgen"
)

func buildXY(t *testing.T, xAttrs, yAttrs map[string]interface{}) *graph.GraphContainer {
	t.Helper()
	gen := idgen.NewGenerator(1)
	x := graph.NewEntity("X", "x", gen)
	y := graph.NewEntity("Y", "y", gen)
	for k, v := range xAttrs {
		x.SetAttr(k, v)
	}
	for k, v := range yAttrs {
		y.SetAttr(k, v)
	}
	x.DeclareRelation(graph.RelationDescriptor{Name: "y", RelatedName: "x", Multiplicity: graph.OneToOne})
	require.NoError(t, x.Link("y", y))
	gc, err := graph.NewGraphContainer(x)
	require.NoError(t, err)
	return gc
}

func TestSyntheticConstraintsFromAttributes(t *testing.T) {
	gc := buildXY(t, map[string]interface{}{"i": int64(10)}, nil)
	p, err := Build(FromGraph(gc), nil, "")
	require.NoError(t, err)
	names := p.Constraints.Names()
	require.Len(t, names, 1, "expected a single synthetic constraint")
	assert.Equal(t, "_0", names[0])

	e, _ := p.Constraints.Get("_0")
	assert.Contains(t, e.String(), "x.i == 10")

	assert.Equal(t, "X", p.Namespace["x"].Class)
	assert.Equal(t, "Y", p.Namespace["y"].Class)
}

func TestBuildRejectsUndeclaredVariableReference(t *testing.T) {
	gc := buildXY(t, nil, nil)
	_, err := Build(FromGraph(gc), nil, "x.i == z.i")
	require.Error(t, err, "expected an error for a reference to undeclared variable z")
	assert.Contains(t, err.Error(), "undeclared variable")
}

func TestBuildRejectsHelperNameShadowingEntityVar(t *testing.T) {
	gc := buildXY(t, nil, nil)
	helperGC := buildXY(t, nil, nil)
	helper, err := Build(FromGraph(helperGC), nil, "")
	require.NoError(t, err)

	_, err = Build(FromGraph(gc), map[string]*Pattern{"x": helper}, "")
	assert.Error(t, err, "expected an error when a helper name shadows an entity variable")
}

func TestBuildRejectsCyclicComputation(t *testing.T) {
	gc := buildXY(t, nil, nil)
	_, err := Build(FromGraph(gc), nil, "a = b + 1\nb = a + 1")
	require.Error(t, err, "expected an error for a cyclic computation dependency")
	assert.Contains(t, err.Error(), "cyclic")
}

func TestHelperContainsQuery(t *testing.T) {
	helperGC := buildXY(t, nil, nil)
	helper, err := Build(FromGraph(helperGC), nil, "")
	require.NoError(t, err)

	gc := buildXY(t, nil, nil)
	p, err := Build(FromGraph(gc), map[string]*Pattern{"helper": helper}, "helper.contains(x=x)")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Constraints.Len())

	xEntity, _ := gc.Get("x")
	ok, err := helper.Contains(map[string]string{"x": "q"}, map[string]interface{}{"q": xEntity})
	require.NoError(t, err)
	assert.True(t, ok, "expected helper.Contains to report true for an X entity whose id is in its own graph")

	outsider := graph.NewEntity("X", "nope", idgen.NewGenerator(2))
	ok, err = helper.Contains(map[string]string{"x": "q"}, map[string]interface{}{"q": outsider})
	require.NoError(t, err)
	assert.False(t, ok, "expected helper.Contains to report false for an entity outside its own graph")
}
