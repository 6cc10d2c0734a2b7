package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-rete/expr"
	"github.com/wbrown/janus-rete/graph"
	"github.com/wbrown/janus-rete/idgen"
)

func buildZZ(t *testing.T) *graph.GraphContainer {
	t.Helper()
	gen := idgen.NewGenerator(1)
	z1 := graph.NewEntity("Z", "z1", gen)
	z2 := graph.NewEntity("Z", "z2", gen)
	z1.DeclareRelation(graph.RelationDescriptor{Name: "z", RelatedName: "z", Multiplicity: graph.OneToOne})
	z2.DeclareRelation(graph.RelationDescriptor{Name: "z", RelatedName: "z", Multiplicity: graph.OneToOne})
	require.NoError(t, z1.Link("z", z2))
	gc, err := graph.NewGraphContainer(z1)
	require.NoError(t, err)
	return gc
}

func parseConstraints(t *testing.T, lines ...string) []expr.Expression {
	t.Helper()
	oc, _, err := expr.InitializeFromStrings(lines, []expr.CandidateKind{expr.CandidateConstraint}, 0)
	require.NoError(t, err)
	var out []expr.Expression
	for _, name := range oc.Names() {
		e, _ := oc.Get(name)
		out = append(out, e)
	}
	return out
}

func TestLabelProducesZ1Z2Orbit(t *testing.T) {
	gc := buildZZ(t)
	cf, err := Label(gc)
	require.NoError(t, err)
	require.Len(t, cf.Partition, 1, "expected a single orbit, got %v", cf.Partition)
	assert.Len(t, cf.Partition[0], 2)
}

func TestRefineByConstraintsPreserving(t *testing.T) {
	gc := buildZZ(t)
	cf, err := Label(gc)
	require.NoError(t, err)
	constraints := parseConstraints(t, "any(z1.a, z2.a)", "all(z1.b, z2.b)")
	partition, leaders := RefineByConstraints(cf.Partition, constraints)

	require.Len(t, partition, 1, "expected symmetry preserved, got %v", partition)
	assert.Len(t, partition[0], 2)
	require.Len(t, leaders, 1, "expected leaders to equal the preserved orbit, got %v", leaders)
	assert.Len(t, leaders[0], 2)
}

func TestRefineByConstraintsBreaking(t *testing.T) {
	gc := buildZZ(t)
	cf, err := Label(gc)
	require.NoError(t, err)
	constraints := parseConstraints(t, "any(z1.a, z1.b, z2.a)")
	partition, leaders := RefineByConstraints(cf.Partition, constraints)

	require.Len(t, partition, 2, "expected symmetry broken into singletons, got %v", partition)
	assert.Len(t, partition[0], 1)
	assert.Len(t, partition[1], 1)
	assert.Empty(t, leaders, "expected no leaders once symmetry is broken")
}

func TestHelperDrivenSymmetry(t *testing.T) {
	gc := buildZZ(t)
	cf, err := Label(gc)
	require.NoError(t, err)

	preserving := parseConstraints(t, "helper.contains(var=z1) && helper.contains(var=z2)")
	partition, _ := RefineByConstraints(cf.Partition, preserving)
	require.Len(t, partition, 1, "expected helper applied identically to preserve orbit, got %v", partition)
	assert.Len(t, partition[0], 2)

	breaking := parseConstraints(t, "helper.contains(var=z1)")
	partition2, _ := RefineByConstraints(cf.Partition, breaking)
	assert.Len(t, partition2, 2, "expected helper applied to only one member to break orbit")
}
