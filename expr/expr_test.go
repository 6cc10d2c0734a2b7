package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEntity is a minimal AttrGetter used to exercise attribute access
// without depending on the graph package (expr must not import graph).
type stubEntity struct {
	attrs map[string]interface{}
}

func newStub(kv ...interface{}) *stubEntity {
	s := &stubEntity{attrs: make(map[string]interface{})}
	for i := 0; i+1 < len(kv); i += 2 {
		s.attrs[kv[i].(string)] = kv[i+1]
	}
	return s
}

func (s *stubEntity) GetAttr(name string) (interface{}, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

func TestComputationVsConstraintDispatch(t *testing.T) {
	oc, _, err := InitializeFromStrings(
		[]string{"v = a.x + b.y"},
		[]CandidateKind{CandidateComputation, CandidateConstraint},
		0,
	)
	require.NoError(t, err)
	expr, ok := oc.Get("v")
	require.True(t, ok, "expected declared variable v")
	assert.IsType(t, &Computation{}, expr)

	oc2, _, err := InitializeFromStrings(
		[]string{"a.x + b.y < 4"},
		[]CandidateKind{CandidateComputation, CandidateConstraint},
		0,
	)
	require.NoError(t, err)
	expr2, ok := oc2.Get("_0")
	require.True(t, ok, "expected synthetic name _0")
	assert.IsType(t, &Constraint{}, expr2)

	bindings := map[string]interface{}{
		"a": newStub("x", int64(1)),
		"b": newStub("y", int64(2)),
	}
	result, err := expr.Execute(bindings, nil)
	require.NoError(t, err)
	m := result.(map[string]interface{})
	assert.Equal(t, int64(3), m["v"])

	cResult, err := expr2.Execute(bindings, nil)
	require.NoError(t, err)
	assert.Equal(t, true, cResult)
}

func TestBooleanBuiltinsTruthTable(t *testing.T) {
	type row struct {
		a, b                                        bool
		any, invAny, all, onlyOneTrue, onlyOneFalse bool
	}
	rows := []row{
		{false, false, false, true, false, false, false},
		{false, true, true, false, false, true, true},
		{true, false, true, false, false, true, true},
		{true, true, true, false, true, false, false},
	}

	for _, r := range rows {
		bindings := map[string]interface{}{
			"z1": newStub("a", r.a, "b", r.a),
			"z2": newStub("a", r.b, "b", r.b),
		}
		check := func(line string, want bool) {
			t.Helper()
			oc, _, err := InitializeFromStrings([]string{line}, []CandidateKind{CandidateConstraint}, 0)
			require.NoErrorf(t, err, "parse %q", line)
			e, _ := oc.Get("_0")
			got, err := e.Execute(bindings, nil)
			require.NoErrorf(t, err, "eval %q", line)
			assert.Equalf(t, want, got, "%q with z1.a=%v z2.a=%v", line, r.a, r.b)
		}
		check("any(z1.a, z2.a)", r.any)
		check("inv(any(z1.a, z2.a))", r.invAny)
		check("all(z1.a, z2.a)", r.all)
		check("only_one_true(z1.a, z2.a)", r.onlyOneTrue)
		check("only_one_false(z1.a, z2.a)", r.onlyOneFalse)
	}
}

func TestListBuiltins(t *testing.T) {
	x := newStub(
		"i", int64(10),
		"j", int64(20),
		"k", int64(30),
		"y", []interface{}{newStub(), newStub()},
	)
	bindings := map[string]interface{}{"x": x}

	cases := []struct {
		line string
		want interface{}
	}{
		{"v = max(x.i, x.j, x.k)", int64(30)},
		{"v = min(x.i, x.j, x.k)", int64(10)},
		{"v = sum(x.i, x.j, x.k)", int64(60)},
		{"v = len(x.y)", int64(2)},
	}
	for _, c := range cases {
		oc, _, err := InitializeFromStrings([]string{c.line}, []CandidateKind{CandidateComputation}, 0)
		require.NoErrorf(t, err, "parse %q", c.line)
		e, _ := oc.Get("v")
		got, err := e.Execute(bindings, nil)
		require.NoErrorf(t, err, "eval %q", c.line)
		assert.Equalf(t, c.want, got.(map[string]interface{})["v"], "%q", c.line)
	}
}

func TestDependencyCollector(t *testing.T) {
	oc, _, err := InitializeFromStrings([]string{"v = a.x + b.y"}, []CandidateKind{CandidateComputation}, 0)
	require.NoError(t, err)
	e, _ := oc.Get("v")
	deps := Collect(e)
	assert.Equal(t, "v", deps.DeclaredVariable)
	assert.True(t, deps.Variables["a"] && deps.Variables["b"], "expected variables a and b, got %v", deps.Variables)
	assert.True(t, deps.AttributeCalls["a"]["x"] && deps.AttributeCalls["b"]["y"],
		"expected attribute calls a.x and b.y, got %v", deps.AttributeCalls)
}

func TestUnparsableLineFails(t *testing.T) {
	_, _, err := InitializeFromStrings([]string{"this is not @@ valid"}, []CandidateKind{CandidateConstraint, CandidateComputation}, 0)
	assert.Error(t, err, "expected a ParseExpressionError for an unparsable line")
}
