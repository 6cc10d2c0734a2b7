package canon

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-rete/expr"
)

// variableSignature captures, per constraint (in order), whether a
// variable is referenced, which attributes were read through it, and
// which contains()-call keyword names bound it. Two variables with an
// identical signature sequence are interchangeable with respect to the
// constraint set, per spec.md §4.5.
type variableSignature []constraintTouch

type constraintTouch struct {
	referenced bool
	attrs      string // sorted, comma-joined attribute names
	containsKw string // sorted, comma-joined contains() keyword names
}

// buildSignatures records, for every variable in universe, one
// constraintTouch per dependency in deps (in order) — including rounds
// where the variable is untouched — so that signature sequences for two
// variables are directly comparable regardless of which constraints
// happen to mention either of them.
func buildSignatures(universe []string, deps []*expr.Dependencies) map[string]variableSignature {
	sigs := make(map[string]variableSignature, len(universe))
	for _, v := range universe {
		sigs[v] = make(variableSignature, 0, len(deps))
	}

	for _, d := range deps {
		containsKwByVar := map[string][]string{}
		for _, fc := range d.FunctionCalls {
			if len(fc.Head) == 0 || fc.Head[len(fc.Head)-1] != "contains" {
				continue
			}
			for kw, v := range fc.KwToVar {
				containsKwByVar[v] = append(containsKwByVar[v], kw)
			}
		}

		for _, v := range universe {
			referenced := d.Variables[v]
			var attrs []string
			if m, ok := d.AttributeCalls[v]; ok {
				for a := range m {
					attrs = append(attrs, a)
				}
				sort.Strings(attrs)
			}
			kws := containsKwByVar[v]
			sort.Strings(kws)
			sigs[v] = append(sigs[v], constraintTouch{
				referenced: referenced,
				attrs:      join(attrs),
				containsKw: join(kws),
			})
		}
	}
	return sigs
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func sigsEqual(a, b variableSignature) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RefineByConstraints implements spec.md §4.5: it refines a seed
// partition using the dependencies of an ordered constraint set. A
// constraint is symmetry-preserving for an orbit iff every member has
// an identical per-constraint touch signature; otherwise the orbit is
// split into singletons.
//
// constraints must be supplied in the same order as the pattern's
// OrderedConstraints so that signature sequences line up positionally.
func RefineByConstraints(seed [][]string, constraints []expr.Expression) (partition [][]string, leaders [][]string) {
	deps := make([]*expr.Dependencies, len(constraints))
	for i, c := range constraints {
		deps[i] = expr.Collect(c)
	}
	var universe []string
	for _, cell := range seed {
		universe = append(universe, cell...)
	}
	sigs := buildSignatures(universe, deps)

	for _, cell := range seed {
		if len(cell) <= 1 {
			partition = append(partition, cell)
			continue
		}
		ref := sigs[cell[0]]
		preserved := true
		for _, v := range cell[1:] {
			if !sigsEqual(ref, sigs[v]) {
				preserved = false
				break
			}
		}
		if preserved {
			sorted := append([]string(nil), cell...)
			sort.Strings(sorted)
			partition = append(partition, sorted)
		} else {
			sorted := append([]string(nil), cell...)
			sort.Strings(sorted)
			for _, v := range sorted {
				partition = append(partition, []string{v})
			}
		}
	}

	for _, cell := range partition {
		if len(cell) >= 2 {
			leaders = append(leaders, cell)
		}
	}
	return partition, leaders
}

// Describe renders a partition for diagnostics (used by cmd/patterninspect).
func Describe(partition [][]string) string {
	out := ""
	for i, cell := range partition {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("(%v)", cell)
	}
	return out
}
