// Package canon implements canonical labeling (spec.md §4.4) and
// canonical expression ordering (spec.md §4.5): it produces a canonical
// partition of a GraphContainer's vertices (orbits under automorphism,
// approximated by iterated color refinement) and then refines that
// partition using constraint dependencies to detect symmetry broken by
// the pattern's own constraints.
//
// Grounded in spirit on the teacher's deterministic, score-then-
// lexicographic tie-breaking discipline (datalog/planner/phase_reordering.go),
// generalized here from query-phase ordering to vertex-orbit ordering; no
// code is copied since graph canonicalization has no direct analogue in
// a Datalog query planner.
package canon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbrown/janus-rete/graph"
)

// CanonicalForm is the result of labeling a GraphContainer, per spec.md
// §4.4.
type CanonicalForm struct {
	Form        string
	VariableMap map[string]string // original id -> canonical name
	Partition   [][]string        // orbits, each sorted; cells ordered by refinement color
}

// color is an opaque refinement class identifier.
type color int

// Label computes the canonical form of gc: iterated partition refinement
// keyed by (class, degree, neighbor signature), then one individualization
// trial per multi-member cell (in color order, individualizing the cell's
// lexicographically smallest id), per spec.md §4.4's "Implementation at
// design level" paragraph.
func Label(gc *graph.GraphContainer) (*CanonicalForm, error) {
	ids := gc.SortedIDs()
	if len(ids) == 0 {
		return &CanonicalForm{Form: "", VariableMap: map[string]string{}, Partition: nil}, nil
	}

	colors := initialColors(gc, ids)
	colors = refineToStable(gc, ids, colors)

	// Try individualizing the smallest id of each cell of size > 1 once; a
	// cell whose trial splits nothing beyond the individualized id is kept
	// as an orbit under the approximation this package implements.
	cells := cellsOf(ids, colors)
	for _, cell := range cells {
		if len(cell) <= 1 {
			continue
		}
		trial := cloneColors(colors)
		individualize(trial, cell[0])
		trial = refineToStable(gc, ids, trial)
		// Only accept the individualization if refinement splits further
		// than the individualized id itself; otherwise this cell is
		// reported as a surviving orbit.
		if moreDiscrete(trial, colors) {
			colors = trial
		}
	}
	cells = cellsOf(ids, colors)

	form, varMap := buildForm(gc, ids, cells)
	return &CanonicalForm{Form: form, VariableMap: varMap, Partition: cells}, nil
}

func initialColors(gc *graph.GraphContainer, ids []string) map[string]color {
	classOf := make(map[string]string, len(ids))
	for _, id := range ids {
		e, _ := gc.Get(id)
		classOf[id] = e.Class
	}
	// Seed colors by class name alone; refineToStable folds in degree and
	// neighbor signatures on the first pass.
	classColor := map[string]color{}
	colors := make(map[string]color, len(ids))
	next := color(0)
	sortedClasses := sortedDistinct(classOf)
	for _, c := range sortedClasses {
		classColor[c] = next
		next++
	}
	for _, id := range ids {
		colors[id] = classColor[classOf[id]]
	}
	return colors
}

func sortedDistinct(m map[string]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range m {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// refineToStable repeatedly recolors vertices by (current color, sorted
// list of (relation name, neighbor color) pairs) until no cell splits
// further.
func refineToStable(gc *graph.GraphContainer, ids []string, colors map[string]color) map[string]color {
	for {
		sigOf := make(map[string]string, len(ids))
		for _, id := range ids {
			e, _ := gc.Get(id)
			var parts []string
			for _, rel := range e.RelationNames() {
				for _, other := range e.Related(rel) {
					parts = append(parts, fmt.Sprintf("%s:%d", rel, colors[other.ID]))
				}
			}
			sort.Strings(parts)
			sigOf[id] = fmt.Sprintf("%d|%s", colors[id], strings.Join(parts, ","))
		}

		// Assign new colors: same signature -> same color, numbered in
		// sorted signature-string order for determinism.
		sigColor := map[string]color{}
		next := color(0)
		var order []string
		for _, id := range ids {
			if _, ok := sigColor[sigOf[id]]; !ok {
				order = append(order, sigOf[id])
			}
		}
		sort.Strings(order)
		for _, s := range order {
			sigColor[s] = next
			next++
		}

		newColors := make(map[string]color, len(ids))
		changed := false
		for _, id := range ids {
			nc := sigColor[sigOf[id]]
			newColors[id] = nc
			if nc != colors[id] {
				changed = true
			}
		}
		// Also detect a split even when relative order is preserved: compare
		// cell membership, not raw numeric color ids.
		if !changed && samePartition(cellsOf(ids, colors), cellsOf(ids, newColors)) {
			return newColors
		}
		colors = newColors
	}
}

func samePartition(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func cloneColors(colors map[string]color) map[string]color {
	out := make(map[string]color, len(colors))
	for k, v := range colors {
		out[k] = v
	}
	return out
}

// individualize splits id off into its own color: id keeps its current
// color while its former cell-mates and every higher color move up by
// one, so id sorts directly before the rest of its old cell.
func individualize(colors map[string]color, id string) {
	old := colors[id]
	for k, v := range colors {
		if v > old || (v == old && k != id) {
			colors[k] = v + 1
		}
	}
	colors[id] = old
}

// moreDiscrete reports whether trial has more cells than base beyond the
// one extra cell that individualizing a single id always creates.
func moreDiscrete(trial, base map[string]color) bool {
	ids := make([]string, 0, len(trial))
	for id := range trial {
		ids = append(ids, id)
	}
	return len(cellsOf(ids, trial)) > len(cellsOf(ids, base))+1
}

// cellsOf groups ids by color, returns cells sorted internally and
// ordered by (color, first element) for determinism.
func cellsOf(ids []string, colors map[string]color) [][]string {
	byColor := map[color][]string{}
	for _, id := range ids {
		byColor[color(colors[id])] = append(byColor[color(colors[id])], id)
	}
	var cs []color
	for c := range byColor {
		cs = append(cs, c)
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })

	out := make([][]string, 0, len(cs))
	for _, c := range cs {
		cell := byColor[c]
		sort.Strings(cell)
		out = append(out, cell)
	}
	return out
}

func buildForm(gc *graph.GraphContainer, ids []string, cells [][]string) (string, map[string]string) {
	varMap := make(map[string]string, len(ids))
	var sb strings.Builder
	canonIdx := 0
	for _, cell := range cells {
		for _, id := range cell {
			name := fmt.Sprintf("v%d", canonIdx)
			varMap[id] = name
			canonIdx++
		}
	}
	for _, cell := range cells {
		for _, id := range cell {
			e, _ := gc.Get(id)
			sb.WriteString(fmt.Sprintf("%s:%s;", varMap[id], e.Class))
		}
	}
	return sb.String(), varMap
}
