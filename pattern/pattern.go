// Package pattern implements the pattern compiler of spec.md §4.6/§4.7:
// it turns a seed graph (or a parent pattern) plus helper patterns and
// constraint text into a verified, canonically-labeled Pattern, ready to
// be compiled into a discrimination network by package network.
//
// Grounded on the teacher's query-compilation discipline
// (datalog/planner/planner.go builds a validated, ordered plan from raw
// clauses before execution ever begins) generalized from Datalog clauses
// to entity-graph constraints; the namespace/cycle checks have no direct
// analogue in the teacher and are grounded instead on
// original_source/wc_rules/patterns.py's PatternGenerator.verify_namespace.
package pattern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbrown/janus-rete/canon"
	"github.com/wbrown/janus-rete/expr"
	"github.com/wbrown/janus-rete/graph"
)

// BuildError aggregates every problem found while compiling a pattern,
// per spec.md §4.6 step 7 / §7's "collect every error, don't stop at the
// first" error-handling discipline.
type BuildError struct {
	Reasons []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("pattern: build failed: %s", strings.Join(e.Reasons, "; "))
}

// ParentRef is a sum type over the two things a Pattern can extend: a
// freshly seeded GraphContainer, or another Pattern being specialized
// further. Exactly one field must be set.
type ParentRef struct {
	GC      *graph.GraphContainer
	Pattern *Pattern
}

// FromGraph wraps a GraphContainer as a ParentRef.
func FromGraph(gc *graph.GraphContainer) ParentRef { return ParentRef{GC: gc} }

// FromPattern wraps a Pattern as a ParentRef.
func FromPattern(p *Pattern) ParentRef { return ParentRef{Pattern: p} }

func (p ParentRef) graphContainer() *graph.GraphContainer {
	if p.GC != nil {
		return p.GC
	}
	if p.Pattern != nil {
		return p.Pattern.gc
	}
	return nil
}

func (p ParentRef) nextSynthetic() int {
	if p.Pattern != nil {
		return p.Pattern.nextSynthetic
	}
	return 0
}

// Pattern is the compiled, immutable result of spec.md §4.6: a
// GraphContainer's worth of entity variables, any helper sub-patterns,
// an ordered constraint set, the merged namespace those constraints were
// checked against, and the canonical partition/leaders computed over
// that constraint set (spec.md §4.4/§4.5).
type Pattern struct {
	Parent      ParentRef
	Helpers     map[string]*Pattern
	Constraints *expr.OrderedConstraints
	Namespace   Namespace
	Partition   [][]string
	Leaders     [][]string

	gc            *graph.GraphContainer
	nextSynthetic int
}

// Build compiles a Pattern per spec.md §4.6's seven steps:
//  1. Resolve parent to a GraphContainer.
//  2. Strip literal attributes into synthetic "_N" equality constraints.
//  3. Parse constraintText (synthetic constraints first, then the
//     caller's), continuing the synthetic counter from parent's.
//  4. Merge parent entity vars, helper names and declared computation
//     vars into one namespace.
//  5. Verify the namespace (spec.md §4.7).
//  6. Canonically label the parent graph and refine by constraint
//     dependencies (spec.md §4.4/§4.5).
//  7. Return the built Pattern, or a BuildError aggregating every
//     problem found across steps 2-6.
func Build(parent ParentRef, helpers map[string]*Pattern, constraintText string) (*Pattern, error) {
	gc := parent.graphContainer()
	if gc == nil {
		return nil, &BuildError{Reasons: []string{"pattern: parent has neither a GraphContainer nor a Pattern"}}
	}

	var reasons []string

	synthetic := stripAttrsToConstraints(gc)
	lines := append(synthetic, splitConstraintLines(constraintText)...)

	oc, next, err := expr.InitializeFromStrings(
		lines,
		[]expr.CandidateKind{expr.CandidateComputation, expr.CandidateConstraint},
		parent.nextSynthetic(),
	)
	if err != nil {
		reasons = append(reasons, err.Error())
		oc = expr.NewOrderedConstraints()
	}

	entityVars := map[string]string{}
	for _, e := range gc.Entities() {
		entityVars[e.ID] = e.Class
	}

	ns, nsErrs := verifyNamespace(entityVars, helpers, oc)
	reasons = append(reasons, nsErrs...)

	var partition, leaders [][]string
	cf, err := canon.Label(gc)
	if err != nil {
		reasons = append(reasons, fmt.Sprintf("pattern: canonical labeling failed: %v", err))
	} else {
		var constraints []expr.Expression
		for _, name := range oc.Names() {
			e, _ := oc.Get(name)
			constraints = append(constraints, e)
		}
		partition, leaders = canon.RefineByConstraints(cf.Partition, constraints)
	}

	if len(reasons) > 0 {
		sort.Strings(reasons)
		return nil, &BuildError{Reasons: reasons}
	}

	return &Pattern{
		Parent:        parent,
		Helpers:       helpers,
		Constraints:   oc,
		Namespace:     ns,
		Partition:     partition,
		Leaders:       leaders,
		gc:            gc,
		nextSynthetic: next,
	}, nil
}

// stripAttrsToConstraints implements spec.md §4.6 step 2: it removes
// every entity's literal attributes and returns them as synthetic
// equality constraint lines "<id>.<attr> == <value>", sorted for
// determinism so repeated builds of the same seed produce identical
// synthetic numbering.
func stripAttrsToConstraints(gc *graph.GraphContainer) []string {
	side := gc.StripAttrs()
	var ids []string
	for id := range side {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var lines []string
	for _, id := range ids {
		attrs := side[id]
		var names []string
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("%s.%s == %s", id, name, literalText(attrs[name])))
		}
	}
	return lines
}

func literalText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return fmt.Sprintf("%q", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func splitConstraintLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// Contains implements expr.ContainsQueryable for helper patterns: the
// <helper>.contains(arg=var, ...) built-in of spec.md §4.3. This is a
// static, namespace-level check rather than a full runtime join (finding
// every live match is the discrimination network's job, per spec.md
// §4.8) — it asks whether, for every (argName, varName) pair, argName
// names a variable in the helper's own namespace whose bound entity (in
// enclosing) is actually present in the helper's underlying graph.
func (p *Pattern) Contains(args map[string]string, enclosing map[string]interface{}) (bool, error) {
	for argName, varName := range args {
		entry, ok := p.Namespace[argName]
		if !ok || entry.Kind != NSEntityClass {
			return false, fmt.Errorf("pattern: contains(): %q is not an entity variable of the helper pattern", argName)
		}
		bound, ok := enclosing[varName]
		if !ok {
			return false, fmt.Errorf("pattern: contains(): %q is unbound in the enclosing pattern", varName)
		}
		e, ok := bound.(*graph.Entity)
		if !ok {
			return false, fmt.Errorf("pattern: contains(): %q is not bound to an entity", varName)
		}
		if e.Class != entry.Class {
			return false, nil
		}
		if _, present := p.gc.Get(e.ID); !present {
			return false, nil
		}
	}
	return true, nil
}

// EntityVars returns the pattern's parent-graph variable names (entity
// ids), sorted, for diagnostics.
func (p *Pattern) EntityVars() []string {
	var out []string
	for _, e := range p.gc.Entities() {
		out = append(out, e.ID)
	}
	sort.Strings(out)
	return out
}

// GraphContainer exposes the resolved parent graph, used by package
// network to walk entities when compiling type/attribute/edge-check
// nodes.
func (p *Pattern) GraphContainer() *graph.GraphContainer { return p.gc }
