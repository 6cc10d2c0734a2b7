package pattern

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-rete/expr"
)

// NamespaceKind tags what a namespace entry refers to, per spec.md §3's
// "merged mapping of all names visible in constraints -> their semantic
// type (entity class, helper pattern, or declared variable's expression
// AST)".
type NamespaceKind int

const (
	NSEntityClass NamespaceKind = iota
	NSHelperPattern
	NSComputation
)

// NamespaceEntry is one binding in a Pattern's namespace.
type NamespaceEntry struct {
	Kind    NamespaceKind
	Class   string       // set when Kind == NSEntityClass
	Helper  *Pattern     // set when Kind == NSHelperPattern
	Declared *expr.Node  // set when Kind == NSComputation: the computation's root node
}

// Namespace is the merged name -> semantic-type mapping of spec.md §3/§4.7.
type Namespace map[string]NamespaceEntry

// verifyNamespace implements spec.md §4.7: no shadowing, helper type
// checks, closed references, and acyclic computation dependencies. It
// returns the merged namespace and every error found, joined, rather
// than failing on the first (spec.md §4.6 step 7 / §7).
func verifyNamespace(
	entityVars map[string]string, // var name -> entity class, from the parent graph/pattern
	helpers map[string]*Pattern,
	constraints *expr.OrderedConstraints,
) (Namespace, []string) {
	var errs []string
	ns := make(Namespace, len(entityVars)+len(helpers)+constraints.Len())

	// No shadowing: parent entity vars vs helpers vs declared computations.
	seenIn := make(map[string]string) // name -> which bucket first claimed it

	addUnique := func(name, bucket string) bool {
		if prior, ok := seenIn[name]; ok && prior != bucket {
			errs = append(errs, fmt.Sprintf("namespace: %q is declared in both %s and %s", name, prior, bucket))
			return false
		}
		if prior, ok := seenIn[name]; ok && prior == bucket {
			errs = append(errs, fmt.Sprintf("namespace: %q is declared more than once in %s", name, bucket))
			return false
		}
		seenIn[name] = bucket
		return true
	}

	var entityNames []string
	for v := range entityVars {
		entityNames = append(entityNames, v)
	}
	sort.Strings(entityNames)
	for _, v := range entityNames {
		if addUnique(v, "parent graph") {
			ns[v] = NamespaceEntry{Kind: NSEntityClass, Class: entityVars[v]}
		}
	}

	// Helper type: every helper binds to a *Pattern (guaranteed by Go's
	// type system); check no two helper names alias the same Pattern.
	var helperNames []string
	for name := range helpers {
		helperNames = append(helperNames, name)
	}
	sort.Strings(helperNames)
	seenPatterns := make(map[*Pattern]string)
	for _, name := range helperNames {
		p := helpers[name]
		if p == nil {
			errs = append(errs, fmt.Sprintf("namespace: helper %q is nil", name))
			continue
		}
		if other, ok := seenPatterns[p]; ok {
			errs = append(errs, fmt.Sprintf("namespace: helpers %q and %q alias the same pattern", other, name))
			continue
		}
		seenPatterns[p] = name
		if addUnique(name, "helpers") {
			ns[name] = NamespaceEntry{Kind: NSHelperPattern, Helper: p}
		}
	}

	// Declared computations.
	declDeps := map[string][]string{} // declared var -> vars it references (restricted to other declared vars)
	declaredSet := map[string]bool{}
	for _, name := range constraints.Names() {
		e, _ := constraints.Get(name)
		comp, ok := e.(*expr.Computation)
		if !ok {
			continue
		}
		declaredSet[comp.DeclaredVariable()] = true
	}
	for _, name := range constraints.Names() {
		e, _ := constraints.Get(name)
		comp, ok := e.(*expr.Computation)
		if !ok {
			continue
		}
		v := comp.DeclaredVariable()
		if addUnique(v, "declared computations") {
			ns[v] = NamespaceEntry{Kind: NSComputation, Declared: comp.Root()}
		}
		deps := expr.Collect(comp)
		for ref := range deps.Variables {
			if declaredSet[ref] {
				declDeps[v] = append(declDeps[v], ref)
			}
		}
	}

	// Closed references: every free variable in every constraint resolves
	// in the combined namespace (entity vars, helpers, declared vars).
	for _, name := range constraints.Names() {
		e, _ := constraints.Get(name)
		deps := expr.Collect(e)
		for v := range deps.Variables {
			if _, ok := ns[v]; !ok {
				errs = append(errs, fmt.Sprintf("namespace: constraint %q references undeclared variable %q", e.String(), v))
			}
		}
		for _, fc := range deps.FunctionCalls {
			if len(fc.Head) >= 2 && fc.Head[len(fc.Head)-1] == "contains" {
				helperName := fc.Head[0]
				if entry, ok := ns[helperName]; !ok || entry.Kind != NSHelperPattern {
					errs = append(errs, fmt.Sprintf("namespace: constraint %q calls contains() on %q, which is not a helper pattern", e.String(), helperName))
				}
			}
		}
	}

	// Acyclic declarations: DAG check via DFS cycle detection.
	if cyc := findCycle(declDeps); cyc != "" {
		errs = append(errs, fmt.Sprintf("namespace: cyclic computation dependency involving %q", cyc))
	}

	sort.Strings(errs)
	return ns, errs
}

func findCycle(deps map[string][]string) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := map[string]int{}
	var names []string
	for v := range deps {
		names = append(names, v)
	}
	sort.Strings(names)

	var stack []string
	var visit func(v string) string
	visit = func(v string) string {
		state[v] = gray
		stack = append(stack, v)
		var sortedDeps []string
		sortedDeps = append(sortedDeps, deps[v]...)
		sort.Strings(sortedDeps)
		for _, d := range sortedDeps {
			switch state[d] {
			case gray:
				return d
			case white:
				if cyc := visit(d); cyc != "" {
					return cyc
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[v] = black
		return ""
	}

	for _, v := range names {
		if state[v] == white {
			if cyc := visit(v); cyc != "" {
				return cyc
			}
		}
	}
	return ""
}
