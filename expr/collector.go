package expr

import "sort"

// Dependencies is the result of walking an expression's AST, per
// spec.md §4.3's DependencyCollector. It is the sole interface between
// the constraint language and the canonical-ordering algorithm (§4.5).
type Dependencies struct {
	DeclaredVariable string // "" for Constraints
	Variables        map[string]bool
	AttributeCalls   map[string]map[string]bool  // var -> attribute names read
	FunctionCalls    []FunctionCallDep
	Builtins         map[string]bool
	Subvariables     map[[2]string]bool // (v, w) pairs
}

// FunctionCallDep records one call site: its head (the receiver var name
// followed by the function name, or just the function name for a bare
// builtin) and its keyword
// arguments, both the raw keyword names and which variable each keyword
// was bound to.
type FunctionCallDep struct {
	Head       []string // e.g. ["helper", "contains"] or ["any"]
	Kwargs     map[string]bool
	KwToVar    map[string]string
}

func newDeps() *Dependencies {
	return &Dependencies{
		Variables:      make(map[string]bool),
		AttributeCalls: make(map[string]map[string]bool),
		Builtins:       make(map[string]bool),
		Subvariables:   make(map[[2]string]bool),
	}
}

// Collect walks e's root node and produces its Dependencies.
func Collect(e Expression) *Dependencies {
	d := newDeps()
	if c, ok := e.(*Computation); ok {
		d.DeclaredVariable = c.declared
	}
	walk(e.Root(), d)
	return d
}

func walk(n *Node, d *Dependencies) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindLiteral:
		// nothing to record
	case KindVarRef:
		d.Variables[n.Var] = true
	case KindAttr:
		base, chain := attrBase(n)
		if base != "" {
			d.Variables[base] = true
			m, ok := d.AttributeCalls[base]
			if !ok {
				m = make(map[string]bool)
				d.AttributeCalls[base] = m
			}
			m[chain[0]] = true
			for i := 1; i < len(chain); i++ {
				d.Subvariables[[2]string{base, chain[i-1]}] = true
			}
		} else {
			walk(n.Recv, d)
		}
	case KindUnaryNot:
		walk(n.Left, d)
	case KindBinary:
		walk(n.Left, d)
		walk(n.Right, d)
	case KindCall:
		collectCall(n, d)
	}
}

// attrBase walks down a chain of Attr nodes to find the base VarRef,
// returning its name and the ordered chain of attribute names. Returns
// ("", nil) if the chain does not bottom out in a plain variable (e.g.
// a call result), in which case the caller falls back to walking Recv
// generically.
func attrBase(n *Node) (string, []string) {
	var chain []string
	cur := n
	for cur.Kind == KindAttr {
		chain = append([]string{cur.Name}, chain...)
		cur = cur.Recv
	}
	if cur.Kind != KindVarRef {
		return "", nil
	}
	return cur.Var, chain
}

func collectCall(n *Node, d *Dependencies) {
	var head []string
	if n.Recv != nil {
		if n.Recv.Kind == KindVarRef {
			head = append(head, n.Recv.Var)
			d.Variables[n.Recv.Var] = true
		} else {
			walk(n.Recv, d)
		}
	} else {
		d.Builtins[n.Func] = true
	}
	head = append(head, n.Func)

	fc := FunctionCallDep{Head: head, Kwargs: make(map[string]bool), KwToVar: make(map[string]string)}
	for _, a := range n.Args {
		walk(a, d)
	}
	for _, name := range n.KwOrder {
		val := n.Kwargs[name]
		fc.Kwargs[name] = true
		if val.Kind == KindVarRef {
			fc.KwToVar[name] = val.Var
		}
		walk(val, d)
	}
	d.FunctionCalls = append(d.FunctionCalls, fc)
}

// SortedVariables returns Variables in sorted order, for deterministic
// iteration per spec.md §9 Design Notes.
func (d *Dependencies) SortedVariables() []string {
	out := make([]string, 0, len(d.Variables))
	for v := range d.Variables {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
