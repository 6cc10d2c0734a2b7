package network

import (
	"sort"

	"github.com/wbrown/janus-rete/expr"
	"github.com/wbrown/janus-rete/pattern"
)

// queryDict is the compiled form a Pattern emits for network construction,
// per spec.md §4.8's "Compile P's graph to a query dictionary with three
// sections" plus the is_in/is_not_in subgraph references.
type queryDict struct {
	vars       []string              // sorted, for deterministic build order
	types      map[string]string     // var -> class
	attrs      map[string][]attrPred // var -> literal predicates
	edges      []edgeSpec
	references []subgraphRef
}

type attrPred struct {
	attr string
	node *expr.Node // Binary comparison over VarRef(var).attr
	text string
}

type edgeSpec struct {
	v1, attr1, attr2, v2 string
}

type subgraphRef struct {
	helperName string
	negated    bool
	remap      map[string]string // helper's var -> enclosing var
}

// compile translates p into a queryDict: types/attrs from the pattern's
// namespace and its attribute-versus-literal comparison constraints, edges from the underlying
// graph's declared relations, and subgraph references from every
// <helper>.contains(...) constraint.
func compile(p *pattern.Pattern) *queryDict {
	qd := &queryDict{types: map[string]string{}, attrs: map[string][]attrPred{}}

	for name, entry := range p.Namespace {
		if entry.Kind == pattern.NSEntityClass {
			qd.types[name] = entry.Class
			qd.vars = append(qd.vars, name)
		}
	}
	sort.Strings(qd.vars)

	seenEdges := map[string]bool{}
	for _, e := range p.GraphContainer().Entities() {
		for _, relName := range e.RelationNames() {
			for _, other := range e.Related(relName) {
				key := edgeKey(e.ID, other.ID)
				if seenEdges[key] {
					continue
				}
				seenEdges[key] = true
				inv, _ := e.InverseRelationName(relName)
				qd.edges = append(qd.edges, edgeSpec{v1: e.ID, attr1: relName, attr2: inv, v2: other.ID})
			}
		}
	}
	sort.Slice(qd.edges, func(i, j int) bool {
		if qd.edges[i].v1 != qd.edges[j].v1 {
			return qd.edges[i].v1 < qd.edges[j].v1
		}
		return qd.edges[i].v2 < qd.edges[j].v2
	})

	for _, name := range p.Constraints.Names() {
		e, _ := p.Constraints.Get(name)
		root := e.Root()
		if pred, v, ok := literalAttrPredicate(root); ok {
			qd.attrs[v] = append(qd.attrs[v], pred)
		}
		collectReferences(root, false, qd)
	}
	for v := range qd.attrs {
		sort.Slice(qd.attrs[v], func(i, j int) bool { return qd.attrs[v][i].text < qd.attrs[v][j].text })
	}
	sort.Slice(qd.references, func(i, j int) bool { return qd.references[i].helperName < qd.references[j].helperName })

	return qd
}

func edgeKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// literalAttrPredicate recognizes a Binary comparison between var.attr and
// a literal (on either side), the shape checkATTR consumes per spec.md
// §4.8.
func literalAttrPredicate(n *expr.Node) (attrPred, string, bool) {
	if n.Kind != expr.KindBinary {
		return attrPred{}, "", false
	}
	switch n.Op {
	case expr.OpEQ, expr.OpNE, expr.OpLT, expr.OpLE, expr.OpGE, expr.OpGT:
	default:
		return attrPred{}, "", false
	}
	attrNode, _, ok := asAttrLiteral(n.Left, n.Right)
	if !ok {
		return attrPred{}, "", false
	}
	if attrNode.Recv.Kind != expr.KindVarRef {
		return attrPred{}, "", false
	}
	v := attrNode.Recv.Var
	return attrPred{attr: attrNode.Name, node: n, text: n.String()}, v, true
}

func asAttrLiteral(a, b *expr.Node) (*expr.Node, *expr.Node, bool) {
	if a.Kind == expr.KindAttr && b.Kind == expr.KindLiteral {
		return a, b, true
	}
	if b.Kind == expr.KindAttr && a.Kind == expr.KindLiteral {
		return b, a, true
	}
	return nil, nil, false
}

// collectReferences walks n for <helper>.contains(kw=var, ...) calls,
// recording a subgraphRef per helper referenced, per spec.md §4.8's
// is_in/is_not_in sections. A contains() under an odd number of `!`
// operators, at any depth, is treated as is_not_in.
func collectReferences(n *expr.Node, negated bool, qd *queryDict) {
	if n == nil {
		return
	}
	switch n.Kind {
	case expr.KindUnaryNot:
		collectReferences(n.Left, !negated, qd)
	case expr.KindBinary:
		collectReferences(n.Left, negated, qd)
		collectReferences(n.Right, negated, qd)
	case expr.KindCall:
		if n.Recv != nil && n.Recv.Kind == expr.KindVarRef && n.Func == "contains" {
			remap := map[string]string{}
			for _, kw := range n.KwOrder {
				val := n.Kwargs[kw]
				if val.Kind == expr.KindVarRef {
					remap[kw] = val.Var
				}
			}
			qd.references = append(qd.references, subgraphRef{helperName: n.Recv.Var, negated: negated, remap: remap})
		}
		for _, a := range n.Args {
			collectReferences(a, negated, qd)
		}
		for _, v := range n.Kwargs {
			collectReferences(v, negated, qd)
		}
	}
}
