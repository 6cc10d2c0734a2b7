// Package network implements the discrimination network of spec.md §4.8:
// a shared, incrementally-built node graph that type-checks, attribute-
// checks, edge-checks and joins entity tokens into per-pattern matches.
//
// Grounded on the teacher's small-interface-many-implementations executor
// shape (datalog/executor/join.go, datalog/executor/union_relation.go,
// each a focused struct implementing one join/union strategy behind a
// common iterator-like interface), generalized here from relational
// tuple iterators to Rete discrimination nodes.
package network

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-rete/expr"
	"github.com/wbrown/janus-rete/graph"
)

// Node is the common shape of every discrimination-network node, per
// spec.md §4.8's "one variant per role" node taxonomy. Accept consumes
// one input token and returns the tokens to forward to successors (empty
// if the token is rejected); the caller (Builder.Propagate) is
// responsible for fanning the result out to Successors().
type Node interface {
	ID() string
	Accept(tok Token) []Token
	Successors() []Node
	AddSuccessor(n Node)
}

type nodeBase struct {
	id         string
	successors []Node
}

func (b *nodeBase) ID() string           { return b.id }
func (b *nodeBase) Successors() []Node   { return b.successors }
func (b *nodeBase) AddSuccessor(n Node)  { b.successors = append(b.successors, n) }

// RootNode is the sole source of tokens, per spec.md §4.8's node table.
type RootNode struct{ nodeBase }

func newRoot() *RootNode { return &RootNode{nodeBase{id: "root"}} }

func (r *RootNode) Accept(tok Token) []Token { return []Token{tok} }

// TypeCheckNode passes a NodeToken whose entity's class matches Class.
type TypeCheckNode struct {
	nodeBase
	Class string
}

func (n *TypeCheckNode) Accept(tok Token) []Token {
	if tok.Species != NodeToken || tok.Entity == nil || tok.Entity.Class != n.Class {
		return nil
	}
	return []Token{tok}
}

// attrPredicate is one literal attribute predicate compiled from a
// pattern's attribute constraints, e.g. "x.i == 10".
type attrPredicate struct {
	expr *expr.Node // a Binary comparison: Attr(VarRef(v), attr) `op` Literal(value)
	text string
}

// AttrCheckNode passes a NodeToken iff every compiled predicate holds
// against the bound entity, per spec.md §4.8's checkATTR node.
type AttrCheckNode struct {
	nodeBase
	Var        string
	Predicates []attrPredicate
}

func (n *AttrCheckNode) Accept(tok Token) []Token {
	if tok.Species != NodeToken || tok.Entity == nil {
		return nil
	}
	bindings := map[string]interface{}{n.Var: tok.Entity}
	for _, pred := range n.Predicates {
		v, err := expr.Eval(pred.expr, bindings, nil)
		if err != nil {
			return nil
		}
		ok, isBool := v.(bool)
		if !isBool || !ok {
			return nil
		}
	}
	return []Token{tok}
}

// EdgeCheckNode passes an EdgeToken whose endpoints bear the named
// relation between Attr1 (on E1) and Attr2 (on E2), per spec.md §4.8's
// checkEDGE node. Attr2 is E1's relation name as seen from E2 (the
// inverse); Accept only needs Attr1 since Entity.Link keeps both
// directions symmetric, but Attr2 distinguishes same-class relations
// with different forward/inverse names (e.g. "manager"/"reports") in
// diagnostics.
type EdgeCheckNode struct {
	nodeBase
	Attr1, Attr2 string
}

func (n *EdgeCheckNode) Accept(tok Token) []Token {
	if tok.Species != EdgeToken || tok.E1 == nil || tok.E2 == nil {
		return nil
	}
	for _, other := range tok.E1.Related(n.Attr1) {
		if other.ID == tok.E2.ID {
			return []Token{tok}
		}
	}
	return nil
}

// StoreNode accumulates tokens of a fixed arity, preserving insertion
// order for its successors (spec.md §5's store ordering guarantee), and
// is the source of joins.
type StoreNode struct {
	nodeBase
	Arity  int
	tokens []Token
}

func (n *StoreNode) Accept(tok Token) []Token {
	switch tok.Tag {
	case TokenAdd:
		n.tokens = append(n.tokens, tok)
	case TokenRemove:
		for i, t := range n.tokens {
			if sameToken(t, tok) {
				n.tokens = append(n.tokens[:i], n.tokens[i+1:]...)
				break
			}
		}
	}
	return []Token{tok}
}

// Tokens returns the store's currently accumulated tokens, in insertion
// order, for diagnostics and for merge/anti-join lookups.
func (n *StoreNode) Tokens() []Token {
	out := make([]Token, len(n.tokens))
	copy(out, n.tokens)
	return out
}

func sameToken(a, b Token) bool {
	if a.Species != b.Species {
		return false
	}
	if a.Species == NodeToken {
		return a.Var == b.Var && a.Entity != nil && b.Entity != nil && a.Entity.ID == b.Entity.ID
	}
	return a.V1 == b.V1 && a.V2 == b.V2 &&
		a.E1 != nil && b.E1 != nil && a.E1.ID == b.E1.ID &&
		a.E2 != nil && b.E2 != nil && a.E2.ID == b.E2.ID
}

// AliasNode renames a token's raw variable into a canonical
// "<patternId>:v" binding, per spec.md §4.8's alias node. An alias placed
// under a helper's terminal store instead renames the helper's canonical
// bindings into the enclosing pattern's. IsNotIn marks an alias feeding a
// NotInNode's store; Accept does not read it.
type AliasNode struct {
	nodeBase
	Remap   map[string]string // raw (or helper canonical) var -> canonical var
	IsNotIn bool
}

func (n *AliasNode) Accept(tok Token) []Token {
	renamed := map[string]*graph.Entity{}
	for from, to := range n.Remap {
		if e, ok := tok.Bindings[from]; ok {
			renamed[to] = e
		}
	}
	if len(renamed) > 0 {
		return []Token{tok.withBindings(renamed)}
	}

	out := tok
	switch tok.Species {
	case NodeToken:
		canon, ok := n.Remap[tok.Var]
		if !ok {
			return nil
		}
		b := cloneBindings(tok.Bindings)
		if b == nil {
			b = map[string]*graph.Entity{}
		}
		b[canon] = tok.Entity
		out = out.withBindings(b)
	case EdgeToken:
		b := cloneBindings(tok.Bindings)
		if b == nil {
			b = map[string]*graph.Entity{}
		}
		if c1, ok := n.Remap[tok.V1]; ok {
			b[c1] = tok.E1
		}
		if c2, ok := n.Remap[tok.V2]; ok {
			b[c2] = tok.E2
		}
		out = out.withBindings(b)
	}
	return []Token{out}
}

// MergeNode equi-joins two input streams on shared canonical variables,
// producing a token whose Bindings is the union of both sides, per
// spec.md §4.8's merge node. Tokens arrive tagged with Side so a single
// Accept method can serve both input slots.
type MergeNode struct {
	nodeBase
	JoinVars []string
	left     []Token
	right    []Token
}

func (n *MergeNode) Accept(tok Token) []Token {
	var out []Token
	if tok.Side == LeftSide {
		n.left = append(n.left, tok)
		for _, r := range n.right {
			if j, ok := n.join(tok, r); ok {
				out = append(out, j)
			}
		}
	} else {
		n.right = append(n.right, tok)
		for _, l := range n.left {
			if j, ok := n.join(l, tok); ok {
				out = append(out, j)
			}
		}
	}
	return out
}

func (n *MergeNode) join(l, r Token) (Token, bool) {
	for _, v := range n.JoinVars {
		le, lok := l.Bindings[v]
		re, rok := r.Bindings[v]
		if !lok || !rok || le.ID != re.ID {
			return Token{}, false
		}
	}
	merged := cloneBindings(l.Bindings)
	for k, v := range r.Bindings {
		merged[k] = v
	}
	return Token{Tag: l.Tag, Species: NodeToken, Bindings: merged}, true
}

// NotInNode implements negation: it forwards a token only while the
// Referenced store (the referenced pattern's matches, remapped into the
// enclosing pattern's variables) has no tuple matching the shared join
// variables, per spec.md §4.8's is_not_in node.
type NotInNode struct {
	nodeBase
	JoinVars   []string
	Referenced *StoreNode
}

func (n *NotInNode) Accept(tok Token) []Token {
	for _, other := range n.Referenced.Tokens() {
		matches := true
		for _, v := range n.JoinVars {
			a, aok := tok.Bindings[v]
			b, bok := other.Bindings[v]
			if !aok || !bok || a.ID != b.ID {
				matches = false
				break
			}
		}
		if matches {
			return nil
		}
	}
	return []Token{tok}
}

// describeNode renders a one-line summary for cmd/patterninspect and
// network/trace.
func describeNode(n Node) string {
	switch t := n.(type) {
	case tappedSide:
		return describeNode(t.target)
	case *RootNode:
		return "root"
	case *TypeCheckNode:
		return fmt.Sprintf("checkTYPE(%s)", t.Class)
	case *AttrCheckNode:
		var texts []string
		for _, p := range t.Predicates {
			texts = append(texts, p.text)
		}
		sort.Strings(texts)
		return fmt.Sprintf("checkATTR(%s)", texts)
	case *EdgeCheckNode:
		return fmt.Sprintf("checkEDGE(%s,%s)", t.Attr1, t.Attr2)
	case *StoreNode:
		return fmt.Sprintf("store(%d)", t.Arity)
	case *AliasNode:
		return fmt.Sprintf("alias(%v,notIn=%v)", t.Remap, t.IsNotIn)
	case *MergeNode:
		return fmt.Sprintf("merge(%v)", t.JoinVars)
	case *NotInNode:
		return fmt.Sprintf("is_not_in(%v)", t.JoinVars)
	default:
		return n.ID()
	}
}
