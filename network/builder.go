package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbrown/janus-rete/network/trace"
	"github.com/wbrown/janus-rete/pattern"
)

// BuildError is raised when the network cannot be extended with a new
// pattern: the pattern id was already added, or the pattern references a
// helper that is unknown or not yet added (spec.md §4.8 step 4), per
// spec.md §7's "Network build" error kind (fatal, network left untouched
// before raising). Node sharing goes through a keyed index, so no
// duplicate-successor error is raised.
type BuildError struct {
	Reasons []string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("network: build failed: %s", strings.Join(e.Reasons, "; "))
}

// Builder incrementally compiles patterns into a shared discrimination
// network, per spec.md §4.8.
type Builder struct {
	root *RootNode

	// successor index for structural sharing: (parent node id, node
	// description) -> child node, spec.md §4.8's "Sharing discipline".
	shared map[string]Node

	terminals  map[string]*StoreNode // pattern id -> terminal store node
	patternIDs map[*pattern.Pattern]string
	order      []string

	trace *trace.Collector
}

// SetTrace installs a trace collector that records every node's accept/
// reject decision during subsequent Propagate calls. Pass nil to disable.
func (b *Builder) SetTrace(c *trace.Collector) { b.trace = c }

// NewBuilder creates an empty network with just a root node.
func NewBuilder() *Builder {
	return &Builder{
		root:       newRoot(),
		shared:     map[string]Node{},
		terminals:  map[string]*StoreNode{},
		patternIDs: map[*pattern.Pattern]string{},
	}
}

// Root exposes the network's root node, from which the compiled graph
// can be walked.
func (b *Builder) Root() *RootNode { return b.root }

// Terminal returns the registered terminal store node for a previously
// added pattern id, if any.
func (b *Builder) Terminal(patternID string) (*StoreNode, bool) {
	s, ok := b.terminals[patternID]
	return s, ok
}

func (b *Builder) descendOrCreate(parent Node, key string, build func(id string) Node) Node {
	full := parent.ID() + ">" + key
	if existing, ok := b.shared[full]; ok {
		return existing
	}
	n := build(full)
	parent.AddSuccessor(n)
	b.shared[full] = n
	return n
}

// joinItem is one accumulated source node for the final greedy merge
// join: the canonical variables it contributes, and the output node to
// merge from.
type joinItem struct {
	key  string
	vars []string
	node Node
}

// negRef is a staged is_not_in reference: the canonical variables shared
// with the enclosing pattern and the store of the helper's remapped
// matches to check the joined stream against.
type negRef struct {
	vars  []string
	store *StoreNode
}

// AddPattern compiles p into the network under id, implementing spec.md
// §4.8's incremental build algorithm: per-variable checkTYPE->checkATTR->
// store->alias chains (shared structurally across patterns), per-edge
// checkEDGE->store->alias chains, is_in/is_not_in references to
// previously-added patterns, and a greedy left-deep merge join over every
// accumulated variable tuple.
func (b *Builder) AddPattern(id string, p *pattern.Pattern) error {
	if _, dup := b.terminals[id]; dup {
		return &BuildError{Reasons: []string{fmt.Sprintf("network: pattern id %q already added", id)}}
	}

	qd := compile(p)

	var reasons []string
	for _, ref := range qd.references {
		helper, ok := p.Helpers[ref.helperName]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("network: pattern %q references unknown helper %q", id, ref.helperName))
			continue
		}
		if _, ok := b.patternIDs[helper]; !ok {
			reasons = append(reasons, fmt.Sprintf("network: pattern %q references helper %q, which has not been added to the network yet", id, ref.helperName))
		}
	}
	if len(reasons) > 0 {
		return &BuildError{Reasons: reasons}
	}

	var items []joinItem

	// Step 2: one checkTYPE -> checkATTR -> store(1) -> alias chain per
	// variable.
	for _, v := range qd.vars {
		canon := id + ":" + v
		typeKey := fmt.Sprintf("type(%s)", qd.types[v])
		typeNode := b.descendOrCreate(b.root, typeKey, func(nid string) Node {
			return &TypeCheckNode{nodeBase: nodeBase{id: nid}, Class: qd.types[v]}
		})

		attrText := attrChainKey(qd.attrs[v])
		attrNode := b.descendOrCreate(typeNode, "attr("+attrText+")", func(nid string) Node {
			var preds []attrPredicate
			for _, a := range qd.attrs[v] {
				preds = append(preds, attrPredicate{expr: a.node, text: a.text})
			}
			return &AttrCheckNode{nodeBase: nodeBase{id: nid}, Var: v, Predicates: preds}
		})

		storeNode := b.descendOrCreate(attrNode, "store(1)", func(nid string) Node {
			return &StoreNode{nodeBase: nodeBase{id: nid}, Arity: 1}
		})

		// alias nodes are per-pattern (the remap target is pattern-specific)
		// so they are never shared across patterns.
		aliasID := fmt.Sprintf("%s>alias(%s->%s)", storeNode.ID(), v, canon)
		alias := &AliasNode{nodeBase: nodeBase{id: aliasID}, Remap: map[string]string{v: canon}}
		storeNode.AddSuccessor(alias)

		items = append(items, joinItem{key: canon, vars: []string{canon}, node: alias})
	}

	// Step 3: one checkEDGE -> store(2) -> alias chain per edge.
	for _, e := range qd.edges {
		edgeKeyStr := fmt.Sprintf("edge(%s,%s)", e.attr1, e.attr2)
		edgeNode := b.descendOrCreate(b.root, edgeKeyStr, func(nid string) Node {
			return &EdgeCheckNode{nodeBase: nodeBase{id: nid}, Attr1: e.attr1, Attr2: e.attr2}
		})
		storeNode := b.descendOrCreate(edgeNode, "store(2)", func(nid string) Node {
			return &StoreNode{nodeBase: nodeBase{id: nid}, Arity: 2}
		})
		c1, c2 := id+":"+e.v1, id+":"+e.v2
		aliasID := fmt.Sprintf("%s>alias(%s,%s)", storeNode.ID(), c1, c2)
		alias := &AliasNode{nodeBase: nodeBase{id: aliasID}, Remap: map[string]string{e.v1: c1, e.v2: c2}}
		storeNode.AddSuccessor(alias)
		items = append(items, joinItem{key: pairKey(c1, c2), vars: []string{c1, c2}, node: alias})
	}

	// Step 4: is_in / is_not_in references. A positive reference joins the
	// helper's remapped matches in as one more item; a negated reference
	// instead stores the helper's remapped matches for a NotInNode to
	// filter the joined main stream against, per spec.md §4.8's is_not_in
	// node.
	var negRefs []negRef
	for _, ref := range qd.references {
		helper := p.Helpers[ref.helperName]
		helperID := b.patternIDs[helper]
		terminal := b.terminals[helperID]
		canonRemap := map[string]string{}
		var vars []string
		for helperVar, enclosingVar := range ref.remap {
			target := id + ":" + enclosingVar
			canonRemap[helperID+":"+helperVar] = target
			vars = append(vars, target)
		}
		sort.Strings(vars)
		aliasID := fmt.Sprintf("%s>ref-alias(%s,notIn=%v)", terminal.ID(), ref.helperName, ref.negated)
		alias := &AliasNode{nodeBase: nodeBase{id: aliasID}, Remap: canonRemap, IsNotIn: ref.negated}
		terminal.AddSuccessor(alias)

		if ref.negated {
			refStore := &StoreNode{nodeBase: nodeBase{id: aliasID + ">store"}, Arity: len(vars)}
			alias.AddSuccessor(refStore)
			negRefs = append(negRefs, negRef{vars: vars, store: refStore})
			continue
		}
		items = append(items, joinItem{key: "ref:" + ref.helperName, vars: vars, node: alias})
	}

	// Steps 5-6: greedy left-deep merge join over every accumulated tuple.
	terminalNode := b.joinAll(id, items)

	// Each is_not_in reference filters the already-joined stream: a token
	// is forwarded only while the helper's remapped store has no matching
	// tuple on the shared variables.
	for i, nr := range negRefs {
		notIn := &NotInNode{
			nodeBase:   nodeBase{id: fmt.Sprintf("%s>is_not_in(%d)", id, i)},
			JoinVars:   nr.vars,
			Referenced: nr.store,
		}
		if terminalNode != nil {
			terminalNode.AddSuccessor(notIn)
		} else {
			b.root.AddSuccessor(notIn)
		}
		terminalNode = notIn
	}

	finalStore := &StoreNode{nodeBase: nodeBase{id: id + ">terminal"}, Arity: len(qd.vars)}
	if terminalNode != nil {
		terminalNode.AddSuccessor(finalStore)
	} else {
		b.root.AddSuccessor(finalStore)
	}

	b.terminals[id] = finalStore
	b.patternIDs[p] = id
	b.order = append(b.order, id)
	return nil
}

func attrChainKey(preds []attrPred) string {
	var texts []string
	for _, p := range preds {
		texts = append(texts, p.text)
	}
	sort.Strings(texts)
	return strings.Join(texts, "&&")
}

func pairKey(a, b string) string {
	if a < b {
		return a + "," + b
	}
	return b + "," + a
}

// joinAll implements spec.md §4.8 step 6's greedy join ordering: starting
// from the item whose key sorts first, repeatedly pick the remaining
// item sharing the most canonical variables with the already-chosen
// prefix (ties broken lexicographically by key), chaining each pick with
// a merge node. Returns nil if there is nothing to join.
func (b *Builder) joinAll(patternID string, items []joinItem) Node {
	if len(items) == 0 {
		return nil
	}
	sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })

	chosen := []joinItem{items[0]}
	remaining := items[1:]
	chosenVars := append([]string(nil), items[0].vars...)

	for len(remaining) > 0 {
		bestIdx, bestShared := 0, -1
		for i, it := range remaining {
			shared := sharedCount(chosenVars, it.vars)
			if shared > bestShared {
				bestShared, bestIdx = shared, i
			}
		}
		next := remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		chosen = append(chosen, next)
		chosenVars = append(chosenVars, next.vars...)
	}

	if len(chosen) == 1 {
		return chosen[0].node
	}

	acc := chosen[0].node
	accVars := append([]string(nil), chosen[0].vars...)
	for i := 1; i < len(chosen); i++ {
		it := chosen[i]
		joinVars := intersect(accVars, it.vars)
		mergeID := fmt.Sprintf("%s>merge(%d)", patternID, i)
		merge := &MergeNode{nodeBase: nodeBase{id: mergeID}, JoinVars: joinVars}
		acc.AddSuccessor(tappedSide{merge, LeftSide})
		it.node.AddSuccessor(tappedSide{merge, RightSide})
		acc = merge
		accVars = append(accVars, it.vars...)
	}
	return acc
}

func sharedCount(a, b []string) int {
	set := map[string]bool{}
	for _, v := range a {
		set[v] = true
	}
	n := 0
	for _, v := range b {
		if set[v] {
			n++
		}
	}
	return n
}

func intersect(a, b []string) []string {
	set := map[string]bool{}
	for _, v := range a {
		set[v] = true
	}
	var out []string
	for _, v := range b {
		if set[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// tappedSide wraps a Node so that tokens forwarded to it are tagged with
// which merge input slot they arrived on, letting MergeNode.Accept serve
// both of its two inputs through the same method.
type tappedSide struct {
	target Node
	side   Side
}

func (t tappedSide) ID() string          { return t.target.ID() }
func (t tappedSide) Successors() []Node  { return t.target.Successors() }
func (t tappedSide) AddSuccessor(n Node) { t.target.AddSuccessor(n) }
func (t tappedSide) Accept(tok Token) []Token {
	tok.Side = t.side
	return t.target.Accept(tok)
}
