package network

import "github.com/wbrown/janus-rete/graph"

// TokenTag distinguishes an addition from a retraction, per spec.md §5's
// "deletion is a remove delta that retracts dependent tokens".
type TokenTag int

const (
	TokenAdd TokenTag = iota
	TokenRemove
)

// TokenSpecies distinguishes a single-entity token from an edge token,
// per spec.md §4.8's node taxonomy (checkTYPE/checkATTR consume node
// tokens, checkEDGE consumes edge tokens).
type TokenSpecies int

const (
	NodeToken TokenSpecies = iota
	EdgeToken
)

// Side tags which of a merge node's two input slots a token arrived on.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

// Token is the unit of propagation through the network, per spec.md §3
// "Tokens". A NodeToken carries a single entity bound to Var; an
// EdgeToken carries both endpoints of a relation. Bindings accumulates
// the canonical "<patternId>:v" -> entity map built up by alias and
// merge nodes as a token moves deeper into the network.
type Token struct {
	Tag     TokenTag
	Species TokenSpecies
	Side    Side

	Var    string
	Entity *graph.Entity

	V1, V2 string
	E1, E2 *graph.Entity

	Bindings map[string]*graph.Entity
}

func (t Token) withBindings(b map[string]*graph.Entity) Token {
	t.Bindings = b
	return t
}

func cloneBindings(b map[string]*graph.Entity) map[string]*graph.Entity {
	out := make(map[string]*graph.Entity, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
