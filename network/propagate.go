package network

import (
	"time"

	"github.com/wbrown/janus-rete/network/trace"
)

// Propagate injects tok at the root and runs it to completion synchronously,
// per spec.md §5: "when an input delta is injected at root, propagation
// runs to completion before the next delta is accepted". There are no
// suspension points; each node's output fans out to every successor.
func (b *Builder) Propagate(tok Token) {
	for _, out := range b.visit(b.root, tok) {
		for _, s := range b.root.Successors() {
			b.propagateInto(s, out)
		}
	}
}

func (b *Builder) propagateInto(n Node, tok Token) {
	for _, out := range b.visit(n, tok) {
		for _, s := range n.Successors() {
			b.propagateInto(s, out)
		}
	}
}

// visit calls n.Accept, recording a trace.Event when a collector is
// installed (b.trace is nil-safe: Record is a no-op on a nil receiver).
func (b *Builder) visit(n Node, tok Token) []Token {
	start := time.Now()
	out := n.Accept(tok)
	b.trace.Record(trace.Event{
		NodeID:      n.ID(),
		Description: describeNode(n),
		Tag:         tagName(tok.Tag),
		Accepted:    len(out) > 0,
		Latency:     time.Since(start),
	})
	return out
}

func tagName(tag TokenTag) string {
	if tag == TokenRemove {
		return "remove"
	}
	return "add"
}
