package network

import "sort"

// NodeSummary is a diagnostic row describing one compiled node, used by
// cmd/patterninspect to render the network.
type NodeSummary struct {
	ID          string
	Description string
	Successors  int
}

// Nodes walks every node reachable from root and returns a summary for
// each, sorted by id, for deterministic diagnostic output.
func (b *Builder) Nodes() []NodeSummary {
	seen := map[string]bool{}
	var out []NodeSummary
	var walk func(n Node)
	walk = func(n Node) {
		if seen[n.ID()] {
			return
		}
		seen[n.ID()] = true
		out = append(out, NodeSummary{ID: n.ID(), Description: describeNode(n), Successors: len(n.Successors())})
		for _, s := range n.Successors() {
			walk(s)
		}
	}
	walk(b.root)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
