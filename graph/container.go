package graph

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-rete/idgen"
)

// GraphContainer is an immutable, id-unique bundle of entities forming a
// single connected component reachable from a seed entity, per spec.md
// §3/§4.4's GraphContainer requirements.
type GraphContainer struct {
	entities map[string]*Entity // id -> entity
	order    []string           // insertion order, for deterministic traversal
}

// connected performs a BFS over seed's relations (both directions, since
// Entity already keeps inverses symmetric) and returns every reachable
// entity. Entities are tracked by identity, not id, so two distinct
// entities sharing an id are both returned.
func connected(seed *Entity) []*Entity {
	seen := map[*Entity]bool{seed: true}
	out := []*Entity{seed}
	queue := []*Entity{seed}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, relName := range cur.RelationNames() {
			for _, other := range cur.Related(relName) {
				if !seen[other] {
					seen[other] = true
					out = append(out, other)
					queue = append(queue, other)
				}
			}
		}
	}
	return out
}

// NewGraphContainer builds a GraphContainer from seed's connected
// component. Fails if any two reachable entities share an id, per
// spec.md §3's "every entity's id is unique within its GraphContainer"
// invariant and §8's Connectedness testable property.
func NewGraphContainer(seed *Entity) (*GraphContainer, error) {
	if seed == nil {
		return nil, fmt.Errorf("graph: NewGraphContainer: seed must not be nil")
	}
	entities := connected(seed)

	gc := &GraphContainer{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if _, dup := gc.entities[e.ID]; dup {
			return nil, fmt.Errorf("graph: NewGraphContainer: duplicate entity id %q in connected component", e.ID)
		}
		gc.entities[e.ID] = e
		gc.order = append(gc.order, e.ID)
	}
	return gc, nil
}

// Entities returns the container's entities in a stable, deterministic
// order (the order they were first visited from the seed).
func (gc *GraphContainer) Entities() []*Entity {
	out := make([]*Entity, 0, len(gc.order))
	for _, id := range gc.order {
		out = append(out, gc.entities[id])
	}
	return out
}

// Get returns the entity with the given id, if present.
func (gc *GraphContainer) Get(id string) (*Entity, bool) {
	e, ok := gc.entities[id]
	return e, ok
}

// Len returns the number of entities in the container.
func (gc *GraphContainer) Len() int { return len(gc.entities) }

// Duplicate produces a structurally identical GraphContainer with ids
// remapped through varmap; entities not named in varmap receive fresh
// ids from gen (idgen.Default if nil), per spec.md §3's
// "duplicate(varmap)" operation.
func (gc *GraphContainer) Duplicate(varmap map[string]string, gen *idgen.Generator) (*GraphContainer, error) {
	if gen == nil {
		gen = idgen.Default
	}
	idFor := func(old string) string {
		if nid, ok := varmap[old]; ok {
			return nid
		}
		return gen.Next()
	}

	fresh := make(map[string]*Entity, len(gc.entities))
	for _, id := range gc.order {
		old := gc.entities[id]
		ne := &Entity{
			ID:        idFor(old.ID),
			Class:     old.Class,
			attrs:     old.Attrs(),
			relations: make(map[string]map[string]*Entity),
			schema:    make(map[string]RelationDescriptor),
		}
		for name, d := range old.schema {
			ne.schema[name] = d
		}
		fresh[old.ID] = ne
	}
	for _, id := range gc.order {
		old := gc.entities[id]
		ne := fresh[old.ID]
		for _, relName := range old.RelationNames() {
			m, ok := old.relations[relName]
			if !ok {
				continue
			}
			for oid := range m {
				if target, ok := fresh[oid]; ok {
					ne.rawLink(relName, target)
				}
			}
		}
	}

	seed := fresh[gc.entities[gc.order[0]].ID]
	return NewGraphContainer(seed)
}

// StripAttrs removes literal attributes from every entity in the
// container, returning them as a side table keyed by entity id (the
// pattern compiler uses this to synthesize equality constraints), per
// spec.md §3's strip_attrs operation.
func (gc *GraphContainer) StripAttrs() map[string]map[string]interface{} {
	side := make(map[string]map[string]interface{}, len(gc.entities))
	for _, id := range gc.order {
		e := gc.entities[id]
		attrs := e.Attrs()
		if len(attrs) == 0 {
			continue
		}
		side[id] = attrs
		for name := range attrs {
			e.DeleteAttr(name)
		}
	}
	return side
}

// SortedIDs returns the container's entity ids in lexicographic order,
// used by canon for deterministic partition refinement.
func (gc *GraphContainer) SortedIDs() []string {
	ids := make([]string, 0, len(gc.entities))
	for id := range gc.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
