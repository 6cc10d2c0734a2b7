// Package graph implements the entity/attribute/relation data model of
// spec.md §3: typed entities linked by bidirectional relations, bundled
// into immutable, connected, uniquely-id'd GraphContainers.
package graph

import (
	"fmt"
	"sort"

	"github.com/wbrown/janus-rete/idgen"
)

// Multiplicity describes the cardinality of a relation, mirroring the
// descriptor hierarchy of original_source/wc_rules/base.py
// (OneToOneAttribute, ManyToOneAttribute, OneToManyAttribute,
// ManyToManyAttribute), generalized to an enum per spec.md §3.
type Multiplicity int

const (
	OneToOne Multiplicity = iota
	ManyToOne
	OneToMany
	ManyToMany
)

// appends reports whether this side of the relation holds a collection
// rather than a single entity.
func (m Multiplicity) appends() bool {
	return m == OneToMany || m == ManyToMany
}

func (m Multiplicity) inverse() Multiplicity {
	switch m {
	case OneToOne:
		return OneToOne
	case ManyToOne:
		return OneToMany
	case OneToMany:
		return ManyToOne
	default:
		return ManyToMany
	}
}

// RelationDescriptor declares one named relation on a class: its
// multiplicity and the name under which the inverse is visible on the
// related entity. Grounded on datalog/types.go's Keyword-as-attribute-
// schema shape, generalized from scalar EAV facts to entity-to-entity
// edges per spec.md §3.
type RelationDescriptor struct {
	Name         string
	RelatedName  string
	Multiplicity Multiplicity
}

// Entity is a typed node: a stable id, a class name, literal attributes,
// and relations to other entities. Relations are kept symmetric: setting
// A.r = B always implies B.r⁻¹ ∋ A (spec.md §3 invariant).
type Entity struct {
	ID    string
	Class string

	attrs     map[string]interface{}
	relations map[string]map[string]*Entity // relation name -> entity id -> entity
	schema    map[string]RelationDescriptor
}

// NewEntity constructs an entity of the given class. If id is empty, one
// is drawn from gen (idgen.Default if gen is nil).
func NewEntity(class string, id string, gen *idgen.Generator) *Entity {
	if id == "" {
		if gen == nil {
			gen = idgen.Default
		}
		id = gen.Next()
	}
	return &Entity{
		ID:        id,
		Class:     class,
		attrs:     make(map[string]interface{}),
		relations: make(map[string]map[string]*Entity),
		schema:    make(map[string]RelationDescriptor),
	}
}

// DeclareRelation registers a relation descriptor on this entity's class
// shape. Only the entity Link is called on needs the descriptor; Link
// declares the inverse descriptor on the other endpoint itself.
func (e *Entity) DeclareRelation(d RelationDescriptor) {
	e.schema[d.Name] = d
}

// SetAttr assigns a literal attribute.
func (e *Entity) SetAttr(name string, value interface{}) {
	e.attrs[name] = value
}

// Attr returns a literal attribute value and whether it was present.
func (e *Entity) Attr(name string) (interface{}, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// GetAttr implements expr.AttrGetter: a literal attribute takes priority,
// falling back to a declared relation (returned as a []interface{} of
// related *Entity values, so that list-aware builtins like len() and the
// aggregates can walk it).
func (e *Entity) GetAttr(name string) (interface{}, bool) {
	if v, ok := e.attrs[name]; ok {
		return v, true
	}
	if _, declared := e.schema[name]; declared {
		related := e.Related(name)
		out := make([]interface{}, len(related))
		for i, r := range related {
			out[i] = r
		}
		return out, true
	}
	return nil, false
}

// Attrs returns a defensive copy of the literal attribute map.
func (e *Entity) Attrs() map[string]interface{} {
	out := make(map[string]interface{}, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = v
	}
	return out
}

// DeleteAttr removes a literal attribute.
func (e *Entity) DeleteAttr(name string) {
	delete(e.attrs, name)
}

// Link connects e to other via the named relation, keeping the inverse
// side in sync. If the relation's multiplicity is *-to-one on either
// side, any existing link on that side is replaced first.
func (e *Entity) Link(relation string, other *Entity) error {
	d, ok := e.schema[relation]
	if !ok {
		return fmt.Errorf("graph: entity %q has no relation %q declared", e.ID, relation)
	}
	inv := RelationDescriptor{Name: d.RelatedName, RelatedName: d.Name, Multiplicity: d.Multiplicity.inverse()}
	other.schema[inv.Name] = inv

	if !d.Multiplicity.appends() {
		e.clearRelation(relation)
	}
	if !inv.Multiplicity.appends() {
		other.clearRelation(inv.Name)
	}

	e.rawLink(relation, other)
	other.rawLink(inv.Name, e)
	return nil
}

func (e *Entity) rawLink(relation string, other *Entity) {
	m, ok := e.relations[relation]
	if !ok {
		m = make(map[string]*Entity)
		e.relations[relation] = m
	}
	m[other.ID] = other
}

func (e *Entity) clearRelation(relation string) {
	existing, ok := e.relations[relation]
	if !ok {
		return
	}
	d := e.schema[relation]
	for _, other := range existing {
		if om, ok := other.relations[d.RelatedName]; ok {
			delete(om, e.ID)
		}
	}
	delete(e.relations, relation)
}

// Unlink removes the relation between e and other in both directions.
func (e *Entity) Unlink(relation string, other *Entity) {
	d, ok := e.schema[relation]
	if !ok {
		return
	}
	if m, ok := e.relations[relation]; ok {
		delete(m, other.ID)
	}
	if om, ok := other.relations[d.RelatedName]; ok {
		delete(om, e.ID)
	}
}

// Related returns the entities linked via relation, in id-sorted order
// for deterministic iteration (spec.md §9 Design Notes).
func (e *Entity) Related(relation string) []*Entity {
	m := e.relations[relation]
	out := make([]*Entity, 0, len(m))
	for _, o := range m {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InverseRelationName returns the name under which relation is visible on
// the other endpoint of the link, if relation is declared.
func (e *Entity) InverseRelationName(relation string) (string, bool) {
	d, ok := e.schema[relation]
	if !ok {
		return "", false
	}
	return d.RelatedName, true
}

// RelationNames returns the declared relation names in sorted order.
func (e *Entity) RelationNames() []string {
	names := make([]string, 0, len(e.schema))
	for n := range e.schema {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
