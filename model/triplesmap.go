package model

import (
	"fmt"
	"strings"
)

// TriplesMap is one mapping rule: a logical source, a subject map and
// any number of predicate-object maps.
type TriplesMap struct {
	resource
	LogicalSource       *LogicalSource
	SubjectMap          *SubjectMap
	PredicateObjectMaps []*PredicateObjectMap
}

// Mappable reports whether the triples map can produce any triples: it
// must have a subject map with at least one value expression.
func (t *TriplesMap) Mappable() bool {
	return t.SubjectMap != nil && t.SubjectMap.IsSet()
}

// RefObjectMaps returns every referencing object map reachable from
// the triples map's predicate-object maps.
func (t *TriplesMap) RefObjectMaps() []*RefObjectMap {
	var out []*RefObjectMap
	for _, pom := range t.PredicateObjectMaps {
		out = append(out, pom.RefObjectMaps...)
	}
	return out
}

// Equal reports structural equality.
func (t *TriplesMap) Equal(other *TriplesMap) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !t.LogicalSource.Equal(other.LogicalSource) || !t.SubjectMap.Equal(other.SubjectMap) {
		return false
	}
	if len(t.PredicateObjectMaps) != len(other.PredicateObjectMaps) {
		return false
	}
	for i := range t.PredicateObjectMaps {
		if !t.PredicateObjectMaps[i].Equal(other.PredicateObjectMaps[i]) {
			return false
		}
	}
	return true
}

// String returns a debug description.
func (t *TriplesMap) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TriplesMap(%s", t.ResourceID())
	if t.LogicalSource != nil {
		fmt.Fprintf(&b, ", source=%s", t.LogicalSource)
	}
	if t.SubjectMap != nil {
		fmt.Fprintf(&b, ", subject=%s", t.SubjectMap)
	}
	fmt.Fprintf(&b, ", poms=%d)", len(t.PredicateObjectMaps))
	return b.String()
}

// PredicateObjectMap groups predicate maps with the object maps,
// referencing object maps and graph maps they apply to.
type PredicateObjectMap struct {
	resource
	PredicateMaps []*PredicateMap
	ObjectMaps    []*ObjectMap
	RefObjectMaps []*RefObjectMap
	GraphMaps     []*GraphMap
}

// Equal reports structural equality.
func (p *PredicateObjectMap) Equal(other *PredicateObjectMap) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.PredicateMaps) != len(other.PredicateMaps) ||
		len(p.ObjectMaps) != len(other.ObjectMaps) ||
		len(p.RefObjectMaps) != len(other.RefObjectMaps) {
		return false
	}
	for i := range p.PredicateMaps {
		if !p.PredicateMaps[i].Equal(other.PredicateMaps[i]) {
			return false
		}
	}
	for i := range p.ObjectMaps {
		if !p.ObjectMaps[i].Equal(other.ObjectMaps[i]) {
			return false
		}
	}
	for i := range p.RefObjectMaps {
		if !p.RefObjectMaps[i].Equal(other.RefObjectMaps[i]) {
			return false
		}
	}
	return graphMapsEqual(p.GraphMaps, other.GraphMaps)
}

// RefObjectMap is an object map whose values are the subjects of a
// parent triples map, optionally restricted by join conditions.
type RefObjectMap struct {
	resource
	ParentTriplesMap *TriplesMap
	JoinConditions   []JoinCondition
}

// Equal reports structural equality. Parent triples maps compare by
// resource identity to keep cyclic mappings terminating.
func (r *RefObjectMap) Equal(other *RefObjectMap) bool {
	if r == nil || other == nil {
		return r == other
	}
	if (r.ParentTriplesMap == nil) != (other.ParentTriplesMap == nil) {
		return false
	}
	if r.ParentTriplesMap != nil &&
		r.ParentTriplesMap.ResourceID() != other.ParentTriplesMap.ResourceID() {
		return false
	}
	if len(r.JoinConditions) != len(other.JoinConditions) {
		return false
	}
	for i := range r.JoinConditions {
		if r.JoinConditions[i] != other.JoinConditions[i] {
			return false
		}
	}
	return true
}

// String returns a debug description.
func (r *RefObjectMap) String() string {
	parent := "<nil>"
	if r.ParentTriplesMap != nil {
		parent = r.ParentTriplesMap.ResourceID()
	}
	return fmt.Sprintf("RefObjectMap(%s, parent=%s, conditions=%d)",
		r.ResourceID(), parent, len(r.JoinConditions))
}

// JoinCondition pairs a child-side and a parent-side expression that
// must evaluate to equal values for a join match.
type JoinCondition struct {
	Child  string
	Parent string
}

// String returns a debug description.
func (j JoinCondition) String() string {
	return fmt.Sprintf("Join(child=%q, parent=%q)", j.Child, j.Parent)
}

// GroupBySource groups triples maps by logical source value equality.
// Triples maps in one group share a single source pipeline.
func GroupBySource(maps []*TriplesMap) map[string][]*TriplesMap {
	groups := make(map[string][]*TriplesMap)
	for _, tm := range maps {
		key := ""
		if tm.LogicalSource != nil {
			key = tm.LogicalSource.Key()
		}
		groups[key] = append(groups[key], tm)
	}
	return groups
}

// FilterMappable returns the triples maps that can produce triples.
func FilterMappable(maps []*TriplesMap) []*TriplesMap {
	var out []*TriplesMap
	for _, tm := range maps {
		if tm.Mappable() {
			out = append(out, tm)
		}
	}
	return out
}
