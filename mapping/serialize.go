package mapping

import (
	"fmt"

	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
)

// Serialize emits the RDF description of the given triples maps,
// including every reachable sub-entity and referenced parent triples
// map. Entities without an IRI identity get deterministic blank node
// labels assigned in emission order, so serializing an unchanged
// model twice yields identical graphs.
func Serialize(maps []*model.TriplesMap) *rdfterm.Graph {
	s := &serializer{
		g:       rdfterm.NewGraph(),
		nodes:   make(map[any]rdf.Subject),
		emitted: make(map[any]bool),
	}
	for _, tm := range maps {
		s.triplesMap(tm)
	}
	return s.g
}

type serializer struct {
	g       *rdfterm.Graph
	nodes   map[any]rdf.Subject
	emitted map[any]bool
	next    int
}

type resourceIdentity interface {
	ResourceID() string
	BlankResource() bool
}

// resourceOf returns the graph resource for an entity, assigning a
// fresh deterministic blank label when the entity has no IRI.
func (s *serializer) resourceOf(ent any) rdf.Subject {
	if res, ok := s.nodes[ent]; ok {
		return res
	}

	var res rdf.Subject
	if ident, ok := ent.(resourceIdentity); ok && ident.ResourceID() != "" && !ident.BlankResource() {
		if iri, err := rdf.NewIRI(ident.ResourceID()); err == nil {
			res = iri
		}
	}
	if res == nil {
		b, err := rdf.NewBlank(fmt.Sprintf("m%d", s.next))
		if err != nil {
			panic("mapping: blank node: " + err.Error())
		}
		s.next++
		res = b
	}
	s.nodes[ent] = res
	return res
}

func (s *serializer) add(subj rdf.Subject, pred rdf.IRI, obj rdf.Object) {
	s.g.Add(rdfterm.Statement{Subject: subj, Predicate: pred, Object: obj})
}

func (s *serializer) triplesMap(tm *model.TriplesMap) rdf.Subject {
	res := s.resourceOf(tm)
	if s.emitted[tm] {
		return res
	}
	s.emitted[tm] = true

	s.add(res, predType, classTriplesMap)

	if tm.LogicalSource != nil {
		s.add(res, predLogicalSource, s.logicalSource(tm.LogicalSource))
	}
	if tm.SubjectMap != nil {
		s.add(res, predSubjectMap, s.subjectMap(tm.SubjectMap))
	}
	for _, pom := range tm.PredicateObjectMaps {
		s.add(res, predPredicateObjectMap, s.predicateObjectMap(pom))
	}
	return res
}

func (s *serializer) logicalSource(ls *model.LogicalSource) rdf.Subject {
	res := s.resourceOf(ls)
	if s.emitted[ls] {
		return res
	}
	s.emitted[ls] = true

	s.add(res, predType, classLogicalSource)
	s.emitProperties(res, ls, logicalSourceProperties)

	switch src := ls.Source.(type) {
	case string:
		s.add(res, predSource, mustLiteral(src))
	case *model.Stream:
		streamRes := s.resourceOf(src)
		s.add(res, predSource, streamRes)
		s.add(streamRes, predType, classStream)
		if src.Name != "" {
			s.add(streamRes, predStreamName, mustLiteral(src.Name))
		}
	case *model.FileSource:
		fileRes := s.resourceOf(src)
		s.add(res, predSource, fileRes)
		s.add(fileRes, predType, classFileSource)
		if src.URL != "" {
			s.add(fileRes, predURL, mustLiteral(src.URL))
		}
	}
	return res
}

func (s *serializer) subjectMap(sm *model.SubjectMap) rdf.Subject {
	res := s.resourceOf(sm)
	if s.emitted[sm] {
		return res
	}
	s.emitted[sm] = true

	s.add(res, predType, classSubjectMap)
	s.emitTermMap(res, sm)
	for _, class := range sm.Classes {
		s.add(res, predClass, class)
	}
	for _, gm := range sm.GraphMaps {
		s.add(res, predGraphMap, s.graphMap(gm))
	}
	return res
}

func (s *serializer) predicateObjectMap(pom *model.PredicateObjectMap) rdf.Subject {
	res := s.resourceOf(pom)
	if s.emitted[pom] {
		return res
	}
	s.emitted[pom] = true

	s.add(res, predType, classPOM)
	for _, pm := range pom.PredicateMaps {
		pmRes := s.resourceOf(pm)
		s.add(res, predPredicateMap, pmRes)
		s.add(pmRes, predType, classPredicateMap)
		s.emitTermMap(pmRes, pm)
	}
	for _, om := range pom.ObjectMaps {
		omRes := s.resourceOf(om)
		s.add(res, predObjectMap, omRes)
		s.add(omRes, predType, classObjectMap)
		s.emitTermMap(omRes, om)
		s.emitProperties(omRes, om, objectMapProperties)
	}
	for _, rom := range pom.RefObjectMaps {
		s.add(res, predObjectMap, s.refObjectMap(rom))
	}
	for _, gm := range pom.GraphMaps {
		s.add(res, predGraphMap, s.graphMap(gm))
	}
	return res
}

func (s *serializer) refObjectMap(rom *model.RefObjectMap) rdf.Subject {
	res := s.resourceOf(rom)
	if s.emitted[rom] {
		return res
	}
	s.emitted[rom] = true

	s.add(res, predType, classRefObjectMap)
	if rom.ParentTriplesMap != nil {
		s.add(res, predParentTriplesMap, s.triplesMap(rom.ParentTriplesMap))
	}
	for i := range rom.JoinConditions {
		jc := &rom.JoinConditions[i]
		jcRes := s.resourceOf(jc)
		s.add(res, predJoinCondition, jcRes)
		s.add(jcRes, predType, classJoin)
		s.add(jcRes, predChild, mustLiteral(jc.Child))
		s.add(jcRes, predParent, mustLiteral(jc.Parent))
	}
	return res
}

func (s *serializer) graphMap(gm *model.GraphMap) rdf.Subject {
	res := s.resourceOf(gm)
	if s.emitted[gm] {
		return res
	}
	s.emitted[gm] = true

	s.add(res, predType, classGraphMap)
	s.emitTermMap(res, gm)
	return res
}

// emitTermMap writes the shared term map attributes plus the
// structural function value edge.
func (s *serializer) emitTermMap(res rdf.Subject, ent any) {
	s.emitProperties(res, ent, termMapProperties)
	if fv := asTermMap(ent).FunctionValue; fv != nil {
		s.add(res, predFunctionValue, s.triplesMap(fv))
	}
}

// emitProperties runs an entity's schema table in reverse: one triple
// per present value.
func (s *serializer) emitProperties(res rdf.Subject, ent any, props []property) {
	for _, p := range props {
		for _, v := range p.get(ent) {
			obj, ok := propertyObject(v, p.kind)
			if !ok {
				continue
			}
			s.add(res, p.pred, obj)
		}
	}
}

func propertyObject(v any, kind valueKind) (rdf.Object, bool) {
	switch kind {
	case kindString:
		return mustLiteral(v.(string)), true
	case kindIRIValue:
		return v.(rdf.IRI), true
	case kindTerm:
		obj, ok := v.(rdf.Object)
		return obj, ok
	case kindTermType:
		iri, ok := termTypeToIRI(v.(model.TermType))
		return iri, ok
	default:
		return nil, false
	}
}

func mustLiteral(v string) rdf.Literal {
	lit, err := rdf.NewLiteral(v)
	if err != nil {
		panic("mapping: literal: " + err.Error())
	}
	return lit
}
