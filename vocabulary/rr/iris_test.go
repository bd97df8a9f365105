package rr

import (
	"strings"
	"testing"
)

func TestNamespaceConsistency(t *testing.T) {
	terms := []string{
		TriplesMap, SubjectMap, Subject, PredicateObjectMap, PredicateMap,
		Predicate, ObjectMap, Object, GraphMap, Graph, ParentTriplesMap,
		JoinCondition, Child, Parent, Constant, Template, Column, TermType,
		Datatype, Language, Class, IRI, BlankNode, Literal, DefaultGraph,
	}
	for _, term := range terms {
		if !strings.HasPrefix(term, Namespace) {
			t.Errorf("%s is not in the rr namespace", term)
		}
		if strings.ContainsAny(strings.TrimPrefix(term, Namespace), "#/") {
			t.Errorf("%s has a malformed local name", term)
		}
	}
}
