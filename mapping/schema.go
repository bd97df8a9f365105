package mapping

import (
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/vocabulary/carml"
	"github.com/c360studio/rmlstream/vocabulary/fnml"
	"github.com/c360studio/rmlstream/vocabulary/rdfns"
	"github.com/c360studio/rmlstream/vocabulary/rml"
	"github.com/c360studio/rmlstream/vocabulary/rr"
	"github.com/knakk/rdf"
)

// Predicates and classes of the recognized vocabularies, as terms.
var (
	predType = mustIRI(rdfns.Type)

	predLogicalSource        = mustIRI(rml.LogicalSource)
	predSource               = mustIRI(rml.Source)
	predReferenceFormulation = mustIRI(rml.ReferenceFormulation)
	predIterator             = mustIRI(rml.Iterator)
	predReference            = mustIRI(rml.Reference)

	predSubjectMap         = mustIRI(rr.SubjectMap)
	predSubject            = mustIRI(rr.Subject)
	predPredicateObjectMap = mustIRI(rr.PredicateObjectMap)
	predPredicateMap       = mustIRI(rr.PredicateMap)
	predPredicate          = mustIRI(rr.Predicate)
	predObjectMap          = mustIRI(rr.ObjectMap)
	predObject             = mustIRI(rr.Object)
	predGraphMap           = mustIRI(rr.GraphMap)
	predGraph              = mustIRI(rr.Graph)
	predConstant           = mustIRI(rr.Constant)
	predTemplate           = mustIRI(rr.Template)
	predColumn             = mustIRI(rr.Column)
	predTermType           = mustIRI(rr.TermType)
	predDatatype           = mustIRI(rr.Datatype)
	predLanguage           = mustIRI(rr.Language)
	predClass              = mustIRI(rr.Class)
	predParentTriplesMap   = mustIRI(rr.ParentTriplesMap)
	predJoinCondition      = mustIRI(rr.JoinCondition)
	predChild              = mustIRI(rr.Child)
	predParent             = mustIRI(rr.Parent)

	predStreamName = mustIRI(carml.StreamName)
	predURL        = mustIRI(carml.URL)

	predFunctionValue = mustIRI(fnml.FunctionValue)

	classTriplesMap    = mustIRI(rr.TriplesMap)
	classLogicalSource = mustIRI(rml.LogicalSourceClass)
	classSubjectMap    = mustIRI(rr.SubjectMapClass)
	classPOM           = mustIRI(rr.PredicateObjectMapClass)
	classPredicateMap  = mustIRI(rr.PredicateMapClass)
	classObjectMap     = mustIRI(rr.ObjectMapClass)
	classRefObjectMap  = mustIRI(rr.RefObjectMapClass)
	classGraphMap      = mustIRI(rr.GraphMapClass)
	classJoin          = mustIRI(rr.JoinClass)
	classStream        = mustIRI(carml.Stream)
	classFileSource    = mustIRI(carml.FileSource)

	termTypeIRI       = mustIRI(rr.IRI)
	termTypeBlankNode = mustIRI(rr.BlankNode)
	termTypeLiteral   = mustIRI(rr.Literal)
)

// valueKind selects how a property value converts between graph
// object and model field.
type valueKind int

const (
	kindString   valueKind = iota // literal lexical value
	kindIRIValue                  // IRI object
	kindTerm                      // any term, kept as-is
	kindTermType                  // one of the rr: term type IRIs
)

// property is one row of an entity's schema table: the predicate, its
// cardinality and value kind, and the accessors binding it to a model
// field. Loading applies set for each matching triple; serializing
// emits one triple per get result.
type property struct {
	pred rdf.IRI
	kind valueKind
	many bool
	set  func(ent any, v any)
	get  func(ent any) []any
}

// termMapProperties is the schema shared by every term map kind. The
// ent is accessed through asTermMap.
var termMapProperties = []property{
	{
		pred: predConstant, kind: kindTerm,
		set: func(ent, v any) { asTermMap(ent).Constant = v.(rdf.Term) },
		get: func(ent any) []any { return one(asTermMap(ent).Constant != nil, func() any { return asTermMap(ent).Constant }) },
	},
	{
		pred: predTemplate, kind: kindString,
		set: func(ent, v any) { asTermMap(ent).Template = v.(string) },
		get: func(ent any) []any { return one(asTermMap(ent).Template != "", func() any { return asTermMap(ent).Template }) },
	},
	{
		pred: predReference, kind: kindString,
		set: func(ent, v any) { asTermMap(ent).Reference = v.(string) },
		get: func(ent any) []any { return one(asTermMap(ent).Reference != "", func() any { return asTermMap(ent).Reference }) },
	},
	{
		// rr:column is accepted as a load-time synonym for
		// rml:reference and never serialized back.
		pred: predColumn, kind: kindString,
		set: func(ent, v any) { asTermMap(ent).Reference = v.(string) },
		get: func(any) []any { return nil },
	},
	{
		pred: predTermType, kind: kindTermType,
		set: func(ent, v any) { asTermMap(ent).TermType = v.(model.TermType) },
		get: func(ent any) []any {
			return one(asTermMap(ent).TermType != model.TermTypeUnset, func() any { return asTermMap(ent).TermType })
		},
	},
}

// objectMapProperties extends the term map schema for object maps.
var objectMapProperties = []property{
	{
		pred: predDatatype, kind: kindIRIValue,
		set: func(ent, v any) { ent.(*model.ObjectMap).Datatype = v.(rdf.IRI) },
		get: func(ent any) []any {
			om := ent.(*model.ObjectMap)
			return one(om.Datatype.String() != "", func() any { return om.Datatype })
		},
	},
	{
		pred: predLanguage, kind: kindString,
		set: func(ent, v any) { ent.(*model.ObjectMap).Language = v.(string) },
		get: func(ent any) []any {
			om := ent.(*model.ObjectMap)
			return one(om.Language != "", func() any { return om.Language })
		},
	},
}

// logicalSourceProperties covers the scalar logical source fields;
// rml:source is structural and handled by the loader directly.
var logicalSourceProperties = []property{
	{
		pred: predReferenceFormulation, kind: kindIRIValue,
		set: func(ent, v any) { ent.(*model.LogicalSource).ReferenceFormulation = v.(rdf.IRI) },
		get: func(ent any) []any {
			ls := ent.(*model.LogicalSource)
			return one(ls.ReferenceFormulation.String() != "", func() any { return ls.ReferenceFormulation })
		},
	},
	{
		pred: predIterator, kind: kindString,
		set: func(ent, v any) { ent.(*model.LogicalSource).Iterator = v.(string) },
		get: func(ent any) []any {
			ls := ent.(*model.LogicalSource)
			return one(ls.Iterator != "", func() any { return ls.Iterator })
		},
	},
}

func asTermMap(ent any) *model.TermMap {
	switch e := ent.(type) {
	case *model.SubjectMap:
		return &e.TermMap
	case *model.PredicateMap:
		return &e.TermMap
	case *model.ObjectMap:
		return &e.TermMap
	case *model.GraphMap:
		return &e.TermMap
	default:
		panic("mapping: not a term map entity")
	}
}

func one(present bool, v func() any) []any {
	if !present {
		return nil
	}
	return []any{v()}
}

func termTypeFromIRI(iri rdf.IRI) (model.TermType, bool) {
	switch iri {
	case termTypeIRI:
		return model.TermTypeIRI, true
	case termTypeBlankNode:
		return model.TermTypeBlankNode, true
	case termTypeLiteral:
		return model.TermTypeLiteral, true
	default:
		return model.TermTypeUnset, false
	}
}

func termTypeToIRI(t model.TermType) (rdf.IRI, bool) {
	switch t {
	case model.TermTypeIRI:
		return termTypeIRI, true
	case model.TermTypeBlankNode:
		return termTypeBlankNode, true
	case model.TermTypeLiteral:
		return termTypeLiteral, true
	default:
		return rdf.IRI{}, false
	}
}
