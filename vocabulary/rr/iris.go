package rr

// Namespace is the base IRI of the R2RML vocabulary.
const Namespace = "http://www.w3.org/ns/r2rml#"

// Class IRIs for R2RML mapping entities.
const (
	// TriplesMap is the class of triples maps.
	TriplesMap = Namespace + "TriplesMap"

	// SubjectMapClass is the class of subject maps.
	SubjectMapClass = Namespace + "SubjectMap"

	// PredicateObjectMapClass is the class of predicate-object maps.
	PredicateObjectMapClass = Namespace + "PredicateObjectMap"

	// PredicateMapClass is the class of predicate maps.
	PredicateMapClass = Namespace + "PredicateMap"

	// ObjectMapClass is the class of object maps.
	ObjectMapClass = Namespace + "ObjectMap"

	// RefObjectMapClass is the class of referencing object maps.
	RefObjectMapClass = Namespace + "RefObjectMap"

	// GraphMapClass is the class of graph maps.
	GraphMapClass = Namespace + "GraphMap"

	// JoinClass is the class of join conditions.
	JoinClass = Namespace + "Join"
)

// Predicate IRIs connecting mapping entities.
const (
	// SubjectMap links a triples map to its subject map.
	SubjectMap = Namespace + "subjectMap"

	// Subject is the constant shortcut for rr:subjectMap.
	Subject = Namespace + "subject"

	// PredicateObjectMap links a triples map to a predicate-object map.
	PredicateObjectMap = Namespace + "predicateObjectMap"

	// PredicateMap links a predicate-object map to a predicate map.
	PredicateMap = Namespace + "predicateMap"

	// Predicate is the constant shortcut for rr:predicateMap.
	Predicate = Namespace + "predicate"

	// ObjectMap links a predicate-object map to an object map.
	ObjectMap = Namespace + "objectMap"

	// Object is the constant shortcut for rr:objectMap.
	Object = Namespace + "object"

	// GraphMap links a subject map or predicate-object map to a graph map.
	GraphMap = Namespace + "graphMap"

	// Graph is the constant shortcut for rr:graphMap.
	Graph = Namespace + "graph"

	// ParentTriplesMap links a referencing object map to its parent
	// triples map. Its presence is the discriminator between object maps
	// and referencing object maps.
	ParentTriplesMap = Namespace + "parentTriplesMap"

	// JoinCondition links a referencing object map to a join condition.
	JoinCondition = Namespace + "joinCondition"

	// Child is the child-side expression of a join condition.
	Child = Namespace + "child"

	// Parent is the parent-side expression of a join condition.
	Parent = Namespace + "parent"
)

// Term map attribute predicates.
const (
	// Constant is the constant value of a term map.
	Constant = Namespace + "constant"

	// Template is the string template of a term map.
	Template = Namespace + "template"

	// Column is the column reference of an R2RML term map. The loader
	// accepts it as a synonym for rml:reference.
	Column = Namespace + "column"

	// TermType declares the kind of RDF term a term map generates.
	TermType = Namespace + "termType"

	// Datatype declares the literal datatype of an object map.
	Datatype = Namespace + "datatype"

	// Language declares the literal language tag of an object map.
	Language = Namespace + "language"

	// Class declares an rdf:type to be emitted for generated subjects.
	Class = Namespace + "class"
)

// Term type IRIs.
const (
	// IRI is the term type for IRI terms.
	IRI = Namespace + "IRI"

	// BlankNode is the term type for blank node terms.
	BlankNode = Namespace + "BlankNode"

	// Literal is the term type for literal terms.
	Literal = Namespace + "Literal"
)

// DefaultGraph is the IRI denoting the default graph in graph maps.
const DefaultGraph = Namespace + "defaultGraph"
