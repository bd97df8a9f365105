// Package fnml defines IRI constants for the function mapping
// vocabulary used by function term maps.
package fnml

// Namespace is the base IRI of the FnML vocabulary.
const Namespace = "http://semweb.mmlab.be/ns/fnml#"

const (
	// FunctionTermMap is the class of function-valued term maps.
	FunctionTermMap = Namespace + "FunctionTermMap"

	// FunctionValue links a term map to the triples map describing the
	// function execution that produces its values.
	FunctionValue = Namespace + "functionValue"
)
