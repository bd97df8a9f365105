// Package fno defines IRI constants for the Function Ontology, used to
// describe function executions inside function term maps.
package fno

// Namespace is the base IRI of the Function Ontology.
const Namespace = "https://w3id.org/function/ontology#"

const (
	// Execution is the class of function executions.
	Execution = Namespace + "Execution"

	// Executes links an execution to the function it invokes. The
	// object IRI is resolved through the function registry.
	Executes = Namespace + "executes"
)
