// Package ql defines IRI constants for the query language vocabulary
// used as reference formulations in RML logical sources.
package ql

// Namespace is the base IRI of the query language vocabulary.
const Namespace = "http://semweb.mmlab.be/ns/ql#"

const (
	// CSV selects the CSV decoder. Records are rows; expressions are
	// column names.
	CSV = Namespace + "CSV"

	// JSONPath selects the JSON decoder. Records are iterator matches;
	// expressions are JSONPath expressions.
	JSONPath = Namespace + "JSONPath"

	// XPath selects the XML decoder. Records are iterator node sets;
	// expressions are XPath expressions.
	XPath = Namespace + "XPath"
)
