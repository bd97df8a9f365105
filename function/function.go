// Package function provides the registry of user-defined functions
// referenced by function term maps through fno:executes.
package function

import (
	"fmt"
	"sync"

	"github.com/knakk/rdf"
)

// Arguments carries the evaluated parameter values of one function
// execution, keyed by parameter predicate IRI.
type Arguments map[string][]rdf.Term

// Strings returns the lexical forms of the values bound to the given
// parameter IRI.
func (a Arguments) Strings(param string) []string {
	terms := a[param]
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		switch v := t.(type) {
		case rdf.Literal:
			out = append(out, v.String())
		case rdf.IRI:
			out = append(out, v.String())
		default:
			out = append(out, t.String())
		}
	}
	return out
}

// First returns the single value bound to the given parameter IRI, or
// false when absent.
func (a Arguments) First(param string) (rdf.Term, bool) {
	terms := a[param]
	if len(terms) == 0 {
		return nil, false
	}
	return terms[0], true
}

// Func is a user-defined function. It returns zero or more RDF terms;
// returning no terms suppresses the triple, like an absent reference.
type Func func(args Arguments) ([]rdf.Term, error)

// Registry maps function IRIs to implementations. It is safe for
// concurrent reads during mapping.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register binds a function IRI to an implementation, replacing any
// previous binding.
func (r *Registry) Register(iri string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[iri] = fn
}

// Lookup returns the function bound to the IRI.
func (r *Registry) Lookup(iri string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[iri]
	return fn, ok
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}

// EvalError reports a failed function evaluation: an unregistered
// function IRI, or an arity or type mismatch reported by the function
// itself.
type EvalError struct {
	FunctionIRI string
	Reason      string
	Err         error
}

// Error implements error.
func (e *EvalError) Error() string {
	msg := fmt.Sprintf("function %s: %s", e.FunctionIRI, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}
