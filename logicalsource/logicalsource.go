// Package logicalsource defines the record abstraction and the
// decoders (logical source resolvers) that turn source byte streams
// into record streams, keyed by reference formulation.
package logicalsource

import (
	"context"
	"io"

	"github.com/c360studio/rmlstream/model"
)

// BufferSize is the capacity of record channels between a decoder and
// its pipeline. The bounded buffer is what converts a slow consumer
// into backpressure on the decoder.
const BufferSize = 16

// Record is one unit of source data. Expressions are evaluated
// against it by term generators and join conditions.
type Record interface {
	// ID identifies the record uniquely within one mapping run. Blank
	// node identifiers are scoped by it.
	ID() string

	// Get evaluates an expression against the record. No values means
	// the expression is absent for this record; that is distinct from
	// a present empty string.
	Get(expression string) ([]string, error)
}

// Resolver decodes a byte stream into records according to a logical
// source's iterator expression. Implementations are selected by
// reference formulation IRI.
//
// Records are delivered on a bounded channel in document order and
// the channel is closed at end of input. A decoding failure is sent
// on the error channel and terminates the stream; such errors are
// fatal to the pipeline consuming the records. Both channels respect
// cancellation of ctx.
type Resolver interface {
	Records(ctx context.Context, r io.Reader, source *model.LogicalSource) (<-chan Record, <-chan error)
}

// ResolverSupplier constructs a fresh Resolver per pipeline run.
type ResolverSupplier func() Resolver

// emit delivers a record honoring cancellation. It reports false when
// the context was cancelled.
func emit(ctx context.Context, out chan<- Record, rec Record) bool {
	select {
	case out <- rec:
		return true
	case <-ctx.Done():
		return false
	}
}
