package engine

import (
	"context"
	"errors"
	"io"

	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
)

// MapToGraph runs the mapping and collects the statement stream into
// an in-memory graph. The run is bounded by the configured timeout;
// exceeding it cancels the pipelines and returns ErrMappingTimeout.
func (m *Mapper) MapToGraph(ctx context.Context, filter ...*model.TriplesMap) (*rdfterm.Graph, error) {
	return m.collect(ctx, func(runCtx context.Context) (<-chan rdfterm.Statement, <-chan error) {
		return m.Map(runCtx, filter...)
	})
}

// MapReaderToGraph is MapReader collected into a graph.
func (m *Mapper) MapReaderToGraph(ctx context.Context, r io.Reader, filter ...*model.TriplesMap) (*rdfterm.Graph, error) {
	return m.collect(ctx, func(runCtx context.Context) (<-chan rdfterm.Statement, <-chan error) {
		return m.MapReader(runCtx, r, filter...)
	})
}

// MapNamedToGraph is MapNamed collected into a graph.
func (m *Mapper) MapNamedToGraph(ctx context.Context, streams map[string]io.Reader, filter ...*model.TriplesMap) (*rdfterm.Graph, error) {
	return m.collect(ctx, func(runCtx context.Context) (<-chan rdfterm.Statement, <-chan error) {
		return m.MapNamed(runCtx, streams, filter...)
	})
}

// MapItemToGraph is MapItem collected into a graph.
func (m *Mapper) MapItemToGraph(ctx context.Context, rec logicalsource.Record, filter ...*model.TriplesMap) (*rdfterm.Graph, error) {
	return m.collect(ctx, func(runCtx context.Context) (<-chan rdfterm.Statement, <-chan error) {
		return m.MapItem(runCtx, rec, filter...)
	})
}

func (m *Mapper) collect(ctx context.Context, run func(context.Context) (<-chan rdfterm.Statement, <-chan error)) (*rdfterm.Graph, error) {
	runCtx, cancel := context.WithTimeout(ctx, m.opts.MapToGraphTimeout)
	defer cancel()

	statements, errs := run(runCtx)

	g := rdfterm.NewGraph()
	for st := range statements {
		g.Add(st)
	}

	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, ErrMappingTimeout
	}
	if len(failures) > 0 {
		return nil, errors.Join(failures...)
	}
	return g, nil
}
