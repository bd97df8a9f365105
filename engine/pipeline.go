package engine

import (
	"context"
	"io"
	"sync"

	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
)

// pipeline reads one logical source exactly once and fans its records
// out to every triples mapper sharing the source. Each mapper sees
// records in source order; the bounded per-mapper channels make the
// slowest mapper the decoder's backpressure anchor.
type pipeline struct {
	ls       *model.LogicalSource
	name     string
	supplier logicalsource.ResolverSupplier
	mappers  []*triplesMapper

	onRecord func()
}

// run decodes the source and drives the mappers. It returns the
// decoder's error or the first strict-mode mapper error; either is
// fatal to this pipeline only.
func (p *pipeline) run(ctx context.Context, src io.ReadCloser, mappers []*triplesMapper, emit emitFunc) error {
	defer src.Close()

	// A decoder blocked in a synchronous read can't watch ctx; closing
	// the source is what unblocks it promptly on cancellation.
	stop := context.AfterFunc(ctx, func() { src.Close() })
	defer stop()

	resolver := p.supplier()
	records, decodeErrs := resolver.Records(ctx, src, p.ls)

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	feeds := make([]chan logicalsource.Record, len(mappers))
	var wg sync.WaitGroup
	for i, m := range mappers {
		feed := make(chan logicalsource.Record, logicalsource.BufferSize)
		feeds[i] = feed
		wg.Add(1)
		go func(m *triplesMapper, feed <-chan logicalsource.Record) {
			defer wg.Done()
			for rec := range feed {
				if err := m.mapRecord(rec, emit); err != nil {
					fail(err)
					break
				}
			}
			// Keep draining so a failed mapper doesn't stall the
			// broadcast for its siblings.
			for range feed {
			}
		}(m, feed)
	}

broadcast:
	for rec := range records {
		if p.onRecord != nil {
			p.onRecord()
		}
		for _, feed := range feeds {
			select {
			case feed <- rec:
			case <-ctx.Done():
				break broadcast
			}
		}
	}

	for _, feed := range feeds {
		close(feed)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := <-decodeErrs; ok && err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	return firstErr
}
