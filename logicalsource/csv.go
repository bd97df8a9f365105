package logicalsource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/c360studio/rmlstream/model"
	"github.com/google/uuid"
)

// CSVResolver decodes ql:CSV sources. The first row is the header;
// expressions are column names. An empty cell is treated as an absent
// value. CSV has no iterator expression; a declared iterator is
// ignored.
//
// The standard library csv reader is used; the pack of reference
// codebases carries no third-party CSV decoder and none is needed.
type CSVResolver struct {
	// Comma is the field separator; zero means ','.
	Comma rune
}

// NewCSVResolver returns a CSV resolver with default settings.
func NewCSVResolver() *CSVResolver {
	return &CSVResolver{}
}

// Records implements Resolver.
func (c *CSVResolver) Records(ctx context.Context, r io.Reader, source *model.LogicalSource) (<-chan Record, <-chan error) {
	out := make(chan Record, BufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		reader := csv.NewReader(r)
		if c.Comma != 0 {
			reader.Comma = c.Comma
		}
		reader.FieldsPerRecord = -1

		header, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			errc <- fmt.Errorf("read csv header: %w", err)
			return
		}
		columns := make(map[string]int, len(header))
		for i, name := range header {
			columns[name] = i
		}

		scope := uuid.NewString()[:8]
		for n := 0; ; n++ {
			row, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- fmt.Errorf("read csv row %d: %w", n+1, err)
				return
			}
			rec := &csvRecord{
				id:      fmt.Sprintf("%s-%d", scope, n),
				columns: columns,
				fields:  row,
			}
			if !emit(ctx, out, rec) {
				return
			}
		}
	}()

	return out, errc
}

type csvRecord struct {
	id      string
	columns map[string]int
	fields  []string
}

func (r *csvRecord) ID() string {
	return r.id
}

func (r *csvRecord) Get(expression string) ([]string, error) {
	idx, ok := r.columns[expression]
	if !ok {
		return nil, fmt.Errorf("no column %q", expression)
	}
	if idx >= len(r.fields) {
		return nil, nil
	}
	v := r.fields[idx]
	if v == "" {
		return nil, nil
	}
	return []string{v}, nil
}
