package output

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
)

// EncoderSink serializes statements to an io.Writer through a
// knakk/rdf triple encoder. Named graphs are flattened to triples;
// the first statement carrying one is noted at Debug level.
type EncoderSink struct {
	enc    *rdf.TripleEncoder
	logger *slog.Logger
	warned bool
}

// NewEncoderSink returns a sink writing the given concrete syntax
// (rdf.NTriples or rdf.Turtle).
func NewEncoderSink(w io.Writer, format rdf.Format, logger *slog.Logger) *EncoderSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &EncoderSink{
		enc:    rdf.NewTripleEncoder(w, format),
		logger: logger,
	}
}

// Write implements Sink.
func (s *EncoderSink) Write(st rdfterm.Statement) error {
	if st.Graph != nil && !s.warned {
		s.warned = true
		s.logger.Debug("named graphs flattened to triples in encoder output",
			slog.String("graph", rdfterm.TermKey(st.Graph)))
	}
	if err := s.enc.Encode(st.Triple()); err != nil {
		return fmt.Errorf("encode statement: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *EncoderSink) Close() error {
	return s.enc.Close()
}
