// Package output provides statement sinks: destinations for the
// engine's statement stream.
package output

import "github.com/c360studio/rmlstream/rdfterm"

// Sink consumes mapped statements. Sinks are driven by a single
// goroutine; Close flushes and releases the destination.
type Sink interface {
	Write(st rdfterm.Statement) error
	Close() error
}

// Drain writes an entire statement channel to a sink.
func Drain(statements <-chan rdfterm.Statement, sink Sink) error {
	for st := range statements {
		if err := sink.Write(st); err != nil {
			return err
		}
	}
	return nil
}
