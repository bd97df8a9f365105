package output

import (
	"fmt"

	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
	"github.com/nats-io/nats.go"
)

// NATSSink publishes each statement as one N-Triples line to a NATS
// subject, for downstream graph ingestion.
type NATSSink struct {
	conn     *nats.Conn
	subject  string
	ownsConn bool
}

// NewNATSSink connects to the given NATS URL and publishes to
// subject. The connection is closed with the sink.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("rmlstream"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSSink{conn: conn, subject: subject, ownsConn: true}, nil
}

// NewNATSSinkConn wraps an existing connection, which the caller
// keeps responsible for closing.
func NewNATSSinkConn(conn *nats.Conn, subject string) *NATSSink {
	return &NATSSink{conn: conn, subject: subject}
}

// Write implements Sink.
func (s *NATSSink) Write(st rdfterm.Statement) error {
	line := st.Triple().Serialize(rdf.NTriples)
	if err := s.conn.Publish(s.subject, []byte(line)); err != nil {
		return fmt.Errorf("publish statement: %w", err)
	}
	return nil
}

// Close implements Sink. It flushes pending publishes before
// releasing the connection.
func (s *NATSSink) Close() error {
	err := s.conn.Flush()
	if s.ownsConn {
		s.conn.Close()
	}
	return err
}
