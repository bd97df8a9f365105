package sourceresolver

import (
	"io"

	"github.com/c360studio/rmlstream/model"
)

// NamedStreams resolves carml:Stream sources against caller-provided
// readers by exact stream name. The empty name is the unnamed default
// stream.
type NamedStreams struct {
	streams map[string]io.Reader
}

// NewNamedStreams returns a resolver over the given streams. The map
// is used as provided; callers must not mutate it afterwards.
func NewNamedStreams(streams map[string]io.Reader) *NamedStreams {
	return &NamedStreams{streams: streams}
}

// NewDefaultStream returns a resolver binding only the unnamed
// default stream.
func NewDefaultStream(r io.Reader) *NamedStreams {
	return NewNamedStreams(map[string]io.Reader{"": r})
}

// Resolve implements Resolver.
func (n *NamedStreams) Resolve(source any) (io.ReadCloser, bool, error) {
	stream, ok := source.(*model.Stream)
	if !ok {
		return nil, false, nil
	}
	r, ok := n.streams[stream.Name]
	if !ok {
		return nil, false, nil
	}
	// Keep the stream's own Close reachable: cancellation relies on
	// closing the source to unblock a mid-read decoder.
	if rc, isCloser := r.(io.ReadCloser); isCloser {
		return rc, true, nil
	}
	return io.NopCloser(r), true, nil
}
