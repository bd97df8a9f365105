// Package sourceresolver resolves the source reference of a logical
// source to a byte stream. Resolvers are pure with respect to the
// mapping; they may perform I/O.
package sourceresolver

import (
	"errors"
	"io"
)

// Resolver resolves a source reference to a byte stream. The boolean
// reports whether the resolver recognized the reference at all; an
// error is only returned for a recognized reference that failed to
// open.
type Resolver interface {
	Resolve(source any) (io.ReadCloser, bool, error)
}

// ErrUnresolved is the error for a source reference that no resolver
// matched. Composite does not return it; it reports no match through
// its boolean result.
var ErrUnresolved = errors.New("no source resolver matched reference")

// Composite tries resolvers in registration order and returns the
// first match.
type Composite struct {
	resolvers []Resolver
}

// NewComposite returns a composite over the given resolvers.
func NewComposite(resolvers ...Resolver) *Composite {
	return &Composite{resolvers: resolvers}
}

// Prepend returns a new composite with extra resolvers tried before
// the existing ones. Run-scoped stream bindings use this.
func (c *Composite) Prepend(resolvers ...Resolver) *Composite {
	combined := make([]Resolver, 0, len(resolvers)+len(c.resolvers))
	combined = append(combined, resolvers...)
	combined = append(combined, c.resolvers...)
	return &Composite{resolvers: combined}
}

// Resolve implements Resolver.
func (c *Composite) Resolve(source any) (io.ReadCloser, bool, error) {
	for _, r := range c.resolvers {
		rc, ok, err := r.Resolve(source)
		if err != nil {
			return nil, true, err
		}
		if ok {
			return rc, true, nil
		}
	}
	return nil, false, nil
}
