package model

// resource carries the identity an entity had in the mapping graph:
// an IRI, or a blank node label. Entities constructed in code may
// leave it empty; the serializer assigns fresh blank node labels.
type resource struct {
	id    string
	blank bool
}

// SetResourceID records the entity's identity. Blank reports whether
// the identity is a blank node label rather than an IRI.
func (r *resource) SetResourceID(id string, blank bool) {
	r.id = id
	r.blank = blank
}

// ResourceID returns the entity's identity as recorded from the
// mapping graph, or the empty string when it has none.
func (r *resource) ResourceID() string {
	return r.id
}

// BlankResource reports whether the identity is a blank node label.
func (r *resource) BlankResource() bool {
	return r.blank
}
