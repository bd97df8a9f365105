// Package join implements the stores backing cross-source reference
// resolution: the child-side join store buffering candidate rows and
// the parent-side condition store indexing parent subjects by join
// values. Store providers are plug-points; the defaults are
// in-memory, with a SQLite-backed spillable child store available for
// large joins.
package join

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knakk/rdf"
)

// Key is the evaluated values of a ref object map's join conditions,
// in condition order. Keys with equal hashes match.
type Key struct {
	Values []string
}

// KeyOf builds a key over the given values.
func KeyOf(values ...string) Key {
	return Key{Values: values}
}

// Hash returns a canonical collision-free string form of the key.
func (k Key) Hash() string {
	var b strings.Builder
	for _, v := range k.Values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

// ChildSideJoin is one buffered child row: the generated child
// subjects, the predicates and graphs of the emit context, and the
// join key. The parent subject slot is filled at join time.
type ChildSideJoin struct {
	Subjects   []rdf.Term
	Predicates []rdf.Term
	Graphs     []rdf.Term
	Key        Key
}

// ChildSideStore buffers child rows for one ref object map until the
// parent side completes.
type ChildSideStore interface {
	// Append adds rows to the store.
	Append(rows ...ChildSideJoin) error

	// ForEach visits every stored row. Iteration stops on the first
	// error, which is returned.
	ForEach(fn func(ChildSideJoin) error) error

	// Clear releases the store's resources.
	Clear() error
}

// ChildSideStoreProvider constructs child-side stores. The name
// identifies the ref object map the store serves, for diagnostics and
// spill file naming.
type ChildSideStoreProvider interface {
	ChildSideStore(name string) (ChildSideStore, error)
}

// ParentSideStore indexes parent subjects by their evaluated join
// values for one ref object map.
type ParentSideStore interface {
	// Add registers a parent subject under a key.
	Add(key Key, subject rdf.Term) error

	// Get returns the subjects registered under a key.
	Get(key Key) ([]rdf.Term, error)

	// Clear releases the store's resources.
	Clear() error
}

// ParentSideStoreProvider constructs parent-side condition stores.
type ParentSideStoreProvider interface {
	ParentSideStore(name string) (ParentSideStore, error)
}

// StoreError reports an I/O failure of a spillable store. Store
// failures are fatal to the mapping run.
type StoreError struct {
	Store string
	Op    string
	Err   error
}

// Error implements error.
func (e *StoreError) Error() string {
	return fmt.Sprintf("join store %s: %s: %v", e.Store, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
