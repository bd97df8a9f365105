package join

import (
	"sync"

	"github.com/knakk/rdf"
)

// MemoryProvider builds in-memory stores. It is the default provider
// for both sides.
type MemoryProvider struct{}

// NewMemoryProvider returns the in-memory store provider.
func NewMemoryProvider() MemoryProvider {
	return MemoryProvider{}
}

// ChildSideStore implements ChildSideStoreProvider.
func (MemoryProvider) ChildSideStore(name string) (ChildSideStore, error) {
	return &memoryChildStore{}, nil
}

// ParentSideStore implements ParentSideStoreProvider.
func (MemoryProvider) ParentSideStore(name string) (ParentSideStore, error) {
	return &memoryParentStore{index: make(map[string][]rdf.Term)}, nil
}

type memoryChildStore struct {
	mu   sync.Mutex
	rows []ChildSideJoin
}

func (s *memoryChildStore) Append(rows ...ChildSideJoin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
	return nil
}

func (s *memoryChildStore) ForEach(fn func(ChildSideJoin) error) error {
	s.mu.Lock()
	rows := s.rows
	s.mu.Unlock()
	for _, row := range rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryChildStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	return nil
}

type memoryParentStore struct {
	mu    sync.Mutex
	index map[string][]rdf.Term
}

func (s *memoryParentStore) Add(key Key, subject rdf.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := key.Hash()
	s.index[h] = append(s.index[h], subject)
	return nil
}

func (s *memoryParentStore) Get(key Key) ([]rdf.Term, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index[key.Hash()], nil
}

func (s *memoryParentStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = make(map[string][]rdf.Term)
	return nil
}
