// Package store persists converted constituency trees.
//
// The Store interface abstracts over backends: MemoryStore for tests and
// single-process use, MongoStore for server deployments. Documents are
// keyed by id; Put assigns a fresh one when the document has none.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/humsha/educe/pkg/treeio"
)

// ErrNotFound is returned by Get and Delete when no document has the
// given id.
var ErrNotFound = errors.New("document not found")

// Store persists constituency documents.
type Store interface {
	// Put saves the document and returns its id, assigning one if empty.
	Put(ctx context.Context, doc *treeio.ConDoc) (string, error)

	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*treeio.ConDoc, error)

	// List returns the ids of all stored documents, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes the document with the given id, or returns
	// ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore is an in-memory Store for tests and single-process use.
// It is safe for concurrent access.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*treeio.ConDoc
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*treeio.ConDoc)}
}

// Put saves the document and returns its id.
func (s *MemoryStore) Put(ctx context.Context, doc *treeio.ConDoc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return doc.ID, nil
}

// Get returns the document with the given id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*treeio.ConDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// List returns the ids of all stored documents, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the document with the given id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
