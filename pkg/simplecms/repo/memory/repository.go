package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// defaultFindLimit bounds a Find when the caller does not set one.
const defaultFindLimit = 1000

// Store implements simplecms.DocumentStore using in-memory storage.
// Collections are created lazily on first write.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]simplecms.RawDocument // collection -> id -> record
}

// New creates a new in-memory document store
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]simplecms.RawDocument),
	}
}

func (s *Store) Find(ctx context.Context, collection string, filter simplecms.FindFilter, opts simplecms.FindOptions) (simplecms.FindResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []simplecms.RawDocument
	for _, doc := range s.collections[collection] {
		if filter.Matches(doc) {
			matches = append(matches, copyDoc(doc))
		}
	}

	// Newest first, id as the tie-breaker so paging is stable.
	sort.Slice(matches, func(i, j int) bool {
		ci, _ := matches[i]["createdAt"].(string)
		cj, _ := matches[j]["createdAt"].(string)
		if ci != cj {
			return ci > cj
		}
		ii, _ := matches[i]["id"].(string)
		ij, _ := matches[j]["id"].(string)
		return ii < ij
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	total := len(matches)
	hasNext := total > limit
	if hasNext {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []simplecms.RawDocument{}
	}

	return simplecms.FindResult{
		Docs:        matches,
		TotalDocs:   total,
		HasNextPage: hasNext,
	}, nil
}

func (s *Store) FindByID(ctx context.Context, collection, id string) (simplecms.RawDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.collections[collection][id]
	if !exists {
		return nil, simplecms.ErrNotFound
	}
	return copyDoc(doc), nil
}

func (s *Store) Create(ctx context.Context, collection string, data simplecms.RawDocument) (simplecms.RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := copyDoc(data)
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]simplecms.RawDocument)
	}
	s.collections[collection][id] = doc

	return copyDoc(doc), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, data simplecms.RawDocument) (simplecms.RawDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[collection][id]; !exists {
		return nil, simplecms.ErrNotFound
	}

	doc := copyDoc(data)
	doc["id"] = id // identity is never overwritten by incoming data
	s.collections[collection][id] = doc

	return copyDoc(doc), nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[collection][id]; !exists {
		return simplecms.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// copyDoc deep-copies a record through its JSON form so callers can never
// mutate stored state through a returned reference.
func copyDoc(doc simplecms.RawDocument) simplecms.RawDocument {
	b, err := json.Marshal(doc)
	if err != nil {
		// RawDocuments come from JSON; marshaling them back cannot fail.
		panic(err)
	}
	var out simplecms.RawDocument
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return out
}
