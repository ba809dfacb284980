// Package storage keeps completed lookups in process memory.
package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moyashi-books/moyashi/internal/models"
)

type LookupStore struct {
	lookups map[string]*models.Lookup
	mu      sync.RWMutex
}

func New() *LookupStore {
	return &LookupStore{
		lookups: make(map[string]*models.Lookup),
	}
}

// Add stores lookup under a fresh ID, filling in CreatedAt when unset, and
// returns the ID.
func (s *LookupStore) Add(lookup *models.Lookup) string {
	lookup.ID = uuid.NewString()
	if lookup.CreatedAt.IsZero() {
		lookup.CreatedAt = time.Now().UTC()
	}
	s.Set(lookup.ID, lookup)
	return lookup.ID
}

func (s *LookupStore) Get(id string) (*models.Lookup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lookup, exists := s.lookups[id]
	return lookup, exists
}

func (s *LookupStore) Set(id string, lookup *models.Lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[id] = lookup
}

// GetAll returns every lookup, oldest first.
func (s *LookupStore) GetAll() []*models.Lookup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Lookup, 0, len(s.lookups))
	for _, v := range s.lookups {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *LookupStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lookups, id)
}
