package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/moyashi-books/moyashi/internal/models"
)

func TestLookupStore(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	later := &models.Lookup{Query: "NARUTO", CreatedAt: base.Add(time.Minute)}
	earlier := &models.Lookup{Query: "ONE PIECE", CreatedAt: base}
	laterID := s.Add(later)
	earlierID := s.Add(earlier)

	if laterID == "" || laterID == earlierID {
		t.Fatalf("ids = %q, %q", laterID, earlierID)
	}

	got, ok := s.Get(earlierID)
	if !ok || got.Query != "ONE PIECE" || got.ID != earlierID {
		t.Errorf("Get() = %+v, %v", got, ok)
	}

	all := s.GetAll()
	if len(all) != 2 || all[0].ID != earlierID || all[1].ID != laterID {
		t.Errorf("GetAll() not oldest first: %+v", all)
	}

	s.Delete(earlierID)
	if _, ok := s.Get(earlierID); ok {
		t.Error("lookup still present after Delete")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get() found an unknown id")
	}
}

func TestAddSetsCreatedAt(t *testing.T) {
	s := New()
	lookup := &models.Lookup{}
	s.Add(lookup)
	if lookup.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestConcurrentAdd(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(&models.Lookup{})
		}()
	}
	wg.Wait()

	if n := len(s.GetAll()); n != 50 {
		t.Errorf("stored %d lookups, want 50", n)
	}
}
