package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moyashi-books/moyashi/internal/upstream"
)

func TestSearch(t *testing.T) {
	queries := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{
			"totalItems": 3,
			"items": [
				{"volumeInfo": {"title": "ONE PIECE", "categories": ["Comics & Graphic Novels"], "infoLink": "http://books/1",
					"industryIdentifiers": [{"type": "ISBN_10", "identifier": "4088708415"}, {"type": "ISBN_13", "identifier": "9784088708416"}]}},
				{"volumeInfo": {"title": "ONE PUNCH MAN", "categories": ["Fiction"]}},
				{"volumeInfo": {"title": "ONE PIECE FILM"}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(upstream.New(upstream.Options{}), server.URL+"/books/v1/volumes")
	volumes, err := client.Search(context.Background(), "ONE PIECE")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if q := <-queries; q != "ONE PIECE" {
		t.Errorf("q = %q, want ONE PIECE", q)
	}
	if len(volumes) != 3 {
		t.Fatalf("got %d volumes, want 3", len(volumes))
	}

	first := volumes[0]
	if first.Title != "ONE PIECE" || first.ISBN13 != "9784088708416" || first.ISBN10 != "4088708415" || first.InfoLink != "http://books/1" {
		t.Errorf("first volume = %+v", first)
	}
	if volumes[1].Title != "ONE PUNCH MAN" || volumes[2].Title != "ONE PIECE FILM" {
		t.Errorf("catalog order not preserved: %+v", volumes)
	}
}

func TestSearchEmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		response      string
		wantEmpty     bool
		wantMalformed bool
	}{
		{name: "zero total items", status: http.StatusOK, response: `{"kind":"books#volumes","totalItems":0}`, wantEmpty: true},
		{name: "empty items array", status: http.StatusOK, response: `{"totalItems":0,"items":[]}`, wantEmpty: true},
		{name: "missing items", status: http.StatusOK, response: `{"kind":"books#volumes"}`, wantMalformed: true},
		{name: "items without total", status: http.StatusOK, response: `{"totalItems":5}`, wantMalformed: true},
		{name: "item without volumeInfo", status: http.StatusOK, response: `{"items":[{"id":"x"}]}`, wantMalformed: true},
		{name: "server error", status: http.StatusInternalServerError, response: `oops`},
		{name: "not json", status: http.StatusOK, response: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			volumes, err := NewClient(upstream.New(upstream.Options{}), server.URL).Search(context.Background(), "x")
			if tt.wantEmpty {
				if err != nil {
					t.Fatalf("Search() error = %v", err)
				}
				if volumes == nil || len(volumes) != 0 {
					t.Errorf("expected empty non-nil slice, got %#v", volumes)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrMalformedResponse) != tt.wantMalformed {
				t.Errorf("ErrMalformedResponse match = %v, want %v (%v)", !tt.wantMalformed, tt.wantMalformed, err)
			}
		})
	}
}

func TestIsComic(t *testing.T) {
	tests := []struct {
		name       string
		categories []string
		expected   bool
	}{
		{name: "comics and graphic novels", categories: []string{"Comics & Graphic Novels"}, expected: true},
		{name: "lowercase", categories: []string{"japanese comics"}, expected: true},
		{name: "fiction", categories: []string{"Fiction"}, expected: false},
		{name: "only first category counts", categories: []string{"Fiction", "Comics"}, expected: false},
		{name: "no categories", categories: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Volume{Categories: tt.categories}).IsComic(); got != tt.expected {
				t.Errorf("IsComic() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSearchMaxResults(t *testing.T) {
	limits := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limits <- r.URL.Query().Get("maxResults")
		_, _ = w.Write([]byte(`{"totalItems":0}`))
	}))
	defer server.Close()

	client := NewClient(upstream.New(upstream.Options{}), server.URL)
	client.MaxResults = 20
	if _, err := client.Search(context.Background(), "x"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := <-limits; got != "20" {
		t.Errorf("maxResults = %q, want 20", got)
	}
}
