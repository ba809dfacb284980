package images

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moyashi-books/moyashi/internal/upstream"
)

func TestBestGuess(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		expected string
		wantErr  error
	}{
		{
			name:     "marker present",
			page:     `<html><body><div class="r5a77d">Best guess: <a class="fKDtNb" href="#">one piece 42</a></div></body></html>`,
			expected: "one piece 42",
		},
		{
			name:     "marker among other classes with nested text",
			page:     `<div><span class="x fKDtNb y"> <b>ワンピース</b>  42巻 </span></div>`,
			expected: "ワンピース 42巻",
		},
		{
			name:    "marker absent",
			page:    `<html><body><p>No results</p></body></html>`,
			wantErr: ErrNoGuess,
		},
		{
			name:    "marker empty",
			page:    `<a class="fKDtNb"></a>`,
			wantErr: ErrNoGuess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.page))
			}))
			defer server.Close()

			searcher := NewReverseSearcher(upstream.New(upstream.Options{}), server.URL+"/searchbyimage?hl=ja-JP", "fKDtNb", "agent")
			got, err := searcher.BestGuess(context.Background(), "http://x/img.jpg")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BestGuess() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("BestGuess() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBestGuessRequest(t *testing.T) {
	type seen struct {
		agent    string
		imageURL string
		hl       string
	}
	requests := make(chan seen, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- seen{
			agent:    r.Header.Get("User-Agent"),
			imageURL: r.URL.Query().Get("image_url"),
			hl:       r.URL.Query().Get("hl"),
		}
		_, _ = w.Write([]byte(`<a class="fKDtNb">title</a>`))
	}))
	defer server.Close()

	searcher := NewReverseSearcher(upstream.New(upstream.Options{}), server.URL+"/searchbyimage?hl=ja-JP", "fKDtNb", "Mozilla/5.0 browser")
	if _, err := searcher.BestGuess(context.Background(), "http://x/img.jpg?size=large&v=2"); err != nil {
		t.Fatalf("BestGuess() error = %v", err)
	}

	got := <-requests
	if got.agent != "Mozilla/5.0 browser" {
		t.Errorf("User-Agent = %q", got.agent)
	}
	if got.imageURL != "http://x/img.jpg?size=large&v=2" {
		t.Errorf("image_url = %q", got.imageURL)
	}
	if got.hl != "ja-JP" {
		t.Errorf("template query lost, hl = %q", got.hl)
	}
}

func TestBestGuessUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	searcher := NewReverseSearcher(upstream.New(upstream.Options{}), server.URL, "fKDtNb", "")
	_, err := searcher.BestGuess(context.Background(), "http://x/img.jpg")
	if err == nil || errors.Is(err, ErrNoGuess) {
		t.Fatalf("expected transport error, got %v", err)
	}
	var statusErr *upstream.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "reverse image") {
		t.Errorf("error lacks context: %v", err)
	}
}
