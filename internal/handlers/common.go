package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/moyashi-books/moyashi/internal/models"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/moyashi-books/moyashi/internal/photo"
	"github.com/moyashi-books/moyashi/internal/storage"
)

// PipelineFactory builds a fresh pipeline for one lookup.
type PipelineFactory func() (*photo.Pipeline, error)

type Handler struct {
	lookupStore *storage.LookupStore
	newPipeline PipelineFactory
	parsers     map[string]parser.Parser
}

func New(newPipeline PipelineFactory) *Handler {
	return &Handler{
		lookupStore: storage.New(),
		newPipeline: newPipeline,
		parsers:     map[string]parser.Parser{},
	}
}

// RegisterParser makes p selectable by name in lookup requests, in
// addition to the built-in parsers.
func (h *Handler) RegisterParser(name string, p parser.Parser) {
	h.parsers[strings.ToLower(name)] = p
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, data, http.StatusOK)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

func (h *Handler) getLookupOrError(w http.ResponseWriter, id string) (*models.Lookup, bool) {
	lookup, exists := h.lookupStore.Get(id)
	if !exists {
		h.writeError(w, "Lookup not found", http.StatusNotFound)
		return nil, false
	}
	return lookup, true
}

func (h *Handler) resolveParser(name string) (parser.Parser, error) {
	if name == "" {
		return nil, nil
	}
	if p, ok := h.parsers[strings.ToLower(name)]; ok {
		return p, nil
	}
	return parser.ByName(name)
}
