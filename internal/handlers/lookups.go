package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/moyashi-books/moyashi/internal/models"
	"github.com/moyashi-books/moyashi/internal/photo"
)

type lookupRequest struct {
	PhotoURL       string            `json:"photo_url"`
	OCRText        string            `json:"ocr_text"`
	Query          string            `json:"query"`
	ReferenceTitle string            `json:"reference_title"`
	Parser         string            `json:"parser"`
	AllCategories  bool              `json:"all_categories"`
	ReverseImage   bool              `json:"reverse_image"`
	FoldCase       bool              `json:"fold_case"`
	RetailURLs     map[string]string `json:"retail_urls"`
}

func (h *Handler) HandleLookups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, h.lookupStore.GetAll())
	case "POST":
		h.createLookup(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleLookupDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/lookups/")

	lookup, ok := h.getLookupOrError(w, id)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, lookup)
	case "DELETE":
		h.lookupStore.Delete(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createLookup(w http.ResponseWriter, r *http.Request) {
	var request lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	prs, err := h.resolveParser(request.Parser)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipeline, err := h.newPipeline()
	if err != nil {
		h.writeError(w, "Failed to create pipeline: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := pipeline.Run(r.Context(), photo.Request{
		PhotoURL:       request.PhotoURL,
		OCRText:        request.OCRText,
		NormalizedText: request.Query,
		ReferenceTitle: request.ReferenceTitle,
		Parser:         prs,
		AllCategories:  request.AllCategories,
		ReverseImage:   request.ReverseImage,
		FoldCase:       request.FoldCase,
		RetailURLs:     request.RetailURLs,
	})

	state := pipeline.State()
	lookup := &models.Lookup{
		PhotoURL:       request.PhotoURL,
		ReferenceTitle: request.ReferenceTitle,
		Query:          state.NormalizedText,
		Records:        []models.BookRecord{},
		Stage:          state.Stage.String(),
		FailedOp:       string(state.FailedOp),
	}
	if result != nil {
		lookup.Records = result.Records
	}

	code := http.StatusCreated
	switch {
	case err == nil:
	case errors.Is(err, photo.ErrNoResult):
		lookup.NoResult = true
	case errors.Is(err, photo.ErrInvalidInput):
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, photo.ErrUpstream):
		lookup.Error = err.Error()
		code = http.StatusBadGateway
	default:
		lookup.Error = err.Error()
		code = http.StatusInternalServerError
	}

	id := h.lookupStore.Add(lookup)
	slog.Info("Lookup stored", "id", id, "stage", lookup.Stage, "records", len(lookup.Records), "no_result", lookup.NoResult)

	w.Header().Set("Location", "/api/lookups/"+id)
	h.writeJSONStatus(w, lookup, code)
}
