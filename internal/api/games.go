package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

// handleListGames returns one page of the catalog as {total, data}
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseValues(r.URL.Query(), query.SalesColumns)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.catalog.List(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Games not found")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleGetGame returns a single game by id or name
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	ref := models.ItemRef(pathParam(r, "ref"))

	item, err := s.catalog.GetItem(r.Context(), ref)
	if err != nil {
		respondServiceError(w, r, err, "Game not found")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// pathParam returns the unescaped URL parameter. Names with spaces or
// slashes arrive percent-encoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
