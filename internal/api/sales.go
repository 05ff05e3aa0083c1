package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meur/vgcatalog/internal/models"
)

// handleCreateSale inserts a new sales record
func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var req models.ItemFields
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.catalog.CreateItem(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err, "Game not found")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// handleUpdateSale replaces an existing sales record
func (s *Server) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	var req models.ItemFields
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.catalog.UpdateItem(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, r, err, "Sale not found")
		return
	}

	respondJSON(w, http.StatusOK, item)
}
