package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

// reviewBody accepts both the current field names and the column names
// older clients post.
type reviewBody struct {
	ItemRef     models.ItemRef `json:"itemRef"`
	AppID       models.ItemRef `json:"app_id"`
	AppName     string         `json:"app_name"`
	Text        string         `json:"text"`
	ReviewText  string         `json:"review_text"`
	Score       *int           `json:"score"`
	ReviewScore *int           `json:"review_score"`
	Votes       *int           `json:"votes"`
	ReviewVotes *int           `json:"review_votes"`
}

func (b reviewBody) toCreate() models.ReviewCreate {
	out := models.ReviewCreate{
		ItemRef: b.ItemRef,
		Text:    b.Text,
		Score:   b.Score,
		Votes:   b.Votes,
	}
	if out.ItemRef.String() == "" {
		out.ItemRef = b.AppID
	}
	if out.ItemRef.String() == "" {
		out.ItemRef = models.ItemRef(b.AppName)
	}
	if strings.TrimSpace(out.Text) == "" {
		out.Text = b.ReviewText
	}
	if out.Score == nil {
		out.Score = b.ReviewScore
	}
	if out.Votes == nil {
		out.Votes = b.ReviewVotes
	}
	return out
}

// handleListReviews returns a page of reviews for one game
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ref := models.ItemRef(pathParam(r, "itemRef"))
	page, err := intParam(r, query.ParamPage)
	if err != nil {
		respondError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	limit, err := intParam(r, query.ParamLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	reviews, err := s.catalog.ListReviews(r.Context(), ref, page, limit)
	if err != nil {
		respondServiceError(w, r, err, "Game not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"data": reviews})
}

// handleCreateReview adds a review to a game
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := s.catalog.AddReview(r.Context(), req.toCreate())
	if err != nil {
		respondServiceError(w, r, err, "Game not found")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"data": review})
}

// handleDeleteReview removes a review and echoes it back
func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return
	}

	review, err := s.catalog.DeleteReview(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "Review not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Review deleted successfully",
		"review":  review,
	})
}

func intParam(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
