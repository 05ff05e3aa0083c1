package viewstate

import (
	"strings"

	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

type Status int

const (
	Idle Status = iota
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// ViewState is what the user is looking at. Values are never mutated in
// place; every change produces a new ViewState.
type ViewState struct {
	Request models.ListingRequest
	Status  Status
	Total   int64
	// Items stays populated while Loading or Failed so the previous page
	// remains visible.
	Items []models.Item
	Err   error
	Seq   uint64
}

// Pages is the number of pages the current total spans.
func (v ViewState) Pages() int {
	if v.Request.PageSize < 1 || v.Total <= 0 {
		return 0
	}
	return int((v.Total + int64(v.Request.PageSize) - 1) / int64(v.Request.PageSize))
}

func (v ViewState) clone() ViewState {
	out := v
	out.Request = v.Request.Clone()
	if v.Items != nil {
		out.Items = append([]models.Item(nil), v.Items...)
	}
	return out
}

// Encode serializes the request part of v into a query string.
func Encode(v ViewState) string {
	return query.EncodeValues(v.Request).Encode()
}

// Decode parses a query string, with or without the leading '?', into a
// listing request. Unknown filter columns are dropped.
func Decode(raw string) (models.ListingRequest, error) {
	return query.ParseQuery(strings.TrimSpace(raw), query.SalesColumns)
}
