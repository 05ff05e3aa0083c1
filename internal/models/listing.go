package models

import (
	"math"
	"strings"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection normalizes any spelling of asc/desc; everything else is ASC.
func ParseDirection(s string) Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DESC", "DESCEND", "DESCENDING":
		return Desc
	default:
		return Asc
	}
}

type SortSpec struct {
	Column    string
	Direction Direction
}

// ListingRequest is the canonical description of one page of the catalog.
type ListingRequest struct {
	Page     int
	PageSize int
	Sort     []SortSpec
	General  string
	Filters  map[string]string
}

// Offset is the number of rows skipped before the page starts. It
// saturates at math.MaxInt instead of wrapping.
func (r ListingRequest) Offset() int {
	if r.Page < 1 || r.PageSize < 1 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.PageSize {
		return math.MaxInt
	}
	return (r.Page - 1) * r.PageSize
}

// Clone returns a deep copy so transitions never share slices or maps.
func (r ListingRequest) Clone() ListingRequest {
	out := r
	if r.Sort != nil {
		out.Sort = append([]SortSpec(nil), r.Sort...)
	}
	if r.Filters != nil {
		out.Filters = make(map[string]string, len(r.Filters))
		for k, v := range r.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

type ListingResult struct {
	Total int64  `json:"total"`
	Items []Item `json:"data"`
}
