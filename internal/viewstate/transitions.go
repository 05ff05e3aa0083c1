package viewstate

import (
	"strings"

	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

// Transition derives the next request from the current one. Transitions
// must not modify their argument.
type Transition func(models.ListingRequest) models.ListingRequest

// Replace discards the current request, as when restoring from a URL.
func Replace(req models.ListingRequest) Transition {
	return func(models.ListingRequest) models.ListingRequest {
		return req.Clone()
	}
}

// Reload keeps the request as is.
func Reload() Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		return cur.Clone()
	}
}

func GoToPage(page int) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		next.Page = max(page, 1)
		return next
	}
}

func SetPageSize(size int) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		next.PageSize = size
		next.Page = 1
		return next
	}
}

// ClickColumn cycles a header through ascending, descending and unsorted,
// the way a table header click does. Clicking another column starts over
// with that column ascending.
func ClickColumn(column string) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		if !query.SalesColumns.Has(column) {
			return next
		}
		if len(cur.Sort) > 0 && cur.Sort[0].Column == column {
			if models.ParseDirection(string(cur.Sort[0].Direction)) == models.Asc {
				next.Sort = []models.SortSpec{{Column: column, Direction: models.Desc}}
			} else {
				next.Sort = nil
			}
			return next
		}
		next.Sort = []models.SortSpec{{Column: column, Direction: models.Asc}}
		return next
	}
}

// SortBy replaces the sort with specs, in priority order.
func SortBy(specs ...models.SortSpec) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		next.Sort = nil
		for _, s := range specs {
			if query.SalesColumns.Has(s.Column) {
				next.Sort = append(next.Sort, s)
			}
		}
		return next
	}
}

func Search(term string) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		next.General = strings.TrimSpace(term)
		next.Page = 1
		return next
	}
}

// FilterColumn sets the filter on column; an empty term removes it.
func FilterColumn(column, term string) Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		if !query.SalesColumns.Has(column) {
			return next
		}
		term = strings.TrimSpace(term)
		if term == "" {
			delete(next.Filters, column)
		} else {
			if next.Filters == nil {
				next.Filters = make(map[string]string)
			}
			next.Filters[column] = term
		}
		next.Page = 1
		return next
	}
}

func ClearFilters() Transition {
	return func(cur models.ListingRequest) models.ListingRequest {
		next := cur.Clone()
		next.General = ""
		next.Filters = nil
		next.Page = 1
		return next
	}
}
