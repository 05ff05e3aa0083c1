package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/meur/vgcatalog/internal/models"
)

// Query-string keys of the listing protocol. Any other key naming a
// whitelisted column is a column filter.
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSortBy    = "sort_by"
	ParamSortOrder = "sort_order"
	ParamGeneral   = "general"
)

var ErrInvalidParam = errors.New("invalid listing parameter")

// Limits bounds the page size a client may request.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

var DefaultLimits = Limits{DefaultPageSize: 10, MaxPageSize: 100}

// Normalize coerces pagination into range and drops empty terms. Both the
// server and the client run it, so a URL and the request it produces agree.
func (l Limits) Normalize(req models.ListingRequest) models.ListingRequest {
	out := req.Clone()
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = l.DefaultPageSize
	}
	if l.MaxPageSize > 0 && out.PageSize > l.MaxPageSize {
		out.PageSize = l.MaxPageSize
	}
	// Past this page the offset no longer fits in an int.
	if maxPage := math.MaxInt / out.PageSize; out.Page > maxPage {
		out.Page = maxPage
	}
	out.General = strings.TrimSpace(out.General)
	var sorts []models.SortSpec
	for _, s := range out.Sort {
		col := strings.TrimSpace(s.Column)
		if col == "" {
			continue
		}
		sorts = append(sorts, models.SortSpec{Column: col, Direction: models.ParseDirection(string(s.Direction))})
	}
	out.Sort = sorts
	var filters map[string]string
	for k, v := range out.Filters {
		if v = strings.TrimSpace(v); v != "" {
			if filters == nil {
				filters = make(map[string]string)
			}
			filters[k] = v
		}
	}
	out.Filters = filters
	return out
}

// ParseValues decodes a listing request from query parameters. Only
// non-numeric pagination is an error; everything else degrades.
func ParseValues(v url.Values, wl Whitelist) (models.ListingRequest, error) {
	var req models.ListingRequest
	var err error
	if req.Page, err = parseInt(v, ParamPage); err != nil {
		return models.ListingRequest{}, err
	}
	if req.PageSize, err = parseInt(v, ParamLimit); err != nil {
		return models.ListingRequest{}, err
	}
	req.Sort = parseSort(v.Get(ParamSortBy), v.Get(ParamSortOrder))
	req.General = strings.TrimSpace(v.Get(ParamGeneral))
	for key := range v {
		if isReserved(key) || !wl.Has(key) {
			continue
		}
		term := strings.TrimSpace(v.Get(key))
		if term == "" {
			continue
		}
		if req.Filters == nil {
			req.Filters = make(map[string]string)
		}
		req.Filters[key] = term
	}
	return req, nil
}

// ParseQuery is ParseValues over a raw query string, with or without a
// leading '?'.
func ParseQuery(raw string, wl Whitelist) (models.ListingRequest, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return models.ListingRequest{}, fmt.Errorf("%w: %w", ErrInvalidParam, err)
	}
	return ParseValues(v, wl)
}

// EncodeValues is the inverse of ParseValues.
func EncodeValues(req models.ListingRequest) url.Values {
	v := url.Values{}
	if req.Page > 0 {
		v.Set(ParamPage, strconv.Itoa(req.Page))
	}
	if req.PageSize > 0 {
		v.Set(ParamLimit, strconv.Itoa(req.PageSize))
	}
	if len(req.Sort) > 0 {
		cols := make([]string, len(req.Sort))
		dirs := make([]string, len(req.Sort))
		for i, s := range req.Sort {
			cols[i] = s.Column
			dirs[i] = string(models.ParseDirection(string(s.Direction)))
		}
		v.Set(ParamSortBy, strings.Join(cols, ","))
		v.Set(ParamSortOrder, strings.Join(dirs, ","))
	}
	if req.General != "" {
		v.Set(ParamGeneral, req.General)
	}
	for _, k := range sortedKeys(req.Filters) {
		if req.Filters[k] != "" && !isReserved(k) {
			v.Set(k, req.Filters[k])
		}
	}
	return v
}

func parseInt(v url.Values, key string) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidParam, key, raw)
	}
	return n, nil
}

// parseSort zips the two comma lists by position. Missing directions are ASC.
func parseSort(by, order string) []models.SortSpec {
	if strings.TrimSpace(by) == "" {
		return nil
	}
	cols := strings.Split(by, ",")
	dirs := strings.Split(order, ",")
	var specs []models.SortSpec
	for i, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		dir := models.Asc
		if i < len(dirs) {
			dir = models.ParseDirection(dirs[i])
		}
		specs = append(specs, models.SortSpec{Column: c, Direction: dir})
	}
	return specs
}

func isReserved(key string) bool {
	switch key {
	case ParamPage, ParamLimit, ParamSortBy, ParamSortOrder, ParamGeneral:
		return true
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
