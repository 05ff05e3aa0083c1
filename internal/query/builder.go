package query

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/meur/vgcatalog/internal/models"
)

var ErrInvalidPage = errors.New("page and page size must be positive")

// Query is a SQL statement with its bound arguments.
type Query struct {
	SQL  string
	Args []any
}

// SalesTable and ReviewCountsJoin are shared with storage so single-item
// reads return the same shape as listings.
const (
	SalesTable       = "sales s"
	ReviewCountsJoin = "(SELECT app_id, COUNT(*) AS review_count FROM reviews WHERE app_id IS NOT NULL GROUP BY app_id) r ON r.app_id = s.id"
	tiebreakerKey    = "s.id ASC"
)

// ItemColumns selects every models.Item field, review_count included.
var ItemColumns = []string{
	"s.id", "s.rank", "s.name", "s.platform", "s.year", "s.genre", "s.publisher",
	"s.na_sales", "s.eu_sales", "s.jp_sales", "s.other_sales", "s.global_sales",
	reviewCountExpr + " AS review_count",
}

// Builder turns listing requests into parameterized count and page queries.
type Builder struct {
	whitelist Whitelist
	sb        sq.StatementBuilderType
}

func NewBuilder(wl Whitelist, placeholder sq.PlaceholderFormat) *Builder {
	return &Builder{whitelist: wl, sb: sq.StatementBuilder.PlaceholderFormat(placeholder)}
}

// Build returns the count query and the data query for req. Both share the
// same predicates, so the count always matches what paging can reach.
// Unknown columns degrade: sort keys fall back to the default column and
// filters are dropped.
func (b *Builder) Build(req models.ListingRequest) (Query, Query, error) {
	if req.Page < 1 || req.PageSize < 1 {
		return Query{}, Query{}, ErrInvalidPage
	}
	preds, needsJoin := b.predicates(req)

	count := b.sb.Select("COUNT(*)").From(SalesTable)
	if needsJoin {
		count = count.LeftJoin(ReviewCountsJoin)
	}
	data := b.sb.Select(ItemColumns...).From(SalesTable).LeftJoin(ReviewCountsJoin)
	for _, p := range preds {
		count = count.Where(p)
		data = data.Where(p)
	}
	data = data.
		OrderBy(b.orderBy(req.Sort)...).
		Suffix("LIMIT ? OFFSET ?", req.PageSize, req.Offset())

	var cq, dq Query
	var err error
	if cq.SQL, cq.Args, err = count.ToSql(); err != nil {
		return Query{}, Query{}, fmt.Errorf("building count query: %w", err)
	}
	if dq.SQL, dq.Args, err = data.ToSql(); err != nil {
		return Query{}, Query{}, fmt.Errorf("building data query: %w", err)
	}
	return cq, dq, nil
}

func (b *Builder) predicates(req models.ListingRequest) ([]sq.Sqlizer, bool) {
	var preds []sq.Sqlizer
	needsJoin := false
	if term := strings.TrimSpace(req.General); term != "" {
		or := sq.Or{}
		for _, c := range b.whitelist.searchable() {
			or = append(or, contains(c.Expr, term))
			needsJoin = needsJoin || c.Derived
		}
		if len(or) > 0 {
			preds = append(preds, or)
		}
	}
	for _, name := range sortedKeys(req.Filters) {
		col, ok := b.whitelist.Lookup(name)
		if !ok {
			continue
		}
		term := strings.TrimSpace(req.Filters[name])
		if term == "" {
			continue
		}
		preds = append(preds, contains(col.Expr, term))
		needsJoin = needsJoin || col.Derived
	}
	return preds, needsJoin
}

func (b *Builder) orderBy(specs []models.SortSpec) []string {
	keys := make([]string, 0, len(specs)+1)
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		col, ok := b.whitelist.Lookup(s.Column)
		if !ok {
			col = b.whitelist.DefaultSort()
		}
		if seen[col.Name] {
			continue
		}
		seen[col.Name] = true
		keys = append(keys, col.Expr+" "+string(models.ParseDirection(string(s.Direction))))
	}
	if len(keys) == 0 {
		keys = append(keys, b.whitelist.DefaultSort().Expr+" "+string(models.Asc))
	}
	return append(keys, tiebreakerKey)
}

// contains is a case-insensitive substring test on the text form of expr.
// The wildcard wrapping happens here, on the bound value.
func contains(expr, term string) sq.Sqlizer {
	return sq.Expr("LOWER(CAST("+expr+" AS TEXT)) LIKE ? ESCAPE '\\'", LikePattern(term))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern wraps term in % wildcards after escaping LIKE metacharacters.
func LikePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
