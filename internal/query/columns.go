package query

import "sort"

// Column is a sortable, filterable attribute exposed to clients. Expr is the
// SQL expression substituted for it; it never comes from user input.
type Column struct {
	Name string
	Expr string
	// Search marks columns covered by the general free-text term.
	Search bool
	// Derived columns need the review-count join.
	Derived bool
}

// Whitelist is the closed set of columns a listing request may reference.
type Whitelist struct {
	columns     map[string]Column
	defaultSort string
}

func NewWhitelist(defaultSort string, cols ...Column) Whitelist {
	w := Whitelist{columns: make(map[string]Column, len(cols)), defaultSort: defaultSort}
	for _, c := range cols {
		w.columns[c.Name] = c
	}
	return w
}

func (w Whitelist) Lookup(name string) (Column, bool) {
	c, ok := w.columns[name]
	return c, ok
}

func (w Whitelist) Has(name string) bool {
	_, ok := w.columns[name]
	return ok
}

// DefaultSort is the column used when a request has no usable sort key.
func (w Whitelist) DefaultSort() Column {
	return w.columns[w.defaultSort]
}

// Names lists the whitelisted column names in sorted order.
func (w Whitelist) Names() []string {
	names := make([]string, 0, len(w.columns))
	for name := range w.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w Whitelist) searchable() []Column {
	var cols []Column
	for _, name := range w.Names() {
		if c := w.columns[name]; c.Search {
			cols = append(cols, c)
		}
	}
	return cols
}

const reviewCountExpr = "COALESCE(r.review_count, 0)"

// SalesColumns is the whitelist for the catalog listing.
var SalesColumns = NewWhitelist("name",
	Column{Name: "rank", Expr: "s.rank"},
	Column{Name: "name", Expr: "s.name", Search: true},
	Column{Name: "platform", Expr: "s.platform", Search: true},
	Column{Name: "year", Expr: "s.year", Search: true},
	Column{Name: "genre", Expr: "s.genre", Search: true},
	Column{Name: "publisher", Expr: "s.publisher", Search: true},
	Column{Name: "na_sales", Expr: "s.na_sales", Search: true},
	Column{Name: "eu_sales", Expr: "s.eu_sales", Search: true},
	Column{Name: "jp_sales", Expr: "s.jp_sales", Search: true},
	Column{Name: "other_sales", Expr: "s.other_sales", Search: true},
	Column{Name: "global_sales", Expr: "s.global_sales", Search: true},
	Column{Name: "review_count", Expr: reviewCountExpr, Derived: true},
)
