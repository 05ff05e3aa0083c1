package models

// Item is one row of the sales table: a game release with its regional
// sales figures (millions of units).
type Item struct {
	ID          int64   `json:"id"           db:"id"`
	Rank        int     `json:"rank"         db:"rank"`
	Name        string  `json:"name"         db:"name"`
	Platform    string  `json:"platform"     db:"platform"`
	Year        int     `json:"year"         db:"year"`
	Genre       string  `json:"genre"        db:"genre"`
	Publisher   string  `json:"publisher"    db:"publisher"`
	NASales     float64 `json:"na_sales"     db:"na_sales"`
	EUSales     float64 `json:"eu_sales"     db:"eu_sales"`
	JPSales     float64 `json:"jp_sales"     db:"jp_sales"`
	OtherSales  float64 `json:"other_sales"  db:"other_sales"`
	GlobalSales float64 `json:"global_sales" db:"global_sales"`
	// ReviewCount is derived per request, never stored.
	ReviewCount int64 `json:"review_count" db:"review_count"`
}

// ItemFields is the request body for creating or replacing an item.
// Updates are full-record: omitted fields are stored as zero values.
type ItemFields struct {
	Rank        int     `json:"rank"         validate:"gte=0"`
	Name        string  `json:"name"         validate:"required"`
	Platform    string  `json:"platform"`
	Year        int     `json:"year"         validate:"gte=0"`
	Genre       string  `json:"genre"`
	Publisher   string  `json:"publisher"`
	NASales     float64 `json:"na_sales"     validate:"gte=0"`
	EUSales     float64 `json:"eu_sales"     validate:"gte=0"`
	JPSales     float64 `json:"jp_sales"     validate:"gte=0"`
	OtherSales  float64 `json:"other_sales"  validate:"gte=0"`
	GlobalSales float64 `json:"global_sales" validate:"gte=0"`
}

// Fields returns the mutable part of the item.
func (i Item) Fields() ItemFields {
	return ItemFields{
		Rank:        i.Rank,
		Name:        i.Name,
		Platform:    i.Platform,
		Year:        i.Year,
		Genre:       i.Genre,
		Publisher:   i.Publisher,
		NASales:     i.NASales,
		EUSales:     i.EUSales,
		JPSales:     i.JPSales,
		OtherSales:  i.OtherSales,
		GlobalSales: i.GlobalSales,
	}
}
