// Package dataset reads the public video-game sales and Steam review CSV
// exports into catalog records.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/meur/vgcatalog/internal/models"
)

const DefaultBatchSize = 5000

// Stats summarizes one import pass.
type Stats struct {
	Read    int
	Kept    int
	Skipped int
}

// ReviewRow is a cleaned review line. The export's app_id is a store id,
// not a catalog id, so rows are linked by name.
type ReviewRow struct {
	AppName string
	Text    string
	Score   int
	Votes   *int
}

// Review returns the row as a legacy name-linked review; itemID links it
// when the name resolved.
func (r ReviewRow) Review(itemID *int64) models.Review {
	name := r.AppName
	return models.Review{ItemID: itemID, AppName: &name, Text: r.Text, Score: r.Score, Votes: r.Votes}
}

// droppedTexts are placeholder bodies the review export is full of.
var droppedTexts = map[string]bool{
	"":                    true,
	".":                   true,
	"Early Access Review": true,
}

type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	names, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	h := make(header, len(names))
	for i, n := range names {
		h[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(n, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := h[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return h, nil
}

func (h header) get(rec []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (h header) float(rec []string, col string) float64 {
	f, err := strconv.ParseFloat(h.get(rec, col), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func (h header) int(rec []string, col string) (int, bool) {
	raw := h.get(rec, col)
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Years sometimes arrive as "2006.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, false
		}
		n = int(f)
	}
	return n, true
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// batcher hands records to fn in groups of size.
type batcher[T any] struct {
	size int
	buf  []T
	fn   func([]T) error
}

func (b *batcher[T]) add(v T) error {
	b.buf = append(b.buf, v)
	if len(b.buf) >= b.size {
		return b.flush()
	}
	return nil
}

func (b *batcher[T]) flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	err := b.fn(b.buf)
	b.buf = make([]T, 0, b.size)
	return err
}

// ReadSales parses a vgsales export (Rank, Name, Platform, Year, Genre,
// Publisher, NA_Sales, EU_Sales, JP_Sales, Other_Sales, Global_Sales) and
// passes records to fn in batches. Unknown years ("N/A") become 0; rows
// without a name are skipped.
func ReadSales(r io.Reader, batchSize int, fn func([]models.ItemFields) error) (Stats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	cr := newReader(r)
	h, err := readHeader(cr, "name")
	if err != nil {
		return Stats{}, err
	}
	b := &batcher[models.ItemFields]{size: batchSize, fn: fn}
	var st Stats
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, fmt.Errorf("line %d: %w", st.Read+2, err)
		}
		st.Read++
		name := h.get(rec, "name")
		if name == "" {
			st.Skipped++
			continue
		}
		rank, _ := h.int(rec, "rank")
		year, _ := h.int(rec, "year")
		item := models.ItemFields{
			Rank:        max(rank, 0),
			Name:        name,
			Platform:    h.get(rec, "platform"),
			Year:        max(year, 0),
			Genre:       h.get(rec, "genre"),
			Publisher:   h.get(rec, "publisher"),
			NASales:     h.float(rec, "na_sales"),
			EUSales:     h.float(rec, "eu_sales"),
			JPSales:     h.float(rec, "jp_sales"),
			OtherSales:  h.float(rec, "other_sales"),
			GlobalSales: h.float(rec, "global_sales"),
		}
		if item.Publisher == "N/A" {
			item.Publisher = ""
		}
		if err := b.add(item); err != nil {
			return st, err
		}
		st.Kept++
	}
	return st, b.flush()
}

// minAppID is the first app id of real games in the Steam export; lower ids
// are test and tool entries.
const minAppID = 10

// ReadReviews parses a Steam review export (app_id, app_name, review_text,
// review_score, review_votes). Placeholder texts, scores other than 1 or
// -1 and app ids below minAppID are skipped. Files without an app_id
// column are read without the id filter.
func ReadReviews(r io.Reader, batchSize int, fn func([]ReviewRow) error) (Stats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	cr := newReader(r)
	h, err := readHeader(cr, "app_name", "review_text", "review_score")
	if err != nil {
		return Stats{}, err
	}
	b := &batcher[ReviewRow]{size: batchSize, fn: fn}
	var st Stats
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, fmt.Errorf("line %d: %w", st.Read+2, err)
		}
		st.Read++
		row := ReviewRow{
			AppName: h.get(rec, "app_name"),
			Text:    h.get(rec, "review_text"),
		}
		if appID, ok := h.int(rec, "app_id"); ok && appID < minAppID {
			st.Skipped++
			continue
		}
		score, ok := h.int(rec, "review_score")
		if !ok || (score != models.ScorePositive && score != models.ScoreNegative) || row.AppName == "" || droppedTexts[row.Text] {
			st.Skipped++
			continue
		}
		row.Score = score
		if v, ok := h.int(rec, "review_votes"); ok && v >= 0 {
			row.Votes = &v
		}
		if err := b.add(row); err != nil {
			return st, err
		}
		st.Kept++
	}
	return st, b.flush()
}
