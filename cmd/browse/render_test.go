package main

import (
	"testing"

	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/viewstate"
	"github.com/stretchr/testify/assert"
)

func TestRenderPage(t *testing.T) {
	st := viewstate.ViewState{
		Request: models.ListingRequest{
			Page:     2,
			PageSize: 5,
			Sort:     []models.SortSpec{{Column: "year", Direction: models.Desc}},
			General:  "mario",
			Filters:  map[string]string{"platform": "wii"},
		},
		Status: viewstate.Loaded,
		Total:  6,
		Items:  []models.Item{{ID: 2, Rank: 2, Name: "Super Mario Bros.", Platform: "NES", Year: 1985, GlobalSales: 40.24}},
	}

	t.Run("Should render rows, sort markers and the footer", func(t *testing.T) {
		out := renderPage(st)
		assert.Contains(t, out, "Super Mario Bros.")
		assert.Contains(t, out, "year ▼")
		assert.Contains(t, out, "40.24")
		assert.Contains(t, out, `page 2 of 2 · 6 games · search "mario" · platform~"wii"`)
	})

	t.Run("Should flag a failed refresh", func(t *testing.T) {
		failed := st
		failed.Status = viewstate.Failed
		assert.Contains(t, footer(failed), "stale: last request failed")
	})
}

func TestRenderReviews(t *testing.T) {
	votes := 3
	out := renderReviews("Tetris", []models.Review{
		{ID: 1, Text: "Timeless.", Score: 1, Votes: &votes},
		{ID: 2, Text: "Too hard.", Score: -1},
	})
	assert.Contains(t, out, "Reviews of Tetris")
	assert.Contains(t, out, "Timeless.")
	assert.Contains(t, out, "(3 votes)")
	assert.Contains(t, renderReviews("x", nil), "no reviews yet")
}
