package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/viewstate"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numberStyle   = cellStyle.Align(lipgloss.Right)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var columns = []string{"rank", "name", "platform", "year", "genre", "publisher", "global_sales", "review_count"}

// sortMarker shows the direction next to sorted column headers.
func sortMarker(req models.ListingRequest, col string) string {
	for _, s := range req.Sort {
		if s.Column == col {
			if models.ParseDirection(string(s.Direction)) == models.Desc {
				return " ▼"
			}
			return " ▲"
		}
	}
	return ""
}

func renderPage(st viewstate.ViewState) string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c + sortMarker(st.Request, c)
	}
	rows := make([][]string, 0, len(st.Items))
	for _, it := range st.Items {
		rows = append(rows, []string{
			strconv.Itoa(it.Rank),
			it.Name,
			it.Platform,
			strconv.Itoa(it.Year),
			it.Genre,
			it.Publisher,
			strconv.FormatFloat(it.GlobalSales, 'f', 2, 64),
			strconv.FormatInt(it.ReviewCount, 10),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 3 || col >= 6:
				return numberStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteByte('\n')
	b.WriteString(mutedStyle.Render(footer(st)))
	return b.String()
}

func footer(st viewstate.ViewState) string {
	parts := []string{fmt.Sprintf("page %d of %d", st.Request.Page, max(st.Pages(), 1)), fmt.Sprintf("%d games", st.Total)}
	if st.Request.General != "" {
		parts = append(parts, fmt.Sprintf("search %q", st.Request.General))
	}
	keys := make([]string, 0, len(st.Request.Filters))
	for k := range st.Request.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s~%q", k, st.Request.Filters[k]))
	}
	if st.Status == viewstate.Failed {
		parts = append(parts, "stale: last request failed")
	}
	return strings.Join(parts, " · ")
}

func renderReviews(ref string, reviews []models.Review) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Reviews of " + ref))
	b.WriteByte('\n')
	if len(reviews) == 0 {
		b.WriteString(mutedStyle.Render("  no reviews yet"))
		return b.String()
	}
	for _, r := range reviews {
		mark := positiveStyle.Render("+")
		if r.Score == models.ScoreNegative {
			mark = negativeStyle.Render("-")
		}
		votes := ""
		if r.Votes != nil {
			votes = mutedStyle.Render(fmt.Sprintf(" (%d votes)", *r.Votes))
		}
		fmt.Fprintf(&b, "  %s %s%s\n", mark, r.Text, votes)
	}
	return strings.TrimRight(b.String(), "\n")
}
