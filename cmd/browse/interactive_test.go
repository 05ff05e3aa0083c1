package main

import (
	"context"
	"strconv"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/viewstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedBackend serves total generated games; only List is used.
type pagedBackend struct {
	viewstate.Backend
	total int
}

func (b pagedBackend) List(_ context.Context, req models.ListingRequest) (models.ListingResult, error) {
	items := []models.Item{}
	for i := (req.Page - 1) * req.PageSize; i < min(req.Page*req.PageSize, b.total); i++ {
		items = append(items, models.Item{ID: int64(i + 1), Name: "Game " + strconv.Itoa(i+1)})
	}
	return models.ListingResult{Total: int64(b.total), Items: items}, nil
}

func newTestModel(t *testing.T, raw string) browseModel {
	t.Helper()
	ctx := context.Background()
	ctrl := viewstate.NewController(pagedBackend{total: 25}, viewstate.Options{})
	st, err := ctrl.Restore(ctx, raw)
	require.NoError(t, err)
	return newBrowseModel(ctx, ctrl, st)
}

func press(t *testing.T, m browseModel, msg tea.KeyMsg) (browseModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(browseModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// settle runs cmd and feeds the resulting message back into the model.
func settle(t *testing.T, m browseModel, cmd tea.Cmd) browseModel {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(browseModel)
}

func TestBrowseModel(t *testing.T) {
	t.Run("Should page forward and back", func(t *testing.T) {
		m := newTestModel(t, "limit=10")
		m, cmd := press(t, m, runes("n"))
		m = settle(t, m, cmd)
		assert.Equal(t, 2, m.state.Request.Page)
		assert.Equal(t, "Game 11", m.state.Items[0].Name)

		m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
		m = settle(t, m, cmd)
		assert.Equal(t, 1, m.state.Request.Page)
	})

	t.Run("Should stay on the last page", func(t *testing.T) {
		m := newTestModel(t, "limit=10&page=3")
		_, cmd := press(t, m, runes("n"))
		assert.Nil(t, cmd)
	})

	t.Run("Should sort by the numbered column", func(t *testing.T) {
		m := newTestModel(t, "limit=10")
		m, cmd := press(t, m, runes("3"))
		m = settle(t, m, cmd)
		require.Len(t, m.state.Request.Sort, 1)
		assert.Equal(t, "platform", m.state.Request.Sort[0].Column)
	})

	t.Run("Should search from the input line", func(t *testing.T) {
		m := newTestModel(t, "limit=10&page=2")
		m, _ = press(t, m, runes("/"))
		require.True(t, m.searching)
		m, _ = press(t, m, runes("wii"))
		m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, m.searching)
		m = settle(t, m, cmd)
		assert.Equal(t, "wii", m.state.Request.General)
		assert.Equal(t, 1, m.state.Request.Page)
	})

	t.Run("Should leave the query unchanged when search is cancelled", func(t *testing.T) {
		m := newTestModel(t, "limit=10&general=mario")
		m, _ = press(t, m, runes("/"))
		m, _ = press(t, m, runes("x"))
		m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		assert.Nil(t, cmd)
		assert.Equal(t, "mario", m.search.Value())
	})

	t.Run("Should quit on q", func(t *testing.T) {
		_, cmd := press(t, newTestModel(t, ""), runes("q"))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	})

	t.Run("Should ignore states older than the one shown", func(t *testing.T) {
		m := newTestModel(t, "limit=10")
		old := m.state
		old.Seq--
		old.Total = 99
		next, _ := m.Update(stateMsg(old))
		assert.Equal(t, int64(25), next.(browseModel).state.Total)
	})
}

func TestNewer(t *testing.T) {
	loading := viewstate.ViewState{Seq: 2, Status: viewstate.Loading}
	loaded := viewstate.ViewState{Seq: 2, Status: viewstate.Loaded}

	t.Run("Should prefer the higher sequence", func(t *testing.T) {
		assert.True(t, newer(viewstate.ViewState{Seq: 3, Status: viewstate.Loading}, loaded))
		assert.False(t, newer(viewstate.ViewState{Seq: 1, Status: viewstate.Loaded}, loading))
	})

	t.Run("Should not fall back to loading within one sequence", func(t *testing.T) {
		assert.True(t, newer(loaded, loading))
		assert.False(t, newer(loading, loaded))
	})
}

func TestColumnForKey(t *testing.T) {
	col, ok := columnForKey("1")
	assert.True(t, ok)
	assert.Equal(t, "rank", col)
	col, ok = columnForKey("8")
	assert.True(t, ok)
	assert.Equal(t, "review_count", col)
	_, ok = columnForKey("9")
	assert.False(t, ok)
	_, ok = columnForKey("a")
	assert.False(t, ok)
}
