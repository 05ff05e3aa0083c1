package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureItems = []models.ItemFields{
	{Rank: 1, Name: "Wii Sports", Platform: "Wii", Year: 2006, Genre: "Sports", Publisher: "Nintendo", NASales: 41.49, GlobalSales: 82.74},
	{Rank: 2, Name: "Super Mario Bros.", Platform: "NES", Year: 1985, Genre: "Platform", Publisher: "Nintendo", NASales: 29.08, GlobalSales: 40.24},
	{Rank: 3, Name: "Mario Kart Wii", Platform: "Wii", Year: 2008, Genre: "Racing", Publisher: "Nintendo", NASales: 15.85, GlobalSales: 35.82},
	{Rank: 4, Name: "Wii Sports Resort", Platform: "Wii", Year: 2009, Genre: "Sports", Publisher: "Nintendo", GlobalSales: 33},
	{Rank: 5, Name: "Pokemon Red/Pokemon Blue", Platform: "GB", Year: 1996, Genre: "Role-Playing", Publisher: "Nintendo", GlobalSales: 31.37},
	{Rank: 6, Name: "Tetris", Platform: "GB", Year: 1989, Genre: "Puzzle", Publisher: "Nintendo", GlobalSales: 30.26},
	{Rank: 7, Name: "New Super Mario Bros.", Platform: "DS", Year: 2006, Genre: "Platform", Publisher: "Nintendo", GlobalSales: 30.01},
	{Rank: 8, Name: "Wii Play", Platform: "Wii", Year: 2006, Genre: "Misc", Publisher: "Nintendo", GlobalSales: 29.02},
	{Rank: 9, Name: "New Super Mario Bros. Wii", Platform: "Wii", Year: 2009, Genre: "Platform", Publisher: "Nintendo", GlobalSales: 28.62},
	{Rank: 10, Name: "Duck Hunt", Platform: "NES", Year: 1984, Genre: "Shooter", Publisher: "Nintendo", GlobalSales: 28.31},
	{Rank: 17, Name: "Grand Theft Auto V", Platform: "PS3", Year: 2013, Genre: "Action", Publisher: "Take-Two Interactive", GlobalSales: 21.4},
	{Rank: 24, Name: "Grand Theft Auto V", Platform: "X360", Year: 2013, Genre: "Action", Publisher: "Take-Two Interactive", GlobalSales: 16.38},
	{Rank: 51, Name: "Super Mario Land 2", Platform: "GB", Year: 1992, Genre: "Platform", Publisher: "Nintendo", GlobalSales: 11.18},
	{Rank: 100, Name: "Mario Party DS", Platform: "DS", Year: 2007, Genre: "Misc", Publisher: "Nintendo", GlobalSales: 8.82},
}

func newTestCatalog(t *testing.T) (*Catalog, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open(ctx, storage.Config{Driver: storage.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	_, err = s.BulkCreateItems(ctx, fixtureItems)
	require.NoError(t, err)
	return NewCatalog(s, query.NewBuilder(query.SalesColumns, s.Placeholder()), query.DefaultLimits), s
}

func intPtr(v int) *int { return &v }

func TestCatalog_ListPaging(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	t.Run("Should return min(pageSize, remaining) items per page", func(t *testing.T) {
		for _, size := range []int{1, 3, 5, 14, 20} {
			for page := 1; page <= 5; page++ {
				res, err := c.List(ctx, models.ListingRequest{Page: page, PageSize: size})
				require.NoError(t, err)
				want := min(size, max(0, int(res.Total)-(page-1)*size))
				assert.Len(t, res.Items, want, "page=%d size=%d", page, size)
			}
		}
	})

	t.Run("Should reach exactly total items across all pages", func(t *testing.T) {
		req := models.ListingRequest{PageSize: 4, General: "mario"}
		seen := map[int64]bool{}
		var total int64
		for page := 1; ; page++ {
			req.Page = page
			res, err := c.List(ctx, req)
			require.NoError(t, err)
			total = res.Total
			if len(res.Items) == 0 {
				break
			}
			for _, it := range res.Items {
				assert.False(t, seen[it.ID], "item %d repeated across pages", it.ID)
				seen[it.ID] = true
			}
		}
		assert.EqualValues(t, total, len(seen))
		assert.EqualValues(t, 6, total)
	})

	t.Run("Should clamp non-positive pagination to defaults", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{Page: -1, PageSize: 0})
		require.NoError(t, err)
		assert.Len(t, res.Items, 10)
		assert.EqualValues(t, len(fixtureItems), res.Total)
	})

	t.Run("Should return an empty page rather than an error", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{Page: 1, PageSize: 5, General: "zzz-no-match"})
		require.NoError(t, err)
		assert.Zero(t, res.Total)
		assert.NotNil(t, res.Items)
		assert.Empty(t, res.Items)
	})
}

func TestCatalog_ListHugePage(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	t.Run("Should return an empty page when the offset would overflow", func(t *testing.T) {
		for _, req := range []models.ListingRequest{
			{Page: math.MaxInt, PageSize: 10},
			{Page: math.MaxInt / 5, PageSize: 5},
			{Page: math.MaxInt / 3, PageSize: 4, General: "mario"},
		} {
			res, err := c.List(ctx, req)
			require.NoError(t, err)
			assert.NotNil(t, res.Items)
			assert.Empty(t, res.Items, "page=%d size=%d", req.Page, req.PageSize)
			assert.NotZero(t, res.Total)
		}
	})

	t.Run("Should return no reviews for an overflowing page", func(t *testing.T) {
		_, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "1", Text: "fun", Score: intPtr(1)})
		require.NoError(t, err)
		list, err := c.ListReviews(ctx, "1", math.MaxInt, 10)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestCatalog_ListSortAndFilter(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCatalog(t)

	t.Run("Should order by year descending then name ascending", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{
			Page: 1, PageSize: 50,
			Sort: []models.SortSpec{{Column: "year", Direction: models.Desc}, {Column: "name", Direction: models.Asc}},
		})
		require.NoError(t, err)
		ok := sort.SliceIsSorted(res.Items, func(i, j int) bool {
			a, b := res.Items[i], res.Items[j]
			if a.Year != b.Year {
				return a.Year > b.Year
			}
			return a.Name < b.Name
		})
		assert.True(t, ok)
		assert.Equal(t, "Grand Theft Auto V", res.Items[0].Name)
		assert.Equal(t, "New Super Mario Bros. Wii", res.Items[2].Name)
	})

	t.Run("Should fall back to name ascending for an unknown sort column", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{Page: 1, PageSize: 3, Sort: []models.SortSpec{{Column: "bogus"}}})
		require.NoError(t, err)
		names := []string{res.Items[0].Name, res.Items[1].Name, res.Items[2].Name}
		assert.Equal(t, []string{"Duck Hunt", "Grand Theft Auto V", "Grand Theft Auto V"}, names)
		assert.Less(t, res.Items[1].ID, res.Items[2].ID)
	})

	t.Run("Should AND column filters with the general OR group", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{
			Page: 1, PageSize: 50,
			General: "mario",
			Filters: map[string]string{"platform": "wii", "genre": "PLATFORM"},
		})
		require.NoError(t, err)
		require.EqualValues(t, 1, res.Total)
		assert.Equal(t, "New Super Mario Bros. Wii", res.Items[0].Name)
	})

	t.Run("Should match the general term against numeric columns as text", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{Page: 1, PageSize: 50, General: "82.74"})
		require.NoError(t, err)
		require.EqualValues(t, 1, res.Total)
		assert.Equal(t, "Wii Sports", res.Items[0].Name)
	})

	t.Run("Should drop filters on columns outside the whitelist", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{Page: 1, PageSize: 50, Filters: map[string]string{"id) OR 1=1 --": "x"}})
		require.NoError(t, err)
		assert.EqualValues(t, len(fixtureItems), res.Total)
	})

	t.Run("Should serve the documented mario scenario", func(t *testing.T) {
		res, err := c.List(ctx, models.ListingRequest{
			Page: 2, PageSize: 5,
			Sort:    []models.SortSpec{{Column: "year", Direction: models.Desc}},
			General: "mario",
		})
		require.NoError(t, err)
		assert.EqualValues(t, 6, res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, "Super Mario Bros.", res.Items[0].Name)
		assert.True(t, strings.Contains(strings.ToLower(res.Items[0].Name), "mario"))
	})
}

func TestCatalog_Items(t *testing.T) {
	ctx := context.Background()

	t.Run("Should require a name on create", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.CreateItem(ctx, models.ItemFields{Name: "   "})
		require.ErrorIs(t, err, ErrInvalidRequest)
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("Should report json field names in validation errors", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.CreateItem(ctx, models.ItemFields{Name: "x", NASales: -1})
		require.ErrorIs(t, err, ErrInvalidRequest)
		assert.Contains(t, err.Error(), "na_sales")
	})

	t.Run("Should return NotFound when updating a missing item", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.UpdateItem(ctx, 9999, models.ItemFields{Name: "Ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Should create then update an item", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		item, err := c.CreateItem(ctx, models.ItemFields{Name: " Celeste ", Year: 2018})
		require.NoError(t, err)
		assert.Equal(t, "Celeste", item.Name)
		f := item.Fields()
		f.Genre = "Platform"
		updated, err := c.UpdateItem(ctx, item.ID, f)
		require.NoError(t, err)
		assert.Equal(t, "Platform", updated.Genre)
		assert.Equal(t, 2018, updated.Year)
	})

	t.Run("Should resolve items by id or legacy name", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		byID, err := c.GetItem(ctx, "6")
		require.NoError(t, err)
		assert.Equal(t, "Tetris", byID.Name)
		byName, err := c.GetItem(ctx, "tetris")
		require.NoError(t, err)
		assert.Equal(t, byID, byName)
		_, err = c.GetItem(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("Should fall back to the name for all-digit titles", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		created, err := c.CreateItem(ctx, models.ItemFields{Rank: 1500, Name: "1942", Platform: "NES", Year: 1985, Genre: "Shooter", Publisher: "Capcom"})
		require.NoError(t, err)
		got, err := c.GetItem(ctx, "1942")
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		r, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "1942", Text: "loop!", Score: intPtr(1)})
		require.NoError(t, err)
		require.NotNil(t, r.ItemID)
		assert.Equal(t, created.ID, *r.ItemID)
		list, err := c.ListReviews(ctx, "1942", 1, 10)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Should prefer the id when a title equals an existing id", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.CreateItem(ctx, models.ItemFields{Name: "6", Platform: "PC", Year: 2001})
		require.NoError(t, err)
		got, err := c.GetItem(ctx, "6")
		require.NoError(t, err)
		assert.Equal(t, "Tetris", got.Name)
	})
}

func TestCatalog_Reviews(t *testing.T) {
	ctx := context.Background()

	t.Run("Should accept only the signed score flag", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "1", Text: "fun", Score: intPtr(0)})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		for _, score := range []int{1, -1} {
			r, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "1", Text: "fun", Score: intPtr(score)})
			require.NoError(t, err)
			assert.Equal(t, score, r.Score)
			require.NotNil(t, r.ItemID)
			assert.EqualValues(t, 1, *r.ItemID)
		}
	})

	t.Run("Should require text and score", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "1", Score: intPtr(1)})
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, err = c.AddReview(ctx, models.ReviewCreate{ItemRef: "1", Text: "no score"})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("Should reject reviews for unknown items", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "Half-Life 3", Text: "soon", Score: intPtr(1)})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("Should link reviews added by name to the item id", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		r, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "Duck Hunt", Text: "that dog", Score: intPtr(-1)})
		require.NoError(t, err)
		require.NotNil(t, r.ItemID)
		item, err := c.GetItem(ctx, "Duck Hunt")
		require.NoError(t, err)
		assert.Equal(t, item.ID, *r.ItemID)
		assert.EqualValues(t, 1, item.ReviewCount)
	})

	t.Run("Should list and delete reviews", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		r, err := c.AddReview(ctx, models.ReviewCreate{ItemRef: "2", Text: "classic", Score: intPtr(1), Votes: intPtr(3)})
		require.NoError(t, err)
		list, err := c.ListReviews(ctx, "2", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []models.Review{r}, list)

		deleted, err := c.DeleteReview(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r, deleted)
		list, err = c.ListReviews(ctx, "2", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Should return NotFound for a missing review or item", func(t *testing.T) {
		c, _ := newTestCatalog(t)
		_, err := c.DeleteReview(ctx, 999999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = c.ListReviews(ctx, "424242", 1, 10)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

type failingStore struct{ Store }

func (failingStore) ListItems(context.Context, query.Query, query.Query) (int64, []models.Item, error) {
	return 0, nil, errors.New("connection reset")
}

func TestCatalog_StorageFailure(t *testing.T) {
	t.Run("Should wrap collaborator errors as storage failures", func(t *testing.T) {
		c := NewCatalog(failingStore{}, query.NewBuilder(query.SalesColumns, storage.Placeholder(storage.DriverSQLite)), query.DefaultLimits)
		_, err := c.List(context.Background(), models.ListingRequest{})
		assert.ErrorIs(t, err, ErrStorage)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
