package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

var salesColumns = []string{
	"rank", "name", "platform", "year", "genre", "publisher",
	"na_sales", "eu_sales", "jp_sales", "other_sales", "global_sales",
}

func salesValues(f models.ItemFields) []any {
	return []any{
		f.Rank, f.Name, f.Platform, f.Year, f.Genre, f.Publisher,
		f.NASales, f.EUSales, f.JPSales, f.OtherSales, f.GlobalSales,
	}
}

// --- Listing ---

// ListItems runs a count query and a page query in one read-only
// transaction so the total and the page come from the same snapshot.
func (s *Store) ListItems(ctx context.Context, count, data query.Query) (int64, []models.Item, error) {
	var total int64
	items := []models.Item{}
	err := s.withTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		if err := sqlscan.Get(ctx, tx, &total, count.SQL, count.Args...); err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		if err := sqlscan.Select(ctx, tx, &items, data.SQL, data.Args...); err != nil {
			return fmt.Errorf("scanning items: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// --- Items ---

func (s *Store) itemSelect() sq.SelectBuilder {
	return s.sb.Select(query.ItemColumns...).From(query.SalesTable).LeftJoin(query.ReviewCountsJoin)
}

// GetItem returns an item by ID
func (s *Store) GetItem(ctx context.Context, id int64) (models.Item, error) {
	return s.getItem(ctx, s.db, s.itemSelect().Where(sq.Eq{"s.id": id}))
}

// FindItemByName resolves a legacy name link. Names repeat across
// platforms; the lowest id wins, which is the best-ranked release for
// imported data.
func (s *Store) FindItemByName(ctx context.Context, name string) (models.Item, error) {
	b := s.itemSelect().
		Where("LOWER(s.name) = ?", strings.ToLower(strings.TrimSpace(name))).
		OrderBy("s.id ASC").
		Suffix("LIMIT 1")
	return s.getItem(ctx, s.db, b)
}

func (s *Store) getItem(ctx context.Context, q sqlscan.Querier, b sq.SelectBuilder) (models.Item, error) {
	stmt, args, err := b.ToSql()
	if err != nil {
		return models.Item{}, fmt.Errorf("building query: %w", err)
	}
	var item models.Item
	if err := sqlscan.Get(ctx, q, &item, stmt, args...); err != nil {
		if sqlscan.NotFound(err) {
			return models.Item{}, ErrNotFound
		}
		return models.Item{}, fmt.Errorf("scanning item: %w", err)
	}
	return item, nil
}

// CreateItem inserts a new item and returns the stored row.
func (s *Store) CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error) {
	var item models.Item
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		stmt, args, err := s.sb.Insert("sales").
			Columns(salesColumns...).
			Values(salesValues(f)...).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert: %w", err)
		}
		var id int64
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
			return fmt.Errorf("inserting item: %w", err)
		}
		item, err = s.getItem(ctx, tx, s.itemSelect().Where(sq.Eq{"s.id": id}))
		return err
	})
	return item, err
}

// UpdateItem replaces every mutable field of the item with the given id.
func (s *Store) UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error) {
	var item models.Item
	err := s.withTx(ctx, nil, func(tx *sql.Tx) error {
		b := s.sb.Update("sales").Where(sq.Eq{"id": id})
		values := salesValues(f)
		for i, col := range salesColumns {
			b = b.Set(col, values[i])
		}
		stmt, args, err := b.ToSql()
		if err != nil {
			return fmt.Errorf("building update: %w", err)
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		item, err = s.getItem(ctx, tx, s.itemSelect().Where(sq.Eq{"s.id": id}))
		return err
	})
	return item, err
}

// BulkCreateItems inserts many items in a single transaction.
func (s *Store) BulkCreateItems(ctx context.Context, items []models.ItemFields) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	stmtSQL, _, err := s.sb.Insert("sales").
		Columns(salesColumns...).
		Values(make([]any, len(salesColumns))...).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building insert: %w", err)
	}
	inserted := 0
	err = s.withTx(ctx, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, stmtSQL)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()
		for _, f := range items {
			if _, err := stmt.ExecContext(ctx, salesValues(f)...); err != nil {
				return fmt.Errorf("inserting %q: %w", f.Name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
