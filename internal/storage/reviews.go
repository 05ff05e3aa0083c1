package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/meur/vgcatalog/internal/models"
)

const reviewReturning = "RETURNING id, app_id, app_name, review_text, review_score, review_votes"

var reviewColumns = []string{"id", "app_id", "app_name", "review_text", "review_score", "review_votes"}

// reviewsOf matches reviews linked to the item by id and legacy rows that
// only carry its name.
func reviewsOf(item models.Item) sq.Sqlizer {
	return sq.Or{
		sq.Eq{"app_id": item.ID},
		sq.And{
			sq.Eq{"app_id": nil},
			sq.Expr("LOWER(app_name) = ?", strings.ToLower(item.Name)),
		},
	}
}

// ListReviews returns one page of an item's reviews: positive first, then
// most voted, then by text.
func (s *Store) ListReviews(ctx context.Context, item models.Item, limit, offset int) ([]models.Review, error) {
	stmt, args, err := s.sb.Select(reviewColumns...).
		From("reviews").
		Where(reviewsOf(item)).
		OrderBy("review_score DESC", "COALESCE(review_votes, 0) DESC", "review_text ASC", "id ASC").
		Suffix("LIMIT ? OFFSET ?", limit, offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	reviews := []models.Review{}
	if err := sqlscan.Select(ctx, s.db, &reviews, stmt, args...); err != nil {
		return nil, fmt.Errorf("scanning reviews: %w", err)
	}
	return reviews, nil
}

// CreateReview inserts a review and returns the stored row.
func (s *Store) CreateReview(ctx context.Context, r models.Review) (models.Review, error) {
	stmt, args, err := s.sb.Insert("reviews").
		Columns("app_id", "app_name", "review_text", "review_score", "review_votes").
		Values(r.ItemID, r.AppName, r.Text, r.Score, r.Votes).
		Suffix(reviewReturning).
		ToSql()
	if err != nil {
		return models.Review{}, fmt.Errorf("building insert: %w", err)
	}
	var out models.Review
	if err := sqlscan.Get(ctx, s.db, &out, stmt, args...); err != nil {
		return models.Review{}, fmt.Errorf("inserting review: %w", err)
	}
	return out, nil
}

// DeleteReview removes a review and returns the deleted row.
func (s *Store) DeleteReview(ctx context.Context, id int64) (models.Review, error) {
	stmt, args, err := s.sb.Delete("reviews").
		Where(sq.Eq{"id": id}).
		Suffix(reviewReturning).
		ToSql()
	if err != nil {
		return models.Review{}, fmt.Errorf("building delete: %w", err)
	}
	var out models.Review
	if err := sqlscan.Get(ctx, s.db, &out, stmt, args...); err != nil {
		if sqlscan.NotFound(err) {
			return models.Review{}, ErrNotFound
		}
		return models.Review{}, fmt.Errorf("deleting review: %w", err)
	}
	return out, nil
}

// BulkCreateReviews inserts many reviews in a single transaction.
func (s *Store) BulkCreateReviews(ctx context.Context, reviews []models.Review) (int, error) {
	if len(reviews) == 0 {
		return 0, nil
	}
	stmtSQL, _, err := s.sb.Insert("reviews").
		Columns("app_id", "app_name", "review_text", "review_score", "review_votes").
		Values(nil, nil, nil, nil, nil).
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
		for _, r := range reviews {
			if _, err := stmt.ExecContext(ctx, r.ItemID, r.AppName, r.Text, r.Score, r.Votes); err != nil {
				return fmt.Errorf("inserting review: %w", err)
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

// LegacyReviewNames lists the distinct names of reviews not yet linked by id.
func (s *Store) LegacyReviewNames(ctx context.Context) ([]string, error) {
	stmt, args, err := s.sb.Select("DISTINCT app_name").
		From("reviews").
		Where(sq.And{sq.Eq{"app_id": nil}, sq.NotEq{"app_name": nil}}).
		OrderBy("app_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	var names []string
	if err := sqlscan.Select(ctx, s.db, &names, stmt, args...); err != nil {
		return nil, fmt.Errorf("scanning names: %w", err)
	}
	return names, nil
}

// LinkReviews sets the canonical item id on legacy reviews carrying name.
func (s *Store) LinkReviews(ctx context.Context, name string, itemID int64) (int64, error) {
	stmt, args, err := s.sb.Update("reviews").
		Set("app_id", itemID).
		Where(sq.And{sq.Eq{"app_id": nil}, sq.Eq{"app_name": name}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("linking reviews: %w", err)
	}
	return res.RowsAffected()
}
