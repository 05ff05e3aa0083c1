package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
	"github.com/meur/vgcatalog/internal/storage"
)

// Store is the persistence the catalog needs. *storage.Store implements it.
type Store interface {
	ListItems(ctx context.Context, count, data query.Query) (int64, []models.Item, error)
	GetItem(ctx context.Context, id int64) (models.Item, error)
	FindItemByName(ctx context.Context, name string) (models.Item, error)
	CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error)
	UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error)
	ListReviews(ctx context.Context, item models.Item, limit, offset int) ([]models.Review, error)
	CreateReview(ctx context.Context, r models.Review) (models.Review, error)
	DeleteReview(ctx context.Context, id int64) (models.Review, error)
}

// Catalog is the listing service: it validates requests, builds queries
// and shapes results.
type Catalog struct {
	store    Store
	builder  *query.Builder
	limits   query.Limits
	validate *validator.Validate
}

func NewCatalog(store Store, builder *query.Builder, limits query.Limits) *Catalog {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Catalog{
		store:    store,
		builder:  builder,
		limits:   limits,
		validate: v,
	}
}

// Limits exposes the pagination bounds so callers can normalize requests
// the same way.
func (c *Catalog) Limits() query.Limits {
	return c.limits
}

// List returns one page of the catalog and the filtered total. The count
// and the page are built from the same normalized request.
func (c *Catalog) List(ctx context.Context, req models.ListingRequest) (models.ListingResult, error) {
	req = c.limits.Normalize(req)
	count, data, err := c.builder.Build(req)
	if err != nil {
		return models.ListingResult{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	logger.FromContext(ctx).Debug("Listing items", "sql", data.SQL, "page", req.Page, "limit", req.PageSize)
	total, items, err := c.store.ListItems(ctx, count, data)
	if err != nil {
		return models.ListingResult{}, storageErr(err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return models.ListingResult{Total: total, Items: items}, nil
}

// GetItem resolves ref as an id, or as a legacy name link. An all-digit
// ref that matches no id is retried as a name, so titles like "1942"
// still resolve.
func (c *Catalog) GetItem(ctx context.Context, ref models.ItemRef) (models.Item, error) {
	name := ref.String()
	if name == "" {
		return models.Item{}, fmt.Errorf("%w: item reference is required", ErrInvalidRequest)
	}
	if id, ok := ref.ID(); ok {
		item, err := c.store.GetItem(ctx, id)
		if !errors.Is(err, storage.ErrNotFound) {
			if err != nil {
				return models.Item{}, storageErr(err)
			}
			return item, nil
		}
	}
	item, err := c.store.FindItemByName(ctx, name)
	if err != nil {
		return models.Item{}, storageErr(err)
	}
	return item, nil
}

func (c *Catalog) CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error) {
	f, err := c.validateItem(f)
	if err != nil {
		return models.Item{}, err
	}
	item, err := c.store.CreateItem(ctx, f)
	if err != nil {
		return models.Item{}, storageErr(err)
	}
	logger.FromContext(ctx).Info("Item created", "id", item.ID, "name", item.Name)
	return item, nil
}

// UpdateItem replaces the full record of item id.
func (c *Catalog) UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error) {
	if id <= 0 {
		return models.Item{}, fmt.Errorf("%w: id must be positive", ErrInvalidRequest)
	}
	f, err := c.validateItem(f)
	if err != nil {
		return models.Item{}, err
	}
	item, err := c.store.UpdateItem(ctx, id, f)
	if err != nil {
		return models.Item{}, storageErr(err)
	}
	logger.FromContext(ctx).Info("Item updated", "id", item.ID)
	return item, nil
}

func (c *Catalog) validateItem(f models.ItemFields) (models.ItemFields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Platform = strings.TrimSpace(f.Platform)
	f.Genre = strings.TrimSpace(f.Genre)
	f.Publisher = strings.TrimSpace(f.Publisher)
	if err := c.validate.Struct(f); err != nil {
		return f, fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	return f, nil
}

// ListReviews returns one page of the reviews of the item behind ref.
func (c *Catalog) ListReviews(ctx context.Context, ref models.ItemRef, page, limit int) ([]models.Review, error) {
	item, err := c.GetItem(ctx, ref)
	if err != nil {
		return nil, err
	}
	req := c.limits.Normalize(models.ListingRequest{Page: page, PageSize: limit})
	reviews, err := c.store.ListReviews(ctx, item, req.PageSize, req.Offset())
	if err != nil {
		return nil, storageErr(err)
	}
	return reviews, nil
}

// AddReview attaches a review to the item behind in.ItemRef. New reviews
// are always linked by id; the name is kept for legacy readers.
func (c *Catalog) AddReview(ctx context.Context, in models.ReviewCreate) (models.Review, error) {
	text := strings.TrimSpace(in.Text)
	switch {
	case text == "":
		return models.Review{}, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	case in.Score == nil:
		return models.Review{}, fmt.Errorf("%w: score is required", ErrInvalidRequest)
	case *in.Score != models.ScorePositive && *in.Score != models.ScoreNegative:
		return models.Review{}, fmt.Errorf("%w: score must be 1 or -1, got %d", ErrInvalidRequest, *in.Score)
	case in.Votes != nil && *in.Votes < 0:
		return models.Review{}, fmt.Errorf("%w: votes must not be negative", ErrInvalidRequest)
	}
	item, err := c.GetItem(ctx, in.ItemRef)
	if errors.Is(err, ErrNotFound) {
		return models.Review{}, fmt.Errorf("%w: unknown item %q", ErrInvalidRequest, in.ItemRef.String())
	}
	if err != nil {
		return models.Review{}, err
	}
	name := item.Name
	review, err := c.store.CreateReview(ctx, models.Review{
		ItemID:  &item.ID,
		AppName: &name,
		Text:    text,
		Score:   *in.Score,
		Votes:   in.Votes,
	})
	if err != nil {
		return models.Review{}, storageErr(err)
	}
	logger.FromContext(ctx).Info("Review added", "id", review.ID, "item_id", item.ID)
	return review, nil
}

func (c *Catalog) DeleteReview(ctx context.Context, id int64) (models.Review, error) {
	if id <= 0 {
		return models.Review{}, fmt.Errorf("%w: review %d", ErrNotFound, id)
	}
	review, err := c.store.DeleteReview(ctx, id)
	if err != nil {
		return models.Review{}, storageErr(err)
	}
	logger.FromContext(ctx).Info("Review deleted", "id", review.ID)
	return review, nil
}

// storageErr translates a storage error into the service taxonomy.
func storageErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// describe turns validator errors into a short client-facing message.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}
