package viewstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/models"
	"github.com/meur/vgcatalog/internal/query"
)

const DefaultTimeout = 10 * time.Second

// Backend is the catalog API as seen by the controller.
// *client.APIClient implements it.
type Backend interface {
	List(ctx context.Context, req models.ListingRequest) (models.ListingResult, error)
	CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error)
	UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error)
	Reviews(ctx context.Context, ref models.ItemRef, page, limit int) ([]models.Review, error)
	AddReview(ctx context.Context, in models.ReviewCreate) (models.Review, error)
	DeleteReview(ctx context.Context, id int64) (models.Review, error)
}

type Options struct {
	// Timeout caps each listing request. Zero means DefaultTimeout.
	Timeout time.Duration
	Limits  query.Limits
	// Notify receives failures without disturbing the rendered state.
	Notify func(error)
	// OnChange receives every state the controller publishes.
	OnChange func(ViewState)
	Logger   logger.Logger
}

// Controller owns the canonical ViewState. Every interaction updates the
// state first and then requests exactly that state; a response is applied
// only if no newer request has been issued since.
type Controller struct {
	backend Backend
	opts    Options

	mu     sync.Mutex
	state  ViewState
	seq    uint64
	cancel context.CancelFunc
}

func NewController(backend Backend, opts Options) *Controller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Limits.DefaultPageSize <= 0 {
		opts.Limits = query.DefaultLimits
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetDefault()
	}
	c := &Controller{backend: backend, opts: opts}
	c.state.Request = opts.Limits.Normalize(models.ListingRequest{})
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// URL is the query string that reproduces the current view.
func (c *Controller) URL() string {
	return Encode(c.State())
}

// Dispatch applies t, fetches the resulting page and returns the state
// that is current once the response has been handled. If a newer
// Dispatch overtook this one, its response is discarded.
func (c *Controller) Dispatch(ctx context.Context, t Transition) ViewState {
	c.mu.Lock()
	next := c.opts.Limits.Normalize(t(c.state.Request))
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	c.cancel = cancel
	loading := c.state.clone()
	loading.Request = next
	loading.Status = Loading
	loading.Err = nil
	loading.Seq = seq
	c.state = loading
	c.mu.Unlock()
	c.publish(loading)

	defer cancel()
	res, err := c.backend.List(reqCtx, next)

	c.mu.Lock()
	if c.state.Seq != seq {
		current := c.state.clone()
		c.mu.Unlock()
		c.opts.Logger.Debug("Discarding stale listing response", "seq", seq, "latest", current.Seq)
		return current
	}
	done := c.state.clone()
	if err != nil {
		done.Status = Failed
		done.Err = err
	} else {
		done.Status = Loaded
		done.Total = res.Total
		done.Items = res.Items
	}
	c.state = done
	c.cancel = nil
	c.mu.Unlock()

	if err != nil {
		c.notify(fmt.Errorf("loading page %d: %w", next.Page, err))
	}
	c.publish(done)
	return done.clone()
}

// Restore loads the view encoded in raw, as when following a shared link
// or navigating back. A malformed query leaves the state untouched.
func (c *Controller) Restore(ctx context.Context, raw string) (ViewState, error) {
	req, err := Decode(raw)
	if err != nil {
		c.notify(err)
		return c.State(), err
	}
	return c.Dispatch(ctx, Replace(req)), nil
}

// UpdateItem saves f on the server and, once confirmed, replaces the row
// on the current page.
func (c *Controller) UpdateItem(ctx context.Context, id int64, f models.ItemFields) (models.Item, error) {
	item, err := c.backend.UpdateItem(ctx, id, f)
	if err != nil {
		c.notify(fmt.Errorf("updating item %d: %w", id, err))
		return models.Item{}, err
	}
	c.mu.Lock()
	next := c.state.clone()
	for i := range next.Items {
		if next.Items[i].ID == item.ID {
			next.Items[i] = item
		}
	}
	c.state = next
	c.mu.Unlock()
	c.publish(next)
	return item, nil
}

// CreateItem saves a new item and reloads the current page, since the
// total and possibly the page contents change.
func (c *Controller) CreateItem(ctx context.Context, f models.ItemFields) (models.Item, error) {
	item, err := c.backend.CreateItem(ctx, f)
	if err != nil {
		c.notify(fmt.Errorf("creating item: %w", err))
		return models.Item{}, err
	}
	c.Dispatch(ctx, Reload())
	return item, nil
}

func (c *Controller) publish(v ViewState) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(v)
	}
}

func (c *Controller) notify(err error) {
	c.opts.Logger.Warn("Catalog request failed", "error", err)
	if c.opts.Notify != nil {
		c.opts.Notify(err)
	}
}
