package viewstate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meur/vgcatalog/internal/models"
)

// ReviewPanel shows the reviews of one item. Changes are applied only
// after the server confirms them.
type ReviewPanel struct {
	backend Backend
	notify  func(error)
	limit   int

	mu      sync.Mutex
	item    models.ItemRef
	reviews []models.Review
	seq     uint64
}

// NewReviewPanel creates a panel that shows up to limit reviews.
func NewReviewPanel(backend Backend, limit int, notify func(error)) *ReviewPanel {
	return &ReviewPanel{backend: backend, limit: limit, notify: notify}
}

// Open loads the reviews of ref. Opening another item before the response
// arrives discards this one.
func (p *ReviewPanel) Open(ctx context.Context, ref models.ItemRef) ([]models.Review, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	reviews, err := p.backend.Reviews(ctx, ref, 1, p.limit)

	p.mu.Lock()
	stale := seq != p.seq
	if err == nil && !stale {
		p.item = ref
		p.reviews = reviews
	}
	out := append([]models.Review(nil), p.reviews...)
	p.mu.Unlock()

	if err != nil && !stale {
		p.fail(fmt.Errorf("loading reviews of %s: %w", ref, err))
		return out, err
	}
	return out, nil
}

func (p *ReviewPanel) Item() models.ItemRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.item
}

func (p *ReviewPanel) Reviews() []models.Review {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Review(nil), p.reviews...)
}

// Add posts a review for the open item.
func (p *ReviewPanel) Add(ctx context.Context, text string, score int, votes *int) (models.Review, error) {
	ref := p.Item()
	if ref.String() == "" {
		err := fmt.Errorf("no item is open")
		p.fail(err)
		return models.Review{}, err
	}
	r, err := p.backend.AddReview(ctx, models.ReviewCreate{ItemRef: ref, Text: text, Score: &score, Votes: votes})
	if err != nil {
		p.fail(fmt.Errorf("adding review: %w", err))
		return models.Review{}, err
	}
	p.mu.Lock()
	if p.item == ref {
		next := append(append([]models.Review(nil), p.reviews...), r)
		sortReviews(next)
		p.reviews = next
	}
	p.mu.Unlock()
	return r, nil
}

func (p *ReviewPanel) Delete(ctx context.Context, id int64) (models.Review, error) {
	r, err := p.backend.DeleteReview(ctx, id)
	if err != nil {
		p.fail(fmt.Errorf("deleting review %d: %w", id, err))
		return models.Review{}, err
	}
	p.mu.Lock()
	next := make([]models.Review, 0, len(p.reviews))
	for _, existing := range p.reviews {
		if existing.ID != id {
			next = append(next, existing)
		}
	}
	p.reviews = next
	p.mu.Unlock()
	return r, nil
}

func (p *ReviewPanel) fail(err error) {
	if p.notify != nil {
		p.notify(err)
	}
}

// sortReviews orders like the server: positive first, most voted, text.
func sortReviews(rs []models.Review) {
	votes := func(r models.Review) int {
		if r.Votes == nil {
			return 0
		}
		return *r.Votes
	}
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if votes(a) != votes(b) {
			return votes(a) > votes(b)
		}
		if a.Text != b.Text {
			return a.Text < b.Text
		}
		return a.ID < b.ID
	})
}
