package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"snaplink/internal/entities"
)

// memoryRepository is an in-memory LinkRepository with the same contract as
// the Postgres one. Used by tests; a single mutex covers both tables so
// AppendClick stays atomic with respect to the counter.
type memoryRepository struct {
	mu     sync.Mutex
	links  map[string]*entities.Link // keyed by short code
	clicks map[string][]entities.Click
	nextID int64
}

// NewMemoryRepository creates an empty in-memory link repository
func NewMemoryRepository() LinkRepository {
	return &memoryRepository{
		links:  make(map[string]*entities.Link),
		clicks: make(map[string][]entities.Click),
	}
}

func (r *memoryRepository) Create(_ context.Context, link *entities.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[link.ShortCode]; exists {
		return ErrDuplicateKey
	}

	r.nextID++
	link.ID = strconv.FormatInt(r.nextID, 10)

	stored := *link
	r.links[link.ShortCode] = &stored
	return nil
}

func (r *memoryRepository) FindByCode(_ context.Context, shortCode string) (*entities.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[shortCode]
	if !exists {
		return nil, ErrNotFound
	}

	copied := *link
	return &copied, nil
}

func (r *memoryRepository) AppendClick(_ context.Context, shortCode string, click *entities.Click) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[shortCode]
	if !exists {
		return ErrNotFound
	}

	link.ClickCount++
	click.LinkID = link.ID
	click.ID = int64(len(r.clicks[shortCode]) + 1)
	r.clicks[shortCode] = append(r.clicks[shortCode], *click)
	return nil
}

func (r *memoryRepository) GetStats(_ context.Context, shortCode string) (*entities.Link, []entities.Click, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, exists := r.links[shortCode]
	if !exists {
		return nil, nil, ErrNotFound
	}

	copied := *link
	clicks := make([]entities.Click, len(r.clicks[shortCode]))
	copy(clicks, r.clicks[shortCode])
	return &copied, clicks, nil
}

func (r *memoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for code, link := range r.links {
		if link.Expired(now) {
			delete(r.links, code)
			delete(r.clicks, code)
			removed++
		}
	}
	return removed, nil
}
