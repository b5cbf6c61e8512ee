package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStaleResponse marks a fetch that finished after a newer one was issued.
// Its result is discarded so a slow page cannot overwrite a fresh one.
var ErrStaleResponse = errors.New("stale response discarded")

// Page is one server-reported slice of a collection. The backend returns a
// total row count, not a page count; TotalPages derives it.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// ListFilter narrows a paginated listing. Zero values mean "no filter".
type ListFilter struct {
	Query  string
	Status string
	Genre  string
}

// FetchFunc issues one tagged request for exactly the given page and filter.
type FetchFunc[T any] func(ctx context.Context, page int, filter ListFilter) (Page[T], error)

// Pager tracks page and filter state for one collection. Every fetch carries
// a monotonic sequence tag; completions that are no longer the latest tag are
// dropped instead of clobbering newer state.
type Pager[T any] struct {
	fetch FetchFunc[T]

	seq atomic.Uint64

	mu      sync.Mutex
	page    int
	filter  ListFilter
	current Page[T]
	loaded  bool
}

func NewPager[T any](fetch FetchFunc[T]) *Pager[T] {
	return &Pager[T]{fetch: fetch, page: 1}
}

// SetFilter replaces the filter and resets the page to 1.
func (p *Pager[T]) SetFilter(f ListFilter) {
	p.mu.Lock()
	p.filter = f
	p.page = 1
	p.mu.Unlock()
}

func (p *Pager[T]) Filter() ListFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

func (p *Pager[T]) PageNumber() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Current returns the last successfully loaded page.
func (p *Pager[T]) Current() (Page[T], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.loaded
}

// Load fetches the current page under the current filter.
func (p *Pager[T]) Load(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	page, filter := p.page, p.filter
	p.mu.Unlock()
	return p.fetchTagged(ctx, page, filter)
}

// GoTo moves to the given page and fetches it.
func (p *Pager[T]) GoTo(ctx context.Context, page int) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	p.page = page
	filter := p.filter
	p.mu.Unlock()
	return p.fetchTagged(ctx, page, filter)
}

func (p *Pager[T]) fetchTagged(ctx context.Context, page int, filter ListFilter) (Page[T], error) {
	tag := p.seq.Add(1)

	result, err := p.fetch(ctx, page, filter)
	if err != nil {
		return Page[T]{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tag != p.seq.Load() {
		return Page[T]{}, ErrStaleResponse
	}
	p.current = result
	p.loaded = true
	return result, nil
}
