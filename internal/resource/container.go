package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kce-spotlight/console/internal/apiclient"
)

var (
	// ErrSuperseded is returned by a load or debounced search whose result
	// was overtaken by a newer one. Its result is discarded.
	ErrSuperseded = errors.New("superseded by a newer request")

	ErrDeleteInProgress = errors.New("another delete is in progress")
	ErrNoRemover        = errors.New("resource does not support delete")
)

// PageSizes are the choices offered by the page-size select.
var PageSizes = []int{10, 25, 50, 100}

type Fetcher[T any] func(ctx context.Context, p apiclient.ListParams) (apiclient.Listing[T], error)

type Remover func(ctx context.Context, id string) error

type Config[T any] struct {
	Name        string
	Fetch       Fetcher[T]
	Remove      Remover
	Key         func(T) string
	Limit       int
	ExportLimit int
	Debounce    time.Duration
	Logger      *slog.Logger
}

// DeleteState tracks the most recent row delete.
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	Deleting
	DeleteApplied
	DeleteRolledBack
)

func (d DeleteState) String() string {
	switch d {
	case Deleting:
		return "deleting"
	case DeleteApplied:
		return "applied"
	case DeleteRolledBack:
		return "rolled-back"
	default:
		return "idle"
	}
}

// State is a copy of a container's state for rendering.
type State[T any] struct {
	Page       int
	Limit      int
	Search     string
	Filters    map[string]string
	Loading    bool
	Loaded     bool
	Rows       []T
	TotalPages int
	TotalCount int
	Delete     DeleteState
}

// ShowPagination is false when everything fits on one page.
func (s State[T]) ShowPagination() bool {
	return s.TotalPages > 1
}

func (s State[T]) HasPrev() bool { return s.Page > 1 }
func (s State[T]) HasNext() bool { return s.Page < s.TotalPages }
func (s State[T]) Empty() bool   { return len(s.Rows) == 0 }

// PageNumbers lists up to five page links centred on the current page.
func (s State[T]) PageNumbers() []int {
	if s.TotalPages <= 1 {
		return nil
	}
	start := max(1, s.Page-2)
	end := min(s.TotalPages, start+4)
	start = max(1, end-4)
	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Filter returns the current value of a named filter.
func (s State[T]) Filter(key string) string {
	return s.Filters[key]
}

// Container owns the paginated list behind one management screen.
type Container[T any] struct {
	cfg      Config[T]
	debounce *Debouncer

	mu     sync.Mutex
	state  State[T]
	gen    uint64
	cancel context.CancelFunc
}

func New[T any](cfg Config[T]) *Container[T] {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = 1000
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Container[T]{
		cfg:      cfg,
		debounce: NewDebouncer(cfg.Debounce),
		state: State[T]{
			Page:       1,
			Limit:      cfg.Limit,
			Filters:    map[string]string{},
			TotalPages: 1,
		},
	}
}

// SetPage moves to page n, clamped to at least 1.
func (c *Container[T]) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Page = max(1, n)
}

// SetSearch changes the search term and returns to page 1. Setting the
// current term again changes nothing and reports false.
func (c *Container[T]) SetSearch(term string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Search == term {
		return false
	}
	c.state.Search = term
	c.state.Page = 1
	return true
}

// SetFilter sets a named filter (empty clears it) and returns to page 1
// when the value changed.
func (c *Container[T]) SetFilter(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Filters[key] == value {
		return false
	}
	if value == "" {
		delete(c.state.Filters, key)
	} else {
		c.state.Filters[key] = value
	}
	c.state.Page = 1
	return true
}

// SetLimit changes the page size and returns to page 1 when it changed.
// Non-positive sizes are ignored.
func (c *Container[T]) SetLimit(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || c.state.Limit == n {
		return false
	}
	c.state.Limit = n
	c.state.Page = 1
	return true
}

func (c *Container[T]) paramsLocked() apiclient.ListParams {
	return apiclient.ListParams{
		Page:    c.state.Page,
		Limit:   c.state.Limit,
		Search:  c.state.Search,
		Filters: maps.Clone(c.state.Filters),
	}
}

// Load fetches the current page. Starting a load cancels any load still in
// flight; a load that finishes after a newer one started returns
// ErrSuperseded and leaves state untouched. A failed load empties the rows.
func (c *Container[T]) Load(ctx context.Context) (State[T], error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	params := c.paramsLocked()
	c.state.Loading = true
	c.mu.Unlock()
	defer cancel()

	listing, err := c.cfg.Fetch(lctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return c.snapshotLocked(), ErrSuperseded
	}
	c.cancel = nil
	c.state.Loading = false

	if err != nil {
		c.state.Rows = nil
		c.state.TotalPages = 1
		c.state.TotalCount = 0
		c.cfg.Logger.Error("load list", "resource", c.cfg.Name, "page", params.Page, "error", err)
		return c.snapshotLocked(), fmt.Errorf("load %s: %w", c.cfg.Name, err)
	}

	switch l := listing.(type) {
	case apiclient.Page[T]:
		c.state.Rows = l.Records
		c.state.TotalPages = l.Info.TotalPages
		c.state.TotalCount = l.Info.TotalCount
	default:
		c.state.Rows = nil
		c.state.TotalPages = 1
		c.state.TotalCount = 0
	}
	c.state.Loaded = true
	return c.snapshotLocked(), nil
}

// SearchDebounced applies term and loads once no newer search has arrived
// for the debounce delay. Earlier calls return ErrSuperseded without
// fetching.
func (c *Container[T]) SearchDebounced(ctx context.Context, term string) (State[T], error) {
	if err := c.debounce.Wait(ctx); err != nil {
		return c.Snapshot(), err
	}
	c.SetSearch(term)
	return c.Load(ctx)
}

// Delete removes a row remotely and, only once that succeeds, from the
// current page. On failure the page is left as it was.
func (c *Container[T]) Delete(ctx context.Context, id string) error {
	if c.cfg.Remove == nil {
		return ErrNoRemover
	}

	c.mu.Lock()
	if c.state.Delete == Deleting {
		c.mu.Unlock()
		return ErrDeleteInProgress
	}
	c.state.Delete = Deleting
	c.mu.Unlock()

	err := c.cfg.Remove(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state.Delete = DeleteRolledBack
		c.cfg.Logger.Error("delete row", "resource", c.cfg.Name, "id", id, "error", err)
		return err
	}

	before := len(c.state.Rows)
	c.state.Rows = slices.DeleteFunc(c.state.Rows, func(row T) bool {
		return c.cfg.Key(row) == id
	})
	if removed := before - len(c.state.Rows); removed > 0 {
		c.state.TotalCount = max(0, c.state.TotalCount-removed)
	}
	c.state.Delete = DeleteApplied
	return nil
}

// Patch applies fn to the row with the given key after a confirmed remote
// change. It reports whether the row was on the current page.
func (c *Container[T]) Patch(id string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.state.Rows {
		if c.cfg.Key(c.state.Rows[i]) == id {
			fn(&c.state.Rows[i])
			return true
		}
	}
	return false
}

// Find returns the row with the given key from the current page.
func (c *Container[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, row := range c.state.Rows {
		if c.cfg.Key(row) == id {
			return row, true
		}
	}
	var zero T
	return zero, false
}

// Export fetches every matching record in one request, ignoring the
// current page and page size.
func (c *Container[T]) Export(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	params := c.paramsLocked()
	c.mu.Unlock()
	params.Page = 1
	params.Limit = c.cfg.ExportLimit

	listing, err := c.cfg.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", c.cfg.Name, err)
	}
	return apiclient.Records[T](listing), nil
}

func (c *Container[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Container[T]) snapshotLocked() State[T] {
	s := c.state
	s.Rows = slices.Clone(c.state.Rows)
	s.Filters = maps.Clone(c.state.Filters)
	return s
}
