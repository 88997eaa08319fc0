package livequery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bagaspradana/tokoadmin-backend/pkg/logger"
	"github.com/bagaspradana/tokoadmin-backend/pkg/metrics"
)

// State is a point-in-time snapshot of a controller.
type State[T any] struct {
	Items     []T
	Term      string
	PageIndex int
	HasMore   bool
	Loading   bool
	Err       error
}

// Controller drives a paginated, prefix-searchable, live-updating view
// over one collection. Page cursors are cached per page index so
// stepping backwards never re-derives them. Every mutation of the
// query (term change, page move, change tick) bumps a generation
// counter; fetches that complete under an older generation are
// discarded so a slow page can never overwrite a newer one.
type Controller[T any] struct {
	source     Source[T]
	notifier   Notifier
	collection string
	pageSize   int
	logg       *logger.Logger
	metrics    *metrics.LiveQueryMetrics

	mu         sync.Mutex
	generation uint64
	term       string
	pageIndex  int
	cursors    map[int]*Cursor // start-after cursor for each page index
	state      State[T]

	updates chan State[T]
	cancel  context.CancelFunc
	stopped bool
}

// Options configures a controller. Term seeds the initial search.
type Options struct {
	Collection string
	PageSize   int
	Term       string
	Logger     *logger.Logger
	Metrics    *metrics.LiveQueryMetrics
}

// NewController builds a controller. Call Start to load the first page
// and begin reacting to change notifications.
func NewController[T any](source Source[T], notifier Notifier, opts Options) (*Controller[T], error) {
	if source == nil {
		return nil, fmt.Errorf("source is required")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if opts.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive")
	}
	return &Controller[T]{
		source:     source,
		notifier:   notifier,
		collection: opts.Collection,
		pageSize:   opts.PageSize,
		logg:       opts.Logger,
		metrics:    opts.Metrics,
		term:       opts.Term,
		cursors:    map[int]*Cursor{},
		updates:    make(chan State[T], 1),
	}, nil
}

// Start fetches the first page and subscribes to change notifications.
func (c *Controller[T]) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		cancel()
		return fmt.Errorf("controller already stopped")
	}
	c.cancel = cancel
	c.mu.Unlock()

	if c.notifier != nil {
		ticks, unsubscribe, err := c.notifier.Subscribe(runCtx, c.collection)
		if err != nil {
			cancel()
			return fmt.Errorf("subscribing to %s changes: %w", c.collection, err)
		}
		c.metrics.WatcherStarted(c.collection)
		go func() {
			defer unsubscribe()
			defer c.metrics.WatcherStopped(c.collection)
			for {
				select {
				case <-runCtx.Done():
					return
				case _, ok := <-ticks:
					if !ok {
						return
					}
					c.Refresh(runCtx)
				}
			}
		}()
	}

	c.mu.Lock()
	c.beginFetchLocked(runCtx)
	c.mu.Unlock()
	return nil
}

// SetTerm replaces the search term, drops every cached cursor, and
// reloads from the first page. Setting the current term again still
// reloads, matching a user re-submitting the search box.
func (c *Controller[T]) SetTerm(ctx context.Context, term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.term = term
	c.pageIndex = 0
	c.cursors = map[int]*Cursor{}
	c.beginFetchLocked(ctx)
}

// NextPage advances one page. It is a no-op while a fetch is in flight
// or when the current page is the last one.
func (c *Controller[T]) NextPage(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.state.Loading || !c.state.HasMore {
		return
	}
	if c.cursors[c.pageIndex+1] == nil {
		return
	}
	c.pageIndex++
	c.beginFetchLocked(ctx)
}

// PrevPage steps back one page using the cached cursor. It is a no-op
// while loading or on the first page.
func (c *Controller[T]) PrevPage(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.state.Loading || c.pageIndex == 0 {
		return
	}
	c.pageIndex--
	c.beginFetchLocked(ctx)
}

// Goto jumps to an absolute page index. Cursors for pages never
// visited are reconstructed by walking forward from the nearest cached
// one; jumping past the end lands on the last reachable page. Unlike
// the single-step moves, a jump preempts any fetch in flight and the
// generation guard discards the older result. No-op for a negative
// index or the current page.
func (c *Controller[T]) Goto(ctx context.Context, page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || page < 0 || page == c.pageIndex {
		return
	}
	if page == 0 || c.cursors[page] != nil {
		c.pageIndex = page
		c.beginFetchLocked(ctx)
		return
	}

	start := 0
	for i := page - 1; i > 0; i-- {
		if c.cursors[i] != nil {
			start = i
			break
		}
	}

	c.generation++
	gen := c.generation
	q := Query{
		Term:       c.term,
		Limit:      c.pageSize,
		StartAfter: c.cursors[start],
	}

	c.state.Term = c.term
	c.state.Loading = true
	c.state.Err = nil
	c.publishLocked()

	go c.walkTo(ctx, gen, start, page, q)
}

// walkTo fetches pages forward from index, caching each cursor it
// discovers, until the target page can be fetched directly.
func (c *Controller[T]) walkTo(ctx context.Context, gen uint64, index, target int, q Query) {
	for index < target {
		page, err := c.source.FetchPage(ctx, q)

		c.mu.Lock()
		if gen != c.generation || c.stopped {
			c.metrics.IncStaleDiscard(c.collection)
			c.mu.Unlock()
			return
		}
		if err != nil {
			c.metrics.IncFetchError(c.collection)
			if c.logg != nil {
				c.logg.Error(c.logg.WithCollection(ctx, c.collection), "live query fetch failed", err)
			}
			c.state.Loading = false
			c.state.Err = err
			c.publishLocked()
			c.mu.Unlock()
			return
		}
		if page.Last != nil {
			c.cursors[index+1] = page.Last
		}
		if !page.HasMore {
			c.pageIndex = index
			c.state.PageIndex = index
			c.state.Items = page.Items
			c.state.HasMore = false
			c.state.Loading = false
			c.state.Err = nil
			c.publishLocked()
			c.mu.Unlock()
			return
		}
		q.StartAfter = page.Last
		index++
		c.mu.Unlock()
	}

	c.mu.Lock()
	if gen != c.generation || c.stopped {
		c.metrics.IncStaleDiscard(c.collection)
		c.mu.Unlock()
		return
	}
	c.pageIndex = target
	c.state.PageIndex = target
	c.mu.Unlock()

	c.fetch(ctx, gen, q)
}

// Refresh refetches the current page in place. Change notifications
// funnel through here.
func (c *Controller[T]) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.beginFetchLocked(ctx)
}

// Snapshot returns the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Updates exposes a latest-wins stream of state snapshots. Slow
// consumers only miss intermediate states, never the final one.
func (c *Controller[T]) Updates() <-chan State[T] {
	return c.updates
}

// Stop tears the controller down. Fetches still in flight are
// discarded by the generation guard.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	c.generation++
	if c.cancel != nil {
		c.cancel()
	}
	close(c.updates)
}

// beginFetchLocked bumps the generation and launches the page fetch.
// Callers must hold c.mu.
func (c *Controller[T]) beginFetchLocked(ctx context.Context) {
	c.generation++
	gen := c.generation

	q := Query{
		Term:       c.term,
		Limit:      c.pageSize,
		StartAfter: c.cursors[c.pageIndex],
	}

	c.state.Term = c.term
	c.state.PageIndex = c.pageIndex
	c.state.Loading = true
	c.state.Err = nil
	c.publishLocked()

	go c.fetch(ctx, gen, q)
}

func (c *Controller[T]) fetch(ctx context.Context, gen uint64, q Query) {
	started := time.Now()
	page, err := c.source.FetchPage(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.stopped {
		c.metrics.IncStaleDiscard(c.collection)
		return
	}

	c.state.Loading = false
	if err != nil {
		c.metrics.IncFetchError(c.collection)
		if c.logg != nil {
			c.logg.Error(c.logg.WithCollection(ctx, c.collection), "live query fetch failed", err)
		}
		c.state.Err = err
		c.publishLocked()
		return
	}

	c.metrics.ObserveFetch(c.collection, time.Since(started))
	c.state.Items = page.Items
	c.state.HasMore = page.HasMore
	c.state.Err = nil
	if page.Last != nil {
		c.cursors[c.pageIndex+1] = page.Last
	}
	c.publishLocked()
}

// publishLocked pushes the current state, replacing any unread one.
func (c *Controller[T]) publishLocked() {
	if c.stopped {
		return
	}
	select {
	case <-c.updates:
	default:
	}
	c.updates <- c.state
}
