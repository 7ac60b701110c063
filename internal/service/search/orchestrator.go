package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/kirinyoku/citypulse/internal/domain"
)

const (
	DefaultDebounce      = 500 * time.Millisecond
	DefaultQueueSize     = 256
	DefaultFallbackLimit = 20
)

// Gateway is the remote search surface the orchestrator drives.
type Gateway interface {
	Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error)
	PopularEvents(ctx context.Context, city string) []domain.Event
	SearchByCategory(ctx context.Context, category, city string) ([]domain.Event, error)
	EventByID(ctx context.Context, id string) (domain.Event, error)
}

// EventStore is the durable cache used for write-behind and degraded reads.
type EventStore interface {
	EventCache(ctx context.Context) (*domain.EventCache, error)
	EventFromCache(ctx context.Context, id string) (domain.Event, bool, error)
	SaveEventsToCache(ctx context.Context, events []domain.Event) error
}

type Config struct {
	Debounce time.Duration
	PageSize int
	// QueueSize bounds the number of result batches waiting to be persisted.
	QueueSize int
	// FallbackLimit caps how many cached events a degraded search shows.
	FallbackLimit int
	Logger        *slog.Logger
}

// Orchestrator owns the UI result state. Gateway and store failures never
// escape it; they end up in State.Error.
//
// Every replacing operation (page-0 search, popular, category, clear) starts a
// new generation. Responses belonging to an older generation are dropped, so a
// slow page-N request cannot append to the results of a newer query. Within a
// generation pages are applied in page order: a page that arrives ahead of its
// predecessor waits in pending, and a page already applied is dropped.
type Orchestrator struct {
	gw     Gateway
	store  EventStore
	logger *slog.Logger
	cfg    Config

	ctx    context.Context
	cancel context.CancelFunc

	debounce *debouncer
	persist  chan []domain.Event
	worker   sync.WaitGroup

	mu         sync.Mutex
	state      State
	generation uint64
	loadedPage int
	pending    map[int]domain.SearchResult
	inflight   int
	subs       map[int]chan State
	nextSub    int
	closed     bool
}

func New(gw Gateway, store EventStore, cfg Config) *Orchestrator {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = domain.DefaultPageSize
	}

	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	if cfg.FallbackLimit <= 0 {
		cfg.FallbackLimit = DefaultFallbackLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ctx, cancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		gw:         gw,
		store:      store,
		logger:     logger,
		cfg:        cfg,
		ctx:        ctx,
		cancel:     cancel,
		debounce:   newDebouncer(cfg.Debounce),
		persist:    make(chan []domain.Event, cfg.QueueSize),
		state:      State{Events: []domain.Event{}},
		loadedPage: -1,
		pending:    make(map[int]domain.SearchResult),
		subs:       make(map[int]chan State),
	}

	o.worker.Add(1)
	go o.runPersist()

	return o
}

// Search is the debounced form of SearchEvents: calls made within the debounce
// window collapse into one, run with the arguments of the last call.
func (o *Orchestrator) Search(params domain.SearchParams) {
	o.debounce.call(func() {
		o.SearchEvents(o.ctx, params)
	})
}

// SearchEvents runs a search immediately. Page 0 replaces the current events,
// any later page appends to them. A failed page-0 search falls back to the
// durable event cache.
func (o *Orchestrator) SearchEvents(ctx context.Context, params domain.SearchParams) {
	const op = "search.Orchestrator.SearchEvents"

	params = params.WithDefaults(o.cfg.PageSize)
	replacing := params.Page == 0

	gen := o.begin(replacing, func(s *State) {
		p := params
		s.LastSearchParams = &p
	})
	defer o.finish()

	res, err := o.gw.Search(ctx, params)
	if err != nil {
		o.logger.Warn("search failed",
			"op", op,
			"keyword", params.Keyword,
			"city", params.City,
			"page", params.Page,
			"error", err,
		)

		msg := userMessage(err, MsgSearchFailed)
		if !o.apply(gen, func(s *State) { s.Error = msg }) {
			return
		}

		if replacing {
			o.fallback(ctx, gen)
		}

		return
	}

	// Persist even when superseded: the events are valid and useful offline.
	o.enqueue(res.Events)

	applied := o.apply(gen, func(*State) { o.applyPageLocked(params.Page, res) })
	if !applied {
		o.logger.Debug("discarding superseded search response", "op", op, "page", params.Page)
	}
}

// PopularEvents replaces the events with the gateway's popular events as a single page.
func (o *Orchestrator) PopularEvents(ctx context.Context, city string) {
	gen := o.begin(true, nil)
	defer o.finish()

	events := o.gw.PopularEvents(ctx, city)

	o.enqueue(events)
	o.apply(gen, func(s *State) { s.replacePage(events) })
}

// EventsByCategory replaces the events with one page of a category search.
func (o *Orchestrator) EventsByCategory(ctx context.Context, category, city string) {
	const op = "search.Orchestrator.EventsByCategory"

	gen := o.begin(true, nil)
	defer o.finish()

	events, err := o.gw.SearchByCategory(ctx, category, city)
	if err != nil {
		o.logger.Warn("category search failed", "op", op, "category", category, "city", city, "error", err)

		msg := userMessage(err, MsgSearchFailed)
		o.apply(gen, func(s *State) { s.Error = msg })

		return
	}

	o.enqueue(events)
	o.apply(gen, func(s *State) { s.replacePage(events) })
}

// EventByID serves an event from the durable cache, falling back to the
// gateway. A gateway failure is returned and its user message put in State.Error.
func (o *Orchestrator) EventByID(ctx context.Context, id string) (domain.Event, error) {
	const op = "search.Orchestrator.EventByID"

	e, ok, err := o.store.EventFromCache(ctx, id)
	if err != nil {
		o.logger.Warn("event cache read failed", "op", op, "id", id, "error", err)
	}

	if ok {
		return e, nil
	}

	e, err = o.gw.EventByID(ctx, id)
	if err != nil {
		o.logger.Warn("event lookup failed", "op", op, "id", id, "error", err)

		msg := userMessage(err, MsgEventFailed)

		o.mu.Lock()
		o.state.Error = msg
		o.publishLocked()
		o.mu.Unlock()

		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	o.enqueue([]domain.Event{e})

	return e, nil
}

// ClearEvents resets the result state and forgets the last search.
// Requests still in flight are discarded when they complete.
func (o *Orchestrator) ClearEvents() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.resetPagesLocked()
	o.state = State{
		Events:    []domain.Event{},
		IsLoading: o.inflight > 0,
	}
	o.publishLocked()
}

// RefreshEvents re-runs the last search from page 0. It does nothing if no
// search has run yet.
func (o *Orchestrator) RefreshEvents(ctx context.Context) {
	o.mu.Lock()
	last := o.state.LastSearchParams
	o.mu.Unlock()

	if last == nil {
		return
	}

	params := *last
	params.Page = 0

	o.SearchEvents(ctx, params)
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state.clone()
}

// Subscribe returns a channel holding the latest state snapshot. Slow readers
// skip intermediate states. The channel is closed by the returned func or by Close.
func (o *Orchestrator) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	ch <- o.state.clone()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()

			if c, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(c)
			}
		})
	}
}

// Close cancels a pending debounced search, flushes queued writes and closes
// all subscriptions.
func (o *Orchestrator) Close() {
	o.debounce.stop()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	o.closed = true
	close(o.persist)

	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	o.mu.Unlock()

	o.worker.Wait()
	o.cancel()
}

func (s *State) replacePage(events []domain.Event) {
	s.Events = append([]domain.Event{}, events...)
	s.TotalPages = 1
	s.CurrentPage = 0
	s.TotalElements = len(events)
}

// begin marks a request as in flight, clears the previous error and returns
// the generation the response must match.
func (o *Orchestrator) begin(replacing bool, mutate func(*State)) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if replacing {
		o.resetPagesLocked()
	}

	o.inflight++
	o.state.IsLoading = true
	o.state.Error = ""

	if mutate != nil {
		mutate(&o.state)
	}

	o.publishLocked()

	return o.generation
}

// apply runs mutate if gen is still current and reports whether it did.
func (o *Orchestrator) apply(gen uint64, mutate func(*State)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		return false
	}

	mutate(&o.state)
	o.publishLocked()

	return true
}

// resetPagesLocked opens a new generation with no page applied yet.
func (o *Orchestrator) resetPagesLocked() {
	o.generation++
	o.loadedPage = -1
	clear(o.pending)
}

// applyPageLocked applies page and then any held pages that follow it.
// Page 0 replaces the events, later pages append.
func (o *Orchestrator) applyPageLocked(page int, res domain.SearchResult) {
	switch {
	case page <= o.loadedPage:
		o.logger.Debug("dropping page already applied", "page", page, "loaded", o.loadedPage)
		return
	case page > o.loadedPage+1:
		o.pending[page] = res
		return
	}

	for {
		if page == 0 {
			o.state.Events = append([]domain.Event{}, res.Events...)
		} else {
			o.state.Events = append(o.state.Events, res.Events...)
		}

		o.state.TotalPages = res.TotalPages
		o.state.CurrentPage = page
		o.state.TotalElements = res.TotalElements
		o.loadedPage = page

		next, ok := o.pending[page+1]
		if !ok {
			return
		}

		delete(o.pending, page+1)
		page, res = page+1, next
	}
}

func (o *Orchestrator) finish() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.inflight--
	o.state.IsLoading = o.inflight > 0
	o.publishLocked()
}

// fallback shows cached events after a failed first-page search.
func (o *Orchestrator) fallback(ctx context.Context, gen uint64) {
	const op = "search.Orchestrator.fallback"

	cache, err := o.store.EventCache(ctx)
	if err != nil {
		o.logger.Warn("degraded read failed", "op", op, "error", err)
		return
	}

	events := cache.Prefix(o.cfg.FallbackLimit)
	if len(events) == 0 {
		return
	}

	applied := o.apply(gen, func(s *State) {
		s.replacePage(events)
		s.Error = MsgCachedResults
	})
	if applied {
		o.logger.Info("serving cached events", "op", op, "events", len(events))
	}
}

func (o *Orchestrator) publishLocked() {
	for _, ch := range o.subs {
		select {
		case <-ch:
		default:
		}

		ch <- o.state.clone()
	}
}

func (o *Orchestrator) enqueue(events []domain.Event) {
	const op = "search.Orchestrator.enqueue"

	if len(events) == 0 {
		return
	}

	batch := append([]domain.Event{}, events...)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	select {
	case o.persist <- batch:
	default:
		o.logger.Warn("persist queue full, dropping batch", "op", op, "events", len(batch))
	}
}

func (o *Orchestrator) runPersist() {
	const op = "search.Orchestrator.runPersist"

	defer o.worker.Done()

	for batch := range o.persist {
		if err := o.store.SaveEventsToCache(o.ctx, batch); err != nil {
			o.logger.Error("persist events failed", "op", op, "events", len(batch), "error", err)
		}
	}
}
