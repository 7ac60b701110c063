package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kirinyoku/citypulse/internal/domain"
	"github.com/kirinyoku/citypulse/internal/gateway"
	"github.com/kirinyoku/citypulse/internal/repository/memory"
	"github.com/kirinyoku/citypulse/internal/service/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

type fakeGateway struct {
	mu          sync.Mutex
	searches    []domain.SearchParams
	detailCalls int

	SearchFn    func(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error)
	PopularFn   func(ctx context.Context, city string) []domain.Event
	CategoryFn  func(ctx context.Context, category, city string) ([]domain.Event, error)
	EventByIDFn func(ctx context.Context, id string) (domain.Event, error)
}

func (f *fakeGateway) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	f.mu.Lock()
	f.searches = append(f.searches, p)
	fn := f.SearchFn
	f.mu.Unlock()

	if fn == nil {
		return domain.SearchResult{Events: []domain.Event{}}, nil
	}

	return fn(ctx, p)
}

func (f *fakeGateway) PopularEvents(ctx context.Context, city string) []domain.Event {
	if f.PopularFn == nil {
		return []domain.Event{}
	}

	return f.PopularFn(ctx, city)
}

func (f *fakeGateway) SearchByCategory(ctx context.Context, category, city string) ([]domain.Event, error) {
	if f.CategoryFn == nil {
		return []domain.Event{}, nil
	}

	return f.CategoryFn(ctx, category, city)
}

func (f *fakeGateway) EventByID(ctx context.Context, id string) (domain.Event, error) {
	f.mu.Lock()
	f.detailCalls++
	f.mu.Unlock()

	return f.EventByIDFn(ctx, id)
}

func (f *fakeGateway) calls() []domain.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]domain.SearchParams{}, f.searches...)
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) (*storage.Service, *memory.KV) {
	t.Helper()

	kv := memory.New()
	return storage.New(kv, discardLogger(), storage.Config{Now: func() time.Time { return testNow }}), kv
}

func newOrchestrator(t *testing.T, gw Gateway, store EventStore, cfg Config) *Orchestrator {
	t.Helper()

	cfg.Logger = discardLogger()
	o := New(gw, store, cfg)
	t.Cleanup(o.Close)

	return o
}

func makeEvents(prefix string, n, daysFromNow int) []domain.Event {
	out := make([]domain.Event, 0, n)
	for i := range n {
		out = append(out, domain.Event{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			Name:      fmt.Sprintf("%s %d", prefix, i),
			StartDate: testNow.AddDate(0, 0, daysFromNow).Format(domain.DateLayout),
			Venue:     domain.Venue{Name: "TBA"},
			Images:    []domain.Image{domain.FallbackImage},
		})
	}

	return out
}

func ids(events []domain.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.ID)
	}

	return out
}

// pagedGateway serves full pages with ids derived from keyword and page.
func pagedGateway(totalPages int) *fakeGateway {
	return &fakeGateway{
		SearchFn: func(_ context.Context, p domain.SearchParams) (domain.SearchResult, error) {
			return domain.SearchResult{
				Events:        makeEvents(fmt.Sprintf("%s-p%d", p.Keyword, p.Page), p.Size, 1),
				TotalPages:    totalPages,
				CurrentPage:   p.Page,
				TotalElements: totalPages * p.Size,
			}, nil
		},
	}
}

func TestOrchestrator_Pagination(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	gw := pagedGateway(5)
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 0, Size: 20})
	first := o.State()
	require.Len(t, first.Events, 20)

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 1, Size: 20})
	st := o.State()

	assert.Len(t, st.Events, 40)
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, 5, st.TotalPages)
	assert.Equal(t, 100, st.TotalElements)
	assert.Equal(t, ids(first.Events), ids(st.Events[:20]))
	assert.Equal(t, "jazz-p1-0", st.Events[20].ID)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
}

func TestOrchestrator_PageZeroReplaces(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	o := newOrchestrator(t, pagedGateway(3), store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "rock", Size: 2})
	o.SearchEvents(ctx, domain.SearchParams{Keyword: "rock", Page: 1, Size: 2})
	o.SearchEvents(ctx, domain.SearchParams{Keyword: "pop", Size: 2})

	st := o.State()
	assert.Equal(t, []string{"pop-p0-0", "pop-p0-1"}, ids(st.Events))
	assert.Equal(t, 0, st.CurrentPage)
	require.NotNil(t, st.LastSearchParams)
	assert.Equal(t, "pop", st.LastSearchParams.Keyword)
}

func TestOrchestrator_Debounce(t *testing.T) {
	store, _ := newStore(t)
	gw := pagedGateway(1)
	o := newOrchestrator(t, gw, store, Config{Debounce: 30 * time.Millisecond})

	for i := range 5 {
		o.Search(domain.SearchParams{Keyword: fmt.Sprintf("k%d", i), City: "NYC"})
	}

	require.Eventually(t, func() bool { return len(gw.calls()) == 1 }, waitFor, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	calls := gw.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "k4", calls[0].Keyword)
	assert.Equal(t, "NYC", calls[0].City)
	assert.Equal(t, domain.DefaultPageSize, calls[0].Size)

	require.Eventually(t, func() bool {
		st := o.State()
		return !st.IsLoading && len(st.Events) > 0
	}, waitFor, 5*time.Millisecond)
}

func TestOrchestrator_DegradedFallback(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	cached := append(makeEvents("future", 3, 5), makeEvents("past", 1, -10)...)
	require.NoError(t, store.SaveEventsToCache(ctx, cached))
	require.Equal(t, 1, store.CleanupExpiredData(ctx))

	gw := &fakeGateway{
		SearchFn: func(context.Context, domain.SearchParams) (domain.SearchResult, error) {
			return domain.SearchResult{}, &gateway.NetworkError{Op: "search", Err: errors.New("connection refused")}
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", City: "NYC", Page: 0})

	st := o.State()
	assert.Equal(t, []string{"future-0", "future-1", "future-2"}, ids(st.Events))
	assert.Equal(t, MsgCachedResults, st.Error)
	assert.False(t, st.IsLoading)
}

func TestOrchestrator_DegradedFallbackCapped(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.SaveEventsToCache(ctx, makeEvents("c", 30, 2)))

	gw := &fakeGateway{
		SearchFn: func(context.Context, domain.SearchParams) (domain.SearchResult, error) {
			return domain.SearchResult{}, &gateway.NetworkError{Op: "search", Err: context.DeadlineExceeded}
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{City: "NYC"})

	st := o.State()
	require.Len(t, st.Events, 20)
	assert.Equal(t, "c-0", st.Events[0].ID)
	assert.Equal(t, "c-19", st.Events[19].ID)
}

func TestOrchestrator_FailureMessages(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "network",
			err:  fmt.Errorf("gateway.Search: %w", &gateway.NetworkError{Op: "search", Err: errors.New("no route")}),
			want: "Network error occurred. Please check your connection.",
		},
		{
			name: "api",
			err:  &gateway.APIError{Status: 500, Message: "API request failed: Internal Server Error"},
			want: "API request failed: Internal Server Error",
		},
		{
			name: "other",
			err:  gateway.ErrDecode,
			want: MsgSearchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore(t)
			gw := &fakeGateway{
				SearchFn: func(context.Context, domain.SearchParams) (domain.SearchResult, error) {
					return domain.SearchResult{}, tt.err
				},
			}
			o := newOrchestrator(t, gw, store, Config{})

			o.SearchEvents(ctx, domain.SearchParams{Keyword: "x"})

			st := o.State()
			assert.Equal(t, tt.want, st.Error)
			assert.Empty(t, st.Events)
			assert.False(t, st.IsLoading)
		})
	}
}

func TestOrchestrator_LaterPageFailureKeepsEvents(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	require.NoError(t, store.SaveEventsToCache(ctx, makeEvents("cached", 2, 1)))

	gw := pagedGateway(5)
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 3})

	gw.mu.Lock()
	gw.SearchFn = func(context.Context, domain.SearchParams) (domain.SearchResult, error) {
		return domain.SearchResult{}, &gateway.NetworkError{Op: "search", Err: errors.New("offline")}
	}
	gw.mu.Unlock()

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 1, Size: 3})

	st := o.State()
	assert.Equal(t, []string{"jazz-p0-0", "jazz-p0-1", "jazz-p0-2"}, ids(st.Events))
	assert.Equal(t, MsgNetwork, st.Error)
}

func TestOrchestrator_DiscardsSupersededPage(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	started := make(chan struct{})
	release := make(chan struct{})

	gw := &fakeGateway{
		SearchFn: func(_ context.Context, p domain.SearchParams) (domain.SearchResult, error) {
			if p.Keyword == "old" && p.Page == 1 {
				close(started)
				<-release
			}

			return domain.SearchResult{
				Events:        makeEvents(fmt.Sprintf("%s-p%d", p.Keyword, p.Page), 2, 1),
				TotalPages:    4,
				CurrentPage:   p.Page,
				TotalElements: 8,
			}, nil
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "old", Size: 2})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.SearchEvents(ctx, domain.SearchParams{Keyword: "old", Page: 1, Size: 2})
	}()

	<-started
	o.SearchEvents(ctx, domain.SearchParams{Keyword: "new", Size: 2})

	assert.True(t, o.State().IsLoading, "page 1 request still in flight")

	close(release)
	<-done

	st := o.State()
	assert.Equal(t, []string{"new-p0-0", "new-p0-1"}, ids(st.Events))
	assert.Equal(t, 0, st.CurrentPage)
	assert.False(t, st.IsLoading)
}

func TestOrchestrator_PagesApplyInOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	var once sync.Once
	page1Started := make(chan struct{})
	releasePage1 := make(chan struct{})

	gw := &fakeGateway{
		SearchFn: func(_ context.Context, p domain.SearchParams) (domain.SearchResult, error) {
			if p.Page == 1 {
				once.Do(func() { close(page1Started) })
				<-releasePage1
			}

			return domain.SearchResult{
				Events:        makeEvents(fmt.Sprintf("p%d", p.Page), 1, 1),
				TotalPages:    5,
				CurrentPage:   p.Page,
				TotalElements: 5,
			}, nil
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 1})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 1, Size: 1})
	}()

	<-page1Started
	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 2, Size: 1})

	st := o.State()
	assert.Equal(t, []string{"p0-0"}, ids(st.Events), "page 2 waits for page 1")
	assert.Equal(t, 0, st.CurrentPage)

	close(releasePage1)
	<-done

	st = o.State()
	assert.Equal(t, []string{"p0-0", "p1-0", "p2-0"}, ids(st.Events))
	assert.Equal(t, 2, st.CurrentPage)
	assert.False(t, st.IsLoading)

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 1, Size: 1})

	st = o.State()
	assert.Equal(t, []string{"p0-0", "p1-0", "p2-0"}, ids(st.Events), "repeated page is not appended again")
	assert.Equal(t, 2, st.CurrentPage)
}

func TestOrchestrator_RefreshEvents(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	gw := pagedGateway(5)
	o := newOrchestrator(t, gw, store, Config{})

	o.RefreshEvents(ctx)
	assert.Empty(t, gw.calls(), "refresh without a prior search is a no-op")

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 2})
	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Page: 2, Size: 2})
	require.Len(t, o.State().Events, 4)

	o.RefreshEvents(ctx)

	calls := gw.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, 0, calls[2].Page)
	assert.Equal(t, "jazz", calls[2].Keyword)

	st := o.State()
	assert.Equal(t, []string{"jazz-p0-0", "jazz-p0-1"}, ids(st.Events))
	assert.Equal(t, 0, st.LastSearchParams.Page)
}

func TestOrchestrator_ClearEvents(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	gw := pagedGateway(5)
	o := newOrchestrator(t, gw, store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 2})
	o.ClearEvents()

	st := o.State()
	assert.Empty(t, st.Events)
	assert.Zero(t, st.TotalPages)
	assert.Zero(t, st.CurrentPage)
	assert.Zero(t, st.TotalElements)
	assert.Nil(t, st.LastSearchParams)

	o.RefreshEvents(ctx)
	assert.Len(t, gw.calls(), 1)
}

func TestOrchestrator_PopularEvents(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	var gotCity string
	gw := &fakeGateway{
		PopularFn: func(_ context.Context, city string) []domain.Event {
			gotCity = city
			return makeEvents("pop", 3, 4)
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.PopularEvents(ctx, "Dubai")

	st := o.State()
	assert.Equal(t, "Dubai", gotCity)
	assert.Len(t, st.Events, 3)
	assert.Equal(t, 1, st.TotalPages)
	assert.Equal(t, 0, st.CurrentPage)
	assert.Equal(t, 3, st.TotalElements)

	require.Eventually(t, func() bool {
		_, ok, err := store.EventFromCache(ctx, "pop-2")
		return err == nil && ok
	}, waitFor, 5*time.Millisecond)
}

func TestOrchestrator_EventsByCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	gw := &fakeGateway{
		CategoryFn: func(_ context.Context, category, _ string) ([]domain.Event, error) {
			if category == "broken" {
				return nil, &gateway.APIError{Status: 400, Message: "API request failed: Bad Request"}
			}

			return makeEvents(category, 2, 1), nil
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	o.EventsByCategory(ctx, "music", "")
	assert.Equal(t, []string{"music-0", "music-1"}, ids(o.State().Events))

	o.EventsByCategory(ctx, "broken", "")
	assert.Equal(t, "API request failed: Bad Request", o.State().Error)
}

func TestOrchestrator_PersistsResults(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	o := newOrchestrator(t, pagedGateway(2), store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 3})
	o.Close()

	cache, err := store.EventCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jazz-p0-0", "jazz-p0-1", "jazz-p0-2"}, ids(cache.Values()))
}

func TestOrchestrator_PersistFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	store, kv := newStore(t)
	kv.Fail(errors.New("disk full"))

	o := newOrchestrator(t, pagedGateway(2), store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 3})
	o.Close()

	st := o.State()
	assert.Len(t, st.Events, 3)
	assert.Empty(t, st.Error)
}

func TestOrchestrator_EventByID(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	cached := makeEvents("cached", 1, 1)[0]
	require.NoError(t, store.SaveEventsToCache(ctx, []domain.Event{cached}))

	remote := makeEvents("remote", 1, 1)[0]
	gw := &fakeGateway{
		EventByIDFn: func(_ context.Context, id string) (domain.Event, error) {
			if id == remote.ID {
				return remote, nil
			}

			return domain.Event{}, &gateway.APIError{Status: 404, Message: "API request failed: Not Found", Code: "DIS1004"}
		},
	}
	o := newOrchestrator(t, gw, store, Config{})

	got, err := o.EventByID(ctx, cached.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.Zero(t, gw.detailCalls)

	got, err = o.EventByID(ctx, remote.ID)
	require.NoError(t, err)
	assert.Equal(t, remote, got)

	_, err = o.EventByID(ctx, "missing")
	require.Error(t, err)
	apiErr, isAPI := gateway.AsAPIError(err)
	require.True(t, isAPI)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "API request failed: Not Found", o.State().Error)

	o.Close()
	_, ok, err := store.EventFromCache(ctx, remote.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrchestrator_Subscribe(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	o := newOrchestrator(t, pagedGateway(2), store, Config{})

	updates, unsubscribe := o.Subscribe()
	defer unsubscribe()

	initial := <-updates
	assert.Empty(t, initial.Events)

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 2})

	select {
	case st := <-updates:
		assert.False(t, st.IsLoading)
		assert.Len(t, st.Events, 2)
	case <-time.After(waitFor):
		t.Fatal("no state update")
	}

	unsubscribe()
	_, open := <-updates
	assert.False(t, open)
}

func TestOrchestrator_CloseStopsPendingSearch(t *testing.T) {
	store, _ := newStore(t)
	gw := pagedGateway(1)
	o := New(gw, store, Config{Debounce: 20 * time.Millisecond, Logger: discardLogger()})

	o.Search(domain.SearchParams{Keyword: "late"})
	o.Close()
	o.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, gw.calls())

	updates, _ := o.Subscribe()
	_, open := <-updates
	assert.False(t, open)
}

func TestOrchestrator_StateIsACopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	o := newOrchestrator(t, pagedGateway(1), store, Config{})

	o.SearchEvents(ctx, domain.SearchParams{Keyword: "jazz", Size: 2})

	st := o.State()
	st.Events[0].Name = "mutated"
	st.LastSearchParams.Keyword = "mutated"

	again := o.State()
	assert.NotEqual(t, "mutated", again.Events[0].Name)
	assert.Equal(t, "jazz", again.LastSearchParams.Keyword)
}
