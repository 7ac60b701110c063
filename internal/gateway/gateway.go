package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirinyoku/citypulse/internal/domain"
	"golang.org/x/sync/singleflight"
)

const (
	endpointEvents = "/events.json"

	DefaultBaseURL  = "https://app.ticketmaster.com/discovery/v2"
	DefaultCacheTTL = 10 * time.Minute

	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL  string
	APIKey   string
	Country  string
	Locale   string
	PageSize int
	CacheTTL time.Duration
	Timeout  time.Duration

	HTTPClient *http.Client
	Limiter    Limiter
	Metrics    *Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Gateway talks to the remote event search API and caches normalised responses
// for CacheTTL.
type Gateway struct {
	cfg     Config
	client  *http.Client
	limiter Limiter
	metrics *Metrics
	logger  *slog.Logger
	cache   *ttlCache
	sf      singleflight.Group
}

func New(cfg Config) *Gateway {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.Country == "" {
		cfg.Country = "US"
	}

	if cfg.Locale == "" {
		cfg.Locale = "en-us"
	}

	if cfg.PageSize <= 0 {
		cfg.PageSize = domain.DefaultPageSize
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(0, 0)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Gateway{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		metrics: cfg.Metrics,
		logger:  logger,
		cache:   newTTLCache(cfg.CacheTTL, cfg.Now),
	}
}

// Search runs a paginated keyword/city search.
//
// Returns:
//   - domain.SearchResult: normalised page, served from cache when fresh.
//   - error: *NetworkError when no response was obtained, *APIError on a non-2xx status.
func (g *Gateway) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	const op = "gateway.Search"

	params = params.WithDefaults(g.cfg.PageSize)

	q := g.baseParams()
	q.Set("keyword", params.Keyword)
	q.Set("city", params.City)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("size", strconv.Itoa(params.Size))
	if params.Category != "" {
		q.Set("classificationName", params.Category)
	}

	res, err := fetch(ctx, g, "search", endpointEvents, q, decodeSearchResult)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// PopularEvents returns one page of upcoming events, optionally for a city.
// It is best effort: failures are logged and an empty slice is returned.
func (g *Gateway) PopularEvents(ctx context.Context, city string) []domain.Event {
	const op = "gateway.PopularEvents"

	q := g.baseParams()
	q.Set("size", strconv.Itoa(g.cfg.PageSize))
	if city != "" {
		q.Set("city", city)
	}

	res, err := fetch(ctx, g, "popular", endpointEvents, q, decodeSearchResult)
	if err != nil {
		g.logger.Warn("popular events unavailable", "op", op, "city", city, "error", err)
		return []domain.Event{}
	}

	return res.Events
}

// SearchByCategory returns one page of events filtered by classification name.
func (g *Gateway) SearchByCategory(ctx context.Context, category, city string) ([]domain.Event, error) {
	const op = "gateway.SearchByCategory"

	q := g.baseParams()
	q.Set("classificationName", category)
	q.Set("size", strconv.Itoa(g.cfg.PageSize))
	if city != "" {
		q.Set("city", city)
	}

	res, err := fetch(ctx, g, "category", endpointEvents, q, decodeSearchResult)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res.Events, nil
}

// EventByID fetches a single event from the detail endpoint.
//
// Returns:
//   - error: *APIError with Status 404 when the provider does not know the id.
func (g *Gateway) EventByID(ctx context.Context, id string) (domain.Event, error) {
	const op = "gateway.EventByID"

	endpoint := "/events/" + url.PathEscape(id) + ".json"

	e, err := fetch(ctx, g, "detail", endpoint, g.baseParams(), decodeEvent)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

// ClearCache drops every cached response.
func (g *Gateway) ClearCache() {
	g.cache.clear()
}

// CacheSize reports the number of cached responses, expired ones included.
func (g *Gateway) CacheSize() int {
	return g.cache.len()
}

func (g *Gateway) baseParams() url.Values {
	q := url.Values{}
	q.Set("countryCode", g.cfg.Country)
	q.Set("locale", g.cfg.Locale)
	return q
}

// fetch serves key from the TTL cache or loads it, coalescing concurrent misses
// for the same key into one upstream call.
func fetch[T any](
	ctx context.Context,
	g *Gateway,
	op, endpoint string,
	params url.Values,
	decode func([]byte) (T, error),
) (T, error) {
	var zero T

	key := cacheKey(endpoint, params)

	if v, ok := g.cache.get(key); ok {
		if t, ok := v.(T); ok {
			g.metrics.lookup(op, true)
			return t, nil
		}
	}

	g.metrics.lookup(op, false)

	// The shared load outlives any single caller; each caller only stops waiting
	// on its own cancellation.
	ch := g.sf.DoChan(key, func() (any, error) {
		if v, ok := g.cache.get(key); ok {
			return v, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.Timeout)
		defer cancel()

		body, err := g.get(loadCtx, op, endpoint, params)
		if err != nil {
			return nil, err
		}

		v, err := decode(body)
		if err != nil {
			return nil, err
		}

		g.cache.set(key, v)

		return v, nil
	})

	var vAny any
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		vAny = res.Val
	case <-ctx.Done():
		return zero, &NetworkError{Op: op, Err: ctx.Err()}
	}

	v, ok := vAny.(T)
	if !ok {
		return zero, errors.New("type assertion failed")
	}

	return v, nil
}

func (g *Gateway) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("apikey", g.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+endpoint+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.metrics.request(op, "network_error", time.Since(start))
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		g.metrics.request(op, "api_error", time.Since(start))
		return nil, newAPIError(resp.StatusCode, body)
	}

	if err != nil {
		g.metrics.request(op, "network_error", time.Since(start))
		return nil, &NetworkError{Op: op, Err: err}
	}

	g.metrics.request(op, "ok", time.Since(start))

	return body, nil
}

func decodeSearchResult(body []byte) (domain.SearchResult, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return env.toResult(), nil
}

func decodeEvent(body []byte) (domain.Event, error) {
	var e tmEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return e.toDomain(), nil
}
