package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirinyoku/citypulse/internal/domain"
	"golang.org/x/text/language"
)

const (
	DefaultLanguage  = "en"
	DefaultRetention = 7 * 24 * time.Hour
)

var (
	supportedLanguages = []language.Tag{language.English, language.Arabic}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// KV is the platform key/value persistence the store writes JSON values into.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Config struct {
	// Retention is how far in the past an event may start before cleanup evicts it.
	Retention time.Duration
	Now       func() time.Time
}

// Service is the durable event store: favorites, the id -> event cache and
// the language preference.
type Service struct {
	kv     KV
	logger *slog.Logger
	cfg    Config

	// mu serialises read-modify-write cycles on a record.
	mu sync.Mutex
}

func New(kv KV, logger *slog.Logger, cfg Config) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		kv:     kv,
		logger: logger,
		cfg:    cfg,
	}
}

// Favorites returns the saved favorites in the order they were added.
func (s *Service) Favorites(ctx context.Context) ([]domain.Event, error) {
	return getJSON(ctx, s, "storage.Favorites", KeyFavorites, []domain.Event{})
}

func (s *Service) SaveFavorites(ctx context.Context, favorites []domain.Event) error {
	return setJSON(ctx, s, "storage.SaveFavorites", KeyFavorites, favorites)
}

// AddToFavorites appends event unless an event with the same id is already saved.
//
// Returns:
//   - []domain.Event: the favorites after the call.
//   - error: ErrInvalidEvent for an event without id, *StorageError on persistence failure.
func (s *Service) AddToFavorites(ctx context.Context, event domain.Event) ([]domain.Event, error) {
	const op = "storage.AddToFavorites"

	if event.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.Favorites(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range favorites {
		if f.ID == event.ID {
			return favorites, nil
		}
	}

	favorites = append(favorites, event)
	if err := s.SaveFavorites(ctx, favorites); err != nil {
		return nil, err
	}

	return favorites, nil
}

// RemoveFromFavorites drops the event with the given id and persists the result.
func (s *Service) RemoveFromFavorites(ctx context.Context, id string) ([]domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, err := s.Favorites(ctx)
	if err != nil {
		return nil, err
	}

	kept := favorites[:0]
	for _, f := range favorites {
		if f.ID != id {
			kept = append(kept, f)
		}
	}

	if err := s.SaveFavorites(ctx, kept); err != nil {
		return nil, err
	}

	return kept, nil
}

// EventCache loads the whole id -> event map.
func (s *Service) EventCache(ctx context.Context) (*domain.EventCache, error) {
	cache, err := getJSON(ctx, s, "storage.EventCache", KeyEventCache, domain.NewEventCache())
	if cache == nil {
		// stored as JSON null
		cache = domain.NewEventCache()
	}

	return cache, err
}

func (s *Service) SaveEventCache(ctx context.Context, cache *domain.EventCache) error {
	return setJSON(ctx, s, "storage.SaveEventCache", KeyEventCache, cache)
}

// SaveEventToCache upserts one event by id.
func (s *Service) SaveEventToCache(ctx context.Context, event domain.Event) error {
	return s.SaveEventsToCache(ctx, []domain.Event{event})
}

// SaveEventsToCache upserts a batch of events with a single read-modify-write.
func (s *Service) SaveEventsToCache(ctx context.Context, events []domain.Event) error {
	const op = "storage.SaveEventsToCache"

	for _, e := range events {
		if e.ID == "" {
			return fmt.Errorf("%s: %w", op, ErrInvalidEvent)
		}
	}

	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cache, err := s.EventCache(ctx)
	if err != nil {
		return err
	}

	for _, e := range events {
		cache.Put(e)
	}

	return s.SaveEventCache(ctx, cache)
}

// EventFromCache looks up a single cached event; ok is false when it is absent.
func (s *Service) EventFromCache(ctx context.Context, id string) (domain.Event, bool, error) {
	cache, err := s.EventCache(ctx)
	if err != nil {
		return domain.Event{}, false, err
	}

	e, ok := cache.Get(id)
	return e, ok, nil
}

// Language returns the saved language code, "en" when none was saved.
func (s *Service) Language(ctx context.Context) (string, error) {
	return getJSON(ctx, s, "storage.Language", KeyLanguage, DefaultLanguage)
}

// SaveLanguage stores the supported base language matching code (e.g. "ar-EG" -> "ar").
func (s *Service) SaveLanguage(ctx context.Context, code string) error {
	const op = "storage.SaveLanguage"

	lang, err := canonicalLanguage(code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return setJSON(ctx, s, op, KeyLanguage, lang)
}

// CleanupExpiredData evicts cached events that started more than Retention ago,
// as well as entries whose start date cannot be read. It never fails: errors are
// logged so that startup is not blocked. It reports the number of evicted events.
func (s *Service) CleanupExpiredData(ctx context.Context) int {
	const op = "storage.CleanupExpiredData"

	s.mu.Lock()
	defer s.mu.Unlock()

	cache, err := s.EventCache(ctx)
	if err != nil {
		s.logger.Error("event cache cleanup failed", "op", op, "error", err)
		return 0
	}

	cutoff := s.cfg.Now().Add(-s.cfg.Retention)

	removed := cache.Retain(func(e domain.Event) bool {
		start, err := e.StartDay()
		return err == nil && start.After(cutoff)
	})

	if removed == 0 {
		s.logger.Debug("event cache cleanup: nothing to evict", "op", op, "cached", cache.Len())
		return 0
	}

	if err := s.SaveEventCache(ctx, cache); err != nil {
		s.logger.Error("event cache cleanup failed", "op", op, "error", err)
		return 0
	}

	s.logger.Info("event cache cleanup", "op", op, "evicted", removed, "remaining", cache.Len())

	return removed
}

// ClearAll deletes every durable record; later reads return the defaults.
func (s *Service) ClearAll(ctx context.Context) error {
	const op = "storage.ClearAll"

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range allKeys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return &StorageError{Op: op, Key: key, Err: err}
		}
	}

	s.logger.Info("durable store cleared", "op", op)

	return nil
}

func canonicalLanguage(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	base, _ := supportedLanguages[idx].Base()

	return base.String(), nil
}

func getJSON[T any](ctx context.Context, s *Service, op, key string, def T) (T, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return def, &StorageError{Op: op, Key: key, Err: err}
	}

	if !ok {
		return def, nil
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return def, &StorageError{Op: op, Key: key, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}

	return out, nil
}

func setJSON(ctx context.Context, s *Service, op, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: op, Key: key, Err: err}
	}

	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		return &StorageError{Op: op, Key: key, Err: err}
	}

	return nil
}
