package service

import (
	"log/slog"

	"github.com/kirinyoku/citypulse/internal/gateway"
	"github.com/kirinyoku/citypulse/internal/service/search"
	"github.com/kirinyoku/citypulse/internal/service/storage"
)

type Services struct {
	Gateway *gateway.Gateway
	Storage *storage.Service
	Search  *search.Orchestrator
}

type Config struct {
	Gateway gateway.Config
	Storage storage.Config
	Search  search.Config
}

// NewServices wires the gateway and the durable store into the search orchestrator.
func NewServices(kv storage.KV, cfg Config, logger *slog.Logger) *Services {
	if cfg.Gateway.Logger == nil {
		cfg.Gateway.Logger = logger
	}

	if cfg.Search.Logger == nil {
		cfg.Search.Logger = logger
	}

	if cfg.Search.PageSize <= 0 {
		cfg.Search.PageSize = cfg.Gateway.PageSize
	}

	gw := gateway.New(cfg.Gateway)
	store := storage.New(kv, logger, cfg.Storage)

	return &Services{
		Gateway: gw,
		Storage: store,
		Search:  search.New(gw, store, cfg.Search),
	}
}

// Close stops the orchestrator and flushes pending cache writes.
func (s *Services) Close() {
	s.Search.Close()
}
