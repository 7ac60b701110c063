package httpgin

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/kirinyoku/citypulse/docs"
	"github.com/kirinyoku/citypulse/internal/domain"
	"github.com/kirinyoku/citypulse/internal/gateway"
	"github.com/kirinyoku/citypulse/internal/service"
	"github.com/kirinyoku/citypulse/internal/service/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter exposes the orchestrator state and operations over HTTP.
// /metrics is mounted only when gatherer is non-nil.
func NewRouter(
	svcs *service.Services,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// orchestrator
	r.GET("/state", handleGetState(svcs))
	r.GET("/state/stream", handleStreamState(svcs))
	r.POST("/search", handleSearch(svcs))
	r.POST("/search/now", handleSearchNow(svcs))
	r.POST("/events/popular", handlePopular(svcs))
	r.POST("/events/category", handleCategory(svcs))
	r.POST("/events/refresh", handleRefresh(svcs))
	r.DELETE("/events", handleClearEvents(svcs))
	r.GET("/events/:id", handleGetEvent(svcs))

	// durable store
	r.GET("/favorites", handleListFavorites(svcs))
	r.POST("/favorites", handleAddFavorite(svcs))
	r.DELETE("/favorites/:id", handleRemoveFavorite(svcs))
	r.GET("/language", handleGetLanguage(svcs))
	r.PUT("/language", handleSetLanguage(svcs))
	r.DELETE("/storage", handleClearStorage(svcs))

	// gateway diagnostics
	r.GET("/cache", handleCacheSize(svcs))
	r.DELETE("/cache", handleClearCache(svcs))

	return r
}

// @Summary  Current search state
// @Success  200  {object}  search.State
// @Success  304
// @Router   /state [get]
func handleGetState(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeJSONWithCache(c, http.StatusOK, svcs.Search.State(), "no-cache")
	}
}

// @Summary  Stream state snapshots (server-sent events)
// @Produce  text/event-stream
// @Router   /state/stream [get]
func handleStreamState(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		updates, unsubscribe := svcs.Search.Subscribe()
		defer unsubscribe()

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		c.Stream(func(w io.Writer) bool {
			select {
			case st, ok := <-updates:
				if !ok {
					return false
				}
				c.SSEvent("state", st)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

// @Summary  Debounced search
// @Param    req  body  SearchRequest  true  "payload"
// @Success  202  {object}  AcceptedResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /search [post]
func handleSearch(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		svcs.Search.Search(req.params())

		c.JSON(http.StatusAccepted, AcceptedResponse{Status: "scheduled"})
	}
}

// @Summary  Search immediately and return the resulting state
// @Param    req  body  SearchRequest  true  "payload"
// @Success  200  {object}  search.State
// @Failure  400  {object}  ErrorResponse
// @Router   /search/now [post]
func handleSearchNow(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		svcs.Search.SearchEvents(c.Request.Context(), req.params())

		c.JSON(http.StatusOK, svcs.Search.State())
	}
}

// @Summary  Load popular events
// @Param    req  body  PopularRequest  false  "payload"
// @Success  200  {object}  search.State
// @Router   /events/popular [post]
func handlePopular(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PopularRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err.Error())
				return
			}
		}

		svcs.Search.PopularEvents(c.Request.Context(), req.City)

		c.JSON(http.StatusOK, svcs.Search.State())
	}
}

// @Summary  Load events of a category
// @Param    req  body  CategoryRequest  true  "payload"
// @Success  200  {object}  search.State
// @Failure  400  {object}  ErrorResponse
// @Router   /events/category [post]
func handleCategory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		svcs.Search.EventsByCategory(c.Request.Context(), req.Category, req.City)

		c.JSON(http.StatusOK, svcs.Search.State())
	}
}

// @Summary  Re-run the last search from the first page
// @Success  200  {object}  search.State
// @Router   /events/refresh [post]
func handleRefresh(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		svcs.Search.RefreshEvents(c.Request.Context())
		c.JSON(http.StatusOK, svcs.Search.State())
	}
}

// @Summary  Clear results
// @Success  204
// @Router   /events [delete]
func handleClearEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		svcs.Search.ClearEvents()
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get event
// @Param    id  path  string  true  "Event ID"
// @Success  200  {object}  domain.Event
// @Failure  404  {object}  ErrorResponse
// @Failure  502  {object}  ErrorResponse
// @Router   /events/{id} [get]
func handleGetEvent(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := svcs.Search.EventByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, e, "public, max-age=60")
	}
}

// @Summary  List favorites
// @Success  200  {object}  FavoritesResponse
// @Router   /favorites [get]
func handleListFavorites(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		favs, err := svcs.Storage.Favorites(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithCache(c, http.StatusOK, FavoritesResponse{Favorites: favs}, "no-cache")
	}
}

// @Summary  Add favorite (no-op when already saved)
// @Param    req  body  domain.Event  true  "event"
// @Success  200  {object}  FavoritesResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /favorites [post]
func handleAddFavorite(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var e domain.Event
		if err := c.ShouldBindJSON(&e); err != nil {
			badRequest(c, err.Error())
			return
		}

		favs, err := svcs.Storage.AddToFavorites(c.Request.Context(), e)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, FavoritesResponse{Favorites: favs})
	}
}

// @Summary  Remove favorite
// @Param    id  path  string  true  "Event ID"
// @Success  200  {object}  FavoritesResponse
// @Router   /favorites/{id} [delete]
func handleRemoveFavorite(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		favs, err := svcs.Storage.RemoveFromFavorites(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, FavoritesResponse{Favorites: favs})
	}
}

// @Summary  Get language preference
// @Success  200  {object}  LanguageResponse
// @Router   /language [get]
func handleGetLanguage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang, err := svcs.Storage.Language(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, LanguageResponse{Language: lang})
	}
}

// @Summary  Set language preference
// @Param    req  body  LanguageRequest  true  "payload"
// @Success  200  {object}  LanguageResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /language [put]
func handleSetLanguage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LanguageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Storage.SaveLanguage(c.Request.Context(), req.Language); err != nil {
			respondErr(c, err)
			return
		}

		lang, err := svcs.Storage.Language(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, LanguageResponse{Language: lang})
	}
}

// @Summary  Delete favorites, cached events and the language preference
// @Success  204
// @Failure  503  {object}  ErrorResponse
// @Router   /storage [delete]
func handleClearStorage(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Storage.ClearAll(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// @Summary  Gateway cache size
// @Success  200  {object}  CacheSizeResponse
// @Router   /cache [get]
func handleCacheSize(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, CacheSizeResponse{Entries: svcs.Gateway.CacheSize()})
	}
}

// @Summary  Clear gateway cache
// @Success  204
// @Router   /cache [delete]
func handleClearCache(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		svcs.Gateway.ClearCache()
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrUnsupportedLanguage):
		badRequest(c, "unsupported language")
	case errors.Is(err, storage.ErrInvalidEvent):
		badRequest(c, "event id is required")
	case storage.IsStorageError(err):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
	case gateway.IsNetworkError(err):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream unavailable"})
	case isAPIError(err):
		apiErr, _ := gateway.AsAPIError(err)
		status := http.StatusBadGateway
		if apiErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	_ = c.Error(err)
}

func isAPIError(err error) bool {
	_, ok := gateway.AsAPIError(err)
	return ok
}
