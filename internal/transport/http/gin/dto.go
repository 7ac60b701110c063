package httpgin

import (
	"github.com/kirinyoku/citypulse/internal/domain"
)

type SearchRequest struct {
	Keyword string `json:"keyword"`
	City    string `json:"city"`
	Page    int    `json:"page" binding:"gte=0"`
	Size    int    `json:"size" binding:"gte=0,lte=200"`
}

func (r SearchRequest) params() domain.SearchParams {
	return domain.SearchParams{
		Keyword: r.Keyword,
		City:    r.City,
		Page:    r.Page,
		Size:    r.Size,
	}
}

type PopularRequest struct {
	City string `json:"city"`
}

type CategoryRequest struct {
	Category string `json:"category" binding:"required"`
	City     string `json:"city"`
}

type LanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

type LanguageResponse struct {
	Language string `json:"language"`
}

type FavoritesResponse struct {
	Favorites []domain.Event `json:"favorites"`
}

type CacheSizeResponse struct {
	Entries int `json:"entries"`
}

type AcceptedResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
