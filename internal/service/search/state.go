package search

import "github.com/kirinyoku/citypulse/internal/domain"

// State is the UI-visible result state of an Orchestrator.
type State struct {
	Events        []domain.Event `json:"events"`
	TotalPages    int            `json:"totalPages"`
	CurrentPage   int            `json:"currentPage"`
	TotalElements int            `json:"totalElements"`
	IsLoading     bool           `json:"isLoading"`
	Error         string         `json:"error,omitempty"`

	// LastSearchParams is what RefreshEvents re-issues. Nil until a search has run.
	LastSearchParams *domain.SearchParams `json:"lastSearchParams,omitempty"`
}

// clone copies the slices and pointers so the snapshot can leave the lock.
func (s State) clone() State {
	out := s
	out.Events = append(make([]domain.Event, 0, len(s.Events)), s.Events...)

	if s.LastSearchParams != nil {
		p := *s.LastSearchParams
		out.LastSearchParams = &p
	}

	return out
}
