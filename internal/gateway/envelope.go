package gateway

import (
	"github.com/kirinyoku/citypulse/internal/domain"
)

// Wire shapes of the Discovery API. Only the fields the app reads are declared.

type envelope struct {
	Embedded *struct {
		Events []tmEvent `json:"events"`
	} `json:"_embedded,omitempty"`
	Page tmPage `json:"page"`
}

type tmPage struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type tmDate struct {
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime,omitempty"`
}

type tmEvent struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Info          string `json:"info,omitempty"`
	PleaseNote    string `json:"pleaseNote,omitempty"`
	Accessibility *struct {
		Info string `json:"info,omitempty"`
	} `json:"accessibility,omitempty"`
	Dates struct {
		Start tmDate  `json:"start"`
		End   *tmDate `json:"end,omitempty"`
	} `json:"dates"`
	Embedded *struct {
		Venues []tmVenue `json:"venues"`
	} `json:"_embedded,omitempty"`
	Images          []domain.Image      `json:"images"`
	PriceRanges     []domain.PriceRange `json:"priceRanges,omitempty"`
	Classifications []tmClassification  `json:"classifications,omitempty"`
	URL             string              `json:"url,omitempty"`
}

type tmVenue struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Address  *domain.Address  `json:"address,omitempty"`
	City     *domain.City     `json:"city,omitempty"`
	Location *domain.Location `json:"location,omitempty"`
}

type tmRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tmClassification struct {
	Primary bool  `json:"primary"`
	Segment tmRef `json:"segment"`
	Genre   tmRef `json:"genre"`
}

func (env envelope) events() []domain.Event {
	if env.Embedded == nil {
		return []domain.Event{}
	}

	out := make([]domain.Event, 0, len(env.Embedded.Events))
	for _, e := range env.Embedded.Events {
		out = append(out, e.toDomain())
	}

	return out
}

func (env envelope) toResult() domain.SearchResult {
	return domain.SearchResult{
		Events:        env.events(),
		TotalPages:    env.Page.TotalPages,
		CurrentPage:   env.Page.Number,
		TotalElements: env.Page.TotalElements,
	}
}

func (e tmEvent) toDomain() domain.Event {
	out := domain.Event{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		StartDate:   e.Dates.Start.LocalDate,
		StartTime:   e.Dates.Start.LocalTime,
		Venue:       e.venue(),
		Images:      e.Images,
		PriceRanges: e.PriceRanges,
		URL:         e.URL,
		Info:        e.Info,
		PleaseNote:  e.PleaseNote,
	}

	if out.Description == "" {
		out.Description = e.Info
	}

	if e.Dates.End != nil {
		out.EndDate = e.Dates.End.LocalDate
	}

	if e.Accessibility != nil {
		out.Accessibility = e.Accessibility.Info
	}

	if len(out.Images) == 0 {
		out.Images = []domain.Image{domain.FallbackImage}
	}

	if len(e.Classifications) > 0 {
		out.Categories = make([]domain.Category, 0, len(e.Classifications))
		for _, c := range e.Classifications {
			out.Categories = append(out.Categories, domain.Category{ID: c.Genre.ID, Name: c.Genre.Name})
		}
	}

	return out
}

func (e tmEvent) venue() domain.Venue {
	v := domain.Venue{Name: "TBA"}
	if e.Embedded == nil || len(e.Embedded.Venues) == 0 {
		return v
	}

	src := e.Embedded.Venues[0]
	v.ID = src.ID
	if src.Name != "" {
		v.Name = src.Name
	}
	if src.Address != nil {
		v.Address = *src.Address
	}
	if src.City != nil {
		v.City = *src.City
	}
	v.Location = src.Location

	return v
}
