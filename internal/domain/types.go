package domain

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the calendar-date layout used by StartDate and EndDate.
	DateLayout = "2006-01-02"

	DefaultPageSize = 20
)

// FallbackImage is used when the provider returns an event without images.
var FallbackImage = Image{
	URL:      "https://via.placeholder.com/300x200?text=Event+Image",
	Width:    300,
	Height:   200,
	Fallback: true,
}

type Address struct {
	Line1 string `json:"line1,omitempty"`
	Line2 string `json:"line2,omitempty"`
	Line3 string `json:"line3,omitempty"`
}

type City struct {
	Name string `json:"name"`
}

type Location struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type Venue struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Address  Address   `json:"address"`
	City     City      `json:"city"`
	Location *Location `json:"location,omitempty"`
}

type Image struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Fallback bool   `json:"fallback"`
}

type PriceRange struct {
	Type     string  `json:"type"`
	Currency string  `json:"currency"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is the canonical event record. It is not modified after it has been fetched.
type Event struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	StartDate     string       `json:"startDate"`
	StartTime     string       `json:"startTime,omitempty"`
	EndDate       string       `json:"endDate,omitempty"`
	Venue         Venue        `json:"venue"`
	Images        []Image      `json:"images"`
	PriceRanges   []PriceRange `json:"priceRanges,omitempty"`
	Categories    []Category   `json:"categories,omitempty"`
	URL           string       `json:"url,omitempty"`
	Info          string       `json:"info,omitempty"`
	PleaseNote    string       `json:"pleaseNote,omitempty"`
	Accessibility string       `json:"accessibility,omitempty"`
}

// StartDay parses StartDate as a UTC calendar date.
func (e Event) StartDay() (time.Time, error) {
	t, err := time.Parse(DateLayout, e.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: invalid start date %q: %w", e.ID, e.StartDate, err)
	}

	return t, nil
}

type SearchParams struct {
	Keyword  string `json:"keyword"`
	City     string `json:"city"`
	Page     int    `json:"page"`
	Size     int    `json:"size"`
	Category string `json:"category,omitempty"`
}

// WithDefaults returns a copy with page and size normalised.
func (p SearchParams) WithDefaults(pageSize int) SearchParams {
	if p.Page < 0 {
		p.Page = 0
	}

	if p.Size <= 0 {
		p.Size = pageSize
	}

	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}

	return p
}

type SearchResult struct {
	Events        []Event `json:"events"`
	TotalPages    int     `json:"totalPages"`
	CurrentPage   int     `json:"currentPage"`
	TotalElements int     `json:"totalElements"`
}
