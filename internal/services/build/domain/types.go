// Package domain defines the content build types and ports
package domain

import (
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/lifecycle"
	"sitebuilder/internal/core/planner"
)

// Site is the sites row plus its lifecycle state
type Site struct {
	ID           uuid.UUID
	BusinessName string
	Phone        string
	Website      string

	// review source locator, both empty when the business has not connected one
	ReviewsAccountRef  string
	ReviewsLocationRef string

	lifecycle.State
}

// HasReviewSource reports whether reviews can be fetched for the site
func (s Site) HasReviewSource() bool {
	return s.ReviewsAccountRef != "" && s.ReviewsLocationRef != ""
}

// Location is a physical business location
type Location struct {
	ID        uuid.UUID
	Name      string
	Address   string
	City      string
	State     string
	Phone     string
	IsPrimary bool
}

// Category is a business category; GBPCategory is the Google taxonomy id
type Category struct {
	ID          uuid.UUID
	Name        string
	GBPCategory string
	IsPrimary   bool
	SortOrder   int
}

// Service is one offering under a category
type Service struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description string
	SortOrder   int
}

// ServiceArea is a city the business serves
type ServiceArea struct {
	ID        uuid.UUID
	City      string
	State     string
	SortOrder int
}

// Label renders "City, ST"
func (a ServiceArea) Label() string {
	if a.State == "" {
		return a.City
	}
	return a.City + ", " + a.State
}

// Skeleton is a site with every child record the build reads, in stored order
type Skeleton struct {
	Site       Site
	Locations  []Location
	Categories []Category
	Services   []Service
	Areas      []ServiceArea
}

// PrimaryCategory returns the category flagged primary
func (s Skeleton) PrimaryCategory() (Category, bool) {
	for _, c := range s.Categories {
		if c.IsPrimary {
			return c, true
		}
	}
	return Category{}, false
}

// PrimaryLocation returns the flagged location, else the first one
func (s Skeleton) PrimaryLocation() (Location, bool) {
	for _, l := range s.Locations {
		if l.IsPrimary {
			return l, true
		}
	}
	if len(s.Locations) > 0 {
		return s.Locations[0], true
	}
	return Location{}, false
}

// PlannerInput projects the skeleton onto the planner's view
func (s Skeleton) PlannerInput(serviceBatch, areaBatch int) planner.Input {
	in := planner.Input{
		Categories:   make([]planner.Category, 0, len(s.Categories)),
		Services:     make([]planner.Service, 0, len(s.Services)),
		Areas:        make([]planner.Area, 0, len(s.Areas)),
		ServiceBatch: serviceBatch,
		AreaBatch:    areaBatch,
	}
	for _, c := range s.Categories {
		in.Categories = append(in.Categories, planner.Category{ID: c.ID.String(), Name: c.Name})
	}
	for _, sv := range s.Services {
		in.Services = append(in.Services, planner.Service{ID: sv.ID.String(), CategoryID: sv.CategoryID.String(), Name: sv.Name})
	}
	for _, a := range s.Areas {
		in.Areas = append(in.Areas, planner.Area{ID: a.ID.String(), City: a.City, State: a.State})
	}
	return in
}

// Review is a single customer review
type Review struct {
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewSummary is what the reviews source returns for one location
type ReviewSummary struct {
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"average_rating"`
	TotalCount    int      `json:"total_count"`
}

// Run is one prepared build: the plan and the facts captured when it was triggered
type Run struct {
	ID        uuid.UUID
	SiteID    uuid.UUID
	Trigger   lifecycle.Trigger
	WasActive bool
	Owner     string
	Plan      planner.Plan
	Skeleton  Skeleton
	StartedAt time.Time
}

// Outcome summarizes a finished run
type Outcome struct {
	RunID         uuid.UUID
	Status        lifecycle.Status
	Completed     int
	Total         int
	FailedBatches int
	Err           error
}
