package domain

import (
	"time"

	"github.com/google/uuid"

	"sitebuilder/internal/core/planner"
)

// PageCopy is the generated copy for a core or category page
type PageCopy struct {
	MetaTitle       string `json:"meta_title"       validate:"required,max=120"`
	MetaDescription string `json:"meta_description" validate:"required,max=320"`
	H1              string `json:"h1"               validate:"required"`
	H2              string `json:"h2"               validate:"required"`
	HeroDescription string `json:"hero_description" validate:"required"`
	BodyCopy        string `json:"body_copy"        validate:"required"`
	BodyCopy2       string `json:"body_copy_2"      validate:"required"`
}

// Section is a heading plus paragraph block
type Section struct {
	Heading string `json:"heading" validate:"required"`
	Body    string `json:"body"    validate:"required"`
}

// FAQ is one question and answer
type FAQ struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"   validate:"required"`
}

// DetailCopy is the generated copy for a service or service area page
type DetailCopy struct {
	ID               string    `json:"id"                validate:"required"`
	MetaTitle        string    `json:"meta_title"        validate:"required,max=120"`
	MetaDescription  string    `json:"meta_description"  validate:"required,max=320"`
	H1               string    `json:"h1"                validate:"required"`
	IntroCopy        string    `json:"intro_copy"        validate:"required"`
	Problems         []string  `json:"problems"          validate:"len=3,dive,required"`
	DetailedSections []Section `json:"detailed_sections" validate:"len=3,dive"`
	FAQs             []FAQ     `json:"faqs"              validate:"min=3,max=5,dive"`
}

// Content is the typed generator result: Page for page kinds, Details for batches
type Content struct {
	Kind    planner.Kind
	Page    *PageCopy
	Details []DetailCopy
}

// GenerateRequest carries everything the generator needs for one task
type GenerateRequest struct {
	Kind     planner.Kind
	Page     planner.CorePage
	Business Business
	Category *Category
	Services []Service
	Areas    []ServiceArea
	Reviews  *ReviewSummary
}

// Business is the site-wide context passed into every prompt
type Business struct {
	Name            string
	Phone           string
	PrimaryCategory string
	GBPCategory     string
	City            string
	State           string
	Categories      []string
	Areas           []string
}

// PageArtifact is a core or category page keyed by (site, slug)
type PageArtifact struct {
	SiteID      uuid.UUID
	Slug        string
	Kind        planner.Kind
	CategoryID  *uuid.UUID
	Copy        PageCopy
	RunID       uuid.UUID
	GeneratedAt time.Time
}

// ServiceArtifact is service page copy keyed by service id
type ServiceArtifact struct {
	SiteID      uuid.UUID
	ServiceID   uuid.UUID
	Copy        DetailCopy
	RunID       uuid.UUID
	GeneratedAt time.Time
}

// AreaArtifact is service area page copy keyed by area id
type AreaArtifact struct {
	SiteID      uuid.UUID
	AreaID      uuid.UUID
	Copy        DetailCopy
	RunID       uuid.UUID
	GeneratedAt time.Time
}

// ArtifactIndex lists what content exists for a site
type ArtifactIndex struct {
	Pages    []string    `json:"pages"`
	Services []uuid.UUID `json:"services"`
	Areas    []uuid.UUID `json:"areas"`
}

// BuildEvent is one analytics row per task outcome
type BuildEvent struct {
	RunID      uuid.UUID
	SiteID     uuid.UUID
	TaskKey    string
	Kind       string
	Outcome    string
	Items      int
	DurationMS int64
	Error      string
	At         time.Time
}

// Event outcomes
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)
