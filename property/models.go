package property

import (
	"strings"
	"time"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// Status is the verification state of a listing. Only verified listings are
// publicly visible.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// CanTransition reports whether an admin may move a listing from one status
// to another. Nothing moves back to pending, and re-applying the current
// status is handled by the caller as a no-op.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusVerified:
		return from == StatusPending || from == StatusRejected
	case StatusRejected:
		return from == StatusPending || from == StatusVerified
	default:
		return false
	}
}

// Listing is a property offered for sale by an agent.
type Listing struct {
	ID                 string
	AgentEmail         string
	AgentName          string
	AgentImage         string
	Title              string
	Location           string
	ImageURL           string
	Description        string
	PriceMin           float64
	PriceMax           float64
	VerificationStatus Status
	PhotoFileID        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasPriceRange reports whether the listing constrains offer amounts.
func (l Listing) HasPriceRange() bool {
	return l.PriceMax > 0
}

// CreateListingRequest holds the descriptive fields an agent supplies.
// The agent email always comes from the session.
type CreateListingRequest struct {
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	ImageURL    string  `json:"imageURL"`
	Description string  `json:"description"`
	PriceMin    float64 `json:"priceMin"`
	PriceMax    float64 `json:"priceMax"`
	AgentName   string  `json:"agentName"`
	AgentImage  string  `json:"agentImage"`
}

func (r CreateListingRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperr.Invalid("title is required")
	}
	return validatePrices(r.PriceMin, r.PriceMax)
}

// UpdateListingRequest patches descriptive fields; nil leaves a field as is.
type UpdateListingRequest struct {
	Title       *string  `json:"title"`
	Location    *string  `json:"location"`
	ImageURL    *string  `json:"imageURL"`
	Description *string  `json:"description"`
	PriceMin    *float64 `json:"priceMin"`
	PriceMax    *float64 `json:"priceMax"`
}

func (r UpdateListingRequest) apply(l Listing) (Listing, error) {
	if r.Title != nil {
		if strings.TrimSpace(*r.Title) == "" {
			return Listing{}, apperr.Invalid("title must not be empty")
		}
		l.Title = *r.Title
	}
	if r.Location != nil {
		l.Location = *r.Location
	}
	if r.ImageURL != nil {
		l.ImageURL = *r.ImageURL
	}
	if r.Description != nil {
		l.Description = *r.Description
	}
	if r.PriceMin != nil {
		l.PriceMin = *r.PriceMin
	}
	if r.PriceMax != nil {
		l.PriceMax = *r.PriceMax
	}
	if err := validatePrices(l.PriceMin, l.PriceMax); err != nil {
		return Listing{}, err
	}
	return l, nil
}

func validatePrices(lo, hi float64) error {
	if lo < 0 || hi < 0 {
		return apperr.Invalid("prices must not be negative")
	}
	if hi > 0 && lo > hi {
		return apperr.Invalid("priceMin %.2f exceeds priceMax %.2f", lo, hi)
	}
	return nil
}

// Advertisement promotes a verified listing on the landing page.
type Advertisement struct {
	ID         string
	PropertyID string
	AgentEmail string
	Title      string
	ImageURL   string
	CreatedAt  time.Time
}
