// Package wishlist stores listings a buyer has saved for later. Every entry
// is private to its buyer.
package wishlist

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/property"
)

// AddRequest names the listing to save and the buyer saving it.
type AddRequest struct {
	BuyerEmail string `json:"buyerEmail"`
	PropertyID string `json:"propertyId"`
}

// Listings resolves a listing under the caller's visibility.
type Listings interface {
	Get(ctx context.Context, actor access.Principal, id string) (property.Listing, error)
}

type Service struct {
	repo     Repository
	listings Listings
	newID    func() string
}

func NewService(repo Repository, listings Listings) *Service {
	return &Service{repo: repo, listings: listings, newID: uuid.NewString}
}

// WithIDGenerator overrides id generation for deterministic tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Add snapshots a visible listing into the caller's wishlist.
func (s *Service) Add(ctx context.Context, actor access.Principal, req AddRequest) (Entry, error) {
	buyer := strings.ToLower(strings.TrimSpace(req.BuyerEmail))
	if buyer == "" {
		buyer = strings.ToLower(actor.Email)
	}
	if err := access.Authorize(actor, access.WriteOwnWishlist, buyer).Err(); err != nil {
		return Entry{}, err
	}
	if strings.TrimSpace(req.PropertyID) == "" {
		return Entry{}, apperr.Invalid("propertyId is required")
	}

	l, err := s.listings.Get(ctx, actor, req.PropertyID)
	if err != nil {
		return Entry{}, err
	}
	return s.repo.Add(ctx, Entry{
		ID:         s.newID(),
		BuyerEmail: buyer,
		PropertyID: l.ID,
		Title:      l.Title,
		Location:   l.Location,
		ImageURL:   l.ImageURL,
		AgentName:  l.AgentName,
		PriceMin:   l.PriceMin,
		PriceMax:   l.PriceMax,
	})
}

// List returns the caller's own entries; anyone else's fails closed.
func (s *Service) List(ctx context.Context, actor access.Principal, buyerEmail string) ([]Entry, error) {
	if err := access.Authorize(actor, access.ReadOwnWishlist, buyerEmail).Err(); err != nil {
		return nil, err
	}
	return s.repo.ListByBuyer(ctx, strings.ToLower(strings.TrimSpace(buyerEmail)))
}

func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Entry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if err := access.AssertOwner(actor, e.BuyerEmail); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Service) Remove(ctx context.Context, actor access.Principal, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
