package property

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
)

var (
	// ErrPhotosDisabled signals that no photo store is configured.
	ErrPhotosDisabled = errors.New("property: photo storage is not configured")
	// ErrPhotoNotFound signals a listing without an attached photo.
	ErrPhotoNotFound = fmt.Errorf("property: %w: listing has no photo", apperr.ErrNotFound)
)

// PhotoStore persists listing photo blobs.
type PhotoStore interface {
	Put(ctx context.Context, filename string, r io.Reader) (string, error)
	Stream(ctx context.Context, fileID string, w io.Writer) error
	Delete(ctx context.Context, fileID string) error
}

// Service enforces listing ownership and the verification lifecycle.
type Service struct {
	repo   Repository
	ads    AdRepository
	photos PhotoStore
	logger *slog.Logger
	newID  func() string
}

// NewService creates a listing service. photos may be nil.
func NewService(repo Repository, ads AdRepository, photos PhotoStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		ads:    ads,
		photos: photos,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// WithIDGenerator overrides id generation for deterministic tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Create stores a pending listing owned by the caller.
func (s *Service) Create(ctx context.Context, actor access.Principal, req CreateListingRequest) (Listing, error) {
	if err := access.Authorize(actor, access.CreateListing, actor.Email).Err(); err != nil {
		return Listing{}, err
	}
	if err := req.validate(); err != nil {
		return Listing{}, err
	}

	return s.repo.Create(ctx, Listing{
		ID:                 s.newID(),
		AgentEmail:         strings.ToLower(strings.TrimSpace(actor.Email)),
		AgentName:          req.AgentName,
		AgentImage:         req.AgentImage,
		Title:              strings.TrimSpace(req.Title),
		Location:           req.Location,
		ImageURL:           req.ImageURL,
		Description:        req.Description,
		PriceMin:           req.PriceMin,
		PriceMax:           req.PriceMax,
		VerificationStatus: StatusPending,
	})
}

// Get returns a listing. Non-verified listings are readable only by their
// agent and admins.
func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if l.VerificationStatus == StatusVerified {
		return l, nil
	}
	if err := access.Authorize(actor, access.ReadHiddenListing, l.AgentEmail).Err(); err != nil {
		return Listing{}, err
	}
	return l, nil
}

// Lookup returns a listing without any visibility check. Callers gate it.
func (s *Service) Lookup(ctx context.Context, id string) (Listing, error) {
	return s.repo.Get(ctx, id)
}

// Browse lists what the caller may see: admins everything, agents verified
// listings plus their own, everyone else verified listings only.
func (s *Service) Browse(ctx context.Context, actor access.Principal) ([]Listing, error) {
	switch actor.Role {
	case access.RoleAdmin:
		return s.repo.List(ctx, Query{})
	case access.RoleAgent:
		return s.repo.List(ctx, Query{VerifiedOnly: true, AlsoAgent: actor.Email})
	default:
		return s.repo.List(ctx, Query{VerifiedOnly: true})
	}
}

// Verified lists public listings, optionally filtered by a title substring.
func (s *Service) Verified(ctx context.Context, search string) ([]Listing, error) {
	return s.repo.List(ctx, Query{VerifiedOnly: true, Search: strings.TrimSpace(search)})
}

// ByAgent lists every listing of one agent for that agent or an admin.
func (s *Service) ByAgent(ctx context.Context, actor access.Principal, agentEmail string) ([]Listing, error) {
	if err := access.Authorize(actor, access.ReadAgentListings, agentEmail).Err(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, Query{Agent: strings.ToLower(strings.TrimSpace(agentEmail))})
}

// Update patches descriptive fields of a listing.
func (s *Service) Update(ctx context.Context, actor access.Principal, id string, req UpdateListingRequest) (Listing, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if err := access.Authorize(actor, access.UpdateListing, l.AgentEmail).Err(); err != nil {
		return Listing{}, err
	}
	next, err := req.apply(l)
	if err != nil {
		return Listing{}, err
	}
	return s.repo.Update(ctx, next)
}

// Delete removes a listing together with its advertisements.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.DeleteListing, l.AgentEmail).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_, err = s.ads.DeleteAdsByProperty(ctx, id)
	return err
}

// Verify makes a listing publicly visible.
func (s *Service) Verify(ctx context.Context, actor access.Principal, id string) (Listing, error) {
	return s.transition(ctx, actor, access.VerifyListing, id, StatusVerified)
}

// Reject hides a listing from public browse and withdraws its advertisements.
func (s *Service) Reject(ctx context.Context, actor access.Principal, id string) (Listing, error) {
	return s.transition(ctx, actor, access.RejectListing, id, StatusRejected)
}

func (s *Service) transition(ctx context.Context, actor access.Principal, action access.Action, id string, to Status) (Listing, error) {
	if err := access.Authorize(actor, action, "").Err(); err != nil {
		return Listing{}, err
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if l.VerificationStatus == to {
		return l, nil
	}
	if !CanTransition(l.VerificationStatus, to) {
		return Listing{}, fmt.Errorf("property: %w: %s -> %s", apperr.ErrInvalidTransition, l.VerificationStatus, to)
	}

	out, err := s.repo.SetStatus(ctx, id, to)
	if err != nil {
		return Listing{}, err
	}
	s.logger.InfoContext(ctx, "listing status changed",
		slog.String("id", id), slog.String("from", string(l.VerificationStatus)), slog.String("to", string(to)))

	if to != StatusVerified {
		if _, err := s.ads.DeleteAdsByProperty(ctx, id); err != nil {
			return Listing{}, err
		}
	}
	return out, nil
}

// AttachPhoto uploads a photo and records it on the listing, replacing any
// earlier photo.
func (s *Service) AttachPhoto(ctx context.Context, actor access.Principal, id, filename string, r io.Reader) (Listing, error) {
	if s.photos == nil {
		return Listing{}, ErrPhotosDisabled
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	if err := access.Authorize(actor, access.AttachListingPhoto, l.AgentEmail).Err(); err != nil {
		return Listing{}, err
	}

	fileID, err := s.photos.Put(ctx, filename, r)
	if err != nil {
		return Listing{}, err
	}
	out, err := s.repo.SetPhoto(ctx, id, fileID)
	if err != nil {
		if derr := s.photos.Delete(ctx, fileID); derr != nil {
			s.logger.WarnContext(ctx, "orphaned photo", slog.String("file_id", fileID), slog.Any("error", derr))
		}
		return Listing{}, err
	}
	if l.PhotoFileID != "" {
		if err := s.photos.Delete(ctx, l.PhotoFileID); err != nil {
			s.logger.WarnContext(ctx, "stale photo not removed", slog.String("file_id", l.PhotoFileID), slog.Any("error", err))
		}
	}
	return out, nil
}

// StreamPhoto writes the listing photo to w under the listing visibility rule.
func (s *Service) StreamPhoto(ctx context.Context, actor access.Principal, id string, w io.Writer) error {
	if s.photos == nil {
		return ErrPhotosDisabled
	}
	l, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if l.PhotoFileID == "" {
		return ErrPhotoNotFound
	}
	return s.photos.Stream(ctx, l.PhotoFileID, w)
}

// Advertise promotes a verified listing. The advertisement inherits the
// listing's agent.
func (s *Service) Advertise(ctx context.Context, actor access.Principal, propertyID string) (Advertisement, error) {
	l, err := s.repo.Get(ctx, propertyID)
	if err != nil {
		return Advertisement{}, err
	}
	if err := access.Authorize(actor, access.CreateAdvertisement, l.AgentEmail).Err(); err != nil {
		return Advertisement{}, err
	}
	if l.VerificationStatus != StatusVerified {
		return Advertisement{}, ErrNotAdvertisable
	}
	return s.ads.CreateAd(ctx, Advertisement{
		ID:         s.newID(),
		PropertyID: l.ID,
		AgentEmail: l.AgentEmail,
		Title:      l.Title,
		ImageURL:   l.ImageURL,
	})
}

// Advertisements lists the advertisements of verified listings.
func (s *Service) Advertisements(ctx context.Context) ([]Advertisement, error) {
	return s.ads.ListAds(ctx)
}

// RemoveAdvertisement deletes an advertisement for its agent or an admin.
func (s *Service) RemoveAdvertisement(ctx context.Context, actor access.Principal, id string) error {
	ad, err := s.ads.GetAd(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.DeleteAdvertisement, ad.AgentEmail).Err(); err != nil {
		return err
	}
	return s.ads.DeleteAd(ctx, id)
}

// DeleteByAgent removes every listing of an agent. Callers authorize.
func (s *Service) DeleteByAgent(ctx context.Context, agentEmail string) (int64, error) {
	return s.repo.DeleteByAgent(ctx, agentEmail)
}

// DeleteAdsByAgent removes every advertisement of an agent. Callers authorize.
func (s *Service) DeleteAdsByAgent(ctx context.Context, agentEmail string) (int64, error) {
	return s.ads.DeleteAdsByAgent(ctx, agentEmail)
}
