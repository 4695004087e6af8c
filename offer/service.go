package offer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/payment"
	"github.com/srssieam/DreamDwell-server/property"
)

var (
	// ErrListingNotOpen signals an offer on a listing that is not verified.
	ErrListingNotOpen = fmt.Errorf("offer: %w: listing is not open for offers", apperr.ErrInvalid)
	// ErrOwnListing signals an agent bidding on their own listing.
	ErrOwnListing = fmt.Errorf("offer: %w: agents cannot bid on their own listing", apperr.ErrInvalid)
	// ErrAmountOutOfRange signals an amount outside the listing price range.
	ErrAmountOutOfRange = fmt.Errorf("offer: %w: amount outside the listing price range", apperr.ErrInvalid)
	// ErrPaymentNotConfirmed signals a payment intent that does not settle this offer.
	ErrPaymentNotConfirmed = fmt.Errorf("offer: %w: payment not confirmed", apperr.ErrInvalid)
)

// Listings resolves the listing an offer targets.
type Listings interface {
	Lookup(ctx context.Context, id string) (property.Listing, error)
}

// PaymentVerifier confirms a gateway payment intent.
type PaymentVerifier interface {
	LookupIntent(ctx context.Context, id string) (payment.Intent, error)
}

// Service implements offer negotiation between buyers and listing agents.
type Service struct {
	repo     Repository
	listings Listings
	payments PaymentVerifier
	logger   *slog.Logger
	newID    func() string
}

// NewService creates an offer service. payments may be nil, in which case
// offers cannot be marked paid.
func NewService(repo Repository, listings Listings, payments PaymentVerifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		listings: listings,
		payments: payments,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// WithIDGenerator overrides id generation for deterministic tests.
func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

// Create records a pending offer from the caller on a verified listing.
func (s *Service) Create(ctx context.Context, actor access.Principal, req CreateOfferRequest) (Offer, error) {
	buyer := strings.ToLower(strings.TrimSpace(req.BuyerEmail))
	if buyer == "" {
		buyer = strings.ToLower(actor.Email)
	}
	if err := access.Authorize(actor, access.CreateOwnOffer, buyer).Err(); err != nil {
		return Offer{}, err
	}
	if _, err := payment.Cents(req.Amount); err != nil {
		return Offer{}, apperr.Invalid("amount must be positive")
	}

	l, err := s.listings.Lookup(ctx, req.PropertyID)
	if err != nil {
		return Offer{}, err
	}
	if l.VerificationStatus != property.StatusVerified {
		return Offer{}, ErrListingNotOpen
	}
	if access.SameEmail(l.AgentEmail, buyer) {
		return Offer{}, ErrOwnListing
	}
	if l.HasPriceRange() && (req.Amount < l.PriceMin || req.Amount > l.PriceMax) {
		return Offer{}, fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrAmountOutOfRange, req.Amount, l.PriceMin, l.PriceMax)
	}

	o, err := s.repo.Create(ctx, Offer{
		ID:            s.newID(),
		PropertyID:    l.ID,
		PropertyTitle: l.Title,
		BuyerEmail:    buyer,
		BuyerName:     req.BuyerName,
		AgentEmail:    l.AgentEmail,
		Amount:        req.Amount,
		Status:        StatusPending,
	})
	if err != nil {
		return Offer{}, err
	}
	s.logger.InfoContext(ctx, "offer created", slog.String("id", o.ID), slog.String("property_id", o.PropertyID))
	return o, nil
}

// ListForBuyer returns the caller's own offers.
func (s *Service) ListForBuyer(ctx context.Context, actor access.Principal, buyerEmail string) ([]Offer, error) {
	if err := access.Authorize(actor, access.ReadOwnOffers, buyerEmail).Err(); err != nil {
		return nil, err
	}
	return s.repo.ListByBuyer(ctx, strings.ToLower(strings.TrimSpace(buyerEmail)))
}

// ListReceived returns offers made on the calling agent's listings.
func (s *Service) ListReceived(ctx context.Context, actor access.Principal, agentEmail string) ([]Offer, error) {
	if err := access.Authorize(actor, access.ReadOwnOffers, agentEmail).Err(); err != nil {
		return nil, err
	}
	return s.repo.ListByAgent(ctx, strings.ToLower(strings.TrimSpace(agentEmail)))
}

// Get returns an offer to either of its parties.
func (s *Service) Get(ctx context.Context, actor access.Principal, id string) (Offer, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Offer{}, err
	}
	if access.AssertOwner(actor, o.BuyerEmail) != nil {
		if err := access.AssertOwner(actor, o.AgentEmail); err != nil {
			return Offer{}, err
		}
	}
	return o, nil
}

// Accept is invoked by the listing agent on a pending offer.
func (s *Service) Accept(ctx context.Context, actor access.Principal, id string) (Offer, error) {
	return s.respond(ctx, actor, id, StatusAccepted)
}

// Reject is invoked by the listing agent on a pending offer.
func (s *Service) Reject(ctx context.Context, actor access.Principal, id string) (Offer, error) {
	return s.respond(ctx, actor, id, StatusRejected)
}

func (s *Service) respond(ctx context.Context, actor access.Principal, id string, next Status) (Offer, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Offer{}, err
	}
	if err := access.Authorize(actor, access.RespondToOffer, o.AgentEmail).Err(); err != nil {
		return Offer{}, err
	}
	return s.transition(ctx, o, next, "")
}

// MarkPaid settles an accepted offer once the gateway reports the intent as
// succeeded for exactly the offer amount in USD. An intent settles at most
// one offer; reusing it fails with ErrTransactionReused.
func (s *Service) MarkPaid(ctx context.Context, actor access.Principal, id, paymentIntentID string) (Offer, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Offer{}, err
	}
	if err := access.Authorize(actor, access.MarkOwnOfferPaid, o.BuyerEmail).Err(); err != nil {
		return Offer{}, err
	}
	if o.Status == StatusPaid {
		return o, nil
	}
	if !CanTransition(o.Status, StatusPaid) {
		return Offer{}, invalidTransition(o.Status, StatusPaid)
	}

	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return Offer{}, apperr.Invalid("paymentIntentId is required")
	}
	if s.payments == nil {
		return Offer{}, payment.ErrNotConfigured
	}
	intent, err := s.payments.LookupIntent(ctx, paymentIntentID)
	if err != nil {
		return Offer{}, err
	}
	want, err := payment.Cents(o.Amount)
	if err != nil {
		return Offer{}, err
	}
	if !intent.Succeeded || intent.AmountCents != want || !strings.EqualFold(intent.Currency, payment.Currency) {
		return Offer{}, fmt.Errorf("%w: intent %s", ErrPaymentNotConfirmed, paymentIntentID)
	}

	return s.transition(ctx, o, StatusPaid, paymentIntentID)
}

// transition applies next with a conditional update. Re-applying the
// current status is a no-op; anything else not allowed fails.
func (s *Service) transition(ctx context.Context, o Offer, next Status, transactionID string) (Offer, error) {
	if o.Status == next {
		return o, nil
	}
	if !CanTransition(o.Status, next) {
		return Offer{}, invalidTransition(o.Status, next)
	}

	out, applied, err := s.repo.Transition(ctx, o.ID, predecessors[next], next, transactionID)
	if err != nil {
		return Offer{}, err
	}
	if !applied {
		if out.Status == next {
			return out, nil
		}
		return Offer{}, invalidTransition(out.Status, next)
	}
	s.logger.InfoContext(ctx, "offer status changed",
		slog.String("id", o.ID), slog.String("from", string(o.Status)), slog.String("to", string(next)))
	return out, nil
}

func invalidTransition(from, to Status) error {
	return fmt.Errorf("offer: %w: %s -> %s", apperr.ErrInvalidTransition, from, to)
}
