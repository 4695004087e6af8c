// Package access is the role authority: a flat rule table deciding whether a
// principal may perform an action, optionally against a resource owned by a
// given email.
package access

import (
	"fmt"
	"strings"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// Role is the single mutually exclusive tag carried by an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
	RoleFraud Role = "fraud"
)

// ErrUnknownRole is returned by ParseRole for values outside the enumeration.
var ErrUnknownRole = fmt.Errorf("access: %w: unknown role", apperr.ErrInvalid)

// ParseRole maps a wire value onto the closed role enumeration.
func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(raw))); r {
	case RoleUser, RoleAgent, RoleAdmin, RoleFraud:
		return r, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownRole, raw)
	}
}

// Principal is the authenticated caller as seen by the rule table.
type Principal struct {
	Email string
	Role  Role
}

// Action names every operation the rule table knows about.
type Action string

const (
	// self-scoped
	ReadOwnWishlist   Action = "wishlist.read_own"
	WriteOwnWishlist  Action = "wishlist.write_own"
	ReadOwnOffers     Action = "offer.read_own"
	CreateOwnOffer    Action = "offer.create_own"
	MarkOwnOfferPaid  Action = "offer.mark_paid"
	CheckOwnAdmin     Action = "user.admin_check"
	CreateOwnReview   Action = "review.create_own"
	ReadAgentListings Action = "property.read_agent"

	// identity administration
	ChangeRole      Action = "user.change_role"
	ListIdentities  Action = "user.list"
	RemoveIdentity  Action = "user.remove"
	VerifyListing   Action = "property.verify"
	RejectListing   Action = "property.reject"
	PurgeAgentStock Action = "property.purge_agent"

	// owner-or-admin
	CreateListing       Action = "property.create"
	UpdateListing       Action = "property.update"
	DeleteListing       Action = "property.delete"
	AttachListingPhoto  Action = "property.attach_photo"
	CreateAdvertisement Action = "advertisement.create"
	DeleteAdvertisement Action = "advertisement.delete"
	ReadHiddenListing   Action = "property.read_hidden"
	DeleteReview        Action = "review.delete"

	// offer negotiation
	RespondToOffer Action = "offer.respond"

	// public or any authenticated caller
	BrowseListings      Action = "property.browse"
	ReadReviews         Action = "review.read"
	CreatePaymentIntent Action = "payment.create_intent"
)

const (
	ReasonAllow         = "ALLOW"
	ReasonPublic        = "PUBLIC"
	ReasonNotSelf       = "NOT_SELF"
	ReasonAdminOnly     = "ADMIN_ONLY"
	ReasonNotOwner      = "NOT_OWNER"
	ReasonRoleExcluded  = "ROLE_EXCLUDED"
	ReasonUnknownAction = "UNKNOWN_ACTION"
)

// Decision is the outcome of a rule evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Err converts a deny into ErrForbidden carrying the reason.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("access: %w (%s)", apperr.ErrForbidden, d.Reason)
}

// Authorize evaluates the rule table. ownerEmail is the email owning the
// targeted resource; it is ignored by actions that are not owner-scoped.
func Authorize(p Principal, action Action, ownerEmail string) Decision {
	switch action {
	case ReadOwnWishlist, WriteOwnWishlist, ReadOwnOffers, CreateOwnOffer,
		MarkOwnOfferPaid, CheckOwnAdmin, CreateOwnReview:
		if !SameEmail(p.Email, ownerEmail) {
			return deny(ReasonNotSelf)
		}
		return allow()

	case ReadAgentListings:
		if SameEmail(p.Email, ownerEmail) || p.Role == RoleAdmin {
			return allow()
		}
		return deny(ReasonNotSelf)

	case ChangeRole, ListIdentities, RemoveIdentity,
		VerifyListing, RejectListing, PurgeAgentStock:
		if p.Role != RoleAdmin {
			return deny(ReasonAdminOnly)
		}
		return allow()

	case CreateListing, UpdateListing, DeleteListing, AttachListingPhoto,
		CreateAdvertisement, DeleteAdvertisement:
		return ownerOrAdmin(p, ownerEmail, RoleAgent)

	case ReadHiddenListing:
		if p.Role == RoleAdmin || SameEmail(p.Email, ownerEmail) {
			return allow()
		}
		return deny(ReasonNotOwner)

	case DeleteReview:
		if p.Role == RoleAdmin || SameEmail(p.Email, ownerEmail) {
			return allow()
		}
		return deny(ReasonNotOwner)

	case RespondToOffer:
		if p.Role != RoleAgent && p.Role != RoleAdmin {
			return deny(ReasonRoleExcluded)
		}
		if !SameEmail(p.Email, ownerEmail) {
			return deny(ReasonNotOwner)
		}
		return allow()

	case BrowseListings, ReadReviews:
		return Decision{Allowed: true, Reason: ReasonPublic}

	case CreatePaymentIntent:
		if strings.TrimSpace(p.Email) == "" {
			return deny(ReasonNotSelf)
		}
		return allow()

	default:
		return deny(ReasonUnknownAction)
	}
}

// AssertOwner is the ownership guard for self-scoped records.
func AssertOwner(p Principal, ownerEmail string) error {
	if !SameEmail(p.Email, ownerEmail) {
		return deny(ReasonNotSelf).Err()
	}
	return nil
}

// SameEmail compares two addresses case-insensitively; empty never matches.
func SameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

func ownerOrAdmin(p Principal, ownerEmail string, ownerRole Role) Decision {
	if p.Role == RoleAdmin {
		return allow()
	}
	if p.Role != ownerRole {
		return deny(ReasonRoleExcluded)
	}
	if !SameEmail(p.Email, ownerEmail) {
		return deny(ReasonNotOwner)
	}
	return allow()
}

func allow() Decision { return Decision{Allowed: true, Reason: ReasonAllow} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }
