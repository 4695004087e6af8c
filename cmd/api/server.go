package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/auth"
	"github.com/srssieam/DreamDwell-server/fraud"
	"github.com/srssieam/DreamDwell-server/offer"
	"github.com/srssieam/DreamDwell-server/property"
	"github.com/srssieam/DreamDwell-server/ratelimit"
	"github.com/srssieam/DreamDwell-server/review"
	"github.com/srssieam/DreamDwell-server/wishlist"
)

const (
	sessionCookie  = "dreamDwell"
	maxBodyBytes   = 1 << 20
	maxPhotoBytes  = 10 << 20
	ctxKeyIdentity = contextKey("identity")
)

type contextKey string

type identityService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.Identity, bool, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	Authenticate(ctx context.Context, credential string) (auth.Identity, error)
	List(ctx context.Context, actor access.Principal) ([]auth.Identity, error)
	IsAdmin(ctx context.Context, actor access.Principal, email string) (bool, error)
	SetRole(ctx context.Context, actor access.Principal, id string, role access.Role) (auth.Identity, error)
	Remove(ctx context.Context, actor access.Principal, id string) error
}

type listingService interface {
	Create(ctx context.Context, actor access.Principal, req property.CreateListingRequest) (property.Listing, error)
	Get(ctx context.Context, actor access.Principal, id string) (property.Listing, error)
	Browse(ctx context.Context, actor access.Principal) ([]property.Listing, error)
	Verified(ctx context.Context, search string) ([]property.Listing, error)
	ByAgent(ctx context.Context, actor access.Principal, agentEmail string) ([]property.Listing, error)
	Update(ctx context.Context, actor access.Principal, id string, req property.UpdateListingRequest) (property.Listing, error)
	Delete(ctx context.Context, actor access.Principal, id string) error
	Verify(ctx context.Context, actor access.Principal, id string) (property.Listing, error)
	Reject(ctx context.Context, actor access.Principal, id string) (property.Listing, error)
	AttachPhoto(ctx context.Context, actor access.Principal, id, filename string, r io.Reader) (property.Listing, error)
	StreamPhoto(ctx context.Context, actor access.Principal, id string, w io.Writer) error
	Advertise(ctx context.Context, actor access.Principal, propertyID string) (property.Advertisement, error)
	Advertisements(ctx context.Context) ([]property.Advertisement, error)
	RemoveAdvertisement(ctx context.Context, actor access.Principal, id string) error
}

type offerService interface {
	Create(ctx context.Context, actor access.Principal, req offer.CreateOfferRequest) (offer.Offer, error)
	ListForBuyer(ctx context.Context, actor access.Principal, buyerEmail string) ([]offer.Offer, error)
	ListReceived(ctx context.Context, actor access.Principal, agentEmail string) ([]offer.Offer, error)
	Get(ctx context.Context, actor access.Principal, id string) (offer.Offer, error)
	Accept(ctx context.Context, actor access.Principal, id string) (offer.Offer, error)
	Reject(ctx context.Context, actor access.Principal, id string) (offer.Offer, error)
	MarkPaid(ctx context.Context, actor access.Principal, id, paymentIntentID string) (offer.Offer, error)
}

type wishlistService interface {
	Add(ctx context.Context, actor access.Principal, req wishlist.AddRequest) (wishlist.Entry, error)
	List(ctx context.Context, actor access.Principal, buyerEmail string) ([]wishlist.Entry, error)
	Get(ctx context.Context, actor access.Principal, id string) (wishlist.Entry, error)
	Remove(ctx context.Context, actor access.Principal, id string) error
}

type reviewService interface {
	List(ctx context.Context, f review.Filter) ([]review.Review, error)
	Create(ctx context.Context, actor access.Principal, req review.CreateRequest) (review.Review, error)
	Delete(ctx context.Context, actor access.Principal, id string) error
}

type cascadeService interface {
	MarkFraud(ctx context.Context, actor access.Principal, identityID string) (fraud.Report, error)
	PurgeAgent(ctx context.Context, actor access.Principal, agentEmail string) (fraud.Report, error)
}

type paymentService interface {
	CreateIntent(ctx context.Context, actor access.Principal, amount float64) (string, error)
}

// Server is the HTTP surface over the marketplace services.
type Server struct {
	identities identityService
	listings   listingService
	offers     offerService
	wishlist   wishlistService
	reviews    reviewService
	cascade    cascadeService
	payments   paymentService

	limiter       ratelimit.Limiter
	rateLimit     int
	cookieSecure  bool
	trustProxy    bool
	corsOrigins   []string
	photosEnabled bool
	logger        *slog.Logger
}

func (s *Server) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	// forwarded client addresses are spoofable unless a proxy rewrites them
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(corsMiddleware(s.corsOrigins))
	r.Use(s.authenticate)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(s.rateLimited("sessions")).Post("/sessions", s.handleLogin)
	r.Delete("/sessions", s.handleLogout)

	r.Route("/users", func(r chi.Router) {
		r.With(s.rateLimited("users")).Post("/", s.handleRegister)
		r.With(s.requireAdmin).Get("/", s.handleListUsers)
		r.With(s.requireIdentity).Get("/me", s.handleMe)
		r.With(s.requireIdentity).Get("/admin-check/{email}", s.handleAdminCheck)
		r.With(s.requireAdmin).Patch("/role/{id}", s.handleSetRole)
		r.With(s.requireAdmin).Delete("/{id}", s.handleRemoveUser)
	})

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", s.handleBrowseListings)
		r.Get("/verified", s.handleVerifiedListings)
		r.With(s.requireIdentity).Get("/by-agent/{email}", s.handleAgentListings)
		r.With(s.requireAdmin).Delete("/by-agent/{email}", s.handlePurgeAgent)
		r.With(s.requireIdentity).Post("/", s.handleCreateListing)
		r.Get("/{id}", s.handleGetListing)
		r.With(s.requireIdentity).Patch("/{id}", s.handleUpdateListing)
		r.With(s.requireIdentity).Delete("/{id}", s.handleDeleteListing)
		r.With(s.requireAdmin).Patch("/{id}/verify", s.handleVerifyListing)
		r.With(s.requireAdmin).Patch("/{id}/reject", s.handleRejectListing)
		if s.photosEnabled {
			r.With(s.requireIdentity).Post("/{id}/photo", s.handleUploadPhoto)
			r.Get("/{id}/photo", s.handleGetPhoto)
		}
	})

	r.Route("/advertisements", func(r chi.Router) {
		r.Get("/", s.handleListAdvertisements)
		r.With(s.requireIdentity).Post("/", s.handleCreateAdvertisement)
		r.With(s.requireIdentity).Delete("/{id}", s.handleDeleteAdvertisement)
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Post("/", s.handleAddWishlist)
		r.Get("/", s.handleListWishlist)
		r.Get("/{id}", s.handleGetWishlist)
		r.Delete("/{id}", s.handleRemoveWishlist)
	})

	r.Route("/offers", func(r chi.Router) {
		r.Use(s.requireIdentity)
		r.Post("/", s.handleCreateOffer)
		r.Get("/", s.handleListOffers)
		r.Get("/received", s.handleReceivedOffers)
		r.Get("/{id}", s.handleGetOffer)
		r.Patch("/{id}/accept", s.handleAcceptOffer)
		r.Patch("/{id}/reject", s.handleRejectOffer)
		r.Patch("/{id}/mark-paid", s.handleMarkOfferPaid)
	})

	r.With(s.requireIdentity, s.rateLimited("payments")).Post("/payment-intents", s.handleCreatePaymentIntent)

	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", s.handleListReviews)
		r.With(s.requireIdentity).Post("/", s.handleCreateReview)
		r.With(s.requireIdentity).Delete("/{id}", s.handleDeleteReview)
	})

	return r
}

// authenticate attaches the caller's identity when a valid credential is
// present. Requests without one continue anonymously.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := credentialFrom(r)
		if credential == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := s.identities.Authenticate(r.Context(), credential)
		if err != nil {
			if errors.Is(err, apperr.ErrUnauthenticated) {
				next.ServeHTTP(w, r)
				return
			}
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyIdentity, identity)))
	})
}

func credentialFrom(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(ctxKeyIdentity).(auth.Identity)
	return identity, ok
}

// principal is the caller's principal, zero for anonymous requests.
func principal(r *http.Request) access.Principal {
	identity, ok := identityFrom(r.Context())
	if !ok {
		return access.Principal{}
	}
	return identity.Principal()
}

func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identityFrom(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if identity.Role != access.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimited counts requests per client IP under scope.
func (s *Server) rateLimited(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil || s.rateLimit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			decision := s.limiter.Allow(r.Context(), scope+":"+clientIP(r), s.rateLimit)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			if !decision.Allowed {
				retry := int(time.Until(decision.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log().InfoContext(r.Context(), "http request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(origins))
	allowAll := false
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[origin]; !ok && !allowAll {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.Invalid("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps the error taxonomy onto status codes. Store and gateway
// details are logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrConflict):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrInvalid):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrGateway):
		s.log().ErrorContext(r.Context(), "payment gateway failure", slog.Any("error", err))
		writeJSONError(w, http.StatusInternalServerError, "payment gateway unavailable")
	default:
		s.log().ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
