package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/auth"
	"github.com/srssieam/DreamDwell-server/fraud"
	"github.com/srssieam/DreamDwell-server/offer"
	"github.com/srssieam/DreamDwell-server/property"
	"github.com/srssieam/DreamDwell-server/ratelimit"
)

var (
	adminIdentity = auth.Identity{ID: "u-admin", Email: "root@example.com", Name: "Root", Role: access.RoleAdmin}
	agentIdentity = auth.Identity{ID: "u-agent", Email: "agent@example.com", Name: "Rahim", Role: access.RoleAgent}
	buyerIdentity = auth.Identity{ID: "u-buyer", Email: "buyer@example.com", Name: "Nadia", Role: access.RoleUser}
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// stubIdentities maps bearer tokens to identities.
type stubIdentities struct {
	tokens      map[string]auth.Identity
	registered  map[string]auth.Identity
	setRoleCall string
	setRoleErr  error
}

func newStubIdentities() *stubIdentities {
	return &stubIdentities{
		tokens: map[string]auth.Identity{
			"admin-token": adminIdentity,
			"agent-token": agentIdentity,
			"buyer-token": buyerIdentity,
		},
		registered: map[string]auth.Identity{},
	}
}

func (s *stubIdentities) Register(_ context.Context, req auth.RegisterRequest) (auth.Identity, bool, error) {
	if existing, ok := s.registered[req.Email]; ok {
		return existing, false, nil
	}
	identity := auth.Identity{ID: "u-new", Email: req.Email, Name: req.Name, Role: access.RoleUser}
	s.registered[req.Email] = identity
	return identity, true, nil
}

func (s *stubIdentities) Login(_ context.Context, req auth.LoginRequest) (auth.LoginResult, error) {
	expires := time.Date(2025, 3, 1, 17, 0, 0, 0, time.UTC)
	return auth.LoginResult{Token: "signed-" + req.Email, Claim: auth.Claim{Email: req.Email, ExpiresAt: expires}}, nil
}

func (s *stubIdentities) Authenticate(_ context.Context, credential string) (auth.Identity, error) {
	identity, ok := s.tokens[credential]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return identity, nil
}

func (s *stubIdentities) List(_ context.Context, _ access.Principal) ([]auth.Identity, error) {
	return []auth.Identity{adminIdentity, agentIdentity, buyerIdentity}, nil
}

func (s *stubIdentities) IsAdmin(_ context.Context, actor access.Principal, email string) (bool, error) {
	if err := access.Authorize(actor, access.CheckOwnAdmin, email).Err(); err != nil {
		return false, err
	}
	return actor.Role == access.RoleAdmin, nil
}

func (s *stubIdentities) SetRole(_ context.Context, _ access.Principal, id string, role access.Role) (auth.Identity, error) {
	s.setRoleCall = id + ":" + string(role)
	if s.setRoleErr != nil {
		return auth.Identity{}, s.setRoleErr
	}
	return auth.Identity{ID: id, Email: "promoted@example.com", Role: role}, nil
}

func (s *stubIdentities) Remove(_ context.Context, _ access.Principal, _ string) error {
	return nil
}

// stubListings panics on any method a test does not override.
type stubListings struct {
	listingService
	listing  property.Listing
	getErr   error
	verified []property.Listing
	search   string
}

func (s *stubListings) Get(_ context.Context, _ access.Principal, _ string) (property.Listing, error) {
	return s.listing, s.getErr
}

func (s *stubListings) Verified(_ context.Context, search string) ([]property.Listing, error) {
	s.search = search
	return s.verified, nil
}

type stubOffers struct {
	offerService
	offer      offer.Offer
	err        error
	buyerEmail string
}

func (s *stubOffers) ListForBuyer(_ context.Context, actor access.Principal, buyerEmail string) ([]offer.Offer, error) {
	s.buyerEmail = buyerEmail
	if err := access.AssertOwner(actor, buyerEmail); err != nil {
		return nil, err
	}
	return []offer.Offer{s.offer}, nil
}

func (s *stubOffers) Accept(_ context.Context, _ access.Principal, _ string) (offer.Offer, error) {
	return s.offer, s.err
}

type stubCascade struct {
	report fraud.Report
	err    error
	target string
}

func (s *stubCascade) MarkFraud(_ context.Context, _ access.Principal, identityID string) (fraud.Report, error) {
	s.target = identityID
	return s.report, s.err
}

func (s *stubCascade) PurgeAgent(_ context.Context, _ access.Principal, agentEmail string) (fraud.Report, error) {
	s.target = agentEmail
	return s.report, s.err
}

type stubPayments struct {
	secret string
	err    error
}

func (s stubPayments) CreateIntent(_ context.Context, _ access.Principal, _ float64) (string, error) {
	return s.secret, s.err
}

func newTestServer() *Server {
	return &Server{
		identities:   newStubIdentities(),
		cookieSecure: true,
		corsOrigins:  []string{"http://localhost:5173"},
		logger:       quietLogger(),
	}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}

func TestHandleLogin_SetsSessionCookie(t *testing.T) {
	server := newTestServer()

	rec := do(t, server.routes(), http.MethodPost, "/sessions", "", `{"email":"buyer@example.com","name":"Nadia"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("expected %s cookie, got %+v", sessionCookie, cookies)
	}
	c := cookies[0]
	if c.Value != "signed-buyer@example.com" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteNoneMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	var payload struct {
		Success   bool   `json:"success"`
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success || payload.Token != c.Value || payload.ExpiresAt != "2025-03-01T17:00:00Z" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	rec := do(t, newTestServer().routes(), http.MethodDelete, "/sessions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestAuthenticate_CookieCredential(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "agent-token"})
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp identityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != agentIdentity.Email || resp.Role != "agent" {
		t.Fatalf("unexpected identity %+v", resp)
	}
}

func TestRoutes_AuthenticationGates(t *testing.T) {
	server := newTestServer()
	server.listings = &stubListings{}
	h := server.routes()

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no credential on self route", http.MethodGet, "/offers", "", http.StatusUnauthorized},
		{"forged credential on self route", http.MethodGet, "/wishlist", "forged", http.StatusUnauthorized},
		{"admin route without credential", http.MethodGet, "/users", "", http.StatusUnauthorized},
		{"admin route as agent", http.MethodGet, "/users", "agent-token", http.StatusForbidden},
		{"verify as agent", http.MethodPatch, "/properties/p1/verify", "agent-token", http.StatusForbidden},
		{"purge as buyer", http.MethodDelete, "/properties/by-agent/agent@example.com", "buyer-token", http.StatusForbidden},
		{"forged credential on public route", http.MethodGet, "/properties/verified", "forged", http.StatusOK},
		{"admin listing", http.MethodGet, "/users", "admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.token, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleMe_FromContext(t *testing.T) {
	server := &Server{}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKeyIdentity, buyerIdentity))
	rec := httptest.NewRecorder()

	server.handleMe(rec, req)

	var resp identityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != buyerIdentity.ID || resp.Role != "user" {
		t.Fatalf("unexpected payload %+v", resp)
	}
}

func TestHandleRegister_IdempotentStatus(t *testing.T) {
	h := newTestServer().routes()
	body := `{"email":"new@example.com","name":"New"}`

	if rec := do(t, h, http.MethodPost, "/users", "", body); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first registration, got %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/users", "", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat registration, got %d", rec.Code)
	}
	var resp identityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "u-new" {
		t.Fatalf("expected the original identity, got %+v", resp)
	}
}

func TestHandleAdminCheck_OtherEmailForbidden(t *testing.T) {
	h := newTestServer().routes()

	rec := do(t, h, http.MethodGet, "/users/admin-check/root@example.com", "buyer-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/users/admin-check/root@example.com", "admin-token", "")
	var payload struct {
		Admin bool `json:"admin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if rec.Code != http.StatusOK || !payload.Admin {
		t.Fatalf("expected admin true, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSetRole_Promotes(t *testing.T) {
	server := newTestServer()
	identities := server.identities.(*stubIdentities)

	rec := do(t, server.routes(), http.MethodPatch, "/users/role/u-9", "admin-token", `{"role":"agent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if identities.setRoleCall != "u-9:agent" {
		t.Fatalf("expected SetRole(u-9, agent), got %q", identities.setRoleCall)
	}

	rec = do(t, server.routes(), http.MethodPatch, "/users/role/u-9", "admin-token", `{"role":"overlord"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
}

func TestHandleSetRole_FraudRunsCascade(t *testing.T) {
	cascade := &stubCascade{report: fraud.Report{
		Target: "agent@example.com",
		Steps: []fraud.StepResult{
			{Step: fraud.StepMarkFraud, OK: true, Affected: 1},
			{Step: fraud.StepDeleteListings, OK: true, Affected: 3},
			{Step: fraud.StepDeleteAdvertisements, OK: true, Affected: 1},
		},
	}}
	server := newTestServer()
	server.cascade = cascade

	rec := do(t, server.routes(), http.MethodPatch, "/users/role/u-agent", "admin-token", `{"role":"fraud"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cascade.target != "u-agent" {
		t.Fatalf("expected cascade on u-agent, got %q", cascade.target)
	}
	if server.identities.(*stubIdentities).setRoleCall != "" {
		t.Fatal("expected fraud to bypass SetRole")
	}

	var resp reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || len(resp.Steps) != 3 || resp.Steps[1].Affected != 3 {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestHandleSetRole_PartialCascadeReports500(t *testing.T) {
	server := newTestServer()
	server.cascade = &stubCascade{report: fraud.Report{
		Target: "agent@example.com",
		Steps: []fraud.StepResult{
			{Step: fraud.StepMarkFraud, Err: apperr.Store("auth: update role", errors.New("conn reset"))},
			{Step: fraud.StepDeleteListings, OK: true, Affected: 2},
			{Step: fraud.StepDeleteAdvertisements, OK: true},
		},
	}}

	rec := do(t, server.routes(), http.MethodPatch, "/users/role/u-agent", "admin-token", `{"role":"fraud"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK || resp.Steps[0].Error == "" || !resp.Steps[1].OK {
		t.Fatalf("expected per-step outcomes, got %+v", resp)
	}
}

func TestHandleGetListing_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown id", property.ErrListingNotFound, http.StatusNotFound},
		{"hidden listing", access.Decision{Reason: access.ReasonNotOwner}.Err(), http.StatusForbidden},
		{"store down", apperr.Store("property: get", errors.New("dial tcp: refused")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer()
			server.listings = &stubListings{getErr: tc.err}

			rec := do(t, server.routes(), http.MethodGet, "/properties/p1", "", "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(decodeError(t, rec), "dial tcp") {
				t.Fatal("expected store details to stay out of the response")
			}
		})
	}
}

func TestHandleGetListing_Success(t *testing.T) {
	created := time.Date(2024, 10, 31, 15, 4, 5, 0, time.UTC)
	server := newTestServer()
	server.listings = &stubListings{listing: property.Listing{
		ID:                 "p1",
		Title:              "Lakeside Villa",
		AgentEmail:         agentIdentity.Email,
		PriceMin:           400,
		PriceMax:           600,
		VerificationStatus: property.StatusVerified,
		CreatedAt:          created,
		UpdatedAt:          created,
	}}

	rec := do(t, server.routes(), http.MethodGet, "/properties/p1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp listingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "p1" || resp.VerificationStatus != "verified" || resp.HasPhoto {
		t.Fatalf("unexpected payload %+v", resp)
	}
	if resp.CreatedAt != created.Format(time.RFC3339) {
		t.Fatalf("expected createdAt %s, got %s", created.Format(time.RFC3339), resp.CreatedAt)
	}
}

func TestHandleVerifiedListings_PassesSearch(t *testing.T) {
	listings := &stubListings{verified: []property.Listing{{ID: "p1", Title: "Lakeside Villa"}}}
	server := newTestServer()
	server.listings = listings

	rec := do(t, server.routes(), http.MethodGet, "/properties/verified?search=villa", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if listings.search != "villa" {
		t.Fatalf("expected search villa, got %q", listings.search)
	}
	var payload struct {
		Items []listingResponse `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].ID != "p1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPhotoRoutes_MountedOnlyWhenEnabled(t *testing.T) {
	server := newTestServer()
	server.listings = &stubListings{}

	rec := do(t, server.routes(), http.MethodGet, "/properties/p1/photo", "", "")
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected photo route absent, got %d", rec.Code)
	}
}

func TestHandleListOffers_DefaultsToCaller(t *testing.T) {
	offers := &stubOffers{offer: offer.Offer{ID: "o1", BuyerEmail: buyerIdentity.Email, Status: offer.StatusPending}}
	server := newTestServer()
	server.offers = offers
	h := server.routes()

	rec := do(t, h, http.MethodGet, "/offers", "buyer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if offers.buyerEmail != buyerIdentity.Email {
		t.Fatalf("expected caller email, got %q", offers.buyerEmail)
	}

	rec = do(t, h, http.MethodGet, "/offers?buyerEmail=someone@example.com", "buyer-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another buyer's offers, got %d", rec.Code)
	}
}

func TestHandleAcceptOffer_InvalidTransition(t *testing.T) {
	server := newTestServer()
	server.offers = &stubOffers{err: fmt.Errorf("%w: paid -> accepted", apperr.ErrInvalidTransition)}

	rec := do(t, server.routes(), http.MethodPatch, "/offers/o1/accept", "agent-token", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleCreatePaymentIntent(t *testing.T) {
	server := newTestServer()
	server.payments = stubPayments{secret: "pi_1_secret_2"}

	rec := do(t, server.routes(), http.MethodPost, "/payment-intents", "buyer-token", `{"amount":500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ClientSecret != "pi_1_secret_2" {
		t.Fatalf("unexpected client secret %q", payload.ClientSecret)
	}

	server.payments = stubPayments{err: fmt.Errorf("%w: card_declined", apperr.ErrGateway)}
	rec = do(t, server.routes(), http.MethodPost, "/payment-intents", "buyer-token", `{"amount":500}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on gateway failure, got %d", rec.Code)
	}

	rec = do(t, server.routes(), http.MethodPost, "/payment-intents", "buyer-token", `{"amount":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed body, got %d", rec.Code)
	}
}

func TestRateLimited_Returns429(t *testing.T) {
	server := newTestServer()
	server.limiter = ratelimit.NewInMemory(time.Minute)
	server.rateLimit = 2
	h := server.routes()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/sessions", "", `{"email":"a@example.com"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodPost, "/sessions", "", `{"email":"a@example.com"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	// registration is counted separately
	if rec := do(t, h, http.MethodPost, "/users", "", `{"email":"a@example.com"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestRateLimited_IgnoresForwardedForUnlessTrusted(t *testing.T) {
	login := func(h http.Handler, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"a@example.com"}`))
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for _, tc := range []struct {
		trustProxy bool
		third      int
	}{
		{trustProxy: false, third: http.StatusTooManyRequests},
		{trustProxy: true, third: http.StatusOK},
	} {
		server := newTestServer()
		server.limiter = ratelimit.NewInMemory(time.Minute)
		server.rateLimit = 2
		server.trustProxy = tc.trustProxy
		h := server.routes()

		for i, ip := range []string{"203.0.113.1", "203.0.113.2"} {
			if code := login(h, ip); code != http.StatusOK {
				t.Fatalf("trustProxy=%v request %d: expected 200, got %d", tc.trustProxy, i, code)
			}
		}
		if code := login(h, "203.0.113.3"); code != tc.third {
			t.Fatalf("trustProxy=%v: expected %d for a fresh forwarded address, got %d", tc.trustProxy, tc.third, code)
		}
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestServer().routes()

	req := httptest.NewRequest(http.MethodOptions, "/offers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected unknown origin left without CORS headers")
	}
}
