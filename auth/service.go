package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
)

// ErrRoleNotAssignable signals a role that cannot be set through SetRole.
// Fraud goes through the cascade and user is only ever the registration default.
var ErrRoleNotAssignable = fmt.Errorf("auth: %w: role cannot be assigned directly", apperr.ErrInvalid)

// Service handles identity registration, sessions and role administration.
type Service struct {
	repo     Repository
	sessions *Sessions
	logger   *slog.Logger
	newID    func() string
}

// LoginResult bundles the credential and its claim.
type LoginResult struct {
	Token string
	Claim Claim
}

// NewService creates a new identity service.
func NewService(repo Repository, sessions *Sessions, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		sessions: sessions,
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

// Sessions exposes the authenticator, used by the HTTP layer for cookie TTLs.
func (s *Service) Sessions() *Sessions { return s.sessions }

// Register creates the identity on first sight of an email and returns the
// existing record on every later call.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Identity, bool, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return Identity{}, false, apperr.Invalid("email is required")
	}

	identity, created, err := s.repo.CreateIfAbsent(ctx, CreateIdentityParams{
		ID:       s.newID(),
		Email:    email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Role:     access.RoleUser,
	})
	if err != nil {
		return Identity{}, false, err
	}
	if created {
		s.logger.InfoContext(ctx, "identity registered", slog.String("id", identity.ID), slog.String("email", identity.Email))
	}
	return identity, created, nil
}

// Login issues a credential for the claimed email.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	token, claim, err := s.sessions.Issue(req.Email, req.Name)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Claim: claim}, nil
}

// Authenticate validates the credential and resolves the stored identity.
func (s *Service) Authenticate(ctx context.Context, credential string) (Identity, error) {
	claim, err := s.sessions.Authenticate(credential)
	if err != nil {
		return Identity{}, err
	}
	return s.Resolve(ctx, claim)
}

// Resolve maps a claim onto its stored identity. An unregistered email acts
// as a plain user.
func (s *Service) Resolve(ctx context.Context, claim Claim) (Identity, error) {
	identity, err := s.repo.GetByEmail(ctx, claim.Email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{Email: claim.Email, Name: claim.Name, Role: access.RoleUser}, nil
		}
		return Identity{}, err
	}
	return identity, nil
}

// List returns every identity to an admin.
func (s *Service) List(ctx context.Context, actor access.Principal) ([]Identity, error) {
	if err := access.Authorize(actor, access.ListIdentities, "").Err(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Get returns an identity by id without authorization; callers gate it.
func (s *Service) Get(ctx context.Context, id string) (Identity, error) {
	return s.repo.GetByID(ctx, id)
}

// IsAdmin answers the admin check for the caller's own email.
func (s *Service) IsAdmin(ctx context.Context, actor access.Principal, email string) (bool, error) {
	if err := access.Authorize(actor, access.CheckOwnAdmin, email).Err(); err != nil {
		return false, err
	}
	identity, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return false, nil
		}
		return false, err
	}
	return identity.Role == access.RoleAdmin, nil
}

// SetRole promotes an identity to admin or agent.
func (s *Service) SetRole(ctx context.Context, actor access.Principal, id string, role access.Role) (Identity, error) {
	if err := access.Authorize(actor, access.ChangeRole, "").Err(); err != nil {
		return Identity{}, err
	}
	if role != access.RoleAdmin && role != access.RoleAgent {
		return Identity{}, ErrRoleNotAssignable
	}

	identity, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return Identity{}, err
	}
	s.logger.InfoContext(ctx, "role changed",
		slog.String("id", id), slog.String("role", string(role)), slog.String("by", actor.Email))
	return identity, nil
}

// MarkFraud sets the fraud role. It performs no authorization and is only
// reached through the fraud cascade.
func (s *Service) MarkFraud(ctx context.Context, id string) (Identity, error) {
	return s.repo.UpdateRole(ctx, id, access.RoleFraud)
}

// Remove deletes an identity.
func (s *Service) Remove(ctx context.Context, actor access.Principal, id string) error {
	if err := access.Authorize(actor, access.RemoveIdentity, "").Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "identity removed", slog.String("id", id), slog.String("by", actor.Email))
	return nil
}
