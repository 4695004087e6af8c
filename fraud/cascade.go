// Package fraud bans an agent and removes the stock they published. The
// steps run sequentially without a transaction; every step runs even when an
// earlier one failed, and the caller gets the outcome of each.
package fraud

import (
	"context"
	"log/slog"
	"strings"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/auth"
)

const (
	StepMarkFraud            = "mark_fraud"
	StepDeleteListings       = "delete_listings"
	StepDeleteAdvertisements = "delete_advertisements"
)

// Identities is the identity registry as seen by the cascade.
type Identities interface {
	Get(ctx context.Context, id string) (auth.Identity, error)
	MarkFraud(ctx context.Context, id string) (auth.Identity, error)
}

// Stock removes everything an agent has published.
type Stock interface {
	DeleteByAgent(ctx context.Context, agentEmail string) (int64, error)
	DeleteAdsByAgent(ctx context.Context, agentEmail string) (int64, error)
}

// StepResult is the outcome of one cascade step.
type StepResult struct {
	Step     string
	OK       bool
	Affected int64
	Err      error
}

// Report collects step outcomes in execution order.
type Report struct {
	Target string
	Steps  []StepResult
}

// OK reports whether every step succeeded.
func (r Report) OK() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// Cascade bans an agent and clears the listings and advertisements it owns.
type Cascade struct {
	identities Identities
	stock      Stock
	logger     *slog.Logger
}

// NewCascade creates a cascade. A nil logger falls back to slog.Default().
func NewCascade(identities Identities, stock Stock, logger *slog.Logger) *Cascade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cascade{identities: identities, stock: stock, logger: logger}
}

// MarkFraud sets the fraud role on the identity and deletes its listings and
// advertisements. Offers on those listings are left in place.
func (c *Cascade) MarkFraud(ctx context.Context, actor access.Principal, identityID string) (Report, error) {
	if err := access.Authorize(actor, access.ChangeRole, "").Err(); err != nil {
		return Report{}, err
	}
	target, err := c.identities.Get(ctx, identityID)
	if err != nil {
		return Report{}, err
	}

	report := Report{Target: target.Email}
	report.Steps = append(report.Steps, c.run(ctx, target.Email, StepMarkFraud, func() (int64, error) {
		if _, err := c.identities.MarkFraud(ctx, identityID); err != nil {
			return 0, err
		}
		return 1, nil
	}))
	report.Steps = append(report.Steps, c.purge(ctx, target.Email)...)
	return report, nil
}

// PurgeAgent deletes an agent's listings and advertisements without touching
// the identity.
func (c *Cascade) PurgeAgent(ctx context.Context, actor access.Principal, agentEmail string) (Report, error) {
	if err := access.Authorize(actor, access.PurgeAgentStock, agentEmail).Err(); err != nil {
		return Report{}, err
	}
	email := auth.NormalizeEmail(agentEmail)
	return Report{Target: email, Steps: c.purge(ctx, email)}, nil
}

func (c *Cascade) purge(ctx context.Context, email string) []StepResult {
	email = strings.TrimSpace(email)
	return []StepResult{
		c.run(ctx, email, StepDeleteListings, func() (int64, error) {
			return c.stock.DeleteByAgent(ctx, email)
		}),
		c.run(ctx, email, StepDeleteAdvertisements, func() (int64, error) {
			return c.stock.DeleteAdsByAgent(ctx, email)
		}),
	}
}

func (c *Cascade) run(ctx context.Context, email, step string, fn func() (int64, error)) StepResult {
	n, err := fn()
	if err != nil {
		c.logger.ErrorContext(ctx, "fraud cascade step failed",
			slog.String("target", email), slog.String("step", step), slog.Any("error", err))
		return StepResult{Step: step, Err: err}
	}
	c.logger.InfoContext(ctx, "fraud cascade step",
		slog.String("target", email), slog.String("step", step), slog.Int64("affected", n))
	return StepResult{Step: step, OK: true, Affected: n}
}
