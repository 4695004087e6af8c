// Package payment turns accepted offer prices into gateway payment intents.
package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
)

var (
	// ErrInvalidAmount signals a non-positive or non-finite amount.
	ErrInvalidAmount = fmt.Errorf("payment: %w: amount must be a positive number", apperr.ErrInvalid)
	// ErrNotConfigured signals that no gateway credentials were supplied.
	ErrNotConfigured = fmt.Errorf("payment: %w: gateway is not configured", apperr.ErrGateway)
)

// Currency is the only currency intents are created in.
const Currency = "usd"

// Intent is the gateway's view of one payment attempt.
type Intent struct {
	ID          string
	AmountCents int64
	Currency    string
	Succeeded   bool
}

// Bridge is the payment gateway seam.
type Bridge interface {
	CreateIntent(ctx context.Context, amount float64) (clientSecret string, err error)
	LookupIntent(ctx context.Context, id string) (Intent, error)
}

// Cents converts a dollar amount to the smallest currency unit.
func Cents(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}
	cents := int64(math.Round(amount * 100))
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Service gates intent creation to authenticated callers.
type Service struct {
	bridge Bridge
}

func NewService(bridge Bridge) *Service {
	return &Service{bridge: bridge}
}

// CreateIntent returns the client secret for a card payment of amount dollars.
func (s *Service) CreateIntent(ctx context.Context, actor access.Principal, amount float64) (string, error) {
	if err := access.Authorize(actor, access.CreatePaymentIntent, "").Err(); err != nil {
		return "", err
	}
	if _, err := Cents(amount); err != nil {
		return "", err
	}
	if s.bridge == nil {
		return "", ErrNotConfigured
	}
	return s.bridge.CreateIntent(ctx, amount)
}

// Bridge exposes the underlying gateway for payment confirmation.
func (s *Service) Bridge() Bridge { return s.bridge }

func gatewayError(op string, err error) error {
	return fmt.Errorf("payment: %s: %w: %s", op, apperr.ErrGateway, strings.TrimSpace(err.Error()))
}
