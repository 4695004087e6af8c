package payment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stripe/stripe-go/v79"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
)

func TestCents(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{500, 50000},
		{19.99, 1999},
		{0.1 + 0.2, 30},
	}
	for _, tc := range cases {
		got, err := Cents(tc.amount)
		if err != nil {
			t.Fatalf("Cents(%v): unexpected error: %v", tc.amount, err)
		}
		if got != tc.want {
			t.Fatalf("Cents(%v): expected %d got %d", tc.amount, tc.want, got)
		}
	}

	for _, bad := range []float64{0, -5, 0.001, math.NaN(), math.Inf(1)} {
		if _, err := Cents(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Cents(%v): expected ErrInvalidAmount, got %v", bad, err)
		}
	}
}

func TestStripeBridge_CreateIntent(t *testing.T) {
	api := &fakeIntents{created: &stripe.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	bridge := &StripeBridge{intents: api}

	secret, err := bridge.CreateIntent(context.Background(), 19.99)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if secret != "pi_1_secret" {
		t.Fatalf("expected client secret, got %q", secret)
	}
	if api.params == nil || *api.params.Amount != 1999 {
		t.Fatalf("expected amount 1999 cents, got %+v", api.params)
	}
	if *api.params.Currency != string(stripe.CurrencyUSD) {
		t.Fatalf("expected usd, got %s", *api.params.Currency)
	}
	if len(api.params.PaymentMethodTypes) != 1 || *api.params.PaymentMethodTypes[0] != "card" {
		t.Fatalf("expected card payment method, got %v", api.params.PaymentMethodTypes)
	}
}

func TestStripeBridge_GatewayFailure(t *testing.T) {
	bridge := &StripeBridge{intents: &fakeIntents{err: errors.New("card_declined")}}

	if _, err := bridge.CreateIntent(context.Background(), 10); !errors.Is(err, apperr.ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
	if _, err := bridge.LookupIntent(context.Background(), "pi_x"); !errors.Is(err, apperr.ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestStripeBridge_LookupIntent(t *testing.T) {
	api := &fakeIntents{fetched: &stripe.PaymentIntent{ID: "pi_2", Amount: 50000, Currency: stripe.CurrencyUSD, Status: stripe.PaymentIntentStatusSucceeded}}
	intent, err := (&StripeBridge{intents: api}).LookupIntent(context.Background(), "pi_2")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !intent.Succeeded || intent.AmountCents != 50000 || intent.ID != "pi_2" || intent.Currency != Currency {
		t.Fatalf("unexpected intent %+v", intent)
	}
}

func TestService_CreateIntentRequiresIdentity(t *testing.T) {
	svc := NewService(&StripeBridge{intents: &fakeIntents{created: &stripe.PaymentIntent{ClientSecret: "s"}}})
	ctx := context.Background()

	if _, err := svc.CreateIntent(ctx, access.Principal{}, 10); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	buyer := access.Principal{Email: "buyer@example.com", Role: access.RoleUser}
	if _, err := svc.CreateIntent(ctx, buyer, -1); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := NewService(nil).CreateIntent(ctx, buyer, 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	secret, err := svc.CreateIntent(ctx, buyer, 10)
	if err != nil || secret != "s" {
		t.Fatalf("expected secret, got %q (%v)", secret, err)
	}
}

type fakeIntents struct {
	created *stripe.PaymentIntent
	fetched *stripe.PaymentIntent
	params  *stripe.PaymentIntentParams
	err     error
}

func (f *fakeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeIntents) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fetched, nil
}
