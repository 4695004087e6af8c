package payment

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeBridge creates and inspects USD card payment intents on Stripe.
type StripeBridge struct {
	intents intentAPI
}

// NewStripeBridge builds a bridge from a secret key.
func NewStripeBridge(secretKey string) *StripeBridge {
	sc := client.New(secretKey, nil)
	return &StripeBridge{intents: sc.PaymentIntents}
}

func (b *StripeBridge) CreateIntent(ctx context.Context, amount float64) (string, error) {
	cents, err := Cents(amount)
	if err != nil {
		return "", err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(cents),
		Currency:           stripe.String(Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := b.intents.New(params)
	if err != nil {
		return "", gatewayError("create intent", err)
	}
	return pi.ClientSecret, nil
}

func (b *StripeBridge) LookupIntent(ctx context.Context, id string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := b.intents.Get(id, params)
	if err != nil {
		return Intent{}, gatewayError("lookup intent", err)
	}
	return Intent{
		ID:          pi.ID,
		AmountCents: pi.Amount,
		Currency:    string(pi.Currency),
		Succeeded:   pi.Status == stripe.PaymentIntentStatusSucceeded,
	}, nil
}
