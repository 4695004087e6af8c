package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/auth"
	"github.com/srssieam/DreamDwell-server/fraud"
	"github.com/srssieam/DreamDwell-server/offer"
	"github.com/srssieam/DreamDwell-server/payment"
	"github.com/srssieam/DreamDwell-server/property"
	"github.com/srssieam/DreamDwell-server/wishlist"
)

// Env is the wired service graph and the seeded cast shared by all actors.
type Env struct {
	Identities *auth.Service
	Listings   *property.Service
	Offers     *offer.Service
	Wishlist   *wishlist.Service
	Cascade    *fraud.Cascade
	Gateway    *Gateway

	Admin  access.Principal
	Agents []access.Principal
	Buyers []access.Principal
	Rogues []auth.Identity
}

// Gateway confirms whatever intents the negotiators approve.
type Gateway struct {
	mu      sync.Mutex
	intents map[string]int64
}

func NewGateway() *Gateway {
	return &Gateway{intents: make(map[string]int64)}
}

func (g *Gateway) Approve(id string, cents int64) {
	g.mu.Lock()
	g.intents[id] = cents
	g.mu.Unlock()
}

func (g *Gateway) LookupIntent(_ context.Context, id string) (payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cents, ok := g.intents[id]
	return payment.Intent{ID: id, AmountCents: cents, Currency: payment.Currency, Succeeded: ok}, nil
}

// tolerable reports errors the chaos actor or ordinary contention produce.
func tolerable(err error) bool {
	return errors.Is(err, apperr.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-stop:
		return true
	default:
		return false
	}
}

func pause(minMS, spreadMS int) {
	time.Sleep(time.Duration(minMS+rand.Intn(spreadMS)) * time.Millisecond)
}

// Registrar registers the same emails over and over; every call must return
// the one stored identity.
func Registrar(ctx context.Context, env *Env, emails []string, stop <-chan struct{}) error {
	seen := make(map[string]string)
	for !stopped(ctx, stop) {
		email := emails[rand.Intn(len(emails))]
		identity, _, err := env.Identities.Register(ctx, auth.RegisterRequest{Email: email, Name: "Stress"})
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("registrar: %w", err)
		}
		if prev, ok := seen[email]; ok && prev != identity.ID {
			return fmt.Errorf("registrar: %s resolved to %s and %s", email, prev, identity.ID)
		}
		seen[email] = identity.ID
		pause(10, 20)
	}
	return nil
}

// ListingCreator publishes listings for one agent and advertises some of the
// verified ones.
func ListingCreator(ctx context.Context, env *Env, agent access.Principal, stop <-chan struct{}) error {
	for n := 0; !stopped(ctx, stop); n++ {
		_, err := env.Listings.Create(ctx, agent, property.CreateListingRequest{
			Title:     fmt.Sprintf("Stress Villa %d", rand.Intn(1_000_000)),
			Location:  "Dhaka",
			PriceMin:  100,
			PriceMax:  1000,
			AgentName: "Stress Agent",
		})
		if err != nil && !tolerable(err) {
			return fmt.Errorf("listing creator: %w", err)
		}

		if n%3 == 0 {
			own, err := env.Listings.ByAgent(ctx, agent, agent.Email)
			if err != nil && !tolerable(err) {
				return fmt.Errorf("listing creator: by agent: %w", err)
			}
			for _, l := range own {
				if l.VerificationStatus != property.StatusVerified {
					continue
				}
				_, err := env.Listings.Advertise(ctx, agent, l.ID)
				if err != nil && !tolerable(err) && !errors.Is(err, property.ErrNotAdvertisable) && !errors.Is(err, apperr.ErrNotFound) {
					return fmt.Errorf("listing creator: advertise: %w", err)
				}
				break
			}
		}
		pause(20, 30)
	}
	return nil
}

// Verifier moves pending listings to verified (mostly) or rejected, and now
// and then flips a verified listing back.
func Verifier(ctx context.Context, env *Env, stop <-chan struct{}) error {
	for !stopped(ctx, stop) {
		all, err := env.Listings.Browse(ctx, env.Admin)
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("verifier: browse: %w", err)
		}
		if len(all) == 0 {
			pause(20, 20)
			continue
		}
		l := all[rand.Intn(len(all))]

		switch {
		case l.VerificationStatus == property.StatusPending && rand.Intn(10) > 0:
			_, err = env.Listings.Verify(ctx, env.Admin, l.ID)
		case l.VerificationStatus == property.StatusPending:
			_, err = env.Listings.Reject(ctx, env.Admin, l.ID)
		case rand.Intn(20) == 0:
			_, err = env.Listings.Reject(ctx, env.Admin, l.ID)
		default:
			_, err = env.Listings.Verify(ctx, env.Admin, l.ID)
		}
		if err != nil && !tolerable(err) && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("verifier: %s: %w", l.ID, err)
		}
		pause(15, 25)
	}
	return nil
}

// Negotiator wishlists a verified listing, offers on it, races accept against
// reject from the owning agent, and pays when accept wins.
func Negotiator(ctx context.Context, env *Env, buyer access.Principal, stop <-chan struct{}) error {
	agents := make(map[string]access.Principal, len(env.Agents))
	for _, a := range env.Agents {
		agents[a.Email] = a
	}

	for !stopped(ctx, stop) {
		listings, err := env.Listings.Verified(ctx, "")
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("negotiator: verified: %w", err)
		}
		if len(listings) == 0 {
			pause(30, 30)
			continue
		}
		l := listings[rand.Intn(len(listings))]
		agent, ok := agents[l.AgentEmail]
		if !ok {
			// rogue stock awaiting the cascade
			continue
		}

		if _, err := env.Wishlist.Add(ctx, buyer, wishlist.AddRequest{PropertyID: l.ID}); err != nil && !tolerable(err) && !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrForbidden) {
			return fmt.Errorf("negotiator: wishlist: %w", err)
		}

		o, err := env.Offers.Create(ctx, buyer, offer.CreateOfferRequest{PropertyID: l.ID, BuyerName: "Stress Buyer", Amount: l.PriceMin})
		if err != nil {
			// the listing may have been rejected or deleted in between
			if tolerable(err) || errors.Is(err, apperr.ErrInvalid) || errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return fmt.Errorf("negotiator: create offer: %w", err)
		}

		if err := raceResponses(ctx, env, agent, o.ID); err != nil {
			return err
		}

		current, err := env.Offers.Get(ctx, buyer, o.ID)
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("negotiator: get offer: %w", err)
		}
		if current.Status != offer.StatusAccepted {
			continue
		}

		cents, _ := payment.Cents(current.Amount)
		intentID := "pi_stress_" + current.ID
		env.Gateway.Approve(intentID, cents)
		paid, err := env.Offers.MarkPaid(ctx, buyer, current.ID, intentID)
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("negotiator: mark paid: %w", err)
		}
		if paid.Status != offer.StatusPaid || paid.TransactionID != intentID {
			return fmt.Errorf("negotiator: offer %s not settled: %+v", paid.ID, paid)
		}
		if _, err := env.Offers.Accept(ctx, agent, paid.ID); !errors.Is(err, apperr.ErrInvalidTransition) && !tolerable(err) {
			return fmt.Errorf("negotiator: accept after paid returned %v", err)
		}
		pause(20, 40)
	}
	return nil
}

// raceResponses fires accept and reject at once; at most one may apply.
func raceResponses(ctx context.Context, env *Env, agent access.Principal, offerID string) error {
	var (
		wg                   sync.WaitGroup
		acceptErr, rejectErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = env.Offers.Accept(ctx, agent, offerID)
	}()
	go func() {
		defer wg.Done()
		_, rejectErr = env.Offers.Reject(ctx, agent, offerID)
	}()
	wg.Wait()

	if acceptErr == nil && rejectErr == nil {
		return fmt.Errorf("negotiator: offer %s both accepted and rejected", offerID)
	}
	for _, err := range []error{acceptErr, rejectErr} {
		if err != nil && !tolerable(err) && !errors.Is(err, apperr.ErrInvalidTransition) {
			return fmt.Errorf("negotiator: respond to %s: %w", offerID, err)
		}
	}
	return nil
}

// FraudMarker bans every rogue agent, retrying partial cascades, and checks
// that a banned agent can no longer publish.
func FraudMarker(ctx context.Context, env *Env, stop <-chan struct{}) error {
	pending := append([]auth.Identity(nil), env.Rogues...)
	for len(pending) > 0 && !stopped(ctx, stop) {
		pause(200, 300)
		rogue := pending[0]

		report, err := env.Cascade.MarkFraud(ctx, env.Admin, rogue.ID)
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("fraud marker: %w", err)
		}
		if !report.OK() {
			continue
		}

		banned, err := env.Identities.Get(ctx, rogue.ID)
		if err != nil {
			if tolerable(err) {
				continue
			}
			return fmt.Errorf("fraud marker: reload %s: %w", rogue.Email, err)
		}
		if banned.Role != access.RoleFraud {
			return fmt.Errorf("fraud marker: %s has role %s after cascade", banned.Email, banned.Role)
		}
		_, err = env.Listings.Create(ctx, banned.Principal(), property.CreateListingRequest{Title: "After ban", Location: "Nowhere"})
		if !errors.Is(err, apperr.ErrForbidden) && !tolerable(err) {
			return fmt.Errorf("fraud marker: banned %s could still publish: %v", banned.Email, err)
		}
		pending = pending[1:]
	}
	return nil
}
