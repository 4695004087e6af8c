package wishlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/property"
)

var (
	buyer = access.Principal{Email: "buyer@example.com", Role: access.RoleUser}
	other = access.Principal{Email: "other@example.com", Role: access.RoleUser}
	admin = access.Principal{Email: "root@example.com", Role: access.RoleAdmin}
)

func newTestService(repo *fakeRepository) *Service {
	counter := 0
	listings := fakeListings{
		"villa": {ID: "villa", Title: "Villa", Location: "Dhaka", AgentName: "Rahim", PriceMin: 10, PriceMax: 20, VerificationStatus: property.StatusVerified},
	}
	return NewService(repo, listings).WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("w-%d", counter)
	})
}

func TestService_AddIsIdempotentPerListing(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Add(ctx, buyer, AddRequest{BuyerEmail: buyer.Email, PropertyID: "villa"})
	if err != nil {
		t.Fatalf("add: unexpected error: %v", err)
	}
	if first.Title != "Villa" || first.AgentName != "Rahim" || first.PriceMax != 20 {
		t.Fatalf("expected listing snapshot, got %+v", first)
	}

	second, err := svc.Add(ctx, buyer, AddRequest{PropertyID: "villa"})
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if second.ID != first.ID || len(repo.entries) != 1 {
		t.Fatalf("expected existing entry %s, got %s (%d stored)", first.ID, second.ID, len(repo.entries))
	}

	if _, err := svc.Add(ctx, buyer, AddRequest{BuyerEmail: other.Email, PropertyID: "villa"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected adding to another wishlist forbidden, got %v", err)
	}
	if _, err := svc.Add(ctx, buyer, AddRequest{PropertyID: "ghost"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_OwnershipFailsClosed(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	e, _ := svc.Add(ctx, buyer, AddRequest{PropertyID: "villa"})

	if _, err := svc.List(ctx, other, buyer.Email); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.List(ctx, admin, buyer.Email); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected admin forbidden on another wishlist, got %v", err)
	}
	if _, err := svc.Get(ctx, other, e.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Remove(ctx, other, e.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	entries, err := svc.List(ctx, buyer, "BUYER@example.com")
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d (%v)", len(entries), err)
	}
	if err := svc.Remove(ctx, buyer, e.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.Get(ctx, buyer, e.ID); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

type fakeListings map[string]property.Listing

func (f fakeListings) Get(ctx context.Context, actor access.Principal, id string) (property.Listing, error) {
	l, ok := f[id]
	if !ok {
		return property.Listing{}, property.ErrListingNotFound
	}
	return l, nil
}

type fakeRepository struct {
	entries map[string]Entry
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{entries: make(map[string]Entry)}
}

func (f *fakeRepository) Add(ctx context.Context, e Entry) (Entry, error) {
	for _, existing := range f.entries {
		if existing.BuyerEmail == e.BuyerEmail && existing.PropertyID == e.PropertyID {
			return existing, nil
		}
	}
	f.entries[e.ID] = e
	return e, nil
}

func (f *fakeRepository) Get(ctx context.Context, id string) (Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (f *fakeRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]Entry, error) {
	var out []Entry
	for _, e := range f.entries {
		if e.BuyerEmail == buyerEmail {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	if _, ok := f.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(f.entries, id)
	return nil
}
