package property

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/srssieam/DreamDwell-server/test/infra"
)

func TestListAndPurge_Integration(t *testing.T) {
	pool := infra.OpenTestPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := NewRepository(pool)
	create := func(agent, title string, status Status) Listing {
		l, err := repo.Create(ctx, Listing{
			ID:                 uuid.NewString(),
			AgentEmail:         agent,
			Title:              title,
			Location:           "Dhaka",
			PriceMin:           100,
			PriceMax:           250.75,
			VerificationStatus: status,
		})
		if err != nil {
			t.Fatalf("seed %s: %v", title, err)
		}
		return l
	}

	lake := create("nila@example.com", "Lake House", StatusVerified)
	create("nila@example.com", "Hill Cabin", StatusPending)
	create("omar@example.com", "Lakeside Flat", StatusVerified)
	create("omar@example.com", "River Loft", StatusRejected)

	public, err := repo.List(ctx, Query{VerifiedOnly: true})
	if err != nil {
		t.Fatalf("list verified: %v", err)
	}
	if len(public) != 2 {
		t.Fatalf("expected 2 verified listings, got %d", len(public))
	}

	withOwn, err := repo.List(ctx, Query{VerifiedOnly: true, AlsoAgent: "nila@example.com"})
	if err != nil {
		t.Fatalf("list with own: %v", err)
	}
	if len(withOwn) != 3 {
		t.Fatalf("expected 3 listings visible to nila, got %d", len(withOwn))
	}

	found, err := repo.List(ctx, Query{VerifiedOnly: true, Search: "LAKE"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches for LAKE, got %d", len(found))
	}

	got, err := repo.Get(ctx, lake.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PriceMax != 250.75 {
		t.Fatalf("expected price max 250.75, got %v", got.PriceMax)
	}

	if _, err := repo.CreateAd(ctx, Advertisement{ID: uuid.NewString(), PropertyID: lake.ID, AgentEmail: lake.AgentEmail, Title: lake.Title}); err != nil {
		t.Fatalf("create ad: %v", err)
	}

	ads, err := repo.DeleteAdsByAgent(ctx, "nila@example.com")
	if err != nil || ads != 1 {
		t.Fatalf("expected 1 ad purged, got %d (%v)", ads, err)
	}
	n, err := repo.DeleteByAgent(ctx, "nila@example.com")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 listings purged, got %d (%v)", n, err)
	}
	if _, err := repo.Get(ctx, lake.ID); err != ErrListingNotFound {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, lake.ID); err != ErrListingNotFound {
		t.Fatalf("expected ErrListingNotFound on repeat delete, got %v", err)
	}
}

func TestAdvertisementVisibility_Integration(t *testing.T) {
	pool := infra.OpenTestPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo := NewRepository(pool)
	advertised := func(title string) Listing {
		l, err := repo.Create(ctx, Listing{ID: uuid.NewString(), AgentEmail: "rina@example.com", Title: title, VerificationStatus: StatusVerified})
		if err != nil {
			t.Fatalf("seed %s: %v", title, err)
		}
		if _, err := repo.CreateAd(ctx, Advertisement{ID: uuid.NewString(), PropertyID: l.ID, AgentEmail: l.AgentEmail, Title: title}); err != nil {
			t.Fatalf("advertise %s: %v", title, err)
		}
		return l
	}
	secret := advertised("Secret Villa")
	gone := advertised("Sold Cottage")
	kept := advertised("Harbour Flat")

	if _, err := repo.SetStatus(ctx, secret.ID, StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := repo.Delete(ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ads, err := repo.ListAds(ctx)
	if err != nil {
		t.Fatalf("list ads: %v", err)
	}
	if len(ads) != 1 || ads[0].PropertyID != kept.ID {
		t.Fatalf("expected only the %s ad, got %+v", kept.ID, ads)
	}

	var orphans int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM advertisements WHERE property_id = $1`, gone.ID).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected deleting a listing to drop its ads, %d left", orphans)
	}

	if _, err := repo.CreateAd(ctx, Advertisement{ID: uuid.NewString(), PropertyID: gone.ID, AgentEmail: "rina@example.com"}); err != ErrListingNotFound {
		t.Fatalf("expected ErrListingNotFound advertising a deleted listing, got %v", err)
	}
}
