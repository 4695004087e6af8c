package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// ErrEntryNotFound signals that the wishlist entry does not exist.
var ErrEntryNotFound = fmt.Errorf("wishlist: %w: entry not found", apperr.ErrNotFound)

// Entry is a listing snapshot saved by a buyer.
type Entry struct {
	ID         string
	BuyerEmail string
	PropertyID string
	Title      string
	Location   string
	ImageURL   string
	AgentName  string
	PriceMin   float64
	PriceMax   float64
	CreatedAt  time.Time
}

// Repository handles data access for wishlist entries.
type Repository interface {
	// Add inserts the entry unless the buyer already saved the listing, in
	// which case the stored entry is returned.
	Add(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]Entry, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed wishlist repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const entryColumns = `
	id, buyer_email, property_id, title, location, image_url, agent_name,
	price_min::float8, price_max::float8, created_at`

func (r *PGRepository) Add(ctx context.Context, e Entry) (Entry, error) {
	const insertSQL = `
		INSERT INTO wishlist (id, buyer_email, property_id, title, location, image_url, agent_name, price_min, price_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (buyer_email, property_id) DO NOTHING
		RETURNING ` + entryColumns

	out, err := scanEntry(r.pool.QueryRow(ctx, insertSQL,
		e.ID, e.BuyerEmail, e.PropertyID, e.Title, e.Location, e.ImageURL, e.AgentName, e.PriceMin, e.PriceMax))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, apperr.Store("wishlist: add", err)
	}

	const existingSQL = `SELECT ` + entryColumns + ` FROM wishlist WHERE buyer_email = $1 AND property_id = $2`
	out, err = scanEntry(r.pool.QueryRow(ctx, existingSQL, e.BuyerEmail, e.PropertyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Removed between the conflict and the read.
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, apperr.Store("wishlist: add fetch", err)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Entry, error) {
	out, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM wishlist WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, apperr.Store("wishlist: get", err)
	}
	return out, nil
}

func (r *PGRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entryColumns+` FROM wishlist WHERE buyer_email = $1 ORDER BY created_at DESC, id`, buyerEmail)
	if err != nil {
		return nil, apperr.Store("wishlist: list", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, 8)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperr.Store("wishlist: scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("wishlist: iterate", err)
	}
	return out, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wishlist WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("wishlist: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID,
		&e.BuyerEmail,
		&e.PropertyID,
		&e.Title,
		&e.Location,
		&e.ImageURL,
		&e.AgentName,
		&e.PriceMin,
		&e.PriceMax,
		&e.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}
