package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srssieam/DreamDwell-server/apperr"
)

// ErrListingNotFound signals that the listing does not exist.
var ErrListingNotFound = fmt.Errorf("property: %w: listing not found", apperr.ErrNotFound)

// Repository handles data access for listings.
type Repository interface {
	Create(ctx context.Context, l Listing) (Listing, error)
	Get(ctx context.Context, id string) (Listing, error)
	List(ctx context.Context, q Query) ([]Listing, error)
	Update(ctx context.Context, l Listing) (Listing, error)
	Delete(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status Status) (Listing, error)
	SetPhoto(ctx context.Context, id, fileID string) (Listing, error)
	DeleteByAgent(ctx context.Context, agentEmail string) (int64, error)
}

// Query narrows a listing scan. Zero value returns every listing.
type Query struct {
	// VerifiedOnly restricts to publicly visible listings.
	VerifiedOnly bool
	// AlsoAgent widens VerifiedOnly with every listing of this agent.
	AlsoAgent string
	// Agent restricts to listings created by this agent.
	Agent string
	// Search is a case-insensitive title substring.
	Search string
}

// PGRepository implements Repository and AdRepository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed listing repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const listingColumns = `
	id, agent_email, agent_name, agent_image, title, location, image_url, description,
	price_min::float8, price_max::float8, verification_status, photo_file_id, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, l Listing) (Listing, error) {
	const insertSQL = `
		INSERT INTO properties (
			id, agent_email, agent_name, agent_image, title, location, image_url,
			description, price_min, price_max, verification_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + listingColumns

	out, err := scanListing(r.pool.QueryRow(ctx, insertSQL,
		l.ID, l.AgentEmail, l.AgentName, l.AgentImage, l.Title, l.Location, l.ImageURL,
		l.Description, l.PriceMin, l.PriceMax, l.VerificationStatus,
	))
	if err != nil {
		return Listing{}, apperr.Store("property: create", err)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Listing, error) {
	const selectSQL = `SELECT ` + listingColumns + ` FROM properties WHERE id = $1`

	out, err := scanListing(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrListingNotFound
		}
		return Listing{}, apperr.Store("property: get", err)
	}
	return out, nil
}

func (r *PGRepository) List(ctx context.Context, q Query) ([]Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM properties WHERE TRUE`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case q.VerifiedOnly && q.AlsoAgent != "":
		query += " AND (verification_status = 'verified' OR agent_email = " + arg(q.AlsoAgent) + ")"
	case q.VerifiedOnly:
		query += " AND verification_status = 'verified'"
	}
	if q.Agent != "" {
		query += " AND agent_email = " + arg(q.Agent)
	}
	if q.Search != "" {
		query += " AND position(lower(" + arg(q.Search) + ") in lower(title)) > 0"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("property: list", err)
	}
	defer rows.Close()

	out := make([]Listing, 0, 16)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, apperr.Store("property: scan", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("property: iterate", err)
	}
	return out, nil
}

// Update writes descriptive fields only; status and ownership are untouched.
func (r *PGRepository) Update(ctx context.Context, l Listing) (Listing, error) {
	const updateSQL = `
		UPDATE properties
		SET title = $2, location = $3, image_url = $4, description = $5,
		    price_min = $6, price_max = $7, updated_at = now()
		WHERE id = $1
		RETURNING ` + listingColumns

	out, err := scanListing(r.pool.QueryRow(ctx, updateSQL,
		l.ID, l.Title, l.Location, l.ImageURL, l.Description, l.PriceMin, l.PriceMax))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrListingNotFound
		}
		return Listing{}, apperr.Store("property: update", err)
	}
	return out, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("property: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

// SetStatus writes the absolute status value in a single-row update.
func (r *PGRepository) SetStatus(ctx context.Context, id string, status Status) (Listing, error) {
	const updateSQL = `
		UPDATE properties
		SET verification_status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + listingColumns

	out, err := scanListing(r.pool.QueryRow(ctx, updateSQL, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrListingNotFound
		}
		return Listing{}, apperr.Store("property: set status", err)
	}
	return out, nil
}

func (r *PGRepository) SetPhoto(ctx context.Context, id, fileID string) (Listing, error) {
	const updateSQL = `
		UPDATE properties
		SET photo_file_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + listingColumns

	out, err := scanListing(r.pool.QueryRow(ctx, updateSQL, id, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Listing{}, ErrListingNotFound
		}
		return Listing{}, apperr.Store("property: set photo", err)
	}
	return out, nil
}

func (r *PGRepository) DeleteByAgent(ctx context.Context, agentEmail string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE agent_email = $1`, agentEmail)
	if err != nil {
		return 0, apperr.Store("property: delete by agent", err)
	}
	return tag.RowsAffected(), nil
}

func scanListing(row pgx.Row) (Listing, error) {
	var (
		l      Listing
		status string
	)
	err := row.Scan(
		&l.ID,
		&l.AgentEmail,
		&l.AgentName,
		&l.AgentImage,
		&l.Title,
		&l.Location,
		&l.ImageURL,
		&l.Description,
		&l.PriceMin,
		&l.PriceMax,
		&status,
		&l.PhotoFileID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return Listing{}, err
	}
	l.VerificationStatus = Status(status)
	return l, nil
}
