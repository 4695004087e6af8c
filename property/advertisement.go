package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/srssieam/DreamDwell-server/apperr"
)

var (
	// ErrAdvertisementNotFound signals that the advertisement does not exist.
	ErrAdvertisementNotFound = fmt.Errorf("property: %w: advertisement not found", apperr.ErrNotFound)
	// ErrNotAdvertisable signals an attempt to promote a listing that is not verified.
	ErrNotAdvertisable = fmt.Errorf("property: %w: only verified listings can be advertised", apperr.ErrInvalid)
)

// AdRepository handles data access for advertisements.
type AdRepository interface {
	CreateAd(ctx context.Context, ad Advertisement) (Advertisement, error)
	GetAd(ctx context.Context, id string) (Advertisement, error)
	// ListAds returns only advertisements whose listing is verified.
	ListAds(ctx context.Context) ([]Advertisement, error)
	DeleteAd(ctx context.Context, id string) error
	DeleteAdsByAgent(ctx context.Context, agentEmail string) (int64, error)
	DeleteAdsByProperty(ctx context.Context, propertyID string) (int64, error)
}

const adColumns = `id, property_id, agent_email, title, image_url, created_at`

func (r *PGRepository) CreateAd(ctx context.Context, ad Advertisement) (Advertisement, error) {
	const insertSQL = `
		INSERT INTO advertisements (id, property_id, agent_email, title, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + adColumns

	out, err := scanAd(r.pool.QueryRow(ctx, insertSQL, ad.ID, ad.PropertyID, ad.AgentEmail, ad.Title, ad.ImageURL))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Advertisement{}, ErrListingNotFound
		}
		return Advertisement{}, apperr.Store("property: create advertisement", err)
	}
	return out, nil
}

func (r *PGRepository) GetAd(ctx context.Context, id string) (Advertisement, error) {
	out, err := scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM advertisements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Advertisement{}, ErrAdvertisementNotFound
		}
		return Advertisement{}, apperr.Store("property: get advertisement", err)
	}
	return out, nil
}

func (r *PGRepository) ListAds(ctx context.Context) ([]Advertisement, error) {
	const listSQL = `
		SELECT a.id, a.property_id, a.agent_email, a.title, a.image_url, a.created_at
		FROM advertisements a
		JOIN properties p ON p.id = a.property_id
		WHERE p.verification_status = 'verified'
		ORDER BY a.created_at DESC, a.id`

	rows, err := r.pool.Query(ctx, listSQL)
	if err != nil {
		return nil, apperr.Store("property: list advertisements", err)
	}
	defer rows.Close()

	out := make([]Advertisement, 0, 8)
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, apperr.Store("property: scan advertisement", err)
		}
		out = append(out, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("property: iterate advertisements", err)
	}
	return out, nil
}

func (r *PGRepository) DeleteAd(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("property: delete advertisement", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAdvertisementNotFound
	}
	return nil
}

func (r *PGRepository) DeleteAdsByAgent(ctx context.Context, agentEmail string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE agent_email = $1`, agentEmail)
	if err != nil {
		return 0, apperr.Store("property: delete advertisements by agent", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) DeleteAdsByProperty(ctx context.Context, propertyID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM advertisements WHERE property_id = $1`, propertyID)
	if err != nil {
		return 0, apperr.Store("property: delete advertisements by listing", err)
	}
	return tag.RowsAffected(), nil
}

func scanAd(row pgx.Row) (Advertisement, error) {
	var ad Advertisement
	if err := row.Scan(&ad.ID, &ad.PropertyID, &ad.AgentEmail, &ad.Title, &ad.ImageURL, &ad.CreatedAt); err != nil {
		return Advertisement{}, err
	}
	return ad, nil
}
