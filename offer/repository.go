package offer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srssieam/DreamDwell-server/apperr"
)

var (
	// ErrOfferNotFound signals that the offer does not exist.
	ErrOfferNotFound = fmt.Errorf("offer: %w: offer not found", apperr.ErrNotFound)
	// ErrTransactionReused signals a payment that already settles another offer.
	ErrTransactionReused = fmt.Errorf("offer: %w: payment already settles another offer", apperr.ErrConflict)
)

// Repository handles data access for offers.
type Repository interface {
	Create(ctx context.Context, o Offer) (Offer, error)
	Get(ctx context.Context, id string) (Offer, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]Offer, error)
	ListByAgent(ctx context.Context, agentEmail string) ([]Offer, error)
	// Transition moves the offer to next only if its current status is one
	// of from. When nothing matched it returns the current row and applied
	// is false. A transactionID already stored on another offer fails with
	// ErrTransactionReused.
	Transition(ctx context.Context, id string, from []Status, next Status, transactionID string) (o Offer, applied bool, err error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed offer repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const offerColumns = `
	id, property_id, property_title, buyer_email, buyer_name, agent_email,
	amount::float8, status, transaction_id, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, o Offer) (Offer, error) {
	const insertSQL = `
		INSERT INTO offers (id, property_id, property_title, buyer_email, buyer_name, agent_email, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + offerColumns

	out, err := scanOffer(r.pool.QueryRow(ctx, insertSQL,
		o.ID, o.PropertyID, o.PropertyTitle, o.BuyerEmail, o.BuyerName, o.AgentEmail, o.Amount, o.Status))
	if err != nil {
		return Offer{}, apperr.Store("offer: create", err)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Offer, error) {
	out, err := scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, ErrOfferNotFound
		}
		return Offer{}, apperr.Store("offer: get", err)
	}
	return out, nil
}

func (r *PGRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE buyer_email = $1 ORDER BY created_at DESC, id`, buyerEmail)
}

func (r *PGRepository) ListByAgent(ctx context.Context, agentEmail string) ([]Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE agent_email = $1 ORDER BY created_at DESC, id`, agentEmail)
}

func (r *PGRepository) list(ctx context.Context, query string, args ...any) ([]Offer, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("offer: list", err)
	}
	defer rows.Close()

	out := make([]Offer, 0, 8)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, apperr.Store("offer: scan", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("offer: iterate", err)
	}
	return out, nil
}

func (r *PGRepository) Transition(ctx context.Context, id string, from []Status, next Status, transactionID string) (Offer, bool, error) {
	const updateSQL = `
		UPDATE offers
		SET status = $2,
		    transaction_id = CASE WHEN $3 = '' THEN transaction_id ELSE $3 END,
		    updated_at = now()
		WHERE id = $1 AND status = ANY($4)
		RETURNING ` + offerColumns

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	out, err := scanOffer(r.pool.QueryRow(ctx, updateSQL, id, next, transactionID, allowed))
	if err == nil {
		return out, true, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Offer{}, false, ErrTransactionReused
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, false, apperr.Store("offer: transition", err)
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		return Offer{}, false, err
	}
	return current, false, nil
}

func scanOffer(row pgx.Row) (Offer, error) {
	var (
		o      Offer
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.PropertyID,
		&o.PropertyTitle,
		&o.BuyerEmail,
		&o.BuyerName,
		&o.AgentEmail,
		&o.Amount,
		&status,
		&o.TransactionID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return Offer{}, err
	}
	o.Status = Status(status)
	return o, nil
}
