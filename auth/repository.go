package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
)

// ErrIdentityNotFound signals that the identity does not exist.
var ErrIdentityNotFound = fmt.Errorf("auth: %w: identity not found", apperr.ErrNotFound)

// Repository handles data access for identities.
type Repository interface {
	// CreateIfAbsent inserts the identity unless its email already exists.
	// created reports whether a row was written.
	CreateIfAbsent(ctx context.Context, params CreateIdentityParams) (Identity, bool, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)
	GetByID(ctx context.Context, id string) (Identity, error)
	List(ctx context.Context) ([]Identity, error)
	UpdateRole(ctx context.Context, id string, role access.Role) (Identity, error)
	Delete(ctx context.Context, id string) error
}

// CreateIdentityParams contains write parameters for creating identities.
type CreateIdentityParams struct {
	ID       string
	Email    string
	Name     string
	PhotoURL string
	Role     access.Role
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed identity repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const identityColumns = `id, email, name, photo_url, role, created_at, updated_at`

// CreateIfAbsent relies on the unique email index, so concurrent registrations
// of one email converge on a single row.
func (r *PGRepository) CreateIfAbsent(ctx context.Context, params CreateIdentityParams) (Identity, bool, error) {
	const insertSQL = `
		INSERT INTO users (id, email, name, photo_url, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + identityColumns

	identity, err := scanIdentity(r.pool.QueryRow(ctx, insertSQL,
		params.ID, params.Email, params.Name, params.PhotoURL, params.Role))
	if err == nil {
		return identity, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, false, apperr.Store("auth: create identity", err)
	}

	existing, err := r.GetByEmail(ctx, params.Email)
	if err != nil {
		return Identity{}, false, err
	}
	return existing, false, nil
}

// GetByEmail retrieves an identity by its normalized email.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (Identity, error) {
	const selectSQL = `SELECT ` + identityColumns + ` FROM users WHERE email = $1`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, apperr.Store("auth: get identity by email", err)
	}
	return identity, nil
}

// GetByID retrieves an identity by id.
func (r *PGRepository) GetByID(ctx context.Context, id string) (Identity, error) {
	const selectSQL = `SELECT ` + identityColumns + ` FROM users WHERE id = $1`

	identity, err := scanIdentity(r.pool.QueryRow(ctx, selectSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, apperr.Store("auth: get identity by id", err)
	}
	return identity, nil
}

// List returns every identity, oldest first.
func (r *PGRepository) List(ctx context.Context) ([]Identity, error) {
	const selectSQL = `SELECT ` + identityColumns + ` FROM users ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, selectSQL)
	if err != nil {
		return nil, apperr.Store("auth: list identities", err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, apperr.Store("auth: scan identity", err)
		}
		out = append(out, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("auth: list identities", err)
	}
	return out, nil
}

// UpdateRole sets the role column to an absolute value.
func (r *PGRepository) UpdateRole(ctx context.Context, id string, role access.Role) (Identity, error) {
	const updateSQL = `
		UPDATE users
		SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + identityColumns

	identity, err := scanIdentity(r.pool.QueryRow(ctx, updateSQL, id, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, apperr.Store("auth: update role", err)
	}
	return identity, nil
}

// Delete removes an identity row.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("auth: delete identity", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var (
		identity Identity
		role     string
	)
	err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.Name,
		&identity.PhotoURL,
		&role,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if err != nil {
		return Identity{}, err
	}
	identity.Role = access.Role(role)
	return identity, nil
}
