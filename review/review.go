package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/srssieam/DreamDwell-server/access"
	"github.com/srssieam/DreamDwell-server/apperr"
	"github.com/srssieam/DreamDwell-server/property"
)

// ErrReviewNotFound signals that the review does not exist.
var ErrReviewNotFound = fmt.Errorf("review: %w: review not found", apperr.ErrNotFound)

// Review is a buyer's public comment on a listing.
type Review struct {
	ID            string
	PropertyID    string
	PropertyTitle string
	AgentName     string
	ReviewerName  string
	ReviewerEmail string
	ReviewerImage string
	Text          string
	CreatedAt     time.Time
}

// Filter narrows a review listing. Empty fields match everything.
type Filter struct {
	PropertyTitle string
	ReviewerEmail string
}

type CreateRequest struct {
	PropertyID    string `json:"propertyId"`
	ReviewerEmail string `json:"reviewerEmail"`
	ReviewerName  string `json:"reviewerName"`
	ReviewerImage string `json:"reviewerImage"`
	Text          string `json:"text"`
}

type Repository interface {
	Create(ctx context.Context, r Review) (Review, error)
	Get(ctx context.Context, id string) (Review, error)
	List(ctx context.Context, f Filter) ([]Review, error)
	Delete(ctx context.Context, id string) error
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const reviewColumns = `id, property_id, property_title, agent_name, reviewer_name, reviewer_email, reviewer_image, body, created_at`

func (r *PGRepository) Create(ctx context.Context, rv Review) (Review, error) {
	const insertSQL = `
		INSERT INTO reviews (id, property_id, property_title, agent_name, reviewer_name, reviewer_email, reviewer_image, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + reviewColumns

	out, err := scanReview(r.pool.QueryRow(ctx, insertSQL,
		rv.ID, rv.PropertyID, rv.PropertyTitle, rv.AgentName, rv.ReviewerName, rv.ReviewerEmail, rv.ReviewerImage, rv.Text))
	if err != nil {
		return Review{}, apperr.Store("review: create", err)
	}
	return out, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Review, error) {
	out, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Review{}, ErrReviewNotFound
		}
		return Review{}, apperr.Store("review: get", err)
	}
	return out, nil
}

// List returns matching reviews, newest first.
func (r *PGRepository) List(ctx context.Context, f Filter) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE TRUE`
	args := []any{}
	if f.PropertyTitle != "" {
		args = append(args, f.PropertyTitle)
		query += fmt.Sprintf(" AND property_title = $%d", len(args))
	}
	if f.ReviewerEmail != "" {
		args = append(args, f.ReviewerEmail)
		query += fmt.Sprintf(" AND reviewer_email = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store("review: list", err)
	}
	defer rows.Close()

	out := make([]Review, 0, 16)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, apperr.Store("review: scan", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("review: iterate", err)
	}
	return out, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("review: delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func scanReview(row pgx.Row) (Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.PropertyID, &rv.PropertyTitle, &rv.AgentName,
		&rv.ReviewerName, &rv.ReviewerEmail, &rv.ReviewerImage, &rv.Text, &rv.CreatedAt)
	if err != nil {
		return Review{}, err
	}
	return rv, nil
}

// Listings resolves a listing under the caller's visibility.
type Listings interface {
	Get(ctx context.Context, actor access.Principal, id string) (property.Listing, error)
}

type Service struct {
	repo     Repository
	listings Listings
	newID    func() string
}

func NewService(repo Repository, listings Listings) *Service {
	return &Service{repo: repo, listings: listings, newID: uuid.NewString}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	if gen != nil {
		s.newID = gen
	}
	return s
}

func (s *Service) List(ctx context.Context, f Filter) ([]Review, error) {
	f.PropertyTitle = strings.TrimSpace(f.PropertyTitle)
	f.ReviewerEmail = strings.ToLower(strings.TrimSpace(f.ReviewerEmail))
	return s.repo.List(ctx, f)
}

// Create posts a review authored by the caller on a visible listing.
func (s *Service) Create(ctx context.Context, actor access.Principal, req CreateRequest) (Review, error) {
	reviewer := strings.ToLower(strings.TrimSpace(req.ReviewerEmail))
	if reviewer == "" {
		reviewer = strings.ToLower(actor.Email)
	}
	if err := access.Authorize(actor, access.CreateOwnReview, reviewer).Err(); err != nil {
		return Review{}, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return Review{}, apperr.Invalid("text is required")
	}

	l, err := s.listings.Get(ctx, actor, req.PropertyID)
	if err != nil {
		return Review{}, err
	}
	return s.repo.Create(ctx, Review{
		ID:            s.newID(),
		PropertyID:    l.ID,
		PropertyTitle: l.Title,
		AgentName:     l.AgentName,
		ReviewerName:  req.ReviewerName,
		ReviewerEmail: reviewer,
		ReviewerImage: req.ReviewerImage,
		Text:          strings.TrimSpace(req.Text),
	})
}

// Delete removes a review for its author or an admin.
func (s *Service) Delete(ctx context.Context, actor access.Principal, id string) error {
	rv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.DeleteReview, rv.ReviewerEmail).Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
