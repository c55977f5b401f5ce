package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

const uniqueViolation = "23505"

const listingColumns = `id, donor_id, title, description, quantity, unit, category, expires_at,
        status, claimant_id, volunteer_id, version, created_at, updated_at`

type ListingRepo struct {
	db db.DB
}

func NewListingRepo(db db.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

func (r *ListingRepo) CreateTx(ctx context.Context, tx db.Tx, l *repository.Listing) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO listings (`+listingColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, l.ID, l.DonorID, l.Title, l.Description, l.Quantity, l.Unit, l.Category, l.ExpiresAt,
		l.Status, l.ClaimantID, l.VolunteerID, l.Version, l.CreatedAt, l.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

func (r *ListingRepo) GetByID(ctx context.Context, id string) (*repository.Listing, error) {
	var l repository.Listing
	err := r.db.Get(ctx, &l, "SELECT "+listingColumns+" FROM listings WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &l, nil
}

// GetByIDForUpdate locks the row until tx ends.
func (r *ListingRepo) GetByIDForUpdate(ctx context.Context, tx db.Tx, id string) (*repository.Listing, error) {
	var l repository.Listing
	err := tx.Get(ctx, &l, "SELECT "+listingColumns+" FROM listings WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &l, nil
}

// UpdateTx writes l only if the stored version still equals expectedVersion.
func (r *ListingRepo) UpdateTx(ctx context.Context, tx db.Tx, l *repository.Listing, expectedVersion int64) error {
	tag, err := tx.Exec(ctx, `
        UPDATE listings
        SET
            title = $1,
            description = $2,
            category = $3,
            expires_at = $4,
            status = $5,
            claimant_id = $6,
            volunteer_id = $7,
            version = $8,
            updated_at = $9
        WHERE id = $10 AND version = $11
    `, l.Title, l.Description, l.Category, l.ExpiresAt, l.Status, l.ClaimantID, l.VolunteerID,
		l.Version, l.UpdatedAt, l.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *ListingRepo) DeleteTx(ctx context.Context, tx db.Tx, id string) error {
	tag, err := tx.Exec(ctx, "DELETE FROM listings WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *ListingRepo) List(ctx context.Context, filter repository.ListingFilter) ([]*repository.Listing, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.DonorID != "" {
		args = append(args, filter.DonorID)
		conds = append(conds, fmt.Sprintf("donor_id = $%d", len(args)))
	}

	query := "SELECT " + listingColumns + " FROM listings"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY expires_at ASC, created_at ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var listings []*repository.Listing
	if err := r.db.Select(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

// ListExpirableIDs returns non-terminal listings whose expiry is not after now.
func (r *ListingRepo) ListExpirableIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.Select(ctx, &ids, `
        SELECT id FROM listings
        WHERE status IN ('available', 'claimed', 'picked-up') AND expires_at <= $1
        ORDER BY expires_at ASC
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable listings: %w", err)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
