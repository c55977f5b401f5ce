package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

const requestColumns = `id, charity_id, title, description, category, unit, quantity_requested,
        quantity_fulfilled, status, version, created_at, updated_at`

// RequestRepo reads through the caller's querier so a request row and its
// ledger can come from one snapshot.
type RequestRepo struct{}

func NewRequestRepo() *RequestRepo {
	return &RequestRepo{}
}

func (r *RequestRepo) CreateTx(ctx context.Context, tx db.Tx, req *repository.CharityRequest) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO charity_requests (`+requestColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, req.ID, req.CharityID, req.Title, req.Description, req.Category, req.Unit, req.QuantityRequested,
		req.QuantityFulfilled, req.Status, req.Version, req.CreatedAt, req.UpdatedAt)
	if isUniqueViolation(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

func (r *RequestRepo) GetByID(ctx context.Context, q db.Querier, id string) (*repository.CharityRequest, error) {
	var req repository.CharityRequest
	err := q.Get(ctx, &req, "SELECT "+requestColumns+" FROM charity_requests WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) GetByIDForUpdate(ctx context.Context, tx db.Tx, id string) (*repository.CharityRequest, error) {
	var req repository.CharityRequest
	err := tx.Get(ctx, &req, "SELECT "+requestColumns+" FROM charity_requests WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateTx writes the mutable columns, including the fulfilled quantity that
// is kept in lockstep with the donations appended in the same transaction.
func (r *RequestRepo) UpdateTx(ctx context.Context, tx db.Tx, req *repository.CharityRequest, expectedVersion int64) error {
	tag, err := tx.Exec(ctx, `
        UPDATE charity_requests
        SET
            title = $1,
            description = $2,
            category = $3,
            unit = $4,
            quantity_fulfilled = $5,
            status = $6,
            version = $7,
            updated_at = $8
        WHERE id = $9 AND version = $10
    `, req.Title, req.Description, req.Category, req.Unit, req.QuantityFulfilled, req.Status,
		req.Version, req.UpdatedAt, req.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}

func (r *RequestRepo) DeleteTx(ctx context.Context, tx db.Tx, id string) error {
	tag, err := tx.Exec(ctx, "DELETE FROM charity_requests WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *RequestRepo) List(ctx context.Context, q db.Querier, filter repository.RequestFilter) ([]*repository.CharityRequest, error) {
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
	if filter.CharityID != "" {
		args = append(args, filter.CharityID)
		conds = append(conds, fmt.Sprintf("charity_id = $%d", len(args)))
	}

	query := "SELECT " + requestColumns + " FROM charity_requests"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var requests []*repository.CharityRequest
	if err := q.Select(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list charity requests: %w", err)
	}
	return requests, nil
}
