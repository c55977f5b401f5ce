package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

// DonationRepo stores request ledgers. Rows are only ever inserted; they go
// away with their request through ON DELETE CASCADE.
type DonationRepo struct{}

func NewDonationRepo() *DonationRepo {
	return &DonationRepo{}
}

func (r *DonationRepo) AppendTx(ctx context.Context, tx db.Tx, d *repository.Donation) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO donations (request_id, seq, donor_id, quantity, donated_at)
        VALUES ($1, $2, $3, $4, $5)
    `, d.RequestID, d.Seq, d.DonorID, d.Quantity, d.DonatedAt)
	if isUniqueViolation(err) {
		return repository.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to append donation: %w", err)
	}
	return nil
}

func (r *DonationRepo) ListByRequest(ctx context.Context, q db.Querier, requestID string) ([]*repository.Donation, error) {
	var donations []*repository.Donation
	err := q.Select(ctx, &donations, `
        SELECT request_id, seq, donor_id, quantity, donated_at
        FROM donations
        WHERE request_id = $1
        ORDER BY seq ASC
    `, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return donations, nil
}

// ListByRequests loads several ledgers in one round trip, keyed by request id.
func (r *DonationRepo) ListByRequests(ctx context.Context, q db.Querier, requestIDs []string) (map[string][]*repository.Donation, error) {
	out := make(map[string][]*repository.Donation, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}

	var donations []*repository.Donation
	err := q.Select(ctx, &donations, `
        SELECT request_id, seq, donor_id, quantity, donated_at
        FROM donations
        WHERE request_id = ANY($1)
        ORDER BY request_id ASC, seq ASC
    `, requestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	for _, d := range donations {
		out[d.RequestID] = append(out[d.RequestID], d)
	}
	return out, nil
}
