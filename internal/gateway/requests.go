package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

func (g *Gateway) CreateRequest(ctx context.Context, actor domain.Actor, in domain.RequestInput) (*domain.CharityRequest, error) {
	const op = "create_request"

	req, err := domain.NewCharityRequest(actor, in, g.now())
	if err != nil {
		return nil, g.fail(op, err)
	}

	err = g.inTx(ctx, op, func(tx db.Tx) error {
		return g.requests.CreateTx(ctx, tx, requestToRow(req))
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "request", req.ID))
	}

	metrics.RequestsCreatedTotal.Inc()
	g.emit(notify.EntityRequest, req.ID, string(req.Status()))
	return req, nil
}

func (g *Gateway) GetRequest(ctx context.Context, id string) (*domain.CharityRequest, error) {
	const op = "get_request"

	var req *domain.CharityRequest
	err := g.inReadTx(ctx, op, func(tx db.Tx) error {
		row, err := g.requests.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		donations, err := g.donations.ListByRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		req, err = g.loadRequest(row, donations)
		return err
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "request", id))
	}
	return req, nil
}

// ListRequests reads the rows and their ledgers from one snapshot, so the
// status filter matches the status derived from each ledger.
func (g *Gateway) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.CharityRequest, error) {
	const op = "list_requests"

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, g.fail(op, domain.Errorf(domain.KindInvalidArgument, "unknown request status %q", filter.Status))
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, g.fail(op, domain.Errorf(domain.KindInvalidArgument, "unknown category %q", filter.Category))
	}

	var requests []*domain.CharityRequest
	err := g.inReadTx(ctx, op, func(tx db.Tx) error {
		rows, err := g.requests.List(ctx, tx, repository.RequestFilter{
			Status:    string(filter.Status),
			Category:  string(filter.Category),
			CharityID: filter.CharityID,
			Limit:     g.listLimit,
		})
		if err != nil {
			return err
		}

		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		ledgers, err := g.donations.ListByRequests(ctx, tx, ids)
		if err != nil {
			return err
		}

		requests = make([]*domain.CharityRequest, 0, len(rows))
		for _, row := range rows {
			req, err := g.loadRequest(row, ledgers[row.ID])
			if err != nil {
				return err
			}
			requests = append(requests, req)
		}
		return nil
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "request", ""))
	}
	return requests, nil
}

// Donate appends one ledger entry and stores the recomputed total in the
// same transaction.
func (g *Gateway) Donate(ctx context.Context, actor domain.Actor, id string, quantity decimal.Decimal) (*domain.CharityRequest, domain.Donation, error) {
	const op = "donate"

	var donation domain.Donation
	req, err := g.mutateRequest(ctx, op, id, func(tx db.Tx, req *domain.CharityRequest, now time.Time) error {
		var err error
		donation, err = req.Donate(actor, quantity, now, g.cfg.Policy)
		if err != nil {
			return err
		}
		return g.donations.AppendTx(ctx, tx, donationToRow(req.ID, donation))
	})
	if err != nil {
		return nil, domain.Donation{}, err
	}

	metrics.DonationsTotal.Inc()
	return req, donation, nil
}

func (g *Gateway) EditRequest(ctx context.Context, actor domain.Actor, id string, patch domain.RequestPatch) (*domain.CharityRequest, error) {
	return g.mutateRequest(ctx, "edit_request", id, func(_ db.Tx, req *domain.CharityRequest, now time.Time) error {
		return req.Edit(patch, actor, now, g.cfg.Policy)
	})
}

func (g *Gateway) DeleteRequest(ctx context.Context, actor domain.Actor, id string) error {
	const op = "delete_request"

	err := g.inTx(ctx, op, func(tx db.Tx) error {
		req, err := g.lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := req.CanDelete(actor, g.cfg.Policy); err != nil {
			return err
		}
		return g.requests.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return g.fail(op, translate(err, "request", id))
	}

	g.emit(notify.EntityRequest, id, notify.StatusDeleted)
	return nil
}

func (g *Gateway) mutateRequest(
	ctx context.Context,
	op, id string,
	mutate func(tx db.Tx, req *domain.CharityRequest, now time.Time) error,
) (*domain.CharityRequest, error) {
	var out *domain.CharityRequest
	err := g.inTx(ctx, op, func(tx db.Tx) error {
		req, err := g.lockRequest(ctx, tx, id)
		if err != nil {
			return err
		}

		expected := req.Version
		if err := mutate(tx, req, g.now()); err != nil {
			return err
		}
		req.Version = expected + 1

		if err := g.requests.UpdateTx(ctx, tx, requestToRow(req), expected); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "request", id))
	}

	g.emit(notify.EntityRequest, out.ID, string(out.Status()))
	return out, nil
}

// lockRequest locks the request row and replays its ledger inside tx.
func (g *Gateway) lockRequest(ctx context.Context, tx db.Tx, id string) (*domain.CharityRequest, error) {
	row, err := g.requests.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	donations, err := g.donations.ListByRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return g.loadRequest(row, donations)
}

func (g *Gateway) loadRequest(row *repository.CharityRequest, donations []*repository.Donation) (*domain.CharityRequest, error) {
	req, err := requestFromRow(row, donations)
	if err != nil {
		return nil, err
	}
	if !row.QuantityFulfilled.Equal(req.QuantityFulfilled()) {
		g.logger.Warn("stored fulfilled quantity differs from ledger",
			zap.String("request_id", row.ID),
			zap.Stringer("stored", row.QuantityFulfilled),
			zap.Stringer("ledger", req.QuantityFulfilled()),
		)
	}
	return req, nil
}
