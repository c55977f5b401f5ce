package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// inTx runs fn in a fresh transaction, retrying the whole attempt while the
// failure is transient. Domain errors end the loop immediately.
func (g *Gateway) inTx(ctx context.Context, op string, fn func(tx db.Tx) error) error {
	return g.retry(ctx, op, g.db.BeginTx, fn)
}

// inReadTx runs fn in a read-only snapshot, so rows read by separate
// queries agree with each other.
func (g *Gateway) inReadTx(ctx context.Context, op string, fn func(tx db.Tx) error) error {
	return g.retry(ctx, op, g.db.BeginReadTx, fn)
}

func (g *Gateway) retry(ctx context.Context, op string, begin func(context.Context) (db.Tx, error), fn func(tx db.Tx) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = g.runTx(ctx, begin, fn); err == nil {
			return nil
		}
		if !isTransient(err) || attempt >= g.cfg.RetryAttempts {
			return err
		}

		metrics.TxRetriesTotal.WithLabelValues(op).Inc()
		g.logger.Warn("retrying transaction",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * g.cfg.RetryBackoff):
		}
	}
}

func (g *Gateway) runTx(ctx context.Context, begin func(context.Context) (db.Tx, error), fn func(tx db.Tx) error) (err error) {
	tx, err := begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			g.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isTransient(err error) bool {
	var de *domain.Error
	if errors.As(err, &de) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}

// translate maps persistence failures onto domain error kinds.
func translate(err error, entity, id string) error {
	var de *domain.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &de):
		return err
	case errors.Is(err, repository.ErrObjectNotFound):
		return domain.Errorf(domain.KindNotFound, "%s %s not found", entity, id)
	case errors.Is(err, repository.ErrVersionConflict):
		return domain.Errorf(domain.KindConflict, "%s %s was modified concurrently", entity, id)
	case errors.Is(err, repository.ErrAlreadyExists):
		return domain.Errorf(domain.KindConflict, "%s %s already exists", entity, id)
	default:
		return domain.Internal(err)
	}
}

// fail records a failed operation and returns err unchanged.
func (g *Gateway) fail(op string, err error) error {
	kind := domain.KindOf(err)
	metrics.OperationErrorsTotal.WithLabelValues(op, kind.String()).Inc()
	if kind == domain.KindInternal {
		g.logger.Error("operation failed",
			zap.String("operation", op),
			zap.Error(err),
			zap.NamedError("cause", errors.Unwrap(err)),
		)
	} else {
		g.logger.Debug("operation rejected", zap.String("operation", op), zap.Error(err))
	}
	return err
}
