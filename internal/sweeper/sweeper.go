package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

const defaultBatchSize = 100

type Expirer interface {
	ExpirableListings(ctx context.Context, limit int) ([]string, error)
	ExpireListing(ctx context.Context, id string) (*domain.Listing, error)
}

// Sweeper periodically expires listings whose expiry time has passed.
type Sweeper struct {
	expirer   Expirer
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
}

func New(expirer Expirer, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		expirer:   expirer,
		interval:  interval,
		batchSize: defaultBatchSize,
		logger:    logger.With(zap.String("component", "expiry_sweeper")),
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("starting expiry sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// SweepOnce expires every due listing, one batch at a time, and returns how
// many were expired. A listing that changed since it was selected is skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired := 0
	for {
		ids, err := s.expirer.ExpirableListings(ctx, s.batchSize)
		if err != nil {
			return expired, err
		}

		progress := 0
		for _, id := range ids {
			if ctx.Err() != nil {
				return expired, ctx.Err()
			}
			if _, err := s.expirer.ExpireListing(ctx, id); err != nil {
				s.logSkip(id, err)
				continue
			}
			progress++
		}
		expired += progress

		if len(ids) < s.batchSize || progress == 0 {
			break
		}
	}

	if expired > 0 {
		s.logger.Info("expired listings", zap.Int("count", expired))
	}
	return expired, nil
}

func (s *Sweeper) logSkip(id string, err error) {
	switch domain.KindOf(err) {
	case domain.KindInvalidState, domain.KindInvalidTransition, domain.KindNotFound, domain.KindConflict:
		s.logger.Debug("listing skipped", zap.String("listing_id", id), zap.Error(err))
	default:
		s.logger.Error("failed to expire listing", zap.String("listing_id", id), zap.Error(err))
	}
}
