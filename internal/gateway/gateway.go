package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

const defaultListLimit = 500

type ListingRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, l *repository.Listing) error
	GetByID(ctx context.Context, id string) (*repository.Listing, error)
	GetByIDForUpdate(ctx context.Context, tx db.Tx, id string) (*repository.Listing, error)
	UpdateTx(ctx context.Context, tx db.Tx, l *repository.Listing, expectedVersion int64) error
	DeleteTx(ctx context.Context, tx db.Tx, id string) error
	List(ctx context.Context, filter repository.ListingFilter) ([]*repository.Listing, error)
	ListExpirableIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type RequestRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, req *repository.CharityRequest) error
	GetByID(ctx context.Context, q db.Querier, id string) (*repository.CharityRequest, error)
	GetByIDForUpdate(ctx context.Context, tx db.Tx, id string) (*repository.CharityRequest, error)
	UpdateTx(ctx context.Context, tx db.Tx, req *repository.CharityRequest, expectedVersion int64) error
	DeleteTx(ctx context.Context, tx db.Tx, id string) error
	List(ctx context.Context, q db.Querier, filter repository.RequestFilter) ([]*repository.CharityRequest, error)
}

type DonationRepository interface {
	AppendTx(ctx context.Context, tx db.Tx, d *repository.Donation) error
	ListByRequest(ctx context.Context, q db.Querier, requestID string) ([]*repository.Donation, error)
	ListByRequests(ctx context.Context, q db.Querier, requestIDs []string) (map[string][]*repository.Donation, error)
}

// Notifier must not block: it is called after commit on the request path.
type Notifier interface {
	Notify(ev notify.Event)
}

// ListingCache holds the listings that are currently open for claiming.
type ListingCache interface {
	Set(l *domain.Listing)
	Delete(id string)
	Open(category domain.Category) ([]*domain.Listing, bool)
	Load(listings []*domain.Listing)
}

type Config struct {
	RetryAttempts int
	RetryBackoff  time.Duration
	Policy        domain.Policy
}

// Gateway runs every operation as one load-mutate-persist transaction and
// reports failures as domain error kinds.
type Gateway struct {
	db        db.DB
	listings  ListingRepository
	requests  RequestRepository
	donations DonationRepository
	cache     ListingCache
	notifier  Notifier
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
	listLimit int
}

func New(
	database db.DB,
	listings ListingRepository,
	requests RequestRepository,
	donations DonationRepository,
	cache ListingCache,
	notifier Notifier,
	cfg Config,
	logger *zap.Logger,
) *Gateway {
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &Gateway{
		db:        database,
		listings:  listings,
		requests:  requests,
		donations: donations,
		cache:     cache,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "gateway")),
		now:       func() time.Time { return time.Now().UTC() },
		listLimit: defaultListLimit,
	}
}

func (g *Gateway) Policy() domain.Policy {
	return g.cfg.Policy
}

func (g *Gateway) emit(entityType, id, status string) {
	g.notifier.Notify(notify.Event{
		EntityType: entityType,
		EntityID:   id,
		Status:     status,
		OccurredAt: g.now(),
	})
}
