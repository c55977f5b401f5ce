//go:generate mockgen -source ./outbox_sink.go -destination=./mocks/outbox_sink.go -package=mock_kafka
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasks(ctx context.Context, q db.Querier, limit, maxAttempts int, staleBefore time.Time) ([]*repository.OutboxTask, error)
	UpdateTaskStatus(ctx context.Context, q db.Querier, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}

// OutboxSink persists notification batches as outbox tasks, one transaction
// per batch. The Publisher later forwards them to the broker.
type OutboxSink struct {
	db    db.DB
	repo  OutboxTaskRepository
	topic string
}

func NewOutboxSink(db db.DB, repo OutboxTaskRepository, topic string) *OutboxSink {
	return &OutboxSink{db: db, repo: repo, topic: topic}
}

func (s *OutboxSink) Deliver(ctx context.Context, events []notify.Event) (err error) {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rbErr)
		}
	}()

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event for %s %s: %w", ev.EntityType, ev.EntityID, err)
		}
		task := &repository.OutboxTask{
			Payload: payload,
			Topic:   s.topic,
			Key:     ev.EntityID,
		}
		if err := s.repo.CreateTx(ctx, tx, task); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit outbox transaction: %w", err)
	}
	return nil
}
