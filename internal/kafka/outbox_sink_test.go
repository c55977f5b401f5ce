package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/kafka"
	mock_kafka "gitlab.ozon.dev/pupkingeorgij/foodshare/internal/kafka/mocks"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

func TestOutboxSink_Deliver(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []notify.Event{
		{EntityType: notify.EntityListing, EntityID: "l-1", Status: "claimed", OccurredAt: at},
		{EntityType: notify.EntityRequest, EntityID: "r-1", Status: "fulfilled", OccurredAt: at},
	}

	t.Run("one task per event in a single transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := mock_kafka.NewMockOutboxTaskRepository(ctrl)
		sink := kafka.NewOutboxSink(mockDB, repo, "foodshare.status-changes")

		var created []*repository.OutboxTask
		mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
		repo.EXPECT().CreateTx(gomock.Any(), mockTx, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ interface{}, task *repository.OutboxTask) error {
				created = append(created, task)
				return nil
			}).Times(2)
		mockTx.EXPECT().Commit(gomock.Any()).Return(nil)

		require.NoError(t, sink.Deliver(ctx, events))
		require.Len(t, created, 2)
		assert.Equal(t, "l-1", created[0].Key)
		assert.Equal(t, "foodshare.status-changes", created[0].Topic)

		var decoded notify.Event
		require.NoError(t, json.Unmarshal(created[1].Payload, &decoded))
		assert.Equal(t, events[1], decoded)
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := mock_kafka.NewMockOutboxTaskRepository(ctrl)
		sink := kafka.NewOutboxSink(mockDB, repo, "topic")
		expectedErr := errors.New("insert failed")

		mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil)
		repo.EXPECT().CreateTx(gomock.Any(), mockTx, gomock.Any()).Return(expectedErr)
		mockTx.EXPECT().Rollback(gomock.Any()).Return(nil)

		assert.ErrorIs(t, sink.Deliver(ctx, events), expectedErr)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sink := kafka.NewOutboxSink(mock_database.NewMockDB(ctrl), mock_kafka.NewMockOutboxTaskRepository(ctrl), "topic")

		assert.NoError(t, sink.Deliver(ctx, nil))
	})
}
