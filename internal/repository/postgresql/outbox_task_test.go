package postgresql_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository/postgresql"
)

func TestOutboxTaskRepo_CreateTx(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTx := mock_database.NewMockTx(ctrl)
	repo := postgresql.NewOutboxTaskRepo()
	task := &repository.OutboxTask{
		Payload: json.RawMessage(`{"status":"claimed"}`),
		Topic:   "foodshare.status-changes",
		Key:     "listing-1",
	}

	mockTx.EXPECT().Exec(
		gomock.Any(),
		gomock.Any(),
		gomock.Any(),
		gomock.Eq(repository.TaskStatusCreated),
		gomock.Eq(task.Payload),
		gomock.Eq(task.Topic),
		gomock.Eq("listing-1"),
		gomock.Any(),
		gomock.Any(),
	).Return(pgconn.CommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.CreateTx(context.Background(), mockTx, task))
	assert.NotEqual(t, uuid.Nil, task.ID)
}

func TestOutboxTaskRepo_GetProcessableTasks(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockTx := mock_database.NewMockTx(ctrl)
	want := []*repository.OutboxTask{{ID: uuid.New(), Status: repository.TaskStatusCreated}}
	staleBefore := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	mockTx.EXPECT().Select(
		gomock.Any(),
		gomock.Any(),
		gomock.Any(),
		gomock.Eq(repository.TaskStatusCreated),
		gomock.Eq(repository.TaskStatusFailed),
		gomock.Eq(3),
		gomock.Eq(repository.TaskStatusProcessing),
		gomock.Eq(staleBefore),
		gomock.Eq(50),
	).SetArg(1, want).Return(nil)

	got, err := postgresql.NewOutboxTaskRepo().GetProcessableTasks(context.Background(), mockTx, 50, 3, staleBefore)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOutboxTaskRepo_UpdateTaskStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("updated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_database.NewMockTx(ctrl)

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(id), gomock.Eq(repository.TaskStatusDone), gomock.Eq(1), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(pgconn.CommandTag("UPDATE 1"), nil)

		assert.NoError(t, postgresql.NewOutboxTaskRepo().UpdateTaskStatus(ctx, mockTx, id, repository.TaskStatusDone, 1, nil, nil))
	})

	t.Run("missing task", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_database.NewMockTx(ctrl)

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).Return(pgconn.CommandTag("UPDATE 0"), nil)

		err := postgresql.NewOutboxTaskRepo().UpdateTaskStatus(ctx, mockTx, id, repository.TaskStatusFailed, 2, nil, nil)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}
