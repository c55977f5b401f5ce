package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository/postgresql"
)

func TestDonationRepo_AppendTx(t *testing.T) {
	ctx := context.Background()
	d := &repository.Donation{
		RequestID: "request-1",
		Seq:       3,
		DonorID:   "donor-1",
		Quantity:  decimal.RequireFromString("2.5"),
		DonatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "success"},
		{name: "sequence taken", execErr: &pgconn.PgError{Code: "23505"}, wantErr: repository.ErrVersionConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockTx := mock_database.NewMockTx(ctrl)
			repo := postgresql.NewDonationRepo()

			mockTx.EXPECT().Exec(
				gomock.Any(),
				gomock.Any(),
				gomock.Eq(d.RequestID),
				gomock.Eq(d.Seq),
				gomock.Eq(d.DonorID),
				gomock.Eq(d.Quantity),
				gomock.Eq(d.DonatedAt),
			).Return(pgconn.CommandTag("INSERT 0 1"), tc.execErr)

			err := repo.AppendTx(ctx, mockTx, d)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_database.NewMockTx(ctrl)
		expectedErr := errors.New("database error")

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, expectedErr)

		err := postgresql.NewDonationRepo().AppendTx(ctx, mockTx, d)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestDonationRepo_ListByRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	want := []*repository.Donation{
		{RequestID: "request-1", Seq: 1, DonorID: "donor-1", Quantity: decimal.NewFromInt(1)},
		{RequestID: "request-1", Seq: 2, DonorID: "donor-2", Quantity: decimal.NewFromInt(4)},
	}

	mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("request-1")).
		DoAndReturn(func(_ context.Context, dest *[]*repository.Donation, _ string, _ string) error {
			*dest = want
			return nil
		})

	got, err := postgresql.NewDonationRepo().ListByRequest(context.Background(), mockDB, "request-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDonationRepo_ListByRequests(t *testing.T) {
	t.Run("groups by request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		rows := []*repository.Donation{
			{RequestID: "a", Seq: 1, Quantity: decimal.NewFromInt(1)},
			{RequestID: "a", Seq: 2, Quantity: decimal.NewFromInt(2)},
			{RequestID: "b", Seq: 1, Quantity: decimal.NewFromInt(3)},
		}

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq([]string{"a", "b", "c"})).
			SetArg(1, rows).
			Return(nil)

		got, err := postgresql.NewDonationRepo().ListByRequests(context.Background(), mockDB, []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Len(t, got["a"], 2)
		assert.Len(t, got["b"], 1)
		assert.Empty(t, got["c"])
	})

	t.Run("no ids skips the query", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)

		got, err := postgresql.NewDonationRepo().ListByRequests(context.Background(), mockDB, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
