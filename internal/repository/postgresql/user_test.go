package postgresql_test

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	mock_database "gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository/postgresql"
)

type countRow struct {
	n   int
	err error
}

func (r countRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.n
	return nil
}

func TestUserRepo_Authenticate(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := repository.User{ID: "u1", Username: "alice", Password: string(hash), Role: "donor"}

	tests := []struct {
		name     string
		password string
		getErr   error
		wantErr  error
	}{
		{name: "valid password", password: "secret"},
		{name: "wrong password", password: "nope", wantErr: repository.ErrInvalidCredentials},
		{name: "unknown user", password: "secret", getErr: pgx.ErrNoRows, wantErr: repository.ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := mock_database.NewMockDB(ctrl)
			repo := postgresql.NewUserRepo(mockDB)

			mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("alice")).
				DoAndReturn(func(_ context.Context, dest *repository.User, _ string, _ string) error {
					if tc.getErr != nil {
						return tc.getErr
					}
					*dest = stored
					return nil
				})

			user, err := repo.Authenticate(ctx, "alice", tc.password)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", user.ID)
			assert.Equal(t, "donor", user.Role)
		})
	}
}

func TestUserRepo_EnsureUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing user", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).Return(countRow{n: 0})
		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("admin"), gomock.Any(), gomock.Eq("admin"), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
				hashed := args[2].(string)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("pw")))
				return pgconn.CommandTag("INSERT 0 1"), nil
			})

		created, err := repo.EnsureUser(ctx, "admin", "pw", "admin")
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("existing user is left alone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewUserRepo(mockDB)

		mockDB.EXPECT().ExecQueryRow(gomock.Any(), gomock.Any(), gomock.Eq("admin")).Return(countRow{n: 1})

		created, err := repo.EnsureUser(ctx, "admin", "pw", "admin")
		require.NoError(t, err)
		assert.False(t, created)
	})
}
