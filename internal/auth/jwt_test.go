package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func fixedIssuer(at time.Time) *TokenIssuer {
	i := NewTokenIssuer(testSecret, time.Hour)
	i.now = func() time.Time { return at }
	return i
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := fixedIssuer(now)

	token, expiresAt, err := issuer.Issue("user-1", "alice", domain.RoleCharity)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	actor, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{ID: "user-1", Role: domain.RoleCharity}, actor)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	valid, _, err := fixedIssuer(now).Issue("user-1", "alice", domain.RoleDonor)
	require.NoError(t, err)

	otherKey, _, err := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour).Issue("user-1", "alice", domain.RoleDonor)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: domain.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badRole, _, err := fixedIssuer(now).Issue("user-1", "alice", domain.Role("root"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		verify *TokenIssuer
	}{
		{name: "expired", token: valid, verify: fixedIssuer(now.Add(2 * time.Hour))},
		{name: "wrong key", token: otherKey, verify: fixedIssuer(now)},
		{name: "unsigned", token: noneToken, verify: fixedIssuer(now)},
		{name: "garbage", token: "not-a-token", verify: fixedIssuer(now)},
		{name: "unknown role", token: badRole, verify: fixedIssuer(now)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.verify.Verify(tc.token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer ", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			got, err := BearerToken(tc.header)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnauthenticated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	actor := domain.Actor{ID: "v1", Role: domain.RoleVolunteer}
	got, ok := ActorFrom(WithActor(context.Background(), actor))
	assert.True(t, ok)
	assert.Equal(t, actor, got)
}
