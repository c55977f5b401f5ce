//go:generate mockgen -source ./service.go -destination=./mocks/service.go -package=mock_auth
package auth

import (
	"context"
	"errors"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

type UserStore interface {
	Authenticate(ctx context.Context, username, password string) (*repository.User, error)
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type Service struct {
	users  UserStore
	issuer *TokenIssuer
}

func NewService(users UserStore, issuer *TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

func (s *Service) Login(ctx context.Context, username, password string) (Token, error) {
	if username == "" || password == "" {
		return Token{}, domain.Errorf(domain.KindInvalidArgument, "username and password are required")
	}

	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return Token{}, domain.Errorf(domain.KindUnauthenticated, "invalid username or password")
		}
		return Token{}, domain.Internal(err)
	}

	role, err := domain.ParseRole(user.Role)
	if err != nil {
		return Token{}, domain.Internal(err)
	}

	signed, expiresAt, err := s.issuer.Issue(user.ID, user.Username, role)
	if err != nil {
		return Token{}, domain.Internal(err)
	}
	return Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

func (s *Service) Verify(token string) (domain.Actor, error) {
	return s.issuer.Verify(token)
}
