package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}},
		{name: "domain error", err: domain.Errorf(domain.KindConflict, "taken")},
		{name: "cancelled", err: context.Canceled},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isTransient(tc.err))
		})
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{name: "not found", err: repository.ErrObjectNotFound, want: domain.KindNotFound},
		{name: "stale version", err: fmt.Errorf("x: %w", repository.ErrVersionConflict), want: domain.KindConflict},
		{name: "duplicate", err: repository.ErrAlreadyExists, want: domain.KindConflict},
		{name: "domain passthrough", err: domain.Errorf(domain.KindForbidden, "no"), want: domain.KindForbidden},
		{name: "infrastructure", err: errors.New("connection reset"), want: domain.KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.KindOf(translate(tc.err, "listing", "id-1")))
		})
	}

	assert.NoError(t, translate(nil, "listing", "id-1"))
}
