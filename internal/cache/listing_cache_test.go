package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func listing(id string, status domain.ListingStatus, version int64, expiresIn time.Duration) *domain.Listing {
	return &domain.Listing{
		ID:        id,
		Status:    status,
		Version:   version,
		Category:  domain.CategoryProduce,
		ExpiresAt: base.Add(expiresIn),
		CreatedAt: base,
	}
}

func TestListingCache_MissBeforeLoad(t *testing.T) {
	c := NewListingCache(zap.NewNop())

	_, ok := c.Open("")
	assert.False(t, ok)

	c.Load(nil)
	open, ok := c.Open("")
	assert.True(t, ok)
	assert.Empty(t, open)
}

func TestListingCache_LoadSkipsClosedListings(t *testing.T) {
	c := NewListingCache(zap.NewNop())
	c.Load([]*domain.Listing{
		listing("a", domain.ListingAvailable, 1, 2*time.Hour),
		listing("b", domain.ListingClaimed, 2, time.Hour),
		listing("c", domain.ListingAvailable, 1, time.Hour),
	})

	open, ok := c.Open("")
	require.True(t, ok)
	require.Len(t, open, 2)
	assert.Equal(t, "c", open[0].ID)
	assert.Equal(t, "a", open[1].ID)
}

func TestListingCache_SetFollowsStatus(t *testing.T) {
	c := NewListingCache(zap.NewNop())
	c.Load(nil)

	c.Set(listing("a", domain.ListingAvailable, 1, time.Hour))
	assert.Equal(t, 1, c.Len())

	c.Set(listing("a", domain.ListingClaimed, 2, time.Hour))
	assert.Equal(t, 0, c.Len())
}

func TestListingCache_IgnoresStaleWrites(t *testing.T) {
	c := NewListingCache(zap.NewNop())
	c.Load(nil)

	c.Set(listing("a", domain.ListingClaimed, 2, time.Hour))
	c.Set(listing("a", domain.ListingAvailable, 1, time.Hour))
	_, ok := c.Get("a")
	assert.False(t, ok, "older available version must not reopen a claimed listing")

	c.Set(listing("b", domain.ListingAvailable, 1, time.Hour))
	c.Delete("b")
	c.Set(listing("b", domain.ListingAvailable, 3, time.Hour))
	_, ok = c.Get("b")
	assert.False(t, ok, "deleted listing stays deleted")
}

func TestListingCache_CategoryFilterAndCopies(t *testing.T) {
	c := NewListingCache(zap.NewNop())
	dairy := listing("d", domain.ListingAvailable, 1, time.Hour)
	dairy.Category = domain.CategoryDairy
	c.Load([]*domain.Listing{dairy, listing("p", domain.ListingAvailable, 1, time.Hour)})

	open, ok := c.Open(domain.CategoryDairy)
	require.True(t, ok)
	require.Len(t, open, 1)
	assert.Equal(t, "d", open[0].ID)

	open[0].Title = "mutated"
	got, ok := c.Get("d")
	require.True(t, ok)
	assert.Empty(t, got.Title)
}
