package cache

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/metrics"
)

const deletedVersion = math.MaxInt64

// ListingCache keeps the listings that are available for claiming. Updates
// arrive after commit and may race, so every id remembers the highest version
// seen and older writes are ignored.
type ListingCache struct {
	mu       sync.RWMutex
	open     map[string]*domain.Listing
	versions map[string]int64
	loaded   bool
	logger   *zap.Logger
}

func NewListingCache(logger *zap.Logger) *ListingCache {
	return &ListingCache{
		open:     make(map[string]*domain.Listing),
		versions: make(map[string]int64),
		logger:   logger.With(zap.String("component", "listing_cache")),
	}
}

// Load replaces the cache contents. Until it is called Open reports a miss.
func (c *ListingCache) Load(listings []*domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = make(map[string]*domain.Listing, len(listings))
	c.versions = make(map[string]int64, len(listings))
	for _, l := range listings {
		if l.Status != domain.ListingAvailable {
			continue
		}
		listingCopy := *l
		c.open[l.ID] = &listingCopy
		c.versions[l.ID] = l.Version
	}
	c.loaded = true
	metrics.OpenListingsCached.Set(float64(len(c.open)))
	c.logger.Debug("cache loaded", zap.Int("listings", len(c.open)))
}

func (c *ListingCache) Set(l *domain.Listing) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.versions[l.ID]; ok && v > l.Version {
		return
	}
	c.versions[l.ID] = l.Version
	if l.Status == domain.ListingAvailable {
		listingCopy := *l
		c.open[l.ID] = &listingCopy
	} else {
		delete(c.open, l.ID)
	}
	metrics.OpenListingsCached.Set(float64(len(c.open)))
}

func (c *ListingCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[id] = deletedVersion
	delete(c.open, id)
	metrics.OpenListingsCached.Set(float64(len(c.open)))
}

func (c *ListingCache) Get(id string) (*domain.Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, ok := c.open[id]
	if !ok {
		return nil, false
	}
	listingCopy := *l
	return &listingCopy, true
}

// Open returns copies of the open listings, optionally narrowed to one
// category, soonest expiry first. ok is false before the first Load.
func (c *ListingCache) Open(category domain.Category) ([]*domain.Listing, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return nil, false
	}

	out := make([]*domain.Listing, 0, len(c.open))
	for _, l := range c.open {
		if category != "" && l.Category != category {
			continue
		}
		listingCopy := *l
		out = append(out, &listingCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiresAt.Equal(out[j].ExpiresAt) {
			return out[i].ExpiresAt.Before(out[j].ExpiresAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, true
}

func (c *ListingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.open)
}
