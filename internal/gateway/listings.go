package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

func (g *Gateway) CreateListing(ctx context.Context, actor domain.Actor, in domain.ListingInput) (*domain.Listing, error) {
	const op = "create_listing"

	l, err := domain.NewListing(actor, in, g.now())
	if err != nil {
		return nil, g.fail(op, err)
	}

	err = g.inTx(ctx, op, func(tx db.Tx) error {
		return g.listings.CreateTx(ctx, tx, listingToRow(l))
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "listing", l.ID))
	}

	metrics.ListingsCreatedTotal.Inc()
	g.listingChanged(l)
	return l, nil
}

func (g *Gateway) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	row, err := g.listings.GetByID(ctx, id)
	if err != nil {
		return nil, g.fail("get_listing", translate(err, "listing", id))
	}
	return listingFromRow(row), nil
}

// ListListings serves open listings from the cache when the filter allows it.
func (g *Gateway) ListListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error) {
	const op = "list_listings"

	if filter.Status != "" && !filter.Status.Valid() {
		return nil, g.fail(op, domain.Errorf(domain.KindInvalidArgument, "unknown listing status %q", filter.Status))
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, g.fail(op, domain.Errorf(domain.KindInvalidArgument, "unknown category %q", filter.Category))
	}

	if filter.Status == domain.ListingAvailable && filter.DonorID == "" {
		if open, ok := g.cache.Open(filter.Category); ok {
			if len(open) > g.listLimit {
				open = open[:g.listLimit]
			}
			return open, nil
		}
	}

	rows, err := g.listings.List(ctx, repository.ListingFilter{
		Status:   string(filter.Status),
		Category: string(filter.Category),
		DonorID:  filter.DonorID,
		Limit:    g.listLimit,
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "listing", ""))
	}

	listings := make([]*domain.Listing, len(rows))
	for i, row := range rows {
		listings[i] = listingFromRow(row)
	}
	return listings, nil
}

func (g *Gateway) ClaimListing(ctx context.Context, actor domain.Actor, id string) (*domain.Listing, error) {
	l, err := g.mutateListing(ctx, "claim_listing", id, func(l *domain.Listing, now time.Time) error {
		return l.Claim(actor, now)
	})
	if err != nil {
		return nil, err
	}
	metrics.ListingsClaimedTotal.Inc()
	metrics.ListingTransitionsTotal.WithLabelValues(string(l.Status)).Inc()
	return l, nil
}

func (g *Gateway) UpdateListingStatus(ctx context.Context, actor domain.Actor, id string, to domain.ListingStatus) (*domain.Listing, error) {
	l, err := g.mutateListing(ctx, "update_listing_status", id, func(l *domain.Listing, now time.Time) error {
		return l.UpdateStatus(to, actor, now)
	})
	if err != nil {
		return nil, err
	}
	if to == domain.ListingClaimed {
		metrics.ListingsClaimedTotal.Inc()
	}
	metrics.ListingTransitionsTotal.WithLabelValues(string(l.Status)).Inc()
	return l, nil
}

func (g *Gateway) EditListing(ctx context.Context, actor domain.Actor, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	return g.mutateListing(ctx, "edit_listing", id, func(l *domain.Listing, now time.Time) error {
		return l.Edit(patch, actor, now)
	})
}

// ExpireListing is driven by the sweeper. A listing that is no longer due,
// because it was delivered or its expiry was moved, is left alone.
func (g *Gateway) ExpireListing(ctx context.Context, id string) (*domain.Listing, error) {
	l, err := g.mutateListing(ctx, "expire_listing", id, func(l *domain.Listing, now time.Time) error {
		if !l.Expirable(now) {
			return domain.Errorf(domain.KindInvalidState, "listing %s is not due for expiry", id)
		}
		return l.UpdateStatus(domain.ListingExpired, domain.SystemActor, now)
	})
	if err != nil {
		return nil, err
	}
	metrics.ListingTransitionsTotal.WithLabelValues(string(l.Status)).Inc()
	return l, nil
}

// ExpirableListings returns ids of non-terminal listings past their expiry.
func (g *Gateway) ExpirableListings(ctx context.Context, limit int) ([]string, error) {
	ids, err := g.listings.ListExpirableIDs(ctx, g.now(), limit)
	if err != nil {
		return nil, g.fail("expirable_listings", translate(err, "listing", ""))
	}
	return ids, nil
}

func (g *Gateway) DeleteListing(ctx context.Context, actor domain.Actor, id string) error {
	const op = "delete_listing"

	err := g.inTx(ctx, op, func(tx db.Tx) error {
		row, err := g.listings.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := listingFromRow(row).CanDelete(actor); err != nil {
			return err
		}
		return g.listings.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return g.fail(op, translate(err, "listing", id))
	}

	g.cache.Delete(id)
	g.emit(notify.EntityListing, id, notify.StatusDeleted)
	return nil
}

// WarmCache loads every available listing into the open-listing cache.
func (g *Gateway) WarmCache(ctx context.Context) error {
	rows, err := g.listings.List(ctx, repository.ListingFilter{Status: string(domain.ListingAvailable)})
	if err != nil {
		return g.fail("warm_cache", translate(err, "listing", ""))
	}
	listings := make([]*domain.Listing, len(rows))
	for i, row := range rows {
		listings[i] = listingFromRow(row)
	}
	g.cache.Load(listings)
	g.logger.Info("open-listing cache warmed", zap.Int("listings", len(listings)))
	return nil
}

// mutateListing locks the listing row, applies mutate and writes the result
// back guarded by the version that was read.
func (g *Gateway) mutateListing(
	ctx context.Context,
	op, id string,
	mutate func(l *domain.Listing, now time.Time) error,
) (*domain.Listing, error) {
	var out *domain.Listing
	err := g.inTx(ctx, op, func(tx db.Tx) error {
		row, err := g.listings.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		l := listingFromRow(row)
		expected := l.Version
		if err := mutate(l, g.now()); err != nil {
			return err
		}
		l.Version = expected + 1

		if err := g.listings.UpdateTx(ctx, tx, listingToRow(l), expected); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, g.fail(op, translate(err, "listing", id))
	}

	g.listingChanged(out)
	return out, nil
}

func (g *Gateway) listingChanged(l *domain.Listing) {
	g.cache.Set(l)
	g.emit(notify.EntityListing, l.ID, string(l.Status))
}
