package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow  = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	donor     = Actor{ID: "donor-1", Role: RoleDonor}
	charity1  = Actor{ID: "charity-1", Role: RoleCharity}
	charity2  = Actor{ID: "charity-2", Role: RoleCharity}
	volunteer = Actor{ID: "volunteer-1", Role: RoleVolunteer}
	admin     = Actor{ID: "admin-1", Role: RoleAdmin}
)

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing(donor, ListingInput{
		Title:     "Fresh apples",
		Quantity:  qty("10"),
		Unit:      UnitKg,
		Category:  CategoryProduce,
		ExpiresAt: fixedNow.Add(48 * time.Hour),
	}, fixedNow)
	require.NoError(t, err)
	return l
}

func TestNewListing(t *testing.T) {
	valid := ListingInput{
		Title:     "Bread",
		Quantity:  qty("4"),
		Unit:      UnitPieces,
		Category:  CategoryBakery,
		ExpiresAt: fixedNow.Add(time.Hour),
	}

	tests := []struct {
		name     string
		actor    Actor
		mutate   func(in *ListingInput)
		wantKind Kind
	}{
		{name: "charity cannot create", actor: charity1, mutate: func(*ListingInput) {}, wantKind: KindForbidden},
		{name: "missing title", actor: donor, mutate: func(in *ListingInput) { in.Title = "  " }, wantKind: KindInvalidArgument},
		{name: "zero quantity", actor: donor, mutate: func(in *ListingInput) { in.Quantity = decimal.Zero }, wantKind: KindInvalidArgument},
		{name: "negative quantity", actor: donor, mutate: func(in *ListingInput) { in.Quantity = qty("-3") }, wantKind: KindInvalidArgument},
		{name: "unknown unit", actor: donor, mutate: func(in *ListingInput) { in.Unit = "tons" }, wantKind: KindInvalidArgument},
		{name: "unknown category", actor: donor, mutate: func(in *ListingInput) { in.Category = "candy" }, wantKind: KindInvalidArgument},
		{name: "expiry in the past", actor: donor, mutate: func(in *ListingInput) { in.ExpiresAt = fixedNow.Add(-time.Minute) }, wantKind: KindInvalidArgument},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			l, err := NewListing(tc.actor, in, fixedNow)
			require.Error(t, err)
			assert.Nil(t, l)
			assert.Equal(t, tc.wantKind, KindOf(err))
		})
	}

	t.Run("valid listing starts available", func(t *testing.T) {
		l, err := NewListing(donor, valid, fixedNow)
		require.NoError(t, err)
		assert.NotEmpty(t, l.ID)
		assert.Equal(t, ListingAvailable, l.Status)
		assert.Equal(t, donor.ID, l.DonorID)
		assert.Empty(t, l.ClaimantID)
		assert.Equal(t, int64(1), l.Version)
	})
}

func TestListingTransitionTable(t *testing.T) {
	all := []ListingStatus{ListingAvailable, ListingClaimed, ListingPickedUp, ListingDelivered, ListingExpired}
	allowed := map[ListingStatus]map[ListingStatus]bool{
		ListingAvailable: {ListingClaimed: true, ListingExpired: true},
		ListingClaimed:   {ListingPickedUp: true, ListingExpired: true},
		ListingPickedUp:  {ListingDelivered: true, ListingExpired: true},
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from][to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, ListingDelivered.Terminal())
	assert.True(t, ListingExpired.Terminal())
	assert.False(t, ListingPickedUp.Terminal())
}

// Every attempted edge outside the table fails and leaves the listing unchanged.
func TestListingUpdateStatusRejectsIllegalEdges(t *testing.T) {
	actorFor := map[ListingStatus]Actor{
		ListingAvailable: charity1,
		ListingClaimed:   charity1,
		ListingPickedUp:  volunteer,
		ListingDelivered: volunteer,
		ListingExpired:   donor,
	}
	path := []ListingStatus{ListingClaimed, ListingPickedUp, ListingDelivered}
	all := []ListingStatus{ListingAvailable, ListingClaimed, ListingPickedUp, ListingDelivered, ListingExpired}

	l := newTestListing(t)
	for _, step := range append([]ListingStatus{ListingAvailable}, path...) {
		if step != ListingAvailable {
			require.NoError(t, l.UpdateStatus(step, actorFor[step], fixedNow))
			require.Equal(t, step, l.Status)
		}
		for _, to := range all {
			if l.Status.CanTransitionTo(to) {
				continue
			}
			before := *l
			err := l.UpdateStatus(to, actorFor[to], fixedNow.Add(time.Minute))
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", before.Status, to)
			assert.Equal(t, before, *l)
		}
	}
}

func TestListingScenarioA_SecondClaimConflicts(t *testing.T) {
	l := newTestListing(t)

	require.NoError(t, l.Claim(charity1, fixedNow))
	assert.Equal(t, ListingClaimed, l.Status)
	assert.Equal(t, charity1.ID, l.ClaimantID)

	err := l.Claim(charity2, fixedNow)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, charity1.ID, l.ClaimantID)
}

func TestListingClaimRequiresCharity(t *testing.T) {
	for _, actor := range []Actor{donor, volunteer, admin} {
		l := newTestListing(t)
		err := l.Claim(actor, fixedNow)
		assert.ErrorIs(t, err, ErrForbidden, "role %s", actor.Role)
		assert.Equal(t, ListingAvailable, l.Status)
	}
}

func TestListingScenarioB_PickupThenIllegalReturn(t *testing.T) {
	l := newTestListing(t)
	require.NoError(t, l.Claim(charity1, fixedNow))

	require.NoError(t, l.UpdateStatus(ListingPickedUp, volunteer, fixedNow))
	assert.Equal(t, ListingPickedUp, l.Status)
	assert.Equal(t, volunteer.ID, l.VolunteerID)

	err := l.UpdateStatus(ListingAvailable, volunteer, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ListingPickedUp, l.Status)
}

func TestListingScenarioE_DeliveredIsTerminal(t *testing.T) {
	l := newTestListing(t)
	require.NoError(t, l.Claim(charity1, fixedNow))
	require.NoError(t, l.UpdateStatus(ListingPickedUp, volunteer, fixedNow))
	require.NoError(t, l.UpdateStatus(ListingDelivered, volunteer, fixedNow))

	for _, to := range []ListingStatus{ListingAvailable, ListingClaimed, ListingPickedUp, ListingDelivered, ListingExpired} {
		err := l.UpdateStatus(to, admin, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidTransition, "delivered -> %s", to)
	}
	assert.Equal(t, ListingDelivered, l.Status)
}

func TestListingUpdateStatusRoleGates(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(l *Listing)
		to      ListingStatus
		actor   Actor
		wantErr error
	}{
		{
			name:    "claim through status update",
			to:      ListingClaimed,
			actor:   charity2,
			prepare: func(*Listing) {},
		},
		{
			name:    "donor cannot claim through status update",
			to:      ListingClaimed,
			actor:   donor,
			prepare: func(*Listing) {},
			wantErr: ErrForbidden,
		},
		{
			name:    "claimant charity picks up itself",
			to:      ListingPickedUp,
			actor:   charity1,
			prepare: func(l *Listing) { require.NoError(t, l.Claim(charity1, fixedNow)) },
		},
		{
			name:    "other charity cannot pick up",
			to:      ListingPickedUp,
			actor:   charity2,
			prepare: func(l *Listing) { require.NoError(t, l.Claim(charity1, fixedNow)) },
			wantErr: ErrForbidden,
		},
		{
			name:    "donor cannot pick up",
			to:      ListingPickedUp,
			actor:   donor,
			prepare: func(l *Listing) { require.NoError(t, l.Claim(charity1, fixedNow)) },
			wantErr: ErrForbidden,
		},
		{
			name: "other volunteer cannot deliver",
			to:   ListingDelivered,
			actor: Actor{
				ID:   "volunteer-2",
				Role: RoleVolunteer,
			},
			prepare: func(l *Listing) {
				require.NoError(t, l.Claim(charity1, fixedNow))
				require.NoError(t, l.UpdateStatus(ListingPickedUp, volunteer, fixedNow))
			},
			wantErr: ErrForbidden,
		},
		{
			name:  "claimant charity confirms delivery",
			to:    ListingDelivered,
			actor: charity1,
			prepare: func(l *Listing) {
				require.NoError(t, l.Claim(charity1, fixedNow))
				require.NoError(t, l.UpdateStatus(ListingPickedUp, volunteer, fixedNow))
			},
		},
		{
			name:    "owner donor expires",
			to:      ListingExpired,
			actor:   donor,
			prepare: func(*Listing) {},
		},
		{
			name:    "other donor cannot expire",
			to:      ListingExpired,
			actor:   Actor{ID: "donor-2", Role: RoleDonor},
			prepare: func(*Listing) {},
			wantErr: ErrForbidden,
		},
		{
			name:    "volunteer cannot expire",
			to:      ListingExpired,
			actor:   volunteer,
			prepare: func(*Listing) {},
			wantErr: ErrForbidden,
		},
		{
			name:    "unknown status",
			to:      ListingStatus("lost"),
			actor:   admin,
			prepare: func(*Listing) {},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestListing(t)
			tc.prepare(l)
			before := *l

			err := l.UpdateStatus(tc.to, tc.actor, fixedNow.Add(time.Minute))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, before, *l)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, l.Status)
		})
	}
}

func TestListingClaimantInvariant(t *testing.T) {
	l := newTestListing(t)
	require.NoError(t, l.Claim(charity1, fixedNow))
	require.NoError(t, l.UpdateStatus(ListingPickedUp, volunteer, fixedNow))

	require.NoError(t, l.UpdateStatus(ListingExpired, admin, fixedNow))
	assert.Equal(t, ListingExpired, l.Status)
	assert.Empty(t, l.ClaimantID)
	assert.Empty(t, l.VolunteerID)
}

func TestListingEdit(t *testing.T) {
	title := "Green apples"
	category := CategoryOther
	quantity := qty("20")
	past := fixedNow.Add(-time.Hour)

	t.Run("owner edits available listing", func(t *testing.T) {
		l := newTestListing(t)
		err := l.Edit(ListingPatch{Title: &title, Category: &category}, donor, fixedNow.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, title, l.Title)
		assert.Equal(t, category, l.Category)
		assert.Equal(t, "10", l.Quantity.String())
	})

	t.Run("non owner forbidden", func(t *testing.T) {
		l := newTestListing(t)
		err := l.Edit(ListingPatch{Title: &title}, Actor{ID: "donor-2", Role: RoleDonor}, fixedNow)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("claimed listing is locked", func(t *testing.T) {
		l := newTestListing(t)
		require.NoError(t, l.Claim(charity1, fixedNow))
		err := l.Edit(ListingPatch{Title: &title}, donor, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("quantity is immutable", func(t *testing.T) {
		l := newTestListing(t)
		err := l.Edit(ListingPatch{Quantity: &quantity}, donor, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, "10", l.Quantity.String())
	})

	t.Run("invalid expiry leaves listing untouched", func(t *testing.T) {
		l := newTestListing(t)
		before := *l
		err := l.Edit(ListingPatch{Title: &title, ExpiresAt: &past}, donor, fixedNow)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, before, *l)
	})
}

func TestListingCanDelete(t *testing.T) {
	l := newTestListing(t)
	require.NoError(t, l.Claim(charity1, fixedNow))

	assert.NoError(t, l.CanDelete(donor))
	assert.NoError(t, l.CanDelete(admin))
	assert.ErrorIs(t, l.CanDelete(charity1), ErrForbidden)
	assert.ErrorIs(t, l.CanDelete(Actor{ID: "donor-2", Role: RoleDonor}), ErrForbidden)
}

func TestListingExpirable(t *testing.T) {
	l := newTestListing(t)
	assert.False(t, l.Expirable(fixedNow))
	assert.True(t, l.Expirable(l.ExpiresAt))

	require.NoError(t, l.UpdateStatus(ListingExpired, donor, fixedNow))
	assert.False(t, l.Expirable(l.ExpiresAt.Add(time.Hour)))
}
