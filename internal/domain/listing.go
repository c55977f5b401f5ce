package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a donor's offer of a fixed quantity of food.
type Listing struct {
	ID          string          `json:"id"`
	DonorID     string          `json:"donor_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        Unit            `json:"unit"`
	Category    Category        `json:"category"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Status      ListingStatus   `json:"status"`
	ClaimantID  string          `json:"claimant_id,omitempty"`
	VolunteerID string          `json:"volunteer_id,omitempty"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ListingInput struct {
	Title       string
	Description string
	Quantity    decimal.Decimal
	Unit        Unit
	Category    Category
	ExpiresAt   time.Time
}

// ListingPatch carries the fields of an edit. Nil fields are left untouched.
// Quantity and Unit are accepted only to be rejected: both are fixed at creation.
type ListingPatch struct {
	Title       *string
	Description *string
	Category    *Category
	ExpiresAt   *time.Time
	Quantity    *decimal.Decimal
	Unit        *Unit
}

type ListingFilter struct {
	Status   ListingStatus
	Category Category
	DonorID  string
}

var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingAvailable: {ListingClaimed, ListingExpired},
	ListingClaimed:   {ListingPickedUp, ListingExpired},
	ListingPickedUp:  {ListingDelivered, ListingExpired},
	ListingDelivered: nil,
	ListingExpired:   nil,
}

// Next returns the statuses reachable from s in one step.
func (s ListingStatus) Next() []ListingStatus {
	next := listingTransitions[s]
	out := make([]ListingStatus, len(next))
	copy(out, next)
	return out
}

func (s ListingStatus) CanTransitionTo(to ListingStatus) bool {
	for _, next := range listingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ListingStatus) Terminal() bool {
	return len(listingTransitions[s]) == 0
}

func NewListing(actor Actor, in ListingInput, now time.Time) (*Listing, error) {
	if actor.Role != RoleDonor {
		return nil, Errorf(KindForbidden, "only donors can create listings")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Errorf(KindInvalidArgument, "title is required")
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if !in.Unit.Valid() {
		return nil, Errorf(KindInvalidArgument, "unknown unit %q", in.Unit)
	}
	if !in.Category.Valid() {
		return nil, Errorf(KindInvalidArgument, "unknown category %q", in.Category)
	}
	if !in.ExpiresAt.After(now) {
		return nil, Errorf(KindInvalidArgument, "expiry must be in the future")
	}

	return &Listing{
		ID:          uuid.NewString(),
		DonorID:     actor.ID,
		Title:       title,
		Description: in.Description,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Category:    in.Category,
		ExpiresAt:   in.ExpiresAt.UTC(),
		Status:      ListingAvailable,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Claim reserves an available listing for the calling charity.
func (l *Listing) Claim(actor Actor, now time.Time) error {
	if actor.Role != RoleCharity {
		return Errorf(KindForbidden, "only charities can claim listings")
	}
	if l.Status != ListingAvailable {
		return Errorf(KindConflict, "listing %s is %s and can no longer be claimed", l.ID, l.Status)
	}
	l.Status = ListingClaimed
	l.ClaimantID = actor.ID
	l.UpdatedAt = now
	return nil
}

// UpdateStatus moves the listing along one edge of the transition table.
// The edge is validated before the caller's right to take it.
func (l *Listing) UpdateStatus(to ListingStatus, actor Actor, now time.Time) error {
	if !to.Valid() {
		return Errorf(KindInvalidArgument, "unknown listing status %q", to)
	}
	if !l.Status.CanTransitionTo(to) {
		return Errorf(KindInvalidTransition, "cannot move listing from %s to %s", l.Status, to)
	}

	switch to {
	case ListingClaimed:
		return l.Claim(actor, now)
	case ListingPickedUp:
		if err := l.authorizePickup(actor); err != nil {
			return err
		}
		if actor.Role == RoleVolunteer {
			l.VolunteerID = actor.ID
		}
	case ListingDelivered:
		if err := l.authorizeDelivery(actor); err != nil {
			return err
		}
	case ListingExpired:
		if err := l.authorizeExpiry(actor); err != nil {
			return err
		}
		l.ClaimantID = ""
		l.VolunteerID = ""
	}

	l.Status = to
	l.UpdatedAt = now
	return nil
}

func (l *Listing) authorizePickup(actor Actor) error {
	switch actor.Role {
	case RoleVolunteer:
		return nil
	case RoleCharity:
		if actor.ID == l.ClaimantID {
			return nil
		}
		return Errorf(KindForbidden, "listing %s is claimed by another charity", l.ID)
	case RoleDonor, RoleAdmin:
		return Errorf(KindForbidden, "%s cannot mark a listing as picked up", actor.Role)
	default:
		return Errorf(KindForbidden, "unknown role %q", actor.Role)
	}
}

func (l *Listing) authorizeDelivery(actor Actor) error {
	switch actor.Role {
	case RoleVolunteer:
		if l.VolunteerID != "" && actor.ID == l.VolunteerID {
			return nil
		}
		return Errorf(KindForbidden, "listing %s was picked up by another volunteer", l.ID)
	case RoleCharity:
		if actor.ID == l.ClaimantID {
			return nil
		}
		return Errorf(KindForbidden, "listing %s is claimed by another charity", l.ID)
	case RoleDonor, RoleAdmin:
		return Errorf(KindForbidden, "%s cannot mark a listing as delivered", actor.Role)
	default:
		return Errorf(KindForbidden, "unknown role %q", actor.Role)
	}
}

func (l *Listing) authorizeExpiry(actor Actor) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleDonor:
		if actor.ID == l.DonorID {
			return nil
		}
		return Errorf(KindForbidden, "listing %s belongs to another donor", l.ID)
	case RoleCharity, RoleVolunteer:
		return Errorf(KindForbidden, "%s cannot expire a listing", actor.Role)
	default:
		return Errorf(KindForbidden, "unknown role %q", actor.Role)
	}
}

func (l *Listing) Edit(patch ListingPatch, actor Actor, now time.Time) error {
	if actor.Role != RoleDonor || actor.ID != l.DonorID {
		return Errorf(KindForbidden, "only the owning donor can edit listing %s", l.ID)
	}
	if l.Status != ListingAvailable {
		return Errorf(KindInvalidState, "listing %s is %s and can no longer be edited", l.ID, l.Status)
	}
	if patch.Quantity != nil || patch.Unit != nil {
		return Errorf(KindInvalidArgument, "quantity and unit cannot be changed after creation")
	}

	title := l.Title
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return Errorf(KindInvalidArgument, "title is required")
		}
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return Errorf(KindInvalidArgument, "unknown category %q", *patch.Category)
	}
	if patch.ExpiresAt != nil && !patch.ExpiresAt.After(now) {
		return Errorf(KindInvalidArgument, "expiry must be in the future")
	}

	l.Title = title
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.ExpiresAt != nil {
		l.ExpiresAt = patch.ExpiresAt.UTC()
	}
	l.UpdatedAt = now
	return nil
}

// CanDelete allows the owning donor, or an admin, to remove the listing in any status.
func (l *Listing) CanDelete(actor Actor) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleDonor:
		if actor.ID == l.DonorID {
			return nil
		}
	}
	return Errorf(KindForbidden, "only the owning donor can delete listing %s", l.ID)
}

// Expirable reports whether the sweeper should expire the listing at now.
func (l *Listing) Expirable(now time.Time) bool {
	return !l.Status.Terminal() && !l.ExpiresAt.After(now)
}
