package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CharityRequest is a charity's declared need. The fulfilled quantity and the
// status are derived from the ledger and cannot be set directly.
type CharityRequest struct {
	ID                string
	CharityID         string
	Title             string
	Description       string
	Category          Category
	Unit              Unit
	QuantityRequested decimal.Decimal
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time

	ledger    Ledger
	fulfilled decimal.Decimal
	status    RequestStatus
}

type RequestInput struct {
	Title             string
	Description       string
	Category          Category
	Unit              Unit
	QuantityRequested decimal.Decimal
}

type RequestPatch struct {
	Title             *string
	Description       *string
	Category          *Category
	Unit              *Unit
	QuantityRequested *decimal.Decimal
}

type RequestFilter struct {
	Status    RequestStatus
	Category  Category
	CharityID string
}

// DeriveRequestStatus is the only place request status is computed.
func DeriveRequestStatus(fulfilled, requested decimal.Decimal) RequestStatus {
	switch {
	case fulfilled.GreaterThanOrEqual(requested):
		return RequestFulfilled
	case fulfilled.IsPositive():
		return RequestPartiallyFulfilled
	default:
		return RequestPending
	}
}

func NewCharityRequest(actor Actor, in RequestInput, now time.Time) (*CharityRequest, error) {
	if actor.Role != RoleCharity {
		return nil, Errorf(KindForbidden, "only charities can create requests")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, Errorf(KindInvalidArgument, "title is required")
	}
	if !in.Category.Valid() {
		return nil, Errorf(KindInvalidArgument, "unknown category %q", in.Category)
	}
	if !in.Unit.Valid() {
		return nil, Errorf(KindInvalidArgument, "unknown unit %q", in.Unit)
	}
	if err := validateQuantity(in.QuantityRequested); err != nil {
		return nil, err
	}

	r := &CharityRequest{
		ID:                uuid.NewString(),
		CharityID:         actor.ID,
		Title:             title,
		Description:       in.Description,
		Category:          in.Category,
		Unit:              in.Unit,
		QuantityRequested: in.QuantityRequested,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.recompute()
	return r, nil
}

// ReplayLedger installs the stored donations and recomputes derived fields.
func (r *CharityRequest) ReplayLedger(entries []Donation) error {
	ledger, err := NewLedger(entries)
	if err != nil {
		return err
	}
	r.ledger = ledger
	r.recompute()
	return nil
}

func (r *CharityRequest) recompute() {
	r.fulfilled = r.ledger.Total()
	r.status = DeriveRequestStatus(r.fulfilled, r.QuantityRequested)
}

func (r *CharityRequest) QuantityFulfilled() decimal.Decimal {
	return r.fulfilled
}

func (r *CharityRequest) Status() RequestStatus {
	return r.status
}

func (r *CharityRequest) Donations() []Donation {
	return r.ledger.Entries()
}

func (r *CharityRequest) HasDonations() bool {
	return r.ledger.Len() > 0
}

// Donate appends a donation to the ledger. By default only pending requests
// accept donations; policy can extend that to partially fulfilled ones.
func (r *CharityRequest) Donate(actor Actor, quantity decimal.Decimal, now time.Time, policy Policy) (Donation, error) {
	if actor.Role != RoleDonor {
		return Donation{}, Errorf(KindForbidden, "only donors can donate")
	}
	if err := validateQuantity(quantity); err != nil {
		return Donation{}, err
	}

	switch r.status {
	case RequestPending:
	case RequestPartiallyFulfilled:
		if !policy.AcceptPartialDonations {
			return Donation{}, Errorf(KindInvalidState, "request %s is %s and no longer pending", r.ID, r.status)
		}
	default:
		return Donation{}, Errorf(KindInvalidState, "request %s is already %s", r.ID, r.status)
	}

	d := r.ledger.Append(actor.ID, quantity, now)
	r.recompute()
	r.UpdatedAt = now
	return d, nil
}

func (r *CharityRequest) Edit(patch RequestPatch, actor Actor, now time.Time, policy Policy) error {
	if actor.Role != RoleCharity || actor.ID != r.CharityID {
		return Errorf(KindForbidden, "only the owning charity can edit request %s", r.ID)
	}
	if policy.LockDonatedRequests && r.HasDonations() {
		return Errorf(KindInvalidState, "request %s already has donations", r.ID)
	}
	if patch.QuantityRequested != nil {
		return Errorf(KindInvalidArgument, "requested quantity cannot be changed after creation")
	}

	title := r.Title
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return Errorf(KindInvalidArgument, "title is required")
		}
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return Errorf(KindInvalidArgument, "unknown category %q", *patch.Category)
	}
	if patch.Unit != nil && !patch.Unit.Valid() {
		return Errorf(KindInvalidArgument, "unknown unit %q", *patch.Unit)
	}

	r.Title = title
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.Unit != nil {
		r.Unit = *patch.Unit
	}
	r.UpdatedAt = now
	return nil
}

func (r *CharityRequest) CanDelete(actor Actor, policy Policy) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleCharity:
		if actor.ID != r.CharityID {
			break
		}
		if policy.LockDonatedRequests && r.HasDonations() {
			return Errorf(KindInvalidState, "request %s already has donations", r.ID)
		}
		return nil
	}
	return Errorf(KindForbidden, "only the owning charity can delete request %s", r.ID)
}

type requestView struct {
	ID                string          `json:"id"`
	CharityID         string          `json:"charity_id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Category          Category        `json:"category"`
	Unit              Unit            `json:"unit"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityFulfilled decimal.Decimal `json:"quantity_fulfilled"`
	Status            RequestStatus   `json:"status"`
	Donations         []Donation      `json:"donations"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (r *CharityRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(requestView{
		ID:                r.ID,
		CharityID:         r.CharityID,
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Unit:              r.Unit,
		QuantityRequested: r.QuantityRequested,
		QuantityFulfilled: r.fulfilled,
		Status:            r.status,
		Donations:         r.ledger.Entries(),
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	})
}
