package repository

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrObjectNotFound = errors.New("not found")
	// ErrVersionConflict means the row changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Listing struct {
	ID          string          `db:"id"`
	DonorID     string          `db:"donor_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Quantity    decimal.Decimal `db:"quantity"`
	Unit        string          `db:"unit"`
	Category    string          `db:"category"`
	ExpiresAt   time.Time       `db:"expires_at"`
	Status      string          `db:"status"`
	ClaimantID  *string         `db:"claimant_id"`
	VolunteerID *string         `db:"volunteer_id"`
	Version     int64           `db:"version"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

type ListingFilter struct {
	Status   string
	Category string
	DonorID  string
	Limit    int
}

type CharityRequest struct {
	ID                string          `db:"id"`
	CharityID         string          `db:"charity_id"`
	Title             string          `db:"title"`
	Description       string          `db:"description"`
	Category          string          `db:"category"`
	Unit              string          `db:"unit"`
	QuantityRequested decimal.Decimal `db:"quantity_requested"`
	QuantityFulfilled decimal.Decimal `db:"quantity_fulfilled"`
	Status            string          `db:"status"`
	Version           int64           `db:"version"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

type RequestFilter struct {
	Status    string
	Category  string
	CharityID string
	Limit     int
}

type Donation struct {
	RequestID string          `db:"request_id"`
	Seq       int             `db:"seq"`
	DonorID   string          `db:"donor_id"`
	Quantity  decimal.Decimal `db:"quantity"`
	DonatedAt time.Time       `db:"donated_at"`
}

type User struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}
