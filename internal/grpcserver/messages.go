package grpcserver

import (
	"time"

	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type CreateListingRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        domain.Unit     `json:"unit"`
	Category    domain.Category `json:"category"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

type ListListingsRequest struct {
	Status   domain.ListingStatus `json:"status"`
	Category domain.Category      `json:"category"`
	DonorID  string               `json:"donor_id"`
}

type ListListingsResponse struct {
	Listings []*domain.Listing `json:"listings"`
}

type UpdateListingStatusRequest struct {
	ID     string               `json:"id"`
	Status domain.ListingStatus `json:"status"`
}

type EditListingRequest struct {
	ID          string           `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *domain.Category `json:"category"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *domain.Unit     `json:"unit"`
}

type CreateRequestRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Category          domain.Category `json:"category"`
	Unit              domain.Unit     `json:"unit"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
}

type ListRequestsRequest struct {
	Status    domain.RequestStatus `json:"status"`
	Category  domain.Category      `json:"category"`
	CharityID string               `json:"charity_id"`
}

type ListRequestsResponse struct {
	Requests []*domain.CharityRequest `json:"requests"`
}

type DonateRequest struct {
	ID       string          `json:"id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type DonateResponse struct {
	Request  *domain.CharityRequest `json:"request"`
	Donation domain.Donation        `json:"donation"`
}

type EditRequestRequest struct {
	ID                string           `json:"id"`
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	Category          *domain.Category `json:"category"`
	Unit              *domain.Unit     `json:"unit"`
	QuantityRequested *decimal.Decimal `json:"quantity_requested"`
}

type Empty struct{}
