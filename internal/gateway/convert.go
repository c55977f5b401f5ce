package gateway

import (
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

func listingFromRow(r *repository.Listing) *domain.Listing {
	return &domain.Listing{
		ID:          r.ID,
		DonorID:     r.DonorID,
		Title:       r.Title,
		Description: r.Description,
		Quantity:    r.Quantity,
		Unit:        domain.Unit(r.Unit),
		Category:    domain.Category(r.Category),
		ExpiresAt:   r.ExpiresAt.UTC(),
		Status:      domain.ListingStatus(r.Status),
		ClaimantID:  derefString(r.ClaimantID),
		VolunteerID: derefString(r.VolunteerID),
		Version:     r.Version,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func listingToRow(l *domain.Listing) *repository.Listing {
	return &repository.Listing{
		ID:          l.ID,
		DonorID:     l.DonorID,
		Title:       l.Title,
		Description: l.Description,
		Quantity:    l.Quantity,
		Unit:        string(l.Unit),
		Category:    string(l.Category),
		ExpiresAt:   l.ExpiresAt,
		Status:      string(l.Status),
		ClaimantID:  optionalString(l.ClaimantID),
		VolunteerID: optionalString(l.VolunteerID),
		Version:     l.Version,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// requestFromRow rebuilds a request from its row and stored ledger. The
// fulfilled quantity and status come from the ledger, never from the row.
func requestFromRow(r *repository.CharityRequest, donations []*repository.Donation) (*domain.CharityRequest, error) {
	req := &domain.CharityRequest{
		ID:                r.ID,
		CharityID:         r.CharityID,
		Title:             r.Title,
		Description:       r.Description,
		Category:          domain.Category(r.Category),
		Unit:              domain.Unit(r.Unit),
		QuantityRequested: r.QuantityRequested,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}

	entries := make([]domain.Donation, len(donations))
	for i, d := range donations {
		entries[i] = domain.Donation{
			Seq:       d.Seq,
			DonorID:   d.DonorID,
			Quantity:  d.Quantity,
			DonatedAt: d.DonatedAt.UTC(),
		}
	}
	if err := req.ReplayLedger(entries); err != nil {
		return nil, err
	}
	return req, nil
}

func requestToRow(req *domain.CharityRequest) *repository.CharityRequest {
	return &repository.CharityRequest{
		ID:                req.ID,
		CharityID:         req.CharityID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          string(req.Category),
		Unit:              string(req.Unit),
		QuantityRequested: req.QuantityRequested,
		QuantityFulfilled: req.QuantityFulfilled(),
		Status:            string(req.Status()),
		Version:           req.Version,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
	}
}

func donationToRow(requestID string, d domain.Donation) *repository.Donation {
	return &repository.Donation{
		RequestID: requestID,
		Seq:       d.Seq,
		DonorID:   d.DonorID,
		Quantity:  d.Quantity,
		DonatedAt: d.DonatedAt,
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
