package grpcserver

import (
	"context"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

func (s *Server) Login(ctx context.Context, req *LoginRequest) (*auth.Token, error) {
	token, err := s.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *Server) CreateListing(ctx context.Context, req *CreateListingRequest) (*domain.Listing, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.CreateListing(ctx, actor, domain.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		Category:    req.Category,
		ExpiresAt:   req.ExpiresAt,
	})
}

func (s *Server) GetListing(ctx context.Context, req *IDRequest) (*domain.Listing, error) {
	return s.svc.GetListing(ctx, req.ID)
}

func (s *Server) ListListings(ctx context.Context, req *ListListingsRequest) (*ListListingsResponse, error) {
	listings, err := s.svc.ListListings(ctx, domain.ListingFilter{
		Status:   req.Status,
		Category: req.Category,
		DonorID:  req.DonorID,
	})
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	return &ListListingsResponse{Listings: listings}, nil
}

func (s *Server) ClaimListing(ctx context.Context, req *IDRequest) (*domain.Listing, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.ClaimListing(ctx, actor, req.ID)
}

func (s *Server) UpdateListingStatus(ctx context.Context, req *UpdateListingStatusRequest) (*domain.Listing, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.UpdateListingStatus(ctx, actor, req.ID, req.Status)
}

func (s *Server) EditListing(ctx context.Context, req *EditListingRequest) (*domain.Listing, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.EditListing(ctx, actor, req.ID, domain.ListingPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ExpiresAt:   req.ExpiresAt,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
	})
}

func (s *Server) DeleteListing(ctx context.Context, req *IDRequest) (*Empty, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteListing(ctx, actor, req.ID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *Server) CreateRequest(ctx context.Context, req *CreateRequestRequest) (*domain.CharityRequest, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.CreateRequest(ctx, actor, domain.RequestInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Unit:              req.Unit,
		QuantityRequested: req.QuantityRequested,
	})
}

func (s *Server) GetRequest(ctx context.Context, req *IDRequest) (*domain.CharityRequest, error) {
	return s.svc.GetRequest(ctx, req.ID)
}

func (s *Server) ListRequests(ctx context.Context, req *ListRequestsRequest) (*ListRequestsResponse, error) {
	requests, err := s.svc.ListRequests(ctx, domain.RequestFilter{
		Status:    req.Status,
		Category:  req.Category,
		CharityID: req.CharityID,
	})
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.CharityRequest{}
	}
	return &ListRequestsResponse{Requests: requests}, nil
}

func (s *Server) Donate(ctx context.Context, req *DonateRequest) (*DonateResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	updated, donation, err := s.svc.Donate(ctx, actor, req.ID, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &DonateResponse{Request: updated, Donation: donation}, nil
}

func (s *Server) EditRequest(ctx context.Context, req *EditRequestRequest) (*domain.CharityRequest, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.svc.EditRequest(ctx, actor, req.ID, domain.RequestPatch{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Unit:              req.Unit,
		QuantityRequested: req.QuantityRequested,
	})
}

func (s *Server) DeleteRequest(ctx context.Context, req *IDRequest) (*Empty, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.DeleteRequest(ctx, actor, req.ID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}
