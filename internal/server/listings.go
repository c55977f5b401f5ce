package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type createListingRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        domain.Unit     `json:"unit"`
	Category    domain.Category `json:"category"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

type editListingRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *domain.Category `json:"category"`
	ExpiresAt   *time.Time       `json:"expires_at"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Unit        *domain.Unit     `json:"unit"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body createListingRequest
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := s.svc.CreateListing(r.Context(), actor, domain.ListingInput{
		Title:       body.Title,
		Description: body.Description,
		Quantity:    body.Quantity,
		Unit:        body.Unit,
		Category:    body.Category,
		ExpiresAt:   body.ExpiresAt,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.svc.GetListing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := s.svc.ListListings(r.Context(), domain.ListingFilter{
		Status:   domain.ListingStatus(q.Get("status")),
		Category: domain.Category(q.Get("category")),
		DonorID:  q.Get("donor_id"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	respondJSON(w, http.StatusOK, listings)
}

func (s *Server) handleClaimListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	listing, err := s.svc.ClaimListing(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleUpdateListingStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		Status domain.ListingStatus `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := s.svc.UpdateListingStatus(r.Context(), actor, mux.Vars(r)["id"], body.Status)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleEditListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body editListingRequest
	if !decodeBody(w, r, &body) {
		return
	}

	listing, err := s.svc.EditListing(r.Context(), actor, mux.Vars(r)["id"], domain.ListingPatch{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		ExpiresAt:   body.ExpiresAt,
		Quantity:    body.Quantity,
		Unit:        body.Unit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.svc.DeleteListing(r.Context(), actor, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "listing deleted", "id": id})
}
