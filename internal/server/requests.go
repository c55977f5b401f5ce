package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type createRequestRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Category          domain.Category `json:"category"`
	Unit              domain.Unit     `json:"unit"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
}

type editRequestRequest struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	Category          *domain.Category `json:"category"`
	Unit              *domain.Unit     `json:"unit"`
	QuantityRequested *decimal.Decimal `json:"quantity_requested"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body createRequestRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.svc.CreateRequest(r.Context(), actor, domain.RequestInput{
		Title:             body.Title,
		Description:       body.Description,
		Category:          body.Category,
		Unit:              body.Unit,
		QuantityRequested: body.QuantityRequested,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.svc.GetRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := s.svc.ListRequests(r.Context(), domain.RequestFilter{
		Status:    domain.RequestStatus(q.Get("status")),
		Category:  domain.Category(q.Get("category")),
		CharityID: q.Get("charity_id"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*domain.CharityRequest{}
	}
	respondJSON(w, http.StatusOK, requests)
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		Quantity decimal.Decimal `json:"quantity"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	// The new ledger entry is the last of the request's donations.
	req, _, err := s.svc.Donate(r.Context(), actor, mux.Vars(r)["id"], body.Quantity)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleEditRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	var body editRequestRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.svc.EditRequest(r.Context(), actor, mux.Vars(r)["id"], domain.RequestPatch{
		Title:             body.Title,
		Description:       body.Description,
		Category:          body.Category,
		Unit:              body.Unit,
		QuantityRequested: body.QuantityRequested,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actorFrom(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.svc.DeleteRequest(r.Context(), actor, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "request deleted", "id": id})
}
