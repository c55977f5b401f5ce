package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	// A lost claim race is a 400 too; the body's error kind tells it apart.
	case domain.KindInvalidTransition, domain.KindInvalidState, domain.KindInvalidArgument, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		// the cause is logged, never sent
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: kind.String(), Message: "internal server error"})
		return
	}
	respondJSON(w, statusFor(kind), errorBody{Error: kind.String(), Message: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error:   domain.KindInvalidArgument.String(),
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

// actorFrom is only reached behind authMiddleware.
func (s *Server) actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		s.respondError(w, r, domain.Errorf(domain.KindUnauthenticated, "missing caller identity"))
		return domain.Actor{}, false
	}
	return actor, true
}
