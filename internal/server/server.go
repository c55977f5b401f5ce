//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type Service interface {
	CreateListing(ctx context.Context, actor domain.Actor, in domain.ListingInput) (*domain.Listing, error)
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, error)
	ClaimListing(ctx context.Context, actor domain.Actor, id string) (*domain.Listing, error)
	UpdateListingStatus(ctx context.Context, actor domain.Actor, id string, to domain.ListingStatus) (*domain.Listing, error)
	EditListing(ctx context.Context, actor domain.Actor, id string, patch domain.ListingPatch) (*domain.Listing, error)
	DeleteListing(ctx context.Context, actor domain.Actor, id string) error

	CreateRequest(ctx context.Context, actor domain.Actor, in domain.RequestInput) (*domain.CharityRequest, error)
	GetRequest(ctx context.Context, id string) (*domain.CharityRequest, error)
	ListRequests(ctx context.Context, filter domain.RequestFilter) ([]*domain.CharityRequest, error)
	Donate(ctx context.Context, actor domain.Actor, id string, quantity decimal.Decimal) (*domain.CharityRequest, domain.Donation, error)
	EditRequest(ctx context.Context, actor domain.Actor, id string, patch domain.RequestPatch) (*domain.CharityRequest, error)
	DeleteRequest(ctx context.Context, actor domain.Actor, id string) error
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Verify(token string) (domain.Actor, error)
}

type Server struct {
	svc    Service
	auth   Authenticator
	logger *zap.Logger
	server *http.Server
}

func New(svc Service, authenticator Authenticator, logger *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		auth:   authenticator,
		logger: logger.With(zap.String("component", "http")),
	}
	s.server = &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Run(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	s.logger.Info("HTTP server starting", zap.String("port", port))
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server shutdown completed")
	return nil
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLogMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/auth/token", s.handleLogin).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/listings", s.handleCreateListing).Methods(http.MethodPost)
	api.HandleFunc("/listings", s.handleListListings).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", s.handleGetListing).Methods(http.MethodGet)
	api.HandleFunc("/listings/{id}", s.handleEditListing).Methods(http.MethodPatch)
	api.HandleFunc("/listings/{id}", s.handleDeleteListing).Methods(http.MethodDelete)
	api.HandleFunc("/listings/{id}/claim", s.handleClaimListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/status", s.handleUpdateListingStatus).Methods(http.MethodPut)

	api.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost)
	api.HandleFunc("/requests", s.handleListRequests).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}", s.handleGetRequest).Methods(http.MethodGet)
	api.HandleFunc("/requests/{id}", s.handleEditRequest).Methods(http.MethodPatch)
	api.HandleFunc("/requests/{id}", s.handleDeleteRequest).Methods(http.MethodDelete)
	api.HandleFunc("/requests/{id}/donations", s.handleDonate).Methods(http.MethodPost)

	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	token, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, token)
}
