package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"

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

var _ ExchangeServer = (*Server)(nil)

type Server struct {
	svc    Service
	auth   Authenticator
	logger *zap.Logger
	grpc   *grpc.Server
	health *health.Server
}

func NewServer(svc Service, authenticator Authenticator, logger *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		auth:   authenticator,
		logger: logger.With(zap.String("component", "grpc")),
		health: health.NewServer(),
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))
	s.grpc.RegisterService(&exchangeServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Run(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", port, err)
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server starting", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown drains in-flight calls and falls back to a hard stop when ctx
// expires first.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server shutdown completed")
	case <-ctx.Done():
		s.grpc.Stop()
		s.logger.Warn("gRPC server stopped before draining", zap.Error(ctx.Err()))
	}
}

func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	l := s.logger.With(zap.String("rpc_method", info.FullMethod))
	l.Debug("RPC call received")

	resp, err := handler(ctx, req)
	if err != nil {
		if kind := domain.KindOf(err); kind == domain.KindInternal {
			l.Error("RPC call failed", zap.Error(err))
		} else {
			l.Info("RPC call rejected", zap.String("kind", kind.String()), zap.Error(err))
		}
	}
	return resp, toStatus(err)
}

func (s *Server) authInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if info.FullMethod == loginMethod || strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
	}
	token, err := auth.BearerToken(header)
	if err != nil {
		return nil, err
	}
	actor, err := s.auth.Verify(token)
	if err != nil {
		return nil, err
	}
	return handler(auth.WithActor(ctx, actor), req)
}

func actorFrom(ctx context.Context) (domain.Actor, error) {
	actor, ok := auth.ActorFrom(ctx)
	if !ok {
		return domain.Actor{}, domain.Errorf(domain.KindUnauthenticated, "missing caller identity")
	}
	return actor, nil
}
