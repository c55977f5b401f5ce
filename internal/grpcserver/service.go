package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

const ServiceName = "foodshare.v1.Exchange"

const loginMethod = "/" + ServiceName + "/Login"

// ExchangeServer is the RPC surface. Requests and responses travel as JSON.
type ExchangeServer interface {
	Login(ctx context.Context, req *LoginRequest) (*auth.Token, error)

	CreateListing(ctx context.Context, req *CreateListingRequest) (*domain.Listing, error)
	GetListing(ctx context.Context, req *IDRequest) (*domain.Listing, error)
	ListListings(ctx context.Context, req *ListListingsRequest) (*ListListingsResponse, error)
	ClaimListing(ctx context.Context, req *IDRequest) (*domain.Listing, error)
	UpdateListingStatus(ctx context.Context, req *UpdateListingStatusRequest) (*domain.Listing, error)
	EditListing(ctx context.Context, req *EditListingRequest) (*domain.Listing, error)
	DeleteListing(ctx context.Context, req *IDRequest) (*Empty, error)

	CreateRequest(ctx context.Context, req *CreateRequestRequest) (*domain.CharityRequest, error)
	GetRequest(ctx context.Context, req *IDRequest) (*domain.CharityRequest, error)
	ListRequests(ctx context.Context, req *ListRequestsRequest) (*ListRequestsResponse, error)
	Donate(ctx context.Context, req *DonateRequest) (*DonateResponse, error)
	EditRequest(ctx context.Context, req *EditRequestRequest) (*domain.CharityRequest, error)
	DeleteRequest(ctx context.Context, req *IDRequest) (*Empty, error)
}

var exchangeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", ExchangeServer.Login),
		unary("CreateListing", ExchangeServer.CreateListing),
		unary("GetListing", ExchangeServer.GetListing),
		unary("ListListings", ExchangeServer.ListListings),
		unary("ClaimListing", ExchangeServer.ClaimListing),
		unary("UpdateListingStatus", ExchangeServer.UpdateListingStatus),
		unary("EditListing", ExchangeServer.EditListing),
		unary("DeleteListing", ExchangeServer.DeleteListing),
		unary("CreateRequest", ExchangeServer.CreateRequest),
		unary("GetRequest", ExchangeServer.GetRequest),
		unary("ListRequests", ExchangeServer.ListRequests),
		unary("Donate", ExchangeServer.Donate),
		unary("EditRequest", ExchangeServer.EditRequest),
		unary("DeleteRequest", ExchangeServer.DeleteRequest),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodshare/v1/exchange",
}

// unary builds the method descriptor a protoc plugin would generate for one
// request/response call.
func unary[Req, Resp any](name string, call func(ExchangeServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ExchangeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ExchangeServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
