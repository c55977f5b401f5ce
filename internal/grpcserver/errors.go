package grpcserver

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

func codeFor(kind domain.Kind) codes.Code {
	switch kind {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindForbidden:
		return codes.PermissionDenied
	case domain.KindInvalidTransition, domain.KindInvalidState:
		return codes.FailedPrecondition
	case domain.KindInvalidArgument:
		return codes.InvalidArgument
	case domain.KindConflict:
		return codes.Aborted
	case domain.KindUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// toStatus converts err into a gRPC status error. Internal causes are not
// exposed to the caller.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(codeFor(kind), err.Error())
}
