package grpcnet

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrRejected is returned when the node refuses a transaction.
	ErrRejected = errors.New("grpcnet: transaction rejected")
	// ErrNotFound is returned for unknown refs and accounts.
	ErrNotFound = errors.New("grpcnet: not found")
)

// mapRPC turns gRPC status errors back into the package sentinels. The
// server's message is kept for the operator.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition, codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	default:
		return err
	}
}
