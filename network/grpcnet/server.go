package grpcnet

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"shuffle.dev/shuffle/accountstate"
	"shuffle.dev/shuffle/cidutil"
	"shuffle.dev/shuffle/devnet"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/txn"
)

// Backend is what the server exposes. *devnet.Ledger implements it.
type Backend interface {
	Submit(ctx context.Context, tx *txn.SignedTransaction) error
	TransactionStatus(ctx context.Context, ref cid.Cid) (txn.Status, error)
	AccountState(ctx context.Context, addr keys.Address) (*accountstate.State, error)
}

// Server exposes a Backend over the Ledger gRPC service.
type Server struct {
	UnimplementedLedgerServer
	Backend Backend
	Logger  zerolog.Logger
}

// NewGRPCServer returns a gRPC server with tracing stats and the Ledger
// service registered for backend.
func NewGRPCServer(backend Backend, logger zerolog.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	s := grpc.NewServer(opts...)
	RegisterLedgerServer(s, &Server{Backend: backend, Logger: logger})
	return s
}

func (s *Server) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	tx, err := txn.Decode(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode transaction: %v", err)
	}
	ref, err := tx.Ref()
	if err != nil {
		return nil, status.Error(codes.Internal, "cid computation failed")
	}
	if err := s.Backend.Submit(ctx, tx); err != nil {
		s.Logger.Debug().Err(err).Stringer("ref", ref).Msg("submit refused")
		return nil, mapErr(err)
	}
	return wrapperspb.String(ref.String()), nil
}

func (s *Server) TransactionStatus(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	ref, err := cidutil.Parse(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid ref: %v", err)
	}
	st, err := s.Backend.TransactionStatus(ctx, ref)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(st.String()), nil
}

func (s *Server) AccountState(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	addr, err := keys.ParseAddress(in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid address: %v", err)
	}
	st, err := s.Backend.AccountState(ctx, addr)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(st.MarshalBCS()), nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, devnet.ErrRejected):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, devnet.ErrUnknownTransaction), errors.Is(err, devnet.ErrUnknownAccount):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
