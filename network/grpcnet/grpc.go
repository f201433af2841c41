package grpcnet

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service uses protobuf well-known wrapper types so no protoc toolchain
// is needed. Equivalent proto:
//
//	service Ledger {
//	  rpc Submit(google.protobuf.BytesValue) returns (google.protobuf.StringValue);
//	  rpc TransactionStatus(google.protobuf.StringValue) returns (google.protobuf.StringValue);
//	  rpc AccountState(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	}
const serviceName = "shuffle.network.v1.Ledger"

const (
	methodSubmit            = "/" + serviceName + "/Submit"
	methodTransactionStatus = "/" + serviceName + "/TransactionStatus"
	methodAccountState      = "/" + serviceName + "/AccountState"
)

// LedgerServer is the server API for the Ledger gRPC service.
type LedgerServer interface {
	// Submit takes a canonically encoded signed transaction and returns its ref.
	Submit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	// TransactionStatus takes a ref and returns the status text.
	TransactionStatus(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	// AccountState takes an address and returns the encoded resource store.
	AccountState(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedLedgerServer can be embedded for forward compatibility.
type UnimplementedLedgerServer struct{}

func (UnimplementedLedgerServer) Submit(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Submit not implemented")
}
func (UnimplementedLedgerServer) TransactionStatus(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method TransactionStatus not implemented")
}
func (UnimplementedLedgerServer) AccountState(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method AccountState not implemented")
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&Ledger_ServiceDesc, srv)
}

// LedgerClient is the client API for the Ledger gRPC service.
type LedgerClient interface {
	Submit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	TransactionStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	AccountState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type ledgerClient struct{ cc grpc.ClientConnInterface }

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient { return &ledgerClient{cc: cc} }

func (c *ledgerClient) Submit(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodSubmit, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) TransactionStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, methodTransactionStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) AccountState(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodAccountState, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Ledger_Submit_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSubmit}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).Submit(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_TransactionStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).TransactionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTransactionStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).TransactionStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Ledger_AccountState_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).AccountState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAccountState}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LedgerServer).AccountState(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Ledger_ServiceDesc is the grpc.ServiceDesc for the Ledger service.
var Ledger_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: _Ledger_Submit_Handler},
		{MethodName: "TransactionStatus", Handler: _Ledger_TransactionStatus_Handler},
		{MethodName: "AccountState", Handler: _Ledger_AccountState_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger.proto",
}
