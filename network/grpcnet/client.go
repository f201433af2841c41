// Package grpcnet carries the ledger protocol over gRPC: submission, status
// polling and account state queries.
package grpcnet

import (
	"context"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"shuffle.dev/shuffle/accountstate"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/txn"
)

// Client implements submit.Client against a remote node.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

// Dial creates a client for target. The connection is established lazily.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpcnet: dial %s: %w", target, err)
	}
	return &Client{cc: cc, client: NewLedgerClient(cc), Timeout: opts.Timeout}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Submit(ctx context.Context, tx *txn.SignedTransaction) error {
	b, err := tx.MarshalBCS()
	if err != nil {
		return err
	}
	want, err := tx.Ref()
	if err != nil {
		return err
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(b))
	if err != nil {
		return mapRPC(err)
	}
	if reply.GetValue() != want.String() {
		return fmt.Errorf("grpcnet: node acknowledged ref %s, expected %s", reply.GetValue(), want)
	}
	return nil
}

func (c *Client) TransactionStatus(ctx context.Context, ref cid.Cid) (txn.Status, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.TransactionStatus(ctx, wrapperspb.String(ref.String()))
	if err != nil {
		return txn.Status{}, mapRPC(err)
	}
	return txn.ParseStatus(reply.GetValue())
}

func (c *Client) AccountState(ctx context.Context, addr keys.Address) (*accountstate.State, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.AccountState(ctx, wrapperspb.String(addr.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	return accountstate.Decode(reply.GetValue())
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
