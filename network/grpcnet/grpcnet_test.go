package grpcnet

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"shuffle.dev/shuffle/devnet"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/submit"
	"shuffle.dev/shuffle/txn"
)

func startNode(t *testing.T) (*devnet.Ledger, *keys.Credential, *Client) {
	t.Helper()
	ledger := devnet.New(devnet.Config{})
	root, err := keys.Generate(nil)
	require.NoError(t, err)
	require.NoError(t, ledger.Genesis(root, 1_000))

	lis := bufconn.Listen(1024 * 1024)
	srv := NewGRPCServer(ledger, zerolog.Nop())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := Dial("passthrough:///bufnet", DialOptions{
		Timeout: 2 * time.Second,
		Extra:   []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return ledger, root, client
}

func transfer(t *testing.T, from *keys.Credential, to keys.Address, seq, amount uint64) *txn.SignedTransaction {
	t.Helper()
	tx, err := txn.Sign(txn.RawTransaction{
		Sender:                  from.Address,
		SequenceNumber:          seq,
		Payload:                 txn.Transfer{Recipient: to, Amount: amount},
		MaxGasAmount:            1_000_000,
		ExpirationTimestampSecs: uint64(time.Now().Add(time.Minute).Unix()),
		ChainID:                 devnet.DefaultChainID,
	}, from)
	require.NoError(t, err)
	return tx
}

func TestSubmitStatusAndState(t *testing.T) {
	ledger, root, client := startNode(t)
	ctx := context.Background()

	tx := transfer(t, root, root.Address, 0, 5)
	require.NoError(t, client.Submit(ctx, tx))

	ref, err := tx.Ref()
	require.NoError(t, err)
	st, err := client.TransactionStatus(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, txn.StatusPending, st)

	ledger.Flush()
	st, err = client.TransactionStatus(ctx, ref)
	require.NoError(t, err)
	require.Equal(t, txn.StatusExecuted, st)

	state, err := client.AccountState(ctx, root.Address)
	require.NoError(t, err)
	res, err := state.AccountResource()
	require.NoError(t, err)
	require.EqualValues(t, 1, res.SequenceNumber)
	require.Equal(t, root.AuthenticationKey(), res.AuthenticationKey)
}

func TestRejectionAndNotFoundMapping(t *testing.T) {
	_, root, client := startNode(t)
	ctx := context.Background()

	err := client.Submit(ctx, transfer(t, root, root.Address, 9, 1))
	require.ErrorIs(t, err, ErrRejected)
	require.Contains(t, err.Error(), "unexpected sequence number")

	stranger, err := keys.Generate(nil)
	require.NoError(t, err)
	_, err = client.AccountState(ctx, stranger.Address)
	require.ErrorIs(t, err, ErrNotFound)

	ref, err := transfer(t, stranger, root.Address, 0, 1).Ref()
	require.NoError(t, err)
	_, err = client.TransactionStatus(ctx, ref)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServerRejectsMalformedInput(t *testing.T) {
	_, _, client := startNode(t)
	ctx := context.Background()

	_, err := client.client.Submit(ctx, wrapperspb.Bytes([]byte{0xff}))
	require.ErrorIs(t, mapRPC(err), ErrRejected)

	_, err = client.client.TransactionStatus(ctx, wrapperspb.String("not-a-cid"))
	require.ErrorIs(t, mapRPC(err), ErrRejected)

	_, err = client.client.AccountState(ctx, wrapperspb.String("zz"))
	require.ErrorIs(t, mapRPC(err), ErrRejected)
}

func TestSubmitAndConfirmOverGRPC(t *testing.T) {
	ledger, root, client := startNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ledger.Run(ctx, 5*time.Millisecond) }()

	opts := []submit.Option{submit.WithTimeout(5 * time.Second), submit.WithPollInterval(5 * time.Millisecond)}
	require.NoError(t, submit.SubmitAndConfirm(ctx, client, transfer(t, root, root.Address, 0, 1), opts...))

	err := submit.SubmitAndConfirm(ctx, client, transfer(t, root, root.Address, 1, 10_000), opts...)
	require.True(t, submit.IsKind(err, submit.KindExecutionFailed))
	var e *submit.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, devnet.VMInsufficientBalance, e.Status.VMStatus)
}

func TestUnimplementedServer(t *testing.T) {
	var s UnimplementedLedgerServer
	_, err := s.Submit(context.Background(), nil)
	require.Error(t, err)
}
