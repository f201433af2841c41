package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"shuffle.dev/shuffle/home"
	"shuffle.dev/shuffle/internal/config"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/network/grpcnet"
	"shuffle.dev/shuffle/nodeconfig"
	"shuffle.dev/shuffle/submit"
	"shuffle.dev/shuffle/txn"
)

func TestRunWithoutConfigFails(t *testing.T) {
	t.Setenv("SHUFFLE_HOME", t.TempDir())
	require.Equal(t, 1, run(context.Background(), nil, io.Discard))
}

func TestRunRejectsArguments(t *testing.T) {
	t.Setenv("SHUFFLE_HOME", t.TempDir())
	require.Equal(t, 1, run(context.Background(), []string{"extra"}, io.Discard))
}

func TestServeAcceptsTransactions(t *testing.T) {
	dir := t.TempDir()
	l := home.Resolve(dir)
	casDir := filepath.Join(dir, "cas")
	require.NoError(t, nodeconfig.Write(l.NodeConfigPath, nodeconfig.Config{
		ChainID:        7,
		GRPCListen:     "127.0.0.1:0",
		ConfirmDelay:   20 * time.Millisecond,
		InitialBalance: 500,
		CASDir:         casDir,
	}))
	mint, err := keys.Generate(nil)
	require.NoError(t, err)
	require.NoError(t, keys.SaveKey(l.RootKeyPath, mint))

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, config.Env{Home: dir}, options{ready: func(a string) { addrCh <- a }}, zerolog.Nop())
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("devnet did not start")
	}

	client, err := grpcnet.Dial(addr, grpcnet.DialOptions{Timeout: 2 * time.Second})
	require.NoError(t, err)
	defer client.Close()

	tx, err := txn.Sign(txn.RawTransaction{
		Sender:                  mint.Address,
		Payload:                 txn.Transfer{Recipient: mint.Address, Amount: 1},
		ExpirationTimestampSecs: uint64(time.Now().Add(time.Minute).Unix()),
		ChainID:                 7,
	}, mint)
	require.NoError(t, err)
	require.NoError(t, submit.SubmitAndConfirm(ctx, client, tx,
		submit.WithTimeout(5*time.Second), submit.WithPollInterval(5*time.Millisecond)))

	st, err := client.AccountState(ctx, mint.Address)
	require.NoError(t, err)
	res, err := st.AccountResource()
	require.NoError(t, err)
	require.EqualValues(t, 500, res.Balance)
	require.EqualValues(t, 1, res.SequenceNumber)

	ref, err := tx.Ref()
	require.NoError(t, err)
	s := ref.String()
	require.FileExists(t, filepath.Join(casDir, s[len(s)-2:], s))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("devnet did not stop")
	}
}
