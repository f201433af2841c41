package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/network/grpcnet"
	"shuffle.dev/shuffle/nodeconfig"
	"shuffle.dev/shuffle/project"
	"shuffle.dev/shuffle/submit"
	"shuffle.dev/shuffle/txn"
)

const (
	txExpiry     = 10 * time.Minute
	maxGasAmount = 1_000_000
)

// networkAddr picks the node endpoint: --network, then the enclosing
// project's Shuffle.toml, then SHUFFLE_NETWORK.
func (a *app) networkAddr() string {
	if a.networkFlag {
		return a.env.Network
	}
	if cwd, err := os.Getwd(); err == nil {
		if _, cfg, err := project.Discover(cwd); err == nil && cfg.Network != "" {
			return cfg.Network
		}
	}
	return a.env.Network
}

func (a *app) dial() (*grpcnet.Client, error) {
	addr := a.networkAddr()
	a.logger.Debug().Str("network", addr).Msg("connecting")
	return grpcnet.Dial(addr, grpcnet.DialOptions{Timeout: 10 * time.Second})
}

// chainID reads the local node.yaml when present.
func (a *app) chainID() (uint8, error) {
	l, err := a.layout()
	if err != nil {
		return 0, err
	}
	cfg, err := nodeconfig.Load(l.NodeConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nodeconfig.DefaultChainID, nil
	}
	if err != nil {
		return 0, err
	}
	return cfg.ChainID, nil
}

func (a *app) sequenceNumber(client *grpcnet.Client, addr keys.Address) (uint64, error) {
	st, err := client.AccountState(a.ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("fetch account %s: %w", addr, err)
	}
	res, err := st.AccountResource()
	if err != nil {
		return 0, err
	}
	if res == nil {
		return 0, fmt.Errorf("account %s has no account resource", addr)
	}
	return res.SequenceNumber, nil
}

func (a *app) buildAndSign(client *grpcnet.Client, signer *keys.Credential, payload txn.Payload) (*txn.SignedTransaction, error) {
	seq, err := a.sequenceNumber(client, signer.Address)
	if err != nil {
		return nil, err
	}
	chain, err := a.chainID()
	if err != nil {
		return nil, err
	}
	return txn.Sign(txn.RawTransaction{
		Sender:                  signer.Address,
		SequenceNumber:          seq,
		Payload:                 payload,
		MaxGasAmount:            maxGasAmount,
		ExpirationTimestampSecs: uint64(time.Now().Add(txExpiry).Unix()),
		ChainID:                 chain,
	}, signer)
}

func (a *app) send(client submit.Client, tx *txn.SignedTransaction) error {
	return submit.SubmitAndConfirm(a.ctx, client, tx,
		submit.WithTimeout(a.env.ConfirmTimeout),
		submit.WithPollInterval(a.env.PollInterval),
		submit.WithLogger(a.logger),
	)
}
