// Package devnet is a single-node development ledger.
//
// It admits signed transactions, keeps them Pending for a configurable delay
// and then executes them in submission order against per-account resource
// stores. It satisfies submit.Client, so the submission protocol can be
// driven end to end without a real network.
package devnet

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"shuffle.dev/shuffle/accountstate"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/storage"
	"shuffle.dev/shuffle/storage/memcas"
	"shuffle.dev/shuffle/txn"
)

const DefaultChainID uint8 = 4

type Config struct {
	ChainID uint8
	// ConfirmDelay is how long a transaction stays pending before Step
	// executes it.
	ConfirmDelay time.Duration
	// CAS receives the bytes of every admitted transaction. Defaults to an
	// in-memory store.
	CAS    storage.CAS
	Now    func() time.Time
	Logger zerolog.Logger
}

type pendingTx struct {
	ref      cid.Cid
	tx       *txn.SignedTransaction
	admitted time.Time
}

// Ledger is safe for concurrent use.
type Ledger struct {
	cfg Config

	mu       sync.Mutex
	accounts map[keys.Address]*accountstate.State
	statuses map[cid.Cid]txn.Status
	nextSeq  map[keys.Address]uint64
	pending  []pendingTx
}

func New(cfg Config) *Ledger {
	if cfg.ChainID == 0 {
		cfg.ChainID = DefaultChainID
	}
	if cfg.CAS == nil {
		cfg.CAS = memcas.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Ledger{
		cfg:      cfg,
		accounts: make(map[keys.Address]*accountstate.State),
		statuses: make(map[cid.Cid]txn.Status),
		nextSeq:  make(map[keys.Address]uint64),
	}
}

func (l *Ledger) ChainID() uint8 { return l.cfg.ChainID }

// Genesis creates the root account owned by cred with the given balance.
func (l *Ledger) Genesis(cred *keys.Credential, balance uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[cred.Address]; ok {
		return ErrAccountExists
	}
	l.accounts[cred.Address] = accountstate.FromAccountResource(newAccount(cred.Address, cred.AuthenticationKey(), balance))
	l.cfg.Logger.Info().Stringer("address", cred.Address).Uint64("balance", balance).Msg("genesis account created")
	return nil
}

// Submit admits tx or returns an error wrapping ErrRejected.
func (l *Ledger) Submit(ctx context.Context, tx *txn.SignedTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx == nil {
		return reject(ErrMalformed, "nil transaction")
	}
	if err := tx.Verify(); err != nil {
		return reject(ErrMalformed, "%v", err)
	}
	if tx.Raw.ChainID != l.cfg.ChainID {
		return reject(ErrWrongChain, "got %d want %d", tx.Raw.ChainID, l.cfg.ChainID)
	}
	now := l.cfg.Now()
	if tx.Raw.ExpirationTimestampSecs <= uint64(now.Unix()) {
		return reject(ErrExpired, "")
	}
	ref, err := tx.Ref()
	if err != nil {
		return reject(ErrMalformed, "%v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.statuses[ref]; ok {
		return reject(ErrDuplicate, "%s", ref)
	}
	sender := tx.Raw.Sender
	st, ok := l.accounts[sender]
	if !ok {
		return reject(ErrUnknownSender, "%s", sender)
	}
	res, err := st.AccountResource()
	if err != nil || res == nil {
		return reject(ErrUnknownSender, "%s", sender)
	}
	if !bytes.Equal(keys.AuthenticationKey(tx.PublicKey), res.AuthenticationKey) {
		return reject(ErrAuthKeyMismatch, "%s", sender)
	}
	want, ok := l.nextSeq[sender]
	if !ok {
		want = res.SequenceNumber
	}
	if tx.Raw.SequenceNumber != want {
		return reject(ErrSequenceMismatch, "got %d want %d", tx.Raw.SequenceNumber, want)
	}

	if _, err := storage.PutTransaction(l.cfg.CAS, tx); err != nil {
		return err
	}
	l.nextSeq[sender] = want + 1
	l.statuses[ref] = txn.StatusPending
	l.pending = append(l.pending, pendingTx{ref: ref, tx: tx, admitted: now})
	l.cfg.Logger.Debug().Stringer("ref", ref).Stringer("sender", sender).Uint64("seq", want).Msg("transaction admitted")
	return nil
}

func (l *Ledger) TransactionStatus(ctx context.Context, ref cid.Cid) (txn.Status, error) {
	if err := ctx.Err(); err != nil {
		return txn.Status{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.statuses[ref]
	if !ok {
		return txn.Status{}, ErrUnknownTransaction
	}
	return s, nil
}

// AccountState returns a copy of the account's resource store.
func (l *Ledger) AccountState(ctx context.Context, addr keys.Address) (*accountstate.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.accounts[addr]
	if !ok {
		return nil, ErrUnknownAccount
	}
	return st.Clone(), nil
}

// Transaction returns an admitted transaction by ref.
func (l *Ledger) Transaction(ref cid.Cid) (*txn.SignedTransaction, error) {
	tx, err := storage.GetTransaction(l.cfg.CAS, ref)
	if storage.IsNotFound(err) {
		return nil, ErrUnknownTransaction
	}
	return tx, err
}

// Pending reports how many admitted transactions await execution.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Step executes, in submission order, every pending transaction that has
// waited at least ConfirmDelay. It returns how many were executed.
func (l *Ledger) Step() int {
	return l.execute(false)
}

// Flush executes every pending transaction regardless of ConfirmDelay.
func (l *Ledger) Flush() int {
	return l.execute(true)
}

func (l *Ledger) execute(all bool) int {
	now := l.cfg.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for len(l.pending) > 0 {
		p := l.pending[0]
		if !all && now.Sub(p.admitted) < l.cfg.ConfirmDelay {
			break
		}
		l.pending = l.pending[1:]
		status := l.apply(p.tx)
		l.statuses[p.ref] = status
		n++
		ev := l.cfg.Logger.Debug()
		if status.State == txn.Aborted {
			ev = l.cfg.Logger.Info()
		}
		ev.Stringer("ref", p.ref).Stringer("status", status).Msg("transaction executed")
	}
	return n
}

// Run steps the ledger every interval until ctx is done.
func (l *Ledger) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			l.Step()
		}
	}
}

func newAccount(addr keys.Address, authKey []byte, balance uint64) *accountstate.AccountResource {
	return &accountstate.AccountResource{
		AuthenticationKey: append([]byte(nil), authKey...),
		Balance:           balance,
		SentEvents:        accountstate.EventHandle{Key: eventKey(addr, 0)},
		ReceivedEvents:    accountstate.EventHandle{Key: eventKey(addr, 1)},
	}
}

// eventKey is the creation counter followed by the account address.
func eventKey(addr keys.Address, n byte) []byte {
	k := make([]byte, 8, 8+keys.AddressLength)
	k[0] = n
	return append(k, addr[:]...)
}
