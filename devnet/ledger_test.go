package devnet

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/storage/memcas"
	"shuffle.dev/shuffle/submit"
	"shuffle.dev/shuffle/txn"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ledger *Ledger
	clock  *clock
	root   *keys.Credential
	cas    *memcas.CAS
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	cas := memcas.New()
	l := New(Config{ConfirmDelay: delay, CAS: cas, Now: c.Now})
	root, err := keys.Generate(nil)
	require.NoError(t, err)
	require.NoError(t, l.Genesis(root, 1_000))
	return &fixture{ledger: l, clock: c, root: root, cas: cas}
}

func (f *fixture) sign(t *testing.T, from *keys.Credential, seq uint64, p txn.Payload) *txn.SignedTransaction {
	t.Helper()
	tx, err := txn.Sign(txn.RawTransaction{
		Sender:                  from.Address,
		SequenceNumber:          seq,
		Payload:                 p,
		MaxGasAmount:            1_000_000,
		ExpirationTimestampSecs: uint64(f.clock.Now().Add(time.Minute).Unix()),
		ChainID:                 DefaultChainID,
	}, from)
	require.NoError(t, err)
	return tx
}

func (f *fixture) balance(t *testing.T, addr keys.Address) (balance, seq uint64) {
	t.Helper()
	st, err := f.ledger.AccountState(context.Background(), addr)
	require.NoError(t, err)
	r, err := st.AccountResource()
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.Balance, r.SequenceNumber
}

func (f *fixture) status(t *testing.T, tx *txn.SignedTransaction) txn.Status {
	t.Helper()
	ref, err := tx.Ref()
	require.NoError(t, err)
	s, err := f.ledger.TransactionStatus(context.Background(), ref)
	require.NoError(t, err)
	return s
}

func (f *fixture) createAccount(t *testing.T, seq uint64, initial uint64) *keys.Credential {
	t.Helper()
	acct, err := keys.Generate(nil)
	require.NoError(t, err)
	tx := f.sign(t, f.root, seq, txn.CreateAccount{Address: acct.Address, AuthenticationKey: acct.AuthenticationKey(), InitialBalance: initial})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()
	require.Equal(t, txn.StatusExecuted, f.status(t, tx))
	return acct
}

func TestGenesisOnce(t *testing.T) {
	f := newFixture(t, 0)
	require.ErrorIs(t, f.ledger.Genesis(f.root, 1), ErrAccountExists)

	bal, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 1_000, bal)
	require.Zero(t, seq)
}

func TestTransferPendingThenExecuted(t *testing.T) {
	f := newFixture(t, time.Second)
	bob := f.createAccount(t, 0, 100)

	tx := f.sign(t, f.root, 1, txn.Transfer{Recipient: bob.Address, Amount: 250})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	require.Equal(t, txn.StatusPending, f.status(t, tx))

	require.Zero(t, f.ledger.Step())
	require.Equal(t, txn.StatusPending, f.status(t, tx))

	f.clock.Advance(time.Second)
	require.Equal(t, 1, f.ledger.Step())
	require.Equal(t, txn.StatusExecuted, f.status(t, tx))

	bal, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 650, bal)
	require.EqualValues(t, 2, seq)
	bal, _ = f.balance(t, bob.Address)
	require.EqualValues(t, 350, bal)
}

func TestInsufficientBalanceAbortsAndBumpsSequence(t *testing.T) {
	f := newFixture(t, 0)
	bob := f.createAccount(t, 0, 0)

	tx := f.sign(t, f.root, 1, txn.Transfer{Recipient: bob.Address, Amount: 5_000})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()

	require.Equal(t, txn.AbortedWith(VMInsufficientBalance), f.status(t, tx))
	bal, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 1_000, bal)
	require.EqualValues(t, 2, seq)
}

func TestCreateExistingAccountAborts(t *testing.T) {
	f := newFixture(t, 0)
	bob := f.createAccount(t, 0, 10)

	tx := f.sign(t, f.root, 1, txn.CreateAccount{Address: bob.Address, AuthenticationKey: bob.AuthenticationKey()})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()
	require.Equal(t, txn.AbortedWith(VMAccountExists), f.status(t, tx))
}

func TestCreateAccountRejectsForeignAuthKey(t *testing.T) {
	f := newFixture(t, 0)
	a, err := keys.Generate(nil)
	require.NoError(t, err)
	b, err := keys.Generate(nil)
	require.NoError(t, err)

	tx := f.sign(t, f.root, 0, txn.CreateAccount{Address: a.Address, AuthenticationKey: b.AuthenticationKey()})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()
	require.Equal(t, txn.AbortedWith(VMInvalidAuthKey), f.status(t, tx))
}

func TestTransferToUnknownAccountAborts(t *testing.T) {
	f := newFixture(t, 0)
	ghost, err := keys.Generate(nil)
	require.NoError(t, err)

	tx := f.sign(t, f.root, 0, txn.Transfer{Recipient: ghost.Address, Amount: 1})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()
	require.Equal(t, txn.AbortedWith(VMAccountDoesNotExist), f.status(t, tx))
}

func TestTransferOverflowAborts(t *testing.T) {
	f := newFixture(t, 0)
	whale, err := keys.Generate(nil)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Genesis(whale, math.MaxUint64))

	tx := f.sign(t, f.root, 0, txn.Transfer{Recipient: whale.Address, Amount: 1})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()
	require.Equal(t, txn.AbortedWith(VMArithmeticError), f.status(t, tx))

	bal, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 1_000, bal)
	require.EqualValues(t, 1, seq)
	bal, _ = f.balance(t, whale.Address)
	require.EqualValues(t, uint64(math.MaxUint64), bal)
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	f := newFixture(t, 0)
	tx := f.sign(t, f.root, 0, txn.Transfer{Recipient: f.root.Address, Amount: 10})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))
	f.ledger.Flush()

	require.Equal(t, txn.StatusExecuted, f.status(t, tx))
	bal, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 1_000, bal)
	require.EqualValues(t, 1, seq)
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t, 0)
	stranger, err := keys.Generate(nil)
	require.NoError(t, err)
	ctx := context.Background()

	wrongChain := f.sign(t, f.root, 0, txn.Transfer{Amount: 1})
	wrongChain.Raw.ChainID = 9
	wrongChain, err = txn.Sign(wrongChain.Raw, f.root)
	require.NoError(t, err)

	expired := f.sign(t, f.root, 0, txn.Transfer{Amount: 1})
	expired.Raw.ExpirationTimestampSecs = uint64(f.clock.Now().Unix())
	expired, err = txn.Sign(expired.Raw, f.root)
	require.NoError(t, err)

	tampered := f.sign(t, f.root, 0, txn.Transfer{Amount: 1})
	tampered.Raw.SequenceNumber = 1

	cases := []struct {
		name string
		tx   *txn.SignedTransaction
		want error
	}{
		{"nil", nil, ErrMalformed},
		{"bad signature", tampered, ErrMalformed},
		{"wrong chain", wrongChain, ErrWrongChain},
		{"expired", expired, ErrExpired},
		{"unknown sender", f.sign(t, stranger, 0, txn.Transfer{Amount: 1}), ErrUnknownSender},
		{"sequence from the future", f.sign(t, f.root, 3, txn.Transfer{Amount: 1}), ErrSequenceMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.ledger.Submit(ctx, tc.tx)
			require.ErrorIs(t, err, ErrRejected)
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Zero(t, f.ledger.Pending())
}

func TestSubmitDuplicateAndPipelinedSequence(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	first := f.sign(t, f.root, 0, txn.Transfer{Recipient: f.root.Address, Amount: 1})
	require.NoError(t, f.ledger.Submit(ctx, first))
	require.ErrorIs(t, f.ledger.Submit(ctx, first), ErrDuplicate)

	// The next sequence number is admitted while the first is still pending.
	second := f.sign(t, f.root, 1, txn.Transfer{Recipient: f.root.Address, Amount: 1})
	require.NoError(t, f.ledger.Submit(ctx, second))
	require.ErrorIs(t, f.ledger.Submit(ctx, f.sign(t, f.root, 1, txn.Transfer{Amount: 2})), ErrSequenceMismatch)
	require.Equal(t, 2, f.ledger.Pending())

	require.Equal(t, 2, f.ledger.Flush())
	_, seq := f.balance(t, f.root.Address)
	require.EqualValues(t, 2, seq)
}

func TestRewrittenSenderIsRejected(t *testing.T) {
	f := newFixture(t, 0)
	bob := f.createAccount(t, 0, 10)
	impostor, err := keys.Generate(nil)
	require.NoError(t, err)

	tx, err := txn.Sign(txn.RawTransaction{
		Sender:                  impostor.Address,
		Payload:                 txn.Transfer{Recipient: bob.Address, Amount: 1},
		ExpirationTimestampSecs: uint64(f.clock.Now().Add(time.Minute).Unix()),
		ChainID:                 DefaultChainID,
	}, impostor)
	require.NoError(t, err)
	tx.Raw.Sender = bob.Address
	// Signature no longer covers the rewritten sender.
	require.ErrorIs(t, f.ledger.Submit(context.Background(), tx), ErrMalformed)
}

func TestAdmittedTransactionsAreArchived(t *testing.T) {
	f := newFixture(t, 0)
	tx := f.sign(t, f.root, 0, txn.Transfer{Recipient: f.root.Address, Amount: 1})
	require.NoError(t, f.ledger.Submit(context.Background(), tx))

	ref, err := tx.Ref()
	require.NoError(t, err)
	require.True(t, f.cas.Has(ref))

	got, err := f.ledger.Transaction(ref)
	require.NoError(t, err)
	require.NoError(t, got.Verify())
}

func TestUnknownLookups(t *testing.T) {
	f := newFixture(t, 0)
	ghost, err := keys.Generate(nil)
	require.NoError(t, err)
	tx := f.sign(t, ghost, 0, txn.Transfer{Amount: 1})
	ref, err := tx.Ref()
	require.NoError(t, err)

	_, err = f.ledger.TransactionStatus(context.Background(), ref)
	require.ErrorIs(t, err, ErrUnknownTransaction)
	_, err = f.ledger.Transaction(ref)
	require.ErrorIs(t, err, ErrUnknownTransaction)
	_, err = f.ledger.AccountState(context.Background(), ghost.Address)
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestAccountStateIsACopy(t *testing.T) {
	f := newFixture(t, 0)
	st, err := f.ledger.AccountState(context.Background(), f.root.Address)
	require.NoError(t, err)
	st.Insert([]byte{0x09}, []byte("x"))

	again, err := f.ledger.AccountState(context.Background(), f.root.Address)
	require.NoError(t, err)
	require.Equal(t, 1, again.Len())
}

func TestSubmitAndConfirmAgainstLedger(t *testing.T) {
	l := New(Config{})
	root, err := keys.Generate(nil)
	require.NoError(t, err)
	require.NoError(t, l.Genesis(root, 50))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx, time.Millisecond) }()

	sign := func(seq, amount uint64) *txn.SignedTransaction {
		tx, err := txn.Sign(txn.RawTransaction{
			Sender:                  root.Address,
			SequenceNumber:          seq,
			Payload:                 txn.Transfer{Recipient: root.Address, Amount: amount},
			ExpirationTimestampSecs: uint64(time.Now().Add(time.Minute).Unix()),
			ChainID:                 DefaultChainID,
		}, root)
		require.NoError(t, err)
		return tx
	}
	opts := []submit.Option{submit.WithTimeout(5 * time.Second), submit.WithPollInterval(time.Millisecond)}

	require.NoError(t, submit.SubmitAndConfirm(ctx, l, sign(0, 10), opts...))

	err = submit.SubmitAndConfirm(ctx, l, sign(1, 500), opts...)
	require.True(t, submit.IsKind(err, submit.KindExecutionFailed))

	err = submit.SubmitAndConfirm(ctx, l, sign(7, 1), opts...)
	require.True(t, submit.IsKind(err, submit.KindSubmissionRejected))
	require.True(t, errors.Is(err, ErrSequenceMismatch))
}
