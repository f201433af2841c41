// Package testkit is a conformance suite every storage.CAS backend runs.
package testkit

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"

	"shuffle.dev/shuffle/cidutil"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/storage"
	"shuffle.dev/shuffle/txn"
)

// NewCAS constructs a fresh, empty CAS isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("hello, shuffle storage")

		id, err := cas.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if wantID := cidutil.MustSum(want); id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := cas.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		id2, err := cas.Put(b)
		if err != nil {
			t.Fatalf("Put(2) failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id := cidutil.MustSum(b)

		if cas.Has(id) {
			t.Fatalf("Has returned true for missing CID")
		}
		if _, err := cas.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
		if _, err := cas.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !cas.Has(id) {
			t.Fatalf("Has returned false after Put")
		}
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		if cas.Has(undef) {
			t.Fatalf("Has should be false for undefined CID")
		}
		if _, err := cas.Get(undef); !errors.Is(err, storage.ErrInvalidCID) {
			t.Fatalf("Get undefined: got err=%v want ErrInvalidCID", err)
		}
	})

	t.Run("TransactionKeyedByRef", func(t *testing.T) {
		cas := newCAS(t)
		tx := signedTransaction(t)

		id, err := storage.PutTransaction(cas, tx)
		if err != nil {
			t.Fatalf("PutTransaction failed: %v", err)
		}
		ref, err := tx.Ref()
		if err != nil {
			t.Fatalf("Ref failed: %v", err)
		}
		if id != ref {
			t.Fatalf("stored under %s, ref is %s", id, ref)
		}

		got, err := storage.GetTransaction(cas, ref)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if err := got.Verify(); err != nil {
			t.Fatalf("loaded transaction does not verify: %v", err)
		}
		if got.Raw.Sender != tx.Raw.Sender || got.Raw.SequenceNumber != tx.Raw.SequenceNumber {
			t.Fatalf("loaded transaction differs from stored one")
		}
	})

	t.Run("NonTransactionBytesAreCorrupt", func(t *testing.T) {
		cas := newCAS(t)
		id, err := cas.Put([]byte("not a transaction"))
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if _, err := storage.GetTransaction(cas, id); !errors.Is(err, storage.ErrCorrupt) {
			t.Fatalf("GetTransaction: got err=%v want ErrCorrupt", err)
		}
	})
}

func signedTransaction(t *testing.T) *txn.SignedTransaction {
	t.Helper()
	sender, err := keys.Generate(nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	tx, err := txn.Sign(txn.RawTransaction{
		Sender:                  sender.Address,
		SequenceNumber:          7,
		Payload:                 txn.Transfer{Recipient: sender.Address, Amount: 1},
		MaxGasAmount:            1_000_000,
		ExpirationTimestampSecs: 1_900_000_000,
		ChainID:                 4,
	}, sender)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return tx
}
