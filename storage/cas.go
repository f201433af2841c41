// Package storage holds signed transaction bytes keyed by content.
//
// Every object is named by the CIDv1 (raw, sha2-256) of its bytes, the same
// identifier txn.SignedTransaction.Ref returns, so a transaction ref can be
// used directly as a storage key.
package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"shuffle.dev/shuffle/txn"
)

// CAS is a content-addressable store.
//
// Contract:
// - Put is idempotent and returns the CID of the bytes written.
// - Stored objects are immutable.
// - Get returns ErrNotFound when the CID is absent and never returns bytes
//   that do not hash to the requested CID.
type CAS interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// PutTransaction stores the canonical encoding of tx and returns its ref.
func PutTransaction(cas CAS, tx *txn.SignedTransaction) (cid.Cid, error) {
	b, err := tx.MarshalBCS()
	if err != nil {
		return cid.Undef, err
	}
	return cas.Put(b)
}

// ValidateTransaction reports whether b decodes as a signed transaction.
func ValidateTransaction(b []byte) error {
	_, err := txn.Decode(b)
	return err
}

// GetTransaction loads and decodes the transaction stored under ref.
func GetTransaction(cas CAS, ref cid.Cid) (*txn.SignedTransaction, error) {
	b, err := cas.Get(ref)
	if err != nil {
		return nil, err
	}
	tx, err := txn.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorrupt, ref, err)
	}
	return tx, nil
}
