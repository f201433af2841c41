// Package txn defines raw and signed transactions, their canonical encoding
// and the reference (content identifier) used to track a submitted
// transaction until it reaches a terminal status.
package txn

import (
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"

	"shuffle.dev/shuffle/bcs"
	"shuffle.dev/shuffle/cidutil"
	"shuffle.dev/shuffle/keys"
)

// signingPrefix domain-separates signed raw transaction bytes.
var signingPrefix = []byte("SHUFFLE::RawTransaction")

var (
	ErrNilPayload       = errors.New("txn: missing payload")
	ErrInvalidSignature = errors.New("txn: invalid signature")
	ErrSenderMismatch   = errors.New("txn: public key does not own sender address")
)

// RawTransaction is an unsigned transaction.
type RawTransaction struct {
	Sender                  keys.Address
	SequenceNumber          uint64
	Payload                 Payload
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

// MarshalBCS returns the canonical encoding of t.
func (t *RawTransaction) MarshalBCS() ([]byte, error) {
	if t.Payload == nil {
		return nil, ErrNilPayload
	}
	e := bcs.NewEncoder().
		FixedBytes(t.Sender[:]).
		U64(t.SequenceNumber)
	encodePayload(e, t.Payload)
	e.U64(t.MaxGasAmount).
		U64(t.GasUnitPrice).
		U64(t.ExpirationTimestampSecs).
		U8(t.ChainID)
	return e.Result(), nil
}

func decodeRaw(d *bcs.Decoder) (RawTransaction, error) {
	var t RawTransaction
	copy(t.Sender[:], d.FixedBytes(keys.AddressLength))
	t.SequenceNumber = d.U64()
	p, err := decodePayload(d)
	if err != nil {
		return t, err
	}
	t.Payload = p
	t.MaxGasAmount = d.U64()
	t.GasUnitPrice = d.U64()
	t.ExpirationTimestampSecs = d.U64()
	t.ChainID = d.U8()
	return t, d.Err()
}

// SigningMessage returns the bytes covered by the signature.
func (t *RawTransaction) SigningMessage() ([]byte, error) {
	raw, err := t.MarshalBCS()
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), signingPrefix...), raw...), nil
}

// SignedTransaction is a raw transaction plus the sender's Ed25519 signature.
type SignedTransaction struct {
	Raw       RawTransaction
	PublicKey []byte
	Signature []byte
}

// Sign signs raw with c. The sender must be c's address.
func Sign(raw RawTransaction, c *keys.Credential) (*SignedTransaction, error) {
	if raw.Sender != c.Address {
		return nil, fmt.Errorf("%w: sender %s, key address %s", ErrSenderMismatch, raw.Sender, c.Address)
	}
	msg, err := raw.SigningMessage()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Raw:       raw,
		PublicKey: append([]byte(nil), c.PublicKey...),
		Signature: c.Sign(msg),
	}, nil
}

// Verify checks the signature and that the public key owns the sender address.
func (s *SignedTransaction) Verify() error {
	if keys.DeriveAddress(s.PublicKey) != s.Raw.Sender {
		return ErrSenderMismatch
	}
	msg, err := s.Raw.SigningMessage()
	if err != nil {
		return err
	}
	if !keys.Verify(s.PublicKey, msg, s.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// MarshalBCS returns the canonical encoding of s.
func (s *SignedTransaction) MarshalBCS() ([]byte, error) {
	raw, err := s.Raw.MarshalBCS()
	if err != nil {
		return nil, err
	}
	return bcs.NewEncoder().
		FixedBytes(raw).
		Bytes(s.PublicKey).
		Bytes(s.Signature).
		Result(), nil
}

// Decode parses a signed transaction. It does not verify the signature.
func Decode(b []byte) (*SignedTransaction, error) {
	d := bcs.NewDecoder(b)
	raw, err := decodeRaw(d)
	if err != nil {
		return nil, fmt.Errorf("txn: decode: %w", err)
	}
	s := &SignedTransaction{Raw: raw, PublicKey: d.Bytes(), Signature: d.Bytes()}
	if err := d.Finish(); err != nil {
		return nil, fmt.Errorf("txn: decode: %w", err)
	}
	return s, nil
}

// Ref returns the transaction's reference: the CID of its canonical encoding.
func (s *SignedTransaction) Ref() (cid.Cid, error) {
	b, err := s.MarshalBCS()
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.Sum(b)
}
