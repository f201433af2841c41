// Package bcs implements the canonical binary encoding used for account
// resources, account state snapshots and transactions.
//
// Integers are little endian, variable-length sequences carry a ULEB128
// length prefix and options are a 0x00/0x01 tag. Every value has exactly one
// encoding; the Decoder rejects anything else.
//
// The wire work is done by the Aptos SDK's bcs package; this package adds the
// chained builder API, canonical-form checks and structured errors.
package bcs

import (
	"math"

	aptosbcs "github.com/aptos-labs/aptos-go-sdk/bcs"
)

// MaxSequenceLength bounds any length prefix accepted by the Decoder.
const MaxSequenceLength = math.MaxInt32

// Encoder appends canonical encodings to an internal buffer.
type Encoder struct {
	ser aptosbcs.Serializer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) U8(v uint8) *Encoder {
	e.ser.U8(v)
	return e
}

func (e *Encoder) U64(v uint64) *Encoder {
	e.ser.U64(v)
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	e.ser.Bool(v)
	return e
}

// ULEB128 appends v in unsigned LEB128 form.
func (e *Encoder) ULEB128(v uint32) *Encoder {
	e.ser.Uleb128(v)
	return e
}

// Bytes appends a length-prefixed byte sequence.
func (e *Encoder) Bytes(b []byte) *Encoder {
	e.ser.WriteBytes(b)
	return e
}

// FixedBytes appends b without a length prefix.
func (e *Encoder) FixedBytes(b []byte) *Encoder {
	e.ser.FixedBytes(b)
	return e
}

// Len appends a sequence length prefix.
func (e *Encoder) Len(n int) *Encoder {
	return e.ULEB128(uint32(n))
}

// Result returns a copy of the encoded bytes.
func (e *Encoder) Result() []byte {
	return append([]byte(nil), e.ser.ToBytes()...)
}

// ulebSize is the length of the canonical ULEB128 encoding of v.
func ulebSize(v uint32) int {
	var ser aptosbcs.Serializer
	ser.Uleb128(v)
	return len(ser.ToBytes())
}
