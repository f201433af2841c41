package bcs

import (
	"fmt"

	aptosbcs "github.com/aptos-labs/aptos-go-sdk/bcs"
)

// Decoder reads canonical encodings from a byte slice.
//
// The first failure is sticky: later reads return zero values and Err keeps
// reporting the original error.
type Decoder struct {
	in  []byte
	des *aptosbcs.Deserializer
	err error
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{in: b, des: aptosbcs.NewDeserializer(b)}
}

func (d *Decoder) Err() error { return d.err }

// Remaining reports how many input bytes have not been consumed.
func (d *Decoder) Remaining() int { return d.des.Remaining() }

func (d *Decoder) offset() int { return len(d.in) - d.des.Remaining() }

func (d *Decoder) fail(off int, msg string, cause error) {
	if d.err != nil {
		return
	}
	d.err = &Error{Kind: KindDecode, Offset: off, Message: msg, Cause: cause}
}

// ready reports whether n more bytes can be read, recording a truncation error otherwise.
func (d *Decoder) ready(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.des.Remaining() < n {
		d.fail(d.offset(), fmt.Sprintf("need %d bytes, have %d", n, d.des.Remaining()), ErrTruncated)
		return false
	}
	return true
}

// check converts a failure reported by the underlying deserializer.
func (d *Decoder) check(start int) bool {
	if err := d.des.Error(); err != nil {
		d.fail(start, err.Error(), err)
		return false
	}
	return true
}

func (d *Decoder) U8() uint8 {
	if !d.ready(1) {
		return 0
	}
	return d.des.U8()
}

func (d *Decoder) U64() uint64 {
	if !d.ready(8) {
		return 0
	}
	return d.des.U64()
}

func (d *Decoder) Bool() bool {
	if !d.ready(1) {
		return false
	}
	start := d.offset()
	switch v := d.des.U8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(start, fmt.Sprintf("invalid bool byte 0x%02x", v), nil)
		return false
	}
}

// maxULEB128Size is the longest encoding of a 32-bit value.
const maxULEB128Size = 5

// ULEB128 reads a canonical unsigned LEB128 value that fits in 32 bits.
func (d *Decoder) ULEB128() uint32 {
	if !d.ready(1) {
		return 0
	}
	start := d.offset()
	v := d.des.Uleb128()
	if err := d.des.Error(); err != nil {
		if d.des.Remaining() == 0 && d.in[len(d.in)-1]&0x80 != 0 {
			d.fail(start, "truncated uleb128", ErrTruncated)
		} else {
			d.fail(start, err.Error(), err)
		}
		return 0
	}
	switch n := d.offset() - start; {
	case n > maxULEB128Size:
		d.fail(start, "uleb128 too long", nil)
		return 0
	case n == maxULEB128Size && d.in[start+n-1] > 0x0f:
		d.fail(start, "uleb128 overflows u32", nil)
		return 0
	case n != ulebSize(v):
		d.fail(start, "non-canonical uleb128", nil)
		return 0
	}
	return v
}

// Len reads a sequence length prefix.
func (d *Decoder) Len() int {
	start := d.offset()
	n := d.ULEB128()
	if d.err != nil {
		return 0
	}
	if n > MaxSequenceLength {
		d.fail(start, fmt.Sprintf("sequence length %d exceeds limit", n), nil)
		return 0
	}
	return int(n)
}

// Bytes reads a length-prefixed byte sequence. The result is a copy.
func (d *Decoder) Bytes() []byte {
	n := d.Len()
	return d.FixedBytes(n)
}

// FixedBytes reads exactly n bytes. The result is a copy.
func (d *Decoder) FixedBytes(n int) []byte {
	if !d.ready(n) {
		return nil
	}
	start := d.offset()
	b := d.des.ReadFixedBytes(n)
	if !d.check(start) {
		return nil
	}
	return append([]byte{}, b...)
}

// Finish returns the sticky error, or an error if input remains unconsumed.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if n := d.des.Remaining(); n != 0 {
		d.fail(d.offset(), fmt.Sprintf("%d trailing bytes", n), nil)
		return d.err
	}
	return nil
}
