package bcs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeValues(t *testing.T) {
	b := NewEncoder().
		U8(7).
		U64(0x0102030405060708).
		Bool(true).
		Bytes([]byte("abc")).
		Bytes(nil).
		FixedBytes([]byte{0xaa, 0xbb}).
		Result()

	d := NewDecoder(b)
	require.Equal(t, uint8(7), d.U8())
	require.Equal(t, uint64(0x0102030405060708), d.U64())
	require.True(t, d.Bool())
	require.Equal(t, []byte("abc"), d.Bytes())
	require.Empty(t, d.Bytes())
	require.Equal(t, []byte{0xaa, 0xbb}, d.FixedBytes(2))
	require.NoError(t, d.Finish())
}

func TestU64LittleEndian(t *testing.T) {
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, NewEncoder().U64(1).Result())
}

func TestULEB128Vectors(t *testing.T) {
	cases := map[uint32][]byte{
		0:          {0x00},
		127:        {0x7f},
		128:        {0x80, 0x01},
		300:        {0xac, 0x02},
		16384:      {0x80, 0x80, 0x01},
		0xffffffff: {0xff, 0xff, 0xff, 0xff, 0x0f},
	}
	for v, want := range cases {
		got := NewEncoder().ULEB128(v).Result()
		require.Equal(t, want, got, "encode %d", v)

		d := NewDecoder(want)
		require.Equal(t, v, d.ULEB128(), "decode %x", want)
		require.NoError(t, d.Finish())
	}
}

func TestDecodeRejectsNonCanonicalULEB128(t *testing.T) {
	d := NewDecoder([]byte{0x80, 0x00})
	_ = d.ULEB128()
	require.True(t, IsKind(d.Err(), KindDecode))
}

func TestDecodeRejectsOverflowingULEB128(t *testing.T) {
	d := NewDecoder([]byte{0xff, 0xff, 0xff, 0xff, 0x1f})
	_ = d.ULEB128()
	require.Error(t, d.Err())
}

func TestDecodeRejectsInvalidBool(t *testing.T) {
	d := NewDecoder([]byte{0x02})
	_ = d.Bool()
	var e *Error
	require.ErrorAs(t, d.Err(), &e)
	require.Equal(t, 0, e.Offset)
}

func TestDecodeTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x05, 'a', 'b'})
	require.Nil(t, d.Bytes())
	require.True(t, errors.Is(d.Err(), ErrTruncated))

	// The first error sticks.
	_ = d.U64()
	require.True(t, errors.Is(d.Finish(), ErrTruncated))
}

func TestFinishRejectsTrailingBytes(t *testing.T) {
	d := NewDecoder([]byte{0x01, 0x02})
	_ = d.U8()
	require.Error(t, d.Finish())
}

func TestDecodedBytesAreCopies(t *testing.T) {
	in := NewEncoder().Bytes([]byte{1, 2, 3}).Result()
	got := NewDecoder(in).Bytes()
	got[0] = 9
	require.Equal(t, byte(1), in[1])
}

func TestDecodeTruncatedULEB128(t *testing.T) {
	d := NewDecoder([]byte{0x80})
	_ = d.ULEB128()
	require.ErrorIs(t, d.Err(), ErrTruncated)
}

func TestDecodeErrorOffset(t *testing.T) {
	d := NewDecoder([]byte{0x01, 0x07})
	require.True(t, d.Bool())
	_ = d.Bool()
	var e *Error
	require.ErrorAs(t, d.Err(), &e)
	require.Equal(t, 1, e.Offset)
	require.Contains(t, e.Error(), "offset 1")
}
