package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressLength is the size of a network address in bytes.
const AddressLength = 16

// AuthenticationKeyLength is the size of a sha3-256 authentication key.
const AuthenticationKeyLength = 32

// ed25519Scheme is appended to the public key before hashing.
const ed25519Scheme byte = 0x00

// Address is a network account address.
type Address [AddressLength]byte

// AuthenticationKey returns sha3-256(publicKey || scheme).
func AuthenticationKey(publicKey []byte) []byte {
	h := sha3.New256()
	_, _ = h.Write(publicKey)
	_, _ = h.Write([]byte{ed25519Scheme})
	return h.Sum(nil)
}

// DeriveAddress returns the address owned by publicKey. It is pure and total.
func DeriveAddress(publicKey []byte) Address {
	return AddressFromAuthenticationKey(AuthenticationKey(publicKey))
}

// AddressFromAuthenticationKey takes the trailing AddressLength bytes of authKey.
func AddressFromAuthenticationKey(authKey []byte) Address {
	var a Address
	if len(authKey) >= AddressLength {
		copy(a[:], authKey[len(authKey)-AddressLength:])
	} else {
		copy(a[AddressLength-len(authKey):], authKey)
	}
	return a
}

// String renders the canonical lowercase hex form without a prefix.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress accepts the canonical hex form with an optional 0x prefix.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != AddressLength*2 {
		return Address{}, fmt.Errorf("keys: address must be %d hex chars, got %d", AddressLength*2, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("keys: invalid address: %w", err)
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}
