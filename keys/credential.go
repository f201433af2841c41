package keys

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/ed25519"
)

const (
	// PrivateKeySize is the size of the persisted private key (the Ed25519 seed).
	PrivateKeySize = ed25519.SeedSize
	PublicKeySize  = ed25519.PublicKeySize
	SignatureSize  = ed25519.SignatureSize
)

var ErrInvalidKeySize = errors.New("keys: invalid private key size")

// Credential is a private/public key pair and its derived address.
//
// Credentials are never mutated; rotation replaces them.
type Credential struct {
	privateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	Address    Address
}

// Generate creates a fresh credential. rnd defaults to crypto/rand.Reader.
func Generate(rnd io.Reader) (*Credential, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(rnd)
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &Credential{privateKey: priv, PublicKey: pub, Address: DeriveAddress(pub)}, nil
}

// FromPrivateKey rebuilds a credential from its 32-byte private key.
func FromPrivateKey(seed []byte) (*Credential, error) {
	if len(seed) != PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeySize, len(seed), PrivateKeySize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Credential{privateKey: priv, PublicKey: pub, Address: DeriveAddress(pub)}, nil
}

// PrivateKey returns a copy of the 32-byte private key.
func (c *Credential) PrivateKey() []byte {
	return append([]byte(nil), c.privateKey.Seed()...)
}

func (c *Credential) PublicKeyHex() string {
	return hex.EncodeToString(c.PublicKey)
}

// AuthenticationKey returns the credential's authentication key.
func (c *Credential) AuthenticationKey() []byte {
	return AuthenticationKey(c.PublicKey)
}

func (c *Credential) Sign(message []byte) []byte {
	return ed25519.Sign(c.privateKey, message)
}

// Verify checks an Ed25519 signature. Malformed keys or signatures never verify.
func Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// Equal reports whether both credentials hold the same private key.
func (c *Credential) Equal(other *Credential) bool {
	if c == nil || other == nil {
		return c == other
	}
	return bytes.Equal(c.privateKey.Seed(), other.privateKey.Seed())
}
