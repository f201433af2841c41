package keys

import (
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var ErrInvalidMnemonic = errors.New("keys: invalid mnemonic")

// Mnemonic renders the private key as a 24-word BIP-39 phrase.
func Mnemonic(c *Credential) (string, error) {
	return bip39.NewMnemonic(c.privateKey.Seed())
}

// FromMnemonic restores a credential from a phrase produced by Mnemonic.
func FromMnemonic(mnemonic string) (*Credential, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, errors.Join(ErrInvalidMnemonic, err)
	}
	return FromPrivateKey(entropy)
}
