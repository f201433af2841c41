package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SaveKey writes the raw private key to path with mode 0600, replacing any
// existing file. Parent directories must already exist.
func SaveKey(path string, c *Credential) error {
	return writeFile(path, c.privateKey.Seed(), 0o600)
}

// LoadKey reads a private key written by SaveKey and rebuilds the credential.
func LoadKey(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := FromPrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return c, nil
}

// WriteAddressFile stores the canonical address text, without a trailing newline.
func WriteAddressFile(path string, addr Address) error {
	return writeFile(path, []byte(addr.String()), 0o644)
}

func ReadAddressFile(path string) (Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Address{}, err
	}
	return ParseAddress(strings.TrimSpace(string(data)))
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}
