package home

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"shuffle.dev/shuffle/keys"
)

// EnsureDirectories creates the archive root and the current-credential
// directory. Existing directories are fine; any other failure is returned.
func EnsureDirectories(l Layout) error {
	for _, dir := range []string{l.AccountsPath, l.LatestPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("home: create %s: %w", dir, err)
		}
	}
	return nil
}

// HasCredential reports whether a current key file exists.
func HasCredential(l Layout) (bool, error) {
	_, err := os.Stat(l.LatestKeyPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// LoadCredential reads the current credential from its key file.
func LoadCredential(l Layout) (*keys.Credential, error) {
	return keys.LoadKey(l.LatestKeyPath)
}

// PersistCredential replaces the current key and address files with c.
//
// Both files are staged next to their targets and renamed into place, key
// first. If the address cannot be installed, the previous key is put back (or
// removed when there was none), so a failure never leaves a key file that
// disagrees with the address file.
func PersistCredential(l Layout, c *keys.Credential) error {
	keyTmp := l.LatestKeyPath + stagingSuffix
	addrTmp := l.LatestAddressPath + stagingSuffix
	defer func() {
		_ = os.Remove(keyTmp)
		_ = os.Remove(addrTmp)
	}()

	prevKey, err := os.ReadFile(l.LatestKeyPath)
	hadKey := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("home: read key: %w", err)
	}

	if err := keys.SaveKey(keyTmp, c); err != nil {
		return fmt.Errorf("home: write key: %w", err)
	}
	if err := keys.WriteAddressFile(addrTmp, c.Address); err != nil {
		return fmt.Errorf("home: write address: %w", err)
	}
	if err := os.Rename(keyTmp, l.LatestKeyPath); err != nil {
		return fmt.Errorf("home: write key: %w", err)
	}
	if err := os.Rename(addrTmp, l.LatestAddressPath); err != nil {
		err = fmt.Errorf("home: write address: %w", err)
		if rerr := restoreKey(l.LatestKeyPath, prevKey, hadKey); rerr != nil {
			return errors.Join(err, fmt.Errorf("home: restore key: %w", rerr))
		}
		return err
	}
	return nil
}

const stagingSuffix = ".new"

func restoreKey(path string, prev []byte, had bool) error {
	if !had {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	tmp := path + stagingSuffix
	if err := os.WriteFile(tmp, prev, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
