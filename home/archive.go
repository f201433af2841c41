package home

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"shuffle.dev/shuffle/keys"
)

// Snapshot is an archived credential.
type Snapshot struct {
	Timestamp   int64
	Dir         string
	KeyPath     string
	AddressPath string
}

// Time returns the snapshot's creation second.
func (s Snapshot) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// LoadCredential reads the archived private key.
func (s Snapshot) LoadCredential() (*keys.Credential, error) {
	return keys.LoadKey(s.KeyPath)
}

func snapshotAt(l Layout, ts int64) Snapshot {
	dir := filepath.Join(l.AccountsPath, strconv.FormatInt(ts, 10))
	return Snapshot{
		Timestamp:   ts,
		Dir:         dir,
		KeyPath:     filepath.Join(dir, KeyFileName),
		AddressPath: filepath.Join(dir, AddrFileName),
	}
}

// CreateArchiveDir creates accounts/<unix seconds of now>. The mkdir is not
// recursive and fails if the directory already exists, so two archives within
// the same second collide instead of overwriting each other.
func CreateArchiveDir(l Layout, now time.Time) (Snapshot, error) {
	s := snapshotAt(l, now.Unix())
	if err := os.Mkdir(s.Dir, 0o755); err != nil {
		return Snapshot{}, fmt.Errorf("home: create archive dir: %w", err)
	}
	return s, nil
}

// Archive copies the current key and address files, byte for byte, into a new
// snapshot directory named by now. The current files are left in place.
//
// A failed copy leaves the created directory behind; it is not removed.
func Archive(l Layout, now time.Time) (Snapshot, error) {
	s, err := CreateArchiveDir(l, now)
	if err != nil {
		return Snapshot{}, err
	}
	if err := copyFile(l.LatestKeyPath, s.KeyPath, 0o600); err != nil {
		return Snapshot{}, fmt.Errorf("home: archive key: %w", err)
	}
	if err := copyFile(l.LatestAddressPath, s.AddressPath, 0o644); err != nil {
		return Snapshot{}, fmt.Errorf("home: archive address: %w", err)
	}
	return s, nil
}

// ListArchives returns every snapshot under the archive root, oldest first.
// Entries whose names are not unix timestamps (such as "latest") are skipped.
func ListArchives(l Layout) ([]Snapshot, error) {
	entries, err := os.ReadDir(l.AccountsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Snapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ts, err := strconv.ParseInt(e.Name(), 10, 64)
		if err != nil || ts < 0 || strconv.FormatInt(ts, 10) != e.Name() {
			continue
		}
		out = append(out, snapshotAt(l, ts))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}
	return out.Close()
}
