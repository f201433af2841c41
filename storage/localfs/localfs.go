// Package localfs keeps signed transactions as immutable files, one per CID.
package localfs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ipfs/go-cid"

	"shuffle.dev/shuffle/cidutil"
	"shuffle.dev/shuffle/storage"
)

// CAS is a directory-backed storage.CAS. Objects live at
// <root>/<last two CID chars>/<CID> with mode 0444. Every CIDv1 string shares
// its leading characters, so the shard comes from the digest end.
type CAS struct {
	root     string
	validate func([]byte) error
}

// Option configures a CAS.
type Option func(*CAS)

// WithValidator makes Put refuse bytes for which fn fails, reporting
// storage.ErrCorrupt. storage.ValidateTransaction restricts the store to
// signed transactions.
func WithValidator(fn func([]byte) error) Option {
	return func(c *CAS) { c.validate = fn }
}

// New returns a CAS rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*CAS, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	c := &CAS{root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *CAS) Root() string { return c.root }

func (c *CAS) Put(b []byte) (cid.Cid, error) {
	if c.validate != nil {
		if err := c.validate(b); err != nil {
			return cid.Undef, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
		}
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}

	path := c.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid.Undef, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if !os.IsExist(err) {
			return cid.Undef, err
		}
		// Already present: accept only if the stored bytes still verify.
		existing, rerr := c.Get(id)
		if rerr != nil || !bytes.Equal(existing, b) {
			return cid.Undef, storage.ErrImmutable
		}
		return id, nil
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return cid.Undef, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	b, err := os.ReadFile(c.pathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if !cidutil.Matches(id, b) {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	_, err := os.Stat(c.pathFor(id))
	return err == nil
}

// Refs lists every stored object's CID in string order. Files whose names are
// not CIDs are skipped.
func (c *CAS) Refs() ([]cid.Cid, error) {
	var refs []cid.Cid
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		id, perr := cid.Decode(d.Name())
		if perr != nil || c.pathFor(id) != path {
			return nil
		}
		refs = append(refs, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs, nil
}

func (c *CAS) pathFor(id cid.Cid) string {
	s := id.String()
	return filepath.Join(c.root, s[len(s)-2:], s)
}
