package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"

	"shuffle.dev/shuffle/cidutil"
)

// NamedCAS labels a backend for logs and per-backend results.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// ReplicatingCAS writes every object to all backends and reads from the
// first backend that has it, in slice order.
//
// A read served by a later backend is copied back into the earlier ones that
// missed it, so a fresh memory tier in front of an on-disk archive fills up
// as old transactions are looked up.
type ReplicatingCAS struct {
	Backends []NamedCAS
	Logger   zerolog.Logger
}

var _ CAS = ReplicatingCAS{}

// PutAll writes b to every backend and returns the CID each one reported.
// A backend reporting a different CID than the bytes hash to fails the write
// with ErrCIDMismatch.
func (r ReplicatingCAS) PutAll(b []byte) (cid.Cid, map[string]cid.Cid, error) {
	if len(r.Backends) == 0 {
		return cid.Undef, nil, fmt.Errorf("storage: ReplicatingCAS has no backends")
	}
	want, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, nil, err
	}

	out := make(map[string]cid.Cid, len(r.Backends))
	for _, be := range r.Backends {
		if be.CAS == nil {
			return cid.Undef, nil, fmt.Errorf("storage: nil CAS for backend %q", be.Name)
		}
		got, err := be.CAS.Put(b)
		if err != nil {
			return cid.Undef, out, fmt.Errorf("storage: backend %q: %w", be.Name, err)
		}
		out[be.Name] = got
		if got != want {
			return cid.Undef, out, ErrCIDMismatch
		}
	}
	return want, out, nil
}

func (r ReplicatingCAS) Put(b []byte) (cid.Cid, error) {
	id, _, err := r.PutAll(b)
	return id, err
}

// Get returns the first hit. Errors other than ErrNotFound stop the search.
func (r ReplicatingCAS) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	var missed []NamedCAS
	for _, be := range r.Backends {
		if be.CAS == nil {
			continue
		}
		out, err := be.CAS.Get(id)
		if err == nil {
			r.repair(id, out, be.Name, missed)
			return out, nil
		}
		if !IsNotFound(err) {
			return nil, fmt.Errorf("storage: backend %q: %w", be.Name, err)
		}
		missed = append(missed, be)
	}
	return nil, ErrNotFound
}

// repair copies b into backends that missed it. Failures are logged only;
// the read already succeeded.
func (r ReplicatingCAS) repair(id cid.Cid, b []byte, source string, missed []NamedCAS) {
	for _, be := range missed {
		if _, err := be.CAS.Put(b); err != nil {
			r.Logger.Warn().Err(err).Str("ref", id.String()).Str("backend", be.Name).Msg("read repair failed")
			continue
		}
		r.Logger.Debug().Str("ref", id.String()).Str("from", source).Str("to", be.Name).Msg("read repair")
	}
}

func (r ReplicatingCAS) Has(id cid.Cid) bool {
	for _, be := range r.Backends {
		if be.CAS != nil && be.CAS.Has(id) {
			return true
		}
	}
	return false
}
