// Package accountstate models an account's on-chain state as observed by a
// client: a flat mapping from resource path to serialized resource bytes,
// ordered by ascending byte-lexicographic key.
package accountstate

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/ipfs/go-cid"

	"shuffle.dev/shuffle/bcs"
	"shuffle.dev/shuffle/cidutil"
)

// State is an ordered resource store. The zero value is empty and ready to use.
//
// Keys and values are copied on the way in and out. State is not safe for
// concurrent mutation.
type State struct {
	entries map[string][]byte
}

func New() *State {
	return &State{entries: make(map[string][]byte)}
}

// FromAccountResource builds a store holding exactly r at AccountResourcePath.
func FromAccountResource(r *AccountResource) *State {
	s := New()
	s.Insert(AccountResourcePath, r.MarshalBCS())
	return s
}

// Get returns the value stored at exactly path.
func (s *State) Get(path []byte) ([]byte, bool) {
	v, ok := s.entries[string(path)]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Insert stores value at path and returns the value it replaced, if any.
func (s *State) Insert(path, value []byte) ([]byte, bool) {
	if s.entries == nil {
		s.entries = make(map[string][]byte)
	}
	prev, ok := s.entries[string(path)]
	s.entries[string(path)] = clone(value)
	return prev, ok
}

// Remove deletes path and returns the removed value, if any.
func (s *State) Remove(path []byte) ([]byte, bool) {
	prev, ok := s.entries[string(path)]
	if ok {
		delete(s.entries, string(path))
	}
	return prev, ok
}

func (s *State) Len() int { return len(s.entries) }

func (s *State) IsEmpty() bool { return len(s.entries) == 0 }

// Keys returns all paths in ascending byte order.
func (s *State) Keys() []ResourcePath {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]ResourcePath, len(keys))
	for i, k := range keys {
		out[i] = ResourcePath(k)
	}
	return out
}

// Range calls fn for each entry in key order until fn returns false.
func (s *State) Range(fn func(path ResourcePath, value []byte) bool) {
	for _, k := range s.Keys() {
		if !fn(k, clone(s.entries[string(k)])) {
			return
		}
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := New()
	for k, v := range s.entries {
		out.entries[k] = clone(v)
	}
	return out
}

// AccountResource decodes the primary account resource. It returns nil, nil
// when the reserved path is absent and a *DecodingError when the stored bytes
// are malformed.
func (s *State) AccountResource() (*AccountResource, error) {
	b, ok := s.entries[string(AccountResourcePath)]
	if !ok {
		return nil, nil
	}
	r, err := UnmarshalAccountResource(b)
	if err != nil {
		return nil, &DecodingError{Path: AccountResourcePath, Cause: err}
	}
	return r, nil
}

// SetAccountResource replaces the primary account resource.
func (s *State) SetAccountResource(r *AccountResource) {
	s.Insert(AccountResourcePath, r.MarshalBCS())
}

// MarshalBCS encodes the whole store: entry count, then (path, value) pairs in key order.
func (s *State) MarshalBCS() []byte {
	keys := s.Keys()
	e := bcs.NewEncoder().Len(len(keys))
	for _, k := range keys {
		e.Bytes(k).Bytes(s.entries[string(k)])
	}
	return e.Result()
}

var ErrUnsortedKeys = errors.New("accountstate: snapshot keys not strictly ascending")

// Decode parses a snapshot produced by MarshalBCS. Keys must be strictly
// ascending, so duplicates are rejected.
func Decode(b []byte) (*State, error) {
	d := bcs.NewDecoder(b)
	n := d.Len()
	s := New()
	var prev []byte
	for i := 0; i < n && d.Err() == nil; i++ {
		k := d.Bytes()
		v := d.Bytes()
		if d.Err() != nil {
			break
		}
		if i > 0 && bytes.Compare(prev, k) >= 0 {
			return nil, fmt.Errorf("%w: entry %d", ErrUnsortedKeys, i)
		}
		s.entries[string(k)] = v
		prev = k
	}
	if err := d.Finish(); err != nil {
		return nil, fmt.Errorf("accountstate: decode snapshot: %w", err)
	}
	return s, nil
}

// Digest returns the CID of the canonical snapshot.
func (s *State) Digest() (cid.Cid, error) {
	return cidutil.Sum(s.MarshalBCS())
}

// String renders the account resource, or the reason it could not be decoded.
func (s *State) String() string {
	r, err := s.AccountResource()
	if err != nil {
		return fmt.Sprintf("AccountResource { parse error: %v }", err)
	}
	return fmt.Sprintf("AccountResource { %s }", r)
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}
