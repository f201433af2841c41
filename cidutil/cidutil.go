// Package cidutil derives the content identifiers used to name signed
// transactions, archived transaction bytes and account state snapshots.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Sum returns the CIDv1 (raw multicodec, sha2-256 multihash) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// MustSum is Sum for inputs known to be hashable. multihash.Sum only fails for
// unknown codes or invalid lengths, neither of which Sum passes.
func MustSum(data []byte) cid.Cid {
	id, err := Sum(data)
	if err != nil {
		panic(err)
	}
	return id
}

// Parse decodes s and checks that it names raw bytes hashed with sha2-256.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, fmt.Errorf("cidutil: undefined cid")
	}
	pref := id.Prefix()
	if pref.Version != 1 || pref.Codec != cid.Raw || pref.MhType != multihash.SHA2_256 {
		return cid.Undef, fmt.Errorf("cidutil: unsupported cid prefix %v", pref)
	}
	return id, nil
}

// Matches reports whether id is the CID of data.
func Matches(id cid.Cid, data []byte) bool {
	got, err := Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}
