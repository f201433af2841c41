package accountstate

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"shuffle.dev/shuffle/bcs"
)

// ResourcePath identifies one typed value within an account's state.
type ResourcePath []byte

// resourceTag prefixes resource access paths; module code uses a different tag.
const resourceTag byte = 0x01

// AccountResourceStructTag names the primary account resource type.
const AccountResourceStructTag = "0x1::DiemAccount::DiemAccount"

// AccountResourcePath is the reserved path of the primary account resource.
var AccountResourcePath = ResourcePathFor(AccountResourceStructTag)

// ResourcePathFor returns the access path of a resource type: the resource tag
// followed by sha3-256 of the struct tag.
func ResourcePathFor(structTag string) ResourcePath {
	sum := sha3.Sum256([]byte(structTag))
	return append(ResourcePath{resourceTag}, sum[:]...)
}

func (p ResourcePath) String() string {
	return fmt.Sprintf("%x", []byte(p))
}

// EventHandle is a per-account event stream counter.
type EventHandle struct {
	Count uint64
	Key   []byte
}

// AccountResource holds the core fields of an account.
type AccountResource struct {
	AuthenticationKey []byte
	Balance           uint64
	SequenceNumber    uint64
	SentEvents        EventHandle
	ReceivedEvents    EventHandle
}

// MarshalBCS returns the canonical encoding of r.
func (r *AccountResource) MarshalBCS() []byte {
	e := bcs.NewEncoder().
		Bytes(r.AuthenticationKey).
		U64(r.Balance).
		U64(r.SequenceNumber)
	encodeEventHandle(e, r.SentEvents)
	encodeEventHandle(e, r.ReceivedEvents)
	return e.Result()
}

// UnmarshalAccountResource decodes the canonical encoding of an AccountResource.
func UnmarshalAccountResource(b []byte) (*AccountResource, error) {
	d := bcs.NewDecoder(b)
	r := &AccountResource{
		AuthenticationKey: d.Bytes(),
		Balance:           d.U64(),
		SequenceNumber:    d.U64(),
		SentEvents:        decodeEventHandle(d),
		ReceivedEvents:    decodeEventHandle(d),
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return r, nil
}

func encodeEventHandle(e *bcs.Encoder, h EventHandle) {
	e.U64(h.Count).Bytes(h.Key)
}

func decodeEventHandle(d *bcs.Decoder) EventHandle {
	return EventHandle{Count: d.U64(), Key: d.Bytes()}
}

func (r *AccountResource) String() string {
	if r == nil {
		return "None"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "authentication_key: %x, ", r.AuthenticationKey)
	fmt.Fprintf(&b, "balance: %d, ", r.Balance)
	fmt.Fprintf(&b, "sequence_number: %d, ", r.SequenceNumber)
	fmt.Fprintf(&b, "sent_events: %d, ", r.SentEvents.Count)
	fmt.Fprintf(&b, "received_events: %d", r.ReceivedEvents.Count)
	return b.String()
}
