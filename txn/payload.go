package txn

import (
	"fmt"

	"shuffle.dev/shuffle/bcs"
	"shuffle.dev/shuffle/keys"
)

// Payload is the action a transaction performs.
type Payload interface {
	tag() uint8
	encode(e *bcs.Encoder)
}

const (
	tagTransfer      uint8 = 0
	tagCreateAccount uint8 = 1
)

// Transfer moves Amount from the sender to Recipient.
type Transfer struct {
	Recipient keys.Address
	Amount    uint64
}

func (Transfer) tag() uint8 { return tagTransfer }

func (p Transfer) encode(e *bcs.Encoder) {
	e.FixedBytes(p.Recipient[:]).U64(p.Amount)
}

// CreateAccount creates Address funded with InitialBalance from the sender.
type CreateAccount struct {
	Address           keys.Address
	AuthenticationKey []byte
	InitialBalance    uint64
}

func (CreateAccount) tag() uint8 { return tagCreateAccount }

func (p CreateAccount) encode(e *bcs.Encoder) {
	e.FixedBytes(p.Address[:]).Bytes(p.AuthenticationKey).U64(p.InitialBalance)
}

func encodePayload(e *bcs.Encoder, p Payload) {
	e.U8(p.tag())
	p.encode(e)
}

func decodePayload(d *bcs.Decoder) (Payload, error) {
	switch t := d.U8(); t {
	case tagTransfer:
		var p Transfer
		copy(p.Recipient[:], d.FixedBytes(keys.AddressLength))
		p.Amount = d.U64()
		return p, nil
	case tagCreateAccount:
		var p CreateAccount
		copy(p.Address[:], d.FixedBytes(keys.AddressLength))
		p.AuthenticationKey = d.Bytes()
		p.InitialBalance = d.U64()
		return p, nil
	default:
		if d.Err() != nil {
			return nil, d.Err()
		}
		return nil, fmt.Errorf("txn: unknown payload tag %d", t)
	}
}
