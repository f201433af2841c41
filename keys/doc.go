// Package keys generates and persists the local signing credential.
//
// A Credential is an Ed25519 key pair plus the network address derived from
// its public key. The 32-byte private key seed is the only secret: the public
// key and the address are recomputed from it on load.
//
// Address derivation:
//
//	authentication key = sha3-256(public key || 0x00)
//	address            = last 16 bytes of the authentication key
package keys
