// Package signing implements the nine-round GG18 signing engine (C6,
// §4.6): round-0 signer identification, commit/MtA/delta-reconstruction,
// the phase-5 A/C/D commit-reveal sequence, and final signature-share
// aggregation, with an optional HD tweak (§4.4) applied before SignKeys
// are derived.
package signing

import (
	"math/big"

	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/keygen"
)

// Params is what a signer process needs to start a signing session, once
// it has signed up in a room and learned its room ordinal.
type Params struct {
	// RegistryOrdinal is party_num_int: this party's 1-indexed ordinal
	// within the signing room, assigned by the coordinator's signup_sign.
	RegistryOrdinal int
	// RoomSize is t+1, the quorum size.
	RoomSize int
	Bundle   *keygen.Bundle
	// Message is the pre-hashed 32-byte digest to sign; the engine never
	// rehashes it (§4.6 "Message hashing contract").
	Message []byte
	// Path is the optional BIP32-like HD derivation path (§4.4); empty
	// means sign under the root joint key.
	Path []uint32
}

// Result is the final output of a successful signing session: a standard
// ECDSA signature plus the recovery id and the child public key it
// verifies under.
type Result struct {
	R          *big.Int
	S          *big.Int
	RecoveryID int
	ChildKey   *curve.Point
	MsgInt     *big.Int
}
