// Package keygen implements the five-round DKG engine (C5, §4.5): Feldman
// VSS share distribution and Paillier key setup producing the long-term
// signer bundle of §3.
package keygen

import (
	"math/big"

	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/paillier"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

// Params is the (t, n, own ordinal) triple a party receives from the
// coordinator's signup_keygen endpoint.
type Params struct {
	Threshold int
	Parties   int
	Index     int // 1..Parties
}

// PartyKeys is the private half of the long-term bundle: never serialized
// to the relay, only ever persisted locally.
type PartyKeys struct {
	Index    int
	U        *big.Int
	Paillier *paillier.PrivateKey
}

// SharedKeys is the share of the jointly-held secret this party ends up
// with, plus the group public key both are defined against.
type SharedKeys struct {
	Index int
	Xi    *big.Int
	Y     *curve.Point
}

// Bundle is the long-term signer bundle of §3, persisted once per party
// after a successful DKG run.
type Bundle struct {
	PartyKeys     *PartyKeys
	SharedKeys    *SharedKeys
	VssSchemeVec  []vss.Commitments    // index j -> party j's commitment vector
	PaillierEkVec []*paillier.PublicKey // index j -> party j's Paillier public key
	YSum          *curve.Point
}

// PartyIDs returns the big.Int party indices 1..n used throughout VSS.
func PartyIDs(n int) []*big.Int {
	ids := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		ids[i] = big.NewInt(int64(i + 1))
	}
	return ids
}
