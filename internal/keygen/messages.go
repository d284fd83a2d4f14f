package keygen

import (
	"math/big"

	"github.com/aerius-tss/gg18-signer/internal/paillier"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/schnorr"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

// round1Message carries the hiding commitment to Y_i plus the party's
// Paillier public key and its GMR98 proof of correct key construction.
type round1Message struct {
	Commitment *big.Int        `json:"commitment"`
	PaillierN  *big.Int        `json:"paillier_n"`
	KeyProof   paillier.KeyProof `json:"key_proof"`
}

// round2Message opens the round-1 commitment: D is [blinding, Yx, Yy].
type round2Message struct {
	Opening []*big.Int `json:"opening"`
}

// round3Message is the AEAD-encrypted Shamir share sent P2P, i<-j.
type round3Message struct {
	Ciphertext *relay.Ciphertext `json:"ciphertext"`
}

// round4Message broadcasts a party's Feldman commitment vector.
type round4Message struct {
	Commitments vss.Commitments `json:"commitments"`
}

// round5Message broadcasts the closing Schnorr DLog proof of x_i.
type round5Message struct {
	Proof *schnorr.DLogProof `json:"proof"`
}
