package signing

import (
	"math/big"

	"github.com/aerius-tss/gg18-signer/internal/mta"
	"github.com/aerius-tss/gg18-signer/internal/schnorr"
)

// round0Message carries this party's original DKG index, used to assemble
// signers_vec (§4.6 round 0).
type round0Message struct {
	OriginalIndex int `json:"original_index"`
}

// round1Message is the commit+MessageA pair of signing round 1.
type round1Message struct {
	Commitment *big.Int      `json:"commitment"`
	MessageA   *mta.MessageA `json:"message_a"`
}

// round2Message is the P2P MtA response pair (gamma, w) of round 2.
type round2Message struct {
	Gamma *mta.MessageBWC `json:"gamma"`
	W     *mta.MessageBWC `json:"w"`
}

type round3Message struct {
	Delta *big.Int `json:"delta"`
}

// round4Message opens the round-1 commitment to Gamma_i = gamma_i*G.
type round4Message struct {
	Opening []*big.Int `json:"opening"`
}

// round5Message is the phase-5A commitment to (V_i, A_i, B_i).
type round5Message struct {
	Commitment *big.Int `json:"commitment"`
}

// round6Message opens the phase-5A commitment and proves it.
type round6Message struct {
	Opening []*big.Int        `json:"opening"`
	ProofV  *schnorr.HEGProof `json:"proof_v"`
	ProofB  *schnorr.DLogProof `json:"proof_b"`
}

// round7Message is the phase-5C commitment to (U_i, T_i).
type round7Message struct {
	Commitment *big.Int `json:"commitment"`
}

// round8Message opens the phase-5C commitment and proves, via a discrete-
// log-equality proof across bases G and R, that the sigma_i folded into
// T_i is the same one folded into round 6's V_i (§4.6 round 8: "verify
// all round-7 commitments open").
type round8Message struct {
	Opening   []*big.Int        `json:"opening"`
	ProofLink *schnorr.HEGProof `json:"proof_link"`
}

// round9Message is the final local signature share s_i.
type round9Message struct {
	S *big.Int `json:"s"`
}
