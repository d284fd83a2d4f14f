// Package mta implements the multiplicative-to-additive share conversion
// used in signing round 2 (§4.6): given Alice holding a and Bob holding b,
// the parties end up holding additive shares alpha, beta with
// alpha + beta = a*b (mod q), without either learning the other's input.
//
// Range-proof soundness (RangeProofAlice/ProofBob in the upstream library)
// is out of scope here: ZK-proof verification in this engine is limited to
// the DLog/HEG checks the spec calls out explicitly in §4.5/§4.6 (protocol
// abort on failed proof), not the full GG18 range-proof battery, which
// depends on DLN auxiliary parameters this spec does not provision.
package mta

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/paillier"
	"github.com/aerius-tss/gg18-signer/internal/schnorr"
)

var ring = bignum.ModRing(curve.N())

// MessageA is Alice's round-1 payload: an encryption of her scalar a.
type MessageA struct {
	C *big.Int
}

func NewMessageA(pkA *paillier.PublicKey, a *big.Int) (*MessageA, *big.Int, error) {
	c, r, err := pkA.EncryptAndReturnRandomness(a)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mta: alice encryption failed")
	}
	return &MessageA{C: c}, r, nil
}

// MessageB is Bob's response, carrying Enc(a*b + beta') under Alice's key.
type MessageB struct {
	C *big.Int
}

// BobStep computes Bob's additive share beta = -beta' (mod q) and the
// ciphertext to return to Alice.
func BobStep(pkA *paillier.PublicKey, a *MessageA, b *big.Int) (beta *big.Int, msg *MessageB, err error) {
	q5 := new(big.Int).Exp(curve.N(), big.NewInt(5), nil)
	betaPrime := bignum.RandomBelow(q5)
	cBetaPrime, err := pkA.Encrypt(betaPrime)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mta: bob encryption failed")
	}
	cB, err := pkA.HomoMult(b, a.C)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mta: bob homomorphic mult failed")
	}
	cB, err = pkA.HomoAdd(cB, cBetaPrime)
	if err != nil {
		return nil, nil, errors.Wrap(err, "mta: bob homomorphic add failed")
	}
	beta = ring.Neg(betaPrime)
	return beta, &MessageB{C: cB}, nil
}

// BobStepWC is BobStep plus a proof binding the share b to an expected
// public point B = b*G, letting Alice verify (per §4.6 round 2) that Bob
// used the w_i value implied by his VSS commitments rather than an
// arbitrary scalar.
type MessageBWC struct {
	MessageB
	B     *curve.Point
	Proof *schnorr.DLogProof
}

func BobStepWC(pkA *paillier.PublicKey, a *MessageA, b *big.Int) (beta *big.Int, msg *MessageBWC, err error) {
	beta, base, err := BobStep(pkA, a, b)
	if err != nil {
		return nil, nil, err
	}
	bPoint := curve.ScalarBaseMult(b)
	proof := schnorr.ProveDLog(b)
	return beta, &MessageBWC{MessageB: *base, B: bPoint, Proof: proof}, nil
}

// AliceEnd recovers alpha = Dec(cB) mod q.
func AliceEnd(skA *paillier.PrivateKey, msg *MessageB) (*big.Int, error) {
	m, err := skA.Decrypt(msg.C)
	if err != nil {
		return nil, errors.Wrap(err, "mta: alice decryption failed")
	}
	return new(big.Int).Mod(m, curve.N()), nil
}

// AliceEndWC is AliceEnd plus verification that msg.B matches the expected
// public point g^{w_j} recovered from j's VSS commitments (§4.6 round 2:
// "verify MB_w.pk equals the expected g^{w_j}").
func AliceEndWC(skA *paillier.PrivateKey, msg *MessageBWC, expected *curve.Point) (*big.Int, error) {
	if !msg.Proof.Verify(msg.B) {
		return nil, errors.New("mta: bob's DLog proof failed verification")
	}
	if !msg.B.Equals(expected) {
		return nil, errors.New("mta: bob's committed share does not match expected public share")
	}
	return AliceEnd(skA, &msg.MessageB)
}
