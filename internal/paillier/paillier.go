// Package paillier implements the additively homomorphic Paillier
// cryptosystem used inside MtA (§4.6 round 2) and as the per-party
// encryption key published during DKG (§4.5 round 1).
package paillier

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/otiai10/primes"
	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
)

// ModulusBits is the recommended Paillier modulus length per the GG18 spec.
const ModulusBits = 2048

const proofIterations = 13
const verifyPrimesUntil = 1000

var (
	errMessageRange = errors.New("paillier: plaintext or ciphertext out of range")
	errMalformed    = errors.New("paillier: ciphertext not in multiplicative group")
)

func init() {
	// warm the small-prime cache used by proof verification
	_ = primes.Globally.Until(verifyPrimesUntil)
}

type PublicKey struct {
	N *big.Int
}

type PrivateKey struct {
	PublicKey
	Lambda *big.Int // lcm(p-1, q-1)
	Phi    *big.Int // (p-1)(q-1)
}

// KeyProof is a non-interactive proof that N is the product of two large
// primes (Gennaro-Micciancio-Rabin), binding the Paillier key to a party's
// ephemeral DLog commitment so it cannot be swapped after the fact.
type KeyProof [proofIterations]*big.Int

// GenerateKeyPair samples two random primes of modulusBits/2 each. Primality
// uses crypto/rand's Miller-Rabin prime search; this is adequate for a
// service context where key generation happens once per party at DKG time.
func GenerateKeyPair(modulusBits int) (*PrivateKey, error) {
	half := modulusBits / 2
	var p, q, n *big.Int
	for {
		var err error
		p, err = rand.Prime(rand.Reader, half)
		if err != nil {
			return nil, errors.Wrap(err, "paillier: prime generation failed")
		}
		q, err = rand.Prime(rand.Reader, half)
		if err != nil {
			return nil, errors.Wrap(err, "paillier: prime generation failed")
		}
		if p.Cmp(q) == 0 {
			continue
		}
		n = new(big.Int).Mul(p, q)
		// avoid a degenerate modulus where p, q are suspiciously close
		diff := new(big.Int).Sub(p, q)
		if diff.BitLen() >= half-3 {
			break
		}
	}
	pMinus1 := new(big.Int).Sub(p, bignum.One)
	qMinus1 := new(big.Int).Sub(q, bignum.One)
	phi := new(big.Int).Mul(pMinus1, qMinus1)
	gcd := new(big.Int).GCD(nil, nil, pMinus1, qMinus1)
	lambda := new(big.Int).Div(phi, gcd)

	pub := PublicKey{N: n}
	return &PrivateKey{PublicKey: pub, Lambda: lambda, Phi: phi}, nil
}

func (pk *PublicKey) nSquare() *big.Int { return new(big.Int).Mul(pk.N, pk.N) }

// gamma returns N+1, the fixed generator used by the simplified Paillier
// variant (consistent with the GG18 spec's cryptosystem choice).
func (pk *PublicKey) gamma() *big.Int { return new(big.Int).Add(pk.N, bignum.One) }

func (pk *PublicKey) EncryptAndReturnRandomness(m *big.Int) (c, r *big.Int, err error) {
	if !bignum.InRange(m, pk.N) {
		return nil, nil, errMessageRange
	}
	r = bignum.RandomUnit(pk.N)
	n2 := pk.nSquare()
	ring := bignum.ModRing(n2)
	gm := ring.Exp(pk.gamma(), m)
	rn := ring.Exp(r, pk.N)
	return ring.Mul(gm, rn), r, nil
}

func (pk *PublicKey) Encrypt(m *big.Int) (*big.Int, error) {
	c, _, err := pk.EncryptAndReturnRandomness(m)
	return c, err
}

// HomoAdd returns Enc(m1+m2) given Enc(m1), Enc(m2).
func (pk *PublicKey) HomoAdd(c1, c2 *big.Int) (*big.Int, error) {
	n2 := pk.nSquare()
	if !bignum.InRange(c1, n2) || !bignum.InRange(c2, n2) {
		return nil, errMessageRange
	}
	return bignum.ModRing(n2).Mul(c1, c2), nil
}

// HomoMult returns Enc(m*k) given Enc(m) and plaintext scalar k.
func (pk *PublicKey) HomoMult(k, c *big.Int) (*big.Int, error) {
	n2 := pk.nSquare()
	if !bignum.InRange(k, pk.N) || !bignum.InRange(c, n2) {
		return nil, errMessageRange
	}
	return bignum.ModRing(n2).Exp(c, k), nil
}

func (sk *PrivateKey) Decrypt(c *big.Int) (*big.Int, error) {
	n2 := sk.nSquare()
	if !bignum.InRange(c, n2) {
		return nil, errMessageRange
	}
	if new(big.Int).GCD(nil, nil, c, n2).Cmp(bignum.One) != 0 {
		return nil, errMalformed
	}
	ring := bignum.ModRing(n2)
	lc := paillierL(ring.Exp(c, sk.Lambda), sk.N)
	lg := paillierL(ring.Exp(sk.gamma(), sk.Lambda), sk.N)
	inv := new(big.Int).ModInverse(lg, sk.N)
	return bignum.ModRing(sk.N).Mul(lc, inv), nil
}

func paillierL(u, n *big.Int) *big.Int {
	return new(big.Int).Div(new(big.Int).Sub(u, bignum.One), n)
}

// Prove produces a GMR98 proof that N is a Blum-like product of two
// primes, bound to the auxiliary value aux (the DKG engine passes the
// compressed encoding of the party's ephemeral point Y_i, §4.5 round 1).
func (sk *PrivateKey) Prove(aux []byte) KeyProof {
	xs := challenges(proofIterations, aux, sk.N)
	var proof KeyProof
	invN := new(big.Int).ModInverse(sk.N, sk.Phi)
	for i, x := range xs {
		proof[i] = new(big.Int).Exp(x, invN, sk.N)
	}
	return proof
}

// Verify checks a KeyProof produced by Prove, against the same aux binding.
func (proof KeyProof) Verify(pub *PublicKey, aux []byte) (bool, error) {
	for _, p := range primes.Until(verifyPrimesUntil).List() {
		if new(big.Int).Mod(pub.N, big.NewInt(p)).Sign() == 0 {
			return false, nil
		}
	}
	xs := challenges(proofIterations, aux, pub.N)
	if len(xs) != len(proof) {
		return false, fmt.Errorf("paillier: proof length mismatch")
	}
	for i, x := range xs {
		xModN := new(big.Int).Mod(x, pub.N)
		yExpN := new(big.Int).Exp(proof[i], pub.N, pub.N)
		if xModN.Cmp(yExpN) != 0 {
			return false, nil
		}
	}
	return true, nil
}

// challenges deterministically derives `m` field elements below N from a
// Fiat-Shamir hash of (aux, N, counter) so prover and verifier compute the
// identical xs without interaction — the non-interactive analogue of a
// verifier-supplied random oracle.
func challenges(m int, aux []byte, n *big.Int) []*big.Int {
	out := make([]*big.Int, m)
	nBytes := n.Bytes()
	for i := 0; i < m; i++ {
		var counter [4]byte
		counter[0], counter[1], counter[2], counter[3] = byte(i), byte(i>>8), byte(i>>16), byte(i>>24)
		h := sha256.New()
		h.Write(aux)
		h.Write(nBytes)
		h.Write(counter[:])
		digest := h.Sum(nil)
		// expand via counter-mode hashing until we have enough bytes, then
		// reduce mod N to land a uniform-enough element in [0, N)
		buf := digest
		for len(buf) < len(nBytes)+8 {
			h2 := sha256.New()
			h2.Write(buf)
			buf = append(buf, h2.Sum(nil)...)
		}
		out[i] = new(big.Int).Mod(new(big.Int).SetBytes(buf), n)
	}
	return out
}
