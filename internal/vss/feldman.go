// Package vss implements Feldman verifiable secret sharing over secp256k1,
// grounded on the degree-t Shamir scheme used throughout GG18 (§4.5 round
// 3/4, §3 invariant).
package vss

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/curve"
)

type Share struct {
	Threshold int
	ID        *big.Int // party index (xi)
	Value     *big.Int // sigma_i
}

// Commitments is the vector v0..vt of degree-t polynomial coefficient
// commitments: v0 = secret*G.
type Commitments []*curve.Point

var ring = bignum.ModRing(curve.N())

// Create splits secret into len(ids) Feldman shares requiring threshold+1
// of them to reconstruct, and returns the public commitment vector.
func Create(threshold int, secret *big.Int, ids []*big.Int) (Commitments, []*Share, error) {
	if threshold < 1 {
		return nil, nil, errors.New("vss: threshold must be >= 1")
	}
	if len(ids) <= threshold {
		return nil, nil, errors.New("vss: not enough participants for threshold")
	}
	if err := checkDistinctNonZero(ids); err != nil {
		return nil, nil, err
	}

	poly := make([]*big.Int, threshold+1)
	poly[0] = secret
	for i := 1; i <= threshold; i++ {
		poly[i] = bignum.RandomBelow(curve.N())
	}

	commits := make(Commitments, len(poly))
	for i, coeff := range poly {
		commits[i] = curve.ScalarBaseMult(coeff)
	}

	shares := make([]*Share, len(ids))
	for i, id := range ids {
		shares[i] = &Share{Threshold: threshold, ID: id, Value: evaluate(poly, id)}
	}
	return commits, shares, nil
}

func evaluate(poly []*big.Int, at *big.Int) *big.Int {
	result := new(big.Int).Set(poly[0])
	xPow := big.NewInt(1)
	for i := 1; i < len(poly); i++ {
		xPow = ring.Mul(xPow, at)
		result = ring.Add(result, ring.Mul(poly[i], xPow))
	}
	return result
}

// Verify checks share against the published commitment vector.
func (s *Share) Verify(commits Commitments) bool {
	if s.Threshold != len(commits)-1 {
		return false
	}
	return curve.ScalarBaseMult(s.Value).Equals(EvaluateCommitment(commits, s.ID))
}

// EvaluateCommitment evaluates the public polynomial behind commits at id,
// i.e. computes what Share.Value*G must equal for a genuine share at id.
// Exposed so callers can derive a party's public share point without
// holding that party's private share value (used by the DLog-proof check
// that closes out DKG, §4.5 round 5).
func EvaluateCommitment(commits Commitments, id *big.Int) *curve.Point {
	acc := commits[0]
	xPow := big.NewInt(1)
	for j := 1; j < len(commits); j++ {
		xPow = ring.Mul(xPow, id)
		acc = acc.Add(commits[j].ScalarMult(xPow))
	}
	return acc
}

// LagrangeCoefficient computes lambda_i(S) for party id within subset ids.
func LagrangeCoefficient(id *big.Int, ids []*big.Int) *big.Int {
	num := big.NewInt(1)
	den := big.NewInt(1)
	for _, other := range ids {
		if other.Cmp(id) == 0 {
			continue
		}
		num = ring.Mul(num, other)
		den = ring.Mul(den, ring.Sub(other, id))
	}
	return ring.Mul(num, ring.Inverse(den))
}

// Reconstruct recovers the secret from a threshold-satisfying share set
// using Lagrange interpolation at x=0.
func Reconstruct(shares []*Share) (*big.Int, error) {
	if len(shares) == 0 || len(shares) <= shares[0].Threshold {
		return nil, errors.New("vss: not enough shares to reconstruct")
	}
	ids := make([]*big.Int, len(shares))
	for i, s := range shares {
		ids[i] = s.ID
	}
	secret := big.NewInt(0)
	for i, s := range shares {
		lambda := LagrangeCoefficient(ids[i], ids)
		secret = ring.Add(secret, ring.Mul(s.Value, lambda))
	}
	return secret, nil
}

func checkDistinctNonZero(ids []*big.Int) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m := new(big.Int).Mod(id, curve.N())
		if m.Sign() == 0 {
			return errors.New("vss: party index must not be 0 mod N")
		}
		k := m.String()
		if _, dup := seen[k]; dup {
			return errors.Errorf("vss: duplicate party index %s", k)
		}
		seen[k] = struct{}{}
	}
	return nil
}
