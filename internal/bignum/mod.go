// Package bignum provides modular-arithmetic and randomness helpers shared
// across the curve, Paillier, VSS, and proof packages.
package bignum

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

var (
	Zero = big.NewInt(0)
	One  = big.NewInt(1)
	Two  = big.NewInt(2)
)

// Ring performs arithmetic modulo a fixed modulus.
type Ring struct {
	n *big.Int
}

func ModRing(n *big.Int) Ring { return Ring{n} }

func (r Ring) Add(x, y *big.Int) *big.Int { return new(big.Int).Mod(new(big.Int).Add(x, y), r.n) }
func (r Ring) Sub(x, y *big.Int) *big.Int { return new(big.Int).Mod(new(big.Int).Sub(x, y), r.n) }
func (r Ring) Mul(x, y *big.Int) *big.Int { return new(big.Int).Mod(new(big.Int).Mul(x, y), r.n) }
func (r Ring) Exp(x, y *big.Int) *big.Int { return new(big.Int).Exp(x, y, r.n) }
func (r Ring) Inverse(x *big.Int) *big.Int {
	return new(big.Int).ModInverse(x, r.n)
}
func (r Ring) Neg(x *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Neg(x), r.n)
}

const maxRandomBits = 5000

// MustRandomBits returns a uniformly random non-negative integer strictly
// below 2^bits. Panics on entropy starvation or an out-of-range bit length.
func MustRandomBits(bits int) *big.Int {
	if bits <= 0 || maxRandomBits < bits {
		panic(fmt.Errorf("bignum: bit length %d out of range", bits))
	}
	max := new(big.Int).Lsh(One, uint(bits))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(errors.Wrap(err, "bignum: entropy source failed"))
	}
	return n
}

// RandomBelow returns a uniformly random value in [0, bound).
func RandomBelow(bound *big.Int) *big.Int {
	if bound == nil || bound.Sign() <= 0 {
		return nil
	}
	for {
		candidate := MustRandomBits(bound.BitLen())
		if candidate.Cmp(bound) < 0 {
			return candidate
		}
	}
}

// RandomUnit returns a random element of (Z/nZ)* — coprime to n, in [1,n).
func RandomUnit(n *big.Int) *big.Int {
	if n == nil || n.Sign() <= 0 {
		return nil
	}
	for {
		candidate := MustRandomBits(n.BitLen())
		if candidate.Sign() <= 0 || candidate.Cmp(n) >= 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, candidate, n).Cmp(One) == 0 {
			return candidate
		}
	}
}

// InRange reports whether 0 <= v < bound.
func InRange(v, bound *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(bound) < 0
}
