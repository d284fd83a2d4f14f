// Package curve wraps secp256k1 point arithmetic for the GG18 engines.
// It is intentionally narrower than a general elliptic.Curve wrapper: this
// service only ever signs on secp256k1, so the indirection the upstream
// library carries for multi-curve support is dropped.
package curve

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// EC returns the secp256k1 curve parameters (N, P, Gx, Gy, ...).
func EC() *btcec.KoblitzCurve {
	return btcec.S256()
}

// N is the group order of secp256k1.
func N() *big.Int {
	return EC().N
}

// Point is an affine point on secp256k1. The zero value is invalid; use
// NewPoint, Generator, or ScalarBaseMult to obtain one.
type Point struct {
	x, y *big.Int
}

// NewPoint validates (x,y) lies on the curve before wrapping it.
func NewPoint(x, y *big.Int) (*Point, error) {
	if x == nil || y == nil || !EC().IsOnCurve(x, y) {
		return nil, errors.New("curve: point is not on secp256k1")
	}
	return &Point{new(big.Int).Set(x), new(big.Int).Set(y)}, nil
}

// NewPointNoCheck skips the on-curve check; only use it for points that are
// known-good, e.g. the result of a prior curve operation.
func NewPointNoCheck(x, y *big.Int) *Point {
	return &Point{new(big.Int).Set(x), new(big.Int).Set(y)}
}

func Generator() *Point {
	p := EC().Params()
	return NewPointNoCheck(p.Gx, p.Gy)
}

func ScalarBaseMult(k *big.Int) *Point {
	x, y := EC().ScalarBaseMult(new(big.Int).Mod(k, N()).Bytes())
	return NewPointNoCheck(x, y)
}

func (p *Point) X() *big.Int { return new(big.Int).Set(p.x) }
func (p *Point) Y() *big.Int { return new(big.Int).Set(p.y) }

func (p *Point) Add(q *Point) *Point {
	x, y := EC().Add(p.x, p.y, q.x, q.y)
	return NewPointNoCheck(x, y)
}

func (p *Point) Neg() *Point {
	negY := new(big.Int).Mod(new(big.Int).Neg(p.y), EC().P)
	return NewPointNoCheck(p.x, negY)
}

func (p *Point) Sub(q *Point) *Point {
	return p.Add(q.Neg())
}

func (p *Point) ScalarMult(k *big.Int) *Point {
	x, y := EC().ScalarMult(p.x, p.y, new(big.Int).Mod(k, N()).Bytes())
	return NewPointNoCheck(x, y)
}

func (p *Point) Equals(q *Point) bool {
	if p == nil || q == nil {
		return false
	}
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

func (p *Point) IsOnCurve() bool {
	return EC().IsOnCurve(p.x, p.y)
}

// Compressed returns the SEC1 compressed encoding (33 bytes).
func (p *Point) Compressed() []byte {
	pub := btcec.NewPublicKey(toFieldVal(p.x), toFieldVal(p.y))
	return pub.SerializeCompressed()
}

func toFieldVal(v *big.Int) *btcec.FieldVal {
	var f btcec.FieldVal
	b := make([]byte, 32)
	v.FillBytes(b)
	f.SetByteSlice(b)
	return &f
}

// HexString renders a coordinate as lower-case hex with no leading zero
// padding beyond what's significant — matches the wire format in the
// signature result (§6): "r, s, x, y are lower-case hex strings".
func HexString(v *big.Int) string {
	return hex.EncodeToString(v.Bytes())
}

func (p *Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X string `json:"x"`
		Y string `json:"y"`
	}{HexString(p.x), HexString(p.y)})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var aux struct {
		X string `json:"x"`
		Y string `json:"y"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	x, ok := new(big.Int).SetString(aux.X, 16)
	if !ok {
		return fmt.Errorf("curve: bad x hex %q", aux.X)
	}
	y, ok := new(big.Int).SetString(aux.Y, 16)
	if !ok {
		return fmt.Errorf("curve: bad y hex %q", aux.Y)
	}
	q, err := NewPoint(x, y)
	if err != nil {
		return err
	}
	*p = *q
	return nil
}

// FlattenPoints is used when committing to a vector of points (Feldman VSS
// commitments, etc.) as a single hash input.
func FlattenPoints(pts []*Point) []*big.Int {
	flat := make([]*big.Int, 0, len(pts)*2)
	for _, pt := range pts {
		flat = append(flat, pt.x, pt.y)
	}
	return flat
}
