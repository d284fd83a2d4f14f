package relay

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/pkg/errors"
)

// Ciphertext is the wire form of an AEAD-sealed DKG round-3 share (§4.3).
type Ciphertext struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeriveKey turns the x-coordinate of a per-pair Diffie-Hellman shared
// point into a 32-byte AES-256 key via SHA-256, per §4.3: "the key for the
// channel between i and j is derived from the x-coordinate of u_i*Y_j
// (equivalently u_j*Y_i)".
func DeriveKey(sharedXCoord *big.Int) []byte {
	h := sha256.Sum256(sharedXCoord.Bytes())
	return h[:]
}

// Seal encrypts plaintext under key with a fresh random nonce. A failure
// here (bad key length, RNG failure) is always a programmer/environment
// error, never a protocol-level one, so it is returned rather than
// swallowed.
func Seal(key, plaintext []byte) (*Ciphertext, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "relay: constructing AES cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "relay: constructing GCM")
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "relay: reading nonce entropy")
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)
	return &Ciphertext{Nonce: nonce, Ciphertext: ct}, nil
}

// Open decrypts ct under key. An authentication failure on an inbound
// share is NOT returned as an error: it yields an empty plaintext, and the
// caller decides what that means (the DKG engine aborts round 3 naming the
// sender), since this layer cannot tell "wrong key" from "malicious peer".
func Open(key []byte, ct *Ciphertext) []byte {
	if isZeroNonce(ct.Nonce) {
		return nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil
	}
	pt, err := gcm.Open(nil, ct.Nonce, ct.Ciphertext, nil)
	if err != nil {
		return []byte{}
	}
	return pt
}

// isZeroNonce reports whether a non-empty nonce is all-zero. §9 requires
// rejecting a zero nonce outright rather than feeding it to GCM: this
// spec defines no backward-compat mode that would justify accepting one.
func isZeroNonce(nonce []byte) bool {
	if len(nonce) == 0 {
		return false
	}
	for _, b := range nonce {
		if b != 0 {
			return false
		}
	}
	return true
}
