package keygen

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/commitment"
	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/logging"
	"github.com/aerius-tss/gg18-signer/internal/paillier"
	"github.com/aerius-tss/gg18-signer/internal/protocol"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/schnorr"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

var logger = logging.Named("keygen")

const pollDelay = 200 * time.Millisecond

// Engine runs one party's side of the five-round DKG.
type Engine struct {
	relay  *relay.Client
	params Params
}

func NewEngine(transport relay.Transport, roomUUID string, params Params) *Engine {
	return &Engine{relay: relay.NewClient(transport, roomUUID), params: params}
}

// Run drives the party through all five rounds and returns the long-term
// bundle on success. Any verification failure aborts without returning a
// partial bundle, per §4.5 "Termination".
func (e *Engine) Run(ctx context.Context) (*Bundle, error) {
	n, t, self := e.params.Parties, e.params.Threshold, e.params.Index
	ids := PartyIDs(n)
	selfID := ids[self-1]

	logger.Infow("starting dkg", "self", self, "n", n, "t", t)

	// --- local generation, mirroring the teacher's concurrent round-1 setup ---
	u := sampleScalar()
	y := curve.ScalarBaseMult(u)

	type paiResult struct {
		sk  *paillier.PrivateKey
		err error
	}
	paiCh := make(chan paiResult, 1)
	go func() {
		sk, err := paillier.GenerateKeyPair(paillier.ModulusBits)
		paiCh <- paiResult{sk, err}
	}()

	cd, err := commitment.New(y.X(), y.Y())
	if err != nil {
		return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen1, self)
	}

	pai := <-paiCh
	if pai.err != nil {
		return nil, protocol.NewError(pai.err, "keygen", protocol.RoundKeygen1, self)
	}
	proof := pai.sk.Prove(y.Compressed())

	// round 1: broadcast commitment + paillier key + proof
	if err := e.broadcastJSON(ctx, protocol.RoundKeygen1, round1Message{
		Commitment: cd.C,
		PaillierN:  pai.sk.PublicKey.N,
		KeyProof:   proof,
	}); err != nil {
		return nil, err
	}
	var round1 []round1Message
	if err := e.pollBroadcastJSON(ctx, protocol.RoundKeygen1, self, n, &round1); err != nil {
		return nil, err
	}
	round1 = spliceSelf(round1, self, round1Message{Commitment: cd.C, PaillierN: pai.sk.PublicKey.N, KeyProof: proof})

	// round 2: broadcast decommitment, verify peers' commitments + paillier proofs
	if err := e.broadcastJSON(ctx, protocol.RoundKeygen2, round2Message{Opening: cd.D}); err != nil {
		return nil, err
	}
	var round2 []round2Message
	if err := e.pollBroadcastJSON(ctx, protocol.RoundKeygen2, self, n, &round2); err != nil {
		return nil, err
	}
	round2 = spliceSelf(round2, self, round2Message{Opening: cd.D})

	ys := make([]*curve.Point, n)
	paillierPKs := make([]*paillier.PublicKey, n)
	for i := 0; i < n; i++ {
		party := i + 1
		opened := &commitment.CommitDecommit{C: round1[i].Commitment, D: round2[i].Opening}
		ok, secrets, err := opened.Decommit()
		if err != nil || !ok {
			return nil, protocol.NewError(errors.New("commitment failed to open"), "keygen", protocol.RoundKeygen2, party)
		}
		pt, err := curve.NewPoint(secrets[0], secrets[1])
		if err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen2, party)
		}
		ys[i] = pt
		pk := &paillier.PublicKey{N: round1[i].PaillierN}
		verified, err := round1[i].KeyProof.Verify(pk, pt.Compressed())
		if err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen2, party)
		}
		if !verified {
			return nil, protocol.NewError(errors.New("paillier key proof failed"), "keygen", protocol.RoundKeygen2, party)
		}
		paillierPKs[i] = pk
	}

	// Feldman VSS: split u into n shares of degree t.
	commits, shares, err := vss.Create(t, u, ids)
	if err != nil {
		return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, self)
	}

	// round 3: P2P, AEAD-encrypted shares keyed by DH(u_i, Y_j)
	for i := 0; i < n; i++ {
		party := i + 1
		if party == self {
			continue
		}
		key := relay.DeriveKey(ys[i].ScalarMult(u).X())
		ct, err := relay.Seal(key, shares[i].Value.Bytes())
		if err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, self)
		}
		payload, err := json.Marshal(round3Message{Ciphertext: ct})
		if err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, self)
		}
		if err := e.relay.SendP2P(ctx, self, party, protocol.RoundKeygen3, payload); err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, self)
		}
	}
	rawP2P, err := e.relay.PollP2P(ctx, self, n, protocol.RoundKeygen3, pollDelay)
	if err != nil {
		return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, self)
	}
	// rawP2P holds one payload per peer in ascending peer-index order,
	// excluding self; reinsert a placeholder for self so indexing by
	// original party number stays direct.
	receivedShares := make([]*big.Int, n)
	receivedShares[self-1] = shares[self-1].Value
	idx := 0
	for i := 0; i < n; i++ {
		party := i + 1
		if party == self {
			continue
		}
		var m round3Message
		if err := json.Unmarshal(rawP2P[idx], &m); err != nil {
			return nil, protocol.NewError(err, "keygen", protocol.RoundKeygen3, party)
		}
		idx++
		key := relay.DeriveKey(ys[i].ScalarMult(u).X())
		plain := relay.Open(key, m.Ciphertext)
		if len(plain) == 0 {
			return nil, protocol.NewError(errors.New("AEAD decryption failed"), "keygen", protocol.RoundKeygen3, party)
		}
		receivedShares[i] = new(big.Int).SetBytes(plain)
	}

	// round 4: broadcast Feldman commitment vectors
	if err := e.broadcastJSON(ctx, protocol.RoundKeygen4, round4Message{Commitments: commits}); err != nil {
		return nil, err
	}
	var round4 []round4Message
	if err := e.pollBroadcastJSON(ctx, protocol.RoundKeygen4, self, n, &round4); err != nil {
		return nil, err
	}
	round4 = spliceSelf(round4, self, round4Message{Commitments: commits})

	vssSchemeVec := make([]vss.Commitments, n)
	xi := big.NewInt(0)
	ring := bignum.ModRing(curve.N())
	for i := 0; i < n; i++ {
		party := i + 1
		vssSchemeVec[i] = round4[i].Commitments
		share := &vss.Share{Threshold: t, ID: selfID, Value: receivedShares[i]}
		if !share.Verify(round4[i].Commitments) {
			return nil, protocol.NewError(errors.New("feldman check failed for received share"), "keygen", protocol.RoundKeygen4, party)
		}
		xi = ring.Add(xi, receivedShares[i])
	}

	ySum := ys[0]
	for i := 1; i < n; i++ {
		ySum = ySum.Add(ys[i])
	}

	// round 5: close out with a Schnorr DLog proof of x_i against the
	// public point every other party can independently recompute from the
	// round-4 commitment vectors.
	dlogProof := schnorr.ProveDLog(xi)
	if err := e.broadcastJSON(ctx, protocol.RoundKeygen5, round5Message{Proof: dlogProof}); err != nil {
		return nil, err
	}
	var round5 []round5Message
	if err := e.pollBroadcastJSON(ctx, protocol.RoundKeygen5, self, n, &round5); err != nil {
		return nil, err
	}
	round5 = spliceSelf(round5, self, round5Message{Proof: dlogProof})

	for i := 0; i < n; i++ {
		party := i + 1
		pubExpected := evaluateJointShare(vssSchemeVec, ids[i])
		if !round5[i].Proof.Verify(pubExpected) {
			return nil, protocol.NewError(errors.New("dlog proof failed"), "keygen", protocol.RoundKeygen5, party)
		}
	}

	logger.Infow("dkg complete", "self", self)

	return &Bundle{
		PartyKeys:     &PartyKeys{Index: self, U: u, Paillier: pai.sk},
		SharedKeys:    &SharedKeys{Index: self, Xi: xi, Y: ySum},
		VssSchemeVec:  vssSchemeVec,
		PaillierEkVec: paillierPKs,
		YSum:          ySum,
	}, nil
}

// evaluateJointShare sums every party's Feldman polynomial evaluated at id,
// giving the public point that id's joint Shamir share must equal: the
// value the round-5 DLog proof is checked against.
func evaluateJointShare(vssSchemeVec []vss.Commitments, id *big.Int) *curve.Point {
	acc := vss.EvaluateCommitment(vssSchemeVec[0], id)
	for i := 1; i < len(vssSchemeVec); i++ {
		acc = acc.Add(vss.EvaluateCommitment(vssSchemeVec[i], id))
	}
	return acc
}

func (e *Engine) broadcastJSON(ctx context.Context, round string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "keygen: marshaling round %s", round)
	}
	if err := e.relay.Broadcast(ctx, e.params.Index, round, payload); err != nil {
		return protocol.NewError(err, "keygen", round, e.params.Index)
	}
	return nil
}

// pollBroadcastJSON polls and unmarshals every peer's round payload into
// out, a pointer to a slice sized len-1 (n minus self) in ascending peer
// order; the caller then re-splices its own value in with spliceSelf.
func (e *Engine) pollBroadcastJSON(ctx context.Context, round string, self, n int, out interface{}) error {
	raw, err := e.relay.PollBroadcasts(ctx, self, n, round, pollDelay)
	if err != nil {
		return protocol.NewError(err, "keygen", round, self)
	}
	switch dst := out.(type) {
	case *[]round1Message:
		*dst = make([]round1Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "keygen: unmarshal round %s", round)
			}
		}
	case *[]round2Message:
		*dst = make([]round2Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "keygen: unmarshal round %s", round)
			}
		}
	case *[]round4Message:
		*dst = make([]round4Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "keygen: unmarshal round %s", round)
			}
		}
	case *[]round5Message:
		*dst = make([]round5Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "keygen: unmarshal round %s", round)
			}
		}
	default:
		return errors.Errorf("keygen: unsupported poll target type %T", out)
	}
	return nil
}

// spliceSelf inserts own into the peer-only, ascending-order slice at
// position self-1, producing a full n-length slice indexed by original
// party number minus one, per §4.5's ordering tie-break.
func spliceSelf[T any](peers []T, self int, own T) []T {
	out := make([]T, len(peers)+1)
	j := 0
	for i := range out {
		party := i + 1
		if party == self {
			out[i] = own
			continue
		}
		out[i] = peers[j]
		j++
	}
	return out
}

func sampleScalar() *big.Int {
	return bignum.RandomBelow(curve.N())
}
