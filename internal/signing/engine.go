package signing

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/aerius-tss/gg18-signer/internal/bignum"
	"github.com/aerius-tss/gg18-signer/internal/commitment"
	"github.com/aerius-tss/gg18-signer/internal/curve"
	"github.com/aerius-tss/gg18-signer/internal/hdkey"
	"github.com/aerius-tss/gg18-signer/internal/keygen"
	"github.com/aerius-tss/gg18-signer/internal/logging"
	"github.com/aerius-tss/gg18-signer/internal/mta"
	"github.com/aerius-tss/gg18-signer/internal/protocol"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/schnorr"
	"github.com/aerius-tss/gg18-signer/internal/vss"
)

var logger = logging.Named("signing")

const pollDelay = 200 * time.Millisecond

var ring = bignum.ModRing(curve.N())

// Engine runs one party's side of the nine-round GG18 signing protocol.
type Engine struct {
	relay  *relay.Client
	params Params
}

func NewEngine(transport relay.Transport, roomUUID string, params Params) *Engine {
	return &Engine{relay: relay.NewClient(transport, roomUUID), params: params}
}

func (e *Engine) Run(ctx context.Context) (*Result, error) {
	p := e.params
	self := p.RegistryOrdinal
	n := p.RoomSize
	originalIndex := p.Bundle.PartyKeys.Index

	logger.Infow("starting signing session", "self", self, "n", n, "original_index", originalIndex)

	// round 0: signer identification
	if err := e.broadcastJSON(ctx, protocol.RoundSignIdent, round0Message{OriginalIndex: originalIndex}); err != nil {
		return nil, err
	}
	raw0, err := e.relay.PollBroadcasts(ctx, self, n, protocol.RoundSignIdent, pollDelay)
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSignIdent, self)
	}
	signersVec := make([]int, n)
	signersVec[self-1] = originalIndex
	j := 0
	for i := 0; i < n; i++ {
		if i+1 == self {
			continue
		}
		var m round0Message
		if err := json.Unmarshal(raw0[j], &m); err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSignIdent, i+1)
		}
		signersVec[i] = m.OriginalIndex
		j++
	}

	// optional HD tweak, applied before computing this party's signing key
	// share (§4.4: "must be applied before SignKeys::create")
	yChild := p.Bundle.YSum
	xi := new(big.Int).Set(p.Bundle.SharedKeys.Xi)
	vssSchemeVec := make([]vss.Commitments, len(p.Bundle.VssSchemeVec))
	copy(vssSchemeVec, p.Bundle.VssSchemeVec)
	if len(p.Path) > 0 {
		derived, err := hdkey.Derive(p.Bundle.YSum, p.Path)
		if err != nil {
			return nil, protocol.NewError(err, "signing", "hd", self)
		}
		yChild = derived.ChildKey
		xi = ring.Add(xi, derived.Tweak)
		// The leader (room ordinal 1) is the only party whose raw u_i would
		// also need the tweak for later DKG-time operations; signing never
		// revisits u_i, so only the shared VSS commitment vector needs
		// rewriting here, and only once: vssSchemeVec[0] by convention
		// (matches the upstream service's "apply on first commitment" rule).
		vssSchemeVec[0] = hdkey.TweakCommitments(vssSchemeVec[0], derived.Tweak)
	}

	selfID := big.NewInt(int64(originalIndex))
	signerIDs := make([]*big.Int, n)
	for i, idx := range signersVec {
		signerIDs[i] = big.NewInt(int64(idx))
	}
	lambda := vss.LagrangeCoefficient(selfID, signerIDs)
	wi := ring.Mul(lambda, xi)

	ownPaillier := p.Bundle.PartyKeys.Paillier

	// round 1: commit to gamma_i*G, broadcast Paillier-encrypted k_i
	ki := bignum.RandomBelow(curve.N())
	gammai := bignum.RandomBelow(curve.N())
	gammaPoint := curve.ScalarBaseMult(gammai)
	cd1, err := commitment.New(gammaPoint.X(), gammaPoint.Y())
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSign1, self)
	}
	msgA, _, err := mta.NewMessageA(&ownPaillier.PublicKey, ki)
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSign1, self)
	}
	if err := e.broadcastJSON(ctx, protocol.RoundSign1, round1Message{Commitment: cd1.C, MessageA: msgA}); err != nil {
		return nil, err
	}
	var round1 []round1Message
	if err := e.pollJSON(ctx, protocol.RoundSign1, self, n, &round1); err != nil {
		return nil, err
	}
	round1 = spliceSelf(round1, self, round1Message{Commitment: cd1.C, MessageA: msgA})

	// round 2: pairwise MtA for gamma_i and w_i
	betaGamma := make(map[int]*big.Int, n-1)
	betaW := make(map[int]*big.Int, n-1)
	for i := 0; i < n; i++ {
		peer := i + 1
		if peer == self {
			continue
		}
		peerOriginal := signersVec[i]
		peerPK := p.Bundle.PaillierEkVec[peerOriginal-1]

		bGamma, msgBGamma, err := mta.BobStepWC(peerPK, round1[i].MessageA, gammai)
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, peer)
		}
		bW, msgBW, err := mta.BobStepWC(peerPK, round1[i].MessageA, wi)
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, peer)
		}
		betaGamma[peer] = bGamma
		betaW[peer] = bW
		payload, err := json.Marshal(round2Message{Gamma: msgBGamma, W: msgBW})
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, self)
		}
		if err := e.relay.SendP2P(ctx, self, peer, protocol.RoundSign2, payload); err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, self)
		}
	}
	rawP2P, err := e.relay.PollP2P(ctx, self, n, protocol.RoundSign2, pollDelay)
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSign2, self)
	}
	alpha := big.NewInt(0)
	mu := big.NewInt(0)
	idx := 0
	for i := 0; i < n; i++ {
		peer := i + 1
		if peer == self {
			continue
		}
		peerOriginal := signersVec[i]
		var m round2Message
		if err := json.Unmarshal(rawP2P[idx], &m); err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, peer)
		}
		idx++

		if !m.Gamma.Proof.Verify(m.Gamma.B) {
			return nil, protocol.NewError(errors.New("gamma MtA proof failed"), "signing", protocol.RoundSign2, peer)
		}
		aGamma, err := mta.AliceEnd(ownPaillier, &m.Gamma.MessageB)
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, peer)
		}
		peerLambda := vss.LagrangeCoefficient(big.NewInt(int64(peerOriginal)), signerIDs)
		expectedPoint := jointFeldmanPoint(vssSchemeVec, big.NewInt(int64(peerOriginal))).ScalarMult(peerLambda)
		aW, err := mta.AliceEndWC(ownPaillier, m.W, expectedPoint)
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign2, peer)
		}
		alpha = ring.Add(alpha, aGamma)
		mu = ring.Add(mu, aW)
	}

	// round 3: broadcast delta_i, reconstruct delta^{-1}
	betaSum := big.NewInt(0)
	niSum := big.NewInt(0)
	for _, v := range betaGamma {
		betaSum = ring.Add(betaSum, v)
	}
	for _, v := range betaW {
		niSum = ring.Add(niSum, v)
	}
	deltai := ring.Add(ring.Mul(ki, gammai), ring.Add(alpha, betaSum))
	sigmai := ring.Add(ring.Mul(ki, wi), ring.Add(mu, niSum))

	if err := e.broadcastJSON(ctx, protocol.RoundSign3, round3Message{Delta: deltai}); err != nil {
		return nil, err
	}
	var round3 []round3Message
	if err := e.pollJSON(ctx, protocol.RoundSign3, self, n, &round3); err != nil {
		return nil, err
	}
	round3 = spliceSelf(round3, self, round3Message{Delta: deltai})
	delta := big.NewInt(0)
	for _, m := range round3 {
		delta = ring.Add(delta, m.Delta)
	}
	deltaInv := ring.Inverse(delta)

	// round 4: decommit gamma_i*G, reconstruct R
	if err := e.broadcastJSON(ctx, protocol.RoundSign4, round4Message{Opening: cd1.D}); err != nil {
		return nil, err
	}
	var round4 []round4Message
	if err := e.pollJSON(ctx, protocol.RoundSign4, self, n, &round4); err != nil {
		return nil, err
	}
	round4 = spliceSelf(round4, self, round4Message{Opening: cd1.D})

	gammaSum := (*curve.Point)(nil)
	for i := 0; i < n; i++ {
		peer := i + 1
		opened := &commitment.CommitDecommit{C: round1[i].Commitment, D: round4[i].Opening}
		ok, secrets, err := opened.Decommit()
		if err != nil || !ok {
			return nil, protocol.NewError(errors.New("gamma commitment failed to open"), "signing", protocol.RoundSign4, peer)
		}
		pt, err := curve.NewPoint(secrets[0], secrets[1])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign4, peer)
		}
		if gammaSum == nil {
			gammaSum = pt
		} else {
			gammaSum = gammaSum.Add(pt)
		}
	}
	r := gammaSum.ScalarMult(deltaInv)

	// phase-5A: commit to (V_i, A_i, B_i), with V_i = l_i*R + sigma_i*G
	// and A_i = l_i*G, B_i = rho_i*G (§4.6 round 5)
	li := bignum.RandomBelow(curve.N())
	rhoi := bignum.RandomBelow(curve.N())
	Ai := curve.ScalarBaseMult(li)
	Bi := curve.ScalarBaseMult(rhoi)
	Vi := r.ScalarMult(li).Add(curve.ScalarBaseMult(sigmai))
	cd5, err := commitment.New(Vi.X(), Vi.Y(), Ai.X(), Ai.Y(), Bi.X(), Bi.Y())
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSign5, self)
	}
	if err := e.broadcastJSON(ctx, protocol.RoundSign5, round5Message{Commitment: cd5.C}); err != nil {
		return nil, err
	}
	var round5 []round5Message
	if err := e.pollJSON(ctx, protocol.RoundSign5, self, n, &round5); err != nil {
		return nil, err
	}
	round5 = spliceSelf(round5, self, round5Message{Commitment: cd5.C})

	// phase-5B: decommit + HEG proof (A_i,V_i) + DLog proof (B_i)
	proofV := schnorr.ProveHEG(li, sigmai, r)
	proofB := schnorr.ProveDLog(rhoi)
	if err := e.broadcastJSON(ctx, protocol.RoundSign6, round6Message{Opening: cd5.D, ProofV: proofV, ProofB: proofB}); err != nil {
		return nil, err
	}
	var round6 []round6Message
	if err := e.pollJSON(ctx, protocol.RoundSign6, self, n, &round6); err != nil {
		return nil, err
	}
	round6 = spliceSelf(round6, self, round6Message{Opening: cd5.D, ProofV: proofV, ProofB: proofB})

	Vs := make([]*curve.Point, n)
	As := make([]*curve.Point, n)
	for i := 0; i < n; i++ {
		peer := i + 1
		opened := &commitment.CommitDecommit{C: round5[i].Commitment, D: round6[i].Opening}
		ok, secrets, err := opened.Decommit()
		if err != nil || !ok || len(secrets) != 6 {
			return nil, protocol.NewError(errors.New("phase-5A commitment failed to open"), "signing", protocol.RoundSign6, peer)
		}
		Vpt, err := curve.NewPoint(secrets[0], secrets[1])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign6, peer)
		}
		Apt, err := curve.NewPoint(secrets[2], secrets[3])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign6, peer)
		}
		Bpt, err := curve.NewPoint(secrets[4], secrets[5])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign6, peer)
		}
		if !round6[i].ProofV.Verify(Apt, Vpt, r) {
			return nil, protocol.NewError(errors.New("phase-5A HEG proof failed"), "signing", protocol.RoundSign6, peer)
		}
		if !round6[i].ProofB.Verify(Bpt) {
			return nil, protocol.NewError(errors.New("phase-5A DLog proof failed"), "signing", protocol.RoundSign6, peer)
		}
		Vs[i] = Vpt
		As[i] = Apt
	}

	// phase-5C: commit to (U_i, T_i), U_i = mu_i*G, T_i = mu_i*R + sigma_i*G
	// — a second, independently-keyed binding of sigma_i to R (§4.6 round 7)
	mui := bignum.RandomBelow(curve.N())
	Ui := curve.ScalarBaseMult(mui)
	Ti := r.ScalarMult(mui).Add(curve.ScalarBaseMult(sigmai))
	cd7, err := commitment.New(Ui.X(), Ui.Y(), Ti.X(), Ti.Y())
	if err != nil {
		return nil, protocol.NewError(err, "signing", protocol.RoundSign7, self)
	}
	if err := e.broadcastJSON(ctx, protocol.RoundSign7, round7Message{Commitment: cd7.C}); err != nil {
		return nil, err
	}
	var round7 []round7Message
	if err := e.pollJSON(ctx, protocol.RoundSign7, self, n, &round7); err != nil {
		return nil, err
	}
	round7 = spliceSelf(round7, self, round7Message{Commitment: cd7.C})

	// phase-5D: decommit, then prove a discrete-log equality across bases G
	// and R binding this round's sigma_i to round 6's, without revealing it:
	// (A_i - U_i) and (V_i - T_i) share the same exponent l_i - mu_i, which
	// forces T_i = mu_i*R + sigma_i*G for the very sigma_i folded into V_i
	// (§4.6 round 8: "verify all round-7 commitments open").
	diff := ring.Sub(li, mui)
	proofLink := schnorr.ProveHEG(diff, bignum.Zero, r)
	if err := e.broadcastJSON(ctx, protocol.RoundSign8, round8Message{Opening: cd7.D, ProofLink: proofLink}); err != nil {
		return nil, err
	}
	var round8 []round8Message
	if err := e.pollJSON(ctx, protocol.RoundSign8, self, n, &round8); err != nil {
		return nil, err
	}
	round8 = spliceSelf(round8, self, round8Message{Opening: cd7.D, ProofLink: proofLink})

	for i := 0; i < n; i++ {
		peer := i + 1
		opened := &commitment.CommitDecommit{C: round7[i].Commitment, D: round8[i].Opening}
		ok, secrets, err := opened.Decommit()
		if err != nil || !ok || len(secrets) != 4 {
			return nil, protocol.NewError(errors.New("phase-5C commitment failed to open"), "signing", protocol.RoundSign8, peer)
		}
		Upt, err := curve.NewPoint(secrets[0], secrets[1])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign8, peer)
		}
		Tpt, err := curve.NewPoint(secrets[2], secrets[3])
		if err != nil {
			return nil, protocol.NewError(err, "signing", protocol.RoundSign8, peer)
		}
		if !round8[i].ProofLink.Verify(As[i].Sub(Upt), Vs[i].Sub(Tpt), r) {
			return nil, protocol.NewError(errors.New("phase-5C consistency proof failed"), "signing", protocol.RoundSign8, peer)
		}
	}

	// round 9: broadcast local signature share s_i = m*k_i + r*sigma_i
	msgInt := new(big.Int).SetBytes(p.Message)
	msgInt = new(big.Int).Mod(msgInt, new(big.Int).Lsh(bignum.One, 256))
	rMod := new(big.Int).Mod(r.X(), curve.N())
	si := ring.Add(ring.Mul(msgInt, ki), ring.Mul(rMod, sigmai))

	if err := e.broadcastJSON(ctx, protocol.RoundSign9, round9Message{S: si}); err != nil {
		return nil, err
	}
	var round9 []round9Message
	if err := e.pollJSON(ctx, protocol.RoundSign9, self, n, &round9); err != nil {
		return nil, err
	}
	round9 = spliceSelf(round9, self, round9Message{S: si})

	s := big.NewInt(0)
	for _, m := range round9 {
		s = ring.Add(s, m.S)
	}

	recID := 0
	if r.Y().Bit(0) == 1 {
		recID |= 1
	}
	if r.X().Cmp(curve.N()) >= 0 {
		recID |= 2
	}
	half := new(big.Int).Rsh(curve.N(), 1)
	if s.Cmp(half) > 0 {
		s = new(big.Int).Sub(curve.N(), s)
		recID ^= 1
	}

	pub := &ecdsa.PublicKey{Curve: curve.EC(), X: yChild.X(), Y: yChild.Y()}
	if !ecdsa.Verify(pub, p.Message, rMod, s) {
		return nil, protocol.NewError(errors.New("final ECDSA verification failed"), "signing", protocol.RoundSign9, self)
	}

	logger.Infow("signing complete", "self", self)

	return &Result{R: rMod, S: s, RecoveryID: recID, ChildKey: yChild, MsgInt: msgInt}, nil
}

// jointFeldmanPoint sums every DKG-time party's Feldman polynomial
// evaluated at id, the public point a genuine joint share at id must equal
// (mirrors keygen's evaluateJointShare; duplicated locally since signing
// has no dependency on keygen's engine internals, only its Bundle shape).
func jointFeldmanPoint(vssSchemeVec []vss.Commitments, id *big.Int) *curve.Point {
	acc := vss.EvaluateCommitment(vssSchemeVec[0], id)
	for i := 1; i < len(vssSchemeVec); i++ {
		acc = acc.Add(vss.EvaluateCommitment(vssSchemeVec[i], id))
	}
	return acc
}

func (e *Engine) broadcastJSON(ctx context.Context, round string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "signing: marshaling round %s", round)
	}
	if err := e.relay.Broadcast(ctx, e.params.RegistryOrdinal, round, payload); err != nil {
		return protocol.NewError(err, "signing", round, e.params.RegistryOrdinal)
	}
	return nil
}

func (e *Engine) pollJSON(ctx context.Context, round string, self, n int, out interface{}) error {
	raw, err := e.relay.PollBroadcasts(ctx, self, n, round, pollDelay)
	if err != nil {
		return protocol.NewError(err, "signing", round, self)
	}
	switch dst := out.(type) {
	case *[]round1Message:
		*dst = make([]round1Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round3Message:
		*dst = make([]round3Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round4Message:
		*dst = make([]round4Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round5Message:
		*dst = make([]round5Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round6Message:
		*dst = make([]round6Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round7Message:
		*dst = make([]round7Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round8Message:
		*dst = make([]round8Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	case *[]round9Message:
		*dst = make([]round9Message, len(raw))
		for i, r := range raw {
			if err := json.Unmarshal(r, &(*dst)[i]); err != nil {
				return errors.Wrapf(err, "signing: unmarshal round %s", round)
			}
		}
	default:
		return errors.Errorf("signing: unsupported poll target type %T", out)
	}
	return nil
}

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
