/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.uber.org/zap"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
)

var logger = log.New("anoncreds/cl")

// SubProofRequest names what a single credential must reveal and prove.
type SubProofRequest struct {
	RevealedAttrs []string
	Predicates    []Predicate
}

// NonRevocationInput is what the holder needs to prove a credential is
// still in the accumulator.
type NonRevocationInput struct {
	PublicKey   *accumulator.PublicKey
	Accumulator accumulator.PointG2
	Credential  *accumulator.NonRevocationCredential
	Witness     *accumulator.Witness
}

// NonRevocationKeys is what the verifier needs to check a non-revocation
// sub-proof.
type NonRevocationKeys struct {
	PublicKey   *accumulator.PublicKey
	Registry    *accumulator.RegistryPublicKey
	Accumulator accumulator.PointG2
}

// Proof is an aggregated presentation proof over one or more credentials.
type Proof struct {
	Proofs          []*SubProof      `json:"proofs"`
	AggregatedProof *AggregatedProof `json:"aggregated_proof"`
}

// SubProof is the proof for a single credential.
type SubProof struct {
	PrimaryProof  *PrimaryProof              `json:"primary_proof"`
	NonRevocProof *accumulator.NonRevocProof `json:"non_revoc_proof,omitempty"`
}

// PrimaryProof combines the equality proof with the predicate proofs.
type PrimaryProof struct {
	EqProof  *PrimaryEqualProof       `json:"eq_proof"`
	GEProofs []*PrimaryPredicateProof `json:"ge_proofs"`
}

// PrimaryEqualProof proves knowledge of a signature over the revealed values.
type PrimaryEqualProof struct {
	RevealedAttrs map[string]*BigNumber `json:"revealed_attrs"`
	APrime        *BigNumber            `json:"a_prime"`
	E             *BigNumber            `json:"e"`
	V             *BigNumber            `json:"v"`
	M             map[string]*BigNumber `json:"m"`
	M2            *BigNumber            `json:"m2"`
}

// AggregatedProof carries the shared challenge and every commitment it
// was computed over.
type AggregatedProof struct {
	CHash *BigNumber `json:"c_hash"`
	CList [][]byte   `json:"c_list"`
}

// Validate checks the proof shape.
func (p *Proof) Validate() error {
	if p == nil || len(p.Proofs) == 0 {
		return errors.New("proof has no sub-proofs")
	}

	if p.AggregatedProof == nil || p.AggregatedProof.CHash == nil {
		return errors.New("proof has no aggregated challenge")
	}

	for i, sp := range p.Proofs {
		if sp == nil || sp.PrimaryProof == nil || sp.PrimaryProof.EqProof == nil {
			return errors.Errorf("sub-proof %d has no primary proof", i)
		}

		eq := sp.PrimaryProof.EqProof
		if !numbersPresent(eq.APrime, eq.E, eq.V, eq.M2) {
			return errors.Errorf("sub-proof %d equality proof is incomplete", i)
		}
	}

	return nil
}

// Challenge hashes the tau list, the commitment list and the nonce.
func Challenge(tau, cList [][]byte, nonce *BigNumber) *big.Int {
	parts := make([][]byte, 0, len(tau)+len(cList)+1)
	parts = append(parts, tau...)
	parts = append(parts, cList...)
	parts = append(parts, nonce.Int().Bytes())

	return hashToInt(parts...)
}

type eqInit struct {
	revealed []string
	values   map[string]*big.Int
	m2       *big.Int

	aPrime, t      *big.Int
	ePrime, vPrime *big.Int
	eTilde, vTilde *big.Int
	mTilde         map[string]*big.Int
	m2Tilde        *big.Int
}

type subProofInit struct {
	eq       *eqInit
	preds    []*predicateInit
	nonRevoc *accumulator.NonRevocInitProof
}

func (s *subProofInit) tauList() [][]byte {
	var out [][]byte
	if s.nonRevoc != nil {
		out = append(out, s.nonRevoc.TauList()...)
	}

	out = append(out, s.eq.t.Bytes())
	for _, p := range s.preds {
		out = append(out, p.tau...)
	}

	return out
}

func (s *subProofInit) cList() [][]byte {
	var out [][]byte
	if s.nonRevoc != nil {
		out = append(out, s.nonRevoc.CList()...)
	}

	out = append(out, s.eq.aPrime.Bytes())
	for _, p := range s.preds {
		out = append(out, p.cList()...)
	}

	return out
}

// ProofBuilder collects sub-proofs that share one link secret blinding and
// one challenge.
type ProofBuilder struct {
	linkSecretTilde *big.Int
	subs            []*subProofInit
}

// NewProofBuilder starts an empty proof.
func NewProofBuilder() (*ProofBuilder, error) {
	t, err := randomBits(mTildeBits)
	if err != nil {
		return nil, err
	}

	return &ProofBuilder{linkSecretTilde: t}, nil
}

// AddSubProofRequest commits to a credential. values must hold every
// attribute of pk including the link secret. nonRevoc is nil for a
// credential that is not revocable.
func (b *ProofBuilder) AddSubProofRequest(req *SubProofRequest, pk *PublicKey, sig *PrimarySignature,
	values map[string]*big.Int, nonRevoc *NonRevocationInput) error {
	if req == nil {
		return errors.New("sub-proof request is required")
	}

	if err := pk.Validate(); err != nil {
		return err
	}

	if err := sig.Validate(); err != nil {
		return err
	}

	if len(values) != len(pk.R) {
		return errors.Errorf("expected %d attribute values, got %d", len(pk.R), len(values))
	}

	for name := range pk.R {
		if values[name] == nil {
			return errors.Errorf("missing value for attribute %s", name)
		}
	}

	revealed, err := revealedSet(pk, req)
	if err != nil {
		return err
	}

	eq, err := b.initEq(pk, sig, values, revealed)
	if err != nil {
		return err
	}

	sub := &subProofInit{eq: eq}

	for _, pred := range req.Predicates {
		if err := pred.Validate(); err != nil {
			return err
		}

		if _, ok := pk.R[pred.AttrName]; !ok {
			return errors.Errorf("predicate attribute %s is not part of the credential", pred.AttrName)
		}

		if _, ok := revealed[pred.AttrName]; ok {
			return errors.Errorf("attribute %s cannot be both revealed and used in a predicate", pred.AttrName)
		}

		p, err := initPredicate(pk, pred, values[pred.AttrName], eq.mTilde[pred.AttrName])
		if err != nil {
			return err
		}

		sub.preds = append(sub.preds, p)
	}

	if nonRevoc != nil {
		if nonRevoc.Credential == nil {
			return errors.New("non-revocation credential is required")
		}

		if nonRevoc.Credential.M2.Int().Cmp(new(big.Int).Mod(sig.M2.Int(), accumulator.Order())) != 0 {
			return errors.New("non-revocation credential does not match the primary signature")
		}

		nr, err := accumulator.InitNonRevocationProof(nonRevoc.PublicKey, nonRevoc.Accumulator,
			nonRevoc.Credential, nonRevoc.Witness, eq.m2Tilde)
		if err != nil {
			return err
		}

		sub.nonRevoc = nr
	}

	b.subs = append(b.subs, sub)

	return nil
}

func revealedSet(pk *PublicKey, req *SubProofRequest) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(req.RevealedAttrs))

	for _, name := range req.RevealedAttrs {
		if name == LinkSecretAttr {
			return nil, errors.Errorf("%s cannot be revealed", LinkSecretAttr)
		}

		if _, ok := pk.R[name]; !ok {
			return nil, errors.Errorf("revealed attribute %s is not part of the credential", name)
		}

		out[name] = struct{}{}
	}

	return out, nil
}

func (b *ProofBuilder) initEq(pk *PublicKey, sig *PrimarySignature, values map[string]*big.Int,
	revealed map[string]struct{}) (*eqInit, error) {
	n, s := pk.N.Int(), pk.S.Int()

	r, err := randomBits(rBits)
	if err != nil {
		return nil, err
	}

	eq := &eqInit{values: make(map[string]*big.Int, len(values)), m2: sig.M2.Int(), mTilde: map[string]*big.Int{}}
	for name, v := range values {
		eq.values[name] = new(big.Int).Set(v)
	}

	for name := range revealed {
		eq.revealed = append(eq.revealed, name)
	}

	sort.Strings(eq.revealed)

	e := sig.E.Int()
	eq.aPrime = mulMod(n, sig.A.Int(), new(big.Int).Exp(s, r, n))
	eq.vPrime = new(big.Int).Sub(sig.V.Int(), new(big.Int).Mul(e, r))
	eq.ePrime = new(big.Int).Sub(e, new(big.Int).Lsh(one, eStartBits))

	if eq.eTilde, err = randomBits(eTildeBits); err != nil {
		return nil, err
	}

	if eq.vTilde, err = randomBits(vTildeBits); err != nil {
		return nil, err
	}

	if eq.m2Tilde, err = randomBits(mTildeBits); err != nil {
		return nil, err
	}

	t := mulMod(n, new(big.Int).Exp(eq.aPrime, eq.eTilde, n), new(big.Int).Exp(s, eq.vTilde, n))

	for name, base := range pk.R {
		if _, ok := revealed[name]; ok {
			continue
		}

		mt := b.linkSecretTilde
		if name != LinkSecretAttr {
			if mt, err = randomBits(mTildeBits); err != nil {
				return nil, err
			}
		}

		eq.mTilde[name] = mt
		t = mulMod(n, t, new(big.Int).Exp(base.Int(), mt, n))
	}

	eq.t = mulMod(n, t, new(big.Int).Exp(pk.Rctxt.Int(), eq.m2Tilde, n))

	return eq, nil
}

func (eq *eqInit) finalize(c *big.Int) *PrimaryEqualProof {
	resp := func(tilde, secret *big.Int) *BigNumber {
		v := new(big.Int).Mul(c, secret)
		return bn(v.Add(v, tilde))
	}

	out := &PrimaryEqualProof{
		RevealedAttrs: make(map[string]*BigNumber, len(eq.revealed)),
		APrime:        NewBigNumber(eq.aPrime),
		E:             resp(eq.eTilde, eq.ePrime),
		V:             resp(eq.vTilde, eq.vPrime),
		M:             make(map[string]*BigNumber, len(eq.mTilde)),
		M2:            resp(eq.m2Tilde, eq.m2),
	}

	for _, name := range eq.revealed {
		out.RevealedAttrs[name] = NewBigNumber(eq.values[name])
	}

	for name, mt := range eq.mTilde {
		out.M[name] = resp(mt, eq.values[name])
	}

	return out
}

// Finalize computes the shared challenge over every sub-proof and nonce and
// returns the completed proof.
func (b *ProofBuilder) Finalize(nonce *BigNumber) (*Proof, error) {
	if len(b.subs) == 0 {
		return nil, errors.New("no sub-proofs were added")
	}

	if nonce == nil {
		return nil, errors.New("nonce is required")
	}

	var tau, cList [][]byte
	for _, sub := range b.subs {
		tau = append(tau, sub.tauList()...)
		cList = append(cList, sub.cList()...)
	}

	c := Challenge(tau, cList, nonce)

	proof := &Proof{AggregatedProof: &AggregatedProof{CHash: bn(c), CList: cList}}

	for _, sub := range b.subs {
		eq := sub.eq.finalize(c)
		primary := &PrimaryProof{EqProof: eq, GEProofs: []*PrimaryPredicateProof{}}

		for _, p := range sub.preds {
			primary.GEProofs = append(primary.GEProofs, p.finalize(c, eq.M[p.pred.AttrName].Int()))
		}

		sp := &SubProof{PrimaryProof: primary}
		if sub.nonRevoc != nil {
			sp.NonRevocProof = sub.nonRevoc.Finalize(c)
		}

		proof.Proofs = append(proof.Proofs, sp)
	}

	return proof, nil
}

type verifierSubProof struct {
	req      *SubProofRequest
	pk       *PublicKey
	nonRevoc *NonRevocationKeys
}

// ProofVerifier checks an aggregated proof against the sub-proof requests
// it was built for, in the same order.
type ProofVerifier struct {
	subs []*verifierSubProof
}

// NewProofVerifier returns an empty verifier.
func NewProofVerifier() *ProofVerifier {
	return &ProofVerifier{}
}

// AddSubProofRequest registers the expectation for the next sub-proof.
func (v *ProofVerifier) AddSubProofRequest(req *SubProofRequest, pk *PublicKey, nonRevoc *NonRevocationKeys) error {
	if req == nil {
		return errors.New("sub-proof request is required")
	}

	if err := pk.Validate(); err != nil {
		return err
	}

	if _, err := revealedSet(pk, req); err != nil {
		return err
	}

	for _, p := range req.Predicates {
		if err := p.Validate(); err != nil {
			return err
		}
	}

	v.subs = append(v.subs, &verifierSubProof{req: req, pk: pk, nonRevoc: nonRevoc})

	return nil
}

// Verify returns false for any proof that does not check out. An error is
// returned only when the verifier itself is misconfigured.
func (v *ProofVerifier) Verify(proof *Proof, nonce *BigNumber) (bool, error) {
	if len(v.subs) == 0 {
		return false, errors.New("no sub-proof requests were added")
	}

	if nonce == nil {
		return false, errors.New("nonce is required")
	}

	if err := proof.Validate(); err != nil {
		logger.Debug("proof rejected", log.WithError(err))
		return false, nil
	}

	if len(proof.Proofs) != len(v.subs) {
		logger.Debug("proof rejected: sub-proof count mismatch")
		return false, nil
	}

	c := proof.AggregatedProof.CHash.Int()

	var (
		taus, cs   [][]byte
		linkSecret *big.Int
	)

	for i, sub := range v.subs {
		sp := proof.Proofs[i]

		subTau, subC, err := verifySubProof(sub, sp, c)
		if err != nil {
			logger.Debug("proof rejected", logfields.WithSubProofIndex(i), log.WithError(err))
			return false, nil
		}

		ms := sp.PrimaryProof.EqProof.M[LinkSecretAttr].Int()
		if linkSecret == nil {
			linkSecret = ms
		} else if linkSecret.Cmp(ms) != 0 {
			logger.Debug("proof rejected: sub-proofs use different link secrets", logfields.WithSubProofIndex(i))
			return false, nil
		}

		taus = append(taus, subTau...)
		cs = append(cs, subC...)
	}

	if !equalByteLists(cs, proof.AggregatedProof.CList) {
		logger.Debug("proof rejected: commitment list mismatch")
		return false, nil
	}

	if Challenge(taus, cs, nonce).Cmp(c) != 0 {
		logger.Debug("proof rejected: challenge mismatch", zap.Int("subProofs", len(v.subs)))
		return false, nil
	}

	return true, nil
}

func verifySubProof(sub *verifierSubProof, sp *SubProof, c *big.Int) (tau, cList [][]byte, err error) {
	eq := sp.PrimaryProof.EqProof

	if (sub.nonRevoc == nil) != (sp.NonRevocProof == nil) {
		return nil, nil, errors.New("non-revocation proof presence does not match the request")
	}

	if sp.NonRevocProof != nil {
		nrTau, err := accumulator.VerifyNonRevocationProof(sub.nonRevoc.PublicKey, sub.nonRevoc.Registry,
			sub.nonRevoc.Accumulator, sp.NonRevocProof, c, eq.M2.Int())
		if err != nil {
			return nil, nil, err
		}

		tau = append(tau, nrTau...)
		cList = append(cList, sp.NonRevocProof.CList.Bytes()...)
	}

	eqTau, err := verifyEq(sub, eq, c)
	if err != nil {
		return nil, nil, err
	}

	tau = append(tau, eqTau.Bytes())
	cList = append(cList, eq.APrime.Int().Bytes())

	if len(sp.PrimaryProof.GEProofs) != len(sub.req.Predicates) {
		return nil, nil, errors.New("predicate proof count does not match the request")
	}

	for i, pred := range sub.req.Predicates {
		ge := sp.PrimaryProof.GEProofs[i]
		if ge == nil || ge.Predicate != pred {
			return nil, nil, errors.Errorf("predicate proof %d does not match the request", i)
		}

		if !ge.Mj.Equal(eq.M[pred.AttrName]) {
			return nil, nil, errors.Errorf("predicate proof %d is not linked to the equality proof", i)
		}

		pTau, pC, err := verifyPredicate(sub.pk, ge, c)
		if err != nil {
			return nil, nil, err
		}

		tau = append(tau, pTau...)
		cList = append(cList, pC...)
	}

	return tau, cList, nil
}

func verifyEq(sub *verifierSubProof, eq *PrimaryEqualProof, c *big.Int) (*big.Int, error) {
	pk := sub.pk
	n := pk.N.Int()

	if eq.E.Int().BitLen() > eTildeBits+1 {
		return nil, errors.New("equality proof exponent response is out of range")
	}

	if len(eq.RevealedAttrs) != len(sub.req.RevealedAttrs) {
		return nil, errors.New("revealed attributes do not match the request")
	}

	for _, name := range sub.req.RevealedAttrs {
		if eq.RevealedAttrs[name] == nil {
			return nil, errors.Errorf("revealed attribute %s is missing", name)
		}
	}

	if len(eq.M)+len(eq.RevealedAttrs) != len(pk.R) {
		return nil, errors.New("hidden attributes do not match the credential")
	}

	denom := new(big.Int).Exp(eq.APrime.Int(), new(big.Int).Lsh(one, eStartBits), n)
	for name, val := range eq.RevealedAttrs {
		base, ok := pk.R[name]
		if !ok || val == nil {
			return nil, errors.Errorf("revealed attribute %s is not part of the credential", name)
		}

		denom = mulMod(n, denom, modPow(base.Int(), val.Int(), n))
	}

	zPrime, err := quotient(pk.Z.Int(), denom, n)
	if err != nil {
		return nil, err
	}

	t := mulMod(n,
		modPow(zPrime, new(big.Int).Neg(c), n),
		modPow(eq.APrime.Int(), eq.E.Int(), n),
		modPow(pk.S.Int(), eq.V.Int(), n),
		modPow(pk.Rctxt.Int(), eq.M2.Int(), n))

	for name, m := range eq.M {
		base, ok := pk.R[name]
		if !ok || m == nil {
			return nil, errors.Errorf("hidden attribute %s is not part of the credential", name)
		}

		if _, revealed := eq.RevealedAttrs[name]; revealed {
			return nil, errors.Errorf("attribute %s is both revealed and hidden", name)
		}

		t = mulMod(n, t, modPow(base.Int(), m.Int(), n))
	}

	if eq.M[LinkSecretAttr] == nil {
		return nil, errors.Errorf("equality proof has no %s response", LinkSecretAttr)
	}

	return t, nil
}

func equalByteLists(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}
