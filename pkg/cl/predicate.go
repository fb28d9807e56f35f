/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"math"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// PredicateType is one of the supported comparison operators.
type PredicateType string

// Supported predicate types.
const (
	PredicateGE PredicateType = "GE"
	PredicateGT PredicateType = "GT"
	PredicateLE PredicateType = "LE"
	PredicateLT PredicateType = "LT"
)

const deltaKey = "DELTA"

// Predicate compares a hidden attribute against a public bound.
type Predicate struct {
	AttrName string        `json:"attr_name"`
	PType    PredicateType `json:"p_type"`
	Value    int32         `json:"value"`
}

// PrimaryPredicateProof is the range proof for one predicate.
type PrimaryPredicateProof struct {
	U         map[string]*BigNumber `json:"u"`
	R         map[string]*BigNumber `json:"r"`
	Mj        *BigNumber            `json:"mj"`
	Alpha     *BigNumber            `json:"alpha"`
	T         map[string]*BigNumber `json:"t"`
	Predicate Predicate             `json:"predicate"`
}

// Validate checks the operator is known.
func (p *Predicate) Validate() error {
	switch p.PType {
	case PredicateGE, PredicateGT, PredicateLE, PredicateLT:
	default:
		return errors.Errorf("unknown predicate type %q", p.PType)
	}

	if p.AttrName == "" || p.AttrName == LinkSecretAttr {
		return errors.Errorf("invalid predicate attribute %q", p.AttrName)
	}

	return nil
}

// Satisfied reports whether value satisfies the predicate.
func (p *Predicate) Satisfied(value int64) bool {
	switch p.PType {
	case PredicateGE:
		return value >= int64(p.Value)
	case PredicateGT:
		return value > int64(p.Value)
	case PredicateLE:
		return value <= int64(p.Value)
	case PredicateLT:
		return value < int64(p.Value)
	}

	return false
}

// sign and offset give delta = sign*(m - value) - offset.
func (p *Predicate) sign() int64 {
	if p.PType == PredicateLE || p.PType == PredicateLT {
		return -1
	}

	return 1
}

func (p *Predicate) offset() int64 {
	if p.PType == PredicateGT || p.PType == PredicateLT {
		return 1
	}

	return 0
}

// bound is the constant b with m = sign*(delta + offset) + b.
func (p *Predicate) bound() *big.Int {
	return big.NewInt(p.sign()*p.offset() + int64(p.Value))
}

func (p *Predicate) delta(m *big.Int) (*big.Int, error) {
	if !m.IsInt64() || m.Int64() < math.MinInt32 || m.Int64() > math.MaxInt32 {
		return nil, errors.Errorf("attribute %s is not a 32 bit integer", p.AttrName)
	}

	d := p.sign()*(m.Int64()-int64(p.Value)) - p.offset()
	if d < 0 {
		return nil, errors.Errorf("predicate %s %s %d is not satisfied", p.AttrName, p.PType, p.Value)
	}

	return big.NewInt(d), nil
}

type predicateInit struct {
	pred   Predicate
	u      [4]*big.Int
	r      [4]*big.Int
	rDelta *big.Int
	alpha  *big.Int

	uTilde      [4]*big.Int
	rTilde      [4]*big.Int
	rDeltaTilde *big.Int
	alphaTilde  *big.Int

	t      [4]*big.Int
	tDelta *big.Int
	tau    [][]byte
}

func initPredicate(pk *PublicKey, pred Predicate, m, mTilde *big.Int) (*predicateInit, error) {
	delta, err := pred.delta(m)
	if err != nil {
		return nil, err
	}

	u, err := fourSquares(delta)
	if err != nil {
		return nil, err
	}

	n, z, s := pk.N.Int(), pk.Z.Int(), pk.S.Int()
	p := &predicateInit{pred: pred, u: u}

	for i := 0; i < 4; i++ {
		if p.r[i], err = randomBits(rBits); err != nil {
			return nil, err
		}

		if p.uTilde[i], err = randomBits(uTildeBits); err != nil {
			return nil, err
		}

		if p.rTilde[i], err = randomBits(rTildeBits); err != nil {
			return nil, err
		}

		p.t[i] = mulMod(n, new(big.Int).Exp(z, u[i], n), new(big.Int).Exp(s, p.r[i], n))
	}

	if p.rDelta, err = randomBits(rBits); err != nil {
		return nil, err
	}

	if p.rDeltaTilde, err = randomBits(rTildeBits); err != nil {
		return nil, err
	}

	if p.alphaTilde, err = randomBits(alphaTildeBits); err != nil {
		return nil, err
	}

	p.tDelta = mulMod(n, new(big.Int).Exp(z, delta, n), new(big.Int).Exp(s, p.rDelta, n))

	p.alpha = new(big.Int).Set(p.rDelta)
	for i := 0; i < 4; i++ {
		p.alpha.Sub(p.alpha, new(big.Int).Mul(u[i], p.r[i]))
	}

	for i := 0; i < 4; i++ {
		tau := mulMod(n, new(big.Int).Exp(z, p.uTilde[i], n), new(big.Int).Exp(s, p.rTilde[i], n))
		p.tau = append(p.tau, tau.Bytes())
	}

	tauDelta := mulMod(n, new(big.Int).Exp(z, mTilde, n), new(big.Int).Exp(s, p.rDeltaTilde, n))
	p.tau = append(p.tau, tauDelta.Bytes())

	tau5 := new(big.Int).Exp(s, p.alphaTilde, n)
	for i := 0; i < 4; i++ {
		tau5 = mulMod(n, tau5, new(big.Int).Exp(p.t[i], p.uTilde[i], n))
	}

	p.tau = append(p.tau, tau5.Bytes())

	return p, nil
}

func (p *predicateInit) cList() [][]byte {
	return [][]byte{p.t[0].Bytes(), p.t[1].Bytes(), p.t[2].Bytes(), p.t[3].Bytes(), p.tDelta.Bytes()}
}

func (p *predicateInit) finalize(c, mHat *big.Int) *PrimaryPredicateProof {
	resp := func(tilde, secret *big.Int) *BigNumber {
		v := new(big.Int).Mul(c, secret)
		return bn(v.Add(v, tilde))
	}

	out := &PrimaryPredicateProof{
		U:         map[string]*BigNumber{},
		R:         map[string]*BigNumber{},
		T:         map[string]*BigNumber{},
		Mj:        NewBigNumber(mHat),
		Predicate: p.pred,
	}

	for i := 0; i < 4; i++ {
		key := strconv.Itoa(i)
		out.U[key] = resp(p.uTilde[i], p.u[i])
		out.R[key] = resp(p.rTilde[i], p.r[i])
		out.T[key] = NewBigNumber(p.t[i])
	}

	signedDelta := new(big.Int).Mul(big.NewInt(p.pred.sign()), p.rDelta)
	out.R[deltaKey] = resp(p.rDeltaTilde, signedDelta)
	out.T[deltaKey] = NewBigNumber(p.tDelta)
	out.Alpha = resp(p.alphaTilde, p.alpha)

	return out
}

// verifyPredicate recomputes the taus and returns them with the commitments.
func verifyPredicate(pk *PublicKey, proof *PrimaryPredicateProof, c *big.Int) (tau, cList [][]byte, err error) {
	if proof.Mj == nil || proof.Alpha == nil {
		return nil, nil, errors.New("predicate proof is incomplete")
	}

	n, z, s := pk.N.Int(), pk.Z.Int(), pk.S.Int()
	negC := new(big.Int).Neg(c)

	var t [4]*big.Int
	for i := 0; i < 4; i++ {
		key := strconv.Itoa(i)
		if !numbersPresent(proof.U[key], proof.R[key], proof.T[key]) {
			return nil, nil, errors.Errorf("predicate proof is missing component %s", key)
		}

		t[i] = proof.T[key].Int()
		tau = append(tau, mulMod(n,
			modPow(t[i], negC, n),
			modPow(z, proof.U[key].Int(), n),
			modPow(s, proof.R[key].Int(), n)).Bytes())
		cList = append(cList, t[i].Bytes())
	}

	if !numbersPresent(proof.R[deltaKey], proof.T[deltaKey]) {
		return nil, nil, errors.New("predicate proof is missing its delta commitment")
	}

	tDelta := proof.T[deltaKey].Int()
	cList = append(cList, tDelta.Bytes())

	pred := proof.Predicate
	commitment := mulMod(n, modPow(tDelta, big.NewInt(pred.sign()), n), modPow(z, pred.bound(), n))

	tau = append(tau, mulMod(n,
		modPow(commitment, negC, n),
		modPow(z, proof.Mj.Int(), n),
		modPow(s, proof.R[deltaKey].Int(), n)).Bytes())

	tau5 := mulMod(n, modPow(tDelta, negC, n), modPow(s, proof.Alpha.Int(), n))
	for i := 0; i < 4; i++ {
		tau5 = mulMod(n, tau5, modPow(t[i], proof.U[strconv.Itoa(i)].Int(), n))
	}

	tau = append(tau, tau5.Bytes())

	return tau, cList, nil
}
