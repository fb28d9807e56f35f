/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"math/big"

	"github.com/pkg/errors"
)

// PrimarySignature is the CL signature (A, e, v) over the attributes and m2.
type PrimarySignature struct {
	M2 *BigNumber `json:"m_2"`
	A  *BigNumber `json:"a"`
	E  *BigNumber `json:"e"`
	V  *BigNumber `json:"v"`
}

// SignatureCorrectnessProof proves A was computed as Q^(1/e).
type SignatureCorrectnessProof struct {
	SE *BigNumber `json:"se"`
	C  *BigNumber `json:"c"`
}

// Validate checks that every component is present.
func (s *PrimarySignature) Validate() error {
	if s == nil || !numbersPresent(s.M2, s.A, s.E, s.V) {
		return errors.New("primary signature is incomplete")
	}

	return nil
}

// Validate checks that every component is present.
func (p *SignatureCorrectnessProof) Validate() error {
	if p == nil || !numbersPresent(p.SE, p.C) {
		return errors.New("signature correctness proof is incomplete")
	}

	return nil
}

// Copy returns a deep copy.
func (s *PrimarySignature) Copy() *PrimarySignature {
	return &PrimarySignature{
		M2: NewBigNumber(s.M2.Int()),
		A:  NewBigNumber(s.A.Int()),
		E:  NewBigNumber(s.E.Int()),
		V:  NewBigNumber(s.V.Int()),
	}
}

// Sign produces a signature over the known attribute values, the holder's
// blinded secrets and the context m2. nonce is the request nonce that binds
// the correctness proof.
func Sign(pk *PublicKey, sk *PrivateKey, secrets *BlindedSecrets, values map[string]*big.Int, m2 *big.Int,
	nonce *BigNumber) (*PrimarySignature, *SignatureCorrectnessProof, error) {
	if err := pk.Validate(); err != nil {
		return nil, nil, err
	}

	if sk == nil || !numbersPresent(sk.P, sk.Q) {
		return nil, nil, errors.New("private key is incomplete")
	}

	if err := secrets.Validate(); err != nil {
		return nil, nil, err
	}

	if nonce == nil || m2 == nil {
		return nil, nil, errors.New("nonce and credential context are required")
	}

	if err := checkKnownValues(pk, values); err != nil {
		return nil, nil, err
	}

	n := pk.N.Int()
	order := sk.order()

	vPrimePrime, err := randomBits(vPrimePrimeBits - 1)
	if err != nil {
		return nil, nil, err
	}

	vPrimePrime.SetBit(vPrimePrime, vPrimePrimeBits-1, 1)

	e, err := primeInRange(eStartBits, eRangeBits)
	if err != nil {
		return nil, nil, err
	}

	denom := mulMod(n, secrets.U.Int(), new(big.Int).Exp(pk.S.Int(), vPrimePrime, n))
	denom = mulMod(n, denom, knownProduct(pk, values, m2))

	q, err := quotient(pk.Z.Int(), denom, n)
	if err != nil {
		return nil, nil, err
	}

	eInv := new(big.Int).ModInverse(e, order)
	if eInv == nil {
		return nil, nil, errors.New("signature exponent is not invertible")
	}

	a := new(big.Int).Exp(q, eInv, n)

	r, err := randomBelow(order)
	if err != nil {
		return nil, nil, err
	}

	aTilde := new(big.Int).Exp(q, r, n)
	c := hashToInt(q.Bytes(), a.Bytes(), aTilde.Bytes(), nonce.Int().Bytes())

	se := new(big.Int).Mul(c, eInv)
	se.Sub(r, se)
	se.Mod(se, order)

	sig := &PrimarySignature{M2: bn(new(big.Int).Set(m2)), A: bn(a), E: bn(e), V: bn(vPrimePrime)}

	return sig, &SignatureCorrectnessProof{SE: bn(se), C: bn(c)}, nil
}

// ProcessSignature verifies the issuer's correctness proof and returns the
// holder's final signature with v = v' + v”.
func ProcessSignature(pk *PublicKey, sig *PrimarySignature, proof *SignatureCorrectnessProof,
	factors *BlindingFactors, values map[string]*big.Int, linkSecret, nonce *BigNumber) (*PrimarySignature, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}

	if err := sig.Validate(); err != nil {
		return nil, err
	}

	if err := proof.Validate(); err != nil {
		return nil, err
	}

	if err := factors.Validate(); err != nil {
		return nil, err
	}

	if linkSecret == nil || nonce == nil {
		return nil, errors.New("link secret and nonce are required")
	}

	if err := checkKnownValues(pk, values); err != nil {
		return nil, err
	}

	if !validE(sig.E.Int()) {
		return nil, errors.New("signature exponent is out of range")
	}

	n := pk.N.Int()
	a, e := sig.A.Int(), sig.E.Int()
	v := new(big.Int).Add(factors.VPrime.Int(), sig.V.Int())

	denom := mulMod(n,
		new(big.Int).Exp(pk.S.Int(), v, n),
		modPow(pk.R[LinkSecretAttr].Int(), linkSecret.Int(), n),
		knownProduct(pk, values, sig.M2.Int()))

	q, err := quotient(pk.Z.Int(), denom, n)
	if err != nil {
		return nil, err
	}

	if new(big.Int).Exp(a, e, n).Cmp(q) != 0 {
		return nil, errors.New("signature does not verify")
	}

	c := proof.C.Int()
	aHat := mulMod(n, new(big.Int).Exp(a, c, n), modPow(q, proof.SE.Int(), n))

	if hashToInt(q.Bytes(), a.Bytes(), aHat.Bytes(), nonce.Int().Bytes()).Cmp(c) != 0 {
		return nil, errors.New("signature correctness proof is invalid")
	}

	return &PrimarySignature{M2: NewBigNumber(sig.M2.Int()), A: NewBigNumber(a), E: NewBigNumber(e), V: bn(v)}, nil
}

// VerifySignature checks A^e * S^v * prod(R_i^m_i) * Rctxt^m2 = Z. values
// must include the link secret.
func VerifySignature(pk *PublicKey, sig *PrimarySignature, values map[string]*big.Int) bool {
	if pk.Validate() != nil || sig.Validate() != nil || len(values) != len(pk.R) {
		return false
	}

	n := pk.N.Int()
	acc := mulMod(n, new(big.Int).Exp(sig.A.Int(), sig.E.Int(), n), modPow(pk.S.Int(), sig.V.Int(), n))

	for name, r := range pk.R {
		m, ok := values[name]
		if !ok {
			return false
		}

		acc = mulMod(n, acc, modPow(r.Int(), m, n))
	}

	acc = mulMod(n, acc, modPow(pk.Rctxt.Int(), sig.M2.Int(), n))

	return acc.Cmp(pk.Z.Int()) == 0
}

func checkKnownValues(pk *PublicKey, values map[string]*big.Int) error {
	if len(values) != len(pk.R)-1 {
		return errors.Errorf("expected %d attribute values, got %d", len(pk.R)-1, len(values))
	}

	for name, v := range values {
		if name == LinkSecretAttr {
			return errors.Errorf("%s cannot be a known value", LinkSecretAttr)
		}

		if _, ok := pk.R[name]; !ok {
			return errors.Errorf("attribute %s is not part of the key", name)
		}

		if v == nil {
			return errors.Errorf("attribute %s has no value", name)
		}
	}

	return nil
}

func knownProduct(pk *PublicKey, values map[string]*big.Int, m2 *big.Int) *big.Int {
	n := pk.N.Int()
	acc := modPow(pk.Rctxt.Int(), m2, n)

	for name, m := range values {
		acc = mulMod(n, acc, modPow(pk.R[name].Int(), m, n))
	}

	return acc
}

func quotient(num, denom, n *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(denom, n)
	if inv == nil {
		return nil, errors.New("value is not invertible modulo n")
	}

	return mulMod(n, num, inv), nil
}

func validE(e *big.Int) bool {
	start := new(big.Int).Lsh(one, eStartBits)
	end := new(big.Int).Lsh(one, eRangeBits)
	end.Add(end, start)

	return e.Cmp(start) >= 0 && e.Cmp(end) < 0 && e.ProbablyPrime(25)
}
