/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"math/big"

	"github.com/pkg/errors"
)

// BlindedSecrets is the holder commitment U = S^v' * R_ms^ms.
type BlindedSecrets struct {
	U                   *BigNumber            `json:"u"`
	HiddenAttributes    []string              `json:"hidden_attributes"`
	CommittedAttributes map[string]*BigNumber `json:"committed_attributes"`
}

// BlindedSecretsCorrectnessProof proves knowledge of the opening of U.
type BlindedSecretsCorrectnessProof struct {
	C        *BigNumber            `json:"c"`
	VDashCap *BigNumber            `json:"v_dash_cap"`
	MCaps    map[string]*BigNumber `json:"m_caps"`
	RCaps    map[string]*BigNumber `json:"r_caps"`
}

// BlindingFactors is the holder-private opening of U.
type BlindingFactors struct {
	VPrime *BigNumber `json:"v_prime"`
}

// Validate checks the commitment shape.
func (b *BlindedSecrets) Validate() error {
	if b == nil || b.U == nil {
		return errors.New("blinded secrets are incomplete")
	}

	if len(b.HiddenAttributes) != 1 || b.HiddenAttributes[0] != LinkSecretAttr {
		return errors.Errorf("blinded secrets must hide exactly %s", LinkSecretAttr)
	}

	return nil
}

// Validate checks the proof shape.
func (p *BlindedSecretsCorrectnessProof) Validate() error {
	if p == nil || !numbersPresent(p.C, p.VDashCap) {
		return errors.New("blinded secrets correctness proof is incomplete")
	}

	if p.MCaps[LinkSecretAttr] == nil {
		return errors.Errorf("blinded secrets correctness proof has no %s response", LinkSecretAttr)
	}

	return nil
}

// Validate checks the opening is present.
func (f *BlindingFactors) Validate() error {
	if f == nil || f.VPrime == nil {
		return errors.New("blinding factors are incomplete")
	}

	return nil
}

// BlindLinkSecret verifies the issuer's key correctness proof and commits to
// linkSecret. nonce is the issuer's offer nonce.
func BlindLinkSecret(pk *PublicKey, kcp *KeyCorrectnessProof, linkSecret, nonce *BigNumber) (*BlindedSecrets,
	*BlindedSecretsCorrectnessProof, *BlindingFactors, error) {
	if err := VerifyKeyCorrectnessProof(pk, kcp); err != nil {
		return nil, nil, nil, err
	}

	if linkSecret == nil || nonce == nil {
		return nil, nil, nil, errors.New("link secret and nonce are required")
	}

	n, s, rms := pk.N.Int(), pk.S.Int(), pk.R[LinkSecretAttr].Int()
	ms := linkSecret.Int()

	vPrime, err := randomBits(vPrimeBits)
	if err != nil {
		return nil, nil, nil, err
	}

	u := mulMod(n, new(big.Int).Exp(s, vPrime, n), modPow(rms, ms, n))

	vPrimeTilde, err := randomBits(vPrimeTildeBits)
	if err != nil {
		return nil, nil, nil, err
	}

	msTilde, err := randomBits(mTildeBits)
	if err != nil {
		return nil, nil, nil, err
	}

	uTilde := mulMod(n, new(big.Int).Exp(s, vPrimeTilde, n), new(big.Int).Exp(rms, msTilde, n))
	c := hashToInt(u.Bytes(), uTilde.Bytes(), nonce.Int().Bytes())

	vDashCap := new(big.Int).Mul(c, vPrime)
	vDashCap.Add(vDashCap, vPrimeTilde)

	msCap := new(big.Int).Mul(c, ms)
	msCap.Add(msCap, msTilde)

	secrets := &BlindedSecrets{
		U:                   bn(u),
		HiddenAttributes:    []string{LinkSecretAttr},
		CommittedAttributes: map[string]*BigNumber{},
	}

	proof := &BlindedSecretsCorrectnessProof{
		C:        bn(c),
		VDashCap: bn(vDashCap),
		MCaps:    map[string]*BigNumber{LinkSecretAttr: bn(msCap)},
		RCaps:    map[string]*BigNumber{},
	}

	return secrets, proof, &BlindingFactors{VPrime: bn(vPrime)}, nil
}

// VerifyBlindedSecrets checks the holder's proof of knowledge of U's opening
// against the nonce the issuer offered.
func VerifyBlindedSecrets(pk *PublicKey, secrets *BlindedSecrets, proof *BlindedSecretsCorrectnessProof,
	nonce *BigNumber) error {
	if err := pk.Validate(); err != nil {
		return err
	}

	if err := secrets.Validate(); err != nil {
		return err
	}

	if err := proof.Validate(); err != nil {
		return err
	}

	if nonce == nil {
		return errors.New("nonce is required")
	}

	if proof.VDashCap.Int().BitLen() > vPrimeTildeBits+1 {
		return errors.New("blinded secrets correctness proof response is out of range")
	}

	n, s, rms := pk.N.Int(), pk.S.Int(), pk.R[LinkSecretAttr].Int()
	u := secrets.U.Int()
	c := proof.C.Int()

	uHat := mulMod(n,
		modPow(u, new(big.Int).Neg(c), n),
		modPow(s, proof.VDashCap.Int(), n),
		modPow(rms, proof.MCaps[LinkSecretAttr].Int(), n))

	if hashToInt(u.Bytes(), uHat.Bytes(), nonce.Int().Bytes()).Cmp(c) != 0 {
		return errors.New("blinded secrets correctness proof is invalid")
	}

	return nil
}
