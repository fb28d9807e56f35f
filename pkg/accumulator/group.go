/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"crypto/rand"
	"encoding/json"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Order returns the prime order q of the BN254 groups.
func Order() *big.Int {
	return fr.Modulus()
}

// PointG1 is a G1 element serialized as base58 of its compressed form.
type PointG1 struct {
	bn254.G1Affine
}

// PointG2 is a G2 element serialized as base58 of its compressed form.
type PointG2 struct {
	bn254.G2Affine
}

// PointGT is a target group element serialized as base58.
type PointGT struct {
	bn254.GT
}

// Scalar is an integer modulo q serialized as a decimal string.
type Scalar struct {
	v big.Int
}

func (p PointG1) MarshalJSON() ([]byte, error) {
	b := p.G1Affine.Bytes()
	return json.Marshal(base58.Encode(b[:]))
}

func (p *PointG1) UnmarshalJSON(data []byte) error {
	raw, err := decodeBase58JSON(data)
	if err != nil {
		return err
	}

	if _, err := p.G1Affine.SetBytes(raw); err != nil {
		return errors.Wrap(err, "invalid G1 point")
	}

	return nil
}

// Bytes returns the compressed encoding.
func (p *PointG1) Bytes() []byte {
	b := p.G1Affine.Bytes()
	return b[:]
}

func (p PointG2) MarshalJSON() ([]byte, error) {
	b := p.G2Affine.Bytes()
	return json.Marshal(base58.Encode(b[:]))
}

func (p *PointG2) UnmarshalJSON(data []byte) error {
	raw, err := decodeBase58JSON(data)
	if err != nil {
		return err
	}

	if _, err := p.G2Affine.SetBytes(raw); err != nil {
		return errors.Wrap(err, "invalid G2 point")
	}

	return nil
}

// Bytes returns the compressed encoding.
func (p *PointG2) Bytes() []byte {
	b := p.G2Affine.Bytes()
	return b[:]
}

func (p PointGT) MarshalJSON() ([]byte, error) {
	b := p.GT.Bytes()
	return json.Marshal(base58.Encode(b[:]))
}

func (p *PointGT) UnmarshalJSON(data []byte) error {
	raw, err := decodeBase58JSON(data)
	if err != nil {
		return err
	}

	if err := p.GT.SetBytes(raw); err != nil {
		return errors.Wrap(err, "invalid GT element")
	}

	return nil
}

// Bytes returns the canonical encoding.
func (p *PointGT) Bytes() []byte {
	b := p.GT.Bytes()
	return b[:]
}

// NewScalar reduces i modulo q.
func NewScalar(i *big.Int) Scalar {
	var s Scalar
	s.v.Mod(i, fr.Modulus())

	return s
}

// Int returns a copy of the value.
func (s *Scalar) Int() *big.Int {
	return new(big.Int).Set(&s.v)
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.v.String())
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.Wrap(err, "scalar must be a decimal string")
	}

	i, ok := new(big.Int).SetString(str, 10)
	if !ok || i.Sign() < 0 || i.Cmp(fr.Modulus()) >= 0 {
		return errors.Errorf("invalid scalar %q", str)
	}

	s.v.Set(i)

	return nil
}

func decodeBase58JSON(data []byte) ([]byte, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return nil, errors.Wrap(err, "group element must be a base58 string")
	}

	raw, err := base58.Decode(str)
	if err != nil {
		return nil, errors.Wrap(err, "group element is not base58")
	}

	return raw, nil
}

// randomScalar returns a uniform non-zero value modulo q.
func randomScalar() (*big.Int, error) {
	q := fr.Modulus()

	for {
		r, err := rand.Int(rand.Reader, q)
		if err != nil {
			return nil, errors.Wrap(err, "random source failed")
		}

		if r.Sign() != 0 {
			return r, nil
		}
	}
}

func randomScalars(n int) ([]*big.Int, error) {
	out := make([]*big.Int, n)
	for i := range out {
		r, err := randomScalar()
		if err != nil {
			return nil, err
		}

		out[i] = r
	}

	return out, nil
}

func modQ(i *big.Int) *big.Int {
	return new(big.Int).Mod(i, fr.Modulus())
}

func mulQ(a, b *big.Int) *big.Int {
	return modQ(new(big.Int).Mul(a, b))
}

func negQ(a *big.Int) *big.Int {
	return modQ(new(big.Int).Neg(a))
}

// g1Mul returns prod(bases[i]^exps[i]) written additively.
func g1Mul(bases []bn254.G1Affine, exps []*big.Int) bn254.G1Affine {
	var acc bn254.G1Affine

	for i := range bases {
		var t bn254.G1Affine
		t.ScalarMultiplication(&bases[i], modQ(exps[i]))
		acc.Add(&acc, &t)
	}

	return acc
}

func g2Mul(bases []bn254.G2Affine, exps []*big.Int) bn254.G2Affine {
	var acc bn254.G2Affine

	for i := range bases {
		var t bn254.G2Affine
		t.ScalarMultiplication(&bases[i], modQ(exps[i]))
		acc.Add(&acc, &t)
	}

	return acc
}

// pair computes e(p, q); either input at infinity maps to one.
func pair(p bn254.G1Affine, q bn254.G2Affine) bn254.GT {
	var out bn254.GT
	if p.IsInfinity() || q.IsInfinity() {
		out.SetOne()
		return out
	}

	out, _ = bn254.Pair([]bn254.G1Affine{p}, []bn254.G2Affine{q})

	return out
}

// gtMul returns prod(bases[i]^exps[i]).
func gtMul(bases []bn254.GT, exps []*big.Int) bn254.GT {
	var acc bn254.GT
	acc.SetOne()

	for i := range bases {
		var t bn254.GT
		t.Exp(bases[i], modQ(exps[i]))
		acc.Mul(&acc, &t)
	}

	return acc
}

func gtDiv(a, b bn254.GT) bn254.GT {
	var inv, out bn254.GT
	inv.Inverse(&b)
	out.Mul(&a, &inv)

	return out
}

func gtBytes(e bn254.GT) []byte {
	b := e.Bytes()
	return b[:]
}

func g1Bytes(p bn254.G1Affine) []byte {
	b := p.Bytes()
	return b[:]
}

func g2Bytes(p bn254.G2Affine) []byte {
	b := p.Bytes()
	return b[:]
}
