/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/pkg/errors"
)

// PublicKey is the revocation part of a credential definition.
type PublicKey struct {
	G      PointG1 `json:"g"`
	GDash  PointG2 `json:"g_dash"`
	H      PointG1 `json:"h"`
	H0     PointG1 `json:"h0"`
	H1     PointG1 `json:"h1"`
	H2     PointG1 `json:"h2"`
	HTilde PointG1 `json:"htilde"`
	HCap   PointG2 `json:"h_cap"`
	PK     PointG1 `json:"pk"`
	Y      PointG2 `json:"y"`
}

// PrivateKey is the issuer secret matching PublicKey.
type PrivateKey struct {
	X  Scalar `json:"x"`
	SK Scalar `json:"sk"`
}

// Validate rejects keys with bases at infinity.
func (pk *PublicKey) Validate() error {
	if pk == nil {
		return errors.New("revocation public key is missing")
	}

	for _, p := range []*PointG1{&pk.G, &pk.H, &pk.H0, &pk.H1, &pk.H2, &pk.HTilde, &pk.PK} {
		if p.IsInfinity() {
			return errors.New("revocation public key has a G1 base at infinity")
		}
	}

	for _, p := range []*PointG2{&pk.GDash, &pk.HCap, &pk.Y} {
		if p.IsInfinity() {
			return errors.New("revocation public key has a G2 base at infinity")
		}
	}

	return nil
}

// NewKeys generates revocation keys for a credential definition.
func NewKeys() (*PublicKey, *PrivateKey, error) {
	_, _, g1, g2 := bn254.Generators()

	r, err := randomScalars(10)
	if err != nil {
		return nil, nil, err
	}

	x, sk := r[8], r[9]

	pk := &PublicKey{}
	pk.G.ScalarMultiplication(&g1, r[0])
	pk.GDash.ScalarMultiplication(&g2, r[1])
	pk.H.ScalarMultiplication(&g1, r[2])
	pk.H0.ScalarMultiplication(&g1, r[3])
	pk.H1.ScalarMultiplication(&g1, r[4])
	pk.H2.ScalarMultiplication(&g1, r[5])
	pk.HTilde.ScalarMultiplication(&g1, r[6])
	pk.HCap.ScalarMultiplication(&g2, r[7])
	pk.PK.ScalarMultiplication(&pk.G.G1Affine, sk)
	pk.Y.ScalarMultiplication(&pk.HCap.G2Affine, x)

	return pk, &PrivateKey{X: NewScalar(x), SK: NewScalar(sk)}, nil
}

// RegistryPublicKey is the accumulator key z = e(g, g')^(gamma^(L+1)).
type RegistryPublicKey struct {
	Z PointGT `json:"z"`
}

// RegistryPrivateKey holds the registry trapdoor gamma.
type RegistryPrivateKey struct {
	Gamma Scalar `json:"gamma"`
}

// NewRegistry generates the keys and tails for a registry of maxCredNum
// credentials. Tail k (1..2L) is g'^(gamma^k); tail L+1 is the identity.
func NewRegistry(pk *PublicKey, maxCredNum uint32) (*RegistryPublicKey, *RegistryPrivateKey, MemoryTails, error) {
	if err := pk.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if maxCredNum == 0 {
		return nil, nil, nil, errors.New("registry size must be positive")
	}

	gamma, err := randomScalar()
	if err != nil {
		return nil, nil, nil, err
	}

	l := uint64(maxCredNum)
	tails := make(MemoryTails, 2*l)
	pow := new(big.Int).Set(gamma)

	for k := uint64(1); k <= 2*l; k++ {
		if k != l+1 {
			tails[k-1].ScalarMultiplication(&pk.GDash.G2Affine, pow)
		}

		pow = mulQ(pow, gamma)
	}

	exp := new(big.Int).Exp(gamma, new(big.Int).SetUint64(l+1), Order())

	var z bn254.GT
	base := pair(pk.G.G1Affine, pk.GDash.G2Affine)
	z.Exp(base, exp)

	return &RegistryPublicKey{Z: PointGT{GT: z}}, &RegistryPrivateKey{Gamma: NewScalar(gamma)}, tails, nil
}
