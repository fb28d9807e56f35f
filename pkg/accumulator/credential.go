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

// NonRevocationCredential is the issuer's signature binding m2 to registry
// index I.
type NonRevocationCredential struct {
	Sigma        PointG1 `json:"sigma"`
	C            Scalar  `json:"c"`
	VRPrimePrime Scalar  `json:"vr_prime_prime"`
	SigmaI       PointG2 `json:"sigma_i"`
	GI           PointG1 `json:"g_i"`
	I            uint32  `json:"i"`
	M2           Scalar  `json:"m2"`
}

// IssueCredential signs m2 for index idx of the registry.
func IssueCredential(pk *PublicKey, sk *PrivateKey, regPriv *RegistryPrivateKey, maxCredNum, idx uint32,
	m2 *big.Int) (*NonRevocationCredential, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}

	if sk == nil || regPriv == nil {
		return nil, errors.New("revocation private keys are required")
	}

	if err := checkIndex(idx, maxCredNum); err != nil {
		return nil, err
	}

	q := Order()
	gammaI := new(big.Int).Exp(regPriv.Gamma.Int(), big.NewInt(int64(idx)), q)

	var gi bn254.G1Affine
	gi.ScalarMultiplication(&pk.G.G1Affine, gammaI)

	skPlus := modQ(new(big.Int).Add(sk.SK.Int(), gammaI))
	skInv := new(big.Int).ModInverse(skPlus, q)
	if skInv == nil {
		return nil, errors.New("witness signature exponent is not invertible")
	}

	var sigmaI bn254.G2Affine
	sigmaI.ScalarMultiplication(&pk.GDash.G2Affine, skInv)

	var (
		c, s  *big.Int
		xcInv *big.Int
	)

	for xcInv == nil {
		r, err := randomScalars(2)
		if err != nil {
			return nil, err
		}

		c, s = r[0], r[1]
		xcInv = new(big.Int).ModInverse(modQ(new(big.Int).Add(sk.X.Int(), c)), q)
	}

	m2q := modQ(m2)
	base := g1Mul([]bn254.G1Affine{pk.H0.G1Affine, pk.H1.G1Affine, pk.H2.G1Affine, gi},
		[]*big.Int{big.NewInt(1), m2q, s, big.NewInt(1)})

	var sigma bn254.G1Affine
	sigma.ScalarMultiplication(&base, xcInv)

	return &NonRevocationCredential{
		Sigma:        PointG1{G1Affine: sigma},
		C:            NewScalar(c),
		VRPrimePrime: NewScalar(s),
		SigmaI:       PointG2{G2Affine: sigmaI},
		GI:           PointG1{G1Affine: gi},
		I:            idx,
		M2:           NewScalar(m2q),
	}, nil
}

// Verify checks both pairing equations of the credential against pk and
// that it carries m2.
func (c *NonRevocationCredential) Verify(pk *PublicKey, m2 *big.Int) error {
	if err := pk.Validate(); err != nil {
		return err
	}

	if c == nil {
		return errors.New("non-revocation credential is missing")
	}

	if c.M2.Int().Cmp(modQ(m2)) != 0 {
		return errors.New("non-revocation credential is bound to a different context")
	}

	var yc bn254.G2Affine
	yc.ScalarMultiplication(&pk.HCap.G2Affine, c.C.Int())
	yc.Add(&yc, &pk.Y.G2Affine)

	base := g1Mul([]bn254.G1Affine{pk.H0.G1Affine, pk.H1.G1Affine, pk.H2.G1Affine, c.GI.G1Affine},
		[]*big.Int{big.NewInt(1), c.M2.Int(), c.VRPrimePrime.Int(), big.NewInt(1)})

	lhs := pair(c.Sigma.G1Affine, yc)
	rhs := pair(base, pk.HCap.G2Affine)

	if !lhs.Equal(&rhs) {
		return errors.New("non-revocation signature is invalid")
	}

	var pkG bn254.G1Affine
	pkG.Add(&pk.PK.G1Affine, &c.GI.G1Affine)

	lhs = pair(pkG, c.SigmaI.G2Affine)
	rhs = pair(pk.G.G1Affine, pk.GDash.G2Affine)

	if !lhs.Equal(&rhs) {
		return errors.New("witness signature is invalid")
	}

	return nil
}
