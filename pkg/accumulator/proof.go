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

// NonRevocProof proves possession of a non-revocation credential whose
// index is in the accumulator, without revealing the index.
type NonRevocProof struct {
	XList NonRevocProofXList `json:"x_list"`
	CList NonRevocProofCList `json:"c_list"`
}

// NonRevocProofXList carries the responses.
type NonRevocProofXList struct {
	Rho         Scalar `json:"rho"`
	R           Scalar `json:"r"`
	RPrime      Scalar `json:"r_prime"`
	RPrimePrime Scalar `json:"r_prime_prime"`
	O           Scalar `json:"o"`
	OPrime      Scalar `json:"o_prime"`
	M           Scalar `json:"m"`
	MPrime      Scalar `json:"m_prime"`
	T           Scalar `json:"t"`
	TPrime      Scalar `json:"t_prime"`
	M2          Scalar `json:"m2"`
	S           Scalar `json:"s"`
	C           Scalar `json:"c"`
}

// NonRevocProofCList carries the blinded commitments.
type NonRevocProofCList struct {
	E PointG1 `json:"e"`
	D PointG1 `json:"d"`
	A PointG1 `json:"a"`
	G PointG1 `json:"g"`
	W PointG2 `json:"w"`
	S PointG2 `json:"s"`
}

// Bytes returns the commitments in challenge order.
func (c *NonRevocProofCList) Bytes() [][]byte {
	return [][]byte{c.E.Bytes(), c.D.Bytes(), c.A.Bytes(), c.G.Bytes(), c.W.Bytes(), c.S.Bytes()}
}

type xValues struct {
	rho, r, rPrime, rPrimePrime, o, oPrime, m, mPrime, t, tPrime, m2, s, c *big.Int
}

func (x *NonRevocProofXList) values() *xValues {
	return &xValues{
		rho: x.Rho.Int(), r: x.R.Int(), rPrime: x.RPrime.Int(), rPrimePrime: x.RPrimePrime.Int(),
		o: x.O.Int(), oPrime: x.OPrime.Int(), m: x.M.Int(), mPrime: x.MPrime.Int(),
		t: x.T.Int(), tPrime: x.TPrime.Int(), m2: x.M2.Int(), s: x.S.Int(), c: x.C.Int(),
	}
}

// NonRevocInitProof is the prover state between commitment and response.
type NonRevocInitProof struct {
	cList   NonRevocProofCList
	secrets *xValues
	tildes  *xValues
	tau     [][]byte
}

// InitNonRevocationProof blinds cred and witness against accumulator acc and
// computes the tau commitments. m2Tilde is the blinding shared with the
// primary proof for m2.
func InitNonRevocationProof(pk *PublicKey, acc PointG2, cred *NonRevocationCredential, w *Witness,
	m2Tilde *big.Int) (*NonRevocInitProof, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}

	if cred == nil || w == nil || m2Tilde == nil {
		return nil, errors.New("credential, witness and m2 blinding are required")
	}

	r, err := randomScalars(6)
	if err != nil {
		return nil, err
	}

	sec := &xValues{rho: r[0], o: r[1], r: r[2], rPrime: r[3], rPrimePrime: r[4], oPrime: r[5]}
	sec.c = cred.C.Int()
	sec.m = mulQ(sec.rho, sec.c)
	sec.t = mulQ(sec.o, sec.c)
	sec.mPrime = mulQ(sec.r, sec.rPrimePrime)
	sec.tPrime = mulQ(sec.oPrime, sec.rPrimePrime)
	sec.m2 = cred.M2.Int()
	sec.s = cred.VRPrimePrime.Int()

	g, h, ht := pk.G.G1Affine, pk.H.G1Affine, pk.HTilde.G1Affine
	hc := pk.HCap.G2Affine

	var cl NonRevocProofCList
	cl.E.G1Affine = g1Mul([]bn254.G1Affine{h, ht}, []*big.Int{sec.rho, sec.o})
	cl.D.G1Affine = g1Mul([]bn254.G1Affine{g, ht}, []*big.Int{sec.r, sec.oPrime})
	cl.A.G1Affine = g1Mul([]bn254.G1Affine{cred.Sigma.G1Affine, ht}, []*big.Int{big.NewInt(1), sec.rho})
	cl.G.G1Affine = g1Mul([]bn254.G1Affine{cred.GI.G1Affine, ht}, []*big.Int{big.NewInt(1), sec.r})
	cl.W.G2Affine = g2Mul([]bn254.G2Affine{w.Omega.G2Affine, hc}, []*big.Int{big.NewInt(1), sec.rPrime})
	cl.S.G2Affine = g2Mul([]bn254.G2Affine{cred.SigmaI.G2Affine, hc}, []*big.Int{big.NewInt(1), sec.rPrimePrime})

	t, err := randomScalars(12)
	if err != nil {
		return nil, err
	}

	tl := &xValues{
		rho: t[0], r: t[1], rPrime: t[2], rPrimePrime: t[3], o: t[4], oPrime: t[5],
		m: t[6], mPrime: t[7], t: t[8], tPrime: t[9], s: t[10], c: t[11], m2: modQ(m2Tilde),
	}

	return &NonRevocInitProof{
		cList:   cl,
		secrets: sec,
		tildes:  tl,
		tau:     tauList(pk, acc, &cl, tl),
	}, nil
}

// TauList returns the commitments T1..T7.
func (p *NonRevocInitProof) TauList() [][]byte {
	return p.tau
}

// CList returns the blinded commitments.
func (p *NonRevocInitProof) CList() [][]byte {
	return p.cList.Bytes()
}

// Finalize computes the responses for challenge cHash.
func (p *NonRevocInitProof) Finalize(cHash *big.Int) *NonRevocProof {
	ch := modQ(cHash)
	resp := func(tilde, secret *big.Int) Scalar {
		return NewScalar(new(big.Int).Add(tilde, mulQ(ch, secret)))
	}

	s, t := p.secrets, p.tildes

	return &NonRevocProof{
		CList: p.cList,
		XList: NonRevocProofXList{
			Rho:         resp(t.rho, s.rho),
			R:           resp(t.r, s.r),
			RPrime:      resp(t.rPrime, s.rPrime),
			RPrimePrime: resp(t.rPrimePrime, s.rPrimePrime),
			O:           resp(t.o, s.o),
			OPrime:      resp(t.oPrime, s.oPrime),
			M:           resp(t.m, s.m),
			MPrime:      resp(t.mPrime, s.mPrime),
			T:           resp(t.t, s.t),
			TPrime:      resp(t.tPrime, s.tPrime),
			M2:          resp(t.m2, s.m2),
			S:           resp(t.s, s.s),
			C:           resp(t.c, s.c),
		},
	}
}

// VerifyNonRevocationProof recomputes the tau commitments of proof for
// challenge cHash. m2Hat is the primary proof's m2 response; it must agree
// with the proof's own.
func VerifyNonRevocationProof(pk *PublicKey, reg *RegistryPublicKey, acc PointG2, proof *NonRevocProof,
	cHash, m2Hat *big.Int) ([][]byte, error) {
	if err := pk.Validate(); err != nil {
		return nil, err
	}

	if reg == nil || proof == nil || cHash == nil || m2Hat == nil {
		return nil, errors.New("registry key, proof, challenge and m2 response are required")
	}

	x := proof.XList.values()
	if x.m2.Cmp(modQ(m2Hat)) != 0 {
		return nil, errors.New("non-revocation proof is not linked to its primary proof")
	}

	ch := modQ(cHash)
	negCh := negQ(ch)
	cl := &proof.CList

	g, h, ht := pk.G.G1Affine, pk.H.G1Affine, pk.HTilde.G1Affine
	hc := pk.HCap.G2Affine

	var pkG, h0G bn254.G1Affine
	pkG.Add(&pk.PK.G1Affine, &cl.G.G1Affine)
	h0G.Add(&pk.H0.G1Affine, &cl.G.G1Affine)

	t1 := g1Mul([]bn254.G1Affine{cl.E.G1Affine, h, ht}, []*big.Int{negCh, x.rho, x.o})
	t2 := g1Mul([]bn254.G1Affine{cl.E.G1Affine, h, ht}, []*big.Int{x.c, negQ(x.m), negQ(x.t)})

	k3 := gtDiv(pair(h0G, hc), pair(cl.A.G1Affine, pk.Y.G2Affine))
	t3 := gtMul(
		[]bn254.GT{k3, pair(cl.A.G1Affine, hc), pair(ht, pk.Y.G2Affine), pair(ht, hc), pair(pk.H1.G1Affine, hc),
			pair(pk.H2.G1Affine, hc)},
		[]*big.Int{negCh, x.c, negQ(x.rho), new(big.Int).Sub(x.r, x.m), negQ(x.m2), negQ(x.s)})

	k4 := gtDiv(pair(g, pk.GDash.G2Affine), pair(pkG, cl.S.G2Affine))
	t4 := gtMul(
		[]bn254.GT{k4, pair(pkG, hc), pair(ht, cl.S.G2Affine), pair(ht, hc)},
		[]*big.Int{negCh, negQ(x.rPrimePrime), negQ(x.r), x.mPrime})

	t5 := g1Mul([]bn254.G1Affine{cl.D.G1Affine, g, ht}, []*big.Int{negCh, x.r, x.oPrime})
	t6 := g1Mul([]bn254.G1Affine{cl.D.G1Affine, g, ht}, []*big.Int{x.rPrimePrime, negQ(x.mPrime), negQ(x.tPrime)})

	var k7 bn254.GT
	gw := pair(g, cl.W.G2Affine)
	k7.Mul(&reg.Z.GT, &gw)
	k7 = gtDiv(k7, pair(cl.G.G1Affine, acc.G2Affine))
	t7 := gtMul(
		[]bn254.GT{k7, pair(ht, acc.G2Affine), pair(g, hc)},
		[]*big.Int{negCh, negQ(x.r), x.rPrime})

	return [][]byte{g1Bytes(t1), g1Bytes(t2), gtBytes(t3), gtBytes(t4), g1Bytes(t5), g1Bytes(t6), gtBytes(t7)}, nil
}

func tauList(pk *PublicKey, acc PointG2, cl *NonRevocProofCList, t *xValues) [][]byte {
	g, h, ht := pk.G.G1Affine, pk.H.G1Affine, pk.HTilde.G1Affine
	hc := pk.HCap.G2Affine

	var pkG bn254.G1Affine
	pkG.Add(&pk.PK.G1Affine, &cl.G.G1Affine)

	t1 := g1Mul([]bn254.G1Affine{h, ht}, []*big.Int{t.rho, t.o})
	t2 := g1Mul([]bn254.G1Affine{cl.E.G1Affine, h, ht}, []*big.Int{t.c, negQ(t.m), negQ(t.t)})
	t3 := gtMul(
		[]bn254.GT{pair(cl.A.G1Affine, hc), pair(ht, pk.Y.G2Affine), pair(ht, hc), pair(pk.H1.G1Affine, hc),
			pair(pk.H2.G1Affine, hc)},
		[]*big.Int{t.c, negQ(t.rho), new(big.Int).Sub(t.r, t.m), negQ(t.m2), negQ(t.s)})
	t4 := gtMul(
		[]bn254.GT{pair(pkG, hc), pair(ht, cl.S.G2Affine), pair(ht, hc)},
		[]*big.Int{negQ(t.rPrimePrime), negQ(t.r), t.mPrime})
	t5 := g1Mul([]bn254.G1Affine{g, ht}, []*big.Int{t.r, t.oPrime})
	t6 := g1Mul([]bn254.G1Affine{cl.D.G1Affine, g, ht}, []*big.Int{t.rPrimePrime, negQ(t.mPrime), negQ(t.tPrime)})
	t7 := gtMul(
		[]bn254.GT{pair(ht, acc.G2Affine), pair(g, hc)},
		[]*big.Int{negQ(t.r), t.rPrime})

	return [][]byte{g1Bytes(t1), g1Bytes(t2), gtBytes(t3), gtBytes(t4), g1Bytes(t5), g1Bytes(t6), gtBytes(t7)}
}
