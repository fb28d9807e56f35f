/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"encoding/json"
	"math/big"
	"sort"

	"github.com/pkg/errors"
)

// PublicKey is the primary CL public key.
type PublicKey struct {
	N     *BigNumber            `json:"n"`
	S     *BigNumber            `json:"s"`
	R     map[string]*BigNumber `json:"r"`
	Rctxt *BigNumber            `json:"rctxt"`
	Z     *BigNumber            `json:"z"`
}

// PrivateKey holds the Sophie Germain primes p' and q' of the modulus.
type PrivateKey struct {
	P *BigNumber `json:"p"`
	Q *BigNumber `json:"q"`
}

// KeyCorrectnessProof proves the public key bases are powers of S.
type KeyCorrectnessProof struct {
	C     *BigNumber   `json:"c"`
	XZCap *BigNumber   `json:"xz_cap"`
	XRCap NamedNumbers `json:"xr_cap"`
}

// NamedNumbers is an ordered list of (attribute, value) pairs encoded as [["name","value"],...].
type NamedNumbers []NamedNumber

// NamedNumber pairs an attribute name with a value.
type NamedNumber struct {
	Name  string
	Value *BigNumber
}

func (n NamedNumbers) MarshalJSON() ([]byte, error) {
	out := make([][2]string, len(n))
	for i, v := range n {
		out[i] = [2]string{v.Name, v.Value.String()}
	}

	return json.Marshal(out)
}

func (n *NamedNumbers) UnmarshalJSON(data []byte) error {
	var raw [][2]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "expected list of [name, value] pairs")
	}

	out := make(NamedNumbers, len(raw))
	for i, pair := range raw {
		v, err := ParseBigNumber(pair[1])
		if err != nil {
			return err
		}

		out[i] = NamedNumber{Name: pair[0], Value: v}
	}

	*n = out

	return nil
}

// Get returns the value named name.
func (n NamedNumbers) Get(name string) (*BigNumber, bool) {
	for _, v := range n {
		if v.Name == name {
			return v.Value, true
		}
	}

	return nil, false
}

// Validate checks that every component is present.
func (pk *PublicKey) Validate() error {
	if pk == nil || !numbersPresent(pk.N, pk.S, pk.Rctxt, pk.Z) {
		return errors.New("primary public key is incomplete")
	}

	if len(pk.R) == 0 {
		return errors.New("primary public key has no attribute bases")
	}

	if _, ok := pk.R[LinkSecretAttr]; !ok {
		return errors.Errorf("primary public key has no %s base", LinkSecretAttr)
	}

	for name, r := range pk.R {
		if r == nil {
			return errors.Errorf("primary public key base %s is empty", name)
		}
	}

	return nil
}

// Validate checks the proof shape.
func (p *KeyCorrectnessProof) Validate() error {
	if p == nil || !numbersPresent(p.C, p.XZCap) {
		return errors.New("key correctness proof is incomplete")
	}

	if len(p.XRCap) == 0 {
		return errors.New("key correctness proof has no attribute responses")
	}

	seen := map[string]struct{}{}
	for _, v := range p.XRCap {
		if v.Value == nil {
			return errors.Errorf("key correctness proof response %s is empty", v.Name)
		}

		if _, ok := seen[v.Name]; ok {
			return errors.Errorf("duplicate key correctness proof response %s", v.Name)
		}

		seen[v.Name] = struct{}{}
	}

	return nil
}

// NewCredentialKeys generates a key pair covering attrs plus the link secret
// slot, and a proof that the key was honestly generated. attrs must already
// be in their common view.
func NewCredentialKeys(attrs []string, opts ...Option) (*PublicKey, *PrivateKey, *KeyCorrectnessProof, error) {
	if len(attrs) == 0 {
		return nil, nil, nil, errors.New("at least one attribute is required")
	}

	prm := newParams(opts)

	names := make([]string, 0, len(attrs)+1)
	seen := map[string]struct{}{LinkSecretAttr: {}}
	for _, a := range attrs {
		if _, ok := seen[a]; ok {
			return nil, nil, nil, errors.Errorf("duplicate attribute %s", a)
		}

		seen[a] = struct{}{}
		names = append(names, a)
	}

	names = append(names, LinkSecretAttr)
	sort.Strings(names)

	pPrime, p, err := safePrime(prm.primeBits)
	if err != nil {
		return nil, nil, nil, err
	}

	var qPrime, q *big.Int
	for {
		qPrime, q, err = safePrime(prm.primeBits)
		if err != nil {
			return nil, nil, nil, err
		}

		if qPrime.Cmp(pPrime) != 0 {
			break
		}
	}

	n := new(big.Int).Mul(p, q)
	order := new(big.Int).Mul(pPrime, qPrime)

	s, err := randomQR(n)
	if err != nil {
		return nil, nil, nil, err
	}

	xz, err := randomExponent(order)
	if err != nil {
		return nil, nil, nil, err
	}

	xr := make(map[string]*big.Int, len(names))
	r := make(map[string]*BigNumber, len(names))
	for _, name := range names {
		x, err := randomExponent(order)
		if err != nil {
			return nil, nil, nil, err
		}

		xr[name] = x
		r[name] = bn(new(big.Int).Exp(s, x, n))
	}

	xctxt, err := randomExponent(order)
	if err != nil {
		return nil, nil, nil, err
	}

	pk := &PublicKey{
		N:     bn(n),
		S:     bn(s),
		R:     r,
		Rctxt: bn(new(big.Int).Exp(s, xctxt, n)),
		Z:     bn(new(big.Int).Exp(s, xz, n)),
	}

	sk := &PrivateKey{P: bn(pPrime), Q: bn(qPrime)}

	kcp, err := newKeyCorrectnessProof(pk, order, xz, xr, names)
	if err != nil {
		return nil, nil, nil, err
	}

	return pk, sk, kcp, nil
}

func randomExponent(order *big.Int) (*big.Int, error) {
	for {
		x, err := randomBelow(order)
		if err != nil {
			return nil, err
		}

		if x.Cmp(two) >= 0 {
			return x, nil
		}
	}
}

func newKeyCorrectnessProof(pk *PublicKey, order, xz *big.Int, xr map[string]*big.Int,
	names []string) (*KeyCorrectnessProof, error) {
	n, s := pk.N.Int(), pk.S.Int()
	tildeBits := order.BitLen() + challengeBits + statisticalBits

	xzTilde, err := randomBits(tildeBits)
	if err != nil {
		return nil, err
	}

	xrTilde := make(map[string]*big.Int, len(names))
	rTilde := make(map[string]*big.Int, len(names))
	for _, name := range names {
		t, err := randomBits(tildeBits)
		if err != nil {
			return nil, err
		}

		xrTilde[name] = t
		rTilde[name] = new(big.Int).Exp(s, t, n)
	}

	zTilde := new(big.Int).Exp(s, xzTilde, n)
	c := kcpChallenge(pk, names, zTilde, rTilde)

	xzCap := new(big.Int).Mul(c, xz)
	xzCap.Add(xzCap, xzTilde)

	xrCap := make(NamedNumbers, len(names))
	for i, name := range names {
		v := new(big.Int).Mul(c, xr[name])
		v.Add(v, xrTilde[name])
		xrCap[i] = NamedNumber{Name: name, Value: bn(v)}
	}

	return &KeyCorrectnessProof{C: bn(c), XZCap: bn(xzCap), XRCap: xrCap}, nil
}

// VerifyKeyCorrectnessProof checks kcp against pk.
func VerifyKeyCorrectnessProof(pk *PublicKey, kcp *KeyCorrectnessProof) error {
	if err := pk.Validate(); err != nil {
		return err
	}

	if err := kcp.Validate(); err != nil {
		return err
	}

	if len(kcp.XRCap) != len(pk.R) {
		return errors.New("key correctness proof does not cover every public key base")
	}

	n, s := pk.N.Int(), pk.S.Int()
	c := kcp.C.Int()
	negC := new(big.Int).Neg(c)

	names := make([]string, 0, len(pk.R))
	for name := range pk.R {
		names = append(names, name)
	}

	sort.Strings(names)

	zHat := mulMod(n, modPow(pk.Z.Int(), negC, n), modPow(s, kcp.XZCap.Int(), n))

	rHat := make(map[string]*big.Int, len(names))
	for _, name := range names {
		xrCap, ok := kcp.XRCap.Get(name)
		if !ok {
			return errors.Errorf("key correctness proof has no response for %s", name)
		}

		rHat[name] = mulMod(n, modPow(pk.R[name].Int(), negC, n), modPow(s, xrCap.Int(), n))
	}

	if kcpChallenge(pk, names, zHat, rHat).Cmp(c) != 0 {
		return errors.New("key correctness proof is invalid")
	}

	return nil
}

func kcpChallenge(pk *PublicKey, names []string, zTilde *big.Int, rTilde map[string]*big.Int) *big.Int {
	parts := [][]byte{pk.Z.Int().Bytes()}
	for _, name := range names {
		parts = append(parts, []byte(name), pk.R[name].Int().Bytes())
	}

	parts = append(parts, zTilde.Bytes())
	for _, name := range names {
		parts = append(parts, rTilde[name].Bytes())
	}

	return hashToInt(parts...)
}

// order returns p'q'.
func (sk *PrivateKey) order() *big.Int {
	return new(big.Int).Mul(sk.P.Int(), sk.Q.Int())
}
