/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// randomBits returns a uniform value in [0, 2^bits).
func randomBits(bits int) (*big.Int, error) {
	max := new(big.Int).Lsh(one, uint(bits))

	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, errors.Wrap(err, "random source failed")
	}

	return r, nil
}

// randomBelow returns a uniform value in [0, max).
func randomBelow(max *big.Int) (*big.Int, error) {
	r, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, errors.Wrap(err, "random source failed")
	}

	return r, nil
}

// randomQR returns a random quadratic residue modulo n.
func randomQR(n *big.Int) (*big.Int, error) {
	for {
		x, err := randomBelow(n)
		if err != nil {
			return nil, err
		}

		if x.Cmp(two) < 0 || new(big.Int).GCD(nil, nil, x, n).Cmp(one) != 0 {
			continue
		}

		return x.Exp(x, two, n), nil
	}
}

// safePrime returns p' such that p = 2p'+1 is prime, together with p.
func safePrime(bits int) (pPrime, p *big.Int, err error) {
	for {
		pPrime, err = rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, nil, errors.Wrap(err, "prime generation failed")
		}

		p = new(big.Int).Lsh(pPrime, 1)
		p.Add(p, one)

		if p.ProbablyPrime(25) {
			return pPrime, p, nil
		}
	}
}

// primeInRange returns a random prime in [2^startBits, 2^startBits + 2^rangeBits).
func primeInRange(startBits, rangeBits int) (*big.Int, error) {
	start := new(big.Int).Lsh(one, uint(startBits))

	for {
		offset, err := randomBits(rangeBits)
		if err != nil {
			return nil, err
		}

		candidate := offset.Add(offset, start)
		candidate.SetBit(candidate, 0, 1)

		if candidate.ProbablyPrime(25) {
			return candidate, nil
		}
	}
}

// modPow computes base^exp mod m and accepts negative exponents.
func modPow(base, exp, m *big.Int) *big.Int {
	if exp.Sign() >= 0 {
		return new(big.Int).Exp(base, exp, m)
	}

	inv := new(big.Int).ModInverse(base, m)
	if inv == nil {
		return big.NewInt(0)
	}

	return new(big.Int).Exp(inv, new(big.Int).Neg(exp), m)
}

// mulMod multiplies the factors modulo m.
func mulMod(m *big.Int, factors ...*big.Int) *big.Int {
	out := big.NewInt(1)
	for _, f := range factors {
		out.Mul(out, f)
		out.Mod(out, m)
	}

	return out
}

// hashToInt hashes length prefixed parts into a 256 bit challenge.
func hashToInt(parts ...[]byte) *big.Int {
	h := sha256.New()
	var l [4]byte

	for _, p := range parts {
		binary.BigEndian.PutUint32(l[:], uint32(len(p)))
		_, _ = h.Write(l[:])
		_, _ = h.Write(p)
	}

	return new(big.Int).SetBytes(h.Sum(nil))
}

func intsToBytes(values ...*big.Int) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = v.Bytes()
	}

	return out
}

// fourSquares decomposes delta into u1^2+u2^2+u3^2+u4^2 with u1 >= u2 >= u3 >= u4.
func fourSquares(delta *big.Int) ([4]*big.Int, error) {
	var out [4]*big.Int

	if delta.Sign() < 0 {
		return out, errors.New("predicate is not satisfied")
	}

	if delta.BitLen() > 62 {
		return out, errors.New("predicate delta is too large")
	}

	d := delta.Uint64()

	for u1 := isqrt(d); ; u1-- {
		r1 := d - u1*u1
		if r1 > 3*u1*u1 {
			break
		}

		for u2 := minU64(u1, isqrt(r1)); ; u2-- {
			r2 := r1 - u2*u2
			if r2 > 2*u2*u2 {
				break
			}

			for u3 := minU64(u2, isqrt(r2)); ; u3-- {
				r3 := r2 - u3*u3
				if r3 > u3*u3 {
					break
				}

				u4 := isqrt(r3)
				if u4*u4 == r3 {
					out[0] = new(big.Int).SetUint64(u1)
					out[1] = new(big.Int).SetUint64(u2)
					out[2] = new(big.Int).SetUint64(u3)
					out[3] = new(big.Int).SetUint64(u4)

					return out, nil
				}

				if u3 == 0 {
					break
				}
			}

			if u2 == 0 {
				break
			}
		}

		if u1 == 0 {
			break
		}
	}

	return out, errors.Errorf("unable to decompose %d into four squares", d)
}

func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}

	for (r+1)*(r+1) <= n {
		r++
	}

	return r
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}

	return b
}
