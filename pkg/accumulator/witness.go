/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator

import (
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/pkg/errors"
)

// Tails gives access to the precomputed registry tails by index 1..2L.
type Tails interface {
	Tail(k uint32) (bn254.G2Affine, error)
}

// MemoryTails holds every tail in memory; element k-1 is tail k.
type MemoryTails []bn254.G2Affine

// Tail returns tail k.
func (t MemoryTails) Tail(k uint32) (bn254.G2Affine, error) {
	if k == 0 || uint64(k) > uint64(len(t)) {
		return bn254.G2Affine{}, errors.Errorf("tail %d is out of range", k)
	}

	return t[k-1], nil
}

// Witness is a holder's proof that its index is in the accumulator.
type Witness struct {
	Omega PointG2 `json:"omega"`
}

func checkIndex(idx, maxCredNum uint32) error {
	if idx == 0 || idx > maxCredNum {
		return errors.Errorf("revocation index %d is outside 1..%d", idx, maxCredNum)
	}

	return nil
}

// Accumulate returns the accumulator over the issued indices.
func Accumulate(tails Tails, maxCredNum uint32, issued []uint32) (PointG2, error) {
	var acc PointG2

	for _, j := range issued {
		next, err := AddIndex(acc, tails, maxCredNum, j)
		if err != nil {
			return PointG2{}, err
		}

		acc = next
	}

	return acc, nil
}

// AddIndex folds idx into the accumulator.
func AddIndex(acc PointG2, tails Tails, maxCredNum, idx uint32) (PointG2, error) {
	tail, err := accumulatorTail(tails, maxCredNum, idx)
	if err != nil {
		return PointG2{}, err
	}

	var out PointG2
	out.Add(&acc.G2Affine, &tail)

	return out, nil
}

// RemoveIndex takes idx out of the accumulator.
func RemoveIndex(acc PointG2, tails Tails, maxCredNum, idx uint32) (PointG2, error) {
	tail, err := accumulatorTail(tails, maxCredNum, idx)
	if err != nil {
		return PointG2{}, err
	}

	var out PointG2
	out.Sub(&acc.G2Affine, &tail)

	return out, nil
}

func accumulatorTail(tails Tails, maxCredNum, idx uint32) (bn254.G2Affine, error) {
	if err := checkIndex(idx, maxCredNum); err != nil {
		return bn254.G2Affine{}, err
	}

	return tails.Tail(maxCredNum + 1 - idx)
}

// NewWitness computes the witness for idx against the issued set.
func NewWitness(tails Tails, maxCredNum, idx uint32, issued []uint32) (*Witness, error) {
	if err := checkIndex(idx, maxCredNum); err != nil {
		return nil, err
	}

	w := &Witness{}

	for _, j := range issued {
		if j == idx {
			continue
		}

		if err := w.shift(tails, maxCredNum, idx, j, false); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Update returns a witness for idx after the added and removed indices
// changed the accumulator. The receiver is left untouched.
func (w *Witness) Update(tails Tails, maxCredNum, idx uint32, added, removed []uint32) (*Witness, error) {
	if err := checkIndex(idx, maxCredNum); err != nil {
		return nil, err
	}

	out := &Witness{Omega: w.Omega}

	for _, j := range added {
		if j == idx {
			continue
		}

		if err := out.shift(tails, maxCredNum, idx, j, false); err != nil {
			return nil, err
		}
	}

	for _, j := range removed {
		if j == idx {
			continue
		}

		if err := out.shift(tails, maxCredNum, idx, j, true); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (w *Witness) shift(tails Tails, maxCredNum, idx, j uint32, remove bool) error {
	if err := checkIndex(j, maxCredNum); err != nil {
		return err
	}

	tail, err := tails.Tail(maxCredNum + 1 - j + idx)
	if err != nil {
		return err
	}

	if remove {
		w.Omega.Sub(&w.Omega.G2Affine, &tail)
	} else {
		w.Omega.Add(&w.Omega.G2Affine, &tail)
	}

	return nil
}

// VerifyWitness checks e(g_i, V) = z * e(g, omega).
func VerifyWitness(pk *PublicKey, reg *RegistryPublicKey, acc PointG2, w *Witness, gi PointG1) bool {
	if pk == nil || reg == nil || w == nil {
		return false
	}

	lhs := pair(gi.G1Affine, acc.G2Affine)
	rhs := pair(pk.G.G1Affine, w.Omega.G2Affine)
	rhs.Mul(&reg.Z.GT, &rhs)

	return lhs.Equal(&rhs)
}
