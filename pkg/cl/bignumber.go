/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// BigNumber is an arbitrary precision integer that serializes as a decimal string.
type BigNumber big.Int

// NewBigNumber wraps a copy of i.
func NewBigNumber(i *big.Int) *BigNumber {
	if i == nil {
		return nil
	}

	return (*BigNumber)(new(big.Int).Set(i))
}

// ParseBigNumber parses a base 10 integer.
func ParseBigNumber(s string) (*BigNumber, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid decimal number %q", s)
	}

	return (*BigNumber)(i), nil
}

// Int returns a copy as *big.Int.
func (b *BigNumber) Int() *big.Int {
	if b == nil {
		return nil
	}

	return new(big.Int).Set((*big.Int)(b))
}

func (b *BigNumber) String() string {
	if b == nil {
		return "<nil>"
	}

	return (*big.Int)(b).String()
}

// Equal compares by value.
func (b *BigNumber) Equal(o *BigNumber) bool {
	if b == nil || o == nil {
		return b == o
	}

	return (*big.Int)(b).Cmp((*big.Int)(o)) == 0
}

func (b *BigNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal((*big.Int)(b).String())
}

func (b *BigNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "big number must be a decimal string")
	}

	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errors.Errorf("invalid decimal number %q", s)
	}

	(*big.Int)(b).Set(i)

	return nil
}

func bn(i *big.Int) *BigNumber {
	return (*BigNumber)(i)
}

func numbersPresent(nums ...*BigNumber) bool {
	for _, n := range nums {
		if n == nil {
			return false
		}
	}

	return true
}
