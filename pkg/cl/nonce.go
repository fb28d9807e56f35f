/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cl

import (
	"math/big"
)

// NewNonce returns a fresh 80 bit nonce.
func NewNonce() (*BigNumber, error) {
	n, err := randomBits(nonceBits)
	if err != nil {
		return nil, err
	}

	return bn(n), nil
}

// NewLinkSecret returns a fresh holder link secret.
func NewLinkSecret() (*BigNumber, error) {
	ls, err := randomBits(linkSecretBits)
	if err != nil {
		return nil, err
	}

	return bn(ls), nil
}

// CredentialContext derives the m2 attribute binding a credential to its
// holder identifier and, for revocable credentials, its registry index.
func CredentialContext(proverID string, revIdx *uint32) *big.Int {
	parts := [][]byte{[]byte(proverID)}
	if revIdx != nil {
		parts = append(parts, big.NewInt(int64(*revIdx)).Bytes())
	}

	return hashToInt(parts...)
}
