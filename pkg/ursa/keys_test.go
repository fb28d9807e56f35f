//go:build ursa
// +build ursa

/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ursa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/schema"
)

func TestNewCredentialKeys(t *testing.T) {
	t.Run("keys verify natively", func(t *testing.T) {
		pk, sk, kcp, err := NewCredentialKeys([]string{"address1", "zip"})
		require.NoError(t, err)
		require.NotNil(t, sk.P)
		require.Contains(t, pk.R, cl.LinkSecretAttr)
		require.Contains(t, pk.R, "zip")
		require.NoError(t, cl.VerifyKeyCorrectnessProof(pk, kcp))
	})

	t.Run("no attributes", func(t *testing.T) {
		_, _, _, err := NewCredentialKeys(nil)
		require.Error(t, err)
	})
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)

	b, err := NewNonce()
	require.NoError(t, err)
	require.False(t, a.Equal(b))
}

func TestEncodeValue(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{name: "string", raw: "101 Wilson Lane"},
		{name: "numeric string", raw: "87121"},
		{name: "empty", raw: ""},
		{name: "max i32", raw: 2147483647},
		{name: "max i32 + 1", raw: 2147483648},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, EncodeValue(tt.raw), schema.EncodeValue(tt.raw))
		})
	}
}
