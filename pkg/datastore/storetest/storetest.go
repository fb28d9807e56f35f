/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storetest holds the behaviour every datastore.Provider must share.
package storetest

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/schema"
)

const (
	testDID       = "DXoTtQJNtXtiwWaZAK3rB1"
	testCredDefID = "DXoTtQJNtXtiwWaZAK3rB1:3:CL:98153:default"

	// RegistryID is the registry the suite writes.
	RegistryID = schema.RevocationRegistryID(
		"DXoTtQJNtXtiwWaZAK3rB1:4:DXoTtQJNtXtiwWaZAK3rB1:3:CL:98153:default:CL_ACCUM:default")
	otherRegistryID = schema.RevocationRegistryID(
		"DXoTtQJNtXtiwWaZAK3rB1:4:DXoTtQJNtXtiwWaZAK3rB1:3:CL:98153:default:CL_ACCUM:other")
)

// Run exercises a provider against a fresh name space.
func Run(t *testing.T, provider datastore.Provider, name string) {
	t.Helper()

	ctx := context.Background()

	_, err := provider.OpenStore("")
	require.Error(t, err)

	store, err := provider.OpenStore(name)
	require.NoError(t, err)

	again, err := provider.OpenStore(name)
	require.NoError(t, err)
	require.Equal(t, store, again)

	def := newDefinition(t)

	t.Run("registries", func(t *testing.T) {
		_, err := store.GetRegistry(ctx, RegistryID)
		require.True(t, errors.Is(err, datastore.ErrNotFound))

		require.NoError(t, store.InsertRegistry(ctx, &datastore.Registry{ID: otherRegistryID, Definition: def}))
		require.NoError(t, store.InsertRegistry(ctx, &datastore.Registry{ID: RegistryID, Definition: def}))
		require.NoError(t, store.InsertRegistry(ctx, &datastore.Registry{ID: RegistryID, Definition: def, NextIndex: 2}))

		reg, err := store.GetRegistry(ctx, RegistryID)
		require.NoError(t, err)
		require.Equal(t, uint32(2), reg.NextIndex)
		require.Equal(t, def.Value.TailsHash, reg.Definition.Value.TailsHash)
		require.Equal(t, def.Value.PublicKeys.AccumKey, reg.Definition.Value.PublicKeys.AccumKey)

		ids, err := store.ListRegistries(ctx)
		require.NoError(t, err)
		require.Equal(t, []schema.RevocationRegistryID{RegistryID, otherRegistryID}, ids)
	})

	t.Run("status lists", func(t *testing.T) {
		_, err := store.LatestStatusList(ctx, RegistryID)
		require.True(t, errors.Is(err, datastore.ErrNotFound))

		require.Error(t, store.InsertStatusList(ctx, newList(nil, false)))

		for _, ts := range []uint64{30, 10, 20} {
			require.NoError(t, store.InsertStatusList(ctx, newList(&ts, ts >= 20)))
		}

		latest, err := store.LatestStatusList(ctx, RegistryID)
		require.NoError(t, err)
		require.Equal(t, uint64(30), *latest.Timestamp)

		list, err := store.GetStatusList(ctx, RegistryID, 15)
		require.NoError(t, err)
		require.Equal(t, uint64(10), *list.Timestamp)
		require.False(t, list.IsRevoked(1))

		list, err = store.GetStatusList(ctx, RegistryID, 20)
		require.NoError(t, err)
		require.Equal(t, uint64(20), *list.Timestamp)
		require.True(t, list.IsRevoked(1))

		_, err = store.GetStatusList(ctx, RegistryID, 9)
		require.True(t, errors.Is(err, datastore.ErrNotFound))

		ts := uint64(20)
		require.NoError(t, store.InsertStatusList(ctx, newList(&ts, false)))

		list, err = store.GetStatusList(ctx, RegistryID, 25)
		require.NoError(t, err)
		require.False(t, list.IsRevoked(1), "same timestamp replaces the list")

		_, err = store.LatestStatusList(ctx, otherRegistryID)
		require.True(t, errors.Is(err, datastore.ErrNotFound))
	})

	require.NoError(t, provider.CloseStore(name))
}

func newDefinition(t *testing.T) *schema.RevocationRegistryDefinition {
	pk, _, err := accumulator.NewKeys()
	require.NoError(t, err)

	reg, _, _, err := accumulator.NewRegistry(pk, 2)
	require.NoError(t, err)

	return &schema.RevocationRegistryDefinition{
		IssuerID:     testDID,
		RevocDefType: schema.RegistryTypeCLAccum,
		Tag:          "default",
		CredDefID:    testCredDefID,
		Value: schema.RevocationRegistryDefinitionValue{
			IssuanceType:  schema.IssuanceByDefault,
			MaxCredNum:    2,
			PublicKeys:    schema.RevocationRegistryDefinitionPublicKeys{AccumKey: reg},
			TailsHash:     "3MLjUFQz9x9n5u9rFu8Ba9C5bo4HNFjkPNc54jZPSNaZ",
			TailsLocation: "/tmp/tails",
		},
	}
}

func newList(ts *uint64, revoked bool) *schema.RevocationStatusList {
	var acc accumulator.PointG2

	return &schema.RevocationStatusList{
		RevRegDefID:        RegistryID,
		IssuerID:           testDID,
		RevocationList:     schema.RevocationList{revoked, false},
		CurrentAccumulator: &acc,
		Timestamp:          ts,
	}
}
