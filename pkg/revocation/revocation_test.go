/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/schema"
)

const (
	testDID       = "DXoTtQJNtXtiwWaZAK3rB1"
	testCredDefID = "DXoTtQJNtXtiwWaZAK3rB1:3:CL:98153:default"
	testRevRegID  = "DXoTtQJNtXtiwWaZAK3rB1:4:DXoTtQJNtXtiwWaZAK3rB1:3:CL:98153:default:CL_ACCUM:default"

	testMaxCredNum = 5
)

type memTails struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemTails() *memTails {
	return &memTails{files: map[string][]byte{}}
}

func (m *memTails) WriteTails(_ context.Context, hash string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files["mem://"+hash] = data

	return "mem://" + hash, nil
}

func (m *memTails) ReadTails(_ context.Context, location string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[location]
	if !ok {
		return nil, errors.New("no such tails file")
	}

	return data, nil
}

type fixture struct {
	pk      *accumulator.PublicKey
	sk      *accumulator.PrivateKey
	regPriv *accumulator.RegistryPrivateKey
	tails   accumulator.MemoryTails
	def     *schema.RevocationRegistryDefinition
	storage *memTails
}

func newFixture(t *testing.T, issuance schema.IssuanceType) *fixture {
	pk, sk, err := accumulator.NewKeys()
	require.NoError(t, err)

	reg, regPriv, tails, err := accumulator.NewRegistry(pk, testMaxCredNum)
	require.NoError(t, err)

	storage := newMemTails()

	hash, location, err := WriteTails(context.Background(), storage, tails)
	require.NoError(t, err)

	def := &schema.RevocationRegistryDefinition{
		IssuerID:     testDID,
		RevocDefType: schema.RegistryTypeCLAccum,
		Tag:          "default",
		CredDefID:    testCredDefID,
		Value: schema.RevocationRegistryDefinitionValue{
			IssuanceType:  issuance,
			MaxCredNum:    testMaxCredNum,
			PublicKeys:    schema.RevocationRegistryDefinitionPublicKeys{AccumKey: reg},
			TailsHash:     hash,
			TailsLocation: location,
		},
	}
	require.NoError(t, def.Validate())

	return &fixture{pk: pk, sk: sk, regPriv: regPriv, tails: tails, def: def, storage: storage}
}

func TestTails(t *testing.T) {
	f := newFixture(t, schema.IssuanceByDefault)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		loaded, err := LoadTails(ctx, f.storage, f.def.Value.TailsLocation, f.def.Value.TailsHash, testMaxCredNum)
		require.NoError(t, err)
		require.Len(t, loaded, 2*testMaxCredNum)

		for i := range f.tails {
			require.True(t, f.tails[i].Equal(&loaded[i]))
		}
	})

	t.Run("tampered file", func(t *testing.T) {
		data := EncodeTails(f.tails)
		data[len(data)-1] ^= 0x01
		f.storage.files["mem://tampered"] = data

		_, err := LoadTails(ctx, f.storage, "mem://tampered", f.def.Value.TailsHash, testMaxCredNum)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match")
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := LoadTails(ctx, f.storage, f.def.Value.TailsLocation, f.def.Value.TailsHash, testMaxCredNum+1)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTails(ctx, f.storage, "mem://missing", f.def.Value.TailsHash, testMaxCredNum)
		require.Error(t, err)
	})

	t.Run("bad encoding", func(t *testing.T) {
		_, err := DecodeTails([]byte{0x00})
		require.Error(t, err)

		_, err = DecodeTails([]byte{0x00, 0x01})
		require.Error(t, err)

		_, err = DecodeTails(append(EncodeTails(nil), 0x01))
		require.Error(t, err)

		empty, err := DecodeTails(EncodeTails(nil))
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}

func TestStatusList(t *testing.T) {
	ts := uint64(10)

	t.Run("issuance by default", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)

		list, err := NewStatusList(testRevRegID, f.def, f.tails, &ts)
		require.NoError(t, err)
		require.NoError(t, list.Validate())
		require.Equal(t, []uint32{1, 2, 3, 4, 5}, list.Issued())
		require.Equal(t, ts, *list.Timestamp)

		acc, err := accumulator.Accumulate(f.tails, testMaxCredNum, list.Issued())
		require.NoError(t, err)
		require.Equal(t, acc, *list.CurrentAccumulator)
	})

	t.Run("issuance on demand", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)

		list, err := NewStatusList(testRevRegID, f.def, f.tails, nil)
		require.NoError(t, err)
		require.Empty(t, list.Issued())
		require.Nil(t, list.Timestamp)
		require.True(t, list.CurrentAccumulator.IsInfinity())
	})

	t.Run("update", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)

		list, err := NewStatusList(testRevRegID, f.def, f.tails, &ts)
		require.NoError(t, err)

		next, err := UpdateStatusList(f.def, f.tails, list, []uint32{1, 3, 4}, nil, nil)
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 3, 4}, next.Issued())
		require.Empty(t, list.Issued(), "input is left untouched")

		next, err = UpdateStatusList(f.def, f.tails, next, []uint32{1}, []uint32{4}, nil)
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 3}, next.Issued())

		acc, err := accumulator.Accumulate(f.tails, testMaxCredNum, []uint32{1, 3})
		require.NoError(t, err)
		require.Equal(t, acc, *next.CurrentAccumulator)

		issued, revoked, err := Delta(list, next)
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 3}, issued)
		require.Empty(t, revoked)

		stamped := UpdateTimestamp(next, 99)
		require.Equal(t, uint64(99), *stamped.Timestamp)
		require.Equal(t, ts, *list.Timestamp)
	})

	t.Run("invalid updates", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)

		list, err := NewStatusList(testRevRegID, f.def, f.tails, &ts)
		require.NoError(t, err)

		_, err = UpdateStatusList(f.def, f.tails, list, []uint32{2}, []uint32{2}, nil)
		require.Error(t, err)

		_, err = UpdateStatusList(f.def, f.tails, list, []uint32{0}, nil, nil)
		require.Error(t, err)

		_, err = UpdateStatusList(f.def, f.tails, list, nil, []uint32{testMaxCredNum + 1}, nil)
		require.Error(t, err)

		_, err = UpdateStatusList(f.def, f.tails, nil, nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("witness", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)

		list, err := NewStatusList(testRevRegID, f.def, f.tails, &ts)
		require.NoError(t, err)

		cred, err := accumulator.IssueCredential(f.pk, f.sk, f.regPriv, testMaxCredNum, 2, testM2())
		require.NoError(t, err)

		w, err := WitnessFor(f.def, f.tails, list, 2)
		require.NoError(t, err)
		require.True(t, accumulator.VerifyWitness(f.pk, f.def.Value.PublicKeys.AccumKey, *list.CurrentAccumulator, w,
			cred.GI))

		revoked, err := UpdateStatusList(f.def, f.tails, list, nil, []uint32{2}, nil)
		require.NoError(t, err)

		_, err = WitnessFor(f.def, f.tails, revoked, 2)
		require.Error(t, err)
		require.False(t, accumulator.VerifyWitness(f.pk, f.def.Value.PublicKeys.AccumKey, *revoked.CurrentAccumulator, w,
			cred.GI))
	})
}
