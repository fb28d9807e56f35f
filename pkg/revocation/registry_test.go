/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"context"
	"crypto/sha256"
	"math/big"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/datastore/memory"
	"github.com/scoir/anoncreds/pkg/datastore/mocks"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/schema"
)

type publisherMock struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (p *publisherMock) Publish(_ context.Context, evt *Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, evt)

	return p.err
}

func testM2() *big.Int {
	h := sha256.Sum256([]byte("prover"))
	return new(big.Int).SetBytes(h[:])
}

func counter(start uint64) func() uint64 {
	var mu sync.Mutex

	now := start

	return func() uint64 {
		mu.Lock()
		defer mu.Unlock()

		now++

		return now
	}
}

func TestManagerRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		pub := &publisherMock{}
		m := NewManager(WithPublisher(pub), WithClock(func() uint64 { return 100 }))

		list, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)
		require.Equal(t, uint64(100), *list.Timestamp)
		require.Len(t, list.Issued(), testMaxCredNum)

		require.Len(t, pub.events, 1)
		require.Equal(t, EventRegistryCreated, pub.events[0].Type)
		require.NotEmpty(t, pub.events[0].ID)

		def, err := m.Definition(testRevRegID)
		require.NoError(t, err)
		require.Equal(t, f.def, def)

		tails, err := m.Tails(testRevRegID)
		require.NoError(t, err)
		require.Equal(t, f.tails, tails)

		_, err = m.Register(ctx, testRevRegID, f.def, f.tails)
		require.Error(t, err)
	})

	t.Run("id does not match issuer", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		f.def.IssuerID = "did:web:example.com"

		_, err := NewManager().Register(ctx, testRevRegID, f.def, f.tails)
		require.Error(t, err)
	})

	t.Run("unknown registry", func(t *testing.T) {
		m := NewManager()

		_, err := m.Snapshot(testRevRegID)
		require.True(t, errors.Is(err, ErrUnknownRegistry))

		_, err = m.NextIndex(ctx, testRevRegID)
		require.True(t, errors.Is(err, ErrUnknownRegistry))

		_, err = m.Revoke(ctx, testRevRegID, 1)
		require.True(t, errors.Is(err, ErrUnknownRegistry))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		store := &mocks.Store{}
		store.On("InsertStatusList", mock.Anything, mock.Anything).Return(nil)
		store.On("InsertRegistry", mock.Anything, mock.Anything).Return(errors.New("boom"))

		m := NewManager(WithStore(store))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.Error(t, err)

		_, err = m.Snapshot(testRevRegID)
		require.Error(t, err)
	})

	t.Run("status list store failure", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		store := &mocks.Store{}
		store.On("InsertStatusList", mock.Anything, mock.Anything).Return(errors.New("boom"))

		m := NewManager(WithStore(store))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.Error(t, err)

		store.AssertNotCalled(t, "InsertRegistry", mock.Anything, mock.Anything)

		_, err = m.Snapshot(testRevRegID)
		require.Error(t, err)
	})
}

func TestManagerNextIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("exhaustion", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		m := NewManager()

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		for i := uint32(1); i <= testMaxCredNum; i++ {
			idx, err := m.NextIndex(ctx, testRevRegID)
			require.NoError(t, err)
			require.Equal(t, i, idx)
		}

		_, err = m.NextIndex(ctx, testRevRegID)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.CredentialIssuance))
	})

	t.Run("persist failure reverts", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		store := &mocks.Store{}
		store.On("InsertRegistry", mock.Anything, mock.MatchedBy(func(r *datastore.Registry) bool {
			return r.NextIndex == 0
		})).Return(nil).Once()
		store.On("InsertStatusList", mock.Anything, mock.Anything).Return(nil)
		store.On("InsertRegistry", mock.Anything, mock.Anything).Return(errors.New("boom")).Once()
		store.On("InsertRegistry", mock.Anything, mock.Anything).Return(nil)

		m := NewManager(WithStore(store))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		_, err = m.NextIndex(ctx, testRevRegID)
		require.Error(t, err)

		idx, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)
		require.Equal(t, uint32(1), idx)

		store.AssertExpectations(t)
	})
}

func TestManagerRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("last index", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		m := NewManager()

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		first, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)

		second, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)

		require.NoError(t, m.Release(ctx, testRevRegID, first))
		require.NoError(t, m.Release(ctx, testRevRegID, second))

		idx, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)
		require.Equal(t, second, idx)
	})

	t.Run("issued index", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		m := NewManager()

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		idx, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)

		_, err = m.Issue(ctx, testRevRegID, idx)
		require.NoError(t, err)

		require.Error(t, m.Release(ctx, testRevRegID, idx))

		_, err = m.Revoke(ctx, testRevRegID, idx)
		require.NoError(t, err)
		require.NoError(t, m.Release(ctx, testRevRegID, idx))

		next, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)
		require.Equal(t, idx, next)
	})

	t.Run("persisted", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		store := &mocks.Store{}
		store.On("InsertStatusList", mock.Anything, mock.Anything).Return(nil)
		store.On("InsertRegistry", mock.Anything, mock.Anything).Return(nil)

		m := NewManager(WithStore(store))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		idx, err := m.NextIndex(ctx, testRevRegID)
		require.NoError(t, err)
		require.NoError(t, m.Release(ctx, testRevRegID, idx))

		store.AssertNumberOfCalls(t, "InsertRegistry", 3)

		require.Error(t, NewManager().Release(ctx, testRevRegID, 1))
	})
}

func TestManagerUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("revoke timeline", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceOnDemand)
		pub := &publisherMock{}
		m := NewManager(WithPublisher(pub), WithClock(func() uint64 { return 100 }))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		issued, err := m.Issue(ctx, testRevRegID, 3)
		require.NoError(t, err)
		require.Equal(t, uint64(101), *issued.Timestamp, "timestamps increase even when the clock stalls")

		cred, err := accumulator.IssueCredential(f.pk, f.sk, f.regPriv, testMaxCredNum, 3, testM2())
		require.NoError(t, err)

		w, list, err := m.Witness(ctx, testRevRegID, 3, 101)
		require.NoError(t, err)
		require.True(t, accumulator.VerifyWitness(f.pk, f.def.Value.PublicKeys.AccumKey, *list.CurrentAccumulator, w,
			cred.GI))

		revoked, err := m.Revoke(ctx, testRevRegID, 3)
		require.NoError(t, err)
		require.Equal(t, uint64(102), *revoked.Timestamp)
		require.True(t, revoked.IsRevoked(3))
		require.False(t, accumulator.VerifyWitness(f.pk, f.def.Value.PublicKeys.AccumKey, *revoked.CurrentAccumulator,
			w, cred.GI))

		_, _, err = m.Witness(ctx, testRevRegID, 3, 102)
		require.Error(t, err)

		before, err := m.StatusList(ctx, testRevRegID, 101)
		require.NoError(t, err)
		require.False(t, before.IsRevoked(3))

		_, err = m.StatusList(ctx, testRevRegID, 99)
		require.True(t, errs.Is(err, errs.Validation))

		require.Len(t, pub.events, 3)
		require.Equal(t, []uint32{3}, pub.events[1].Issued)
		require.Equal(t, []uint32{3}, pub.events[2].Revoked)
	})

	t.Run("no change records nothing", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		m := NewManager(WithClock(counter(0)))

		first, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		same, err := m.Issue(ctx, testRevRegID, 2)
		require.NoError(t, err)
		require.Equal(t, *first.Timestamp, *same.Timestamp)
	})

	t.Run("snapshots are copies", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		m := NewManager()

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		snap, err := m.Snapshot(testRevRegID)
		require.NoError(t, err)
		snap.RevocationList[0] = true

		again, err := m.Snapshot(testRevRegID)
		require.NoError(t, err)
		require.False(t, again.RevocationList[0])
	})

	t.Run("invalid batch", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		m := NewManager()

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		_, err = m.Update(ctx, testRevRegID, []uint32{1}, []uint32{1})
		require.True(t, errs.Is(err, errs.Validation))

		_, err = m.Revoke(ctx, testRevRegID, testMaxCredNum+1)
		require.True(t, errs.Is(err, errs.Validation))
	})

	t.Run("publish failure is not fatal", func(t *testing.T) {
		f := newFixture(t, schema.IssuanceByDefault)
		m := NewManager(WithPublisher(&publisherMock{err: errors.New("broker down")}))

		_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
		require.NoError(t, err)

		list, err := m.Revoke(ctx, testRevRegID, 1)
		require.NoError(t, err)
		require.True(t, list.IsRevoked(1))
	})
}

func TestManagerConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, schema.IssuanceOnDemand)
	m := NewManager(WithClock(counter(0)))

	_, err := m.Register(ctx, testRevRegID, f.def, f.tails)
	require.NoError(t, err)

	var wg sync.WaitGroup

	indices := make(chan uint32, testMaxCredNum)

	for i := 0; i < testMaxCredNum; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			idx, err := m.NextIndex(ctx, testRevRegID)
			if err != nil {
				return
			}

			if _, err := m.Issue(ctx, testRevRegID, idx); err != nil {
				return
			}

			indices <- idx
		}()
	}

	wg.Wait()
	close(indices)

	seen := map[uint32]bool{}
	for idx := range indices {
		require.False(t, seen[idx], "index %d handed out twice", idx)
		seen[idx] = true
	}

	require.Len(t, seen, testMaxCredNum)

	for i := uint32(1); i <= testMaxCredNum; i += 2 {
		wg.Add(1)

		go func(idx uint32) {
			defer wg.Done()

			_, _ = m.Revoke(ctx, testRevRegID, idx)
		}(i)
	}

	wg.Wait()

	snap, err := m.Snapshot(testRevRegID)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 4}, snap.Issued())

	acc, err := accumulator.Accumulate(f.tails, testMaxCredNum, []uint32{2, 4})
	require.NoError(t, err)
	require.Equal(t, acc, *snap.CurrentAccumulator)
}

func TestManagerRestore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, schema.IssuanceOnDemand)

	store, err := memory.NewProvider().OpenStore("issuer")
	require.NoError(t, err)

	m := NewManager(WithStore(store), WithClock(counter(0)))

	_, err = m.Register(ctx, testRevRegID, f.def, f.tails)
	require.NoError(t, err)

	idx, err := m.NextIndex(ctx, testRevRegID)
	require.NoError(t, err)

	_, err = m.Issue(ctx, testRevRegID, idx)
	require.NoError(t, err)

	restored := NewManager(WithStore(store), WithClock(counter(10)))
	require.NoError(t, restored.Restore(ctx, testRevRegID, f.storage))

	snap, err := restored.Snapshot(testRevRegID)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, snap.Issued())

	idx, err = restored.NextIndex(ctx, testRevRegID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), idx)

	first, err := restored.StatusList(ctx, testRevRegID, 1)
	require.NoError(t, err)
	require.Empty(t, first.Issued(), "older lists come from the store")

	require.Error(t, NewManager().Restore(ctx, testRevRegID, f.storage))
	require.Error(t, NewManager(WithStore(store)).Restore(ctx, "unknown", f.storage))
}
