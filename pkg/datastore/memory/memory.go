/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/schema"
)

// Provider keeps stores in process memory.
type Provider struct {
	stores map[string]*memoryStore
	sync.RWMutex
}

type memoryStore struct {
	mu         sync.RWMutex
	registries map[schema.RevocationRegistryID][]byte
	lists      map[schema.RevocationRegistryID][]storedList
}

type storedList struct {
	ts   uint64
	data []byte
}

// NewProvider instantiates Provider
func NewProvider() *Provider {
	return &Provider{stores: map[string]*memoryStore{}}
}

// OpenStore returns the store for name, creating it on first use.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	if s, ok := p.stores[name]; ok {
		return s, nil
	}

	s := &memoryStore{
		registries: map[schema.RevocationRegistryID][]byte{},
		lists:      map[schema.RevocationRegistryID][]storedList{},
	}
	p.stores[name] = s

	return s, nil
}

// CloseStore drops a store.
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, name)

	return nil
}

// Close drops every store.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = map[string]*memoryStore{}

	return nil
}

func (s *memoryStore) InsertRegistry(_ context.Context, r *datastore.Registry) error {
	data, err := datastore.MarshalRegistry(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.registries[r.ID] = data

	return nil
}

func (s *memoryStore) GetRegistry(_ context.Context, id schema.RevocationRegistryID) (*datastore.Registry, error) {
	s.mu.RLock()
	data, ok := s.registries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, datastore.ErrNotFound
	}

	return datastore.UnmarshalRegistry(data)
}

func (s *memoryStore) ListRegistries(_ context.Context) ([]schema.RevocationRegistryID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.RevocationRegistryID, 0, len(s.registries))
	for id := range s.registries {
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func (s *memoryStore) InsertStatusList(_ context.Context, list *schema.RevocationStatusList) error {
	ts, err := datastore.ListTimestamp(list)
	if err != nil {
		return err
	}

	data, err := datastore.MarshalStatusList(list)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lists := s.lists[list.RevRegDefID]
	i := sort.Search(len(lists), func(i int) bool { return lists[i].ts >= ts })

	if i < len(lists) && lists[i].ts == ts {
		lists[i].data = data
		return nil
	}

	lists = append(lists, storedList{})
	copy(lists[i+1:], lists[i:])
	lists[i] = storedList{ts: ts, data: data}
	s.lists[list.RevRegDefID] = lists

	return nil
}

func (s *memoryStore) GetStatusList(_ context.Context, id schema.RevocationRegistryID,
	ts uint64) (*schema.RevocationStatusList, error) {
	s.mu.RLock()
	lists := s.lists[id]
	i := sort.Search(len(lists), func(i int) bool { return lists[i].ts > ts })

	var data []byte
	if i > 0 {
		data = lists[i-1].data
	}
	s.mu.RUnlock()

	if data == nil {
		return nil, datastore.ErrNotFound
	}

	return datastore.UnmarshalStatusList(data)
}

func (s *memoryStore) LatestStatusList(_ context.Context, id schema.RevocationRegistryID) (*schema.RevocationStatusList,
	error) {
	s.mu.RLock()
	lists := s.lists[id]

	var data []byte
	if len(lists) > 0 {
		data = lists[len(lists)-1].data
	}
	s.mu.RUnlock()

	if data == nil {
		return nil, datastore.ErrNotFound
	}

	return datastore.UnmarshalStatusList(data)
}
