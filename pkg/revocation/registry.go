/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/revocation")

// ErrUnknownRegistry is returned for registries the manager does not hold.
var ErrUnknownRegistry = errors.New("unknown revocation registry")

// Manager tracks the issued set and accumulator of revocation registries.
// Writes to a registry are serialized, reads see immutable snapshots.
type Manager struct {
	store     datastore.Store
	publisher Publisher
	clock     func() uint64

	mu         sync.RWMutex
	registries map[schema.RevocationRegistryID]*registry
}

type registry struct {
	mu    sync.RWMutex
	id    schema.RevocationRegistryID
	def   *schema.RevocationRegistryDefinition
	tails accumulator.Tails
	next  uint32
	// ascending by timestamp
	lists []*schema.RevocationStatusList
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists registries and their status lists.
func WithStore(store datastore.Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithPublisher publishes an event after every state change.
func WithPublisher(p Publisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithClock replaces the unix seconds clock used to stamp status lists.
func WithClock(clock func() uint64) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager returns an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:      func() uint64 { return uint64(time.Now().Unix()) },
		registries: map[schema.RevocationRegistryID]*registry{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register starts tracking a new registry and records its initial status list.
func (m *Manager) Register(ctx context.Context, id schema.RevocationRegistryID, def *schema.RevocationRegistryDefinition,
	tails accumulator.Tails) (*schema.RevocationStatusList, error) {
	if err := def.ValidateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.registries[id]; ok {
		return nil, errors.Errorf("revocation registry %s is already registered", id)
	}

	ts := m.clock()

	list, err := NewStatusList(id, def, tails, &ts)
	if err != nil {
		return nil, err
	}

	reg := &registry{id: id, def: def, tails: tails, lists: []*schema.RevocationStatusList{list}}

	// The registry record goes last: a registry is only listed once its
	// initial status list is stored.
	if m.store != nil {
		err = m.store.InsertStatusList(ctx, list)
		if err != nil {
			return nil, errors.Wrap(err, "unable to persist status list")
		}

		err = m.store.InsertRegistry(ctx, &datastore.Registry{ID: id, Definition: def})
		if err != nil {
			return nil, errors.Wrap(err, "unable to persist revocation registry")
		}
	}

	m.registries[id] = reg

	logger.Info("revocation registry registered", logfields.WithRevRegID(string(id)),
		logfields.WithMaxCredNum(def.Value.MaxCredNum), logfields.WithIssuanceType(string(def.Value.IssuanceType)))

	m.publish(ctx, newEvent(EventRegistryCreated, id, nil, nil, ts))

	return list.Copy(), nil
}

// Restore loads a persisted registry and its tails file.
func (m *Manager) Restore(ctx context.Context, id schema.RevocationRegistryID, r TailsReader) error {
	if m.store == nil {
		return errors.New("manager has no datastore")
	}

	rec, err := m.store.GetRegistry(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "unable to load revocation registry %s", id)
	}

	def := rec.Definition

	tails, err := LoadTails(ctx, r, def.Value.TailsLocation, def.Value.TailsHash, def.Value.MaxCredNum)
	if err != nil {
		return err
	}

	list, err := m.store.LatestStatusList(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "unable to load status list of %s", id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registries[id] = &registry{
		id:    id,
		def:   def,
		tails: tails,
		next:  rec.NextIndex,
		lists: []*schema.RevocationStatusList{list},
	}

	logger.Info("revocation registry restored", logfields.WithRevRegID(string(id)),
		logfields.WithTailsLocation(def.Value.TailsLocation))

	return nil
}

// NextIndex hands out the next unused revocation index, starting at 1.
func (m *Manager) NextIndex(ctx context.Context, id schema.RevocationRegistryID) (uint32, error) {
	reg, err := m.registry(id)
	if err != nil {
		return 0, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.next >= reg.def.Value.MaxCredNum {
		return 0, errs.New(errs.CredentialIssuance, "revocation registry %s is full", id)
	}

	reg.next++

	if m.store != nil {
		err = m.store.InsertRegistry(ctx, &datastore.Registry{ID: id, Definition: reg.def, NextIndex: reg.next})
		if err != nil {
			reg.next--
			return 0, errors.Wrap(err, "unable to persist revocation registry")
		}
	}

	logger.Debug("revocation index assigned", logfields.WithRevRegID(string(id)),
		logfields.WithRevocationIndex(reg.next))

	return reg.next, nil
}

// Release returns idx to the registry when it is the last index handed out
// and was never issued. An index followed by others stays consumed.
func (m *Manager) Release(ctx context.Context, id schema.RevocationRegistryID, idx uint32) error {
	reg, err := m.registry(id)
	if err != nil {
		return err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if idx == 0 || idx != reg.next {
		return nil
	}

	if reg.def.Value.IssuanceType == schema.IssuanceOnDemand && !reg.latest().IsRevoked(idx) {
		return errors.Errorf("revocation index %d is issued", idx)
	}

	if m.store != nil {
		err = m.store.InsertRegistry(ctx, &datastore.Registry{ID: id, Definition: reg.def, NextIndex: idx - 1})
		if err != nil {
			return errors.Wrap(err, "unable to persist revocation registry")
		}
	}

	reg.next--

	logger.Debug("revocation index released", logfields.WithRevRegID(string(id)), logfields.WithRevocationIndex(idx))

	return nil
}

// Issue marks idx as issued.
func (m *Manager) Issue(ctx context.Context, id schema.RevocationRegistryID, idx uint32) (*schema.RevocationStatusList,
	error) {
	return m.Update(ctx, id, []uint32{idx}, nil)
}

// Revoke marks idx as revoked.
func (m *Manager) Revoke(ctx context.Context, id schema.RevocationRegistryID, idx uint32) (*schema.RevocationStatusList,
	error) {
	return m.Update(ctx, id, nil, []uint32{idx})
}

// Update applies a batch of issuances and revocations and records the
// resulting status list. A batch that changes nothing returns the current
// list without recording a new one.
func (m *Manager) Update(ctx context.Context, id schema.RevocationRegistryID, issued,
	revoked []uint32) (*schema.RevocationStatusList, error) {
	reg, err := m.registry(id)
	if err != nil {
		return nil, err
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	current := reg.latest()

	next, err := UpdateStatusList(reg.def, reg.tails, current, issued, revoked, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "unable to update status list")
	}

	added, removed, err := Delta(current, next)
	if err != nil {
		return nil, err
	}

	if len(added) == 0 && len(removed) == 0 {
		return current.Copy(), nil
	}

	ts := m.stamp(current)
	next.Timestamp = &ts

	if m.store != nil {
		if err := m.store.InsertStatusList(ctx, next); err != nil {
			return nil, errors.Wrap(err, "unable to persist status list")
		}
	}

	reg.lists = append(reg.lists, next)

	logger.Info("status list updated", logfields.WithRevRegID(string(id)), logfields.WithTimestamp(ts))

	m.publish(ctx, newEvent(EventStatusUpdated, id, added, removed, ts))

	return next.Copy(), nil
}

// Snapshot returns a copy of the latest status list.
func (m *Manager) Snapshot(id schema.RevocationRegistryID) (*schema.RevocationStatusList, error) {
	reg, err := m.registry(id)
	if err != nil {
		return nil, err
	}

	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return reg.latest().Copy(), nil
}

// StatusList returns a copy of the latest status list stamped at or before ts.
func (m *Manager) StatusList(ctx context.Context, id schema.RevocationRegistryID,
	ts uint64) (*schema.RevocationStatusList, error) {
	reg, err := m.registry(id)
	if err != nil {
		return nil, err
	}

	reg.mu.RLock()
	list := reg.at(ts)
	reg.mu.RUnlock()

	if list != nil {
		return list.Copy(), nil
	}

	if m.store != nil {
		list, err = m.store.GetStatusList(ctx, id, ts)
		if err == nil {
			return list, nil
		}

		if !errors.Is(err, datastore.ErrNotFound) {
			return nil, errors.Wrap(err, "unable to load status list")
		}
	}

	return nil, errs.New(errs.Validation, "revocation registry %s has no status list at %d", id, ts)
}

// Witness computes the witness of idx against the status list at ts.
func (m *Manager) Witness(ctx context.Context, id schema.RevocationRegistryID, idx uint32,
	ts uint64) (*accumulator.Witness, *schema.RevocationStatusList, error) {
	list, err := m.StatusList(ctx, id, ts)
	if err != nil {
		return nil, nil, err
	}

	reg, err := m.registry(id)
	if err != nil {
		return nil, nil, err
	}

	w, err := WitnessFor(reg.def, reg.tails, list, idx)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Validation, err, "unable to compute witness")
	}

	return w, list, nil
}

// Definition returns the definition of a registry.
func (m *Manager) Definition(id schema.RevocationRegistryID) (*schema.RevocationRegistryDefinition, error) {
	reg, err := m.registry(id)
	if err != nil {
		return nil, err
	}

	return reg.def, nil
}

// Tails returns the tails of a registry.
func (m *Manager) Tails(id schema.RevocationRegistryID) (accumulator.Tails, error) {
	reg, err := m.registry(id)
	if err != nil {
		return nil, err
	}

	return reg.tails, nil
}

func (m *Manager) registry(id schema.RevocationRegistryID) (*registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.registries[id]
	if !ok {
		return nil, errors.Wrap(ErrUnknownRegistry, string(id))
	}

	return reg, nil
}

// stamp keeps timestamps strictly increasing along a registry timeline.
func (m *Manager) stamp(last *schema.RevocationStatusList) uint64 {
	ts := m.clock()
	if last.Timestamp != nil && ts <= *last.Timestamp {
		ts = *last.Timestamp + 1
	}

	return ts
}

func (m *Manager) publish(ctx context.Context, evt *Event) {
	if m.publisher == nil {
		return
	}

	if err := m.publisher.Publish(ctx, evt); err != nil {
		logger.Error("unable to publish revocation event", log.WithError(err),
			logfields.WithRevRegID(string(evt.RevRegID)), logfields.WithEvent(string(evt.Type)))
	}
}

func (r *registry) latest() *schema.RevocationStatusList {
	return r.lists[len(r.lists)-1]
}

func (r *registry) at(ts uint64) *schema.RevocationStatusList {
	i := sort.Search(len(r.lists), func(i int) bool { return *r.lists[i].Timestamp > ts })
	if i == 0 {
		return nil
	}

	return r.lists[i-1]
}
