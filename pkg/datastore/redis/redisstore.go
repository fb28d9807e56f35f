/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package redis

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/redis")

const defaultTimeout = 15 * time.Second

type Config struct {
	Addrs      []string `mapstructure:"addrs"`
	Password   string   `mapstructure:"password"`
	MasterName string   `mapstructure:"masterName"`
}

// Provider is a redis implementation of datastore.Provider. Registries are
// stored as JSON strings, status list timelines as sorted sets scored by
// timestamp.
type Provider struct {
	client redis.UniversalClient
	stores map[string]*redisStore
	sync.RWMutex
}

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewProvider connects to redis. Two or more addresses select a cluster
// client, a master name selects a sentinel backed client.
func NewProvider(config *Config) (*Provider, error) {
	if config == nil || len(config.Addrs) == 0 {
		return nil, errors.New("redis addresses are required")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:                 config.Addrs,
		ContextTimeoutEnabled: true,
		MasterName:            config.MasterName,
		Password:              config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	return NewProviderFromClient(client), nil
}

// NewProviderFromClient wraps an existing client.
func NewProviderFromClient(client redis.UniversalClient) *Provider {
	return &Provider{client: client, stores: map[string]*redisStore{}}
}

// OpenStore returns the store for the name space.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	if s, ok := p.stores[name]; ok {
		return s, nil
	}

	s := &redisStore{client: p.client, prefix: name}
	p.stores[name] = s

	logger.Debug("opened store", logfields.WithStore(name))

	return s, nil
}

// CloseStore forgets a store, leaving its keys in place.
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, name)

	return nil
}

// Close closes the client.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = map[string]*redisStore{}

	return p.client.Close()
}

func (s *redisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *redisStore) InsertRegistry(ctx context.Context, r *datastore.Registry) error {
	data, err := datastore.MarshalRegistry(r)
	if err != nil {
		return err
	}

	pipeline := s.client.TxPipeline()
	pipeline.Set(ctx, s.key(datastore.RegistryC, string(r.ID)), data, 0)
	pipeline.SAdd(ctx, s.key(datastore.RegistryC), string(r.ID))

	if _, err = pipeline.Exec(ctx); err != nil {
		return errors.Wrap(err, "unable to insert registry")
	}

	return nil
}

func (s *redisStore) GetRegistry(ctx context.Context, id schema.RevocationRegistryID) (*datastore.Registry, error) {
	data, err := s.client.Get(ctx, s.key(datastore.RegistryC, string(id))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, datastore.ErrNotFound
		}

		return nil, errors.Wrap(err, "unable to get registry")
	}

	return datastore.UnmarshalRegistry(data)
}

func (s *redisStore) ListRegistries(ctx context.Context) ([]schema.RevocationRegistryID, error) {
	ids, err := s.client.SMembers(ctx, s.key(datastore.RegistryC)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to list registries")
	}

	out := make([]schema.RevocationRegistryID, len(ids))
	for i, id := range ids {
		out[i] = schema.RevocationRegistryID(id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func (s *redisStore) InsertStatusList(ctx context.Context, list *schema.RevocationStatusList) error {
	ts, err := datastore.ListTimestamp(list)
	if err != nil {
		return err
	}

	data, err := datastore.MarshalStatusList(list)
	if err != nil {
		return err
	}

	key := s.key(datastore.StatusListC, string(list.RevRegDefID))
	score := strconv.FormatUint(ts, 10)

	pipeline := s.client.TxPipeline()
	pipeline.ZRemRangeByScore(ctx, key, score, score)
	pipeline.ZAdd(ctx, key, redis.Z{Score: float64(ts), Member: string(data)})

	if _, err = pipeline.Exec(ctx); err != nil {
		return errors.Wrap(err, "unable to insert status list")
	}

	return nil
}

func (s *redisStore) GetStatusList(ctx context.Context, id schema.RevocationRegistryID,
	ts uint64) (*schema.RevocationStatusList, error) {
	return s.findList(ctx, id, strconv.FormatUint(ts, 10))
}

func (s *redisStore) LatestStatusList(ctx context.Context, id schema.RevocationRegistryID) (*schema.RevocationStatusList,
	error) {
	return s.findList(ctx, id, "+inf")
}

func (s *redisStore) findList(ctx context.Context, id schema.RevocationRegistryID,
	max string) (*schema.RevocationStatusList, error) {
	res, err := s.client.ZRevRangeByScore(ctx, s.key(datastore.StatusListC, string(id)), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   max,
		Count: 1,
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "unable to find status list")
	}

	if len(res) == 0 {
		return nil, datastore.ErrNotFound
	}

	return datastore.UnmarshalStatusList([]byte(res[0]))
}
