/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/mongodb")

const defaultMaxRetries = 5

type Config struct {
	URL        string `mapstructure:"url"`
	Database   string `mapstructure:"database"`
	MaxRetries uint64 `mapstructure:"maxRetries"`
}

// Provider represents a Mongo DB implementation of the datastore.Provider interface
type Provider struct {
	db     *mongo.Database
	stores map[string]*mongoDBStore
	sync.RWMutex
}

type mongoDBStore struct {
	registries *mongo.Collection
	lists      *mongo.Collection
}

type registryDoc struct {
	ID         string `bson:"_id"`
	NextIndex  int64  `bson:"nextIndex"`
	Definition string `bson:"definition"`
}

type statusListDoc struct {
	ID          string `bson:"_id"`
	RevRegDefID string `bson:"revRegDefId"`
	Timestamp   int64  `bson:"timestamp"`
	List        string `bson:"list"`
}

// NewProvider instantiates Provider, retrying the initial ping with
// exponential backoff.
func NewProvider(config *Config) (*Provider, error) {
	if config == nil {
		return nil, errors.New("config missing")
	}

	clientOpts := options.Client().ApplyURI(config.URL)

	mongoClient, err := mongo.NewClient(clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "error creating mongo client")
	}

	err = mongoClient.Connect(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo")
	}

	retries := config.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	err = backoff.RetryNotify(func() error {
		return mongoClient.Ping(context.Background(), nil)
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), func(err error, next time.Duration) {
		logger.Warn("mongo is not reachable, retrying", log.WithError(err), zap.Duration("backoff", next))
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to reach mongo")
	}

	return &Provider{
		db:     mongoClient.Database(config.Database),
		stores: map[string]*mongoDBStore{},
	}, nil
}

// OpenStore opens and returns the collections for given name space.
func (p *Provider) OpenStore(name string) (datastore.Store, error) {
	p.Lock()
	defer p.Unlock()

	if name == "" {
		return nil, errors.New("store name is required")
	}

	if store, ok := p.stores[name]; ok {
		return store, nil
	}

	store := &mongoDBStore{
		registries: p.db.Collection(name + datastore.RegistryC),
		lists:      p.db.Collection(name + datastore.StatusListC),
	}

	_, err := store.lists.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "revRegDefId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to index status lists")
	}

	p.stores[name] = store

	logger.Debug("opened store", logfields.WithStore(name))

	return store, nil
}

// Close closes the provider.
func (p *Provider) Close() error {
	p.Lock()
	defer p.Unlock()

	p.stores = make(map[string]*mongoDBStore)

	return p.db.Client().Disconnect(context.Background())
}

// CloseStore closes a previously opened stores
func (p *Provider) CloseStore(name string) error {
	p.Lock()
	defer p.Unlock()

	delete(p.stores, name)

	return nil
}

func (r *mongoDBStore) InsertRegistry(ctx context.Context, reg *datastore.Registry) error {
	data, err := datastore.MarshalRegistry(reg)
	if err != nil {
		return err
	}

	doc := &registryDoc{ID: string(reg.ID), NextIndex: int64(reg.NextIndex), Definition: string(data)}

	_, err = r.registries.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, "unable to insert registry")
	}

	return nil
}

func (r *mongoDBStore) GetRegistry(ctx context.Context, id schema.RevocationRegistryID) (*datastore.Registry, error) {
	doc := &registryDoc{}

	err := r.registries.FindOne(ctx, bson.M{"_id": string(id)}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, datastore.ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to find registry")
	}

	return datastore.UnmarshalRegistry([]byte(doc.Definition))
}

func (r *mongoDBStore) ListRegistries(ctx context.Context) ([]schema.RevocationRegistryID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})

	results, err := r.registries.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "error trying to find registries")
	}

	var docs []registryDoc
	if err := results.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "unable to decode registries")
	}

	out := make([]schema.RevocationRegistryID, len(docs))
	for i, d := range docs {
		out[i] = schema.RevocationRegistryID(d.ID)
	}

	return out, nil
}

func (r *mongoDBStore) InsertStatusList(ctx context.Context, list *schema.RevocationStatusList) error {
	ts, err := datastore.ListTimestamp(list)
	if err != nil {
		return err
	}

	data, err := datastore.MarshalStatusList(list)
	if err != nil {
		return err
	}

	doc := &statusListDoc{
		ID:          statusListKey(list.RevRegDefID, ts),
		RevRegDefID: string(list.RevRegDefID),
		Timestamp:   int64(ts),
		List:        string(data),
	}

	_, err = r.lists.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, "unable to insert status list")
	}

	return nil
}

func (r *mongoDBStore) GetStatusList(ctx context.Context, id schema.RevocationRegistryID,
	ts uint64) (*schema.RevocationStatusList, error) {
	filter := bson.M{"revRegDefId": string(id), "timestamp": bson.M{"$lte": int64(ts)}}
	return r.findList(ctx, filter)
}

func (r *mongoDBStore) LatestStatusList(ctx context.Context, id schema.RevocationRegistryID) (*schema.RevocationStatusList,
	error) {
	return r.findList(ctx, bson.M{"revRegDefId": string(id)})
}

func (r *mongoDBStore) findList(ctx context.Context, filter bson.M) (*schema.RevocationStatusList, error) {
	doc := &statusListDoc{}

	err := r.lists.FindOne(ctx, filter, options.FindOne().SetSort(bson.M{"timestamp": -1})).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, datastore.ErrNotFound
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to find status list")
	}

	return datastore.UnmarshalStatusList([]byte(doc.List))
}

func statusListKey(id schema.RevocationRegistryID, ts uint64) string {
	return string(id) + "@" + strconv.FormatUint(ts, 10)
}
