/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/datastore"
	"github.com/scoir/anoncreds/pkg/datastore/memory"
	"github.com/scoir/anoncreds/pkg/datastore/mongodb"
	"github.com/scoir/anoncreds/pkg/datastore/redis"
	"github.com/scoir/anoncreds/pkg/framework"
)

type DataProviderManager struct {
	lock sync.Mutex
	dc   *framework.DatastoreConfig
	ds   map[string]datastore.Provider
}

func NewDataProviderManager(dc *framework.DatastoreConfig) *DataProviderManager {
	return &DataProviderManager{
		dc: dc,
		ds: map[string]datastore.Provider{},
	}
}

func (r *DataProviderManager) Config() *framework.DatastoreConfig {
	return r.dc
}

func (r *DataProviderManager) DefaultStoreProvider() (datastore.Provider, error) {
	return r.StorageProvider(r.dc)
}

// StorageProvider returns the provider for dc, reusing one already opened
// for the same backend.
func (r *DataProviderManager) StorageProvider(dc *framework.DatastoreConfig) (datastore.Provider, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	key := fmt.Sprintf("%s:%s", dc.Database, dc.Name())
	ds, ok := r.ds[key]
	if ok {
		return ds, nil
	}

	var err error
	switch dc.Database {
	case "memory":
		ds = memory.NewProvider()
	case "mongo":
		ds, err = mongodb.NewProvider(dc.Mongo)
	case "redis":
		ds, err = redis.NewProvider(dc.Redis)
	default:
		return nil, errors.New("no datastore configuration was provided")
	}

	if err != nil {
		return nil, errors.Wrap(err, "unable to create datastore based on config")
	}

	r.ds[key] = ds

	return ds, nil
}

// Close closes every provider handed out.
func (r *DataProviderManager) Close() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	var last error
	for key, ds := range r.ds {
		if err := ds.Close(); err != nil {
			last = errors.Wrapf(err, "unable to close datastore %s", key)
		}
	}

	r.ds = map[string]datastore.Provider{}

	return last
}
