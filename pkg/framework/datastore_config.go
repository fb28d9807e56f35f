/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"github.com/scoir/anoncreds/pkg/datastore/mongodb"
	"github.com/scoir/anoncreds/pkg/datastore/redis"
)

type DatastoreConfig struct {
	Database string          `mapstructure:"database"`
	Mongo    *mongodb.Config `mapstructure:"mongo"`
	Redis    *redis.Config   `mapstructure:"redis"`
}

// Name identifies the configured backend location.
func (r *DatastoreConfig) Name() string {
	switch {
	case r.Database == "mongo" && r.Mongo != nil:
		return r.Mongo.URL + "/" + r.Mongo.Database
	case r.Database == "redis" && r.Redis != nil && len(r.Redis.Addrs) > 0:
		return r.Redis.Addrs[0]
	default:
		return r.Database
	}
}
