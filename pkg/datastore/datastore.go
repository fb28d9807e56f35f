/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package datastore persists revocation registries and their status list
// timelines.
package datastore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/schema"
)

const (
	RegistryC   = "Registry"
	StatusListC = "StatusList"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Provider storage provider interface
type Provider interface {
	// OpenStore opens a store with given name space and returns the handle
	OpenStore(name string) (Store, error)

	// CloseStore closes store of given name space
	CloseStore(name string) error

	// Close closes all stores created under this store provider
	Close() error
}

//go:generate mockery -name=Store
type Store interface {
	// InsertRegistry creates or replaces a registry record.
	InsertRegistry(ctx context.Context, r *Registry) error
	GetRegistry(ctx context.Context, id schema.RevocationRegistryID) (*Registry, error)
	ListRegistries(ctx context.Context) ([]schema.RevocationRegistryID, error)

	// InsertStatusList appends a timestamped status list to a registry timeline.
	InsertStatusList(ctx context.Context, list *schema.RevocationStatusList) error
	// GetStatusList returns the latest list stamped at or before ts.
	GetStatusList(ctx context.Context, id schema.RevocationRegistryID, ts uint64) (*schema.RevocationStatusList, error)
	LatestStatusList(ctx context.Context, id schema.RevocationRegistryID) (*schema.RevocationStatusList, error)
}
