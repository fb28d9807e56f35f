/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mongodb

import (
	"testing"

	dctest "github.com/ory/dockertest/v3"
	dc "github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/datastore/storetest"
)

const (
	mongoDBConnString  = "mongodb://localhost:27028"
	dockerMongoDBImage = "mongo"
	dockerMongoDBTag   = "4.0.0"
)

func TestProvider(t *testing.T) {
	pool, mongoDBResource := startMongoDBContainer(t)

	defer func() {
		require.NoError(t, pool.Purge(mongoDBResource), "failed to purge MongoDB resource")
	}()

	p, err := NewProvider(&Config{URL: mongoDBConnString, Database: "anoncreds_test", MaxRetries: 30})
	require.NoError(t, err)

	storetest.Run(t, p, "issuer")

	require.NoError(t, p.Close())
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(nil)
	require.Error(t, err)

	_, err = NewProvider(&Config{URL: "not a url"})
	require.Error(t, err)
}

func startMongoDBContainer(t *testing.T) (*dctest.Pool, *dctest.Resource) {
	t.Helper()

	pool, err := dctest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}

	if err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	mongoDBResource, err := pool.RunWithOptions(&dctest.RunOptions{
		Repository: dockerMongoDBImage,
		Tag:        dockerMongoDBTag,
		PortBindings: map[dc.Port][]dc.PortBinding{
			"27017/tcp": {{HostIP: "", HostPort: "27028"}},
		},
	})
	require.NoError(t, err)

	return pool, mongoDBResource
}
