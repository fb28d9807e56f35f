/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package manager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/framework"
)

func TestDataProviderManager(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		m := NewDataProviderManager(&framework.DatastoreConfig{Database: ""})

		dp, err := m.DefaultStoreProvider()
		require.Error(t, err)
		require.Contains(t, err.Error(), "no datastore configuration was provided")
		require.Nil(t, dp)
	})

	t.Run("memory is cached", func(t *testing.T) {
		dc := &framework.DatastoreConfig{Database: "memory"}
		m := NewDataProviderManager(dc)
		require.Equal(t, dc, m.Config())

		first, err := m.DefaultStoreProvider()
		require.NoError(t, err)

		second, err := m.StorageProvider(&framework.DatastoreConfig{Database: "memory"})
		require.NoError(t, err)
		require.Same(t, first, second)

		require.NoError(t, m.Close())
	})

	t.Run("backend errors", func(t *testing.T) {
		m := NewDataProviderManager(&framework.DatastoreConfig{Database: "mongo"})

		_, err := m.DefaultStoreProvider()
		require.Error(t, err)

		_, err = m.StorageProvider(&framework.DatastoreConfig{Database: "redis"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unable to create datastore based on config")
	})
}
