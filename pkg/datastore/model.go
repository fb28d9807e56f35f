/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package datastore

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/schema"
)

// Registry is the persisted state of a revocation registry besides its
// status lists.
type Registry struct {
	ID         schema.RevocationRegistryID          `json:"id"`
	Definition *schema.RevocationRegistryDefinition `json:"definition"`
	// NextIndex is the last index handed out, 0 when none was.
	NextIndex uint32 `json:"next_index"`
}

// ListTimestamp returns the timestamp of a list to be stored.
func ListTimestamp(list *schema.RevocationStatusList) (uint64, error) {
	if list == nil || list.Timestamp == nil {
		return 0, errors.New("status list has no timestamp")
	}

	return *list.Timestamp, nil
}

// MarshalRegistry encodes a registry record.
func MarshalRegistry(r *Registry) ([]byte, error) {
	b, err := json.Marshal(r)
	return b, errors.Wrap(err, "unable to marshal registry")
}

// UnmarshalRegistry decodes a registry record.
func UnmarshalRegistry(data []byte) (*Registry, error) {
	out := &Registry{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal registry")
	}

	return out, nil
}

// MarshalStatusList encodes a status list.
func MarshalStatusList(list *schema.RevocationStatusList) ([]byte, error) {
	b, err := json.Marshal(list)
	return b, errors.Wrap(err, "unable to marshal status list")
}

// UnmarshalStatusList decodes a status list.
func UnmarshalStatusList(data []byte) (*schema.RevocationStatusList, error) {
	out := &schema.RevocationStatusList{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal status list")
	}

	return out, nil
}
