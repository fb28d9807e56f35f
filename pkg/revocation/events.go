/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"context"

	"github.com/google/uuid"

	"github.com/scoir/anoncreds/pkg/schema"
)

// EventType names a registry state change.
type EventType string

// Event types.
const (
	EventRegistryCreated EventType = "registry_created"
	EventStatusUpdated   EventType = "status_updated"
)

// Event is published after every state change of a registry.
type Event struct {
	ID        string                      `json:"id"`
	Type      EventType                   `json:"type"`
	RevRegID  schema.RevocationRegistryID `json:"rev_reg_id"`
	Issued    []uint32                    `json:"issued,omitempty"`
	Revoked   []uint32                    `json:"revoked,omitempty"`
	Timestamp uint64                      `json:"timestamp"`
}

// Publisher delivers registry events.
type Publisher interface {
	Publish(ctx context.Context, evt *Event) error
}

func newEvent(t EventType, id schema.RevocationRegistryID, issued, revoked []uint32, ts uint64) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		RevRegID:  id,
		Issued:    issued,
		Revoked:   revoked,
		Timestamp: ts,
	}
}
