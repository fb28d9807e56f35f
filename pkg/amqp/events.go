/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package amqp

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/revocation"
)

const jsonContentType = "application/json"

// EventPublisher sends registry events as JSON messages.
type EventPublisher struct {
	publisher Publisher
}

// NewEventPublisher wraps p.
func NewEventPublisher(p Publisher) *EventPublisher {
	return &EventPublisher{publisher: p}
}

// Publish encodes evt and hands it to the underlying publisher.
func (r *EventPublisher) Publish(ctx context.Context, evt *revocation.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, "unable to marshal registry event")
	}

	return r.publisher.Publish(body, jsonContentType)
}

// DecodeEvent parses a message body produced by EventPublisher.
func DecodeEvent(body []byte) (*revocation.Event, error) {
	evt := &revocation.Event{}
	if err := json.Unmarshal(body, evt); err != nil {
		return nil, errors.Wrap(err, "unable to unmarshal registry event")
	}

	return evt, nil
}
