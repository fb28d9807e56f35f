/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rabbitmq

import (
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// Publisher sends persistent messages to a queue through the default
// exchange.
type Publisher struct {
	*session
}

func NewPublisher(addr, queue string, opts ...Option) (*Publisher, error) {
	s, err := openSession(addr, queue, opts)
	if err != nil {
		return nil, err
	}

	return &Publisher{session: s}, nil
}

func (r *Publisher) Publish(body []byte, contentType string) error {
	msg := amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := r.ch.Publish("", r.queue, false, false, msg); err != nil {
		return errors.Wrapf(err, "publish to %s failed", r.queue)
	}

	return nil
}
