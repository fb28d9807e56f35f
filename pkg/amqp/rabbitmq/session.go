/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rabbitmq

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// session is a channel bound to one durable queue.
type session struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func openSession(addr, queue string, opts []Option) (*session, error) {
	if queue == "" {
		return nil, errors.New("queue name is required")
	}

	conn, err := dial(addr, opts)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "unable to create an AMQP channel")
	}

	// durable, not auto-deleted, shared, waiting for the broker
	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "unable to declare AMQP queue %s", queue)
	}

	return &session{conn: conn, ch: ch, queue: queue}, nil
}

// Close closes the connection and with it the channel.
func (s *session) Close() error {
	return s.conn.Close()
}
