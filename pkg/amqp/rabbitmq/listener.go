/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rabbitmq

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// Listener consumes a queue with automatic acknowledgement.
type Listener struct {
	*session
}

func NewListener(addr, queue string, opts ...Option) (*Listener, error) {
	s, err := openSession(addr, queue, opts)
	if err != nil {
		return nil, err
	}

	return &Listener{session: s}, nil
}

// Listen starts consuming. The channel closes with the connection.
func (r *Listener) Listen() (<-chan amqp.Delivery, error) {
	msgs, err := r.ch.Consume(r.queue, "", true, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to consume %s", r.queue)
	}

	return msgs, nil
}
