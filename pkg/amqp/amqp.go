/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package amqp carries revocation registry events over an AMQP broker.
package amqp

import (
	"github.com/streadway/amqp"
)

// Publisher sends raw message bodies to a queue.
type Publisher interface {
	Publish(body []byte, contentType string) error
	Close() error
}

// Listener delivers the messages of a queue.
type Listener interface {
	Listen() (<-chan amqp.Delivery, error)
	Close() error
}
