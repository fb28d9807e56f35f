/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rabbitmq

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.uber.org/zap"
)

var logger = log.New("anoncreds/rabbitmq")

// DefaultMaxRetries bounds the dial attempts.
const DefaultMaxRetries = 5

type options struct {
	maxRetries uint64
	interval   time.Duration
}

// Option configures dialing.
type Option func(o *options)

// WithMaxRetries sets the number of dial retries.
func WithMaxRetries(n uint64) Option {
	return func(o *options) {
		o.maxRetries = n
	}
}

// WithInitialInterval sets the first backoff interval.
func WithInitialInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

func dial(addr string, opts []Option) (*amqp.Connection, error) {
	o := &options{maxRetries: DefaultMaxRetries, interval: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(o)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.interval

	var conn *amqp.Connection

	err := backoff.RetryNotify(func() error {
		var err error
		conn, err = amqp.Dial(addr)

		return err
	}, backoff.WithMaxRetries(b, o.maxRetries), func(err error, next time.Duration) {
		logger.Warn("unable to dial AMQP, retrying", log.WithError(err), zap.Duration("backoff", next))
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to dial AMQP")
	}

	return conn, nil
}
