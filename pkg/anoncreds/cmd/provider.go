/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/amqp"
	"github.com/scoir/anoncreds/pkg/amqp/rabbitmq"
	"github.com/scoir/anoncreds/pkg/config"
	"github.com/scoir/anoncreds/pkg/datastore/manager"
	"github.com/scoir/anoncreds/pkg/framework"
	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/schema"
	"github.com/scoir/anoncreds/pkg/verifier"
)

const storeName = "anoncreds"

// Provider builds the engines and infrastructure a command needs from the
// loaded configuration. Everything is created on first use.
type Provider struct {
	cfg config.Config

	dm        *manager.DataProviderManager
	tails     framework.TailsStore
	registry  *revocation.Manager
	publisher amqp.Publisher
}

// NewProvider returns a Provider for cfg.
func NewProvider(cfg config.Config) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) Config() config.Config {
	return p.cfg
}

func (p *Provider) TailsStore(ctx context.Context) (framework.TailsStore, error) {
	if p.tails != nil {
		return p.tails, nil
	}

	tc, err := p.cfg.Tails()
	if err != nil {
		return nil, errors.Wrap(err, "invalid tails configuration")
	}

	p.tails, err = tc.Store(ctx)
	if err != nil {
		return nil, err
	}

	return p.tails, nil
}

// RegistryManager returns a revocation manager backed by the configured
// datastore, publishing events to AMQP when a broker is configured.
func (p *Provider) RegistryManager() (*revocation.Manager, error) {
	if p.registry != nil {
		return p.registry, nil
	}

	dc, err := p.cfg.DataStore()
	if err != nil {
		return nil, errors.Wrap(err, "invalid datastore configuration")
	}

	if p.dm == nil {
		p.dm = manager.NewDataProviderManager(dc)
	}

	sp, err := p.dm.DefaultStoreProvider()
	if err != nil {
		return nil, err
	}

	store, err := sp.OpenStore(storeName)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open registry store")
	}

	logger.Debug("registry store opened", logfields.WithStore(dc.Name()))

	opts := []revocation.Option{revocation.WithStore(store)}

	ac, err := p.cfg.AMQPConfig()
	if err != nil {
		return nil, errors.Wrap(err, "invalid amqp configuration")
	}

	if ac.Enabled() {
		p.publisher, err = rabbitmq.NewPublisher(ac.Endpoint(), ac.Queue)
		if err != nil {
			return nil, err
		}

		opts = append(opts, revocation.WithPublisher(amqp.NewEventPublisher(p.publisher)))
	}

	p.registry = revocation.NewManager(opts...)

	return p.registry, nil
}

// LoadRegistry makes the persisted registry id available in the manager.
func (p *Provider) LoadRegistry(ctx context.Context, id schema.RevocationRegistryID) (*revocation.Manager, error) {
	mgr, err := p.RegistryManager()
	if err != nil {
		return nil, err
	}

	if _, err := mgr.Definition(id); err == nil {
		return mgr, nil
	}

	tails, err := p.TailsStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := mgr.Restore(ctx, id, tails); err != nil {
		return nil, err
	}

	return mgr, nil
}

// Issuer returns an issuer generating keys with the configured crypto
// backend and options, followed by opts.
func (p *Provider) Issuer(opts ...issuer.Option) (*issuer.Issuer, error) {
	cc, err := p.cfg.Crypto()
	if err != nil {
		return nil, errors.Wrap(err, "invalid crypto configuration")
	}

	base := []issuer.Option{issuer.WithKeyOptions(cc.Options()...)}

	if cc.Backend == framework.BackendURSA {
		gen, err := ursaKeyGenerator()
		if err != nil {
			return nil, err
		}

		base = append(base, issuer.WithKeyGenerator(gen))
	}

	return issuer.New(append(base, opts...)...), nil
}

func (p *Provider) Verifier() (*verifier.Verifier, error) {
	rc, err := p.cfg.Revocation()
	if err != nil {
		return nil, errors.Wrap(err, "invalid revocation configuration")
	}

	return verifier.New(verifier.WithTimestampTolerance(rc.TimestampTolerance)), nil
}

// Close releases the broker connection and datastores.
func (p *Provider) Close() error {
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			return errors.Wrap(err, "unable to close amqp publisher")
		}
	}

	if p.dm != nil {
		return p.dm.Close()
	}

	return nil
}
