/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/cl"
)

// AMQPConfig locates the broker and queue revocation events go to.
type AMQPConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	VHost    string `mapstructure:"vhost"`
	Queue    string `mapstructure:"queue"`
}

func (r *AMQPConfig) Endpoint() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

// Enabled reports whether a broker host is configured.
func (r *AMQPConfig) Enabled() bool {
	return r != nil && r.Host != ""
}

// Key generation backends.
const (
	BackendNative = "native"
	BackendURSA   = "ursa"
)

type CryptoConfig struct {
	PrimeBits int    `mapstructure:"primeBits"`
	Backend   string `mapstructure:"backend"`
}

// Options returns the CL key generation options.
func (r *CryptoConfig) Options() []cl.Option {
	if r == nil || r.PrimeBits == 0 {
		return nil
	}

	return []cl.Option{cl.WithPrimeBits(r.PrimeBits)}
}

func (r *CryptoConfig) Validate() error {
	if r.PrimeBits != 0 && r.PrimeBits < cl.MinPrimeBits {
		return errors.Errorf("crypto.primeBits must be at least %d", cl.MinPrimeBits)
	}

	switch r.Backend {
	case "", BackendNative, BackendURSA:
	default:
		return errors.Errorf("unknown crypto.backend %q", r.Backend)
	}

	return nil
}

const (
	UseEntropy   = "entropy"
	UseProverDID = "prover_did"
)

// CredentialRequestConfig selects which prover identifier a credential
// request carries.
type CredentialRequestConfig struct {
	Use string `mapstructure:"use"`
}

func (r *CredentialRequestConfig) Validate() error {
	switch r.Use {
	case UseEntropy, UseProverDID:
		return nil
	default:
		return errors.Errorf("credentialRequest.use must be %q or %q, got %q", UseEntropy, UseProverDID, r.Use)
	}
}

type RevocationConfig struct {
	// TimestampTolerance widens non revoked intervals, in seconds.
	TimestampTolerance uint64 `mapstructure:"timestampTolerance"`
}
