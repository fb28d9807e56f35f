/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import "github.com/scoir/anoncreds/pkg/framework"

// Provider rename to ConfigBuilder
type Provider interface {
	Load(file string, opts ...Option) (Config, error)
}

// Config
type Config interface {
	AMQPConfig() (*framework.AMQPConfig, error)

	DataStore() (*framework.DatastoreConfig, error)
	Tails() (*framework.TailsConfig, error)

	Crypto() (*framework.CryptoConfig, error)
	CredentialRequest() (*framework.CredentialRequestConfig, error)
	Revocation() (*framework.RevocationConfig, error)

	GetString(s string) string
	GetInt(s string) int
}
