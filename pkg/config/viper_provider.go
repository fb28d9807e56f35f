/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/scoir/anoncreds/pkg/framework"
)

const (
	defaultConfigName = "anoncreds"
	envPrefix         = "ANONCREDS"

	defaultTimestampTolerance = 300
)

// Option configures the config...
type Option func(opts *vpr)

// WithFlags binds a flag set in addition to pflag.CommandLine.
func WithFlags(flags *pflag.FlagSet) Option {
	return func(opts *vpr) {
		opts.flags = append(opts.flags, flags)
	}
}

type ViperConfigProvider struct {
	DefaultConfigName string
}

type vpr struct {
	*viper.Viper
	flags []*pflag.FlagSet
}

// Load reads file, or anoncreds.yaml from the search path when file is
// empty, layered under ANONCREDS_ prefixed environment variables and bound
// flags. A missing default config file is not an error.
func (r *ViperConfigProvider) Load(file string, opts ...Option) (Config, error) {
	config := &vpr{
		Viper: viper.New(),
		flags: []*pflag.FlagSet{pflag.CommandLine},
	}

	for _, opt := range opts {
		opt(config)
	}

	setDefaults(config.Viper)

	if file != "" {
		config.SetConfigFile(file)
	} else {
		name := r.DefaultConfigName
		if name == "" {
			name = defaultConfigName
		}

		config.SetConfigType("yaml")
		config.AddConfigPath("/etc/anoncreds/")
		config.AddConfigPath(".")
		config.SetConfigName(name)
	}

	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()

	for _, flags := range config.flags {
		if err := config.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "failed to bind flags")
		}
	}

	err := config.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "failed to read config %s", config.ConfigFileUsed())
		}
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("credentialRequest.use", framework.UseEntropy)
	v.SetDefault("revocation.timestampTolerance", defaultTimestampTolerance)
	v.SetDefault("datastore.database", "memory")
	v.SetDefault("tails.type", "file")
	v.SetDefault("tails.path", "./tails")
	v.SetDefault("amqp.port", 5672)
	v.SetDefault("amqp.queue", "anoncreds.revocation")
}

func (r *vpr) AMQPConfig() (*framework.AMQPConfig, error) {
	config := &framework.AMQPConfig{}

	err := r.UnmarshalKey("amqp", config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

func (r *vpr) DataStore() (*framework.DatastoreConfig, error) {
	dc := &framework.DatastoreConfig{}

	err := r.UnmarshalKey("datastore", dc)
	if err != nil {
		return nil, err
	}

	return dc, nil
}

func (r *vpr) Tails() (*framework.TailsConfig, error) {
	tc := &framework.TailsConfig{}

	err := r.UnmarshalKey("tails", tc)
	if err != nil {
		return nil, err
	}

	return tc, nil
}

func (r *vpr) Crypto() (*framework.CryptoConfig, error) {
	cc := &framework.CryptoConfig{}

	err := r.UnmarshalKey("crypto", cc)
	if err != nil {
		return nil, err
	}

	return cc, cc.Validate()
}

func (r *vpr) CredentialRequest() (*framework.CredentialRequestConfig, error) {
	crc := &framework.CredentialRequestConfig{}

	err := r.UnmarshalKey("credentialRequest", crc)
	if err != nil {
		return nil, err
	}

	return crc, crc.Validate()
}

func (r *vpr) Revocation() (*framework.RevocationConfig, error) {
	rc := &framework.RevocationConfig{}

	err := r.UnmarshalKey("revocation", rc)
	if err != nil {
		return nil, err
	}

	return rc, nil
}

// GetString defers to viper so environment overrides are converted.
func (r *vpr) GetString(s string) string {
	return r.Viper.GetString(s)
}

func (r *vpr) GetInt(s string) int {
	return r.Viper.GetInt(s)
}
