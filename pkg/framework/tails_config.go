/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package framework

import (
	"context"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/tails/file"
	"github.com/scoir/anoncreds/pkg/tails/s3"
)

// TailsStore reads and writes tails files.
type TailsStore interface {
	revocation.TailsReader
	revocation.TailsWriter
}

type TailsConfig struct {
	Type     string `mapstructure:"type"`
	Path     string `mapstructure:"path"`
	BaseURL  string `mapstructure:"baseURL"`
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

func (r *TailsConfig) Store(ctx context.Context) (TailsStore, error) {
	switch r.Type {
	case "file", "":
		if r.Path == "" {
			return nil, errors.New("tails.path is required for file tails storage")
		}

		return file.NewStore(r.Path, r.BaseURL)
	case "s3":
		if r.Bucket == "" {
			return nil, errors.New("tails.bucket is required for s3 tails storage")
		}

		return s3.New(ctx, r.Bucket, r.Region, r.Endpoint)
	default:
		return nil, errors.Errorf("unknown tails storage type %q", r.Type)
	}
}
