/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
)

var logger = log.New("anoncreds/tails-file")

// Store keeps tails files in a local directory, named by their hash. When a
// base URL is set, locations are published under it instead of as paths.
type Store struct {
	dir     string
	baseURL string
}

// NewStore creates the directory if needed and returns a Store over it.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "unable to create tails directory %s", dir)
	}

	return &Store{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// WriteTails writes data atomically as <dir>/<hash>.
func (s *Store) WriteTails(_ context.Context, hash string, data []byte) (string, error) {
	if hash == "" || strings.ContainsAny(hash, `/\`) {
		return "", errors.Errorf("invalid tails hash %q", hash)
	}

	tmp, err := os.CreateTemp(s.dir, hash+".*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "unable to create tails file")
	}

	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return "", errors.Wrap(err, "unable to write tails file")
	}

	if err = tmp.Close(); err != nil {
		return "", errors.Wrap(err, "unable to write tails file")
	}

	path := filepath.Join(s.dir, hash)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Wrap(err, "unable to move tails file")
	}

	location := path
	if s.baseURL != "" {
		location = s.baseURL + "/" + hash
	}

	logger.Debug("tails file written", logfields.WithTailsLocation(location))

	return location, nil
}

// ReadTails reads a tails file by path or by a URL under the base URL.
func (s *Store) ReadTails(_ context.Context, location string) ([]byte, error) {
	path := location

	if s.baseURL != "" && strings.HasPrefix(location, s.baseURL+"/") {
		path = filepath.Join(s.dir, filepath.Base(strings.TrimPrefix(location, s.baseURL+"/")))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read tails file %s", location)
	}

	return data, nil
}
