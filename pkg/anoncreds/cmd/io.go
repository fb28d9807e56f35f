/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/anoncreds/pkg/schema"
)

// commandContext returns the context the command was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "unable to read %s", path)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "invalid %s", path)
	}

	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "unable to marshal output")
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// writeJSON stores v as dir/name with owner only permissions; private keys
// go through here too.
func writeJSON(dir, name string, v interface{}) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", errors.Wrapf(err, "unable to create %s", dir)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", errors.Wrapf(err, "unable to marshal %s", name)
	}

	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrapf(err, "unable to write %s", path)
	}

	return path, nil
}

type output struct {
	name  string
	value interface{}
}

// writeAll writes every output to dir and prints the paths.
func writeAll(w io.Writer, dir string, outputs []output) error {
	for _, o := range outputs {
		path, err := writeJSON(dir, o.name, o.value)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, path)
	}

	return nil
}

// parseAttrs reads repeated NAME=VALUE flags.
func parseAttrs(values []string) (schema.CredentialValues, error) {
	b := schema.NewCredentialValues()

	for _, value := range values {
		vals := strings.SplitN(value, "=", 2)
		if len(vals) != 2 || vals[0] == "" {
			return nil, errors.Errorf("invalid attribute %s, must be in format [name=value]", value)
		}

		b.AddRaw(vals[0], vals[1])
	}

	return b.Values(), nil
}

// parseRefs reads repeated ID=FILE flags.
func parseRefs(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))

	for _, value := range values {
		vals := strings.SplitN(value, "=", 2)
		if len(vals) != 2 || vals[0] == "" || vals[1] == "" {
			return nil, errors.Errorf("invalid reference %s, must be in format [id=file]", value)
		}

		out[vals[0]] = vals[1]
	}

	return out, nil
}
