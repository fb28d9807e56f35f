//go:build !ursa
// +build !ursa

/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/issuer"
)

func ursaKeyGenerator() (issuer.KeyGenerator, error) {
	return nil, errors.New("crypto.backend ursa requires a build with the ursa tag")
}
