//go:build ursa
// +build ursa

/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/ursa"
)

func ursaKeyGenerator() (issuer.KeyGenerator, error) {
	return ursa.NewCredentialKeys, nil
}
