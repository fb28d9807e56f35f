/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"context"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/schema"
)

// CreateRevocationRegistryDef generates a registry of maxCredNum credentials
// for credDef and stores its tails file with w. The tails are returned so
// the registry can be registered without reading them back.
func (i *Issuer) CreateRevocationRegistryDef(ctx context.Context, credDef *schema.CredentialDefinition,
	credDefID schema.CredentialDefinitionID, tag string, maxCredNum uint32, issuanceType schema.IssuanceType,
	w revocation.TailsWriter) (*schema.RevocationRegistryDefinition, *schema.RevocationRegistryDefinitionPrivate,
	accumulator.MemoryTails, error) {
	if credDef == nil || !credDef.SupportsRevocation() {
		return nil, nil, nil, errs.New(errs.Validation, "credential definition does not support revocation")
	}

	if err := credDef.ValidateID(credDefID); err != nil {
		return nil, nil, nil, err
	}

	if err := issuanceType.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if maxCredNum == 0 {
		return nil, nil, nil, errs.New(errs.Validation, "max_cred_num must be positive")
	}

	reg, regPriv, tails, err := accumulator.NewRegistry(credDef.Value.Revocation, maxCredNum)
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.Validation, err, "unable to generate revocation registry")
	}

	hash, location, err := revocation.WriteTails(ctx, w, tails)
	if err != nil {
		return nil, nil, nil, err
	}

	def := &schema.RevocationRegistryDefinition{
		IssuerID:     credDef.IssuerID,
		RevocDefType: schema.RegistryTypeCLAccum,
		Tag:          tag,
		CredDefID:    credDefID,
		Value: schema.RevocationRegistryDefinitionValue{
			IssuanceType:  issuanceType,
			MaxCredNum:    maxCredNum,
			PublicKeys:    schema.RevocationRegistryDefinitionPublicKeys{AccumKey: reg},
			TailsHash:     hash,
			TailsLocation: location,
		},
	}

	if err := def.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger.Info("revocation registry definition created", logfields.WithCredDefID(string(credDefID)),
		logfields.WithMaxCredNum(maxCredNum), logfields.WithTailsLocation(location))

	return def, &schema.RevocationRegistryDefinitionPrivate{Value: regPriv}, tails, nil
}

// CreateRevocationStatusList builds the initial status list of a registry.
func (i *Issuer) CreateRevocationStatusList(id schema.RevocationRegistryID, def *schema.RevocationRegistryDefinition,
	tails accumulator.Tails, ts *uint64) (*schema.RevocationStatusList, error) {
	if def == nil {
		return nil, errs.New(errs.Validation, "revocation registry definition is required")
	}

	if err := def.ValidateID(id); err != nil {
		return nil, err
	}

	list, err := revocation.NewStatusList(id, def, tails, ts)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "unable to create status list")
	}

	return list, nil
}

// UpdateRevocationStatusList applies a batch of issuances and revocations
// to current and returns the new list.
func (i *Issuer) UpdateRevocationStatusList(def *schema.RevocationRegistryDefinition, tails accumulator.Tails,
	current *schema.RevocationStatusList, issued, revoked []uint32, ts *uint64) (*schema.RevocationStatusList, error) {
	list, err := revocation.UpdateStatusList(def, tails, current, issued, revoked, ts)
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "unable to update status list")
	}

	return list, nil
}

// UpdateRevocationStatusListTimestampOnly re-stamps current without changing
// the accumulator.
func (i *Issuer) UpdateRevocationStatusListTimestampOnly(current *schema.RevocationStatusList,
	ts uint64) (*schema.RevocationStatusList, error) {
	if current == nil {
		return nil, errs.New(errs.Validation, "status list is required")
	}

	if current.Timestamp != nil && ts < *current.Timestamp {
		return nil, errs.New(errs.Validation, "timestamp %d precedes the current %d", ts, *current.Timestamp)
	}

	return revocation.UpdateTimestamp(current, ts), nil
}
