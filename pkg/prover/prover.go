/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/prover")

// CreateLinkSecret returns a fresh link secret.
func CreateLinkSecret() (*cl.BigNumber, error) {
	ls, err := cl.NewLinkSecret()
	if err != nil {
		return nil, errs.Wrap(errs.Validation, err, "unable to create link secret")
	}

	return ls, nil
}

// CreateCredentialRequest blinds linkSecret for the issuer of offer. Exactly
// one of entropy and proverDID identifies the holder.
func CreateCredentialRequest(entropy, proverDID string, credDef *schema.CredentialDefinition,
	linkSecret *cl.BigNumber, linkSecretID string, offer *schema.CredentialOffer) (*schema.CredentialRequest,
	*schema.CredentialRequestMetadata, error) {
	if (entropy == "") == (proverDID == "") {
		return nil, nil, errs.New(errs.Validation, "exactly one of entropy and prover did is required")
	}

	if credDef == nil || offer == nil || linkSecret == nil {
		return nil, nil, errs.New(errs.Validation, "credential definition, offer and link secret are required")
	}

	if err := credDef.Validate(); err != nil {
		return nil, nil, err
	}

	if err := offer.Validate(); err != nil {
		return nil, nil, err
	}

	pk := credDef.Value.Primary

	if err := cl.VerifyKeyCorrectnessProof(pk, offer.KeyCorrectnessProof); err != nil {
		return nil, nil, errs.Wrap(errs.Validation, err, "invalid key correctness proof")
	}

	secrets, proof, factors, err := cl.BlindLinkSecret(pk, offer.KeyCorrectnessProof, linkSecret, offer.Nonce)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Validation, err, "unable to blind link secret")
	}

	nonce, err := cl.NewNonce()
	if err != nil {
		return nil, nil, errs.Wrap(errs.Validation, err, "unable to create nonce")
	}

	req := &schema.CredentialRequest{
		ProverDID:                 proverDID,
		Entropy:                   entropy,
		CredDefID:                 offer.CredDefID,
		BlindedMS:                 secrets,
		BlindedMSCorrectnessProof: proof,
		Nonce:                     nonce,
	}

	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	meta := &schema.CredentialRequestMetadata{
		LinkSecretBlindingData: factors,
		Nonce:                  nonce,
		LinkSecretName:         linkSecretID,
	}

	return req, meta, nil
}

// ProcessCredential unblinds the signature of cred and checks it and, for a
// revocable credential, its witness. cred is left untouched and the
// processed credential is returned.
func ProcessCredential(cred *schema.Credential, meta *schema.CredentialRequestMetadata, linkSecret *cl.BigNumber,
	credDef *schema.CredentialDefinition, revRegDef *schema.RevocationRegistryDefinition) (*schema.Credential, error) {
	if cred == nil || meta == nil || credDef == nil || linkSecret == nil {
		return nil, errs.New(errs.CredentialProcessing,
			"credential, request metadata, link secret and credential definition are required")
	}

	if err := cred.Validate(); err != nil {
		return nil, errs.Wrap(errs.CredentialProcessing, err, "invalid credential")
	}

	if err := meta.Validate(); err != nil {
		return nil, errs.Wrap(errs.CredentialProcessing, err, "invalid request metadata")
	}

	pk := credDef.Value.Primary

	values, err := cred.Values.Encoded()
	if err != nil {
		return nil, errs.Wrap(errs.CredentialProcessing, err, "invalid credential values")
	}

	sig, err := cl.ProcessSignature(pk, cred.Signature.PCredential, cred.SignatureCorrectnessProof,
		meta.LinkSecretBlindingData, values, linkSecret, meta.Nonce)
	if err != nil {
		return nil, errs.Wrap(errs.CredentialProcessing, err, "invalid credential signature")
	}

	if rcred := cred.Signature.RCredential; rcred != nil {
		if err := checkRevocation(cred, rcred, sig, credDef, revRegDef); err != nil {
			return nil, err
		}
	}

	out := cred.Copy()
	out.Signature.PCredential = sig

	logger.Debug("credential processed", logfields.WithCredDefID(string(cred.CredDefID)))

	return out, nil
}

func checkRevocation(cred *schema.Credential, rcred *accumulator.NonRevocationCredential, sig *cl.PrimarySignature,
	credDef *schema.CredentialDefinition, revRegDef *schema.RevocationRegistryDefinition) error {
	if revRegDef == nil {
		return errs.New(errs.CredentialProcessing, "revocation registry definition is required for %s", cred.RevRegID)
	}

	if revRegDef.CredDefID != cred.CredDefID {
		return errs.New(errs.CredentialProcessing, "revocation registry belongs to %s, not %s", revRegDef.CredDefID,
			cred.CredDefID)
	}

	if !credDef.SupportsRevocation() {
		return errs.New(errs.CredentialProcessing, "credential definition does not support revocation")
	}

	if err := rcred.Verify(credDef.Value.Revocation, sig.M2.Int()); err != nil {
		return errs.Wrap(errs.CredentialProcessing, err, "invalid non-revocation signature")
	}

	if cred.Witness == nil || cred.RevReg == nil {
		return errs.New(errs.CredentialProcessing, "revocable credential has no witness")
	}

	if !accumulator.VerifyWitness(credDef.Value.Revocation, revRegDef.Value.PublicKeys.AccumKey, *cred.RevReg,
		cred.Witness, rcred.GI) {
		return errs.New(errs.CredentialProcessing, "witness does not match the accumulator")
	}

	return nil
}
