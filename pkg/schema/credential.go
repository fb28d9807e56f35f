/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
)

// CredentialOffer is the issuer's invitation to request a credential.
type CredentialOffer struct {
	SchemaID            SchemaID                `json:"schema_id"`
	CredDefID           CredentialDefinitionID  `json:"cred_def_id"`
	KeyCorrectnessProof *cl.KeyCorrectnessProof `json:"key_correctness_proof"`
	Nonce               *cl.BigNumber           `json:"nonce"`
	MethodName          string                  `json:"method_name,omitempty"`
}

// Validate checks ids, proof shape and nonce presence.
func (o *CredentialOffer) Validate() error {
	if err := o.SchemaID.Validate(); err != nil {
		return err
	}

	if err := o.CredDefID.Validate(); err != nil {
		return err
	}

	if o.KeyCorrectnessProof == nil {
		return errs.New(errs.Validation, "credential offer has no key correctness proof")
	}

	if err := o.KeyCorrectnessProof.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid key correctness proof")
	}

	if o.Nonce == nil {
		return errs.New(errs.Validation, "credential offer has no nonce")
	}

	return nil
}

func (o *CredentialOffer) UnmarshalJSON(data []byte) error {
	type raw CredentialOffer

	var v raw
	if err := decode(data, &v, "credential offer"); err != nil {
		return err
	}

	out := CredentialOffer(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*o = out

	return nil
}

// CredentialRequest carries the holder's blinded link secret.
type CredentialRequest struct {
	ProverDID                 string                             `json:"prover_did,omitempty"`
	Entropy                   string                             `json:"entropy,omitempty"`
	CredDefID                 CredentialDefinitionID             `json:"cred_def_id"`
	BlindedMS                 *cl.BlindedSecrets                 `json:"blinded_ms"`
	BlindedMSCorrectnessProof *cl.BlindedSecretsCorrectnessProof `json:"blinded_ms_correctness_proof"`
	Nonce                     *cl.BigNumber                      `json:"nonce"`
}

// ProverID returns whichever of prover_did or entropy is set.
func (r *CredentialRequest) ProverID() string {
	if r.ProverDID != "" {
		return r.ProverDID
	}

	return r.Entropy
}

// Validate requires exactly one of prover_did and entropy.
func (r *CredentialRequest) Validate() error {
	if (r.ProverDID == "") == (r.Entropy == "") {
		return errs.New(errs.Validation, "exactly one of prover_did and entropy is required")
	}

	if r.ProverDID != "" && !IssuerID(r.ProverDID).IsLegacy() && !isURI(r.ProverDID) {
		return errs.New(errs.Validation, "invalid prover did %q", r.ProverDID)
	}

	if err := r.CredDefID.Validate(); err != nil {
		return err
	}

	if r.BlindedMS == nil || r.BlindedMSCorrectnessProof == nil {
		return errs.New(errs.Validation, "credential request has no blinded link secret")
	}

	if err := r.BlindedMS.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid blinded link secret")
	}

	if err := r.BlindedMSCorrectnessProof.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid blinded link secret proof")
	}

	if r.Nonce == nil {
		return errs.New(errs.Validation, "credential request has no nonce")
	}

	return nil
}

func (r *CredentialRequest) UnmarshalJSON(data []byte) error {
	type raw CredentialRequest

	var v raw
	if err := decode(data, &v, "credential request"); err != nil {
		return err
	}

	out := CredentialRequest(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*r = out

	return nil
}

// CredentialRequestMetadata is the holder-private opening of a request.
type CredentialRequestMetadata struct {
	LinkSecretBlindingData *cl.BlindingFactors `json:"link_secret_blinding_data"`
	Nonce                  *cl.BigNumber       `json:"nonce"`
	LinkSecretName         string              `json:"link_secret_name"`
}

// Validate checks the opening is complete.
func (m *CredentialRequestMetadata) Validate() error {
	if m.LinkSecretBlindingData == nil {
		return errs.New(errs.Validation, "request metadata has no blinding data")
	}

	if err := m.LinkSecretBlindingData.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid blinding data")
	}

	if m.Nonce == nil {
		return errs.New(errs.Validation, "request metadata has no nonce")
	}

	return nil
}

func (m *CredentialRequestMetadata) UnmarshalJSON(data []byte) error {
	type raw CredentialRequestMetadata

	var v raw
	if err := decode(data, &v, "credential request metadata"); err != nil {
		return err
	}

	out := CredentialRequestMetadata(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*m = out

	return nil
}

// CredentialSignature is the primary signature and the optional
// non-revocation signature.
type CredentialSignature struct {
	PCredential *cl.PrimarySignature                 `json:"p_credential"`
	RCredential *accumulator.NonRevocationCredential `json:"r_credential,omitempty"`
}

// Credential is an issued credential.
type Credential struct {
	SchemaID                  SchemaID                      `json:"schema_id"`
	CredDefID                 CredentialDefinitionID        `json:"cred_def_id"`
	RevRegID                  RevocationRegistryID          `json:"rev_reg_id,omitempty"`
	Values                    CredentialValues              `json:"values"`
	Signature                 CredentialSignature           `json:"signature"`
	SignatureCorrectnessProof *cl.SignatureCorrectnessProof `json:"signature_correctness_proof"`
	RevReg                    *accumulator.PointG2          `json:"rev_reg,omitempty"`
	Witness                   *accumulator.Witness          `json:"witness,omitempty"`
}

// Validate checks ids and that the revocation parts come together.
func (c *Credential) Validate() error {
	if err := c.SchemaID.Validate(); err != nil {
		return err
	}

	if err := c.CredDefID.Validate(); err != nil {
		return err
	}

	if len(c.Values) == 0 {
		return errs.New(errs.Validation, "credential has no values")
	}

	if c.Signature.PCredential == nil {
		return errs.New(errs.Validation, "credential has no primary signature")
	}

	if err := c.Signature.PCredential.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid primary signature")
	}

	if c.SignatureCorrectnessProof == nil {
		return errs.New(errs.Validation, "credential has no signature correctness proof")
	}

	if c.RevRegID != "" {
		if err := c.RevRegID.Validate(); err != nil {
			return err
		}

		if c.Signature.RCredential == nil {
			return errs.New(errs.Validation, "revocable credential has no revocation signature")
		}
	} else if c.Signature.RCredential != nil {
		return errs.New(errs.Validation, "revocation signature without a revocation registry")
	}

	return nil
}

// RevocationIndex returns the registry index of a revocable credential.
func (c *Credential) RevocationIndex() (uint32, bool) {
	if c.Signature.RCredential == nil {
		return 0, false
	}

	return c.Signature.RCredential.I, true
}

// Copy returns a deep enough copy for the holder to replace signature parts
// without touching the original.
func (c *Credential) Copy() *Credential {
	out := *c

	out.Values = make(CredentialValues, len(c.Values))
	for k, v := range c.Values {
		out.Values[k] = v
	}

	if c.Signature.PCredential != nil {
		out.Signature.PCredential = c.Signature.PCredential.Copy()
	}

	if c.Signature.RCredential != nil {
		r := *c.Signature.RCredential
		out.Signature.RCredential = &r
	}

	if c.RevReg != nil {
		acc := *c.RevReg
		out.RevReg = &acc
	}

	if c.Witness != nil {
		w := *c.Witness
		out.Witness = &w
	}

	return &out
}

func (c *Credential) UnmarshalJSON(data []byte) error {
	type raw Credential

	var v raw
	if err := decode(data, &v, "credential"); err != nil {
		return err
	}

	out := Credential(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*c = out

	return nil
}
