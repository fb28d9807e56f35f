/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package schema holds the anoncreds data model: identifiers, ledger
// objects, exchange messages and their JSON forms.
package schema

import (
	"encoding/json"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
)

// Schema describes the attributes of a class of credentials.
type Schema struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	AttrNames AttributeNames `json:"attrNames"`
	IssuerID  IssuerID       `json:"issuerId"`
}

// Validate checks the schema fields.
func (s *Schema) Validate() error {
	if s.Name == "" || s.Version == "" {
		return errs.New(errs.Validation, "schema name and version are required")
	}

	if err := s.IssuerID.Validate(); err != nil {
		return err
	}

	return s.AttrNames.Validate()
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	type raw Schema

	var r raw
	if err := decode(data, &r, "schema"); err != nil {
		return err
	}

	out := Schema(r)
	if err := out.Validate(); err != nil {
		return err
	}

	*s = out

	return nil
}

// CredentialDefinition is the public signing key for a schema.
type CredentialDefinition struct {
	SchemaID SchemaID                 `json:"schemaId"`
	Type     string                   `json:"type"`
	Tag      string                   `json:"tag"`
	Value    CredentialDefinitionData `json:"value"`
	IssuerID IssuerID                 `json:"issuerId"`
}

// CredentialDefinitionData holds the primary key and the optional
// revocation key.
type CredentialDefinitionData struct {
	Primary    *cl.PublicKey          `json:"primary"`
	Revocation *accumulator.PublicKey `json:"revocation,omitempty"`
}

// CredentialDefinitionPrivate is the issuer's secret key material.
type CredentialDefinitionPrivate struct {
	Value CredentialDefinitionPrivateData `json:"value"`
}

// CredentialDefinitionPrivateData holds the primary and revocation secrets.
type CredentialDefinitionPrivateData struct {
	Primary    *cl.PrivateKey          `json:"p_key"`
	Revocation *accumulator.PrivateKey `json:"r_key,omitempty"`
}

// SupportsRevocation reports whether the definition carries revocation keys.
func (c *CredentialDefinition) SupportsRevocation() bool {
	return c.Value.Revocation != nil
}

// Validate checks ids, type and key presence.
func (c *CredentialDefinition) Validate() error {
	if c.Type != SignatureTypeCL {
		return errs.New(errs.Validation, "unsupported signature type %q", c.Type)
	}

	if err := c.SchemaID.Validate(); err != nil {
		return err
	}

	if err := c.IssuerID.Validate(); err != nil {
		return err
	}

	if err := c.Value.Primary.Validate(); err != nil {
		return errs.Wrap(errs.Validation, err, "invalid credential definition")
	}

	if c.Value.Revocation != nil {
		if err := c.Value.Revocation.Validate(); err != nil {
			return errs.Wrap(errs.Validation, err, "invalid credential definition")
		}
	}

	return nil
}

// ValidateID checks that id is well formed and agrees with the issuer.
func (c *CredentialDefinition) ValidateID(id CredentialDefinitionID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	did, legacy := id.IssuerDID()

	return checkIssuer(did, legacy, c.IssuerID)
}

// ToUnqualified returns a copy with legacy ids unqualified.
func (c *CredentialDefinition) ToUnqualified() *CredentialDefinition {
	out := *c
	out.SchemaID = c.SchemaID.ToUnqualified()
	out.IssuerID = c.IssuerID.ToUnqualified()

	return &out
}

func (c *CredentialDefinition) UnmarshalJSON(data []byte) error {
	type raw CredentialDefinition

	var r raw
	if err := decode(data, &r, "credential definition"); err != nil {
		return err
	}

	out := CredentialDefinition(r)
	if err := out.Validate(); err != nil {
		return err
	}

	*c = out

	return nil
}

func decode(data []byte, v interface{}, what string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrapf(errs.Conversion, err, "invalid %s json", what)
	}

	return nil
}
