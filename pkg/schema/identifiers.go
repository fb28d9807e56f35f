/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"regexp"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/scoir/anoncreds/pkg/errs"
)

const (
	didQualifier     = "did:sov:"
	schemaQualifier  = "schema:sov:"
	credDefQualifier = "creddef:sov:"
	revRegQualifier  = "revreg:sov:"

	// SignatureTypeCL is the only supported credential definition type.
	SignatureTypeCL = "CL"
	// RegistryTypeCLAccum is the only supported revocation registry type.
	RegistryTypeCLAccum = "CL_ACCUM"
)

const legacyDID = `[1-9A-HJ-NP-Za-km-z]{21,22}`

var (
	uriRe     = regexp.MustCompile(`^[a-zA-Z0-9+\-.]+:.+$`)
	didRe     = regexp.MustCompile(`^(?:did:sov:)?(` + legacyDID + `)$`)
	schemaRe  = regexp.MustCompile(`^(?:schema:sov:)?(?:did:sov:)?(` + legacyDID + `):2:(.+):([0-9.]+)$`)
	credDefRe = regexp.MustCompile(`^(?:creddef:sov:)?(?:did:sov:)?(` + legacyDID + `):3:(CL):(.+):([^:]+)$`)
	revRegRe  = regexp.MustCompile(`^(?:revreg:sov:)?(?:did:sov:)?(` + legacyDID + `):4:(.+):(CL_ACCUM):([^:]+)$`)
	seqNoRe   = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// IssuerID identifies an issuer: a legacy DID or a URI.
type IssuerID string

// SchemaID identifies a schema.
type SchemaID string

// CredentialDefinitionID identifies a credential definition.
type CredentialDefinitionID string

// RevocationRegistryID identifies a revocation registry definition.
type RevocationRegistryID string

func validLegacyDID(did string) bool {
	raw, err := base58.Decode(did)
	return err == nil && len(raw) == 16
}

func isURI(id string) bool {
	return uriRe.MatchString(id)
}

// IsLegacy reports whether the id is an unqualified or sov-qualified DID.
func (id IssuerID) IsLegacy() bool {
	m := didRe.FindStringSubmatch(string(id))
	return m != nil && validLegacyDID(m[1])
}

// ToUnqualified strips the did:sov: prefix of a legacy DID.
func (id IssuerID) ToUnqualified() IssuerID {
	if id.IsLegacy() {
		return IssuerID(strings.TrimPrefix(string(id), didQualifier))
	}

	return id
}

// Validate checks the character structure.
func (id IssuerID) Validate() error {
	if id.IsLegacy() || isURI(string(id)) {
		return nil
	}

	return errs.New(errs.Validation, "invalid issuer id %q", string(id))
}

func (id SchemaID) parts() []string {
	m := schemaRe.FindStringSubmatch(string(id))
	if m == nil || !validLegacyDID(m[1]) {
		return nil
	}

	return m
}

// NewLegacySchemaID builds did:2:name:version.
func NewLegacySchemaID(did IssuerID, name, version string) SchemaID {
	return SchemaID(string(did.ToUnqualified()) + ":2:" + name + ":" + version)
}

// IsLegacy reports whether the id has the did:2:name:version form.
func (id SchemaID) IsLegacy() bool {
	return id.parts() != nil
}

// ToUnqualified removes the sov qualifiers of a legacy id.
func (id SchemaID) ToUnqualified() SchemaID {
	if m := id.parts(); m != nil {
		return SchemaID(m[1] + ":2:" + m[2] + ":" + m[3])
	}

	return id
}

// IssuerDID returns the DID embedded in a legacy id.
func (id SchemaID) IssuerDID() (IssuerID, bool) {
	if m := id.parts(); m != nil {
		return IssuerID(m[1]), true
	}

	return "", false
}

// Validate checks the character structure.
func (id SchemaID) Validate() error {
	if id.IsLegacy() || isURI(string(id)) {
		return nil
	}

	return errs.New(errs.Validation, "invalid schema id %q", string(id))
}

func (id CredentialDefinitionID) parts() []string {
	m := credDefRe.FindStringSubmatch(string(id))
	if m == nil || !validLegacyDID(m[1]) {
		return nil
	}

	if !seqNoRe.MatchString(m[3]) && !SchemaID(m[3]).IsLegacy() {
		return nil
	}

	return m
}

// NewLegacyCredentialDefinitionID builds did:3:CL:<schema ref>:tag.
func NewLegacyCredentialDefinitionID(did IssuerID, schemaRef, tag string) CredentialDefinitionID {
	return CredentialDefinitionID(string(did.ToUnqualified()) + ":3:" + SignatureTypeCL + ":" + schemaRef + ":" + tag)
}

// IsLegacy reports whether the id has the did:3:CL:ref:tag form.
func (id CredentialDefinitionID) IsLegacy() bool {
	return id.parts() != nil
}

// ToUnqualified removes the sov qualifiers, including those of an embedded
// schema id.
func (id CredentialDefinitionID) ToUnqualified() CredentialDefinitionID {
	if m := id.parts(); m != nil {
		ref := m[3]
		if !seqNoRe.MatchString(ref) {
			ref = string(SchemaID(ref).ToUnqualified())
		}

		return CredentialDefinitionID(m[1] + ":3:" + m[2] + ":" + ref + ":" + m[4])
	}

	return id
}

// IssuerDID returns the DID embedded in a legacy id.
func (id CredentialDefinitionID) IssuerDID() (IssuerID, bool) {
	if m := id.parts(); m != nil {
		return IssuerID(m[1]), true
	}

	return "", false
}

// Validate checks the character structure.
func (id CredentialDefinitionID) Validate() error {
	if id.IsLegacy() || isURI(string(id)) {
		return nil
	}

	return errs.New(errs.Validation, "invalid credential definition id %q", string(id))
}

func (id RevocationRegistryID) parts() []string {
	m := revRegRe.FindStringSubmatch(string(id))
	if m == nil || !validLegacyDID(m[1]) || !CredentialDefinitionID(m[2]).IsLegacy() {
		return nil
	}

	return m
}

// NewLegacyRevocationRegistryID builds did:4:<cred def id>:CL_ACCUM:tag.
func NewLegacyRevocationRegistryID(did IssuerID, credDefID CredentialDefinitionID, tag string) RevocationRegistryID {
	return RevocationRegistryID(string(did.ToUnqualified()) + ":4:" + string(credDefID.ToUnqualified()) + ":" +
		RegistryTypeCLAccum + ":" + tag)
}

// IsLegacy reports whether the id has the did:4:creddef:CL_ACCUM:tag form.
func (id RevocationRegistryID) IsLegacy() bool {
	return id.parts() != nil
}

// ToUnqualified removes the sov qualifiers, including those of the embedded
// credential definition id.
func (id RevocationRegistryID) ToUnqualified() RevocationRegistryID {
	if m := id.parts(); m != nil {
		cd := CredentialDefinitionID(m[2]).ToUnqualified()
		return RevocationRegistryID(m[1] + ":4:" + string(cd) + ":" + m[3] + ":" + m[4])
	}

	return id
}

// IssuerDID returns the DID embedded in a legacy id.
func (id RevocationRegistryID) IssuerDID() (IssuerID, bool) {
	if m := id.parts(); m != nil {
		return IssuerID(m[1]), true
	}

	return "", false
}

// Validate checks the character structure.
func (id RevocationRegistryID) Validate() error {
	if id.IsLegacy() || isURI(string(id)) {
		return nil
	}

	return errs.New(errs.Validation, "invalid revocation registry id %q", string(id))
}

// checkIssuer verifies that a legacy entity id embeds issuerID.
func checkIssuer(embedded IssuerID, legacy bool, issuerID IssuerID) error {
	if !legacy {
		return nil
	}

	if embedded.ToUnqualified() != issuerID.ToUnqualified() {
		return errs.New(errs.Validation, "issuer id %q does not match identifier issuer %q", issuerID, embedded)
	}

	return nil
}
