/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"encoding/json"

	"github.com/mr-tron/base58"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/errs"
)

// IssuanceType selects the initial state of a registry.
type IssuanceType string

// Issuance types.
const (
	IssuanceByDefault IssuanceType = "ISSUANCE_BY_DEFAULT"
	IssuanceOnDemand  IssuanceType = "ISSUANCE_ON_DEMAND"
)

// Validate checks the issuance type is known.
func (t IssuanceType) Validate() error {
	if t != IssuanceByDefault && t != IssuanceOnDemand {
		return errs.New(errs.Validation, "unknown issuance type %q", string(t))
	}

	return nil
}

// RevocationRegistryDefinition describes an accumulator registry for a
// credential definition.
type RevocationRegistryDefinition struct {
	IssuerID     IssuerID                          `json:"issuerId"`
	RevocDefType string                            `json:"revocDefType"`
	Tag          string                            `json:"tag"`
	CredDefID    CredentialDefinitionID            `json:"credDefId"`
	Value        RevocationRegistryDefinitionValue `json:"value"`
}

// RevocationRegistryDefinitionValue holds the registry parameters.
type RevocationRegistryDefinitionValue struct {
	IssuanceType  IssuanceType                           `json:"issuanceType"`
	MaxCredNum    uint32                                 `json:"maxCredNum"`
	PublicKeys    RevocationRegistryDefinitionPublicKeys `json:"publicKeys"`
	TailsHash     string                                 `json:"tailsHash"`
	TailsLocation string                                 `json:"tailsLocation"`
}

// RevocationRegistryDefinitionPublicKeys wraps the accumulator key.
type RevocationRegistryDefinitionPublicKeys struct {
	AccumKey *accumulator.RegistryPublicKey `json:"accumKey"`
}

// RevocationRegistryDefinitionPrivate holds the registry secret.
type RevocationRegistryDefinitionPrivate struct {
	Value *accumulator.RegistryPrivateKey `json:"value"`
}

// Validate checks ids, type, size and the tails hash encoding.
func (r *RevocationRegistryDefinition) Validate() error {
	if r.RevocDefType != RegistryTypeCLAccum {
		return errs.New(errs.Validation, "unsupported revocation registry type %q", r.RevocDefType)
	}

	if err := r.IssuerID.Validate(); err != nil {
		return err
	}

	if err := r.CredDefID.Validate(); err != nil {
		return err
	}

	if did, legacy := r.CredDefID.IssuerDID(); legacy {
		if err := checkIssuer(did, legacy, r.IssuerID); err != nil {
			return err
		}
	}

	if err := r.Value.IssuanceType.Validate(); err != nil {
		return err
	}

	if r.Value.MaxCredNum == 0 {
		return errs.New(errs.Validation, "max_cred_num must be positive")
	}

	if r.Value.PublicKeys.AccumKey == nil {
		return errs.New(errs.Validation, "revocation registry has no accumulator key")
	}

	if _, err := base58.Decode(r.Value.TailsHash); err != nil || r.Value.TailsHash == "" {
		return errs.New(errs.Validation, "tails hash is not base58")
	}

	return nil
}

// ValidateID checks that id is well formed and agrees with the definition.
func (r *RevocationRegistryDefinition) ValidateID(id RevocationRegistryID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	did, legacy := id.IssuerDID()

	return checkIssuer(did, legacy, r.IssuerID)
}

// ToUnqualified returns a copy with legacy ids unqualified.
func (r *RevocationRegistryDefinition) ToUnqualified() *RevocationRegistryDefinition {
	out := *r
	out.IssuerID = r.IssuerID.ToUnqualified()
	out.CredDefID = r.CredDefID.ToUnqualified()

	return &out
}

func (r *RevocationRegistryDefinition) UnmarshalJSON(data []byte) error {
	type raw RevocationRegistryDefinition

	var v raw
	if err := decode(data, &v, "revocation registry definition"); err != nil {
		return err
	}

	out := RevocationRegistryDefinition(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*r = out

	return nil
}

// RevocationList is the per-index revocation state, serialized as 0/1
// integers where 1 means revoked.
type RevocationList []bool

func (l RevocationList) MarshalJSON() ([]byte, error) {
	out := make([]int, len(l))
	for i, revoked := range l {
		if revoked {
			out[i] = 1
		}
	}

	return json.Marshal(out)
}

func (l *RevocationList) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.Conversion, err, "revocation list must be an array of 0 and 1")
	}

	out := make(RevocationList, len(raw))
	for i, v := range raw {
		switch v {
		case 0:
		case 1:
			out[i] = true
		default:
			return errs.New(errs.Conversion, "revocation list entry %d is %d", i, v)
		}
	}

	*l = out

	return nil
}

// RevocationStatusList is a timestamped snapshot of a registry.
type RevocationStatusList struct {
	RevRegDefID        RevocationRegistryID `json:"revRegDefId"`
	IssuerID           IssuerID             `json:"issuerId"`
	RevocationList     RevocationList       `json:"revocationList"`
	CurrentAccumulator *accumulator.PointG2 `json:"currentAccumulator,omitempty"`
	Timestamp          *uint64              `json:"timestamp,omitempty"`
}

// Validate checks the ids.
func (s *RevocationStatusList) Validate() error {
	if err := s.RevRegDefID.Validate(); err != nil {
		return err
	}

	if err := s.IssuerID.Validate(); err != nil {
		return err
	}

	did, legacy := s.RevRegDefID.IssuerDID()

	return checkIssuer(did, legacy, s.IssuerID)
}

// IsRevoked reports the state of index idx (1 based); unknown indices are
// treated as revoked.
func (s *RevocationStatusList) IsRevoked(idx uint32) bool {
	if idx == 0 || int(idx) > len(s.RevocationList) {
		return true
	}

	return s.RevocationList[idx-1]
}

// Issued returns the 1 based indices that are not revoked.
func (s *RevocationStatusList) Issued() []uint32 {
	var out []uint32
	for i, revoked := range s.RevocationList {
		if !revoked {
			out = append(out, uint32(i+1))
		}
	}

	return out
}

// Copy returns a deep copy.
func (s *RevocationStatusList) Copy() *RevocationStatusList {
	out := *s
	out.RevocationList = append(RevocationList(nil), s.RevocationList...)

	if s.CurrentAccumulator != nil {
		acc := *s.CurrentAccumulator
		out.CurrentAccumulator = &acc
	}

	if s.Timestamp != nil {
		ts := *s.Timestamp
		out.Timestamp = &ts
	}

	return &out
}

func (s *RevocationStatusList) UnmarshalJSON(data []byte) error {
	type raw RevocationStatusList

	var v raw
	if err := decode(data, &v, "revocation status list"); err != nil {
		return err
	}

	out := RevocationStatusList(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*s = out

	return nil
}

// RevocationState is the holder's witness for a credential at a timestamp.
type RevocationState struct {
	Witness   *accumulator.Witness `json:"witness"`
	RevReg    accumulator.PointG2  `json:"rev_reg"`
	Timestamp uint64               `json:"timestamp"`
}

// Validate checks a witness is present.
func (s *RevocationState) Validate() error {
	if s.Witness == nil {
		return errs.New(errs.Validation, "revocation state has no witness")
	}

	return nil
}
