/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
)

// Presentation is a prover's answer to a presentation request.
type Presentation struct {
	Proof          *cl.Proof      `json:"proof"`
	RequestedProof RequestedProof `json:"requested_proof"`
	Identifiers    []Identifier   `json:"identifiers"`
}

// RequestedProof maps each referent to its source.
type RequestedProof struct {
	RevealedAttrs      map[string]RevealedAttributeInfo      `json:"revealed_attrs"`
	RevealedAttrGroups map[string]RevealedAttributeGroupInfo `json:"revealed_attr_groups"`
	SelfAttestedAttrs  map[string]string                     `json:"self_attested_attrs"`
	UnrevealedAttrs    map[string]SubProofReferent           `json:"unrevealed_attrs"`
	Predicates         map[string]SubProofReferent           `json:"predicates"`
}

// Identifier names the ledger objects behind a sub-proof.
type Identifier struct {
	SchemaID  SchemaID               `json:"schema_id"`
	CredDefID CredentialDefinitionID `json:"cred_def_id"`
	RevRegID  RevocationRegistryID   `json:"rev_reg_id,omitempty"`
	Timestamp *uint64                `json:"timestamp,omitempty"`
}

// SubProofReferent points a referent at a sub-proof.
type SubProofReferent struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
}

// RevealedAttributeInfo is a revealed attribute with its values.
type RevealedAttributeInfo struct {
	SubProofIndex uint32 `json:"sub_proof_index"`
	Raw           string `json:"raw"`
	Encoded       string `json:"encoded"`
}

// RevealedAttributeGroupInfo is a revealed attribute group.
type RevealedAttributeGroupInfo struct {
	SubProofIndex uint32                    `json:"sub_proof_index"`
	Values        map[string]AttributeValue `json:"values"`
}

// NewRequestedProof returns a requested proof with every map allocated.
func NewRequestedProof() RequestedProof {
	return RequestedProof{
		RevealedAttrs:      map[string]RevealedAttributeInfo{},
		RevealedAttrGroups: map[string]RevealedAttributeGroupInfo{},
		SelfAttestedAttrs:  map[string]string{},
		UnrevealedAttrs:    map[string]SubProofReferent{},
		Predicates:         map[string]SubProofReferent{},
	}
}

// Validate checks that every sub-proof has identifiers and every referent
// points at an existing sub-proof.
func (p *Presentation) Validate() error {
	if p.Proof == nil {
		return errs.New(errs.Validation, "presentation has no proof")
	}

	if len(p.Identifiers) != len(p.Proof.Proofs) {
		return errs.New(errs.Validation, "presentation has %d sub-proofs and %d identifiers",
			len(p.Proof.Proofs), len(p.Identifiers))
	}

	for _, id := range p.Identifiers {
		if err := id.SchemaID.Validate(); err != nil {
			return err
		}

		if err := id.CredDefID.Validate(); err != nil {
			return err
		}

		if id.RevRegID != "" {
			if err := id.RevRegID.Validate(); err != nil {
				return err
			}
		}
	}

	n := uint32(len(p.Identifiers))
	for _, idx := range p.RequestedProof.subProofIndices() {
		if idx >= n {
			return errs.New(errs.Validation, "referent points at sub-proof %d of %d", idx, n)
		}
	}

	return nil
}

func (r *RequestedProof) subProofIndices() []uint32 {
	var out []uint32
	for _, a := range r.RevealedAttrs {
		out = append(out, a.SubProofIndex)
	}

	for _, g := range r.RevealedAttrGroups {
		out = append(out, g.SubProofIndex)
	}

	for _, u := range r.UnrevealedAttrs {
		out = append(out, u.SubProofIndex)
	}

	for _, pr := range r.Predicates {
		out = append(out, pr.SubProofIndex)
	}

	return out
}

func (r *RequestedProof) hasAttribute(referent string) bool {
	if _, ok := r.RevealedAttrs[referent]; ok {
		return true
	}

	if _, ok := r.RevealedAttrGroups[referent]; ok {
		return true
	}

	if _, ok := r.SelfAttestedAttrs[referent]; ok {
		return true
	}

	_, ok := r.UnrevealedAttrs[referent]

	return ok
}

// MatchesRequest checks that the answered referents are exactly those
// requested.
func (r *RequestedProof) MatchesRequest(req *PresentationRequest) error {
	for ref := range req.RequestedAttributes {
		if !r.hasAttribute(ref) {
			return errs.New(errs.Validation, "requested attribute %s is not answered", ref)
		}
	}

	for ref := range req.RequestedPredicates {
		if _, ok := r.Predicates[ref]; !ok {
			return errs.New(errs.Validation, "requested predicate %s is not answered", ref)
		}
	}

	answered := len(r.RevealedAttrs) + len(r.RevealedAttrGroups) + len(r.SelfAttestedAttrs) + len(r.UnrevealedAttrs)
	if answered != len(req.RequestedAttributes) {
		return errs.New(errs.Validation, "presentation answers %d attributes, %d were requested",
			answered, len(req.RequestedAttributes))
	}

	if len(r.Predicates) != len(req.RequestedPredicates) {
		return errs.New(errs.Validation, "presentation answers %d predicates, %d were requested",
			len(r.Predicates), len(req.RequestedPredicates))
	}

	return nil
}

func (p *Presentation) UnmarshalJSON(data []byte) error {
	type raw Presentation

	var v raw
	if err := decode(data, &v, "presentation"); err != nil {
		return err
	}

	out := Presentation(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*p = out

	return nil
}
