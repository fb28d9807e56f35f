/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"sort"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/schema"
)

// PresentCredentials collects the credentials used in a presentation and
// the referents each of them answers.
type PresentCredentials struct {
	creds []*presentCredential
}

type presentCredential struct {
	cred      *schema.Credential
	timestamp *uint64
	revState  *schema.RevocationState
	attrs     map[string]bool
	preds     map[string]struct{}
}

// AddCredential adds cred and returns its index. A revocation state makes
// the credential prove non-revocation at timestamp, or at the state's own
// timestamp when timestamp is nil.
func (p *PresentCredentials) AddCredential(cred *schema.Credential, timestamp *uint64,
	revState *schema.RevocationState) int {
	p.creds = append(p.creds, &presentCredential{
		cred:      cred,
		timestamp: timestamp,
		revState:  revState,
		attrs:     map[string]bool{},
		preds:     map[string]struct{}{},
	})

	return len(p.creds) - 1
}

// AddRequestedAttribute answers the attribute referent from the credential
// at idx.
func (p *PresentCredentials) AddRequestedAttribute(idx int, referent string, revealed bool) error {
	c, err := p.at(idx)
	if err != nil {
		return err
	}

	c.attrs[referent] = revealed

	return nil
}

// AddRequestedPredicate answers the predicate referent from the credential
// at idx.
func (p *PresentCredentials) AddRequestedPredicate(idx int, referent string) error {
	c, err := p.at(idx)
	if err != nil {
		return err
	}

	c.preds[referent] = struct{}{}

	return nil
}

func (p *PresentCredentials) at(idx int) (*presentCredential, error) {
	if idx < 0 || idx >= len(p.creds) {
		return nil, errs.New(errs.PresentationCreation, "no credential at index %d", idx)
	}

	return p.creds[idx], nil
}

// CreatePresentation proves the referents of req from the added credentials
// and selfAttested values. Every sub-proof shares one challenge bound to the
// request nonce.
func CreatePresentation(req *schema.PresentationRequest, creds *PresentCredentials, selfAttested map[string]string,
	linkSecret *cl.BigNumber, schemas map[schema.SchemaID]*schema.Schema,
	credDefs map[schema.CredentialDefinitionID]*schema.CredentialDefinition) (*schema.Presentation, error) {
	if req == nil || linkSecret == nil {
		return nil, errs.New(errs.PresentationCreation, "presentation request and link secret are required")
	}

	if err := req.Validate(); err != nil {
		return nil, errs.Wrap(errs.PresentationCreation, err, "invalid presentation request")
	}

	if creds == nil {
		creds = &PresentCredentials{}
	}

	if err := checkReferents(req, creds, selfAttested); err != nil {
		return nil, err
	}

	rp := schema.NewRequestedProof()
	for ref, v := range selfAttested {
		rp.SelfAttestedAttrs[ref] = v
	}

	pres := &schema.Presentation{RequestedProof: rp, Identifiers: []schema.Identifier{}}

	builder, err := cl.NewProofBuilder()
	if err != nil {
		return nil, errs.Wrap(errs.PresentationCreation, err, "unable to start proof")
	}

	for _, pc := range creds.creds {
		if len(pc.attrs) == 0 && len(pc.preds) == 0 {
			continue
		}

		subIdx := uint32(len(pres.Identifiers))

		id, err := addSubProof(builder, req, pc, subIdx, &pres.RequestedProof, linkSecret, schemas, credDefs)
		if err != nil {
			return nil, err
		}

		pres.Identifiers = append(pres.Identifiers, *id)
	}

	if len(pres.Identifiers) == 0 {
		pres.Proof = selfAttestedProof(req.Nonce)
		return pres, nil
	}

	pres.Proof, err = builder.Finalize(req.Nonce)
	if err != nil {
		return nil, errs.Wrap(errs.PresentationCreation, err, "unable to finalize proof")
	}

	logger.Debug("presentation created", logfields.WithSubProofIndex(len(pres.Identifiers)))

	return pres, nil
}

// checkReferents requires every requested referent to be answered exactly
// once and nothing else to be answered.
func checkReferents(req *schema.PresentationRequest, creds *PresentCredentials, selfAttested map[string]string) error {
	attrs := map[string]int{}
	preds := map[string]int{}

	for ref := range selfAttested {
		attrs[ref]++
	}

	for _, pc := range creds.creds {
		for ref := range pc.attrs {
			attrs[ref]++
		}

		for ref := range pc.preds {
			preds[ref]++
		}
	}

	for ref, n := range attrs {
		if _, ok := req.RequestedAttributes[ref]; !ok {
			return errs.New(errs.PresentationCreation, "attribute referent %s was not requested", ref)
		}

		if n > 1 {
			return errs.New(errs.PresentationCreation, "attribute referent %s is answered %d times", ref, n)
		}
	}

	for ref, n := range preds {
		if _, ok := req.RequestedPredicates[ref]; !ok {
			return errs.New(errs.PresentationCreation, "predicate referent %s was not requested", ref)
		}

		if n > 1 {
			return errs.New(errs.PresentationCreation, "predicate referent %s is answered %d times", ref, n)
		}
	}

	for ref := range req.RequestedAttributes {
		if attrs[ref] == 0 {
			return errs.New(errs.PresentationCreation, "requested attribute %s is not answered", ref)
		}
	}

	for ref := range req.RequestedPredicates {
		if preds[ref] == 0 {
			return errs.New(errs.PresentationCreation, "requested predicate %s is not answered", ref)
		}
	}

	return nil
}

func addSubProof(builder *cl.ProofBuilder, req *schema.PresentationRequest, pc *presentCredential, subIdx uint32,
	rp *schema.RequestedProof, linkSecret *cl.BigNumber, schemas map[schema.SchemaID]*schema.Schema,
	credDefs map[schema.CredentialDefinitionID]*schema.CredentialDefinition) (*schema.Identifier, error) {
	cred := pc.cred
	if cred == nil {
		return nil, errs.New(errs.PresentationCreation, "credential is missing")
	}

	s, ok := schemas[cred.SchemaID]
	if !ok {
		return nil, errs.New(errs.PresentationCreation, "schema %s is not provided", cred.SchemaID)
	}

	credDef, ok := credDefs[cred.CredDefID]
	if !ok {
		return nil, errs.New(errs.PresentationCreation, "credential definition %s is not provided", cred.CredDefID)
	}

	if err := cred.Values.CheckSchema(s.AttrNames); err != nil {
		return nil, errs.Wrap(errs.PresentationCreation, err, "credential does not match its schema")
	}

	values, err := cred.Values.Encoded()
	if err != nil {
		return nil, errs.Wrap(errs.PresentationCreation, err, "invalid credential values")
	}

	values[cl.LinkSecretAttr] = linkSecret.Int()

	subReq, err := subProofRequest(req, pc, subIdx, rp)
	if err != nil {
		return nil, err
	}

	id := &schema.Identifier{SchemaID: cred.SchemaID, CredDefID: cred.CredDefID, RevRegID: cred.RevRegID}

	var nonRevoc *cl.NonRevocationInput

	if pc.revState != nil {
		if cred.Signature.RCredential == nil || !credDef.SupportsRevocation() {
			return nil, errs.New(errs.PresentationCreation, "revocation state given for a credential that is not revocable")
		}

		if err := pc.revState.Validate(); err != nil {
			return nil, errs.Wrap(errs.PresentationCreation, err, "invalid revocation state")
		}

		nonRevoc = &cl.NonRevocationInput{
			PublicKey:   credDef.Value.Revocation,
			Accumulator: pc.revState.RevReg,
			Credential:  cred.Signature.RCredential,
			Witness:     pc.revState.Witness,
		}

		ts := pc.revState.Timestamp
		if pc.timestamp != nil {
			ts = *pc.timestamp
		}

		id.Timestamp = &ts
	}

	err = builder.AddSubProofRequest(subReq, credDef.Value.Primary, cred.Signature.PCredential, values, nonRevoc)
	if err != nil {
		return nil, errs.Wrapf(errs.PresentationCreation, err, "unable to prove credential %d", subIdx)
	}

	return id, nil
}

// subProofRequest lists what the credential reveals and proves and records
// the referents in rp. Predicates are ordered by referent.
func subProofRequest(req *schema.PresentationRequest, pc *presentCredential, subIdx uint32,
	rp *schema.RequestedProof) (*cl.SubProofRequest, error) {
	cred := pc.cred
	revealed := map[string]struct{}{}

	for ref, reveal := range pc.attrs {
		info := req.RequestedAttributes[ref]

		if !reveal {
			if len(info.Names) > 0 {
				return nil, errs.New(errs.PresentationCreation, "attribute group %s must be revealed", ref)
			}

			if _, ok := cred.Values.Get(info.Name); !ok {
				return nil, errs.New(errs.PresentationCreation, "credential has no attribute %s", info.Name)
			}

			rp.UnrevealedAttrs[ref] = schema.SubProofReferent{SubProofIndex: subIdx}

			continue
		}

		group := map[string]schema.AttributeValue{}

		for _, name := range info.AttrNames() {
			val, ok := cred.Values.Get(name)
			if !ok {
				return nil, errs.New(errs.PresentationCreation, "credential has no attribute %s", name)
			}

			revealed[schema.AttrCommonView(name)] = struct{}{}
			group[name] = val
		}

		if info.Name != "" {
			val := group[info.Name]
			rp.RevealedAttrs[ref] = schema.RevealedAttributeInfo{SubProofIndex: subIdx, Raw: val.Raw, Encoded: val.Encoded}
		} else {
			rp.RevealedAttrGroups[ref] = schema.RevealedAttributeGroupInfo{SubProofIndex: subIdx, Values: group}
		}
	}

	out := &cl.SubProofRequest{RevealedAttrs: make([]string, 0, len(revealed))}
	for name := range revealed {
		out.RevealedAttrs = append(out.RevealedAttrs, name)
	}

	sort.Strings(out.RevealedAttrs)

	refs := make([]string, 0, len(pc.preds))
	for ref := range pc.preds {
		refs = append(refs, ref)
	}

	sort.Strings(refs)

	for _, ref := range refs {
		info := req.RequestedPredicates[ref]

		pred, err := info.Predicate()
		if err != nil {
			return nil, errs.Wrap(errs.PresentationCreation, err, "invalid predicate")
		}

		if _, ok := cred.Values.Get(info.Name); !ok {
			return nil, errs.New(errs.PresentationCreation, "credential has no attribute %s", info.Name)
		}

		out.Predicates = append(out.Predicates, pred)
		rp.Predicates[ref] = schema.SubProofReferent{SubProofIndex: subIdx}
	}

	return out, nil
}

// selfAttestedProof is the proof of a presentation without credentials: no
// sub-proofs and a challenge over the nonce alone.
func selfAttestedProof(nonce *cl.BigNumber) *cl.Proof {
	return &cl.Proof{
		Proofs: []*cl.SubProof{},
		AggregatedProof: &cl.AggregatedProof{
			CHash: cl.NewBigNumber(cl.Challenge(nil, nil, nonce)),
			CList: [][]byte{},
		},
	}
}
