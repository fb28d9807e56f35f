/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/schema"
)

// collectRevealed records the revealed values of every sub-proof by common
// view name. One attribute revealed twice must carry the same value.
func collectRevealed(req *schema.PresentationRequest, rp *schema.RequestedProof, subs []*subProof) error {
	add := func(idx uint32, name string, val schema.AttributeValue) error {
		sub := subs[idx]
		cv := schema.AttrCommonView(name)

		if schema.EncodeValue(val.Raw) != val.Encoded {
			return errors.Errorf("attribute %s raw value does not match its encoding", name)
		}

		if prev, ok := sub.revealed[cv]; ok && prev != val {
			return errors.Errorf("attribute %s is revealed with two values", name)
		}

		sub.revealed[cv] = val

		return nil
	}

	for ref, a := range rp.RevealedAttrs {
		info := req.RequestedAttributes[ref]
		if info.Name == "" {
			return errors.Errorf("attribute group %s is answered as a single attribute", ref)
		}

		if err := add(a.SubProofIndex, info.Name, schema.AttributeValue{Raw: a.Raw, Encoded: a.Encoded}); err != nil {
			return err
		}
	}

	for ref, g := range rp.RevealedAttrGroups {
		info := req.RequestedAttributes[ref]
		if len(info.Names) == 0 {
			return errors.Errorf("attribute %s is answered as a group", ref)
		}

		if len(g.Values) != len(info.Names) {
			return errors.Errorf("attribute group %s reveals %d values, %d were requested", ref, len(g.Values),
				len(info.Names))
		}

		for _, name := range info.Names {
			val, ok := g.Values[name]
			if !ok {
				return errors.Errorf("attribute group %s does not reveal %s", ref, name)
			}

			if err := add(g.SubProofIndex, name, val); err != nil {
				return err
			}
		}
	}

	for ref := range rp.UnrevealedAttrs {
		if len(req.RequestedAttributes[ref].Names) > 0 {
			return errors.Errorf("attribute group %s cannot be unrevealed", ref)
		}
	}

	return nil
}

// checkStructure enforces restrictions and non-revoked intervals.
func (v *Verifier) checkStructure(req *schema.PresentationRequest, rp *schema.RequestedProof, subs []*subProof,
	override NonRevokedOverride) error {
	for ref := range rp.SelfAttestedAttrs {
		if req.RequestedAttributes[ref].Restrictions != nil {
			return errors.Errorf("self attested attribute %s has restrictions", ref)
		}
	}

	attrs := map[string]uint32{}
	for ref, a := range rp.RevealedAttrs {
		attrs[ref] = a.SubProofIndex
	}

	for ref, g := range rp.RevealedAttrGroups {
		attrs[ref] = g.SubProofIndex
	}

	for ref, u := range rp.UnrevealedAttrs {
		attrs[ref] = u.SubProofIndex
	}

	for ref, idx := range attrs {
		info := req.RequestedAttributes[ref]

		err := v.checkReferent(subs[idx], info.Restrictions, req.AttributeInterval(ref), override)
		if err != nil {
			return errors.Wrapf(err, "attribute %s", ref)
		}
	}

	for ref, p := range rp.Predicates {
		info := req.RequestedPredicates[ref]

		err := v.checkReferent(subs[p.SubProofIndex], info.Restrictions, req.PredicateInterval(ref), override)
		if err != nil {
			return errors.Wrapf(err, "predicate %s", ref)
		}
	}

	return nil
}

func (v *Verifier) checkReferent(sub *subProof, restrictions *schema.Query, interval *schema.NonRevokedInterval,
	override NonRevokedOverride) error {
	if restrictions != nil && !restrictions.Match(sub.tags()) {
		return errors.New("restrictions are not satisfied")
	}

	if interval == nil {
		return nil
	}

	if sub.id.RevRegID == "" {
		if sub.credDef.SupportsRevocation() {
			return errors.New("credential is revocable but no registry is referenced")
		}

		return nil
	}

	if sub.id.Timestamp == nil {
		return errors.New("non-revocation proof is required")
	}

	ts := *sub.id.Timestamp
	if interval.Contains(ts, v.tolerance) {
		return nil
	}

	if interval.From != nil {
		if want, ok := override[sub.id.RevRegID][*interval.From]; ok && want == ts {
			return nil
		}
	}

	return errors.Errorf("timestamp %d is outside the non-revoked interval", ts)
}

// tags are the values restrictions are evaluated against. Every schema
// attribute gets a marker, revealed attributes also get their raw value.
func (s *subProof) tags() schema.Tags {
	t := schema.Tags{
		schema.TagSchemaID:        string(s.id.SchemaID),
		schema.TagSchemaIssuerDID: string(s.schema.IssuerID),
		schema.TagSchemaName:      s.schema.Name,
		schema.TagSchemaVersion:   s.schema.Version,
		schema.TagIssuerDID:       string(s.credDef.IssuerID),
		schema.TagCredDefID:       string(s.id.CredDefID),
	}

	if s.id.RevRegID != "" {
		t[schema.TagRevRegID] = string(s.id.RevRegID)
	}

	for _, name := range s.schema.AttrNames {
		t[schema.AttrMarkerTag(name)] = "1"
	}

	for name, val := range s.revealed {
		t[schema.AttrValueTag(name)] = val.Raw
	}

	return t
}

// subProofRequest rebuilds what sub-proof idx must reveal and prove.
// Predicates are ordered by referent.
func subProofRequest(req *schema.PresentationRequest, rp *schema.RequestedProof, idx uint32) (*cl.SubProofRequest,
	error) {
	revealed := map[string]struct{}{}

	for ref, a := range rp.RevealedAttrs {
		if a.SubProofIndex == idx {
			revealed[schema.AttrCommonView(req.RequestedAttributes[ref].Name)] = struct{}{}
		}
	}

	for ref, g := range rp.RevealedAttrGroups {
		if g.SubProofIndex != idx {
			continue
		}

		for _, name := range req.RequestedAttributes[ref].Names {
			revealed[schema.AttrCommonView(name)] = struct{}{}
		}
	}

	out := &cl.SubProofRequest{RevealedAttrs: make([]string, 0, len(revealed))}
	for name := range revealed {
		out.RevealedAttrs = append(out.RevealedAttrs, name)
	}

	sort.Strings(out.RevealedAttrs)

	var refs []string
	for ref, p := range rp.Predicates {
		if p.SubProofIndex == idx {
			refs = append(refs, ref)
		}
	}

	sort.Strings(refs)

	for _, ref := range refs {
		info := req.RequestedPredicates[ref]

		pred, err := info.Predicate()
		if err != nil {
			return nil, err
		}

		out.Predicates = append(out.Predicates, pred)
	}

	return out, nil
}

// checkRevealedValues requires the claimed encodings to be the values the
// equality proof reveals.
func checkRevealedValues(sp *cl.SubProof, sub *subProof) error {
	if sp == nil || sp.PrimaryProof == nil || sp.PrimaryProof.EqProof == nil {
		return errors.New("sub-proof has no equality proof")
	}

	eq := sp.PrimaryProof.EqProof

	for name, val := range sub.revealed {
		got, ok := eq.RevealedAttrs[name]
		if !ok || got == nil {
			return errors.Errorf("attribute %s is not revealed by the proof", name)
		}

		want, err := cl.ParseBigNumber(val.Encoded)
		if err != nil {
			return errors.Wrapf(err, "attribute %s has an invalid encoding", name)
		}

		if !got.Equal(want) {
			return errors.Errorf("attribute %s does not match the proof", name)
		}
	}

	return nil
}

func checkSelfAttested(proof *cl.Proof, nonce *cl.BigNumber) bool {
	if proof == nil || len(proof.Proofs) != 0 || proof.AggregatedProof == nil || proof.AggregatedProof.CHash == nil {
		return false
	}

	return proof.AggregatedProof.CHash.Int().Cmp(cl.Challenge(nil, nil, nonce)) == 0
}
