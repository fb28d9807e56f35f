/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
)

// NonRevokedInterval bounds the accumulator timestamps a verifier accepts.
type NonRevokedInterval struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

// Validate requires from <= to when both are set.
func (n *NonRevokedInterval) Validate() error {
	if n.From != nil && n.To != nil && *n.From > *n.To {
		return errs.New(errs.Validation, "non-revoked interval starts after it ends")
	}

	return nil
}

// Contains reports whether ts lies in the interval widened by tolerance
// seconds on both ends.
func (n *NonRevokedInterval) Contains(ts, tolerance uint64) bool {
	if n.From != nil && ts+tolerance < *n.From {
		return false
	}

	if n.To != nil && ts > *n.To+tolerance {
		return false
	}

	return true
}

// Merge narrows n to the intersection with other.
func (n *NonRevokedInterval) Merge(other *NonRevokedInterval) *NonRevokedInterval {
	out := &NonRevokedInterval{From: n.From, To: n.To}
	if other == nil {
		return out
	}

	if other.From != nil && (out.From == nil || *other.From > *out.From) {
		out.From = other.From
	}

	if other.To != nil && (out.To == nil || *other.To < *out.To) {
		out.To = other.To
	}

	return out
}

// AttributeInfo requests one attribute or a group of attributes from a single
// credential.
type AttributeInfo struct {
	Name         string              `json:"name,omitempty"`
	Names        []string            `json:"names,omitempty"`
	Restrictions *Query              `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

// AttrNames returns the single name or the group.
func (a *AttributeInfo) AttrNames() []string {
	if a.Name != "" {
		return []string{a.Name}
	}

	return a.Names
}

// Validate requires exactly one of name and names.
func (a *AttributeInfo) Validate() error {
	if (a.Name == "") == (len(a.Names) == 0) {
		return errs.New(errs.Validation, "requested attribute needs exactly one of name and names")
	}

	for _, n := range a.Names {
		if n == "" {
			return errs.New(errs.Validation, "requested attribute group has an empty name")
		}
	}

	if a.NonRevoked != nil {
		return a.NonRevoked.Validate()
	}

	return nil
}

// PredicateComparator is the wire form of a predicate type.
type PredicateComparator string

// Comparators.
const (
	ComparatorGE PredicateComparator = ">="
	ComparatorGT PredicateComparator = ">"
	ComparatorLE PredicateComparator = "<="
	ComparatorLT PredicateComparator = "<"
)

var comparators = map[PredicateComparator]cl.PredicateType{
	ComparatorGE: cl.PredicateGE,
	ComparatorGT: cl.PredicateGT,
	ComparatorLE: cl.PredicateLE,
	ComparatorLT: cl.PredicateLT,
}

// PredicateInfo requests a comparison over one attribute.
type PredicateInfo struct {
	Name         string              `json:"name"`
	PType        PredicateComparator `json:"p_type"`
	PValue       int32               `json:"p_value"`
	Restrictions *Query              `json:"restrictions,omitempty"`
	NonRevoked   *NonRevokedInterval `json:"non_revoked,omitempty"`
}

// Predicate converts to the proof form.
func (p *PredicateInfo) Predicate() (cl.Predicate, error) {
	t, ok := comparators[p.PType]
	if !ok {
		return cl.Predicate{}, errs.New(errs.Validation, "unknown predicate type %q", string(p.PType))
	}

	return cl.Predicate{AttrName: AttrCommonView(p.Name), PType: t, Value: p.PValue}, nil
}

// Validate checks the name and comparator.
func (p *PredicateInfo) Validate() error {
	if p.Name == "" {
		return errs.New(errs.Validation, "requested predicate has no name")
	}

	if _, err := p.Predicate(); err != nil {
		return err
	}

	if p.NonRevoked != nil {
		return p.NonRevoked.Validate()
	}

	return nil
}

// PresentationRequest is a verifier's request for a presentation.
type PresentationRequest struct {
	Name                string                   `json:"name"`
	Version             string                   `json:"version"`
	Nonce               *cl.BigNumber            `json:"nonce"`
	RequestedAttributes map[string]AttributeInfo `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates"`
	NonRevoked          *NonRevokedInterval      `json:"non_revoked,omitempty"`
}

// Validate checks the nonce and every referent. Referents must be unique
// across attributes and predicates.
func (r *PresentationRequest) Validate() error {
	if r.Nonce == nil {
		return errs.New(errs.Validation, "presentation request has no nonce")
	}

	if len(r.RequestedAttributes) == 0 && len(r.RequestedPredicates) == 0 {
		return errs.New(errs.Validation, "presentation request asks for nothing")
	}

	for ref, attr := range r.RequestedAttributes {
		if err := attr.Validate(); err != nil {
			return errs.Wrapf(errs.Validation, err, "requested attribute %s", ref)
		}
	}

	for ref, pred := range r.RequestedPredicates {
		if _, ok := r.RequestedAttributes[ref]; ok {
			return errs.New(errs.Validation, "referent %s is used by an attribute and a predicate", ref)
		}

		if err := pred.Validate(); err != nil {
			return errs.Wrapf(errs.Validation, err, "requested predicate %s", ref)
		}
	}

	if r.NonRevoked != nil {
		return r.NonRevoked.Validate()
	}

	return nil
}

// AttributeInterval is the non-revoked interval for an attribute referent,
// falling back to the request level interval.
func (r *PresentationRequest) AttributeInterval(referent string) *NonRevokedInterval {
	if a, ok := r.RequestedAttributes[referent]; ok && a.NonRevoked != nil {
		return a.NonRevoked
	}

	return r.NonRevoked
}

// PredicateInterval is the non-revoked interval for a predicate referent,
// falling back to the request level interval.
func (r *PresentationRequest) PredicateInterval(referent string) *NonRevokedInterval {
	if p, ok := r.RequestedPredicates[referent]; ok && p.NonRevoked != nil {
		return p.NonRevoked
	}

	return r.NonRevoked
}

func (r *PresentationRequest) UnmarshalJSON(data []byte) error {
	type raw PresentationRequest

	var v raw
	if err := decode(data, &v, "presentation request"); err != nil {
		return err
	}

	out := PresentationRequest(v)
	if err := out.Validate(); err != nil {
		return err
	}

	*r = out

	return nil
}
