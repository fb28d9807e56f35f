/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/verifier")

// DefaultTimestampTolerance is the slack, in seconds, applied to both ends of
// a non-revoked interval.
const DefaultTimestampTolerance = 300

// NonRevokedOverride accepts, per registry, a status list timestamp in place
// of a requested interval start: override[id][from] = ts.
type NonRevokedOverride map[schema.RevocationRegistryID]map[uint64]uint64

// Verifier checks presentations.
type Verifier struct {
	tolerance uint64
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimestampTolerance sets the non-revoked interval tolerance in seconds.
func WithTimestampTolerance(seconds uint64) Option {
	return func(v *Verifier) {
		v.tolerance = seconds
	}
}

// New returns a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{tolerance: DefaultTimestampTolerance}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// GenerateNonce returns a fresh presentation request nonce.
func GenerateNonce() (*cl.BigNumber, error) {
	n, err := cl.NewNonce()
	if err != nil {
		return nil, errs.Wrap(errs.Verification, err, "unable to create nonce")
	}

	return n, nil
}

type subProof struct {
	id       schema.Identifier
	schema   *schema.Schema
	credDef  *schema.CredentialDefinition
	revDef   *schema.RevocationRegistryDefinition
	list     *schema.RevocationStatusList
	revealed map[string]schema.AttributeValue
}

// VerifyPresentation checks pres against req. Any structural or
// cryptographic mismatch yields false. An error is returned only for
// missing inputs: a schema, credential definition, registry definition or
// status list referenced by the presentation.
func (v *Verifier) VerifyPresentation(pres *schema.Presentation, req *schema.PresentationRequest,
	schemas map[schema.SchemaID]*schema.Schema, credDefs map[schema.CredentialDefinitionID]*schema.CredentialDefinition,
	revRegDefs map[schema.RevocationRegistryID]*schema.RevocationRegistryDefinition,
	statusLists []*schema.RevocationStatusList, override NonRevokedOverride) (bool, error) {
	if pres == nil || req == nil {
		return false, errs.New(errs.Verification, "presentation and request are required")
	}

	if err := req.Validate(); err != nil {
		return false, errs.Wrap(errs.Verification, err, "invalid presentation request")
	}

	if err := pres.Validate(); err != nil {
		logger.Debug("presentation rejected", log.WithError(err))
		return false, nil
	}

	rp := &pres.RequestedProof

	if err := rp.MatchesRequest(req); err != nil {
		logger.Debug("presentation rejected", log.WithError(err))
		return false, nil
	}

	subs, err := resolve(pres.Identifiers, schemas, credDefs, revRegDefs, statusLists)
	if err != nil {
		return false, err
	}

	if err := collectRevealed(req, rp, subs); err != nil {
		logger.Debug("presentation rejected", log.WithError(err))
		return false, nil
	}

	if err := v.checkStructure(req, rp, subs, override); err != nil {
		logger.Debug("presentation rejected", log.WithError(err))
		return false, nil
	}

	if len(subs) == 0 {
		return checkSelfAttested(pres.Proof, req.Nonce), nil
	}

	pv := cl.NewProofVerifier()

	for i, sub := range subs {
		subReq, err := subProofRequest(req, rp, uint32(i))
		if err != nil {
			logger.Debug("presentation rejected", logfields.WithSubProofIndex(i), log.WithError(err))
			return false, nil
		}

		if err := checkRevealedValues(pres.Proof.Proofs[i], sub); err != nil {
			logger.Debug("presentation rejected", logfields.WithSubProofIndex(i), log.WithError(err))
			return false, nil
		}

		var nonRevoc *cl.NonRevocationKeys
		if sub.list != nil {
			nonRevoc = &cl.NonRevocationKeys{
				PublicKey:   sub.credDef.Value.Revocation,
				Registry:    sub.revDef.Value.PublicKeys.AccumKey,
				Accumulator: *sub.list.CurrentAccumulator,
			}
		}

		if err := pv.AddSubProofRequest(subReq, sub.credDef.Value.Primary, nonRevoc); err != nil {
			logger.Debug("presentation rejected", logfields.WithSubProofIndex(i), log.WithError(err))
			return false, nil
		}
	}

	ok, err := pv.Verify(pres.Proof, req.Nonce)
	if err != nil {
		return false, errs.Wrap(errs.Verification, err, "unable to verify proof")
	}

	return ok, nil
}

// resolve looks up the ledger objects behind every sub-proof.
func resolve(ids []schema.Identifier, schemas map[schema.SchemaID]*schema.Schema,
	credDefs map[schema.CredentialDefinitionID]*schema.CredentialDefinition,
	revRegDefs map[schema.RevocationRegistryID]*schema.RevocationRegistryDefinition,
	statusLists []*schema.RevocationStatusList) ([]*subProof, error) {
	lists := map[schema.RevocationRegistryID]map[uint64]*schema.RevocationStatusList{}

	for _, l := range statusLists {
		if l == nil || l.Timestamp == nil {
			return nil, errs.New(errs.Verification, "status list without a timestamp")
		}

		if lists[l.RevRegDefID] == nil {
			lists[l.RevRegDefID] = map[uint64]*schema.RevocationStatusList{}
		}

		lists[l.RevRegDefID][*l.Timestamp] = l
	}

	out := make([]*subProof, len(ids))

	for i, id := range ids {
		s, ok := schemas[id.SchemaID]
		if !ok {
			return nil, errs.New(errs.Verification, "schema %s is not provided", id.SchemaID)
		}

		credDef, ok := credDefs[id.CredDefID]
		if !ok {
			return nil, errs.New(errs.Verification, "credential definition %s is not provided", id.CredDefID)
		}

		sub := &subProof{id: id, schema: s, credDef: credDef, revealed: map[string]schema.AttributeValue{}}

		if id.Timestamp != nil && id.RevRegID != "" {
			def, ok := revRegDefs[id.RevRegID]
			if !ok {
				return nil, errs.New(errs.Verification, "revocation registry definition %s is not provided", id.RevRegID)
			}

			list, ok := lists[id.RevRegID][*id.Timestamp]
			if !ok {
				return nil, errs.New(errs.Verification, "status list of %s at %d is not provided", id.RevRegID,
					*id.Timestamp)
			}

			if !credDef.SupportsRevocation() || list.CurrentAccumulator == nil {
				return nil, errs.New(errs.Verification, "credential definition %s does not support revocation",
					id.CredDefID)
			}

			sub.revDef = def
			sub.list = list
		}

		out[i] = sub
	}

	return out, nil
}
