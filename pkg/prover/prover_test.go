/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/prover"
	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/schema"
	"github.com/scoir/anoncreds/pkg/tails/file"
)

const issuerDID = schema.IssuerID("NcYxiDXkpYi6ov5FcYDi1e")

var (
	schemaID  = schema.NewLegacySchemaID(issuerDID, "employee", "2.0")
	credDefID = schema.NewLegacyCredentialDefinitionID(issuerDID, "7", "default")
	revRegID  = schema.NewLegacyRevocationRegistryID(issuerDID, credDefID, "default")
)

type wallet struct {
	iss        *issuer.Issuer
	mgr        *revocation.Manager
	schema     *schema.Schema
	credDef    *schema.CredentialDefinition
	priv       *schema.CredentialDefinitionPrivate
	kcp        *cl.KeyCorrectnessProof
	linkSecret *cl.BigNumber
	revDef     *schema.RevocationRegistryDefinition
	revPriv    *schema.RevocationRegistryDefinitionPrivate
	tails      accumulator.Tails
}

func newWallet(t *testing.T, revocable bool) *wallet {
	ctx := context.Background()
	mgr := revocation.NewManager()
	iss := issuer.New(issuer.WithKeyOptions(cl.WithPrimeBits(cl.MinPrimeBits*2)), issuer.WithRegistryManager(mgr))

	s, err := iss.CreateSchema("employee", "2.0", issuerDID, []string{"name", "role", "level"})
	require.NoError(t, err)

	w := &wallet{iss: iss, mgr: mgr, schema: s}

	w.credDef, w.priv, w.kcp, err = iss.CreateCredentialDefinition(schemaID, s, issuerDID, "default",
		schema.SignatureTypeCL, issuer.CredentialDefinitionConfig{SupportRevocation: revocable})
	require.NoError(t, err)

	w.linkSecret, err = prover.CreateLinkSecret()
	require.NoError(t, err)

	if !revocable {
		return w
	}

	store, err := file.NewStore(t.TempDir(), "")
	require.NoError(t, err)

	var tails accumulator.MemoryTails

	w.revDef, w.revPriv, tails, err = iss.CreateRevocationRegistryDef(ctx, w.credDef, credDefID, "default", 4,
		schema.IssuanceByDefault, store)
	require.NoError(t, err)

	w.tails = tails

	_, err = mgr.Register(ctx, revRegID, w.revDef, tails)
	require.NoError(t, err)

	return w
}

func employee(level int) schema.CredentialValues {
	return schema.NewCredentialValues().
		AddRaw("name", "Ada").
		AddRaw("role", "engineer").
		AddRaw("level", level).
		Values()
}

// issueRaw returns the credential as sent by the issuer.
func (w *wallet) issueRaw(t *testing.T) (*schema.Credential, *schema.CredentialRequestMetadata) {
	offer, err := w.iss.CreateCredentialOffer(schemaID, credDefID, w.kcp)
	require.NoError(t, err)

	req, meta, err := prover.CreateCredentialRequest("", string(issuerDID), w.credDef, w.linkSecret, "default", offer)
	require.NoError(t, err)

	var rev *issuer.RevocationConfig
	if w.revDef != nil {
		rev = &issuer.RevocationConfig{RegistryID: revRegID, Private: w.revPriv}
	}

	cred, err := w.iss.CreateCredential(context.Background(), w.credDef, w.priv, offer, req, employee(3), rev)
	require.NoError(t, err)

	return cred, meta
}

func (w *wallet) issue(t *testing.T) *schema.Credential {
	raw, meta := w.issueRaw(t)

	cred, err := prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, w.revDef)
	require.NoError(t, err)

	return cred
}

func (w *wallet) presentationRequest(t *testing.T) *schema.PresentationRequest {
	nonce, err := cl.NewNonce()
	require.NoError(t, err)

	return &schema.PresentationRequest{
		Name:    "employment",
		Version: "1.0",
		Nonce:   nonce,
		RequestedAttributes: map[string]schema.AttributeInfo{
			"attr1_referent": {Name: "name"},
			"attr2_referent": {Names: []string{"role", "level"}},
			"attr3_referent": {Name: "nickname"},
		},
		RequestedPredicates: map[string]schema.PredicateInfo{
			"predicate1_referent": {Name: "level", PType: schema.ComparatorGE, PValue: 2},
		},
	}
}

func TestCreateCredentialRequest(t *testing.T) {
	w := newWallet(t, false)

	offer, err := w.iss.CreateCredentialOffer(schemaID, credDefID, w.kcp)
	require.NoError(t, err)

	t.Run("entropy", func(t *testing.T) {
		req, meta, err := prover.CreateCredentialRequest("entropy", "", w.credDef, w.linkSecret, "default", offer)
		require.NoError(t, err)
		require.Equal(t, "entropy", req.ProverID())
		require.Equal(t, credDefID, req.CredDefID)
		require.True(t, meta.Nonce.Equal(req.Nonce))
		require.False(t, req.Nonce.Equal(offer.Nonce))
		require.Equal(t, "default", meta.LinkSecretName)
	})

	t.Run("prover did", func(t *testing.T) {
		req, _, err := prover.CreateCredentialRequest("", string(issuerDID), w.credDef, w.linkSecret, "default", offer)
		require.NoError(t, err)
		require.Equal(t, string(issuerDID), req.ProverID())
	})

	tests := []struct {
		name      string
		entropy   string
		proverDID string
	}{
		{name: "neither"},
		{name: "both", entropy: "entropy", proverDID: string(issuerDID)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := prover.CreateCredentialRequest(tc.entropy, tc.proverDID, w.credDef, w.linkSecret, "default",
				offer)
			require.Error(t, err)
			require.True(t, errs.Is(err, errs.Validation))
		})
	}

	t.Run("key correctness proof of another key", func(t *testing.T) {
		other := newWallet(t, false)

		bad := *offer
		bad.KeyCorrectnessProof = other.kcp

		_, _, err := prover.CreateCredentialRequest("entropy", "", w.credDef, w.linkSecret, "default", &bad)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.Validation))
	})
}

func TestProcessCredential(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		w := newWallet(t, false)
		raw, meta := w.issueRaw(t)
		v := cl.NewBigNumber(raw.Signature.PCredential.V.Int())

		cred, err := prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, nil)
		require.NoError(t, err)
		require.False(t, cred.Signature.PCredential.V.Equal(v))
		require.True(t, raw.Signature.PCredential.V.Equal(v))
	})

	t.Run("tampered value", func(t *testing.T) {
		w := newWallet(t, false)
		raw, meta := w.issueRaw(t)
		raw.Values["level"] = schema.AttributeValue{Raw: "9", Encoded: "9"}

		_, err := prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, nil)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.CredentialProcessing))
	})

	t.Run("other link secret", func(t *testing.T) {
		w := newWallet(t, false)
		raw, meta := w.issueRaw(t)

		other, err := prover.CreateLinkSecret()
		require.NoError(t, err)

		_, err = prover.ProcessCredential(raw, meta, other, w.credDef, nil)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.CredentialProcessing))
	})

	t.Run("revocable", func(t *testing.T) {
		w := newWallet(t, true)
		raw, meta := w.issueRaw(t)

		cred, err := prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, w.revDef)
		require.NoError(t, err)
		require.Equal(t, revRegID, cred.RevRegID)

		_, err = prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, nil)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.CredentialProcessing))
	})

	t.Run("witness of another index", func(t *testing.T) {
		w := newWallet(t, true)
		first, _ := w.issueRaw(t)
		raw, meta := w.issueRaw(t)
		raw.Witness = first.Witness

		_, err := prover.ProcessCredential(raw, meta, w.linkSecret, w.credDef, w.revDef)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.CredentialProcessing))
	})
}

func TestCreatePresentation(t *testing.T) {
	w := newWallet(t, false)
	cred := w.issue(t)
	schemas := map[schema.SchemaID]*schema.Schema{schemaID: w.schema}
	credDefs := map[schema.CredentialDefinitionID]*schema.CredentialDefinition{credDefID: w.credDef}
	selfAttested := map[string]string{"attr3_referent": "ada"}

	answer := func(t *testing.T) *prover.PresentCredentials {
		creds := &prover.PresentCredentials{}
		idx := creds.AddCredential(cred, nil, nil)
		require.NoError(t, creds.AddRequestedAttribute(idx, "attr1_referent", true))
		require.NoError(t, creds.AddRequestedAttribute(idx, "attr2_referent", true))
		require.NoError(t, creds.AddRequestedPredicate(idx, "predicate1_referent"))

		return creds
	}

	t.Run("success", func(t *testing.T) {
		req := w.presentationRequest(t)

		pres, err := prover.CreatePresentation(req, answer(t), selfAttested, w.linkSecret, schemas, credDefs)
		require.NoError(t, err)
		require.Len(t, pres.Identifiers, 1)
		require.Nil(t, pres.Identifiers[0].Timestamp)
		require.Len(t, pres.Proof.Proofs, 1)
		require.Equal(t, "Ada", pres.RequestedProof.RevealedAttrs["attr1_referent"].Raw)
		require.Equal(t, "engineer", pres.RequestedProof.RevealedAttrGroups["attr2_referent"].Values["role"].Raw)
		require.Equal(t, "ada", pres.RequestedProof.SelfAttestedAttrs["attr3_referent"])
		require.Contains(t, pres.RequestedProof.Predicates, "predicate1_referent")
	})

	t.Run("unused credential", func(t *testing.T) {
		req := w.presentationRequest(t)
		creds := answer(t)
		creds.AddCredential(cred, nil, nil)

		pres, err := prover.CreatePresentation(req, creds, selfAttested, w.linkSecret, schemas, credDefs)
		require.NoError(t, err)
		require.Len(t, pres.Identifiers, 1)
	})

	t.Run("bad index", func(t *testing.T) {
		creds := &prover.PresentCredentials{}

		err := creds.AddRequestedAttribute(0, "attr1_referent", true)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.PresentationCreation))

		err = creds.AddRequestedPredicate(-1, "predicate1_referent")
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.PresentationCreation))
	})

	tests := []struct {
		name         string
		creds        func(t *testing.T) *prover.PresentCredentials
		selfAttested map[string]string
		schemas      map[schema.SchemaID]*schema.Schema
		credDefs     map[schema.CredentialDefinitionID]*schema.CredentialDefinition
		err          string
	}{
		{
			name:         "unanswered attribute",
			creds:        answer,
			selfAttested: map[string]string{},
			err:          "attr3_referent is not answered",
		},
		{
			name:         "attribute answered twice",
			creds:        answer,
			selfAttested: map[string]string{"attr3_referent": "ada", "attr1_referent": "ada"},
			err:          "attr1_referent is answered 2 times",
		},
		{
			name:         "unknown referent",
			creds:        answer,
			selfAttested: map[string]string{"attr3_referent": "ada", "attr9_referent": "x"},
			err:          "attr9_referent was not requested",
		},
		{
			name: "unanswered predicate",
			creds: func(t *testing.T) *prover.PresentCredentials {
				creds := &prover.PresentCredentials{}
				idx := creds.AddCredential(cred, nil, nil)
				require.NoError(t, creds.AddRequestedAttribute(idx, "attr1_referent", true))
				require.NoError(t, creds.AddRequestedAttribute(idx, "attr2_referent", true))

				return creds
			},
			selfAttested: selfAttested,
			err:          "predicate1_referent is not answered",
		},
		{
			name: "unrevealed group",
			creds: func(t *testing.T) *prover.PresentCredentials {
				creds := &prover.PresentCredentials{}
				idx := creds.AddCredential(cred, nil, nil)
				require.NoError(t, creds.AddRequestedAttribute(idx, "attr1_referent", true))
				require.NoError(t, creds.AddRequestedAttribute(idx, "attr2_referent", false))
				require.NoError(t, creds.AddRequestedPredicate(idx, "predicate1_referent"))

				return creds
			},
			selfAttested: selfAttested,
			err:          "must be revealed",
		},
		{
			name:         "missing schema",
			creds:        answer,
			selfAttested: selfAttested,
			schemas:      map[schema.SchemaID]*schema.Schema{},
			err:          "schema",
		},
		{
			name:         "missing credential definition",
			creds:        answer,
			selfAttested: selfAttested,
			credDefs:     map[schema.CredentialDefinitionID]*schema.CredentialDefinition{},
			err:          "credential definition",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, c := schemas, credDefs
			if tc.schemas != nil {
				s = tc.schemas
			}

			if tc.credDefs != nil {
				c = tc.credDefs
			}

			_, err := prover.CreatePresentation(w.presentationRequest(t), tc.creds(t), tc.selfAttested, w.linkSecret,
				s, c)
			require.Error(t, err)
			require.True(t, errs.Is(err, errs.PresentationCreation))
			require.Contains(t, err.Error(), tc.err)
		})
	}

	t.Run("predicate not satisfied", func(t *testing.T) {
		req := w.presentationRequest(t)
		req.RequestedPredicates["predicate1_referent"] = schema.PredicateInfo{
			Name: "level", PType: schema.ComparatorGE, PValue: 4,
		}

		_, err := prover.CreatePresentation(req, answer(t), selfAttested, w.linkSecret, schemas, credDefs)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.PresentationCreation))
	})

	t.Run("revocation state for a credential that is not revocable", func(t *testing.T) {
		req := w.presentationRequest(t)
		creds := &prover.PresentCredentials{}
		idx := creds.AddCredential(cred, nil, &schema.RevocationState{Witness: &accumulator.Witness{}})
		require.NoError(t, creds.AddRequestedAttribute(idx, "attr1_referent", true))
		require.NoError(t, creds.AddRequestedAttribute(idx, "attr2_referent", true))
		require.NoError(t, creds.AddRequestedPredicate(idx, "predicate1_referent"))

		_, err := prover.CreatePresentation(req, creds, selfAttested, w.linkSecret, schemas, credDefs)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.PresentationCreation))
	})
}

func TestCreatePresentation_Revocable(t *testing.T) {
	w := newWallet(t, true)
	cred := w.issue(t)

	list, err := w.mgr.Snapshot(revRegID)
	require.NoError(t, err)

	idx, ok := cred.RevocationIndex()
	require.True(t, ok)

	state, err := prover.CreateOrUpdateRevocationState(w.revDef, list, idx, w.tails, nil, nil)
	require.NoError(t, err)

	req := w.presentationRequest(t)
	creds := &prover.PresentCredentials{}
	ci := creds.AddCredential(cred, nil, state)
	require.NoError(t, creds.AddRequestedAttribute(ci, "attr1_referent", true))
	require.NoError(t, creds.AddRequestedAttribute(ci, "attr2_referent", true))
	require.NoError(t, creds.AddRequestedPredicate(ci, "predicate1_referent"))

	pres, err := prover.CreatePresentation(req, creds, map[string]string{"attr3_referent": "ada"}, w.linkSecret,
		map[schema.SchemaID]*schema.Schema{schemaID: w.schema},
		map[schema.CredentialDefinitionID]*schema.CredentialDefinition{credDefID: w.credDef})
	require.NoError(t, err)
	require.Len(t, pres.Identifiers, 1)
	require.Equal(t, revRegID, pres.Identifiers[0].RevRegID)
	require.NotNil(t, pres.Identifiers[0].Timestamp)
	require.Equal(t, *list.Timestamp, *pres.Identifiers[0].Timestamp)
	require.NotNil(t, pres.Proof.Proofs[0].NonRevocProof)
}

func TestCreateOrUpdateRevocationState(t *testing.T) {
	ctx := context.Background()
	w := newWallet(t, true)
	cred := w.issue(t)
	other := w.issue(t)

	idx, _ := cred.RevocationIndex()
	otherIdx, _ := other.RevocationIndex()

	first, err := w.mgr.Snapshot(revRegID)
	require.NoError(t, err)

	state, err := prover.CreateOrUpdateRevocationState(w.revDef, first, idx, w.tails, nil, nil)
	require.NoError(t, err)
	require.Equal(t, *first.Timestamp, state.Timestamp)
	require.True(t, state.RevReg.Equal(&first.CurrentAccumulator.G2Affine))

	second, err := w.mgr.Revoke(ctx, revRegID, otherIdx)
	require.NoError(t, err)

	t.Run("update matches a fresh witness", func(t *testing.T) {
		updated, err := prover.CreateOrUpdateRevocationState(w.revDef, second, idx, w.tails, state, first)
		require.NoError(t, err)

		fresh, err := prover.CreateOrUpdateRevocationState(w.revDef, second, idx, w.tails, nil, nil)
		require.NoError(t, err)

		require.Equal(t, *second.Timestamp, updated.Timestamp)
		require.True(t, updated.Witness.Omega.Equal(&fresh.Witness.Omega.G2Affine))
		require.True(t, accumulator.VerifyWitness(w.credDef.Value.Revocation, w.revDef.Value.PublicKeys.AccumKey,
			updated.RevReg, updated.Witness, cred.Signature.RCredential.GI))
	})

	t.Run("revoked index", func(t *testing.T) {
		_, err := prover.CreateOrUpdateRevocationState(w.revDef, second, otherIdx, w.tails, nil, nil)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.Validation))
	})

	t.Run("status list without timestamp", func(t *testing.T) {
		list := second.Copy()
		list.Timestamp = nil

		_, err := prover.CreateOrUpdateRevocationState(w.revDef, list, idx, w.tails, nil, nil)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.Validation))
	})

	t.Run("previous state without witness", func(t *testing.T) {
		_, err := prover.CreateOrUpdateRevocationState(w.revDef, second, idx, w.tails, &schema.RevocationState{}, first)
		require.Error(t, err)
		require.True(t, errs.Is(err, errs.Validation))
	})
}
