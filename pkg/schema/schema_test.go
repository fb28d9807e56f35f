/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
)

func TestSchemaJSON(t *testing.T) {
	s := &Schema{Name: "example", Version: "1.0", AttrNames: AttributeNames{"name", "age"}, IssuerID: testDID}

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"example","version":"1.0","attrNames":["name","age"],"issuerId":"`+testDID+`"}`,
		string(raw))

	out := &Schema{}
	require.NoError(t, json.Unmarshal(raw, out))
	require.Equal(t, s, out)

	tests := map[string]string{
		"duplicate attributes": `{"name":"a","version":"1","attrNames":["x","X"],"issuerId":"` + testDID + `"}`,
		"no attributes":        `{"name":"a","version":"1","attrNames":[],"issuerId":"` + testDID + `"}`,
		"no name":              `{"version":"1","attrNames":["x"],"issuerId":"` + testDID + `"}`,
		"bad issuer":           `{"name":"a","version":"1","attrNames":["x"],"issuerId":"nope"}`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			err := json.Unmarshal([]byte(data), &Schema{})
			require.True(t, errs.Is(err, errs.Validation), err)
		})
	}

	t.Run("not json", func(t *testing.T) {
		err := json.Unmarshal([]byte(`{"name":1}`), &Schema{})
		require.True(t, errs.Is(err, errs.Conversion))
	})
}

func newTestCredDef(t *testing.T) *CredentialDefinition {
	pk, _, _, err := cl.NewCredentialKeys([]string{"name", "age"}, cl.WithPrimeBits(cl.MinPrimeBits))
	require.NoError(t, err)

	rpk, _, err := accumulator.NewKeys()
	require.NoError(t, err)

	return &CredentialDefinition{
		SchemaID: testSchemaID,
		Type:     SignatureTypeCL,
		Tag:      "default",
		Value:    CredentialDefinitionData{Primary: pk, Revocation: rpk},
		IssuerID: testDID,
	}
}

func TestCredentialDefinitionJSON(t *testing.T) {
	cd := newTestCredDef(t)
	require.True(t, cd.SupportsRevocation())
	require.NoError(t, cd.ValidateID(testCredDefID))
	require.Error(t, cd.ValidateID("V4SGRU86Z58d6TV7PBUe6f:3:CL:98153:default"))

	raw, err := json.Marshal(cd)
	require.NoError(t, err)

	out := &CredentialDefinition{}
	require.NoError(t, json.Unmarshal(raw, out))
	require.True(t, out.Value.Primary.N.Equal(cd.Value.Primary.N))
	require.True(t, out.Value.Revocation.Y.Equal(&cd.Value.Revocation.Y.G2Affine))

	again, err := json.Marshal(out)
	require.NoError(t, err)
	require.JSONEq(t, string(raw), string(again))

	t.Run("wrong type", func(t *testing.T) {
		bad := *cd
		bad.Type = "BBS"
		data, err := json.Marshal(&bad)
		require.NoError(t, err)
		require.True(t, errs.Is(json.Unmarshal(data, &CredentialDefinition{}), errs.Validation))
	})

	t.Run("to unqualified", func(t *testing.T) {
		q := *cd
		q.SchemaID = "schema:sov:did:sov:" + testSchemaID
		q.IssuerID = "did:sov:" + testDID

		u := q.ToUnqualified()
		require.Equal(t, SchemaID(testSchemaID), u.SchemaID)
		require.Equal(t, IssuerID(testDID), u.IssuerID)
	})
}

func TestRevocationRegistryDefinitionJSON(t *testing.T) {
	rpk, _, err := accumulator.NewKeys()
	require.NoError(t, err)

	reg, _, _, err := accumulator.NewRegistry(rpk, 4)
	require.NoError(t, err)

	def := &RevocationRegistryDefinition{
		IssuerID:     testDID,
		RevocDefType: RegistryTypeCLAccum,
		Tag:          "default",
		CredDefID:    testCredDefID,
		Value: RevocationRegistryDefinitionValue{
			IssuanceType:  IssuanceOnDemand,
			MaxCredNum:    4,
			PublicKeys:    RevocationRegistryDefinitionPublicKeys{AccumKey: reg},
			TailsHash:     base58.Encode([]byte("hash")),
			TailsLocation: "/tmp/tails",
		},
	}

	require.NoError(t, def.ValidateID(testRevRegID))

	raw, err := json.Marshal(def)
	require.NoError(t, err)

	out := &RevocationRegistryDefinition{}
	require.NoError(t, json.Unmarshal(raw, out))
	require.Equal(t, def.Value.MaxCredNum, out.Value.MaxCredNum)
	require.True(t, out.Value.PublicKeys.AccumKey.Z.Equal(&reg.Z.GT))

	for name, mutate := range map[string]func(d *RevocationRegistryDefinition){
		"zero size":      func(d *RevocationRegistryDefinition) { d.Value.MaxCredNum = 0 },
		"issuance type":  func(d *RevocationRegistryDefinition) { d.Value.IssuanceType = "SOMETIMES" },
		"registry type":  func(d *RevocationRegistryDefinition) { d.RevocDefType = "OTHER" },
		"tails hash":     func(d *RevocationRegistryDefinition) { d.Value.TailsHash = "0OIl" },
		"issuer differs": func(d *RevocationRegistryDefinition) { d.IssuerID = "V4SGRU86Z58d6TV7PBUe6f" },
	} {
		t.Run(name, func(t *testing.T) {
			bad := *def
			mutate(&bad)
			require.True(t, errs.Is(bad.Validate(), errs.Validation))
		})
	}
}

func TestRevocationStatusList(t *testing.T) {
	ts := uint64(1700000000)
	list := &RevocationStatusList{
		RevRegDefID:    testRevRegID,
		IssuerID:       testDID,
		RevocationList: RevocationList{false, true, false},
		Timestamp:      &ts,
	}

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"revocationList":[0,1,0]`)

	out := &RevocationStatusList{}
	require.NoError(t, json.Unmarshal(raw, out))
	require.Equal(t, list.RevocationList, out.RevocationList)
	require.Equal(t, []uint32{1, 3}, out.Issued())
	require.True(t, out.IsRevoked(2))
	require.False(t, out.IsRevoked(3))
	require.True(t, out.IsRevoked(0))
	require.True(t, out.IsRevoked(4))

	cp := out.Copy()
	cp.RevocationList[0] = true
	*cp.Timestamp = 1
	require.False(t, out.RevocationList[0])
	require.Equal(t, ts, *out.Timestamp)

	err = json.Unmarshal([]byte(`{"revRegDefId":"`+testRevRegID+`","issuerId":"`+testDID+`","revocationList":[2]}`),
		&RevocationStatusList{})
	require.True(t, errs.Is(err, errs.Conversion))
}

func TestCredentialRequestValidate(t *testing.T) {
	one := cl.NewBigNumber(big.NewInt(1))
	req := &CredentialRequest{
		Entropy:   "entropy",
		CredDefID: testCredDefID,
		BlindedMS: &cl.BlindedSecrets{U: one, HiddenAttributes: []string{cl.LinkSecretAttr}},
		BlindedMSCorrectnessProof: &cl.BlindedSecretsCorrectnessProof{
			C:        one,
			VDashCap: one,
			MCaps:    map[string]*cl.BigNumber{cl.LinkSecretAttr: one},
		},
		Nonce: one,
	}

	require.NoError(t, req.Validate())
	require.Equal(t, "entropy", req.ProverID())

	both := *req
	both.ProverDID = testDID
	require.True(t, errs.Is(both.Validate(), errs.Validation))

	neither := *req
	neither.Entropy = ""
	require.True(t, errs.Is(neither.Validate(), errs.Validation))

	did := *req
	did.Entropy = ""
	did.ProverDID = testDID
	require.NoError(t, did.Validate())
	require.Equal(t, testDID, did.ProverID())
}

func TestPresentationRequestJSON(t *testing.T) {
	data := `{
		"name": "proof",
		"version": "1.0",
		"nonce": "1234567890",
		"requested_attributes": {
			"attr1_referent": {"name": "name", "restrictions": {"cred_def_id": "` + testCredDefID + `"}},
			"attr2_referent": {"names": ["name", "sex"], "non_revoked": {"from": 10, "to": 20}}
		},
		"requested_predicates": {
			"predicate1_referent": {"name": "age", "p_type": ">=", "p_value": 18}
		},
		"non_revoked": {"to": 100}
	}`

	req := &PresentationRequest{}
	require.NoError(t, json.Unmarshal([]byte(data), req))
	group := req.RequestedAttributes["attr2_referent"]
	require.Equal(t, []string{"name", "sex"}, group.AttrNames())

	pi := req.RequestedPredicates["predicate1_referent"]
	pred, err := pi.Predicate()
	require.NoError(t, err)
	require.Equal(t, cl.PredicateGE, pred.PType)
	require.Equal(t, int32(18), pred.Value)

	require.Equal(t, uint64(20), *req.AttributeInterval("attr2_referent").To)
	require.Equal(t, uint64(100), *req.AttributeInterval("attr1_referent").To)

	t.Run("round trip", func(t *testing.T) {
		raw, err := json.Marshal(req)
		require.NoError(t, err)

		out := &PresentationRequest{}
		require.NoError(t, json.Unmarshal(raw, out))
		require.Equal(t, req.Nonce.String(), out.Nonce.String())
		require.Len(t, out.RequestedAttributes, 2)
	})

	invalid := map[string]string{
		"name and names": `{"name":"p","version":"1","nonce":"1","requested_attributes":{"a":{"name":"x","names":["y"]}}}`,
		"bad comparator": `{"name":"p","version":"1","nonce":"1","requested_predicates":{"a":{"name":"x","p_type":"==","p_value":1}}}`,
		"no nonce":       `{"name":"p","version":"1","requested_attributes":{"a":{"name":"x"}}}`,
		"shared referent": `{"name":"p","version":"1","nonce":"1","requested_attributes":{"a":{"name":"x"}},` +
			`"requested_predicates":{"a":{"name":"y","p_type":">","p_value":1}}}`,
		"inverted interval": `{"name":"p","version":"1","nonce":"1","requested_attributes":{"a":{"name":"x"}},` +
			`"non_revoked":{"from":5,"to":1}}`,
	}

	for name, data := range invalid {
		t.Run(name, func(t *testing.T) {
			require.True(t, errs.Is(json.Unmarshal([]byte(data), &PresentationRequest{}), errs.Validation))
		})
	}
}

func TestNonRevokedInterval(t *testing.T) {
	from, to := uint64(1000), uint64(2000)
	n := &NonRevokedInterval{From: &from, To: &to}

	require.True(t, n.Contains(1500, 0))
	require.False(t, n.Contains(2100, 0))
	require.True(t, n.Contains(2100, 300))
	require.False(t, n.Contains(600, 300))
	require.True(t, n.Contains(800, 300))

	lower := uint64(1200)
	merged := n.Merge(&NonRevokedInterval{From: &lower})
	require.Equal(t, lower, *merged.From)
	require.Equal(t, to, *merged.To)
}
