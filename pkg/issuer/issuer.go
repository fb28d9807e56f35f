/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"context"
	"math/big"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/schema"
)

var logger = log.New("anoncreds/issuer")

// Issuer creates schemas, credential definitions and credentials.
type Issuer struct {
	keyOpts  []cl.Option
	keyGen   KeyGenerator
	registry *revocation.Manager
}

// KeyGenerator produces the primary keys of a credential definition for
// attribute names in their common view.
type KeyGenerator func(attrs []string) (*cl.PublicKey, *cl.PrivateKey, *cl.KeyCorrectnessProof, error)

// Option configures an Issuer.
type Option func(*Issuer)

// WithKeyOptions passes options to CL key generation.
func WithKeyOptions(opts ...cl.Option) Option {
	return func(i *Issuer) {
		i.keyOpts = append(i.keyOpts, opts...)
	}
}

// WithKeyGenerator replaces the native CL key generation. Key options are
// ignored when a generator is set.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(i *Issuer) {
		i.keyGen = g
	}
}

// WithRegistryManager sets the manager that assigns revocation indices.
func WithRegistryManager(m *revocation.Manager) Option {
	return func(i *Issuer) {
		i.registry = m
	}
}

// New returns an Issuer.
func New(opts ...Option) *Issuer {
	i := &Issuer{}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// CredentialDefinitionConfig selects optional features of a credential
// definition.
type CredentialDefinitionConfig struct {
	SupportRevocation bool
}

// RevocationConfig names the registry a revocable credential is issued from.
type RevocationConfig struct {
	RegistryID schema.RevocationRegistryID
	Private    *schema.RevocationRegistryDefinitionPrivate
}

// CreateSchema validates and returns a schema.
func (i *Issuer) CreateSchema(name, version string, issuerID schema.IssuerID, attrNames []string) (*schema.Schema,
	error) {
	s := &schema.Schema{
		Name:      name,
		Version:   version,
		AttrNames: append(schema.AttributeNames(nil), attrNames...),
		IssuerID:  issuerID,
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// CreateCredentialDefinition generates the keys of a credential definition
// for s along with the proof that the public key is well formed.
func (i *Issuer) CreateCredentialDefinition(schemaID schema.SchemaID, s *schema.Schema, issuerID schema.IssuerID,
	tag, signatureType string, cfg CredentialDefinitionConfig) (*schema.CredentialDefinition,
	*schema.CredentialDefinitionPrivate, *cl.KeyCorrectnessProof, error) {
	if signatureType != schema.SignatureTypeCL {
		return nil, nil, nil, errs.New(errs.Validation, "unsupported signature type %q", signatureType)
	}

	if err := schemaID.Validate(); err != nil {
		return nil, nil, nil, err
	}

	if s == nil {
		return nil, nil, nil, errs.New(errs.Validation, "schema is required")
	}

	if err := s.Validate(); err != nil {
		return nil, nil, nil, err
	}

	keyGen := i.keyGen
	if keyGen == nil {
		keyGen = func(attrs []string) (*cl.PublicKey, *cl.PrivateKey, *cl.KeyCorrectnessProof, error) {
			return cl.NewCredentialKeys(attrs, i.keyOpts...)
		}
	}

	pk, sk, kcp, err := keyGen(s.AttrNames.CommonView())
	if err != nil {
		return nil, nil, nil, errs.Wrap(errs.Validation, err, "unable to generate credential keys")
	}

	credDef := &schema.CredentialDefinition{
		SchemaID: schemaID,
		Type:     schema.SignatureTypeCL,
		Tag:      tag,
		Value:    schema.CredentialDefinitionData{Primary: pk},
		IssuerID: issuerID,
	}
	priv := &schema.CredentialDefinitionPrivate{Value: schema.CredentialDefinitionPrivateData{Primary: sk}}

	if cfg.SupportRevocation {
		rpk, rsk, err := accumulator.NewKeys()
		if err != nil {
			return nil, nil, nil, errs.Wrap(errs.Validation, err, "unable to generate revocation keys")
		}

		credDef.Value.Revocation = rpk
		priv.Value.Revocation = rsk
	}

	if err := credDef.Validate(); err != nil {
		return nil, nil, nil, err
	}

	logger.Info("credential definition created", logfields.WithSchemaID(string(schemaID)))

	return credDef, priv, kcp, nil
}

// CreateCredentialOffer draws a fresh nonce for an offer of credDefID.
func (i *Issuer) CreateCredentialOffer(schemaID schema.SchemaID, credDefID schema.CredentialDefinitionID,
	kcp *cl.KeyCorrectnessProof) (*schema.CredentialOffer, error) {
	nonce, err := cl.NewNonce()
	if err != nil {
		return nil, errs.Wrap(errs.CredentialIssuance, err, "unable to create nonce")
	}

	offer := &schema.CredentialOffer{
		SchemaID:            schemaID,
		CredDefID:           credDefID,
		KeyCorrectnessProof: kcp,
		Nonce:               nonce,
	}

	if err := offer.Validate(); err != nil {
		return nil, err
	}

	return offer, nil
}

// CreateCredential signs values for the holder of req. When rev is set the
// credential receives the next index of the registry and a witness against
// its latest status list.
func (i *Issuer) CreateCredential(ctx context.Context, credDef *schema.CredentialDefinition,
	priv *schema.CredentialDefinitionPrivate, offer *schema.CredentialOffer, req *schema.CredentialRequest,
	values schema.CredentialValues, rev *RevocationConfig) (*schema.Credential, error) {
	if err := checkCredentialInputs(credDef, priv, offer, req); err != nil {
		return nil, err
	}

	pk := credDef.Value.Primary

	encoded, err := values.Encoded()
	if err != nil {
		return nil, err
	}

	if err := checkValues(pk, encoded); err != nil {
		return nil, err
	}

	err = cl.VerifyBlindedSecrets(pk, req.BlindedMS, req.BlindedMSCorrectnessProof, offer.Nonce)
	if err != nil {
		return nil, errs.Wrap(errs.CredentialIssuance, err, "invalid blinded link secret")
	}

	cred := &schema.Credential{
		SchemaID:  offer.SchemaID,
		CredDefID: offer.CredDefID,
		Values:    copyValues(values),
	}

	if rev == nil {
		sig, scp, err := cl.Sign(pk, priv.Value.Primary, req.BlindedMS, encoded, cl.CredentialContext(req.ProverID(), nil),
			req.Nonce)
		if err != nil {
			return nil, errs.Wrap(errs.CredentialIssuance, err, "unable to sign credential")
		}

		cred.Signature.PCredential = sig
		cred.SignatureCorrectnessProof = scp

		logger.Debug("credential issued", logfields.WithCredDefID(string(offer.CredDefID)))

		return cred, nil
	}

	if err := i.signRevocable(ctx, cred, credDef, priv, req, encoded, rev); err != nil {
		return nil, err
	}

	return cred, nil
}

func (i *Issuer) signRevocable(ctx context.Context, cred *schema.Credential, credDef *schema.CredentialDefinition,
	priv *schema.CredentialDefinitionPrivate, req *schema.CredentialRequest, encoded map[string]*big.Int,
	rev *RevocationConfig) error {
	if !credDef.SupportsRevocation() || priv.Value.Revocation == nil {
		return errs.New(errs.CredentialIssuance, "credential definition does not support revocation")
	}

	if i.registry == nil {
		return errs.New(errs.CredentialIssuance, "issuer has no revocation registry manager")
	}

	if rev.Private == nil || rev.Private.Value == nil {
		return errs.New(errs.CredentialIssuance, "revocation registry private key is required")
	}

	def, err := i.registry.Definition(rev.RegistryID)
	if err != nil {
		return errs.Wrap(errs.CredentialIssuance, err, "unable to issue revocable credential")
	}

	if def.CredDefID != cred.CredDefID {
		return errs.New(errs.CredentialIssuance, "revocation registry %s belongs to %s", rev.RegistryID, def.CredDefID)
	}

	idx, err := i.registry.NextIndex(ctx, rev.RegistryID)
	if err != nil {
		return errs.Wrap(errs.CredentialIssuance, err, "unable to assign revocation index")
	}

	onDemand := def.Value.IssuanceType == schema.IssuanceOnDemand
	issued := false

	fail := func(err error, msg string) error {
		i.rollback(ctx, rev.RegistryID, idx, issued)
		return errs.Wrap(errs.CredentialIssuance, err, msg)
	}

	m2 := cl.CredentialContext(req.ProverID(), &idx)

	sig, scp, err := cl.Sign(credDef.Value.Primary, priv.Value.Primary, req.BlindedMS, encoded, m2, req.Nonce)
	if err != nil {
		return fail(err, "unable to sign credential")
	}

	rcred, err := accumulator.IssueCredential(credDef.Value.Revocation, priv.Value.Revocation, rev.Private.Value,
		def.Value.MaxCredNum, idx, m2)
	if err != nil {
		return fail(err, "unable to sign non-revocation credential")
	}

	var list *schema.RevocationStatusList
	if onDemand {
		list, err = i.registry.Issue(ctx, rev.RegistryID, idx)
		issued = err == nil
	} else {
		list, err = i.registry.Snapshot(rev.RegistryID)
	}

	if err != nil {
		return fail(err, "unable to read status list")
	}

	w, list, err := i.registry.Witness(ctx, rev.RegistryID, idx, *list.Timestamp)
	if err != nil {
		return fail(err, "unable to compute witness")
	}

	cred.RevRegID = rev.RegistryID
	cred.Signature.PCredential = sig
	cred.Signature.RCredential = rcred
	cred.SignatureCorrectnessProof = scp
	cred.RevReg = list.CurrentAccumulator
	cred.Witness = w

	logger.Info("revocable credential issued", logfields.WithCredDefID(string(cred.CredDefID)),
		logfields.WithRevRegID(string(rev.RegistryID)), logfields.WithRevocationIndex(idx))

	return nil
}

// rollback undoes the registry changes of a revocable issuance that failed.
func (i *Issuer) rollback(ctx context.Context, id schema.RevocationRegistryID, idx uint32, issued bool) {
	if issued {
		if _, err := i.registry.Revoke(ctx, id, idx); err != nil {
			logger.Warn("unable to revoke index of failed issuance", logfields.WithRevRegID(string(id)),
				logfields.WithRevocationIndex(idx), log.WithError(err))

			return
		}
	}

	if err := i.registry.Release(ctx, id, idx); err != nil {
		logger.Warn("unable to release index of failed issuance", logfields.WithRevRegID(string(id)),
			logfields.WithRevocationIndex(idx), log.WithError(err))
	}
}

func checkCredentialInputs(credDef *schema.CredentialDefinition, priv *schema.CredentialDefinitionPrivate,
	offer *schema.CredentialOffer, req *schema.CredentialRequest) error {
	if credDef == nil || priv == nil || offer == nil || req == nil {
		return errs.New(errs.Validation, "credential definition, private key, offer and request are required")
	}

	if err := credDef.Validate(); err != nil {
		return err
	}

	if priv.Value.Primary == nil {
		return errs.New(errs.Validation, "credential definition private key is missing")
	}

	if err := offer.Validate(); err != nil {
		return err
	}

	if err := req.Validate(); err != nil {
		return err
	}

	if req.CredDefID != offer.CredDefID {
		return errs.New(errs.CredentialIssuance, "request is for %s, offer is for %s", req.CredDefID, offer.CredDefID)
	}

	return nil
}

// checkValues requires a value for every attribute of pk except the link
// secret.
func checkValues(pk *cl.PublicKey, encoded map[string]*big.Int) error {
	if len(encoded) != len(pk.R)-1 {
		return errs.New(errs.Validation, "expected %d attribute values, got %d", len(pk.R)-1, len(encoded))
	}

	for name := range encoded {
		if name == cl.LinkSecretAttr {
			return errs.New(errs.Validation, "%s cannot be set by the issuer", cl.LinkSecretAttr)
		}

		if _, ok := pk.R[name]; !ok {
			return errs.New(errs.Validation, "attribute %s is not part of the credential definition", name)
		}
	}

	return nil
}

func copyValues(v schema.CredentialValues) schema.CredentialValues {
	out := make(schema.CredentialValues, len(v))
	for k, val := range v {
		out[k] = val
	}

	return out
}
