//go:build ursa
// +build ursa

/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ursa generates CL credential definition keys and nonces with
// libursa. The keys are returned as pkg/cl values, so everything downstream
// of key generation runs on the native implementation.
package ursa

import (
	"encoding/json"

	"github.com/hyperledger/ursa-wrapper-go/pkg/libursa/ursa"
	"github.com/pkg/errors"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/pkg/cl"
)

var logger = log.New("anoncreds/ursa")

type publicKeyJSON struct {
	PKey *cl.PublicKey `json:"p_key"`
}

type privateKeyJSON struct {
	PKey *cl.PrivateKey `json:"p_key"`
}

// NewCredentialKeys generates a primary key pair for attrs plus the link
// secret slot. attrs must already be in their common view.
func NewCredentialKeys(attrs []string) (*cl.PublicKey, *cl.PrivateKey, *cl.KeyCorrectnessProof, error) {
	if len(attrs) == 0 {
		return nil, nil, nil, errors.New("at least one attribute is required")
	}

	credSchema, nonSchema, err := buildSchema(attrs)
	if err != nil {
		return nil, nil, nil, err
	}

	credDef, err := ursa.NewCredentialDef(credSchema, nonSchema, false)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error from URSA creating cred def")
	}

	pubJSON, err := credDef.PubKey.ToJSON()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error from URSA getting json pubkey")
	}

	privJSON, err := credDef.PrivKey.ToJSON()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error from URSA getting json privkey")
	}

	kcpJSON, err := credDef.KeyCorrectnessProof.ToJSON()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "error from URSA getting json correctness proof")
	}

	pub := &publicKeyJSON{}
	if err := json.Unmarshal(pubJSON, pub); err != nil || pub.PKey == nil {
		return nil, nil, nil, errors.Errorf("unexpected URSA public key format: %v", err)
	}

	priv := &privateKeyJSON{}
	if err := json.Unmarshal(privJSON, priv); err != nil || priv.PKey == nil {
		return nil, nil, nil, errors.Errorf("unexpected URSA private key format: %v", err)
	}

	kcp := &cl.KeyCorrectnessProof{}
	if err := json.Unmarshal(kcpJSON, kcp); err != nil {
		return nil, nil, nil, errors.Wrap(err, "unexpected URSA key correctness proof format")
	}

	if err := cl.VerifyKeyCorrectnessProof(pub.PKey, kcp); err != nil {
		return nil, nil, nil, errors.Wrap(err, "URSA key correctness proof rejected")
	}

	logger.Debug("credential keys generated by URSA")

	return pub.PKey, priv.PKey, kcp, nil
}

func buildSchema(attrs []string) (*ursa.CredentialSchemaHandle, *ursa.NonCredentialSchemaHandle, error) {
	schemaBuilder, err := ursa.NewCredentialSchemaBuilder()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to create schema builder")
	}

	for _, attr := range attrs {
		if err := schemaBuilder.AddAttr(attr); err != nil {
			return nil, nil, errors.Wrapf(err, "unable to add schema attribute %s", attr)
		}
	}

	credSchema, err := schemaBuilder.Finalize()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to finalize schema")
	}

	nonSchemaBuilder, err := ursa.NewNonCredentialSchemaBuilder()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to create non cred schema builder")
	}

	if err := nonSchemaBuilder.AddAttr(cl.LinkSecretAttr); err != nil {
		return nil, nil, errors.Wrap(err, "unable to add link secret")
	}

	nonSchema, err := nonSchemaBuilder.Finalize()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to finalize non cred schema")
	}

	return credSchema, nonSchema, nil
}

// NewNonce draws an 80 bit nonce from libursa.
func NewNonce() (*cl.BigNumber, error) {
	n, err := ursa.NewNonce()
	if err != nil {
		return nil, errors.Wrap(err, "error from URSA creating nonce")
	}

	js, err := n.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "error from URSA getting json nonce")
	}

	out := &cl.BigNumber{}
	if err := json.Unmarshal(js, out); err != nil {
		return nil, errors.Wrap(err, "unexpected URSA nonce format")
	}

	return out, nil
}

// EncodeValue encodes raw the way libursa does.
func EncodeValue(raw interface{}) string {
	_, enc := ursa.EncodeValue(raw)

	return enc
}
