/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/schema"
)

func newSchemaCmd(prov *Provider) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Create schemas",
	}

	var version, issuerID string

	var attrs []string

	createCmd := &cobra.Command{
		Use:   "create SCHEMA_NAME",
		Short: "Creates a schema and prints it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			iss, err := prov.Issuer()
			if err != nil {
				return err
			}

			s, err := iss.CreateSchema(args[0], version, schema.IssuerID(issuerID), attrs)
			if err != nil {
				return errors.Wrapf(err, "unable to create schema %s", args[0])
			}

			return printJSON(cmd.OutOrStdout(), s)
		},
	}

	createCmd.Flags().StringVar(&version, "version", "", "the schema version")
	createCmd.Flags().StringVar(&issuerID, "issuer", "", "the issuer DID")
	createCmd.Flags().StringArrayVar(&attrs, "attr", []string{}, "attribute name (can be repeated)")
	_ = createCmd.MarkFlagRequired("version")
	_ = createCmd.MarkFlagRequired("issuer")

	schemaCmd.AddCommand(createCmd)

	return schemaCmd
}

const (
	credDefFile        = "cred_def.json"
	credDefPrivateFile = "cred_def_private.json"
	kcpFile            = "key_correctness_proof.json"
)

func newCredDefCmd(prov *Provider) *cobra.Command {
	credDefCmd := &cobra.Command{
		Use:   "cred-def",
		Short: "Create credential definitions",
	}

	var schemaFile, schemaID, issuerID, tag, out string

	var revocable bool

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Generates the keys of a credential definition.",
		Long: `Generates the keys of a credential definition and writes the public
definition, its private key and the key correctness proof to the output directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := &schema.Schema{}
			if err := readJSON(schemaFile, s); err != nil {
				return err
			}

			iss, err := prov.Issuer()
			if err != nil {
				return err
			}

			credDef, priv, kcp, err := iss.CreateCredentialDefinition(schema.SchemaID(schemaID), s,
				schema.IssuerID(issuerID), tag, schema.SignatureTypeCL,
				issuer.CredentialDefinitionConfig{SupportRevocation: revocable})
			if err != nil {
				return errors.Wrap(err, "unable to create credential definition")
			}

			return writeAll(cmd.OutOrStdout(), out, []output{
				{credDefFile, credDef},
				{credDefPrivateFile, priv},
				{kcpFile, kcp},
			})
		},
	}

	createCmd.Flags().StringVar(&schemaFile, "schema", "", "schema JSON file")
	createCmd.Flags().StringVar(&schemaID, "schema-id", "", "the ledger id of the schema")
	createCmd.Flags().StringVar(&issuerID, "issuer", "", "the issuer DID")
	createCmd.Flags().StringVar(&tag, "tag", "default", "the credential definition tag")
	createCmd.Flags().BoolVar(&revocable, "revocable", false, "generate revocation keys")
	createCmd.Flags().StringVar(&out, "out", ".", "output directory")
	_ = createCmd.MarkFlagRequired("schema")
	_ = createCmd.MarkFlagRequired("schema-id")
	_ = createCmd.MarkFlagRequired("issuer")

	credDefCmd.AddCommand(createCmd)

	return credDefCmd
}

func newOfferCmd(prov *Provider) *cobra.Command {
	offerCmd := &cobra.Command{
		Use:   "offer",
		Short: "Create credential offers",
	}

	var schemaID, credDefID, kcpPath string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Creates a credential offer with a fresh nonce.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kcp := &cl.KeyCorrectnessProof{}
			if err := readJSON(kcpPath, kcp); err != nil {
				return err
			}

			iss, err := prov.Issuer()
			if err != nil {
				return err
			}

			offer, err := iss.CreateCredentialOffer(schema.SchemaID(schemaID), schema.CredentialDefinitionID(credDefID),
				kcp)
			if err != nil {
				return errors.Wrap(err, "unable to create offer")
			}

			return printJSON(cmd.OutOrStdout(), offer)
		},
	}

	createCmd.Flags().StringVar(&schemaID, "schema-id", "", "the ledger id of the schema")
	createCmd.Flags().StringVar(&credDefID, "cred-def-id", "", "the ledger id of the credential definition")
	createCmd.Flags().StringVar(&kcpPath, "kcp", "", "key correctness proof JSON file")
	_ = createCmd.MarkFlagRequired("schema-id")
	_ = createCmd.MarkFlagRequired("cred-def-id")
	_ = createCmd.MarkFlagRequired("kcp")

	offerCmd.AddCommand(createCmd)

	return offerCmd
}
