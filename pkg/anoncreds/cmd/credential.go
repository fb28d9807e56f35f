/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/anoncreds/pkg/cl"
	"github.com/scoir/anoncreds/pkg/framework"
	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/prover"
	"github.com/scoir/anoncreds/pkg/schema"
)

const (
	requestFile         = "request.json"
	requestMetadataFile = "request_metadata.json"
)

func newLinkSecretCmd() *cobra.Command {
	linkSecretCmd := &cobra.Command{
		Use:   "link-secret",
		Short: "Create link secrets",
	}

	linkSecretCmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Prints a fresh link secret.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ls, err := prover.CreateLinkSecret()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), ls)
		},
	})

	return linkSecretCmd
}

func newRequestCmd(prov *Provider) *cobra.Command {
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Create credential requests",
	}

	var credDefPath, offerPath, linkSecretPath, linkSecretID, proverID, out string

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Blinds a link secret for a credential offer.",
		Long: `Blinds a link secret for a credential offer. The prover id is sent as entropy
or as the prover DID depending on credentialRequest.use.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			crc, err := prov.Config().CredentialRequest()
			if err != nil {
				return errors.Wrap(err, "invalid credential request configuration")
			}

			credDef := &schema.CredentialDefinition{}
			if err := readJSON(credDefPath, credDef); err != nil {
				return err
			}

			offer := &schema.CredentialOffer{}
			if err := readJSON(offerPath, offer); err != nil {
				return err
			}

			ls := &cl.BigNumber{}
			if err := readJSON(linkSecretPath, ls); err != nil {
				return err
			}

			entropy, proverDID := proverID, ""
			if crc.Use == framework.UseProverDID {
				entropy, proverDID = "", proverID
			}

			req, meta, err := prover.CreateCredentialRequest(entropy, proverDID, credDef, ls, linkSecretID, offer)
			if err != nil {
				return errors.Wrap(err, "unable to create credential request")
			}

			return writeAll(cmd.OutOrStdout(), out, []output{
				{requestFile, req},
				{requestMetadataFile, meta},
			})
		},
	}

	createCmd.Flags().StringVar(&credDefPath, "cred-def", "", "credential definition JSON file")
	createCmd.Flags().StringVar(&offerPath, "offer", "", "credential offer JSON file")
	createCmd.Flags().StringVar(&linkSecretPath, "link-secret", "", "link secret JSON file")
	createCmd.Flags().StringVar(&linkSecretID, "link-secret-id", "default", "name of the link secret")
	createCmd.Flags().StringVar(&proverID, "prover-id", "", "entropy or prover DID identifying the holder")
	createCmd.Flags().StringVar(&out, "out", ".", "output directory")

	for _, name := range []string{"cred-def", "offer", "link-secret", "prover-id"} {
		_ = createCmd.MarkFlagRequired(name)
	}

	requestCmd.AddCommand(createCmd)

	return requestCmd
}

func newCredentialCmd(prov *Provider) *cobra.Command {
	credentialCmd := &cobra.Command{
		Use:   "credential",
		Short: "Issue and process credentials",
	}

	credentialCmd.AddCommand(newCredentialIssueCmd(prov), newCredentialProcessCmd())

	return credentialCmd
}

func newCredentialIssueCmd(prov *Provider) *cobra.Command {
	var credDefPath, privPath, offerPath, requestPath, revRegID, revPrivPath string

	var attrs []string

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Signs attribute values for a credential request.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			values, err := parseAttrs(attrs)
			if err != nil {
				return err
			}

			credDef := &schema.CredentialDefinition{}
			if err := readJSON(credDefPath, credDef); err != nil {
				return err
			}

			priv := &schema.CredentialDefinitionPrivate{}
			if err := readJSON(privPath, priv); err != nil {
				return err
			}

			offer := &schema.CredentialOffer{}
			if err := readJSON(offerPath, offer); err != nil {
				return err
			}

			req := &schema.CredentialRequest{}
			if err := readJSON(requestPath, req); err != nil {
				return err
			}

			var (
				opts []issuer.Option
				rev  *issuer.RevocationConfig
			)

			if revRegID != "" {
				revPriv := &schema.RevocationRegistryDefinitionPrivate{}
				if err := readJSON(revPrivPath, revPriv); err != nil {
					return err
				}

				mgr, err := prov.LoadRegistry(ctx, schema.RevocationRegistryID(revRegID))
				if err != nil {
					return err
				}

				opts = append(opts, issuer.WithRegistryManager(mgr))
				rev = &issuer.RevocationConfig{RegistryID: schema.RevocationRegistryID(revRegID), Private: revPriv}
			}

			iss, err := prov.Issuer(opts...)
			if err != nil {
				return err
			}

			cred, err := iss.CreateCredential(ctx, credDef, priv, offer, req, values, rev)
			if err != nil {
				return errors.Wrap(err, "unable to issue credential")
			}

			return printJSON(cmd.OutOrStdout(), cred)
		},
	}

	issueCmd.Flags().StringVar(&credDefPath, "cred-def", "", "credential definition JSON file")
	issueCmd.Flags().StringVar(&privPath, "cred-def-private", "", "credential definition private key JSON file")
	issueCmd.Flags().StringVar(&offerPath, "offer", "", "credential offer JSON file")
	issueCmd.Flags().StringVar(&requestPath, "request", "", "credential request JSON file")
	issueCmd.Flags().StringArrayVar(&attrs, "attr", []string{}, "attribute value [NAME=VALUE] (can be repeated)")
	issueCmd.Flags().StringVar(&revRegID, "rev-reg-id", "", "revocation registry to issue from")
	issueCmd.Flags().StringVar(&revPrivPath, "rev-reg-private", "", "revocation registry private key JSON file")

	for _, name := range []string{"cred-def", "cred-def-private", "offer", "request"} {
		_ = issueCmd.MarkFlagRequired(name)
	}

	return issueCmd
}

func newCredentialProcessCmd() *cobra.Command {
	var credPath, metaPath, linkSecretPath, credDefPath, revRegDefPath string

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Unblinds and checks a received credential.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cred := &schema.Credential{}
			if err := readJSON(credPath, cred); err != nil {
				return err
			}

			meta := &schema.CredentialRequestMetadata{}
			if err := readJSON(metaPath, meta); err != nil {
				return err
			}

			ls := &cl.BigNumber{}
			if err := readJSON(linkSecretPath, ls); err != nil {
				return err
			}

			credDef := &schema.CredentialDefinition{}
			if err := readJSON(credDefPath, credDef); err != nil {
				return err
			}

			var revRegDef *schema.RevocationRegistryDefinition

			if revRegDefPath != "" {
				revRegDef = &schema.RevocationRegistryDefinition{}
				if err := readJSON(revRegDefPath, revRegDef); err != nil {
					return err
				}
			}

			processed, err := prover.ProcessCredential(cred, meta, ls, credDef, revRegDef)
			if err != nil {
				return errors.Wrap(err, "unable to process credential")
			}

			return printJSON(cmd.OutOrStdout(), processed)
		},
	}

	processCmd.Flags().StringVar(&credPath, "credential", "", "credential JSON file")
	processCmd.Flags().StringVar(&metaPath, "request-metadata", "", "credential request metadata JSON file")
	processCmd.Flags().StringVar(&linkSecretPath, "link-secret", "", "link secret JSON file")
	processCmd.Flags().StringVar(&credDefPath, "cred-def", "", "credential definition JSON file")
	processCmd.Flags().StringVar(&revRegDefPath, "rev-reg-def", "", "revocation registry definition JSON file")

	for _, name := range []string{"credential", "request-metadata", "link-secret", "cred-def"} {
		_ = processCmd.MarkFlagRequired(name)
	}

	return processCmd
}
