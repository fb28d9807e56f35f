/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scoir/anoncreds/pkg/issuer"
	"github.com/scoir/anoncreds/pkg/schema"
)

const (
	revRegDefFile        = "rev_reg_def.json"
	revRegDefPrivateFile = "rev_reg_def_private.json"
	statusListFile       = "status_list.json"
)

func newRevRegCmd(prov *Provider) *cobra.Command {
	revRegCmd := &cobra.Command{
		Use:   "rev-reg",
		Short: "Create and inspect revocation registries",
	}

	revRegCmd.AddCommand(newRevRegCreateCmd(prov), newRevRegStatusCmd(prov))

	return revRegCmd
}

func newRevRegCreateCmd(prov *Provider) *cobra.Command {
	var credDefPath, credDefID, id, tag, issuanceType, out string

	var maxCredNum uint32

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Creates a revocation registry and its tails file.",
		Long: `Creates a revocation registry, uploads its tails file to the configured tails
storage and records the registry and its initial status list in the datastore.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			credDef := &schema.CredentialDefinition{}
			if err := readJSON(credDefPath, credDef); err != nil {
				return err
			}

			regID := schema.RevocationRegistryID(id)
			if regID == "" {
				if !credDef.IssuerID.IsLegacy() {
					return errors.New("--id is required for issuers without a legacy DID")
				}

				regID = schema.NewLegacyRevocationRegistryID(credDef.IssuerID, schema.CredentialDefinitionID(credDefID), tag)
			}

			tails, err := prov.TailsStore(ctx)
			if err != nil {
				return err
			}

			mgr, err := prov.RegistryManager()
			if err != nil {
				return err
			}

			iss, err := prov.Issuer(issuer.WithRegistryManager(mgr))
			if err != nil {
				return err
			}

			def, priv, memTails, err := iss.CreateRevocationRegistryDef(ctx, credDef,
				schema.CredentialDefinitionID(credDefID), tag, maxCredNum, schema.IssuanceType(issuanceType), tails)
			if err != nil {
				return errors.Wrap(err, "unable to create revocation registry")
			}

			list, err := mgr.Register(ctx, regID, def, memTails)
			if err != nil {
				return errors.Wrapf(err, "unable to register %s", regID)
			}

			return writeAll(cmd.OutOrStdout(), out, []output{
				{revRegDefFile, def},
				{revRegDefPrivateFile, priv},
				{statusListFile, list},
			})
		},
	}

	createCmd.Flags().StringVar(&credDefPath, "cred-def", "", "credential definition JSON file")
	createCmd.Flags().StringVar(&credDefID, "cred-def-id", "", "the ledger id of the credential definition")
	createCmd.Flags().StringVar(&id, "id", "", "registry id (derived from the issuer DID when legacy)")
	createCmd.Flags().StringVar(&tag, "tag", "default", "the registry tag")
	createCmd.Flags().Uint32Var(&maxCredNum, "max-cred-num", 100, "registry capacity")
	createCmd.Flags().StringVar(&issuanceType, "issuance-type", string(schema.IssuanceByDefault),
		"ISSUANCE_BY_DEFAULT or ISSUANCE_ON_DEMAND")
	createCmd.Flags().StringVar(&out, "out", ".", "output directory")
	_ = createCmd.MarkFlagRequired("cred-def")
	_ = createCmd.MarkFlagRequired("cred-def-id")

	return createCmd
}

func newRevRegStatusCmd(prov *Provider) *cobra.Command {
	var timestamp uint64

	statusCmd := &cobra.Command{
		Use:   "status REV_REG_ID",
		Short: "Prints the latest status list, or the one in effect at --timestamp.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id := schema.RevocationRegistryID(args[0])

			mgr, err := prov.LoadRegistry(ctx, id)
			if err != nil {
				return err
			}

			var list *schema.RevocationStatusList
			if timestamp == 0 {
				list, err = mgr.Snapshot(id)
			} else {
				list, err = mgr.StatusList(ctx, id, timestamp)
			}

			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), list)
		},
	}

	statusCmd.Flags().Uint64Var(&timestamp, "timestamp", 0, "unix time the status list must be in effect at")

	return statusCmd
}

func newRevokeCmd(prov *Provider) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke REV_REG_ID INDEX...",
		Short: "Revokes credentials and prints the new status list.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			id := schema.RevocationRegistryID(args[0])

			revoked := make([]uint32, 0, len(args)-1)

			for _, arg := range args[1:] {
				idx, err := strconv.ParseUint(arg, 10, 32)
				if err != nil {
					return errors.Wrapf(err, "invalid revocation index %s", arg)
				}

				revoked = append(revoked, uint32(idx))
			}

			mgr, err := prov.LoadRegistry(ctx, id)
			if err != nil {
				return err
			}

			list, err := mgr.Update(ctx, id, nil, revoked)
			if err != nil {
				return errors.Wrapf(err, "unable to revoke from %s", id)
			}

			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}
