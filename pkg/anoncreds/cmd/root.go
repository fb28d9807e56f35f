/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/cmd/common"
	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/config"
)

var logger = log.New("anoncreds/cli")

// Execute runs the anoncreds CLI.
func Execute() {
	prov := &Provider{}
	rootCmd := NewRootCmd(prov)

	err := rootCmd.Execute()

	if cerr := prov.Close(); cerr != nil {
		logger.Warn("unable to release resources", log.WithError(cerr))
	}

	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree around prov. The configuration is
// loaded before the first command runs unless prov already carries one.
func NewRootCmd(prov *Provider) *cobra.Command {
	var cfgFile, logLevel string

	rootCmd := &cobra.Command{
		Use:   "anoncreds",
		Short: "Issue, hold and verify CL anonymous credentials.",
		Long: `Issue, hold and verify CL anonymous credentials.

 Every object is read from and written as JSON. Revocation registries are
 kept in the configured datastore and their tails files in the configured
 tails storage.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if logLevel == "" {
				logLevel = os.Getenv(common.LogLevelEnvKey)
			}

			if logLevel != "" {
				common.SetDefaultLogLevel(logger, logLevel)
			}

			logger.Debug("running command", logfields.WithCommand(cmd.CommandPath()))

			if prov.cfg != nil {
				return nil
			}

			cfg, err := (&config.ViperConfigProvider{}).Load(cfgFile)
			if err != nil {
				return err
			}

			prov.cfg = cfg

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is anoncreds.yaml in /etc/anoncreds/ or the working directory)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, common.LogLevelFlagName, common.LogLevelFlagShorthand, "",
		common.LogLevelFlagUsage)

	rootCmd.AddCommand(
		newSchemaCmd(prov),
		newCredDefCmd(prov),
		newOfferCmd(prov),
		newLinkSecretCmd(),
		newRequestCmd(prov),
		newCredentialCmd(prov),
		newRevRegCmd(prov),
		newRevokeCmd(prov),
		newNonceCmd(),
		newVerifyCmd(prov),
		newEventsCmd(prov),
	)

	return rootCmd
}
