/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/amqp"
	"github.com/scoir/anoncreds/pkg/amqp/rabbitmq"
	"github.com/scoir/anoncreds/pkg/schema"
	"github.com/scoir/anoncreds/pkg/verifier"
)

func newNonceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce",
		Short: "Prints a fresh presentation request nonce.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nonce, err := verifier.GenerateNonce()
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), nonce)
		},
	}
}

type verifyResult struct {
	Verified bool `json:"verified"`
}

func newVerifyCmd(prov *Provider) *cobra.Command {
	var presPath, reqPath string

	var schemaRefs, credDefRefs, revRegDefRefs, statusListPaths []string

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifies a presentation against its request.",
		Long: `Verifies a presentation against its request. Schemas, credential definitions
and revocation registry definitions are passed as ID=FILE, status lists as files.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pres := &schema.Presentation{}
			if err := readJSON(presPath, pres); err != nil {
				return err
			}

			req := &schema.PresentationRequest{}
			if err := readJSON(reqPath, req); err != nil {
				return err
			}

			schemas := map[schema.SchemaID]*schema.Schema{}
			if err := loadRefs(schemaRefs, func(id, path string) error {
				s := &schema.Schema{}
				schemas[schema.SchemaID(id)] = s

				return readJSON(path, s)
			}); err != nil {
				return err
			}

			credDefs := map[schema.CredentialDefinitionID]*schema.CredentialDefinition{}
			if err := loadRefs(credDefRefs, func(id, path string) error {
				c := &schema.CredentialDefinition{}
				credDefs[schema.CredentialDefinitionID(id)] = c

				return readJSON(path, c)
			}); err != nil {
				return err
			}

			revRegDefs := map[schema.RevocationRegistryID]*schema.RevocationRegistryDefinition{}
			if err := loadRefs(revRegDefRefs, func(id, path string) error {
				d := &schema.RevocationRegistryDefinition{}
				revRegDefs[schema.RevocationRegistryID(id)] = d

				return readJSON(path, d)
			}); err != nil {
				return err
			}

			lists := make([]*schema.RevocationStatusList, len(statusListPaths))
			for i, path := range statusListPaths {
				lists[i] = &schema.RevocationStatusList{}
				if err := readJSON(path, lists[i]); err != nil {
					return err
				}
			}

			v, err := prov.Verifier()
			if err != nil {
				return err
			}

			ok, err := v.VerifyPresentation(pres, req, schemas, credDefs, revRegDefs, lists, nil)
			if err != nil {
				return errors.Wrap(err, "unable to verify presentation")
			}

			return printJSON(cmd.OutOrStdout(), verifyResult{Verified: ok})
		},
	}

	verifyCmd.Flags().StringVar(&presPath, "presentation", "", "presentation JSON file")
	verifyCmd.Flags().StringVar(&reqPath, "request", "", "presentation request JSON file")
	verifyCmd.Flags().StringArrayVar(&schemaRefs, "schema", []string{}, "schema [ID=FILE] (can be repeated)")
	verifyCmd.Flags().StringArrayVar(&credDefRefs, "cred-def", []string{},
		"credential definition [ID=FILE] (can be repeated)")
	verifyCmd.Flags().StringArrayVar(&revRegDefRefs, "rev-reg-def", []string{},
		"revocation registry definition [ID=FILE] (can be repeated)")
	verifyCmd.Flags().StringArrayVar(&statusListPaths, "status-list", []string{},
		"revocation status list file (can be repeated)")
	_ = verifyCmd.MarkFlagRequired("presentation")
	_ = verifyCmd.MarkFlagRequired("request")

	return verifyCmd
}

func loadRefs(values []string, load func(id, path string) error) error {
	refs, err := parseRefs(values)
	if err != nil {
		return err
	}

	for id, path := range refs {
		if err := load(id, path); err != nil {
			return err
		}
	}

	return nil
}

func newEventsCmd(prov *Provider) *cobra.Command {
	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Follow revocation registry events",
	}

	eventsCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Prints registry events from the configured AMQP queue until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ac, err := prov.Config().AMQPConfig()
			if err != nil {
				return errors.Wrap(err, "invalid amqp configuration")
			}

			if !ac.Enabled() {
				return errors.New("amqp.host is not configured")
			}

			listener, err := rabbitmq.NewListener(ac.Endpoint(), ac.Queue)
			if err != nil {
				return err
			}

			defer listener.Close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cmd, listener)
		},
	})

	return eventsCmd
}

func watch(ctx context.Context, cmd *cobra.Command, listener amqp.Listener) error {
	msgs, err := listener.Listen()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("amqp channel closed")
			}

			evt, err := amqp.DecodeEvent(msg.Body)
			if err != nil {
				logger.Warn("skipping malformed event", log.WithError(err))
				continue
			}

			logger.Debug("event received", logfields.WithEvent(string(evt.Type)),
				logfields.WithRevRegID(string(evt.RevRegID)))

			if err := printJSON(cmd.OutOrStdout(), evt); err != nil {
				return err
			}
		}
	}
}
