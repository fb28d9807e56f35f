/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logfields

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/logutil-go/pkg/log"
)

func TestStandardFields(t *testing.T) {
	const module = "test_module"

	t.Run("json fields", func(t *testing.T) {
		stdOut := newMockWriter()

		logger := log.New(module, log.WithStdOut(stdOut), log.WithEncoding(log.JSON))

		logger.Info(
			"Some message",
			WithCommand("revoke"),
			WithCredDefID("NcYxiDXkpYi6ov5FcYDi1e:3:CL:1:tag"),
			WithEvent("revoked"),
			WithIssuanceType("ISSUANCE_ON_DEMAND"),
			WithMaxCredNum(100),
			WithReferent("attr1_referent"),
			WithRevocationIndex(3),
			WithRevRegID("rev-reg"),
			WithSchemaID("NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0"),
			WithStore("registry"),
			WithSubProofIndex(1),
			WithTailsLocation("/tmp/tails"),
			WithTimestamp(1700000000),
			WithUserLogLevel("INFO"),
		)

		l := &logData{}
		require.NoError(t, json.Unmarshal(stdOut.Bytes(), l))

		require.Equal(t, "revoke", l.Command)
		require.Equal(t, "NcYxiDXkpYi6ov5FcYDi1e:3:CL:1:tag", l.CredDefID)
		require.Equal(t, "revoked", l.Event)
		require.Equal(t, "ISSUANCE_ON_DEMAND", l.IssuanceType)
		require.Equal(t, uint32(100), l.MaxCredNum)
		require.Equal(t, "attr1_referent", l.Referent)
		require.Equal(t, uint32(3), l.RevocationIndex)
		require.Equal(t, "rev-reg", l.RevRegID)
		require.Equal(t, "NcYxiDXkpYi6ov5FcYDi1e:2:gvt:1.0", l.SchemaID)
		require.Equal(t, "registry", l.Store)
		require.Equal(t, 1, l.SubProofIndex)
		require.Equal(t, "/tmp/tails", l.TailsLocation)
		require.Equal(t, uint64(1700000000), l.Timestamp)
		require.Equal(t, "INFO", l.UserLogLevel)
	})
}

type logData struct {
	Level  string `json:"level"`
	Logger string `json:"logger"`
	Msg    string `json:"msg"`

	Command         string `json:"command"`
	CredDefID       string `json:"credDefID"`
	Event           string `json:"event"`
	IssuanceType    string `json:"issuanceType"`
	MaxCredNum      uint32 `json:"maxCredNum"`
	Referent        string `json:"referent"`
	RevocationIndex uint32 `json:"revocationIndex"`
	RevRegID        string `json:"revRegID"`
	SchemaID        string `json:"schemaID"`
	Store           string `json:"store"`
	SubProofIndex   int    `json:"subProofIndex"`
	TailsLocation   string `json:"tailsLocation"`
	Timestamp       uint64 `json:"timestamp"`
	UserLogLevel    string `json:"userLogLevel"`
}

type mockWriter struct {
	*bytes.Buffer
}

func (m *mockWriter) Sync() error {
	return nil
}

func newMockWriter() *mockWriter {
	return &mockWriter{Buffer: bytes.NewBuffer(nil)}
}
