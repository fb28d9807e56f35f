/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logfields

import (
	"go.uber.org/zap"
)

// Log Fields.
const (
	FieldCommand         = "command"
	FieldCredDefID       = "credDefID"
	FieldEvent           = "event"
	FieldIssuanceType    = "issuanceType"
	FieldMaxCredNum      = "maxCredNum"
	FieldReferent        = "referent"
	FieldRevocationIndex = "revocationIndex"
	FieldRevRegID        = "revRegID"
	FieldSchemaID        = "schemaID"
	FieldStore           = "store"
	FieldSubProofIndex   = "subProofIndex"
	FieldTailsLocation   = "tailsLocation"
	FieldTimestamp       = "timestamp"
	FieldUserLogLevel    = "userLogLevel"
)

// WithCommand sets the Command field.
func WithCommand(command string) zap.Field {
	return zap.String(FieldCommand, command)
}

// WithCredDefID sets the CredDefID field.
func WithCredDefID(id string) zap.Field {
	return zap.String(FieldCredDefID, id)
}

// WithEvent sets the Event field.
func WithEvent(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

// WithIssuanceType sets the IssuanceType field.
func WithIssuanceType(value string) zap.Field {
	return zap.String(FieldIssuanceType, value)
}

// WithMaxCredNum sets the MaxCredNum field.
func WithMaxCredNum(value uint32) zap.Field {
	return zap.Uint32(FieldMaxCredNum, value)
}

// WithReferent sets the Referent field.
func WithReferent(referent string) zap.Field {
	return zap.String(FieldReferent, referent)
}

// WithRevocationIndex sets the RevocationIndex field.
func WithRevocationIndex(idx uint32) zap.Field {
	return zap.Uint32(FieldRevocationIndex, idx)
}

// WithRevRegID sets the RevRegID field.
func WithRevRegID(id string) zap.Field {
	return zap.String(FieldRevRegID, id)
}

// WithSchemaID sets the SchemaID field.
func WithSchemaID(id string) zap.Field {
	return zap.String(FieldSchemaID, id)
}

// WithStore sets the Store field.
func WithStore(name string) zap.Field {
	return zap.String(FieldStore, name)
}

// WithSubProofIndex sets the SubProofIndex field.
func WithSubProofIndex(idx int) zap.Field {
	return zap.Int(FieldSubProofIndex, idx)
}

// WithTailsLocation sets the TailsLocation field.
func WithTailsLocation(location string) zap.Field {
	return zap.String(FieldTailsLocation, location)
}

// WithTimestamp sets the Timestamp field.
func WithTimestamp(ts uint64) zap.Field {
	return zap.Uint64(FieldTimestamp, ts)
}

// WithUserLogLevel sets the UserLogLevel field.
func WithUserLogLevel(userLogLevel string) zap.Field {
	return zap.String(FieldUserLogLevel, userLogLevel)
}
