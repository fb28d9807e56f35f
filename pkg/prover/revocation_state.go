/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prover

import (
	"github.com/scoir/anoncreds/internal/logfields"
	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/errs"
	"github.com/scoir/anoncreds/pkg/revocation"
	"github.com/scoir/anoncreds/pkg/schema"
)

// CreateOrUpdateRevocationState computes the witness of revIdx against
// statusList. When a previous state and the status list it was computed
// against are given, the witness is moved forward by the difference of the
// two lists instead of being rebuilt.
func CreateOrUpdateRevocationState(revRegDef *schema.RevocationRegistryDefinition,
	statusList *schema.RevocationStatusList, revIdx uint32, tails accumulator.Tails, prevState *schema.RevocationState,
	prevStatusList *schema.RevocationStatusList) (*schema.RevocationState, error) {
	if revRegDef == nil || statusList == nil {
		return nil, errs.New(errs.Validation, "revocation registry definition and status list are required")
	}

	if statusList.Timestamp == nil {
		return nil, errs.New(errs.Validation, "status list has no timestamp")
	}

	if statusList.CurrentAccumulator == nil {
		return nil, errs.New(errs.Validation, "status list has no accumulator")
	}

	if statusList.IsRevoked(revIdx) {
		return nil, errs.New(errs.Validation, "credential %d is revoked in the status list", revIdx)
	}

	size := revRegDef.Value.MaxCredNum

	var (
		w   *accumulator.Witness
		err error
	)

	if prevState != nil && prevStatusList != nil {
		if err := prevState.Validate(); err != nil {
			return nil, err
		}

		issued, revoked, err := revocation.Delta(prevStatusList, statusList)
		if err != nil {
			return nil, errs.Wrap(errs.Validation, err, "unable to compare status lists")
		}

		w, err = prevState.Witness.Update(tails, size, revIdx, issued, revoked)
		if err != nil {
			return nil, errs.Wrap(errs.Validation, err, "unable to update witness")
		}
	} else {
		w, err = accumulator.NewWitness(tails, size, revIdx, statusList.Issued())
		if err != nil {
			return nil, errs.Wrap(errs.Validation, err, "unable to compute witness")
		}
	}

	logger.Debug("revocation state computed", logfields.WithRevRegID(string(statusList.RevRegDefID)),
		logfields.WithRevocationIndex(revIdx), logfields.WithTimestamp(*statusList.Timestamp))

	return &schema.RevocationState{
		Witness:   w,
		RevReg:    *statusList.CurrentAccumulator,
		Timestamp: *statusList.Timestamp,
	}, nil
}
