/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revocation

import (
	"github.com/pkg/errors"

	"github.com/scoir/anoncreds/pkg/accumulator"
	"github.com/scoir/anoncreds/pkg/schema"
)

// NewStatusList builds the first status list of a registry. Under
// ISSUANCE_BY_DEFAULT every index starts issued, under ISSUANCE_ON_DEMAND
// every index starts revoked.
func NewStatusList(id schema.RevocationRegistryID, def *schema.RevocationRegistryDefinition, tails accumulator.Tails,
	ts *uint64) (*schema.RevocationStatusList, error) {
	if def == nil {
		return nil, errors.New("revocation registry definition is required")
	}

	size := def.Value.MaxCredNum
	list := make(schema.RevocationList, size)

	var acc accumulator.PointG2

	switch def.Value.IssuanceType {
	case schema.IssuanceByDefault:
		all := make([]uint32, size)
		for i := range all {
			all[i] = uint32(i + 1)
		}

		var err error

		acc, err = accumulator.Accumulate(tails, size, all)
		if err != nil {
			return nil, errors.Wrap(err, "unable to compute the initial accumulator")
		}
	case schema.IssuanceOnDemand:
		for i := range list {
			list[i] = true
		}
	default:
		return nil, errors.Errorf("unknown issuance type %q", def.Value.IssuanceType)
	}

	out := &schema.RevocationStatusList{
		RevRegDefID:        id,
		IssuerID:           def.IssuerID,
		RevocationList:     list,
		CurrentAccumulator: &acc,
	}

	if ts != nil {
		t := *ts
		out.Timestamp = &t
	}

	return out, nil
}

// UpdateStatusList returns a new list with issued indices added to and
// revoked indices removed from the accumulator. Indices already in the
// requested state are left alone. current is not modified.
func UpdateStatusList(def *schema.RevocationRegistryDefinition, tails accumulator.Tails,
	current *schema.RevocationStatusList, issued, revoked []uint32, ts *uint64) (*schema.RevocationStatusList, error) {
	if def == nil || current == nil {
		return nil, errors.New("revocation registry definition and status list are required")
	}

	if current.CurrentAccumulator == nil {
		return nil, errors.New("status list has no accumulator")
	}

	size := def.Value.MaxCredNum
	if uint32(len(current.RevocationList)) != size {
		return nil, errors.Errorf("status list has %d entries, registry holds %d", len(current.RevocationList), size)
	}

	seen := map[uint32]struct{}{}
	for _, idx := range issued {
		seen[idx] = struct{}{}
	}

	for _, idx := range revoked {
		if _, ok := seen[idx]; ok {
			return nil, errors.Errorf("index %d cannot be issued and revoked together", idx)
		}
	}

	out := current.Copy()
	acc := *out.CurrentAccumulator

	for _, idx := range issued {
		if idx == 0 || idx > size {
			return nil, errors.Errorf("revocation index %d is outside 1..%d", idx, size)
		}

		if !out.RevocationList[idx-1] {
			continue
		}

		next, err := accumulator.AddIndex(acc, tails, size, idx)
		if err != nil {
			return nil, err
		}

		acc = next
		out.RevocationList[idx-1] = false
	}

	for _, idx := range revoked {
		if idx == 0 || idx > size {
			return nil, errors.Errorf("revocation index %d is outside 1..%d", idx, size)
		}

		if out.RevocationList[idx-1] {
			continue
		}

		next, err := accumulator.RemoveIndex(acc, tails, size, idx)
		if err != nil {
			return nil, err
		}

		acc = next
		out.RevocationList[idx-1] = true
	}

	out.CurrentAccumulator = &acc

	if ts != nil {
		t := *ts
		out.Timestamp = &t
	}

	return out, nil
}

// UpdateTimestamp returns a copy of list stamped with ts.
func UpdateTimestamp(list *schema.RevocationStatusList, ts uint64) *schema.RevocationStatusList {
	out := list.Copy()
	out.Timestamp = &ts

	return out
}

// WitnessFor computes the witness of idx against list.
func WitnessFor(def *schema.RevocationRegistryDefinition, tails accumulator.Tails, list *schema.RevocationStatusList,
	idx uint32) (*accumulator.Witness, error) {
	if list.IsRevoked(idx) {
		return nil, errors.Errorf("revocation index %d is not issued in the status list", idx)
	}

	return accumulator.NewWitness(tails, def.Value.MaxCredNum, idx, list.Issued())
}

// Delta lists the indices issued and revoked between two status lists of
// the same registry.
func Delta(from, to *schema.RevocationStatusList) (issued, revoked []uint32, err error) {
	if len(from.RevocationList) != len(to.RevocationList) {
		return nil, nil, errors.New("status lists belong to registries of different size")
	}

	for i := range to.RevocationList {
		switch {
		case from.RevocationList[i] && !to.RevocationList[i]:
			issued = append(issued, uint32(i+1))
		case !from.RevocationList[i] && to.RevocationList[i]:
			revoked = append(revoked, uint32(i+1))
		}
	}

	return issued, revoked, nil
}
