/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"crypto/sha256"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/scoir/anoncreds/pkg/errs"
)

// MaxAttributes bounds the attributes of a schema.
const MaxAttributes = 125

// AttrCommonView normalizes an attribute name for comparison.
func AttrCommonView(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

// AttributeNames is the ordered attribute set of a schema.
type AttributeNames []string

// Validate requires a non-empty set without duplicates after normalization.
func (a AttributeNames) Validate() error {
	if len(a) == 0 {
		return errs.New(errs.Validation, "empty list of attribute names provided")
	}

	if len(a) > MaxAttributes {
		return errs.New(errs.Validation, "the number of attributes must not exceed %d", MaxAttributes)
	}

	seen := make(map[string]struct{}, len(a))
	for _, name := range a {
		cv := AttrCommonView(name)
		if cv == "" {
			return errs.New(errs.Validation, "attribute names must not be empty")
		}

		if _, ok := seen[cv]; ok {
			return errs.New(errs.Validation, "duplicate attribute name %q", name)
		}

		seen[cv] = struct{}{}
	}

	return nil
}

// CommonView returns the normalized names.
func (a AttributeNames) CommonView() []string {
	out := make([]string, len(a))
	for i, name := range a {
		out[i] = AttrCommonView(name)
	}

	return out
}

// AttributeValue is a raw value and its integer encoding.
type AttributeValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// CredentialValues maps attribute names to their values.
type CredentialValues map[string]AttributeValue

// MakeCredentialValues collects values, encoding raw ones on the way in.
type MakeCredentialValues struct {
	values CredentialValues
}

// NewCredentialValues starts an empty value set.
func NewCredentialValues() *MakeCredentialValues {
	return &MakeCredentialValues{values: CredentialValues{}}
}

// AddRaw adds raw under name with the standard encoding.
func (m *MakeCredentialValues) AddRaw(name string, raw interface{}) *MakeCredentialValues {
	m.values[name] = AttributeValue{Raw: rawString(raw), Encoded: EncodeValue(raw)}
	return m
}

// AddEncoded adds a value the caller already encoded. A verifier rejects a
// revealed value whose encoding differs from EncodeValue(raw).
func (m *MakeCredentialValues) AddEncoded(name, raw, encoded string) *MakeCredentialValues {
	m.values[name] = AttributeValue{Raw: raw, Encoded: encoded}
	return m
}

// Values returns the collected set.
func (m *MakeCredentialValues) Values() CredentialValues {
	out := make(CredentialValues, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}

	return out
}

// Names returns the attribute names in sorted order.
func (v CredentialValues) Names() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Get looks a value up by its common view.
func (v CredentialValues) Get(name string) (AttributeValue, bool) {
	if val, ok := v[name]; ok {
		return val, true
	}

	cv := AttrCommonView(name)
	for k, val := range v {
		if AttrCommonView(k) == cv {
			return val, true
		}
	}

	return AttributeValue{}, false
}

// Encoded parses every encoded value, keyed by common view.
func (v CredentialValues) Encoded() (map[string]*big.Int, error) {
	out := make(map[string]*big.Int, len(v))
	for name, val := range v {
		i, ok := new(big.Int).SetString(val.Encoded, 10)
		if !ok {
			return nil, errs.New(errs.Conversion, "attribute %s has an invalid encoded value", name)
		}

		out[AttrCommonView(name)] = i
	}

	return out, nil
}

// CheckSchema requires a raw and encoded value for every schema attribute
// and nothing else.
func (v CredentialValues) CheckSchema(names AttributeNames) error {
	if len(v) != len(names) {
		return errs.New(errs.Validation, "expected %d attribute values, got %d", len(names), len(v))
	}

	for _, name := range names {
		val, ok := v.Get(name)
		if !ok {
			return errs.New(errs.Validation, "missing value for attribute %s", name)
		}

		if val.Encoded == "" {
			return errs.New(errs.Validation, "attribute %s has no encoded value", name)
		}
	}

	return nil
}

// EncodeValue returns the integer encoding of raw. The raw value is first
// reduced to the string a credential carries for it; strings holding a 32 bit
// integer encode as that integer and everything else as the decimal SHA-256
// of the string. A revealed raw value therefore always re-encodes to the
// encoded value it was issued with.
func EncodeValue(raw interface{}) string {
	return encodeString(rawString(raw))
}

func encodeString(raw string) string {
	i, err := strconv.ParseInt(raw, 10, 64)
	if err == nil && i <= math.MaxInt32 && i >= math.MinInt32 {
		return strconv.FormatInt(i, 10)
	}

	return toEncodedNumber(raw)
}

func rawString(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == 0 {
			return "0.0"
		}

		return fmt.Sprintf("%f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toEncodedNumber(raw string) string {
	sh := sha256.Sum256([]byte(raw))
	return new(big.Int).SetBytes(sh[:]).String()
}
