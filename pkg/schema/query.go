/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package schema

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/scoir/anoncreds/pkg/errs"
)

// Restriction tag names.
const (
	TagSchemaID        = "schema_id"
	TagSchemaIssuerDID = "schema_issuer_did"
	TagSchemaName      = "schema_name"
	TagSchemaVersion   = "schema_version"
	TagIssuerDID       = "issuer_did"
	TagCredDefID       = "cred_def_id"
	TagRevRegID        = "rev_reg_id"
)

type queryOp int

const (
	opAnd queryOp = iota
	opOr
	opNot
	opEq
	opNeq
	opIn
)

// Query is a WQL restriction over credential tags.
type Query struct {
	op     queryOp
	key    string
	values []string
	subs   []*Query
}

// Eq matches tags whose key equals value.
func Eq(key, value string) *Query {
	return &Query{op: opEq, key: key, values: []string{value}}
}

// Neq matches tags whose key is present and differs from value.
func Neq(key, value string) *Query {
	return &Query{op: opNeq, key: key, values: []string{value}}
}

// In matches tags whose key equals one of values.
func In(key string, values ...string) *Query {
	return &Query{op: opIn, key: key, values: values}
}

// And matches when every sub-query matches.
func And(subs ...*Query) *Query {
	return &Query{op: opAnd, subs: subs}
}

// Or matches when any sub-query matches.
func Or(subs ...*Query) *Query {
	return &Query{op: opOr, subs: subs}
}

// Not negates q.
func Not(q *Query) *Query {
	return &Query{op: opNot, subs: []*Query{q}}
}

// AttrValueTag is the tag holding the raw value of an attribute.
func AttrValueTag(name string) string {
	return "attr::" + AttrCommonView(name) + "::value"
}

// AttrMarkerTag is the tag marking that a credential has an attribute.
func AttrMarkerTag(name string) string {
	return "attr::" + AttrCommonView(name) + "::marker"
}

// Tags are the values restrictions are evaluated against.
type Tags map[string]string

func (t Tags) get(key string) (string, bool) {
	v, ok := t[normalizeTagKey(key)]
	return v, ok
}

func normalizeTagKey(key string) string {
	if !strings.HasPrefix(key, "attr::") {
		return key
	}

	rest := strings.TrimPrefix(key, "attr::")
	for _, suffix := range []string{"::value", "::marker"} {
		if strings.HasSuffix(rest, suffix) {
			return "attr::" + AttrCommonView(strings.TrimSuffix(rest, suffix)) + suffix
		}
	}

	return key
}

// Match evaluates the query against tags. An empty query matches anything.
func (q *Query) Match(tags Tags) bool {
	if q == nil {
		return true
	}

	switch q.op {
	case opAnd:
		for _, s := range q.subs {
			if !s.Match(tags) {
				return false
			}
		}

		return true
	case opOr:
		for _, s := range q.subs {
			if s.Match(tags) {
				return true
			}
		}

		return false
	case opNot:
		return !q.subs[0].Match(tags)
	case opEq:
		v, ok := tags.get(q.key)
		return ok && v == q.values[0]
	case opNeq:
		v, ok := tags.get(q.key)
		return ok && v != q.values[0]
	case opIn:
		v, ok := tags.get(q.key)
		if !ok {
			return false
		}

		for _, want := range q.values {
			if v == want {
				return true
			}
		}

		return false
	}

	return false
}

// Keys returns the tag keys referenced by the query.
func (q *Query) Keys() []string {
	if q == nil {
		return nil
	}

	seen := map[string]struct{}{}
	q.collectKeys(seen)

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

func (q *Query) collectKeys(seen map[string]struct{}) {
	if q.key != "" {
		seen[q.key] = struct{}{}
	}

	for _, s := range q.subs {
		s.collectKeys(seen)
	}
}

func (q *Query) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.toJSON())
}

func (q *Query) toJSON() interface{} {
	switch q.op {
	case opAnd, opOr:
		subs := make([]interface{}, len(q.subs))
		for i, s := range q.subs {
			subs[i] = s.toJSON()
		}

		if q.op == opAnd {
			return map[string]interface{}{"$and": subs}
		}

		return map[string]interface{}{"$or": subs}
	case opNot:
		return map[string]interface{}{"$not": q.subs[0].toJSON()}
	case opEq:
		return map[string]interface{}{q.key: q.values[0]}
	case opNeq:
		return map[string]interface{}{q.key: map[string]string{"$neq": q.values[0]}}
	default:
		return map[string]interface{}{q.key: map[string][]string{"$in": q.values}}
	}
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.Conversion, err, "invalid restriction json")
	}

	parsed, err := parseQuery(raw)
	if err != nil {
		return err
	}

	*q = *parsed

	return nil
}

func parseQuery(raw interface{}) (*Query, error) {
	switch v := raw.(type) {
	case []interface{}:
		subs, err := parseQueries(v)
		if err != nil {
			return nil, err
		}

		return Or(subs...), nil
	case map[string]interface{}:
		return parseObject(v)
	default:
		return nil, errs.New(errs.Conversion, "restriction must be an object or an array")
	}
}

func parseQueries(raw []interface{}) ([]*Query, error) {
	out := make([]*Query, 0, len(raw))
	for _, r := range raw {
		q, err := parseQuery(r)
		if err != nil {
			return nil, err
		}

		out = append(out, q)
	}

	return out, nil
}

func parseObject(obj map[string]interface{}) (*Query, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	subs := make([]*Query, 0, len(keys))

	for _, key := range keys {
		q, err := parseOperator(key, obj[key])
		if err != nil {
			return nil, err
		}

		subs = append(subs, q)
	}

	if len(subs) == 1 {
		return subs[0], nil
	}

	return And(subs...), nil
}

func parseOperator(key string, val interface{}) (*Query, error) {
	switch key {
	case "$and", "$or":
		list, ok := val.([]interface{})
		if !ok {
			return nil, errs.New(errs.Conversion, "%s expects an array", key)
		}

		subs, err := parseQueries(list)
		if err != nil {
			return nil, err
		}

		if key == "$and" {
			return And(subs...), nil
		}

		return Or(subs...), nil
	case "$not":
		sub, err := parseQuery(val)
		if err != nil {
			return nil, err
		}

		return Not(sub), nil
	}

	if strings.HasPrefix(key, "$") {
		return nil, errs.New(errs.Conversion, "unsupported restriction operator %s", key)
	}

	switch v := val.(type) {
	case string:
		return Eq(key, v), nil
	case map[string]interface{}:
		return parseComparison(key, v)
	default:
		return nil, errs.New(errs.Conversion, "restriction value for %s must be a string", key)
	}
}

func parseComparison(key string, cmp map[string]interface{}) (*Query, error) {
	if len(cmp) != 1 {
		return nil, errs.New(errs.Conversion, "restriction for %s must have a single operator", key)
	}

	for op, val := range cmp {
		switch op {
		case "$neq":
			s, ok := val.(string)
			if !ok {
				return nil, errs.New(errs.Conversion, "$neq expects a string")
			}

			return Neq(key, s), nil
		case "$in":
			list, ok := val.([]interface{})
			if !ok {
				return nil, errs.New(errs.Conversion, "$in expects an array")
			}

			values := make([]string, len(list))
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, errs.New(errs.Conversion, "$in expects an array of strings")
				}

				values[i] = s
			}

			return In(key, values...), nil
		default:
			return nil, errs.New(errs.Conversion, "unsupported restriction operator %s", op)
		}
	}

	return nil, errs.New(errs.Conversion, "empty restriction for %s", key)
}
