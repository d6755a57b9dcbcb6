// Package policy models S3 bucket policy documents.
//
// Policy JSON is forgiving about shapes: Action and Resource may be a
// single string or an array, and Principal may be the string "*" or an
// object keyed by provider. Parsing normalizes all of these so documents
// can be compared for equivalence regardless of how they were written.
// Unknown fields are rejected outright so no part of a document can be
// dropped without the operator noticing.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Document is a parsed bucket policy.
type Document struct {
	ID        string      `json:"Id,omitempty"`
	Version   string      `json:"Version" validate:"required"`
	Statement []Statement `json:"Statement" validate:"required,min=1,dive"`
}

// Statement is a single policy statement. Every field of the policy
// grammar is represented; Parse fails on fields outside this set.
type Statement struct {
	Sid          string     `json:"Sid,omitempty"`
	Effect       string     `json:"Effect" validate:"required,oneof=Allow Deny"`
	Principal    *Principal `json:"Principal,omitempty"`
	NotPrincipal *Principal `json:"NotPrincipal,omitempty"`
	Action       StringList `json:"Action,omitempty" validate:"required_without=NotAction,omitempty,min=1"`
	NotAction    StringList `json:"NotAction,omitempty"`
	Resource     StringList `json:"Resource,omitempty" validate:"required_without=NotResource,omitempty,min=1"`
	NotResource  StringList `json:"NotResource,omitempty"`
	Condition    Condition  `json:"Condition,omitempty"`
}

// Principal identifies who a statement applies to. The wire format is
// either the string "*" or an object keyed by provider type.
type Principal struct {
	AWS           StringList `json:"AWS,omitempty"`
	Service       StringList `json:"Service,omitempty"`
	Federated     StringList `json:"Federated,omitempty"`
	CanonicalUser StringList `json:"CanonicalUser,omitempty"`
}

// UnmarshalJSON accepts both the bare "*" string form and the object
// form. Provider keys outside the grammar are an error, not dropped.
func (p *Principal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "*" {
			return fmt.Errorf("unsupported principal %q", s)
		}
		p.AWS = StringList{"*"}
		return nil
	}

	type principalObject Principal
	var obj principalObject
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("invalid principal: %w", err)
	}
	*p = Principal(obj)
	return nil
}

// MarshalJSON always emits the object form so canonical output is stable.
func (p *Principal) MarshalJSON() ([]byte, error) {
	type principalObject Principal
	return json.Marshal(principalObject(*p))
}

// StringList is a string or array of strings on the wire, always a slice
// in memory.
type StringList []string

// UnmarshalJSON accepts a bare string or an array of strings.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{s}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("expected string or string array: %w", err)
	}
	*l = StringList(items)
	return nil
}

// Condition is a statement's condition block, kept verbatim. Operators
// and keys are not interpreted; decoding through generic maps normalizes
// whitespace and key order for canonical comparison.
type Condition map[string]any

var validate = validator.New()

// Parse unmarshals and validates a policy document. Unknown fields
// anywhere in the document fail parsing. A document that fails either
// step is permanently malformed; retrying will not change the result.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid policy JSON: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("policy failed schema validation: %w", err)
	}
	return &doc, nil
}

// Canonical returns the normalized JSON encoding of the document. Two
// documents that differ only in whitespace, key order, or string-vs-array
// shape canonicalize identically. The canonical form is for comparison
// only; the document attached to a bucket is always the one configured.
func (d *Document) Canonical() ([]byte, error) {
	return json.Marshal(d)
}

// HasWildcardPrincipal reports whether any statement grants access to the
// anonymous principal "*". Such policies are applied as given but flagged
// for operator review.
func (d *Document) HasWildcardPrincipal() bool {
	for _, stmt := range d.Statement {
		if stmt.Principal == nil {
			continue
		}
		for _, p := range stmt.Principal.AWS {
			if p == "*" {
				return true
			}
		}
	}
	return false
}

// Equivalent reports whether two raw policy documents describe the same
// policy. Documents that fail to parse are never equivalent to anything.
func Equivalent(a, b []byte) bool {
	docA, err := Parse(a)
	if err != nil {
		return false
	}
	docB, err := Parse(b)
	if err != nil {
		return false
	}

	canonA, err := docA.Canonical()
	if err != nil {
		return false
	}
	canonB, err := docB.Canonical()
	if err != nil {
		return false
	}
	return string(canonA) == string(canonB)
}
