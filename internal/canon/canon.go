// Package canon implements the canonical serialization rules this
// module's digests depend on: UTF-8 JSON, key order equal to insertion
// order for semantic containers, lexicographic order for derived maps,
// strings unescaped unless required, and numbers in minimal decimal
// form.
//
// Two entry points exist because the rule is not uniform across the
// model. Fixed-shape values (CaptureBase, Overlay, OCABundle and their
// fields) have a semantic, meaningful field/insertion order that must
// survive into the digest -- Marshal preserves it by relying on Go
// struct-field order and on ordered-map wrapper types for the few maps
// whose insertion order is part of the contract (attribute declaration
// order, DSL content.attributes); plain Go maps inside those values
// (DSL content.properties, per-language meta key/values, overlay
// payloads) come out with their keys sorted, as encoding/json always
// sorts map keys. MarshalFreeform is the second entry point, for
// free-form trees with no ordering contract of their own: it runs them
// through RFC 8785 JSON Canonicalization, which sorts every object key
// lexicographically and applies the same minimal-number and escaping
// rules. The model and the history writer serialize through Marshal.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Marshal serializes v as canonical JSON, preserving the field and
// insertion order v's own types already guarantee.
func Marshal(v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canon: marshal: %w", err)
	}
	// json.Encoder.Encode always appends a trailing newline; the digest
	// must be computed over a stable byte sequence so it is trimmed.
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return out, nil
}

// MarshalFreeform serializes v (ordinarily a map[string]any / []any tree
// decoded from DSL "nested" values) as RFC 8785 canonical JSON: every
// object key is sorted, independent of the order it was supplied in,
// because free-form properties and meta values carry no ordering
// contract of their own.
func MarshalFreeform(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshal freeform: %w", err)
	}
	out, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canon: canonicalize freeform: %w", err)
	}
	return out, nil
}
