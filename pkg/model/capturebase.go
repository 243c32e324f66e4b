package model

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"ocabuild.dev/oca/internal/canon"
	"ocabuild.dev/oca/internal/digest"
	"ocabuild.dev/oca/internal/ocaerr"
)

// CaptureBase is the structural, language-neutral core of a schema.
// Attributes preserves insertion order: the order attributes were
// declared in is part of the digest contract.
type CaptureBase struct {
	Classification string                            `json:"classification"`
	Attributes     *orderedmap.OrderedMap[string, Type] `json:"attributes"`
	PII            []string                          `json:"pii"`
	Digest         string                            `json:"digest"`
}

// NewCaptureBase returns an empty capture base ready for attributes to
// be added to it.
func NewCaptureBase() *CaptureBase {
	return &CaptureBase{
		Attributes: orderedmap.New[string, Type](),
	}
}

// AddAttribute inserts name into the ordered attribute map.
// Re-declaring an existing name with a different type fails with
// AttributeRedefined; re-declaring it with the same type keeps the
// existing entry and its position, and adds name to the PII list when
// pii is set. Every successful call clears Digest.
func (cb *CaptureBase) AddAttribute(name string, typ Type, pii bool) error {
	if existing, ok := cb.Attributes.Get(name); ok {
		if existing.String() != typ.String() {
			return fmt.Errorf("%w: %q already declared as %s, cannot redeclare as %s",
				ocaerr.ErrAttributeRedefined, name, existing, typ)
		}
	} else {
		cb.Attributes.Set(name, typ)
	}
	if pii {
		cb.addPII(name)
	}
	cb.Digest = ""
	return nil
}

func (cb *CaptureBase) addPII(name string) {
	for _, n := range cb.PII {
		if n == name {
			return
		}
	}
	cb.PII = append(cb.PII, name)
}

// SetClassification sets the capture base's classification string.
func (cb *CaptureBase) SetClassification(s string) {
	cb.Classification = s
	cb.Digest = ""
}

// HasAttribute reports whether name was declared on this capture base.
func (cb *CaptureBase) HasAttribute(name string) bool {
	_, ok := cb.Attributes.Get(name)
	return ok
}

// ComputeDigest runs the placeholder protocol over cb's canonical
// serialization and stores the result; it is lazily recomputed whenever
// cb is mutated.
func (cb *CaptureBase) ComputeDigest() (string, error) {
	d, err := digest.Compute(func(placeholder string) ([]byte, error) {
		saved := cb.Digest
		cb.Digest = placeholder
		defer func() { cb.Digest = saved }()
		return canon.Marshal(cb)
	})
	if err != nil {
		return "", err
	}
	cb.Digest = d
	return d, nil
}
