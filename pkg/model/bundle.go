package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"ocabuild.dev/oca/internal/canon"
	"ocabuild.dev/oca/internal/digest"
	"ocabuild.dev/oca/internal/ocaerr"
)

// OCABundle is a capture base plus its overlays, bound together and
// identified by a bundle digest.
type OCABundle struct {
	CaptureBase *CaptureBase `json:"capture_base"`
	Overlays    []Overlay    `json:"overlays"`
	Digest      string       `json:"digest"`
}

// UnmarshalJSON restores a bundle read back from storage: it decodes
// the overlay list generically first, reads each element's type URI
// from its header, and dispatches to the matching concrete overlay
// type.
func (b *OCABundle) UnmarshalJSON(data []byte) error {
	var raw struct {
		CaptureBase *CaptureBase      `json:"capture_base"`
		Overlays    []json.RawMessage `json:"overlays"`
		Digest      string            `json:"digest"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	overlays := make([]Overlay, 0, len(raw.Overlays))
	for _, msg := range raw.Overlays {
		var h Header
		if err := json.Unmarshal(msg, &h); err != nil {
			return fmt.Errorf("oca bundle: overlay header: %w", err)
		}
		ov, err := newOverlayForType(h.Type)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(msg, ov); err != nil {
			return fmt.Errorf("oca bundle: overlay %s: %w", h.Type, err)
		}
		overlays = append(overlays, ov)
	}
	b.CaptureBase = raw.CaptureBase
	b.Overlays = overlays
	b.Digest = raw.Digest
	return nil
}

func newOverlayForType(t OverlayType) (Overlay, error) {
	switch t {
	case OverlayCharacterEncoding:
		return &CharacterEncodingOverlay{}, nil
	case OverlayFormat:
		return &FormatOverlay{}, nil
	case OverlayUnit:
		return &UnitOverlay{}, nil
	case OverlayCardinality:
		return &CardinalityOverlay{}, nil
	case OverlayConformance:
		return &ConformanceOverlay{}, nil
	case OverlayEntryCode:
		return &EntryCodeOverlay{}, nil
	case OverlayEntry:
		return &EntryOverlay{}, nil
	case OverlayLabel:
		return &LabelOverlay{}, nil
	case OverlayInformation:
		return &InformationOverlay{}, nil
	case OverlayMeta:
		return &MetaOverlay{}, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized overlay type %q", ocaerr.ErrMalformedHistory, t)
	}
}

// SortOverlays orders overlays by (overlay-type URI, language tag)
// ascending, the ordering that is part of the digest contract.
func SortOverlays(overlays []Overlay) {
	sort.SliceStable(overlays, func(i, j int) bool {
		hi, hj := overlays[i].OverlayHeader(), overlays[j].OverlayHeader()
		if hi.Type != hj.Type {
			return hi.Type < hj.Type
		}
		return hi.Language < hj.Language
	})
}

// ComputeDigest computes the bundle digest over b's canonical
// serialization via the placeholder protocol. It assumes the capture
// base and every overlay already carry correct digests; callers that
// mutate b should recompute those first.
func (b *OCABundle) ComputeDigest() (string, error) {
	d, err := digest.Compute(func(placeholder string) ([]byte, error) {
		saved := b.Digest
		b.Digest = placeholder
		defer func() { b.Digest = saved }()
		return canon.Marshal(b)
	})
	if err != nil {
		return "", err
	}
	b.Digest = d
	return d, nil
}

// Validate checks the cross-object invariants every bundle must hold:
// every overlay references the current capture-base digest, every
// attribute an overlay mentions is declared on the capture base, and
// per-language overlays carry exactly one language while language-free
// overlays carry none.
func (b *OCABundle) Validate() error {
	for _, ov := range b.Overlays {
		h := ov.OverlayHeader()
		if h.CaptureBaseDigest != b.CaptureBase.Digest {
			return fmt.Errorf("overlay %s: capture_base digest %q does not match bundle capture base %q",
				h.Type, h.CaptureBaseDigest, b.CaptureBase.Digest)
		}
		if IsPerLanguage(h.Type) && h.Language == "" {
			return fmt.Errorf("overlay %s: per-language variant missing a language tag", h.Type)
		}
		if !IsPerLanguage(h.Type) && h.Language != "" {
			return fmt.Errorf("overlay %s: language-free variant carries language %q", h.Type, h.Language)
		}
		for _, name := range ov.Attributes() {
			if !b.CaptureBase.HasAttribute(name) {
				return fmt.Errorf("%w: overlay %s references %q", ocaerr.ErrUndefinedAttribute, h.Type, name)
			}
		}
	}
	for _, name := range b.CaptureBase.PII {
		if !b.CaptureBase.HasAttribute(name) {
			return fmt.Errorf("pii list references undeclared attribute %q", name)
		}
	}
	return nil
}
