package model

import (
	"sort"

	"ocabuild.dev/oca/internal/canon"
	"ocabuild.dev/oca/internal/digest"
)

// OverlayType is a stable overlay-type URI including a version, e.g.
// "spec/overlays/label/1.0". It determines the variant unambiguously.
type OverlayType string

const (
	OverlayCharacterEncoding OverlayType = "spec/overlays/character_encoding/1.0"
	OverlayFormat            OverlayType = "spec/overlays/format/1.0"
	OverlayUnit              OverlayType = "spec/overlays/unit/1.0"
	OverlayCardinality       OverlayType = "spec/overlays/cardinality/1.0"
	OverlayConformance       OverlayType = "spec/overlays/conformance/1.0"
	OverlayEntryCode         OverlayType = "spec/overlays/entry_code/1.0"
	OverlayEntry             OverlayType = "spec/overlays/entry/1.0"
	OverlayLabel             OverlayType = "spec/overlays/label/1.0"
	OverlayInformation       OverlayType = "spec/overlays/information/1.0"
	OverlayMeta              OverlayType = "spec/overlays/meta/1.0"
)

// perLanguage marks which overlay variants carry exactly one language
// tag; the rest are language-free.
var perLanguage = map[OverlayType]bool{
	OverlayEntry:       true,
	OverlayLabel:       true,
	OverlayInformation: true,
	OverlayMeta:        true,
}

// IsPerLanguage reports whether t's variant is per-language.
func IsPerLanguage(t OverlayType) bool { return perLanguage[t] }

// Header is the common envelope every overlay carries regardless of
// variant.
type Header struct {
	CaptureBaseDigest string      `json:"capture_base"`
	Type              OverlayType `json:"type"`
	Digest            string      `json:"digest"`
	Language          string      `json:"language,omitempty"`
}

// Overlay is the shared behavior of every overlay variant: digesting,
// attribute iteration, and header access for generic traversal of a
// bundle's overlay list; facet-specific access uses a type switch on
// the concrete variant.
type Overlay interface {
	OverlayHeader() *Header
	Attributes() []string
	ComputeDigest() (string, error)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func computeOverlayDigest(h *Header, full interface{}) (string, error) {
	d, err := digest.Compute(func(placeholder string) ([]byte, error) {
		saved := h.Digest
		h.Digest = placeholder
		defer func() { h.Digest = saved }()
		return canon.Marshal(full)
	})
	if err != nil {
		return "", err
	}
	h.Digest = d
	return d, nil
}

// CharacterEncodingOverlay carries an encoding tag per attribute, plus
// an optional default for attributes the overlay doesn't mention.
type CharacterEncodingOverlay struct {
	Header
	Default    *Encoding           `json:"default,omitempty"`
	Attributes_ map[string]Encoding `json:"attributes"`
}

func NewCharacterEncodingOverlay(captureBaseDigest string) *CharacterEncodingOverlay {
	return &CharacterEncodingOverlay{
		Header:      Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayCharacterEncoding},
		Attributes_: map[string]Encoding{},
	}
}
func (o *CharacterEncodingOverlay) Add(a *Attribute) {
	if a.Encoding != nil {
		o.Attributes_[a.Name] = *a.Encoding
	}
}
func (o *CharacterEncodingOverlay) OverlayHeader() *Header      { return &o.Header }
func (o *CharacterEncodingOverlay) Attributes() []string  { return sortedKeys(o.Attributes_) }
func (o *CharacterEncodingOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// FormatOverlay carries a format string per attribute.
type FormatOverlay struct {
	Header
	Attributes_ map[string]string `json:"attributes"`
}

func NewFormatOverlay(captureBaseDigest string) *FormatOverlay {
	return &FormatOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayFormat}, Attributes_: map[string]string{}}
}
func (o *FormatOverlay) Add(a *Attribute) {
	if a.Format != nil {
		o.Attributes_[a.Name] = *a.Format
	}
}
func (o *FormatOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *FormatOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *FormatOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// UnitOverlay carries a measurement system plus a unit per attribute.
type UnitOverlay struct {
	Header
	System      MeasurementSystem `json:"measurement_system"`
	Attributes_ map[string]string `json:"attributes"`
}

func NewUnitOverlay(captureBaseDigest string, system MeasurementSystem) *UnitOverlay {
	return &UnitOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayUnit}, System: system, Attributes_: map[string]string{}}
}
func (o *UnitOverlay) Add(a *Attribute) {
	if a.Unit != nil && a.Unit.System == o.System {
		o.Attributes_[a.Name] = a.Unit.Unit
	}
}
func (o *UnitOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *UnitOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *UnitOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// CardinalityOverlay carries a cardinality expression per attribute.
type CardinalityOverlay struct {
	Header
	Attributes_ map[string]string `json:"attributes"`
}

func NewCardinalityOverlay(captureBaseDigest string) *CardinalityOverlay {
	return &CardinalityOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayCardinality}, Attributes_: map[string]string{}}
}
func (o *CardinalityOverlay) Add(a *Attribute) {
	if a.Cardinality != nil {
		o.Attributes_[a.Name] = *a.Cardinality
	}
}
func (o *CardinalityOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *CardinalityOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *CardinalityOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// ConformanceOverlay carries a conformance marker per attribute.
type ConformanceOverlay struct {
	Header
	Attributes_ map[string]string `json:"attributes"`
}

func NewConformanceOverlay(captureBaseDigest string) *ConformanceOverlay {
	return &ConformanceOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayConformance}, Attributes_: map[string]string{}}
}
func (o *ConformanceOverlay) Add(a *Attribute) {
	if a.Conformance != nil {
		o.Attributes_[a.Name] = *a.Conformance
	}
}
func (o *ConformanceOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *ConformanceOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *ConformanceOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// EntryCodeOverlay carries, per attribute, either an inline ordered list
// of codes or a digest reference to another EntryCode overlay.
type EntryCodeOverlay struct {
	Header
	Attributes_ map[string]EntryCode `json:"attributes"`
}

func NewEntryCodeOverlay(captureBaseDigest string) *EntryCodeOverlay {
	return &EntryCodeOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayEntryCode}, Attributes_: map[string]EntryCode{}}
}
func (o *EntryCodeOverlay) Add(a *Attribute) {
	if a.EntryCode != nil {
		o.Attributes_[a.Name] = *a.EntryCode
	}
}
func (o *EntryCodeOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *EntryCodeOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *EntryCodeOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// EntryOverlay carries, per attribute and for one language, either an
// inline code->label map or a digest reference.
type EntryOverlay struct {
	Header
	Attributes_ map[string]Entry `json:"attributes"`
}

func NewEntryOverlay(captureBaseDigest, lang string) *EntryOverlay {
	return &EntryOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayEntry, Language: lang}, Attributes_: map[string]Entry{}}
}
func (o *EntryOverlay) Add(a *Attribute) {
	if e, ok := a.Entries[o.Language]; ok {
		o.Attributes_[a.Name] = e
	}
}
func (o *EntryOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *EntryOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *EntryOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// LabelOverlay carries, per attribute and for one language, a label string.
type LabelOverlay struct {
	Header
	Attributes_ map[string]string `json:"attributes"`
}

func NewLabelOverlay(captureBaseDigest, lang string) *LabelOverlay {
	return &LabelOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayLabel, Language: lang}, Attributes_: map[string]string{}}
}
func (o *LabelOverlay) Add(a *Attribute) {
	if l, ok := a.Labels[o.Language]; ok {
		o.Attributes_[a.Name] = l
	}
}
func (o *LabelOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *LabelOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *LabelOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// InformationOverlay carries, per attribute and for one language, a
// descriptive text string.
type InformationOverlay struct {
	Header
	Attributes_ map[string]string `json:"attributes"`
}

func NewInformationOverlay(captureBaseDigest, lang string) *InformationOverlay {
	return &InformationOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayInformation, Language: lang}, Attributes_: map[string]string{}}
}
func (o *InformationOverlay) Add(a *Attribute) {
	if i, ok := a.Information[o.Language]; ok {
		o.Attributes_[a.Name] = i
	}
}
func (o *InformationOverlay) OverlayHeader() *Header     { return &o.Header }
func (o *InformationOverlay) Attributes() []string { return sortedKeys(o.Attributes_) }
func (o *InformationOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// MetaOverlay carries free-form key/value pairs for one language; it has
// no notion of per-attribute payload.
type MetaOverlay struct {
	Header
	Pairs map[string]string `json:"pairs"`
}

func NewMetaOverlay(captureBaseDigest, lang string) *MetaOverlay {
	return &MetaOverlay{Header: Header{CaptureBaseDigest: captureBaseDigest, Type: OverlayMeta, Language: lang}, Pairs: map[string]string{}}
}
func (o *MetaOverlay) OverlayHeader() *Header        { return &o.Header }
func (o *MetaOverlay) Attributes() []string    { return nil }
func (o *MetaOverlay) ComputeDigest() (string, error) { return computeOverlayDigest(&o.Header, o) }

// compile-time interface checks.
var (
	_ Overlay = (*CharacterEncodingOverlay)(nil)
	_ Overlay = (*FormatOverlay)(nil)
	_ Overlay = (*UnitOverlay)(nil)
	_ Overlay = (*CardinalityOverlay)(nil)
	_ Overlay = (*ConformanceOverlay)(nil)
	_ Overlay = (*EntryCodeOverlay)(nil)
	_ Overlay = (*EntryOverlay)(nil)
	_ Overlay = (*LabelOverlay)(nil)
	_ Overlay = (*InformationOverlay)(nil)
	_ Overlay = (*MetaOverlay)(nil)
)

