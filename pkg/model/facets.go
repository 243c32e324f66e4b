package model

import (
	"fmt"
	"regexp"

	"ocabuild.dev/oca/internal/ocaerr"
)

// Encoding is the character-encoding tag recognized by the
// CharacterEncoding overlay.
type Encoding string

const (
	EncodingUTF8      Encoding = "utf-8"
	EncodingASCII     Encoding = "ascii"
	EncodingISO88591  Encoding = "iso-8859-1"
	EncodingUTF16     Encoding = "utf-16"
	EncodingUTF16BE   Encoding = "utf-16be"
	EncodingUTF16LE   Encoding = "utf-16le"
	DefaultEncoding            = EncodingUTF8
)

var validEncodings = map[Encoding]bool{
	EncodingUTF8:     true,
	EncodingASCII:    true,
	EncodingISO88591: true,
	EncodingUTF16:    true,
	EncodingUTF16BE:  true,
	EncodingUTF16LE:  true,
}

// ParseEncoding validates tag against the recognized encoding enum,
// rejecting anything unrecognized with ErrUnknownEncoding.
func ParseEncoding(tag string) (Encoding, error) {
	e := Encoding(tag)
	if !validEncodings[e] {
		return "", fmt.Errorf("%w: %q", ocaerr.ErrUnknownEncoding, tag)
	}
	return e, nil
}

// MeasurementSystem is the unit system a Unit overlay's units are drawn
// from.
type MeasurementSystem string

const (
	Metric   MeasurementSystem = "metric"
	Imperial MeasurementSystem = "imperial"
)

// measurementSystemAliases maps the DSL's "ADD UNIT <system>" tokens
// onto the canonical MeasurementSystem values stored in a bundle.
var measurementSystemAliases = map[string]MeasurementSystem{
	"si":       Metric,
	"metric":   Metric,
	"imperial": Imperial,
	"us":       Imperial,
}

// ParseMeasurementSystem validates and normalizes a unit-system token,
// rejecting anything unrecognized with ErrUnknownMeasurementSystem.
func ParseMeasurementSystem(token string) (MeasurementSystem, error) {
	sys, ok := measurementSystemAliases[token]
	if !ok {
		return "", fmt.Errorf("%w: %q", ocaerr.ErrUnknownMeasurementSystem, token)
	}
	return sys, nil
}

// unitEnums lists the units each MeasurementSystem accepts; membership
// in the right set is what ParseUnit checks.
var unitEnums = map[MeasurementSystem]map[string]bool{
	Metric: {
		"mm": true, "cm": true, "m": true, "km": true,
		"mg": true, "g": true, "kg": true,
		"ml": true, "l": true,
		"celsius": true,
	},
	Imperial: {
		"in": true, "ft": true, "yd": true, "mi": true,
		"oz": true, "lb": true,
		"gal": true,
		"fahrenheit": true,
	},
}

// Unit is the {system, unit} pair stamped on an attribute by the Unit
// overlay.
type Unit struct {
	System MeasurementSystem `json:"measurement_system"`
	Unit   string             `json:"unit"`
}

// ParseUnit validates unit against system's enum, rejecting anything
// not in it with ErrInvalidUnit.
func ParseUnit(system MeasurementSystem, unit string) (Unit, error) {
	if !unitEnums[system][unit] {
		return Unit{}, fmt.Errorf("%w: %q is not a valid %s unit", ocaerr.ErrInvalidUnit, unit, system)
	}
	return Unit{System: system, Unit: unit}, nil
}

// cardinalityPattern matches the recognized cardinality shapes: an
// exact count ("1"), or a "low-high" range where high may be "n" for
// unbounded ("0-1", "1-n", "0-n").
var cardinalityPattern = regexp.MustCompile(`^(0|[1-9][0-9]*)(-([1-9][0-9]*|n))?$`)

// ValidateCardinality reports whether s has one of the recognized
// cardinality shapes.
func ValidateCardinality(s string) error {
	if !cardinalityPattern.MatchString(s) {
		return fmt.Errorf("invalid cardinality expression: %q", s)
	}
	return nil
}

// EntryCode is the set of valid entry codes for an attribute, either an
// inline ordered list or a reference to another capture base's
// EntryCode overlay by digest.
type EntryCode struct {
	Inline []string `json:"inline,omitempty"`
	Ref    string   `json:"ref,omitempty"`
}

// IsRef reports whether this EntryCode is a digest reference rather than
// an inline list.
func (e EntryCode) IsRef() bool { return e.Ref != "" }

// Entry is a per-language code->label map for an attribute, or a digest
// reference to another capture base's Entry overlay.
type Entry struct {
	Map map[string]string `json:"map,omitempty"`
	Ref string             `json:"ref,omitempty"`
}

// IsRef reports whether this Entry is a digest reference rather than an
// inline map.
func (e Entry) IsRef() bool { return e.Ref != "" }
