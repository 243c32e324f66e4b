// Package dsl defines the command shape the build driver consumes and
// the pure interpreter that applies one command to an OCABox.
package dsl

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is a command's verb. Only From and Add have defined interpreter
// behavior in this core; Modify and Remove are reserved for future
// in-place edits and currently fail with UnsupportedCommand.
type Kind string

const (
	From   Kind = "From"
	Add    Kind = "Add"
	Modify Kind = "Modify"
	Remove Kind = "Remove"
)

// ObjectKind names the object a command targets: the capture base, the
// whole bundle (only meaningful with From), or one overlay variant.
type ObjectKind string

const (
	ObjectCaptureBase ObjectKind = "CaptureBase"
	ObjectOCABundle   ObjectKind = "OCABundle"

	ObjectOverlayCharacterEncoding ObjectKind = "Overlay(CharacterEncoding)"
	ObjectOverlayFormat            ObjectKind = "Overlay(Format)"
	ObjectOverlayUnit              ObjectKind = "Overlay(Unit)"
	ObjectOverlayCardinality       ObjectKind = "Overlay(Cardinality)"
	ObjectOverlayConformance       ObjectKind = "Overlay(Conformance)"
	ObjectOverlayEntryCode         ObjectKind = "Overlay(EntryCode)"
	ObjectOverlayEntry             ObjectKind = "Overlay(Entry)"
	ObjectOverlayLabel             ObjectKind = "Overlay(Label)"
	ObjectOverlayInformation       ObjectKind = "Overlay(Information)"
	ObjectOverlayMeta              ObjectKind = "Overlay(Meta)"
)

// Nested is any value appearing inside a command's content: a string, an
// []Nested, or a map[string]Nested.
type Nested = interface{}

// Content carries a command's payload. Attributes preserves insertion
// order -- it affects capture-base insertion order; Properties does
// not, so a plain map is enough for it.
type Content struct {
	Attributes *orderedmap.OrderedMap[string, Nested]
	Properties map[string]Nested
}

// NewContent returns an empty Content with its Attributes map ready to
// populate in insertion order.
func NewContent() Content {
	return Content{Attributes: orderedmap.New[string, Nested](), Properties: map[string]Nested{}}
}

// SourceMeta carries diagnostic information about where a command came
// from in the source DSL text.
type SourceMeta struct {
	LineNumber int
	RawLine    string
}

// Command is one instruction in a DSL command list.
type Command struct {
	Kind       Kind
	ObjectKind ObjectKind
	Content    Content
	Meta       SourceMeta
}
