// Package dsl implements the textual ".oca" DSL surface: a
// line-oriented parser that turns source text into the ordered
// dsl.Command list the core interpreter consumes, and a Render
// function that inverts it so a stored bundle can round-trip back to
// source text. cmd/ocabuild uses both to be a runnable tool end to
// end.
package dsl

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"ocabuild.dev/oca/internal/digest"
	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/dsl"
)

// Parse reads source line by line and returns the ordered command
// list it describes. Blank lines and lines starting with "#" are
// skipped. Each returned command carries the 1-based source line
// number and raw text for diagnostics.
func Parse(source string) ([]dsl.Command, error) {
	var commands []dsl.Command
	for i, raw := range strings.Split(source, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %v", ocaerr.ParseError, lineNo, err)
		}
		cmd.Meta = dsl.SourceMeta{LineNumber: lineNo, RawLine: raw}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func parseLine(line string) (dsl.Command, error) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return dsl.Command{}, fmt.Errorf("empty command")
	}
	verb := strings.ToUpper(tokens[0])

	switch verb {
	case "FROM":
		return parseFrom(tokens[1:])
	case "ADD":
		return parseAdd(tokens[1:])
	default:
		return dsl.Command{}, fmt.Errorf("%w: unrecognized verb %q", ocaerr.ErrUnsupportedCommand, tokens[0])
	}
}

func parseFrom(rest []string) (dsl.Command, error) {
	if len(rest) != 1 || !strings.HasPrefix(rest[0], "refs:") {
		return dsl.Command{}, fmt.Errorf(`FROM requires exactly one "refs:<ref>" argument`)
	}
	ref := strings.TrimPrefix(rest[0], "refs:")
	content := dsl.NewContent()
	if digest.Valid(ref) {
		content.Properties["ref"] = map[string]dsl.Nested{"said": ref}
	} else {
		content.Properties["ref"] = map[string]dsl.Nested{"name": ref}
	}
	return dsl.Command{Kind: dsl.From, ObjectKind: dsl.ObjectOCABundle, Content: content}, nil
}

var overlayKeywords = map[string]dsl.ObjectKind{
	"CHARACTER_ENCODING": dsl.ObjectOverlayCharacterEncoding,
	"FORMAT":             dsl.ObjectOverlayFormat,
	"CARDINALITY":        dsl.ObjectOverlayCardinality,
	"CONFORMANCE":        dsl.ObjectOverlayConformance,
	"ENTRY_CODE":         dsl.ObjectOverlayEntryCode,
}

var perLanguageKeywords = map[string]dsl.ObjectKind{
	"LABEL":       dsl.ObjectOverlayLabel,
	"INFORMATION": dsl.ObjectOverlayInformation,
	"ENTRY":       dsl.ObjectOverlayEntry,
}

func parseAdd(rest []string) (dsl.Command, error) {
	if len(rest) == 0 {
		return dsl.Command{}, fmt.Errorf("ADD requires an object keyword")
	}
	keyword := strings.ToUpper(rest[0])
	rest = rest[1:]

	switch {
	case keyword == "ATTRIBUTE":
		return parseAddAttribute(rest)
	case keyword == "META":
		return parseAddMeta(rest)
	case keyword == "UNIT":
		return parseAddUnit(rest)
	case perLanguageKeywords[keyword] != "":
		return parseAddPerLanguage(perLanguageKeywords[keyword], rest)
	case overlayKeywords[keyword] != "":
		return parseAddScalarOverlay(overlayKeywords[keyword], rest)
	default:
		return dsl.Command{}, fmt.Errorf("%w: unrecognized ADD object %q", ocaerr.ErrUnsupportedCommand, keyword)
	}
}

// parseAddAttribute handles `ADD ATTRIBUTE name=Type ... [classification="..."]`.
func parseAddAttribute(rest []string) (dsl.Command, error) {
	content := dsl.NewContent()
	for _, tok := range rest {
		key, raw, ok := splitPair(tok)
		if !ok {
			return dsl.Command{}, fmt.Errorf("malformed token %q, expected key=value", tok)
		}
		value, err := parseValue(raw)
		if err != nil {
			return dsl.Command{}, err
		}
		if strings.EqualFold(key, "classification") {
			content.Properties["classification"] = value
			continue
		}
		content.Attributes.Set(key, value)
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectCaptureBase, Content: content}, nil
}

// parseAddMeta handles `ADD META <lang> PROPS key="value" ...`.
func parseAddMeta(rest []string) (dsl.Command, error) {
	if len(rest) < 2 {
		return dsl.Command{}, fmt.Errorf("ADD META requires <lang> PROPS key=value ...")
	}
	lang := rest[0]
	if !strings.EqualFold(rest[1], "PROPS") {
		return dsl.Command{}, fmt.Errorf(`ADD META expects "PROPS" after the language code`)
	}
	content := dsl.NewContent()
	content.Properties["lang"] = lang
	for _, tok := range rest[2:] {
		key, raw, ok := splitPair(tok)
		if !ok {
			return dsl.Command{}, fmt.Errorf("malformed token %q, expected key=value", tok)
		}
		value, err := parseValue(raw)
		if err != nil {
			return dsl.Command{}, err
		}
		content.Properties[key] = value
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectOverlayMeta, Content: content}, nil
}

// parseAddPerLanguage handles `ADD <LABEL|INFORMATION|ENTRY> <lang> ATTRS name=value ...`.
func parseAddPerLanguage(kind dsl.ObjectKind, rest []string) (dsl.Command, error) {
	if len(rest) < 2 || !strings.EqualFold(rest[1], "ATTRS") {
		return dsl.Command{}, fmt.Errorf("expected <lang> ATTRS name=value ...")
	}
	lang := rest[0]
	content := dsl.NewContent()
	content.Properties["lang"] = lang
	if err := fillAttrs(content.Attributes, rest[2:]); err != nil {
		return dsl.Command{}, err
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: kind, Content: content}, nil
}

// parseAddScalarOverlay handles `ADD <CHARACTER_ENCODING|FORMAT|CARDINALITY|CONFORMANCE|ENTRY_CODE> ATTRS name=value ...`.
func parseAddScalarOverlay(kind dsl.ObjectKind, rest []string) (dsl.Command, error) {
	if len(rest) < 1 || !strings.EqualFold(rest[0], "ATTRS") {
		return dsl.Command{}, fmt.Errorf("expected ATTRS name=value ...")
	}
	content := dsl.NewContent()
	if err := fillAttrs(content.Attributes, rest[1:]); err != nil {
		return dsl.Command{}, err
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: kind, Content: content}, nil
}

// parseAddUnit handles `ADD UNIT <system> ATTRS name=value ...`.
func parseAddUnit(rest []string) (dsl.Command, error) {
	if len(rest) < 2 || !strings.EqualFold(rest[1], "ATTRS") {
		return dsl.Command{}, fmt.Errorf("expected <system> ATTRS name=value ...")
	}
	content := dsl.NewContent()
	content.Properties["unit_system"] = rest[0]
	if err := fillAttrs(content.Attributes, rest[2:]); err != nil {
		return dsl.Command{}, err
	}
	return dsl.Command{Kind: dsl.Add, ObjectKind: dsl.ObjectOverlayUnit, Content: content}, nil
}

func fillAttrs(into *orderedmap.OrderedMap[string, dsl.Nested], tokens []string) error {
	for _, tok := range tokens {
		key, raw, ok := splitPair(tok)
		if !ok {
			return fmt.Errorf("malformed token %q, expected key=value", tok)
		}
		value, err := parseValue(raw)
		if err != nil {
			return err
		}
		into.Set(key, value)
	}
	return nil
}
