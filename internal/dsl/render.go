package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ocabuild.dev/oca/pkg/model"
)

// Render renders bundle back into the textual DSL surface as a single
// "ADD ATTRIBUTE" command declaring every attribute plus one command per
// overlay in the bundle, the inverse of Parse well enough to round-trip
// through a parse. It does not reproduce the original source text
// verbatim -- only an equivalent program.
func Render(bundle *model.OCABundle) string {
	var out strings.Builder

	names := make([]string, 0, bundle.CaptureBase.Attributes.Len())
	for pair := bundle.CaptureBase.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}

	var attrTokens []string
	for _, name := range names {
		typ, _ := bundle.CaptureBase.Attributes.Get(name)
		attrTokens = append(attrTokens, fmt.Sprintf("%s=%s", name, typ.String()))
	}
	line := "ADD ATTRIBUTE " + strings.Join(attrTokens, " ")
	if bundle.CaptureBase.Classification != "" {
		line += fmt.Sprintf(" classification=%s", quote(bundle.CaptureBase.Classification))
	}
	out.WriteString(line + "\n")

	for _, ov := range bundle.Overlays {
		renderOverlay(&out, ov)
	}
	return out.String()
}

func renderOverlay(out *strings.Builder, ov model.Overlay) {
	switch o := ov.(type) {
	case *model.CharacterEncodingOverlay:
		renderScalar(out, "CHARACTER_ENCODING", nil, mapAny(o.Attributes_))
	case *model.FormatOverlay:
		renderScalar(out, "FORMAT", nil, mapAny(o.Attributes_))
	case *model.CardinalityOverlay:
		renderScalar(out, "CARDINALITY", nil, mapAny(o.Attributes_))
	case *model.ConformanceOverlay:
		renderScalar(out, "CONFORMANCE", nil, mapAny(o.Attributes_))
	case *model.UnitOverlay:
		renderScalar(out, "UNIT", []string{string(o.System)}, mapAny(o.Attributes_))
	case *model.EntryCodeOverlay:
		pairs := make(map[string]string, len(o.Attributes_))
		for name, ec := range o.Attributes_ {
			if ec.IsRef() {
				pairs[name] = quote(ec.Ref)
			} else {
				quoted := make([]string, len(ec.Inline))
				for i, c := range ec.Inline {
					quoted[i] = quote(c)
				}
				pairs[name] = "[" + strings.Join(quoted, ",") + "]"
			}
		}
		renderScalarRaw(out, "ENTRY_CODE", nil, pairs)
	case *model.LabelOverlay:
		renderPerLanguage(out, "LABEL", o.Language, mapAny(o.Attributes_))
	case *model.InformationOverlay:
		renderPerLanguage(out, "INFORMATION", o.Language, mapAny(o.Attributes_))
	case *model.EntryOverlay:
		pairs := make(map[string]string, len(o.Attributes_))
		for name, e := range o.Attributes_ {
			if e.IsRef() {
				pairs[name] = quote(e.Ref)
				continue
			}
			keys := make([]string, 0, len(e.Map))
			for k := range e.Map {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			kvs := make([]string, len(keys))
			for i, k := range keys {
				kvs[i] = fmt.Sprintf("%s:%s", strconv.Quote(k), strconv.Quote(e.Map[k]))
			}
			pairs[name] = "{" + strings.Join(kvs, ",") + "}"
		}
		renderScalarRaw(out, "ENTRY "+o.Language, nil, pairs)
	case *model.MetaOverlay:
		keys := make([]string, 0, len(o.Pairs))
		for k := range o.Pairs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tokens := make([]string, len(keys))
		for i, k := range keys {
			tokens[i] = fmt.Sprintf("%s=%s", k, quote(o.Pairs[k]))
		}
		fmt.Fprintf(out, "ADD META %s PROPS %s\n", o.Language, strings.Join(tokens, " "))
	}
}

func mapAny[V any](m map[string]V) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func renderScalar(out *strings.Builder, keyword string, args []string, attrs map[string]string) {
	renderScalarRaw(out, keyword, args, quoteValues(attrs))
}

func renderPerLanguage(out *strings.Builder, keyword, lang string, attrs map[string]string) {
	renderScalarRaw(out, keyword+" "+lang, nil, quoteValues(attrs))
}

func quoteValues(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = quote(v)
	}
	return out
}

func renderScalarRaw(out *strings.Builder, keywordAndArgs string, args []string, pairs map[string]string) {
	names := make([]string, 0, len(pairs))
	for name := range pairs {
		names = append(names, name)
	}
	sort.Strings(names)
	tokens := make([]string, len(names))
	for i, name := range names {
		tokens[i] = fmt.Sprintf("%s=%s", name, pairs[name])
	}
	prefix := "ADD " + keywordAndArgs
	if len(args) > 0 {
		prefix += " " + strings.Join(args, " ")
	}
	fmt.Fprintf(out, "%s ATTRS %s\n", prefix, strings.Join(tokens, " "))
}

func quote(s string) string {
	return strconv.Quote(s)
}
