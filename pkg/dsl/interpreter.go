package dsl

import (
	"fmt"

	"ocabuild.dev/oca/internal/ocaerr"
	"ocabuild.dev/oca/pkg/lang"
	"ocabuild.dev/oca/pkg/model"
	"ocabuild.dev/oca/pkg/oca"
)

// BundleLoader resolves a digest to the bundle it identifies, backing
// the From command's bundle lookup. It is a narrow seam onto whatever
// persistent store the caller wires in.
type BundleLoader interface {
	LoadBundle(digestValue string) (*model.OCABundle, error)
}

// NameResolver resolves a symbolic name to a digest, backing RefValue's
// Name variant.
type NameResolver interface {
	Resolve(name string) (string, error)
}

// Env bundles the interpreter's external collaborators. Both fields may
// be nil; a From command that actually needs one and finds it nil fails
// with StorageError, since that is a configuration error of the caller,
// not a DSL error.
type Env struct {
	Loader   BundleLoader
	Resolver NameResolver
}

// RefValue is either a direct digest ("said") or a symbolic name to be
// resolved through the reference table.
type RefValue struct {
	Said string
	Name string
}

// Apply returns a new Box reflecting cmd's effect on state, or the
// original state and a *ocaerr.CommandError if cmd was rejected. index
// is the command's 1-based position in its containing build, used both
// to enforce MisplacedFrom and to decorate any resulting error.
func Apply(state *oca.Box, cmd Command, index int, env Env) (*oca.Box, error) {
	var fieldErrs []*ocaerr.FieldError

	switch {
	case cmd.Kind == From && cmd.ObjectKind == ObjectOCABundle:
		if index != 1 {
			fieldErrs = append(fieldErrs, ocaerr.New(ocaerr.MisplacedFrom, "From must be the first command in a build"))
			break
		}
		newState, err := applyFrom(cmd, env)
		if err != nil {
			if fe, ok := err.(*ocaerr.FieldError); ok {
				fieldErrs = append(fieldErrs, fe)
				break
			}
			return state, wrap(cmd, index, ocaerr.New(ocaerr.StorageError, err.Error()))
		}
		return newState, nil

	case cmd.Kind == From:
		fieldErrs = append(fieldErrs, ocaerr.New(ocaerr.MisplacedFrom, "From is only valid targeting OCABundle"))

	case cmd.Kind == Add:
		next := state.Clone()
		fieldErrs = applyAdd(next, cmd)
		if len(fieldErrs) == 0 {
			return next, nil
		}

	case cmd.Kind == Modify, cmd.Kind == Remove:
		fieldErrs = append(fieldErrs, ocaerr.New(ocaerr.UnsupportedCommand, fmt.Sprintf("%s is reserved and not implemented", cmd.Kind)))

	default:
		fieldErrs = append(fieldErrs, ocaerr.New(ocaerr.UnsupportedCommand, fmt.Sprintf("unrecognized command kind %q", cmd.Kind)))
	}

	return state, wrapFields(cmd, index, fieldErrs)
}

func wrap(cmd Command, index int, fe *ocaerr.FieldError) error {
	return wrapFields(cmd, index, []*ocaerr.FieldError{fe})
}

func wrapFields(cmd Command, index int, errs []*ocaerr.FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ocaerr.CommandError{Index: index, RawLine: cmd.Meta.RawLine, Errors: errs}
}

func applyFrom(cmd Command, env Env) (*oca.Box, error) {
	ref, err := parseRefValue(cmd.Content.Properties)
	if err != nil {
		return nil, err
	}
	said := ref.Said
	if said == "" {
		if env.Resolver == nil {
			return nil, fmt.Errorf("name reference requires a NameResolver")
		}
		said, err = env.Resolver.Resolve(ref.Name)
		if err != nil {
			return nil, ocaerr.NewAttribute(ocaerr.UnknownReference, ref.Name, err.Error())
		}
	}
	if env.Loader == nil {
		return nil, fmt.Errorf("From requires a BundleLoader")
	}
	bundle, err := env.Loader.LoadBundle(said)
	if err != nil {
		return nil, ocaerr.New(ocaerr.UnknownReference, err.Error())
	}
	return oca.FromBundle(bundle)
}

func parseRefValue(props map[string]Nested) (RefValue, error) {
	raw, ok := props["ref"]
	if !ok {
		return RefValue{}, fmt.Errorf("From command missing \"ref\" property")
	}
	m, ok := raw.(map[string]Nested)
	if !ok {
		if s, ok := raw.(string); ok {
			// A bare string ref is treated as a direct digest.
			return RefValue{Said: s}, nil
		}
		return RefValue{}, fmt.Errorf("\"ref\" property has an unrecognized shape")
	}
	if said, ok := m["said"].(string); ok && said != "" {
		return RefValue{Said: said}, nil
	}
	if name, ok := m["name"].(string); ok && name != "" {
		return RefValue{Name: name}, nil
	}
	return RefValue{}, fmt.Errorf("\"ref\" property has neither \"said\" nor \"name\"")
}

func applyAdd(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	switch cmd.ObjectKind {
	case ObjectCaptureBase:
		return applyAddCaptureBase(state, cmd)
	case ObjectOverlayMeta:
		return applyAddMeta(state, cmd)
	case ObjectOverlayLabel:
		return applyAddPerLanguageScalar(state, cmd, func(a *model.Attribute, lang, v string) {
			if a.Labels == nil {
				a.Labels = map[string]string{}
			}
			a.Labels[lang] = v
		})
	case ObjectOverlayInformation:
		return applyAddPerLanguageScalar(state, cmd, func(a *model.Attribute, lang, v string) {
			if a.Information == nil {
				a.Information = map[string]string{}
			}
			a.Information[lang] = v
		})
	case ObjectOverlayEntry:
		return applyAddEntry(state, cmd)
	case ObjectOverlayCharacterEncoding:
		return applyAddScalar(state, cmd, func(a *model.Attribute, raw Nested) *ocaerr.FieldError {
			s, ok := raw.(string)
			if !ok {
				return ocaerr.NewAttribute(ocaerr.UnknownEncoding, a.Name, "value must be a string")
			}
			enc, err := model.ParseEncoding(s)
			if err != nil {
				return ocaerr.NewAttribute(ocaerr.UnknownEncoding, a.Name, err.Error())
			}
			a.Encoding = &enc
			return nil
		})
	case ObjectOverlayFormat:
		return applyAddScalar(state, cmd, func(a *model.Attribute, raw Nested) *ocaerr.FieldError {
			s, ok := raw.(string)
			if !ok {
				return ocaerr.NewAttribute(ocaerr.UndefinedAttribute, a.Name, "format value must be a string")
			}
			a.Format = &s
			return nil
		})
	case ObjectOverlayCardinality:
		return applyAddScalar(state, cmd, func(a *model.Attribute, raw Nested) *ocaerr.FieldError {
			s, ok := raw.(string)
			if !ok {
				return ocaerr.NewAttribute(ocaerr.UndefinedAttribute, a.Name, "cardinality value must be a string")
			}
			if err := model.ValidateCardinality(s); err != nil {
				return ocaerr.NewAttribute(ocaerr.UndefinedAttribute, a.Name, err.Error())
			}
			a.Cardinality = &s
			return nil
		})
	case ObjectOverlayConformance:
		return applyAddScalar(state, cmd, func(a *model.Attribute, raw Nested) *ocaerr.FieldError {
			s, ok := raw.(string)
			if !ok {
				return ocaerr.NewAttribute(ocaerr.UndefinedAttribute, a.Name, "conformance value must be a string")
			}
			a.Conformance = &s
			return nil
		})
	case ObjectOverlayUnit:
		return applyAddUnit(state, cmd)
	case ObjectOverlayEntryCode:
		return applyAddEntryCode(state, cmd)
	default:
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnsupportedCommand, fmt.Sprintf("Add %s is not implemented", cmd.ObjectKind))}
	}
}

func applyAddCaptureBase(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	var errs []*ocaerr.FieldError
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		typeStr, ok := pair.Value.(string)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UnknownType, pair.Key, "type must be a string"))
			continue
		}
		typ, err := model.ParseType(typeStr)
		if err != nil {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UnknownType, pair.Key, err.Error()))
			continue
		}
		if existing, ok := state.Attribute(pair.Key); ok {
			if existing.Type.String() != typ.String() {
				errs = append(errs, ocaerr.NewAttribute(ocaerr.AttributeRedefined, pair.Key,
					fmt.Sprintf("already declared as %s, cannot redeclare as %s", existing.Type, typ)))
				continue
			}
			continue
		}
		state.AddAttribute(model.NewAttribute(pair.Key, typ, false))
	}
	if v, ok := cmd.Content.Properties["classification"]; ok {
		if s, ok := v.(string); ok {
			state.AddClassification(s)
		}
	}
	// Unknown properties are forward-compatibly ignored.
	return errs
}

func applyAddMeta(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	rawLang, ok := cmd.Content.Properties["lang"].(string)
	if !ok || rawLang == "" {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, "ADD META requires a \"lang\" property")}
	}
	code, err := lang.Validate(rawLang)
	if err != nil {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, err.Error())}
	}
	for k, v := range cmd.Content.Properties {
		if k == "lang" {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		state.AddMeta(code, k, s)
	}
	return nil
}

func applyAddPerLanguageScalar(state *oca.Box, cmd Command, set func(a *model.Attribute, lang, v string)) []*ocaerr.FieldError {
	var errs []*ocaerr.FieldError
	rawLang, ok := cmd.Content.Properties["lang"].(string)
	if !ok || rawLang == "" {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, "command requires a \"lang\" property")}
	}
	code, err := lang.Validate(rawLang)
	if err != nil {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, err.Error())}
	}
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		a, ok := state.Attribute(pair.Key)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "not declared in capture base"))
			continue
		}
		s, ok := pair.Value.(string)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "value must be a string"))
			continue
		}
		set(a, code, s)
	}
	return errs
}

func applyAddEntry(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	var errs []*ocaerr.FieldError
	rawLang, ok := cmd.Content.Properties["lang"].(string)
	if !ok || rawLang == "" {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, "ADD ENTRY requires a \"lang\" property")}
	}
	code, err := lang.Validate(rawLang)
	if err != nil {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownLanguage, err.Error())}
	}
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		a, ok := state.Attribute(pair.Key)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "not declared in capture base"))
			continue
		}
		entry, err := parseEntryValue(pair.Value)
		if err != nil {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, err.Error()))
			continue
		}
		if a.Entries == nil {
			a.Entries = map[string]model.Entry{}
		}
		a.Entries[code] = entry
	}
	return errs
}

func parseEntryValue(v Nested) (model.Entry, error) {
	switch t := v.(type) {
	case string:
		return model.Entry{Ref: t}, nil
	case map[string]Nested:
		m := make(map[string]string, len(t))
		for k, val := range t {
			s, ok := val.(string)
			if !ok {
				return model.Entry{}, fmt.Errorf("entry code %q has a non-string label", k)
			}
			m[k] = s
		}
		return model.Entry{Map: m}, nil
	default:
		return model.Entry{}, fmt.Errorf("entry value must be a digest string or a code->label map")
	}
}

func applyAddScalar(state *oca.Box, cmd Command, set func(a *model.Attribute, raw Nested) *ocaerr.FieldError) []*ocaerr.FieldError {
	var errs []*ocaerr.FieldError
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		a, ok := state.Attribute(pair.Key)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "not declared in capture base"))
			continue
		}
		if fe := set(a, pair.Value); fe != nil {
			errs = append(errs, fe)
		}
	}
	return errs
}

func applyAddUnit(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	rawSystem, ok := cmd.Content.Properties["unit_system"].(string)
	if !ok || rawSystem == "" {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownMeasurementSystem, "ADD UNIT requires a \"unit_system\" property")}
	}
	system, err := model.ParseMeasurementSystem(rawSystem)
	if err != nil {
		return []*ocaerr.FieldError{ocaerr.New(ocaerr.UnknownMeasurementSystem, err.Error())}
	}
	var errs []*ocaerr.FieldError
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		a, ok := state.Attribute(pair.Key)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "not declared in capture base"))
			continue
		}
		s, ok := pair.Value.(string)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.InvalidUnit, pair.Key, "value must be a string"))
			continue
		}
		unit, err := model.ParseUnit(system, s)
		if err != nil {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.InvalidUnit, pair.Key, err.Error()))
			continue
		}
		a.Unit = &unit
	}
	return errs
}

func applyAddEntryCode(state *oca.Box, cmd Command) []*ocaerr.FieldError {
	var errs []*ocaerr.FieldError
	for pair := cmd.Content.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		a, ok := state.Attribute(pair.Key)
		if !ok {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, "not declared in capture base"))
			continue
		}
		ec, err := parseEntryCodeValue(pair.Value)
		if err != nil {
			errs = append(errs, ocaerr.NewAttribute(ocaerr.UndefinedAttribute, pair.Key, err.Error()))
			continue
		}
		a.EntryCode = &ec
	}
	return errs
}

func parseEntryCodeValue(v Nested) (model.EntryCode, error) {
	switch t := v.(type) {
	case string:
		return model.EntryCode{Ref: t}, nil
	case []Nested:
		codes := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return model.EntryCode{}, fmt.Errorf("entry code list must contain only strings")
			}
			codes = append(codes, s)
		}
		return model.EntryCode{Inline: codes}, nil
	default:
		return model.EntryCode{}, fmt.Errorf("entry code value must be a digest string or an array of strings")
	}
}
