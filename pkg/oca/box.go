// Package oca implements OCABox, the mutable builder state an
// interpreter folds DSL commands onto, and its bundling into an
// immutable OCABundle.
package oca

import (
	"fmt"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"ocabuild.dev/oca/pkg/model"
)

// Box is the mutable aggregate of attributes and per-language meta the
// interpreter mutates command by command. Attribute insertion order is
// preserved: it becomes the capture base's attribute order, and
// ultimately part of the digest contract.
type Box struct {
	Attributes     *orderedmap.OrderedMap[string, *model.Attribute]
	Classification string
	// Meta holds free-form per-language key/values added by "ADD META".
	Meta map[string]map[string]string
}

// New returns an empty builder state.
func New() *Box {
	return &Box{
		Attributes: orderedmap.New[string, *model.Attribute](),
		Meta:       map[string]map[string]string{},
	}
}

// FromBundle seeds a builder from an already-built bundle, so a build
// can extend an existing schema rather than start from nothing.
func FromBundle(b *model.OCABundle) (*Box, error) {
	box := New()
	box.Classification = b.CaptureBase.Classification
	for pair := b.CaptureBase.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		box.Attributes.Set(pair.Key, model.NewAttribute(pair.Key, pair.Value, false))
	}
	for _, name := range b.CaptureBase.PII {
		if a, ok := box.Attributes.Get(name); ok {
			a.PII = true
		}
	}
	for _, ov := range b.Overlays {
		if err := box.absorbOverlay(ov); err != nil {
			return nil, err
		}
	}
	return box, nil
}

// absorbOverlay copies one overlay's payload back onto the attributes of
// a freshly-seeded box, the inverse of GenerateBundle's projection, so
// FromBundle round-trips.
func (b *Box) absorbOverlay(ov model.Overlay) error {
	switch o := ov.(type) {
	case *model.CharacterEncodingOverlay:
		for name, enc := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				enc := enc
				a.Encoding = &enc
			}
		}
	case *model.FormatOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				v := v
				a.Format = &v
			}
		}
	case *model.UnitOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				a.Unit = &model.Unit{System: o.System, Unit: v}
			}
		}
	case *model.CardinalityOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				v := v
				a.Cardinality = &v
			}
		}
	case *model.ConformanceOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				v := v
				a.Conformance = &v
			}
		}
	case *model.EntryCodeOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				v := v
				a.EntryCode = &v
			}
		}
	case *model.EntryOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				if a.Entries == nil {
					a.Entries = map[string]model.Entry{}
				}
				a.Entries[o.Language] = v
			}
		}
	case *model.LabelOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				if a.Labels == nil {
					a.Labels = map[string]string{}
				}
				a.Labels[o.Language] = v
			}
		}
	case *model.InformationOverlay:
		for name, v := range o.Attributes_ {
			if a, ok := b.Attributes.Get(name); ok {
				if a.Information == nil {
					a.Information = map[string]string{}
				}
				a.Information[o.Language] = v
			}
		}
	case *model.MetaOverlay:
		if b.Meta[o.Language] == nil {
			b.Meta[o.Language] = map[string]string{}
		}
		for k, v := range o.Pairs {
			b.Meta[o.Language][k] = v
		}
	default:
		return fmt.Errorf("oca: unrecognized overlay type %T", ov)
	}
	return nil
}

// AddAttribute inserts or updates an attribute; re-declaring the same
// name is last-write-wins.
func (b *Box) AddAttribute(a *model.Attribute) {
	if existing, ok := b.Attributes.Get(a.Name); ok {
		*existing = *a
		return
	}
	b.Attributes.Set(a.Name, a)
}

// Attribute looks up an attribute by name.
func (b *Box) Attribute(name string) (*model.Attribute, bool) {
	return b.Attributes.Get(name)
}

// Clone returns a deep-enough copy of b that mutating the result cannot
// affect b: each attribute is copied by value, so the interpreter can
// advance state functionally without a failed command's partial edits
// leaking into the state a build driver keeps on error.
func (b *Box) Clone() *Box {
	next := New()
	next.Classification = b.Classification
	for pair := b.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		next.Attributes.Set(pair.Key, pair.Value.Clone())
	}
	for l, kv := range b.Meta {
		cp := make(map[string]string, len(kv))
		for k, v := range kv {
			cp[k] = v
		}
		next.Meta[l] = cp
	}
	return next
}

// AddClassification sets the builder's classification string.
func (b *Box) AddClassification(s string) {
	b.Classification = s
}

// AddMeta records a free-form key/value pair under lang.
func (b *Box) AddMeta(lang, key, value string) {
	if b.Meta[lang] == nil {
		b.Meta[lang] = map[string]string{}
	}
	b.Meta[lang][key] = value
}

// GenerateBundle builds the capture base, digests it, projects every
// populated facet into its overlay family (fanning per-language
// variants out one overlay per distinct language), digests each
// overlay, then assembles and digests the bundle.
func (b *Box) GenerateBundle() (*model.OCABundle, error) {
	cb := model.NewCaptureBase()
	cb.SetClassification(b.Classification)
	for pair := b.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		if err := cb.AddAttribute(pair.Key, pair.Value.Type, pair.Value.PII); err != nil {
			return nil, err
		}
	}
	if _, err := cb.ComputeDigest(); err != nil {
		return nil, fmt.Errorf("oca: capture base digest: %w", err)
	}

	overlays, err := b.buildOverlays(cb.Digest)
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	for _, ov := range overlays {
		ov := ov
		g.Go(func() error {
			_, err := ov.ComputeDigest()
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("oca: overlay digest: %w", err)
	}

	model.SortOverlays(overlays)

	bundle := &model.OCABundle{CaptureBase: cb, Overlays: overlays}
	if _, err := bundle.ComputeDigest(); err != nil {
		return nil, fmt.Errorf("oca: bundle digest: %w", err)
	}
	return bundle, nil
}

// buildOverlays instantiates one overlay per facet present on any
// attribute (plus one per distinct language for per-language facets and
// for meta), populated with qualifying attributes in name order.
func (b *Box) buildOverlays(captureBaseDigest string) ([]model.Overlay, error) {
	names := make([]string, 0, b.Attributes.Len())
	for pair := b.Attributes.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	sort.Strings(names)

	var (
		hasEncoding, hasFormat, hasCardinality, hasConformance, hasEntryCode bool
		unitSystems                                                          = map[model.MeasurementSystem]bool{}
		labelLangs, infoLangs, entryLangs                                    = map[string]bool{}, map[string]bool{}, map[string]bool{}
	)
	for _, name := range names {
		a, _ := b.Attributes.Get(name)
		if a.Encoding != nil {
			hasEncoding = true
		}
		if a.Format != nil {
			hasFormat = true
		}
		if a.Unit != nil {
			unitSystems[a.Unit.System] = true
		}
		if a.Cardinality != nil {
			hasCardinality = true
		}
		if a.Conformance != nil {
			hasConformance = true
		}
		if a.EntryCode != nil {
			hasEntryCode = true
		}
		for l := range a.Labels {
			labelLangs[l] = true
		}
		for l := range a.Information {
			infoLangs[l] = true
		}
		for l := range a.Entries {
			entryLangs[l] = true
		}
	}

	var overlays []model.Overlay

	addEach := func(names []string, add func(name string)) {
		for _, n := range names {
			add(n)
		}
	}

	if hasEncoding {
		ov := model.NewCharacterEncodingOverlay(captureBaseDigest)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	if hasFormat {
		ov := model.NewFormatOverlay(captureBaseDigest)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	for _, sys := range sortedSystems(unitSystems) {
		ov := model.NewUnitOverlay(captureBaseDigest, sys)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	if hasCardinality {
		ov := model.NewCardinalityOverlay(captureBaseDigest)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	if hasConformance {
		ov := model.NewConformanceOverlay(captureBaseDigest)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	if hasEntryCode {
		ov := model.NewEntryCodeOverlay(captureBaseDigest)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	for _, lang := range sortedLangs(entryLangs) {
		ov := model.NewEntryOverlay(captureBaseDigest, lang)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	for _, lang := range sortedLangs(labelLangs) {
		ov := model.NewLabelOverlay(captureBaseDigest, lang)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	for _, lang := range sortedLangs(infoLangs) {
		ov := model.NewInformationOverlay(captureBaseDigest, lang)
		addEach(names, func(n string) { a, _ := b.Attributes.Get(n); ov.Add(a) })
		overlays = append(overlays, ov)
	}
	for _, lang := range sortedLangs(langsOf(b.Meta)) {
		ov := model.NewMetaOverlay(captureBaseDigest, lang)
		for k, v := range b.Meta[lang] {
			ov.Pairs[k] = v
		}
		overlays = append(overlays, ov)
	}

	return overlays, nil
}

func sortedLangs(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func langsOf(m map[string]map[string]string) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sortedSystems(m map[model.MeasurementSystem]bool) []model.MeasurementSystem {
	out := make([]model.MeasurementSystem, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
