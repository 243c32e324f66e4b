package model

// Attribute is a capture-base attribute together with every facet an
// overlay might later project out of it. All facet fields are optional;
// a nil/zero facet simply means no overlay of that variant will carry
// an entry for this attribute.
type Attribute struct {
	Name string
	Type Type
	PII  bool

	Encoding    *Encoding
	Format      *string
	Unit        *Unit
	Cardinality *string
	Conformance *string
	EntryCode   *EntryCode

	// Labels, Information and Entries are keyed by language tag; Entries'
	// values are themselves either an inline code->label map or a digest
	// reference.
	Labels      map[string]string
	Information map[string]string
	Entries     map[string]Entry
}

// NewAttribute constructs an Attribute with only its essential fields
// set; facets are added afterward by the interpreter or directly by
// callers building a box programmatically.
func NewAttribute(name string, typ Type, pii bool) *Attribute {
	return &Attribute{Name: name, Type: typ, PII: pii}
}

// Clone returns a copy of a with its own Labels, Information and
// Entries maps, so a builder can fork its state and set or replace
// facets on the copy without touching a. The pointer facets (Encoding,
// Format, Unit, Cardinality, Conformance, EntryCode) and the maps and
// slices inside Entries and EntryCode values still point at the same
// data as a's.
func (a *Attribute) Clone() *Attribute {
	cp := *a
	if a.Labels != nil {
		cp.Labels = make(map[string]string, len(a.Labels))
		for k, v := range a.Labels {
			cp.Labels[k] = v
		}
	}
	if a.Information != nil {
		cp.Information = make(map[string]string, len(a.Information))
		for k, v := range a.Information {
			cp.Information[k] = v
		}
	}
	if a.Entries != nil {
		cp.Entries = make(map[string]Entry, len(a.Entries))
		for k, v := range a.Entries {
			cp.Entries[k] = v
		}
	}
	return &cp
}

// Languages returns the distinct language tags this attribute carries
// label, information or entry facets for, across all three variants
// together.
func (a *Attribute) Languages() map[string]bool {
	langs := make(map[string]bool)
	for l := range a.Labels {
		langs[l] = true
	}
	for l := range a.Information {
		langs[l] = true
	}
	for l := range a.Entries {
		langs[l] = true
	}
	return langs
}
