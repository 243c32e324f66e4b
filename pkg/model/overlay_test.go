package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterEncodingOverlayAdd(t *testing.T) {
	o := NewCharacterEncodingOverlay("Ecapturebase")
	enc := EncodingUTF8
	o.Add(&Attribute{Name: "name", Encoding: &enc})
	o.Add(&Attribute{Name: "unrelated"})
	assert.Equal(t, []string{"name"}, o.Attributes())
	assert.Equal(t, OverlayCharacterEncoding, o.OverlayHeader().Type)
}

func TestUnitOverlayOnlyAddsMatchingSystem(t *testing.T) {
	o := NewUnitOverlay("Ecapturebase", Metric)
	o.Add(&Attribute{Name: "distance", Unit: &Unit{System: Metric, Unit: "km"}})
	o.Add(&Attribute{Name: "weight", Unit: &Unit{System: Imperial, Unit: "lb"}})
	assert.Equal(t, []string{"distance"}, o.Attributes())
}

func TestLabelOverlayOnlyAddsItsLanguage(t *testing.T) {
	o := NewLabelOverlay("Ecapturebase", "en")
	o.Add(&Attribute{Name: "name", Labels: map[string]string{"en": "Name", "fr": "Nom"}})
	assert.Equal(t, []string{"name"}, o.Attributes())
	assert.Equal(t, "en", o.OverlayHeader().Language)
}

func TestEntryOverlayOnlyAddsItsLanguage(t *testing.T) {
	o := NewEntryOverlay("Ecapturebase", "en")
	o.Add(&Attribute{Name: "status", Entries: map[string]Entry{
		"en": {Map: map[string]string{"a": "Active"}},
		"fr": {Map: map[string]string{"a": "Actif"}},
	}})
	assert.Equal(t, []string{"status"}, o.Attributes())
}

func TestMetaOverlayHasNoAttributes(t *testing.T) {
	o := NewMetaOverlay("Ecapturebase", "en")
	o.Pairs["name"] = "schema"
	assert.Nil(t, o.Attributes())
}

func TestOverlayComputeDigestIsDeterministicAndStable(t *testing.T) {
	build := func() *FormatOverlay {
		o := NewFormatOverlay("Ecapturebase")
		o.Add(&Attribute{Name: "name", Format: strPtr("^[A-Z]+$")})
		return o
	}
	a := build()
	da, err := a.ComputeDigest()
	require.NoError(t, err)

	b := build()
	db, err := b.ComputeDigest()
	require.NoError(t, err)

	assert.Equal(t, da, db)
	assert.Equal(t, da, a.Header.Digest)
}

func TestSortOverlaysOrdersByTypeThenLanguage(t *testing.T) {
	overlays := []Overlay{
		NewLabelOverlay("E1", "fr"),
		NewFormatOverlay("E1"),
		NewLabelOverlay("E1", "en"),
	}
	SortOverlays(overlays)
	require.Len(t, overlays, 3)
	assert.Equal(t, OverlayFormat, overlays[0].OverlayHeader().Type)
	assert.Equal(t, OverlayLabel, overlays[1].OverlayHeader().Type)
	assert.Equal(t, "en", overlays[1].OverlayHeader().Language)
	assert.Equal(t, "fr", overlays[2].OverlayHeader().Language)
}

func strPtr(s string) *string { return &s }
