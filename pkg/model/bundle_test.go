package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocabuild.dev/oca/internal/canon"
	"ocabuild.dev/oca/internal/ocaerr"
)

func buildSampleBundle(t *testing.T) *OCABundle {
	t.Helper()
	cb := NewCaptureBase()
	cb.SetClassification("confidential")
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), true))
	require.NoError(t, cb.AddAttribute("age", mustType(t, "Numeric"), false))
	_, err := cb.ComputeDigest()
	require.NoError(t, err)

	label := NewLabelOverlay(cb.Digest, "en")
	label.Attributes_["name"] = "Name"
	label.Attributes_["age"] = "Age"
	_, err = label.ComputeDigest()
	require.NoError(t, err)

	format := NewFormatOverlay(cb.Digest)
	format.Attributes_["name"] = "^[A-Z].*$"
	_, err = format.ComputeDigest()
	require.NoError(t, err)

	bundle := &OCABundle{CaptureBase: cb, Overlays: []Overlay{format, label}}
	SortOverlays(bundle.Overlays)
	_, err = bundle.ComputeDigest()
	require.NoError(t, err)
	return bundle
}

func TestOCABundleValidatePasses(t *testing.T) {
	bundle := buildSampleBundle(t)
	assert.NoError(t, bundle.Validate())
}

func TestOCABundleValidateRejectsStaleCaptureBaseDigest(t *testing.T) {
	bundle := buildSampleBundle(t)
	bundle.Overlays[0].OverlayHeader().CaptureBaseDigest = "Estale"
	assert.Error(t, bundle.Validate())
}

func TestOCABundleValidateRejectsUndefinedAttribute(t *testing.T) {
	bundle := buildSampleBundle(t)
	var label *LabelOverlay
	for _, ov := range bundle.Overlays {
		if l, ok := ov.(*LabelOverlay); ok {
			label = l
		}
	}
	require.NotNil(t, label)
	label.Attributes_["ghost"] = "Ghost"
	assert.ErrorIs(t, bundle.Validate(), ocaerr.ErrUndefinedAttribute)
}

func TestOCABundleValidateRejectsMissingLanguageTag(t *testing.T) {
	bundle := buildSampleBundle(t)
	for _, ov := range bundle.Overlays {
		if ov.OverlayHeader().Type == OverlayLabel {
			ov.OverlayHeader().Language = ""
		}
	}
	assert.Error(t, bundle.Validate())
}

func TestOCABundleComputeDigestIsDeterministic(t *testing.T) {
	a := buildSampleBundle(t)
	b := buildSampleBundle(t)
	assert.Equal(t, a.Digest, b.Digest)
}

func TestOCABundleJSONRoundTripDispatchesOverlayTypes(t *testing.T) {
	bundle := buildSampleBundle(t)

	data, err := canon.Marshal(bundle)
	require.NoError(t, err)

	var restored OCABundle
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Len(t, restored.Overlays, 2)
	var sawFormat, sawLabel bool
	for _, ov := range restored.Overlays {
		switch v := ov.(type) {
		case *FormatOverlay:
			sawFormat = true
			assert.Equal(t, "^[A-Z].*$", v.Attributes_["name"])
		case *LabelOverlay:
			sawLabel = true
			assert.Equal(t, "en", v.Header.Language)
			assert.Equal(t, "Name", v.Attributes_["name"])
		default:
			t.Fatalf("unexpected overlay type %T", ov)
		}
	}
	assert.True(t, sawFormat)
	assert.True(t, sawLabel)
	assert.Equal(t, bundle.Digest, restored.Digest)
	assert.Equal(t, bundle.CaptureBase.Digest, restored.CaptureBase.Digest)
}

func TestOCABundleUnmarshalJSONRejectsUnknownOverlayType(t *testing.T) {
	raw := `{"capture_base":{"classification":"","attributes":{},"pii":null,"digest":"E"},
		"overlays":[{"capture_base":"E","type":"spec/overlays/nonexistent/1.0","digest":"E"}],"digest":"E"}`
	var bundle OCABundle
	err := json.Unmarshal([]byte(raw), &bundle)
	assert.ErrorIs(t, err, ocaerr.ErrMalformedHistory)
}
