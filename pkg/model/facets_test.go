package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("utf-8")
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)

	_, err = ParseEncoding("utf-7")
	assert.Error(t, err)
}

func TestParseMeasurementSystemAliases(t *testing.T) {
	for _, alias := range []string{"si", "metric"} {
		sys, err := ParseMeasurementSystem(alias)
		require.NoError(t, err)
		assert.Equal(t, Metric, sys)
	}
	for _, alias := range []string{"us", "imperial"} {
		sys, err := ParseMeasurementSystem(alias)
		require.NoError(t, err)
		assert.Equal(t, Imperial, sys)
	}
	_, err := ParseMeasurementSystem("nonsense")
	assert.Error(t, err)
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(Metric, "km")
	require.NoError(t, err)
	assert.Equal(t, Unit{System: Metric, Unit: "km"}, u)

	_, err = ParseUnit(Metric, "mi")
	assert.Error(t, err, "mi is an imperial unit, not metric")

	_, err = ParseUnit(Imperial, "mi")
	assert.NoError(t, err)
}

func TestValidateCardinality(t *testing.T) {
	for _, s := range []string{"1", "0-1", "1-n", "0-n", "0", "10-20"} {
		assert.NoError(t, ValidateCardinality(s), s)
	}
	for _, s := range []string{"", "n", "1-", "-1", "01"} {
		assert.Error(t, ValidateCardinality(s), s)
	}
}

func TestEntryCodeIsRef(t *testing.T) {
	inline := EntryCode{Inline: []string{"a", "b"}}
	ref := EntryCode{Ref: "Esomedigest"}
	assert.False(t, inline.IsRef())
	assert.True(t, ref.IsRef())
}

func TestEntryIsRef(t *testing.T) {
	inline := Entry{Map: map[string]string{"a": "Apple"}}
	ref := Entry{Ref: "Esomedigest"}
	assert.False(t, inline.IsRef())
	assert.True(t, ref.IsRef())
}
