package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustType(t *testing.T, s string) Type {
	t.Helper()
	typ, err := ParseType(s)
	require.NoError(t, err)
	return typ
}

func TestCaptureBaseAddAttribute(t *testing.T) {
	cb := NewCaptureBase()
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), false))
	require.NoError(t, cb.AddAttribute("age", mustType(t, "Numeric"), false))
	assert.True(t, cb.HasAttribute("name"))
	assert.True(t, cb.HasAttribute("age"))
	assert.False(t, cb.HasAttribute("missing"))
}

func TestCaptureBaseAddAttributeSameTypeIsNoop(t *testing.T) {
	cb := NewCaptureBase()
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), false))
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), true))
}

func TestCaptureBaseAddAttributeRedefinedRejected(t *testing.T) {
	cb := NewCaptureBase()
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), false))
	err := cb.AddAttribute("name", mustType(t, "Numeric"), false)
	assert.Error(t, err)
}

func TestCaptureBaseComputeDigestIsDeterministic(t *testing.T) {
	build := func() *CaptureBase {
		cb := NewCaptureBase()
		cb.SetClassification("confidential")
		require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), true))
		require.NoError(t, cb.AddAttribute("age", mustType(t, "Numeric"), false))
		return cb
	}

	a := build()
	_, err := a.ComputeDigest()
	require.NoError(t, err)

	b := build()
	_, err = b.ComputeDigest()
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
}

func TestCaptureBaseComputeDigestChangesWithContent(t *testing.T) {
	cb := NewCaptureBase()
	require.NoError(t, cb.AddAttribute("name", mustType(t, "Text"), false))
	first, err := cb.ComputeDigest()
	require.NoError(t, err)

	require.NoError(t, cb.AddAttribute("age", mustType(t, "Numeric"), false))
	second, err := cb.ComputeDigest()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
