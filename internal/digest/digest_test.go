package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderWidth(t *testing.T) {
	p := Placeholder()
	assert.Len(t, p, Length)
	for _, r := range p {
		assert.Equal(t, byte(PlaceholderChar), byte(r))
	}
}

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte(`{"a":1}`))
	b := Of([]byte(`{"a":1}`))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Of([]byte(`{"a":2}`)))
}

func TestOfShape(t *testing.T) {
	d := Of([]byte("hello"))
	assert.Len(t, d, Length)
	assert.Equal(t, Blake3Code, d[:1])
	assert.True(t, Valid(d))
}

func TestComputeRoundTrip(t *testing.T) {
	var placeholderSeen string
	d, err := Compute(func(placeholder string) ([]byte, error) {
		placeholderSeen = placeholder
		return []byte(`{"digest":"` + placeholder + `"}`), nil
	})
	require.NoError(t, err)
	assert.Len(t, placeholderSeen, Length)
	assert.True(t, Valid(d))
}

func TestValidRejectsMalformed(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("too short"))
	assert.False(t, Valid("X"+Of([]byte("x"))[1:]))
	assert.False(t, Valid(Placeholder()))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder(Placeholder()))
	assert.False(t, IsPlaceholder(Of([]byte("x"))))
}
