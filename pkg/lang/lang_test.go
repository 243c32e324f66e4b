package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNormalizesCase(t *testing.T) {
	code, err := Validate("EN")
	require.NoError(t, err)
	assert.Equal(t, "en", code)
}

func TestValidateAcceptsKnownCodes(t *testing.T) {
	for _, c := range []string{"en", "fr", "de", "ja"} {
		_, err := Validate(c)
		assert.NoError(t, err, c)
	}
}

func TestValidateRejectsWrongLength(t *testing.T) {
	_, err := Validate("eng")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRejectsUnknownCode(t *testing.T) {
	_, err := Validate("zz")
	assert.ErrorIs(t, err, ErrInvalid)
}
