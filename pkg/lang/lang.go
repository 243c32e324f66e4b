// Package lang validates the two-letter language codes used by
// per-language overlays and DSL commands against ISO 639-1.
package lang

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalid is the sentinel cause behind every rejected language code.
var ErrInvalid = errors.New("not a valid ISO 639-1 language code")

// Validate normalizes code to lowercase and confirms it is a two-letter
// ISO 639-1 primary language subtag golang.org/x/text/language
// recognizes.
func Validate(code string) (string, error) {
	lower := strings.ToLower(code)
	if len(lower) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalid, code)
	}
	base, err := language.ParseBase(lower)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalid, code, err)
	}
	if base.String() != lower {
		return "", fmt.Errorf("%w: %q", ErrInvalid, code)
	}
	return lower, nil
}
