package dsl

import (
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"ocabuild.dev/oca/pkg/dsl"
)

// parseValue decodes one nested value from the textual surface: a
// quoted string, a `[...]` array, a `{...}` object, or (for attribute
// type tokens, which are never quoted) a bare word taken verbatim as a
// string.
//
// Array and object literals are decoded with sigs.k8s.io/yaml rather
// than encoding/json directly: YAML is a superset of JSON, so the `[
// ... ]`/`{ ... }` tokens this package already tolerates parse
// unchanged, while command authors get YAML's more forgiving quoting
// rules for free (unquoted keys, trailing commas tolerated by some
// encoders, etc.) without a second literal syntax to document.
func parseValue(raw string) (dsl.Nested, error) {
	switch {
	case strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2:
		return raw[1 : len(raw)-1], nil
	case strings.HasPrefix(raw, "["):
		var items []interface{}
		if err := yaml.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("invalid array literal %q: %w", raw, err)
		}
		out := make([]dsl.Nested, len(items))
		for i, v := range items {
			out[i] = v
		}
		return out, nil
	case strings.HasPrefix(raw, "{"):
		var m map[string]interface{}
		if err := yaml.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("invalid object literal %q: %w", raw, err)
		}
		out := make(map[string]dsl.Nested, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	default:
		return raw, nil
	}
}
