package dsl

import "strings"

// tokenize splits a DSL source line into fields on unquoted,
// unbracketed whitespace, keeping quoted strings and bracketed/braced
// array and object literals intact as single tokens (e.g. `["a", "b"]`
// or `{"k": "v"}` survive whole, even though they contain spaces).
func tokenize(line string) []string {
	var tokens []string
	var buf strings.Builder
	var depth int
	inQuotes := false

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			inQuotes = !inQuotes
			buf.WriteRune(r)
		case inQuotes:
			buf.WriteRune(r)
		case r == '[' || r == '{':
			depth++
			buf.WriteRune(r)
		case r == ']' || r == '}':
			depth--
			buf.WriteRune(r)
		case depth > 0:
			buf.WriteRune(r)
		case r == ' ' || r == '\t':
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// splitPair splits a `key=value` token at its first '=', the separator
// between an attribute/property name and its nested value.
func splitPair(token string) (key, value string, ok bool) {
	i := strings.IndexByte(token, '=')
	if i < 0 {
		return "", "", false
	}
	return token[:i], token[i+1:], true
}
