// Package digest implements the Self-Addressing IDentifier (SAID)
// placeholder protocol: a digest is a fixed-length string in a
// self-describing alphabet (a one-byte derivation code, here "E" for
// Blake3-256, followed by the unpadded base64url encoding of the hash),
// computed over an object's canonical serialization after its own digest
// field has been replaced by a placeholder of the final digest's exact
// width.
package digest

import (
	"encoding/base64"

	"github.com/zeebo/blake3"
)

// Blake3Code is the derivation code for Blake3-256 digests.
const Blake3Code = "E"

// Length is the fixed width, in bytes, of every digest string produced by
// this package: one derivation-code byte plus the 43-byte unpadded
// base64url encoding of a 32-byte Blake3-256 sum.
const Length = 44

// PlaceholderChar fills a digest field while its own width is being
// reserved for the as-yet-uncomputed hash.
const PlaceholderChar = '#'

// Placeholder returns the fixed-width sentinel value written into a
// digest field before its canonical serialization is computed.
func Placeholder() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = PlaceholderChar
	}
	return string(b)
}

// Of hashes canonical with Blake3-256 and encodes it as a SAID string.
func Of(canonical []byte) string {
	sum := blake3.Sum256(canonical)
	return Blake3Code + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Compute implements the full placeholder protocol: it calls build with
// the placeholder value, hashes the canonical bytes it returns, and
// returns the resulting digest. The caller is responsible for writing
// the result back into the object's digest field -- Compute never
// mutates anything itself, keeping the protocol usable on immutable
// snapshots as well as builders.
func Compute(build func(placeholder string) ([]byte, error)) (string, error) {
	canonical, err := build(Placeholder())
	if err != nil {
		return "", err
	}
	return Of(canonical), nil
}

// Valid reports whether s has the shape of a digest produced by this
// package: the right length, a recognized derivation code, and a body
// that base64url-decodes to exactly 32 bytes. This is a cheap sanity
// check, not a cryptographic verification -- recomputing and comparing
// is the only way to confirm a digest is correct.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	if s[:1] != Blake3Code {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(s[1:])
	return err == nil && len(raw) == 32
}

// IsPlaceholder reports whether s is exactly the placeholder sentinel.
func IsPlaceholder(s string) bool {
	return s == Placeholder()
}
