// Package slug converts long URLs into compact, reversible identifiers.
//
// A slug is the URL-safe base64 encoding (with padding) of the 8-byte
// little-endian representation of a 64-bit fingerprint. The byte order is
// part of the external format: changing it invalidates every issued slug.
package slug

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/cespare/xxhash/v2"
)

// Size is the length of an encoded fingerprint in bytes.
const Size = 8

// Strict decoding rejects non-zero padding bits, so one fingerprint has one slug.
var encoding = base64.URLEncoding.Strict()

// Len is the length of every valid slug.
var Len = encoding.EncodedLen(Size)

// Fingerprint returns the 64-bit xxHash of the raw bytes of longURL.
// xxHash is unseeded, so fingerprints are stable across restarts.
func Fingerprint(longURL string) int64 {
	return int64(xxhash.Sum64String(longURL))
}

// Encode returns the slug of the given fingerprint.
func Encode(fp int64) string {
	var b [Size]byte
	binary.LittleEndian.PutUint64(b[:], uint64(fp))
	return encoding.EncodeToString(b[:])
}

// Decode returns the fingerprint encoded in s.
// It fails with errs.ErrDecode on malformed input.
func Decode(s string) (int64, error) {
	b, err := encoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", errs.ErrDecode, s, err)
	}
	if len(b) != Size {
		return 0, fmt.Errorf("%w: %q: decoded to %d bytes, want %d",
			errs.ErrDecode, s, len(b), Size)
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// FromURL returns the fingerprint and the slug of longURL.
func FromURL(longURL string) (int64, string) {
	fp := Fingerprint(longURL)
	return fp, Encode(fp)
}
