// Package codec converts between raw byte buffers and the URL-safe text
// encoding used on the JSON transport boundary. The alphabet is standard
// base64 with '+' and '/' replaced by '-' and '_', and trailing padding
// stripped.
package codec

import (
	"encoding/base64"
	"strings"
)

var (
	toSafe   = strings.NewReplacer("+", "-", "/", "_")
	fromSafe = strings.NewReplacer("-", "+", "_", "/")
)

// Encode produces the URL-safe, padding-free text form of b.
func Encode(b []byte) string {
	s := base64.StdEncoding.EncodeToString(b)
	return toSafe.Replace(strings.TrimRight(s, "="))
}

// Decode is the exact inverse of Encode. It restores the minimal padding
// before reversing the alphabet substitution, so decode(encode(b)) == b for
// every byte sequence b.
func Decode(s string) ([]byte, error) {
	if pad := (4 - len(s)%4) % 4; pad > 0 {
		s += strings.Repeat("=", pad)
	}
	return base64.StdEncoding.DecodeString(fromSafe.Replace(s))
}
