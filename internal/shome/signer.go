package shome

import (
	"crypto/sha512"
	"encoding/hex"
	"time"
)

// signPrefix is the fixed salt the cloud prepends to every signature
// payload. The server recomputes the same digest and rejects mismatches.
const signPrefix = "IHRESTAPI"

// timestampLayout is the wire format for createDate values (UTC).
const timestampLayout = "20060102150405"

// Sign computes the request signature over the given fields: the hex
// encoding of SHA-512(prefix + field1 + field2 + ...). Field order is
// part of each endpoint's contract and must match the server exactly.
func Sign(fields ...string) string {
	h := sha512.New()
	h.Write([]byte(signPrefix))
	for _, f := range fields {
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashPassword returns the SHA-512 hex digest of a plaintext password,
// which is the form the login endpoint expects.
func HashPassword(plain string) string {
	sum := sha512.Sum512([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Timestamp renders t in the createDate wire format, always UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}
