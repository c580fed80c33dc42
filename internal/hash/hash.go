// Package hash provides the content-hashing primitives used for project and
// chunk identity and for cheap change detection during incremental indexing.
package hash

import (
	"crypto/md5"  //nolint:gosec // non-security identifier derivation, not a security boundary
	"crypto/sha256"
	"encoding/hex"
)

// ProjectID derives a stable 128-bit project identifier from an absolute
// path. MD5 is used purely as a fast, fixed-width content hash; it is never
// used for anything security-sensitive.
func ProjectID(absolutePath string) string {
	sum := md5.Sum([]byte(absolutePath)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Content returns the SHA-256 hex digest of the given bytes, used to detect
// unchanged file content between indexing runs.
func Content(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ContentString is a convenience wrapper around Content for string input.
func ContentString(s string) string {
	return Content([]byte(s))
}
