package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Checksum returns the hex-encoded SHA-256 digest of s.
func Checksum(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CombineChecksums folds a set of named checksums into a single digest.
// The result is independent of map iteration order.
func CombineChecksums(parts map[string]string) string {
	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(parts[name])
		b.WriteByte('\n')
	}
	return Checksum(b.String())
}
