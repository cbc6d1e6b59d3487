package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint computes a deterministic digest of configuration items.
// Equal item sets hash equally regardless of map iteration order.
func Fingerprint(items map[string]string) string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(items[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortFingerprint truncates a fingerprint for display and ETags.
func ShortFingerprint(full string) string {
	if len(full) < 16 {
		return full
	}
	return full[:16]
}

// ETag formats a fingerprint as a strong entity tag.
func ETag(items map[string]string) string {
	return `"` + ShortFingerprint(Fingerprint(items)) + `"`
}

// MatchesETag reports whether an If-None-Match header names tag.
func MatchesETag(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
