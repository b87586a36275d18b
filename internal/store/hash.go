package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ContentHash returns the hex SHA-256 of a file's content. Unchanged files
// are skipped on reindex by comparing this value.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// ComputeOptionsHash computes a deterministic hash over the settings that
// shape extraction output. Keys are sorted so map order does not matter.
// A stored hash that differs from the current one means every file must be
// extracted again.
func ComputeOptionsHash(settings map[string]string) string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s:%s\n", k, settings[k])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
