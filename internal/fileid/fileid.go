// Package fileid derives stable help entry IDs from documentation file paths.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// EntryID returns the entry ID for the help file at path under root: the
// slash-separated path relative to root without its extension
// ("account/reset-password" for root/account/reset-password.md). Paths that
// are not under root get a hash-based ID.
func EntryID(root, path string) string {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return HashID(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

// HashID returns a stable ID for the given path. Same path always yields the same ID.
func HashID(path string) string {
	normalized := filepath.Clean(path)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
