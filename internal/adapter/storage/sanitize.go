package storage

import "strings"

var nameReplacer = strings.NewReplacer(" ", "_", "/", "_")

// SanitizeName maps a book name to its storage key by replacing spaces and
// forward slashes with underscores. Nothing else is filtered: "..",
// backslashes, NUL bytes and reserved device names pass through unchanged,
// and distinct names can collide ("a b" and "a_b" share a key).
func SanitizeName(name string) string {
	return nameReplacer.Replace(name)
}
