package util

import "strings"

// SanitizeStoredText drops invalid UTF-8 sequences and NUL bytes, which
// Postgres text columns and Bolt strings reject.
func SanitizeStoredText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseSpace replaces every run of whitespace, line breaks included, with
// a single space and trims the ends.
func CollapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
