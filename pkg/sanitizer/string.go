package sanitizer

import "strings"

// TrimAndNormalize trims s and collapses every run of whitespace to one space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeNotes trims the ends and line endings but keeps inner line breaks.
func NormalizeNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "\r\n", "\n")
	return strings.TrimSpace(notes)
}
