package record

import "strings"

// EncodeCountedFlags renders $COUNTED_FLAGS as a bare space-separated
// string — this key predates the structured list format and is not
// version-prefixed.
func EncodeCountedFlags(flags []string) string {
	return strings.Join(flags, " ")
}

// DecodeCountedFlags parses $COUNTED_FLAGS by a plain whitespace split.
func DecodeCountedFlags(value string) []string {
	return strings.Fields(value)
}
