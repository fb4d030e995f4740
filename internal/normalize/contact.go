package normalize

import (
	"strings"
)

// blankValues are the cell values a spreadsheet export writes for a missing
// value. They never take part in an overlap match.
var blankValues = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
}

// NameKey is the identity used to join contact records across files
type NameKey struct {
	First string
	Last  string
}

// Name builds the normalized key for a first/last name pair
func Name(first, last string) NameKey {
	return NameKey{First: Value(first), Last: Value(last)}
}

// Blank reports whether both halves of the key are empty. Blank keys never join.
func (k NameKey) Blank() bool {
	return k.First == "" && k.Last == ""
}

func (k NameKey) String() string {
	return k.First + " " + k.Last
}

// Value trims surrounding whitespace and lowercases a cell value
func Value(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Email normalizes an email address for comparison. It does not validate.
func Email(s string) string {
	return Value(s)
}

// IsBlank reports whether a cell holds no usable value
func IsBlank(s string) bool {
	return blankValues[Value(s)]
}

// Joined normalizes each value and joins them into a composite key
func Joined(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Value(v)
	}
	return strings.Join(parts, "|")
}
