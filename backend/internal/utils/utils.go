package utils

import (
	"errors"
	"strconv"
	"strings"
)

// WhitespaceTrimmer removes leading/trailing whitespace and collapses internal whitespace.
func WhitespaceTrimmer(s string) string {
	// strings.Fields will collapse all whitespace runs into single spaces
	parts := strings.Fields(s)
	return strings.Join(parts, " ")
}

// ParseIndexString reports whether s is a non-negative column index like "4".
func ParseIndexString(s string) (int, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || idx < 0 {
		return -1, false
	}
	return idx, true
}

// ResolveKeyIndex returns the column index for a key which can be a header name or numeric index string.
// A numeric key is accepted even when it is past the end of the header: usage
// exports carry unnamed trailing columns.
func ResolveKeyIndex(header []string, key string) (int, error) {
	keyTrim := strings.TrimSpace(key)
	if keyTrim == "" {
		return -1, errors.New("empty key")
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), keyTrim) {
			return i, nil
		}
	}
	if idx, ok := ParseIndexString(keyTrim); ok {
		return idx, nil
	}
	if len(header) == 0 {
		return -1, errors.New("no header: key must be numeric index string")
	}
	return -1, errors.New("key not found in header")
}

// Normalize applies trimming and case normalization according to flags.
func Normalize(val string, trim bool, caseInsensitive bool) string {
	if trim {
		val = WhitespaceTrimmer(val)
	}
	if caseInsensitive {
		val = strings.ToLower(val)
	}
	return val
}

// HeaderName replaces every space in a column name with filler.
// Only the space character is replaced; tabs and other runes are kept as-is.
func HeaderName(name, filler string) string {
	return strings.ReplaceAll(name, " ", filler)
}
