package validate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// lowerCaser folds text without locale-specific surprises (e.g. Turkish I).
var lowerCaser = cases.Lower(language.Und)

// Normalize trims surrounding whitespace and lowercases a string value the
// way every text field is canonicalized before domain checks. Unicode input
// is NFKC-normalized first so visually identical values compare equal.
func Normalize(s string) string {
	return lowerCaser.String(norm.NFKC.String(strings.TrimSpace(s)))
}

// isAbsent reports whether a present field carries no value. JSON null and
// empty (or all-whitespace) strings short-circuit the field's checks as
// valid; the numeric zero is a real value, never an absence marker.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
