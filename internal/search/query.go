// Package search provides query preprocessing for the history search
// endpoint: whitespace normalization and LIKE-pattern escaping so user
// input is matched literally by the database.
package search

import (
	"regexp"
	"strings"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeQuery trims the query and collapses internal whitespace runs to
// single spaces. An all-whitespace query normalizes to "".
func NormalizeQuery(q string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(q), " ")
}

// EscapeLike escapes the SQL LIKE metacharacters (%, _) and the escape
// character itself so the query matches literally. Callers must pair the
// result with ESCAPE '\' in the LIKE clause.
func EscapeLike(q string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return r.Replace(q)
}
