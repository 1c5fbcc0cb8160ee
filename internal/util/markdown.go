// Package util provides common utility functions.
package util

import (
	"strings"
	"unicode"
)

// markdownEscaper prefixes every Discord markdown control character with a backslash.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`~`, `\~`,
	"`", "\\`",
	`.`, `\.`,
	`:`, `\:`,
	`/`, `\/`,
	`>`, `\>`,
	`|`, `\|`,
)

// SanitizeMarkdown escapes markdown control characters so text renders literally in chat.
//
// Examples:
//
//	"readme"    → "readme"
//	"**bold**"  → "\*\*bold\*\*"
//	"a.b"       → "a\.b"
func SanitizeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// ValidTagName reports whether name can be used as a tag name: it is not
// empty, sanitizing leaves it unchanged and it contains no whitespace.
func ValidTagName(name string) bool {
	if name == "" {
		return false
	}
	if SanitizeMarkdown(name) != name {
		return false
	}
	return !strings.ContainsFunc(name, unicode.IsSpace)
}
