package paste

import (
	"strings"
)

// codeLineThreshold is the number of newlines a message must exceed to count as code heavy.
const codeLineThreshold = 15

var supportedExtensions = []string{".log", ".cs", ".json", ".txt"}

// languageIdentifiers are stripped from the first line of a code block.
var languageIdentifiers = []string{"html", "css", "cs", "dns", "python", "lua", "http", "markdown", "diff"}

// IsSupportedAttachment reports whether a file with this name is pasted.
// The check is case-sensitive.
func IsSupportedAttachment(filename string) bool {
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// IsCodeHeavy reports whether a message looks like a pasted code listing:
// it contains one of { } = ; and spans more than fifteen line breaks.
func IsCodeHeavy(content string) bool {
	return strings.ContainsAny(content, "{}=;") && strings.Count(content, "\n") > codeLineThreshold
}

// CleanupCodeBlock strips surrounding backticks and a leading language identifier line.
func CleanupCodeBlock(content string) string {
	content = strings.Trim(content, "`")
	for _, lang := range languageIdentifiers {
		if rest, ok := strings.CutPrefix(content, lang+"\n"); ok {
			return strings.TrimLeft(rest, "\n")
		}
	}
	return content
}
