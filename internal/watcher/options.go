package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the file watcher behavior.
type Options struct {
	// IgnorePatterns are matched against base names. nil selects the defaults.
	IgnorePatterns []string
	// SettleDelay is how long a file must stay unchanged before it is reported.
	SettleDelay  time.Duration
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 250 * time.Millisecond
	}

	// Atomic writes and editors leave temp and swap files next to the document.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			"*.tmp",
			"*.tmp-*",
			"*.swp",
			"*~",
		}
		o.IgnoreHidden = true
	}
}

// shouldIgnore reports whether events for path are dropped.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if o.IgnoreHidden && strings.HasPrefix(base, ".") {
		return true
	}

	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
