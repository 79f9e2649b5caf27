// scrubber.go redacts sensitive data before records reach the system log.

package lastline

import "regexp"

// ScrubberConfig controls redaction behavior.
type ScrubberConfig struct {
	// SensitivePatterns contains additional regex patterns to redact from
	// messages, on top of the built-in set.
	SensitivePatterns []string

	// MaxMessageSize is the maximum length for messages (default: 4096).
	MaxMessageSize int

	// MaxTraceSize is the maximum length for stack traces (default: 32768).
	MaxTraceSize int

	// FailClosed enables fail-closed behavior: if the scrubber cannot be
	// built as configured, it redacts fully rather than pass raw data
	// (default: true).
	FailClosed bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize: 4096,
		MaxTraceSize:   32768,
		FailClosed:     true,
	}
}

const redactedPlaceholder = "[REDACTED]"

// Compiled patterns for message scrubbing (compiled once at package init)
var messageScrubPatterns = []*regexp.Regexp{
	// API keys and tokens
	regexp.MustCompile(`(?i)(api[_-]?key|token)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)(authorization|bearer)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_-]{20,}`),
	regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`),
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), // JWT

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'"",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'"",]+['"]?`),

	// PII
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`), // Email
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                               // SSN
}

// Home and temp directory components normalized out of stack traces
var pathNormalizationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/home/[^/]+/`),
	regexp.MustCompile(`/Users/[^/]+/`),
	regexp.MustCompile(`C:\\Users\\[^\\]+\\`),
	regexp.MustCompile(`/tmp/[^/]+/`),
}

// Scrubber redacts sensitive data from record text fields.
type Scrubber struct {
	cfg    ScrubberConfig
	extra  []*regexp.Regexp
	broken bool
}

// NewScrubber creates a scrubber with the given configuration. If an extra
// pattern does not compile and FailClosed is set, the scrubber redacts
// every message fully instead of risking a partial redaction.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}
	if cfg.MaxTraceSize <= 0 {
		cfg.MaxTraceSize = 32768
	}

	s := &Scrubber{cfg: cfg}
	for _, p := range cfg.SensitivePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			if cfg.FailClosed {
				s.broken = true
			}
			continue
		}
		s.extra = append(s.extra, re)
	}
	return s
}

// ScrubMessage redacts secrets and PII from a message and caps its length.
func (s *Scrubber) ScrubMessage(msg string) string {
	if msg == "" {
		return msg
	}
	if s.broken {
		return redactedPlaceholder
	}
	for _, re := range messageScrubPatterns {
		msg = re.ReplaceAllString(msg, redactedPlaceholder)
	}
	for _, re := range s.extra {
		msg = re.ReplaceAllString(msg, redactedPlaceholder)
	}
	if len(msg) > s.cfg.MaxMessageSize {
		msg = msg[:s.cfg.MaxMessageSize] + "...(truncated)"
	}
	return msg
}

// ScrubTrace normalizes user-identifying path components out of a stack
// trace and caps its length.
func (s *Scrubber) ScrubTrace(trace string) string {
	if trace == "" {
		return trace
	}
	if s.broken {
		return redactedPlaceholder
	}
	for _, re := range pathNormalizationPatterns {
		trace = re.ReplaceAllString(trace, "/~/")
	}
	if len(trace) > s.cfg.MaxTraceSize {
		trace = trace[:s.cfg.MaxTraceSize] + "...(truncated)"
	}
	return trace
}
