package lastline

import (
	"strings"
	"testing"
)

func TestScrubber_RedactsSecrets(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	tests := []struct {
		name string
		in   string
		leak string
	}{
		{"password", "login failed: password=hunter2", "hunter2"},
		{"api key", "request denied, api_key: abc123def456", "abc123def456"},
		{"openai key", "invalid key sk-proj-abcdefghij1234567890xyz", "sk-proj"},
		{"email", "user bob@example.com not found", "bob@example.com"},
		{"jwt", "bad token eyJhbGci.eyJzdWIi.sig123", "eyJzdWIi"},
	}
	for _, tt := range tests {
		got := s.ScrubMessage(tt.in)
		if strings.Contains(got, tt.leak) {
			t.Errorf("%s: %q still contains %q", tt.name, got, tt.leak)
		}
		if !strings.Contains(got, redactedPlaceholder) {
			t.Errorf("%s: no placeholder in %q", tt.name, got)
		}
	}
}

func TestScrubber_LeavesCleanMessagesAlone(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())
	msg := "file not found: config.yaml"
	if got := s.ScrubMessage(msg); got != msg {
		t.Errorf("clean message modified: %q", got)
	}
}

func TestScrubber_TruncatesLongMessages(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.MaxMessageSize = 10
	s := NewScrubber(cfg)

	got := s.ScrubMessage("0123456789abcdef")
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Errorf("long message not truncated: %q", got)
	}
	if strings.Contains(got, "abcdef") {
		t.Errorf("truncation kept the tail: %q", got)
	}
}

func TestScrubber_ExtraPatterns(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.SensitivePatterns = []string{`internal-[0-9]+`}
	s := NewScrubber(cfg)

	got := s.ScrubMessage("ticket internal-4521 leaked")
	if strings.Contains(got, "internal-4521") {
		t.Errorf("extra pattern not applied: %q", got)
	}
}

func TestScrubber_FailClosed_OnBadPattern(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.SensitivePatterns = []string{`([unclosed`}
	s := NewScrubber(cfg)

	if got := s.ScrubMessage("anything at all"); got != redactedPlaceholder {
		t.Errorf("fail-closed scrubber should fully redact, got %q", got)
	}
}

func TestScrubber_FailOpen_SkipsBadPattern(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.FailClosed = false
	cfg.SensitivePatterns = []string{`([unclosed`}
	s := NewScrubber(cfg)

	msg := "plain message"
	if got := s.ScrubMessage(msg); got != msg {
		t.Errorf("fail-open scrubber should pass clean text, got %q", got)
	}
}

func TestScrubber_NormalizesTracePaths(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	got := s.ScrubTrace("main.run\n\t/home/alice/src/app/main.go:42")
	if strings.Contains(got, "alice") {
		t.Errorf("username survived in trace: %q", got)
	}
}
