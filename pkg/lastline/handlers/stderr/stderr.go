// Package stderr provides a handler that prints conditions to stderr in
// human-readable form. Useful for development and for hosts without an
// operator notification channel.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lastlinehq/lastline/pkg/lastline"
)

// HandlerOption configures the stderr handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	out      io.Writer
	verbose  bool
	headroom int
}

// WithVerbose enables full condition details including stack traces.
func WithVerbose() HandlerOption {
	return func(c *handlerConfig) {
		c.verbose = true
	}
}

// WithOutput redirects output away from stderr, mainly for tests.
func WithOutput(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		c.out = w
	}
}

// WithHeadroom overrides the declared headroom requirement in mebibytes
// (default: 1).
func WithHeadroom(units int) HandlerOption {
	return func(c *handlerConfig) {
		if units >= 0 {
			c.headroom = units
		}
	}
}

// handler prints conditions in human-readable format.
type handler struct {
	out      io.Writer
	verbose  bool
	headroom int
}

// NewHandler creates a handler that writes to stderr.
func NewHandler(opts ...HandlerOption) lastline.Handler {
	cfg := &handlerConfig{
		out:      os.Stderr,
		headroom: 1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &handler{
		out:      cfg.out,
		verbose:  cfg.verbose,
		headroom: cfg.headroom,
	}
}

// HandleError prints a signal record as a single headline plus detail
// lines.
func (h *handler) HandleError(ctx context.Context, rec lastline.Record) error {
	// Format: [LASTLINE] <timestamp> <SEVERITY> <message> (<file>:<line>)
	timestamp := rec.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	severity := strings.ToUpper(rec.Code.String())

	parts := []string{fmt.Sprintf("[LASTLINE] %s %s %s", timestamp, severity, rec.Message)}
	if rec.HasLocation() {
		parts = append(parts, fmt.Sprintf("(%s:%d)", rec.File, rec.Line))
	}
	if rec.Kind == lastline.KindLastChanceSignal {
		parts = append(parts, "[last chance]")
	}

	if _, err := fmt.Fprintln(h.out, strings.Join(parts, " ")); err != nil {
		return err
	}
	return nil
}

// HandleException prints the outer record, then each cause link oldest to
// newest, then the stack trace in verbose mode.
func (h *handler) HandleException(ctx context.Context, rec lastline.Record) error {
	timestamp := rec.Timestamp.Format("2006-01-02T15:04:05Z07:00")

	headline := fmt.Sprintf("[LASTLINE] %s EXCEPTION %s", timestamp, rec.Message)
	if rec.HasLocation() {
		headline += fmt.Sprintf(" (%s:%d)", rec.File, rec.Line)
	}
	if _, err := fmt.Fprintln(h.out, headline); err != nil {
		return err
	}

	for _, cause := range rec.CauseChain {
		line := fmt.Sprintf("        Caused by: %s", cause.Message)
		if cause.HasLocation() {
			line += fmt.Sprintf(" (%s:%d)", cause.File, cause.Line)
		}
		if _, err := fmt.Fprintln(h.out, line); err != nil {
			return err
		}
	}

	if h.verbose && rec.Trace != "" {
		fmt.Fprintf(h.out, "        Stack trace:\n")
		for _, line := range strings.Split(rec.Trace, "\n") {
			fmt.Fprintf(h.out, "          %s\n", line)
		}
	}

	return nil
}

// HandleInternalFailure prints one line and swallows write errors.
// Anything fancier risks failing the way the primary entry just did.
func (h *handler) HandleInternalFailure(ctx context.Context, rec lastline.Record) error {
	fmt.Fprintf(h.out, "[LASTLINE] INTERNAL FAILURE %s\n", rec.Message)
	return nil
}

// HeadroomRequirement returns the configured requirement.
func (h *handler) HeadroomRequirement() int {
	return h.headroom
}
