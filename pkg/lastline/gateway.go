// gateway.go mirrors captured records to the host's system log.

package lastline

import (
	"context"
	"log/slog"
)

// loggingGateway mirrors records to the Environment's system log. It is
// independent of the pluggable handler and always runs before it, so the
// system log sees a condition even when the handler later fails on it.
type loggingGateway struct {
	env      Environment
	scrubber *Scrubber
}

// log writes the record if mirroring is effectively on. The tri-state is
// resolved here, on every call, against the environment default.
func (g loggingGateway) log(ctx context.Context, rec Record, logErrors TriState) {
	if !logErrors.Resolve(g.env.LogErrorsDefault()) {
		return
	}
	logger := g.env.Logger()
	if logger == nil {
		return
	}
	if rec.Kind.IsSignal() {
		g.logSignal(ctx, logger, rec)
		return
	}
	g.logException(ctx, logger, rec)
}

// logSignal emits a one-line severity+message+location entry.
func (g loggingGateway) logSignal(ctx context.Context, logger *slog.Logger, rec Record) {
	attrs := []slog.Attr{slog.String("severity", rec.Code.String())}
	if rec.HasLocation() {
		attrs = append(attrs, slog.String("file", rec.File), slog.Int("line", rec.Line))
	}
	if rec.Kind == KindLastChanceSignal {
		attrs = append(attrs, slog.Bool("last_chance", true))
	}
	logger.LogAttrs(ctx, levelFor(rec.Code), g.scrubMessage(rec.Message), attrs...)
}

// logException emits the outer record first (message, location, trace),
// then walks the cause chain as stored, oldest to newest, one "caused by"
// line per link.
func (g loggingGateway) logException(ctx context.Context, logger *slog.Logger, rec Record) {
	attrs := []slog.Attr{slog.String("kind", string(rec.Kind))}
	if rec.HasLocation() {
		attrs = append(attrs, slog.String("file", rec.File), slog.Int("line", rec.Line))
	}
	if rec.Trace != "" {
		attrs = append(attrs, slog.String("trace", g.scrubTrace(rec.Trace)))
	}
	logger.LogAttrs(ctx, slog.LevelError, g.scrubMessage(rec.Message), attrs...)

	for i, cause := range rec.CauseChain {
		cattrs := []slog.Attr{slog.Int("cause", i + 1)}
		if cause.HasLocation() {
			cattrs = append(cattrs, slog.String("file", cause.File), slog.Int("line", cause.Line))
		}
		logger.LogAttrs(ctx, slog.LevelError, "caused by: "+g.scrubMessage(cause.Message), cattrs...)
	}
}

func (g loggingGateway) scrubMessage(msg string) string {
	if g.scrubber == nil {
		return msg
	}
	return g.scrubber.ScrubMessage(msg)
}

func (g loggingGateway) scrubTrace(trace string) string {
	if g.scrubber == nil {
		return trace
	}
	return g.scrubber.ScrubTrace(trace)
}

// levelFor maps a signal severity to a log level.
func levelFor(code Severity) slog.Level {
	switch code {
	case SeverityNotice:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
