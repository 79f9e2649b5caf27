// Package hostenv provides a lastline.Environment backed by the running
// Go process.
//
// Configuration defaults come from environment variables, the resource
// ceiling maps onto the runtime's soft memory limit, records mirror
// through a log/slog logger, and the last delivered condition is latched
// for the engine's last-chance pass. Application code raises conditions
// through RaiseSignal/RaiseException and calls Shutdown exactly once when
// the execution context ends.
package hostenv

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/lastlinehq/lastline/pkg/lastline"
)

// Environment variables consulted for engine defaults.
const (
	// EnvReportingMask lists interesting severities, comma separated
	// ("notice,warning,error,critical"), or "all"/"none". Unset means all.
	EnvReportingMask = "LASTLINE_REPORT"

	// EnvLogErrors is the default for system-log mirroring (boolean).
	EnvLogErrors = "LASTLINE_LOG_ERRORS"

	// EnvIgnoreRepeated is the default for repeat suppression (boolean).
	EnvIgnoreRepeated = "LASTLINE_IGNORE_REPEATED"

	// EnvIgnoreRepeatedSource is the default for ignoring the origin when
	// suppressing repeats (boolean).
	EnvIgnoreRepeatedSource = "LASTLINE_IGNORE_REPEATED_SOURCE"
)

// unlimitedCeiling is how an unset memory limit reads as a ceiling string.
const unlimitedCeiling = "unlimited"

// Option configures a Process.
type Option func(*Process)

// WithLogger overrides the system log sink.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Process) {
		p.logger = logger
	}
}

// WithGetenv overrides the variable lookup, mainly for tests.
func WithGetenv(fn func(string) string) Option {
	return func(p *Process) {
		p.getenv = fn
	}
}

// Process implements lastline.Environment on top of the current process.
type Process struct {
	logger *slog.Logger
	getenv func(string) string

	mu       sync.Mutex
	hooks    *lastline.Hooks
	lastCond *lastline.Record
	shutdown sync.Once
}

// New creates a process environment. By default it reads os.Getenv and
// logs to stderr through a text handler.
func New(opts ...Option) *Process {
	p := &Process{
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return p
}

// ReportingMask parses the mask variable at every call, so runtime changes
// to the environment stay visible.
func (p *Process) ReportingMask() lastline.Severity {
	raw := p.getenv(EnvReportingMask)
	if raw == "" {
		return lastline.SeverityAll
	}
	return parseMask(raw)
}

// LogErrorsDefault reports the mirroring default (on when unset).
func (p *Process) LogErrorsDefault() bool {
	return p.boolVar(EnvLogErrors, true)
}

// IgnoreRepeatedDefault reports the repeat-suppression default (off when
// unset).
func (p *Process) IgnoreRepeatedDefault() bool {
	return p.boolVar(EnvIgnoreRepeated, false)
}

// IgnoreRepeatedSourceDefault reports the source-ignoring default (off
// when unset).
func (p *Process) IgnoreRepeatedSourceDefault() bool {
	return p.boolVar(EnvIgnoreRepeatedSource, false)
}

// ResourceCeiling reads the runtime's soft memory limit as a size string.
func (p *Process) ResourceCeiling() string {
	limit := debug.SetMemoryLimit(-1) // negative reads without changing
	if limit == math.MaxInt64 {
		return unlimitedCeiling
	}
	return lastline.FormatSize(limit)
}

// SetResourceCeiling installs a new soft memory limit.
func (p *Process) SetResourceCeiling(ceiling string) error {
	if ceiling == unlimitedCeiling {
		debug.SetMemoryLimit(math.MaxInt64)
		return nil
	}
	n, err := lastline.ParseSize(ceiling)
	if err != nil {
		return fmt.Errorf("set memory limit: %w", err)
	}
	debug.SetMemoryLimit(n)
	return nil
}

// Logger returns the system log sink.
func (p *Process) Logger() *slog.Logger {
	return p.logger
}

// LastCondition returns the most recently raised condition, if any.
func (p *Process) LastCondition() (lastline.Record, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastCond == nil {
		return lastline.Record{}, false
	}
	return *p.lastCond, true
}

// InstallHooks binds an engine's callbacks.
func (p *Process) InstallHooks(h lastline.Hooks) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = &h
	return nil
}

// RemoveHooks unbinds the callbacks.
func (p *Process) RemoveHooks() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = nil
	return nil
}

// RaiseSignal delivers a raw signal tuple. The condition is latched as the
// last condition whether or not a hook is installed, so the last-chance
// pass can compare it against what was already surfaced.
func (p *Process) RaiseSignal(ctx context.Context, code lastline.Severity, message, file string, line int) {
	rec := lastline.NewSignalRecord(code, message, file, line)

	p.mu.Lock()
	p.lastCond = &rec
	hooks := p.hooks
	p.mu.Unlock()

	if hooks != nil && hooks.Signal != nil {
		hooks.Signal(ctx, code, message, file, line)
	}
}

// RaiseException delivers an exception record to the uncaught-exception
// hook and latches it as the last condition.
func (p *Process) RaiseException(ctx context.Context, rec lastline.Record) {
	p.mu.Lock()
	p.lastCond = &rec
	hooks := p.hooks
	p.mu.Unlock()

	if hooks != nil && hooks.Exception != nil {
		hooks.Exception(ctx, rec)
	}
}

// NoteCondition latches a condition without delivering it to any hook.
// Hosts use it for terminations no hook can observe in flight.
func (p *Process) NoteCondition(rec lastline.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCond = &rec
}

// Shutdown runs the end-of-execution hook. Repeat calls are no-ops; the
// host contract is one finalize pass per execution context.
func (p *Process) Shutdown(ctx context.Context) {
	p.shutdown.Do(func() {
		p.mu.Lock()
		hooks := p.hooks
		p.mu.Unlock()

		if hooks != nil && hooks.Finalize != nil {
			hooks.Finalize(ctx)
		}
	})
}

// boolVar parses a boolean variable, falling back on unset or junk.
func (p *Process) boolVar(name string, fallback bool) bool {
	raw := p.getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

// severityTokens maps mask variable tokens to severities.
var severityTokens = map[string]lastline.Severity{
	"notice":   lastline.SeverityNotice,
	"warning":  lastline.SeverityWarning,
	"error":    lastline.SeverityError,
	"critical": lastline.SeverityCritical,
}

// parseMask builds a severity set from a comma-separated token list.
// Unknown tokens are ignored; "all" and "none" short-circuit.
func parseMask(raw string) lastline.Severity {
	var mask lastline.Severity
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch tok {
		case "all":
			return lastline.SeverityAll
		case "none":
			return 0
		default:
			mask |= severityTokens[tok]
		}
	}
	return mask
}
