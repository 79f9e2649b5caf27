// environment.go defines the host contract the engine registers against.

package lastline

import (
	"context"
	"log/slog"
)

// Hooks is the callback bundle an engine binds into a host runtime when it
// registers. The host invokes Signal for every raw runtime signal,
// Exception for every exception about to escape uncaught, and Finalize
// exactly once at the end of every execution context, normal or abnormal.
type Hooks struct {
	Signal    func(ctx context.Context, code Severity, message, file string, line int)
	Exception func(ctx context.Context, rec Record)
	Finalize  func(ctx context.Context)
}

// Environment is the host runtime as seen by the engine: reporting mask,
// configuration defaults, the resource ceiling, the system log sink, and
// access to the last unhandled condition for the last-chance pass.
//
// Implementations must be safe for concurrent use.
type Environment interface {
	// ReportingMask returns the set of severities considered interesting.
	// Signal records whose code is outside the mask are dropped silently.
	ReportingMask() Severity

	// LogErrorsDefault is the environment default for mirroring records to
	// the system log, consulted when the engine's setting is TriInherit.
	LogErrorsDefault() bool

	// IgnoreRepeatedDefault is the environment default for repeat
	// suppression.
	IgnoreRepeatedDefault() bool

	// IgnoreRepeatedSourceDefault is the environment default for treating
	// distinct origins of the same condition as distinct occurrences.
	IgnoreRepeatedSourceDefault() bool

	// ResourceCeiling reads the current ceiling as a formatted size string,
	// e.g. "64M". The engine hands the exact string back to
	// SetResourceCeiling when it restores.
	ResourceCeiling() string

	// SetResourceCeiling installs a new ceiling from a formatted size
	// string.
	SetResourceCeiling(ceiling string) error

	// Logger returns the system log sink used by the logging gateway.
	Logger() *slog.Logger

	// LastCondition returns the last condition the host observed that no
	// signal or exception hook surfaced, if any. This powers the
	// last-chance pass.
	LastCondition() (Record, bool)

	// InstallHooks binds the engine's callbacks into the host runtime.
	InstallHooks(h Hooks) error

	// RemoveHooks unbinds previously installed callbacks.
	RemoveHooks() error
}
