// handler.go defines the pluggable handling contract consumed by the engine.

package lastline

import "context"

// Handler is the pluggable destination for captured conditions. The engine
// guarantees each condition reaches at most one primary entry, at most
// once per Active period when repeat suppression is on.
// Implementations must be safe for concurrent use.
type Handler interface {
	// HandleError processes a signal-kind record. A non-nil return or a
	// panic is treated as a secondary failure and routed once to
	// HandleInternalFailure.
	HandleError(ctx context.Context, rec Record) error

	// HandleException processes an exception-kind record. Failure semantics
	// match HandleError.
	HandleException(ctx context.Context, rec Record) error

	// HandleInternalFailure processes a secondary failure raised by a
	// primary entry. It must be written defensively, avoiding anything that
	// can fail the same way the primary entry did: a non-nil return or a
	// panic here is not contained and terminates the process.
	HandleInternalFailure(ctx context.Context, rec Record) error

	// HeadroomRequirement returns the extra resource ceiling, in mebibytes,
	// this handler needs to do its work.
	HeadroomRequirement() int
}

// CaughtExceptionHandler is an optional interface for handlers that treat
// caught (non-fatal) conditions, reported through Engine.HandleCaught
// rather than a host hook, differently from uncaught exceptions. Handlers
// that do not implement it get those records via HandleException.
type CaughtExceptionHandler interface {
	HandleCaughtException(ctx context.Context, rec Record) error
}
