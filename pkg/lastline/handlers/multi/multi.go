// Package multi provides a handler that fans out to multiple handlers.
// All handlers see all conditions; failures are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/lastlinehq/lastline/pkg/lastline"
)

// multiHandler fans out to multiple handlers.
type multiHandler struct {
	handlers []lastline.Handler
}

// NewHandler creates a handler that forwards every condition to each of
// the given handlers in order. All handlers run even when some fail;
// failures are aggregated via errors.Join and surface to the engine as one
// secondary failure.
func NewHandler(handlers ...lastline.Handler) lastline.Handler {
	return &multiHandler{
		handlers: handlers,
	}
}

// HandleError forwards the record to all handlers, collecting failures.
func (h *multiHandler) HandleError(ctx context.Context, rec lastline.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if err := handler.HandleError(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleException forwards the record to all handlers, collecting failures.
func (h *multiHandler) HandleException(ctx context.Context, rec lastline.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if err := handler.HandleException(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandleInternalFailure forwards to all handlers. A non-nil aggregate here
// is fatal to the process, exactly as it would be for a single handler.
func (h *multiHandler) HandleInternalFailure(ctx context.Context, rec lastline.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if err := handler.HandleInternalFailure(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HeadroomRequirement is the sum of the wrapped requirements: every
// handler runs during the pass, so every requirement applies at once.
func (h *multiHandler) HeadroomRequirement() int {
	total := 0
	for _, handler := range h.handlers {
		total += handler.HeadroomRequirement()
	}
	return total
}
