// Package noop provides a handler that discards all conditions.
// Useful for testing and for disabling handling without unregistering.
package noop

import (
	"context"

	"github.com/lastlinehq/lastline/pkg/lastline"
)

// noopHandler discards all conditions.
type noopHandler struct{}

// NewHandler creates a handler that discards every condition.
// All entries return nil and perform no operations.
func NewHandler() lastline.Handler {
	return &noopHandler{}
}

// HandleError discards the record and returns nil.
func (h *noopHandler) HandleError(ctx context.Context, rec lastline.Record) error {
	return nil
}

// HandleException discards the record and returns nil.
func (h *noopHandler) HandleException(ctx context.Context, rec lastline.Record) error {
	return nil
}

// HandleInternalFailure discards the record and returns nil.
func (h *noopHandler) HandleInternalFailure(ctx context.Context, rec lastline.Record) error {
	return nil
}

// HeadroomRequirement is zero; discarding needs no resources.
func (h *noopHandler) HeadroomRequirement() int {
	return 0
}
