// recover.go provides the Recover helper for defer-based panic capture.
// Use this in HTTP handlers, goroutines, or other code the host runtime's
// own hooks cannot see into.

package lastline

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Recover captures a panic, routes it through the engine's
// uncaught-exception entry, and returns the recovered value. Recover does
// NOT re-panic after dispatching.
//
// Use in defer:
//
//	func worker(ctx context.Context) {
//	    defer lastline.Recover(ctx, eng)
//	    // code that might panic
//	}
//
// Or to capture the recovered value:
//
//	func worker(ctx context.Context) (err error) {
//	    defer func() {
//	        if r := lastline.Recover(ctx, eng); r != nil {
//	            err = fmt.Errorf("panic: %v", r)
//	        }
//	    }()
//	    // code that might panic
//	}
func Recover(ctx context.Context, eng *Engine) any {
	r := recover()
	if r == nil {
		return nil
	}

	rec := Record{
		Kind:    KindApplicationException,
		Message: formatRecovered(r),
		Trace:   string(debug.Stack()),
	}

	// Dispatch the record (outcome ignored - we don't want to affect caller)
	eng.HandleException(ctx, rec)

	return r
}

// formatRecovered formats a recovered panic value as a string.
func formatRecovered(recovered any) string {
	if recovered == nil {
		return "<nil>"
	}
	if err, ok := recovered.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", recovered)
}
