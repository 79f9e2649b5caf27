// Package lastline is a last-line-of-defense error-capture engine for a
// running process.
//
// lastline intercepts abnormal runtime conditions (graded signals,
// uncaught exceptions, end-of-execution fatals), normalizes them into one
// Record shape, and routes each occurrence to exactly one handling pass
// through a pluggable Handler. The engine owns filtering against the
// host's reporting mask, repeat suppression, resource-headroom bracketing
// around every handler call, and single-level containment of handler
// failures.
//
// # Core Components
//
// The library is organized around these concepts:
//
//   - Record: The canonical representation of a captured condition
//   - Engine: Registers against a host Environment and supervises dispatch
//   - Handler: Destination for conditions (stderr, noop, multi, or custom)
//   - Environment: The host contract (mask, config defaults, resource
//     ceiling, system log, last-condition access)
//
// # Quick Start
//
//	env := hostenv.New()
//	eng := lastline.NewEngine(env, stderr.NewHandler())
//	if err := eng.Register(); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Finalize(ctx)
//	defer lastline.Recover(ctx, eng)
//
// # Design Principles
//
//   - Each condition is seen exactly once: filtered and handled identities
//     are remembered for the whole Active period
//   - Handling never runs without headroom: the resource ceiling is raised
//     before the handler and restored byte-for-byte after it, on every path
//   - One level of containment only: a failure escaping the handler's
//     internal-failure entry propagates to the host and ends the process
package lastline
