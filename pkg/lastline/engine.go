// engine.go implements the registration lifecycle and the dispatch
// supervisor that routes every captured condition to one handling pass.

package lastline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegistrationState tracks whether an engine is bound to its host.
type RegistrationState int

const (
	// StateUnregistered means no hooks are installed; every entry point
	// no-ops.
	StateUnregistered RegistrationState = iota

	// StateActive means the engine owns the host hooks and dispatches
	// conditions.
	StateActive
)

// Outcome is the terminal state of one dispatch pass.
type Outcome int

const (
	// OutcomeNone means there was nothing to dispatch.
	OutcomeNone Outcome = iota

	// OutcomeInactive means the engine was not registered; nothing ran.
	OutcomeInactive

	// OutcomeFiltered means the reporting mask rejected the record.
	OutcomeFiltered

	// OutcomeDeduplicated means the identity was already handled this
	// Active period.
	OutcomeDeduplicated

	// OutcomeSuppressed means the last-chance pass matched an identity
	// already surfaced.
	OutcomeSuppressed

	// OutcomeHandled means the primary entry returned normally.
	OutcomeHandled

	// OutcomeContained means the primary entry failed and the
	// internal-failure entry contained it.
	OutcomeContained
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeInactive:
		return "inactive"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDeduplicated:
		return "deduplicated"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeHandled:
		return "handled"
	case OutcomeContained:
		return "contained"
	default:
		return "none"
	}
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	logErrors            TriState
	ignoreRepeated       TriState
	ignoreRepeatedSource TriState
	scrubber             *Scrubber
}

// WithLogErrors sets the initial system-log mirroring tri-state.
func WithLogErrors(t TriState) EngineOption {
	return func(c *engineConfig) {
		c.logErrors = t
	}
}

// WithIgnoreRepeated sets the initial repeat-suppression tri-state.
func WithIgnoreRepeated(t TriState) EngineOption {
	return func(c *engineConfig) {
		c.ignoreRepeated = t
	}
}

// WithIgnoreRepeatedSource sets the initial source-sensitivity tri-state.
func WithIgnoreRepeatedSource(t TriState) EngineOption {
	return func(c *engineConfig) {
		c.ignoreRepeatedSource = t
	}
}

// WithScrubber configures system-log redaction with a custom scrubber
// configuration.
func WithScrubber(cfg ScrubberConfig) EngineOption {
	return func(c *engineConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing enables system-log redaction with production-safe
// defaults.
func WithDefaultScrubbing() EngineOption {
	return func(c *engineConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// Engine owns the capture-and-dispatch pipeline for one host binding.
// One mutex serializes whole handling passes, so the handled set, the
// last-handled key, and the headroom reserve/restore pair stay consistent
// when goroutines share an engine.
type Engine struct {
	env     Environment
	handler Handler

	mu                   sync.Mutex
	state                RegistrationState
	logErrors            TriState
	ignoreRepeated       TriState
	ignoreRepeatedSource TriState
	tracker              *dedupeTracker
	lastKey              string // identity of the most recently handled record
	gateway              loggingGateway
	headroom             headroomManager
}

// NewEngine creates an engine bound to the given host environment and
// pluggable handler. The engine is Unregistered until Register is called.
func NewEngine(env Environment, handler Handler, opts ...EngineOption) *Engine {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Default to a discarding handler if none provided
	if handler == nil {
		handler = noopHandlerInternal{}
	}

	return &Engine{
		env:                  env,
		handler:              handler,
		logErrors:            cfg.logErrors,
		ignoreRepeated:       cfg.ignoreRepeated,
		ignoreRepeatedSource: cfg.ignoreRepeatedSource,
		tracker:              newDedupeTracker(),
		gateway:              loggingGateway{env: env, scrubber: cfg.scrubber},
		headroom:             headroomManager{env: env},
	}
}

// Register installs the signal, exception and finalize hooks bound to this
// engine, then flips the state to Active. Registering an Active engine is
// a no-op. Independent engines register without interfering as long as
// they bind distinct environments.
func (e *Engine) Register() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateActive {
		return nil
	}

	err := e.env.InstallHooks(Hooks{
		Signal: func(ctx context.Context, code Severity, message, file string, line int) {
			e.HandleSignal(ctx, code, message, file, line)
		},
		Exception: func(ctx context.Context, rec Record) {
			e.HandleException(ctx, rec)
		},
		Finalize: func(ctx context.Context) {
			e.Finalize(ctx)
		},
	})
	if err != nil {
		return fmt.Errorf("install hooks: %w", err)
	}

	e.state = StateActive
	return nil
}

// Unregister flips the state to Unregistered first, so a hook invocation
// racing the uninstall observes the new state and no-ops, then removes the
// hooks from the host.
func (e *Engine) Unregister() error {
	e.mu.Lock()
	if e.state == StateUnregistered {
		e.mu.Unlock()
		return nil
	}
	e.state = StateUnregistered
	e.mu.Unlock()

	return e.env.RemoveHooks()
}

// IsRegistered reports whether the engine is Active.
func (e *Engine) IsRegistered() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateActive
}

// SetLogErrors sets the system-log mirroring tri-state.
func (e *Engine) SetLogErrors(t TriState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logErrors = t
}

// GetLogErrors returns the system-log mirroring tri-state.
func (e *Engine) GetLogErrors() TriState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.logErrors
}

// SetIgnoreRepeated sets the repeat-suppression tri-state.
func (e *Engine) SetIgnoreRepeated(t TriState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoreRepeated = t
}

// GetIgnoreRepeated returns the repeat-suppression tri-state.
func (e *Engine) GetIgnoreRepeated() TriState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ignoreRepeated
}

// SetIgnoreRepeatedSource sets the source-sensitivity tri-state.
func (e *Engine) SetIgnoreRepeatedSource(t TriState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoreRepeatedSource = t
}

// GetIgnoreRepeatedSource returns the source-sensitivity tri-state.
func (e *Engine) GetIgnoreRepeatedSource() TriState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ignoreRepeatedSource
}

// HandleSignal is the raw-signal entry: the host invokes it (directly or
// through the installed hook) for every runtime signal.
func (e *Engine) HandleSignal(ctx context.Context, code Severity, message, file string, line int) Outcome {
	return e.dispatch(ctx, NewSignalRecord(code, message, file, line), false)
}

// HandleException is the uncaught-exception entry.
func (e *Engine) HandleException(ctx context.Context, rec Record) Outcome {
	return e.dispatch(ctx, rec, false)
}

// HandleCaught reports a caught, non-fatal condition from application code
// outside the host hooks. Handlers implementing CaughtExceptionHandler see
// it through that entry; others through HandleException.
func (e *Engine) HandleCaught(ctx context.Context, rec Record) Outcome {
	return e.dispatch(ctx, rec, true)
}

// Finalize runs the end-of-execution last-chance pass. The host contract
// is to invoke it exactly once per execution context, normal or abnormal,
// after every other condition has been delivered.
func (e *Engine) Finalize(ctx context.Context) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return OutcomeInactive
	}

	cond, ok := e.env.LastCondition()
	if !ok {
		return OutcomeNone
	}

	rec := cond
	rec.Kind = KindLastChanceSignal
	if rec.Code == 0 {
		rec.Code = SeverityCritical
	}

	// Same identity as the immediately preceding handled record means this
	// is the fatal condition already surfaced through the primary hook.
	if identityKey(rec) == e.lastKey && e.lastKey != "" {
		return OutcomeSuppressed
	}
	// Anything surfaced or filtered earlier this Active period stays down
	// at finalize, whatever the ignore settings say.
	if e.tracker.seen(rec) {
		return OutcomeSuppressed
	}

	return e.dispatchLocked(ctx, rec, false)
}

// dispatch gates on registration state and serializes the pass.
func (e *Engine) dispatch(ctx context.Context, rec Record, caught bool) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateActive {
		return OutcomeInactive
	}
	return e.dispatchLocked(ctx, rec, caught)
}

// dispatchLocked runs the supervisor state machine for one record:
// filter, dedupe, headroom bracket, log, primary entry, single-level
// failure containment, remember.
func (e *Engine) dispatchLocked(ctx context.Context, rec Record, caught bool) Outcome {
	rec = normalize(rec)

	if rec.Kind.IsSignal() && e.env.ReportingMask()&rec.Code == 0 {
		// Filtered identities are still remembered so a later re-check of
		// the same condition does not resurface it.
		e.tracker.remember(rec)
		return OutcomeFiltered
	}

	if !e.tracker.shouldHandle(rec,
		e.ignoreRepeated.Resolve(e.env.IgnoreRepeatedDefault()),
		e.ignoreRepeatedSource.Resolve(e.env.IgnoreRepeatedSourceDefault())) {
		return OutcomeDeduplicated
	}

	token := e.headroom.reserve(e.handler.HeadroomRequirement())
	// The deferred restore runs on every path out of the pass, including a
	// fatal unwind escaping the internal-failure entry.
	defer e.headroom.restore(token)

	e.gateway.log(ctx, rec, e.logErrors)

	if secondary := e.invokePrimary(ctx, rec, caught); secondary != nil {
		e.gateway.log(ctx, *secondary, e.logErrors)
		e.containFailure(ctx, *secondary)
		e.remember(rec)
		return OutcomeContained
	}

	e.remember(rec)
	return OutcomeHandled
}

// invokePrimary calls the handler entry matching the record, converting a
// panic or a returned error into a secondary internal-failure record.
func (e *Engine) invokePrimary(ctx context.Context, rec Record, caught bool) (secondary *Record) {
	defer func() {
		if r := recover(); r != nil {
			secondary = &Record{
				Kind:    KindInternalFailure,
				Message: formatRecovered(r),
				Trace:   string(debug.Stack()),
			}
		}
	}()

	var err error
	switch {
	case caught:
		if h, ok := e.handler.(CaughtExceptionHandler); ok {
			err = h.HandleCaughtException(ctx, rec)
		} else {
			err = e.handler.HandleException(ctx, rec)
		}
	case rec.Kind.IsSignal():
		err = e.handler.HandleError(ctx, rec)
	default:
		err = e.handler.HandleException(ctx, rec)
	}
	if err != nil {
		secondary = &Record{
			Kind:    KindInternalFailure,
			Message: err.Error(),
		}
	}
	return secondary
}

// containFailure hands the secondary condition to the handler's defensive
// internal-failure entry. This is the single allowed level of containment:
// a panic here is not recovered, and a non-nil return is raised to the
// host, terminating the process.
func (e *Engine) containFailure(ctx context.Context, secondary Record) {
	if err := e.handler.HandleInternalFailure(ctx, normalize(secondary)); err != nil {
		panic(fmt.Errorf("lastline: internal-failure entry failed: %w", err))
	}
}

// remember records both identity digests and the last-handled key.
func (e *Engine) remember(rec Record) {
	e.tracker.remember(rec)
	e.lastKey = identityKey(rec)
}

// normalize stamps identity fields on a dispatched record, leaving
// caller-provided values alone.
func normalize(rec Record) Record {
	if rec.Kind == "" {
		rec.Kind = KindApplicationException
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	return rec
}

// noopHandlerInternal is an internal discarding handler to avoid import
// cycles with the handlers packages.
type noopHandlerInternal struct{}

func (noopHandlerInternal) HandleError(ctx context.Context, rec Record) error {
	return nil
}

func (noopHandlerInternal) HandleException(ctx context.Context, rec Record) error {
	return nil
}

func (noopHandlerInternal) HandleInternalFailure(ctx context.Context, rec Record) error {
	return nil
}

func (noopHandlerInternal) HeadroomRequirement() int {
	return 0
}
