// record.go defines the canonical record shape for captured conditions.

package lastline

import (
	"errors"
	"fmt"
	"time"
)

// Kind distinguishes the variants of a captured condition.
type Kind string

const (
	// KindRuntimeSignal is a graded condition raised by the host runtime.
	KindRuntimeSignal Kind = "signal"

	// KindApplicationException is an exception that escaped (or was caught
	// outside) the normal call chain.
	KindApplicationException Kind = "exception"

	// KindInternalFailure is a secondary condition raised while handling a
	// primary one.
	KindInternalFailure Kind = "internal-failure"

	// KindLastChanceSignal is a condition detected only at end of execution,
	// after every hook has had its chance to fire.
	KindLastChanceSignal Kind = "last-chance"
)

// IsSignal reports whether the kind is subject to reporting-mask filtering.
func (k Kind) IsSignal() bool {
	return k == KindRuntimeSignal || k == KindLastChanceSignal
}

// Severity classifies runtime signals. Values are bit flags so a set of
// severities doubles as a reporting mask.
type Severity int

const (
	// SeverityNotice indicates an advisory condition.
	SeverityNotice Severity = 1 << iota

	// SeverityWarning indicates a non-fatal issue that may need attention.
	SeverityWarning

	// SeverityError indicates a recoverable error that caused an operation
	// to fail.
	SeverityError

	// SeverityCritical indicates an unrecoverable termination condition.
	SeverityCritical
)

// SeverityAll is the reporting mask that admits every severity.
const SeverityAll = SeverityNotice | SeverityWarning | SeverityError | SeverityCritical

// severityNames is the fixed severity-name table.
var severityNames = map[Severity]string{
	SeverityNotice:   "notice",
	SeverityWarning:  "warning",
	SeverityError:    "error",
	SeverityCritical: "critical",
}

// String returns the human name for a single severity value.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%#x)", int(s))
}

// Record is the canonical representation of a captured condition.
// Records are values; once built they are never mutated by the engine,
// except that dispatch fills RecordID and Timestamp when unset.
type Record struct {
	// RecordID is a unique identifier for this occurrence (UUID).
	RecordID string

	// Timestamp is when the condition was captured.
	Timestamp time.Time

	// Kind selects the variant.
	Kind Kind

	// Code is the severity classifier. Only meaningful for signal kinds.
	Code Severity

	// Message is the human-readable description.
	Message string

	// File and Line locate the origin. File may be empty for exception
	// records without location info.
	File string
	Line int

	// Trace is an optional stack trace captured with the condition.
	Trace string

	// CauseChain holds prior records, oldest first. Only application
	// exceptions carry a chain; it is empty for signal kinds.
	CauseChain []Record
}

// HasLocation reports whether the record carries origin information.
func (r Record) HasLocation() bool {
	return r.File != ""
}

// NewSignalRecord builds a runtime-signal record from a raw signal tuple.
func NewSignalRecord(code Severity, message, file string, line int) Record {
	return Record{
		Kind:    KindRuntimeSignal,
		Code:    code,
		Message: message,
		File:    file,
		Line:    line,
	}
}

// NewExceptionRecord builds an application-exception record. The cause
// chain, if any, is copied and stored oldest first.
func NewExceptionRecord(message, file string, line int, causes ...Record) Record {
	var chain []Record
	if len(causes) > 0 {
		chain = make([]Record, len(causes))
		copy(chain, causes)
	}
	return Record{
		Kind:       KindApplicationException,
		Message:    message,
		File:       file,
		Line:       line,
		CauseChain: chain,
	}
}

// ExceptionFromError builds an application-exception record from a Go
// error. The error's unwrap chain becomes the cause chain: each wrapped
// error is its own link, oldest (innermost) first.
func ExceptionFromError(err error) Record {
	if err == nil {
		return Record{Kind: KindApplicationException, Message: "<nil>"}
	}

	var chain []Record
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		// Prepend so the innermost cause ends up first.
		chain = append([]Record{{
			Kind:    KindApplicationException,
			Message: cause.Error(),
		}}, chain...)
	}

	return Record{
		Kind:       KindApplicationException,
		Message:    err.Error(),
		CauseChain: chain,
	}
}
