// dedupe.go tracks which condition identities have already been handled.

package lastline

// handledSet maps identity digests to "already handled" membership. It is
// append-only for one Active period; nothing the engine does ever shrinks
// it.
type handledSet map[string]struct{}

// dedupeTracker remembers handled identities. It is not self-locking; the
// engine serializes access under its dispatch mutex.
type dedupeTracker struct {
	handled handledSet
}

func newDedupeTracker() *dedupeTracker {
	return &dedupeTracker{handled: make(handledSet)}
}

// shouldHandle reports whether the record is a first occurrence under the
// resolved ignore settings. With repeat-ignoring off every occurrence is
// handled. With source-ignoring on, occurrences of the same condition from
// different files or lines count as repeats.
func (t *dedupeTracker) shouldHandle(r Record, ignoreRepeated, ignoreSource bool) bool {
	if !ignoreRepeated {
		return true
	}
	key := identityKey(r)
	if ignoreSource {
		key = messageKey(r)
	}
	_, repeat := t.handled[key]
	return !repeat
}

// remember inserts both digests for the record, whichever mode is active,
// so a later toggle of source sensitivity still recognizes occurrences
// remembered under the other mode.
func (t *dedupeTracker) remember(r Record) {
	t.handled[identityKey(r)] = struct{}{}
	t.handled[messageKey(r)] = struct{}{}
}

// seen reports raw membership of the record's source-sensitive digest.
// The last-chance pass uses it so that a condition surfaced (or filtered)
// earlier never resurfaces at finalize, whatever the ignore settings say.
func (t *dedupeTracker) seen(r Record) bool {
	_, ok := t.handled[identityKey(r)]
	return ok
}
