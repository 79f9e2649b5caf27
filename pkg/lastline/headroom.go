// headroom.go raises the resource ceiling around a handling pass.

package lastline

import (
	"fmt"
	"strconv"
	"strings"
)

// Size-shorthand multipliers. A ceiling is a number with an optional
// binary-unit suffix ("512K", "64M", "1G", "2T"); a bare number is bytes.
const (
	kib int64 = 1 << 10
	mib int64 = 1 << 20
	gib int64 = 1 << 30
	tib int64 = 1 << 40
)

// headroomManager raises the Environment's resource ceiling before a
// handler runs and restores it afterwards. Handling an out-of-resource
// condition needs resources of its own; without headroom the handling pass
// could fail exactly the way the condition it is handling did.
type headroomManager struct {
	env Environment
}

// reserve installs current ceiling + units mebibytes and returns the
// original ceiling string verbatim as the restore token. Reservation is
// best effort: an unparseable ceiling, a non-positive requirement, or an
// environment that refuses the new ceiling leaves the ceiling alone, and
// the token still round-trips.
func (m headroomManager) reserve(units int) string {
	original := m.env.ResourceCeiling()
	if units <= 0 {
		return original
	}
	current, err := ParseSize(original)
	if err != nil {
		return original
	}
	_ = m.env.SetResourceCeiling(FormatSize(current + int64(units)*mib))
	return original
}

// restore re-installs the original ceiling exactly as reserve read it.
// No re-parsing, no rounding: the round-trip is byte-for-byte.
func (m headroomManager) restore(token string) {
	_ = m.env.SetResourceCeiling(token)
}

// ParseSize converts a ceiling string to bytes. Environment
// implementations use it to accept the same shorthand the engine emits.
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty size string")
	}

	mult := int64(1)
	switch strings.ToUpper(trimmed[len(trimmed)-1:]) {
	case "K":
		mult, trimmed = kib, trimmed[:len(trimmed)-1]
	case "M":
		mult, trimmed = mib, trimmed[:len(trimmed)-1]
	case "G":
		mult, trimmed = gib, trimmed[:len(trimmed)-1]
	case "T":
		mult, trimmed = tib, trimmed[:len(trimmed)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}
	return n * mult, nil
}

// FormatSize renders bytes in the same shorthand, preferring the largest
// exact unit so that "64M" plus one mebibyte comes back as "65M" rather
// than a raw byte count.
func FormatSize(n int64) string {
	switch {
	case n >= tib && n%tib == 0:
		return strconv.FormatInt(n/tib, 10) + "T"
	case n >= gib && n%gib == 0:
		return strconv.FormatInt(n/gib, 10) + "G"
	case n >= mib && n%mib == 0:
		return strconv.FormatInt(n/mib, 10) + "M"
	case n >= kib && n%kib == 0:
		return strconv.FormatInt(n/kib, 10) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
