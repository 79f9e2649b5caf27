// key.go derives the identity digests used for repeat suppression.

package lastline

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// identityKey returns the source-sensitive digest: two occurrences of the
// same condition at different file/line positions get distinct keys.
func identityKey(r Record) string {
	return digest(
		strconv.Itoa(int(r.Code)),
		r.Message,
		r.File,
		strconv.Itoa(r.Line),
	)
}

// messageKey returns the source-insensitive digest over code and message
// only, so the same condition is recognized wherever it originates.
func messageKey(r Record) string {
	return digest(
		strconv.Itoa(int(r.Code)),
		r.Message,
	)
}

// digest hashes the joined parts. The exact algorithm is not part of the
// engine's contract; only key equality matters. Hex of the first 16 bytes
// keeps keys short enough to use as map keys and log fields.
func digest(parts ...string) string {
	input := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:16])
}
