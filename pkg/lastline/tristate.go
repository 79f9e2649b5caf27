// tristate.go implements the tri-state configuration fields.

package lastline

// TriState is a configuration value that can be forced on or off, or left
// to inherit the Environment-provided default.
type TriState int

const (
	// TriInherit defers to the environment default at the moment of each
	// check.
	TriInherit TriState = iota

	// TriOn forces the setting on.
	TriOn

	// TriOff forces the setting off.
	TriOff
)

// Resolve collapses the tri-state against the environment default. Callers
// resolve at the point of use and never cache the result, so runtime
// changes to the default stay visible.
func (t TriState) Resolve(environmentDefault bool) bool {
	switch t {
	case TriOn:
		return true
	case TriOff:
		return false
	default:
		return environmentDefault
	}
}

// String returns the tri-state name.
func (t TriState) String() string {
	switch t {
	case TriOn:
		return "on"
	case TriOff:
		return "off"
	default:
		return "inherit"
	}
}
