// Package editor abstracts the rich-text editing surface the engine drives.
package editor

import "github.com/driftpad/driftpad/delta"

// Editor is the engine's view of the editing surface. Apply is atomic: a
// delta either lands completely or not at all, and every successful apply —
// whatever its cause — reaches the registered change callbacks with the
// applied delta.
type Editor interface {
	Apply(d delta.Delta) error

	// AttributesAt returns the attributes active on the unit at the given
	// offset, or nil when out of range.
	AttributesAt(index int) map[string]string

	Len() int

	// OnChange registers a callback invoked synchronously after each
	// successful Apply. Returns a cancel function.
	OnChange(fn func(delta.Delta)) func()
}
