package bus

// Lifecycle is the visibility phase the shell reports to a window's app.
type Lifecycle string

const (
	LifecycleFocused    Lifecycle = "focused"
	LifecycleBackground Lifecycle = "background"
	LifecycleMinimized  Lifecycle = "minimized"
)

// Signal is a single-slot value cell. Writers overwrite, readers see only the
// latest value and a version that increases on every change.
type Signal[T comparable] struct {
	value   T
	version uint64
}

// Set stores v and reports whether it differed from the previous value.
// Setting an equal value does not bump the version.
func (s *Signal[T]) Set(v T) bool {
	if s.version > 0 && s.value == v {
		return false
	}
	s.value = v
	s.version++
	return true
}

// Get returns the current value and its version. Version 0 means never set.
func (s *Signal[T]) Get() (T, uint64) {
	return s.value, s.version
}
