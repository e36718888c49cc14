//go:build !debug

package channel

// New creates a new channel with the given capacity.
// In production builds, this returns a bounded channel of that capacity.
func New[T any](capacity int) Channel[T] {
	return NewBounded[T](capacity)
}
