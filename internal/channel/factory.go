//go:build !debug

package channel

// New returns a buffered channel of the given size. Builds tagged debug
// return an unbuffered one to surface ordering assumptions.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
