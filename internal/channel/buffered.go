package channel

import "sync"

// Buffered is a buffered channel implementation
type Buffered[T any] struct {
	ch   chan T
	once sync.Once
}

func NewBuffered[T any](size int) *Buffered[T] {
	return &Buffered[T]{ch: make(chan T, size)}
}

func (b *Buffered[T]) Send(v T) {
	b.ch <- v
}

func (b *Buffered[T]) TrySend(v T) bool {
	select {
	case b.ch <- v:
		return true
	default:
		return false
	}
}

func (b *Buffered[T]) Receive() <-chan T {
	return b.ch
}

// Len returns the number of items currently in the buffer
func (b *Buffered[T]) Len() int {
	return len(b.ch)
}

func (b *Buffered[T]) Close() {
	b.once.Do(func() { close(b.ch) })
}
