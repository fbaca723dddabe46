package channel

import "sync"

// Unbuffered hands each value directly to a waiting receiver
type Unbuffered[T any] struct {
	ch   chan T
	once sync.Once
}

func NewUnbuffered[T any]() *Unbuffered[T] {
	return &Unbuffered[T]{ch: make(chan T)}
}

// Send blocks until the value is received
func (u *Unbuffered[T]) Send(v T) {
	u.ch <- v
}

func (u *Unbuffered[T]) TrySend(v T) bool {
	select {
	case u.ch <- v:
		return true
	default:
		return false
	}
}

func (u *Unbuffered[T]) Receive() <-chan T {
	return u.ch
}

// Len always returns 0 for unbuffered channels
func (u *Unbuffered[T]) Len() int {
	return 0
}

func (u *Unbuffered[T]) Close() {
	u.once.Do(func() { close(u.ch) })
}
