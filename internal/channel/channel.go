// Package channel wraps Go channels behind small interfaces so that producers
// (the peer read loop) and consumers (the engine) are decoupled.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	Send(T)
	// TrySend delivers v only if it would not block.
	TrySend(T) bool
}

// Channel combines read and write access. Close is safe to call more than once.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
