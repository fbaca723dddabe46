package queue

import (
	"errors"
	"sync"
)

// Queue is a generic thread-safe FIFO. The engine collects outbound protocol
// messages in one while holding the simulation lock and drains it afterwards.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Pop removes and returns the first item. ok is false when the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// GetAndEmpty returns all items in push order and clears the queue.
func (q *Queue[T]) GetAndEmpty() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := q.items
	q.items = make([]T, 0, cap(q.items))
	return result
}

// Drain hands every queued item to fn in order. A failing item does not stop the
// rest; the errors are joined.
func (q *Queue[T]) Drain(fn func(T) error) error {
	var errs []error
	for _, item := range q.GetAndEmpty() {
		if err := fn(item); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
