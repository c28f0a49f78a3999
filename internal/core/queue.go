package core

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("command queue closed")

// CommandQueue is the ordered hand-off channel between many transport
// producers and the single resolver consumer. Commands from the same
// connection are delivered in enqueue order; across connections the only
// ordering is arrival order at the queue.
type CommandQueue struct {
	ch       chan ClientCommand
	done     chan struct{}
	shutOnce sync.Once
}

// NewCommandQueue builds a queue with the given capacity. Producers block
// once the buffer is full; nothing is dropped during normal operation.
func NewCommandQueue(size int) *CommandQueue {
	if size <= 0 {
		size = 1
	}
	return &CommandQueue{
		ch:   make(chan ClientCommand, size),
		done: make(chan struct{}),
	}
}

// Enqueue hands a command to the consumer, blocking if the queue is full.
func (q *CommandQueue) Enqueue(cmd ClientCommand) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- cmd:
		return nil
	case <-q.done:
		return ErrQueueClosed
	}
}

// Dequeue blocks until a command is available or the queue is shut down and
// drained. The second return is false once no further commands will arrive.
func (q *CommandQueue) Dequeue() (ClientCommand, bool) {
	select {
	case cmd := <-q.ch:
		return cmd, true
	case <-q.done:
		// Drain whatever was enqueued before shutdown.
		select {
		case cmd := <-q.ch:
			return cmd, true
		default:
			return ClientCommand{}, false
		}
	}
}

// Shutdown stops the queue. Enqueue fails afterwards; Dequeue drains the
// remaining buffered commands, then reports closure.
func (q *CommandQueue) Shutdown() {
	q.shutOnce.Do(func() {
		close(q.done)
	})
}
