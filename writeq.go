package gnats

import (
	"sync"

	"github.com/eapache/queue"
)

// WriteQueue holds outbound frames until the writer flushes them. It is
// bounded: once MemOptions.WriteQueueMaxBuffers frames are pending, Push
// fails instead of buffering without limit against a stuck server.
type WriteQueue struct {
	mu   sync.Mutex
	q    *queue.Queue
	max  int
	done bool
}

// NewWriteQueue creates a queue bounded at maxBuffers pending frames.
func NewWriteQueue(maxBuffers int) *WriteQueue {
	return &WriteQueue{
		q:   queue.New(),
		max: maxBuffers,
	}
}

// Push appends a frame. The queue keeps a reference to data until Pop, so
// the caller must not reuse the backing array before then.
func (w *WriteQueue) Push(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrConnectionClosed
	}
	if w.q.Length() >= w.max {
		return ErrWriteQueueFull
	}
	w.q.Add(data)
	return nil
}

// Pop removes and returns the oldest pending frame, or nil when empty.
func (w *WriteQueue) Pop() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.q.Length() == 0 {
		return nil
	}
	return w.q.Remove().([]byte)
}

// Len returns the number of pending frames.
func (w *WriteQueue) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.q.Length()
}

// Close rejects further pushes and drops pending frames.
func (w *WriteQueue) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	for w.q.Length() > 0 {
		w.q.Remove()
	}
}
