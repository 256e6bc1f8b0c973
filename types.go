// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

// Queue is the shared consumer-side capability set for a typed FIFO
// queue, used for dynamic queue-flavor dispatch: concrete queue types
// behind {TryPop, IsEmpty, IsFull, Cap}, switched on once per call at the
// outer edge, never inside a single flavor's hot loop. TryPush is not part
// of the set, since its signature differs between flavors (MPSC and MPMC
// take a [Participant]); see [SingleProducer].
//
// The interface intentionally excludes a length query: an accurate count
// in a lock-free queue requires cross-core synchronization the algorithm
// is specifically designed to avoid.
type Queue[T any] interface {
	// TryPop removes and returns an element. Returns (zero-value,
	// ErrWouldBlock) if the queue is empty.
	TryPop() (T, error)

	// IsEmpty reports whether the queue currently holds no elements. For
	// multi-participant queues this is a point-in-time hint, not a
	// snapshot guaranteed to remain stable.
	IsEmpty() bool

	// IsFull reports whether the queue currently holds Cap() elements.
	IsFull() bool

	// Cap returns the queue's usable capacity.
	Cap() int
}

// SingleProducer is the producer-side capability of a typed queue whose
// TryPush takes no participant handle. In this package it is satisfied
// only by [SPSC]; [SPSCAny]'s TryPush takes a []byte instead of a *T.
type SingleProducer[T any] interface {
	// TryPush adds an element. Returns ErrWouldBlock if the queue is full.
	TryPush(elem *T) error
}

// AnyQueue is the combined producer-consumer capability set for a
// variable-length byte-record queue.
type AnyQueue interface {
	// GetNextElementSize returns the byte length of the next record to be
	// popped, without consuming it. Returns (0, ErrWouldBlock) if empty.
	GetNextElementSize() (int, error)

	// TryPop writes up to len(dst) bytes of the next record into dst and
	// advances past the whole record regardless of how much of it dst
	// could hold. Returns the number of bytes written and the record's
	// full length.
	TryPop(dst []byte) (written int, recordLen int, err error)

	IsEmpty() bool
	IsFull() bool
}
