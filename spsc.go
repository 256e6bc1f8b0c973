// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import "code.hybscloud.com/atomix"

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached-index optimization: the
// producer caches its last observation of the consumer's head, and vice
// versa, so the hot path only pays for the cross-core acquire load when
// the cached value suggests the queue is full/empty. Both TryPush and
// TryPop are wait-free.
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // consumer position
	_          pad
	cachedHead uint64 // producer's cached view of head
	_          pad
	tail       atomix.Uint64 // producer position
	_          pad
	cachedTail uint64 // consumer's cached view of tail
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates a new SPSC queue. Capacity rounds up to the next power
// of 2; panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("aqueue: capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// TryPush adds an element (producer only). Returns ErrWouldBlock if full.
func (q *SPSC[T]) TryPush(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}
	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// TryPop removes and returns an element (consumer only). Returns
// (zero-value, ErrWouldBlock) if empty.
func (q *SPSC[T]) TryPop() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}
	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// TryPeek returns the next element without removing it (consumer only).
// Returns (zero-value, ErrWouldBlock) if empty.
func (q *SPSC[T]) TryPeek() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}
	return q.buffer[head&q.mask], nil
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *SPSC[T]) IsEmpty() bool {
	return q.tail.LoadAcquire() <= q.head.LoadAcquire()
}

// IsFull reports whether the queue currently holds Cap() elements.
func (q *SPSC[T]) IsFull() bool {
	return q.tail.LoadAcquire() >= q.head.LoadAcquire()+q.mask+1
}

// Cap returns the queue's usable capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}
