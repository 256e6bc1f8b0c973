// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import "code.hybscloud.com/atomix"

// MPSC is a multi-producer single-consumer bounded queue built on the
// announced-position reservation protocol.
//
// Producers never learn which physical slot is "theirs" by reading a
// per-slot sequence number; instead, each producer publishes the head
// position it is about to try to claim into its own announcement slot
// before CAS-bumping the shared head counter, and clears the announcement
// once its payload write is visible. The single consumer computes a safe
// read boundary (lastHead) as the minimum of all live announcements and
// the live head counter — the lowest position that is guaranteed to have
// either completed or not yet started its reservation — and only
// refreshes that scan when its cheap cached copy suggests the queue looks
// empty. This keeps the hot path at one CAS plus one store-release per
// side; the O(max producers) scan only runs under contention.
type MPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // shared producer reservation frontier (CAS target)
	_          pad
	lastHead   cachedBound // consumer's cached safe-read boundary
	_          pad
	tail       atomix.Uint64 // consumer position (single writer)
	_          pad
	cachedTail cachedBound // producers' cached view of tail
	_          pad

	announced *announcementTable
	registry  *participantRegistry
	buffer    []T
	mask      uint64
	capacity  uint64
}

// NewMPSC creates a new MPSC queue that holds at most capacity elements.
// The ring's slot count rounds up to the next power of 2. maxProducers
// bounds the number of concurrently registered producer [Participant]s.
// Panics if capacity < 2 or maxProducers < 1.
func NewMPSC[T any](capacity, maxProducers int) *MPSC[T] {
	if capacity < 2 {
		panic("aqueue: capacity must be >= 2")
	}
	if maxProducers < 1 {
		panic("aqueue: maxProducers must be >= 1")
	}
	n := uint64(roundToPow2(capacity))
	return &MPSC[T]{
		announced: newAnnouncementTable(maxProducers),
		registry:  newParticipantRegistry(maxProducers),
		buffer:    make([]T, n),
		mask:      n - 1,
		capacity:  uint64(capacity),
	}
}

// Register obtains a [Participant] handle for the calling producer.
// Returns [ErrTooManyParticipants] if every slot is already held.
func (q *MPSC[T]) Register() (*Participant, error) {
	id, err := q.registry.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.registry}, nil
}

// TryPush adds an element on behalf of the given producer. Returns
// ErrWouldBlock if the queue is full.
func (q *MPSC[T]) TryPush(p *Participant, elem *T) error {
	var b Backoff
	for {
		head := q.head.LoadAcquire()
		tail := q.cachedTail.load()

		if head >= tail+q.capacity {
			tail = q.cachedTail.advanceTo(q.tail.LoadAcquire())
			if head >= tail+q.capacity {
				return ErrWouldBlock
			}
		}

		q.announced.announce(p.id, head)
		if q.head.CompareAndSwapAcqRel(head, head+1) {
			q.buffer[head&q.mask] = *elem
			q.announced.clear(p.id)
			return nil
		}
		q.announced.clear(p.id)
		b.Once()
	}
}

// TryPop removes and returns an element (single consumer only). Returns
// (zero-value, ErrWouldBlock) if empty.
func (q *MPSC[T]) TryPop() (T, error) {
	tail := q.tail.LoadRelaxed()
	head := q.lastHead.load()

	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[tail&q.mask]
	var zero T
	q.buffer[tail&q.mask] = zero
	q.tail.StoreRelease(tail + 1)
	return elem, nil
}

// TryPeek returns a copy of the next element without removing it (single
// consumer only). Returns (zero-value, ErrWouldBlock) if empty.
func (q *MPSC[T]) TryPeek() (T, error) {
	tail := q.tail.LoadRelaxed()
	head := q.lastHead.load()

	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	return q.buffer[tail&q.mask], nil
}

// updateLastHead scans the announcement table for the minimum in-flight
// reservation and advances lastHead to it (never regressing).
func (q *MPSC[T]) updateLastHead() uint64 {
	h := q.head.LoadAcquire()
	min := q.announced.min(h)
	return q.lastHead.advanceTo(min)
}

// IsEmpty reports whether the queue currently holds no elements. This is
// a point-in-time hint that compares against the live head counter: it
// reports non-empty as soon as a producer's reservation advances head,
// even while that record's payload is not yet poppable by TryPop.
func (q *MPSC[T]) IsEmpty() bool {
	return q.tail.LoadAcquire() >= q.head.LoadAcquire()
}

// IsFull reports whether the queue currently holds Cap() reserved slots.
func (q *MPSC[T]) IsFull() bool {
	return q.head.LoadAcquire() >= q.tail.LoadAcquire()+q.capacity
}

// Cap returns the queue's usable capacity.
func (q *MPSC[T]) Cap() int {
	return int(q.capacity)
}
