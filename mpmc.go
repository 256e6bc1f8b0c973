// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import "code.hybscloud.com/atomix"

// MPMC is a multi-producer multi-consumer bounded queue: the symmetric
// extension of [MPSC]'s announced-position protocol to many consumers.
//
// Every participant — producer or consumer — has its own announcement
// slot in the table for its own side. Producers announce into
// announcedHead and CAS-bump head exactly as in MPSC; consumers mirror
// that on tail and announcedTail. Each side's cached bound (lastHead for
// consumers, lastTail for producers) is refreshed only when the fast
// cached check says empty/full, and the refresh scans the opposite side's
// announcement table, never blocking either side's independent progress:
// a slow participant can only delay the other side's cached bound from
// advancing, never block it outright.
type MPMC[T any] struct {
	_        pad
	head     atomix.Uint64 // shared producer reservation frontier
	_        pad
	lastHead cachedBound // consumers' cached safe-read boundary
	_        pad
	tail     atomix.Uint64 // shared consumer reservation frontier
	_        pad
	lastTail cachedBound // producers' cached safe-write boundary
	_        pad

	announcedHead *announcementTable // producers announce here
	announcedTail *announcementTable // consumers announce here
	producers     *participantRegistry
	consumers     *participantRegistry
	buffer        []T
	mask          uint64
	capacity      uint64
}

// NewMPMC creates a new MPMC queue. capacity rounds up to the next power
// of 2. maxProducers/maxConsumers bound concurrently registered
// participants on each side.
func NewMPMC[T any](capacity, maxProducers, maxConsumers int) *MPMC[T] {
	if capacity < 1 {
		panic("aqueue: capacity must be >= 1")
	}
	if maxProducers < 1 || maxConsumers < 1 {
		panic("aqueue: maxProducers and maxConsumers must be >= 1")
	}
	n := uint64(roundToPow2(capacity))
	return &MPMC[T]{
		announcedHead: newAnnouncementTable(maxProducers),
		announcedTail: newAnnouncementTable(maxConsumers),
		producers:     newParticipantRegistry(maxProducers),
		consumers:     newParticipantRegistry(maxConsumers),
		buffer:        make([]T, n),
		mask:          n - 1,
		capacity:      n,
	}
}

// RegisterProducer obtains a [Participant] handle for the calling
// producer goroutine.
func (q *MPMC[T]) RegisterProducer() (*Participant, error) {
	id, err := q.producers.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.producers}, nil
}

// RegisterConsumer obtains a [Participant] handle for the calling
// consumer goroutine.
func (q *MPMC[T]) RegisterConsumer() (*Participant, error) {
	id, err := q.consumers.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.consumers}, nil
}

// TryPush adds an element on behalf of the given producer. Returns
// ErrWouldBlock if the queue is full.
func (q *MPMC[T]) TryPush(p *Participant, elem *T) error {
	var b Backoff
	for {
		head := q.head.LoadAcquire()
		tail := q.lastTail.load()

		if head >= tail+q.capacity {
			tail = q.updateLastTail()
			if head >= tail+q.capacity {
				return ErrWouldBlock
			}
		}

		q.announcedHead.announce(p.id, head)
		if q.head.CompareAndSwapAcqRel(head, head+1) {
			q.buffer[head&q.mask] = *elem
			q.announcedHead.clear(p.id)
			return nil
		}
		q.announcedHead.clear(p.id)
		b.Once()
	}
}

// TryPop removes and returns an element on behalf of the given consumer.
// Returns (zero-value, ErrWouldBlock) if empty. Distinct consumers never
// receive the same record.
func (q *MPMC[T]) TryPop(p *Participant) (T, error) {
	var b Backoff
	for {
		tail := q.tail.LoadAcquire()
		head := q.lastHead.load()

		if tail >= head {
			head = q.updateLastHead()
			if tail >= head {
				var zero T
				return zero, ErrWouldBlock
			}
		}

		q.announcedTail.announce(p.id, tail)
		if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
			elem := q.buffer[tail&q.mask]
			var zero T
			q.buffer[tail&q.mask] = zero
			q.announcedTail.clear(p.id)
			return elem, nil
		}
		q.announcedTail.clear(p.id)
		b.Once()
	}
}

func (q *MPMC[T]) updateLastHead() uint64 {
	h := q.head.LoadAcquire()
	min := q.announcedHead.min(h)
	return q.lastHead.advanceTo(min)
}

func (q *MPMC[T]) updateLastTail() uint64 {
	t := q.tail.LoadAcquire()
	min := q.announcedTail.min(t)
	return q.lastTail.advanceTo(min)
}

// IsEmpty reports whether the queue currently holds no elements.
func (q *MPMC[T]) IsEmpty() bool {
	return q.tail.LoadAcquire() >= q.head.LoadAcquire()
}

// IsFull reports whether the queue currently holds Cap() elements.
func (q *MPMC[T]) IsFull() bool {
	return q.head.LoadAcquire() >= q.tail.LoadAcquire()+q.capacity
}

// Cap returns the queue's usable capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}
