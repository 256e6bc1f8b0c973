// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// mpscAnyHeader is the placement-compatible portion of an MPSCAny: the
// shared reservation/consumption counters and their cached bounds, each
// padded to their own cache line. Pointer-free, like [spscAnyHeader].
type mpscAnyHeader struct {
	_          pad
	head       atomix.Uint64 // shared byte reservation frontier
	_          pad
	lastHead   cachedBound
	_          pad
	tail       atomix.Uint64 // consumer byte position (single writer)
	_          pad
	cachedTail cachedBound
	_          pad
}

// MPSCAny is a multi-producer single-consumer bounded queue of
// variable-length byte records.
//
// It applies the same announced-position protocol as [MPSC], except a
// producer's reservation advances the shared byte counter by
// len(payload)+8 instead of by one slot, and the announcement it
// publishes is the byte offset at which its length prefix will land.
//
// Its counters, announcement table, and payload ring all live in one
// caller-supplied (or self-allocated, via [NewMPSCAny]) byte region — see
// [CalculateMPSCAnySize] / [InitializeMPSCAny]. The participant registry
// is process-local bookkeeping, not queue state, and is not placed.
type MPSCAny struct {
	hdr *mpscAnyHeader

	announced *announcementTable
	registry  *participantRegistry
	buf       []byte
	capacity  uint64
}

// CalculateMPSCAnySize returns the total region size, in bytes, an
// MPSCAny of the given byte capacity and producer limit needs: header,
// announcement table, and payload ring, each section cache-line aligned
// — mirroring the original's `MPSCQueueAny::CalculateSize`, which lays
// out `[header | ThreadPos table | ring]` the same way.
func CalculateMPSCAnySize(capacity, maxProducers int) int {
	hdrSize := alignUp(int(unsafe.Sizeof(mpscAnyHeader{})), cacheLineSize)
	tableSize := announcementTableBytes(maxProducers)
	return alignUp(hdrSize+tableSize+capacity, cacheLineSize)
}

// InitializeMPSCAny placement-constructs an MPSCAny over region, which
// must be at least [CalculateMPSCAnySize](capacity, maxProducers) bytes.
// Returns [ErrInvalidConfig] for an undersized capacity or a non-positive
// maxProducers, or [ErrRegionTooSmall] if region is undersized.
func InitializeMPSCAny(region []byte, capacity, maxProducers int) (*MPSCAny, error) {
	if capacity < lengthPrefixSize+1 || maxProducers < 1 {
		return nil, ErrInvalidConfig
	}
	if len(region) < CalculateMPSCAnySize(capacity, maxProducers) {
		return nil, ErrRegionTooSmall
	}

	hdrSize := alignUp(int(unsafe.Sizeof(mpscAnyHeader{})), cacheLineSize)
	tableSize := announcementTableBytes(maxProducers)

	hdr := (*mpscAnyHeader)(unsafe.Pointer(&region[0]))
	*hdr = mpscAnyHeader{}
	announced := announcementTableOver(region[hdrSize:hdrSize+tableSize], maxProducers)
	bufStart := hdrSize + tableSize

	return &MPSCAny{
		hdr:       hdr,
		announced: announced,
		registry:  newParticipantRegistry(maxProducers),
		buf:       region[bufStart : bufStart+capacity : bufStart+capacity],
		capacity:  uint64(capacity),
	}, nil
}

// NewMPSCAny creates a new MPSCAny with the given byte capacity and
// producer limit, allocating its own backing region. Panics if capacity
// can't hold one length prefix plus one byte, or if maxProducers < 1.
func NewMPSCAny(capacity, maxProducers int) *MPSCAny {
	if capacity < lengthPrefixSize+1 {
		panic("aqueue: Any capacity must hold at least one length prefix plus one byte")
	}
	if maxProducers < 1 {
		panic("aqueue: maxProducers must be >= 1")
	}
	region := make([]byte, CalculateMPSCAnySize(capacity, maxProducers))
	q, err := InitializeMPSCAny(region, capacity, maxProducers)
	if err != nil {
		panic(err)
	}
	return q
}

// Register obtains a [Participant] handle for the calling producer.
func (q *MPSCAny) Register() (*Participant, error) {
	id, err := q.registry.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.registry}, nil
}

// TryPush writes src as a new record on behalf of the given producer.
// Returns ErrWouldBlock if there isn't enough free space.
func (q *MPSCAny) TryPush(p *Participant, src []byte) error {
	need := uint64(len(src) + lengthPrefixSize)
	var b Backoff
	for {
		head := q.hdr.head.LoadAcquire()
		tail := q.hdr.cachedTail.load()

		if head+need-1 >= tail+q.capacity {
			tail = q.hdr.cachedTail.advanceTo(q.hdr.tail.LoadAcquire())
			if head+need-1 >= tail+q.capacity {
				return ErrWouldBlock
			}
		}

		q.announced.announce(p.id, head)
		if q.hdr.head.CompareAndSwapAcqRel(head, head+need) {
			putLengthPrefix(q.buf, head, len(src))
			ringCopyInto(q.buf, head+lengthPrefixSize, src)
			q.announced.clear(p.id)
			return nil
		}
		q.announced.clear(p.id)
		b.Once()
	}
}

// GetNextElementSize returns the byte length of the next record without
// consuming it (single consumer only). Returns (0, ErrWouldBlock) if the
// consumer's safe-read boundary has not reached any record yet.
func (q *MPSCAny) GetNextElementSize() (int, error) {
	tail := q.hdr.tail.LoadRelaxed()
	head := q.hdr.lastHead.load()
	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			return 0, ErrWouldBlock
		}
	}
	return getLengthPrefix(q.buf, tail), nil
}

// TryPeek reads the next record into dst without removing it (single
// consumer only). Returns the record's full length and the number of
// bytes actually written (min(len(dst), recordLen)).
func (q *MPSCAny) TryPeek(dst []byte) (written int, recordLen int, err error) {
	tail := q.hdr.tail.LoadRelaxed()
	head := q.hdr.lastHead.load()
	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			return 0, 0, ErrWouldBlock
		}
	}
	n := getLengthPrefix(q.buf, tail)
	w := n
	if w > len(dst) {
		w = len(dst)
	}
	ringCopyOutOf(q.buf, tail+lengthPrefixSize, dst[:w])
	return w, n, nil
}

// TryPop removes the next record, writing up to len(dst) bytes of it into
// dst and advancing past the whole record (single consumer only).
func (q *MPSCAny) TryPop(dst []byte) (written int, recordLen int, err error) {
	tail := q.hdr.tail.LoadRelaxed()
	head := q.hdr.lastHead.load()
	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			return 0, 0, ErrWouldBlock
		}
	}

	n := getLengthPrefix(q.buf, tail)
	w := n
	if w > len(dst) {
		w = len(dst)
	}
	ringCopyOutOf(q.buf, tail+lengthPrefixSize, dst[:w])
	q.hdr.tail.StoreRelease(tail + uint64(n) + lengthPrefixSize)
	return w, n, nil
}

func (q *MPSCAny) updateLastHead() uint64 {
	h := q.hdr.head.LoadAcquire()
	min := q.announced.min(h)
	return q.hdr.lastHead.advanceTo(min)
}

// IsEmpty reports whether the queue currently holds no records.
func (q *MPSCAny) IsEmpty() bool {
	return q.hdr.tail.LoadAcquire() >= q.hdr.head.LoadAcquire()
}

// IsFull reports whether the ring is saturated at length-prefix
// granularity (see [SPSCAny.IsFull]).
func (q *MPSCAny) IsFull() bool {
	return q.hdr.head.LoadAcquire()+lengthPrefixSize-1 >= q.hdr.tail.LoadAcquire()+q.capacity
}

// Cap returns the ring's total byte capacity.
func (q *MPSCAny) Cap() int {
	return int(q.capacity)
}
