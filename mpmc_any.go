// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// mpmcAnyHeader is the placement-compatible portion of an MPMCAny: the
// two shared reservation frontiers and their cached bounds. Pointer-free,
// like [mpscAnyHeader].
type mpmcAnyHeader struct {
	_        pad
	head     atomix.Uint64 // shared producer reservation frontier (bytes)
	_        pad
	lastHead cachedBound
	_        pad
	tail     atomix.Uint64 // shared consumer reservation frontier (bytes)
	_        pad
	lastTail cachedBound
	_        pad
}

// MPMCAny is a multi-producer multi-consumer bounded queue of
// variable-length byte records, combining [MPMC]'s symmetric
// announced-position protocol with [MPSCAny]'s byte-ring layout.
//
// Each record still costs one CAS on each side, but a producer's
// reservation spans len(payload)+8 bytes rather than one slot, and a
// consumer's reservation spans however many bytes the record it reads
// turns out to occupy — which it only learns after reading the length
// prefix at its announced position, so the announce/CAS/read/clear
// sequence on the consumer side is slightly different in shape from the
// producer side even though both still follow announce-before-CAS,
// clear-after-visible.
//
// Its counters, both announcement tables, and the payload ring all live
// in one caller-supplied (or self-allocated, via [NewMPMCAny]) byte
// region — see [CalculateMPMCAnySize] / [InitializeMPMCAny]. The producer
// and consumer registries are process-local bookkeeping, not queue state,
// and are not placed.
type MPMCAny struct {
	hdr *mpmcAnyHeader

	announcedHead *announcementTable
	announcedTail *announcementTable
	producers     *participantRegistry
	consumers     *participantRegistry
	buf           []byte
	capacity      uint64
}

// CalculateMPMCAnySize returns the total region size, in bytes, an
// MPMCAny with the given byte capacity and producer/consumer limits
// needs: header, both announcement tables, and the payload ring, each
// section cache-line aligned — mirroring the original's
// `MPMCQueueAny::CalculateSize`.
func CalculateMPMCAnySize(capacity, maxProducers, maxConsumers int) int {
	hdrSize := alignUp(int(unsafe.Sizeof(mpmcAnyHeader{})), cacheLineSize)
	headTableSize := announcementTableBytes(maxProducers)
	tailTableSize := announcementTableBytes(maxConsumers)
	return alignUp(hdrSize+headTableSize+tailTableSize+capacity, cacheLineSize)
}

// InitializeMPMCAny placement-constructs an MPMCAny over region, which
// must be at least
// [CalculateMPMCAnySize](capacity, maxProducers, maxConsumers) bytes.
// Returns [ErrInvalidConfig] for an undersized capacity or a
// non-positive producer/consumer limit, or [ErrRegionTooSmall] if region
// is undersized.
func InitializeMPMCAny(region []byte, capacity, maxProducers, maxConsumers int) (*MPMCAny, error) {
	if capacity < lengthPrefixSize+1 || maxProducers < 1 || maxConsumers < 1 {
		return nil, ErrInvalidConfig
	}
	if len(region) < CalculateMPMCAnySize(capacity, maxProducers, maxConsumers) {
		return nil, ErrRegionTooSmall
	}

	hdrSize := alignUp(int(unsafe.Sizeof(mpmcAnyHeader{})), cacheLineSize)
	headTableSize := announcementTableBytes(maxProducers)
	tailTableSize := announcementTableBytes(maxConsumers)

	hdr := (*mpmcAnyHeader)(unsafe.Pointer(&region[0]))
	*hdr = mpmcAnyHeader{}

	headTableStart := hdrSize
	tailTableStart := headTableStart + headTableSize
	bufStart := tailTableStart + tailTableSize

	announcedHead := announcementTableOver(region[headTableStart:headTableStart+headTableSize], maxProducers)
	announcedTail := announcementTableOver(region[tailTableStart:tailTableStart+tailTableSize], maxConsumers)

	return &MPMCAny{
		hdr:           hdr,
		announcedHead: announcedHead,
		announcedTail: announcedTail,
		producers:     newParticipantRegistry(maxProducers),
		consumers:     newParticipantRegistry(maxConsumers),
		buf:           region[bufStart : bufStart+capacity : bufStart+capacity],
		capacity:      uint64(capacity),
	}, nil
}

// NewMPMCAny creates a new MPMCAny with the given byte capacity and
// producer/consumer limits, allocating its own backing region.
func NewMPMCAny(capacity, maxProducers, maxConsumers int) *MPMCAny {
	if capacity < lengthPrefixSize+1 {
		panic("aqueue: Any capacity must hold at least one length prefix plus one byte")
	}
	if maxProducers < 1 || maxConsumers < 1 {
		panic("aqueue: maxProducers and maxConsumers must be >= 1")
	}
	region := make([]byte, CalculateMPMCAnySize(capacity, maxProducers, maxConsumers))
	q, err := InitializeMPMCAny(region, capacity, maxProducers, maxConsumers)
	if err != nil {
		panic(err)
	}
	return q
}

// RegisterProducer obtains a [Participant] handle for the calling
// producer goroutine.
func (q *MPMCAny) RegisterProducer() (*Participant, error) {
	id, err := q.producers.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.producers}, nil
}

// RegisterConsumer obtains a [Participant] handle for the calling
// consumer goroutine.
func (q *MPMCAny) RegisterConsumer() (*Participant, error) {
	id, err := q.consumers.register()
	if err != nil {
		return nil, err
	}
	return &Participant{id: id, registry: q.consumers}, nil
}

// TryPush writes src as a new record on behalf of the given producer.
// Returns ErrWouldBlock if there isn't enough free space.
func (q *MPMCAny) TryPush(p *Participant, src []byte) error {
	need := uint64(len(src) + lengthPrefixSize)
	var b Backoff
	for {
		head := q.hdr.head.LoadAcquire()
		tail := q.hdr.lastTail.load()

		if head+need-1 >= tail+q.capacity {
			tail = q.updateLastTail()
			if head+need-1 >= tail+q.capacity {
				return ErrWouldBlock
			}
		}

		q.announcedHead.announce(p.id, head)
		if q.hdr.head.CompareAndSwapAcqRel(head, head+need) {
			putLengthPrefix(q.buf, head, len(src))
			ringCopyInto(q.buf, head+lengthPrefixSize, src)
			q.announcedHead.clear(p.id)
			return nil
		}
		q.announcedHead.clear(p.id)
		b.Once()
	}
}

// TryPop removes the next record on behalf of the given consumer, writing
// up to len(dst) bytes of it into dst. Distinct consumers never receive
// the same record. Returns (0, 0, ErrWouldBlock) if empty.
//
// Unlike the producer side, a consumer cannot know how many bytes its
// reservation spans until it has read the length prefix at its announced
// position — so it announces, reads the prefix, then attempts the CAS
// over exactly that many bytes, retrying the whole sequence if another
// consumer won the race for the same tail.
func (q *MPMCAny) TryPop(p *Participant, dst []byte) (written int, recordLen int, err error) {
	var b Backoff
	for {
		tail := q.hdr.tail.LoadAcquire()
		head := q.hdr.lastHead.load()

		if tail >= head {
			head = q.updateLastHead()
			if tail >= head {
				return 0, 0, ErrWouldBlock
			}
		}

		q.announcedTail.announce(p.id, tail)
		n := getLengthPrefix(q.buf, tail)
		need := uint64(n) + lengthPrefixSize
		if q.hdr.tail.CompareAndSwapAcqRel(tail, tail+need) {
			w := n
			if w > len(dst) {
				w = len(dst)
			}
			ringCopyOutOf(q.buf, tail+lengthPrefixSize, dst[:w])
			q.announcedTail.clear(p.id)
			return w, n, nil
		}
		q.announcedTail.clear(p.id)
		b.Once()
	}
}

// GetNextElementSize returns the byte length of the record currently at
// the front of the queue, as a hint only: with multiple consumers racing
// for the same tail, the record actually claimed by a subsequent TryPop
// may differ if another consumer wins first. Returns (0, ErrWouldBlock)
// if the queue looks empty.
func (q *MPMCAny) GetNextElementSize() (int, error) {
	tail := q.hdr.tail.LoadAcquire()
	head := q.hdr.lastHead.load()
	if tail >= head {
		head = q.updateLastHead()
		if tail >= head {
			return 0, ErrWouldBlock
		}
	}
	return getLengthPrefix(q.buf, tail), nil
}

func (q *MPMCAny) updateLastHead() uint64 {
	h := q.hdr.head.LoadAcquire()
	min := q.announcedHead.min(h)
	return q.hdr.lastHead.advanceTo(min)
}

func (q *MPMCAny) updateLastTail() uint64 {
	t := q.hdr.tail.LoadAcquire()
	min := q.announcedTail.min(t)
	return q.hdr.lastTail.advanceTo(min)
}

// IsEmpty reports whether the queue currently holds no records.
func (q *MPMCAny) IsEmpty() bool {
	return q.hdr.tail.LoadAcquire() >= q.hdr.head.LoadAcquire()
}

// IsFull reports whether the ring is saturated at length-prefix
// granularity.
func (q *MPMCAny) IsFull() bool {
	return q.hdr.head.LoadAcquire()+lengthPrefixSize-1 >= q.hdr.tail.LoadAcquire()+q.capacity
}

// Cap returns the ring's total byte capacity.
func (q *MPMCAny) Cap() int {
	return int(q.capacity)
}
