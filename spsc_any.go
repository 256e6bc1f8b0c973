// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// spscAnyHeader is the portion of an SPSCAny that can be placement-
// initialized over a caller-supplied region: just the pair of atomic
// byte-position counters, padded to their own cache lines. It holds no
// pointers, so reinterpreting raw bytes as a *spscAnyHeader via
// unsafe.Pointer is sound.
type spscAnyHeader struct {
	_    pad
	head atomix.Uint64 // consumer byte position
	_    pad
	tail atomix.Uint64 // producer byte position
	_    pad
}

// SPSCAny is a single-producer single-consumer bounded queue of
// variable-length byte records.
//
// Every record is stored as an 8-byte length prefix followed by its
// payload bytes, spliced across the ring boundary by [ringCopyInto] /
// [ringCopyOutOf]. Positions are byte offsets, not slot indices;
// fullness accounts for the length prefix: `tail + need - 1 >= head +
// capacity`, where tail is the producer position and head the consumer's.
//
// An SPSCAny's atomic counters and payload ring live in a single
// caller-supplied (or self-allocated, via [NewSPSCAny]) byte region — see
// [CalculateSPSCAnySize] / [InitializeSPSCAny]. The handle itself
// (*SPSCAny) is an ordinary Go heap value holding a pointer into that
// region plus two process-local, non-shared cache fields.
type SPSCAny struct {
	hdr        *spscAnyHeader
	cachedHead uint64 // producer's cached view of head; not placed, purely local
	cachedTail uint64 // consumer's cached view of tail; not placed, purely local
	buf        []byte
	capacity   uint64
}

// CalculateSPSCAnySize returns the total region size, in bytes, an
// SPSCAny of the given byte capacity needs: the header (counters) plus
// the payload ring, cache-line aligned, mirroring the original's
// `SPSCQueueAny::CalculateSize`.
func CalculateSPSCAnySize(capacity int) int {
	hdrSize := alignUp(int(unsafe.Sizeof(spscAnyHeader{})), cacheLineSize)
	return alignUp(hdrSize+capacity, cacheLineSize)
}

// InitializeSPSCAny placement-constructs an SPSCAny of the given byte
// capacity over region, mirroring the original's
// `SPSCQueueAny::Initialize(void*, size_type)`. region must be at least
// [CalculateSPSCAnySize](capacity) bytes; its backing array is retained
// by the returned queue for its payload ring and must outlive every
// producer/consumer using it. Returns [ErrInvalidConfig] if capacity
// can't hold one length prefix plus one byte, or [ErrRegionTooSmall] if
// region is undersized.
func InitializeSPSCAny(region []byte, capacity int) (*SPSCAny, error) {
	if capacity < lengthPrefixSize+1 {
		return nil, ErrInvalidConfig
	}
	if len(region) < CalculateSPSCAnySize(capacity) {
		return nil, ErrRegionTooSmall
	}
	hdrSize := alignUp(int(unsafe.Sizeof(spscAnyHeader{})), cacheLineSize)
	hdr := (*spscAnyHeader)(unsafe.Pointer(&region[0]))
	*hdr = spscAnyHeader{}
	return &SPSCAny{
		hdr:      hdr,
		buf:      region[hdrSize : hdrSize+capacity : hdrSize+capacity],
		capacity: uint64(capacity),
	}, nil
}

// NewSPSCAny creates a new SPSCAny with the given byte capacity,
// allocating its own backing region. Panics if capacity is too small to
// hold even one length prefix plus one payload byte. This is the thin
// allocate-then-[InitializeSPSCAny] wrapper spec.md §9 calls for as the
// replacement for the source's dual-construction-path "free_mem" flag.
func NewSPSCAny(capacity int) *SPSCAny {
	if capacity < lengthPrefixSize+1 {
		panic("aqueue: Any capacity must hold at least one length prefix plus one byte")
	}
	region := make([]byte, CalculateSPSCAnySize(capacity))
	q, err := InitializeSPSCAny(region, capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// TryPush writes src as a new record (producer only). Returns
// ErrWouldBlock if there is not enough free space for the length prefix
// plus len(src) bytes.
func (q *SPSCAny) TryPush(src []byte) error {
	need := uint64(len(src) + lengthPrefixSize)
	tail := q.hdr.tail.LoadRelaxed()
	if tail+need-1 >= q.cachedHead+q.capacity {
		q.cachedHead = q.hdr.head.LoadAcquire()
		if tail+need-1 >= q.cachedHead+q.capacity {
			return ErrWouldBlock
		}
	}
	putLengthPrefix(q.buf, tail, len(src))
	ringCopyInto(q.buf, tail+lengthPrefixSize, src)
	q.hdr.tail.StoreRelease(tail + need)
	return nil
}

// GetNextElementSize returns the byte length of the next record without
// consuming it. Returns (0, ErrWouldBlock) if empty.
func (q *SPSCAny) GetNextElementSize() (int, error) {
	head := q.hdr.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.hdr.tail.LoadAcquire()
		if head >= q.cachedTail {
			return 0, ErrWouldBlock
		}
	}
	return getLengthPrefix(q.buf, head), nil
}

// TryPeek reads the next record into dst without removing it (consumer
// only). Returns the record's full length and the number of bytes
// actually written (min(len(dst), recordLen)).
func (q *SPSCAny) TryPeek(dst []byte) (written int, recordLen int, err error) {
	head := q.hdr.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.hdr.tail.LoadAcquire()
		if head >= q.cachedTail {
			return 0, 0, ErrWouldBlock
		}
	}
	n := getLengthPrefix(q.buf, head)
	w := n
	if w > len(dst) {
		w = len(dst)
	}
	ringCopyOutOf(q.buf, head+lengthPrefixSize, dst[:w])
	return w, n, nil
}

// TryPop removes the next record, writing up to len(dst) bytes of it into
// dst and advancing past the entire record regardless of whether dst was
// large enough to hold it all (consumer only).
func (q *SPSCAny) TryPop(dst []byte) (written int, recordLen int, err error) {
	head := q.hdr.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.hdr.tail.LoadAcquire()
		if head >= q.cachedTail {
			return 0, 0, ErrWouldBlock
		}
	}
	n := getLengthPrefix(q.buf, head)
	w := n
	if w > len(dst) {
		w = len(dst)
	}
	ringCopyOutOf(q.buf, head+lengthPrefixSize, dst[:w])
	q.hdr.head.StoreRelease(head + uint64(n) + lengthPrefixSize)
	return w, n, nil
}

// IsEmpty reports whether the queue currently holds no records.
func (q *SPSCAny) IsEmpty() bool {
	return q.hdr.tail.LoadAcquire() <= q.hdr.head.LoadAcquire()
}

// IsFull reports whether at least capacity-7 bytes (capacity minus one
// length prefix, plus one) are occupied, i.e. whether not even an empty
// record could be pushed without first popping (a
// conservative, byte-granularity check — the exact answer depends on the
// size of the next attempted push).
func (q *SPSCAny) IsFull() bool {
	tail := q.hdr.tail.LoadAcquire()
	head := q.hdr.head.LoadAcquire()
	return tail+lengthPrefixSize-1 >= head+q.capacity
}

// Cap returns the ring's total byte capacity.
func (q *SPSCAny) Cap() int {
	return int(q.capacity)
}
