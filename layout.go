// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// invalidPos is the sentinel stored in an announcement slot when its
// participant is not currently trying to reserve a position. Position
// counters grow from zero and only wrap after 2^64 operations, so this
// value can never collide with a live announcement.
const invalidPos = ^uint64(0)

// cacheLineSize is the alignment boundary every section of a
// placement-initialized queue's caller-supplied region is rounded up to,
// matching the `pad` convention below.
const cacheLineSize = 64

// pad is cache-line padding used between hot counters to prevent false
// sharing across all queue headers in this package.
type pad [64]byte

// padShort pads an 8-byte field up to a full cache line.
type padShort [64 - 8]byte

// lengthPrefixSize is the width, in bytes, of the length prefix word that
// precedes every record in an Any-discipline ring.
const lengthPrefixSize = 8

// alignUp rounds n up to the next multiple of align, which must be a
// power of 2. Used throughout the placement (C9) layout calculations to
// size each section of a region on a cache-line boundary, the same way
// the original's boost::alignment::align_up does for every
// CalculateSize.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// roundToPow2 rounds n up to the next power of 2. Queue capacities are
// always rounded so that `& mask` can replace `% capacity` on the hot
// path.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// announcementTable is a cache-line-aligned array of per-participant
// position announcements. Each slot holds invalidPos while its owner is
// idle, or the position it is currently trying to reserve.
type announcementTable struct {
	slots []announcementSlot
}

type announcementSlot struct {
	_   pad
	pos atomix.Uint64
	_   pad
}

func newAnnouncementTable(n int) *announcementTable {
	t := &announcementTable{slots: make([]announcementSlot, n)}
	for i := range t.slots {
		t.slots[i].pos.StoreRelease(invalidPos)
	}
	return t
}

// announcementTableBytes returns the cache-line-aligned byte size of an
// n-slot announcement table, for use by a queue's CalculateSize.
func announcementTableBytes(n int) int {
	return alignUp(n*int(unsafe.Sizeof(announcementSlot{})), cacheLineSize)
}

// announcementTableOver constructs an announcement table whose slots are
// backed by region instead of a freshly heap-allocated slice, the same
// way the original's get_tpos_data() computes the thread-position table
// as a pointer into the queue's own placement-initialized memory rather
// than a separate allocation. region must be at least
// announcementTableBytes(n) bytes. announcementSlot holds only padding
// and an atomix.Uint64 — no pointers — so reinterpreting raw bytes as a
// []announcementSlot this way is sound.
func announcementTableOver(region []byte, n int) *announcementTable {
	slots := unsafe.Slice((*announcementSlot)(unsafe.Pointer(&region[0])), n)
	t := &announcementTable{slots: slots}
	for i := range t.slots {
		t.slots[i].pos.StoreRelease(invalidPos)
	}
	return t
}

func (t *announcementTable) announce(id int, pos uint64) {
	t.slots[id].pos.StoreRelease(pos)
}

func (t *announcementTable) clear(id int) {
	t.slots[id].pos.StoreRelease(invalidPos)
}

// min scans every slot and returns the minimum of all live (non-invalid)
// announcements and floor. Scanning is O(max participants) and is only
// ever invoked from updateLastHead/updateLastTail, i.e. when the cached
// bound already indicates contention — never on the uncontended hot path.
func (t *announcementTable) min(floor uint64) uint64 {
	m := floor
	for i := range t.slots {
		a := t.slots[i].pos.LoadAcquire()
		if a != invalidPos && a < m {
			m = a
		}
	}
	return m
}

// cachedBound is a monotonically non-decreasing lower bound on the
// opposite side's progress ("last_head"/"last_tail"). advanceTo
// CAS-installs candidate only while it strictly exceeds the currently
// published value, iterating rather than recursing on a lost
// compare-and-swap: an unbounded recursive retry would risk a stack
// overflow under sustained contention.
type cachedBound struct {
	v atomix.Uint64
}

func (b *cachedBound) load() uint64 {
	return b.v.LoadAcquire()
}

// advanceTo installs candidate as the new bound if it is greater than the
// value currently published, and returns whatever ends up published
// (which may be larger still, if another goroutine raced ahead of us).
func (b *cachedBound) advanceTo(candidate uint64) uint64 {
	for {
		cur := b.v.LoadAcquire()
		if candidate <= cur {
			return cur
		}
		if b.v.CompareAndSwapAcqRel(cur, candidate) {
			return candidate
		}
	}
}
