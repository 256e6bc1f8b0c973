// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"unsafe"

	"code.hybscloud.com/atomix"

	"code.hybscloud.com/aqueue/internal/rseq"
)

// MPSCPC is a multi-producer single-consumer queue sharded per CPU: each
// shard is an independent byte ring (the same layout as [SPSCAny]) that
// at most one producer commits into at a time, so the hot path never
// contends across cores the way a single shared counter does.
//
// Go cannot express a literal restartable-sequence commit (the runtime
// may preempt or migrate a goroutine at points this package doesn't
// control), so the real commit path here falls back to a per-shard
// spinlock.
// [rseq] registration, when available, is used only to pick which shard
// a producer prefers — a CPU-affinity hint that reduces cross-shard
// migration, never a correctness requirement. Available reports whether
// that hint is active; its absence only degrades shard locality, never
// correctness.
type MPSCPC struct {
	shards     []*pcShard
	shardMask  uint64
	rrProducer atomix.Uint64 // fallback round-robin shard assignment
	rrConsumer uint64        // consumer-side round robin (single reader, no sync needed)
	pending    pcPending     // cursor from the last GetNextElementSize, consumed by the paired TryPop
}

// pcPending remembers the shard index a GetNextElementSize call fetched
// its record from, so the paired TryPop drains exactly that record instead of
// independently re-scanning shards — a push landing on an earlier shard
// between the two calls must not change which record TryPop drains.
// Single consumer only, so this needs no synchronization.
type pcPending struct {
	valid      bool
	shardIndex uint64
}

// pcShardHeader is the placement-compatible portion of a shard: just its
// spinlock, padded to its own cache line. Pointer-free.
type pcShardHeader struct {
	_    pad
	lock atomix.Bool
	_    pad
}

type pcShard struct {
	hdr  *pcShardHeader
	ring *SPSCAny
}

// CalculateMPSCPCSize returns the total region size, in bytes, an MPSCPC
// with numShards shards (rounded up to a power of 2) of shardCapacity
// bytes each needs: numShards copies of [shard header | SPSCAny region],
// mirroring the original's `MPSCQueuePC::CalculateSize`, which lays out
// one `spsc_queue_any` per CPU back to back.
func CalculateMPSCPCSize(shardCapacity, numShards int) int {
	n := roundToPow2(numShards)
	return n * perShardSize(shardCapacity)
}

func perShardSize(shardCapacity int) int {
	hdrSize := alignUp(int(unsafe.Sizeof(pcShardHeader{})), cacheLineSize)
	return hdrSize + CalculateSPSCAnySize(shardCapacity)
}

// InitializeMPSCPC placement-constructs an MPSCPC over region, which must
// be at least [CalculateMPSCPCSize](shardCapacity, numShards) bytes.
// Returns [ErrInvalidConfig] if numShards < 1, or [ErrRegionTooSmall] if
// region is undersized.
func InitializeMPSCPC(region []byte, shardCapacity, numShards int) (*MPSCPC, error) {
	if numShards < 1 {
		return nil, ErrInvalidConfig
	}
	n := roundToPow2(numShards)
	per := perShardSize(shardCapacity)
	if len(region) < n*per {
		return nil, ErrRegionTooSmall
	}

	hdrSize := alignUp(int(unsafe.Sizeof(pcShardHeader{})), cacheLineSize)
	shards := make([]*pcShard, n)
	for i := range shards {
		off := i * per
		hdr := (*pcShardHeader)(unsafe.Pointer(&region[off]))
		*hdr = pcShardHeader{}
		ring, err := InitializeSPSCAny(region[off+hdrSize:off+per], shardCapacity)
		if err != nil {
			return nil, err
		}
		shards[i] = &pcShard{hdr: hdr, ring: ring}
	}
	return &MPSCPC{
		shards:    shards,
		shardMask: uint64(n - 1),
	}, nil
}

// NewMPSCPC creates a queue with numShards independent rings, each of
// shardCapacity bytes, allocating its own backing region. numShards
// rounds up to a power of 2 so shard selection can use a mask instead of
// a division.
func NewMPSCPC(shardCapacity, numShards int) *MPSCPC {
	if numShards < 1 {
		panic("aqueue: numShards must be >= 1")
	}
	region := make([]byte, CalculateMPSCPCSize(shardCapacity, numShards))
	q, err := InitializeMPSCPC(region, shardCapacity, numShards)
	if err != nil {
		panic(err)
	}
	return q
}

// PCProducer is a registered producer handle for [MPSCPC]. Unlike
// [Participant], it owns an OS-thread-bound rseq registration (when
// available) rather than a slot in an announcement table — MPSC-PC has
// no announcement table at all, since each shard is single-writer at any
// instant by construction of the spinlock.
type PCProducer struct {
	handle *rseq.Handle
}

// RegisterProducer obtains a [PCProducer] handle for the calling
// goroutine. If rseq registration fails (missing kernel support, or
// already registered by something else on this thread), the handle
// falls back to round-robin shard selection; TryPush still works, just
// without CPU-affinity locality.
func (q *MPSCPC) RegisterProducer() *PCProducer {
	h, _ := rseq.Register()
	return &PCProducer{handle: h}
}

// Release releases the producer's rseq registration, if any.
func (p *PCProducer) Release() {
	if p.handle != nil {
		p.handle.Unregister()
		p.handle = nil
	}
}

// Available reports whether this producer has an active rseq-based
// shard-affinity hint. A false result means TryPush still works
// correctly, only without CPU locality.
func (p *PCProducer) Available() bool {
	return p.handle != nil
}

func (p *PCProducer) shardIndex(q *MPSCPC) uint64 {
	if p.handle != nil {
		cpu := p.handle.CPU()
		if cpu >= 0 {
			return uint64(cpu) & q.shardMask
		}
	}
	return q.rrProducer.AddAcqRel(1) & q.shardMask
}

// TryPush writes src into the producer's assigned shard. Returns
// ErrWouldBlock if that specific shard is full — this queue trades
// perfect load balancing for lock-free-feeling, contention-free commits,
// so a full shard is reported even when sibling shards have room.
func (q *MPSCPC) TryPush(p *PCProducer, src []byte) error {
	idx := p.shardIndex(q)
	shard := q.shards[idx]

	var b Backoff
	for !shard.hdr.lock.CompareAndSwapAcqRel(false, true) {
		b.Once()
	}
	err := shard.ring.TryPush(src)
	shard.hdr.lock.StoreRelease(false)
	return err
}

// GetNextElementSize returns the byte length of the next record the
// consumer would receive, scanning shards round-robin starting from
// where the previous call left off. Returns (0, ErrWouldBlock) if every
// shard is empty.
//
// It remembers which shard the record came from; the next call to TryPop
// drains exactly that shard's front record, so a push landing on an
// earlier shard in the rotation between the two calls cannot change which
// record gets popped.
func (q *MPSCPC) GetNextElementSize() (int, error) {
	n := uint64(len(q.shards))
	for i := uint64(0); i < n; i++ {
		idx := (q.rrConsumer + i) % n
		if size, err := q.shards[idx].ring.GetNextElementSize(); err == nil {
			q.pending = pcPending{valid: true, shardIndex: idx}
			return size, nil
		}
	}
	q.pending.valid = false
	return 0, ErrWouldBlock
}

// TryPop removes the next record, writing up to len(dst) bytes of it
// into dst. There is only ever one consumer for an MPSCPC, so no
// synchronization is required on this side.
//
// If the previous call was GetNextElementSize, TryPop drains the exact
// shard it reported on, rather than re-scanning round-robin from
// scratch: otherwise an intervening push into an earlier shard could
// make TryPop return a different record than the size just fetched.
func (q *MPSCPC) TryPop(dst []byte) (written int, recordLen int, err error) {
	if q.pending.valid {
		idx := q.pending.shardIndex
		q.pending.valid = false
		if w, rl, perr := q.shards[idx].ring.TryPop(dst); perr == nil {
			q.rrConsumer = idx + 1
			return w, rl, nil
		}
	}

	n := uint64(len(q.shards))
	for i := uint64(0); i < n; i++ {
		idx := (q.rrConsumer + i) % n
		w, rl, perr := q.shards[idx].ring.TryPop(dst)
		if perr == nil {
			q.rrConsumer = idx + 1
			return w, rl, nil
		}
	}
	return 0, 0, ErrWouldBlock
}

// IsEmpty reports whether every shard is currently empty.
func (q *MPSCPC) IsEmpty() bool {
	for _, s := range q.shards {
		if !s.ring.IsEmpty() {
			return false
		}
	}
	return true
}

// IsFull reports whether every shard is currently full. Because
// producers are pinned to a shard, a single busy shard can make TryPush
// return ErrWouldBlock well before IsFull would report true: this method
// answers "could no producer push right now", not "could this specific
// producer push right now".
func (q *MPSCPC) IsFull() bool {
	for _, s := range q.shards {
		if !s.ring.IsFull() {
			return false
		}
	}
	return true
}

// Cap returns the total byte capacity across all shards.
func (q *MPSCPC) Cap() int {
	total := 0
	for _, s := range q.shards {
		total += s.ring.Cap()
	}
	return total
}

// NumShards returns the number of independent per-CPU shards.
func (q *MPSCPC) NumShards() int {
	return len(q.shards)
}
