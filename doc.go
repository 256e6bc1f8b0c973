// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package aqueue provides bounded, lock-free FIFO queues for pipelines that
// exchange fixed- or variable-size records between producer and consumer
// goroutines.
//
// Four queue flavors are provided:
//
//   - SPSC: single producer, single consumer.
//   - MPSC: multiple producers, single consumer.
//   - MPMC: multiple producers, multiple consumers.
//   - MPSC-PC: multiple producers over per-CPU shards, single consumer.
//
// Each flavor comes in two data disciplines: a typed variant carrying
// trivially-copyable fixed-size values ([SPSC], [MPSC], [MPMC]), and an
// "Any" variant carrying variable-length byte records ([SPSCAny],
// [MPSCAny], [MPMCAny], [MPSCPC]).
//
// # The announced-position protocol
//
// MPSC and MPMC do not use per-slot sequence numbers. A producer about to
// CAS-bump the shared head counter first publishes the position it intends
// to claim into a per-participant announcement slot, and clears it once the
// payload write is visible. The consumer (or, for MPMC, the opposite side)
// computes a safe lower bound of in-flight reservations by scanning the
// announcement table and taking the minimum with the live counter — never
// scanning more often than the cached bound indicates contention. This
// keeps the hot path to one CAS plus one store-release and pays the
// O(max participants) scan only when the cache says the queue looks
// empty/full.
//
// # Quick start
//
//	q := aqueue.NewSPSC[int](1024)
//	v := 42
//	if err := q.TryPush(&v); err != nil {
//	    // full
//	}
//	got, err := q.TryPop()
//
// MPSC and MPMC require an explicit participant handle, obtained once per
// goroutine:
//
//	q := aqueue.NewMPSC[Event](4096, 32) // capacity, max producers
//	p, err := q.Register()
//	defer p.Release()
//	for ev := range events {
//	    for q.TryPush(p, &ev) != nil {
//	        runtime.Gosched()
//	    }
//	}
//
// # Any (variable-length) queues
//
//	q := aqueue.NewSPSCAny(64 * 1024)
//	q.TryPush([]byte("hello"))
//	n, _ := q.GetNextElementSize()
//	buf := make([]byte, n)
//	q.TryPop(buf)
//
// # Placement construction
//
// Every Any-discipline queue, plus [WaitEvent]'s waiter counter, can be
// placement-constructed over a caller-supplied byte region instead of
// allocating its own: size the region with a CalculateXxxSize, then hand
// it to the matching InitializeXxx.
//
//	region := make([]byte, aqueue.CalculateSPSCAnySize(64*1024))
//	q, err := aqueue.InitializeSPSCAny(region, 64*1024)
//
// NewSPSCAny (and its NewMPSCAny/NewMPMCAny/NewMPSCPC counterparts) are
// thin wrappers that allocate a region of the right size and then call
// the matching InitializeXxx. A zero-value [WaitEvent] needs no
// constructor; its counter then lives in the WaitEvent itself.
//
// # Adaptive waiting
//
// The lock-free queues never block. [WaitEvent] is a separate, composable
// counted condition variable; [SpinThenWait] combines a bounded predicate
// spin with backoff and a WaitEvent park, for callers that want to block.
// cmd/aqueuebench does not park: it retries TryPush/TryPop under a
// [Backoff].
//
// # Error handling
//
// All queues return [ErrWouldBlock] (an alias of
// [code.hybscloud.com/iox.ErrWouldBlock]) when an operation cannot proceed
// immediately. This is a control-flow signal, not a failure:
//
//	if err := q.TryPush(&v); aqueue.IsWouldBlock(err) {
//	    // back off and retry
//	}
//
// # Thread safety
//
// Violating a queue's producer/consumer cardinality constraint (e.g. two
// goroutines calling TryPush concurrently on an SPSC) is undefined
// behavior — the queues trade that safety for the absence of locks.
// Participant ids for MPSC/MPMC must be unique among concurrently active
// callers; see [Participant].
package aqueue
