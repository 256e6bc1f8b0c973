// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"sync"
	"time"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// waitEventHeader is the placement-compatible portion of a WaitEvent:
// just the waiter counter, padded to its own cache line. Pointer-free.
type waitEventHeader struct {
	_       pad
	waiters atomix.Int32
	_       pad
}

// WaitEvent is a counted condition variable that couples the lock-free
// queues in this package to blocking waiters.
//
// The fast path — WakeupOne/WakeupAll when nobody is parked — never
// touches the mutex: a waiter count is checked with a single atomic load
// first. This matters for callers that pair a queue with a WaitEvent and
// call WakeupOne (or WakeupAll) after every successful push/pop (the
// queues themselves never call it); paying mutex overhead for that on the
// overwhelmingly common "nobody is waiting" case would defeat the point
// of using a lock-free queue underneath.
//
// A zero-value WaitEvent is ready to use, with its counter living on the
// Go heap as part of the WaitEvent itself. [InitializeWaitEvent] instead
// backs only that counter with caller-supplied memory (see
// [CalculateWaitEventSize]) — the same fast-path check other processes
// could poll without owning a handle to this WaitEvent. The mutex/cond
// pair that backs the slow path cannot be placed the same way: Go has no
// process-shared mutex or condition variable, so parking and waking
// always go through this process's own sync.Mutex/sync.Cond, same as any
// other WaitEvent use.
type WaitEvent struct {
	waiters      *atomix.Int32
	waitersLocal atomix.Int32

	mu   sync.Mutex
	cond *sync.Cond
}

// CalculateWaitEventSize returns the region size, in bytes, a
// placement-initialized WaitEvent's waiter counter needs.
func CalculateWaitEventSize() int {
	return alignUp(int(unsafe.Sizeof(waitEventHeader{})), cacheLineSize)
}

// InitializeWaitEvent placement-constructs a WaitEvent's waiter counter
// over region, which must be at least [CalculateWaitEventSize]() bytes.
// Returns [ErrRegionTooSmall] otherwise. The returned WaitEvent's mutex
// and condition variable remain ordinary heap state (see the WaitEvent
// doc comment); only its fast-path counter is backed by region.
func InitializeWaitEvent(region []byte) (*WaitEvent, error) {
	if len(region) < CalculateWaitEventSize() {
		return nil, ErrRegionTooSmall
	}
	hdr := (*waitEventHeader)(unsafe.Pointer(&region[0]))
	*hdr = waitEventHeader{}
	return &WaitEvent{waiters: &hdr.waiters}, nil
}

func (e *WaitEvent) counter() *atomix.Int32 {
	if e.waiters != nil {
		return e.waiters
	}
	return &e.waitersLocal
}

func (e *WaitEvent) init() {
	if e.cond == nil {
		e.cond = sync.NewCond(&e.mu)
	}
}

// Wait blocks until pred returns true. If pred is already true, Wait
// returns immediately without acquiring the mutex.
func (e *WaitEvent) Wait(pred func() bool) {
	if pred() {
		return
	}
	e.mu.Lock()
	e.init()
	e.counter().Add(1)
	for !pred() {
		e.cond.Wait()
	}
	e.counter().Add(-1)
	e.mu.Unlock()
}

// WaitUntil blocks until pred returns true or the deadline passes,
// whichever comes first. It measures the deadline against a steady
// monotonic clock (time.Time's monotonic reading) so it is not affected
// by wall-clock adjustments. Returns true if pred became true, false on
// timeout.
func (e *WaitEvent) WaitUntil(deadline time.Time, pred func() bool) bool {
	if pred() {
		return true
	}

	e.mu.Lock()
	e.init()
	e.counter().Add(1)
	defer func() {
		e.counter().Add(-1)
		e.mu.Unlock()
	}()

	for !pred() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		// sync.Cond has no timed wait; approximate one by releasing the
		// mutex for at most `remaining` (capped, so we re-check pred and
		// the deadline regularly) via a timer that signals the same cond.
		timer := time.AfterFunc(minDuration(remaining, 5*time.Millisecond), func() {
			e.mu.Lock()
			e.cond.Broadcast()
			e.mu.Unlock()
		})
		e.cond.Wait()
		timer.Stop()
	}
	return true
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// WakeupOne wakes at most one waiter. If no goroutine is currently
// parked, WakeupOne is a wait-free no-op: it never acquires the mutex.
func (e *WaitEvent) WakeupOne() {
	if e.counter().Load() == 0 {
		return
	}
	e.mu.Lock()
	e.init()
	e.cond.Signal()
	e.mu.Unlock()
}

// WakeupAll wakes every parked waiter. Like WakeupOne, it is a no-op that
// never touches the mutex when the waiter count is zero. Callers that are
// tearing down a producer or consumer side should call WakeupAll once on
// the way out to avoid stranding waiters on a queue that will never again
// be pushed/popped.
func (e *WaitEvent) WakeupAll() {
	if e.counter().Load() == 0 {
		return
	}
	e.mu.Lock()
	e.init()
	e.cond.Broadcast()
	e.mu.Unlock()
}

// Waiters returns the current number of parked goroutines. Intended for
// diagnostics/tests, not for control flow (the count can change the
// instant after it's read).
func (e *WaitEvent) Waiters() int {
	return int(e.counter().Load())
}
