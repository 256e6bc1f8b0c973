// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code.hybscloud.com/aqueue"
)

// TestWaitEventWakeupNoWaitersIsNoOp verifies that WakeupOne/WakeupAll
// on a WaitEvent with zero waiters return and leave the waiter count at
// zero.
func TestWaitEventWakeupNoWaitersIsNoOp(t *testing.T) {
	var ev aqueue.WaitEvent
	if ev.Waiters() != 0 {
		t.Fatalf("Waiters: got %d, want 0", ev.Waiters())
	}
	// Must return immediately and must not touch the waiter count.
	ev.WakeupOne()
	ev.WakeupAll()
	if ev.Waiters() != 0 {
		t.Fatalf("Waiters after no-op wakeups: got %d, want 0", ev.Waiters())
	}
}

func TestWaitEventWaitWakeup(t *testing.T) {
	var ev aqueue.WaitEvent
	var ready int32

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ev.Wait(func() bool { return atomic.LoadInt32(&ready) == 1 })
	}()

	for ev.Waiters() == 0 {
		time.Sleep(time.Millisecond)
	}
	atomic.StoreInt32(&ready, 1)
	ev.WakeupAll()
	wg.Wait()
}

func TestWaitEventWaitUntilTimeout(t *testing.T) {
	var ev aqueue.WaitEvent
	ok := ev.WaitUntil(time.Now().Add(20*time.Millisecond), func() bool { return false })
	if ok {
		t.Fatal("expected timeout, got success")
	}
	if ev.Waiters() != 0 {
		t.Fatalf("waiter count not decremented after timeout: got %d", ev.Waiters())
	}
}

func TestWaitEventWaitUntilSuccess(t *testing.T) {
	var ev aqueue.WaitEvent
	var ready int32
	go func() {
		time.Sleep(5 * time.Millisecond)
		atomic.StoreInt32(&ready, 1)
		ev.WakeupAll()
	}()
	ok := ev.WaitUntil(time.Now().Add(time.Second), func() bool { return atomic.LoadInt32(&ready) == 1 })
	if !ok {
		t.Fatal("expected success before deadline")
	}
}

// TestWaitEventPlacement constructs a WaitEvent's waiter counter over a
// caller-supplied region instead of letting it live on the zero-value's
// own heap-allocated field, and checks Wait/Wakeup still work.
func TestWaitEventPlacement(t *testing.T) {
	region := make([]byte, aqueue.CalculateWaitEventSize())
	ev, err := aqueue.InitializeWaitEvent(region)
	if err != nil {
		t.Fatal(err)
	}

	var ready int32
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ev.Wait(func() bool { return atomic.LoadInt32(&ready) == 1 })
	}()

	for ev.Waiters() == 0 {
		time.Sleep(time.Millisecond)
	}
	atomic.StoreInt32(&ready, 1)
	ev.WakeupAll()
	wg.Wait()
}

func TestWaitEventPlacementRegionTooSmall(t *testing.T) {
	region := make([]byte, aqueue.CalculateWaitEventSize()-1)
	if _, err := aqueue.InitializeWaitEvent(region); !errors.Is(err, aqueue.ErrRegionTooSmall) {
		t.Fatalf("got %v, want ErrRegionTooSmall", err)
	}
}

func TestSpinThenWaitUsesWaitEvent(t *testing.T) {
	var ev aqueue.WaitEvent
	var ready int32
	go func() {
		time.Sleep(5 * time.Millisecond)
		atomic.StoreInt32(&ready, 1)
		ev.WakeupAll()
	}()
	aqueue.SpinThenWait(&ev, func() bool { return atomic.LoadInt32(&ready) == 1 })
}
