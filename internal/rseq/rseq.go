// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rseq registers the calling OS thread for Linux restartable
// sequences (rseq(2)) for the sole purpose of cheaply observing the CPU
// the thread is currently running on, as used by the MPSC-PC queue's
// shard-affinity hint.
//
// This package does NOT attempt to implement an actual restartable
// critical section: the Go runtime can preempt a goroutine, move it
// between OS threads, or insert its own stack/safepoint checks at points
// this package has no control over, so a true single-store rseq commit
// is not expressible here. Registration only publishes a kernel-updated
// cpu_id field this package reads; the queue that consumes it must still
// use a CAS or a per-shard lock to make the commit itself safe.
package rseq

import "runtime"

// Handle is a per-OS-thread rseq registration. It is only valid from the
// goroutine that created it, and only after that goroutine has called
// runtime.LockOSThread.
type Handle struct {
	area *area
}

// Register locks the calling goroutine to its current OS thread and
// registers an rseq area with the kernel. The caller must keep the
// goroutine locked to the thread for the handle's lifetime (a migration
// after registration would read a stale cpu_id belonging to the old
// thread) and must call Unregister before unlocking or exiting.
//
// On platforms or kernels without rseq support, Register returns
// (nil, ErrUnavailable); callers fall back to a different shard-selection
// strategy in that case.
func Register() (*Handle, error) {
	runtime.LockOSThread()
	a, err := registerArea()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return &Handle{area: a}, nil
}

// CPU returns the CPU the registering thread was last observed running
// on. It is a hint: by the time the caller acts on it, the thread may
// already have migrated.
func (h *Handle) CPU() int {
	if h == nil || h.area == nil {
		return -1
	}
	return h.area.cpu()
}

// Unregister unregisters the rseq area and unlocks the OS thread.
func (h *Handle) Unregister() {
	if h == nil || h.area == nil {
		return
	}
	unregisterArea(h.area)
	h.area = nil
	runtime.UnlockOSThread()
}
