// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import "time"

// maxAdaptiveSpins bounds the predicate-spin phase of [SpinThenWait]
// before it parks on the WaitEvent.
const maxAdaptiveSpins = 1000

// SpinThenWait implements the adaptive-wait client pattern: spin on pred
// with exponential backoff for up to maxAdaptiveSpins iterations, and if
// pred is still false, park on ev until it becomes true.
//
// This is the glue clients use to turn a non-blocking TryPush/TryPop loop
// into a blocking Push/Pop without putting any suspension inside the
// lock-free queue itself — the queues stay Try*-only; only callers that
// want to block compose them with SpinThenWait and a shared WaitEvent.
func SpinThenWait(ev *WaitEvent, pred func() bool) {
	if pred() {
		return
	}
	var b Backoff
	for i := 0; i < maxAdaptiveSpins; i++ {
		if pred() {
			return
		}
		b.Once()
	}
	ev.Wait(pred)
}

// SpinThenWaitUntil is the timed counterpart of [SpinThenWait]. It
// returns true if pred became true before deadline, false on timeout.
func SpinThenWaitUntil(ev *WaitEvent, deadline time.Time, pred func() bool) bool {
	if pred() {
		return true
	}
	var b Backoff
	for i := 0; i < maxAdaptiveSpins; i++ {
		if pred() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		b.Once()
	}
	return ev.WaitUntil(deadline, pred)
}
