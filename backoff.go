// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

import (
	"time"

	"code.hybscloud.com/spin"
)

// spinThreshold is the number of pure-spin iterations Backoff performs
// before it starts sleeping: below this threshold the wait is a pure
// spin, above it the goroutine yields and sleeps.
const spinThreshold = 32

// defaultMaxDelay caps Backoff's sleep duration.
const defaultMaxDelay = 1 * time.Millisecond

// Backoff is a stateful exponential/constant spin-then-sleep delay used
// around CAS retries.
//
// A Backoff starts in the pure-spin regime (using
// [code.hybscloud.com/spin]'s pause-equivalent, exactly as the hot
// reservation loops in this package already spin between CAS attempts)
// and, once spinThreshold iterations have elapsed without success,
// switches to sleeping for a microsecond delay that grows by Step each
// call, capped at MaxDelay. Constant backoff (Step == 1) keeps sleeping
// the same duration once the cap or a fixed delay is reached; exponential
// backoff (Step == 2) doubles each time.
//
// Backoff is not safe for concurrent use by multiple goroutines — each
// retry loop should own its own instance, the same way a
// `sw := spin.Wait{}` value is goroutine-local.
type Backoff struct {
	// Step multiplies the sleep delay after every sleep. 1 = constant backoff,
	// 2 = exponential backoff. Zero defaults to 2 (exponential).
	Step uint
	// MaxDelay caps the sleep duration. Zero defaults to defaultMaxDelay.
	MaxDelay time.Duration

	delay time.Duration
	spins int
	sw    spin.Wait
}

// Once performs a single backoff step: spin while under threshold, then
// sleep for an exponentially/constantly growing delay.
func (b *Backoff) Once() {
	if b.spins < spinThreshold {
		b.spins++
		b.sw.Once()
		return
	}

	if b.delay == 0 {
		b.delay = time.Microsecond
	}
	time.Sleep(b.delay)

	step := b.Step
	if step == 0 {
		step = 2
	}
	max := b.MaxDelay
	if max == 0 {
		max = defaultMaxDelay
	}
	next := b.delay * time.Duration(step)
	if next > max || next <= 0 {
		next = max
	}
	b.delay = next
}

// Reset returns the Backoff to its initial pure-spin state. Callers
// should call Reset after a successful operation so the next contention
// episode starts cheap again.
func (b *Backoff) Reset() {
	b.spins = 0
	b.delay = 0
	b.sw = spin.Wait{}
}
