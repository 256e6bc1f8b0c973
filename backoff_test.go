// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"testing"
	"time"

	"code.hybscloud.com/aqueue"
)

func TestBackoffRespectsMaxDelay(t *testing.T) {
	b := aqueue.Backoff{Step: 2, MaxDelay: 2 * time.Millisecond}
	start := time.Now()
	for i := 0; i < 50; i++ {
		b.Once()
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("backoff ran away: %s elapsed for 50 iterations capped at 2ms", elapsed)
	}
}

func TestBackoffResetReturnsToSpin(t *testing.T) {
	var b aqueue.Backoff
	for i := 0; i < 64; i++ {
		b.Once()
	}
	b.Reset()
	// After Reset, the first handful of calls should be cheap spins, not
	// sleeps; bound the total time for a small number of calls generously.
	start := time.Now()
	for i := 0; i < 10; i++ {
		b.Once()
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("expected fast spin phase after Reset, took %s", elapsed)
	}
}
