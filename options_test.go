// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"testing"

	"code.hybscloud.com/aqueue"
)

func TestBuilderSPSC(t *testing.T) {
	q := aqueue.BuildSPSC[int](aqueue.NewBuilder(8))
	v := 1
	if err := q.TryPush(&v); err != nil {
		t.Fatal(err)
	}
}

func TestBuilderMPSCPanicsWithMultipleConsumers(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	aqueue.BuildMPSC[int](aqueue.NewBuilder(8).Consumers(2))
}

func TestBuilderMPMC(t *testing.T) {
	q := aqueue.BuildMPMC[int](aqueue.NewBuilder(8).Producers(4).Consumers(4))
	if q.Cap() != 8 {
		t.Fatalf("Cap: got %d, want 8", q.Cap())
	}
}

func TestBuilderMPSCPC(t *testing.T) {
	q := aqueue.NewBuilder(4096).Shards(4).BuildMPSCPC()
	if q.NumShards() != 4 {
		t.Fatalf("NumShards: got %d, want 4", q.NumShards())
	}
}
