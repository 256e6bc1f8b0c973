// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/aqueue"
)

func TestMPMCAnyRoundTrip(t *testing.T) {
	q := aqueue.NewMPMCAny(4096, 2, 2)
	p, err := q.RegisterProducer()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()
	c, err := q.RegisterConsumer()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release()

	if err := q.TryPush(p, []byte("payload")); err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 32)
	w, n, err := q.TryPop(c, dst)
	if err != nil || n != 7 || string(dst[:w]) != "payload" {
		t.Fatalf("TryPop: got (%d, %d, %v, %q)", w, n, err, dst[:w])
	}
}

// TestMPMCAnyPlacement constructs an MPMCAny over a caller-supplied
// region instead of NewMPMCAny's self-allocated one.
func TestMPMCAnyPlacement(t *testing.T) {
	const capacity = 4096
	const maxProducers, maxConsumers = 2, 2
	region := make([]byte, aqueue.CalculateMPMCAnySize(capacity, maxProducers, maxConsumers))
	q, err := aqueue.InitializeMPMCAny(region, capacity, maxProducers, maxConsumers)
	if err != nil {
		t.Fatal(err)
	}
	p, err := q.RegisterProducer()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()
	c, err := q.RegisterConsumer()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Release()

	if err := q.TryPush(p, []byte("placed")); err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 16)
	w, n, err := q.TryPop(c, dst)
	if err != nil || n != 6 || string(dst[:w]) != "placed" {
		t.Fatalf("TryPop: got (%d, %d, %v, %q)", w, n, err, dst[:w])
	}
}

func TestMPMCAnyPlacementRegionTooSmall(t *testing.T) {
	region := make([]byte, aqueue.CalculateMPMCAnySize(4096, 2, 2)-1)
	if _, err := aqueue.InitializeMPMCAny(region, 4096, 2, 2); !errors.Is(err, aqueue.ErrRegionTooSmall) {
		t.Fatalf("got %v, want ErrRegionTooSmall", err)
	}
}

// TestMPMCAnyConcurrentDistinctRecords checks that concurrent consumers
// never receive the same record twice and that the total record count
// popped equals the total pushed.
func TestMPMCAnyConcurrentDistinctRecords(t *testing.T) {
	const numProducers = 4
	const numConsumers = 4
	const perProducer = 2000
	const total = numProducers * perProducer

	q := aqueue.NewMPMCAny(1<<20, numProducers, numConsumers)

	var producers sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		producers.Add(1)
		go func(i int) {
			defer producers.Done()
			p, err := q.RegisterProducer()
			if err != nil {
				panic(err)
			}
			defer p.Release()
			for j := 0; j < perProducer; j++ {
				rec := []byte{byte(i), byte(j), byte(j >> 8)}
				for q.TryPush(p, rec) != nil {
				}
			}
		}(i)
	}

	var consumed int64
	var consumers sync.WaitGroup
	seenMu := sync.Mutex{}
	seen := make(map[[3]byte]int, total)
	for i := 0; i < numConsumers; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			c, err := q.RegisterConsumer()
			if err != nil {
				panic(err)
			}
			defer c.Release()
			dst := make([]byte, 8)
			for atomic.LoadInt64(&consumed) < int64(total) {
				w, _, err := q.TryPop(c, dst)
				if err != nil {
					continue
				}
				var key [3]byte
				copy(key[:], dst[:w])
				seenMu.Lock()
				seen[key]++
				seenMu.Unlock()
				atomic.AddInt64(&consumed, 1)
			}
		}()
	}

	producers.Wait()
	consumers.Wait()

	if int64(len(seen)) != total {
		t.Fatalf("distinct records seen: got %d, want %d", len(seen), total)
	}
	for k, c := range seen {
		if c != 1 {
			t.Fatalf("record %v seen %d times, want 1", k, c)
		}
	}
}
