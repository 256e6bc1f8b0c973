// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"code.hybscloud.com/aqueue"
)

// TestMPSCAnyScenario4 pushes "a", "ab", "abc" from a single registered
// producer and checks GetNextElementSize/TryPop report 1, 2, 3 in order.
func TestMPSCAnyScenario4(t *testing.T) {
	q := aqueue.NewMPSCAny(4096, 1)
	p, err := q.Register()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	want := []string{"a", "ab", "abc"}
	for _, s := range want {
		if err := q.TryPush(p, []byte(s)); err != nil {
			t.Fatalf("TryPush(%q): %v", s, err)
		}
	}

	dst := make([]byte, 16)
	for _, s := range want {
		size, err := q.GetNextElementSize()
		if err != nil || size != len(s) {
			t.Fatalf("GetNextElementSize: got (%d, %v), want (%d, nil)", size, err, len(s))
		}
		w, n, err := q.TryPop(dst)
		if err != nil || n != len(s) || string(dst[:w]) != s {
			t.Fatalf("TryPop: got (%d, %d, %v, %q), want %q", w, n, err, dst[:w], s)
		}
	}
}

// TestMPSCAnyTryPeekThenPop checks that TryPeek followed immediately by
// TryPop yields the same bytes without consuming the record twice.
func TestMPSCAnyTryPeekThenPop(t *testing.T) {
	q := aqueue.NewMPSCAny(4096, 1)
	p, err := q.Register()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	if err := q.TryPush(p, []byte("peekable")); err != nil {
		t.Fatal(err)
	}

	peekDst := make([]byte, 16)
	pw, pn, err := q.TryPeek(peekDst)
	if err != nil || pn != 8 || string(peekDst[:pw]) != "peekable" {
		t.Fatalf("TryPeek: got (%d, %d, %v, %q)", pw, pn, err, peekDst[:pw])
	}

	popDst := make([]byte, 16)
	w, n, err := q.TryPop(popDst)
	if err != nil || n != pn || string(popDst[:w]) != string(peekDst[:pw]) {
		t.Fatalf("TryPop after TryPeek: got (%d, %d, %v, %q), want match with peek", w, n, err, popDst[:w])
	}

	if _, err := q.GetNextElementSize(); !errors.Is(err, aqueue.ErrWouldBlock) {
		t.Fatalf("queue should be empty after the paired peek+pop, got err=%v", err)
	}
}

// TestMPSCAnyPlacement constructs an MPSCAny over a caller-supplied
// region instead of NewMPSCAny's self-allocated one.
func TestMPSCAnyPlacement(t *testing.T) {
	const capacity = 4096
	const maxProducers = 2
	region := make([]byte, aqueue.CalculateMPSCAnySize(capacity, maxProducers))
	q, err := aqueue.InitializeMPSCAny(region, capacity, maxProducers)
	if err != nil {
		t.Fatal(err)
	}
	p, err := q.Register()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Release()

	if err := q.TryPush(p, []byte("placed")); err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 16)
	w, n, err := q.TryPop(dst)
	if err != nil || n != 6 || string(dst[:w]) != "placed" {
		t.Fatalf("TryPop: got (%d, %d, %v, %q)", w, n, err, dst[:w])
	}
}

func TestMPSCAnyPlacementRegionTooSmall(t *testing.T) {
	region := make([]byte, aqueue.CalculateMPSCAnySize(4096, 2)-1)
	if _, err := aqueue.InitializeMPSCAny(region, 4096, 2); !errors.Is(err, aqueue.ErrRegionTooSmall) {
		t.Fatalf("got %v, want ErrRegionTooSmall", err)
	}
}

// TestMPSCAnyConcurrentWrapAround exercises multiple concurrent
// producers racing to push variable-length records through a ring small
// enough to wrap many times: every popped record must arrive untruncated
// and uniform (one producer's byte repeated), and the number popped must
// equal the number pushed.
func TestMPSCAnyConcurrentWrapAround(t *testing.T) {
	const numProducers = 4
	const perProducer = 1250
	const total = numProducers * perProducer

	q := aqueue.NewMPSCAny(1<<13, numProducers)

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			p, err := q.Register()
			if err != nil {
				panic(err)
			}
			defer p.Release()
			for j := 0; j < perProducer; j++ {
				rec := bytes.Repeat([]byte{byte(seed)}, 1+(seed+j)%200)
				for q.TryPush(p, rec) != nil {
				}
			}
		}(i)
	}

	counts := make(map[int]int)
	dst := make([]byte, 256)
	for n := 0; n < total; n++ {
		var w, recLen int
		var err error
		for {
			w, recLen, err = q.TryPop(dst)
			if err == nil {
				break
			}
		}
		if recLen != w {
			t.Fatalf("truncated unexpectedly: recordLen=%d written=%d", recLen, w)
		}
		for _, b := range dst[:w] {
			if b != dst[0] {
				t.Fatalf("record not uniform: %v", dst[:w])
			}
		}
		counts[recLen]++
	}
	wg.Wait()
	if sum := func() int {
		s := 0
		for _, c := range counts {
			s += c
		}
		return s
	}(); sum != total {
		t.Fatalf("total records popped: got %d, want %d", sum, total)
	}
}
