// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue_test

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/aqueue"
)

func TestSPSCAnyRoundTrip(t *testing.T) {
	q := aqueue.NewSPSCAny(256)

	if err := q.TryPush([]byte("abc")); err != nil {
		t.Fatal(err)
	}

	size, err := q.GetNextElementSize()
	if err != nil || size != 3 {
		t.Fatalf("GetNextElementSize: got (%d, %v), want (3, nil)", size, err)
	}

	dst := make([]byte, 16)
	w, n, err := q.TryPop(dst)
	if err != nil || w != 3 || n != 3 || string(dst[:w]) != "abc" {
		t.Fatalf("TryPop: got (%d, %d, %v, %q)", w, n, err, dst[:w])
	}

	if _, err := q.GetNextElementSize(); !errors.Is(err, aqueue.ErrWouldBlock) {
		t.Fatalf("GetNextElementSize on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestSPSCAnyTruncatedPop checks that a destination buffer smaller than
// the record still advances the ring by the record's full length, and
// reports its true length separately from the truncated write count.
func TestSPSCAnyTruncatedPop(t *testing.T) {
	q := aqueue.NewSPSCAny(256)
	if err := q.TryPush([]byte("hello world")); err != nil {
		t.Fatal(err)
	}

	dst := make([]byte, 5)
	w, n, err := q.TryPop(dst)
	if err != nil {
		t.Fatal(err)
	}
	if w != 5 || n != 11 {
		t.Fatalf("TryPop: got (written=%d, recordLen=%d), want (5, 11)", w, n)
	}
	if string(dst) != "hello" {
		t.Fatalf("truncated bytes: got %q", dst)
	}

	if err := q.TryPush([]byte("x")); err != nil {
		t.Fatal(err)
	}
	dst2 := make([]byte, 8)
	w2, n2, err := q.TryPop(dst2)
	if err != nil || w2 != 1 || n2 != 1 || dst2[0] != 'x' {
		t.Fatalf("follow-up pop: got (%d, %d, %v, %v)", w2, n2, err, dst2[0])
	}
}

// TestSPSCAnyPlacement constructs an SPSCAny over a caller-supplied
// region instead of NewSPSCAny's self-allocated one, and checks it
// behaves identically.
func TestSPSCAnyPlacement(t *testing.T) {
	const capacity = 256
	region := make([]byte, aqueue.CalculateSPSCAnySize(capacity))
	q, err := aqueue.InitializeSPSCAny(region, capacity)
	if err != nil {
		t.Fatal(err)
	}

	if err := q.TryPush([]byte("placed")); err != nil {
		t.Fatal(err)
	}
	dst := make([]byte, 16)
	w, n, err := q.TryPop(dst)
	if err != nil || w != 6 || n != 6 || string(dst[:w]) != "placed" {
		t.Fatalf("TryPop: got (%d, %d, %v, %q)", w, n, err, dst[:w])
	}
}

func TestSPSCAnyPlacementRegionTooSmall(t *testing.T) {
	const capacity = 256
	region := make([]byte, aqueue.CalculateSPSCAnySize(capacity)-1)
	if _, err := aqueue.InitializeSPSCAny(region, capacity); !errors.Is(err, aqueue.ErrRegionTooSmall) {
		t.Fatalf("got %v, want ErrRegionTooSmall", err)
	}
}

func TestSPSCAnyPlacementInvalidConfig(t *testing.T) {
	region := make([]byte, aqueue.CalculateSPSCAnySize(256))
	if _, err := aqueue.InitializeSPSCAny(region, 4); !errors.Is(err, aqueue.ErrInvalidConfig) {
		t.Fatalf("got %v, want ErrInvalidConfig", err)
	}
}

func TestSPSCAnyMinConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for undersized capacity")
		}
	}()
	aqueue.NewSPSCAny(4)
}

// TestSPSCAnyWrapAround pushes and pops enough random-length records to
// guarantee multiple ring wraparounds, verifying every popped record
// byte-for-byte.
func TestSPSCAnyWrapAround(t *testing.T) {
	const n = 5000
	q := aqueue.NewSPSCAny(1 << 16)
	rng := rand.New(rand.NewPCG(1, 2))

	records := make([][]byte, n)
	for i := range records {
		sz := 1 + rng.IntN(200)
		rec := make([]byte, sz)
		for j := range rec {
			rec[j] = byte(rng.UintN(256))
		}
		records[i] = rec
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, rec := range records {
			for q.TryPush(rec) != nil {
			}
		}
	}()

	dst := make([]byte, 256)
	for i := 0; i < n; i++ {
		var w, recLen int
		var err error
		for {
			w, recLen, err = q.TryPop(dst)
			if err == nil {
				break
			}
		}
		if recLen != len(records[i]) || !bytes.Equal(dst[:w], records[i]) {
			t.Fatalf("record %d mismatch: got %d bytes, want %d", i, w, len(records[i]))
		}
	}
	<-done
}
