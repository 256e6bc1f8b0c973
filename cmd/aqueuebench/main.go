// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command aqueuebench drives one of the Any-discipline queues with a
// configurable number of producers and consumers and reports throughput.
//
// Usage:
//
//	aqueuebench <queue_type> <num_items> <num_producers> <num_consumers> [verify]
//
// queue_type is one of mpmc, mpsc, mpsc-pc. For mpsc and mpsc-pc,
// num_consumers is forced to 1 with a warning. Exit code is 0 on success,
// 1 if verify was requested and any record failed its hash check, -1 on
// a usage/argument error.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cloudwego/gopkg/hash/xfnv"

	"code.hybscloud.com/aqueue"
)

const (
	hashTrailerSize = 8
	minRecordBody   = 16
	maxRecordBody   = 256
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 4 {
		usage()
		return -1
	}

	queueType := args[0]
	numItems, err1 := strconv.Atoi(args[1])
	numProducers, err2 := strconv.Atoi(args[2])
	numConsumers, err3 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil || err3 != nil || numItems <= 0 || numProducers <= 0 || numConsumers <= 0 {
		usage()
		return -1
	}
	verify := len(args) >= 5 && args[4] == "verify"

	switch queueType {
	case "mpmc":
	case "mpsc", "mpsc-pc":
		if numConsumers != 1 {
			fmt.Fprintf(os.Stderr, "warning: %s forces num_consumers=1 (got %d)\n", queueType, numConsumers)
			numConsumers = 1
		}
	default:
		usage()
		return -1
	}

	capacity := roundRecordCapacity(numItems, numProducers)

	var mismatches int64
	var consumed int64
	start := time.Now()

	switch queueType {
	case "mpmc":
		runMPMC(capacity, numItems, numProducers, numConsumers, verify, &consumed, &mismatches)
	case "mpsc":
		runMPSC(capacity, numItems, numProducers, verify, &consumed, &mismatches)
	case "mpsc-pc":
		runMPSCPC(capacity, numItems, numProducers, verify, &consumed, &mismatches)
	}

	elapsed := time.Since(start)
	fmt.Printf("%s: %d items, %d producers, %d consumers, %s, %.0f items/sec\n",
		queueType, numItems, numProducers, numConsumers, elapsed, float64(numItems)/elapsed.Seconds())

	if verify && atomic.LoadInt64(&mismatches) > 0 {
		fmt.Fprintf(os.Stderr, "verification failed: %d mismatched records\n", mismatches)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: aqueuebench <mpmc|mpsc|mpsc-pc> <num_items> <num_producers> <num_consumers> [verify]")
}

// roundRecordCapacity picks a byte capacity generous enough that no
// producer spins forever waiting on a consumer that hasn't started yet.
func roundRecordCapacity(numItems, numProducers int) int {
	perProducer := numItems/numProducers + 1
	avgRecord := (minRecordBody+maxRecordBody)/2 + hashTrailerSize + 8
	n := perProducer * avgRecord
	if n > 64<<20 {
		n = 64 << 20
	}
	if n < 4096 {
		n = 4096
	}
	return n
}

// makeRecord returns a random-length payload with an 8-byte FNV-1a
// trailer over the payload, mirroring the hash-verified record format
// used by the Any-discipline concurrency scenarios.
func makeRecord(rng *rand.Rand) []byte {
	n := minRecordBody + rng.IntN(maxRecordBody-minRecordBody+1)
	rec := make([]byte, n+hashTrailerSize)
	for i := 0; i < n; i++ {
		rec[i] = byte(rng.UintN(256))
	}
	h := xfnv.Hash(rec[:n])
	for i := 0; i < hashTrailerSize; i++ {
		rec[n+i] = byte(h >> (8 * uint(i)))
	}
	return rec
}

func verifyRecord(rec []byte) bool {
	if len(rec) < hashTrailerSize {
		return false
	}
	body := rec[:len(rec)-hashTrailerSize]
	var want uint64
	for i := 0; i < hashTrailerSize; i++ {
		want |= uint64(rec[len(body)+i]) << (8 * uint(i))
	}
	return xfnv.Hash(body) == want
}

func itemsForProducer(numItems, numProducers, idx int) int {
	base := numItems / numProducers
	if idx < numItems%numProducers {
		base++
	}
	return base
}

func runMPSC(capacity, numItems, numProducers int, verify bool, consumed, mismatches *int64) {
	q := aqueue.NewMPSCAny(capacity, numProducers)

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := q.Register()
			if err != nil {
				panic(err)
			}
			defer p.Release()
			rng := rand.New(rand.NewPCG(uint64(i)+1, 0x9e3779b97f4a7c15))
			var b aqueue.Backoff
			for n := 0; n < itemsForProducer(numItems, numProducers, i); n++ {
				rec := makeRecord(rng)
				for q.TryPush(p, rec) != nil {
					b.Once()
				}
				b.Reset()
			}
		}(i)
	}

	dst := make([]byte, maxRecordBody+hashTrailerSize)
	var b aqueue.Backoff
	for atomic.LoadInt64(consumed) < int64(numItems) {
		w, _, err := q.TryPop(dst)
		if err != nil {
			b.Once()
			continue
		}
		b.Reset()
		if verify && !verifyRecord(dst[:w]) {
			atomic.AddInt64(mismatches, 1)
		}
		atomic.AddInt64(consumed, 1)
	}
	wg.Wait()
}

func runMPMC(capacity, numItems, numProducers, numConsumers int, verify bool, consumed, mismatches *int64) {
	q := aqueue.NewMPMCAny(capacity, numProducers, numConsumers)

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
			rng := rand.New(rand.NewPCG(uint64(i)+1, 0x9e3779b97f4a7c15))
			var b aqueue.Backoff
			for n := 0; n < itemsForProducer(numItems, numProducers, i); n++ {
				rec := makeRecord(rng)
				for q.TryPush(p, rec) != nil {
					b.Once()
				}
				b.Reset()
			}
		}(i)
	}

	var consumers sync.WaitGroup
	for i := 0; i < numConsumers; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			c, err := q.RegisterConsumer()
			if err != nil {
				panic(err)
			}
			defer c.Release()
			dst := make([]byte, maxRecordBody+hashTrailerSize)
			var b aqueue.Backoff
			for atomic.LoadInt64(consumed) < int64(numItems) {
				w, _, err := q.TryPop(c, dst)
				if err != nil {
					b.Once()
					continue
				}
				b.Reset()
				if verify && !verifyRecord(dst[:w]) {
					atomic.AddInt64(mismatches, 1)
				}
				atomic.AddInt64(consumed, 1)
			}
		}()
	}

	producers.Wait()
	consumers.Wait()
}

func runMPSCPC(capacity, numItems, numProducers int, verify bool, consumed, mismatches *int64) {
	numShards := numProducers
	if numShards < 1 {
		numShards = 1
	}
	q := aqueue.NewMPSCPC(capacity, numShards)

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := q.RegisterProducer()
			defer p.Release()
			rng := rand.New(rand.NewPCG(uint64(i)+1, 0x9e3779b97f4a7c15))
			var b aqueue.Backoff
			for n := 0; n < itemsForProducer(numItems, numProducers, i); n++ {
				rec := makeRecord(rng)
				for q.TryPush(p, rec) != nil {
					b.Once()
				}
				b.Reset()
			}
		}(i)
	}

	dst := make([]byte, maxRecordBody+hashTrailerSize)
	var b aqueue.Backoff
	for atomic.LoadInt64(consumed) < int64(numItems) {
		w, _, err := q.TryPop(dst)
		if err != nil {
			b.Once()
			continue
		}
		b.Reset()
		if verify && !verifyRecord(dst[:w]) {
			atomic.AddInt64(mismatches, 1)
		}
		atomic.AddInt64(consumed, 1)
	}
	wg.Wait()
}
