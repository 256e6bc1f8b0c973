// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package aqueue

// Options configures queue creation and flavor selection.
type Options struct {
	capacity     int
	maxProducers int
	maxConsumers int
	numShards    int
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// MPSC queue, up to 8 concurrent producers
//	q := aqueue.BuildMPSC[Event](aqueue.NewBuilder(4096).Producers(8))
//
//	// MPMC queue, up to 8 producers and 4 consumers
//	q := aqueue.BuildMPMC[Event](aqueue.NewBuilder(4096).Producers(8).Consumers(4))
//
//	// Per-CPU sharded MPSC, 16 shards of 64KiB each
//	q := aqueue.NewBuilder(64*1024).Shards(16).BuildMPSCPC()
type Builder struct {
	opts Options
}

// NewBuilder creates a queue builder with the given capacity. The typed
// flavors (BuildSPSC, BuildMPSC, BuildMPMC) round their ring's slot count
// up to the next power of 2; the Any flavors and BuildMPSCPC use capacity
// as an exact byte count. Panics if capacity < 2.
func NewBuilder(capacity int) *Builder {
	if capacity < 2 {
		panic("aqueue: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity, maxProducers: 1, maxConsumers: 1, numShards: 1}}
}

// Producers sets the maximum number of concurrently registered producer
// participants. The default is 1; BuildSPSC and BuildSPSCAny panic
// unless it is still 1.
func (b *Builder) Producers(n int) *Builder {
	b.opts.maxProducers = n
	return b
}

// Consumers sets the maximum number of concurrently registered consumer
// participants. The default is 1; BuildSPSC, BuildSPSCAny, BuildMPSC and
// BuildMPSCAny panic unless it is still 1.
func (b *Builder) Consumers(n int) *Builder {
	b.opts.maxConsumers = n
	return b
}

// Shards sets the number of per-CPU shards for BuildMPSCPC.
func (b *Builder) Shards(n int) *Builder {
	b.opts.numShards = n
	return b
}

// BuildSPSC creates a [SPSC] queue. Panics unless the builder is left at
// its default Producers(1).Consumers(1).
func BuildSPSC[T any](b *Builder) *SPSC[T] {
	if b.opts.maxProducers != 1 || b.opts.maxConsumers != 1 {
		panic("aqueue: BuildSPSC requires the default single producer and single consumer")
	}
	return NewSPSC[T](b.opts.capacity)
}

// BuildMPSC creates a [MPSC] queue. Panics if Consumers() was set above 1.
func BuildMPSC[T any](b *Builder) *MPSC[T] {
	if b.opts.maxConsumers != 1 {
		panic("aqueue: BuildMPSC requires a single consumer")
	}
	return NewMPSC[T](b.opts.capacity, b.opts.maxProducers)
}

// BuildMPMC creates a [MPMC] queue.
func BuildMPMC[T any](b *Builder) *MPMC[T] {
	return NewMPMC[T](b.opts.capacity, b.opts.maxProducers, b.opts.maxConsumers)
}

// BuildSPSCAny creates a [SPSCAny] queue. Panics unless the builder is
// left at its default Producers(1).Consumers(1).
func (b *Builder) BuildSPSCAny() *SPSCAny {
	if b.opts.maxProducers != 1 || b.opts.maxConsumers != 1 {
		panic("aqueue: BuildSPSCAny requires the default single producer and single consumer")
	}
	return NewSPSCAny(b.opts.capacity)
}

// BuildMPSCAny creates a [MPSCAny] queue. Panics if Consumers() was set
// above 1.
func (b *Builder) BuildMPSCAny() *MPSCAny {
	if b.opts.maxConsumers != 1 {
		panic("aqueue: BuildMPSCAny requires a single consumer")
	}
	return NewMPSCAny(b.opts.capacity, b.opts.maxProducers)
}

// BuildMPMCAny creates a [MPMCAny] queue.
func (b *Builder) BuildMPMCAny() *MPMCAny {
	return NewMPMCAny(b.opts.capacity, b.opts.maxProducers, b.opts.maxConsumers)
}

// BuildMPSCPC creates a [MPSCPC] queue with Shards() independent shards
// of capacity bytes each (not the builder's overall capacity rounded as
// a whole — each shard gets the full capacity value, since shards don't
// share space). Defaults to 1 shard if Shards() was never called.
func (b *Builder) BuildMPSCPC() *MPSCPC {
	n := b.opts.numShards
	if n < 1 {
		n = 1
	}
	return NewMPSCPC(b.opts.capacity, n)
}
