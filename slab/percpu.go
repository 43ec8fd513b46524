package slab

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// PerCPU composes one independent Cache per processor. Allocations dispatch
// to the engine of the processor executing the call, so engines contend only
// when goroutines migrate mid-operation or free objects allocated elsewhere;
// a freed entry always returns to the slab that produced it, whichever
// engine owns that slab.
type PerCPU[T any] struct {
	shards []pshard[T]
}

// pshard pads each engine to its own cache line so neighboring engines'
// locks do not false-share.
type pshard[T any] struct {
	cache *Cache[T]
	_     cpu.CacheLinePad
}

// NewPerCPU builds one engine per processor, each with the same config.
// Processor count is discovered once, at construction.
func NewPerCPU[T any](src BlockSource, cfg *Config) *PerCPU[T] {
	return newPerCPU[T](runtime.GOMAXPROCS(0), src, cfg)
}

func newPerCPU[T any](n int, src BlockSource, cfg *Config) *PerCPU[T] {
	if n < 1 {
		n = 1
	}
	p := &PerCPU[T]{shards: make([]pshard[T], n)}
	for i := range p.shards {
		p.shards[i].cache = New[T](src, cfg)
	}
	return p
}

// Allocate dispatches to the current processor's engine. The goroutine is
// pinned to its processor only around the index lookup; it cannot stay pinned
// across the engine call, which may block on a contended lock.
func (p *PerCPU[T]) Allocate(init func(*T)) (*Ref[T], error) {
	pid := runtime_procPin()
	runtime_procUnpin()
	return p.shards[pid%len(p.shards)].cache.Allocate(init)
}

// Close tears down every engine. Each runs its own orphan protocol, so
// outstanding objects from any shard remain freeable afterwards.
func (p *PerCPU[T]) Close() {
	for i := range p.shards {
		p.shards[i].cache.Close()
	}
}

// Shards returns the number of per-processor engines.
func (p *PerCPU[T]) Shards() int { return len(p.shards) }

// Stats returns counters summed across all engines.
func (p *PerCPU[T]) Stats() Stats {
	var total Stats
	for i := range p.shards {
		total = total.add(p.shards[i].cache.Stats())
	}
	return total
}
