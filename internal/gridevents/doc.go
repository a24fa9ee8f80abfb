// Package gridevents provides a lock-free, unbounded, multi-producer
// single-consumer queue of lock lifecycle events.
//
// Every successful acquire, every release, and every rolled-back region
// attempt in lib/grid is pushed onto a Stream; a single background
// consumer (the metrics recorder that grid.NewGrid starts) drains
// it and turns events into counters and gauges. Producers never block:
// the queue is a CAS-linked list, the same structure used for
// high-throughput write/delete event fan-out in key-value store shards,
// retargeted here to carry lock Events instead of store mutations.
package gridevents
