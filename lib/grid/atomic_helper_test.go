package grid

import "sync/atomic"

// atomicInt is a tiny test-only helper used by the stress test to track,
// per cell, which worker (if any) currently believes it owns that cell.
// -1 means free.
type atomicInt struct {
	v atomic.Int32
}

func (a *atomicInt) compareAndSwap(old, new int) bool {
	return a.v.CompareAndSwap(int32(old), int32(new))
}

func (a *atomicInt) set(v int) {
	a.v.Store(int32(v))
}
