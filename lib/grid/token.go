package grid

import "sync/atomic"

// tokenRegistry hands out unique, non-zero, monotonically increasing
// priority tokens. Lower tokens are more prioritary. Tokens are unique
// for the lifetime of the Grid that owns the registry, not globally.
type tokenRegistry struct {
	lastID atomic.Uint64
}

// next atomically derives the next priority token. Zero is reserved to
// mean "free" by the priority-blocking back-end, so the counter is
// incremented before use and never wraps back to zero.
func (r *tokenRegistry) next() uint64 {
	id := r.lastID.Add(1)
	return 1 + (id % ^uint64(0))
}
