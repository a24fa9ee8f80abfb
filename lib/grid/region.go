package grid

import "github.com/ValentinKolb/gridlock/internal/gridevents"

// cellTryLock is the single-cell (radius 0) try-lock. It is
// cellTryLockReport without the report, so it shares that function's
// re-entrance fast path (an already-owned cell succeeds without touching
// the shared table) and its recording of successful shared-table
// acquisitions into the worker's shadow table and held list.
func (g *Grid) cellTryLock(w *Worker, cell int, noSpin bool) bool {
	success, _ := g.cellTryLockReport(w, cell, noSpin)
	return success
}

// cellTryLockReport is cellTryLock plus a report of whether this call
// actually went through the shared table (as opposed to the re-entrance
// fast path). Region acquisition needs this distinction: only
// newly-acquired cells are eligible for rollback, so a failed region
// call never releases cells the worker already owned before the call.
func (g *Grid) cellTryLockReport(w *Worker, cell int, noSpin bool) (success, newlyAcquired bool) {
	if w.owned[cell] {
		return true, false
	}

	if !g.table.tryAcquire(cell, w.token, noSpin) {
		g.metrics.contended.Inc()
		return false, false
	}

	w.owned[cell] = true
	w.held = append(w.held, cell)
	g.emit(cell, w.token, gridevents.Acquired)
	return true, true
}

// cellUnlock releases the shared slot, then clears shadow-table
// ownership. Order matters only for the observer-ordering note in the
// spec; callers never rely on the ordering themselves.
func (g *Grid) cellUnlock(w *Worker, cell int) {
	g.table.release(cell)
	w.owned[cell] = false
	g.emit(cell, w.token, gridevents.Released)
}

// tryLockRegion acquires every cell in the axis-aligned cube of radius
// r centered at (ix, iy, iz), clipped to the grid, in mandatory
// lexicographic (i, j, k) order. On the first failure it rolls back
// every cell it acquired during this call and returns false, leaving
// the worker's shadow table and held list exactly as they were before
// the call.
func (g *Grid) tryLockRegion(w *Worker, ix, iy, iz, r int, noSpin bool) bool {
	if r == 0 {
		return g.cellTryLock(w, g.desc.flatIndex(ix, iy, iz), noSpin)
	}

	n := g.desc.n
	iMin, iMax := clampRegion(ix, r, n)
	jMin, jMax := clampRegion(iy, r, n)
	kMin, kMax := clampRegion(iz, r, n)

	acquired := make([]int, 0, (iMax-iMin+1)*(jMax-jMin+1)*(kMax-kMin+1))

	for i := iMin; i <= iMax; i++ {
		for j := jMin; j <= jMax; j++ {
			for k := kMin; k <= kMax; k++ {
				cell := g.desc.flatIndex(i, j, k)
				success, newlyAcquired := g.cellTryLockReport(w, cell, noSpin)
				if success {
					if newlyAcquired {
						acquired = append(acquired, cell)
					}
					continue
				}

				for _, c := range acquired {
					g.cellUnlock(w, c)
				}
				// Each newly acquired cell was appended to held exactly once
				// during this call, so they are its last len(acquired) entries.
				w.held = w.held[:len(w.held)-len(acquired)]
				g.emit(g.desc.flatIndex(ix, iy, iz), w.token, gridevents.RegionRolledBack)
				return false
			}
		}
	}

	return true
}

func clampRegion(center, r, n int) (lo, hi int) {
	lo = max(0, center-r)
	hi = min(n-1, center+r)
	return
}
