package grid

import (
	"math/rand"
	"sync"
	"testing"
	"time"
)

func newTestGrid(t *testing.T, backend Backend) *Grid {
	t.Helper()
	g, err := NewGrid(BBox{XMax: 1, YMax: 1, ZMax: 1}, 4, backend, t.Name())
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

// S1: two workers contend for a single cell; the loser succeeds only
// after the winner releases.
func TestScenarioS1SingleCellContention(t *testing.T) {
	for _, b := range allBackends() {
		t.Run(b.String(), func(t *testing.T) {
			g := newTestGrid(t, b)
			a := g.NewWorker()
			bw := g.NewWorker()

			p := Vec3{0.1, 0.1, 0.1}

			if !g.TryLock(a, p, 0, true) {
				t.Fatal("A should acquire cell 0")
			}
			if g.TryLock(bw, p, 0, true) {
				t.Fatal("B should fail while A holds the cell")
			}

			g.Unlock(a, g.IndexOf(p))

			if !g.TryLock(bw, p, 0, true) {
				t.Fatal("B should acquire after A releases")
			}
		})
	}
}

// S2: region acquisition of a 3x3x3 neighborhood blocks a competing
// single-cell lock inside that neighborhood until the region is
// released.
func TestScenarioS2RegionBlocksSingleCell(t *testing.T) {
	for _, b := range allBackends() {
		t.Run(b.String(), func(t *testing.T) {
			g := newTestGrid(t, b)
			a := g.NewWorker()
			bw := g.NewWorker()

			if !g.TryLockCoords(a, 1, 1, 1, 1, true) {
				t.Fatal("A should acquire the full 3x3x3 neighborhood")
			}

			p := Vec3{0.3, 0.3, 0.3} // maps to cell (1,1,1)
			if g.TryLock(bw, p, 0, true) {
				t.Fatal("B should fail: cell (1,1,1) is owned by A")
			}

			g.UnlockAll(a)

			if !g.TryLock(bw, p, 0, true) {
				t.Fatal("B should acquire after A releases everything")
			}
		})
	}
}

// S3: an out-of-bounds point clamps to the nearest boundary cell.
func TestScenarioS3OutOfBoundsClamp(t *testing.T) {
	g := newTestGrid(t, NonBlocking)
	w := g.NewWorker()

	p := Vec3{-5, 0.5, 0.5}
	if got, want := g.IndexOf(p), 40; got != want {
		t.Fatalf("IndexOf = %d, want %d", got, want)
	}
	if !g.TryLock(w, p, 0, true) {
		t.Fatal("expected clamp-and-lock to succeed")
	}
}

// S4: locking three cells individually then releasing all-but-one
// leaves exactly the kept cell owned and held.
func TestScenarioS4UnlockAllButOne(t *testing.T) {
	g := newTestGrid(t, NonBlocking)
	w := g.NewWorker()

	for _, cell := range []int{0, 1, 2} {
		if !g.TryLockCell(w, cell, 0, true) {
			t.Fatalf("failed to lock cell %d", cell)
		}
	}

	g.UnlockAllButOne(w, 1)

	if !g.IsCellLockedByWorker(w, 1) {
		t.Fatal("cell 1 should remain owned")
	}
	if g.IsCellLockedByWorker(w, 0) || g.IsCellLockedByWorker(w, 2) {
		t.Fatal("cells 0 and 2 should be released")
	}
	if g.table.probe(0) || g.table.probe(2) {
		t.Fatal("cells 0 and 2 should be free in the shared table")
	}
	if len(w.held) != 1 || w.held[0] != 1 {
		t.Fatalf("held = %v, want [1]", w.held)
	}
}

// S6: region rollback on partial failure leaves the worker's shadow
// table untouched and releases only the cells it newly acquired.
func TestScenarioS6RegionRollback(t *testing.T) {
	for _, b := range allBackends() {
		t.Run(b.String(), func(t *testing.T) {
			g := newTestGrid(t, b)
			a := g.NewWorker()
			bw := g.NewWorker()

			if !g.TryLockCell(a, 5, 0, true) {
				t.Fatal("A should lock cell 5")
			}

			// B's radius-1 region around cell 5 (in a 4x4x4 grid, cell 5
			// is (1,1,0)) includes cell 5 among its neighbors and must
			// fail and roll back entirely.
			ix, iy, iz := g.desc.decompose(5)
			if g.TryLockCoords(bw, ix, iy, iz, 1, true) {
				t.Fatal("B's region should fail: cell 5 is held by A")
			}

			if !g.AllWorkerCellsUnlocked(bw) {
				t.Fatal("B should own nothing after a failed region lock")
			}
			if len(bw.held) != 0 {
				t.Fatalf("B's held list should be empty after rollback, got %v", bw.held)
			}
			if !g.IsCellLockedByWorker(a, 5) {
				t.Fatal("A must still own cell 5 after B's failed region attempt")
			}
		})
	}
}

// Re-entrance: a second try-lock of an already-owned cell succeeds
// without touching the shared table.
func TestReentrance(t *testing.T) {
	g := newTestGrid(t, NonBlocking)
	w := g.NewWorker()

	if !g.TryLockCell(w, 3, 0, true) {
		t.Fatal("first lock should succeed")
	}
	if !g.TryLockCell(w, 3, 0, true) {
		t.Fatal("re-entrant lock should succeed")
	}
	if len(w.held) != 1 {
		t.Fatalf("re-entrant lock should not grow held, got %v", w.held)
	}
}

// UnlockAll is idempotent.
func TestUnlockAllIdempotent(t *testing.T) {
	g := newTestGrid(t, NonBlocking)
	w := g.NewWorker()

	g.TryLockCell(w, 1, 0, true)
	g.TryLockCell(w, 2, 0, true)

	g.UnlockAll(w)
	if !g.AllWorkerCellsUnlocked(w) || len(w.held) != 0 {
		t.Fatal("expected all cells released and held empty")
	}

	g.UnlockAll(w) // no-op, must not panic or misbehave
	if !g.AllWorkerCellsUnlocked(w) || len(w.held) != 0 {
		t.Fatal("second UnlockAll should remain a no-op")
	}
}

// Held-list duplicates (the same cell released with Unlock and then
// acquired again, so it appears twice in held) must not cause a
// double-release.
func TestHeldListDuplicatesTolerated(t *testing.T) {
	g := newTestGrid(t, NonBlocking)
	w := g.NewWorker()

	if !g.TryLockCoords(w, 1, 1, 1, 1, true) {
		t.Fatal("first region should succeed")
	}
	g.Unlock(w, g.desc.flatIndex(1, 1, 1))
	if !g.TryLockCoords(w, 1, 1, 1, 0, true) {
		t.Fatal("re-locking the released center cell should succeed")
	}

	g.UnlockAll(w)
	if !g.AllWorkerCellsUnlocked(w) {
		t.Fatal("expected all cells released")
	}
	if !g.AllCellsUnlocked() {
		t.Fatal("expected shared table fully free")
	}
}

// The worker registry tracks live workers for diagnostics (cmd/serve's
// /workers endpoint) independently of each worker's shadow table.
func TestWorkerRegistry(t *testing.T) {
	g := newTestGrid(t, NonBlocking)

	if g.WorkerCount() != 0 {
		t.Fatalf("WorkerCount = %d, want 0", g.WorkerCount())
	}

	a := g.NewWorker()
	b := g.NewWorker()

	if g.WorkerCount() != 2 {
		t.Fatalf("WorkerCount = %d, want 2", g.WorkerCount())
	}

	tokens := g.WorkerTokens()
	if len(tokens) != 2 {
		t.Fatalf("WorkerTokens = %v, want 2 entries", tokens)
	}
	seen := map[uint64]bool{a.Token(): false, b.Token(): false}
	for _, tok := range tokens {
		if _, ok := seen[tok]; !ok {
			t.Fatalf("unexpected token %d in registry", tok)
		}
		seen[tok] = true
	}
	for tok, ok := range seen {
		if !ok {
			t.Fatalf("token %d missing from WorkerTokens", tok)
		}
	}

	g.Forget(a)
	if g.WorkerCount() != 1 {
		t.Fatalf("WorkerCount after Forget = %d, want 1", g.WorkerCount())
	}
	if g.WorkerTokens()[0] != b.Token() {
		t.Fatalf("remaining token = %d, want %d", g.WorkerTokens()[0], b.Token())
	}
}

// Exclusivity + no-deadlock stress test: many goroutines repeatedly
// acquire random radius-1 regions on a small grid and release them.
// Must terminate with every cell free and no two workers ever observing
// the same cell owned simultaneously.
func TestStressNoDeadlockExclusivity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	for _, b := range allBackends() {
		t.Run(b.String(), func(t *testing.T) {
			g := newTestGrid(t, b)

			const (
				numWorkers   = 32
				numRounds    = 200
				cellsPerAxis = 4
			)

			var owner [64]atomicInt // total = 4^3 = 64
			for i := range owner {
				owner[i].set(-1)
			}
			var wg sync.WaitGroup

			for i := 0; i < numWorkers; i++ {
				wg.Add(1)
				go func(workerID int) {
					defer wg.Done()
					w := g.NewWorker()
					rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

					for round := 0; round < numRounds; round++ {
						ix := rng.Intn(cellsPerAxis)
						iy := rng.Intn(cellsPerAxis)
						iz := rng.Intn(cellsPerAxis)

						if !g.TryLockCoords(w, ix, iy, iz, 1, true) {
							continue
						}

						n := g.desc.n
						lo := func(c int) int { return max(0, c-1) }
						hi := func(c int) int { return min(n-1, c+1) }
						for i := lo(ix); i <= hi(ix); i++ {
							for j := lo(iy); j <= hi(iy); j++ {
								for k := lo(iz); k <= hi(iz); k++ {
									cell := g.desc.flatIndex(i, j, k)
									if !owner[cell].compareAndSwap(-1, workerID) {
										t.Errorf("exclusivity violated at cell %d", cell)
									}
								}
							}
						}

						for i := lo(ix); i <= hi(ix); i++ {
							for j := lo(iy); j <= hi(iy); j++ {
								for k := lo(iz); k <= hi(iz); k++ {
									cell := g.desc.flatIndex(i, j, k)
									owner[cell].compareAndSwap(workerID, -1)
								}
							}
						}

						g.UnlockAll(w)
					}
				}(i)
			}

			wg.Wait()

			if !g.AllCellsUnlocked() {
				t.Fatal("expected every cell free once all workers finished")
			}
		})
	}
}
