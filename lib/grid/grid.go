package grid

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/gridlock/internal/gridevents"
)

// Grid is a spatial grid lock over a bounding box, partitioned into
// N cells per axis. A Grid is safe for concurrent use by any number of
// goroutines, each holding its own Worker handle obtained via NewWorker.
type Grid struct {
	desc    descriptor
	table   lockTable
	backend Backend
	tokens  tokenRegistry

	// workers tracks every live Worker by priority token, so diagnostic
	// and serving code (see cmd/serve) can enumerate participants
	// without every caller having to thread Worker handles through.
	workers *xsync.MapOf[uint64, *Worker]

	events  *gridevents.Stream
	metrics *metricsRecorder
}

// NewGrid constructs a Grid over bbox, partitioned into n cells per
// axis, using the given back-end. Returns an error if bbox is degenerate
// or n < 1. The name is used only to label this grid's metrics series
// and may be empty.
func NewGrid(bbox BBox, n int, backend Backend, name string) (*Grid, error) {
	desc, err := newDescriptor(bbox, n)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	g := &Grid{
		desc:    desc,
		table:   newLockTable(backend, desc.total),
		backend: backend,
		workers: xsync.NewMapOf[uint64, *Worker](),
		events:  gridevents.NewStream(),
		metrics: newMetricsRecorder(name),
	}
	go g.metrics.consume(g.events)

	return g, nil
}

func (g *Grid) emit(cell int, token uint64, kind gridevents.Kind) {
	g.events.Push(&gridevents.Event{Cell: cell, Token: token, Kind: kind})
}

// Close stops this grid's metrics consumer. A Grid is otherwise
// reclaimed by the Go garbage collector like any other value; Close
// only needs to be called to stop the background event consumer.
func (g *Grid) Close() {
	g.events.Close()
}

// N returns the number of cells per axis.
func (g *Grid) N() int { return g.desc.n }

// Total returns the total number of cells (N³).
func (g *Grid) Total() int { return g.desc.total }

// Backend returns the back-end this grid was constructed with.
func (g *Grid) Backend() Backend { return g.backend }

// NewWorker allocates a new Worker handle: an all-false shadow table
// and a fresh unique token (used as a priority by the priority-blocking
// back-end, and as the worker's registry key for every back-end). Call once per participating goroutine and reuse the handle for
// every subsequent operation from that goroutine.
func (g *Grid) NewWorker() *Worker {
	w := newWorker(g.desc.total, g.tokens.next())
	g.workers.Store(w.token, w)
	return w
}

// Forget removes w from this grid's worker registry. It does not
// release any cells w holds; call UnlockAll first if that is wanted.
// Intended for long-running processes that create and discard many
// short-lived workers (e.g. one per request).
func (g *Grid) Forget(w *Worker) {
	g.workers.Delete(w.token)
}

// WorkerCount returns the number of workers currently registered with
// this grid.
func (g *Grid) WorkerCount() int {
	return g.workers.Size()
}

// WorkerTokens returns the priority tokens of every currently
// registered worker, in no particular order.
func (g *Grid) WorkerTokens() []uint64 {
	tokens := make([]uint64, 0, g.workers.Size())
	g.workers.Range(func(token uint64, _ *Worker) bool {
		tokens = append(tokens, token)
		return true
	})
	return tokens
}

// WorkerInfo is a diagnostic snapshot of one registered worker.
type WorkerInfo struct {
	Token     uint64 `json:"token"`
	HeldCells int    `json:"held_cells"`
}

// WorkerSnapshot returns a diagnostic snapshot - token and held-cell
// count - of every currently registered worker, in no particular
// order. Intended for diagnostics (see cmd/serve's /workers endpoint).
func (g *Grid) WorkerSnapshot() []WorkerInfo {
	infos := make([]WorkerInfo, 0, g.workers.Size())
	g.workers.Range(func(token uint64, w *Worker) bool {
		infos = append(infos, WorkerInfo{Token: token, HeldCells: w.HeldCount()})
		return true
	})
	return infos
}

// IndexOf returns the flat cell index a point maps to, clamping
// out-of-bounds coordinates to the nearest boundary cell.
func (g *Grid) IndexOf(p Point) int {
	return g.desc.indexOf(p)
}

// TryLock attempts to acquire the cube of radius r centered on the cell
// containing p. r == 0 locks only that single cell.
func (g *Grid) TryLock(w *Worker, p Point, r int, noSpin bool) bool {
	ix, iy, iz := g.desc.coordsOf(p)
	return g.tryLockRegion(w, ix, iy, iz, r, noSpin)
}

// TryLockCell attempts to acquire the cube of radius r centered on
// cell. r == 0 locks only that single cell.
func (g *Grid) TryLockCell(w *Worker, cell int, r int, noSpin bool) bool {
	ix, iy, iz := g.desc.decompose(cell)
	return g.tryLockRegion(w, ix, iy, iz, r, noSpin)
}

// TryLockCoords attempts to acquire the cube of radius r centered on
// (ix, iy, iz). r == 0 locks only that single cell. Unlike TryLock and
// TryLockCell it performs no point or flat-index mapping; all three
// dispatch to the same region acquisition routine.
func (g *Grid) TryLockCoords(w *Worker, ix, iy, iz, r int, noSpin bool) bool {
	return g.tryLockRegion(w, ix, iy, iz, r, noSpin)
}

// IsLocked reports whether the cell containing p is currently held by
// any worker. Advisory only under concurrent activity (not
// linearizable) for the Mutex back-end; see backend_mutex.go.
func (g *Grid) IsLocked(p Point) bool {
	return g.table.probe(g.desc.indexOf(p))
}

// IsLockedByWorker reports whether w currently owns the cell containing
// p.
func (g *Grid) IsLockedByWorker(w *Worker, p Point) bool {
	return w.isLockedByWorker(g.desc.indexOf(p))
}

// IsCellLockedByWorker reports whether w currently owns cell.
func (g *Grid) IsCellLockedByWorker(w *Worker, cell int) bool {
	return w.isLockedByWorker(cell)
}

// Unlock releases a single cell: the shared slot is released first,
// then the worker's shadow-table entry is cleared.
func (g *Grid) Unlock(w *Worker, cell int) {
	g.cellUnlock(w, cell)
}

// UnlockAll releases every cell w currently holds, walking w's held
// list in order. Duplicate entries in held (a cell released with Unlock
// and later acquired again) are tolerated: a cell already released by
// an earlier entry is silently skipped. held is empty after this call.
func (g *Grid) UnlockAll(w *Worker) {
	for _, cell := range w.held {
		if w.owned[cell] {
			g.cellUnlock(w, cell)
		}
	}
	w.held = w.held[:0]
}

// UnlockAllButOne releases every cell w currently holds except keep,
// which is left exactly as it was. held ends up containing only keep
// if w still owned it on entry, or empty otherwise.
func (g *Grid) UnlockAllButOne(w *Worker, keep int) {
	keepFound := false

	for _, cell := range w.held {
		if !w.owned[cell] {
			continue
		}
		if cell == keep {
			keepFound = true
			continue
		}
		g.cellUnlock(w, cell)
	}

	w.held = w.held[:0]
	if keepFound {
		w.held = append(w.held, keep)
	}
}

// UnlockAllButOnePoint is UnlockAllButOne(w, IndexOf(p)).
func (g *Grid) UnlockAllButOnePoint(w *Worker, p Point) {
	g.UnlockAllButOne(w, g.desc.indexOf(p))
}

// AllCellsUnlocked scans the shared lock table. Advisory only: not
// linearizable under concurrent activity. Intended for tests and
// asserts.
func (g *Grid) AllCellsUnlocked() bool {
	for i := 0; i < g.desc.total; i++ {
		if g.table.probe(i) {
			return false
		}
	}
	return true
}

// AllWorkerCellsUnlocked scans w's shadow table. Intended for tests and
// asserts, called on the goroutine that owns w.
func (g *Grid) AllWorkerCellsUnlocked(w *Worker) bool {
	return w.allCellsUnlocked()
}
