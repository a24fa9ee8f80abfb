package grid

// Worker is a participant's shadow state: which cells it currently
// owns, and the ordered list of cells it has acquired since its last
// bulk release. A Worker must only ever be used by the goroutine that
// created it - it is the explicit stand-in for the "calling thread"
// in the reference design's thread-local storage.
//
// Obtain one with Grid.NewWorker and reuse it for the lifetime of the
// goroutine (or task) it represents.
type Worker struct {
	token uint64
	owned []bool
	held  []int
}

func newWorker(total int, token uint64) *Worker {
	return &Worker{
		token: token,
		owned: make([]bool, total),
	}
}

// Token returns this worker's token. Every worker gets a unique,
// non-zero token whatever the back-end; it also keys the grid's worker
// registry, but only the PriorityBlocking back-end uses it for priority.
func (w *Worker) Token() uint64 {
	return w.token
}

// isLockedByWorker reports whether this worker currently owns cell.
func (w *Worker) isLockedByWorker(cell int) bool {
	return w.owned[cell]
}

// HeldCount returns the number of cells this worker currently has in
// its held list (including duplicate entries for a cell released with
// Unlock and later acquired again; see UnlockAll). Intended for
// diagnostics.
func (w *Worker) HeldCount() int {
	return len(w.held)
}

// allCellsUnlocked scans this worker's shadow table.
func (w *Worker) allCellsUnlocked() bool {
	for _, locked := range w.owned {
		if locked {
			return false
		}
	}
	return true
}
