package preview

import (
	"context"
	"sync"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/task"
)

// SpotFunc renders the interactive table a spot-mode preview presents
// (e.g. rows of a spreadsheet sheet, an archive's member list).
type SpotFunc func(ctx context.Context, f cha.File, skip int) ([]string, error)

// SpotLock is the live state of a two-way interactive preview: the
// rendered rows plus a mutable cursor position a consumer can move
// without re-running the plugin (§4.5).
type SpotLock struct {
	mu       sync.Mutex
	Url      string
	Rows     []string
	selected int
	hasSel   bool
}

// Select sets the cursor to row i, clamped to the row count.
func (l *SpotLock) Select(i int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Rows) == 0 {
		l.hasSel = false
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(l.Rows) {
		i = len(l.Rows) - 1
	}
	l.selected = i
	l.hasSel = true
}

// Move shifts the cursor by delta rows relative to its current position.
func (l *SpotLock) Move(delta int) {
	l.mu.Lock()
	cur := l.selected
	has := l.hasSel
	l.mu.Unlock()
	if !has {
		cur = 0
	}
	l.Select(cur + delta)
}

// Selected returns the currently selected row index and whether any row
// is selected (the Go rendering of Option<usize>).
func (l *SpotLock) Selected() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected, l.hasSel
}

// Clear deselects the cursor without discarding the rendered rows.
func (l *SpotLock) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasSel = false
}

// Spot manages the lifecycle of spot-mode previews: one SpotLock per
// file currently in spot mode, rendered once by a scheduler task and then
// mutated in place by cursor events without resubmitting work.
type Spot struct {
	Sched *scheduler.Scheduler

	mu    sync.Mutex
	locks map[string]*SpotLock
}

// NewSpot constructs an empty Spot bound to sched.
func NewSpot(sched *scheduler.Scheduler) *Spot {
	return &Spot{Sched: sched, locks: map[string]*SpotLock{}}
}

// Begin submits fn at NORMAL priority to render f's table and installs
// the resulting SpotLock, replacing any prior lock for the same file.
func (sp *Spot) Begin(f cha.File, skip int, fn SpotFunc) (*SpotLock, *task.Task) {
	key := f.Url.Display()
	lock := &SpotLock{Url: key}

	sp.mu.Lock()
	sp.locks[key] = lock
	sp.mu.Unlock()

	t := sp.Sched.Submit(scheduler.WorkerPlugin, scheduler.Normal, task.KindPreview, func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(1)
		rows, err := fn(ctx, f, skip)
		if err != nil {
			out <- task.Log("spot: " + key + ": " + err.Error())
			out <- task.Fail(err)
			return
		}
		lock.mu.Lock()
		lock.Rows = rows
		lock.mu.Unlock()
		out <- task.Succ()
	})
	return lock, t
}

// Lock returns the active SpotLock for f, if spot mode is running.
func (sp *Spot) Lock(f cha.File) (*SpotLock, bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	l, ok := sp.locks[f.Url.Display()]
	return l, ok
}

// End exits spot mode for f, discarding its lock.
func (sp *Spot) End(f cha.File) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	delete(sp.locks, f.Url.Display())
}
