// Package manager holds tab-scoped navigation state folded back from
// distilled spec.md: a bounded directory-visit history (Backstack) and
// incremental filename-search state (Finder), both dropped by the
// distillation but present in the original manager/tab implementation.
package manager

import "github.com/dirsail/dirsail/vfsurl"

const (
	backstackCap   = 60 // cleanup threshold
	backstackTrim  = 30 // items kept before the cursor after a trim
)

// Backstack is a bounded undo/redo history of visited directories
// (§3 "additions"): push records a new visit, shift_backward/shift_forward
// move the cursor without mutating the stack.
type Backstack struct {
	cursor int
	stack  []vfsurl.Url
}

// NewBackstack seeds the stack with the current directory.
func NewBackstack(cwd vfsurl.Url) *Backstack {
	return &Backstack{stack: []vfsurl.Url{cwd}}
}

// Current returns the directory the cursor currently points at.
func (b *Backstack) Current() vfsurl.Url { return b.stack[b.cursor] }

// Push records a visit to u. A push equal to the current entry is a no-op
// (repeated cd into the same directory doesn't grow history). Visiting
// from a point behind the head truncates the forward history, the same
// way a browser's back/forward stack behaves.
func (b *Backstack) Push(u vfsurl.Url) {
	if b.stack[b.cursor].Display() == u.Display() {
		return
	}

	b.cursor++
	if b.cursor == len(b.stack) {
		b.stack = append(b.stack, u)
	} else {
		b.stack[b.cursor] = u
		b.stack = b.stack[:b.cursor+1]
	}

	if len(b.stack) > backstackCap {
		start := b.cursor - backstackTrim
		if start < 0 {
			start = 0
		}
		b.stack = append([]vfsurl.Url(nil), b.stack[start:]...)
		b.cursor -= start
	}
}

// ShiftBackward moves the cursor one entry toward the start of history,
// returning the directory now current, or false at the oldest entry.
func (b *Backstack) ShiftBackward() (vfsurl.Url, bool) {
	if b.cursor == 0 {
		return vfsurl.Url{}, false
	}
	b.cursor--
	return b.stack[b.cursor], true
}

// ShiftForward moves the cursor one entry toward the most recent visit,
// returning the directory now current, or false at the newest entry.
func (b *Backstack) ShiftForward() (vfsurl.Url, bool) {
	if b.cursor+1 == len(b.stack) {
		return vfsurl.Url{}, false
	}
	b.cursor++
	return b.stack[b.cursor], true
}
