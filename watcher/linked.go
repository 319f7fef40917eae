package watcher

import (
	"path/filepath"
	"sync"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/vfsurl"
)

// Linked tracks the symlink-equivalence graph of §4.6: for every watched
// path whose canonical form differs and is itself watched, an edge
// from -> to is recorded, so a FilesOp observed on one side of a mirrored
// directory can be rebased onto every other side.
type Linked struct {
	mu          sync.RWMutex
	toCanonical map[string]string
}

func newLinked() *Linked {
	return &Linked{toCanonical: map[string]string{}}
}

// recompute rebuilds the graph from the current watched set, the way
// Watch's reconciliation calls it after every diff.
func (l *Linked) recompute(watched []string) {
	watchedSet := make(map[string]struct{}, len(watched))
	for _, p := range watched {
		watchedSet[p] = struct{}{}
	}

	canon := make(map[string]string)
	for _, p := range watched {
		target, err := filepath.EvalSymlinks(p)
		if err != nil || target == p {
			continue
		}
		if _, ok := watchedSet[target]; ok {
			canon[p] = target
		}
	}

	l.mu.Lock()
	l.toCanonical = canon
	l.mu.Unlock()
}

// rebase returns a copy of op for every other watched path recorded as
// linking to the same canonical target as op.Cwd (op.Cwd may itself be
// that target), so mirrored directories stay coherent (§4.6). The
// canonical target itself never receives a copy.
func (l *Linked) rebase(op cha.FilesOp) []cha.FilesOp {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.toCanonical) == 0 {
		return nil
	}

	cwdPath := op.Cwd.Path()
	target, ok := l.toCanonical[cwdPath]
	if !ok {
		target = cwdPath
	}

	var out []cha.FilesOp
	for from, to := range l.toCanonical {
		if to != target || from == cwdPath {
			continue
		}
		u, err := vfsurl.Parse(from)
		if err != nil {
			continue
		}
		rebased := op
		rebased.Cwd = u
		out = append(out, rebased)
	}
	return out
}
