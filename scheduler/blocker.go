package scheduler

import (
	"context"

	"github.com/dirsail/dirsail/internal/tty"
)

// WithBlocker acquires the BLOCKER semaphore for the duration of fn,
// capturing the terminal state first and restoring it once fn returns
// (§4.3, §5: only one such task runs at a time).
// Typical callers are Process-worker tasks that hand the TTY to an
// interactive subprocess (e.g. $EDITOR).
func (s *Scheduler) WithBlocker(ctx context.Context, fn func() error) error {
	if err := s.Blocker.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.Blocker.Release(1)

	restore, err := tty.Suspend()
	if err != nil {
		return err
	}
	defer restore()

	return fn()
}
