// Package tty provides the terminal-state save/restore the scheduler's
// BLOCKER semaphore uses around any task that needs exclusive control of
// the terminal (§4.3, §5), e.g. an interactive $EDITOR invocation.
package tty

import (
	"os"

	"golang.org/x/term"
)

// Suspend captures the controlling terminal's current state and returns a
// restore func that puts that state back; it does not itself change the
// terminal mode. The restore func must run once the exclusive-TTY task
// completes, panic or not — the caller is expected to defer it
// immediately. When stdin is not a terminal, restore does nothing.
func Suspend() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.GetState(fd)
	if err != nil {
		return func() {}, err
	}
	// The mode is left as it is; a raw-mode UI layer (out of scope, §1)
	// calls term.MakeRaw itself and relies on this restore to undo
	// whatever the exclusive task changed.
	return func() {
		_ = term.Restore(fd, state)
	}, nil
}
