package cha

import (
	"sync"
	"sync/atomic"

	"github.com/dirsail/dirsail/vfsurl"
)

// FilesOpKind tags the FilesOp union.
type FilesOpKind uint8

const (
	OpFull FilesOpKind = iota
	OpPart
	OpDone
	OpSize
	OpIOErr
	OpCreating
	OpDeleting
	OpUpdating
	OpUpserting
)

// FilesOp is a directory-scoped mutation record (§3). Only the fields
// relevant to Kind are populated; this mirrors the Rust tagged union as a
// single flat struct, the idiomatic Go rendering of a closed sum type with
// this few variants (avoids an interface + type switch for every
// consumer).
type FilesOp struct {
	Kind FilesOpKind
	Cwd  vfsurl.Url

	// Full
	Files []File
	Cha   Cha

	// Part/Done
	Ticket uint64

	// Size
	Sizes map[string]uint64

	// IOErr
	Err error

	// Creating/Deleting/Updating/Upserting
	ByUrn map[string]File
	Urns  map[string]struct{}
}

// tickets hands out monotonically increasing per-cwd tokens so that an
// earlier in-flight streaming listing can be recognized as stale and
// discarded when the user cd's away and back (§3, §8).
type tickets struct {
	mu     sync.Mutex
	latest map[string]uint64
	next   uint64
}

var globalTickets = &tickets{latest: map[string]uint64{}}

// Prepare allocates a new ticket for cwd and records it as the latest; any
// previously issued ticket for this cwd is now stale.
func Prepare(cwd vfsurl.Url) uint64 {
	globalTickets.mu.Lock()
	defer globalTickets.mu.Unlock()
	t := atomic.AddUint64(&globalTickets.next, 1)
	globalTickets.latest[cwd.Display()] = t
	return t
}

// Accepts reports whether ticket is still the latest issued for cwd; a
// Part/Done bearing a stale ticket must be dropped by the consumer (§3, §5,
// §8).
func Accepts(cwd vfsurl.Url, ticket uint64) bool {
	globalTickets.mu.Lock()
	defer globalTickets.mu.Unlock()
	return globalTickets.latest[cwd.Display()] == ticket
}

// Apply folds op into files, honoring the ticket-discard rule for Part/Done
// and otherwise dispatching to the matching Files mutator. It returns false
// when op was discarded (stale ticket), true otherwise.
func Apply(files *Files, op FilesOp) bool {
	switch op.Kind {
	case OpFull:
		files.Replace(op.Files)
	case OpPart:
		if !Accepts(op.Cwd, op.Ticket) {
			return false
		}
		files.Append(op.Files)
	case OpDone:
		if !Accepts(op.Cwd, op.Ticket) {
			return false
		}
		// end-of-stream: no item mutation, callers observe this to stop
		// a loading spinner.
	case OpSize:
		files.SetSizes(op.Sizes)
	case OpCreating, OpUpserting:
		files.Upsert(op.ByUrn)
	case OpDeleting:
		files.Delete(op.Urns)
	case OpUpdating:
		files.Upsert(op.ByUrn)
	case OpIOErr:
		// no mutation; the UI collaborator surfaces op.Err.
	}
	return true
}
