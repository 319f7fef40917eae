// Package task models the scheduler's unit of work: a Task tracks
// aggregate progress for a (possibly fanned-out) operation, carries its
// own cancellation token, and may register a completion hook (§4.3).
//
// Grounded on rclone's fs/accounting Stats/Transfer shape (a mutex-guarded
// aggregator periodically summarizing progress across many in-flight
// transfers) adapted from "one counter for the whole run" to "one Task per
// operation, many children fanning into one".
package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ID identifies a Task across its lifetime.
type ID string

// NewID mints a fresh random task id.
func NewID() ID { return ID(uuid.NewString()) }

// Stage is a Task's lifecycle position.
type Stage int

const (
	StagePending Stage = iota
	StageRunning
	// StageHooked marks a task that reached completion (succ+fail == total)
	// but has a registered hook still pending delivery.
	StageHooked
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageRunning:
		return "running"
	case StageHooked:
		return "hooked"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Kind names the high-level operation a Task performs, used by TaskSummary
// to decide whether to count the task (Preload tasks are excluded by
// default, §4.3). Priority is chosen by the caller of Scheduler.Submit,
// not derived from Kind.
type Kind string

const (
	KindPaste    Kind = "paste"
	KindLink     Kind = "link"
	KindHardlink Kind = "hardlink"
	KindDelete   Kind = "delete"
	KindTrash    Kind = "trash"
	KindPreload  Kind = "preload"
	KindFetch    Kind = "fetch"
	KindPreview  Kind = "preview"
	KindSearch   Kind = "search"
	KindProcess  Kind = "process"
)

// Progress is the counters an aggregator applies Out messages onto.
type Progress struct {
	Total   int64
	Success int64
	Failed  int64
	Bytes   int64
}

// Percent returns the completion percentage in [0, 100], or 0 when Total
// is not yet known.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	done := p.Success + p.Failed
	if done >= p.Total {
		return 100
	}
	return 100 * float64(done) / float64(p.Total)
}

// Hook is a one-shot completion callback (§4.3: "FnOnce(canceled) ->
// Future<()>"). Go has no Future type, so the hook itself performs
// whatever asynchronous work it needs and signals completion by closing
// the returned channel.
type Hook func(canceled bool) <-chan struct{}

// Task is the scheduler's bookkeeping record for one operation, held in
// an Ongoing table.
type Task struct {
	ID      ID
	Kind    Kind
	Stage   Stage
	Prog    Progress
	Started time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Task and its cancellation context, derived from
// parent so cancelling the parent (e.g. process shutdown) cancels every
// running task.
func New(parent context.Context, kind Kind) *Task {
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		ID:      NewID(),
		Kind:    kind,
		Stage:   StagePending,
		Started: time.Now(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context returns the task's cancellation-aware context; workers must
// honor ctx.Done() at every suspension point (§5).
func (t *Task) Context() context.Context { return t.ctx }

// Cancel trips the task's cancellation token. Best-effort: in-flight
// syscalls run to completion before the worker observes cancellation
// (§5).
func (t *Task) Cancel() { t.cancel() }

// Canceled reports whether Cancel has already been called.
func (t *Task) Canceled() bool { return t.ctx.Err() != nil }
