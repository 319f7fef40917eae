// Package scheduler implements the fixed worker-pool task scheduler
// described in §4.3: one priority-draining goroutine per worker kind
// (File, Plugin, Process), a shared Ongoing/Hooks table, a BLOCKER
// semaphore serializing exclusive-TTY operations, and a periodic
// TaskSummary aggregator.
//
// Grounded on rclone's fs/accounting Stats aggregator (periodic,
// mutex-guarded progress summarization) and lib/pacer's token-bucket
// retry idiom (informs the EXDEV copy+delete retry path in fileops).
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dirsail/dirsail/task"
)

// Priority is the three-level scheduling priority of §4.3: HIGH, NORMAL,
// LOW, numeric and higher-wins.
type Priority int

const (
	Low Priority = iota
	Normal
	High
)

// WorkerKind selects which of the three fixed worker pools a task is
// submitted to (§4.3).
type WorkerKind int

const (
	WorkerFile WorkerKind = iota
	WorkerPlugin
	WorkerProcess
)

// Run is the body a submitted task executes. It must honor ctx.Done() at
// every suspension point (§5) and stream progress on out; out is closed
// by the scheduler once Run returns.
type Run func(ctx context.Context, out chan<- task.Out)

type job struct {
	id  task.ID
	run Run
}

// defaultQueueDepth bounds each priority channel; a full queue blocks Submit,
// providing natural backpressure (configurable via internal/config's
// QueueDepth).
const defaultQueueDepth = 256

// Scheduler owns the three worker pools, the shared Ongoing table, and
// the BLOCKER semaphore.
type Scheduler struct {
	Ongoing *task.Ongoing
	Blocker *semaphore.Weighted

	workers map[WorkerKind]*worker

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type worker struct {
	high, normal, low chan job
}

func newWorker(depth int) *worker {
	return &worker{
		high:   make(chan job, depth),
		normal: make(chan job, depth),
		low:    make(chan job, depth),
	}
}

// New constructs a Scheduler with one worker goroutine per kind, draining
// HIGH before NORMAL before LOW (§4.3). Call Stop to shut every worker
// down; in-flight tasks are cancelled via their own context, derived from
// ctx.
func New(ctx context.Context, queueDepth int) *Scheduler {
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	runCtx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		Ongoing: task.NewOngoing(),
		Blocker: semaphore.NewWeighted(1),
		workers: map[WorkerKind]*worker{
			WorkerFile:    newWorker(queueDepth),
			WorkerPlugin:  newWorker(queueDepth),
			WorkerProcess: newWorker(queueDepth),
		},
		ctx:    runCtx,
		cancel: cancel,
	}
	for kind, w := range s.workers {
		s.wg.Add(1)
		go s.drain(runCtx, kind, w)
	}
	return s
}

// Stop cancels every running task and waits for all worker goroutines to
// exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Submit allocates a Task, inserts it into Ongoing, and enqueues run on
// the chosen worker at the given priority (§4.3). It returns the new
// Task so the caller can register a hook or cancel it.
func (s *Scheduler) Submit(kind WorkerKind, priority Priority, taskKind task.Kind, run Run) *task.Task {
	t := task.New(s.ctx, taskKind)
	s.Ongoing.Insert(t)

	w := s.workers[kind]
	j := job{id: t.ID, run: run}
	switch priority {
	case High:
		w.high <- j
	case Normal:
		w.normal <- j
	default:
		w.low <- j
	}
	return t
}

func (s *Scheduler) drain(ctx context.Context, kind WorkerKind, w *worker) {
	defer s.wg.Done()
	for {
		j, ok := nextJob(ctx, w)
		if !ok {
			return
		}
		s.run(j)
	}
}

// nextJob implements the HIGH > NORMAL > LOW drain order: a non-blocking
// pass checks each channel highest-first, and only blocks (selecting
// across all three plus ctx.Done) once every channel was empty on that
// pass.
func nextJob(ctx context.Context, w *worker) (job, bool) {
	select {
	case j := <-w.high:
		return j, true
	default:
	}
	select {
	case j := <-w.normal:
		return j, true
	default:
	}
	select {
	case j := <-w.low:
		return j, true
	default:
	}
	select {
	case j := <-w.high:
		return j, true
	case j := <-w.normal:
		return j, true
	case j := <-w.low:
		return j, true
	case <-ctx.Done():
		return job{}, false
	}
}

func (s *Scheduler) run(j job) {
	t := s.Ongoing.Get(j.id)
	if t == nil {
		return
	}
	out := make(chan task.Out)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range out {
			s.Ongoing.Apply(j.id, o)
		}
	}()
	j.run(t.Context(), out)
	close(out)
	<-done
}
