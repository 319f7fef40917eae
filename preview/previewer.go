package preview

import (
	"context"
	"sync"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/task"
)

// PluginFunc renders one preview artifact. Plugins run on the scheduler's
// Plugin worker pool and must honor ctx cancellation (§4.3, §5).
type PluginFunc func(ctx context.Context, f cha.File, mime string, skip int) (Artifact, error)

// Previewer implements §4.5's "given (file, mime, skip)" dispatch: it
// matches a mime against the rule table, skips work when the cached lock
// already matches, cancels any stale in-flight render for the same file,
// and submits a fresh one.
type Previewer struct {
	Sched   *scheduler.Scheduler
	Rules   Rules
	Adapter ImageAdapter
	Tracker *CollisionTracker

	mu       sync.Mutex
	locks    map[string]PreviewLock
	inflight map[string]*task.Task
}

// NewPreviewer constructs a Previewer bound to sched and rules. adapter
// may be nil (falls back to a no-op adapter); every Image artifact
// produced is still recorded in the returned PreviewLock either way.
func NewPreviewer(sched *scheduler.Scheduler, rules Rules, adapter ImageAdapter) *Previewer {
	if adapter == nil {
		adapter = NopAdapter{}
	}
	return &Previewer{
		Sched:    sched,
		Rules:    rules,
		Adapter:  adapter,
		Tracker:  &CollisionTracker{},
		locks:    map[string]PreviewLock{},
		inflight: map[string]*task.Task{},
	}
}

// Preview implements the four steps of §4.5's Previewer: check the
// cached lock, find the matching rule, cancel any stale render, submit a
// new one at HIGH priority (the file currently under the cursor is
// latency-sensitive). Returns nil if the lock already matched or no rule
// covers mime. publish, if non-nil, is called with the finished
// PreviewLock once the render settles.
func (pv *Previewer) Preview(f cha.File, mime string, skip int, rect Rect, publish func(PreviewLock)) *task.Task {
	key := f.Url.Display()

	pv.mu.Lock()
	if lock, ok := pv.locks[key]; ok && lock.Matches(f, skip) {
		pv.mu.Unlock()
		return nil
	}
	rule, ok := pv.Rules.Match(mime)
	if !ok {
		pv.mu.Unlock()
		return nil
	}
	if prev, ok := pv.inflight[key]; ok {
		prev.Cancel()
	}
	pv.mu.Unlock()

	t := pv.Sched.Submit(scheduler.WorkerPlugin, scheduler.High, task.KindPreview, func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(1)
		artifact, err := rule.Plugin(ctx, f, mime, skip)
		if err != nil {
			out <- task.Log("preview: " + f.Url.Display() + ": " + err.Error())
			out <- task.Fail(err)
			return
		}

		lock := lockKeyOf(f)
		lock.Skip = skip
		lock.Artifact = artifact

		if artifact.Kind == ArtifactImage {
			if shown, err := pv.Adapter.ImageShow(artifact.CachePath, rect); err == nil {
				lock.Shown = shown
				pv.Tracker.Record(shown)
			}
		}

		pv.mu.Lock()
		pv.locks[key] = lock
		delete(pv.inflight, key)
		pv.mu.Unlock()

		if publish != nil {
			publish(lock)
		}
		out <- task.Succ()
	})

	pv.mu.Lock()
	pv.inflight[key] = t
	pv.mu.Unlock()
	return t
}

// Invalidate drops any cached lock for f, forcing the next Preview call
// to re-render regardless of whether Matches would otherwise succeed
// (used when the watcher reports the file changed out from under a
// stale mtime comparison).
func (pv *Previewer) Invalidate(f cha.File) {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	delete(pv.locks, f.Url.Display())
}
