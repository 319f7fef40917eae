package preview

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/task"
)

// preloadCapacity bounds the dedup LRU to 4096 entries (§4.5).
const preloadCapacity = 4096

// PreloadKey identifies one plugin's preload work for one file's content,
// the dedup unit the spec describes as "(file_hash, plugin_idx)".
type PreloadKey struct {
	FileHash  string
	PluginIdx int
}

// PluginResult is a preload plugin's tri-state outcome (spec.md §9's open
// question, resolved explicitly here): Ok and Declined are both stable
// cached outcomes that keep the LRU bit set, so a plugin that
// deliberately opts out of a file is not retried every demand; only
// Failed clears the bit so the next demand retries.
type PluginResult int

const (
	ResultOk PluginResult = iota
	ResultDeclined
	ResultFailed
)

// PreloadFunc performs the expensive preload work (ffmpeg thumbnailing,
// pdftoppm rasterization, ...). It must honor ctx cancellation. err is
// only consulted (for logging) when the result is ResultFailed.
type PreloadFunc func(ctx context.Context) (PluginResult, error)

// Preloader runs LOW-priority background work to materialize preview
// artifacts before they're demanded, deduplicating by PreloadKey so the
// same (file, plugin) pair is never preloaded twice concurrently (§4.5).
type Preloader struct {
	Sched *scheduler.Scheduler
	seen  *lru.Cache[PreloadKey, struct{}]
}

// NewPreloader constructs a Preloader backed by a 4096-entry dedup LRU.
func NewPreloader(sched *scheduler.Scheduler) (*Preloader, error) {
	seen, err := lru.New[PreloadKey, struct{}](preloadCapacity)
	if err != nil {
		return nil, err
	}
	return &Preloader{Sched: sched, seen: seen}, nil
}

// Preload submits fn as a LOW-priority task keyed by key, unless key is
// already present in the dedup LRU (i.e. already preloaded or currently
// in flight). Returns nil when the submission was skipped as a
// duplicate.
func (pl *Preloader) Preload(key PreloadKey, fn PreloadFunc) *task.Task {
	if _, ok := pl.seen.Get(key); ok {
		return nil
	}
	pl.seen.Add(key, struct{}{})

	return pl.Sched.Submit(scheduler.WorkerPlugin, scheduler.Low, task.KindPreload, func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(1)
		result, err := fn(ctx)
		if result == ResultFailed {
			pl.seen.Remove(key)
			if err != nil {
				out <- task.Log("preload: " + err.Error())
			}
			out <- task.Fail(err)
			return
		}
		out <- task.Succ()
	})
}

// Forget evicts key from the dedup LRU unconditionally, forcing the next
// Preload call for it to run again.
func (pl *Preloader) Forget(key PreloadKey) {
	pl.seen.Remove(key)
}
