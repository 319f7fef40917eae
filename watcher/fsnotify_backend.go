package watcher

import "github.com/fsnotify/fsnotify"

// fsnotifyBackend wraps fsnotify.Watcher (the RecommendedWatcher of
// §4.6) to satisfy the watcher package's backend interface.
type fsnotifyBackend struct {
	w *fsnotify.Watcher
}

func newFsnotifyBackend() (backend, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyBackend{w: w}, nil
}

func (b *fsnotifyBackend) Add(path string) error    { return b.w.Add(path) }
func (b *fsnotifyBackend) Remove(path string) error  { return b.w.Remove(path) }
func (b *fsnotifyBackend) Close() error              { return b.w.Close() }
func (b *fsnotifyBackend) Events() <-chan fsnotify.Event { return b.w.Events }
func (b *fsnotifyBackend) Errors() <-chan error          { return b.w.Errors }
