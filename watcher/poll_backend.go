package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// pollBackend is the §4.6 "PollWatcher" fallback for platforms where
// fsnotify's native backend isn't available (NetBSD, some WSL mounts):
// it periodically re-lists each watched directory and synthesizes
// Create/Write/Remove events from the diff against the previous listing.
type pollBackend struct {
	interval time.Duration

	mu      sync.Mutex
	watched map[string]struct{}
	seen    map[string]map[string]time.Time // dir -> entry name -> mtime

	events chan fsnotify.Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

func newPollBackend(interval time.Duration) (backend, error) {
	b := &pollBackend{
		interval: interval,
		watched:  map[string]struct{}{},
		seen:     map[string]map[string]time.Time{},
		events:   make(chan fsnotify.Event, 64),
		errors:   make(chan error, 16),
		done:     make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b, nil
}

func (b *pollBackend) Add(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watched[path] = struct{}{}
	b.seen[path] = b.list(path)
	return nil
}

func (b *pollBackend) Remove(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watched, path)
	delete(b.seen, path)
	return nil
}

func (b *pollBackend) Close() error {
	close(b.done)
	b.wg.Wait()
	return nil
}

func (b *pollBackend) Events() <-chan fsnotify.Event { return b.events }
func (b *pollBackend) Errors() <-chan error           { return b.errors }

func (b *pollBackend) list(dir string) map[string]time.Time {
	out := map[string]time.Time{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out[e.Name()] = info.ModTime()
	}
	return out
}

func (b *pollBackend) loop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.pollOnce()
		}
	}
}

func (b *pollBackend) pollOnce() {
	b.mu.Lock()
	dirs := make([]string, 0, len(b.watched))
	for d := range b.watched {
		dirs = append(dirs, d)
	}
	b.mu.Unlock()

	for _, dir := range dirs {
		current := b.list(dir)

		b.mu.Lock()
		prev := b.seen[dir]
		b.seen[dir] = current
		b.mu.Unlock()

		for name, mtime := range current {
			prevMtime, ok := prev[name]
			if !ok {
				b.emit(fsnotify.Event{Name: filepath.Join(dir, name), Op: fsnotify.Create})
				continue
			}
			if !mtime.Equal(prevMtime) {
				b.emit(fsnotify.Event{Name: filepath.Join(dir, name), Op: fsnotify.Write})
			}
		}
		for name := range prev {
			if _, ok := current[name]; !ok {
				b.emit(fsnotify.Event{Name: filepath.Join(dir, name), Op: fsnotify.Remove})
			}
		}
	}
}

func (b *pollBackend) emit(ev fsnotify.Event) {
	select {
	case b.events <- ev:
	default:
	}
}
