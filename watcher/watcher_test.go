package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/vfs/localfs"
	"github.com/dirsail/dirsail/vfsurl"
)

func mustURL(t *testing.T, p string) vfsurl.Url {
	t.Helper()
	u, err := vfsurl.Parse(p)
	require.NoError(t, err)
	return u
}

type opSink struct {
	mu  sync.Mutex
	ops []cha.FilesOp
}

func (s *opSink) publish(op cha.FilesOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *opSink) snapshot() []cha.FilesOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cha.FilesOp(nil), s.ops...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestWatchAddsAndRemovesDirs(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	sink := &opSink{}
	w, err := New(context.Background(), localfs.New(), sink.publish)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]vfsurl.Url{mustURL(t, dirA)}))
	w.mu.Lock()
	_, watchingA := w.watched[dirA]
	w.mu.Unlock()
	assert.True(t, watchingA)

	require.NoError(t, w.Watch([]vfsurl.Url{mustURL(t, dirB)}))
	w.mu.Lock()
	_, stillA := w.watched[dirA]
	_, watchingB := w.watched[dirB]
	w.mu.Unlock()
	assert.False(t, stillA)
	assert.True(t, watchingB)
}

func TestWatcherEmitsUpsertingOnCreate(t *testing.T) {
	dir := t.TempDir()

	sink := &opSink{}
	w, err := New(context.Background(), localfs.New(), sink.publish)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]vfsurl.Url{mustURL(t, dir)}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))

	waitFor(t, func() bool {
		for _, op := range sink.snapshot() {
			if op.Kind == cha.OpUpserting {
				if _, ok := op.ByUrn["new.txt"]; ok {
					return true
				}
			}
		}
		return false
	})
}

func TestWatcherEmitsDeletingOnRemove(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	sink := &opSink{}
	w, err := New(context.Background(), localfs.New(), sink.publish)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Watch([]vfsurl.Url{mustURL(t, dir)}))
	require.NoError(t, os.Remove(target))

	waitFor(t, func() bool {
		for _, op := range sink.snapshot() {
			if op.Kind == cha.OpDeleting {
				if _, ok := op.Urns["gone.txt"]; ok {
					return true
				}
			}
		}
		return false
	})
}

func TestLinkedRebasesAcrossMirroredDir(t *testing.T) {
	real := t.TempDir()
	parent := t.TempDir()
	mirror := filepath.Join(parent, "mirror")
	require.NoError(t, os.Symlink(real, mirror))

	l := newLinked()
	l.recompute([]string{real, mirror})

	op := cha.FilesOp{Kind: cha.OpUpserting, Cwd: mustURL(t, real), ByUrn: map[string]cha.File{"f": {}}}
	rebased := l.rebase(op)
	require.Len(t, rebased, 1)
	assert.Equal(t, mirror, rebased[0].Cwd.Path())
}

func TestLinkedNoEdgesWhenNoMirror(t *testing.T) {
	dir := t.TempDir()
	l := newLinked()
	l.recompute([]string{dir})
	op := cha.FilesOp{Kind: cha.OpUpserting, Cwd: mustURL(t, dir)}
	assert.Empty(t, l.rebase(op))
}
