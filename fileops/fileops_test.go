package fileops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/task"
	"github.com/dirsail/dirsail/vfs/localfs"
	"github.com/dirsail/dirsail/vfsurl"
)

func mustURL(t *testing.T, p string) vfsurl.Url {
	t.Helper()
	u, err := vfsurl.Parse(p)
	require.NoError(t, err)
	return u
}

// collectOuts runs a task.Run body to completion against an unbuffered
// channel drained concurrently, returning every task.Out it emitted in
// order.
func collectOuts(t *testing.T, run task.Run) []task.Out {
	t.Helper()
	out := make(chan task.Out)
	var collected []task.Out
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range out {
			collected = append(collected, o)
		}
	}()
	run(context.Background(), out)
	close(out)
	<-done
	return collected
}

func assertLastSucc(t *testing.T, outs []task.Out) {
	t.Helper()
	require.NotEmpty(t, outs)
	last := outs[len(outs)-1]
	assert.Equal(t, task.OutSucc, last.Kind, "expected the task to finish with Succ, got %+v", last)
}

func TestUniqueNameResolvesCollisions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_1.txt"), []byte("x"), 0o644))

	p := localfs.New()
	got, err := UniqueName(context.Background(), p, mustURL(t, dir), "a.txt", AppendBeforeExt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_2.txt"), got.Path())
}

func TestPasteCopiesFileAndEmitsUpserting(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "note.txt"), []byte("payload"), 0o644))

	p := localfs.New()
	var emitted []cha.FilesOp
	emit := func(op cha.FilesOp) { emitted = append(emitted, op) }

	run := Paste(p, []vfsurl.Url{mustURL(t, filepath.Join(srcDir, "note.txt"))}, mustURL(t, dstDir), false, AppendBeforeExt, emit)
	assertLastSucc(t, collectOuts(t, run))

	data, err := os.ReadFile(filepath.Join(dstDir, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.Len(t, emitted, 1)
	assert.Equal(t, cha.OpUpserting, emitted[0].Kind)
}

func TestPasteCutRemovesSource(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "note.txt")
	require.NoError(t, os.WriteFile(srcFile, []byte("payload"), 0o644))

	p := localfs.New()
	var emitted []cha.FilesOp
	emit := func(op cha.FilesOp) { emitted = append(emitted, op) }

	run := Paste(p, []vfsurl.Url{mustURL(t, srcFile)}, mustURL(t, dstDir), true, AppendBeforeExt, emit)
	assertLastSucc(t, collectOuts(t, run))

	_, err := os.Stat(srcFile)
	assert.True(t, os.IsNotExist(err))

	var sawDeleting bool
	for _, op := range emitted {
		if op.Kind == cha.OpDeleting {
			sawDeleting = true
		}
	}
	assert.True(t, sawDeleting)
}

func TestPasteNestedDirectoryPreservesStructure(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	nested := filepath.Join(srcDir, "tree", "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "f.txt"), []byte("deep"), 0o644))

	p := localfs.New()
	emit := func(cha.FilesOp) {}
	run := Paste(p, []vfsurl.Url{mustURL(t, filepath.Join(srcDir, "tree"))}, mustURL(t, dstDir), false, AppendBeforeExt, emit)
	assertLastSucc(t, collectOuts(t, run))

	data, err := os.ReadFile(filepath.Join(dstDir, "tree", "sub", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(data))
}

func TestDeleteRemovesTreeAndEmitsDeleting(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "f.txt"), []byte("x"), 0o644))

	p := localfs.New()
	var emitted []cha.FilesOp
	emit := func(op cha.FilesOp) { emitted = append(emitted, op) }

	run := Delete(p, []vfsurl.Url{mustURL(t, filepath.Join(dir, "a"))}, false, emit)
	assertLastSucc(t, collectOuts(t, run))

	_, err := os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))
	require.Len(t, emitted, 1)
	assert.Equal(t, cha.OpDeleting, emitted[0].Kind)
}

func TestLinkCreatesSymlink(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	target := filepath.Join(srcDir, "target.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	p := localfs.New()
	emit := func(cha.FilesOp) {}
	run := Link(p, []vfsurl.Url{mustURL(t, target)}, mustURL(t, dstDir), LinkOptions{}, AppendBeforeExt, emit)
	assertLastSucc(t, collectOuts(t, run))

	fi, err := os.Lstat(filepath.Join(dstDir, "target.txt"))
	require.NoError(t, err)
	assert.True(t, fi.Mode()&os.ModeSymlink != 0)
}

func TestHardlinkSharesInode(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	target := filepath.Join(srcDir, "shared.txt")
	require.NoError(t, os.WriteFile(target, []byte("shared"), 0o644))

	p := localfs.New()
	emit := func(cha.FilesOp) {}
	run := Hardlink(p, []vfsurl.Url{mustURL(t, target)}, mustURL(t, dstDir), AppendBeforeExt, emit)
	assertLastSucc(t, collectOuts(t, run))

	srcInfo, err := os.Stat(target)
	require.NoError(t, err)
	dstInfo, err := os.Stat(filepath.Join(dstDir, "shared.txt"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}
