package cha

import (
	"testing"

	"github.com/dirsail/dirsail/vfsurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkFile(t *testing.T, p string, size uint64, dir bool) File {
	t.Helper()
	u, err := vfsurl.Parse(p)
	require.NoError(t, err)
	k := Kind(0)
	if dir {
		k |= KindDir
	}
	return File{Url: u, Cha: Cha{Kind: k, Len: size}}
}

func TestFilesSortIdempotent(t *testing.T) {
	files := NewFiles(SortPolicy{By: SortByNatural, DirFirst: true}, true)
	files.Replace([]File{
		mkFile(t, "/d/file10.txt", 10, false),
		mkFile(t, "/d/file2.txt", 2, false),
		mkFile(t, "/d/zzz", 0, true),
		mkFile(t, "/d/aaa", 0, true),
	})
	once := files.View()
	files.Replace(once) // applying the same sort policy again
	twice := files.View()
	assert.Equal(t, once, twice)
	// dirs first, then natural order within each group
	assert.True(t, once[0].Cha.IsDir())
	assert.True(t, once[1].Cha.IsDir())
	assert.Equal(t, "file2.txt", once[2].Urn())
	assert.Equal(t, "file10.txt", once[3].Urn())
}

func TestFilesUpsertDelete(t *testing.T) {
	files := NewFiles(SortPolicy{}, true)
	files.Replace([]File{mkFile(t, "/d/a", 1, false)})
	r0 := files.Revision()

	files.Upsert(map[string]File{"b": mkFile(t, "/d/b", 2, false)})
	assert.Greater(t, files.Revision(), r0)
	assert.Len(t, files.View(), 2)

	files.Delete(map[string]struct{}{"a": {}})
	assert.Len(t, files.View(), 1)
	assert.Equal(t, "b", files.View()[0].Urn())
}

func TestFilesHiddenFilter(t *testing.T) {
	files := NewFiles(SortPolicy{}, false)
	files.Replace([]File{
		{Url: mustURL(t, "/d/.hidden"), Cha: Cha{Kind: KindHidden}},
		{Url: mustURL(t, "/d/visible"), Cha: Cha{}},
	})
	assert.Len(t, files.View(), 1)
	files.SetShowHidden(true)
	assert.Len(t, files.View(), 2)
}

func mustURL(t *testing.T, p string) vfsurl.Url {
	t.Helper()
	u, err := vfsurl.Parse(p)
	require.NoError(t, err)
	return u
}

func TestTicketDiscardsStaleStream(t *testing.T) {
	cwd := mustURL(t, "/home/user")
	t1 := Prepare(cwd)
	t2 := Prepare(cwd) // simulates a fresh `cd` superseding the in-flight listing

	files := NewFiles(SortPolicy{}, true)
	applied := Apply(files, FilesOp{Kind: OpPart, Cwd: cwd, Ticket: t1, Files: []File{mkFile(t, "/home/user/stale", 1, false)}})
	assert.False(t, applied, "stale ticket must be discarded")
	assert.Equal(t, 0, files.Len())

	applied = Apply(files, FilesOp{Kind: OpPart, Cwd: cwd, Ticket: t2, Files: []File{mkFile(t, "/home/user/fresh", 1, false)}})
	assert.True(t, applied)
	assert.Equal(t, 1, files.Len())
}

func TestEmptyListingProducesNoPart(t *testing.T) {
	cwd := mustURL(t, "/home/user/empty")
	files := NewFiles(SortPolicy{}, true)
	Apply(files, FilesOp{Kind: OpFull, Cwd: cwd, Files: nil, Cha: Cha{Kind: KindDir}})
	assert.Equal(t, 0, files.Len())
	assert.Empty(t, files.View())
}
