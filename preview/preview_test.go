package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/scheduler"
	"github.com/dirsail/dirsail/vfsurl"
)

func mustURL(t *testing.T, p string) vfsurl.Url {
	t.Helper()
	u, err := vfsurl.Parse(p)
	require.NoError(t, err)
	return u
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestRulesMatchFirstWins(t *testing.T) {
	rs := Rules{
		{MimePattern: "text/plain", PluginName: "exact"},
		{MimePattern: "image/*", PluginName: "wild"},
		{MimePattern: "image/png", PluginName: "later"},
	}
	r, ok := rs.Match("image/png")
	require.True(t, ok)
	assert.Equal(t, "wild", r.PluginName)

	_, ok = rs.Match("video/mp4")
	assert.False(t, ok)
}

func TestPreviewLockMatches(t *testing.T) {
	f := cha.File{Url: mustURL(t, "/tmp/a.txt"), Cha: cha.Cha{Len: 10, Modified: time.Unix(100, 0)}}
	lock := lockKeyOf(f)
	lock.Skip = 0
	assert.True(t, lock.Matches(f, 0))
	assert.False(t, lock.Matches(f, 1))

	f.Cha.Len = 11
	assert.False(t, lock.Matches(f, 0))
}

func TestPreviewerSkipsWhenLockMatches(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()

	calls := 0
	rules := Rules{{MimePattern: "text/plain", Plugin: func(ctx context.Context, f cha.File, mime string, skip int) (Artifact, error) {
		calls++
		return Artifact{Kind: ArtifactText, Lines: []string{"hi"}}, nil
	}}}
	pv := NewPreviewer(sched, rules, nil)

	f := cha.File{Url: mustURL(t, "/tmp/a.txt"), Cha: cha.Cha{Len: 2, Modified: time.Unix(1, 0)}}

	var got PreviewLock
	publish := func(l PreviewLock) { got = l }

	tk := pv.Preview(f, "text/plain", 0, Rect{}, publish)
	require.NotNil(t, tk)
	waitFor(t, func() bool { return got.Artifact.Kind == ArtifactText })
	assert.Equal(t, 1, calls)

	// Same file/skip/cha again: Matches should short-circuit, no second task.
	tk2 := pv.Preview(f, "text/plain", 0, Rect{}, publish)
	assert.Nil(t, tk2)
	assert.Equal(t, 1, calls)
}

func TestPreviewerNoRuleMatch(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()
	pv := NewPreviewer(sched, Rules{}, nil)
	f := cha.File{Url: mustURL(t, "/tmp/a.bin")}
	tk := pv.Preview(f, "application/octet-stream", 0, Rect{}, nil)
	assert.Nil(t, tk)
}

func TestPreloaderDedupesSameKey(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()
	pl, err := NewPreloader(sched)
	require.NoError(t, err)

	key := PreloadKey{FileHash: "abc", PluginIdx: 0}
	calls := 0
	block := make(chan struct{})
	t1 := pl.Preload(key, func(ctx context.Context) (PluginResult, error) {
		calls++
		<-block
		return ResultOk, nil
	})
	require.NotNil(t, t1)

	t2 := pl.Preload(key, func(ctx context.Context) (PluginResult, error) {
		calls++
		return ResultOk, nil
	})
	assert.Nil(t, t2)

	close(block)
	waitFor(t, func() bool { return calls == 1 })
}

func TestPreloaderRetriesAfterFailure(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()
	pl, err := NewPreloader(sched)
	require.NoError(t, err)

	key := PreloadKey{FileHash: "x", PluginIdx: 1}
	failOnce := true
	done := make(chan struct{}, 2)
	pl.Preload(key, func(ctx context.Context) (PluginResult, error) {
		defer func() { done <- struct{}{} }()
		if failOnce {
			failOnce = false
			return ResultFailed, assert.AnError
		}
		return ResultOk, nil
	})
	waitFor(t, func() bool { return len(done) == 1 })

	t2 := pl.Preload(key, func(ctx context.Context) (PluginResult, error) {
		done <- struct{}{}
		return ResultOk, nil
	})
	assert.NotNil(t, t2)
	waitFor(t, func() bool { return len(done) == 2 })
}

func TestFetcherFallsBackToSniffWhenNoRuleMatches(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()

	dir := t.TempDir()
	textPath := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello world"), 0o644))

	customCalls := 0
	rules := []FetchRule{{
		Name:  "custom",
		Match: func(f cha.File) bool { return f.Urn() == "special" },
		Plugin: func(ctx context.Context, files []cha.File) (map[string]string, error) {
			customCalls++
			out := map[string]string{}
			for _, f := range files {
				out[f.Urn()] = "application/x-custom"
			}
			return out, nil
		},
	}}
	ft := NewFetcher(sched, rules)

	files := []cha.File{{Url: mustURL(t, textPath)}}
	results := map[string]string{}
	tk := ft.Fetch(files, func(urn, mime string) { results[urn] = mime })
	require.NotNil(t, tk)
	waitFor(t, func() bool { return len(results) == 1 })
	assert.Contains(t, results["note.txt"], "text/plain")
	assert.Equal(t, 0, customCalls)
}

func TestSpotSelectClampsAndMoves(t *testing.T) {
	sched := scheduler.New(context.Background(), 0)
	defer sched.Stop()
	sp := NewSpot(sched)

	f := cha.File{Url: mustURL(t, "/tmp/sheet.csv")}
	lock, tk := sp.Begin(f, 0, func(ctx context.Context, f cha.File, skip int) ([]string, error) {
		return []string{"a", "b", "c"}, nil
	})
	require.NotNil(t, tk)
	waitFor(t, func() bool { return len(lock.Rows) == 3 })

	lock.Select(10)
	idx, ok := lock.Selected()
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	lock.Move(-5)
	idx, ok = lock.Selected()
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	sp.End(f)
	_, ok = sp.Lock(f)
	assert.False(t, ok)
}

func TestCollisionTrackerDetectsOverlap(t *testing.T) {
	var ct CollisionTracker
	ct.Record(Rect{X: 0, Y: 0, W: 10, H: 10})
	ct.NotifyClear(Rect{X: 5, Y: 5, W: 2, H: 2})
	assert.True(t, ct.TakeCollision())
	assert.False(t, ct.TakeCollision())
}
