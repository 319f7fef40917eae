package vfs

import (
	"context"
	"time"

	"github.com/dirsail/dirsail/vfsurl"
)

// sizeYieldInterval and sizeYieldEntries bound how often SizeCalculator
// reports a partial sum: every ≤50ms or ≤2000 entries, whichever comes
// first (§4.2).
const (
	sizeYieldInterval = 50 * time.Millisecond
	sizeYieldEntries  = 2000
)

// SizeCalculator performs a chunked DFS over a directory, yielding partial
// byte sums to a channel. Symlinks are not followed; unreadable children
// contribute 0 but do not abort the walk (§4.2).
type SizeCalculator struct {
	Provider Provider
}

// Walk sums the directory at root and sends incremental totals on out.
// out is closed when the walk completes or stops on ctx cancellation. A
// walk that runs to the end sends the complete total last; after
// cancellation the last value sent, if any, is a partial sum.
func (s *SizeCalculator) Walk(ctx context.Context, root vfsurl.Url, out chan<- uint64) {
	defer close(out)
	var total uint64
	var sinceYield int
	lastYield := time.Now()

	yield := func(force bool) {
		if !force && sinceYield < sizeYieldEntries && time.Since(lastYield) < sizeYieldInterval {
			return
		}
		select {
		case out <- total:
		case <-ctx.Done():
		}
		sinceYield = 0
		lastYield = time.Now()
	}

	var walk func(dir vfsurl.Url)
	walk = func(dir vfsurl.Url) {
		if ctx.Err() != nil {
			return
		}
		entries, err := s.Provider.ReadDir(ctx, dir)
		if err != nil {
			return // unreadable directory contributes 0, doesn't abort
		}
		for _, f := range entries {
			if ctx.Err() != nil {
				return
			}
			if f.Cha.IsLink() {
				continue // symlinks are not followed
			}
			if f.Cha.IsDir() {
				walk(f.Url)
				continue
			}
			total += f.Cha.Len
			sinceYield++
			yield(false)
		}
	}
	walk(root)
	yield(true)
}
