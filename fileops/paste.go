package fileops

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/task"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// pasteFanOut bounds how many files Paste copies concurrently.
const pasteFanOut = 8

// Emit delivers a cha.FilesOp produced by a file operation to whatever is
// watching the affected directory (typically the in-memory Files
// container backing that cwd).
type Emit func(cha.FilesOp)

// maxExdevRetries bounds the copy+delete retry that a cross-device rename
// triggers (§4.3: "FileInPaste carries a retry: u8 ... up to a small
// bound").
const maxExdevRetries = 3

// planEntry is one file discovered while walking a paste source tree.
type planEntry struct {
	src, dst vfsurl.Url
	isDir    bool
}

// plan walks src (which may itself be a single file) and returns every
// directory and file beneath it, dst-relative to dstDir, preserving
// structure (§4.4 step 1).
func plan(ctx context.Context, p vfs.Provider, src, dstDir vfsurl.Url) ([]planEntry, error) {
	c, err := p.SymlinkMetadata(ctx, src)
	if err != nil {
		return nil, err
	}
	name := (cha.File{Url: src}).Urn()
	dst := vfsurl.Join(dstDir, name)

	if !c.IsDir() {
		return []planEntry{{src: src, dst: dst, isDir: false}}, nil
	}

	entries := []planEntry{{src: src, dst: dst, isDir: true}}
	children, err := p.ReadDir(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sub, err := plan(ctx, p, child.Url, dst)
		if err != nil {
			return nil, err
		}
		entries = append(entries, sub...)
	}
	return entries, nil
}

// Paste implements §4.4's copy/cut operation as a scheduler Run body: for
// every source, walk its tree, create destination directories, and copy
// (or rename, for same-device cuts) each file, resolving name collisions
// via UniqueName and streaming progress on out.
func Paste(p vfs.Provider, srcs []vfsurl.Url, dstDir vfsurl.Url, cut bool, policy AppendPolicy, emit Emit) task.Run {
	return func(ctx context.Context, out chan<- task.Out) {
		var entries []planEntry
		for _, src := range srcs {
			sub, err := plan(ctx, p, src, dstDir)
			if err != nil {
				out <- task.Log("paste: plan failed for " + src.String() + ": " + err.Error())
				out <- task.Fail(err)
				return
			}
			entries = append(entries, sub...)
		}

		var total int64
		for _, e := range entries {
			if !e.isDir {
				total++
			}
		}
		out <- task.NewTotal(total)

		// Directories must exist before any file lands in them, so create
		// the whole directory skeleton first, in plan order (a parent
		// always precedes its children — see plan's recursion).
		var files []planEntry
		for _, e := range entries {
			if e.isDir {
				if err := p.CreateDirAll(ctx, e.dst); err != nil {
					out <- task.Log("paste: mkdir " + e.dst.String() + ": " + err.Error())
				}
				continue
			}
			files = append(files, e)
		}

		// Files within the now-complete directory skeleton have no
		// ordering dependency on each other, so copy them concurrently,
		// bounded to pasteFanOut in flight at once (§4.3's "one child task
		// per file"). Channel sends are already safe for concurrent
		// goroutines, so no extra locking is needed around out.
		safeOut := func(o task.Out) { out <- o }
		var emitMu sync.Mutex
		safeEmit := func(op cha.FilesOp) {
			emitMu.Lock()
			defer emitMu.Unlock()
			emit(op)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(pasteFanOut)
		for _, e := range files {
			e := e
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if err := pasteFile(gctx, p, e.src, e.dst, cut, policy, safeEmit, safeOut); err != nil {
					safeOut(task.Adv(0, 1, 0))
					safeOut(task.Log("paste: " + e.src.String() + ": " + err.Error()))
					return nil
				}
				safeOut(task.Adv(1, 0, 0))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			out <- task.Fail(err)
			return
		}
		out <- task.Succ()
	}
}

func pasteFile(ctx context.Context, p vfs.Provider, src, dst vfsurl.Url, cut bool, policy AppendPolicy, emit Emit, send func(task.Out)) error {
	dstDir := parentOf(dst)
	name := (cha.File{Url: dst}).Urn()
	finalDst, err := UniqueName(ctx, p, dstDir, name, policy)
	if err != nil {
		return err
	}

	if cut {
		if err := renameWithRetry(ctx, p, src, finalDst, send); err != nil {
			return err
		}
	} else if err := p.Copy(ctx, src, finalDst, func(n int64) {
		send(task.Adv(0, 0, n))
	}); err != nil {
		return err
	}

	newCha, err := p.SymlinkMetadata(ctx, finalDst)
	if err == nil {
		emit(cha.FilesOp{
			Kind:  cha.OpUpserting,
			Cwd:   dstDir,
			ByUrn: map[string]cha.File{(cha.File{Url: finalDst}).Urn(): {Url: finalDst, Cha: newCha}},
		})
	}
	if cut {
		emit(cha.FilesOp{
			Kind: cha.OpDeleting,
			Cwd:  parentOf(src),
			Urns: map[string]struct{}{(cha.File{Url: src}).Urn(): {}},
		})
	}
	return nil
}

// renameWithRetry attempts an in-place rename (the fast "cut on the same
// device" path); on EXDEV it falls back to copy+delete, retrying up to
// maxExdevRetries (§4.3's FileInPaste.retry).
func renameWithRetry(ctx context.Context, p vfs.Provider, src, dst vfsurl.Url, send func(task.Out)) error {
	err := p.Rename(ctx, src, dst)
	if err == nil {
		return nil
	}
	if !xerrors.IsCrossDevice(err) {
		return err
	}
	for attempt := 0; attempt < maxExdevRetries; attempt++ {
		send(task.Log("paste: cross-device rename, retrying as copy+delete"))
		if cerr := p.Copy(ctx, src, dst, func(n int64) { send(task.Adv(0, 0, n)) }); cerr != nil {
			if xerrors.IsCrossDevice(cerr) {
				continue
			}
			return cerr
		}
		return p.RemoveFile(ctx, src)
	}
	return err
}

// parentOf returns u's containing directory, same scheme.
func parentOf(u vfsurl.Url) vfsurl.Url {
	return vfsurl.Join(u, "..")
}
