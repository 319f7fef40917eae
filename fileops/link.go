package fileops

import (
	"context"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/task"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// LinkOptions mirrors §4.4's Link parameters: resolve dereferences
// symlinks before linking, relative computes a relative target path,
// delete removes the source after linking (the "convert paste to
// symlink" fallback when copy fails).
type LinkOptions struct {
	Resolve  bool
	Relative bool
	Delete   bool
}

// Link submits one Symlink call per source into dstDir, resolving name
// collisions the same way Paste does.
func Link(p vfs.Provider, srcs []vfsurl.Url, dstDir vfsurl.Url, opts LinkOptions, policy AppendPolicy, emit Emit) task.Run {
	return func(ctx context.Context, out chan<- task.Out) {
		out <- task.NewTotal(int64(len(srcs)))
		for _, src := range srcs {
			if ctx.Err() != nil {
				out <- task.Fail(ctx.Err())
				return
			}
			target := src
			if opts.Resolve {
				for {
					t, err := p.ReadLink(ctx, target)
					if err != nil {
						break
					}
					target = t
				}
			}
			name := (cha.File{Url: src}).Urn()
			linkURL, err := UniqueName(ctx, p, dstDir, name, policy)
			if err != nil {
				out <- task.Adv(0, 1, 0)
				out <- task.Log("link: " + src.String() + ": " + err.Error())
				continue
			}
			if err := p.Symlink(ctx, target, linkURL, opts.Relative); err != nil {
				out <- task.Adv(0, 1, 0)
				out <- task.Log("link: " + src.String() + ": " + err.Error())
				continue
			}
			if opts.Delete {
				_ = p.RemoveFile(ctx, src)
				emit(cha.FilesOp{Kind: cha.OpDeleting, Cwd: parentOf(src), Urns: map[string]struct{}{name: {}}})
			}
			if newCha, err := p.SymlinkMetadata(ctx, linkURL); err == nil {
				emit(cha.FilesOp{
					Kind:  cha.OpUpserting,
					Cwd:   dstDir,
					ByUrn: map[string]cha.File{(cha.File{Url: linkURL}).Urn(): {Url: linkURL, Cha: newCha}},
				})
			}
			out <- task.Adv(1, 0, 0)
		}
		out <- task.Succ()
	}
}

// Hardlink mirrors Paste's walk but calls HardLink instead of Copy,
// falling back to Copy when the provider reports hard-linking isn't
// supported across filesystems (§4.4).
func Hardlink(p vfs.Provider, srcs []vfsurl.Url, dstDir vfsurl.Url, policy AppendPolicy, emit Emit) task.Run {
	return func(ctx context.Context, out chan<- task.Out) {
		var entries []planEntry
		for _, src := range srcs {
			sub, err := plan(ctx, p, src, dstDir)
			if err != nil {
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

		for _, e := range entries {
			if ctx.Err() != nil {
				out <- task.Fail(ctx.Err())
				return
			}
			if e.isDir {
				_ = p.CreateDirAll(ctx, e.dst)
				continue
			}
			dstDirOfFile := parentOf(e.dst)
			name := (cha.File{Url: e.dst}).Urn()
			finalDst, err := UniqueName(ctx, p, dstDirOfFile, name, policy)
			if err != nil {
				out <- task.Adv(0, 1, 0)
				continue
			}
			if err := p.HardLink(ctx, e.src, finalDst); err != nil {
				if err := p.Copy(ctx, e.src, finalDst, func(n int64) { out <- task.Adv(0, 0, n) }); err != nil {
					out <- task.Adv(0, 1, 0)
					out <- task.Log("hardlink: fallback copy failed for " + e.src.String() + ": " + err.Error())
					continue
				}
			}
			if newCha, err := p.SymlinkMetadata(ctx, finalDst); err == nil {
				emit(cha.FilesOp{
					Kind:  cha.OpUpserting,
					Cwd:   dstDirOfFile,
					ByUrn: map[string]cha.File{(cha.File{Url: finalDst}).Urn(): {Url: finalDst, Cha: newCha}},
				})
			}
			out <- task.Adv(1, 0, 0)
		}
		out <- task.Succ()
	}
}
