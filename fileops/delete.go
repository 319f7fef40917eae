package fileops

import (
	"context"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/task"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// Delete unconditionally removes each of targets, precomputing a size-free
// entry count (every file and directory beneath each target) for progress
// and emitting Deleting on success (§4.4). When trash is true it uses the
// provider's recycle-bin semantics instead of a permanent remove.
func Delete(p vfs.Provider, targets []vfsurl.Url, trash bool, emit Emit) task.Run {
	return func(ctx context.Context, out chan<- task.Out) {
		var total int64
		counts := make([]int64, len(targets))
		for i, u := range targets {
			n, err := countEntries(ctx, p, u)
			if err != nil {
				out <- task.Fail(err)
				return
			}
			counts[i] = n
			total += n
		}
		out <- task.NewTotal(total)

		for i, u := range targets {
			if ctx.Err() != nil {
				out <- task.Fail(ctx.Err())
				return
			}
			if err := removeOne(ctx, p, u, trash); err != nil {
				out <- task.Adv(0, counts[i], 0)
				out <- task.Log("delete: " + u.String() + ": " + err.Error())
				continue
			}
			emit(cha.FilesOp{
				Kind: cha.OpDeleting,
				Cwd:  parentOf(u),
				Urns: map[string]struct{}{(cha.File{Url: u}).Urn(): {}},
			})
			out <- task.Adv(counts[i], 0, 0)
		}
		out <- task.Succ()
	}
}

func countEntries(ctx context.Context, p vfs.Provider, u vfsurl.Url) (int64, error) {
	c, err := p.SymlinkMetadata(ctx, u)
	if err != nil {
		return 0, err
	}
	if !c.IsDir() {
		return 1, nil
	}
	children, err := p.ReadDir(ctx, u)
	if err != nil {
		return 0, err
	}
	var total int64 = 1
	for _, child := range children {
		n, err := countEntries(ctx, p, child.Url)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func removeOne(ctx context.Context, p vfs.Provider, u vfsurl.Url, trash bool) error {
	if trash {
		return p.Trash(ctx, u)
	}
	c, err := p.SymlinkMetadata(ctx, u)
	if err != nil {
		return err
	}
	if c.IsDir() {
		return p.RemoveDirAll(ctx, u)
	}
	return p.RemoveFile(ctx, u)
}
