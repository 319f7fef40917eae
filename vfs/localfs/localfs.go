// Package localfs implements vfs.Provider for the Regular and Search
// scheme kinds: plain local-disk I/O, grounded on rclone's
// backend/local/local.go (NewFs/Open/Move/Copy dispatch shape, the
// case-fold verification idiom, and the `links`/symlink-translation
// option).
package localfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// Provider implements vfs.Provider against the OS filesystem.
type Provider struct{}

func New() *Provider { return &Provider{} }

var _ vfs.Provider = (*Provider)(nil)

func (p *Provider) Metadata(_ context.Context, u vfsurl.Url) (cha.Cha, error) {
	fi, err := os.Stat(u.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cha.Dummy(), err
		}
		return cha.Cha{}, err
	}
	return cha.FromFileInfo(u, fi, true).Cha, nil
}

func (p *Provider) SymlinkMetadata(_ context.Context, u vfsurl.Url) (cha.Cha, error) {
	fi, err := os.Lstat(u.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cha.Dummy(), err
		}
		return cha.Cha{}, err
	}
	c := cha.FromFileInfo(u, fi, false).Cha
	if c.IsLink() {
		if _, statErr := os.Stat(u.Path()); statErr != nil {
			c.Kind |= cha.KindOrphan
		}
	}
	return c, nil
}

func (p *Provider) ReadDir(_ context.Context, u vfsurl.Url) ([]cha.File, error) {
	entries, err := os.ReadDir(u.Path())
	if err != nil {
		return nil, err
	}
	out := make([]cha.File, 0, len(entries))
	for _, e := range entries {
		childURL := vfsurl.Join(u, e.Name())
		fi, err := e.Info()
		if err != nil {
			out = append(out, cha.File{Url: childURL, Cha: cha.Dummy()})
			continue
		}
		out = append(out, cha.FromFileInfo(childURL, fi, false))
	}
	return out, nil
}

func (p *Provider) ReadLink(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	target, err := os.Readlink(u.Path())
	if err != nil {
		return vfsurl.Url{}, err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(u.Path()), target)
	}
	return vfsurl.Parse(target)
}

// osFile adapts *os.File to vfs.File, applying GateOptions.Cha on Close.
type osFile struct {
	*os.File
	cha *cha.Cha
}

func (f *osFile) Close() error {
	err := f.File.Close()
	if err == nil && f.cha != nil {
		_ = os.Chmod(f.Name(), f.cha.Perm)
		if !f.cha.Modified.IsZero() {
			_ = os.Chtimes(f.Name(), f.cha.Accessed, f.cha.Modified)
		}
	}
	return err
}

func (p *Provider) Create(_ context.Context, u vfsurl.Url, opts vfs.GateOptions) (vfs.File, error) {
	flag := 0
	switch {
	case opts.Read && opts.Write:
		flag = os.O_RDWR
	case opts.Write:
		flag = os.O_WRONLY
	default:
		flag = os.O_RDONLY
	}
	if opts.Append {
		flag |= os.O_APPEND
	}
	if opts.Create {
		flag |= os.O_CREATE
	}
	if opts.CreateNew {
		flag |= os.O_CREATE | os.O_EXCL
	}
	if opts.Truncate {
		flag |= os.O_TRUNC
	}
	perm := os.FileMode(0o644)
	if opts.Cha != nil && opts.Cha.Perm != 0 {
		perm = opts.Cha.Perm
	}
	f, err := os.OpenFile(u.Path(), flag, perm)
	if err != nil {
		return nil, err
	}
	return &osFile{File: f, cha: opts.Cha}, nil
}

func (p *Provider) CreateDir(_ context.Context, u vfsurl.Url) error {
	return os.Mkdir(u.Path(), 0o755)
}

func (p *Provider) CreateDirAll(_ context.Context, u vfsurl.Url) error {
	return os.MkdirAll(u.Path(), 0o755)
}

func (p *Provider) RemoveFile(_ context.Context, u vfsurl.Url) error { return os.Remove(u.Path()) }
func (p *Provider) RemoveDir(_ context.Context, u vfsurl.Url) error  { return os.Remove(u.Path()) }
func (p *Provider) RemoveDirAll(_ context.Context, u vfsurl.Url) error {
	return os.RemoveAll(u.Path())
}

func (p *Provider) Rename(_ context.Context, src, dst vfsurl.Url) error {
	return os.Rename(src.Path(), dst.Path())
}

// copyChunk is the buffer size used by Copy's manual io.CopyBuffer loop,
// matching the teacher's multithread-copy buffer sizing order of
// magnitude (fs/operations multithread copy uses a similar fixed chunk).
const copyChunk = 1 << 20 // 1 MiB

// progressThrottle is the time after which Copy reports the bytes copied
// since its last progress callback; a callback also fires as soon as a
// full copyChunk has accumulated, whichever comes first (§4.4: "streams byte deltas to the scheduler every ~3s (or whenever
// the destination size advances)".
const progressThrottle = 3 * time.Second

func (p *Provider) Copy(ctx context.Context, src, dst vfsurl.Url, onProgress func(int64)) error {
	in, err := os.Open(src.Path())
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, copyChunk)
	last := time.Now()
	var sinceYield int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			sinceYield += int64(n)
			if onProgress != nil && (time.Since(last) >= progressThrottle || sinceYield >= copyChunk) {
				onProgress(sinceYield)
				sinceYield = 0
				last = time.Now()
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	if onProgress != nil && sinceYield > 0 {
		onProgress(sinceYield)
	}
	return out.Sync()
}

func (p *Provider) HardLink(_ context.Context, src, dst vfsurl.Url) error {
	return os.Link(src.Path(), dst.Path())
}

func (p *Provider) Symlink(_ context.Context, target, link vfsurl.Url, relative bool) error {
	targetPath := target.Path()
	if relative {
		rel, err := filepath.Rel(filepath.Dir(link.Path()), targetPath)
		if err == nil {
			targetPath = rel
		}
	}
	return os.Symlink(targetPath, link.Path())
}

// Trash moves u into a freedesktop.org-style trash directory under
// $XDG_DATA_HOME/Trash rather than permanently deleting it (§4.4). This is
// a minimal same-filesystem implementation; a full desktop-integrated
// recycle bin (with per-volume $topdir/.Trash-$uid directories) is out of
// scope for the core.
func (p *Provider) Trash(ctx context.Context, u vfsurl.Url) error {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	filesDir := filepath.Join(dataHome, "Trash", "files")
	infoDir := filepath.Join(dataHome, "Trash", "info")
	if err := os.MkdirAll(filesDir, 0o700); err != nil {
		return err
	}
	if err := os.MkdirAll(infoDir, 0o700); err != nil {
		return err
	}

	base := filepath.Base(u.Path())
	dest := filepath.Join(filesDir, base)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(filesDir, fmt.Sprintf("%s.%d", base, i))
	}

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n", u.Path(), time.Now().Format(time.RFC3339))
	infoPath := filepath.Join(infoDir, filepath.Base(dest)+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0o600); err != nil {
		return err
	}

	if err := os.Rename(u.Path(), dest); err != nil {
		if xerrors.IsCrossDevice(err) {
			destURL, perr := vfsurl.Parse(dest)
			if perr != nil {
				return perr
			}
			if cerr := p.Copy(ctx, u, destURL, nil); cerr != nil {
				return cerr
			}
			return os.RemoveAll(u.Path())
		}
		return err
	}
	return nil
}

// Casefold resolves the on-disk actual case of u's final path component by
// scanning the parent directory (§4.2): important on case-insensitive
// filesystems where a freshly created "Foo" might already exist as "foo".
func (p *Provider) Casefold(_ context.Context, u vfsurl.Url) (string, error) {
	dir := filepath.Dir(u.Path())
	want := filepath.Base(u.Path())
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if equalFold(e.Name(), want) {
			return e.Name(), nil
		}
	}
	return "", os.ErrNotExist
}

func equalFold(a, b string) bool {
	return bytes.EqualFold([]byte(a), []byte(b))
}

func (p *Provider) Absolute(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	abs, err := filepath.Abs(u.Path())
	if err != nil {
		return vfsurl.Url{}, err
	}
	return vfsurl.Parse(abs)
}
