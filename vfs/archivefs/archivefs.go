// Package archivefs implements vfs.Provider for the Archive scheme kind:
// read-only traversal of tar/tar.gz/tar.zst/zip containers, grounded on
// rclone's backend/archive/archive.go (wrapping a container as a
// browsable tree) and backend/archive/base/base.go (node/prefix
// bookkeeping), reimplemented directly against the stdlib archive/tar and
// archive/zip packages plus klauspost/compress/zstd instead of rclone's
// VFS-wrapping approach.
package archivefs

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/vfs"
	"github.com/dirsail/dirsail/vfsurl"
)

// listingTTL bounds how long a walked archive's directory listing is
// trusted before being re-derived, per §4.2a ("skips the re-walk" as long
// as mtime matches; the TTL is a belt-and-suspenders bound on top of the
// mtime check).
const listingTTL = 5 * time.Minute

type entry struct {
	name    string // path inside the archive, slash-separated, no leading slash
	cha     cha.Cha
	tarName string   // original tar header name, for re-extraction
	zipFile *zip.File
}

type listing struct {
	mtime   time.Time
	entries map[string]entry // keyed by name
}

// Provider implements vfs.Provider for Archive urls.
type Provider struct {
	cache *gocache.Cache
}

func New() *Provider {
	return &Provider{cache: gocache.New(listingTTL, listingTTL)}
}

var _ vfs.Provider = (*Provider)(nil)

// split locates the on-disk archive file within u's path and the
// slash-separated path of the entry requested inside it. u.Base() already
// resolves to the archive file's own path per the (uri, urn) port
// convention described in §4.1.
func split(u vfsurl.Url) (archivePath, inner string) {
	archivePath = u.Base()
	full := u.Path()
	rest := strings.TrimPrefix(full, archivePath)
	inner = strings.Trim(rest, "/")
	return
}

func (p *Provider) listingFor(archivePath string) (*listing, error) {
	fi, err := os.Stat(archivePath)
	if err != nil {
		return nil, err
	}
	if v, ok := p.cache.Get(archivePath); ok {
		l := v.(*listing)
		if l.mtime.Equal(fi.ModTime()) {
			return l, nil
		}
	}
	l, err := walkArchive(archivePath)
	if err != nil {
		return nil, err
	}
	l.mtime = fi.ModTime()
	p.cache.SetDefault(archivePath, l)
	return l, nil
}

func walkArchive(archivePath string) (*listing, error) {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return walkZip(archivePath)
	case strings.HasSuffix(lower, ".tar"):
		return walkTar(archivePath, func(r io.Reader) (io.Reader, error) { return r, nil })
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		return walkTar(archivePath, func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) })
	case strings.HasSuffix(lower, ".tar.zst"):
		return walkTar(archivePath, func(r io.Reader) (io.Reader, error) {
			zr, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		})
	default:
		return nil, fmt.Errorf("archivefs: unrecognized container format: %s", archivePath)
	}
}

func walkZip(archivePath string) (*listing, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	l := &listing{entries: make(map[string]entry)}
	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, "/")
		isDir := strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
		c := cha.Cha{Len: f.UncompressedSize64, Modified: f.Modified}
		if isDir {
			c.Kind |= cha.KindDir
		}
		l.entries[name] = entry{name: name, cha: c, zipFile: f}
		addAncestorDirs(l, name)
	}
	return l, nil
}

func walkTar(archivePath string, decompress func(io.Reader) (io.Reader, error)) (*listing, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompress(f)
	if err != nil {
		return nil, err
	}
	if rc, ok := r.(io.Closer); ok {
		defer rc.Close()
	}

	tr := tar.NewReader(r)
	l := &listing{entries: make(map[string]entry)}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(strings.Trim(hdr.Name, "/"), "/")
		if name == "" {
			continue
		}
		c := cha.Cha{Len: uint64(hdr.Size), Modified: hdr.ModTime}
		if hdr.Typeflag == tar.TypeDir {
			c.Kind |= cha.KindDir
		} else if hdr.Typeflag == tar.TypeSymlink {
			c.Kind |= cha.KindLink
		}
		l.entries[name] = entry{name: name, cha: c, tarName: hdr.Name}
		addAncestorDirs(l, name)
	}
	return l, nil
}

// addAncestorDirs synthesizes directory entries for path components that
// never get their own explicit tar/zip header, matching how real
// archivers usually emit directory entries (but not always).
func addAncestorDirs(l *listing, name string) {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, ok := l.entries[dir]; ok {
			continue
		}
		l.entries[dir] = entry{name: dir, cha: cha.Cha{Kind: cha.KindDir}}
	}
}

func (p *Provider) Metadata(_ context.Context, u vfsurl.Url) (cha.Cha, error) {
	archivePath, inner := split(u)
	l, err := p.listingFor(archivePath)
	if err != nil {
		return cha.Dummy(), err
	}
	if inner == "" {
		return cha.Cha{Kind: cha.KindDir}, nil
	}
	e, ok := l.entries[inner]
	if !ok {
		return cha.Dummy(), os.ErrNotExist
	}
	return e.cha, nil
}

func (p *Provider) SymlinkMetadata(ctx context.Context, u vfsurl.Url) (cha.Cha, error) {
	return p.Metadata(ctx, u)
}

func (p *Provider) ReadDir(_ context.Context, u vfsurl.Url) ([]cha.File, error) {
	archivePath, inner := split(u)
	l, err := p.listingFor(archivePath)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []cha.File
	for name, e := range l.entries {
		dir, base := path.Split(name)
		dir = strings.TrimSuffix(dir, "/")
		if dir != inner || base == "" || seen[base] {
			continue
		}
		seen[base] = true
		out = append(out, cha.File{Url: vfsurl.Join(u, base), Cha: e.cha})
	}
	return out, nil
}

func (p *Provider) ReadLink(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	return vfsurl.Url{}, xerrors.ErrUnsupportedScheme
}

type bufFile struct {
	*bytes.Reader
}

func (b *bufFile) Write([]byte) (int, error) { return 0, xerrors.ErrUnsupportedScheme }
func (b *bufFile) Close() error              { return nil }

func (p *Provider) Create(_ context.Context, u vfsurl.Url, opts vfs.GateOptions) (vfs.File, error) {
	if opts.Write || opts.Create || opts.CreateNew || opts.Truncate {
		return nil, xerrors.ErrUnsupportedScheme
	}
	archivePath, inner := split(u)
	l, err := p.listingFor(archivePath)
	if err != nil {
		return nil, err
	}
	e, ok := l.entries[inner]
	if !ok {
		return nil, os.ErrNotExist
	}
	data, err := extract(archivePath, e)
	if err != nil {
		return nil, err
	}
	return &bufFile{Reader: bytes.NewReader(data)}, nil
}

// extract fully materializes an entry's content. Neither gzip nor zstd
// tar streams support random access, so content is buffered in memory
// rather than exposed as a true streaming Reader; fine for the preview
// pipeline's size-bounded reads, unsuitable for huge archive members.
func extract(archivePath string, e entry) ([]byte, error) {
	if e.zipFile != nil {
		rc, err := e.zipFile.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	lower := strings.ToLower(archivePath)
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	case strings.HasSuffix(lower, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr.IOReadCloser()
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, os.ErrNotExist
		}
		if err != nil {
			return nil, err
		}
		if hdr.Name == e.tarName {
			return io.ReadAll(tr)
		}
	}
}

func (p *Provider) CreateDir(context.Context, vfsurl.Url) error    { return xerrors.ErrUnsupportedScheme }
func (p *Provider) CreateDirAll(context.Context, vfsurl.Url) error { return xerrors.ErrUnsupportedScheme }
func (p *Provider) RemoveFile(context.Context, vfsurl.Url) error   { return xerrors.ErrUnsupportedScheme }
func (p *Provider) RemoveDir(context.Context, vfsurl.Url) error    { return xerrors.ErrUnsupportedScheme }
func (p *Provider) RemoveDirAll(context.Context, vfsurl.Url) error { return xerrors.ErrUnsupportedScheme }
func (p *Provider) Rename(context.Context, vfsurl.Url, vfsurl.Url) error {
	return xerrors.ErrUnsupportedScheme
}
func (p *Provider) Copy(context.Context, vfsurl.Url, vfsurl.Url, func(int64)) error {
	return xerrors.ErrUnsupportedScheme
}
func (p *Provider) HardLink(context.Context, vfsurl.Url, vfsurl.Url) error {
	return xerrors.ErrUnsupportedScheme
}
func (p *Provider) Symlink(context.Context, vfsurl.Url, vfsurl.Url, bool) error {
	return xerrors.ErrUnsupportedScheme
}
func (p *Provider) Trash(context.Context, vfsurl.Url) error { return xerrors.ErrUnsupportedScheme }

func (p *Provider) Casefold(_ context.Context, u vfsurl.Url) (string, error) {
	archivePath, inner := split(u)
	l, err := p.listingFor(archivePath)
	if err != nil {
		return "", err
	}
	want := path.Base(inner)
	dir := path.Dir(inner)
	for name := range l.entries {
		if path.Dir(name) == dir && strings.EqualFold(path.Base(name), want) {
			return path.Base(name), nil
		}
	}
	return "", os.ErrNotExist
}

func (p *Provider) Absolute(_ context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	return u, nil
}
