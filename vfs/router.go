package vfs

import (
	"context"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/internal/xerrors"
	"github.com/dirsail/dirsail/vfsurl"
)

// Router dispatches Provider calls onto the concrete backend selected by
// a Url's scheme kind (§4.2): Regular/Search → local, Archive → the
// read-only archive backend, Sftp → a pooled per-domain session. Router
// itself implements Provider so callers never need to know which scheme
// they're holding.
type Router struct {
	Local   Provider
	Archive Provider
	Sftp    func(domain string) (Provider, error)
}

var _ Provider = (*Router)(nil)

func (r *Router) resolve(u vfsurl.Url) (Provider, error) {
	switch u.Scheme().Kind {
	case vfsurl.Regular, vfsurl.Search:
		return r.Local, nil
	case vfsurl.Archive:
		return r.Archive, nil
	case vfsurl.Sftp:
		return r.Sftp(u.Scheme().Domain)
	default:
		return nil, xerrors.ErrUnsupportedScheme
	}
}

func (r *Router) Metadata(ctx context.Context, u vfsurl.Url) (cha.Cha, error) {
	p, err := r.resolve(u)
	if err != nil {
		return cha.Cha{}, err
	}
	return p.Metadata(ctx, u)
}

func (r *Router) SymlinkMetadata(ctx context.Context, u vfsurl.Url) (cha.Cha, error) {
	p, err := r.resolve(u)
	if err != nil {
		return cha.Cha{}, err
	}
	return p.SymlinkMetadata(ctx, u)
}

func (r *Router) ReadDir(ctx context.Context, u vfsurl.Url) ([]cha.File, error) {
	p, err := r.resolve(u)
	if err != nil {
		return nil, err
	}
	return p.ReadDir(ctx, u)
}

func (r *Router) ReadLink(ctx context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	p, err := r.resolve(u)
	if err != nil {
		return vfsurl.Url{}, err
	}
	return p.ReadLink(ctx, u)
}

func (r *Router) Create(ctx context.Context, u vfsurl.Url, opts GateOptions) (File, error) {
	p, err := r.resolve(u)
	if err != nil {
		return nil, err
	}
	return p.Create(ctx, u, opts)
}

func (r *Router) CreateDir(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.CreateDir(ctx, u)
}

func (r *Router) CreateDirAll(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.CreateDirAll(ctx, u)
}

func (r *Router) RemoveFile(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.RemoveFile(ctx, u)
}

func (r *Router) RemoveDir(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.RemoveDir(ctx, u)
}

func (r *Router) RemoveDirAll(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.RemoveDirAll(ctx, u)
}

// crossProvider checks that src and dst resolve to the same backend
// instance; mutating cross-scheme operations are refused with the same
// vfsurl.ErrCrossScheme that vfsurl.StartsWith/StripPrefix return (§4.1).
func (r *Router) crossProvider(src, dst vfsurl.Url) (Provider, error) {
	if !src.Covariant(dst) {
		return nil, vfsurl.ErrCrossScheme
	}
	return r.resolve(src)
}

func (r *Router) Rename(ctx context.Context, src, dst vfsurl.Url) error {
	p, err := r.crossProvider(src, dst)
	if err != nil {
		return err
	}
	return p.Rename(ctx, src, dst)
}

func (r *Router) Copy(ctx context.Context, src, dst vfsurl.Url, onProgress func(int64)) error {
	p, err := r.crossProvider(src, dst)
	if err != nil {
		return err
	}
	return p.Copy(ctx, src, dst, onProgress)
}

func (r *Router) HardLink(ctx context.Context, src, dst vfsurl.Url) error {
	p, err := r.crossProvider(src, dst)
	if err != nil {
		return err
	}
	return p.HardLink(ctx, src, dst)
}

func (r *Router) Symlink(ctx context.Context, target, link vfsurl.Url, relative bool) error {
	p, err := r.crossProvider(target, link)
	if err != nil {
		return err
	}
	return p.Symlink(ctx, target, link, relative)
}

func (r *Router) Trash(ctx context.Context, u vfsurl.Url) error {
	p, err := r.resolve(u)
	if err != nil {
		return err
	}
	return p.Trash(ctx, u)
}

func (r *Router) Casefold(ctx context.Context, u vfsurl.Url) (string, error) {
	p, err := r.resolve(u)
	if err != nil {
		return "", err
	}
	return p.Casefold(ctx, u)
}

func (r *Router) Absolute(ctx context.Context, u vfsurl.Url) (vfsurl.Url, error) {
	p, err := r.resolve(u)
	if err != nil {
		return vfsurl.Url{}, err
	}
	return p.Absolute(ctx, u)
}
