// Package vfs is the filesystem-provider facade (§4.2): it exposes one
// interface implemented per scheme backend (local, sftp, archive) and a
// Router that dispatches on a Url's scheme kind, the way rclone's `fs.Fs`
// interface is implemented once per backend and selected by `fs.NewFs`'s
// remote-string parsing (backend/local/local.go, backend/sftp/sftp.go,
// backend/archive/archive.go).
package vfs

import (
	"context"
	"io"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/vfsurl"
)

// File is the handle returned by Create: a read/write/seek/close
// surface implemented identically whether it's backed by a local
// *os.File or a remote SFTP file (§4.2's "Gate").
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// GateOptions controls how Create opens a path (§4.2's "Gate (open
// builder)").
type GateOptions struct {
	Append     bool
	Cha        *cha.Cha // permissions/timestamps to apply to the new file
	Create     bool
	CreateNew  bool
	Read       bool
	Truncate   bool
	Write      bool
}

// Provider is the per-scheme filesystem backend interface (§4.2).
type Provider interface {
	Metadata(ctx context.Context, u vfsurl.Url) (cha.Cha, error)
	SymlinkMetadata(ctx context.Context, u vfsurl.Url) (cha.Cha, error)
	ReadDir(ctx context.Context, u vfsurl.Url) ([]cha.File, error)
	ReadLink(ctx context.Context, u vfsurl.Url) (vfsurl.Url, error)

	Create(ctx context.Context, u vfsurl.Url, opts GateOptions) (File, error)
	CreateDir(ctx context.Context, u vfsurl.Url) error
	CreateDirAll(ctx context.Context, u vfsurl.Url) error

	RemoveFile(ctx context.Context, u vfsurl.Url) error
	RemoveDir(ctx context.Context, u vfsurl.Url) error
	RemoveDirAll(ctx context.Context, u vfsurl.Url) error

	Rename(ctx context.Context, src, dst vfsurl.Url) error
	Copy(ctx context.Context, src, dst vfsurl.Url, onProgress func(deltaBytes int64)) error
	HardLink(ctx context.Context, src, dst vfsurl.Url) error
	Symlink(ctx context.Context, target, link vfsurl.Url, relative bool) error
	Trash(ctx context.Context, u vfsurl.Url) error

	// Casefold resolves the on-disk final path component's actual case,
	// important on case-insensitive filesystems (§4.2).
	Casefold(ctx context.Context, u vfsurl.Url) (string, error)
	Absolute(ctx context.Context, u vfsurl.Url) (vfsurl.Url, error)
}
