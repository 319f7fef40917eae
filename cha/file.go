package cha

import (
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/dirsail/dirsail/vfsurl"
)

// File is the immutable-after-insertion record held in a Files container
// (§3): "Files are never mutated in place after insertion — updates
// replace."
type File struct {
	Url    vfsurl.Url
	Cha    Cha
	LinkTo *vfsurl.Url
}

// Urn returns the file's terminal name, used as the key in sizes maps and
// FilesOp payloads.
func (f File) Urn() string {
	p := f.Url.Path()
	i := len(p) - 1
	for i >= 0 && p[i] != '/' {
		i--
	}
	return p[i+1:]
}

// FromFileInfo builds a File from a stdlib os.FileInfo, the way the local
// VFS backend and the watcher both construct one after a stat/lstat call
// (grounded in rclone backend/local's attribute-mapping pattern).
func FromFileInfo(u vfsurl.Url, fi os.FileInfo, followedSymlink bool) File {
	c := Cha{
		Perm:     fi.Mode().Perm(),
		Len:      uint64(fi.Size()),
		Modified: fi.ModTime(),
	}
	mode := fi.Mode()
	switch {
	case mode.IsDir():
		c.Kind |= KindDir
	case mode&fs.ModeSymlink != 0:
		c.Kind |= KindLink
	case mode&fs.ModeNamedPipe != 0:
		c.Kind |= KindFifo
	case mode&fs.ModeSocket != 0:
		c.Kind |= KindSocket
	case mode&fs.ModeDevice != 0:
		if mode&fs.ModeCharDevice != 0 {
			c.Kind |= KindChar
		} else {
			c.Kind |= KindBlock
		}
	}
	if len(fi.Name()) > 0 && fi.Name()[0] == '.' {
		c.Kind |= KindHidden
	}
	if followedSymlink {
		c.Kind |= KindFollow
	}
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		c.Dev = uint64(sys.Dev)
		c.Uid = sys.Uid
		c.Gid = sys.Gid
		c.Nlink = uint64(sys.Nlink)
		c.Accessed = time.Unix(sys.Atim.Sec, sys.Atim.Nsec)
		c.Changed = time.Unix(sys.Ctim.Sec, sys.Ctim.Nsec)
		c.Created = c.Modified
	} else {
		c.Accessed, c.Changed, c.Created = c.Modified, c.Modified, c.Modified
	}
	return File{Url: u, Cha: c}
}
