// Package preview implements the previewer/preloader/fetcher/spot pipeline
// (§4.5): given a file and its sniffed MIME type, it renders either an
// Image artifact (handed to a pluggable terminal image adapter) or a Text
// artifact (styled lines), caches the result in a PreviewLock, and
// coalesces/deduplicates expensive preload work behind an LRU.
//
// Grounded on rclone's backend/cache (storage_persistent.go: a
// content-addressed cache keyed by a hash of the remote, fronting a
// pluggable storage backend) adapted from "cache remote bytes" to "cache
// rendered preview artifacts", and on gabriel-vasile/mimetype for sniffing
// (used directly by backend/compress's dedupe fingerprinting in the same
// pack).
package preview

import (
	"time"

	"github.com/dirsail/dirsail/cha"
)

// Rect is a terminal cell rectangle, the unit the image adapter contract
// draws into and erases (§4.5).
type Rect struct {
	X, Y, W, H uint16
}

// Overlaps reports whether r and other share at least one cell.
func (r Rect) Overlaps(other Rect) bool {
	if r.W == 0 || r.H == 0 || other.W == 0 || other.H == 0 {
		return false
	}
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// ArtifactKind tags the Artifact union.
type ArtifactKind uint8

const (
	ArtifactImage ArtifactKind = iota
	ArtifactText
)

// Artifact is the flat rendering of what a previewer plugin produced,
// mirroring cha.FilesOp's single-struct union style for a two-variant sum
// type.
type Artifact struct {
	Kind ArtifactKind

	// ArtifactImage
	CachePath string

	// ArtifactText
	Lines []string
}

// PreviewLock is the cached result of the last successful preview for a
// file, compared on (url, skip, len, mtime, kind, permissions) to decide
// whether a refresh is needed (§4.5).
type PreviewLock struct {
	Url         string
	Skip        int
	Len         uint64
	Mtime       time.Time
	Kind        cha.Kind
	Permissions uint32

	Artifact Artifact
	Shown    Rect
}

// Matches reports whether lock is still valid for a (file, skip) pair,
// i.e. nothing the previewer cares about has changed since it rendered.
func (l PreviewLock) Matches(f cha.File, skip int) bool {
	return l.Url == f.Url.Display() &&
		l.Skip == skip &&
		l.Len == f.Cha.Len &&
		l.Mtime.Equal(f.Cha.Modified) &&
		l.Kind == f.Cha.Kind &&
		l.Permissions == uint32(f.Cha.Perm)
}

func lockKeyOf(f cha.File) PreviewLock {
	return PreviewLock{
		Url:         f.Url.Display(),
		Len:         f.Cha.Len,
		Mtime:       f.Cha.Modified,
		Kind:        f.Cha.Kind,
		Permissions: uint32(f.Cha.Perm),
	}
}
