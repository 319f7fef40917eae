// Package cha implements the cached file-attribute record ("change-attrs")
// and the directory-snapshot container built from it (§3 of the spec).
package cha

import (
	"os"
	"time"
)

// Kind is a bitflag set describing what sort of filesystem entry a Cha
// represents.
type Kind uint16

const (
	KindDir Kind = 1 << iota
	KindHidden
	KindLink
	KindOrphan
	KindBlock
	KindChar
	KindFifo
	KindSocket
	// KindDummy flags entries synthesized because a stat call failed.
	KindDummy
	// KindFollow marks a record that was resolved through a symlink.
	KindFollow
)

func (k Kind) Has(f Kind) bool { return k&f != 0 }

// Cha is a cached stat record: kind flags, permission bits, length, the
// four timestamps, and ownership/link metadata.
type Cha struct {
	Kind Kind
	Perm os.FileMode // permission bits only (no type bits)
	Len  uint64

	Accessed time.Time
	Created  time.Time
	Modified time.Time
	Changed  time.Time

	Dev   uint64
	Uid   uint32
	Gid   uint32
	Nlink uint64
}

// IsDir, IsHidden, IsLink, IsOrphan, IsDummy are the common predicates
// derived from Kind.
func (c Cha) IsDir() bool    { return c.Kind.Has(KindDir) }
func (c Cha) IsHidden() bool { return c.Kind.Has(KindHidden) }
func (c Cha) IsLink() bool   { return c.Kind.Has(KindLink) }
func (c Cha) IsOrphan() bool { return c.Kind.Has(KindOrphan) }
func (c Cha) IsDummy() bool  { return c.Kind.Has(KindDummy) }

// Dummy returns a Cha flagged KindDummy, used when symlink_metadata/stat
// fails but the caller still needs a placeholder record (§3).
func Dummy() Cha {
	return Cha{Kind: KindDummy}
}
