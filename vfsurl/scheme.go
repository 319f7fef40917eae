// Package vfsurl implements the addressed-object value type shared by every
// other package in this module: a scheme-qualified path that can name a
// location on the local disk, inside a search result, inside an archive, or
// on a remote SFTP host.
package vfsurl

import "fmt"

// SchemeKind identifies which backend a Url routes to.
type SchemeKind uint8

const (
	Regular SchemeKind = iota
	Search
	Archive
	Sftp
)

func (k SchemeKind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Search:
		return "search"
	case Archive:
		return "archive"
	case Sftp:
		return "sftp"
	default:
		return fmt.Sprintf("SchemeKind(%d)", uint8(k))
	}
}

// Virtual reports whether this scheme kind derives a cache path (§4.1):
// true for Archive and Sftp, false for Regular and Search. Regular and
// Search both operate on the local filesystem directly and never get a
// cache path of their own.
func (k SchemeKind) Virtual() bool {
	return k == Archive || k == Sftp
}

// Local reports whether this scheme kind is routed to the local
// filesystem backend by the VFS provider (§4.2): Regular and Search.
func (k SchemeKind) Local() bool {
	return k == Regular || k == Search
}

// Scheme is the (kind, domain) pair that prefixes a virtual Url. Regular
// urls always carry an empty Domain.
type Scheme struct {
	Kind   SchemeKind
	Domain string
}

func (s Scheme) String() string {
	if s.Kind == Regular {
		return ""
	}
	return fmt.Sprintf("%s://%s", s.Kind, s.Domain)
}

// Covariant reports whether two schemes can be meaningfully compared for
// filesystem equivalence: both local (Regular/Search, §4.1), or both
// virtual with an identical kind and domain.
func (s Scheme) Covariant(o Scheme) bool {
	if s.Kind.Local() && o.Kind.Local() {
		return true
	}
	return s.Kind == o.Kind && s.Domain == o.Domain
}
