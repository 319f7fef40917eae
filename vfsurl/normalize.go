package vfsurl

import "golang.org/x/text/unicode/norm"

// NormalizeNFC rewrites u's path segment-for-segment to Unicode
// Normalization Form C, mirroring the teacher local backend's
// unicode_normalization option: filesystems that themselves normalize
// names on creation (notably macOS's HFS+/APFS, which store NFD) can
// otherwise present a name that never compares equal, byte-for-byte, to
// the NFC form a caller constructed. Call this once at the point a path
// enters the system (CLI argument, watcher event) rather than on every
// comparison.
func NormalizeNFC(u Url) Url {
	segs := splitSegs(u.Path())
	abs := u.loc.String() != "" && u.loc.String()[0] == '/'
	changed := false
	for i, s := range segs {
		n := norm.NFC.String(s)
		if n != s {
			segs[i] = n
			changed = true
		}
	}
	if !changed {
		return u
	}
	out := u
	out.loc = NewOSLoc([]byte(joinSegs(segs, abs)))
	return out
}
