package cha

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// SortBy selects the key Files sorts by.
type SortBy uint8

const (
	SortByNatural SortBy = iota
	SortByModified
	SortByCreated
	SortBySize
	SortByExtension
)

// SortPolicy mirrors the Rust source's sort configuration (§3).
type SortPolicy struct {
	By        SortBy
	Sensitive bool
	Reverse   bool
	DirFirst  bool
	Translit  bool
}

// Filter is an optional case-insensitive/regex filter over file names.
type Filter struct {
	re *regexp.Regexp
}

// NewFilter compiles pattern. When caseSensitive is false the pattern is
// matched case-insensitively.
func NewFilter(pattern string, caseSensitive bool) (*Filter, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Filter{re: re}, nil
}

func (f *Filter) matches(name string) bool {
	if f == nil {
		return true
	}
	return f.re.MatchString(name)
}

// Files is an ordered, indexable directory snapshot: §3's "Files
// (directory snapshot)".
type Files struct {
	mu         sync.RWMutex
	items      []File
	sort       SortPolicy
	filter     *Filter
	showHidden bool
	sizes      map[string]uint64
	revision   uint64
}

// NewFiles creates an empty snapshot with the given defaults.
func NewFiles(sort SortPolicy, showHidden bool) *Files {
	return &Files{sort: sort, showHidden: showHidden, sizes: map[string]uint64{}}
}

// Revision returns the current monotonic mutation counter. Readers observe
// a monotonically non-decreasing Files.revision (§5).
func (fs *Files) Revision() uint64 { return atomic.LoadUint64(&fs.revision) }

func (fs *Files) bump() { atomic.AddUint64(&fs.revision, 1) }

// SetFilter replaces the active filter (nil clears it) and re-derives the
// visible ordering.
func (fs *Files) SetFilter(f *Filter) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.filter = f
	fs.bump()
}

// SetShowHidden toggles whether hidden entries are included in View.
func (fs *Files) SetShowHidden(show bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.showHidden = show
	fs.bump()
}

// Replace installs a brand-new full listing (the response to
// FilesOp::Full), discarding anything previously held.
func (fs *Files) Replace(items []File) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.items = append([]File(nil), items...)
	fs.sortLocked()
	fs.bump()
}

// Append adds items from a streaming Part chunk.
func (fs *Files) Append(items []File) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.items = append(fs.items, items...)
	fs.sortLocked()
	fs.bump()
}

// Upsert inserts-or-replaces entries keyed by urn (Upserting, §3).
func (fs *Files) Upsert(byUrn map[string]File) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	idx := make(map[string]int, len(fs.items))
	for i, f := range fs.items {
		idx[f.Urn()] = i
	}
	for urn, f := range byUrn {
		if i, ok := idx[urn]; ok {
			fs.items[i] = f
		} else {
			fs.items = append(fs.items, f)
			idx[urn] = len(fs.items) - 1
		}
	}
	fs.sortLocked()
	fs.bump()
}

// Delete removes entries keyed by urn (Deleting, §3).
func (fs *Files) Delete(urns map[string]struct{}) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := fs.items[:0:0]
	for _, f := range fs.items {
		if _, dead := urns[f.Urn()]; dead {
			continue
		}
		out = append(out, f)
	}
	fs.items = out
	fs.bump()
}

// SetSizes installs prefetched directory sizes (FilesOp::Size, §3).
func (fs *Files) SetSizes(sizes map[string]uint64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for urn, sz := range sizes {
		fs.sizes[urn] = sz
	}
	fs.bump()
}

// SizeOf returns a prefetched directory size, if known.
func (fs *Files) SizeOf(urn string) (uint64, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	sz, ok := fs.sizes[urn]
	return sz, ok
}

// Len returns the number of raw (unfiltered) entries held.
func (fs *Files) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.items)
}

// View returns the currently visible (filtered, hidden-aware) ordering.
// The result is a fresh slice safe for the caller to read without a lock.
func (fs *Files) View() []File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	out := make([]File, 0, len(fs.items))
	for _, f := range fs.items {
		if !fs.showHidden && f.Cha.IsHidden() {
			continue
		}
		if !fs.filter.matches(f.Urn()) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sortLocked re-sorts fs.items per the active SortPolicy. Applying it
// twice is idempotent per §8, since sort.SliceStable is a stable sort over
// a total order derived purely from the items' own fields.
func (fs *Files) sortLocked() {
	less := fs.lessFn()
	sort.SliceStable(fs.items, less)
}

func (fs *Files) lessFn() func(i, j int) bool {
	p := fs.sort
	return func(i, j int) bool {
		a, b := fs.items[i], fs.items[j]
		if p.DirFirst && a.Cha.IsDir() != b.Cha.IsDir() {
			return a.Cha.IsDir()
		}
		if p.Reverse {
			return compareBy(b, a, p)
		}
		return compareBy(a, b, p)
	}
}

func compareBy(a, b File, p SortPolicy) bool {
	switch p.By {
	case SortByModified:
		if !a.Cha.Modified.Equal(b.Cha.Modified) {
			return a.Cha.Modified.Before(b.Cha.Modified)
		}
	case SortByCreated:
		if !a.Cha.Created.Equal(b.Cha.Created) {
			return a.Cha.Created.Before(b.Cha.Created)
		}
	case SortBySize:
		if a.Cha.Len != b.Cha.Len {
			return a.Cha.Len < b.Cha.Len
		}
	case SortByExtension:
		ea, eb := extOf(a.Urn()), extOf(b.Urn())
		if ea != eb {
			return ea < eb
		}
	}
	an, bn := a.Urn(), b.Urn()
	if !p.Sensitive {
		an, bn = strings.ToLower(an), strings.ToLower(bn)
	}
	return naturalLess(an, bn)
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i+1:]
	}
	return ""
}

// naturalLess compares names the way a file manager's "natural sort" does:
// runs of digits compare numerically rather than lexically, so "file2"
// sorts before "file10".
func naturalLess(a, b string) bool {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ac, bc := a[ai], b[bi]
		if isDigit(ac) && isDigit(bc) {
			as, bs := ai, bi
			for ai < len(a) && isDigit(a[ai]) {
				ai++
			}
			for bi < len(b) && isDigit(b[bi]) {
				bi++
			}
			an, bn := strings.TrimLeft(a[as:ai], "0"), strings.TrimLeft(b[bs:bi], "0")
			if len(an) != len(bn) {
				return len(an) < len(bn)
			}
			if an != bn {
				return an < bn
			}
			continue
		}
		if ac != bc {
			return ac < bc
		}
		ai++
		bi++
	}
	return len(a)-ai < len(b)-bi
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
