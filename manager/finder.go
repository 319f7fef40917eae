package manager

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dirsail/dirsail/cha"
	"github.com/dirsail/dirsail/vfsurl"
)

// FinderCase selects how Finder's query matches case.
type FinderCase uint8

const (
	FinderSmart FinderCase = iota
	FinderSensitive
	FinderInsensitive
)

// finderCapacity bounds the number of tracked match positions; a match
// beyond the cap is still reported (see MatchedIdx) but without an
// ordinal, the same tradeoff the original manager's Finder makes.
const finderCapacity = 100

// Finder is incremental filename-search state scoped to one tab (§3
// "additions"): a compiled query plus the ordinal position of each
// matching entry in the current listing, refreshed lazily against a
// Files snapshot's revision counter.
type Finder struct {
	query    *regexp.Regexp
	matched  map[string]int // url.Display() -> ordinal
	order    []string
	revision uint64
}

// NewFinder compiles s per the requested case policy. FinderSmart is
// case-insensitive unless s itself contains an uppercase rune.
func NewFinder(s string, c FinderCase) (*Finder, error) {
	pattern := s
	switch c {
	case FinderSmart:
		if !hasUpper(s) {
			pattern = "(?i)" + s
		}
	case FinderInsensitive:
		pattern = "(?i)" + s
	case FinderSensitive:
		// pattern unchanged
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("manager: compile finder query %q: %w", s, err)
	}
	return &Finder{query: re, matched: map[string]int{}}, nil
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func (f *Finder) matchesName(name string) bool { return f.query.MatchString(name) }

// Prev returns the cursor-relative offset of the nearest matching entry
// searching backward from cursor, or false if nothing matches. When
// include is true the entry at cursor itself is eligible.
func (f *Finder) Prev(files *cha.Files, cursor int, include bool) (int, bool) {
	view := files.View()
	n := len(view)
	if n == 0 {
		return 0, false
	}
	start := 1
	if include {
		start = 0
	}
	for i := start; i < n; i++ {
		idx := ((cursor-i)%n + n) % n
		if f.matchesName(view[idx].Urn()) {
			return idx - cursor, true
		}
	}
	return 0, false
}

// Next is Prev's forward-searching counterpart.
func (f *Finder) Next(files *cha.Files, cursor int, include bool) (int, bool) {
	view := files.View()
	n := len(view)
	if n == 0 {
		return 0, false
	}
	start := 1
	if include {
		start = 0
	}
	for i := start; i < n; i++ {
		idx := (cursor + i) % n
		if f.matchesName(view[idx].Urn()) {
			return idx - cursor, true
		}
	}
	return 0, false
}

// Catchup re-derives the matched set against files if its revision has
// advanced, reporting whether a re-derivation happened.
func (f *Finder) Catchup(files *cha.Files) bool {
	if files.Revision() == f.revision {
		return false
	}
	f.matched = map[string]int{}
	f.order = nil

	for _, file := range files.View() {
		if !f.matchesName(file.Urn()) {
			continue
		}
		key := file.Url.Display()
		f.matched[key] = len(f.order)
		f.order = append(f.order, key)
		if len(f.matched) >= finderCapacity {
			break
		}
	}
	f.revision = files.Revision()
	return true
}

// Matched returns the url of every tracked match, in encounter order.
func (f *Finder) Matched() []vfsurl.Url {
	out := make([]vfsurl.Url, 0, len(f.order))
	for _, key := range f.order {
		u, err := vfsurl.Parse(key)
		if err != nil {
			continue
		}
		out = append(out, u)
	}
	return out
}

// HasMatched reports whether any entry currently matches.
func (f *Finder) HasMatched() bool { return len(f.matched) > 0 }

// MatchedIdx returns u's ordinal position, if tracked; if u matches the
// query but fell past finderCapacity during Catchup, it returns
// finderCapacity (matched but untracked), mirroring the original
// Finder's "Some(100)" fallback.
func (f *Finder) MatchedIdx(u vfsurl.Url) (int, bool) {
	if idx, ok := f.matched[u.Display()]; ok {
		return idx, true
	}
	if f.matchesName(urnOf(u)) {
		return finderCapacity, true
	}
	return 0, false
}

func urnOf(u vfsurl.Url) string {
	p := u.Path()
	i := strings.LastIndexByte(p, '/')
	return p[i+1:]
}

// Explode splits name into the text before, within, and after the
// query's first match, for highlight rendering. ok is false when name
// doesn't match.
func (f *Finder) Explode(name string) (head, body, tail string, ok bool) {
	loc := f.query.FindStringIndex(name)
	if loc == nil {
		return "", "", "", false
	}
	return name[:loc[0]], name[loc[0]:loc[1]], name[loc[1]:], true
}
