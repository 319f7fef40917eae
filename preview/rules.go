package preview

import "strings"

// Rule binds a MIME pattern to the plugin that should render it. Rules
// are evaluated in declaration order and the first match wins (§4.5).
type Rule struct {
	// MimePattern matches either a full "type/subtype" or a "type/*"
	// prefix, the same shorthand the fetcher's sniff result is compared
	// against.
	MimePattern string
	PluginIdx   int
	PluginName  string
	Plugin      PluginFunc
}

// Rules is an ordered rule list with first-match-wins lookup.
type Rules []Rule

// Match returns the first rule whose pattern matches mime, and true; or
// the zero Rule and false if none match.
func (rs Rules) Match(mime string) (Rule, bool) {
	for _, r := range rs {
		if ruleMatches(r.MimePattern, mime) {
			return r, true
		}
	}
	return Rule{}, false
}

func ruleMatches(pattern, mime string) bool {
	if pattern == mime {
		return true
	}
	typ, _, ok := strings.Cut(pattern, "/*")
	if !ok {
		return false
	}
	mimeType, _, _ := strings.Cut(mime, "/")
	return typ == mimeType
}
