// Package htmlsanitize cleans user-submitted text before it is stored.
//
// Rich fields (descriptions, blog content) keep a safe subset of HTML.
// Plain fields (titles, names, rejection reasons) lose all markup.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richOnce   sync.Once
	richPolicy *bluemonday.Policy

	plainOnce   sync.Once
	plainPolicy *bluemonday.Policy
)

func rich() *bluemonday.Policy {
	richOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "code", "pre")
		p.AllowElements("u", "s", "mark", "sub", "sup")
		richPolicy = p
	})
	return richPolicy
}

func plain() *bluemonday.Policy {
	plainOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return plainPolicy
}

// Sanitize keeps safe HTML and strips scripts, event handlers, iframes,
// styles, and javascript: links.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return rich().Sanitize(s)
}

// maxPlainPasses bounds how many layers of entity encoding PlainText peels.
const maxPlainPasses = 4

// PlainText removes every tag and trims surrounding space. Entities the
// policy escapes are restored so "R&D" stays "R&D". Unescaping can expose
// encoded markup, so the text is stripped again until it stops changing;
// input still changing after maxPlainPasses is returned escaped.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	cur := s
	for i := 0; i < maxPlainPasses; i++ {
		stripped := plain().Sanitize(cur)
		next := html.UnescapeString(stripped)
		if next == cur {
			return strings.TrimSpace(next)
		}
		cur = next
	}
	return strings.TrimSpace(plain().Sanitize(cur))
}

// PlainTexts applies PlainText to each element and drops empties.
func PlainTexts(in []string) []string {
	var out []string
	for _, s := range in {
		if v := PlainText(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// IsPlainText reports whether s contains no tags.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
