package bluos

import (
	"regexp"
	"strings"
	"sync"
)

// Tag extraction by regex instead of a full XML parser: BluOS documents are
// flat, the tag set is fixed, and real firmware emits attributes and
// occasionally unescaped content that trips strict decoders.

var (
	tagPatterns   = make(map[string]*regexp.Regexp)
	tagPatternsMu sync.RWMutex
)

// ExtractTag returns the content of the first case-insensitive occurrence
// of <tag ...>...</tag> in the document, with the five standard XML
// entities decoded and surrounding whitespace trimmed. Returns "" when the
// tag is absent.
func ExtractTag(xml, tag string) string {
	re := patternFor(tag)
	m := re.FindStringSubmatch(xml)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(decodeEntities(m[1]))
}

func patternFor(tag string) *regexp.Regexp {
	tagPatternsMu.RLock()
	re, ok := tagPatterns[tag]
	tagPatternsMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `[^>]*>(.*?)</` + regexp.QuoteMeta(tag) + `>`)

	tagPatternsMu.Lock()
	tagPatterns[tag] = re
	tagPatternsMu.Unlock()
	return re
}

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
