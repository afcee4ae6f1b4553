package validate

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// MaxStringLength is the number of characters a sanitized string keeps.
const MaxStringLength = 1000

// PollutionKeys are removed from every sanitized map.
var PollutionKeys = []string{"__proto__", "constructor", "prototype"}

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTag     = regexp.MustCompile(`(?i)</?script\b[^>]*>?`)
	javascriptURI = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandler  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)

	// strictPolicy removes every remaining element and attribute.
	strictPolicy = bluemonday.StrictPolicy()
)

// maxMarkupPasses bounds how many layers of entity-encoded markup
// stripMarkup decodes before giving up and keeping the text escaped.
const maxMarkupPasses = 4

// SanitizeString strips script blocks, javascript: URIs and inline event
// handler attributes, removes any other markup and truncates the result to
// MaxStringLength characters.
func SanitizeString(s string) string {
	s = norm.NFC.String(s)
	if strings.ContainsAny(s, "<&") {
		s = stripMarkup(s)
	}
	s = scriptBlock.ReplaceAllString(s, "")
	s = scriptTag.ReplaceAllString(s, "")
	s = javascriptURI.ReplaceAllString(s, "")
	s = eventHandler.ReplaceAllString(s, "")
	return Truncate(s, MaxStringLength)
}

// stripMarkup runs the strict policy and decodes the entities it leaves
// until the text stops changing, so markup hidden behind entities is
// stripped once decoded. Input that does not settle stays escaped.
func stripMarkup(s string) string {
	for range maxMarkupPasses {
		plain := html.UnescapeString(strictPolicy.Sanitize(s))
		if plain == s {
			return plain
		}
		s = plain
	}
	return strictPolicy.Sanitize(s)
}

func sanitizeParams(p params.Map) Result {
	r := Result{Valid: true, Sanitized: params.Map{}}
	for _, k := range PollutionKeys {
		if _, ok := p[k]; ok {
			r.Dropped = append(r.Dropped, k)
		}
	}
	for k, v := range p {
		if isPollutionKey(k) {
			continue
		}
		if s, ok := v.(params.String); ok {
			r.Sanitized[k] = params.String(SanitizeString(string(s)))
		}
	}
	return r
}

func isPollutionKey(k string) bool {
	for _, pk := range PollutionKeys {
		if k == pk {
			return true
		}
	}
	return false
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
