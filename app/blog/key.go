package blog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// keySanitizer collapses every run of characters outside [a-z0-9] into a
// single underscore. Compiled once at package init, immutable afterwards.
var keySanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// keyFolder strips diacritics so accented titles still produce ASCII keys.
var keyFolder = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeKey derives a stable, URL- and filesystem-safe slug from a blog
// title. The derivation is deterministic and idempotent; two titles that
// sanitize identically collide by design.
func SanitizeKey(title string) string {
	folded, _, err := transform.String(keyFolder, title)
	if err != nil {
		folded = title
	}
	key := keySanitizer.ReplaceAllString(strings.ToLower(folded), "_")
	return strings.Trim(key, "_")
}
