package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

/*
Slugify derives a URL-safe identifier from a display title: diacritics are
stripped, the result is lowercased and every run of characters outside
[a-z0-9] becomes a single hyphen. Slugify(Slugify(x)) == Slugify(x).
*/
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	stripped, _, err := transform.String(t, title)
	if err != nil {
		stripped = title
	}

	stripped = strings.ToLower(stripped)

	b := strings.Builder{}
	pendingHyphen := false

	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}

			pendingHyphen = false
			b.WriteRune(r)
			continue
		}

		pendingHyphen = true
	}

	return b.String()
}
