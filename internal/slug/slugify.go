package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is used when a name folds to nothing.
const Fallback = "provider"

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Lowercase letters with no canonical decomposition to ASCII.
var transliterate = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
)

// Slugify folds value to lowercase ASCII words joined by single hyphens.
// Ampersands read as "and"; apostrophes and other punctuation disappear;
// whitespace, underscores, and slashes separate words. The result may be empty.
func Slugify(value string) string {
	folded, _, err := transform.String(stripMarks, value)
	if err != nil {
		folded = value
	}
	folded = transliterate.Replace(strings.ToLower(folded))

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	writeWord := func(word string) {
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteString(word)
	}
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			writeWord(string(r))
		case r == '&':
			pendingHyphen = true
			writeWord("and")
			pendingHyphen = true
		case unicode.IsSpace(r), r == '-', r == '_', r == '/':
			pendingHyphen = true
		default:
			// Apostrophes, other punctuation, and any remaining non-ASCII
			// letters are dropped without splitting the word.
		}
	}
	return b.String()
}

// suffix returns the last n characters of id restricted to [a-z0-9].
func suffix(id string, n int) string {
	var kept []byte
	lowered := strings.ToLower(id)
	for i := 0; i < len(lowered); i++ {
		c := lowered[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			kept = append(kept, c)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return string(kept)
}
