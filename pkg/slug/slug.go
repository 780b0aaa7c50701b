package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// fold maps common Latin letters with diacritics to ASCII.
var fold = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ä", "a", "ã", "a", "å", "a",
	"ç", "c", "ć", "c", "č", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"ğ", "g",
	"í", "i", "ì", "i", "î", "i", "ï", "i", "ı", "i",
	"ñ", "n", "ń", "n",
	"ó", "o", "ò", "o", "ô", "o", "ö", "o", "õ", "o", "ø", "o",
	"ś", "s", "š", "s", "ş", "s", "ß", "ss",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ý", "y", "ÿ", "y",
	"ź", "z", "ż", "z", "ž", "z",
)

// Generate creates a URL-friendly slug: lowercase ASCII words joined by
// single hyphens.
//
//   - "Running Shoes" → "running-shoes"
//   - "Crème Brûlée" → "creme-brulee"
//   - "  --Çocuk  Ürünleri!" → "cocuk-urunleri"
func Generate(name string) string {
	s := fold.Replace(strings.ToLower(strings.TrimSpace(name)))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Words splits name into its slug words.
func Words(name string) []string {
	s := Generate(name)
	if s == "" {
		return nil
	}
	return strings.Split(s, "-")
}
