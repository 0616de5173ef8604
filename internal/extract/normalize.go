package extract

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const arabicThousandsSeparator = '٬'

// digitFolder maps localized digits to ASCII and the Arabic thousands
// separator to ','.
var digitFolder = runes.Map(func(r rune) rune {
	switch {
	case r >= '۰' && r <= '۹': // Extended Arabic-Indic (Persian)
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩': // Arabic-Indic
		return '0' + (r - '٠')
	case r == arabicThousandsSeparator:
		return ','
	}
	return r
})

// Normalize folds digits and collapses whitespace runs to a single space.
func Normalize(text string) string {
	folded, _, err := transform.String(digitFolder, text)
	if err != nil {
		folded = text
	}
	return strings.Join(strings.Fields(folded), " ")
}
