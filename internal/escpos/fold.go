// internal/escpos/fold.go
package escpos

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dStroke handles the letters NFD cannot decompose
var dStroke = strings.NewReplacer("đ", "d", "Đ", "D")

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldDiacritics converts accented text to its ASCII base form so that
// printers limited to single byte code pages do not garble item names.
func foldDiacritics(s string) string {
	s = dStroke.Replace(s)
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return out
}
