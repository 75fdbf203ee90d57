package script

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// RepairMojibake undoes the common transport defect where UTF-8 bytes were
// decoded as ISO-8859-1. The input is only touched when every rune fits in a
// single byte, at least one of them is in the 0x80-0xFF range and the
// re-encoded bytes form valid UTF-8.
func RepairMojibake(s string) string {
	high := false
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		if r >= 0x80 {
			high = true
		}
	}
	if !high {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// FoldWidth applies NFKC so that full-width Latin letters and digits become
// ASCII and half-width katakana become full-width.
func FoldWidth(s string) string {
	return norm.NFKC.String(s)
}
