package utils

import (
	"strings"
)

// quantityReplacer maps glyphs Tesseract commonly confuses with digits.
// No replacement produces another key, so order does not matter.
var quantityReplacer = strings.NewReplacer(
	"I", "1",
	"l", "1",
	"!", "1",
	"§", "5",
	"s", "5",
	"S", "5",
	"O", "0",
)

// NormalizeQuantity repairs OCR digit confusions in a quantity token and drops
// everything that is not a decimal digit. The result may be empty.
func NormalizeQuantity(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	val = quantityReplacer.Replace(val)

	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, val)
}

// NormalizeCode removes the spaces OCR inserted inside a product code,
// e.g. "20. 483 .639" -> "20.483.639". Only U+0020 is removed; a tab inside
// a code is kept as read.
func NormalizeCode(raw string) string {
	return strings.ReplaceAll(raw, " ", "")
}
