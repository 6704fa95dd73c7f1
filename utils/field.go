package utils

import (
	"regexp"
	"strings"
)

// FieldPattern is a named, precompiled search rule for one scalar field.
// Patterns are built once per document type and are safe for concurrent use.
type FieldPattern struct {
	Label string
	re    *regexp.Regexp
}

// MustFieldPattern compiles expr case-insensitively with ^ and $ matching at
// line boundaries. It panics on an invalid expression, so it is meant for
// package-level pattern tables.
func MustFieldPattern(label, expr string) FieldPattern {
	return FieldPattern{Label: label, re: regexp.MustCompile(`(?im)` + expr)}
}

// MustFieldPatternDotAll is MustFieldPattern with '.' also matching newlines,
// for patterns that look for a value some lines after an anchor label.
func MustFieldPatternDotAll(label, expr string) FieldPattern {
	return FieldPattern{Label: label, re: regexp.MustCompile(`(?ims)` + expr)}
}

// ExtractedField is the outcome of one field lookup. Found is false when the
// pattern did not match anywhere; Value is then empty.
type ExtractedField struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// Find returns the first capture group of the first match (or the whole match
// when the pattern has no group), trimmed. It returns "" when nothing matches.
func Find(p FieldPattern, text string) string {
	return FindField(p, text).Value
}

// FindField is Find with an explicit found/absent outcome.
func FindField(p FieldPattern, text string) ExtractedField {
	out := ExtractedField{Label: p.Label}
	if p.re == nil {
		return out
	}

	loc := p.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return out
	}
	out.Found = true
	out.Value = strings.TrimSpace(submatch(text, loc, p.re.NumSubexp()))
	return out
}

// FindLast returns the value of the last non-overlapping match, or "".
func FindLast(p FieldPattern, text string) string {
	if p.re == nil {
		return ""
	}
	all := p.re.FindAllStringSubmatchIndex(text, -1)
	if len(all) == 0 {
		return ""
	}
	return strings.TrimSpace(submatch(text, all[len(all)-1], p.re.NumSubexp()))
}

func submatch(text string, loc []int, groups int) string {
	if groups == 0 {
		return text[loc[0]:loc[1]]
	}
	if loc[2] < 0 {
		return ""
	}
	return text[loc[2]:loc[3]]
}
