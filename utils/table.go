package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

// Named groups understood by RowPattern.
const (
	GroupLine         = "line"
	GroupCode         = "code"
	GroupQtyOrdered   = "qty_ordered"
	GroupQtyDelivered = "qty_delivered"
	GroupDescription  = "desc"
)

// RowPattern is a compiled row shape. It must define the code and
// qty_ordered groups; line, qty_delivered and desc are optional.
type RowPattern struct {
	re     *regexp.Regexp
	groups map[string]int
}

// MustRowPattern compiles a row shape and panics if a required group is missing.
func MustRowPattern(expr string) RowPattern {
	re := regexp.MustCompile(expr)
	groups := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = i
		}
	}
	for _, required := range []string{GroupCode, GroupQtyOrdered} {
		if _, ok := groups[required]; !ok {
			panic(fmt.Sprintf("row pattern %q has no %q group", expr, required))
		}
	}
	return RowPattern{re: re, groups: groups}
}

func (p RowPattern) group(m []string, name string) (string, bool) {
	i, ok := p.groups[name]
	if !ok || i >= len(m) {
		return "", false
	}
	return m[i], m[i] != ""
}

// ScanMode is the state of one table scan.
type ScanMode int

const (
	// ScanModeScanning converts matching lines into rows.
	ScanModeScanning ScanMode = iota
	// ScanModeIgnoring drops every line; once entered it never changes back.
	ScanModeIgnoring
)

func (m ScanMode) String() string {
	if m == ScanModeIgnoring {
		return "ignoring"
	}
	return "scanning"
}

func (m ScanMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ScanState is owned by a single Scan call.
type ScanState struct {
	Mode ScanMode
}

// RejectReason says why a row-shaped line did not become a row.
type RejectReason string

const (
	RejectEmptyQuantity   RejectReason = "empty_quantity"
	RejectAfterStopMarker RejectReason = "after_stop_marker"
)

// RejectedLine is a row-shaped line that was dropped. Number is 1-based.
type RejectedLine struct {
	Number int          `json:"number"`
	Text   string       `json:"text"`
	Reason RejectReason `json:"reason"`
}

// ScanReport is the full outcome of a scan.
type ScanReport struct {
	Rows     []dto.TableRow `json:"rows"`
	Rejected []RejectedLine `json:"rejected"`
	// StopLine is the 1-based line that ended the table, 0 if none did.
	StopLine int `json:"stop_line"`
	// Mode is the scanner state after the last line.
	Mode ScanMode `json:"mode"`
}

// TableRowScanner recovers item rows from OCR text line by line until a
// stop marker line is seen.
type TableRowScanner struct {
	row  RowPattern
	stop *regexp.Regexp
}

// NewTableRowScanner creates a scanner. A nil stop pattern never stops.
func NewTableRowScanner(row RowPattern, stop *regexp.Regexp) *TableRowScanner {
	return &TableRowScanner{row: row, stop: stop}
}

// ScanTable is a convenience wrapper for a one-off scan.
func ScanTable(text string, row RowPattern, stop *regexp.Regexp) []dto.TableRow {
	return NewTableRowScanner(row, stop).Scan(text)
}

// Scan returns the rows in source order. It never returns nil.
func (s *TableRowScanner) Scan(text string) []dto.TableRow {
	return s.ScanDetailed(text).Rows
}

// ScanDetailed returns the rows together with every dropped candidate line.
func (s *TableRowScanner) ScanDetailed(text string) ScanReport {
	report := ScanReport{Rows: []dto.TableRow{}, Rejected: []RejectedLine{}}
	state := ScanState{Mode: ScanModeScanning}

	for i, line := range SplitLines(text) {
		number := i + 1

		if state.Mode == ScanModeScanning && s.stop != nil && s.stop.MatchString(line) {
			state.Mode = ScanModeIgnoring
			report.StopLine = number
			continue
		}

		m := s.row.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if state.Mode == ScanModeIgnoring {
			report.Rejected = append(report.Rejected, RejectedLine{Number: number, Text: line, Reason: RejectAfterStopMarker})
			continue
		}

		row, ok := s.buildRow(m)
		if !ok {
			report.Rejected = append(report.Rejected, RejectedLine{Number: number, Text: line, Reason: RejectEmptyQuantity})
			continue
		}
		report.Rows = append(report.Rows, row)
	}

	report.Mode = state.Mode
	return report
}

func (s *TableRowScanner) buildRow(m []string) (dto.TableRow, bool) {
	rawOrdered, _ := s.row.group(m, GroupQtyOrdered)
	rawDelivered, hasDelivered := s.row.group(m, GroupQtyDelivered)
	description, _ := s.row.group(m, GroupDescription)

	ordered := NormalizeQuantity(rawOrdered)
	if ordered == "" {
		return dto.TableRow{}, false
	}

	// A second token only counts as a quantity when it is numeric or a lone
	// (possibly misread) glyph; anything longer is text and the delivered
	// quantity falls back to the ordered one.
	delivered := ordered
	if hasDelivered {
		if isDigits(rawDelivered) || utf8.RuneCountInString(rawDelivered) == 1 {
			delivered = NormalizeQuantity(rawDelivered)
		} else if _, ok := s.row.groups[GroupDescription]; ok {
			description = strings.TrimSpace(rawDelivered + " " + description)
		}
	}

	code, _ := s.row.group(m, GroupCode)
	lineNo, _ := s.row.group(m, GroupLine)

	return dto.TableRow{
		LineNo:            lineNo,
		Code:              NormalizeCode(code),
		QuantityOrdered:   ordered,
		QuantityDelivered: delivered,
		Description:       strings.TrimSpace(description),
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// SplitLines splits text at every line boundary Tesseract may emit: LF, CR,
// CRLF, vertical tab, form feed, the ASCII separators 0x1c-0x1e, NEL and the
// Unicode line and paragraph separators. A trailing boundary does not produce
// an empty last line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\r':
			lines = append(lines, text[start:i])
			i += size
			if i < len(text) && text[i] == '\n' {
				i++
			}
			start = i
			continue
		case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
			lines = append(lines, text[start:i])
			i += size
			start = i
			continue
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
