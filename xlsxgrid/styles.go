package xlsxgrid

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"
)

// styleRegistry maps a cell style index (the s attribute on a cell) to a
// date flag derived from the style's number format. It is built once from
// the styles part and read-only afterwards. Index 0 is always present and
// defaults to non-date.
type styleRegistry struct {
	isDate []bool
}

// builtinDateFmtIDs are the built-in number format ids that denote date or
// time formats.
var builtinDateFmtIDs = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true,
	21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true,
	34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true,
	57: true, 58: true,
}

type xmlStyleSheet struct {
	XMLName xml.Name `xml:"styleSheet"`
	NumFmts struct {
		NumFmt []struct {
			NumFmtID   int    `xml:"numFmtId,attr"`
			FormatCode string `xml:"formatCode,attr"`
		} `xml:"numFmt"`
	} `xml:"numFmts"`
	CellXfs struct {
		Xf []struct {
			NumFmtID int `xml:"numFmtId,attr"`
		} `xml:"xf"`
	} `xml:"cellXfs"`
}

// readStyleRegistry parses the styles part. A nil reader (absent part) yields
// an empty registry, equivalent to all-non-date styles.
func readStyleRegistry(r io.Reader) (*styleRegistry, error) {
	if r == nil {
		return &styleRegistry{isDate: []bool{false}}, nil
	}

	var sheet xmlStyleSheet
	if err := xml.NewDecoder(r).Decode(&sheet); err != nil {
		return nil, malformed(stylesPart, err)
	}

	custom := make(map[int]string, len(sheet.NumFmts.NumFmt))
	for _, nf := range sheet.NumFmts.NumFmt {
		custom[nf.NumFmtID] = nf.FormatCode
	}

	reg := &styleRegistry{isDate: make([]bool, len(sheet.CellXfs.Xf)+1)}
	for i, xf := range sheet.CellXfs.Xf {
		if builtinDateFmtIDs[xf.NumFmtID] {
			reg.isDate[i] = true
		} else if code, ok := custom[xf.NumFmtID]; ok {
			reg.isDate[i] = IsDateFormatCode(code)
		}
	}
	return reg, nil
}

// dateFlagged reports whether the style at index styleIdx is date-formatted.
// Unknown indexes are non-date.
func (s *styleRegistry) dateFlagged(styleIdx int) bool {
	if s == nil || styleIdx < 0 || styleIdx >= len(s.isDate) {
		return false
	}
	return s.isDate[styleIdx]
}

// Date and number character dictionaries for format code analysis.
var dateCharSet = map[rune]bool{
	'y': true, 'Y': true, 'm': true, 'M': true, 'd': true, 'D': true,
	'h': true, 'H': true, 's': true, 'S': true,
}

var skipCharSet = map[rune]bool{
	'$': true, '-': true, '+': true, '/': true, '(': true, ')': true,
	':': true, ' ': true,
}

var numCharSet = map[rune]bool{
	'0': true, '#': true, '?': true,
}

var nonDateFormats = map[string]bool{
	"0.00E+00": true,
	"##0.0E+0": true,
	"General":  true,
	"GENERAL":  true,
	"general":  true,
	"@":        true,
}

var bracketedSection = regexp.MustCompile(`\[.*?\]`)

// IsDateFormatCode classifies a custom number format code as date/time or
// not.
//
// Heuristics:
// Ignore "text" in quotes and [stuff in square brackets].
// Handle backslash-escaped chars properly.
// Date formats have one or more of ymdhs (caseless) in them.
// Numeric formats have # and 0; text, percentage, currency, scientific and
// fraction patterns are never dates.
// Ambiguous codes classify as non-date: a wrong classification that yields a
// plain number beats silently mis-typing a number as a date.
func IsDateFormatCode(formatCode string) bool {
	state := 0
	var s strings.Builder

	for _, c := range formatCode {
		switch state {
		case 0:
			if c == '"' {
				state = 1
			} else if c == '\\' || c == '_' || c == '*' {
				state = 2
			} else if skipCharSet[c] {
				// skip
			} else {
				s.WriteRune(c)
			}
		case 1:
			if c == '"' {
				state = 0
			}
		case 2:
			// Ignore char after backslash, underscore or asterisk
			state = 0
		}
	}

	reduced := bracketedSection.ReplaceAllString(s.String(), "")
	if nonDateFormats[reduced] {
		return false
	}

	dateCount := 0
	numCount := 0
	for _, c := range reduced {
		switch {
		case dateCharSet[c]:
			dateCount++
		case numCharSet[c] || c == '%' || c == '@':
			numCount++
		}
	}
	return dateCount > 0 && numCount == 0
}
