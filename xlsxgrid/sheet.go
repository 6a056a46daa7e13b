package xlsxgrid

import (
	"encoding/xml"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sheet is the materialized, dense, rectangular grid of one worksheet,
// together with its resolved selection metadata. Immutable once built;
// repeated row and column queries never re-parse.
type Sheet struct {
	// Name is the resolved sheet name.
	Name string

	// Index is the resolved zero-based sheet index in workbook order.
	Index int

	header []Value
	rows   [][]Value
	width  int
}

// Height returns the number of data rows. The header row, when extracted,
// is not counted.
func (s *Sheet) Height() int { return len(s.rows) }

// Width returns the column count. Every row has exactly this many values.
func (s *Sheet) Width() int { return s.width }

// Header returns the extracted header row, or nil if the sheet was opened
// without header extraction.
func (s *Sheet) Header() []Value { return s.header }

// Rows returns the full dense grid in document order. The returned slices
// are owned by the sheet and must not be modified.
func (s *Sheet) Rows() [][]Value { return s.rows }

// Row returns the i-th row.
func (s *Sheet) Row(i int) ([]Value, error) {
	if i < 0 || i >= len(s.rows) {
		return nil, errors.WithMessagef(ErrRowOutOfRange, "row %d, height %d", i, len(s.rows))
	}
	return s.rows[i], nil
}

// Column returns the i-th value of every row, in row order. Its length
// always equals Height.
func (s *Sheet) Column(i int) ([]Value, error) {
	if i < 0 || i >= s.width {
		return nil, errors.WithMessagef(ErrColumnOutOfRange, "column %d, width %d", i, s.width)
	}
	col := make([]Value, len(s.rows))
	for r, row := range s.rows {
		col[r] = row[i]
	}
	return col, nil
}

// EachRow returns a lazy sequence over the rows. Every call restarts from
// the first row; sequences share no cursor state.
func (s *Sheet) EachRow() iter.Seq[[]Value] {
	return func(yield func([]Value) bool) {
		for _, row := range s.rows {
			if !yield(row) {
				return
			}
		}
	}
}

// EachColumn returns a lazy sequence over the columns, leftmost first. Every
// call restarts from the first column.
func (s *Sheet) EachColumn() iter.Seq[[]Value] {
	return func(yield func([]Value) bool) {
		for i := 0; i < s.width; i++ {
			col, _ := s.Column(i)
			if !yield(col) {
				return
			}
		}
	}
}

// Worksheet XML shapes. Only the row elements are decoded in bulk; the
// worksheet part is otherwise consumed token by token so memory stays
// bounded by one row at a time plus the decoded grid.

type xmlRow struct {
	R int    `xml:"r,attr"`
	C []xmlC `xml:"c"`
}

type xmlC struct {
	R  string  `xml:"r,attr"`
	T  string  `xml:"t,attr"`
	S  int     `xml:"s,attr"`
	V  string  `xml:"v"`
	F  *xmlF   `xml:"f"`
	IS *xmlIS  `xml:"is"`
}

type xmlF struct {
	T       string `xml:"t,attr"`
	Ref     string `xml:"ref,attr"`
	Si      int    `xml:"si,attr"`
	Content string `xml:",chardata"`
}

type xmlIS struct {
	T *xmlText `xml:"t"`
	R []struct {
		T xmlText `xml:"t"`
	} `xml:"r"`
}

func (is *xmlIS) text() string {
	if is == nil {
		return ""
	}
	if len(is.R) > 0 {
		var b strings.Builder
		for _, run := range is.R {
			b.WriteString(run.T.Value)
		}
		return b.String()
	}
	if is.T != nil {
		return is.T.Value
	}
	return ""
}

type sharedFormula struct {
	col, row int
	formula  string
}

// materializeSheet streams the worksheet part in document order, decodes
// every cell and assembles the dense grid. Rows and cells may be sparse in
// the file; structural gaps are filled with null.
func materializeSheet(r io.Reader, partName string, dec *cellDecoder, headerRow bool) (*Sheet, error) {
	d := xml.NewDecoder(r)

	var rows [][]Value
	maxCol := -1
	declWidth, declHeight := 0, 0
	nextRow := 1 // 1-based declared index of the next expected row
	shared := make(map[int]sharedFormula)

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformed(partName, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "dimension":
			for _, attr := range start.Attr {
				if attr.Name.Local == "ref" {
					declWidth, declHeight = parseDimension(attr.Value)
				}
			}
		case "row":
			var raw xmlRow
			if err := d.DecodeElement(&raw, &start); err != nil {
				return nil, malformed(partName, err)
			}
			if raw.R <= 0 {
				raw.R = nextRow
			}
			// Fill the gap between the previously emitted row and
			// this one with empty rows; they are padded to the
			// final width below.
			for nextRow < raw.R {
				rows = append(rows, nil)
				nextRow++
			}
			row, rowMax := decodeRow(raw, dec, shared)
			if rowMax > maxCol {
				maxCol = rowMax
			}
			rows = append(rows, row)
			nextRow = raw.R + 1
		case "sheetData", "worksheet":
			// descend
		default:
			if err := d.Skip(); err != nil {
				return nil, malformed(partName, err)
			}
		}
	}

	width := maxCol + 1
	if declWidth > width {
		// A declared dimension wider than the observed data wins; a
		// narrower one is inconsistent and loses.
		width = declWidth
	}

	// Trailing empty rows implied by the declared dimension.
	for len(rows) < declHeight {
		rows = append(rows, nil)
	}

	for i, row := range rows {
		for len(row) < width {
			row = append(row, Null)
		}
		rows[i] = row[:width]
	}

	sheet := &Sheet{rows: rows, width: width}
	if headerRow && len(rows) > 0 {
		sheet.header = rows[0]
		sheet.rows = rows[1:]
	}
	return sheet, nil
}

// decodeRow turns one sparse row element into a value slice indexed by
// column, filling cell gaps with null. Returns the slice and the maximum
// column index seen (-1 for an empty row).
func decodeRow(raw xmlRow, dec *cellDecoder, shared map[int]sharedFormula) ([]Value, int) {
	var row []Value
	nextCol := 0
	for _, c := range raw.C {
		col := nextCol
		if c.R != "" {
			if x, _, err := cellRefToCoords(c.R); err == nil {
				col = x
			}
		}
		if col < nextCol {
			// Out-of-order or duplicate reference; keep document
			// order by appending at the next free column.
			col = nextCol
		}
		for len(row) < col {
			row = append(row, Null)
		}

		rc := rawCell{
			typ:      c.T,
			value:    c.V,
			styleIdx: c.S,
		}
		if c.IS != nil {
			rc.inline = c.IS.text()
		}
		if c.F != nil {
			rc.hasF = true
			rc.formula = resolveFormula(c, col, raw.R-1, shared)
		}
		row = append(row, dec.decode(rc))
		nextCol = col + 1
	}
	return row, nextCol - 1
}

// resolveFormula returns the formula source for a cell, expanding shared
// formulas by shifting the master's cell references relative to this cell's
// position.
func resolveFormula(c xmlC, col, row int, shared map[int]sharedFormula) string {
	f := c.F
	if f.T != "shared" {
		return f.Content
	}
	if f.Ref != "" || f.Content != "" {
		shared[f.Si] = sharedFormula{col: col, row: row, formula: f.Content}
		return f.Content
	}
	master, ok := shared[f.Si]
	if !ok {
		return ""
	}
	return shiftCellRefs(master.formula, col-master.col, row-master.row)
}

// shiftCellRefs rewrites every A1-style reference in a formula by the given
// column and row deltas. Non-reference text passes through untouched.
func shiftCellRefs(formula string, dx, dy int) string {
	var res strings.Builder
	orig := []byte(formula)
	var start, end int
	for end = 0; end < len(orig); end++ {
		c := orig[end]
		if c >= 'A' && c <= 'Z' {
			res.Write(orig[start:end])
			start = end
			end++
			foundNum := false
			for ; end < len(orig); end++ {
				idc := orig[end]
				if idc >= '0' && idc <= '9' {
					foundNum = true
				} else if idc >= 'A' && idc <= 'Z' {
					if foundNum {
						break
					}
				} else {
					break
				}
			}
			// A letter-digit run directly followed by '(' is a
			// function name (LOG10, ATAN2, ...), not a reference.
			if foundNum && !(end < len(orig) && orig[end] == '(') {
				fx, fy, err := cellRefToCoords(string(orig[start:end]))
				if err == nil {
					res.WriteString(coordsToCellRef(fx+dx, fy+dy))
					start = end
				}
			}
		}
	}
	if end > len(orig) {
		end = len(orig)
	}
	if start < len(orig) {
		res.Write(orig[start:end])
	}
	return res.String()
}

// columnLettersToIndex converts a character based column reference to a zero
// based numeric column identifier, e.g. "A" -> 0, "AB" -> 27.
func columnLettersToIndex(letters string) int {
	sum, mul, n := 0, 1, 0
	for i := len(letters) - 1; i >= 0; i, mul, n = i-1, mul*26, 1 {
		c := letters[i]
		switch {
		case 'A' <= c && c <= 'Z':
			n += int(c - 'A')
		case 'a' <= c && c <= 'z':
			n += int(c - 'a')
		}
		sum += n * mul
	}
	return sum
}

// columnIndexToLetters converts a zero based column index into the character
// code used in cell references.
func columnIndexToLetters(col int) string {
	var b []byte
	for col >= 0 {
		b = append([]byte{byte('A' + col%26)}, b...)
		col = col/26 - 1
	}
	return string(b)
}

// cellRefToCoords returns the zero based cartesian coordinates from a cell
// name in Excel format, e.g. "A1" returns 0, 0 and "B3" returns 1, 2.
func cellRefToCoords(ref string) (col, row int, err error) {
	split := 0
	for split < len(ref) && !(ref[split] >= '0' && ref[split] <= '9') {
		split++
	}
	if split == 0 || split == len(ref) {
		return 0, 0, errors.Errorf("invalid cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[split:])
	if err != nil {
		return 0, 0, errors.Errorf("invalid cell reference %q", ref)
	}
	return columnLettersToIndex(ref[:split]), row - 1, nil
}

// coordsToCellRef is the inverse of cellRefToCoords.
func coordsToCellRef(col, row int) string {
	return columnIndexToLetters(col) + strconv.Itoa(row+1)
}

// parseDimension extracts the grid extent from a dimension ref such as
// "A1:C5". A bare single-cell ref means a 1x1 extent; anything unparsable
// yields zero, deferring to the observed data.
func parseDimension(ref string) (width, height int) {
	parts := strings.Split(ref, ":")
	last := parts[len(parts)-1]
	col, row, err := cellRefToCoords(last)
	if err != nil {
		return 0, 0
	}
	return col + 1, row + 1
}
