package xlsxgrid

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeSheetFixture builds a workbook with sheets Sheet1, Data, Numbers.
// Sheet1 carries a small typed grid exercising shared strings, styles and
// formulas.
func threeSheetFixture(t *testing.T) string {
	t.Helper()
	parts := workbookParts(
		fixtureSheet{name: "Sheet1", body: worksheetXML("A1:C3",
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>`+
				`<row r="2"><c r="A2" t="s"><v>3</v></c><c r="B2"><v>30</v></c><c r="C2" t="s"><v>4</v></c></row>`+
				`<row r="3"><c r="A3" t="s"><v>5</v></c><c r="B3"><v>25</v></c><c r="C3" t="s"><v>6</v></c></row>`)},
		fixtureSheet{name: "Data", body: worksheetXML("A1:A1",
			`<row r="1"><c r="A1"><v>1</v></c></row>`)},
		fixtureSheet{name: "Numbers", body: worksheetXML("A1:B1",
			`<row r="1"><c r="A1"><v>1.5</v></c><c r="B1"><v>2</v></c></row>`)},
	)
	parts["xl/sharedStrings.xml"] = sharedStringsXML(
		"Name", "Age", "City", "Alice", "NYC", "Bob", "LA")
	return buildPackage(t, parts)
}

func TestOpenDefaultSelector(t *testing.T) {
	path := threeSheetFixture(t)

	sheet, err := Open(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, 0, sheet.Index)
	assert.Equal(t, 3, sheet.Height())
	assert.Equal(t, 3, sheet.Width())
}

func TestOpenExplicitIndexMatchesDefault(t *testing.T) {
	path := threeSheetFixture(t)

	byDefault, err := Open(path, nil)
	require.NoError(t, err)
	byIndex, err := Open(path, &Options{Sheet: SheetByIndex(0)})
	require.NoError(t, err)

	assert.Equal(t, byDefault.Name, byIndex.Name)
	assert.Equal(t, byDefault.Rows(), byIndex.Rows())
}

func TestOpenByName(t *testing.T) {
	path := threeSheetFixture(t)

	sheet, err := Open(path, &Options{Sheet: SheetByName("Numbers")})
	require.NoError(t, err)
	assert.Equal(t, "Numbers", sheet.Name)
	assert.Equal(t, 2, sheet.Index)
	assert.Equal(t, [][]Value{{Real(1.5), Int(2)}}, sheet.Rows())
}

func TestOpenByNameIsCaseSensitive(t *testing.T) {
	path := threeSheetFixture(t)

	_, err := Open(path, &Options{Sheet: SheetByName("numbers")})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestOpenSheetNotFound(t *testing.T) {
	path := threeSheetFixture(t)

	_, err := Open(path, &Options{Sheet: SheetByName("NoSuchName")})
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestOpenSheetIndexOutOfRange(t *testing.T) {
	path := threeSheetFixture(t)

	_, err := Open(path, &Options{Sheet: SheetByIndex(99)})
	assert.ErrorIs(t, err, ErrSheetIndexOutOfRange)
	_, err = Open(path, &Options{Sheet: SheetByIndex(-1)})
	assert.ErrorIs(t, err, ErrSheetIndexOutOfRange)
}

func TestOpenWithHeaderRow(t *testing.T) {
	path := threeSheetFixture(t)

	sheet, err := Open(path, &Options{HeaderRow: true})
	require.NoError(t, err)

	assert.Equal(t, []Value{Text("Name"), Text("Age"), Text("City")}, sheet.Header())
	assert.Equal(t, 2, sheet.Height())
	row, err := sheet.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []Value{Text("Alice"), Int(30), Text("NYC")}, row)
	row, err = sheet.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []Value{Text("Bob"), Int(25), Text("LA")}, row)
}

func TestOpenDateStyledCells(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "Dates", body: worksheetXML("A1:A1",
		`<row r="1"><c r="A1" s="1"><v>45285</v></c></row>`)})
	parts["xl/styles.xml"] = stylesXML([]int{0, 14}, nil)
	path := buildPackage(t, parts)

	sheet, err := Open(path, &Options{ParseDates: true})
	require.NoError(t, err)
	v := sheet.Rows()[0][0]
	require.Equal(t, KindTimestamp, v.Kind())
	got := v.Timestamp().Time()
	assert.Equal(t, [3]int{2023, 12, 25}, [3]int{got.Year(), int(got.Month()), got.Day()})

	sheet, err = Open(path, &Options{ParseDates: false})
	require.NoError(t, err)
	assert.Equal(t, Text("2023-12-25"), sheet.Rows()[0][0])
}

func TestOpen1904DateSystem(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "Dates", body: worksheetXML("A1:A1",
		`<row r="1"><c r="A1" s="1"><v>24107</v></c></row>`)})
	parts["xl/styles.xml"] = stylesXML([]int{0, 14}, nil)
	parts["xl/workbook.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<workbookPr date1904="1"/>` +
		`<sheets><sheet name="Dates" sheetId="1" r:id="rId1"/></sheets></workbook>`
	path := buildPackage(t, parts)

	sheet, err := Open(path, &Options{ParseDates: true})
	require.NoError(t, err)
	v := sheet.Rows()[0][0]
	require.Equal(t, KindTimestamp, v.Kind())
	assert.Equal(t, int64(0), v.Timestamp().Sec, "serial 24107 is the Unix epoch in the 1904 system")
}

func TestOpenWithoutOptionalParts(t *testing.T) {
	// No sharedStrings, no styles: equivalent to empty table and
	// all-non-date styles, not an error.
	parts := workbookParts(fixtureSheet{name: "Only", body: worksheetXML("A1:B1",
		`<row r="1"><c r="A1"><v>7</v></c><c r="B1" t="s"><v>0</v></c></row>`)})
	path := buildPackage(t, parts)

	sheet, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Int(7), sheet.Rows()[0][0])
	assert.Equal(t, Null, sheet.Rows()[0][1], "shared string ref with no table degrades to null")
}

func TestOpenMissingWorkbookPart(t *testing.T) {
	path := buildPackage(t, map[string]string{
		"xl/worksheets/sheet1.xml": worksheetXML("", ""),
	})
	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrMissingRequiredPart)
}

func TestOpenMissingWorksheetPart(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "Gone", body: ""})
	delete(parts, "xl/worksheets/sheet1.xml")
	path := buildPackage(t, parts)

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrMissingRequiredPart)
}

func TestOpenPackageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrPackageCorrupt)
}

func TestOpenLegacyXLSRejected(t *testing.T) {
	content := append(append([]byte{}, OLE2_SIGNATURE...), make([]byte, 512)...)
	path := filepath.Join(t.TempDir(), "legacy.xls")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrPackageCorrupt)
	assert.Contains(t, err.Error(), "not supported")
}

func TestOpenMalformedWorkbook(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "S", body: worksheetXML("", "")})
	parts["xl/workbook.xml"] = "<workbook><sheets>"
	path := buildPackage(t, parts)

	_, err := Open(path, nil)
	assert.ErrorIs(t, err, ErrMalformedXML)
}

func TestOpenBOMPrefixedParts(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "S", body: worksheetXML("A1:A1",
		`<row r="1"><c r="A1" t="s"><v>0</v></c></row>`)})
	parts["xl/sharedStrings.xml"] = "\uFEFF" + sharedStringsXML("hello")
	path := buildPackage(t, parts)

	sheet, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Text("hello"), sheet.Rows()[0][0])
}

func TestSheetNamesAndCount(t *testing.T) {
	path := threeSheetFixture(t)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "Data", "Numbers"}, names)

	count, err := SheetCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

// Manifest-only queries must work even when worksheet parts are unreadable,
// since they never materialize a worksheet.
func TestSheetNamesDoesNotTouchWorksheets(t *testing.T) {
	parts := workbookParts(fixtureSheet{name: "Broken", body: "<worksheet><sheetData><row"})
	path := buildPackage(t, parts)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Broken"}, names)
}

func TestOpenLargeSheet(t *testing.T) {
	var body strings.Builder
	for r := 1; r <= 1001; r++ {
		fmt.Fprintf(&body, `<row r="%d">`, r)
		for c := 0; c < 100; c++ {
			fmt.Fprintf(&body, `<c r="%s"><v>%d</v></c>`, coordsToCellRef(c, r-1), r*1000+c)
		}
		body.WriteString(`</row>`)
	}
	parts := workbookParts(fixtureSheet{name: "Big", body: worksheetXML("A1:CV1001", body.String())})
	path := buildPackage(t, parts)

	sheet, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1001, sheet.Height())
	assert.Equal(t, 100, sheet.Width())
	col, err := sheet.Column(0)
	require.NoError(t, err)
	assert.Len(t, col, sheet.Height())

	sheet, err = Open(path, &Options{HeaderRow: true})
	require.NoError(t, err)
	assert.Equal(t, 1000, sheet.Height())
	last, err := sheet.Row(999)
	require.NoError(t, err)
	assert.Equal(t, Int(1001*1000+99), last[99])
}
