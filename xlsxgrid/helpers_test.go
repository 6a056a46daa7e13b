package xlsxgrid

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildPackage writes a zip container holding the given parts to a temp file
// and returns its path.
func buildPackage(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := os.WriteFile(path, packageBytes(t, parts), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func packageBytes(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create part %s: %v", name, err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("write part %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// fixtureSheet is one sheet of a synthetic workbook fixture.
type fixtureSheet struct {
	name string
	body string // content of the sheetData element
}

// workbookParts assembles the minimal part set for a workbook holding the
// given sheets in order. Extra parts (sharedStrings, styles, ...) can be
// merged in by the caller.
func workbookParts(sheets ...fixtureSheet) map[string]string {
	var sheetTags, relTags strings.Builder
	parts := make(map[string]string)
	for i, sh := range sheets {
		id := i + 1
		fmt.Fprintf(&sheetTags, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, sh.name, id, id)
		fmt.Fprintf(&relTags, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet%d.xml"/>`, id, id)
		parts[fmt.Sprintf("xl/worksheets/sheet%d.xml", id)] = sh.body
	}
	parts["xl/workbook.xml"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<sheets>` + sheetTags.String() + `</sheets></workbook>`
	parts["xl/_rels/workbook.xml.rels"] = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		relTags.String() + `</Relationships>`
	return parts
}

// worksheetXML wraps sheetData rows into a complete worksheet part, with an
// optional dimension ref.
func worksheetXML(dimension, rows string) string {
	dim := ""
	if dimension != "" {
		dim = `<dimension ref="` + dimension + `"/>`
	}
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">` +
		dim + `<sheetData>` + rows + `</sheetData></worksheet>`
}

// sharedStringsXML builds a sharedStrings part from plain strings.
func sharedStringsXML(strs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	fmt.Fprintf(&b, `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="%d" uniqueCount="%d">`, len(strs), len(strs))
	for _, s := range strs {
		fmt.Fprintf(&b, `<si><t xml:space="preserve">%s</t></si>`, s)
	}
	b.WriteString(`</sst>`)
	return b.String()
}

// xmlAttr escapes a string for use inside an XML attribute value. Format
// codes routinely contain double quotes.
func xmlAttr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// stylesXML builds a styles part whose cellXfs reference the given numFmt
// ids in order; custom format codes map id to code.
func stylesXML(numFmtIDs []int, custom map[int]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
	if len(custom) > 0 {
		fmt.Fprintf(&b, `<numFmts count="%d">`, len(custom))
		for id, code := range custom {
			fmt.Fprintf(&b, `<numFmt numFmtId="%d" formatCode="%s"/>`, id, xmlAttr(code))
		}
		b.WriteString(`</numFmts>`)
	}
	fmt.Fprintf(&b, `<cellXfs count="%d">`, len(numFmtIDs))
	for _, id := range numFmtIDs {
		fmt.Fprintf(&b, `<xf numFmtId="%d" applyNumberFormat="1"/>`, id)
	}
	b.WriteString(`</cellXfs></styleSheet>`)
	return b.String()
}
