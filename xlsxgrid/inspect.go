package xlsxgrid

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"strings"
)

// FileFormatDescriptions provides descriptions of the file types that can be
// recognised by InspectFormat.
var FileFormatDescriptions = map[string]string{
	"xls":  "Excel xls",
	"xlsb": "Excel 2007 xlsb file",
	"xlsx": "Excel xlsx file",
	"ods":  "Openoffice.org ODS file",
	"zip":  "Unknown ZIP file",
	"":     "Unknown file type",
}

// OLE2_SIGNATURE is the magic cookie that appears in the first 8 bytes of a
// legacy OLE2 compound document (.xls and friends).
var OLE2_SIGNATURE = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ZIP_SIGNATURE is the magic cookie for ZIP files.
var ZIP_SIGNATURE = []byte("PK\x03\x04")

// PEEK_SIZE is the maximum size needed to peek at file signatures.
const PEEK_SIZE = 8

// InspectFormat inspects the content at the supplied path and returns the
// file's type as a string, or empty string if it cannot be determined.
//
// The return value can always be looked up in FileFormatDescriptions to
// return a human-readable description of the format found.
func InspectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	peek := make([]byte, PEEK_SIZE)
	n, err := f.Read(peek)
	if err != nil && err != io.EOF {
		return "", err
	}
	peek = peek[:n]

	if len(peek) < PEEK_SIZE {
		return "", nil
	}

	if bytes.HasPrefix(peek, OLE2_SIGNATURE) {
		return "xls", nil
	}

	if !bytes.HasPrefix(peek, ZIP_SIGNATURE) {
		return "", nil
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// Workaround for some third party files that use backslashes and
	// upper case names. We map the expected name in lowercase to the
	// actual filename in the zip container.
	componentNames := make(map[string]bool)
	for _, zf := range r.File {
		lowerName := strings.ToLower(strings.ReplaceAll(zf.Name, "\\", "/"))
		componentNames[lowerName] = true
	}

	if componentNames["xl/workbook.xml"] {
		return "xlsx", nil
	}
	if componentNames["xl/workbook.bin"] {
		return "xlsb", nil
	}
	if componentNames["content.xml"] {
		return "ods", nil
	}
	return "zip", nil
}
