package xlsxgrid

import (
	"github.com/pkg/errors"
)

// Structural errors abort Open before any handle is returned. Callers can
// test for them with errors.Is; the wrapped chain carries the part name or
// selector that triggered the failure.
var (
	// ErrPackageCorrupt indicates the zip container or its central
	// directory could not be read.
	ErrPackageCorrupt = errors.New("package corrupt")

	// ErrMissingRequiredPart indicates a part the package must contain
	// (the workbook manifest, its relationships, or a referenced
	// worksheet) is absent.
	ErrMissingRequiredPart = errors.New("missing required part")

	// ErrMalformedXML indicates a required part is not well-formed XML.
	ErrMalformedXML = errors.New("malformed xml")

	// ErrSheetNotFound indicates no sheet matched a by-name selector.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrSheetIndexOutOfRange indicates a by-index selector addressed a
	// sheet at or beyond the manifest length.
	ErrSheetIndexOutOfRange = errors.New("sheet index out of range")

	// ErrEncoding indicates invalid text encoding in a string-bearing part.
	ErrEncoding = errors.New("invalid text encoding")
)

// Access errors are returned by row/column queries on an open handle. They
// are distinct from the sheet-selection errors above.
var (
	// ErrRowOutOfRange indicates a row index at or beyond Height.
	ErrRowOutOfRange = errors.New("row index out of range")

	// ErrColumnOutOfRange indicates a column index at or beyond Width.
	ErrColumnOutOfRange = errors.New("column index out of range")
)

func missingPart(name string) error {
	return errors.WithMessagef(ErrMissingRequiredPart, "part %q", name)
}

func malformed(part string, err error) error {
	return errors.WithMessagef(ErrMalformedXML, "part %q: %v", part, err)
}
