package xlsxgrid

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Options contains options for opening a spreadsheet package.
type Options struct {
	// Sheet selects the worksheet to materialize. The zero value selects
	// the first sheet in workbook order.
	Sheet SheetSelector

	// HeaderRow extracts the first materialized row as the header,
	// exposing it via Sheet.Header instead of the row sequence.
	HeaderRow bool

	// ParseDates decodes date-styled numeric cells to timestamps. When
	// false those cells decode to a textual date rendering instead.
	ParseDates bool

	// Logfile is an open file to which messages and diagnostics are
	// written. Nil disables diagnostics.
	Logfile io.Writer

	// Verbosity increases the volume of trace material written to the
	// logfile.
	Verbosity int
}

func (o *Options) logf(level int, format string, args ...interface{}) {
	if o.Logfile != nil && o.Verbosity >= level {
		fmt.Fprintf(o.Logfile, format+"\n", args...)
	}
}

// Open opens a spreadsheet package for data extraction, resolves the sheet
// selection and materializes the selected worksheet into a dense grid.
//
// Opening is atomic: it either fully succeeds and returns a consistent
// sheet, or fails before any data is exposed. The underlying archive is
// released before Open returns, on success and error paths alike.
func Open(path string, options *Options) (*Sheet, error) {
	if options == nil {
		options = &Options{}
	}

	pkg, err := openPackage(path)
	if err != nil {
		if format, ierr := InspectFormat(path); ierr == nil && format != "" && format != "xlsx" {
			return nil, errors.WithMessagef(ErrPackageCorrupt,
				"%s; not supported", FileFormatDescriptions[format])
		}
		return nil, err
	}
	defer pkg.Close()

	tables, err := loadPackageTables(pkg)
	if err != nil {
		return nil, err
	}
	options.logf(1, "workbook: %d sheets, date1904=%v, %d shared strings",
		len(tables.manifest.sheets), tables.manifest.date1904, tables.strings.len())

	desc, index, err := options.Sheet.resolve(tables.manifest)
	if err != nil {
		return nil, err
	}
	options.logf(1, "selected sheet %d %q (%s)", index, desc.Name, desc.Path)

	wr, err := pkg.open(desc.Path)
	if err != nil {
		return nil, err
	}
	defer wr.Close()

	dec := &cellDecoder{
		strings:    tables.strings,
		styles:     tables.styles,
		clock:      SerialClock{Date1904: tables.manifest.date1904},
		parseDates: options.ParseDates,
	}
	sheet, err := materializeSheet(wr, desc.Path, dec, options.HeaderRow)
	if err != nil {
		return nil, err
	}
	sheet.Name = desc.Name
	sheet.Index = index
	options.logf(1, "materialized %q: %dx%d", desc.Name, sheet.Height(), sheet.Width())
	return sheet, nil
}

// packageTables are the per-package parse products shared read-only by the
// materializer.
type packageTables struct {
	manifest *manifest
	strings  *sharedStringTable
	styles   *styleRegistry
}

// loadPackageTables parses the manifest, shared string table and style
// registry. The three parts have no data dependency on one another and are
// parsed in parallel workers; this never changes the observable ordering of
// the materialized sheet, which is always document order.
func loadPackageTables(pkg *pkgReader) (*packageTables, error) {
	if !pkg.has(workbookPart) {
		return nil, missingPart(workbookPart)
	}
	if !pkg.has(workbookRelsPart) {
		return nil, missingPart(workbookRelsPart)
	}

	tables := &packageTables{}
	var g errgroup.Group

	g.Go(func() error {
		wb, err := pkg.open(workbookPart)
		if err != nil {
			return err
		}
		defer wb.Close()
		rels, err := pkg.open(workbookRelsPart)
		if err != nil {
			return err
		}
		defer rels.Close()
		tables.manifest, err = readManifest(wb, rels)
		return err
	})

	g.Go(func() error {
		var err error
		tables.strings, err = readOptionalPart(pkg, sharedStringsPart, readSharedStrings)
		return err
	})

	g.Go(func() error {
		var err error
		tables.styles, err = readOptionalPart(pkg, stylesPart, readStyleRegistry)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// readOptionalPart parses a part whose absence is equivalent to an empty
// table, passing a nil reader to the parser when the part is missing.
func readOptionalPart[T any](pkg *pkgReader, name string, parse func(io.Reader) (T, error)) (T, error) {
	if !pkg.has(name) {
		var nothing io.Reader
		return parse(nothing)
	}
	rc, err := pkg.open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	defer rc.Close()
	return parse(rc)
}

// SheetDescriptors returns the ordered sheet descriptors of the package
// manifest without materializing any worksheet.
func SheetDescriptors(path string) ([]SheetDescriptor, error) {
	pkg, err := openPackage(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	if !pkg.has(workbookPart) {
		return nil, missingPart(workbookPart)
	}
	if !pkg.has(workbookRelsPart) {
		return nil, missingPart(workbookRelsPart)
	}
	wb, err := pkg.open(workbookPart)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	rels, err := pkg.open(workbookRelsPart)
	if err != nil {
		return nil, err
	}
	defer rels.Close()

	m, err := readManifest(wb, rels)
	if err != nil {
		return nil, err
	}
	return m.sheets, nil
}

// SheetNames returns the sheet names of the package in workbook order,
// without materializing any worksheet.
func SheetNames(path string) ([]string, error) {
	descs, err := SheetDescriptors(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names, nil
}

// SheetCount returns the number of sheets in the package manifest, without
// materializing any worksheet.
func SheetCount(path string) (int, error) {
	descs, err := SheetDescriptors(path)
	if err != nil {
		return 0, err
	}
	return len(descs), nil
}
