package xlsxgrid

import (
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Well-known part names inside the package. Lookup is case-insensitive, see
// normalizePartName.
const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
	stylesPart        = "xl/styles.xml"
)

const worksheetRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"

// SheetVisibility is the workbook state attribute of a sheet.
type SheetVisibility int

const (
	SheetVisible SheetVisibility = iota
	SheetHidden
	SheetVeryHidden
)

// SheetDescriptor describes one sheet of the workbook manifest. Descriptors
// are immutable once the manifest is parsed; their order is the document
// order of the workbook part, which defines the zero-based sheet index.
type SheetDescriptor struct {
	// Name is the sheet name shown on the tab.
	Name string

	// SheetID is the numeric sheetId attribute.
	SheetID int

	// Path is the worksheet part path inside the package.
	Path string

	// Visibility is the sheet state recorded in the workbook part.
	Visibility SheetVisibility
}

// manifest is the parsed workbook part: the ordered sheet descriptors plus
// the workbook-level date system.
type manifest struct {
	sheets   []SheetDescriptor
	date1904 bool
}

type xmlWorkbook struct {
	XMLName    xml.Name `xml:"workbook"`
	WorkbookPr struct {
		Date1904 bool `xml:"date1904,attr"`
	} `xml:"workbookPr"`
	Sheets struct {
		Sheet []struct {
			Name    string `xml:"name,attr"`
			SheetID int    `xml:"sheetId,attr"`
			State   string `xml:"state,attr"`
			RelID   string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type xmlRelationships struct {
	XMLName      xml.Name `xml:"Relationships"`
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readManifest parses the workbook part and its relationships into the
// ordered sheet descriptors. Both parts are required.
func readManifest(workbook, rels io.Reader) (*manifest, error) {
	var wb xmlWorkbook
	if err := xml.NewDecoder(workbook).Decode(&wb); err != nil {
		return nil, malformed(workbookPart, err)
	}

	var rl xmlRelationships
	if err := xml.NewDecoder(rels).Decode(&rl); err != nil {
		return nil, malformed(workbookRelsPart, err)
	}

	targets := make(map[string]string, len(rl.Relationship))
	for _, rel := range rl.Relationship {
		if rel.Type == worksheetRelType {
			targets[rel.ID] = rel.Target
		}
	}

	m := &manifest{date1904: wb.WorkbookPr.Date1904}
	for _, sh := range wb.Sheets.Sheet {
		target, ok := targets[sh.RelID]
		if !ok {
			// Chartsheets and other non-worksheet entries have no
			// worksheet relationship; skip them.
			continue
		}
		m.sheets = append(m.sheets, SheetDescriptor{
			Name:       sh.Name,
			SheetID:    sh.SheetID,
			Path:       resolvePartPath(target),
			Visibility: visibilityFromState(sh.State),
		})
	}
	return m, nil
}

// resolvePartPath turns a workbook-relative relationship target into a
// package part name. Absolute targets ("/xl/worksheets/sheet1.xml") are used
// as-is; relative ones resolve against the xl/ directory.
func resolvePartPath(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("xl", target)
}

func visibilityFromState(state string) SheetVisibility {
	switch state {
	case "hidden":
		return SheetHidden
	case "veryHidden":
		return SheetVeryHidden
	default:
		return SheetVisible
	}
}

// SheetSelector chooses one worksheet of a package. The zero value selects
// the first sheet in manifest order.
type SheetSelector struct {
	name  *string
	index *int
}

// SheetByName selects a sheet by exact, case-sensitive name match.
func SheetByName(name string) SheetSelector {
	return SheetSelector{name: &name}
}

// SheetByIndex selects a sheet by its zero-based position in the workbook.
func SheetByIndex(index int) SheetSelector {
	return SheetSelector{index: &index}
}

// resolve picks exactly one descriptor from the manifest. Resolution happens
// once, at open time.
func (s SheetSelector) resolve(m *manifest) (SheetDescriptor, int, error) {
	switch {
	case s.name != nil:
		for i, d := range m.sheets {
			if d.Name == *s.name {
				return d, i, nil
			}
		}
		return SheetDescriptor{}, 0, errors.WithMessagef(ErrSheetNotFound, "no sheet named %q", *s.name)
	case s.index != nil:
		if *s.index < 0 || *s.index >= len(m.sheets) {
			return SheetDescriptor{}, 0, errors.WithMessagef(ErrSheetIndexOutOfRange,
				"index %d, workbook has %d sheets", *s.index, len(m.sheets))
		}
		return m.sheets[*s.index], *s.index, nil
	default:
		if len(m.sheets) == 0 {
			return SheetDescriptor{}, 0, errors.WithMessage(ErrSheetNotFound, "workbook has no sheets")
		}
		return m.sheets[0], 0, nil
	}
}
