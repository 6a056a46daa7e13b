package xlsxgrid

import (
	"encoding/xml"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// sharedStringTable is the deduplicated pool of text values referenced by
// index from worksheet cells. Immutable after load.
type sharedStringTable struct {
	strings []string
}

type xmlSST struct {
	XMLName xml.Name `xml:"sst"`
	SI      []xmlSI  `xml:"si"`
}

type xmlSI struct {
	T *xmlText `xml:"t"`
	R []struct {
		T xmlText `xml:"t"`
	} `xml:"r"`
}

type xmlText struct {
	Value string `xml:",chardata"`
}

// readSharedStrings parses the shared strings part. A nil reader (absent
// part) yields an empty table: a file with no strings may omit the part
// entirely.
func readSharedStrings(r io.Reader) (*sharedStringTable, error) {
	if r == nil {
		return &sharedStringTable{}, nil
	}

	var sst xmlSST
	if err := xml.NewDecoder(r).Decode(&sst); err != nil {
		// The XML scanner reports invalid UTF-8 as a syntax error;
		// surface it as the distinct encoding condition instead.
		if strings.Contains(err.Error(), "invalid UTF-8") {
			return nil, errors.WithMessagef(ErrEncoding, "part %q: %v", sharedStringsPart, err)
		}
		return nil, malformed(sharedStringsPart, err)
	}

	table := &sharedStringTable{strings: make([]string, 0, len(sst.SI))}
	for i, si := range sst.SI {
		var s string
		if len(si.R) > 0 {
			// Rich text: concatenate the runs. Phonetic runs (rPh)
			// are not mapped and so drop out here.
			var b strings.Builder
			for _, run := range si.R {
				b.WriteString(run.T.Value)
			}
			s = b.String()
		} else if si.T != nil {
			s = si.T.Value
		}
		if !utf8.ValidString(s) {
			return nil, errors.WithMessagef(ErrEncoding, "shared string %d", i)
		}
		table.strings = append(table.strings, s)
	}
	return table, nil
}

// lookup resolves a shared string index. The second return is false for a
// dangling index.
func (t *sharedStringTable) lookup(idx int) (string, bool) {
	if t == nil || idx < 0 || idx >= len(t.strings) {
		return "", false
	}
	return t.strings[idx], true
}

func (t *sharedStringTable) len() int {
	if t == nil {
		return 0
	}
	return len(t.strings)
}
