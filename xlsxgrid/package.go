package xlsxgrid

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// pkgReader wraps the zip container and exposes named internal parts as byte
// streams. Part names are matched case-insensitively with backslashes
// normalised to forward slashes, to cope with packages produced by sloppy
// writers.
type pkgReader struct {
	zr    *zip.ReadCloser
	parts map[string]*zip.File
}

func openPackage(path string) (*pkgReader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.WithMessagef(ErrPackageCorrupt, "open %q: %v", path, err)
	}

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[normalizePartName(f.Name)] = f
	}
	return &pkgReader{zr: zr, parts: parts}, nil
}

func normalizePartName(name string) string {
	name = strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(name, "/")
}

// has reports whether the named part exists in the container.
func (p *pkgReader) has(name string) bool {
	_, ok := p.parts[normalizePartName(name)]
	return ok
}

// open returns a reader over the named part. The stream is BOM-tolerant:
// a leading UTF-8 or UTF-16 byte-order mark is honoured and the content is
// delivered as UTF-8.
func (p *pkgReader) open(name string) (io.ReadCloser, error) {
	f, ok := p.parts[normalizePartName(name)]
	if !ok {
		return nil, missingPart(name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.WithMessagef(ErrPackageCorrupt, "part %q: %v", name, err)
	}
	// BOMOverride honours a leading UTF-8/UTF-16 byte-order mark and
	// transcodes accordingly; BOM-less content passes through untouched
	// so that invalid UTF-8 still surfaces to the caller.
	dec := unicode.BOMOverride(transform.Nop)
	return &partReader{r: transform.NewReader(rc, dec), c: rc}, nil
}

func (p *pkgReader) Close() error {
	return p.zr.Close()
}

type partReader struct {
	r io.Reader
	c io.Closer
}

func (p *partReader) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *partReader) Close() error               { return p.c.Close() }
