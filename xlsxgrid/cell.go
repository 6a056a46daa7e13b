package xlsxgrid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the closed set of value types a decoded cell can take.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindInt
	KindReal
	KindBool
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindBool:
		return "bool"
	case KindTimestamp:
		return "timestamp"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a decoded, typed cell value: one of null, text, 64-bit integer,
// real, boolean or timestamp. It is the only value type exposed past the
// decoder boundary. The zero value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	ts   Timestamp
}

// Null is the null Value.
var Null = Value{}

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Real returns a real Value.
func Real(f float64) Value { return Value{kind: KindReal, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a timestamp Value.
func Time(ts Timestamp) Value { return Value{kind: KindTimestamp, ts: ts} }

// Kind returns the variant tag of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the text payload; zero unless Kind is KindText.
func (v Value) Text() string { return v.s }

// Int returns the integer payload; zero unless Kind is KindInt.
func (v Value) Int() int64 { return v.i }

// Real returns the real payload; zero unless Kind is KindReal.
func (v Value) Real() float64 { return v.f }

// Bool returns the boolean payload; zero unless Kind is KindBool.
func (v Value) Bool() bool { return v.b }

// Timestamp returns the timestamp payload; zero unless Kind is
// KindTimestamp.
func (v Value) Timestamp() Timestamp { return v.ts }

// String renders the value for display. Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTimestamp:
		return v.ts.Time().Format("2006-01-02 15:04:05")
	}
	return ""
}

// maxExactInt is the largest magnitude a float64 can hold without losing
// integer precision (2^53).
const maxExactInt = 1 << 53

// rawCellType is the t attribute of a worksheet cell.
const (
	rawTypeSharedString = "s"
	rawTypeInlineString = "inlineStr"
	rawTypeString       = "str"
	rawTypeBoolean      = "b"
	rawTypeError        = "e"
	rawTypeNumber       = "n"
)

// rawCell is one cell node as it appears in the worksheet part, before
// typing. Consumed immediately by the decoder.
type rawCell struct {
	typ      string // t attribute; empty means numeric
	value    string // v child text
	inline   string // concatenated is child text
	formula  string // f child text
	hasF     bool
	styleIdx int // s attribute
}

// cellDecoder turns raw cells into typed values. All referenced tables are
// read-only; the decoder holds no per-cell state.
type cellDecoder struct {
	strings    *sharedStringTable
	styles     *styleRegistry
	clock      SerialClock
	parseDates bool
}

// decode produces one typed value from a raw cell. Per-cell anomalies (an
// unrecognised type attribute, a dangling shared string index, an unparsable
// number) degrade the cell to null rather than failing the sheet.
func (d *cellDecoder) decode(c rawCell) Value {
	if c.hasF {
		return decodeFormula(c.formula)
	}

	switch c.typ {
	case rawTypeSharedString:
		idx, err := strconv.Atoi(strings.TrimSpace(c.value))
		if err != nil {
			return Null
		}
		s, ok := d.strings.lookup(idx)
		if !ok {
			return Null
		}
		return normalizeText(s)
	case rawTypeInlineString:
		return normalizeText(c.inline)
	case rawTypeString:
		return normalizeText(c.value)
	case rawTypeBoolean:
		switch strings.TrimSpace(c.value) {
		case "0":
			return Bool(false)
		case "1":
			return Bool(true)
		}
		return Null
	case rawTypeError:
		// The empty/errored distinction is deliberately not preserved.
		return Null
	case rawTypeNumber, "":
		return d.decodeNumber(c)
	}
	return Null
}

func (d *cellDecoder) decodeNumber(c rawCell) Value {
	raw := strings.TrimSpace(c.value)
	if raw == "" {
		return Null
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Null
	}

	if d.styles.dateFlagged(c.styleIdx) {
		if d.parseDates {
			return Time(d.clock.ToTimestamp(f))
		}
		// Date parsing disabled changes representation, not
		// classification: the serial renders as text.
		return Text(d.clock.FormatSerial(f))
	}

	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return Int(int64(f))
	}
	return Real(f)
}

// decodeFormula yields the literal formula source text, never a cached
// result.
func decodeFormula(src string) Value {
	src = strings.TrimSpace(src)
	if src == "" {
		return Null
	}
	if !strings.HasPrefix(src, "=") {
		src = "=" + src
	}
	return Text(src)
}

// normalizeText trims leading and trailing whitespace, preserving internal
// whitespace verbatim. A result that is empty after trimming becomes null.
// Idempotent.
func normalizeText(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null
	}
	return Text(s)
}
