package xlsxgrid

import (
	"math"
	"time"
)

// Serial dates are Excel's internal representation of dates and times: a
// floating point count of days since a fixed epoch, with the fractional part
// encoding time-of-day.
//
// In the default 1900 date system the spreadsheet engine treats 1900 as a
// leap year, inserting a nonexistent Feb-29-1900 as serial day 60. Serials
// at or after day 61 therefore count one day further from 1900-01-01 than
// the Gregorian calendar does, which is equivalent to counting all of them
// from an epoch of 1899-12-30; serials below the phantom day count from
// 1899-12-31. The 1904 system (the old Excel for Macintosh default) counts
// from 1904-01-01 and has no such bug.

const (
	// unixEpochSerial1900 is the serial day of 1970-01-01 in the
	// (corrected) 1900 date system.
	unixEpochSerial1900 = 25569.0

	// unixEpochSerial1904 is the serial day of 1970-01-01 in the 1904
	// date system.
	unixEpochSerial1904 = 24107.0

	secondsPerDay = 86400.0
)

// Timestamp is an instant decoded from a serial date: seconds since the Unix
// epoch plus a non-negative microsecond remainder in [0, 1e6).
type Timestamp struct {
	Sec  int64
	Usec int64
}

// Time returns the instant as a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Sec, ts.Usec*1000).UTC()
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Sec != other.Sec {
		return ts.Sec < other.Sec
	}
	return ts.Usec < other.Usec
}

// SerialClock converts Excel serial day numbers to Timestamps. The zero
// value uses the 1900 date system; set Date1904 for workbooks saved with the
// 1904 system.
type SerialClock struct {
	Date1904 bool
}

// ToTimestamp converts the serial day number d into a Timestamp, preserving
// fractional-day precision down to microsecond granularity. The conversion
// is monotonic in d; in the 1900 system it is strictly so everywhere except
// across the phantom day, where serials 60 and 61 decode to the same
// instant.
func (c SerialClock) ToTimestamp(d float64) Timestamp {
	var total float64
	if c.Date1904 {
		total = (d - unixEpochSerial1904) * secondsPerDay
	} else {
		// Serials below the phantom Feb-29-1900 (day 60) count from an
		// epoch one day later than the rest of the system; shifting them
		// forward lets a single epoch constant serve the whole range.
		// Day 60 itself lands on Mar-1-1900, colliding with day 61.
		if d < 61.0 {
			d += 1.0
		}
		total = (d - unixEpochSerial1900) * secondsPerDay
	}

	sec := int64(math.Trunc(total))
	usec := int64(math.Round((total - float64(sec)) * 1e6))
	if usec >= 1e6 {
		sec++
		usec -= 1e6
	} else if usec < 0 {
		sec--
		usec += 1e6
	}
	return Timestamp{Sec: sec, Usec: usec}
}

// hasTimeOfDay reports whether the serial day number carries a fractional
// time-of-day component.
func hasTimeOfDay(d float64) bool {
	return d != math.Trunc(d)
}

// FormatSerial renders the serial day number as text, the representation
// used for date-styled cells when date parsing is disabled. Whole days come
// out as a plain date, everything else carries the time too.
func (c SerialClock) FormatSerial(d float64) string {
	t := c.ToTimestamp(d).Time()
	if !hasTimeOfDay(d) {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
