package returns

import (
	"encoding/json"
	"fmt"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

const day = 24 * time.Hour

// DistantPast is the sentinel used when no watermark or prior snapshot exists.
var DistantPast = NewDate(1900, time.January, 1)

// Date represents a date with day-level granularity.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, dayOfMonth int) Date {
	d := Date{year, month, dayOfMonth}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Year returns current year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// String format the date in date RFC3339
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Today returns the current date.
func Today() Date { return NewDate(time.Now().Date()) }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// Sub returns the number of days between d and x (positive when d is after x).
func (d Date) Sub(x Date) int { return int(d.time().Sub(x.time()) / day) }

// StartOfYear returns January 1st of the date's year.
func (d Date) StartOfYear() Date { return NewDate(d.y, time.January, 1) }

// EndOfMonth returns the last calendar day of the date's month.
func (d Date) EndOfMonth() Date { return NewDate(d.y, d.m+1, 0) }

// YearsAgo returns the date 'years' earlier, clamping Feb 29 to Feb 28 on
// non-leap years.
func (d Date) YearsAgo(years int) Date {
	if d.m == time.February && d.d == 29 {
		return NewDate(d.y-years, time.February, 28)
	}
	return NewDate(d.y-years, d.m, d.d)
}

// Valuation checkpoints ("buckets") alternate between the 15th and the last
// calendar day of each month.

// BucketAt returns the first valuation checkpoint on or after d.
func (d Date) BucketAt() Date {
	if d.d <= 15 {
		return NewDate(d.y, d.m, 15)
	}
	return d.EndOfMonth()
}

// NextBucket returns the valuation checkpoint following a checkpoint date.
func (d Date) NextBucket() Date {
	if d.d == 15 {
		return d.EndOfMonth()
	}
	return NewDate(d.y, d.m+1, 15)
}

// LastBucket returns the most recent valuation checkpoint on or before d.
func (d Date) LastBucket() Date {
	if d.d >= 15 {
		b := d.EndOfMonth()
		if b.After(d) {
			return NewDate(d.y, d.m, 15)
		}
		return b
	}
	// Before the 15th the previous checkpoint is the end of the previous month.
	return NewDate(d.y, d.m, 0)
}

// ParseDate parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func ParseDate(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return NewDate(on.Date()), nil
}

// MustParse is like ParseDate but panics on error.
func MustParse(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// UnmarshalJSON implements the json specific way to unmarshall a date from a json string.
func (j *Date) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	d, err := ParseDate(str)
	if err != nil {
		return err
	}
	*j = d
	return nil
}

func (j Date) MarshalJSON() ([]byte, error) {
	str := j.String()
	return json.Marshal(&str)
}

// check that a Date pointer is a valid json marshall/unmarshaller type.
var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)

// Range represents a range of dates. A zero From means "since inception", a
// zero To means "up to the latest data".
type Range struct{ From, To Date }

// Contains return true when date is included in the range (boundaries included).
func (r Range) Contains(on Date) bool {
	if !r.From.IsZero() && on.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && on.After(r.To) {
		return false
	}
	return true
}
