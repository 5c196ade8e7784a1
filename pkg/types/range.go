package types

import "time"

// Range is a named lookback window mapped to a lower-bound timestamp.
type Range string

// Supported ranges.
const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

// rangeDays maps each bounded range to its lookback in days.
var rangeDays = map[Range]int64{
	RangeDay:   1,
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

// Valid reports whether r names a supported range.
func (r Range) Valid() bool {
	if r == RangeAll {
		return true
	}
	_, ok := rangeDays[r]
	return ok
}

// CutoffMillis returns the inclusive lower bound for r relative to now, in
// epoch milliseconds. RangeAll returns 0. Rows at exactly the cutoff are in
// range (callers compare with >=).
func (r Range) CutoffMillis(now time.Time) int64 {
	days, ok := rangeDays[r]
	if !ok {
		return 0
	}
	return now.UnixMilli() - days*24*int64(time.Hour/time.Millisecond)
}

// ParseRange validates a range name from user input.
func ParseRange(s string) (Range, error) {
	r := Range(s)
	if !r.Valid() {
		return "", ErrInvalidRange
	}
	return r, nil
}
