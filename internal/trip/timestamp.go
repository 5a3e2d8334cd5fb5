package trip

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the only accepted timestamp format: zero-padded, second
// resolution, no timezone offset, no fractional seconds.
const Layout = "2006-01-02 15:04:05"

// ErrBadTimestamp is returned (wrapped) when timestamp text does not match
// Layout or encodes an invalid calendar date or time.
var ErrBadTimestamp = errors.New("malformed timestamp")

// Timestamp is a decoded, timezone-naive, second-resolution point in time.
type Timestamp struct {
	t time.Time
}

// ParseTimestamp decodes text in Layout form. The source data carries no
// zone information, so all timestamps live in a single fixed location and
// differences between them are well defined.
func ParseTimestamp(text string) (Timestamp, error) {
	t, err := time.ParseInLocation(Layout, text, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrBadTimestamp, text)
	}
	return Timestamp{t: t}, nil
}

// Hour returns the hour of day, 0 through 23.
func (ts Timestamp) Hour() int {
	return ts.t.Hour()
}

// ISOWeekday returns the day of week numbered Monday=1 through Sunday=7.
func (ts Timestamp) ISOWeekday() int {
	d := int(ts.t.Weekday())
	if d == 0 { // time.Sunday
		return 7
	}
	return d
}

func (ts Timestamp) String() string {
	return ts.t.Format(Layout)
}

// SecondsBetween returns b - a in whole seconds. The result is signed: it
// is negative when b precedes a, and callers decide what that means.
func SecondsBetween(a, b Timestamp) int64 {
	return int64(b.t.Sub(a.t) / time.Second)
}
