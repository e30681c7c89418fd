package core

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are the formats delivery dates show up in: what the app sends
// and what people type into the sheet by hand.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Mon Jan 02 2006",
	"Mon Jan 2 2006",
}

// DateResult is the outcome of parsing a date cell. Err is nil when the
// calendar fields are valid.
type DateResult struct {
	Year  int
	Month time.Month
	Day   int
	Err   error
}

// Valid reports whether the cell held a recognizable date.
func (r DateResult) Valid() bool {
	return r.Err == nil
}

// ParseDeliveryDate reads a date cell. The calendar date is taken as written,
// with no time zone conversion. It never panics; unrecognized input yields a
// result wrapping ErrDateParse.
func ParseDeliveryDate(v any) DateResult {
	switch x := v.(type) {
	case nil:
		return DateResult{Err: fmt.Errorf("%w: empty cell", ErrDateParse)}
	case time.Time:
		return DateResult{Year: x.Year(), Month: x.Month(), Day: x.Day()}
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return DateResult{Err: fmt.Errorf("%w: empty cell", ErrDateParse)}
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return DateResult{Year: t.Year(), Month: t.Month(), Day: t.Day()}
		}
	}
	return DateResult{Err: fmt.Errorf("%w: %q", ErrDateParse, s)}
}
