package transform

import (
	"strings"
	"time"

	"tableconverter/internal/errors"
)

// SQLDateLayout is the canonical timestamp form written to the destination.
const SQLDateLayout = "2006-01-02 15:04:05"

// dateLayouts are tried in order. SQLDateLayout comes first so normalizing
// an already canonical value returns it unchanged. Slash dates are read
// month first, dash and dot dates day first.
var dateLayouts = []string{
	SQLDateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04",
	"1/2/06",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006 15:04",
	"January 2, 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.ANSIC,
}

// NormalizeDate rewrites a free-form date or timestamp as SQLDateLayout in
// loc (time.Local when nil). Values carrying a zone offset are converted
// into loc.
//
// An empty (or blank) value is not a date and yields "" with no error. A
// non-empty value no layout accepts is a data error.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc).Format(SQLDateLayout), nil
		}
	}
	return "", errors.Dataf("unrecognized date %q", s)
}
