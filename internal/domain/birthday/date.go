package birthday

import (
	"fmt"
	"strings"
	"time"
)

// Date is a canonical calendar date. Year may hold the year the record was
// created in when the input omitted one; occurrence math never reads it and
// always substitutes the evaluation year instead.
type Date struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year,omitempty"`
}

var ErrInvalidDateFormat = fmt.Errorf("invalid date format")

// Input layouts tried in fixed priority order. The first layout that parses
// wins, so a numeric pair with both components <= 12 is always read as
// day-month: "03-04" is day 3, month 4. That ambiguity is a product decision,
// not a parsing defect.
var inputLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"2-1-2006", true}, // DD-MM-YYYY
	{"2/1/2006", true}, // DD/MM/YYYY
	{"2006-1-2", true}, // YYYY-MM-DD
	{"1/2/2006", true}, // MM/DD/YYYY
	{"2-1", false},     // DD-MM
	{"2/1", false},     // DD/MM
}

// ParseDate parses free-form date text into a canonical date. When the
// matched layout has no year component, the current year is filled in at
// parse time.
func ParseDate(text string) (Date, error) {
	return parseDateAt(text, time.Now())
}

func parseDateAt(text string, now time.Time) (Date, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Date{}, ErrInvalidDateFormat
	}
	for _, l := range inputLayouts {
		t, err := time.Parse(l.layout, text)
		if err != nil {
			continue
		}
		d := Date{Day: t.Day(), Month: int(t.Month())}
		if l.hasYear {
			d.Year = t.Year()
		} else {
			d.Year = now.Year()
		}
		return d, nil
	}
	return Date{}, ErrInvalidDateFormat
}

// FormatDate is the single canonical serialization, used for storage echo
// and redisplay alike.
func FormatDate(d Date) string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, d.Month, d.Year)
}

// FormatMonthDay renders only the recurring part of the date.
func FormatMonthDay(d Date) string {
	return fmt.Sprintf("%02d-%02d", d.Day, d.Month)
}
