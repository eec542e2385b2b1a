package birthday

import "time"

// NextOccurrence computes the next calendar date on or after today on which
// the stored month/day recurs, and the whole-day count until it. The stored
// year is ignored; the evaluation year (or the next one, when the date has
// already passed) is substituted.
//
// A February 29 record evaluated in a non-leap year normalizes to March 1
// via time.Date; that choice is deliberate and pinned by tests.
func NextOccurrence(d Date, today time.Time) (time.Time, int) {
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	occ := time.Date(today.Year(), time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if occ.Before(base) {
		occ = time.Date(today.Year()+1, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	}
	days := int(occ.Sub(base).Hours() / 24)
	return occ, days
}
