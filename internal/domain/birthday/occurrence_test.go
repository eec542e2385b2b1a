package birthday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrenceBasics(t *testing.T) {
	today := date(2024, time.May, 14)

	occ, days := NextOccurrence(Date{Day: 15, Month: 5, Year: 1970}, today)
	assert.Equal(t, date(2024, time.May, 15), occ)
	assert.Equal(t, 1, days)

	occ, days = NextOccurrence(Date{Day: 14, Month: 5}, today)
	assert.Equal(t, today, occ)
	assert.Equal(t, 0, days)

	// Already passed this year: rolls into next year.
	occ, days = NextOccurrence(Date{Day: 13, Month: 5}, today)
	assert.Equal(t, date(2025, time.May, 13), occ)
	assert.Equal(t, 364, days)
}

func TestNextOccurrenceIgnoresStoredYear(t *testing.T) {
	today := date(2024, time.May, 14)
	withYear, d1 := NextOccurrence(Date{Day: 20, Month: 5, Year: 1970}, today)
	withoutYear, d2 := NextOccurrence(Date{Day: 20, Month: 5}, today)
	assert.Equal(t, withYear, withoutYear)
	assert.Equal(t, d1, d2)
}

func TestNextOccurrenceLeapDay(t *testing.T) {
	// Leap evaluation year keeps Feb 29.
	occ, days := NextOccurrence(Date{Day: 29, Month: 2}, date(2024, time.January, 10))
	assert.Equal(t, date(2024, time.February, 29), occ)
	assert.Equal(t, 50, days)

	// Non-leap evaluation year normalizes to Mar 1.
	occ, _ = NextOccurrence(Date{Day: 29, Month: 2}, date(2025, time.January, 10))
	assert.Equal(t, date(2025, time.March, 1), occ)

	// On the normalized day itself the occurrence is today.
	_, days = NextOccurrence(Date{Day: 29, Month: 2}, date(2025, time.March, 1))
	assert.Equal(t, 0, days)
}

func TestNextOccurrenceBoundsProperty(t *testing.T) {
	todays := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.May, 14),
		date(2024, time.December, 31),
		date(2025, time.February, 28),
	}
	for _, today := range todays {
		for month := time.January; month <= time.December; month++ {
			for day := 1; day <= 28; day++ {
				occ, days := NextOccurrence(Date{Day: day, Month: int(month)}, today)
				require.GreaterOrEqual(t, days, 0)
				require.LessOrEqual(t, days, 366)
				require.Equal(t, days == 0, occ.Equal(today),
					"days==0 must mean the occurrence is today (date %02d-%02d, today %s)", day, month, today)
			}
		}
	}
}
