package datemath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// zeller is an independent reference using Zeller's congruence.
func zeller(year, month, day int) int {
	if month < 3 {
		month += 12
		year--
	}
	k := year % 100
	j := year / 100
	h := (day + 13*(month+1)/5 + k + k/4 + j/4 + 5*j) % 7
	return (h + 6) % 7
}

func TestDayOfWeekReference(t *testing.T) {
	assert.Equal(t, Saturday, DayOfWeek(2000, 1, 1))
	assert.Equal(t, Thursday, DayOfWeek(1970, 1, 1))
	assert.Equal(t, Monday, DayOfWeek(1, 1, 1))
	assert.Equal(t, Sunday, DayOfWeek(2023, 3, 26))
}

func TestDayOfWeekMatchesReferences(t *testing.T) {
	for year := 1600; year <= 2400; year++ {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= DaysInMonth(year, month); day++ {
				got := DayOfWeek(year, month, day)
				want := int(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday())
				if got != want {
					t.Fatalf("DayOfWeek(%d, %d, %d) = %d, want %d", year, month, day, got, want)
				}
				if z := zeller(year, month, day); got != z {
					t.Fatalf("DayOfWeek(%d, %d, %d) = %d, zeller %d", year, month, day, got, z)
				}
			}
		}
	}
}

func TestIsLeapYear(t *testing.T) {
	tests := []struct {
		year int
		want bool
	}{
		{1900, false},
		{2000, true},
		{2023, false},
		{2024, true},
		{2100, false},
		{2400, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLeapYear(tt.year), "year %d", tt.year)
	}
}

func TestDaysInMonth(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for month := 1; month <= 12; month++ {
			// Day 0 of the next month is the last day of this one.
			want := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			assert.Equal(t, want, DaysInMonth(year, month), "%d-%02d", year, month)
		}
	}
}

func TestSundays(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(year, month int) int
		year  int
		month int
		want  int
	}{
		{"EU start 2023", LastSunday, 2023, 3, 26},
		{"EU end 2023", LastSunday, 2023, 10, 29},
		{"EU start 2024", LastSunday, 2024, 3, 31},
		{"US start 2023", SecondSunday, 2023, 3, 12},
		{"US end 2023", FirstSunday, 2023, 11, 5},
		{"US start 2026", SecondSunday, 2026, 3, 8},
		{"month starting on Sunday", FirstSunday, 2026, 11, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(tt.year, tt.month)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, Sunday, DayOfWeek(tt.year, tt.month, got))
		})
	}
}

func TestLastSundayIsInFinalWeek(t *testing.T) {
	for year := 1990; year <= 2100; year++ {
		for month := 1; month <= 12; month++ {
			d := LastSunday(year, month)
			assert.Greater(t, d+7, DaysInMonth(year, month))
			assert.Equal(t, Sunday, DayOfWeek(year, month, d))
		}
	}
}
