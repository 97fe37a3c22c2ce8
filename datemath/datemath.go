// Package datemath provides Gregorian calendar arithmetic used by the DST
// rules. All functions are pure; months are 1-12 and weekdays are 0-6 with
// 0 being Sunday.
package datemath

// Weekday numbers returned by DayOfWeek.
const (
	Sunday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// monthTable holds the per-month offsets of Sakamoto's congruence.
var monthTable = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

// DayOfWeek returns the weekday of the given date, 0 being Sunday.
// It is valid for the proleptic Gregorian calendar from year 1.
func DayOfWeek(year, month, day int) int {
	if month < 3 {
		year--
	}
	return (year + year/4 - year/100 + year/400 + monthTable[month-1] + day) % 7
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// NthWeekday returns the day of month of the n-th (1-based) occurrence of
// weekday in month. The result may exceed DaysInMonth when n is too large.
func NthWeekday(year, month, weekday, n int) int {
	first := DayOfWeek(year, month, 1)
	return 1 + (weekday-first+7)%7 + (n-1)*7
}

// LastWeekday returns the day of month of the last occurrence of weekday.
func LastWeekday(year, month, weekday int) int {
	last := DaysInMonth(year, month)
	return last - (DayOfWeek(year, month, last)-weekday+7)%7
}

// FirstSunday returns the day of month of the first Sunday.
func FirstSunday(year, month int) int {
	return NthWeekday(year, month, Sunday, 1)
}

// SecondSunday returns the day of month of the second Sunday.
func SecondSunday(year, month int) int {
	return NthWeekday(year, month, Sunday, 2)
}

// LastSunday returns the day of month of the last Sunday.
func LastSunday(year, month int) int {
	return LastWeekday(year, month, Sunday)
}
