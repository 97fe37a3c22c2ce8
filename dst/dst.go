// Package dst decides whether daylight saving time applies at a UTC instant
// for the European and United States rule families.
//
// The rules work on whole calendar fields only: once the transition Sunday is
// reached, only the hour is compared against the threshold.
package dst

import (
	"fmt"
	"strings"
	"time"

	"github.com/flavioheleno/max7219/datemath"
)

// Rule selects a DST rule family.
type Rule uint8

const (
	// None never applies DST.
	None Rule = iota
	// EU switches at 01:00 UTC on the last Sunday of March and October.
	EU
	// US switches at 02:00 local standard time on the second Sunday of
	// March and the first Sunday of November.
	US
)

// String returns the provisioning name of the rule.
func (r Rule) String() string {
	switch r {
	case None:
		return "NONE"
	case EU:
		return "AUTO_EU"
	case US:
		return "AUTO_US"
	default:
		return fmt.Sprintf("Rule(%d)", uint8(r))
	}
}

// Valid reports whether r is one of the known rule families.
func (r Rule) Valid() bool {
	return r <= US
}

// ParseRule parses a provisioning rule name, ignoring case.
func ParseRule(s string) (Rule, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NONE":
		return None, nil
	case "AUTO_EU":
		return EU, nil
	case "AUTO_US":
		return US, nil
	default:
		return None, fmt.Errorf("dst: unknown rule %q", s)
	}
}

// Active reports whether rule applies DST at utc. baseOffset is the
// standard UTC offset in seconds; only the US rule uses it.
func Active(rule Rule, utc, baseOffset int64) bool {
	switch rule {
	case EU:
		return IsEU(utc)
	case US:
		return IsUS(utc, baseOffset)
	default:
		return false
	}
}

// IsEU reports whether European summer time is in effect at utc.
func IsEU(utc int64) bool {
	t := time.Unix(utc, 0).UTC()
	month := int(t.Month())
	switch {
	case month < 3 || month > 10:
		return false
	case month > 3 && month < 10:
		return true
	}

	last := datemath.LastSunday(t.Year(), month)
	if month == 3 {
		return t.Day() > last || (t.Day() == last && t.Hour() >= 1)
	}
	return t.Day() < last || (t.Day() == last && t.Hour() < 1)
}

// IsUS reports whether United States daylight time is in effect at utc for
// a zone whose standard offset is baseOffset seconds. The DST delta itself
// is never added before evaluating the thresholds.
func IsUS(utc, baseOffset int64) bool {
	t := time.Unix(utc+baseOffset, 0).UTC()
	month := int(t.Month())
	switch {
	case month < 3 || month > 11:
		return false
	case month > 3 && month < 11:
		return true
	}

	if month == 3 {
		start := datemath.SecondSunday(t.Year(), month)
		return t.Day() > start || (t.Day() == start && t.Hour() >= 2)
	}
	end := datemath.FirstSunday(t.Year(), month)
	return t.Day() < end || (t.Day() == end && t.Hour() < 2)
}
