// Package intensity maps the local hour to a panel brightness level.
package intensity

// MaxLevel is the brightest level the matrix accepts.
const MaxLevel = 15

// Range assigns Level to hours in [From, To).
type Range struct {
	From, To int
	Level    byte
}

// Contains reports whether hour falls inside the range.
func (r Range) Contains(hour int) bool {
	return hour >= r.From && hour < r.To
}

// DefaultRanges is the day schedule. Hours 18 and 23 are not covered and keep
// whatever level was set before.
var DefaultRanges = []Range{
	{From: 0, To: 7, Level: 0},
	{From: 7, To: 11, Level: 2},
	{From: 11, To: 18, Level: 8},
	{From: 19, To: 21, Level: 5},
	{From: 21, To: 23, Level: 1},
}

// Scheduler remembers the last level so uncovered hours are sticky.
type Scheduler struct {
	ranges []Range
	level  byte
}

// NewScheduler returns a scheduler over DefaultRanges starting at initial.
func NewScheduler(initial byte) *Scheduler {
	return NewSchedulerWithRanges(DefaultRanges, initial)
}

// NewSchedulerWithRanges returns a scheduler over ranges. The first matching
// range wins; levels above MaxLevel are clamped.
func NewSchedulerWithRanges(ranges []Range, initial byte) *Scheduler {
	rs := make([]Range, len(ranges))
	copy(rs, ranges)
	for i := range rs {
		rs[i].Level = clamp(rs[i].Level)
	}
	return &Scheduler{ranges: rs, level: clamp(initial)}
}

// Update selects the level for hour and returns it.
func (s *Scheduler) Update(hour int) byte {
	for _, r := range s.ranges {
		if r.Contains(hour) {
			s.level = r.Level
			break
		}
	}
	return s.level
}

// Level returns the current level.
func (s *Scheduler) Level() byte {
	return s.level
}

func clamp(l byte) byte {
	if l > MaxLevel {
		return MaxLevel
	}
	return l
}
