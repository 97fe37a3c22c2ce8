package intensity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateCoveredHours(t *testing.T) {
	tests := []struct {
		hour int
		want byte
	}{
		{0, 0}, {6, 0},
		{7, 2}, {10, 2},
		{11, 8}, {17, 8},
		{19, 5}, {20, 5},
		{21, 1}, {22, 1},
	}
	s := NewScheduler(0)
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Update(tt.hour), "hour %d", tt.hour)
		assert.Equal(t, tt.want, s.Level())
	}
}

// Hours 18 and 23 have no range of their own. The level carried in from the
// previous hour is kept; these cases document that gap rather than a chosen
// brightness.
func TestUncoveredHoursKeepPreviousLevel(t *testing.T) {
	for _, hour := range []int{18, 23} {
		for _, prev := range []byte{0, 3, 8, 15} {
			s := NewScheduler(prev)
			assert.Equal(t, prev, s.Update(hour), "hour %d after level %d", hour, prev)
		}
	}

	s := NewScheduler(0)
	s.Update(17)
	assert.Equal(t, byte(8), s.Update(18), "evening gap keeps the midday level")
	s.Update(22)
	assert.Equal(t, byte(1), s.Update(23), "late gap keeps the late-evening level")
	assert.Equal(t, byte(0), s.Update(0))
}

func TestInitialLevelClamped(t *testing.T) {
	s := NewScheduler(200)
	assert.Equal(t, byte(MaxLevel), s.Level())
}

func TestCustomRanges(t *testing.T) {
	s := NewSchedulerWithRanges([]Range{{From: 0, To: 12, Level: 40}, {From: 12, To: 24, Level: 3}}, 1)
	assert.Equal(t, byte(MaxLevel), s.Update(5))
	assert.Equal(t, byte(3), s.Update(13))
	assert.Equal(t, byte(3), s.Update(24), "hour outside every range is sticky")
}
