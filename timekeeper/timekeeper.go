// Package timekeeper projects local wall-clock time from a single UTC anchor
// and a monotonic millisecond counter.
//
// The UTC offset and any DST delta are added to the epoch seconds before the
// calendar decomposition, which then treats the shifted value as UTC. No
// timezone database is consulted.
package timekeeper

import (
	"context"
	"time"

	"github.com/flavioheleno/max7219/datemath"
	"github.com/flavioheleno/max7219/dst"
	"github.com/flavioheleno/max7219/settings"
)

// TickSource is a monotonic millisecond counter.
type TickSource interface {
	Millis() int64
}

// TimeSource returns the current UTC time in seconds since the Unix epoch.
type TimeSource interface {
	UTCSeconds(ctx context.Context) (int64, error)
}

// Monotonic counts milliseconds since it was created using the runtime's
// monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a counter at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Millis returns the elapsed milliseconds.
func (m *Monotonic) Millis() int64 {
	return time.Since(m.start).Milliseconds()
}

// Anchor pairs a UTC timestamp with the tick count read when it was taken.
type Anchor struct {
	EpochSeconds  int64
	TickAtCapture int64
}

// UTCAt projects the anchor to tick.
func (a Anchor) UTCAt(tick int64) int64 {
	return a.EpochSeconds + (tick-a.TickAtCapture)/1000
}

// WallClock holds the local calendar fields for display. Weekday is 0-6,
// 0 being Sunday.
type WallClock struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	Weekday              int
}

// Hour12 returns the hour on a 12-hour dial and whether it is after noon.
func (w WallClock) Hour12() (int, bool) {
	return To12Hour(w.Hour)
}

// To12Hour converts a 0-23 hour to 1-12 and a PM flag.
func To12Hour(hour int) (int, bool) {
	pm := hour >= 12
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return h, pm
}

// LocalSeconds applies the UTC offset and, when configured and active, the
// DST delta to utc.
func LocalSeconds(utc int64, s settings.RuntimeSettings) int64 {
	base := s.OffsetSeconds()
	local := utc + base
	if s.ObserveDST && s.DSTRule != dst.None && dst.Active(s.DSTRule, utc, base) {
		local += s.ExtraSeconds()
	}
	return local
}

// Decompose splits local seconds into calendar fields as if they were UTC.
func Decompose(local int64) WallClock {
	t := time.Unix(local, 0).UTC()
	w := WallClock{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
	w.Weekday = datemath.DayOfWeek(w.Year, w.Month, w.Day)
	return w
}

// Project computes the wall clock for anchor a at tick.
func Project(a Anchor, tick int64, s settings.RuntimeSettings) WallClock {
	return Decompose(LocalSeconds(a.UTCAt(tick), s))
}

// TimeKeeper owns the current anchor. It starts unsynced and becomes synced
// on the first successful resync; it never goes back.
type TimeKeeper struct {
	ticks  TickSource
	anchor Anchor
	synced bool
}

// New returns an unsynced keeper reading ticks from src.
func New(src TickSource) *TimeKeeper {
	return &TimeKeeper{ticks: src}
}

// Sync replaces the anchor with epoch captured at the current tick.
func (k *TimeKeeper) Sync(epoch int64) {
	k.anchor = Anchor{EpochSeconds: epoch, TickAtCapture: k.ticks.Millis()}
	k.synced = true
}

// Synced reports whether an anchor has ever been taken.
func (k *TimeKeeper) Synced() bool {
	return k.synced
}

// Anchor returns the current anchor.
func (k *TimeKeeper) Anchor() Anchor {
	return k.anchor
}

// UTC returns the projected UTC seconds.
func (k *TimeKeeper) UTC() int64 {
	return k.anchor.UTCAt(k.ticks.Millis())
}

// Now returns the projected wall clock for s.
func (k *TimeKeeper) Now(s settings.RuntimeSettings) WallClock {
	return Project(k.anchor, k.ticks.Millis(), s)
}

// Resync queries src and replaces the anchor on success. On failure the
// previous anchor keeps being projected and the error is returned.
// changed reports whether the anchor was replaced.
func (k *TimeKeeper) Resync(ctx context.Context, src TimeSource) (changed bool, err error) {
	epoch, err := src.UTCSeconds(ctx)
	if err != nil {
		return false, err
	}
	k.Sync(epoch)
	return true, nil
}
