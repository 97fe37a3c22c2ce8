// Package clock runs the display loop: it keeps the time anchor fresh,
// projects the wall clock, picks the brightness and renders one animation
// frame per iteration.
//
// Everything runs on the caller's goroutine. The only pauses are the frame
// delay, the status text scroll steps and the hold after a scroll.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flavioheleno/max7219/compositor"
	"github.com/flavioheleno/max7219/intensity"
	"github.com/flavioheleno/max7219/settings"
	"github.com/flavioheleno/max7219/timekeeper"
)

// Matrix is the panel driver as seen by the loop.
type Matrix interface {
	SetIntensity(level byte) error
	Flush(cols []byte) error
}

// Options holds the loop cadence.
type Options struct {
	FrameDelay     time.Duration
	Blink          time.Duration
	StatusInterval time.Duration
	ScrollStep     time.Duration
	StatusHold     time.Duration
	// ResyncEvery is the number of status scrolls between two resyncs.
	ResyncEvery int
}

// DefaultOptions returns the standard cadence.
func DefaultOptions() Options {
	return Options{
		FrameDelay:     30 * time.Millisecond,
		Blink:          500 * time.Millisecond,
		StatusInterval: 20 * time.Second,
		ScrollStep:     40 * time.Millisecond,
		StatusHold:     5 * time.Second,
		ResyncEvery:    60,
	}
}

// Timer is a named period measured in ticks.
type Timer struct {
	Name   string
	Period time.Duration
	last   int64
}

// NewTimer returns a timer started at now (milliseconds).
func NewTimer(name string, period time.Duration, now int64) Timer {
	return Timer{Name: name, Period: period, last: now}
}

// Elapsed returns the time since the last reset.
func (t *Timer) Elapsed(now int64) time.Duration {
	return time.Duration(now-t.last) * time.Millisecond
}

// Due reports whether a full period has passed.
func (t *Timer) Due(now int64) bool {
	return t.Elapsed(now) >= t.Period
}

// Reset restarts the period at now.
func (t *Timer) Reset(now int64) {
	t.last = now
}

// State is the mutable loop context. It is built once at startup and only
// touched by the loop.
type State struct {
	Settings   settings.RuntimeSettings
	Keeper     *timekeeper.TimeKeeper
	Display    *compositor.Compositor
	Brightness *intensity.Scheduler

	// ResyncCountdown counts status scrolls left before the next resync.
	// It starts at zero so the first iteration resyncs.
	ResyncCountdown int

	Blink  Timer
	Status Timer
}

// NewState assembles the loop state with its timers started at now.
func NewState(s settings.RuntimeSettings, k *timekeeper.TimeKeeper, d *compositor.Compositor, opts Options, now int64) *State {
	return &State{
		Settings:   s,
		Keeper:     k,
		Display:    d,
		Brightness: intensity.NewScheduler(0),
		Blink:      NewTimer("blink", opts.Blink, now),
		Status:     NewTimer("status", opts.StatusInterval, now),
	}
}

// Loop drives a State against a Matrix.
type Loop struct {
	st     *State
	matrix Matrix
	source timekeeper.TimeSource
	ticks  timekeeper.TickSource
	opts   Options
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop returns a loop. ticks must be the source the keeper was built on.
func NewLoop(st *State, m Matrix, src timekeeper.TimeSource, ticks timekeeper.TickSource, opts Options, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		st:     st,
		matrix: m,
		source: src,
		ticks:  ticks,
		opts:   opts,
		logger: logger,
		sleep:  sleep,
	}
}

// Run steps the loop until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("display loop started", "settings", l.st.Settings)
	for {
		if err := l.Step(ctx); err != nil {
			if ctx.Err() != nil {
				l.logger.Info("display loop stopped")
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration. It only fails when ctx is done.
func (l *Loop) Step(ctx context.Context) error {
	st := l.st
	now := l.ticks.Millis()

	if st.ResyncCountdown <= 0 {
		l.resync(ctx)
		st.ResyncCountdown = l.opts.ResyncEvery
		st.Status.Reset(now)
	}

	if st.Status.Due(now) && st.Display.Idle() && st.Display.Dots() {
		if err := l.showStatus(ctx); err != nil {
			return err
		}
		st.ResyncCountdown--
		now = l.ticks.Millis()
		st.Status.Reset(now)
	}

	if st.Blink.Due(now) {
		st.Display.SetDots(!st.Display.Dots())
		st.Blink.Reset(now)
	}

	wc := st.Keeper.Now(st.Settings)
	if err := l.matrix.SetIntensity(st.Brightness.Update(wc.Hour)); err != nil {
		l.logger.Warn("set intensity failed", "error", err)
	}

	digits, pm := compositor.ClockDigits(wc.Hour, wc.Minute, wc.Second, st.Settings.Use12Hour)
	st.Display.RenderFrame(digits, pm)
	if err := l.matrix.Flush(st.Display.Columns()); err != nil {
		l.logger.Warn("flush failed", "error", err)
	}

	return l.sleep(ctx, l.opts.FrameDelay)
}

func (l *Loop) resync(ctx context.Context) {
	before := l.st.Keeper.Anchor()
	changed, err := l.st.Keeper.Resync(ctx, l.source)
	if err != nil {
		l.logger.Warn("time resync failed, keeping previous anchor", "error", err, "synced", l.st.Keeper.Synced())
		return
	}
	if changed {
		after := l.st.Keeper.Anchor()
		l.logger.Debug("time resynced",
			"utc", after.EpochSeconds,
			"drift_s", after.EpochSeconds-before.UTCAt(after.TickAtCapture),
		)
	}
}

func (l *Loop) showStatus(ctx context.Context) error {
	wc := l.st.Keeper.Now(l.st.Settings)
	text := StatusText(wc)
	l.logger.Debug("scrolling status", "text", text)
	if err := l.st.Display.ScrollText(ctx, l.matrix, text, l.opts.ScrollStep); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("status scroll failed", "error", err)
	}
	return l.sleep(ctx, l.opts.StatusHold)
}

var (
	weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	months   = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// StatusText is the date line scrolled between clock displays.
func StatusText(wc timekeeper.WallClock) string {
	wd, mon := "", ""
	if wc.Weekday >= 0 && wc.Weekday < len(weekdays) {
		wd = weekdays[wc.Weekday]
	}
	if wc.Month >= 1 && wc.Month <= len(months) {
		mon = months[wc.Month-1]
	}
	return fmt.Sprintf("  %s %d %s %d", wd, wc.Day, mon, wc.Year)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
