// Package compositor renders clock digits and status text into a column
// framebuffer.
//
// Six digit slots slide vertically when their value changes. A shared frame
// countdown drives all slots together: when it reaches zero the next digit
// values are latched and every slot whose value differs starts a transition
// lasting DigitHeight frames. Status text is scrolled in from the right with
// fixed pacing.
package compositor

import (
	"context"
	"image"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/flavioheleno/max7219/font"
	"github.com/flavioheleno/max7219/image1col"
	"github.com/flavioheleno/max7219/timekeeper"
)

// DigitHeight is the number of frames a digit transition lasts.
const DigitHeight = font.DigitHeight

// Slots is the number of digit positions.
const Slots = 6

// ColonColumn is the separator pattern drawn while the dots are on.
const ColonColumn byte = 0x14

// PMColumn is the marker lit in 12-hour mode after noon.
const PMColumn byte = 0x80

// Flusher sends visible columns to the panel.
type Flusher interface {
	Flush(cols []byte) error
}

// Layout places the digit slots, the two separators and the PM marker.
type Layout struct {
	Digits     [Slots]int
	Separators [2]int
	PM         int
}

// baseLayout fits HH:MM:SS into 32 columns.
var baseLayout = Layout{
	Digits:     [Slots]int{0, 5, 11, 16, 22, 27},
	Separators: [2]int{10, 21},
	PM:         31,
}

// DefaultLayout centres the 32-column clock in width columns.
func DefaultLayout(width int) Layout {
	off := max((width-32)/2, 0)
	l := baseLayout
	for i := range l.Digits {
		l.Digits[i] += off
	}
	for i := range l.Separators {
		l.Separators[i] += off
	}
	l.PM += off
	return l
}

// DigitCell is the animation state of one slot.
type DigitCell struct {
	Value     int
	Previous  int
	Countdown int
}

// Compositor owns the framebuffer and the digit cells.
type Compositor struct {
	fb     *image1col.VerticalLSB
	width  int
	layout Layout
	cells  [Slots]DigitCell
	del    int
	dots   bool
	strips *otter.Cache[string, []byte]
}

// New creates a compositor for a chain of panels 8-column modules. The
// framebuffer carries an extra module of staging columns for scrolling.
// Slots start blank so the first digits slide in.
func New(panels int, layout Layout) *Compositor {
	width := max(panels, 1) * 8
	c := &Compositor{
		fb:     image1col.NewVerticalLSB(imageRect(width + 8)),
		width:  width,
		layout: layout,
		strips: otter.Must(&otter.Options[string, []byte]{
			MaximumSize: 64,
		}),
	}
	for i := range c.cells {
		c.cells[i].Value = font.Blank
	}
	return c
}

// Width returns the number of visible columns.
func (c *Compositor) Width() int {
	return c.width
}

// Columns returns the visible part of the framebuffer. The slice aliases the
// framebuffer and is overwritten by the next frame.
func (c *Compositor) Columns() []byte {
	return c.fb.Pix[:c.width]
}

// Cells returns a copy of the digit cells.
func (c *Compositor) Cells() [Slots]DigitCell {
	return c.cells
}

// Idle reports whether no transition is running, so the next frame latches
// new digit values.
func (c *Compositor) Idle() bool {
	return c.del == 0
}

// SetDots turns the separators on or off for the following frames.
func (c *Compositor) SetDots(on bool) {
	c.dots = on
}

// Dots reports the separator state.
func (c *Compositor) Dots() bool {
	return c.dots
}

// Clear darkens the whole framebuffer, staging columns included.
func (c *Compositor) Clear() {
	c.fb.Clear()
}

// SetColumn places v at column x with vertical offset dy. See
// image1col.VerticalLSB.SetColumn.
func (c *Compositor) SetColumn(x int, v byte, dy int) {
	c.fb.SetColumn(x, v, dy)
}

// DrawGlyph draws g with its first column at x. It returns the glyph width.
func (c *Compositor) DrawGlyph(g font.Glyph, x, dy int) int {
	for i, col := range g.Columns() {
		c.fb.SetColumn(x+i, col, dy)
	}
	return int(g.W)
}

// ClockDigits splits a time into the six slot values. In 12-hour mode the
// hour is converted and a leading zero becomes font.Blank; pm reports the
// afternoon half.
func ClockDigits(hour, minute, second int, use12 bool) (d [Slots]int, pm bool) {
	if use12 {
		hour, pm = timekeeper.To12Hour(hour)
	}
	d = [Slots]int{hour / 10, hour % 10, minute / 10, minute % 10, second / 10, second % 10}
	if use12 && d[0] == 0 {
		d[0] = font.Blank
	}
	return d, pm
}

// RenderFrame draws one animation frame. digits are latched only when the
// previous transition has finished.
func (c *Compositor) RenderFrame(digits [Slots]int, pm bool) {
	if c.del == 0 {
		c.del = DigitHeight
		for i := range c.cells {
			cell := &c.cells[i]
			cell.Previous = cell.Value
			cell.Value = digits[i]
			if cell.Previous != cell.Value {
				cell.Countdown = DigitHeight
			} else {
				cell.Countdown = 0
			}
		}
	} else {
		c.del--
	}

	c.fb.Clear()
	for i := range c.cells {
		cell := &c.cells[i]
		x := c.layout.Digits[i]
		if cell.Countdown == 0 {
			c.drawDigit(cell.Value, x, 0)
			continue
		}
		out, in := Offsets(cell.Countdown)
		c.drawDigit(cell.Previous, x, out)
		c.drawDigit(cell.Value, x, in)
		cell.Countdown--
	}

	var sep byte
	if c.dots {
		sep = ColonColumn
	}
	for _, x := range c.layout.Separators {
		c.fb.SetColumn(x, sep, 0)
	}
	if pm {
		c.fb.SetColumn(c.layout.PM, PMColumn, 0)
	}
}

// Offsets returns the vertical offsets of the outgoing and incoming glyph
// for a slot with the given countdown. Their magnitudes always sum to
// DigitHeight.
func Offsets(countdown int) (out, in int) {
	return DigitHeight - countdown, -countdown
}

func (c *Compositor) drawDigit(n, x, dy int) {
	g, ok := font.Digit(n)
	if !ok {
		return
	}
	c.DrawGlyph(g, x, dy)
}

// Rasterize renders text as a strip of columns with one blank column after
// every glyph. Characters without a glyph are skipped. Strips are cached by
// text.
func (c *Compositor) Rasterize(text string) []byte {
	if strip, ok := c.strips.GetIfPresent(text); ok {
		return strip
	}
	var strip []byte
	for _, r := range text {
		g, ok := font.Char(r)
		if !ok {
			continue
		}
		strip = append(strip, g.Columns()...)
		strip = append(strip, 0)
	}
	c.strips.Set(text, strip)
	return strip
}

// ScrollText scrolls text in from the right edge, one column per step. Each
// step waits step, shifts the framebuffer left and flushes. It stops early
// when ctx is done or a flush fails.
func (c *Compositor) ScrollText(ctx context.Context, f Flusher, text string, step time.Duration) error {
	staging := c.width
	for _, col := range c.Rasterize(text) {
		if err := sleep(ctx, step); err != nil {
			return err
		}
		c.fb.SetColumn(staging, col, 0)
		c.fb.ShiftLeft()
		if err := f.Flush(c.Columns()); err != nil {
			return err
		}
	}
	return nil
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

func imageRect(w int) image.Rectangle {
	return image.Rect(0, 0, w, image1col.Height)
}
