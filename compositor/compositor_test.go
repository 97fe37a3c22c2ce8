package compositor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavioheleno/max7219/font"
)

type recorder struct {
	frames [][]byte
	err    error
}

func (r *recorder) Flush(cols []byte) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, append([]byte(nil), cols...))
	return nil
}

func digitCols(t *testing.T, n int) []byte {
	t.Helper()
	g, ok := font.Digit(n)
	require.True(t, ok)
	return g.Columns()
}

// settle renders d until the transition finishes.
func settle(c *Compositor, d [Slots]int) {
	c.RenderFrame(d, false)
	for !c.Idle() {
		c.RenderFrame(d, false)
	}
}

func TestDefaultLayout(t *testing.T) {
	assert.Equal(t, baseLayout, DefaultLayout(32))
	assert.Equal(t, baseLayout, DefaultLayout(16), "narrow chains are clipped, not shifted")

	l := DefaultLayout(48)
	assert.Equal(t, [Slots]int{8, 13, 19, 24, 30, 35}, l.Digits)
	assert.Equal(t, [2]int{18, 29}, l.Separators)
	assert.Equal(t, 39, l.PM)
}

func TestClockDigits(t *testing.T) {
	tests := []struct {
		name    string
		h, m, s int
		use12   bool
		want    [Slots]int
		wantPM  bool
	}{
		{"24h morning", 9, 5, 7, false, [Slots]int{0, 9, 0, 5, 0, 7}, false},
		{"24h evening", 23, 59, 59, false, [Slots]int{2, 3, 5, 9, 5, 9}, false},
		{"12h midnight", 0, 0, 0, true, [Slots]int{1, 2, 0, 0, 0, 0}, false},
		{"12h single digit blanked", 9, 30, 0, true, [Slots]int{font.Blank, 9, 3, 0, 0, 0}, false},
		{"12h noon", 12, 0, 1, true, [Slots]int{1, 2, 0, 0, 0, 1}, true},
		{"12h afternoon", 13, 45, 10, true, [Slots]int{font.Blank, 1, 4, 5, 1, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, pm := ClockDigits(tt.h, tt.m, tt.s, tt.use12)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.wantPM, pm)
		})
	}
}

func TestNewStartsBlank(t *testing.T) {
	c := New(4, DefaultLayout(32))
	assert.Equal(t, 32, c.Width())
	assert.Len(t, c.Columns(), 32)
	assert.True(t, c.Idle())
	for _, cell := range c.Cells() {
		assert.Equal(t, font.Blank, cell.Value)
		assert.Zero(t, cell.Countdown)
	}
}

func TestTransitionLastsDigitHeightFrames(t *testing.T) {
	c := New(4, DefaultLayout(32))
	first := [Slots]int{1, 2, 3, 4, 5, 0}
	settle(c, first)
	for _, cell := range c.Cells() {
		require.Zero(t, cell.Countdown)
	}

	next := first
	next[5] = 1
	for frame := 1; frame <= DigitHeight; frame++ {
		c.RenderFrame(next, false)
		cells := c.Cells()
		assert.Equal(t, DigitHeight-frame, cells[5].Countdown, "frame %d", frame)
		for i := 0; i < 5; i++ {
			assert.Zero(t, cells[i].Countdown, "unchanged slot %d must not slide", i)
		}
	}
	cell := c.Cells()[5]
	assert.Equal(t, 0, cell.Previous)
	assert.Equal(t, 1, cell.Value)

	// One static frame closes the cycle before new values are latched.
	assert.False(t, c.Idle())
	c.RenderFrame(next, false)
	assert.True(t, c.Idle())
}

func TestOffsetsSumToDigitHeight(t *testing.T) {
	for cd := 1; cd <= DigitHeight; cd++ {
		out, in := Offsets(cd)
		assert.GreaterOrEqual(t, out, 0)
		assert.LessOrEqual(t, in, 0)
		assert.Equal(t, DigitHeight, out-in, "countdown %d", cd)
	}
}

func TestTransitionFramesComposeBothGlyphs(t *testing.T) {
	layout := DefaultLayout(32)
	c := New(4, layout)
	settle(c, [Slots]int{0, 0, 0, 0, 0, 0})

	oldCols, newCols := digitCols(t, 0), digitCols(t, 1)
	x := layout.Digits[5]
	next := [Slots]int{0, 0, 0, 0, 0, 1}
	for frame := 1; frame <= DigitHeight+1; frame++ {
		c.RenderFrame(next, false)
		for i := range newCols {
			var want byte
			if frame <= DigitHeight {
				want = oldCols[i]>>uint(frame-1) | newCols[i]<<uint(DigitHeight-frame+1)
			} else {
				want = newCols[i]
			}
			assert.Equal(t, want, c.Columns()[x+i], "frame %d column %d", frame, i)
		}
		// Static slots stay put.
		assert.Equal(t, oldCols[0], c.Columns()[layout.Digits[0]])
	}
}

func TestSeparatorsAndPM(t *testing.T) {
	layout := DefaultLayout(32)
	c := New(4, layout)
	d := [Slots]int{1, 2, 0, 0, 0, 0}

	c.SetDots(true)
	assert.True(t, c.Dots())
	c.RenderFrame(d, true)
	cols := c.Columns()
	assert.Equal(t, ColonColumn, cols[layout.Separators[0]])
	assert.Equal(t, ColonColumn, cols[layout.Separators[1]])
	assert.Equal(t, PMColumn, cols[layout.PM])

	c.SetDots(false)
	c.RenderFrame(d, false)
	cols = c.Columns()
	assert.Zero(t, cols[layout.Separators[0]])
	assert.Zero(t, cols[layout.Separators[1]])
	assert.Zero(t, cols[layout.PM])
}

func TestDrawGlyphAndSetColumn(t *testing.T) {
	c := New(1, DefaultLayout(8))
	g, _ := font.Char('A')
	w := c.DrawGlyph(g, 2, 0)
	assert.Equal(t, 5, w)
	assert.Equal(t, g.Columns(), c.Columns()[2:7])

	// Out of range glyph positions are clipped.
	c.Clear()
	c.DrawGlyph(g, 6, 0)
	assert.Equal(t, g.Columns()[:2], c.Columns()[6:8])

	c.Clear()
	c.SetColumn(0, 0x0F, 0)
	c.SetColumn(0, 0xF0, -9)
	assert.Equal(t, byte(0x0F), c.Columns()[0])
}

func TestRasterize(t *testing.T) {
	c := New(4, DefaultLayout(32))
	strip := c.Rasterize("1 é!")
	assert.Equal(t, []byte{0x42, 0x7F, 0x40, 0, 0, 0, 0, 0x5F, 0}, strip)
	assert.Equal(t, strip, c.Rasterize("1 é!"))
	assert.Empty(t, c.Rasterize(""))
}

func TestScrollText(t *testing.T) {
	c := New(4, DefaultLayout(32))
	rec := &recorder{}
	require.NoError(t, c.ScrollText(context.Background(), rec, "!", 0))

	require.Len(t, rec.frames, 2)
	assert.Equal(t, byte(0x5F), rec.frames[0][31])
	assert.Equal(t, byte(0x5F), rec.frames[1][30])
	assert.Zero(t, rec.frames[1][31])
	for _, f := range rec.frames {
		assert.Len(t, f, 32)
	}
}

func TestScrollTextStops(t *testing.T) {
	c := New(4, DefaultLayout(32))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	assert.ErrorIs(t, c.ScrollText(ctx, rec, "abc", 0), context.Canceled)
	assert.Empty(t, rec.frames)

	boom := errors.New("bus fault")
	rec = &recorder{err: boom}
	assert.ErrorIs(t, c.ScrollText(context.Background(), rec, "abc", 0), boom)
}
