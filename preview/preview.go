// Package preview renders the matrix framebuffer on a terminal, for running
// the clock without the hardware attached.
package preview

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

const rows = 8

// Terminal draws each flushed frame as eight lines of dots. Brighter
// intensity levels use a brighter color.
type Terminal struct {
	w      io.Writer
	level  byte
	frames int
	width  int
	buf    bytes.Buffer
}

// New returns a Terminal writing to w.
func New(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// SetIntensity records the brightness used for the next frames.
func (t *Terminal) SetIntensity(level byte) error {
	if level > 15 {
		return fmt.Errorf("preview: intensity %d out of range", level)
	}
	t.level = level
	return nil
}

// Intensity returns the last level set.
func (t *Terminal) Intensity() byte {
	return t.level
}

// Flush draws cols, one byte per column with bit 0 on top. With colors
// enabled the previous frame is overwritten in place.
func (t *Terminal) Flush(cols []byte) error {
	t.buf.Reset()
	if t.frames > 0 && !color.NoColor {
		fmt.Fprintf(&t.buf, "\x1b[%dF", rows)
	}
	lit := t.litColor()
	dark := color.New(color.FgHiBlack)
	for y := 0; y < rows; y++ {
		var line strings.Builder
		for _, c := range cols {
			if c&(1<<uint(y)) != 0 {
				line.WriteString(lit.Sprint("#"))
			} else {
				line.WriteString(dark.Sprint("."))
			}
		}
		t.buf.WriteString(line.String())
		t.buf.WriteByte('\n')
	}
	t.frames++
	t.width = len(cols)
	_, err := t.w.Write(t.buf.Bytes())
	return err
}

// Halt blanks the preview.
func (t *Terminal) Halt() error {
	return t.Flush(make([]byte, t.width))
}

func (t *Terminal) litColor() *color.Color {
	switch {
	case t.level < 4:
		return color.New(color.FgRed)
	case t.level < 10:
		return color.New(color.FgHiRed)
	default:
		return color.New(color.FgHiRed, color.Bold)
	}
}
