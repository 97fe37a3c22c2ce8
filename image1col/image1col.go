// Package image1col provides a 1-bit image format optimized for MAX7219 LED matrices.
//
// Pixels are stored column-major: each byte holds one column of up to 8 rows.
// Bit 0 is the top row, bit 7 the bottom row. This matches how glyphs are
// drawn and how the panel chain is refreshed, and lets the framebuffer be
// shifted and composed one column at a time.
package image1col

import (
	"image"
	"image/color"
)

// Height is the maximum number of rows a VerticalLSB can hold.
const Height = 8

// Bit is a 1-bit color: an LED is either lit or dark.
type Bit bool

// Lit and Dark are the two Bit values.
const (
	Lit  Bit = true
	Dark Bit = false
)

// RGBA converts the Bit to white or black.
func (b Bit) RGBA() (r, g, bl, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

// toBit converts any color.Color to Bit using a 50% luminance threshold.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// VerticalLSB is a 1-bit image stored as one byte per column.
type VerticalLSB struct {
	Pix  []byte          // One byte per column
	Rect image.Rectangle // Image bounds, at most Height rows
}

// NewVerticalLSB creates a new VerticalLSB image with the specified bounds.
// The height must not exceed Height.
func NewVerticalLSB(r image.Rectangle) *VerticalLSB {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &VerticalLSB{Rect: r}
	}
	if h > Height {
		panic("image1col: height must be at most 8")
	}
	return &VerticalLSB{
		Pix:  make([]byte, w),
		Rect: r,
	}
}

// ColorModel returns the color model of the image.
func (p *VerticalLSB) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (p *VerticalLSB) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *VerticalLSB) At(x, y int) color.Color {
	return p.BitAt(x, y)
}

// BitAt returns the Bit of the pixel at (x, y).
func (p *VerticalLSB) BitAt(x, y int) Bit {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Dark
	}
	return p.Pix[x-p.Rect.Min.X]&(1<<uint(y-p.Rect.Min.Y)) != 0
}

// Set sets the color of the pixel at (x, y).
func (p *VerticalLSB) Set(x, y int, c color.Color) {
	p.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the Bit of the pixel at (x, y).
func (p *VerticalLSB) SetBit(x, y int, b Bit) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i, mask := x-p.Rect.Min.X, byte(1)<<uint(y-p.Rect.Min.Y)
	if b {
		p.Pix[i] |= mask
	} else {
		p.Pix[i] &^= mask
	}
}

// Column returns column x, or 0 when x is outside the image.
func (p *VerticalLSB) Column(x int) byte {
	i := x - p.Rect.Min.X
	if i < 0 || i >= len(p.Pix) {
		return 0
	}
	return p.Pix[i]
}

// SetColumn places v at column x shifted vertically by dy rows.
//
// With dy == 0 the column is overwritten. Otherwise v is shifted towards the
// top (dy > 0) or the bottom (dy < 0) and OR'ed into the existing content, so
// overlapping glyphs compose. Nothing is drawn for columns outside the image
// or when |dy| > Height.
func (p *VerticalLSB) SetColumn(x int, v byte, dy int) {
	if dy < -Height || dy > Height {
		return
	}
	i := x - p.Rect.Min.X
	if i < 0 || i >= len(p.Pix) {
		return
	}
	switch {
	case dy == 0:
		p.Pix[i] = v
	case dy > 0:
		p.Pix[i] |= v >> uint(dy)
	default:
		p.Pix[i] |= v << uint(-dy)
	}
}

// ShiftLeft moves every column one position left and clears the last one.
func (p *VerticalLSB) ShiftLeft() {
	if len(p.Pix) == 0 {
		return
	}
	copy(p.Pix, p.Pix[1:])
	p.Pix[len(p.Pix)-1] = 0
}

// Clear darkens every pixel.
func (p *VerticalLSB) Clear() {
	clear(p.Pix)
}
