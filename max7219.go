// Package max7219 drives a chain of daisy-chained MAX7219 8x8 LED modules via SPI.
//
// Every module holds eight row registers. A write to the chain shifts one
// (register, data) pair per module through it; the pair sent first ends up
// in the module farthest from the controller.
//
// See the examples for how to use this package.
package max7219

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/bits"

	"github.com/flavioheleno/max7219/image1col"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Register addresses.
const (
	regDigit0      = 0x01 // rows are 0x01-0x08
	regDecodeMode  = 0x09
	regIntensity   = 0x0A
	regScanLimit   = 0x0B
	regShutdown    = 0x0C
	regDisplayTest = 0x0F
)

// MaxIntensity is the brightest intensity level.
const MaxIntensity = 15

// MaxPanels bounds the chain length.
const MaxPanels = 16

const numRows = 8

// Opts is the configuration for the module chain.
type Opts struct {
	Panels int // Number of 8x8 modules (default: 4)

	// Rotated mounts the chain upside down: the first module is on the right
	// and rows are flipped.
	Rotated bool

	// Optional chip select driven by the driver, for wiring that does not use
	// the SPI port's own CS line. The chain latches on its rising edge.
	CS gpio.PinOut
}

// Dev is the device handle for a MAX7219 chain.
type Dev struct {
	// Communication
	c  conn.Conn
	cs gpio.PinOut

	// Geometry
	rect    image.Rectangle
	panels  int
	rotated bool

	// Last transmitted row data, rows[r][p] for module p
	rows    [numRows][]byte
	sent    bool
	next    *image1col.VerticalLSB
	scratch []byte
	tx      []byte

	// State
	awake     bool
	intensity int
	halted    bool
}

// NewSPI creates a new device connected via SPI.
//
// The SPI port is configured for 10MHz, Mode0, 8-bit transfers, the highest
// clock the MAX7219 accepts.
//
// opts can be nil to use defaults (4 modules, 32x8).
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("max7219: connect: %w", err)
	}
	return New(c, opts)
}

// New creates a device on an established connection and sends the setup
// sequence. The display stays in shutdown until the first frame is flushed.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{Panels: 4}
	}
	if opts.Panels <= 0 || opts.Panels > MaxPanels {
		return nil, fmt.Errorf("max7219: panels must be between 1 and %d", MaxPanels)
	}

	w := opts.Panels * 8
	d := &Dev{
		c:         c,
		cs:        opts.CS,
		rect:      image.Rect(0, 0, w, numRows),
		panels:    opts.Panels,
		rotated:   opts.Rotated,
		scratch:   make([]byte, w),
		tx:        make([]byte, 0, 2*opts.Panels),
		intensity: -1,
	}
	for r := range d.rows {
		d.rows[r] = make([]byte, opts.Panels)
	}

	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the setup sequence to every module.
func (d *Dev) init() error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.High); err != nil {
			return fmt.Errorf("max7219: failed to raise CS: %w", err)
		}
	}
	cmds := [][2]byte{
		{regShutdown, 0},    // Shutdown
		{regDisplayTest, 0}, // Normal operation
		{regScanLimit, 7},   // Scan all eight rows
		{regDecodeMode, 0},  // Raw row data, no BCD decode
	}
	for _, cmd := range cmds {
		if err := d.sendCommandAll(cmd[0], cmd[1]); err != nil {
			return err
		}
	}
	return d.setIntensity(0)
}

// sendCommandAll writes the same register on every module.
func (d *Dev) sendCommandAll(reg, val byte) error {
	d.tx = d.tx[:0]
	for i := 0; i < d.panels; i++ {
		d.tx = append(d.tx, reg, val)
	}
	return d.send(d.tx)
}

// send shifts one frame of pairs through the chain.
func (d *Dev) send(b []byte) error {
	if d.cs != nil {
		if err := d.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("max7219: failed to lower CS: %w", err)
		}
	}
	if err := d.c.Tx(b, nil); err != nil {
		return fmt.Errorf("max7219: transfer: %w", err)
	}
	if d.cs != nil {
		if err := d.cs.Out(gpio.High); err != nil {
			return fmt.Errorf("max7219: failed to raise CS: %w", err)
		}
	}
	return nil
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image1col.BitModel
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Flush writes one column byte per display column, bit 0 being the top row.
//
// Rows whose data did not change since the last flush are not sent. The first
// flush wakes the display from shutdown.
func (d *Dev) Flush(cols []byte) error {
	if d.halted {
		return errors.New("max7219: halted")
	}
	if len(cols) != d.rect.Dx() {
		return errors.New("max7219: invalid buffer size")
	}
	if d.rotated {
		n := len(cols)
		for x := range cols {
			d.scratch[x] = bits.Reverse8(cols[n-1-x])
		}
		cols = d.scratch
	}

	if !d.awake {
		if err := d.sendCommandAll(regShutdown, 1); err != nil {
			return err
		}
		d.awake = true
	}

	var row [MaxPanels]byte
	for r := 0; r < numRows; r++ {
		for p := 0; p < d.panels; p++ {
			row[p] = panelRow(cols[p*8:p*8+8], r)
		}
		if d.sent && bytes.Equal(d.rows[r], row[:d.panels]) {
			continue
		}
		d.tx = d.tx[:0]
		for p := d.panels - 1; p >= 0; p-- {
			d.tx = append(d.tx, regDigit0+byte(r), row[p])
		}
		if err := d.send(d.tx); err != nil {
			// Force a full resend next time.
			d.sent = false
			return err
		}
		copy(d.rows[r], row[:d.panels])
	}
	d.sent = true
	return nil
}

// panelRow packs row r of an 8-column module, leftmost column in the most
// significant bit.
func panelRow(cols []byte, r int) byte {
	var v byte
	for b, col := range cols {
		if col&(1<<uint(r)) != 0 {
			v |= 0x80 >> uint(b)
		}
	}
	return v
}

// Write writes raw column data to the display, one byte per column.
func (d *Dev) Write(pixels []byte) (int, error) {
	if err := d.Flush(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw draws an image onto the display.
// The dst rectangle specifies the destination region on the display.
// The src image is positioned at src point sp within the destination.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errors.New("max7219: halted")
	}

	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: a full-size column image
	if srcImg, ok := src.(*image1col.VerticalLSB); ok {
		if dst == d.rect && sp == (image.Point{}) && srcImg.Rect == d.rect {
			return d.Flush(srcImg.Pix)
		}
	}

	if d.next == nil {
		d.next = image1col.NewVerticalLSB(d.rect)
	}
	draw.Draw(d.next, dst, src, sp, draw.Src)
	return d.Flush(d.next.Pix)
}

// SetIntensity sets the brightness (0-15). Repeating the current level sends
// nothing.
func (d *Dev) SetIntensity(level byte) error {
	if d.halted {
		return errors.New("max7219: halted")
	}
	if level > MaxIntensity {
		return fmt.Errorf("max7219: intensity %d out of range", level)
	}
	return d.setIntensity(level)
}

func (d *Dev) setIntensity(level byte) error {
	if int(level) == d.intensity {
		return nil
	}
	if err := d.sendCommandAll(regIntensity, level); err != nil {
		return err
	}
	d.intensity = int(level)
	return nil
}

// Intensity returns the last level sent, or -1 before any.
func (d *Dev) Intensity() int {
	return d.intensity
}

// DisplayTest turns every LED on at full brightness, or returns to normal
// operation.
func (d *Dev) DisplayTest(on bool) error {
	if d.halted {
		return errors.New("max7219: halted")
	}
	var v byte
	if on {
		v = 1
	}
	return d.sendCommandAll(regDisplayTest, v)
}

// Halt puts every module in shutdown.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	d.awake = false
	return d.sendCommandAll(regShutdown, 0)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("max7219.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
