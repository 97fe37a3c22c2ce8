// Package max7219 drives a chain of MAX7219 8x8 LED matrix modules via SPI.
//
// The MAX7219 is a serial LED driver with eight 8-bit row registers. Modules
// are daisy-chained: DOUT of one feeds DIN of the next, and the whole chain
// latches on the rising edge of CS. This driver presents the chain as a
// single 1-bit image, 8 rows high and 8 columns per module.
//
// # Display Characteristics
//
// - 1-bit pixels, one LED per pixel
// - 16 intensity levels (0-15), shared by all LEDs of a module
// - Up to 16 modules per chain
// - No readback: the driver keeps a copy of the last rows it sent
//
// # Hardware Connection
//
// Connect the first module of the chain to your system via SPI:
//
//	Module Pin → System Pin
//	GND        → GND
//	VCC        → 5V
//	DIN        → SPI Data (MOSI)
//	CLK        → SPI Clock (SCLK)
//	CS         → SPI Chip Select (or any GPIO, see Opts.CS)
//
// The modules take 5V logic. Most boards drive them fine from 3.3V GPIO; if
// yours does not, add a level shifter on DIN, CLK and CS.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//
//		"github.com/flavioheleno/max7219"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		defer spiBus.Close()
//
//		dev, _ := max7219.NewSPI(spiBus, &max7219.Opts{Panels: 4})
//		defer dev.Halt()
//
//		// One byte per column, bit 0 is the top row.
//		cols := make([]byte, 32)
//		for i := range cols {
//			cols[i] = 1 << (i % 8)
//		}
//		dev.Flush(cols)
//	}
//
// # Manual Chip Select
//
// Some boards route CS to a plain GPIO. Pass it in Opts and the driver will
// toggle it around every transfer:
//
//	cs := gpioreg.ByName("GPIO8")
//	dev, _ := max7219.NewSPI(spiBus, &max7219.Opts{Panels: 4, CS: cs})
//
// # Drawing
//
// Flush and Write take raw columns and only resend rows that changed since
// the previous frame. Draw accepts any image.Image; pixels are converted
// with a 50% luminance threshold:
//
//	img := image1col.NewVerticalLSB(dev.Bounds())
//	img.SetBit(0, 0, image1col.Lit)
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// # Rotated Chains
//
// Many ready-made 4-in-1 boards are mounted with the first module on the
// right. Set Opts.Rotated to flip both axes in the driver instead of in
// every caller.
//
// # Intensity
//
//	dev.SetIntensity(0)                   // dimmest
//	dev.SetIntensity(max7219.MaxIntensity) // brightest
//
// Repeated calls with the same level are not sent to the chain.
//
// # Datasheet
//
// For register descriptions and timing information, see:
// https://www.analog.com/media/en/technical-documentation/data-sheets/MAX7219-MAX7221.pdf
//
// # Compatibility with periph.io
//
// Dev implements the display.Drawer interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
package max7219
