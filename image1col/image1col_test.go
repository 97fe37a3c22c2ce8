package image1col

import (
	"image"
	"image/color"
	"testing"
)

func TestBitRGBA(t *testing.T) {
	tests := []struct {
		name string
		bit  Bit
		want uint32
	}{
		{"lit", Lit, 0xFFFF},
		{"dark", Dark, 0x0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.bit.RGBA()
			if r != tt.want || g != tt.want || b != tt.want || a != 0xFFFF {
				t.Errorf("RGBA() = (%x, %x, %x, %x), want (%x, %x, %x, %x)",
					r, g, b, a, tt.want, tt.want, tt.want, uint32(0xFFFF))
			}
		})
	}
}

func TestBitModelConvert(t *testing.T) {
	tests := []struct {
		name  string
		input color.Color
		want  Bit
	}{
		{"bit passthrough", Lit, Lit},
		{"black", color.Black, Dark},
		{"white", color.White, Lit},
		{"dark gray", color.RGBA{0x40, 0x40, 0x40, 0xFF}, Dark},
		{"light gray", color.RGBA{0xC0, 0xC0, 0xC0, 0xFF}, Lit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BitModel.Convert(tt.input).(Bit)
			if result != tt.want {
				t.Errorf("BitModel.Convert(%v) = %v, want %v", tt.input, result, tt.want)
			}
		})
	}
}

func TestNewVerticalLSB(t *testing.T) {
	tests := []struct {
		name       string
		rect       image.Rectangle
		wantPanic  bool
		wantPixLen int
	}{
		{"32x8", image.Rect(0, 0, 32, 8), false, 32},
		{"40x8", image.Rect(0, 0, 40, 8), false, 40},
		{"8x7", image.Rect(0, 0, 8, 7), false, 8},
		{"offset rect", image.Rect(10, 0, 14, 8), false, 4},
		{"too tall panics", image.Rect(0, 0, 8, 9), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("panic = %v, want panic = %v", r != nil, tt.wantPanic)
				}
			}()

			img := NewVerticalLSB(tt.rect)
			if img.Rect != tt.rect {
				t.Errorf("Rect = %v, want %v", img.Rect, tt.rect)
			}
			if len(img.Pix) != tt.wantPixLen {
				t.Errorf("len(Pix) = %d, want %d", len(img.Pix), tt.wantPixLen)
			}
		})
	}
}

func TestVerticalLSBBitPacking(t *testing.T) {
	img := NewVerticalLSB(image.Rect(0, 0, 2, 8))

	img.SetBit(0, 0, Lit)
	img.SetBit(0, 7, Lit)
	img.SetBit(1, 3, Lit)

	// Bit 0 is the top row, bit 7 the bottom row.
	if img.Pix[0] != 0x81 {
		t.Errorf("Pix[0] = 0x%02X, want 0x81", img.Pix[0])
	}
	if img.Pix[1] != 0x08 {
		t.Errorf("Pix[1] = 0x%02X, want 0x08", img.Pix[1])
	}

	img.SetBit(0, 7, Dark)
	if img.Pix[0] != 0x01 {
		t.Errorf("after clearing, Pix[0] = 0x%02X, want 0x01", img.Pix[0])
	}
}

func TestVerticalLSBSetAt(t *testing.T) {
	img := NewVerticalLSB(image.Rect(0, 0, 2, 2))

	img.Set(1, 1, color.White)
	c, ok := img.At(1, 1).(Bit)
	if !ok {
		t.Fatalf("At(1, 1) returned %T, want Bit", img.At(1, 1))
	}
	if c != Lit {
		t.Errorf("At(1, 1) = %v, want Lit", c)
	}
	if img.BitAt(0, 0) != Dark {
		t.Error("BitAt(0, 0) should be dark")
	}
	if img.ColorModel() != BitModel {
		t.Error("ColorModel() did not return BitModel")
	}
}

func TestVerticalLSBOutOfBounds(t *testing.T) {
	img := NewVerticalLSB(image.Rect(0, 0, 4, 8))

	img.SetBit(-1, 0, Lit)
	img.SetBit(4, 0, Lit)
	img.SetBit(0, 8, Lit)
	img.SetColumn(-1, 0xFF, 0)
	img.SetColumn(4, 0xFF, 0)

	for i, v := range img.Pix {
		if v != 0 {
			t.Errorf("Pix[%d] = 0x%02X after out-of-bounds writes, want 0", i, v)
		}
	}
	if img.BitAt(-1, 0) != Dark || img.Column(4) != 0 {
		t.Error("out-of-bounds reads should be dark")
	}
}

func TestVerticalLSBOffsetRect(t *testing.T) {
	img := NewVerticalLSB(image.Rect(100, 0, 104, 8))

	img.SetBit(101, 2, Lit)
	if img.Pix[1] != 0x04 {
		t.Errorf("Pix[1] = 0x%02X, want 0x04", img.Pix[1])
	}
	if img.Column(101) != 0x04 {
		t.Errorf("Column(101) = 0x%02X, want 0x04", img.Column(101))
	}
}

func TestSetColumn(t *testing.T) {
	tests := []struct {
		name     string
		existing byte
		v        byte
		dy       int
		want     byte
	}{
		{"overwrite", 0xF0, 0x0F, 0, 0x0F},
		{"shift up and or", 0x80, 0x3C, 2, 0x8F},
		{"shift down and or", 0x01, 0x3C, -2, 0xF1},
		{"shift to exactly height", 0x00, 0xFF, 8, 0x00},
		{"shift to exactly minus height", 0x00, 0xFF, -8, 0x00},
		{"beyond height is skipped", 0x55, 0xFF, 9, 0x55},
		{"beyond minus height is skipped", 0x55, 0xFF, -9, 0x55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewVerticalLSB(image.Rect(0, 0, 1, 8))
			img.Pix[0] = tt.existing
			img.SetColumn(0, tt.v, tt.dy)
			if img.Pix[0] != tt.want {
				t.Errorf("SetColumn(0, 0x%02X, %d) = 0x%02X, want 0x%02X", tt.v, tt.dy, img.Pix[0], tt.want)
			}
		})
	}
}

func TestShiftLeftAndClear(t *testing.T) {
	img := NewVerticalLSB(image.Rect(0, 0, 4, 8))
	copy(img.Pix, []byte{1, 2, 3, 4})

	img.ShiftLeft()
	want := []byte{2, 3, 4, 0}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Errorf("after ShiftLeft Pix[%d] = %d, want %d", i, img.Pix[i], want[i])
		}
	}

	img.Clear()
	for i, v := range img.Pix {
		if v != 0 {
			t.Errorf("after Clear Pix[%d] = %d, want 0", i, v)
		}
	}

	empty := &VerticalLSB{}
	empty.ShiftLeft()
}
