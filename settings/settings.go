// Package settings holds the runtime settings record and its persisted
// binary form.
//
// The record is stored as a fixed little-endian layout:
//
//	offset      float32  UTC offset in hours
//	observeDst  uint8    0 or 1
//	use12Hour   uint8    0 or 1
//	dstRule     uint8    0=None 1=EU 2=US
//	extraHours  float32  DST delta in hours (0-3)
//	magic       uint32   RecordMagic
//
// A record that fails any check is replaced by Defaults and rewritten.
package settings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/flavioheleno/max7219/dst"
)

// RecordSize is the length of an encoded record in bytes.
const RecordSize = 15

// RecordMagic marks a record written by this package.
const RecordMagic uint32 = 0x4B4C4331

// Accepted ranges.
const (
	MinOffsetHours = -12
	MaxOffsetHours = 14
	MaxExtraHours  = 3
)

var (
	ErrShortRecord   = errors.New("settings: short record")
	ErrBadMagic      = errors.New("settings: bad magic")
	ErrInvalidOffset = errors.New("settings: invalid utc offset")
	ErrInvalidExtra  = errors.New("settings: invalid dst extra hours")
	ErrInvalidRule   = errors.New("settings: invalid dst rule")
	ErrInvalidFlag   = errors.New("settings: invalid boolean flag")
)

// RuntimeSettings is the user configuration consumed by the time keeper.
type RuntimeSettings struct {
	UTCOffsetHours float32
	ObserveDST     bool
	Use12Hour      bool
	DSTRule        dst.Rule
	DSTExtraHours  float32
}

// Defaults returns the fixed fallback settings.
func Defaults() RuntimeSettings {
	return RuntimeSettings{
		UTCOffsetHours: 0,
		ObserveDST:     false,
		Use12Hour:      true,
		DSTRule:        dst.US,
		DSTExtraHours:  1,
	}
}

// Validate checks every field against its accepted range.
func (s RuntimeSettings) Validate() error {
	off := float64(s.UTCOffsetHours)
	if math.IsNaN(off) || math.IsInf(off, 0) || off < MinOffsetHours || off > MaxOffsetHours {
		return fmt.Errorf("%w: %v", ErrInvalidOffset, s.UTCOffsetHours)
	}
	extra := float64(s.DSTExtraHours)
	if math.IsNaN(extra) || extra < 0 || extra > MaxExtraHours {
		return fmt.Errorf("%w: %v", ErrInvalidExtra, s.DSTExtraHours)
	}
	if !s.DSTRule.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRule, s.DSTRule)
	}
	return nil
}

// OffsetSeconds returns the base UTC offset rounded to whole seconds.
func (s RuntimeSettings) OffsetSeconds() int64 {
	return int64(math.Round(float64(s.UTCOffsetHours) * 3600))
}

// ExtraSeconds returns the DST delta rounded to whole seconds.
func (s RuntimeSettings) ExtraSeconds() int64 {
	return int64(math.Round(float64(s.DSTExtraHours) * 3600))
}

// MarshalBinary encodes s in the fixed record layout.
func (s RuntimeSettings) MarshalBinary() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(s.UTCOffsetHours))
	b[4] = boolByte(s.ObserveDST)
	b[5] = boolByte(s.Use12Hour)
	b[6] = byte(s.DSTRule)
	binary.LittleEndian.PutUint32(b[7:], math.Float32bits(s.DSTExtraHours))
	binary.LittleEndian.PutUint32(b[11:], RecordMagic)
	return b, nil
}

// UnmarshalBinary decodes a record and validates it. s is left untouched
// on error.
func (s *RuntimeSettings) UnmarshalBinary(b []byte) error {
	if len(b) < RecordSize {
		return fmt.Errorf("%w: %d bytes", ErrShortRecord, len(b))
	}
	if m := binary.LittleEndian.Uint32(b[11:]); m != RecordMagic {
		return fmt.Errorf("%w: %#08x", ErrBadMagic, m)
	}
	if b[4] > 1 || b[5] > 1 {
		return ErrInvalidFlag
	}
	r := RuntimeSettings{
		UTCOffsetHours: math.Float32frombits(binary.LittleEndian.Uint32(b[0:])),
		ObserveDST:     b[4] == 1,
		Use12Hour:      b[5] == 1,
		DSTRule:        dst.Rule(b[6]),
		DSTExtraHours:  math.Float32frombits(binary.LittleEndian.Uint32(b[7:])),
	}
	if err := r.Validate(); err != nil {
		return err
	}
	*s = r
	return nil
}

// LogValue implements slog.LogValuer.
func (s RuntimeSettings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("utc_offset", float64(s.UTCOffsetHours)),
		slog.Bool("observe_dst", s.ObserveDST),
		slog.Bool("use_12h", s.Use12Hour),
		slog.String("dst_rule", s.DSTRule.String()),
		slog.Float64("dst_extra", float64(s.DSTExtraHours)),
	)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
