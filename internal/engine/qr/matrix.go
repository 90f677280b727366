package qr

import (
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrPayloadTooLarge means the payload does not fit the largest
// supported symbol version at the requested recovery level.
var ErrPayloadTooLarge = errors.New("payload too large for qr capacity")

// Level is the error correction tier of a symbol. Higher tiers survive
// more damage but hold less data.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelQuartile
	LevelHigh
)

// ParseLevel maps a config/request string to a Level. The empty string
// selects quartile, the default used for branded codes.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "quartile":
		return LevelQuartile, nil
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	}
	return 0, fmt.Errorf("unknown error correction level %q", s)
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelLow:
		return qrcode.Low
	case LevelMedium:
		return qrcode.Medium
	case LevelHigh:
		return qrcode.Highest
	default:
		return qrcode.High
	}
}

// Matrix is the module grid of an encoded payload. It carries no quiet
// zone; the renderer paints that. Modules[y][x] is true for dark
// modules.
type Matrix struct {
	Size    int
	Modules [][]bool
}

// Encode turns a payload into the smallest module grid that holds it
// at the given level. Identical inputs always produce an identical
// grid.
func Encode(payload string, level Level) (*Matrix, error) {
	if payload == "" {
		return nil, errors.New("payload must not be empty")
	}

	code, err := qrcode.New(payload, level.recovery())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadTooLarge, err)
	}
	code.DisableBorder = true

	bitmap := code.Bitmap()
	m := &Matrix{
		Size:    len(bitmap),
		Modules: make([][]bool, len(bitmap)),
	}
	for y, row := range bitmap {
		m.Modules[y] = append([]bool(nil), row...)
	}
	return m, nil
}
