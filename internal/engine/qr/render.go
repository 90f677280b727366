package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	_ "image/jpeg" // logo uploads may be JPEG

	xdraw "golang.org/x/image/draw"
)

// ErrLogoDecode means the branding image bytes are not a decodable
// PNG or JPEG.
var ErrLogoDecode = errors.New("branding image cannot be decoded")

// Options control rasterization of a Matrix. Zero-value colors fall
// back to black on white.
type Options struct {
	Foreground color.Color
	Background color.Color
	ModuleSize int // pixels per module, >= 1
	Border     int // quiet zone width in modules, >= 0
	Logo       []byte
}

// Render rasterizes a module grid. Each module becomes a
// ModuleSize x ModuleSize block; the quiet zone is background-colored.
// A non-empty Logo is composited centered over the result. Neither the
// grid nor the logo bytes are mutated.
func Render(m *Matrix, opts Options) (image.Image, error) {
	if opts.ModuleSize < 1 {
		return nil, fmt.Errorf("module size must be >= 1, got %d", opts.ModuleSize)
	}
	if opts.Border < 0 {
		return nil, fmt.Errorf("border must be >= 0, got %d", opts.Border)
	}

	fg, bg := opts.Foreground, opts.Background
	if fg == nil {
		fg = color.Black
	}
	if bg == nil {
		bg = color.White
	}

	side := (m.Size + 2*opts.Border) * opts.ModuleSize
	out := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	fill := image.NewUniform(fg)
	for y := 0; y < m.Size; y++ {
		for x := 0; x < m.Size; x++ {
			if !m.Modules[y][x] {
				continue
			}
			x0 := (x + opts.Border) * opts.ModuleSize
			y0 := (y + opts.Border) * opts.ModuleSize
			block := image.Rect(x0, y0, x0+opts.ModuleSize, y0+opts.ModuleSize)
			draw.Draw(out, block, fill, image.Point{}, draw.Src)
		}
	}

	if len(opts.Logo) > 0 {
		if err := compositeLogo(out, opts.Logo); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// RenderPNG is Render plus PNG encoding, the byte buffer handed to the
// presentation layer.
func RenderPNG(m *Matrix, opts Options) ([]byte, error) {
	img, err := Render(m, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compositeLogo pastes the branding image centered over img. Logos
// wider than a quarter of the output are downscaled to exactly that
// width, aspect preserved; narrower ones keep their native size.
// Fully transparent logo pixels leave the code visible underneath.
func compositeLogo(img *image.RGBA, raw []byte) error {
	logo, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}

	targetW := img.Bounds().Dx() / 4
	lb := logo.Bounds()
	if targetW > 0 && lb.Dx() > targetW {
		scale := float64(targetW) / float64(lb.Dx())
		targetH := int(float64(lb.Dy()) * scale)
		if targetH < 1 {
			targetH = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), logo, lb, xdraw.Src, nil)
		logo = scaled
		lb = scaled.Bounds()
	}

	offset := image.Pt(
		(img.Bounds().Dx()-lb.Dx())/2,
		(img.Bounds().Dy()-lb.Dy())/2,
	)
	draw.Draw(img, lb.Sub(lb.Min).Add(offset), logo, lb.Min, draw.Over)
	return nil
}

// ParseHexColor parses "#RRGGBB" into an opaque color.
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
