package qrcode

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var ErrEmptyContent = errors.New("qrcode: nothing to encode")

// Level is the error-correction level of a QR symbol
type Level int

const (
	LevelL Level = iota // ~7% recovery
	LevelM              // ~15%
	LevelQ              // ~25%
	LevelH              // ~30%
)

// ParseLevel accepts L, M, Q or H (case-insensitive)
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return LevelL, nil
	case "M":
		return LevelM, nil
	case "Q":
		return LevelQ, nil
	case "H":
		return LevelH, nil
	}
	return LevelH, fmt.Errorf("qrcode: unknown error correction level %q", s)
}

func (l Level) String() string {
	switch l {
	case LevelL:
		return "L"
	case LevelM:
		return "M"
	case LevelQ:
		return "Q"
	default:
		return "H"
	}
}

// Options controls how a payload is rasterized
type Options struct {
	Width  int // image side in pixels
	Margin int // quiet zone in modules
	Dark   color.Color
	Light  color.Color
	Level  Level
}

// DefaultOptions is white modules on a transparent background, 280px, margin 2, level H.
// It stays legible on the page's dark card.
func DefaultOptions() Options {
	return Options{
		Width:  280,
		Margin: 2,
		Dark:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Light:  color.NRGBA{},
		Level:  LevelH,
	}
}

// WithDefaults returns DefaultOptions for the zero Options. Otherwise it only
// fills a non-positive width and missing colors, keeping everything that was set.
func (o Options) WithDefaults() Options {
	def := DefaultOptions()
	if o.Width == 0 && o.Margin == 0 && o.Dark == nil && o.Light == nil && o.Level == LevelL {
		return def
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Dark == nil {
		o.Dark = def.Dark
	}
	if o.Light == nil {
		o.Light = def.Light
	}
	return o
}

func (o Options) key() string {
	return fmt.Sprintf("%d/%d/%s/%s/%s", o.Width, o.Margin, o.Level, colorKey(o.Dark), colorKey(o.Light))
}

func colorKey(c color.Color) string {
	if c == nil {
		return "-"
	}
	r, g, b, a := c.RGBA()
	return fmt.Sprintf("%04x%04x%04x%04x", r, g, b, a)
}

// Encoder renders text as a PNG-encoded QR code
type Encoder interface {
	Encode(ctx context.Context, text string, opts Options) ([]byte, error)
}

// matrixFunc produces the module matrix (true = dark) without a quiet zone
type matrixFunc func(text string, level Level) ([][]bool, error)

type matrixEncoder struct {
	matrix matrixFunc
}

func (e matrixEncoder) Encode(ctx context.Context, text string, opts Options) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyContent
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	modules, err := e.matrix(text, opts.Level)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return renderPNG(modules, opts)
}

// New returns the encoder for the named backend: "skip2" (default) or "barcode"
func New(backend string) (Encoder, error) {
	switch strings.ToLower(backend) {
	case "", "skip2", "go-qrcode":
		return NewSkipEncoder(), nil
	case "barcode", "boombuler":
		return NewBarcodeEncoder(), nil
	}
	return nil, fmt.Errorf("qrcode: unknown backend %q", backend)
}

// ParseHexColor parses #rgb, #rrggbb or #rrggbbaa
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("qrcode: invalid color %q", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("qrcode: invalid color %q: %w", s, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}
