package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

const fallbackScale = 4

// renderPNG draws the module matrix with a margin of opts.Margin modules.
// The image is opts.Width pixels wide when that fits every module, otherwise
// each module takes fallbackScale pixels.
func renderPNG(modules [][]bool, opts Options) ([]byte, error) {
	size := len(modules)
	if size == 0 {
		return nil, fmt.Errorf("qrcode: empty module matrix")
	}
	margin := opts.Margin
	if margin < 0 {
		margin = 0
	}
	dark, light := opts.Dark, opts.Light
	if dark == nil {
		dark = color.Black
	}
	if light == nil {
		light = color.Transparent
	}

	total := size + margin*2
	scale := float64(fallbackScale)
	side := total * fallbackScale
	if opts.Width >= total {
		scale = float64(opts.Width) / float64(total)
		side = opts.Width
	}
	scaledMargin := float64(margin) * scale

	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			c := light
			fx, fy := float64(x), float64(y)
			if fx >= scaledMargin && fy >= scaledMargin {
				col := int(math.Floor((fx - scaledMargin) / scale))
				row := int(math.Floor((fy - scaledMargin) / scale))
				if row < size && col < size && modules[row][col] {
					c = dark
				}
			}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: png encode: %w", err)
	}
	return buf.Bytes(), nil
}
