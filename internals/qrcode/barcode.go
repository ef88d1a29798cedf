package qrcode

import (
	"fmt"
	"image/color"

	"github.com/boombuler/barcode/qr"
)

// NewBarcodeEncoder encodes with github.com/boombuler/barcode/qr
func NewBarcodeEncoder() Encoder {
	return matrixEncoder{matrix: barcodeMatrix}
}

func barcodeMatrix(text string, level Level) ([][]bool, error) {
	code, err := qr.Encode(text, barcodeLevel(level), qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qrcode: barcode: %w", err)
	}

	// one pixel per module, no quiet zone
	bounds := code.Bounds()
	modules := make([][]bool, bounds.Dy())
	for y := range modules {
		row := make([]bool, bounds.Dx())
		for x := range row {
			gray := color.GrayModel.Convert(code.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			row[x] = gray.Y < 0x80
		}
		modules[y] = row
	}
	return modules, nil
}

func barcodeLevel(level Level) qr.ErrorCorrectionLevel {
	switch level {
	case LevelL:
		return qr.L
	case LevelM:
		return qr.M
	case LevelQ:
		return qr.Q
	default:
		return qr.H
	}
}
