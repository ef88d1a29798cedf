package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

// NewSkipEncoder encodes with github.com/skip2/go-qrcode
func NewSkipEncoder() Encoder {
	return matrixEncoder{matrix: skipMatrix}
}

func skipMatrix(text string, level Level) ([][]bool, error) {
	q, err := goqrcode.New(text, skipLevel(level))
	if err != nil {
		return nil, fmt.Errorf("qrcode: go-qrcode: %w", err)
	}
	// the quiet zone is drawn by the renderer
	q.DisableBorder = true
	return q.Bitmap(), nil
}

func skipLevel(level Level) goqrcode.RecoveryLevel {
	switch level {
	case LevelL:
		return goqrcode.Low
	case LevelM:
		return goqrcode.Medium
	case LevelQ:
		return goqrcode.High
	default:
		return goqrcode.Highest
	}
}
