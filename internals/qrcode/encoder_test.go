package qrcode_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func backends() map[string]qrcode.Encoder {
	return map[string]qrcode.Encoder{
		"skip2":   qrcode.NewSkipEncoder(),
		"barcode": qrcode.NewBarcodeEncoder(),
	}
}

func TestEncodeDefaultOptions(t *testing.T) {
	for name, enc := range backends() {
		t.Run(name, func(t *testing.T) {
			data, err := enc.Encode(context.Background(), "bitcoin:abc123", qrcode.DefaultOptions())
			require.NoError(t, err)

			img := decode(t, data)
			assert.Equal(t, 280, img.Bounds().Dx())
			assert.Equal(t, 280, img.Bounds().Dy())

			// quiet zone is transparent
			_, _, _, a := img.At(0, 0).RGBA()
			assert.Equal(t, uint32(0), a)

			// the top-left finder pattern is the first opaque pixel on the diagonal
			first := -1
			for i := 0; i < 280; i++ {
				r, g, b, a := img.At(i, i).RGBA()
				if a != 0 {
					first = i
					assert.Equal(t, uint32(0xffff), r)
					assert.Equal(t, uint32(0xffff), g)
					assert.Equal(t, uint32(0xffff), b)
					break
				}
			}
			assert.Greater(t, first, 0)
			assert.Less(t, first, 280/4)
		})
	}
}

func TestEncodeSmallWidthFallsBackToFixedScale(t *testing.T) {
	opts := qrcode.DefaultOptions()
	opts.Width = 10
	opts.Margin = 0
	for name, enc := range backends() {
		t.Run(name, func(t *testing.T) {
			data, err := enc.Encode(context.Background(), "a", opts)
			require.NoError(t, err)
			img := decode(t, data)
			// version 1 symbol: 21 modules at 4px each
			assert.Equal(t, 84, img.Bounds().Dx())
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	for name, enc := range backends() {
		t.Run(name, func(t *testing.T) {
			_, err := enc.Encode(context.Background(), "", qrcode.DefaultOptions())
			assert.ErrorIs(t, err, qrcode.ErrEmptyContent)

			_, err = enc.Encode(context.Background(), strings.Repeat("x", 5000), qrcode.DefaultOptions())
			assert.Error(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = enc.Encode(ctx, "litecoin:abc", qrcode.DefaultOptions())
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestNew(t *testing.T) {
	for _, backend := range []string{"", "skip2", "barcode"} {
		enc, err := qrcode.New(backend)
		assert.NoError(t, err)
		assert.NotNil(t, enc)
	}
	_, err := qrcode.New("zxing")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]qrcode.Level{"l": qrcode.LevelL, "M": qrcode.LevelM, "q": qrcode.LevelQ, " H ": qrcode.LevelH} {
		level, err := qrcode.ParseLevel(in)
		assert.NoError(t, err)
		assert.Equal(t, want, level)
	}
	_, err := qrcode.ParseLevel("X")
	assert.Error(t, err)
	assert.Equal(t, "Q", qrcode.LevelQ.String())
}

func TestParseHexColor(t *testing.T) {
	type Test struct {
		Reference string
		Expect    color.NRGBA
	}
	tests := []Test{
		{Reference: "#ffffff", Expect: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		{Reference: "#00000000", Expect: color.NRGBA{}},
		{Reference: "f79", Expect: color.NRGBA{R: 0xff, G: 0x77, B: 0x99, A: 0xff}},
		{Reference: "#F7931A80", Expect: color.NRGBA{R: 0xf7, G: 0x93, B: 0x1a, A: 0x80}},
	}
	for _, test := range tests {
		got, err := qrcode.ParseHexColor(test.Reference)
		assert.NoError(t, err, test.Reference)
		assert.Equal(t, test.Expect, got, test.Reference)
	}

	for _, bad := range []string{"", "#12345", "#gggggg"} {
		_, err := qrcode.ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

type countingEncoder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEncoder) Encode(_ context.Context, text string, _ qrcode.Options) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return []byte(text), nil
}

func (e *countingEncoder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func TestCache(t *testing.T) {
	t.Run("Hit", func(t *testing.T) {
		next := &countingEncoder{}
		cache := qrcode.NewCache(next, time.Minute, nil)
		defer cache.Stop()

		for i := 0; i < 3; i++ {
			data, err := cache.Encode(context.Background(), "solana:abc", qrcode.DefaultOptions())
			assert.NoError(t, err)
			assert.Equal(t, []byte("solana:abc"), data)
		}
		assert.Equal(t, 1, next.Calls())

		opts := qrcode.DefaultOptions()
		opts.Width = 512
		_, err := cache.Encode(context.Background(), "solana:abc", opts)
		assert.NoError(t, err)
		assert.Equal(t, 2, next.Calls())
		assert.Equal(t, 2, cache.Len())
	})
	t.Run("Expired", func(t *testing.T) {
		next := &countingEncoder{}
		cache := qrcode.NewCache(next, 10*time.Millisecond, nil)
		defer cache.Stop()

		_, _ = cache.Encode(context.Background(), "x", qrcode.DefaultOptions())
		time.Sleep(25 * time.Millisecond)
		_, _ = cache.Encode(context.Background(), "x", qrcode.DefaultOptions())
		assert.Equal(t, 2, next.Calls())
	})
}

func TestOptionsWithDefaults(t *testing.T) {
	assert.Equal(t, qrcode.DefaultOptions(), qrcode.Options{}.WithDefaults())

	red := color.NRGBA{R: 0xff, A: 0xff}
	opts := qrcode.Options{Width: 0, Margin: 0, Dark: red, Level: qrcode.LevelM}.WithDefaults()
	assert.Equal(t, 280, opts.Width)
	assert.Equal(t, 0, opts.Margin)
	assert.Equal(t, red, opts.Dark)
	assert.Equal(t, qrcode.DefaultOptions().Light, opts.Light)
	assert.Equal(t, qrcode.LevelM, opts.Level)

	opts = qrcode.Options{Width: -5, Margin: 4, Dark: red, Light: red, Level: qrcode.LevelQ}.WithDefaults()
	assert.Equal(t, 280, opts.Width)
	assert.Equal(t, 4, opts.Margin)
	assert.Equal(t, qrcode.LevelQ, opts.Level)
}
