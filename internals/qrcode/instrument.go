package qrcode

import (
	"context"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/monitoring"
)

type instrumented struct {
	next     Encoder
	backend  string
	recorder monitoring.Recorder
}

// Instrument reports latency and outcome of every Encode call to recorder
func Instrument(next Encoder, backend string, recorder monitoring.Recorder) Encoder {
	if recorder == nil {
		return next
	}
	return instrumented{next: next, backend: backend, recorder: recorder}
}

func (e instrumented) Encode(ctx context.Context, text string, opts Options) ([]byte, error) {
	start := time.Now()
	png, err := e.next.Encode(ctx, text, opts)
	e.recorder.ObserveEncode(e.backend, time.Since(start), err)
	return png, err
}
