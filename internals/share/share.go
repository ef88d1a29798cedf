// Package share holds the services a payment QR leaves the generator through:
// the clipboard for the URI text and sinks for the rendered image.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/ngenohkevin/cryptopay/internals/monitoring"
)

var ErrUnknownSink = errors.New("share: unknown sink")

// Clipboard receives the payment URI text
type Clipboard interface {
	WriteClipboard(ctx context.Context, text string) error
}

// ClipboardFunc adapts a function to Clipboard
type ClipboardFunc func(ctx context.Context, text string) error

func (f ClipboardFunc) WriteClipboard(ctx context.Context, text string) error {
	return f(ctx, text)
}

// WriterClipboard prints the URI on its own line, the CLI's clipboard
type WriterClipboard struct {
	W io.Writer
}

func (c WriterClipboard) WriteClipboard(_ context.Context, text string) error {
	_, err := fmt.Fprintln(c.W, text)
	return err
}

// Sink stores a rendered QR image under a file name
type Sink interface {
	Save(ctx context.Context, image []byte, filename string) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, image []byte, filename string) error

func (f SinkFunc) Save(ctx context.Context, image []byte, filename string) error {
	return f(ctx, image, filename)
}

// Registry holds the configured sinks by name
type Registry struct {
	mu       sync.RWMutex
	sinks    map[string]Sink
	recorder monitoring.Recorder
	logger   *slog.Logger
}

func NewRegistry(recorder monitoring.Recorder, logger *slog.Logger) *Registry {
	if recorder == nil {
		recorder = monitoring.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sinks:    make(map[string]Sink),
		recorder: recorder,
		logger:   logger,
	}
}

// Register adds or replaces the sink called name
func (r *Registry) Register(name string, sink Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[name] = sink
}

// Get returns the sink called name
func (r *Registry) Get(name string) (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sink, ok := r.sinks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, name)
	}
	return r.named(name, sink), nil
}

// Names lists the registered sinks in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sinks))
	for name := range r.sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// named wraps sink so every save is logged and counted under name
func (r *Registry) named(name string, sink Sink) Sink {
	return SinkFunc(func(ctx context.Context, image []byte, filename string) error {
		err := sink.Save(ctx, image, filename)
		r.recorder.ObserveShare(name, err)
		if err != nil {
			r.logger.Error("share failed", "sink", name, "file", filename, "error", err)
			return err
		}
		r.logger.Info("shared payment qr", "sink", name, "file", filename, "bytes", len(image))
		return nil
	})
}
