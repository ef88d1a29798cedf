// Package generator keeps the state of one live payment-QR session.
//
// Every input event rebuilds the payment request and, when an address is set,
// issues a new encode request tagged with a sequence number. Encodes run
// concurrently and may finish in any order; only the completion carrying the
// latest sequence number is applied, so the image always matches the most
// recent input.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/currency"
	"github.com/ngenohkevin/cryptopay/internals/monitoring"
	"github.com/ngenohkevin/cryptopay/internals/paymenturi"
	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/ngenohkevin/cryptopay/internals/share"
)

var (
	ErrUnknownCurrency = errors.New("generator: unknown currency")
	ErrNoAddress       = errors.New("generator: no address entered")
	ErrNoImage         = errors.New("generator: no code available")
)

const DefaultCopiedFor = 2 * time.Second

// State is a snapshot of the session
type State struct {
	Seq        uint64
	Request    paymenturi.Request
	URI        string
	Image      []byte
	ImageSeq   uint64 // Seq of the request Image was rendered from
	ImageName  string
	Generating bool
	Copied     bool
	CopyFailed bool
}

// Current reports whether Image belongs to the latest input
func (s State) Current() bool {
	return s.Image != nil && s.ImageSeq == s.Seq
}

// Config wires a Generator
type Config struct {
	Encoder   qrcode.Encoder
	Options   qrcode.Options
	Logger    *slog.Logger
	Recorder  monitoring.Recorder
	CopiedFor time.Duration
	// OnChange receives every new state in order. It must not call back into
	// the Generator's event methods.
	OnChange func(State)
}

type Generator struct {
	encoder   qrcode.Encoder
	opts      qrcode.Options
	logger    *slog.Logger
	recorder  monitoring.Recorder
	copiedFor time.Duration
	onChange  func(State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	seq        uint64
	req        paymenturi.Request
	image      []byte
	imageSeq   uint64
	imageReq   paymenturi.Request
	generating bool
	copied     bool
	copyFailed bool
	copyTimer  *time.Timer

	emitMu sync.Mutex
}

// New starts a session with the default currency and no address
func New(cfg Config) *Generator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = monitoring.NoopRecorder{}
	}
	if cfg.CopiedFor <= 0 {
		cfg.CopiedFor = DefaultCopiedFor
	}
	cfg.Options = cfg.Options.WithDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		encoder:   cfg.Encoder,
		opts:      cfg.Options,
		logger:    cfg.Logger,
		recorder:  cfg.Recorder,
		copiedFor: cfg.CopiedFor,
		onChange:  cfg.OnChange,
		ctx:       ctx,
		cancel:    cancel,
		req:       paymenturi.Request{Currency: currency.Default()},
	}
}

// SelectCurrency switches the currency, keeping address and amount
func (g *Generator) SelectCurrency(id string) error {
	spec, ok := currency.Lookup(id)
	if !ok {
		return ErrUnknownCurrency
	}
	g.update(func(r *paymenturi.Request) { r.Currency = spec })
	return nil
}

// SetAddress replaces the wallet address
func (g *Generator) SetAddress(address string) {
	g.update(func(r *paymenturi.Request) { r.Address = address })
}

// SetAmount replaces the amount after dropping everything but digits and dots
func (g *Generator) SetAmount(raw string) {
	amount := paymenturi.SanitizeAmount(raw)
	g.update(func(r *paymenturi.Request) { r.Amount = amount })
}

// Apply replaces the whole request in one event
func (g *Generator) Apply(req paymenturi.Request) {
	req.Amount = paymenturi.SanitizeAmount(req.Amount)
	if req.Currency.ID == "" {
		req.Currency = currency.Default()
	}
	g.update(func(r *paymenturi.Request) { *r = req })
}

func (g *Generator) update(mutate func(*paymenturi.Request)) {
	g.mu.Lock()
	mutate(&g.req)
	g.seq++
	seq, req := g.seq, g.req

	if !req.Ready() {
		// nothing to encode: drop the image, in-flight results are now stale
		g.image = nil
		g.imageSeq = 0
		g.imageReq = paymenturi.Request{}
		g.generating = false
		g.mu.Unlock()
		g.emit()
		return
	}

	g.generating = true
	g.wg.Add(1)
	g.mu.Unlock()

	g.emit()
	go g.encode(seq, req)
}

func (g *Generator) encode(seq uint64, req paymenturi.Request) {
	defer g.wg.Done()

	uri := req.URI()
	png, err := g.encoder.Encode(g.ctx, uri, g.opts)

	g.mu.Lock()
	if seq != g.seq {
		g.mu.Unlock()
		g.recorder.StaleDiscarded()
		g.logger.Debug("discarding stale qr", "seq", seq)
		return
	}

	g.generating = false
	if err != nil {
		g.mu.Unlock()
		// previous image, if any, stays on display
		g.logger.Error("QR generation failed", "seq", seq, "currency", req.Currency.ID, "error", err)
		g.emit()
		return
	}

	g.image = png
	g.imageSeq = seq
	g.imageReq = req
	g.mu.Unlock()
	g.emit()
}

// Copy writes the current payment URI to clipboard
func (g *Generator) Copy(ctx context.Context, clipboard share.Clipboard) error {
	g.mu.Lock()
	req := g.req
	g.mu.Unlock()

	if !req.Ready() {
		return ErrNoAddress
	}

	err := clipboard.WriteClipboard(ctx, req.URI())
	g.setCopied(err == nil)
	if err != nil {
		g.logger.Warn("clipboard write failed", "error", err)
	}
	return err
}

// ReportCopyFailure marks the last copy as failed, for clipboards that confirm asynchronously
func (g *Generator) ReportCopyFailure() {
	g.setCopied(false)
}

func (g *Generator) setCopied(ok bool) {
	g.mu.Lock()
	g.copied = ok
	g.copyFailed = !ok
	if g.copyTimer != nil {
		g.copyTimer.Stop()
	}
	g.copyTimer = time.AfterFunc(g.copiedFor, g.clearCopied)
	g.mu.Unlock()
	g.emit()
}

func (g *Generator) clearCopied() {
	g.mu.Lock()
	if !g.copied && !g.copyFailed {
		g.mu.Unlock()
		return
	}
	g.copied = false
	g.copyFailed = false
	g.mu.Unlock()
	g.emit()
}

// Download saves the latest rendered image to sink, named after the request it was rendered from
func (g *Generator) Download(ctx context.Context, sink share.Sink) error {
	g.mu.Lock()
	image, req := g.image, g.imageReq
	g.mu.Unlock()

	if image == nil {
		return ErrNoImage
	}
	return sink.Save(ctx, image, req.FileName())
}

// State returns a snapshot of the session
func (g *Generator) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := State{
		Seq:        g.seq,
		Request:    g.req,
		URI:        g.req.URI(),
		Image:      g.image,
		ImageSeq:   g.imageSeq,
		Generating: g.generating,
		Copied:     g.copied,
		CopyFailed: g.copyFailed,
	}
	if g.image != nil {
		s.ImageName = g.imageReq.FileName()
	}
	return s
}

// emit hands a fresh snapshot to OnChange. Taking the snapshot under emitMu
// keeps the emitted sequence monotonic.
func (g *Generator) emit() {
	if g.onChange == nil {
		return
	}
	g.emitMu.Lock()
	defer g.emitMu.Unlock()
	g.onChange(g.State())
}

// Wait blocks until every issued encode has completed
func (g *Generator) Wait() {
	g.wg.Wait()
}

// Close cancels in-flight encodes and waits for them
func (g *Generator) Close() {
	g.cancel()
	g.wg.Wait()

	g.mu.Lock()
	if g.copyTimer != nil {
		g.copyTimer.Stop()
	}
	g.mu.Unlock()
}
