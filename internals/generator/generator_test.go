package generator_test

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ngenohkevin/cryptopay/internals/generator"
	"github.com/ngenohkevin/cryptopay/internals/qrcode"
	"github.com/ngenohkevin/cryptopay/internals/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantEncoder returns the text itself as the "image"
type instantEncoder struct {
	calls atomic.Int32
	err   error
}

func (e *instantEncoder) Encode(_ context.Context, text string, _ qrcode.Options) ([]byte, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return []byte(text), nil
}

type pendingCall struct {
	text    string
	release chan error
}

// gatedEncoder blocks every call until the test releases it
type gatedEncoder struct {
	calls chan *pendingCall
}

func newGatedEncoder() *gatedEncoder {
	return &gatedEncoder{calls: make(chan *pendingCall, 16)}
}

func (e *gatedEncoder) Encode(ctx context.Context, text string, _ qrcode.Options) ([]byte, error) {
	call := &pendingCall{text: text, release: make(chan error, 1)}
	e.calls <- call
	select {
	case err := <-call.release:
		if err != nil {
			return nil, err
		}
		return []byte(text), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *gatedEncoder) next(t *testing.T, n int) map[string]*pendingCall {
	t.Helper()
	calls := make(map[string]*pendingCall)
	for i := 0; i < n; i++ {
		select {
		case call := <-e.calls:
			calls[call.text] = call
		case <-time.After(time.Second):
			t.Fatalf("expected %d encode calls, got %d", n, i)
		}
	}
	return calls
}

type staleCounter struct {
	stale atomic.Int32
}

func (r *staleCounter) ObserveEncode(string, time.Duration, error) {}
func (r *staleCounter) StaleDiscarded()                            { r.stale.Add(1) }
func (r *staleCounter) CacheLookup(bool)                           {}
func (r *staleCounter) ObserveShare(string, error)                 {}

func TestEmptyAddressSkipsEncoding(t *testing.T) {
	enc := &instantEncoder{}
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	g.SetAmount("1.5")
	require.NoError(t, g.SelectCurrency("eth"))
	g.SetAddress("")
	g.Wait()

	state := g.State()
	assert.Equal(t, int32(0), enc.calls.Load())
	assert.Nil(t, state.Image)
	assert.False(t, state.Generating)
	assert.Equal(t, "ethereum:?amount=1.5", state.URI)
}

func TestGeneratesForLatestInput(t *testing.T) {
	enc := &instantEncoder{}
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	g.SetAddress("abc123")
	g.Wait()

	state := g.State()
	assert.Equal(t, []byte("bitcoin:abc123"), state.Image)
	assert.True(t, state.Current())
	assert.False(t, state.Generating)
	assert.Equal(t, "btc-payment-qr.png", state.ImageName)

	require.NoError(t, g.SelectCurrency("eth"))
	g.SetAmount("0.5")
	g.SetAddress("xyz")
	g.Wait()

	state = g.State()
	assert.Equal(t, []byte("ethereum:xyz?amount=0.5"), state.Image)
	assert.Equal(t, "ethereum:xyz?amount=0.5", state.URI)
	assert.Equal(t, uint64(4), state.Seq)
}

func TestOutOfOrderCompletionsAreDiscarded(t *testing.T) {
	enc := newGatedEncoder()
	recorder := &staleCounter{}
	g := generator.New(generator.Config{Encoder: enc, Recorder: recorder})
	defer g.Close()

	g.SetAddress("a")
	g.SetAddress("ab")
	calls := enc.next(t, 2)

	// newest finishes first
	calls["bitcoin:ab"].release <- nil
	require.Eventually(t, func() bool { return g.State().Current() }, time.Second, time.Millisecond)

	calls["bitcoin:a"].release <- nil
	g.Wait()

	state := g.State()
	assert.Equal(t, []byte("bitcoin:ab"), state.Image)
	assert.Equal(t, uint64(2), state.ImageSeq)
	assert.Equal(t, int32(1), recorder.stale.Load())
}

func TestStaleCompletionAfterAddressCleared(t *testing.T) {
	enc := newGatedEncoder()
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	g.SetAddress("abc")
	calls := enc.next(t, 1)
	g.SetAddress("")

	calls["bitcoin:abc"].release <- nil
	g.Wait()

	state := g.State()
	assert.Nil(t, state.Image)
	assert.False(t, state.Generating)
}

func TestGeneratingKeepsPreviousImageMarkedStale(t *testing.T) {
	enc := newGatedEncoder()
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	g.SetAddress("x")
	enc.next(t, 1)["bitcoin:x"].release <- nil
	g.Wait()

	g.SetAmount("5")
	pending := enc.next(t, 1)

	state := g.State()
	assert.True(t, state.Generating)
	assert.Equal(t, []byte("bitcoin:x"), state.Image)
	assert.False(t, state.Current())

	pending["bitcoin:x?amount=5"].release <- nil
	g.Wait()

	state = g.State()
	assert.False(t, state.Generating)
	assert.True(t, state.Current())
	assert.Equal(t, []byte("bitcoin:x?amount=5"), state.Image)
}

func TestEncodeFailureKeepsPreviousImage(t *testing.T) {
	enc := newGatedEncoder()
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	g.SetAddress("good")
	enc.next(t, 1)["bitcoin:good"].release <- nil
	g.Wait()

	g.SetAddress("bad")
	enc.next(t, 1)["bitcoin:bad"].release <- errors.New("too long")
	g.Wait()

	state := g.State()
	assert.False(t, state.Generating)
	assert.Equal(t, []byte("bitcoin:good"), state.Image)
	assert.Equal(t, "bitcoin:bad", state.URI)
	assert.False(t, state.Current())
}

func TestCurrencySwitchKeepsInput(t *testing.T) {
	g := generator.New(generator.Config{Encoder: &instantEncoder{}})
	defer g.Close()

	g.SetAddress("addr")
	g.SetAmount("1a.5$")
	require.NoError(t, g.SelectCurrency("LTC"))
	g.Wait()

	state := g.State()
	assert.Equal(t, "litecoin:addr?amount=1.5", state.URI)
	assert.Equal(t, "addr", state.Request.Address)
	assert.Equal(t, "1.5", state.Request.Amount)

	assert.ErrorIs(t, g.SelectCurrency("doge"), generator.ErrUnknownCurrency)
	assert.Equal(t, "ltc", g.State().Request.Currency.ID)
}

func TestCopy(t *testing.T) {
	g := generator.New(generator.Config{Encoder: &instantEncoder{}, CopiedFor: 20 * time.Millisecond})
	defer g.Close()

	var copied []string
	clip := share.ClipboardFunc(func(_ context.Context, text string) error {
		copied = append(copied, text)
		return nil
	})

	assert.ErrorIs(t, g.Copy(context.Background(), clip), generator.ErrNoAddress)

	g.SetAddress("abc")
	require.NoError(t, g.Copy(context.Background(), clip))
	assert.Equal(t, []string{"bitcoin:abc"}, copied)
	assert.True(t, g.State().Copied)
	assert.Eventually(t, func() bool { return !g.State().Copied }, time.Second, 5*time.Millisecond)

	failing := share.ClipboardFunc(func(context.Context, string) error { return errors.New("denied") })
	assert.Error(t, g.Copy(context.Background(), failing))
	state := g.State()
	assert.False(t, state.Copied)
	assert.True(t, state.CopyFailed)
	assert.Eventually(t, func() bool { return !g.State().CopyFailed }, time.Second, 5*time.Millisecond)

	require.NoError(t, g.Copy(context.Background(), clip))
	g.ReportCopyFailure()
	state = g.State()
	assert.False(t, state.Copied)
	assert.True(t, state.CopyFailed)
}

func TestDownload(t *testing.T) {
	enc := newGatedEncoder()
	g := generator.New(generator.Config{Encoder: enc})
	defer g.Close()

	var savedName string
	var savedImage []byte
	sink := share.SinkFunc(func(_ context.Context, image []byte, filename string) error {
		savedName, savedImage = filename, image
		return nil
	})

	assert.ErrorIs(t, g.Download(context.Background(), sink), generator.ErrNoImage)

	g.SetAddress("T9y")
	require.NoError(t, g.SelectCurrency("usdt"))
	calls := enc.next(t, 2)
	calls["bitcoin:T9y"].release <- nil
	calls["tether:T9y"].release <- nil
	g.Wait()

	require.NoError(t, g.Download(context.Background(), sink))
	assert.Equal(t, "usdt-payment-qr.png", savedName)
	assert.Equal(t, []byte("tether:T9y"), savedImage)

	// switching currency while the new code renders keeps the old image's name
	require.NoError(t, g.SelectCurrency("sol"))
	pending := enc.next(t, 1)
	require.NoError(t, g.Download(context.Background(), sink))
	assert.Equal(t, "usdt-payment-qr.png", savedName)
	pending["solana:T9y"].release <- nil
	g.Wait()
}

func TestOnChangeIsMonotonic(t *testing.T) {
	var mu sync.Mutex
	var seqs []uint64
	var last generator.State
	g := generator.New(generator.Config{
		Encoder: &instantEncoder{},
		OnChange: func(s generator.State) {
			mu.Lock()
			defer mu.Unlock()
			seqs = append(seqs, s.Seq)
			last = s
		},
	})
	defer g.Close()

	for _, addr := range []string{"a", "ab", "abc", "abcd", "abcde"} {
		g.SetAddress(addr)
	}
	g.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seqs); i++ {
		assert.LessOrEqual(t, seqs[i-1], seqs[i])
	}
	assert.Equal(t, uint64(5), last.Seq)
	assert.Equal(t, []byte("bitcoin:abcde"), last.Image)
}

func TestApply(t *testing.T) {
	g := generator.New(generator.Config{Encoder: &instantEncoder{}})
	defer g.Close()

	state := g.State()
	state.Request.Address = "q"
	state.Request.Amount = "2,5"
	g.Apply(state.Request)
	g.Wait()

	assert.Equal(t, "bitcoin:q?amount=25", g.State().URI)
}

func TestCloseCancelsPendingEncodes(t *testing.T) {
	enc := newGatedEncoder()
	g := generator.New(generator.Config{Encoder: enc})

	g.SetAddress("never")
	enc.next(t, 1)

	done := make(chan struct{})
	go func() {
		g.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}
	assert.Nil(t, g.State().Image)
}

// optionsEncoder remembers the options of its last call
type optionsEncoder struct {
	mu   sync.Mutex
	opts qrcode.Options
}

func (e *optionsEncoder) Encode(_ context.Context, text string, opts qrcode.Options) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
	return []byte(text), nil
}

func TestZeroWidthKeepsConfiguredOptions(t *testing.T) {
	enc := &optionsEncoder{}
	black := color.NRGBA{A: 0xff}
	g := generator.New(generator.Config{
		Encoder: enc,
		Options: qrcode.Options{Margin: 4, Dark: black, Light: black, Level: qrcode.LevelL},
	})
	defer g.Close()

	g.SetAddress("abc")
	g.Wait()

	enc.mu.Lock()
	defer enc.mu.Unlock()
	assert.Equal(t, 280, enc.opts.Width)
	assert.Equal(t, 4, enc.opts.Margin)
	assert.Equal(t, black, enc.opts.Dark)
	assert.Equal(t, qrcode.LevelL, enc.opts.Level)
}
