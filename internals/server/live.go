package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ngenohkevin/cryptopay/internals/generator"
	"github.com/ngenohkevin/cryptopay/internals/share"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// liveEvent is an input event sent by the page
type liveEvent struct {
	Type  string `json:"type"` // currency, address, amount, copy, copyFailed, share
	Value string `json:"value"`
}

// liveState is pushed to the page after every state change
type liveState struct {
	Type       string `json:"type"`
	Seq        uint64 `json:"seq"`
	ImageSeq   uint64 `json:"imageSeq"`
	Currency   string `json:"currency"`
	Symbol     string `json:"symbol"`
	Address    string `json:"address"`
	Amount     string `json:"amount"`
	URI        string `json:"uri"`
	Summary    string `json:"summary"`
	Image      string `json:"image,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	Generating bool   `json:"generating"`
	Current    bool   `json:"current"`
	Copied     bool   `json:"copied"`
	CopyFailed bool   `json:"copyFailed"`
}

func newLiveState(st generator.State) liveState {
	out := liveState{
		Type:       "state",
		Seq:        st.Seq,
		ImageSeq:   st.ImageSeq,
		Currency:   st.Request.Currency.ID,
		Symbol:     st.Request.Currency.Symbol,
		Address:    st.Request.Address,
		Amount:     st.Request.Amount,
		URI:        st.URI,
		Summary:    st.Request.Summary(),
		FileName:   st.ImageName,
		Generating: st.Generating,
		Current:    st.Current(),
		Copied:     st.Copied,
		CopyFailed: st.CopyFailed,
	}
	if st.Image != nil {
		out.Image = "data:image/png;base64," + base64.StdEncoding.EncodeToString(st.Image)
	}
	return out
}

// liveConn serializes writes, gorilla allows one concurrent writer
type liveConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (lc *liveConn) writeJSON(v interface{}) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.conn.WriteJSON(v)
}

// handleLive runs one generator per WebSocket connection
func (s *Server) handleLive(c *gin.Context) {
	ip := c.ClientIP()
	if !s.deps.Sessions.Acquire(ip) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Server live session capacity reached. Please try again later.",
		})
		return
	}
	defer s.deps.Sessions.Release(ip)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade WebSocket", "error", err)
		return
	}
	defer conn.Close()

	logger := s.logger.With("session", uuid.NewString(), "ip", ip)
	lc := &liveConn{conn: conn}

	gen := generator.New(generator.Config{
		Encoder:   s.deps.Encoder,
		Options:   s.deps.Options,
		Logger:    logger,
		Recorder:  s.deps.Recorder,
		CopiedFor: s.config.CopiedFor,
		OnChange: func(st generator.State) {
			if err := lc.writeJSON(newLiveState(st)); err != nil {
				logger.Debug("dropping state update", "seq", st.Seq, "error", err)
			}
		},
	})
	defer gen.Close()

	logger.Info("live session opened")
	defer logger.Info("live session closed")

	if spec, ok := s.sessionCurrency(c); ok {
		_ = gen.SelectCurrency(spec.ID)
	} else if err := lc.writeJSON(newLiveState(gen.State())); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		var ev liveEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket unexpected close error", "error", err)
			}
			return
		}
		s.dispatch(ctx, gen, lc, ev, logger)
	}
}

func (s *Server) dispatch(ctx context.Context, gen *generator.Generator, lc *liveConn, ev liveEvent, logger *slog.Logger) {
	switch ev.Type {
	case "currency":
		if err := gen.SelectCurrency(ev.Value); err != nil {
			_ = lc.writeJSON(gin.H{"type": "error", "error": err.Error()})
		}
	case "address":
		gen.SetAddress(ev.Value)
	case "amount":
		gen.SetAmount(ev.Value)
	case "copy":
		clipboard := share.ClipboardFunc(func(_ context.Context, text string) error {
			return lc.writeJSON(gin.H{"type": "clipboard", "text": text})
		})
		if err := gen.Copy(ctx, clipboard); err != nil {
			_ = lc.writeJSON(gin.H{"type": "error", "error": err.Error()})
		}
	case "copyFailed":
		gen.ReportCopyFailure()
	case "share":
		sink, err := s.deps.Sinks.Get(ev.Value)
		if err == nil {
			err = gen.Download(ctx, sink)
		}
		reply := gin.H{"type": "shared", "sink": ev.Value, "ok": err == nil}
		if err != nil {
			reply["error"] = err.Error()
		}
		_ = lc.writeJSON(reply)
	default:
		logger.Debug("ignoring unknown live event", "type", ev.Type)
		_ = lc.writeJSON(gin.H{"type": "error", "error": "unknown event " + ev.Type})
	}
}
