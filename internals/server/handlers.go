package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/cryptopay/internals/currency"
	"github.com/ngenohkevin/cryptopay/internals/paymenturi"
	"github.com/ngenohkevin/cryptopay/internals/share"
)

const encodeTimeout = 10 * time.Second

// paymentForm is the form input shared by the JSON and query endpoints
type paymentForm struct {
	Currency string `json:"currency" form:"currency" binding:"required"`
	Address  string `json:"address" form:"address"`
	Amount   string `json:"amount" form:"amount"`
}

func (f paymentForm) request() (paymenturi.Request, error) {
	spec, ok := currency.Lookup(f.Currency)
	if !ok {
		return paymenturi.Request{}, fmt.Errorf("unsupported currency %q", f.Currency)
	}
	return paymenturi.Request{
		Currency: spec,
		Address:  f.Address,
		Amount:   paymenturi.SanitizeAmount(f.Amount),
	}, nil
}

// downloadSink answers the current request with the image as an attachment
type downloadSink struct {
	c *gin.Context
}

func (d downloadSink) Save(_ context.Context, image []byte, filename string) error {
	d.c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	d.c.Data(http.StatusOK, "image/png", image)
	return nil
}

func (s *Server) handleCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": currency.All()})
}

// handleSelectCurrency stores the page's currency choice in the cookie session
func (s *Server) handleSelectCurrency(c *gin.Context) {
	var body struct {
		Currency string `json:"currency" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: currency is required"})
		return
	}
	spec, ok := currency.Lookup(body.Currency)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported currency %q", body.Currency)})
		return
	}
	s.rememberCurrency(c, spec.ID)
	c.JSON(http.StatusOK, gin.H{"currency": spec})
}

func (s *Server) handleURI(c *gin.Context) {
	var form paymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: currency is required"})
		return
	}
	req, err := form.request()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.rememberCurrency(c, req.Currency.ID)

	c.JSON(http.StatusOK, gin.H{
		"uri":      req.URI(),
		"amount":   req.Amount,
		"summary":  req.Summary(),
		"filename": req.FileName(),
	})
}

func (s *Server) handleQR(c *gin.Context) {
	var form paymentForm
	if err := c.ShouldBindQuery(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: currency is required"})
		return
	}
	req, err := form.request()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.rememberCurrency(c, req.Currency.ID)

	// no address, no code
	if !req.Ready() {
		c.Status(http.StatusNoContent)
		return
	}

	image, ok := s.encode(c, req)
	if !ok {
		return
	}

	switch c.Query("download") {
	case "1", "true":
		_ = downloadSink{c: c}.Save(c.Request.Context(), image, req.FileName())
	default:
		c.Data(http.StatusOK, "image/png", image)
	}
}

func (s *Server) handleShare(c *gin.Context) {
	name := c.Param("sink")
	sink, err := s.deps.Sinks.Get(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var form paymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: currency is required"})
		return
	}
	req, err := form.request()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Ready() {
		c.Status(http.StatusNoContent)
		return
	}

	image, ok := s.encode(c, req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), encodeTimeout)
	defer cancel()
	if err := sink.Save(ctx, image, req.FileName()); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, share.ErrCircuitOpen) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": fmt.Sprintf("Error sharing QR code: %s", err.Error())})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "shared",
		"sink":     name,
		"filename": req.FileName(),
		"uri":      req.URI(),
	})
}

// encode renders req, writing the error response itself on failure
func (s *Server) encode(c *gin.Context, req paymenturi.Request) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), encodeTimeout)
	defer cancel()

	image, err := s.deps.Encoder.Encode(ctx, req.URI(), s.deps.Options)
	if err != nil {
		s.logger.Error("QR generation failed", "currency", req.Currency.ID, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("Error generating QR code: %s", err.Error())})
		return nil, false
	}
	return image, true
}
