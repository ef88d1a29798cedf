package server

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/cryptopay/internals/currency"
)

const sessionName = "cryptopay-session"

//go:embed templates/*.html
var templateFS embed.FS

func loadPage() (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load page template: %w", err)
	}
	return tmpl, nil
}

// sessionCurrency returns the currency remembered for this browser, if any
func (s *Server) sessionCurrency(c *gin.Context) (currency.Spec, bool) {
	session, _ := s.store.Get(c.Request, sessionName)
	id, _ := session.Values["currency"].(string)
	if id == "" {
		return currency.Spec{}, false
	}
	return currency.Lookup(id)
}

func (s *Server) rememberCurrency(c *gin.Context, id string) {
	session, _ := s.store.Get(c.Request, sessionName)
	if current, _ := session.Values["currency"].(string); current == id {
		return
	}
	session.Values["currency"] = id
	if err := session.Save(c.Request, c.Writer); err != nil {
		s.logger.Warn("failed to save session", "error", err)
	}
}

func (s *Server) handlePage(c *gin.Context) {
	selected, ok := s.sessionCurrency(c)
	if !ok {
		selected = currency.Default()
	}

	data := gin.H{
		"Currencies": currency.All(),
		"Selected":   selected,
		"Sinks":      s.deps.Sinks.Names(),
		"Width":      s.deps.Options.Width,
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.page.Execute(c.Writer, data); err != nil {
		s.logger.Error("failed to render page", "error", err)
	}
}
