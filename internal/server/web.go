package server

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"timetracker/internal/models"
	"timetracker/internal/period"
	"timetracker/internal/tracker"
)

//go:embed templates/*.html
var templateFS embed.FS

const flashCookie = "timetracker_flash"

// parseTemplates pairs every page with the shared layout. Timestamps render
// in loc.
func parseTemplates(loc *time.Location) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"hours":    func(d models.Duration) string { return fmt.Sprintf("%.2f", d.Hours()) },
		"truncate": models.Truncate,
		"datetime": func(t time.Time) string { return t.In(loc).Format("2006-01-02 15:04") },
		"periods":  func() []period.Choice { return period.Choices },
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(strings.TrimPrefix(page, "templates/"), ".html")
		if name == "base" {
			continue
		}
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render executes a page inside the layout. The signed-in user and any
// pending flash message are added to data.
func (s *Server) render(c *gin.Context, status int, page string, data gin.H) {
	t, ok := s.templates[page]
	if !ok {
		s.logger.Error("unknown template", slog.String("page", page))
		c.String(http.StatusInternalServerError, "internal server error")
		return
	}
	if data == nil {
		data = gin.H{}
	}
	if u, ok := currentUser(c); ok {
		data["User"] = u
	}
	data["Flash"] = s.popFlash(c)
	data["Path"] = c.Request.URL.Path

	c.Render(status, render.HTML{Template: t, Name: "base", Data: data})
}

// renderError maps service errors to the 404 or 500 page.
func (s *Server) renderError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrNotFound) {
		s.render(c, http.StatusNotFound, "error", gin.H{"Title": "Not found", "Message": "The page you requested does not exist."})
		return
	}
	s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	s.render(c, http.StatusInternalServerError, "error", gin.H{"Title": "Server error", "Message": "Something went wrong. Please try again."})
}

// redirectWithFlash stores a one-shot message and redirects with 303 so the
// browser follows up with GET.
func (s *Server) redirectWithFlash(c *gin.Context, location, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, message, 60, "/", "", s.opts.SecureCookies, true)
	c.Redirect(http.StatusSeeOther, location)
}

func (s *Server) popFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", s.opts.SecureCookies, true)
	return msg
}

// fieldErrors extracts per-field messages, or reports false for any other error.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *tracker.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
