package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed assets
var assetFS embed.FS

// mountStatic serves the embedded stylesheet and answers unmatched routes:
// JSON under /api/, the HTML error page elsewhere.
func (s *Server) mountStatic() {
	assets, err := fs.Sub(assetFS, "assets")
	if err != nil {
		s.logger.Warn("embedded assets missing; pages render unstyled", "error", err)
	} else {
		s.engine.StaticFS("/static", http.FS(assets))
	}

	s.engine.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return
		}
		s.render(c, http.StatusNotFound, "error", gin.H{"Title": "Not found", "Message": "The page you requested does not exist."})
	})
}
