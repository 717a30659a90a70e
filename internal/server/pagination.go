package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
)

// pageEnvelope is the body of every paginated list.
type pageEnvelope struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// pageParams reads ?page and ?page_size. It writes a 404 and reports false
// for a page number that is not a positive integer.
func (s *Server) pageParams(c *gin.Context) (models.Page, bool) {
	page := models.Page{Number: 1, Size: s.opts.PageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Invalid page."})
			return page, false
		}
		page.Number = n
	}
	if raw := c.Query("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = min(n, maxPageSize)
		}
	}
	return page, true
}

// respondPage writes the envelope, or a 404 when the page lies past the end.
func respondPage(c *gin.Context, page models.Page, count int64, results any) {
	if page.Number > 1 && int64(page.Offset()) >= count {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid page."})
		return
	}

	env := pageEnvelope{Count: count, Results: results}
	if int64(page.Offset()+page.Size) < count {
		env.Next = pageLink(c, page.Number+1)
	}
	if page.Number > 1 {
		env.Previous = pageLink(c, page.Number-1)
	}
	c.JSON(http.StatusOK, env)
}

// pageLink rebuilds the request URL pointing at page number n. Page 1 drops
// the parameter.
func pageLink(c *gin.Context, n int) *string {
	u := *c.Request.URL
	q := u.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	u.RawQuery = q.Encode()
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	link := u.String()
	return &link
}
