package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/auth"
)

// registerWebRoutes wires the server-rendered pages.
func (s *Server) registerWebRoutes() {
	s.engine.GET("/login", s.handleLoginPage)
	s.engine.POST("/login", s.handleLogin)
	s.engine.POST("/logout", s.handleLogout)

	web := s.engine.Group("", s.requireSession())
	{
		web.GET("/", s.handleDashboardPage)

		web.GET("/tasks/", s.handleTaskListPage)
		web.GET("/tasks/new/", s.handleNewTaskPage)
		web.POST("/tasks/new/", s.handleNewTask)
		web.GET("/tasks/:id/", s.handleTaskDetailPage)
		web.GET("/tasks/:id/edit/", s.handleEditTaskPage)
		web.POST("/tasks/:id/edit/", s.handleEditTask)
		web.POST("/tasks/:id/toggle/", s.handleToggleTaskForm)
		web.POST("/tasks/:id/delete/", s.handleDeleteTaskForm)

		web.GET("/records/", s.handleRecordListPage)
		web.GET("/records/new/", s.handleNewRecordPage)
		web.POST("/records/new/", s.handleNewRecord)
		web.GET("/records/:id/edit/", s.handleEditRecordPage)
		web.POST("/records/:id/edit/", s.handleEditRecord)
		web.POST("/records/:id/delete/", s.handleDeleteRecordForm)
	}
}

func (s *Server) handleLoginPage(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if _, ok := s.resolveToken(c, token); ok {
			c.Redirect(http.StatusFound, next)
			return
		}
	}
	s.render(c, http.StatusOK, "login", gin.H{"Title": "Log in", "Next": next, "Username": ""})
}

func (s *Server) handleLogin(c *gin.Context) {
	username, password := c.PostForm("username"), c.PostForm("password")
	next := safeNext(c.PostForm("next"))

	u, err := s.authenticate(c.Request.Context(), username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.render(c, http.StatusOK, "login", gin.H{
			"Title":    "Log in",
			"Next":     next,
			"Username": username,
			"Error":    "Please enter a correct username and password.",
		})
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}

	token, expires, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.setSession(c, token, expires)
	s.logger.Info("user logged in", "user_id", u.ID)
	c.Redirect(http.StatusSeeOther, next)
}

func (s *Server) handleLogout(c *gin.Context) {
	s.clearSession(c)
	s.redirectWithFlash(c, "/login", "You have been logged out.")
}
