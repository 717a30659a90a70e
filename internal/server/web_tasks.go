package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
	"timetracker/internal/tracker"
)

// taskForm keeps submitted values so a rejected form re-renders as typed.
type taskForm struct {
	Description string
	Active      bool
	Errors      map[string]string
}

func taskFormFrom(c *gin.Context) taskForm {
	return taskForm{
		Description: c.PostForm("description"),
		Active:      c.PostForm("active") != "",
	}
}

func (f taskForm) input() tracker.TaskInput {
	return tracker.TaskInput{Description: &f.Description, Active: &f.Active}
}

func (s *Server) handleDashboardPage(c *gin.Context) {
	d, err := s.tracker.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "dashboard", gin.H{"Title": "Dashboard", "Dashboard": d})
}

// handleTaskListPage lists tasks with ?search and ?status=active|inactive.
func (s *Server) handleTaskListPage(c *gin.Context) {
	search := strings.TrimSpace(c.Query("search"))
	status := c.Query("status")

	filter := models.TaskFilter{Keyword: search}
	switch status {
	case "active":
		filter.Active = boolPtr(true)
	case "inactive":
		filter.Active = boolPtr(false)
	default:
		status = ""
	}

	list, err := s.tracker.ListTasks(c.Request.Context(), userID(c), filter, models.Page{})
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "task_list", gin.H{
		"Title":  "Tasks",
		"Tasks":  list.Items,
		"Search": search,
		"Status": status,
	})
}

func (s *Server) handleNewTaskPage(c *gin.Context) {
	s.render(c, http.StatusOK, "task_form", gin.H{"Title": "New Task", "Form": taskForm{Active: true}})
}

func (s *Server) handleNewTask(c *gin.Context) {
	form := taskFormFrom(c)
	_, err := s.tracker.CreateTask(c.Request.Context(), userID(c), form.input())
	if fields, ok := fieldErrors(err); ok {
		form.Errors = fields
		s.render(c, http.StatusOK, "task_form", gin.H{"Title": "New Task", "Form": form})
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectWithFlash(c, "/tasks/", "Task created successfully!")
}

func (s *Server) handleTaskDetailPage(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	detail, err := s.tracker.TaskDetail(c.Request.Context(), userID(c), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "task_detail", gin.H{"Title": "Task", "Task": detail.Task, "Records": detail.Records})
}

func (s *Server) handleEditTaskPage(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	task, err := s.tracker.GetTask(c.Request.Context(), userID(c), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	form := taskForm{Description: task.Description, Active: task.Active}
	s.render(c, http.StatusOK, "task_form", gin.H{"Title": "Edit Task", "Task": task, "Form": form})
}

func (s *Server) handleEditTask(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}

	form := taskFormFrom(c)
	task, err := s.tracker.UpdateTask(c.Request.Context(), userID(c), id, form.input(), false)
	if fields, ok := fieldErrors(err); ok {
		form.Errors = fields
		current, _ := s.tracker.GetTask(c.Request.Context(), userID(c), id)
		s.render(c, http.StatusOK, "task_form", gin.H{"Title": "Edit Task", "Task": current, "Form": form})
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.logger.Debug("task updated from web", "task_id", task.ID)
	s.redirectWithFlash(c, "/tasks/", "Task updated successfully!")
}

func (s *Server) handleToggleTaskForm(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	task, err := s.tracker.ToggleTask(c.Request.Context(), userID(c), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	msg := "Task marked as inactive."
	if task.Active {
		msg = "Task marked as active."
	}
	s.redirectWithFlash(c, "/tasks/"+strconv.FormatInt(task.ID, 10)+"/", msg)
}

func (s *Server) handleDeleteTaskForm(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	if err := s.tracker.DeleteTask(c.Request.Context(), userID(c), id); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectWithFlash(c, "/tasks/", "Task deleted successfully!")
}

// parseWebID reads :id without writing a JSON error.
func parseWebID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func boolPtr(b bool) *bool { return &b }
