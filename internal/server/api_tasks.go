package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
)

// handleListTasks returns the caller's tasks, filtered, ordered and paginated.
func (s *Server) handleListTasks(c *gin.Context) {
	filter, err := taskFilterFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.listTasks(c, filter)
}

// handleListTasksByStatus serves /active/ and /inactive/.
func (s *Server) handleListTasksByStatus(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.listTasks(c, models.TaskFilter{Active: &active})
	}
}

func (s *Server) listTasks(c *gin.Context, filter models.TaskFilter) {
	page, ok := s.pageParams(c)
	if !ok {
		return
	}
	list, err := s.tracker.ListTasks(c.Request.Context(), userID(c), filter, page)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondPage(c, page, list.Count, newTaskResponses(list.Items))
}

// handleCreateTask stores a task owned by the caller.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.tracker.CreateTask(c.Request.Context(), userID(c), req.input())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusCreated, newTaskResponse(task))
}

// handleGetTask returns the task with its time records nested.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := s.tracker.TaskDetail(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, taskDetailResponse{
		taskResponse: newTaskResponse(detail.Task),
		TimeRecords:  newRecordResponses(detail.Records),
	})
}

// handleUpdateTask serves PUT (partial=false) and PATCH (partial=true).
func (s *Server) handleUpdateTask(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req taskUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}

		task, err := s.tracker.UpdateTask(c.Request.Context(), userID(c), id, req.input(), partial)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, newTaskResponse(task))
	}
}

// handleDeleteTask removes a task and its time records.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.tracker.DeleteTask(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleToggleTask flips the active flag and returns the task.
func (s *Server) handleToggleTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := s.tracker.ToggleTask(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, newTaskResponse(task))
}
