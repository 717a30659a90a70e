package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
)

// handleListRecords returns the caller's time records, filtered, ordered and paginated.
func (s *Server) handleListRecords(c *gin.Context) {
	filter, err := recordFilterFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.listRecords(c, filter)
}

// handleListRecordsInPeriod serves the fixed period lists such as /today/.
func (s *Server) handleListRecordsInPeriod(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.listRecords(c, models.RecordFilter{Period: name})
	}
}

func (s *Server) listRecords(c *gin.Context, filter models.RecordFilter) {
	page, ok := s.pageParams(c)
	if !ok {
		return
	}
	list, err := s.tracker.ListRecords(c.Request.Context(), userID(c), filter, page)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondPage(c, page, list.Count, newRecordResponses(list.Items))
}

// handleCreateRecord logs time against one of the caller's tasks.
func (s *Server) handleCreateRecord(c *gin.Context) {
	var req recordCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	record, err := s.tracker.CreateRecord(c.Request.Context(), userID(c), req.input())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusCreated, newRecordResponse(record))
}

func (s *Server) handleGetRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	record, err := s.tracker.GetRecord(c.Request.Context(), userID(c), id)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, newRecordResponse(record))
}

// handleUpdateRecord serves PUT (partial=false) and PATCH (partial=true).
func (s *Server) handleUpdateRecord(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}

		var req recordUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, err)
			return
		}

		record, err := s.tracker.UpdateRecord(c.Request.Context(), userID(c), id, req.input(), partial)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}
		respondSuccess(c, http.StatusOK, newRecordResponse(record))
	}
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.tracker.DeleteRecord(c.Request.Context(), userID(c), id); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// handleRecordSummary totals the caller's records. List filters narrow the
// base the totals are computed from.
func (s *Server) handleRecordSummary(c *gin.Context) {
	filter, err := recordFilterFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	sum, err := s.tracker.Summary(c.Request.Context(), userID(c), filter)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, summaryResponse{
		TotalHours:   sum.Total.Hours(),
		WeekHours:    sum.Week.Hours(),
		MonthHours:   sum.Month.Hours(),
		TotalRecords: sum.Records,
	})
}

// handleDashboard returns the landing overview.
func (s *Server) handleDashboard(c *gin.Context) {
	d, err := s.tracker.Dashboard(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, newDashboardResponse(d))
}
