package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
	"timetracker/internal/tracker"
)

// recordForm keeps submitted values so a rejected form re-renders as typed.
type recordForm struct {
	TaskID          string
	RecordDate      string
	WorkedTime      string
	WorkDescription string
	Errors          map[string]string
}

func recordFormFrom(c *gin.Context) recordForm {
	return recordForm{
		TaskID:          strings.TrimSpace(c.PostForm("task_id")),
		RecordDate:      strings.TrimSpace(c.PostForm("record_date")),
		WorkedTime:      strings.TrimSpace(c.PostForm("worked_time")),
		WorkDescription: c.PostForm("work_description"),
	}
}

func recordFormOf(r models.TimeRecord) recordForm {
	return recordForm{
		TaskID:          strconv.FormatInt(r.Task.ID, 10),
		RecordDate:      r.RecordDate.String(),
		WorkedTime:      r.WorkedTime.Clock(),
		WorkDescription: r.WorkDescription,
	}
}

// input converts the form. Blank fields stay unset so the service reports
// them as required.
func (f recordForm) input() tracker.RecordInput {
	in := tracker.RecordInput{Malformed: map[string]string{}}
	if f.TaskID != "" {
		if id, err := strconv.ParseInt(f.TaskID, 10, 64); err == nil {
			in.TaskID = &id
		} else {
			in.Malformed["task_id"] = "Select a valid choice. That choice is not one of the available choices."
		}
	}
	if f.RecordDate != "" {
		if d, err := models.ParseDate(f.RecordDate); err == nil {
			in.RecordDate = &d
		} else {
			in.Malformed["record_date"] = "Enter a valid date."
		}
	}
	if f.WorkedTime != "" {
		if d, err := models.ParseDuration(f.WorkedTime); err == nil {
			in.WorkedTime = &d
		} else {
			in.Malformed["worked_time"] = "Enter a valid duration."
		}
	}
	if strings.TrimSpace(f.WorkDescription) != "" {
		in.WorkDescription = &f.WorkDescription
	}
	return in
}

// handleRecordListPage lists records with ?search, ?date_start, ?date_end and ?period.
func (s *Server) handleRecordListPage(c *gin.Context) {
	q := &queryReader{c: c}
	filter := models.RecordFilter{
		Keyword: q.text("search"),
		Period:  q.text("period"),
	}
	if rng := (models.DateRange{From: q.date("date_start"), To: q.date("date_end")}); rng.From != nil || rng.To != nil {
		filter.Dates = append(filter.Dates, rng)
	}

	ctx := c.Request.Context()
	list, err := s.tracker.ListRecords(ctx, userID(c), filter, models.Page{})
	if err != nil {
		s.renderError(c, err)
		return
	}
	sum, err := s.tracker.Summary(ctx, userID(c), filter)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "record_list", gin.H{
		"Title":     "Time Records",
		"Records":   list.Items,
		"Total":     sum.Total,
		"Search":    c.Query("search"),
		"DateStart": c.Query("date_start"),
		"DateEnd":   c.Query("date_end"),
		"Period":    c.Query("period"),
		"Errors":    q.verr.Fields,
	})
}

// renderRecordForm shows the form with the user's tasks as choices.
func (s *Server) renderRecordForm(c *gin.Context, title string, record *models.TimeRecord, form recordForm) {
	choices, err := s.tracker.TaskChoices(c.Request.Context(), userID(c))
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.render(c, http.StatusOK, "record_form", gin.H{
		"Title":  title,
		"Record": record,
		"Form":   form,
		"Tasks":  choices,
	})
}

func (s *Server) handleNewRecordPage(c *gin.Context) {
	form := recordForm{RecordDate: s.tracker.Today().String(), TaskID: c.Query("task")}
	s.renderRecordForm(c, "New Time Record", nil, form)
}

func (s *Server) handleNewRecord(c *gin.Context) {
	form := recordFormFrom(c)
	_, err := s.tracker.CreateRecord(c.Request.Context(), userID(c), form.input())
	if fields, ok := fieldErrors(err); ok {
		form.Errors = fields
		s.renderRecordForm(c, "New Time Record", nil, form)
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectWithFlash(c, "/records/", "Time record created successfully!")
}

func (s *Server) handleEditRecordPage(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	record, err := s.tracker.GetRecord(c.Request.Context(), userID(c), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.renderRecordForm(c, "Edit Time Record", &record, recordFormOf(record))
}

func (s *Server) handleEditRecord(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}

	ctx := c.Request.Context()
	form := recordFormFrom(c)
	_, err := s.tracker.UpdateRecord(ctx, userID(c), id, form.input(), false)
	if fields, ok := fieldErrors(err); ok {
		form.Errors = fields
		record, _ := s.tracker.GetRecord(ctx, userID(c), id)
		s.renderRecordForm(c, "Edit Time Record", &record, form)
		return
	}
	if err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectWithFlash(c, "/records/", "Time record updated successfully!")
}

func (s *Server) handleDeleteRecordForm(c *gin.Context) {
	id, ok := parseWebID(c)
	if !ok {
		s.renderError(c, models.ErrNotFound)
		return
	}
	if err := s.tracker.DeleteRecord(c.Request.Context(), userID(c), id); err != nil {
		s.renderError(c, err)
		return
	}
	s.redirectWithFlash(c, "/records/", "Time record deleted successfully!")
}
