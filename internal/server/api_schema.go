package server

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"timetracker/internal/models"
	"timetracker/internal/tracker"
)

const (
	msgInvalidInteger  = "A valid integer is required."
	msgInvalidDate     = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgInvalidDuration = "Duration has wrong format. Use one of these formats instead: [DD] [HH:[MM:]]ss."
	msgInvalidBoolean  = "Must be a valid boolean."
)

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type taskResponse struct {
	ID              int64        `json:"id"`
	ResponsibleUser userResponse `json:"responsible_user"`
	CreationDate    time.Time    `json:"creation_date"`
	Description     string       `json:"description"`
	Active          bool         `json:"active"`
	TotalWorkedTime float64      `json:"total_worked_time"`
	TotalHours      string       `json:"total_hours"`
	RecordsCount    int64        `json:"records_count"`
}

type taskDetailResponse struct {
	taskResponse
	TimeRecords []recordResponse `json:"time_records"`
}

type recordResponse struct {
	ID              int64           `json:"id"`
	Task            taskResponse    `json:"task"`
	RecordDate      models.Date     `json:"record_date"`
	WorkedTime      models.Duration `json:"worked_time"`
	WorkDescription string          `json:"work_description"`
	CreationDate    time.Time       `json:"creation_date"`
	WorkedHours     string          `json:"worked_hours"`
}

type summaryResponse struct {
	TotalHours   float64 `json:"total_hours"`
	WeekHours    float64 `json:"week_hours"`
	MonthHours   float64 `json:"month_hours"`
	TotalRecords int64   `json:"total_records"`
}

type dashboardResponse struct {
	TotalTasks       int64            `json:"total_tasks"`
	ActiveTasks      int64            `json:"active_tasks"`
	TotalWorkedHours float64          `json:"total_worked_hours"`
	HoursThisWeek    float64          `json:"hours_this_week"`
	HoursThisMonth   float64          `json:"hours_this_month"`
	RecentTasks      []taskResponse   `json:"recent_tasks"`
	RecentRecords    []recordResponse `json:"recent_records"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func newTaskResponse(t models.Task) taskResponse {
	return taskResponse{
		ID:              t.ID,
		ResponsibleUser: newUserResponse(t.ResponsibleUser),
		CreationDate:    t.CreationDate.UTC(),
		Description:     t.Description,
		Active:          t.Active,
		TotalWorkedTime: float64(t.TotalWorkedTime.Seconds()),
		TotalHours:      t.TotalHours(),
		RecordsCount:    t.RecordsCount,
	}
}

func newTaskResponses(tasks []models.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}

func newRecordResponse(r models.TimeRecord) recordResponse {
	return recordResponse{
		ID:              r.ID,
		Task:            newTaskResponse(r.Task),
		RecordDate:      r.RecordDate,
		WorkedTime:      r.WorkedTime,
		WorkDescription: r.WorkDescription,
		CreationDate:    r.CreationDate.UTC(),
		WorkedHours:     r.WorkedHours(),
	}
}

func newRecordResponses(records []models.TimeRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, newRecordResponse(r))
	}
	return out
}

func newDashboardResponse(d tracker.Dashboard) dashboardResponse {
	return dashboardResponse{
		TotalTasks:       d.TotalTasks,
		ActiveTasks:      d.ActiveTasks,
		TotalWorkedHours: d.Total.Hours(),
		HoursThisWeek:    d.Week.Hours(),
		HoursThisMonth:   d.Month.Hours(),
		RecentTasks:      newTaskResponses(d.RecentTasks),
		RecentRecords:    newRecordResponses(d.RecentRecords),
	}
}

// taskCreateRequest is the body of POST /api/tasks/.
type taskCreateRequest struct {
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (r taskCreateRequest) input() tracker.TaskInput {
	return tracker.TaskInput{Description: r.Description, Active: r.Active}
}

// taskUpdateRequest is the body of PUT and PATCH /api/tasks/{id}/. Owner and
// creation date are not writable.
type taskUpdateRequest struct {
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (r taskUpdateRequest) input() tracker.TaskInput {
	return tracker.TaskInput{Description: r.Description, Active: r.Active}
}

// recordFields holds raw values so malformed input becomes a field error
// instead of failing the whole body.
type recordFields struct {
	TaskID          json.RawMessage `json:"task_id"`
	RecordDate      json.RawMessage `json:"record_date"`
	WorkedTime      json.RawMessage `json:"worked_time"`
	WorkDescription *string         `json:"work_description"`
}

// recordCreateRequest is the body of POST /api/records/.
type recordCreateRequest struct {
	recordFields
}

// recordUpdateRequest is the body of PUT and PATCH /api/records/{id}/.
type recordUpdateRequest struct {
	recordFields
}

func (r recordFields) input() tracker.RecordInput {
	in := tracker.RecordInput{WorkDescription: r.WorkDescription, Malformed: map[string]string{}}

	if present(r.TaskID) {
		if id, ok := decodeInt(r.TaskID); ok {
			in.TaskID = &id
		} else {
			in.Malformed["task_id"] = msgInvalidInteger
		}
	}
	if present(r.RecordDate) {
		var d models.Date
		if err := json.Unmarshal(r.RecordDate, &d); err == nil {
			in.RecordDate = &d
		} else {
			in.Malformed["record_date"] = msgInvalidDate
		}
	}
	if present(r.WorkedTime) {
		var d models.Duration
		if err := json.Unmarshal(r.WorkedTime, &d); err == nil {
			in.WorkedTime = &d
		} else {
			in.Malformed["worked_time"] = msgInvalidDuration
		}
	}
	return in
}

// present treats an absent key and an explicit null alike.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeInt accepts a JSON integer or a string holding one.
func decodeInt(raw json.RawMessage) (int64, bool) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
