package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"timetracker/internal/models"
	"timetracker/internal/tracker"
)

// queryReader collects typed query parameters and the field errors met
// while parsing them.
type queryReader struct {
	c    *gin.Context
	verr tracker.ValidationError
}

func (q *queryReader) text(name string) string {
	return strings.TrimSpace(q.c.Query(name))
}

func (q *queryReader) date(name string) *models.Date {
	raw := q.text(name)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		q.verr.Add(name, "Enter a valid date.")
		return nil
	}
	return &d
}

func (q *queryReader) duration(name string) *models.Duration {
	raw := q.text(name)
	if raw == "" {
		return nil
	}
	d, err := models.ParseDuration(raw)
	if err != nil {
		q.verr.Add(name, "Enter a valid duration.")
		return nil
	}
	return &d
}

func (q *queryReader) boolean(name string) *bool {
	raw := q.text(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.verr.Add(name, "Select a valid choice. "+raw+" is not one of the available choices.")
		return nil
	}
	return &b
}

func (q *queryReader) id(name string) *int64 {
	raw := q.text(name)
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.verr.Add(name, "Enter a whole number.")
		return nil
	}
	return &n
}

func (q *queryReader) list(name string) []string {
	var out []string
	for _, part := range strings.Split(q.c.Query(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (q *queryReader) err() error {
	if len(q.verr.Fields) == 0 {
		return nil
	}
	return &q.verr
}

// taskFilterFromQuery reads the task list parameters of the API.
func taskFilterFromQuery(c *gin.Context) (models.TaskFilter, error) {
	q := &queryReader{c: c}
	f := models.TaskFilter{
		Description: q.text("description"),
		CreatedFrom: q.date("creation_date_start"),
		CreatedTo:   q.date("creation_date_end"),
		Active:      q.boolean("active"),
		Search:      q.text("search"),
		Ordering:    q.list("ordering"),
	}
	return f, q.err()
}

// recordFilterFromQuery reads the record list parameters of the API.
func recordFilterFromQuery(c *gin.Context) (models.RecordFilter, error) {
	q := &queryReader{c: c}
	f := models.RecordFilter{
		Period:          q.text("period"),
		TaskID:          q.id("task"),
		WorkDescription: q.text("work_description"),
		TaskDescription: q.text("task_description"),
		MinTime:         q.duration("min_time"),
		MaxTime:         q.duration("max_time"),
		User:            q.text("user"),
		Search:          q.text("search"),
		Ordering:        q.list("ordering"),
	}
	if rng := (models.DateRange{From: q.date("record_date_start"), To: q.date("record_date_end")}); rng.From != nil || rng.To != nil {
		f.Dates = append(f.Dates, rng)
	}
	return f, q.err()
}
