package models

import (
	"fmt"
	"time"
)

// User is the authenticated principal that owns tasks.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID              int64
	ResponsibleUser User
	CreationDate    time.Time
	Description     string
	Active          bool

	// Derived from the task's time records when the task is loaded.
	TotalWorkedTime Duration
	RecordsCount    int64
}

// TotalHours renders the total worked time as "<hours> hours" with two decimals.
func (t Task) TotalHours() string {
	return FormatHours(t.TotalWorkedTime)
}

// String mirrors the short label used in listings and form choices.
func (t Task) String() string {
	return fmt.Sprintf("%s - %s", Truncate(t.Description, 50), t.ResponsibleUser.Username)
}

// TimeRecord is a logged span of work against one task.
type TimeRecord struct {
	ID              int64
	Task            Task
	RecordDate      Date
	WorkedTime      Duration
	WorkDescription string
	CreationDate    time.Time
}

// WorkedHours renders the worked time as zero padded HH:MM.
func (r TimeRecord) WorkedHours() string {
	return r.WorkedTime.Clock()
}

func (r TimeRecord) String() string {
	return fmt.Sprintf("%s - %s (%s)", Truncate(r.Task.Description, 30), r.RecordDate, r.WorkedTime)
}

// FormatHours renders a duration as fractional hours with two decimals.
func FormatHours(d Duration) string {
	return fmt.Sprintf("%.2f hours", d.Hours())
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
