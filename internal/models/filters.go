package models

import "time"

// TaskFilter narrows a user's task list. The zero value matches every task.
type TaskFilter struct {
	Description string
	// CreatedFrom and CreatedTo are calendar days in Location (UTC when nil).
	CreatedFrom *Date
	CreatedTo   *Date
	Location    *time.Location
	Active      *bool
	// Search matches description and the owner's names; Keyword matches
	// description and username only.
	Search   string
	Keyword  string
	Ordering []string
}

// RecordFilter narrows a user's time records. Every range in Dates must
// contain the record date, so a period and an explicit range combine.
// Period names a relative range; the tracker service resolves it into
// Dates before the filter reaches storage.
type RecordFilter struct {
	Period          string
	TaskID          *int64
	WorkDescription string
	TaskDescription string
	Dates           []DateRange
	MinTime         *Duration
	MaxTime         *Duration
	User            string
	// Search spans descriptions, the owner's names and the record date;
	// Keyword matches the two descriptions only.
	Search   string
	Keyword  string
	Ordering []string
}

// Page selects a window of a list. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows skipped before the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// AdminFilter narrows operator listings, which span all users.
type AdminFilter struct {
	Search   string
	Username string
	Active   *bool
	Date     *Date
	Page     Page
}
