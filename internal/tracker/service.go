// Package tracker applies ownership, validation and aggregation rules on top
// of the task and time record storage. Both the JSON API and the web UI go
// through it.
package tracker

import (
	"context"
	"io"
	"log/slog"
	"time"

	"timetracker/internal/models"
	"timetracker/internal/period"
)

// Store is the persistence the service needs. Every call is scoped to the
// owning user.
type Store interface {
	ListTasks(ctx context.Context, ownerID int64, f models.TaskFilter, page models.Page) ([]models.Task, error)
	CountTasks(ctx context.Context, ownerID int64, f models.TaskFilter) (int64, error)
	CreateTask(ctx context.Context, ownerID int64, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, ownerID, id int64) (models.Task, error)
	UpdateTask(ctx context.Context, ownerID int64, t models.Task) (models.Task, error)
	ToggleTask(ctx context.Context, ownerID, id int64) (models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id int64) error

	ListRecords(ctx context.Context, ownerID int64, f models.RecordFilter, page models.Page) ([]models.TimeRecord, error)
	CountRecords(ctx context.Context, ownerID int64, f models.RecordFilter) (int64, error)
	SumWorkedTime(ctx context.Context, ownerID int64, f models.RecordFilter) (models.Duration, error)
	CreateRecord(ctx context.Context, ownerID int64, r models.TimeRecord) (models.TimeRecord, error)
	GetRecord(ctx context.Context, ownerID, id int64) (models.TimeRecord, error)
	UpdateRecord(ctx context.Context, ownerID int64, r models.TimeRecord) (models.TimeRecord, error)
	DeleteRecord(ctx context.Context, ownerID, id int64) error
}

// Service is safe for concurrent use.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

// Option tweaks a Service at construction.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, logger: logger, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the service's zone.
func (s *Service) Today() models.Date {
	return period.TodayIn(s.now(), s.loc)
}

// Location is the zone calendar days are evaluated in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// List is one page of results together with the unpaged total.
type List[T any] struct {
	Items []T
	Count int64
}

// resolve folds a named period into the filter's date ranges. Unknown
// names are dropped.
func (s *Service) resolve(f models.RecordFilter) models.RecordFilter {
	if f.Period == "" {
		return f
	}
	name := f.Period
	f.Period = ""
	if r, ok := period.Resolve(name, s.Today()); ok {
		f.Dates = append(append([]models.DateRange(nil), f.Dates...), r)
	}
	return f
}
