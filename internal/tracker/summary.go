package tracker

import (
	"context"
	"fmt"

	"timetracker/internal/models"
	"timetracker/internal/period"
)

// Summary totals a filtered set of records, plus the part of it that falls
// in the current week and month.
type Summary struct {
	Total   models.Duration
	Week    models.Duration
	Month   models.Duration
	Records int64
}

// Dashboard is the landing overview for one user.
type Dashboard struct {
	TotalTasks    int64
	ActiveTasks   int64
	Total         models.Duration
	Week          models.Duration
	Month         models.Duration
	RecentTasks   []models.Task
	RecentRecords []models.TimeRecord
}

const (
	recentTasks   = 5
	recentRecords = 10
)

// Summary aggregates the user's records matching f. The week and month
// figures narrow the same filtered base further.
func (s *Service) Summary(ctx context.Context, userID int64, f models.RecordFilter) (Summary, error) {
	f = s.resolve(f)

	var (
		sum Summary
		err error
	)
	if sum.Total, err = s.store.SumWorkedTime(ctx, userID, f); err != nil {
		return Summary{}, err
	}
	if sum.Records, err = s.store.CountRecords(ctx, userID, f); err != nil {
		return Summary{}, err
	}
	if sum.Week, err = s.sumWithin(ctx, userID, f, period.ThisWeek); err != nil {
		return Summary{}, err
	}
	if sum.Month, err = s.sumWithin(ctx, userID, f, period.ThisMonth); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (s *Service) sumWithin(ctx context.Context, userID int64, f models.RecordFilter, name string) (models.Duration, error) {
	f.Period = name
	total, err := s.store.SumWorkedTime(ctx, userID, s.resolve(f))
	if err != nil {
		return 0, fmt.Errorf("sum %s: %w", name, err)
	}
	return total, nil
}

// Dashboard collects the counts, hour totals and recent activity shown on
// the landing page and returned by the dashboard endpoint.
func (s *Service) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	active := true
	if d.TotalTasks, err = s.store.CountTasks(ctx, userID, models.TaskFilter{}); err != nil {
		return Dashboard{}, err
	}
	if d.ActiveTasks, err = s.store.CountTasks(ctx, userID, models.TaskFilter{Active: &active}); err != nil {
		return Dashboard{}, err
	}

	sum, err := s.Summary(ctx, userID, models.RecordFilter{})
	if err != nil {
		return Dashboard{}, err
	}
	d.Total, d.Week, d.Month = sum.Total, sum.Week, sum.Month

	d.RecentTasks, err = s.store.ListTasks(ctx, userID,
		models.TaskFilter{Ordering: []string{"-creation_date"}},
		models.Page{Number: 1, Size: recentTasks})
	if err != nil {
		return Dashboard{}, err
	}
	d.RecentRecords, err = s.store.ListRecords(ctx, userID,
		models.RecordFilter{Ordering: []string{"-creation_date"}},
		models.Page{Number: 1, Size: recentRecords})
	if err != nil {
		return Dashboard{}, err
	}
	return d, nil
}
