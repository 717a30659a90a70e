package sqlite

import (
	"context"
	"fmt"
	"strings"

	"timetracker/internal/models"
)

// Operator listings span every user and are only reachable from the CLI console.

// ListAllTasks returns one page of tasks across all users and the total match count.
func (s *Store) ListAllTasks(ctx context.Context, f models.AdminFilter) ([]models.Task, int64, error) {
	w := &where{}
	if v := strings.TrimSpace(f.Search); v != "" {
		w.anyLike(v, "t.description", "u.username", "u.first_name", "u.last_name")
	}
	if v := strings.TrimSpace(f.Username); v != "" {
		w.add("u.username = ?", v)
	}
	if f.Active != nil {
		w.add("t.active = ?", *f.Active)
	}
	if f.Date != nil {
		w.add("t.creation_date >= ? AND t.creation_date < ?", f.Date.Time(), f.Date.AddDays(1).Time())
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t JOIN users u ON u.id = t.responsible_user_id`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count all tasks: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+taskFrom+w.String()+
		` ORDER BY t.creation_date DESC, t.id DESC`+limitOffset(f.Page.Size, f.Page.Offset()), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list all tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

// ListAllRecords returns one page of time records across all users and the total match count.
func (s *Store) ListAllRecords(ctx context.Context, f models.AdminFilter) ([]models.TimeRecord, int64, error) {
	w := &where{}
	if v := strings.TrimSpace(f.Search); v != "" {
		w.anyLike(v, "r.work_description", "t.description", "u.username")
	}
	if v := strings.TrimSpace(f.Username); v != "" {
		w.add("u.username = ?", v)
	}
	if f.Active != nil {
		w.add("t.active = ?", *f.Active)
	}
	if f.Date != nil {
		w.add("r.record_date = ?", f.Date.String())
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+recordScope+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count all time records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+recordFrom+w.String()+
		` ORDER BY `+defaultRecordOrder+`, r.id DESC`+limitOffset(f.Page.Size, f.Page.Offset()), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list all time records: %w", err)
	}
	defer rows.Close()

	var records []models.TimeRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, r)
	}
	return records, total, rows.Err()
}
