package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"timetracker/internal/models"
)

const recordColumns = `r.id, r.record_date, r.worked_seconds, r.work_description, r.creation_date, ` + taskColumns

const recordFrom = ` FROM time_records r
        JOIN tasks t ON t.id = r.task_id
        JOIN users u ON u.id = t.responsible_user_id
        LEFT JOIN (
            SELECT task_id, SUM(worked_seconds) AS total_seconds, COUNT(*) AS records_count
            FROM time_records GROUP BY task_id
        ) agg ON agg.task_id = t.id`

// recordScope joins just enough to filter records without the task aggregates.
const recordScope = ` FROM time_records r
        JOIN tasks t ON t.id = r.task_id
        JOIN users u ON u.id = t.responsible_user_id`

var recordOrdering = map[string]string{
	"record_date":   "r.record_date",
	"worked_time":   "r.worked_seconds",
	"creation_date": "r.creation_date",
}

const defaultRecordOrder = "r.record_date DESC, r.creation_date DESC"

// ListRecords returns the owner's time records matching f. A page size of
// zero returns all rows.
func (s *Store) ListRecords(ctx context.Context, ownerID int64, f models.RecordFilter, page models.Page) ([]models.TimeRecord, error) {
	w := recordWhere(ownerID, f)
	query := `SELECT ` + recordColumns + recordFrom + w.String() +
		orderBy(f.Ordering, recordOrdering, defaultRecordOrder, "r.id DESC") +
		limitOffset(page.Size, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}
	defer rows.Close()

	var records []models.TimeRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountRecords counts the owner's time records matching f.
func (s *Store) CountRecords(ctx context.Context, ownerID int64, f models.RecordFilter) (int64, error) {
	w := recordWhere(ownerID, f)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+recordScope+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count time records: %w", err)
	}
	return n, nil
}

// SumWorkedTime totals worked time over the owner's records matching f.
func (s *Store) SumWorkedTime(ctx context.Context, ownerID int64, f models.RecordFilter) (models.Duration, error) {
	w := recordWhere(ownerID, f)
	var total models.Duration
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(r.worked_seconds), 0)`+recordScope+w.String(), w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum worked time: %w", err)
	}
	return total, nil
}

func recordWhere(ownerID int64, f models.RecordFilter) *where {
	w := &where{}
	w.add("t.responsible_user_id = ?", ownerID)
	if f.TaskID != nil {
		w.add("r.task_id = ?", *f.TaskID)
	}
	if v := strings.TrimSpace(f.WorkDescription); v != "" {
		w.anyLike(v, "r.work_description")
	}
	if v := strings.TrimSpace(f.TaskDescription); v != "" {
		w.anyLike(v, "t.description")
	}
	for _, rng := range f.Dates {
		if rng.From != nil {
			w.add("r.record_date >= ?", rng.From.String())
		}
		if rng.To != nil {
			w.add("r.record_date <= ?", rng.To.String())
		}
	}
	if f.MinTime != nil {
		w.add("r.worked_seconds >= ?", f.MinTime.Seconds())
	}
	if f.MaxTime != nil {
		w.add("r.worked_seconds <= ?", f.MaxTime.Seconds())
	}
	if v := strings.TrimSpace(f.User); v != "" {
		w.anyLike(v, "u.username")
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		w.anyLike(v, "r.work_description", "t.description", "u.username", "u.first_name", "u.last_name", "r.record_date")
	}
	if v := strings.TrimSpace(f.Keyword); v != "" {
		w.anyLike(v, "r.work_description", "t.description")
	}
	return w
}

// CreateRecord inserts a time record against one of the owner's tasks. A task
// that does not exist or belongs to someone else yields ErrNotFound.
func (s *Store) CreateRecord(ctx context.Context, ownerID int64, r models.TimeRecord) (models.TimeRecord, error) {
	if r.CreationDate.IsZero() {
		r.CreationDate = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO time_records(task_id, record_date, worked_seconds, work_description, creation_date)
        SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM tasks WHERE id = ? AND responsible_user_id = ?)`,
		r.Task.ID, r.RecordDate, r.WorkedTime, r.WorkDescription, r.CreationDate.UTC(), r.Task.ID, ownerID)
	if err != nil {
		return models.TimeRecord{}, fmt.Errorf("insert time record: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.TimeRecord{}, err
	}
	if affected == 0 {
		return models.TimeRecord{}, fmt.Errorf("task %d: %w", r.Task.ID, models.ErrNotFound)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TimeRecord{}, fmt.Errorf("time record id: %w", err)
	}
	return s.GetRecord(ctx, ownerID, id)
}

// GetRecord retrieves one of the owner's time records by id.
func (s *Store) GetRecord(ctx context.Context, ownerID, id int64) (models.TimeRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+recordFrom+` WHERE r.id = ? AND t.responsible_user_id = ?`, id, ownerID)
	return scanRecord(row)
}

// UpdateRecord rewrites one of the owner's time records. The record may move
// to another task only when that task is also the owner's.
func (s *Store) UpdateRecord(ctx context.Context, ownerID int64, r models.TimeRecord) (models.TimeRecord, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE time_records
        SET task_id = ?, record_date = ?, worked_seconds = ?, work_description = ?
        WHERE id = ?
          AND task_id IN (SELECT id FROM tasks WHERE responsible_user_id = ?)
          AND EXISTS (SELECT 1 FROM tasks WHERE id = ? AND responsible_user_id = ?)`,
		r.Task.ID, r.RecordDate, r.WorkedTime, r.WorkDescription, r.ID, ownerID, r.Task.ID, ownerID)
	if err != nil {
		return models.TimeRecord{}, fmt.Errorf("update time record: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.TimeRecord{}, err
	}
	if affected == 0 {
		return models.TimeRecord{}, fmt.Errorf("time record %d: %w", r.ID, models.ErrNotFound)
	}
	return s.GetRecord(ctx, ownerID, r.ID)
}

// DeleteRecord removes one of the owner's time records.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_records WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE responsible_user_id = ?)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete time record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("time record %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func scanRecord(row rowScanner) (models.TimeRecord, error) {
	var r models.TimeRecord
	t := &r.Task
	err := row.Scan(
		&r.ID, &r.RecordDate, &r.WorkedTime, &r.WorkDescription, timestamp{&r.CreationDate},
		&t.ID, timestamp{&t.CreationDate}, &t.Description, &t.Active,
		&t.ResponsibleUser.ID, &t.ResponsibleUser.Username, &t.ResponsibleUser.FirstName,
		&t.ResponsibleUser.LastName, &t.ResponsibleUser.Email,
		&t.TotalWorkedTime, &t.RecordsCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TimeRecord{}, fmt.Errorf("time record: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.TimeRecord{}, fmt.Errorf("scan time record: %w", err)
	}
	return r, nil
}
