package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timetracker/internal/models"
)

// taskColumns and taskFrom select a task with its owner and derived totals.
const taskColumns = `t.id, t.creation_date, t.description, t.active,
        u.id, u.username, u.first_name, u.last_name, u.email,
        COALESCE(agg.total_seconds, 0), COALESCE(agg.records_count, 0)`

const taskFrom = ` FROM tasks t
        JOIN users u ON u.id = t.responsible_user_id
        LEFT JOIN (
            SELECT task_id, SUM(worked_seconds) AS total_seconds, COUNT(*) AS records_count
            FROM time_records GROUP BY task_id
        ) agg ON agg.task_id = t.id`

var taskOrdering = map[string]string{
	"creation_date": "t.creation_date",
	"description":   "t.description",
}

// ListTasks returns the owner's tasks matching f. A page size of zero returns all rows.
func (s *Store) ListTasks(ctx context.Context, ownerID int64, f models.TaskFilter, page models.Page) ([]models.Task, error) {
	w := taskWhere(ownerID, f)
	query := `SELECT ` + taskColumns + taskFrom + w.String() +
		orderBy(f.Ordering, taskOrdering, "t.creation_date DESC", "t.id DESC") +
		limitOffset(page.Size, page.Offset())

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CountTasks counts the owner's tasks matching f.
func (s *Store) CountTasks(ctx context.Context, ownerID int64, f models.TaskFilter) (int64, error) {
	w := taskWhere(ownerID, f)
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t JOIN users u ON u.id = t.responsible_user_id`+w.String(), w.args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func taskWhere(ownerID int64, f models.TaskFilter) *where {
	w := &where{}
	w.add("t.responsible_user_id = ?", ownerID)
	if v := strings.TrimSpace(f.Description); v != "" {
		w.anyLike(v, "t.description")
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	// Timestamps are stored in UTC and compared as text, so bounds must be too.
	if f.CreatedFrom != nil {
		w.add("t.creation_date >= ?", f.CreatedFrom.In(loc).UTC())
	}
	if f.CreatedTo != nil {
		w.add("t.creation_date < ?", f.CreatedTo.AddDays(1).In(loc).UTC())
	}
	if f.Active != nil {
		w.add("t.active = ?", *f.Active)
	}
	if v := strings.TrimSpace(f.Search); v != "" {
		w.anyLike(v, "t.description", "u.username", "u.first_name", "u.last_name")
	}
	if v := strings.TrimSpace(f.Keyword); v != "" {
		w.anyLike(v, "t.description", "u.username")
	}
	return w
}

// CreateTask inserts a task for the owner; any owner set on t is ignored.
func (s *Store) CreateTask(ctx context.Context, ownerID int64, t models.Task) (models.Task, error) {
	if t.CreationDate.IsZero() {
		t.CreationDate = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(responsible_user_id, creation_date, description, active) VALUES(?, ?, ?, ?)`,
		ownerID, t.CreationDate.UTC(), t.Description, t.Active)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, ownerID, id)
}

// GetTask retrieves one of the owner's tasks by id.
func (s *Store) GetTask(ctx context.Context, ownerID, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = ? AND t.responsible_user_id = ?`, id, ownerID)
	return scanTask(row)
}

// UpdateTask writes the description and active flag of one of the owner's tasks.
func (s *Store) UpdateTask(ctx context.Context, ownerID int64, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET description = ?, active = ? WHERE id = ? AND responsible_user_id = ?`,
		t.Description, t.Active, t.ID, ownerID)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", classify(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", t.ID, models.ErrNotFound)
	}
	return s.GetTask(ctx, ownerID, t.ID)
}

// ToggleTask flips the active flag of one of the owner's tasks.
func (s *Store) ToggleTask(ctx context.Context, ownerID, id int64) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET active = NOT active WHERE id = ? AND responsible_user_id = ?`, id, ownerID)
	if err != nil {
		return models.Task{}, fmt.Errorf("toggle task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}
	return s.GetTask(ctx, ownerID, id)
}

// DeleteTask removes one of the owner's tasks along with its time records in
// a single transaction.
func (s *Store) DeleteTask(ctx context.Context, ownerID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed, err := tx.ExecContext(ctx, `DELETE FROM time_records WHERE task_id IN (SELECT id FROM tasks WHERE id = ? AND responsible_user_id = ?)`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task records: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND responsible_user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %d: %w", id, models.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete task: %w", err)
	}

	if n, err := removed.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("task deleted with records", slog.Int64("task_id", id), slog.Int64("records", n))
	}
	return nil
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, timestamp{&t.CreationDate}, &t.Description, &t.Active,
		&t.ResponsibleUser.ID, &t.ResponsibleUser.Username, &t.ResponsibleUser.FirstName,
		&t.ResponsibleUser.LastName, &t.ResponsibleUser.Email,
		&t.TotalWorkedTime, &t.RecordsCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task: %w", models.ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("scan task: %w", err)
	}
	return t, nil
}
