package tracker

import (
	"context"
	"fmt"
	"strings"

	"timetracker/internal/metrics"
	"timetracker/internal/models"
)

// TaskInput carries the writable task fields. Nil means "not supplied".
type TaskInput struct {
	Description *string
	Active      *bool
}

// TaskDetail is a task together with all of its time records.
type TaskDetail struct {
	Task    models.Task
	Records []models.TimeRecord
}

func validateTask(in TaskInput, partial bool) error {
	verr := &ValidationError{}
	if in.Description == nil {
		if !partial {
			verr.Add("description", MsgRequired)
		}
	} else if strings.TrimSpace(*in.Description) == "" {
		verr.Add("description", MsgRequired)
	}
	return verr.err()
}

// CreateTask stores a new task owned by userID. Active defaults to true.
func (s *Service) CreateTask(ctx context.Context, userID int64, in TaskInput) (models.Task, error) {
	if err := validateTask(in, false); err != nil {
		return models.Task{}, err
	}
	t := models.Task{Description: strings.TrimSpace(*in.Description), Active: true, CreationDate: s.now()}
	if in.Active != nil {
		t.Active = *in.Active
	}

	created, err := s.store.CreateTask(ctx, userID, t)
	if err != nil {
		return models.Task{}, err
	}
	metrics.TasksCreated.Inc()
	s.logger.Debug("task created", "task_id", created.ID, "user_id", userID)
	return created, nil
}

// UpdateTask replaces (partial=false) or patches (partial=true) a task.
// An omitted active flag keeps its current value in both modes.
func (s *Service) UpdateTask(ctx context.Context, userID, id int64, in TaskInput, partial bool) (models.Task, error) {
	current, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := validateTask(in, partial); err != nil {
		return models.Task{}, err
	}
	if in.Description != nil {
		current.Description = strings.TrimSpace(*in.Description)
	}
	if in.Active != nil {
		current.Active = *in.Active
	}
	return s.store.UpdateTask(ctx, userID, current)
}

// ToggleTask flips the active flag.
func (s *Service) ToggleTask(ctx context.Context, userID, id int64) (models.Task, error) {
	return s.store.ToggleTask(ctx, userID, id)
}

// DeleteTask removes the task and every time record logged against it.
func (s *Service) DeleteTask(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteTask(ctx, userID, id); err != nil {
		return err
	}
	metrics.TasksDeleted.Inc()
	s.logger.Debug("task deleted", "task_id", id, "user_id", userID)
	return nil
}

// GetTask returns one task without its records.
func (s *Service) GetTask(ctx context.Context, userID, id int64) (models.Task, error) {
	return s.store.GetTask(ctx, userID, id)
}

// TaskDetail returns the task with its records, newest record date first.
func (s *Service) TaskDetail(ctx context.Context, userID, id int64) (TaskDetail, error) {
	task, err := s.store.GetTask(ctx, userID, id)
	if err != nil {
		return TaskDetail{}, err
	}
	records, err := s.store.ListRecords(ctx, userID, models.RecordFilter{TaskID: &task.ID}, models.Page{})
	if err != nil {
		return TaskDetail{}, fmt.Errorf("task %d records: %w", id, err)
	}
	return TaskDetail{Task: task, Records: records}, nil
}

// ListTasks returns one page of the user's tasks and the total match count.
// Creation-date bounds are days in the service's zone.
func (s *Service) ListTasks(ctx context.Context, userID int64, f models.TaskFilter, page models.Page) (List[models.Task], error) {
	if f.Location == nil {
		f.Location = s.loc
	}
	tasks, err := s.store.ListTasks(ctx, userID, f, page)
	if err != nil {
		return List[models.Task]{}, err
	}
	count, err := s.store.CountTasks(ctx, userID, f)
	if err != nil {
		return List[models.Task]{}, err
	}
	return List[models.Task]{Items: tasks, Count: count}, nil
}

// TaskChoices lists the tasks a record form may offer: every task the user
// owns, newest first.
func (s *Service) TaskChoices(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.store.ListTasks(ctx, userID, models.TaskFilter{Ordering: []string{"-creation_date"}}, models.Page{})
}
