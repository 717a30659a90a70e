package tracker

import (
	"context"
	"errors"
	"strings"

	"timetracker/internal/metrics"
	"timetracker/internal/models"
)

// RecordInput carries the writable time record fields. Nil means "not
// supplied". Malformed holds messages for values the caller could not parse;
// those fields skip the remaining checks and are reported as they are.
type RecordInput struct {
	TaskID          *int64
	RecordDate      *models.Date
	WorkedTime      *models.Duration
	WorkDescription *string
	Malformed       map[string]string
}

// validateRecord applies the field rules and returns the task the record
// points at when task_id was supplied and owned by userID.
func (s *Service) validateRecord(ctx context.Context, userID int64, in RecordInput, partial bool) (*models.Task, error) {
	verr := &ValidationError{}
	for field, msg := range in.Malformed {
		verr.Add(field, msg)
	}

	var task *models.Task
	switch {
	case verr.Has("task_id"):
	case in.TaskID == nil:
		if !partial {
			verr.Add("task_id", MsgRequired)
		}
	default:
		t, err := s.store.GetTask(ctx, userID, *in.TaskID)
		switch {
		case errors.Is(err, ErrNotFound):
			verr.Add("task_id", MsgTaskNotOwned)
		case err != nil:
			return nil, err
		default:
			task = &t
		}
	}

	switch {
	case verr.Has("worked_time"):
	case in.WorkedTime == nil:
		if !partial {
			verr.Add("worked_time", MsgRequired)
		}
	case *in.WorkedTime <= 0:
		verr.Add("worked_time", MsgWorkedPositive)
	case *in.WorkedTime < models.Minute:
		verr.Add("worked_time", MsgWorkedFloor)
	}

	if !verr.Has("record_date") && in.RecordDate != nil && in.RecordDate.After(s.Today()) {
		verr.Add("record_date", MsgFutureDate)
	}

	switch {
	case verr.Has("work_description"):
	case in.WorkDescription == nil:
		if !partial {
			verr.Add("work_description", MsgRequired)
		}
	case strings.TrimSpace(*in.WorkDescription) == "":
		verr.Add("work_description", MsgRequired)
	}

	if err := verr.err(); err != nil {
		return nil, err
	}
	return task, nil
}

// CreateRecord logs time against one of the user's tasks. The record date
// defaults to today.
func (s *Service) CreateRecord(ctx context.Context, userID int64, in RecordInput) (models.TimeRecord, error) {
	task, err := s.validateRecord(ctx, userID, in, false)
	if err != nil {
		return models.TimeRecord{}, err
	}

	r := models.TimeRecord{
		Task:            *task,
		RecordDate:      s.Today(),
		WorkedTime:      *in.WorkedTime,
		WorkDescription: strings.TrimSpace(*in.WorkDescription),
		CreationDate:    s.now(),
	}
	if in.RecordDate != nil {
		r.RecordDate = *in.RecordDate
	}

	created, err := s.store.CreateRecord(ctx, userID, r)
	if err != nil {
		return models.TimeRecord{}, ownershipLost(err)
	}
	metrics.RecordsCreated.Inc()
	metrics.WorkedSeconds.Add(float64(created.WorkedTime.Seconds()))
	s.logger.Debug("time record created", "record_id", created.ID, "task_id", created.Task.ID, "user_id", userID)
	return created, nil
}

// UpdateRecord replaces (partial=false) or patches (partial=true) a record.
// An omitted record date keeps its current value in both modes.
func (s *Service) UpdateRecord(ctx context.Context, userID, id int64, in RecordInput, partial bool) (models.TimeRecord, error) {
	current, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return models.TimeRecord{}, err
	}
	task, err := s.validateRecord(ctx, userID, in, partial)
	if err != nil {
		return models.TimeRecord{}, err
	}

	if task != nil {
		current.Task = *task
	}
	if in.RecordDate != nil {
		current.RecordDate = *in.RecordDate
	}
	if in.WorkedTime != nil {
		current.WorkedTime = *in.WorkedTime
	}
	if in.WorkDescription != nil {
		current.WorkDescription = strings.TrimSpace(*in.WorkDescription)
	}

	updated, err := s.store.UpdateRecord(ctx, userID, current)
	if errors.Is(err, ErrNotFound) && task != nil {
		// Either the record or its new task vanished after validation.
		if _, terr := s.store.GetTask(ctx, userID, task.ID); errors.Is(terr, ErrNotFound) {
			return models.TimeRecord{}, ownershipLost(err)
		}
	}
	if err != nil {
		return models.TimeRecord{}, err
	}
	return updated, nil
}

// ownershipLost turns a not-found from a write into the task_id field error,
// for when the task vanished between validation and the write.
func ownershipLost(err error) error {
	if errors.Is(err, ErrNotFound) {
		return &ValidationError{Fields: map[string]string{"task_id": MsgTaskNotOwned}}
	}
	return err
}

// GetRecord returns one of the user's time records.
func (s *Service) GetRecord(ctx context.Context, userID, id int64) (models.TimeRecord, error) {
	return s.store.GetRecord(ctx, userID, id)
}

// DeleteRecord removes one of the user's time records.
func (s *Service) DeleteRecord(ctx context.Context, userID, id int64) error {
	return s.store.DeleteRecord(ctx, userID, id)
}

// ListRecords returns one page of the user's records and the total match
// count. A named period in f is resolved against today.
func (s *Service) ListRecords(ctx context.Context, userID int64, f models.RecordFilter, page models.Page) (List[models.TimeRecord], error) {
	f = s.resolve(f)
	records, err := s.store.ListRecords(ctx, userID, f, page)
	if err != nil {
		return List[models.TimeRecord]{}, err
	}
	count, err := s.store.CountRecords(ctx, userID, f)
	if err != nil {
		return List[models.TimeRecord]{}, err
	}
	return List[models.TimeRecord]{Items: records, Count: count}, nil
}
