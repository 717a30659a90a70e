package tracker_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"timetracker/internal/models"
	"timetracker/internal/storage/sqlite"
	"timetracker/internal/tracker"
)

// Wednesday.
var fixedNow = time.Date(2024, time.May, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *tracker.Service
	store *sqlite.Store
	alice models.User
	bob   models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tracker.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	alice, err := store.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := store.CreateUser(ctx, models.User{Username: "bob", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	svc := tracker.New(store, nil, tracker.WithClock(func() time.Time { return fixedNow }))
	return fixture{svc: svc, store: store, alice: alice, bob: bob}
}

func ptr[T any](v T) *T { return &v }

func day(t *testing.T, s string) *models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return &d
}

func (f fixture) task(t *testing.T, owner models.User, description string) models.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), owner.ID, tracker.TaskInput{Description: ptr(description)})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (f fixture) record(t *testing.T, owner models.User, task models.Task, date string, worked models.Duration) models.TimeRecord {
	t.Helper()
	rec, err := f.svc.CreateRecord(context.Background(), owner.ID, tracker.RecordInput{
		TaskID:          ptr(task.ID),
		RecordDate:      day(t, date),
		WorkedTime:      ptr(worked),
		WorkDescription: ptr("work on " + task.Description),
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	return rec
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *tracker.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	return verr.Fields
}

func TestCreateTaskDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task := f.task(t, f.alice, "  Write report  ")
	if !task.Active || task.Description != "Write report" || task.ResponsibleUser.ID != f.alice.ID {
		t.Fatalf("created task = %+v", task)
	}

	inactive, err := f.svc.CreateTask(ctx, f.alice.ID, tracker.TaskInput{Description: ptr("Later"), Active: ptr(false)})
	if err != nil || inactive.Active {
		t.Fatalf("CreateTask inactive = %+v, %v", inactive, err)
	}

	for _, in := range []tracker.TaskInput{{}, {Description: ptr("   ")}} {
		_, err := f.svc.CreateTask(ctx, f.alice.ID, in)
		if got := fieldErrors(t, err)["description"]; got != tracker.MsgRequired {
			t.Fatalf("description error = %q", got)
		}
	}
}

func TestUpdateTaskFullAndPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.alice, "Draft")

	if _, err := f.svc.UpdateTask(ctx, f.alice.ID, task.ID, tracker.TaskInput{Active: ptr(false)}, false); err == nil {
		t.Fatal("full update without description succeeded")
	}

	patched, err := f.svc.UpdateTask(ctx, f.alice.ID, task.ID, tracker.TaskInput{Active: ptr(false)}, true)
	if err != nil {
		t.Fatalf("partial UpdateTask: %v", err)
	}
	if patched.Active || patched.Description != "Draft" {
		t.Fatalf("patched = %+v", patched)
	}

	replaced, err := f.svc.UpdateTask(ctx, f.alice.ID, task.ID, tracker.TaskInput{Description: ptr("Final")}, false)
	if err != nil {
		t.Fatalf("full UpdateTask: %v", err)
	}
	if replaced.Description != "Final" || replaced.Active {
		t.Fatalf("replaced = %+v", replaced)
	}

	_, err = f.svc.UpdateTask(ctx, f.bob.ID, task.ID, tracker.TaskInput{Description: ptr("Hijack")}, false)
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-user UpdateTask error = %v, want ErrNotFound", err)
	}
}

func TestToggleFlipsEachCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.alice, "Toggle me")

	first, err := f.svc.ToggleTask(ctx, f.alice.ID, task.ID)
	if err != nil || first.Active {
		t.Fatalf("first toggle = %+v, %v", first, err)
	}
	second, err := f.svc.ToggleTask(ctx, f.alice.ID, task.ID)
	if err != nil || !second.Active {
		t.Fatalf("second toggle = %+v, %v", second, err)
	}
}

func TestCreateRecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.task(t, f.alice, "Mine")
	theirs := f.task(t, f.bob, "Theirs")

	tests := []struct {
		name  string
		in    tracker.RecordInput
		field string
		msg   string
	}{
		{
			name:  "zero worked time",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), WorkedTime: ptr(models.Duration(0)), WorkDescription: ptr("x")},
			field: "worked_time",
			msg:   tracker.MsgWorkedPositive,
		},
		{
			name:  "negative worked time",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), WorkedTime: ptr(-models.Hour), WorkDescription: ptr("x")},
			field: "worked_time",
			msg:   tracker.MsgWorkedPositive,
		},
		{
			name:  "under a minute",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), WorkedTime: ptr(30 * models.Second), WorkDescription: ptr("x")},
			field: "worked_time",
			msg:   tracker.MsgWorkedFloor,
		},
		{
			name:  "tomorrow",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), RecordDate: day(t, "2024-05-16"), WorkedTime: ptr(models.Hour), WorkDescription: ptr("x")},
			field: "record_date",
			msg:   tracker.MsgFutureDate,
		},
		{
			name:  "other user's task",
			in:    tracker.RecordInput{TaskID: ptr(theirs.ID), WorkedTime: ptr(models.Hour), WorkDescription: ptr("x")},
			field: "task_id",
			msg:   tracker.MsgTaskNotOwned,
		},
		{
			name:  "missing task",
			in:    tracker.RecordInput{TaskID: ptr(int64(9999)), WorkedTime: ptr(models.Hour), WorkDescription: ptr("x")},
			field: "task_id",
			msg:   tracker.MsgTaskNotOwned,
		},
		{
			name:  "blank description",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), WorkedTime: ptr(models.Hour), WorkDescription: ptr(" ")},
			field: "work_description",
			msg:   tracker.MsgRequired,
		},
		{
			name:  "malformed duration",
			in:    tracker.RecordInput{TaskID: ptr(mine.ID), WorkDescription: ptr("x"), Malformed: map[string]string{"worked_time": "Enter a valid duration."}},
			field: "worked_time",
			msg:   "Enter a valid duration.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateRecord(ctx, f.alice.ID, tt.in)
			if got := fieldErrors(t, err)[tt.field]; got != tt.msg {
				t.Fatalf("%s error = %q, want %q", tt.field, got, tt.msg)
			}
		})
	}

	_, err := f.svc.CreateRecord(ctx, f.alice.ID, tracker.RecordInput{})
	fields := fieldErrors(t, err)
	for _, name := range []string{"task_id", "worked_time", "work_description"} {
		if fields[name] != tracker.MsgRequired {
			t.Fatalf("empty input %s error = %q", name, fields[name])
		}
	}
	if _, ok := fields["record_date"]; ok {
		t.Fatal("record_date reported as required")
	}
}

func TestCreateRecordDefaultsToToday(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, f.alice, "Today")

	rec, err := f.svc.CreateRecord(context.Background(), f.alice.ID, tracker.RecordInput{
		TaskID:          ptr(task.ID),
		WorkedTime:      ptr(90 * models.Minute),
		WorkDescription: ptr("standup and review"),
	})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.RecordDate.String() != "2024-05-15" {
		t.Fatalf("record date = %s, want 2024-05-15", rec.RecordDate)
	}
	if rec.WorkedHours() != "01:30" {
		t.Fatalf("worked hours = %s", rec.WorkedHours())
	}

	// Today itself is not in the future.
	f.record(t, f.alice, task, "2024-05-15", models.Hour)
}

func TestTodayUsesConfiguredZone(t *testing.T) {
	f := newFixture(t)
	late := time.Date(2024, time.May, 15, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	svc := tracker.New(f.store, nil,
		tracker.WithClock(func() time.Time { return late }),
		tracker.WithLocation(tokyo))
	if got := svc.Today().String(); got != "2024-05-16" {
		t.Fatalf("Today in JST = %s, want 2024-05-16", got)
	}
}

func TestUpdateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.task(t, f.alice, "First")
	second := f.task(t, f.alice, "Second")
	theirs := f.task(t, f.bob, "Theirs")
	rec := f.record(t, f.alice, first, "2024-05-14", models.Hour)

	moved, err := f.svc.UpdateRecord(ctx, f.alice.ID, rec.ID, tracker.RecordInput{TaskID: ptr(second.ID)}, true)
	if err != nil {
		t.Fatalf("partial UpdateRecord: %v", err)
	}
	if moved.Task.ID != second.ID || moved.WorkedTime != models.Hour || moved.RecordDate != rec.RecordDate {
		t.Fatalf("moved = %+v", moved)
	}

	_, err = f.svc.UpdateRecord(ctx, f.alice.ID, rec.ID, tracker.RecordInput{TaskID: ptr(theirs.ID)}, true)
	if fieldErrors(t, err)["task_id"] != tracker.MsgTaskNotOwned {
		t.Fatalf("move to foreign task error = %v", err)
	}

	_, err = f.svc.UpdateRecord(ctx, f.alice.ID, rec.ID, tracker.RecordInput{TaskID: ptr(first.ID)}, false)
	if fieldErrors(t, err)["worked_time"] != tracker.MsgRequired {
		t.Fatalf("full update without worked time error = %v", err)
	}

	_, err = f.svc.UpdateRecord(ctx, f.bob.ID, rec.ID, tracker.RecordInput{WorkedTime: ptr(models.Hour)}, true)
	if !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-user UpdateRecord error = %v, want ErrNotFound", err)
	}
}

func TestListRecordsResolvesPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.alice, "Weekly")
	f.record(t, f.alice, task, "2024-05-12", models.Hour) // previous Sunday
	f.record(t, f.alice, task, "2024-05-13", models.Hour) // Monday
	f.record(t, f.alice, task, "2024-05-15", models.Hour) // today
	f.record(t, f.alice, task, "2024-04-30", models.Hour) // last month

	tests := []struct {
		period string
		want   int64
	}{
		{"today", 1},
		{"yesterday", 0},
		{"this_week", 2},
		{"last_week", 1},
		{"this_month", 3},
		{"last_month", 1},
		{"fortnight", 4},
		{"", 4},
	}
	for _, tt := range tests {
		got, err := f.svc.ListRecords(ctx, f.alice.ID, models.RecordFilter{Period: tt.period}, models.Page{Number: 1, Size: 10})
		if err != nil {
			t.Fatalf("ListRecords(%q): %v", tt.period, err)
		}
		if got.Count != tt.want || int64(len(got.Items)) != tt.want {
			t.Fatalf("ListRecords(%q) = %d/%d, want %d", tt.period, got.Count, len(got.Items), tt.want)
		}
	}

	// A period combines with an explicit range.
	got, err := f.svc.ListRecords(ctx, f.alice.ID, models.RecordFilter{
		Period: "this_month",
		Dates:  []models.DateRange{{To: day(t, "2024-05-13")}},
	}, models.Page{})
	if err != nil || got.Count != 2 {
		t.Fatalf("period with range = %d, %v", got.Count, err)
	}
}

func TestSummaryForThreeHoursToday(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, f.alice, "Focus")
	f.record(t, f.alice, task, "2024-05-15", 3*models.Hour)

	sum, err := f.svc.Summary(context.Background(), f.alice.ID, models.RecordFilter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total.Hours() != 3.0 || sum.Week.Hours() != 3.0 || sum.Month.Hours() != 3.0 || sum.Records != 1 {
		t.Fatalf("summary = %+v", sum)
	}

	other, err := f.svc.Summary(context.Background(), f.bob.ID, models.RecordFilter{})
	if err != nil || other.Total != 0 || other.Records != 0 {
		t.Fatalf("bob's summary = %+v, %v", other, err)
	}
}

func TestSummarySplitsWeekAndMonth(t *testing.T) {
	f := newFixture(t)
	task := f.task(t, f.alice, "Split")
	f.record(t, f.alice, task, "2024-05-15", models.Hour)
	f.record(t, f.alice, task, "2024-05-02", 2*models.Hour)
	f.record(t, f.alice, task, "2024-04-02", 4*models.Hour)

	sum, err := f.svc.Summary(context.Background(), f.alice.ID, models.RecordFilter{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 7*models.Hour || sum.Week != models.Hour || sum.Month != 3*models.Hour || sum.Records != 3 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var tasks []models.Task
	for _, d := range []string{"a", "b", "c", "d", "e", "f"} {
		tasks = append(tasks, f.task(t, f.alice, "task "+d))
	}
	if _, err := f.svc.ToggleTask(ctx, f.alice.ID, tasks[0].ID); err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	for i := 0; i < 12; i++ {
		f.record(t, f.alice, tasks[i%len(tasks)], "2024-05-14", 30*models.Minute)
	}
	f.task(t, f.bob, "not alice's")

	d, err := f.svc.Dashboard(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalTasks != 6 || d.ActiveTasks != 5 {
		t.Fatalf("task counts = %d/%d", d.TotalTasks, d.ActiveTasks)
	}
	if d.Total != 6*models.Hour || d.Week != 6*models.Hour || d.Month != 6*models.Hour {
		t.Fatalf("totals = %v %v %v", d.Total, d.Week, d.Month)
	}
	if len(d.RecentTasks) != 5 || len(d.RecentRecords) != 10 {
		t.Fatalf("recent = %d tasks, %d records", len(d.RecentTasks), len(d.RecentRecords))
	}
}

func TestTaskDetailAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, f.alice, "Detailed")
	f.record(t, f.alice, task, "2024-05-10", models.Hour)
	f.record(t, f.alice, task, "2024-05-14", 30*models.Minute)

	detail, err := f.svc.TaskDetail(ctx, f.alice.ID, task.ID)
	if err != nil {
		t.Fatalf("TaskDetail: %v", err)
	}
	if len(detail.Records) != 2 || detail.Records[0].RecordDate.String() != "2024-05-14" {
		t.Fatalf("detail records = %+v", detail.Records)
	}
	if detail.Task.TotalHours() != "1.50 hours" {
		t.Fatalf("total hours = %s", detail.Task.TotalHours())
	}

	if err := f.svc.DeleteTask(ctx, f.bob.ID, task.ID); !errors.Is(err, tracker.ErrNotFound) {
		t.Fatalf("cross-user DeleteTask error = %v", err)
	}
	if err := f.svc.DeleteTask(ctx, f.alice.ID, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	left, err := f.svc.ListRecords(ctx, f.alice.ID, models.RecordFilter{}, models.Page{})
	if err != nil || left.Count != 0 {
		t.Fatalf("records after delete = %d, %v", left.Count, err)
	}
}

func TestTaskChoicesAreOwnedNewestFirst(t *testing.T) {
	f := newFixture(t)
	older := f.task(t, f.alice, "older")
	newer := f.task(t, f.alice, "newer")
	f.task(t, f.bob, "foreign")

	choices, err := f.svc.TaskChoices(context.Background(), f.alice.ID)
	if err != nil {
		t.Fatalf("TaskChoices: %v", err)
	}
	if len(choices) != 2 || choices[0].ID != newer.ID || choices[1].ID != older.ID {
		t.Fatalf("choices = %+v", choices)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &tracker.ValidationError{}
	verr.Add("worked_time", "b")
	verr.Add("task_id", "a")
	verr.Add("task_id", "ignored")
	if got := verr.Error(); got != "validation failed: task_id: a; worked_time: b" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestListTasksCreationBoundsUseConfiguredZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 2024-05-16 05:00 in Tokyo.
	evening := time.Date(2024, time.May, 15, 20, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)
	svc := tracker.New(f.store, nil,
		tracker.WithClock(func() time.Time { return evening }),
		tracker.WithLocation(tokyo))

	if _, err := svc.CreateTask(ctx, f.alice.ID, tracker.TaskInput{Description: ptr("Late task")}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tests := []struct {
		name   string
		filter models.TaskFilter
		want   int64
	}{
		{"from local day", models.TaskFilter{CreatedFrom: day(t, "2024-05-16")}, 1},
		{"to local day", models.TaskFilter{CreatedTo: day(t, "2024-05-16")}, 1},
		{"to utc day", models.TaskFilter{CreatedTo: day(t, "2024-05-15")}, 0},
		{"explicit utc", models.TaskFilter{CreatedTo: day(t, "2024-05-15"), Location: time.UTC}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.ListTasks(ctx, f.alice.ID, tt.filter, models.Page{Number: 1, Size: 10})
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if list.Count != tt.want {
				t.Fatalf("count = %d, want %d", list.Count, tt.want)
			}
		})
	}
}

// racingStore runs beforeUpdate ahead of every record update, standing in for
// a concurrent request that lands between validation and the write.
type racingStore struct {
	*sqlite.Store
	beforeUpdate func(ctx context.Context)
}

func (s racingStore) UpdateRecord(ctx context.Context, ownerID int64, r models.TimeRecord) (models.TimeRecord, error) {
	s.beforeUpdate(ctx)
	return s.Store.UpdateRecord(ctx, ownerID, r)
}

func TestUpdateRecordConcurrentDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.task(t, f.alice, "First")
	second := f.task(t, f.alice, "Second")

	t.Run("record deleted", func(t *testing.T) {
		rec := f.record(t, f.alice, first, "2024-05-14", models.Hour)
		svc := tracker.New(racingStore{Store: f.store, beforeUpdate: func(ctx context.Context) {
			if err := f.store.DeleteRecord(ctx, f.alice.ID, rec.ID); err != nil {
				t.Fatalf("DeleteRecord: %v", err)
			}
		}}, nil, tracker.WithClock(func() time.Time { return fixedNow }))

		_, err := svc.UpdateRecord(ctx, f.alice.ID, rec.ID, tracker.RecordInput{TaskID: ptr(second.ID)}, true)
		var verr *tracker.ValidationError
		if errors.As(err, &verr) {
			t.Fatalf("error = %v, want not found rather than a field error", verr)
		}
		if !errors.Is(err, tracker.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("target task deleted", func(t *testing.T) {
		rec := f.record(t, f.alice, first, "2024-05-13", models.Hour)
		doomed := f.task(t, f.alice, "Doomed")
		svc := tracker.New(racingStore{Store: f.store, beforeUpdate: func(ctx context.Context) {
			if err := f.store.DeleteTask(ctx, f.alice.ID, doomed.ID); err != nil {
				t.Fatalf("DeleteTask: %v", err)
			}
		}}, nil, tracker.WithClock(func() time.Time { return fixedNow }))

		_, err := svc.UpdateRecord(ctx, f.alice.ID, rec.ID, tracker.RecordInput{TaskID: ptr(doomed.ID)}, true)
		if fieldErrors(t, err)["task_id"] != tracker.MsgTaskNotOwned {
			t.Fatalf("error = %v, want task_id field error", err)
		}
		if _, err := f.store.GetRecord(ctx, f.alice.ID, rec.ID); err != nil {
			t.Fatalf("record should survive: %v", err)
		}
	})
}
