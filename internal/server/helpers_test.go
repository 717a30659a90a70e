package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"timetracker/internal/auth"
	"timetracker/internal/models"
	"timetracker/internal/server"
	"timetracker/internal/storage/sqlite"
	"timetracker/internal/tracker"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// Wednesday.
var fixedNow = time.Date(2024, time.May, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	t       *testing.T
	handler http.Handler
	store   *sqlite.Store
	tracker *tracker.Service
	tokens  *auth.Tokens
}

func newTestEnv(t *testing.T, opts server.Options) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server.db"), logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	svc := tracker.New(store, logger, tracker.WithClock(func() time.Time { return fixedNow }))

	srv, err := server.New(store, svc, tokens, logger, opts)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return &testEnv{t: t, handler: srv.Engine(), store: store, tracker: svc, tokens: tokens}
}

// user creates an account with password "pw-<username>" and returns it with a bearer token.
func (e *testEnv) user(username string) (models.User, string) {
	e.t.Helper()
	hash, err := auth.HashPassword("pw-" + username)
	if err != nil {
		e.t.Fatalf("HashPassword: %v", err)
	}
	u, err := e.store.CreateUser(context.Background(), models.User{Username: username, FirstName: strings.ToUpper(username[:1]) + username[1:], PasswordHash: hash})
	if err != nil {
		e.t.Fatalf("CreateUser: %v", err)
	}
	token, _, err := e.tokens.Issue(u.ID)
	if err != nil {
		e.t.Fatalf("Issue: %v", err)
	}
	return u, token
}

func (e *testEnv) task(owner models.User, description string) models.Task {
	e.t.Helper()
	task, err := e.tracker.CreateTask(context.Background(), owner.ID, tracker.TaskInput{Description: &description})
	if err != nil {
		e.t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (e *testEnv) record(owner models.User, task models.Task, day string, worked models.Duration) models.TimeRecord {
	e.t.Helper()
	d, err := models.ParseDate(day)
	if err != nil {
		e.t.Fatalf("ParseDate: %v", err)
	}
	desc := "worked on " + task.Description
	rec, err := e.tracker.CreateRecord(context.Background(), owner.ID, tracker.RecordInput{
		TaskID:          &task.ID,
		RecordDate:      &d,
		WorkedTime:      &worked,
		WorkDescription: &desc,
	})
	if err != nil {
		e.t.Fatalf("CreateRecord: %v", err)
	}
	return rec
}

// api performs a JSON request with an optional bearer token.
func (e *testEnv) api(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// form posts url-encoded values with the given cookies.
func (e *testEnv) form(path string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// page performs a GET with the given cookies.
func (e *testEnv) page(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
