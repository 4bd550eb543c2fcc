package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-planner/internal/model"
	"task-planner/internal/repository"
	"task-planner/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *model.User) {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	user, err := users.UpsertFromTelegram(context.Background(), 5, "Lin", "", "lin")
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	tasks := service.NewTaskService(
		taskRepo,
		repository.NewListRepository(db),
		repository.NewLabelRepository(db),
		repository.NewHistoryRepository(db),
		repository.NewReminderRepository(db),
		time.UTC,
	)
	s := NewServer(users, tasks, service.NewSearchService(taskRepo, time.UTC))
	s.now = func() time.Time { return fixedNow }
	return s, user
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

type taskEnvelope struct {
	Success bool         `json:"success"`
	Task    taskResponse `json:"task"`
	Error   string       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestCreateAndCompleteRecurringTask(t *testing.T) {
	s, user := newTestServer(t)
	base := "/api/users/" + itoa(user.ID)

	w := doRequest(t, s, http.MethodPost, base+"/tasks",
		`{"title":"Gym","list":"Health","labels":["fitness"],"date":"2024-01-15","pattern":{"type":"weekly","daysOfWeek":[1,3]}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created taskEnvelope
	decode(t, w, &created)
	assert.True(t, created.Success)
	assert.Equal(t, "Gym", created.Task.Title)
	assert.Equal(t, "Health", created.Task.List)
	assert.Equal(t, []string{"fitness"}, created.Task.Labels)
	require.NotNil(t, created.Task.Recurrence)
	assert.Equal(t, "Every week on Mon, Wed", created.Task.Recurrence.Summary)
	require.NotNil(t, created.Task.Recurrence.Next)
	assert.Equal(t, "2024-01-22", created.Task.Recurrence.Next.Format(time.DateOnly))

	w = doRequest(t, s, http.MethodPost, base+"/tasks/"+itoa(created.Task.ID)+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var completed taskEnvelope
	decode(t, w, &completed)
	assert.False(t, completed.Task.Completed)
	require.NotNil(t, completed.Task.Date)
	assert.Equal(t, "2024-01-22", completed.Task.Date.Format(time.DateOnly))

	w = doRequest(t, s, http.MethodGet, base+"/tasks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tasks []taskResponse `json:"tasks"`
	}
	decode(t, w, &list)
	require.Len(t, list.Tasks, 1)
}

func TestCreateTaskWithKeywordPattern(t *testing.T) {
	s, user := newTestServer(t)
	w := doRequest(t, s, http.MethodPost, "/api/users/"+itoa(user.ID)+"/tasks",
		`{"title":"Standup","date":"2024-01-15","pattern":"Weekday"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created taskEnvelope
	decode(t, w, &created)
	require.NotNil(t, created.Task.Recurrence)
	assert.Equal(t, "Every weekday", created.Task.Recurrence.Summary)
}

func TestCreateTaskErrors(t *testing.T) {
	s, user := newTestServer(t)
	base := "/api/users/" + itoa(user.ID)

	cases := []struct {
		name string
		path string
		body string
		code int
		msg  string
	}{
		{"missing title", base + "/tasks", `{"title":" "}`, http.StatusBadRequest, "title is required"},
		{"bad pattern", base + "/tasks", `{"title":"x","date":"2024-01-15","pattern":{"type":"hourly"}}`, http.StatusBadRequest, "unknown type"},
		{"recurring without date", base + "/tasks", `{"title":"x","pattern":"daily"}`, http.StatusBadRequest, "recurring tasks need a date"},
		{"broken json", base + "/tasks", `{"title":`, http.StatusBadRequest, "invalid JSON body"},
		{"unknown user", "/api/users/999/tasks", `{"title":"x"}`, http.StatusNotFound, "not found"},
		{"bad user id", "/api/users/abc/tasks", `{"title":"x"}`, http.StatusBadRequest, "invalid user id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.code, w.Code)
			var env taskEnvelope
			decode(t, w, &env)
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, tc.msg)
		})
	}
}

func TestGetAndDeleteTask(t *testing.T) {
	s, user := newTestServer(t)
	base := "/api/users/" + itoa(user.ID)

	w := doRequest(t, s, http.MethodPost, base+"/tasks", `{"title":"Letter","notes":"stamp"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created taskEnvelope
	decode(t, w, &created)
	path := base + "/tasks/" + itoa(created.Task.ID)

	w = doRequest(t, s, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got taskEnvelope
	decode(t, w, &got)
	assert.Equal(t, "stamp", got.Task.Notes)
	assert.Nil(t, got.Task.Recurrence)

	w = doRequest(t, s, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, s, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, s, http.MethodGet, base+"/tasks/zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	s, user := newTestServer(t)
	base := "/api/users/" + itoa(user.ID)

	for _, body := range []string{
		`{"title":"Buy milk","labels":["errands"]}`,
		`{"title":"Pay rent","date":"2024-01-01","pattern":"monthly"}`,
	} {
		w := doRequest(t, s, http.MethodPost, base+"/tasks", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doRequest(t, s, http.MethodGet, base+"/search?q=buy", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Count   int `json:"count"`
		Results []struct {
			Score int          `json:"score"`
			Task  taskResponse `json:"task"`
		} `json:"results"`
	}
	decode(t, w, &res)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Buy milk", res.Results[0].Task.Title)
	assert.Equal(t, 3, res.Results[0].Score)

	w = doRequest(t, s, http.MethodGet, base+"/search?recurring=true&active=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Pay rent", res.Results[0].Task.Title)

	w = doRequest(t, s, http.MethodGet, base+"/search?recurring=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarEndpoint(t *testing.T) {
	s, user := newTestServer(t)
	base := "/api/users/" + itoa(user.ID)

	w := doRequest(t, s, http.MethodPost, base+"/tasks", `{"title":"Pay rent","date":"2024-02-01","pattern":"monthly"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, s, http.MethodGet, base+"/calendar.ics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	body := w.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Pay rent")
	assert.Contains(t, body, "RRULE:FREQ=MONTHLY")
}

func TestPreviewPattern(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/patterns/preview",
		`{"pattern":{"type":"monthly","dayOfMonth":31},"from":"2024-01-31","count":3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Preview previewResponse `json:"preview"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Every month on day 31", resp.Preview.Summary)
	assert.Equal(t, []string{"2024-03-31", "2024-05-31", "2024-07-31"}, resp.Preview.Occurrences)
	assert.Contains(t, resp.Preview.RRule, "BYMONTHDAY=31")

	w = doRequest(t, s, http.MethodPost, "/api/patterns/preview", `{"pattern":"sometimes"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(t, s, http.MethodPost, "/api/patterns/preview", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
