package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"task-planner/internal/calendar"
	"task-planner/internal/model"
	"task-planner/internal/recurrence"
	"task-planner/internal/repository"
	"task-planner/internal/service"
	"task-planner/internal/timeparse"
)

const maxPreviewCount = 50

type subtaskResponse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

type taskResponse struct {
	ID          uint                    `json:"id"`
	Title       string                  `json:"title"`
	Notes       string                  `json:"notes,omitempty"`
	List        string                  `json:"list,omitempty"`
	Labels      []string                `json:"labels"`
	Priority    int                     `json:"priority"`
	Date        *time.Time              `json:"date,omitempty"`
	Completed   bool                    `json:"completed"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
	Subtasks    []subtaskResponse       `json:"subtasks"`
	Recurrence  *service.RecurrenceView `json:"recurrence,omitempty"`
}

type createTaskRequest struct {
	Title    string          `json:"title"`
	Notes    string          `json:"notes"`
	List     string          `json:"list"`
	Labels   []string        `json:"labels"`
	Priority int             `json:"priority"`
	Date     string          `json:"date"`
	Pattern  json.RawMessage `json:"pattern"`
}

type previewRequest struct {
	Pattern json.RawMessage `json:"pattern"`
	From    string          `json:"from"`
	Count   int             `json:"count"`
}

type previewResponse struct {
	Pattern     recurrence.Pattern `json:"pattern"`
	Summary     string             `json:"summary"`
	RRule       string             `json:"rrule,omitempty"`
	Occurrences []string           `json:"occurrences"`
}

func (s *Server) handleListTasks(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	tasks, err := s.tasks.ListOpen(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	now := s.now()
	out := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, s.toResponse(user, task, now))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tasks": out})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	input := service.TaskInput{
		Title:    req.Title,
		Notes:    req.Notes,
		List:     req.List,
		Labels:   req.Labels,
		Priority: req.Priority,
	}
	loc := s.tasks.Location(user)
	if strings.TrimSpace(req.Date) != "" {
		date, err := timeparse.ParseDate(req.Date, s.now(), loc)
		if err != nil {
			badRequest(c, "invalid date")
			return
		}
		input.Date = &date
	}
	if raw, present := rawPattern(req.Pattern); present {
		input.IsRecurring = true
		input.Pattern = raw
	}

	task, err := s.tasks.CreateTask(c.Request.Context(), user, input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "task": s.toResponse(user, *task, s.now())})
}

func (s *Server) handleGetTask(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	task, err := s.tasks.GetTask(c.Request.Context(), user, id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": s.toResponse(user, *task, s.now())})
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	now := s.now()
	task, err := s.tasks.CompleteTask(c.Request.Context(), user, id, now)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task": s.toResponse(user, *task, now)})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.tasks.DeleteTask(c.Request.Context(), user, id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSearch(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	now := s.now()
	q := service.Query{
		Text:  c.Query("q"),
		List:  c.Query("list"),
		Label: c.Query("label"),
	}
	var err error
	if q.RecurringOnly, err = boolQuery(c, "recurring"); err != nil {
		badRequest(c, "recurring must be a boolean")
		return
	}
	if q.ActiveOnly, err = boolQuery(c, "active"); err != nil {
		badRequest(c, "active must be a boolean")
		return
	}
	if q.IncludeCompleted, err = boolQuery(c, "completed"); err != nil {
		badRequest(c, "completed must be a boolean")
		return
	}
	if before := c.Query("before"); before != "" {
		t, err := timeparse.ParseDate(before, now, s.tasks.Location(user))
		if err != nil {
			badRequest(c, "invalid before date")
			return
		}
		q.DueBefore = &t
	}

	results, err := s.search.Search(c.Request.Context(), user, q, now)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(results))
	for _, r := range results {
		out = append(out, gin.H{"score": r.Score, "task": s.toResponse(user, r.Task, now)})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": out, "count": len(out)})
}

func (s *Server) handleCalendar(c *gin.Context) {
	user, ok := s.loadUser(c)
	if !ok {
		return
	}
	tasks, err := s.tasks.ListOpen(c.Request.Context(), user)
	if err != nil {
		s.fail(c, err)
		return
	}
	body := calendar.BuildICS(tasks, s.now(), s.tasks.Location(user))
	c.Header("Content-Disposition", `attachment; filename="tasks.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Server) handlePreviewPattern(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	raw, present := rawPattern(req.Pattern)
	if !present {
		badRequest(c, "pattern is required")
		return
	}
	pattern, err := service.ValidatePatternInput(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	now := s.now()
	from := now
	if req.From != "" {
		from, err = timeparse.ParseDate(req.From, now, now.Location())
		if err != nil {
			badRequest(c, "invalid from date")
			return
		}
	}
	count := req.Count
	if count <= 0 {
		count = 5
	}
	if count > maxPreviewCount {
		count = maxPreviewCount
	}

	resp := previewResponse{
		Pattern:     pattern,
		Summary:     recurrence.Summarize(pattern),
		Occurrences: []string{},
	}
	if rule, ok := calendar.ToRRule(pattern, from.Location()); ok {
		resp.RRule = rule
	}
	for _, t := range recurrence.Occurrences(pattern, from, count) {
		resp.Occurrences = append(resp.Occurrences, t.Format(time.DateOnly))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preview": resp})
}

func (s *Server) loadUser(c *gin.Context) (*model.User, bool) {
	id, err := strconv.ParseUint(c.Param("user"), 10, 64)
	if err != nil {
		badRequest(c, "invalid user id")
		return nil, false
	}
	user, err := s.users.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return user, true
}

func (s *Server) toResponse(user *model.User, task model.Task, now time.Time) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Notes:       task.Notes,
		Labels:      task.LabelNames(),
		Priority:    task.Priority,
		Date:        task.Date,
		Completed:   task.IsCompleted,
		CompletedAt: task.CompletedAt,
		Subtasks:    make([]subtaskResponse, 0, len(task.Subtasks)),
	}
	if task.List != nil {
		resp.List = task.List.Name
	}
	for _, sub := range task.Subtasks {
		resp.Subtasks = append(resp.Subtasks, subtaskResponse{ID: sub.ID, Title: sub.Title, Done: sub.Done})
	}
	if view, ok := s.tasks.Describe(user, task, now); ok {
		resp.Recurrence = &view
	}
	return resp
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found"})
	case errors.Is(err, service.ErrInvalidPattern),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrDateRequired),
		errors.Is(err, service.ErrInvalidPriority):
		badRequest(c, err.Error())
	default:
		logError("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid task id")
		return 0, false
	}
	return uint(id), true
}

func boolQuery(c *gin.Context, key string) (bool, error) {
	v := c.Query(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// rawPattern accepts either a keyword string or a pattern object. A missing
// or null pattern means the task does not repeat.
func rawPattern(msg json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}
	var keyword string
	if err := json.Unmarshal(msg, &keyword); err == nil {
		return keyword, true
	}
	return trimmed, true
}
