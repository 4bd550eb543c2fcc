package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
	"task-planner/internal/repository"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrDateRequired    = errors.New("recurring tasks need a date")
	ErrInvalidPriority = errors.New("priority must be between 0 and 3")
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Notes       string
	List        string
	Labels      []string
	Priority    int
	Date        *time.Time
	IsRecurring bool
	Pattern     string
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	listRepo    *repository.ListRepository
	labelRepo   *repository.LabelRepository
	historyRepo *repository.HistoryRepository
	reminders   *repository.ReminderRepository
	loc         *time.Location
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	listRepo *repository.ListRepository,
	labelRepo *repository.LabelRepository,
	historyRepo *repository.HistoryRepository,
	reminders *repository.ReminderRepository,
	loc *time.Location,
) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		taskRepo:    taskRepo,
		listRepo:    listRepo,
		labelRepo:   labelRepo,
		historyRepo: historyRepo,
		reminders:   reminders,
		loc:         loc,
	}
}

// Location is the time zone used for the user's calendar arithmetic.
func (s *TaskService) Location(user *model.User) *time.Location {
	return user.Location(s.loc)
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Priority < model.PriorityNone || input.Priority > model.PriorityHigh {
		return nil, ErrInvalidPriority
	}

	task := model.Task{
		UserID:   user.ID,
		Title:    title,
		Notes:    strings.TrimSpace(input.Notes),
		Priority: input.Priority,
		Date:     input.Date,
	}

	if input.IsRecurring {
		if input.Date == nil {
			return nil, ErrDateRequired
		}
		pattern, err := ValidatePatternInput(input.Pattern)
		if err != nil {
			return nil, err
		}
		task.IsRecurring = true
		task.RecurringPattern = recurrence.Encode(pattern)
	}

	if input.List != "" {
		list, err := s.listRepo.GetOrCreate(ctx, user.ID, input.List)
		if err != nil {
			return nil, err
		}
		if list != nil {
			task.ListID = &list.ID
			task.List = list
		}
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	if len(input.Labels) > 0 {
		if err := s.SetLabels(ctx, &task, input.Labels); err != nil {
			return nil, err
		}
	}

	s.record(ctx, task.ID, model.ActionCreated, map[string]any{
		"title":     task.Title,
		"recurring": task.IsRecurring,
	})
	return &task, nil
}

func (s *TaskService) ListOpen(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListOpenOrRecurring(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// CompleteTask marks a task as done. A recurring task moves its date to the
// next occurrence and stays open; once the series has ended it is closed
// like any other task.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	if task.IsRecurring {
		if next, ok := recurrence.Next(seriesIn(*task, s.Location(user))); ok {
			from := task.Date
			if err := s.taskRepo.RollForward(ctx, task, next, completedAt); err != nil {
				return nil, err
			}
			s.record(ctx, task.ID, model.ActionRolled, map[string]any{
				"from": formatDay(from),
				"to":   next.Format(time.DateOnly),
			})
			return task, nil
		}
	}

	if err := s.taskRepo.MarkCompleted(ctx, task, completedAt); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, model.ActionCompleted, map[string]any{"at": completedAt.Format(time.RFC3339)})
	return task, nil
}

// Reopen clears the completed flag of a task.
func (s *TaskService) Reopen(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	task.IsCompleted = false
	task.CompletedAt = nil
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, model.ActionReopened, nil)
	return task, nil
}

// UpdatePattern makes the task recurring with the given user input.
func (s *TaskService) UpdatePattern(ctx context.Context, user *model.User, taskID uint, raw string) (*model.Task, error) {
	pattern, err := ValidatePatternInput(raw)
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Date == nil {
		return nil, ErrDateRequired
	}
	task.IsRecurring = true
	task.RecurringPattern = recurrence.Encode(pattern)
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, model.ActionUpdated, map[string]any{"pattern": task.RecurringPattern})
	return task, nil
}

// ClearRecurrence turns a recurring task back into a one-off task.
func (s *TaskService) ClearRecurrence(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	task.IsRecurring = false
	task.RecurringPattern = ""
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, model.ActionUpdated, map[string]any{"recurring": false})
	return task, nil
}

// SetLabels replaces the labels of task with the given names.
func (s *TaskService) SetLabels(ctx context.Context, task *model.Task, names []string) error {
	labels, err := s.labelRepo.GetOrCreateMany(ctx, task.UserID, names)
	if err != nil {
		return err
	}
	if err := s.taskRepo.ReplaceLabels(ctx, task, labels); err != nil {
		return err
	}
	task.Labels = labels
	return nil
}

func (s *TaskService) AddSubtask(ctx context.Context, user *model.User, taskID uint, title string) (*model.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.AddSubtask(ctx, task, title)
}

func (s *TaskService) ToggleSubtask(ctx context.Context, user *model.User, taskID, subtaskID uint, done bool) error {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return err
	}
	return s.taskRepo.SetSubtaskDone(ctx, taskID, subtaskID, done)
}

func (s *TaskService) AddReminder(ctx context.Context, user *model.User, taskID uint, at time.Time) (*model.Reminder, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	reminder := model.Reminder{TaskID: taskID, RemindAt: at}
	if err := s.reminders.Create(ctx, &reminder); err != nil {
		return nil, err
	}
	return &reminder, nil
}

// AddAttachment registers a file for the task. The returned StorageKey is
// where the caller keeps the file content.
func (s *TaskService) AddAttachment(ctx context.Context, user *model.User, taskID uint, fileName, contentType string, size int64) (*model.Attachment, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	att := model.Attachment{
		TaskID:      taskID,
		FileName:    strings.TrimSpace(fileName),
		StorageKey:  uuid.NewString(),
		ContentType: contentType,
		Size:        size,
	}
	if err := s.taskRepo.AddAttachment(ctx, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

func (s *TaskService) History(ctx context.Context, user *model.User, taskID uint) ([]model.TaskHistory, error) {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return nil, err
	}
	return s.historyRepo.ListByTask(ctx, taskID)
}

// DeleteTask removes a task completely (for both one-time and recurring tasks).
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// Describe evaluates the recurrence of task for user at now.
func (s *TaskService) Describe(user *model.User, task model.Task, now time.Time) (RecurrenceView, bool) {
	return DescribeRecurrence(task, s.Location(user), now)
}

// record appends to the history log. A failed write is logged, not returned.
func (s *TaskService) record(ctx context.Context, taskID uint, action string, details map[string]any) {
	if err := s.historyRepo.Append(ctx, taskID, action, details); err != nil {
		logWarn("history for task %d: %v", taskID, err)
	}
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}
