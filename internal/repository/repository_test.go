package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-planner/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user, err := NewUserRepository(db).UpsertFromTelegram(context.Background(), 42, "Ada", "", "ada")
	require.NoError(t, err)
	return user
}

func TestUserUpsertUpdatesProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.UpsertFromTelegram(ctx, 7, "Grace", "", "grace")
	require.NoError(t, err)
	second, err := repo.UpsertFromTelegram(ctx, 7, "Grace", "Hopper", "ghopper")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	found, err := repo.FindByTelegramID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "ghopper", found.Username)

	require.NoError(t, repo.SetTimezone(ctx, found, "Europe/Berlin"))
	byID, err := repo.FindByID(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", byID.Timezone)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestListLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	lists := NewListRepository(db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	work, err := lists.GetOrCreate(ctx, user.ID, " Work ")
	require.NoError(t, err)
	again, err := lists.GetOrCreate(ctx, user.ID, "Work")
	require.NoError(t, err)
	assert.Equal(t, work.ID, again.ID)

	none, err := lists.GetOrCreate(ctx, user.ID, "  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	task := model.Task{UserID: user.ID, ListID: &work.ID, Title: "report"}
	require.NoError(t, tasks.Create(ctx, &task))

	require.NoError(t, lists.Rename(ctx, user.ID, work.ID, "Office"))
	renamed, err := lists.FindByName(ctx, user.ID, "Office")
	require.NoError(t, err)
	assert.Equal(t, work.ID, renamed.ID)

	require.NoError(t, lists.Delete(ctx, user.ID, work.ID))
	assert.True(t, errors.Is(lists.Delete(ctx, user.ID, work.ID), ErrNotFound))

	stored, err := tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ListID)
}

func TestLabelsAreSharedAndNormalized(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	labels := NewLabelRepository(db)
	ctx := context.Background()

	first, err := labels.GetOrCreateMany(ctx, user.ID, []string{"Home", "home", " ", "errands"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := labels.GetOrCreateMany(ctx, user.ID, []string{"errands"})
	require.NoError(t, err)
	assert.Equal(t, first[1].ID, second[0].ID)

	all, err := labels.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"errands", "home"}, []string{all[0].Name, all[1].Name})
}

func TestTaskDetailsAndRollForward(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	tasks := NewTaskRepository(db)
	labels := NewLabelRepository(db)
	ctx := context.Background()

	anchor := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	task := model.Task{
		UserID:           user.ID,
		Title:            "water plants",
		Date:             &anchor,
		IsRecurring:      true,
		RecurringPattern: `{"type":"weekly","interval":1,"daysOfWeek":[1]}`,
	}
	require.NoError(t, tasks.Create(ctx, &task))

	tags, err := labels.GetOrCreateMany(ctx, user.ID, []string{"home"})
	require.NoError(t, err)
	require.NoError(t, tasks.ReplaceLabels(ctx, &task, tags))

	sub, err := tasks.AddSubtask(ctx, &task, "fill can")
	require.NoError(t, err)
	require.NoError(t, tasks.SetSubtaskDone(ctx, task.ID, sub.ID, true))
	assert.True(t, errors.Is(tasks.SetSubtaskDone(ctx, task.ID, sub.ID+100, true), ErrNotFound))

	loaded, err := tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, loaded.LabelNames())
	require.Len(t, loaded.Subtasks, 1)
	assert.True(t, loaded.Subtasks[0].Done)

	next := anchor.AddDate(0, 0, 7)
	require.NoError(t, tasks.RollForward(ctx, loaded, next, anchor))

	rolled, err := tasks.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, rolled.Date)
	assert.True(t, rolled.Date.Equal(next))
	assert.False(t, rolled.IsCompleted)
	assert.False(t, rolled.Subtasks[0].Done)
	assert.Equal(t, []string{"home"}, rolled.LabelNames())
}

func TestListOpenOrRecurring(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	tasks := NewTaskRepository(db)
	ctx := context.Background()

	early := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tasks.Create(ctx, &model.Task{UserID: user.ID, Title: "undated"}))
	require.NoError(t, tasks.Create(ctx, &model.Task{UserID: user.ID, Title: "late", Date: &late}))
	require.NoError(t, tasks.Create(ctx, &model.Task{UserID: user.ID, Title: "early", Date: &early}))
	done := model.Task{UserID: user.ID, Title: "done"}
	require.NoError(t, tasks.Create(ctx, &done))
	require.NoError(t, tasks.MarkCompleted(ctx, &done, early))

	open, err := tasks.ListOpenOrRecurring(ctx, user.ID)
	require.NoError(t, err)
	titles := make([]string, 0, len(open))
	for _, task := range open {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"early", "late", "undated"}, titles)

	all, err := tasks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTaskDeleteRemovesChildren(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	tasks := NewTaskRepository(db)
	reminders := NewReminderRepository(db)
	history := NewHistoryRepository(db)
	ctx := context.Background()

	task := model.Task{UserID: user.ID, Title: "temp"}
	require.NoError(t, tasks.Create(ctx, &task))
	_, err := tasks.AddSubtask(ctx, &task, "step")
	require.NoError(t, err)
	require.NoError(t, reminders.Create(ctx, &model.Reminder{TaskID: task.ID, RemindAt: time.Now()}))
	require.NoError(t, tasks.AddAttachment(ctx, &model.Attachment{TaskID: task.ID, FileName: "a.txt", StorageKey: "k1"}))
	require.NoError(t, history.Append(ctx, task.ID, model.ActionCreated, nil))

	require.NoError(t, tasks.Delete(ctx, user.ID, task.ID))
	assert.True(t, errors.Is(tasks.Delete(ctx, user.ID, task.ID), ErrNotFound))

	_, err = tasks.FindByID(ctx, user.ID, task.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	var count int64
	require.NoError(t, db.Model(&model.Subtask{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&model.Reminder{}).Where("task_id = ?", task.ID).Count(&count).Error)
	assert.Zero(t, count)
	entries, err := history.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemindersDue(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db)
	tasks := NewTaskRepository(db)
	reminders := NewReminderRepository(db)
	ctx := context.Background()

	task := model.Task{UserID: user.ID, Title: "call mom"}
	require.NoError(t, tasks.Create(ctx, &task))

	now := time.Date(2024, time.May, 5, 12, 0, 0, 0, time.UTC)
	past := model.Reminder{TaskID: task.ID, RemindAt: now.Add(-time.Hour)}
	future := model.Reminder{TaskID: task.ID, RemindAt: now.Add(time.Hour)}
	require.NoError(t, reminders.Create(ctx, &past))
	require.NoError(t, reminders.Create(ctx, &future))

	due, err := reminders.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, past.ID, due[0].ID)
	require.NotNil(t, due[0].Task)
	assert.Equal(t, "call mom", due[0].Task.Title)

	require.NoError(t, reminders.MarkSent(ctx, past.ID, now))
	due, err = reminders.Due(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestHistoryAppend(t *testing.T) {
	db := newTestDB(t)
	history := NewHistoryRepository(db)
	ctx := context.Background()

	require.NoError(t, history.Append(ctx, 9, model.ActionRolled, map[string]any{"from": "2024-01-15", "to": "2024-01-22"}))
	require.NoError(t, history.Append(ctx, 9, model.ActionCompleted, nil))

	entries, err := history.ListByTask(ctx, 9)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.ActionRolled, entries[0].Action)
	assert.JSONEq(t, `{"from":"2024-01-15","to":"2024-01-22"}`, string(entries[0].Details))
}
