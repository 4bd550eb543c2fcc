package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-planner/internal/model"
)

// TaskRepository handles CRUD for tasks and their child rows.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("List").
		Preload("Labels", func(db *gorm.DB) *gorm.DB { return db.Order("labels.name ASC") }).
		Preload("Subtasks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC, id ASC") }).
		Preload("Reminders", func(db *gorm.DB) *gorm.DB { return db.Order("remind_at ASC") }).
		Preload("Attachments")
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListOpenOrRecurring returns open tasks and every recurring task, dated
// tasks first.
func (r *TaskRepository) ListOpenOrRecurring(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.withDetails(ctx).Where("user_id = ? AND (is_completed = ? OR is_recurring = ?)", userID, false, true).
		Order("date IS NULL, date ASC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByUser returns every task of the user, completed ones included.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.withDetails(ctx).Where("user_id = ?", userID).
		Order("date IS NULL, date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.withDetails(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Save writes the task's own columns. Associations are managed separately.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit(
		"List", "Labels", "Subtasks", "Reminders", "Attachments",
	).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) error {
	task.IsCompleted = true
	task.CompletedAt = &completedAt
	return r.Save(ctx, task)
}

// RollForward moves a recurring task's anchor to next and reopens its
// checklist.
func (r *TaskRepository) RollForward(ctx context.Context, task *model.Task, next, completedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task.Date = &next
		task.CompletedAt = &completedAt
		task.IsCompleted = false
		if err := tx.Omit("List", "Labels", "Subtasks", "Reminders", "Attachments").Save(task).Error; err != nil {
			return fmt.Errorf("roll task: %w", err)
		}
		if err := tx.Model(&model.Subtask{}).Where("task_id = ?", task.ID).Update("done", false).Error; err != nil {
			return fmt.Errorf("reset subtasks: %w", err)
		}
		for i := range task.Subtasks {
			task.Subtasks[i].Done = false
		}
		return nil
	})
}

// ReplaceLabels sets the task's labels to exactly labels.
func (r *TaskRepository) ReplaceLabels(ctx context.Context, task *model.Task, labels []model.Label) error {
	if err := r.db.WithContext(ctx).Model(task).Association("Labels").Replace(labels); err != nil {
		return fmt.Errorf("replace labels: %w", err)
	}
	return nil
}

func (r *TaskRepository) AddSubtask(ctx context.Context, task *model.Task, title string) (*model.Subtask, error) {
	var count int64
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.Subtask{}).Where("task_id = ?", task.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count subtasks: %w", err)
	}
	sub := model.Subtask{TaskID: task.ID, Title: title, Position: int(count)}
	if err := db.Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	task.Subtasks = append(task.Subtasks, sub)
	return &sub, nil
}

func (r *TaskRepository) SetSubtaskDone(ctx context.Context, taskID, subtaskID uint, done bool) error {
	res := r.db.WithContext(ctx).Model(&model.Subtask{}).
		Where("task_id = ? AND id = ?", taskID, subtaskID).
		Update("done", done)
	if res.Error != nil {
		return fmt.Errorf("update subtask: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) AddAttachment(ctx context.Context, att *model.Attachment) error {
	if err := r.db.WithContext(ctx).Create(att).Error; err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// Delete removes a task for the given user, regardless of it being recurring or not.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return fmt.Errorf("delete task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Exec("DELETE FROM task_labels WHERE task_id = ?", taskID).Error; err != nil {
			return fmt.Errorf("clear labels: %w", err)
		}
		for _, child := range []interface{}{&model.Subtask{}, &model.Reminder{}, &model.Attachment{}, &model.TaskHistory{}} {
			if err := tx.Where("task_id = ?", taskID).Delete(child).Error; err != nil {
				return fmt.Errorf("delete task children: %w", err)
			}
		}
		return nil
	})
}
