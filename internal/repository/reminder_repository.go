package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-planner/internal/model"
)

// ReminderRepository stores reminders and finds the ones due for delivery.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create stores the reminder with RemindAt in UTC so that Due can compare
// the stored text values.
func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	reminder.RemindAt = reminder.RemindAt.UTC()
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("create reminder: %w", err)
	}
	return nil
}

// Due returns unsent reminders at or before now, oldest first, with their
// task loaded.
func (r *ReminderRepository) Due(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := r.db.WithContext(ctx).Preload("Task").
		Where("sent_at IS NULL AND remind_at <= ?", now.UTC()).
		Order("remind_at ASC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) MarkSent(ctx context.Context, id uint, sentAt time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Reminder{}).Where("id = ?", id).Update("sent_at", sentAt).Error; err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
