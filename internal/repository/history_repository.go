package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"task-planner/internal/model"
)

// HistoryRepository appends to and reads the task history log.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, taskID uint, action string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode history details: %w", err)
	}
	entry := model.TaskHistory{TaskID: taskID, Action: action, Details: datatypes.JSON(payload)}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByTask(ctx context.Context, taskID uint) ([]model.TaskHistory, error) {
	var entries []model.TaskHistory
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
