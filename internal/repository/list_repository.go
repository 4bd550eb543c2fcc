package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"task-planner/internal/model"
)

// ListRepository manages task lists.
type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	var list model.List
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&list).Error
	switch {
	case err == nil:
		return &list, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		list = model.List{UserID: userID, Name: name}
		if err := db.Create(&list).Error; err != nil {
			return nil, fmt.Errorf("create list: %w", err)
		}
		return &list, nil
	default:
		return nil, fmt.Errorf("find list: %w", err)
	}
}

func (r *ListRepository) ListByUser(ctx context.Context, userID uint) ([]model.List, error) {
	var lists []model.List
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *ListRepository) GetByID(ctx context.Context, id uint) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *ListRepository) FindByName(ctx context.Context, userID uint, name string) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, strings.TrimSpace(name)).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

func (r *ListRepository) Rename(ctx context.Context, userID, listID uint, name string) error {
	res := r.db.WithContext(ctx).Model(&model.List{}).
		Where("user_id = ? AND id = ?", userID, listID).
		Update("name", strings.TrimSpace(name))
	if res.Error != nil {
		return fmt.Errorf("rename list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the list and leaves its tasks without a list.
func (r *ListRepository) Delete(ctx context.Context, userID, listID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).Where("user_id = ? AND list_id = ?", userID, listID).
			Update("list_id", nil).Error; err != nil {
			return fmt.Errorf("detach tasks: %w", err)
		}
		res := tx.Where("user_id = ? AND id = ?", userID, listID).Delete(&model.List{})
		if res.Error != nil {
			return fmt.Errorf("delete list: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
