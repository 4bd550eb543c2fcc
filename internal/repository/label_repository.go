package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"task-planner/internal/model"
)

// LabelRepository manages labels.
type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

// GetOrCreateMany resolves names to labels, creating missing ones. Blank
// and repeated names are skipped.
func (r *LabelRepository) GetOrCreateMany(ctx context.Context, userID uint, names []string) ([]model.Label, error) {
	seen := make(map[string]bool, len(names))
	labels := make([]model.Label, 0, len(names))
	db := r.db.WithContext(ctx)
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		label := model.Label{UserID: userID, Name: name}
		if err := db.Where("user_id = ? AND name = ?", userID, name).FirstOrCreate(&label).Error; err != nil {
			return nil, fmt.Errorf("get or create label %q: %w", name, err)
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func (r *LabelRepository) ListByUser(ctx context.Context, userID uint) ([]model.Label, error) {
	var labels []model.Label
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}
