package service

import (
	"context"
	"strings"

	"task-planner/internal/model"
	"task-planner/internal/repository"
)

// ListService provides helpers around task lists.
type ListService struct {
	repo *repository.ListRepository
}

func NewListService(repo *repository.ListRepository) *ListService {
	return &ListService{repo: repo}
}

func (s *ListService) List(ctx context.Context, user *model.User) ([]model.List, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

func (s *ListService) Rename(ctx context.Context, user *model.User, listID uint, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrTitleRequired
	}
	return s.repo.Rename(ctx, user.ID, listID, name)
}

// Delete removes the list; its tasks are kept without a list.
func (s *ListService) Delete(ctx context.Context, user *model.User, listID uint) error {
	return s.repo.Delete(ctx, user.ID, listID)
}

// LabelService lists the labels a user has used.
type LabelService struct {
	repo *repository.LabelRepository
}

func NewLabelService(repo *repository.LabelRepository) *LabelService {
	return &LabelService{repo: repo}
}

func (s *LabelService) List(ctx context.Context, user *model.User) ([]model.Label, error) {
	return s.repo.ListByUser(ctx, user.ID)
}
