package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"task-planner/internal/model"
	"task-planner/internal/recurrence"
	"task-planner/internal/repository"
)

// Query filters and ranks a user's tasks. Zero values disable a filter.
type Query struct {
	Text             string
	List             string
	Label            string
	RecurringOnly    bool
	ActiveOnly       bool
	DueBefore        *time.Time
	IncludeCompleted bool
}

// SearchResult is a matching task with its relevance score.
type SearchResult struct {
	Task  model.Task
	Score int
}

// SearchService finds tasks by text and filters.
type SearchService struct {
	taskRepo *repository.TaskRepository
	loc      *time.Location
}

func NewSearchService(taskRepo *repository.TaskRepository, loc *time.Location) *SearchService {
	if loc == nil {
		loc = time.Local
	}
	return &SearchService{taskRepo: taskRepo, loc: loc}
}

// Search returns matching tasks, best match first. Without text every task
// that passes the filters matches with score 0, ordered by date.
func (s *SearchService) Search(ctx context.Context, user *model.User, q Query, now time.Time) ([]SearchResult, error) {
	var (
		tasks []model.Task
		err   error
	)
	if q.IncludeCompleted {
		tasks, err = s.taskRepo.ListByUser(ctx, user.ID)
	} else {
		tasks, err = s.taskRepo.ListOpenOrRecurring(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	loc := user.Location(s.loc)
	today := now.In(loc)
	text := strings.ToLower(strings.TrimSpace(q.Text))
	listName := strings.ToLower(strings.TrimSpace(q.List))
	label := strings.ToLower(strings.TrimSpace(q.Label))

	results := make([]SearchResult, 0, len(tasks))
	for _, task := range tasks {
		if q.RecurringOnly && !task.IsRecurring {
			continue
		}
		if q.ActiveOnly && !recurrence.Active(seriesIn(task, loc), today) {
			continue
		}
		if listName != "" && (task.List == nil || strings.ToLower(task.List.Name) != listName) {
			continue
		}
		if label != "" && !hasLabel(task, label) {
			continue
		}
		if q.DueBefore != nil && (task.Date == nil || !task.Date.Before(*q.DueBefore)) {
			continue
		}

		score := 0
		if text != "" {
			score = scoreTask(task, text)
			if score == 0 {
				continue
			}
		}
		results = append(results, SearchResult{Task: task, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.Task.Date == nil && b.Task.Date != nil:
			return false
		case a.Task.Date != nil && b.Task.Date == nil:
			return true
		case a.Task.Date != nil && !a.Task.Date.Equal(*b.Task.Date):
			return a.Task.Date.Before(*b.Task.Date)
		}
		return a.Task.ID < b.Task.ID
	})
	return results, nil
}

// scoreTask weighs a title prefix 3, a title substring 2, a label match 2
// and a notes match 1.
func scoreTask(task model.Task, text string) int {
	score := 0
	title := strings.ToLower(task.Title)
	switch {
	case strings.HasPrefix(title, text):
		score += 3
	case strings.Contains(title, text):
		score += 2
	}
	for _, l := range task.Labels {
		if strings.Contains(strings.ToLower(l.Name), text) {
			score += 2
			break
		}
	}
	if strings.Contains(strings.ToLower(task.Notes), text) {
		score++
	}
	return score
}

func hasLabel(task model.Task, name string) bool {
	for _, l := range task.Labels {
		if strings.ToLower(l.Name) == name {
			return true
		}
	}
	return false
}
