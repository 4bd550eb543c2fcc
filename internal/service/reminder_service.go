package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"task-planner/internal/model"
	"task-planner/internal/repository"
)

// ReminderService builds human-readable summaries for daily notifications
// and hands out reminders that are due.
type ReminderService struct {
	taskRepo     *repository.TaskRepository
	reminderRepo *repository.ReminderRepository
	loc          *time.Location
}

func NewReminderService(taskRepo *repository.TaskRepository, reminderRepo *repository.ReminderRepository, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderService{taskRepo: taskRepo, reminderRepo: reminderRepo, loc: loc}
}

// DailySummary renders the digest as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user *model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.ListOpenOrRecurring(ctx, user.ID)
	if err != nil {
		return "", err
	}

	loc := user.Location(s.loc)
	now = now.In(loc)

	var pending []model.Task
	var recurring []model.Task
	for _, task := range tasks {
		switch {
		case task.IsRecurring:
			recurring = append(recurring, task)
		case !task.IsCompleted:
			pending = append(pending, task)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		switch {
		case pending[i].Date == nil && pending[j].Date == nil:
			return pending[i].CreatedAt.After(pending[j].CreatedAt)
		case pending[i].Date == nil:
			return false
		case pending[j].Date == nil:
			return true
		default:
			return pending[i].Date.Before(*pending[j].Date)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>Open tasks</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing open\n")
	} else {
		for _, task := range pending {
			builder.WriteString(formatTask(task, now))
		}
	}

	builder.WriteString("\n♻️ <b>Recurring tasks</b>\n")
	if len(recurring) == 0 {
		builder.WriteString("— no recurring tasks\n")
	} else {
		for _, task := range recurring {
			builder.WriteString(formatRecurring(task, loc, now))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// DueReminders returns reminders whose time has come and that were not sent yet.
func (s *ReminderService) DueReminders(ctx context.Context, now time.Time) ([]model.Reminder, error) {
	return s.reminderRepo.Due(ctx, now)
}

func (s *ReminderService) MarkSent(ctx context.Context, reminderID uint, sentAt time.Time) error {
	return s.reminderRepo.MarkSent(ctx, reminderID, sentAt)
}

// FormatReminder renders a single reminder message.
func FormatReminder(reminder model.Reminder, loc *time.Location) string {
	title := "task"
	if reminder.Task != nil {
		title = strings.TrimSpace(reminder.Task.Title)
	}
	return fmt.Sprintf("🔔 <b>Reminder</b>\n%s\n⏰ %s",
		html.EscapeString(title), reminder.RemindAt.In(loc).Format("2006-01-02 15:04"))
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	var left int
	if task.Date != nil {
		left = daysBetween(now, task.Date.In(now.Location()))
		switch {
		case left < 0:
			icon = "⚠️"
		case left == 0:
			icon = "📌"
		case left <= 2:
			icon = "⏳"
		}
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	writeListAndLabels(&sb, task)

	if task.Date != nil {
		d := task.Date.In(now.Location()).Format(time.DateOnly)
		switch {
		case left < 0:
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s · <b>overdue</b>", d))
		case left == 0:
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s · today", d))
		default:
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s · in %d d.", d, left))
		}
	}

	if notes := strings.TrimSpace(task.Notes); notes != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(notes)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatRecurring(task model.Task, loc *time.Location, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("♻️ %s", html.EscapeString(strings.TrimSpace(task.Title))))
	writeListAndLabels(&sb, task)

	view, ok := DescribeRecurrence(task, loc, now)
	if !ok {
		sb.WriteByte('\n')
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("\n   🔁 %s", html.EscapeString(view.Summary)))
	if task.Date != nil {
		sb.WriteString(fmt.Sprintf("\n   📆 Current: %s", task.Date.In(loc).Format(time.DateOnly)))
	}
	switch {
	case !view.Active:
		sb.WriteString("\n   🏁 Series ended")
	case view.Next != nil:
		sb.WriteString(fmt.Sprintf("\n   ➡️ Then: %s", view.Next.Format(time.DateOnly)))
	}
	if task.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("\n   ✅ Last done: %s", task.CompletedAt.In(loc).Format(time.DateOnly)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func writeListAndLabels(sb *strings.Builder, task model.Task) {
	if task.List != nil {
		if name := strings.TrimSpace(task.List.Name); name != "" {
			sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
		}
	}
	for _, name := range task.LabelNames() {
		sb.WriteString(" #" + html.EscapeString(name))
	}
}

// daysBetween counts calendar days from a to b, both read in their own
// location.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
