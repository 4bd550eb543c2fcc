package bot

import (
	"context"
	"log"
	"time"

	"task-planner/internal/service"
)

// SendDailyReports pushes the report to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := b.reminderSvc.DailySummary(ctx, &user, now)
		if err != nil {
			log.Printf("[warn] build summary for user %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("[warn] send summary to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

// SendDueReminders delivers reminders whose time has come. A reminder that
// fails to send stays pending and is retried on the next tick.
func (b *Bot) SendDueReminders(ctx context.Context) error {
	now := time.Now()
	due, err := b.reminderSvc.DueReminders(ctx, now)
	if err != nil {
		return err
	}
	for _, rem := range due {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if rem.Task == nil {
			log.Printf("[warn] reminder %d has no task", rem.ID)
			continue
		}
		user, err := b.userRepo.FindByID(ctx, rem.Task.UserID)
		if err != nil {
			log.Printf("[warn] reminder %d: load user: %v", rem.ID, err)
			continue
		}
		text := service.FormatReminder(rem, b.taskSvc.Location(user))
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("[warn] send reminder %d to %d: %v", rem.ID, user.TelegramID, err)
			continue
		}
		if err := b.reminderSvc.MarkSent(ctx, rem.ID, now); err != nil {
			log.Printf("[warn] mark reminder %d sent: %v", rem.ID, err)
		}
	}
	return nil
}
