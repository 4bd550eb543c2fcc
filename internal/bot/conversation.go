package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-planner/internal/recurrence"
	"task-planner/internal/service"
	"task-planner/internal/timeparse"
)

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageNotes
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short note (or tap «Skip»).", skipKeyboard())
	case stageNotes:
		if !isSkipInput(text) {
			state.input.Notes = text
		}
		state.stage = stageList
		return b.askList(ctx, msg)
	case stageList:
		if !isSkipInput(text) {
			state.input.List = text
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ When? <code>2025-11-30</code>, <code>30.11.2025</code> or words like <code>next friday</code> (or «Skip»).", skipKeyboard())
	case stageDate:
		if !isSkipInput(text) {
			user, err := b.ensureUser(ctx, msg.From)
			if err != nil {
				return err
			}
			date, err := timeparse.ParseDate(text, time.Now(), b.taskSvc.Location(user))
			if err != nil || date.IsZero() {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I could not read that date. Try <code>2025-11-30</code> or «Skip».", skipKeyboard())
			}
			state.input.Date = &date
		}
		state.stage = stageRecurrence
		return b.sendWithReplyMarkup(msg.Chat.ID,
			"🔁 Should it repeat? Pick a keyword or send JSON such as <code>{\"type\":\"weekly\",\"daysOfWeek\":[1,4]}</code>.",
			recurrenceKeyboard())
	case stageRecurrence:
		if isNoRepeatInput(text) {
			state.input.IsRecurring = false
			state.input.Pattern = ""
		} else {
			pattern, err := service.ValidatePatternInput(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ "+escape(err.Error()), recurrenceKeyboard())
			}
			if state.input.Date == nil {
				user, err := b.ensureUser(ctx, msg.From)
				if err != nil {
					return err
				}
				now := time.Now().In(b.taskSvc.Location(user))
				today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
				state.input.Date = &today
			}
			state.input.IsRecurring = true
			state.input.Pattern = recurrence.Encode(pattern)
		}
		state.stage = stageLabels
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Labels, separated by spaces or commas (or «Skip»).", skipKeyboard())
	case stageLabels:
		if !isSkipInput(text) {
			state.input.Labels = parseLabels(text)
		}
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "The dialog was reset. Start again with /newtask.")
	}
}

func (b *Bot) askList(ctx context.Context, msg *tgbotapi.Message) error {
	prompt := "📂 Pick a list or send a new name (or «Skip»)."
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	lists, err := b.listSvc.List(ctx, user)
	if err != nil {
		log.Printf("[warn] load lists user=%d: %v", user.ID, err)
	}
	return b.sendWithReplyMarkup(msg.Chat.ID, prompt, listKeyboard(lists))
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task created id=%d user=%d recurring=%t", task.ID, user.ID, task.IsRecurring)

	loc := b.taskSvc.Location(user)
	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", task.ID))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Notes:</b> %s\n", escape(task.Notes)))
	}
	if task.List != nil {
		summary.WriteString(fmt.Sprintf("• <b>List:</b> %s\n", listLabel(task.List.Name)))
	}
	if labels := formatLabels(*task); labels != "" {
		summary.WriteString(fmt.Sprintf("• <b>Labels:</b>%s\n", labels))
	}
	if task.Date != nil {
		summary.WriteString(fmt.Sprintf("• <b>Date:</b> %s\n", task.Date.In(loc).Format("2006-01-02")))
	}
	if view, ok := b.taskSvc.Describe(user, *task, time.Now()); ok {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", escape(view.Summary)))
		if view.Next != nil {
			summary.WriteString(fmt.Sprintf("• <b>Then:</b> %s\n", view.Next.In(loc).Format("2006-01-02")))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}
